package service

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoad_Testdata(t *testing.T) {
	svc, err := Load(filepath.Join("testdata", "serverless.yml"), Options{LookupEnv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, "sns-sqs-service", svc.Name)
	assert.Equal(t, "aws", svc.Provider.Name)
	assert.Equal(t, "dev-sd", svc.Provider.Stage)
	assert.Equal(t, "ap-southeast-2", svc.Provider.Region)
	assert.Equal(t, "nodejs18.x", svc.Provider.Runtime)
	assert.Equal(t, filepath.Join("testdata", "serverless.yml"), svc.Path)

	require.Len(t, svc.Functions, 3)
	assert.Equal(t, "processEvent", svc.Functions[0].Key)
	assert.Equal(t, "processFifo", svc.Functions[1].Key)
	assert.Equal(t, "archive", svc.Functions[2].Key)

	process := svc.Functions[0]
	assert.Equal(t, "handler.handler", process.Handler)
	assert.False(t, process.HasProvisionedConcurrency())
	events := process.EventsOfType("snsSqs")
	require.Len(t, events, 1)
	ev := events[0].(map[string]any)
	assert.Equal(t, map[string]any{"Ref": "TopicArn"}, ev["topicArn"])
	assert.Equal(t, "sns-sqs-service-dev-sd-", ev["prefix"])
	assert.Equal(t, 3, ev["maxRetryCount"])
	assert.Equal(t, 2, ev["batchSize"])

	fifo := svc.Functions[1]
	assert.True(t, fifo.HasProvisionedConcurrency())
	require.Len(t, fifo.Events, 2)
	assert.Equal(t, "http", fifo.Events[0].Type)
	assert.Equal(t, "snsSqs", fifo.Events[1].Type)
	fifoEv := fifo.EventsOfType("snsSqs")[0].(map[string]any)
	assert.Equal(t, "arn:aws:sns:ap-southeast-2:123456789012:MyTopic", fifoEv["topicArn"])
	assert.Equal(t, true, fifoEv["fifo"])

	assert.Empty(t, svc.Functions[2].Events)
}

func TestLoad_StageFromOption(t *testing.T) {
	svc, err := Load(filepath.Join("testdata", "serverless.yml"), Options{Stage: "prod", Region: "us-east-1", LookupEnv: noEnv})
	require.NoError(t, err)

	assert.Equal(t, "prod", svc.Provider.Stage)
	assert.Equal(t, "us-east-1", svc.Provider.Region)
	ev := svc.Functions[0].EventsOfType("snsSqs")[0].(map[string]any)
	assert.Equal(t, "sns-sqs-service-prod-", ev["prefix"])
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "serverless.yml"), Options{})
	assert.Error(t, err)
}

func TestParse_StagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		opts Options
		want string
	}{
		{"default", "service: s\nprovider: aws\n", Options{}, "dev"},
		{"provider", "service: s\nprovider:\n  name: aws\n  stage: qa\n", Options{}, "qa"},
		{"option wins", "service: s\nprovider:\n  name: aws\n  stage: qa\n", Options{Stage: "prod"}, "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.LookupEnv = noEnv
			svc, err := Parse([]byte(tt.yaml), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.Provider.Stage)
		})
	}
}

func TestParse_ServiceNameForms(t *testing.T) {
	svc, err := Parse([]byte("service:\n  name: named\nprovider: aws\n"), Options{LookupEnv: noEnv})
	require.NoError(t, err)
	assert.Equal(t, "named", svc.Name)
	assert.Equal(t, "aws", svc.Provider.Name)

	_, err = Parse([]byte("provider: aws\n"), Options{LookupEnv: noEnv})
	assert.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"invalid yaml", "service: [unclosed\n"},
		{"event with two types", "service: s\nfunctions:\n  f:\n    events:\n      - snsSqs: {}\n        http: {}\n"},
		{"function not a mapping", "service: s\nfunctions:\n  f: [1, 2]\n"},
		{"unresolved env", "service: s\ncustom:\n  x: ${env:NOPE}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), Options{LookupEnv: noEnv})
			assert.Error(t, err)
		})
	}
}

func TestFunction_HasProvisionedConcurrency(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{0, false},
		{2, true},
		{float64(1), true},
		{true, true},
		{false, false},
		{"", false},
		{"0", false},
		{"5", true},
		{map[string]any{"Ref": "Concurrency"}, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Function{ProvisionedConcurrency: tt.v}.HasProvisionedConcurrency(), "%v", tt.v)
	}
}
