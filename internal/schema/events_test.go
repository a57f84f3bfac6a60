package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-snssqs-go/internal/event"
)

func newSnsSqsRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.DefineFunctionEvent(event.Provider, event.Type, event.Schema()))
	return r
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeWarn, false},
		{"warn", ModeWarn, false},
		{"error", ModeError, false},
		{"off", ModeOff, false},
		{"strict", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_DefineFunctionEvent(t *testing.T) {
	r := newSnsSqsRegistry(t)

	assert.True(t, r.Defined("aws", "snsSqs"))
	assert.False(t, r.Defined("aws", "sqs"))
	assert.Equal(t, []string{"aws/snsSqs"}, r.Events())
	assert.NotNil(t, r.Schema("aws", "snsSqs"))

	err := r.DefineFunctionEvent("aws", "snsSqs", event.Schema())
	assert.Error(t, err)
}

func TestRegistry_DefineFunctionEvent_InvalidSchema(t *testing.T) {
	r := NewRegistry()
	err := r.DefineFunctionEvent("aws", "broken", map[string]any{"type": 12})
	assert.Error(t, err)
	assert.False(t, r.Defined("aws", "broken"))
}

func TestRegistry_ValidateFunctionEvent(t *testing.T) {
	r := newSnsSqsRegistry(t)

	tests := []struct {
		name    string
		value   map[string]any
		wantErr bool
	}{
		{
			name:  "minimal",
			value: map[string]any{"name": "Event", "topicArn": "arn:aws:sns:us-east-1:123456789012:Topic"},
		},
		{
			name:  "intrinsic topic",
			value: map[string]any{"name": "Event", "topicArn": map[string]any{"Ref": "TopicArn"}},
		},
		{
			name:  "import value topic",
			value: map[string]any{"name": "Event", "topicArn": map[string]any{"Fn::ImportValue": "shared"}},
		},
		{
			name: "all fields",
			value: map[string]any{
				"name":                           "Event",
				"topicArn":                       "arn:aws:sns:us-east-1:123456789012:Topic",
				"batchSize":                      5,
				"maximumBatchingWindowInSeconds": 10,
				"kmsMasterKeyId":                 "alias/aws/sqs",
				"fifo":                           true,
				"filterPolicy":                   map[string]any{"pet": []any{"dog"}},
				"mainQueueOverride":              map[string]any{"maximumMessageSize": 1024},
			},
		},
		{
			name:    "missing topicArn",
			value:   map[string]any{"name": "Event"},
			wantErr: true,
		},
		{
			name:    "unknown property",
			value:   map[string]any{"name": "Event", "topicArn": "arn:aws:sns:::t", "batchWindow": 10},
			wantErr: true,
		},
		{
			name:    "batch size out of range",
			value:   map[string]any{"name": "Event", "topicArn": "arn:aws:sns:::t", "batchSize": 0},
			wantErr: true,
		},
		{
			name:    "topic not an arn",
			value:   map[string]any{"name": "Event", "topicArn": "my-topic"},
			wantErr: true,
		},
		{
			name:    "fifo not a boolean",
			value:   map[string]any{"name": "Event", "topicArn": "arn:aws:sns:::t", "fifo": "yes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateFunctionEvent("aws", "snsSqs", tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrSchemaViolation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegistry_ValidateUnknownEvent(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.ValidateFunctionEvent("aws", "http", map[string]any{"anything": true}))
}
