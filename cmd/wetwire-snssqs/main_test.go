package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/template"
)

const (
	configPath   = "testdata/serverless.yml"
	compiledPath = "testdata/compiled.json"
)

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// copyCompiled copies the compiled template fixture into a temp dir.
func copyCompiled(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(compiledPath)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "compiled.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPackage_DryRunJSON(t *testing.T) {
	out, err := execute(t, "package", "-c", configPath, "-t", compiledPath, "--dry-run", "-f", "json")
	require.NoError(t, err)

	var result wetwire.PackageResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Events)
	assert.Len(t, result.Resources, 10)
	assert.Contains(t, result.Resources, "EventQueue")
	assert.Contains(t, result.Resources, "FifoEventDeadLetterQueue")
	assert.Contains(t, result.Resources, "ProcessFifoEventSourceMappingSQSFifoEventQueue")

	require.Len(t, result.Diff.Modified, 1)
	assert.Equal(t, "IamRoleLambdaExecution", result.Diff.Modified[0].Resource)
}

func TestPackage_DryRunText(t *testing.T) {
	out, err := execute(t, "package", "-c", configPath, "-t", compiledPath, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "2 snsSqs events")
	assert.Contains(t, out, "+ SubscribeEventTopic (AWS::SNS::Subscription)")
	assert.Contains(t, out, "~ IamRoleLambdaExecution (AWS::IAM::Role)")
	assert.Contains(t, out, "10 added, 0 removed, 1 modified")
}

func TestPackage_Output(t *testing.T) {
	input, err := os.ReadFile(compiledPath)
	require.NoError(t, err)
	output := filepath.Join(t.TempDir(), "packaged.yaml")

	out, err := execute(t, "package", "-c", configPath, "-t", compiledPath, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Packaged 2 snsSqs events (10 resources added)")

	packaged, err := template.Load(output)
	require.NoError(t, err)
	assert.Len(t, packaged.Resources, 17)
	assert.Equal(t, "sns-sqs-service-dev-sd-EventQueue", packaged.Resources["EventQueue"].Properties["QueueName"])
	assert.Equal(t, "sns-sqs-service-dev-sd-ProcessFifoFifoEventQueue.fifo",
		packaged.Resources["FifoEventQueue"].Properties["QueueName"])

	// The provisioned concurrency alias is the mapping target.
	esm := packaged.Resources["ProcessFifoEventSourceMappingSQSFifoEventQueue"].Properties
	assert.Equal(t, map[string]any{"Ref": "ProcessFifoProvConcLambdaAlias"}, esm["FunctionName"])

	after, err := os.ReadFile(compiledPath)
	require.NoError(t, err)
	assert.Equal(t, input, after, "input template is untouched")
}

func TestPackage_InPlace(t *testing.T) {
	path := copyCompiled(t)

	_, err := execute(t, "package", "-c", configPath, "-t", path)
	require.NoError(t, err)

	packaged, err := template.Load(path)
	require.NoError(t, err)
	assert.Len(t, packaged.Resources, 17)

	// Packaging the same template again collides on the generated IDs.
	_, err = execute(t, "package", "-c", configPath, "-t", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, template.ErrDuplicateLogicalID)
}

func TestPackage_Stage(t *testing.T) {
	output := filepath.Join(t.TempDir(), "packaged.json")
	_, err := execute(t, "package", "-c", configPath, "-t", compiledPath, "-o", output, "--stage", "prod")
	require.NoError(t, err)

	packaged, err := template.Load(output)
	require.NoError(t, err)
	assert.Equal(t, "sns-sqs-service-prod-EventQueue", packaged.Resources["EventQueue"].Properties["QueueName"])
}

func TestPackage_BadValidationMode(t *testing.T) {
	_, err := execute(t, "package", "-c", configPath, "-t", compiledPath, "--dry-run", "--validation-mode", "loud")
	assert.Error(t, err)
}

func TestPackage_MissingTemplate(t *testing.T) {
	_, err := execute(t, "package", "-c", configPath, "-t", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "-c", configPath, "-f", "json")
	require.NoError(t, err)

	var result wetwire.ValidateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Events)
	assert.Empty(t, result.Errors)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	config := filepath.Join(t.TempDir(), "serverless.yml")
	require.NoError(t, os.WriteFile(config, []byte(`service: broken
provider:
  name: aws
functions:
  first:
    handler: handler.first
    events:
      - snsSqs:
          name: First
  second:
    handler: handler.second
    events:
      - snsSqs:
          topicArn: arn:aws:sns:us-east-1:123456789012:Topic
`), 0o644))

	out, err := execute(t, "validate", "-c", config)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, out, "Validation FAILED:")
	assert.Contains(t, out, "function [first]")
	assert.Contains(t, out, "function [second]")
}

func TestValidate_TopicArnWarning(t *testing.T) {
	config := filepath.Join(t.TempDir(), "serverless.yml")
	require.NoError(t, os.WriteFile(config, []byte(`service: warned
provider:
  name: aws
functions:
  handle:
    handler: handler.handle
    events:
      - snsSqs:
          name: Event
          topicArn: arn:aws:sqs:us-east-1:123456789012:NotATopic
`), 0o644))

	out, err := execute(t, "validate", "-c", config, "-f", "json")
	require.NoError(t, err)

	var result wetwire.ValidateResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "NotATopic")
}

func TestList(t *testing.T) {
	out, err := execute(t, "list", "-c", configPath, "-f", "json")
	require.NoError(t, err)

	var result wetwire.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Events, 2)

	assert.Equal(t, wetwire.ListEvent{
		Function:            "processEvent",
		Name:                "Event",
		QueueName:           "sns-sqs-service-dev-sd-EventQueue",
		DeadLetterQueueName: "sns-sqs-service-dev-sd-EventDeadLetterQueue",
		LogicalIDs: []string{
			"ProcessEventEventSourceMappingSQSEventQueue",
			"EventDeadLetterQueue",
			"EventQueue",
			"EventQueuePolicy",
			"SubscribeEventTopic",
		},
	}, result.Events[0])
	assert.Equal(t, "processFifo", result.Events[1].Function)
	assert.Equal(t, "sns-sqs-service-dev-sd-ProcessFifoFifoEventQueue.fifo", result.Events[1].QueueName)
}

func TestList_Text(t *testing.T) {
	out, err := execute(t, "list", "-c", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "snsSqs events (2):")
	assert.Contains(t, out, "processEvent: Event")
	assert.Contains(t, out, "queue: sns-sqs-service-dev-sd-EventQueue")
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "graph", "-c", configPath, "-t", compiledPath)
	require.NoError(t, err)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "EventQueuePolicy")

	out, err = execute(t, "graph", "-c", configPath, "-t", compiledPath, "-f", "mermaid", "--cluster")
	require.NoError(t, err)
	assert.NotContains(t, out, "digraph")

	_, err = execute(t, "graph", "-c", configPath, "-t", compiledPath, "-f", "svg")
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	output := filepath.Join(t.TempDir(), "packaged.json")
	_, err := execute(t, "package", "-c", configPath, "-t", compiledPath, "-o", output)
	require.NoError(t, err)

	out, err := execute(t, "diff", compiledPath, output)
	require.NoError(t, err)
	assert.Contains(t, out, "+ EventQueue (AWS::SQS::Queue)")

	out, err = execute(t, "diff", compiledPath, compiledPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No changes.")

	out, err = execute(t, "diff", compiledPath, output, "-f", "json")
	require.NoError(t, err)
	var result struct {
		Summary wetwire.DiffSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 11, result.Summary.Total)
}

func TestNewDiffCmd(t *testing.T) {
	cmd := newDiffCmd()
	assert.Equal(t, "diff <template1> <template2>", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.Flags().Lookup("format"))
	assert.NotNil(t, cmd.Flags().Lookup("ignore-order"))
}

func TestSchema(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "object", doc["type"])
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "topicArn")
	assert.Contains(t, props, "name")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "wetwire-snssqs ")
}

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd(nil)
	assert.Equal(t, "watch", cmd.Use)
	assert.NotEmpty(t, cmd.Short)

	flag := cmd.Flags().Lookup("debounce")
	require.NotNil(t, flag)
	assert.Equal(t, "500ms", flag.DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("output"))
}

func TestCheckWatchOutput(t *testing.T) {
	tests := []struct {
		name     string
		template string
		output   string
		wantErr  bool
	}{
		{"no output", "compiled.json", "", true},
		{"same path", "compiled.json", "compiled.json", true},
		{"same file relative", "compiled.json", "./compiled.json", true},
		{"different", "compiled.json", "packaged.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkWatchOutput(packageOptions{template: tt.template, output: tt.output})
			if tt.wantErr {
				assert.ErrorIs(t, err, errSameOutput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsRelevant(t *testing.T) {
	watched, err := watchTargets(configPath, compiledPath)
	require.NoError(t, err)

	assert.True(t, isRelevant(fsnotify.Event{Name: configPath, Op: fsnotify.Write}, watched))
	assert.True(t, isRelevant(fsnotify.Event{Name: compiledPath, Op: fsnotify.Create}, watched))
	assert.False(t, isRelevant(fsnotify.Event{Name: configPath, Op: fsnotify.Chmod}, watched))
	assert.False(t, isRelevant(fsnotify.Event{Name: "testdata/other.yml", Op: fsnotify.Write}, watched))
}

func TestRunWatch_InitialPackage(t *testing.T) {
	output := filepath.Join(t.TempDir(), "packaged.json")
	opts := watchOptions{
		packageOptions: packageOptions{
			serviceFlags: serviceFlags{config: configPath},
			template:     compiledPath,
			output:       output,
		},
		debounce: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, runWatch(ctx, &out, opts))
	assert.Contains(t, out.String(), "Stopping watch...")

	packaged, err := template.Load(output)
	require.NoError(t, err)
	assert.Len(t, packaged.Resources, 17)
}

func TestRunWatch_RejectsInPlace(t *testing.T) {
	opts := watchOptions{packageOptions: packageOptions{template: compiledPath, output: compiledPath}}
	err := runWatch(context.Background(), &bytes.Buffer{}, opts)
	assert.ErrorIs(t, err, errSameOutput)
}
