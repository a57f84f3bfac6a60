// Package wetwire_snssqs wires SNS topics to Lambda functions through SQS queues.
//
// Functions in a Serverless-style service configuration declare an snsSqs event:
//
//	functions:
//	  processEvent:
//	    handler: handler.handler
//	    events:
//	      - snsSqs:
//	          name: Event
//	          topicArn: !Ref TopicArn
//
// The wetwire-snssqs CLI reads the service configuration and the compiled CloudFormation
// template, then adds the queue, dead-letter queue, queue policy, topic subscription,
// event source mapping and execution role statements for every such event.
package wetwire_snssqs

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion,omitempty" yaml:"AWSTemplateFormatVersion,omitempty"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Transform                any                    `json:"Transform,omitempty" yaml:"Transform,omitempty"`
	Metadata                 map[string]any         `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
	Parameters               map[string]any         `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Mappings                 map[string]any         `json:"Mappings,omitempty" yaml:"Mappings,omitempty"`
	Conditions               map[string]any         `json:"Conditions,omitempty" yaml:"Conditions,omitempty"`
	Rules                    map[string]any         `json:"Rules,omitempty" yaml:"Rules,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]any         `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           any            `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	Condition           string         `json:"Condition,omitempty" yaml:"Condition,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
	Metadata            map[string]any `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
}

// PackageResult is the JSON output from `wetwire-snssqs package --dry-run --format json`.
type PackageResult struct {
	Success   bool         `json:"success"`
	Events    int          `json:"events"`
	Resources []string     `json:"resources,omitempty"`
	Diff      TemplateDiff `json:"diff"`
	Errors    []string     `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-snssqs validate`.
type ValidateResult struct {
	Success  bool     `json:"success"`
	Events   int      `json:"events"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-snssqs list`.
type ListResult struct {
	Events []ListEvent `json:"events"`
}

// ListEvent is a single snsSqs event in the list output.
type ListEvent struct {
	Function            string   `json:"function"`
	Name                string   `json:"name"`
	QueueName           string   `json:"queueName,omitempty"`
	DeadLetterQueueName string   `json:"deadLetterQueueName,omitempty"`
	LogicalIDs          []string `json:"logicalIds"`
}

// TemplateDiff holds the resource-level differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry describes one changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the entries of a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}

// SchemaError is a resource-level schema violation found in a packaged template.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property,omitempty"`
	Message  string `json:"message"`
}
