// Package schema validates snsSqs function events against their JSON Schema
// and checks the resources emitted for them against offline CloudFormation
// resource schemas.
package schema

import (
	"fmt"
	"sort"
	"strings"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/intrinsics"
)

// Options configures template validation.
type Options struct {
	// Strict reports properties missing from the resource schema as warnings.
	Strict bool
}

// Result contains template validation results.
type Result struct {
	Valid    bool
	Errors   []wetwire.SchemaError
	Warnings []wetwire.SchemaError
}

// ValidateTemplate checks every resource with a known schema. Resources of
// other types are skipped, since a compiled template carries many resources
// this tool neither creates nor changes.
func ValidateTemplate(template *wetwire.Template, opts Options) *Result {
	result := &Result{Valid: true}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := validateResource(name, template.Resources[name], opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateResource(name string, resource wetwire.ResourceDef, opts Options) ([]wetwire.SchemaError, []wetwire.SchemaError) {
	var errs, warnings []wetwire.SchemaError

	if !isValidResourceType(resource.Type) {
		errs = append(errs, wetwire.SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
		return errs, warnings
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, wetwire.SchemaError{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for prop := range resource.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	for _, propName := range props {
		propSchema, ok := schema.Properties[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, wetwire.SchemaError{
					Resource: name,
					Property: propName,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}
		errs = append(errs, validateProperty(name, propName, resource.Properties[propName], propSchema)...)
	}

	return errs, warnings
}

// isValidResourceType checks the AWS::Service::Resource or Custom::* shape.
func isValidResourceType(resourceType string) bool {
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return false
	}
	return parts[0] == "AWS" || parts[0] == "Alexa"
}

func validateProperty(resource, property string, value any, schema PropertySchema) []wetwire.SchemaError {
	var errs []wetwire.SchemaError

	if !isValidType(value, schema.Type) {
		errs = append(errs, wetwire.SchemaError{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s, got %T", schema.Type, value),
		})
	}

	if len(schema.AllowedValues) > 0 {
		if strVal, ok := value.(string); ok {
			found := false
			for _, allowed := range schema.AllowedValues {
				if strVal == allowed {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, wetwire.SchemaError{
					Resource: resource,
					Property: property,
					Message:  fmt.Sprintf("value %q not in allowed values: %v", strVal, schema.AllowedValues),
				})
			}
		}
	}

	return errs
}

// isValidType checks a normalized JSON value against a CloudFormation
// primitive type. Intrinsics are resolved at deploy time and always pass.
func isValidType(value any, expectedType string) bool {
	if intrinsics.IsIntrinsic(value) {
		return true
	}

	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		return false
	case "Boolean":
		switch v := value.(type) {
		case bool:
			return true
		case string:
			return strings.EqualFold(v, "true") || strings.EqualFold(v, "false")
		}
		return false
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Type       string
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}

var resourceSchemas = map[string]ResourceSchema{
	"AWS::SQS::Queue": {
		Type: "AWS::SQS::Queue",
		Properties: map[string]PropertySchema{
			"ContentBasedDeduplication":    {Type: "Boolean"},
			"DeduplicationScope":           {Type: "String", AllowedValues: []string{"messageGroup", "queue"}},
			"DelaySeconds":                 {Type: "Integer"},
			"FifoQueue":                    {Type: "Boolean"},
			"FifoThroughputLimit":          {Type: "String", AllowedValues: []string{"perQueue", "perMessageGroupId"}},
			"KmsDataKeyReusePeriodSeconds": {Type: "Integer"},
			"KmsMasterKeyId":               {Type: "String"},
			"MaximumMessageSize":           {Type: "Integer"},
			"MessageRetentionPeriod":       {Type: "Integer"},
			"QueueName":                    {Type: "String"},
			"ReceiveMessageWaitTimeSeconds": {Type: "Integer"},
			"RedriveAllowPolicy":           {Type: "Json"},
			"RedrivePolicy":                {Type: "Json"},
			"SqsManagedSseEnabled":         {Type: "Boolean"},
			"Tags":                         {Type: "List"},
			"VisibilityTimeout":            {Type: "Integer"},
		},
	},
	"AWS::SQS::QueuePolicy": {
		Type:     "AWS::SQS::QueuePolicy",
		Required: []string{"PolicyDocument", "Queues"},
		Properties: map[string]PropertySchema{
			"PolicyDocument": {Type: "Json"},
			"Queues":         {Type: "List"},
		},
	},
	"AWS::SNS::Subscription": {
		Type:     "AWS::SNS::Subscription",
		Required: []string{"Protocol", "TopicArn"},
		Properties: map[string]PropertySchema{
			"DeliveryPolicy":      {Type: "Json"},
			"Endpoint":            {Type: "String"},
			"FilterPolicy":        {Type: "Json"},
			"FilterPolicyScope":   {Type: "String", AllowedValues: []string{"MessageAttributes", "MessageBody"}},
			"Protocol":            {Type: "String", AllowedValues: []string{"http", "https", "email", "email-json", "sms", "sqs", "application", "lambda", "firehose"}},
			"RawMessageDelivery":  {Type: "Boolean"},
			"RedrivePolicy":       {Type: "Json"},
			"Region":              {Type: "String"},
			"ReplayPolicy":        {Type: "Json"},
			"SubscriptionRoleArn": {Type: "String"},
			"TopicArn":            {Type: "String"},
		},
	},
	"AWS::Lambda::EventSourceMapping": {
		Type:     "AWS::Lambda::EventSourceMapping",
		Required: []string{"FunctionName"},
		Properties: map[string]PropertySchema{
			"BatchSize":                      {Type: "Integer"},
			"BisectBatchOnFunctionError":     {Type: "Boolean"},
			"DestinationConfig":              {Type: "Map"},
			"Enabled":                        {Type: "Boolean"},
			"EventSourceArn":                 {Type: "String"},
			"FilterCriteria":                 {Type: "Map"},
			"FunctionName":                   {Type: "String"},
			"FunctionResponseTypes":          {Type: "List"},
			"MaximumBatchingWindowInSeconds": {Type: "Integer"},
			"MaximumRecordAgeInSeconds":      {Type: "Integer"},
			"MaximumRetryAttempts":           {Type: "Integer"},
			"ParallelizationFactor":          {Type: "Integer"},
			"ScalingConfig":                  {Type: "Map"},
			"StartingPosition":               {Type: "String"},
			"Tags":                           {Type: "List"},
		},
	},
}
