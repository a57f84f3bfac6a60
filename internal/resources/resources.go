// Package resources emits the CloudFormation resources that connect an SNS
// topic to a Lambda function through an SQS queue.
//
// Every emitter adds exactly one resource through template.AddResource, so a
// logical ID collision between two events fails instead of silently
// overwriting the earlier resource. Override blocks from the event are
// PascalCased and merged last, taking precedence over computed properties.
package resources

import (
	"fmt"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/event"
	"github.com/lex00/wetwire-snssqs-go/internal/serialize"
	"github.com/lex00/wetwire-snssqs-go/internal/template"
	"github.com/lex00/wetwire-snssqs-go/intrinsics"
)

// CloudFormation resource types emitted by this package.
const (
	TypeEventSourceMapping = "AWS::Lambda::EventSourceMapping"
	TypeQueue              = "AWS::SQS::Queue"
	TypeQueuePolicy        = "AWS::SQS::QueuePolicy"
	TypeSubscription       = "AWS::SNS::Subscription"
)

// Function is the part of a service function the emitters depend on.
type Function struct {
	Key                    string
	ProvisionedConcurrency bool
}

// Emitter adds one group of resources for an event.
type Emitter func(t *wetwire.Template, fn Function, cfg *event.Config) error

// Emitters lists the resource emitters in the order they run.
var Emitters = []Emitter{
	AddEventSourceMapping,
	AddDeadLetterQueue,
	AddQueue,
	AddQueuePolicy,
	AddTopicSubscription,
	func(t *wetwire.Template, _ Function, cfg *event.Config) error {
		_, err := AddLambdaSqsPermissions(t, cfg)
		return err
	},
}

// AddSnsSqsResources runs every emitter for one snsSqs event.
func AddSnsSqsResources(t *wetwire.Template, fn Function, cfg *event.Config) error {
	for _, emit := range Emitters {
		if err := emit(t, fn, cfg); err != nil {
			return fmt.Errorf("function [%s] event [%s]: %w", fn.Key, cfg.Name, err)
		}
	}
	return nil
}

// AddEventSourceMapping connects the queue to the function.
func AddEventSourceMapping(t *wetwire.Template, fn Function, cfg *event.Config) error {
	var functionName any = intrinsics.Arn(cfg.LambdaFunctionLogicalID())
	if fn.ProvisionedConcurrency {
		functionName = intrinsics.RefTo(cfg.ProvisionedConcurrencyAliasLogicalID())
	}

	var window any = 0
	if cfg.MaximumBatchingWindowInSeconds != nil {
		window = cfg.MaximumBatchingWindowInSeconds
	}

	enabled := "False"
	if cfg.IsEnabled() {
		enabled = "True"
	}

	props := map[string]any{
		"BatchSize":                      cfg.BatchSize,
		"MaximumBatchingWindowInSeconds": window,
		"EventSourceArn":                 intrinsics.Arn(cfg.QueueLogicalID()),
		"FunctionName":                   functionName,
		"Enabled":                        enabled,
	}
	return template.AddResource(t, cfg.EventSourceMappingLogicalID(), wetwire.ResourceDef{
		Type:       TypeEventSourceMapping,
		Properties: withOverride(props, cfg.EventSourceMappingOverride),
	})
}

// AddDeadLetterQueue adds the queue that collects messages which exhausted
// their retries. Nothing is added when the dead-letter queue is disabled.
func AddDeadLetterQueue(t *wetwire.Template, _ Function, cfg *event.Config) error {
	if !cfg.DeadLetterQueueEnabled {
		return nil
	}

	props := map[string]any{}
	if err := setQueueName(props, cfg, cfg.DeadLetterQueueName()); err != nil {
		return err
	}
	if cfg.Fifo {
		props["FifoQueue"] = true
	}
	setIfPresent(props, "KmsMasterKeyId", cfg.KmsMasterKeyId)
	setIfPresent(props, "KmsDataKeyReusePeriodSeconds", cfg.KmsDataKeyReusePeriodSeconds)
	setIfPresent(props, "MessageRetentionPeriod", cfg.DeadLetterMessageRetentionPeriodSeconds)

	return template.AddResource(t, cfg.DeadLetterQueueLogicalID(), wetwire.ResourceDef{
		Type:       TypeQueue,
		Properties: withOverride(props, cfg.DeadLetterQueueOverride),
	})
}

// AddQueue adds the main queue, redriving to the dead-letter queue when enabled.
func AddQueue(t *wetwire.Template, _ Function, cfg *event.Config) error {
	props := map[string]any{}
	if err := setQueueName(props, cfg, cfg.QueueName()); err != nil {
		return err
	}
	if cfg.Fifo {
		props["FifoQueue"] = true
	}
	if cfg.DeadLetterQueueEnabled {
		props["RedrivePolicy"] = map[string]any{
			"deadLetterTargetArn": intrinsics.Arn(cfg.DeadLetterQueueLogicalID()),
			"maxReceiveCount":     cfg.MaxRetryCount,
		}
	}
	setIfPresent(props, "KmsMasterKeyId", cfg.KmsMasterKeyId)
	setIfPresent(props, "KmsDataKeyReusePeriodSeconds", cfg.KmsDataKeyReusePeriodSeconds)
	setIfPresent(props, "VisibilityTimeout", cfg.VisibilityTimeout)

	return template.AddResource(t, cfg.QueueLogicalID(), wetwire.ResourceDef{
		Type:       TypeQueue,
		Properties: withOverride(props, cfg.MainQueueOverride),
	})
}

// AddQueuePolicy allows the topic to send messages to the queue.
func AddQueuePolicy(t *wetwire.Template, _ Function, cfg *event.Config) error {
	stmt := intrinsics.PolicyStatement{
		Sid:       cfg.Prefix + cfg.Name + "Sid",
		Effect:    "Allow",
		Principal: intrinsics.ServicePrincipal{"sns.amazonaws.com"},
		Action:    intrinsics.SQSSendMessage,
		Resource:  intrinsics.Arn(cfg.QueueLogicalID()),
		Condition: intrinsics.Json{
			intrinsics.ArnEquals: intrinsics.Json{"aws:SourceArn": []any{cfg.TopicArn}},
		},
	}

	return template.AddResource(t, cfg.QueuePolicyLogicalID(), wetwire.ResourceDef{
		Type: TypeQueuePolicy,
		Properties: map[string]any{
			"PolicyDocument": intrinsics.NewPolicyDocument(cfg.Prefix+cfg.Name+"Queue", stmt),
			"Queues":         []any{intrinsics.RefTo(cfg.QueueLogicalID())},
		},
	})
}

// AddTopicSubscription subscribes the queue to the topic.
func AddTopicSubscription(t *wetwire.Template, _ Function, cfg *event.Config) error {
	props := map[string]any{
		"Endpoint":           intrinsics.Arn(cfg.QueueLogicalID()),
		"Protocol":           "sqs",
		"TopicArn":           cfg.TopicArn,
		"RawMessageDelivery": cfg.RawMessageDelivery,
	}
	if truthy(cfg.FilterPolicy) {
		props["FilterPolicy"] = cfg.FilterPolicy
	}

	return template.AddResource(t, cfg.SubscriptionLogicalID(), wetwire.ResourceDef{
		Type:       TypeSubscription,
		Properties: withOverride(props, cfg.SubscriptionOverride),
	})
}

// AddLambdaSqsPermissions grants the default execution role access to the
// queues and, when encryption is configured, to the KMS key. It reports false
// when the service uses a custom role, in which case nothing is changed.
func AddLambdaSqsPermissions(t *wetwire.Template, cfg *event.Config) (bool, error) {
	queues := []any{intrinsics.Arn(cfg.QueueLogicalID())}
	if cfg.DeadLetterQueueEnabled {
		queues = append(queues, intrinsics.Arn(cfg.DeadLetterQueueLogicalID()))
	}

	ok, err := template.AppendExecutionRoleStatement(t, intrinsics.Allow(intrinsics.SQSConsumerActions, queues))
	if err != nil || !ok {
		return false, err
	}

	if cfg.KmsMasterKeyId != nil {
		stmt := intrinsics.Allow(intrinsics.KMSDecryptActions, event.KmsKeyResource(cfg.KmsMasterKeyId))
		if _, err := template.AppendExecutionRoleStatement(t, stmt); err != nil {
			return true, err
		}
	}
	return true, nil
}

func setQueueName(props map[string]any, cfg *event.Config, name string) error {
	if cfg.OmitPhysicalId {
		return nil
	}
	name, err := event.ValidateQueueName(name)
	if err != nil {
		return err
	}
	props["QueueName"] = name
	return nil
}

func setIfPresent(props map[string]any, key string, v any) {
	if v != nil {
		props[key] = v
	}
}

func withOverride(props, override map[string]any) map[string]any {
	for k, v := range serialize.PascalCaseKeys(override) {
		props[k] = v
	}
	return props
}

// truthy follows the host framework's notion of a set value: nil, false,
// zero and the empty string are unset.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}
