// Package event validates snsSqs function events and derives the names and
// logical IDs of the resources generated for them.
package event

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/mitchellh/mapstructure"

	"github.com/lex00/wetwire-snssqs-go/internal/serialize"
)

// Type is the function event key handled by this package.
const Type = "snsSqs"

// Defaults applied by Validate.
const (
	DefaultBatchSize     = 10
	DefaultMaxRetryCount = 5
)

// RawEvent is the snsSqs block as written in the service configuration.
// Numeric fields stay untyped so parse-or-default rules and pass-through
// values (including intrinsics) survive decoding.
type RawEvent struct {
	Name                                    string         `mapstructure:"name"`
	TopicArn                                any            `mapstructure:"topicArn"`
	Prefix                                  string         `mapstructure:"prefix"`
	OmitPhysicalId                          bool           `mapstructure:"omitPhysicalId"`
	BatchSize                               any            `mapstructure:"batchSize"`
	MaximumBatchingWindowInSeconds          any            `mapstructure:"maximumBatchingWindowInSeconds"`
	MaxRetryCount                           any            `mapstructure:"maxRetryCount"`
	KmsMasterKeyId                          any            `mapstructure:"kmsMasterKeyId"`
	KmsDataKeyReusePeriodSeconds            any            `mapstructure:"kmsDataKeyReusePeriodSeconds"`
	DeadLetterMessageRetentionPeriodSeconds any            `mapstructure:"deadLetterMessageRetentionPeriodSeconds"`
	DeadLetterQueueEnabled                  *bool          `mapstructure:"deadLetterQueueEnabled"`
	Enabled                                 *bool          `mapstructure:"enabled"`
	Fifo                                    *bool          `mapstructure:"fifo"`
	VisibilityTimeout                       any            `mapstructure:"visibilityTimeout"`
	RawMessageDelivery                      *bool          `mapstructure:"rawMessageDelivery"`
	FilterPolicy                            any            `mapstructure:"filterPolicy"`
	MainQueueOverride                       map[string]any `mapstructure:"mainQueueOverride"`
	DeadLetterQueueOverride                 map[string]any `mapstructure:"deadLetterQueueOverride"`
	EventSourceMappingOverride              map[string]any `mapstructure:"eventSourceMappingOverride"`
	SubscriptionOverride                    map[string]any `mapstructure:"subscriptionOverride"`
}

// Config is a validated and defaulted snsSqs event.
type Config struct {
	Name     string
	TopicArn any
	// FuncName is the function key with its first character upper-cased.
	FuncName string
	Prefix   string

	BatchSize                      int
	MaximumBatchingWindowInSeconds any
	MaxRetryCount                  int

	KmsMasterKeyId                          any
	KmsDataKeyReusePeriodSeconds            any
	DeadLetterMessageRetentionPeriodSeconds any
	VisibilityTimeout                       any

	DeadLetterQueueEnabled bool
	Enabled                *bool
	Fifo                   bool
	RawMessageDelivery     bool
	OmitPhysicalId         bool
	FilterPolicy           any

	MainQueueOverride          map[string]any
	DeadLetterQueueOverride    map[string]any
	EventSourceMappingOverride map[string]any
	SubscriptionOverride       map[string]any
}

// Decode maps a raw snsSqs block onto a RawEvent.
func Decode(raw map[string]any) (RawEvent, error) {
	var ev RawEvent
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &ev,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return RawEvent{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return RawEvent{}, fmt.Errorf("decoding %s event: %w", Type, err)
	}
	return ev, nil
}

// Validate checks the required fields of a raw snsSqs block and returns the
// defaulted Config. serviceName and stage feed the default prefix.
func Validate(serviceName, funcName, stage string, raw map[string]any) (*Config, error) {
	if isAbsent(raw["name"]) || isAbsent(raw["topicArn"]) {
		return nil, fmt.Errorf("%w.\nIn function [%s]:\n- name was [%s]\n- topicArn was [%s].\n\n%s",
			ErrMissingRequired, funcName, describe(raw["name"]), describe(raw["topicArn"]), usage)
	}

	ev, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("function [%s]: %w", funcName, err)
	}

	funcNamePascal := serialize.PascalCase(funcName)
	prefix := ev.Prefix
	if prefix == "" {
		prefix = fmt.Sprintf("%s-%s-%s", serviceName, stage, funcNamePascal)
	}

	return &Config{
		Name:                                    ev.Name,
		TopicArn:                                ev.TopicArn,
		FuncName:                                funcNamePascal,
		Prefix:                                  prefix,
		BatchSize:                               ParseIntOr(ev.BatchSize, DefaultBatchSize),
		MaximumBatchingWindowInSeconds:          ev.MaximumBatchingWindowInSeconds,
		MaxRetryCount:                           ParseIntOr(ev.MaxRetryCount, DefaultMaxRetryCount),
		KmsMasterKeyId:                          ev.KmsMasterKeyId,
		KmsDataKeyReusePeriodSeconds:            ev.KmsDataKeyReusePeriodSeconds,
		DeadLetterMessageRetentionPeriodSeconds: ev.DeadLetterMessageRetentionPeriodSeconds,
		VisibilityTimeout:                       ev.VisibilityTimeout,
		DeadLetterQueueEnabled:                  boolOr(ev.DeadLetterQueueEnabled, true),
		Enabled:                                 ev.Enabled,
		Fifo:                                    boolOr(ev.Fifo, false),
		RawMessageDelivery:                      boolOr(ev.RawMessageDelivery, false),
		OmitPhysicalId:                          ev.OmitPhysicalId,
		FilterPolicy:                            ev.FilterPolicy,
		MainQueueOverride:                       orEmpty(ev.MainQueueOverride),
		DeadLetterQueueOverride:                 orEmpty(ev.DeadLetterQueueOverride),
		EventSourceMappingOverride:              orEmpty(ev.EventSourceMappingOverride),
		SubscriptionOverride:                    orEmpty(ev.SubscriptionOverride),
	}, nil
}

func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// IsEnabled reports the event source mapping state; absent means enabled.
func (c *Config) IsEnabled() bool {
	return boolOr(c.Enabled, true)
}

func (c *Config) fifoSuffix() string {
	if c.Fifo {
		return ".fifo"
	}
	return ""
}

// QueueName is the physical name of the main queue.
func (c *Config) QueueName() string {
	return c.Prefix + c.Name + "Queue" + c.fifoSuffix()
}

// DeadLetterQueueName is the physical name of the dead-letter queue.
func (c *Config) DeadLetterQueueName() string {
	return c.Prefix + c.Name + "DeadLetterQueue" + c.fifoSuffix()
}

// QueueLogicalID is the logical ID of the main queue.
func (c *Config) QueueLogicalID() string { return c.Name + "Queue" }

// DeadLetterQueueLogicalID is the logical ID of the dead-letter queue.
func (c *Config) DeadLetterQueueLogicalID() string { return c.Name + "DeadLetterQueue" }

// QueuePolicyLogicalID is the logical ID of the queue policy.
func (c *Config) QueuePolicyLogicalID() string { return c.Name + "QueuePolicy" }

// SubscriptionLogicalID is the logical ID of the topic subscription.
func (c *Config) SubscriptionLogicalID() string { return "Subscribe" + c.Name + "Topic" }

// EventSourceMappingLogicalID is the logical ID of the event source mapping.
func (c *Config) EventSourceMappingLogicalID() string {
	return c.FuncName + "EventSourceMappingSQS" + c.Name + "Queue"
}

// LambdaFunctionLogicalID is the logical ID the framework gives the function.
func (c *Config) LambdaFunctionLogicalID() string { return c.FuncName + "LambdaFunction" }

// ProvisionedConcurrencyAliasLogicalID is the alias created for functions with provisioned concurrency.
func (c *Config) ProvisionedConcurrencyAliasLogicalID() string {
	return c.FuncName + "ProvConcLambdaAlias"
}

// LogicalIDs lists every resource logical ID the event adds, in emission order.
func (c *Config) LogicalIDs() []string {
	ids := []string{c.EventSourceMappingLogicalID()}
	if c.DeadLetterQueueEnabled {
		ids = append(ids, c.DeadLetterQueueLogicalID())
	}
	return append(ids, c.QueueLogicalID(), c.QueuePolicyLogicalID(), c.SubscriptionLogicalID())
}

// CheckTopicArn verifies that a literal topicArn is an SNS ARN.
// Intrinsic objects are resolved by CloudFormation and always pass.
func (c *Config) CheckTopicArn() error {
	s, ok := c.TopicArn.(string)
	if !ok {
		return nil
	}
	parsed, err := arn.Parse(s)
	if err != nil {
		return fmt.Errorf("%w: [%s]: %v", ErrInvalidTopicArn, s, err)
	}
	if parsed.Service != "sns" || strings.Contains(parsed.Resource, "/") {
		return fmt.Errorf("%w: [%s] refers to service %q", ErrInvalidTopicArn, s, parsed.Service)
	}
	return nil
}
