package event

// Provider is the provider the snsSqs event is registered for.
const Provider = "aws"

// Schema returns the JSON Schema of the snsSqs function event.
// A fresh value is returned on each call so callers may embed it.
func Schema() map[string]any {
	awsArn := map[string]any{
		"anyOf": []any{
			map[string]any{"type": "string", "pattern": "^arn:"},
			intrinsicSchema(),
		},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":           map[string]any{"type": "string"},
			"topicArn":       awsArn,
			"prefix":         map[string]any{"type": "string"},
			"omitPhysicalId": map[string]any{"type": "boolean"},
			"batchSize":      numberSchema(1, 10000),
			"maximumBatchingWindowInSeconds": numberSchema(0, 300),
			"maxRetryCount":                  map[string]any{"type": "number"},
			"kmsMasterKeyId": map[string]any{
				"anyOf": []any{map[string]any{"type": "string"}, intrinsicSchema()},
			},
			"kmsDataKeyReusePeriodSeconds":            numberSchema(60, 86400),
			"visibilityTimeout":                       numberSchema(0, 43200),
			"deadLetterMessageRetentionPeriodSeconds": numberSchema(60, 1209600),
			"deadLetterQueueEnabled":                  map[string]any{"type": "boolean"},
			"rawMessageDelivery":                      map[string]any{"type": "boolean"},
			"enabled":                                 map[string]any{"type": "boolean"},
			"fifo":                                    map[string]any{"type": "boolean"},
			"filterPolicy":                            map[string]any{"type": "object"},
			"mainQueueOverride":                       map[string]any{"type": "object"},
			"deadLetterQueueOverride":                 map[string]any{"type": "object"},
			"eventSourceMappingOverride":              map[string]any{"type": "object"},
			"subscriptionOverride":                    map[string]any{"type": "object"},
		},
		"required":             []any{"name", "topicArn"},
		"additionalProperties": false,
	}
}

func numberSchema(min, max int) map[string]any {
	return map[string]any{"type": "number", "minimum": min, "maximum": max}
}

// intrinsicSchema accepts a single-key object such as {"Ref": "Topic"} or
// {"Fn::ImportValue": "shared-topic-arn"}.
func intrinsicSchema() map[string]any {
	return map[string]any{
		"type":          "object",
		"minProperties": 1,
		"maxProperties": 1,
		"propertyNames": map[string]any{"pattern": "^(Ref|Condition|Fn::[A-Za-z0-9]+)$"},
	}
}
