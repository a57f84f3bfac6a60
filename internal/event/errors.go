package event

import "errors"

var (
	// ErrMissingRequired is returned when an snsSqs event lacks name or topicArn.
	ErrMissingRequired = errors.New("when creating an snsSqs handler, you must define the name and topicArn")

	// ErrQueueNameTooLong is returned when a generated queue name exceeds MaxQueueNameLength.
	ErrQueueNameTooLong = errors.New("generated queue name is too long")

	// ErrInvalidTopicArn is returned by CheckTopicArn for string topics that are not SNS ARNs.
	ErrInvalidTopicArn = errors.New("topicArn is not an SNS topic ARN")
)

// usage is appended to ErrMissingRequired messages.
const usage = `Usage
-----

  functions:
    processEvent:
      handler: handler.handler
      events:
        - snsSqs:
            name: Event                                      # required
            topicArn: !Ref TopicArn                          # required
            prefix: some-prefix                              # optional - default is ${service}-${stage}-${funcNamePascalCase}
            maxRetryCount: 2                                 # optional - default is 5
            batchSize: 1                                     # optional - default is 10
            maximumBatchingWindowInSeconds: 10               # optional - default is 0 (no batch window)
            kmsMasterKeyId: alias/aws/sqs                    # optional - default is none (no encryption)
            kmsDataKeyReusePeriodSeconds: 600                # optional - AWS default is 300 seconds
            deadLetterMessageRetentionPeriodSeconds: 1209600 # optional - AWS default is 345600 secs (4 days)
            deadLetterQueueEnabled: true                     # optional - default is enabled
            enabled: true                                    # optional - AWS default is true
            fifo: false                                      # optional - AWS default is false
            visibilityTimeout: 30                            # optional - AWS default is 30 seconds
            rawMessageDelivery: false                        # optional - default is false
            omitPhysicalId: false                            # optional - default is false
            filterPolicy:
              pet:
                - dog
                - cat

            # Overrides for generated CloudFormation templates
            # Mirrors the CloudFormation docs but uses camel case instead of title case
            #
            # https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-properties-sqs-queues.html
            mainQueueOverride:
              maximumMessageSize: 1024
            deadLetterQueueOverride:
              maximumMessageSize: 1024
            # https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-lambda-eventsourcemapping.html
            eventSourceMappingOverride:
              bisectBatchOnFunctionError: true
            # https://docs.aws.amazon.com/AWSCloudFormation/latest/UserGuide/aws-resource-sns-subscription.html
            subscriptionOverride:
              rawMessageDelivery: true
`
