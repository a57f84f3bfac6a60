// Command wetwire-snssqs adds SNS → SQS → Lambda wiring to compiled CloudFormation templates.
//
// Usage:
//
//	wetwire-snssqs package --template compiled.json   Add snsSqs resources to a template
//	wetwire-snssqs validate                           Check snsSqs events
//	wetwire-snssqs list                               List snsSqs events
//	wetwire-snssqs version                            Show version
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-snssqs-go/internal/logging"
)

// errFailed is returned after a command has already reported its failure.
var errFailed = errors.New("failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logOpts logging.Options
		restore func()
	)

	rootCmd := &cobra.Command{
		Use:   "wetwire-snssqs",
		Short: "Wire SNS topics to Lambda functions through SQS queues",
		Long: `wetwire-snssqs adds SNS → SQS → Lambda wiring to compiled CloudFormation templates.

Declare an snsSqs event on a function in serverless.yml:

    functions:
      processEvent:
        handler: handler.handler
        events:
          - snsSqs:
              name: Event
              topicArn: !Ref TopicArn

Then add the queue, dead-letter queue, queue policy, subscription and
event source mapping to the compiled template:

    wetwire-snssqs package --template .serverless/cloudformation-template-update-stack.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			r, err := logging.Setup(logOpts)
			if err != nil {
				return fmt.Errorf("configuring logger: %w", err)
			}
			restore = r
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if restore != nil {
				restore()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&logOpts.Verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().BoolVar(&logOpts.JSON, "json-log", false, "Write logs as JSON")

	rootCmd.AddCommand(
		newPackageCmd(&logOpts),
		newValidateCmd(),
		newListCmd(),
		newGraphCmd(),
		newDiffCmd(),
		newSchemaCmd(),
		newWatchCmd(&logOpts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-snssqs %s\n", getVersion())
		},
	}
}
