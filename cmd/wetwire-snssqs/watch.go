package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lex00/wetwire-snssqs-go/internal/logging"
)

// errSameOutput is returned when watch would overwrite its own input.
var errSameOutput = errors.New("watch needs an --output different from --template")

type watchOptions struct {
	packageOptions
	debounce time.Duration
}

// newWatchCmd creates the "watch" subcommand for re-packaging on changes.
func newWatchCmd(logOpts *logging.Options) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-package on configuration changes",
		Long: `Watch monitors the service configuration and the compiled template and
re-packages whenever either changes.

The packaged template is always written to --output, which must differ from
--template: packaging a template twice would add every resource twice.

Examples:
    wetwire-snssqs watch --template compiled.json --output packaged.json
    wetwire-snssqs watch -t compiled.json -o packaged.yaml --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose = logOpts.Verbose
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd.OutOrStdout(), opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.template, "template", "t", defaultTemplate, "Compiled CloudFormation template")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (required, must differ from --template)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: json or yaml (default: from file extension)")
	cmd.Flags().StringVar(&opts.validationMode, "validation-mode", "warn", "Event schema validation: error, warn or off")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")

	return cmd
}

// checkWatchOutput rejects configurations that would rewrite the input template.
func checkWatchOutput(opts packageOptions) error {
	if opts.output == "" || sameFile(opts.output, opts.template) {
		return errSameOutput
	}
	return nil
}

// runWatch monitors the input files and re-packages on changes until ctx is done.
func runWatch(ctx context.Context, w io.Writer, opts watchOptions) error {
	if err := checkWatchOutput(opts.packageOptions); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	watched, err := watchTargets(opts.config, opts.template)
	if err != nil {
		return err
	}
	// Watch directories so editors that replace files are still seen.
	dirs := make(map[string]bool)
	for path := range watched {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	fmt.Fprintf(w, "Watching: %s, %s\n", opts.config, opts.template)

	fmt.Fprintln(w, "Running initial package...")
	rebuild(ctx, w, opts.packageOptions)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(w, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevant(ev, watched) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(w, "\n[%s] Change detected, re-packaging...\n", time.Now().Format("15:04:05"))
			rebuild(ctx, w, opts.packageOptions)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			zap.L().Error("watch error", zap.Error(err))

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(w, "\nStopping watch...")
			return nil
		}
	}
}

// watchTargets returns the absolute paths of the files whose changes trigger a rebuild.
func watchTargets(paths ...string) (map[string]bool, error) {
	targets := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		targets[abs] = true
	}
	return targets, nil
}

// isRelevant reports whether ev writes or creates one of the watched files.
func isRelevant(ev fsnotify.Event, watched map[string]bool) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return watched[abs]
}

// rebuild packages once and reports the outcome. Failures are printed, not returned,
// so the watch keeps running.
func rebuild(ctx context.Context, w io.Writer, opts packageOptions) {
	if err := runPackage(ctx, w, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Package error: %v\n", err)
		zap.L().Debug("package failed", zap.Error(err))
	}
}
