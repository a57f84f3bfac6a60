// Package logging configures the process-wide zap logger for the CLI.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger configuration.
type Options struct {
	// Verbose switches to the development config at debug level.
	Verbose bool
	// JSON selects JSON encoding instead of console output.
	JSON bool
}

// Config returns the zap configuration for opts. Without Verbose only
// warnings and errors are written, so command output stays readable.
func Config(opts Options) zap.Config {
	var zapCfg zap.Config
	if opts.Verbose {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		zapCfg.DisableStacktrace = true
	}
	if opts.JSON {
		zapCfg.Encoding = "json"
	} else {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapCfg
}

// Setup builds a logger from opts and installs it as the global logger.
// The returned function restores the previous global logger.
func Setup(opts Options) (func(), error) {
	z, err := Config(opts).Build()
	if err != nil {
		return nil, err
	}
	restore := zap.ReplaceGlobals(z)
	return func() {
		_ = z.Sync()
		restore()
	}, nil
}
