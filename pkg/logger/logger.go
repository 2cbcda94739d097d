// Package logger provides structured logging using zap.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appConfig "github.com/festy23/prtracker/internal/config"
)

// New creates a new logger from LOG_* environment variables.
func New() (*zap.SugaredLogger, error) {
	return NewWithConfig(appConfig.LoadLoggerConfigFromEnv())
}

// NewWithConfig creates a new logger with custom configuration.
func NewWithConfig(cfg appConfig.LoggerConfig) (*zap.SugaredLogger, error) {
	var zapConfig zap.Config

	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.Format == "console" {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig.Encoding = "json"
	}

	// zap opens anything that is not a std stream as a file path.
	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	zapConfig.OutputPaths = []string{output}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// NewCLI creates the console logger used by command-line contexts.
func NewCLI(verbose bool) *zap.SugaredLogger {
	logger, err := NewWithConfig(appConfig.CLILoggerConfig(verbose))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
