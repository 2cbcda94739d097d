package config

import "fmt"

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string
	// Format is the logging format (json, console).
	Format string
	// Output is stdout, stderr, or a file path.
	Output string
}

// LoadLoggerConfigFromEnv loads logger configuration from environment variables.
func LoadLoggerConfigFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:  GetEnv("LOG_LEVEL", "info"),
		Format: GetEnv("LOG_FORMAT", "json"),
		Output: GetEnv("LOG_OUTPUT", "stdout"),
	}
}

// CLILoggerConfig returns the quieter console configuration used by command-line contexts.
func CLILoggerConfig(verbose bool) LoggerConfig {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return LoggerConfig{
		Level:  level,
		Format: "console",
		Output: "stderr",
	}
}

// Validate validates logger configuration.
func (c LoggerConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be: json, console)", c.Format)
	}

	if c.Output == "" {
		return fmt.Errorf("log output must not be empty")
	}

	return nil
}

// IsProduction returns true if logger is configured for production.
func (c LoggerConfig) IsProduction() bool {
	return c.Format == "json" && c.Level != "debug"
}

// IsStdStream reports whether output goes to stdout or stderr rather than a file.
func (c LoggerConfig) IsStdStream() bool {
	return c.Output == "stdout" || c.Output == "stderr"
}
