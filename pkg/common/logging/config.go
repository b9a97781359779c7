package logging

import (
	"fmt"
	"io"
	"os"
)

// ConfigureFromSettings configures a logger from string settings, as read
// from a configuration file or command-line flags. The output selector is
// "console" (stderr), "file", or "both"; file-backed outputs require a
// filename.
func ConfigureFromSettings(level, format, output, filename string) (*Logger, error) {
	logLevel, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	logFormat, err := ParseLogFormat(format)
	if err != nil {
		return nil, err
	}

	var writer io.Writer
	switch output {
	case "", "console":
		writer = os.Stderr
	case "file":
		if filename == "" {
			return nil, fmt.Errorf("log file path required when output is 'file'")
		}
		fileWriter, err := CreateFileOutput(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create file output: %w", err)
		}
		writer = fileWriter
	case "both":
		if filename == "" {
			return nil, fmt.Errorf("log file path required when output is 'both'")
		}
		combinedWriter, err := CreateCombinedOutput(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create combined output: %w", err)
		}
		writer = combinedWriter
	default:
		return nil, fmt.Errorf("invalid log output: %s", output)
	}

	return NewLogger(&Config{
		Level:  logLevel,
		Format: logFormat,
		Output: writer,
	}), nil
}

// InitFromConfig initializes the global logger from configuration settings
func InitFromConfig(level, format, output, filename string) error {
	logger, err := ConfigureFromSettings(level, format, output, filename)
	if err != nil {
		return err
	}

	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger

	return nil
}
