package util

import (
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a helpful suggestion
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%v\nSuggestion: %s", e.Err, e.Suggestion)
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapErrorWithSuggestion creates an error with a helpful suggestion
func WrapErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetErrorSuggestion returns helpful suggestions based on common error patterns
func GetErrorSuggestion(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// File errors
	if strings.Contains(errStr, "no such file or directory") {
		return "Check the file path and ensure the file exists"
	}

	if strings.Contains(errStr, "permission denied") {
		return "Check file permissions or try running with appropriate privileges"
	}

	if strings.Contains(errStr, "is a directory") {
		return "Pass regular files, not directories"
	}

	// Stream errors
	if strings.Contains(errStr, "incomplete block mid-stream") {
		return "The input was truncated or modified while being read. Re-run against a stable copy of the file"
	}

	if strings.Contains(errStr, "stream read failed") {
		return "The input could not be read to the end. Check the device or pipe feeding the stream"
	}

	// Verification errors
	if strings.Contains(errStr, "checksum mismatch") {
		return "The file content no longer matches the recorded digest. The file may have been modified or corrupted"
	}

	// Usage errors
	if strings.Contains(errStr, "unknown digest algorithm") {
		return "Run with -version to list the supported algorithms"
	}

	if strings.Contains(errStr, "invalid size") {
		return "Sizes accept unit suffixes, e.g. 4MiB, 512KB, 1GB"
	}

	// Configuration errors
	if strings.Contains(errStr, "failed to load configuration") {
		return "Check if the configuration file exists and is valid JSON. Use -config to specify a custom path"
	}

	// Cancellation
	if strings.Contains(errStr, "context canceled") {
		return "The operation was interrupted before the stream was fully hashed"
	}

	// Default suggestion
	return "Check the error message above and ensure all requirements are met"
}

// FormatError formats an error with suggestions for better user experience
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	// Check if it already has a suggestion
	if _, ok := err.(*ErrorWithSuggestion); ok {
		return err.Error()
	}

	// Get automatic suggestion
	suggestion := GetErrorSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %v\n💡 Suggestion: %s", err, suggestion)
	}

	return fmt.Sprintf("Error: %v", err)
}
