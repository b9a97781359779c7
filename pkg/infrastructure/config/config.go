package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
	"github.com/TheEntropyCollective/contenthash/pkg/util"
)

// Config holds all contenthash configuration
type Config struct {
	// Hashing parameters
	Hashing HashingConfig `json:"hashing"`

	// Result output
	Output OutputConfig `json:"output"`

	// Duplicate-block estimation
	Dedup DedupConfig `json:"dedup"`

	// Watch mode
	Watch WatchConfig `json:"watch"`

	// System configuration
	Logging LoggingConfig `json:"logging"`
}

// HashingConfig holds the parameters that determine digests
type HashingConfig struct {
	Algorithm string `json:"algorithm"`  // sha256, blake2b, blake3
	BlockSize string `json:"block_size"` // human-readable, e.g. "4MiB"
	Workers   int    `json:"workers"`    // 0 hashes sequentially

	// Computed from BlockSize on load
	BlockSizeBytes int64 `json:"-"`
}

// OutputConfig holds result presentation settings
type OutputConfig struct {
	Format   string `json:"format"`   // text, json
	Progress string `json:"progress"` // auto, always, never
	Stats    bool   `json:"stats"`
}

// DedupConfig holds duplicate-block estimator settings
type DedupConfig struct {
	ExpectedBlocks    uint    `json:"expected_blocks"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
}

// WatchConfig holds watch mode settings
type WatchConfig struct {
	DebounceMS int `json:"debounce_ms"`
}

// Debounce returns the configured debounce interval as a duration
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text, json
	Output string `json:"output"` // console, file, both
	File   string `json:"file,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	config := &Config{
		Hashing: HashingConfig{
			Algorithm: digest.Default().Name(),
			BlockSize: "4MiB",
			Workers:   runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format:   "text",
			Progress: "auto",
			Stats:    false,
		},
		Dedup: DedupConfig{
			ExpectedBlocks:    64 * 1024,
			FalsePositiveRate: 0.001,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "console",
			File:   "",
		},
	}

	// Populate computed fields
	config.updateComputedFields()
	return config
}

// LoadConfig loads configuration from file with environment variable overrides
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// Load from file if it exists
	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Update computed fields after overrides
	config.updateComputedFields()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a JSON file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use defaults
			return nil
		}
		return err
	}

	return json.Unmarshal(data, c)
}

// updateComputedFields populates computed fields based on core configuration
func (c *Config) updateComputedFields() {
	if size, err := util.ParseSize(c.Hashing.BlockSize); err == nil {
		c.Hashing.BlockSizeBytes = size
	} else {
		c.Hashing.BlockSizeBytes = 0
	}
}

// applyEnvironmentOverrides applies environment variable overrides
func (c *Config) applyEnvironmentOverrides() {
	// Hashing overrides
	if val := os.Getenv("CONTENTHASH_ALGORITHM"); val != "" {
		c.Hashing.Algorithm = val
	}
	if val := os.Getenv("CONTENTHASH_BLOCK_SIZE"); val != "" {
		c.Hashing.BlockSize = val
	}
	if val := os.Getenv("CONTENTHASH_WORKERS"); val != "" {
		if workers, err := strconv.Atoi(val); err == nil {
			c.Hashing.Workers = workers
		}
	}

	// Output overrides
	if val := os.Getenv("CONTENTHASH_OUTPUT_FORMAT"); val != "" {
		c.Output.Format = val
	}
	if val := os.Getenv("CONTENTHASH_PROGRESS"); val != "" {
		c.Output.Progress = val
	}

	// Watch overrides
	if val := os.Getenv("CONTENTHASH_WATCH_DEBOUNCE_MS"); val != "" {
		if debounce, err := strconv.Atoi(val); err == nil {
			c.Watch.DebounceMS = debounce
		}
	}

	// Logging overrides
	if val := os.Getenv("CONTENTHASH_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("CONTENTHASH_LOG_FORMAT"); val != "" {
		c.Logging.Format = val
	}
	if val := os.Getenv("CONTENTHASH_LOG_OUTPUT"); val != "" {
		c.Logging.Output = val
	}
	if val := os.Getenv("CONTENTHASH_LOG_FILE"); val != "" {
		c.Logging.File = val
	}
}

// Validate validates the configuration and provides helpful suggestions
func (c *Config) Validate() error {
	// Validate hashing configuration
	if _, err := digest.Lookup(c.Hashing.Algorithm); err != nil {
		return fmt.Errorf("invalid algorithm '%s'. Valid options: %v", c.Hashing.Algorithm, digest.Names())
	}

	if _, err := util.ParseSize(c.Hashing.BlockSize); err != nil {
		return fmt.Errorf("invalid block size '%s'. Use a size like 4MiB, 1MB, or 65536", c.Hashing.BlockSize)
	}
	if c.Hashing.BlockSizeBytes <= 0 {
		return fmt.Errorf("block size must be positive (current: %s). Use 4MiB for the standard block size", c.Hashing.BlockSize)
	}

	if c.Hashing.Workers < 0 {
		return fmt.Errorf("workers cannot be negative (current: %d). Use 0 for sequential hashing", c.Hashing.Workers)
	}

	// Validate output configuration
	validFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format '%s'. Valid options: text, json", c.Output.Format)
	}

	validProgress := map[string]bool{
		"auto": true, "always": true, "never": true,
	}
	if !validProgress[c.Output.Progress] {
		return fmt.Errorf("invalid progress mode '%s'. Valid options: auto, always, never", c.Output.Progress)
	}

	// Validate dedup configuration
	if c.Dedup.ExpectedBlocks == 0 {
		return fmt.Errorf("expected blocks must be positive. Use 65536 for streams up to 256 GiB at the default block size")
	}
	if c.Dedup.FalsePositiveRate <= 0 || c.Dedup.FalsePositiveRate >= 1 {
		return fmt.Errorf("false positive rate must be between 0 and 1 exclusive (current: %v). Use 0.001 for default", c.Dedup.FalsePositiveRate)
	}

	// Validate watch configuration
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch debounce cannot be negative (current: %d ms). Use 500 for default", c.Watch.DebounceMS)
	}
	if c.Watch.DebounceMS > 60000 {
		return fmt.Errorf("watch debounce is very high (%d ms). Consider using 100-5000", c.Watch.DebounceMS)
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s'. Valid options: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format '%s'. Valid options: text, json", c.Logging.Format)
	}

	validOutputs := map[string]bool{
		"console": true, "file": true, "both": true,
	}
	if !validOutputs[c.Logging.Output] {
		return fmt.Errorf("invalid log output '%s'. Valid options: console, file, both", c.Logging.Output)
	}

	// Check if file output is configured properly
	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.File == "" {
		return fmt.Errorf("log file path is required when output is '%s'", c.Logging.Output)
	}

	return nil
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to JSON with proper formatting
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	return os.WriteFile(path, data, 0644)
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".contenthash", "config.json"), nil
}
