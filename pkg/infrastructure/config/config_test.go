package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Test defaults
	if config.Hashing.Algorithm != "sha256" {
		t.Errorf("Expected default algorithm sha256, got %s", config.Hashing.Algorithm)
	}

	if config.Hashing.BlockSizeBytes != 4*1024*1024 {
		t.Errorf("Expected default block size 4MiB, got %d", config.Hashing.BlockSizeBytes)
	}

	if config.Hashing.Workers != runtime.NumCPU() {
		t.Errorf("Expected default workers %d, got %d", runtime.NumCPU(), config.Hashing.Workers)
	}

	if config.Logging.Level != "info" {
		t.Errorf("Expected default log level info, got %s", config.Logging.Level)
	}

	if config.Watch.Debounce() != 500*time.Millisecond {
		t.Errorf("Expected default debounce 500ms, got %v", config.Watch.Debounce())
	}
}

func TestConfigValidation(t *testing.T) {
	config := DefaultConfig()

	// Test valid config
	if err := config.Validate(); err != nil {
		t.Errorf("Valid config failed validation: %v", err)
	}

	// Test invalid algorithm
	config.Hashing.Algorithm = "md5"
	if err := config.Validate(); err == nil {
		t.Error("Unknown algorithm should fail validation")
	}

	// Reset and test invalid block size
	config = DefaultConfig()
	config.Hashing.BlockSize = "4megs"
	config.updateComputedFields()
	if err := config.Validate(); err == nil {
		t.Error("Invalid block size should fail validation")
	}

	// Reset and test negative workers
	config = DefaultConfig()
	config.Hashing.Workers = -1
	if err := config.Validate(); err == nil {
		t.Error("Negative workers should fail validation")
	}

	// Reset and test invalid log level
	config = DefaultConfig()
	config.Logging.Level = "invalid"
	if err := config.Validate(); err == nil {
		t.Error("Invalid log level should fail validation")
	}

	// Reset and test file output without path
	config = DefaultConfig()
	config.Logging.Output = "file"
	if err := config.Validate(); err == nil {
		t.Error("File output without a path should fail validation")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	// Set environment variables
	os.Setenv("CONTENTHASH_ALGORITHM", "blake3")
	os.Setenv("CONTENTHASH_BLOCK_SIZE", "64KB")
	os.Setenv("CONTENTHASH_WORKERS", "2")
	os.Setenv("CONTENTHASH_LOG_LEVEL", "debug")
	defer func() {
		os.Unsetenv("CONTENTHASH_ALGORITHM")
		os.Unsetenv("CONTENTHASH_BLOCK_SIZE")
		os.Unsetenv("CONTENTHASH_WORKERS")
		os.Unsetenv("CONTENTHASH_LOG_LEVEL")
	}()

	config := DefaultConfig()
	config.applyEnvironmentOverrides()
	config.updateComputedFields()

	if config.Hashing.Algorithm != "blake3" {
		t.Errorf("Environment override failed for algorithm, got %s", config.Hashing.Algorithm)
	}

	if config.Hashing.BlockSizeBytes != 64*1024 {
		t.Errorf("Environment override failed for block size, got %d", config.Hashing.BlockSizeBytes)
	}

	if config.Hashing.Workers != 2 {
		t.Errorf("Environment override failed for workers, got %d", config.Hashing.Workers)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Environment override failed for log level, got %s", config.Logging.Level)
	}
}

func TestConfigFileOperations(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	// Test saving config
	config := DefaultConfig()
	config.Hashing.Algorithm = "blake2b"
	config.Hashing.BlockSize = "1MiB"

	if err := config.SaveToFile(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	// Test loading config
	loadedConfig, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Hashing.Algorithm != "blake2b" {
		t.Errorf("Config not loaded correctly, got %s", loadedConfig.Hashing.Algorithm)
	}

	if loadedConfig.Hashing.BlockSizeBytes != 1024*1024 {
		t.Errorf("Computed block size not refreshed on load, got %d", loadedConfig.Hashing.BlockSizeBytes)
	}
}

func TestExplicitZeroWorkersSurvivesLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	data := []byte(`{"hashing": {"workers": 0}}`)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Hashing.Workers != 0 {
		t.Errorf("Explicit workers=0 should survive load, got %d", config.Hashing.Workers)
	}

	// Untouched sections keep their defaults
	if config.Hashing.Algorithm != "sha256" {
		t.Errorf("Omitted algorithm should keep default, got %s", config.Hashing.Algorithm)
	}
}

func TestLoadNonexistentConfig(t *testing.T) {
	// Test loading non-existent config should use defaults
	config, err := LoadConfig("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("Loading non-existent config should not error: %v", err)
	}

	// Should have default values
	if config.Hashing.Algorithm != "sha256" {
		t.Errorf("Non-existent config should use defaults, got %s", config.Hashing.Algorithm)
	}
}
