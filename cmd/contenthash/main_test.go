package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/TheEntropyCollective/contenthash/pkg/common/logging"
	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
	"github.com/TheEntropyCollective/contenthash/pkg/infrastructure/config"
)

// Digest of "hello" with the default algorithm and block size.
const helloDigest = "9595c9df90075148eb06860365df33584b75bff782a510c6cd4883a419833d50"

func testOptions() *options {
	return &options{
		cfg:    config.DefaultConfig(),
		logger: logging.GetGlobalLogger(),
	}
}

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestHashInput(t *testing.T) {
	opts := testOptions()
	path := writeTestFile(t, "hello.txt", []byte("hello"))

	result, err := hashInput(opts, path, nil, false)
	if err != nil {
		t.Fatalf("hashInput() failed: %v", err)
	}

	if result.Digest != helloDigest {
		t.Errorf("Digest = %s, want %s", result.Digest, helloDigest)
	}
	if result.File != path {
		t.Errorf("File = %s, want %s", result.File, path)
	}
	if result.Size != 5 {
		t.Errorf("Size = %d, want 5", result.Size)
	}
	if result.Blocks != 1 {
		t.Errorf("Blocks = %d, want 1", result.Blocks)
	}
	if result.Compression != "" {
		t.Errorf("Compression = %q, want empty", result.Compression)
	}
}

func TestHashInputMissingFile(t *testing.T) {
	opts := testOptions()

	_, err := hashInput(opts, filepath.Join(t.TempDir(), "missing"), nil, false)
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestHashInputWorkerCounts(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 10000)
	path := writeTestFile(t, "data.bin", data)

	opts := testOptions()
	opts.cfg.Hashing.BlockSize = "1KiB"
	opts.cfg.Hashing.BlockSizeBytes = 1024

	var digests []string
	for _, workers := range []int{0, 1, 4} {
		opts.cfg.Hashing.Workers = workers
		result, err := hashInput(opts, path, nil, false)
		if err != nil {
			t.Fatalf("hashInput() with %d workers failed: %v", workers, err)
		}
		if result.Blocks != 10 {
			t.Errorf("Blocks = %d with %d workers, want 10", result.Blocks, workers)
		}
		digests = append(digests, result.Digest)
	}

	if digests[0] != digests[1] || digests[1] != digests[2] {
		t.Errorf("Digest differs across worker counts: %v", digests)
	}
}

func TestHashInputDecompress(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte("hello")); err != nil {
		t.Fatalf("Failed to compress test data: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	path := writeTestFile(t, "hello.gz", buf.Bytes())

	opts := testOptions()
	opts.decompress = true

	result, err := hashInput(opts, path, nil, false)
	if err != nil {
		t.Fatalf("hashInput() failed: %v", err)
	}

	if result.Digest != helloDigest {
		t.Errorf("Digest = %s, want %s", result.Digest, helloDigest)
	}
	if result.Compression != "gzip" {
		t.Errorf("Compression = %q, want gzip", result.Compression)
	}
	if result.Size != 5 {
		t.Errorf("Size = %d, want decompressed length 5", result.Size)
	}
}

func TestCheckOne(t *testing.T) {
	opts := testOptions()
	path := writeTestFile(t, "hello.txt", []byte("hello"))

	expected, err := digest.ParseHex(helloDigest)
	if err != nil {
		t.Fatalf("ParseHex() failed: %v", err)
	}

	result := checkOne(opts, path, expected)
	if result.Error != "" {
		t.Fatalf("checkOne() reported error: %s", result.Error)
	}
	if !result.Match {
		t.Errorf("Expected match, got actual %s", result.Actual)
	}

	var wrong digest.Sum
	result = checkOne(opts, path, wrong)
	if result.Match {
		t.Error("Expected mismatch against zero digest")
	}
	if result.Actual != helloDigest {
		t.Errorf("Actual = %s, want %s", result.Actual, helloDigest)
	}

	result = checkOne(opts, filepath.Join(t.TempDir(), "missing"), expected)
	if result.Error == "" {
		t.Error("Expected error for missing file")
	}
	if result.Match {
		t.Error("Missing file must not match")
	}
}

func TestParseChecksumLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantErr  bool
	}{
		{
			name:     "two space form",
			line:     helloDigest + "  hello.txt",
			wantName: "hello.txt",
		},
		{
			name:     "binary marker form",
			line:     helloDigest + " *hello.bin",
			wantName: "hello.bin",
		},
		{
			name:     "name with spaces",
			line:     helloDigest + "  my file.txt",
			wantName: "my file.txt",
		},
		{
			name:    "missing separator",
			line:    helloDigest,
			wantErr: true,
		},
		{
			name:    "bad hex",
			line:    "xyz  hello.txt",
			wantErr: true,
		},
		{
			name:    "truncated digest",
			line:    "9595c9df  hello.txt",
			wantErr: true,
		},
		{
			name:    "missing name",
			line:    helloDigest + "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, name, err := parseChecksumLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseChecksumLine(%q) failed: %v", tt.line, err)
			}
			if name != tt.wantName {
				t.Errorf("name = %q, want %q", name, tt.wantName)
			}
			if sum.Hex() != helloDigest {
				t.Errorf("sum = %s, want %s", sum.Hex(), helloDigest)
			}
		})
	}
}

func TestProgressEnabled(t *testing.T) {
	opts := testOptions()

	opts.cfg.Output.Progress = "always"
	if !opts.progressEnabled() {
		t.Error("progress 'always' should enable the bar")
	}

	opts.cfg.Output.Progress = "never"
	if opts.progressEnabled() {
		t.Error("progress 'never' should disable the bar")
	}
}
