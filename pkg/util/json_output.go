package util

import (
	"encoding/json"
	"io"
	"os"
)

// JSONOutput provides structured output for CLI operations
type JSONOutput struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// HashResult represents the result of hashing one input
type HashResult struct {
	File        string `json:"file"`
	Digest      string `json:"digest"`
	Algorithm   string `json:"algorithm"`
	BlockSize   int64  `json:"block_size"`
	Blocks      uint64 `json:"block_count"`
	Size        int64  `json:"file_size"`
	Compression string `json:"compression,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// CheckResult represents one verification against a recorded digest
type CheckResult struct {
	File     string `json:"file"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Match    bool   `json:"match"`
	Error    string `json:"error,omitempty"`
}

// CheckSummary aggregates a verification run
type CheckSummary struct {
	Checked    int           `json:"checked"`
	Matched    int           `json:"matched"`
	Mismatched int           `json:"mismatched"`
	Failed     int           `json:"failed"`
	Results    []CheckResult `json:"results"`
}

// DedupStats represents duplicate-block statistics for a run
type DedupStats struct {
	Blocks         uint64  `json:"block_count"`
	Duplicates     uint64  `json:"duplicate_blocks"`
	DuplicateRatio float64 `json:"duplicate_ratio"`
}

func writeJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// PrintJSON outputs data as formatted JSON
func PrintJSON(data interface{}) error {
	return writeJSON(os.Stdout, data)
}

// PrintJSONError outputs an error in JSON format
func PrintJSONError(err error) {
	output := JSONOutput{
		Success: false,
		Error:   err.Error(),
	}
	writeJSON(os.Stdout, output)
}

// PrintJSONSuccess outputs success data in JSON format
func PrintJSONSuccess(data interface{}) {
	output := JSONOutput{
		Success: true,
		Data:    map[string]interface{}{"result": data},
	}
	writeJSON(os.Stdout, output)
}
