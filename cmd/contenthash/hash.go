package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/TheEntropyCollective/contenthash/pkg/compress"
	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
	"github.com/TheEntropyCollective/contenthash/pkg/core/hasher"
	"github.com/TheEntropyCollective/contenthash/pkg/dedup"
	"github.com/TheEntropyCollective/contenthash/pkg/util"
)

// runHash hashes every named input in order and prints one result per
// input. With no names it reads standard input, like sha256sum.
func runHash(opts *options, args []string) int {
	names := args
	if len(names) == 0 {
		names = []string{"-"}
	}

	// Keep the observer interface nil when stats are off; a typed nil
	// *Estimator stored in it would not be nil to the engine.
	var estimator *dedup.Estimator
	var observer hasher.BlockObserver
	if opts.cfg.Output.Stats {
		estimator = dedup.NewEstimator(opts.cfg.Dedup.ExpectedBlocks, opts.cfg.Dedup.FalsePositiveRate)
		observer = estimator
	}

	showProgress := opts.progressEnabled()

	exit := exitOK
	for _, name := range names {
		result, err := hashInput(opts, name, observer, showProgress)
		if err != nil {
			reportFailure(opts, err)
			exit = exitFailure
			continue
		}
		printResult(opts, result)
	}

	if estimator != nil {
		printStats(opts, estimator.Stats())
	}

	return exit
}

// hashInput computes the content hash of one input. The name "-" selects
// standard input. A nil observer disables block observation.
func hashInput(opts *options, name string, observer hasher.BlockObserver, showProgress bool) (util.HashResult, error) {
	algorithm, err := digest.Lookup(opts.cfg.Hashing.Algorithm)
	if err != nil {
		return util.HashResult{}, err
	}

	var (
		source io.Reader
		size   int64 = -1
	)

	if name == "-" {
		source = os.Stdin
	} else {
		file, err := os.Open(name)
		if err != nil {
			return util.HashResult{}, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer file.Close()

		if info, err := file.Stat(); err == nil && info.Mode().IsRegular() {
			size = info.Size()
		}
		source = file
	}

	// The bar tracks raw source bytes so the percentage stays accurate
	// even when the stream is decompressed on the way to the hasher.
	var progress *util.ProgressReader
	if showProgress {
		progress = util.NewProgressReader(source, size, name, os.Stderr)
		source = progress
	}

	format := compress.FormatNone
	if opts.decompress {
		decoder, detected, err := compress.NewReader(source)
		if err != nil {
			return util.HashResult{}, fmt.Errorf("failed to prepare decompression for %s: %w", name, err)
		}
		defer decoder.Close()
		source = decoder
		format = detected
	}

	counter := &countingReader{reader: source}

	engine, err := hasher.New(hasher.Config{
		Algorithm: algorithm,
		BlockSize: int(opts.cfg.Hashing.BlockSizeBytes),
		Workers:   opts.cfg.Hashing.Workers,
		Observer:  observer,
	})
	if err != nil {
		return util.HashResult{}, err
	}

	start := time.Now()
	sum, err := engine.ComputeContentHash(context.Background(), counter)
	if err != nil {
		if progress != nil {
			// Leave the partial bar behind so the error starts clean
			fmt.Fprintln(os.Stderr)
		}
		return util.HashResult{}, fmt.Errorf("failed to hash %s: %w", name, err)
	}

	blockSize := opts.cfg.Hashing.BlockSizeBytes
	result := util.HashResult{
		File:       name,
		Digest:     sum.Hex(),
		Algorithm:  algorithm.Name(),
		BlockSize:  blockSize,
		Blocks:     uint64((counter.n + blockSize - 1) / blockSize),
		Size:       counter.n,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if format != compress.FormatNone {
		result.Compression = format.String()
	}

	opts.logger.Debug("Hashed input", map[string]interface{}{
		"file":        name,
		"bytes":       result.Size,
		"blocks":      result.Blocks,
		"duration_ms": result.DurationMS,
	})

	return result, nil
}

// printResult writes one result to stdout in the configured format
func printResult(opts *options, result util.HashResult) {
	if opts.jsonMode() {
		util.PrintJSON(result)
		return
	}
	fmt.Printf("%s  %s\n", result.Digest, result.File)
}

// reportFailure writes one failure without stopping the remaining inputs
func reportFailure(opts *options, err error) {
	if opts.jsonMode() {
		util.PrintJSONError(err)
		return
	}
	fmt.Fprintln(os.Stderr, util.FormatError(err))
}

// printStats reports the duplicate-block estimate accumulated across all
// inputs of the run.
func printStats(opts *options, stats dedup.Stats) {
	dedupStats := util.DedupStats{
		Blocks:         stats.Blocks,
		Duplicates:     stats.Duplicates,
		DuplicateRatio: stats.Ratio(),
	}

	if opts.jsonMode() {
		util.PrintJSON(dedupStats)
		return
	}
	fmt.Fprint(os.Stderr, util.NewStatsVisualization(0).RenderStatsSummary(dedupStats))
}

// countingReader counts the bytes handed to the hasher, which is the
// decompressed length when decompression is active.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.n += int64(n)
	return n, err
}
