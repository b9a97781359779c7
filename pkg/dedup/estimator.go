// Package dedup estimates how much of a stream consists of duplicate
// blocks by tracking block digests in a bloom filter. Counts are
// estimates: a duplicate is always detected, but a new digest can be
// misreported as seen at the configured false-positive rate.
package dedup

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
)

const (
	// DefaultExpectedBlocks sizes the filter when callers have no
	// estimate of stream length (64Ki blocks is 256 GiB at the default
	// block size).
	DefaultExpectedBlocks = 64 * 1024

	// DefaultFalsePositiveRate keeps overcounting negligible for
	// streams near the expected block count.
	DefaultFalsePositiveRate = 0.001
)

// Stats summarizes the digests an Estimator has observed.
type Stats struct {
	Blocks     uint64 // block digests observed
	Duplicates uint64 // digests probably seen before
}

// Ratio returns the fraction of observed blocks that were duplicates.
func (s Stats) Ratio() float64 {
	if s.Blocks == 0 {
		return 0
	}
	return float64(s.Duplicates) / float64(s.Blocks)
}

// Estimator counts duplicate block digests. It satisfies the hashing
// engine's block-observer interface and is additionally safe for direct
// concurrent use.
type Estimator struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	stats  Stats
}

// NewEstimator creates an estimator sized for the given number of distinct
// blocks at the given false-positive rate. Zero expectedBlocks or a rate
// outside (0, 1) selects the package defaults.
func NewEstimator(expectedBlocks uint, falsePositiveRate float64) *Estimator {
	if expectedBlocks == 0 {
		expectedBlocks = DefaultExpectedBlocks
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}

	return &Estimator{
		filter: bloom.NewWithEstimates(expectedBlocks, falsePositiveRate),
	}
}

// ObserveBlock records one completed block digest.
func (e *Estimator) ObserveBlock(offset uint64, sum digest.Sum) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Blocks++
	if e.filter.TestOrAdd(sum[:]) {
		e.stats.Duplicates++
	}
}

// Stats returns a snapshot of the counts so far.
func (e *Estimator) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
