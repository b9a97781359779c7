// Package hasher computes block-based content hashes: a stream is split
// into fixed-size blocks, each block is hashed independently, and the
// per-block digests are hashed again in offset order to produce one
// overall digest. The result is identical whether the stream is processed
// sequentially or by any number of concurrent workers.
package hasher

import (
	"errors"
	"hash"

	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
)

// DefaultBlockSize is the standard block size (4 MiB). Streams hashed with
// the same algorithm and block size yield the same content hash everywhere.
const DefaultBlockSize = 4 * 1024 * 1024

// ErrWriteAfterSum is returned by Write once the hasher has been finalized.
var ErrWriteAfterSum = errors.New("write after Sum")

// ContentHasher computes a content hash over a stream fed incrementally
// through Write. It carries block state across arbitrary write boundaries,
// so callers may write in any granularity. Not safe for concurrent use;
// for parallel hashing of a whole stream use Engine.
type ContentHasher struct {
	alg       digest.Algorithm
	blockSize int

	overall  hash.Hash // accumulates per-block digests
	block    hash.Hash // context of the block currently being filled
	blockLen int       // bytes written into the current block
	offset   uint64    // stream offset of the current block

	observer BlockObserver
	finished bool
	sum      digest.Sum
}

// NewContentHasher creates a sequential content hasher. A nil alg selects
// digest.Default(); blockSize must be positive.
func NewContentHasher(alg digest.Algorithm, blockSize int) (*ContentHasher, error) {
	if alg == nil {
		alg = digest.Default()
	}
	if blockSize <= 0 {
		return nil, errors.New("block size must be positive")
	}

	return &ContentHasher{
		alg:       alg,
		blockSize: blockSize,
		overall:   alg.New(),
		block:     alg.New(),
	}, nil
}

// SetObserver registers an observer for completed block digests. It must
// be called before the first Write.
func (h *ContentHasher) SetObserver(observer BlockObserver) {
	h.observer = observer
}

// Write feeds stream bytes into the hasher. It never fails while the
// hasher is live; after Sum it returns ErrWriteAfterSum.
func (h *ContentHasher) Write(p []byte) (int, error) {
	if h.finished {
		return 0, ErrWriteAfterSum
	}

	n := len(p)
	for len(p) > 0 {
		take := h.blockSize - h.blockLen
		if len(p) < take {
			take = len(p)
		}

		h.block.Write(p[:take])
		h.blockLen += take
		p = p[take:]

		if h.blockLen == h.blockSize {
			h.finishBlock()
		}
	}
	return n, nil
}

// Sum finalizes the stream, folding a trailing partial block if one
// exists, and returns the content hash. It is idempotent; an empty stream
// yields the digest of the empty byte sequence.
func (h *ContentHasher) Sum() digest.Sum {
	if !h.finished {
		if h.blockLen > 0 {
			h.finishBlock()
		}
		copy(h.sum[:], h.overall.Sum(nil))
		h.finished = true
	}
	return h.sum
}

// finishBlock folds the current block's digest into the overall hash and
// resets the block context for the next offset.
func (h *ContentHasher) finishBlock() {
	var sum digest.Sum
	copy(sum[:], h.block.Sum(nil))

	if h.observer != nil {
		h.observer.ObserveBlock(h.offset, sum)
	}

	h.overall.Write(sum[:])
	h.offset += uint64(h.blockSize)
	h.block.Reset()
	h.blockLen = 0
}
