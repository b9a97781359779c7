package hasher

import (
	"fmt"
	"hash"

	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
)

// reorderBuffer reconstructs the strict offset-ordered digest fold from
// block digests arriving in arbitrary completion order. Digests whose
// turn has not come yet are parked in pending; fold is the only mutator
// of the overall context and always runs in ascending offset order.
//
// Callers must serialize check/add under one lock, and may call finish
// only once every worker has returned.
type reorderBuffer struct {
	blockSize uint64
	overall   hash.Hash

	pending map[uint64]digest.Sum // arrived early, keyed by offset
	next    uint64                // offset of the next digest to fold

	incomplete    uint64 // offset of the short block seen so far
	hasIncomplete bool
}

func newReorderBuffer(alg digest.Algorithm, blockSize uint64) *reorderBuffer {
	return &reorderBuffer{
		blockSize: blockSize,
		overall:   alg.New(),
		pending:   make(map[uint64]digest.Sum),
	}
}

// check applies the short-block rule for a completed block of the given
// byte size. Only the highest-offset block of the stream may be short;
// since completion order is arbitrary, the rule is applied incrementally:
// a short block is tolerated until some higher offset proves it was not
// last. check must be followed by add under the same lock hold when it
// returns nil.
func (b *reorderBuffer) check(offset uint64, size int) error {
	if b.hasIncomplete && b.incomplete < offset {
		// A block beyond the short one exists, so the short block was
		// not the final block.
		return &MalformedBlockError{Offset: b.incomplete}
	}

	if uint64(size) < b.blockSize {
		if b.hasIncomplete {
			// Two short blocks; at most one can be last, so the
			// earlier one is the offender.
			first := b.incomplete
			if offset < first {
				first = offset
			}
			return &MalformedBlockError{Offset: first}
		}
		b.incomplete = offset
		b.hasIncomplete = true
	}
	return nil
}

// add folds sum immediately when offset is next in line (the common case
// under low reordering, bypassing the map), parks it otherwise, and then
// drains every pending digest that has become foldable.
func (b *reorderBuffer) add(offset uint64, sum digest.Sum) {
	if offset == b.next {
		b.fold(sum)
	} else {
		b.pending[offset] = sum
	}
	b.drain()
}

// drain folds pending digests while the next expected offset is present.
// Memory held is bounded by the span of unresolved reordering, not by
// stream length.
func (b *reorderBuffer) drain() {
	for {
		sum, ok := b.pending[b.next]
		if !ok {
			return
		}
		delete(b.pending, b.next)
		b.fold(sum)
	}
}

func (b *reorderBuffer) fold(sum digest.Sum) {
	b.overall.Write(sum[:])
	b.next += b.blockSize
}

// finish returns the final content hash. It panics when digests are still
// pending: every delivered offset has been folded by now unless the
// dispatcher skipped one, which is a contract violation rather than bad
// input. The buffer must not be used after finish.
func (b *reorderBuffer) finish() digest.Sum {
	b.drain()
	if len(b.pending) != 0 {
		panic(fmt.Sprintf("hasher: %d block digests still pending at finish, offset %#x never delivered",
			len(b.pending), b.next))
	}

	var sum digest.Sum
	copy(sum[:], b.overall.Sum(nil))
	return sum
}
