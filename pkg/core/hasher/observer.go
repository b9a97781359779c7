package hasher

import "github.com/TheEntropyCollective/contenthash/pkg/core/digest"

// BlockObserver receives the digest of every completed block before it is
// folded into the overall hash, for progress or diagnostic use.
//
// With a sequential hasher or a single worker, observations arrive in
// offset order. With concurrent workers they arrive in completion order,
// which is unspecified; do not rely on offsets being ascending. The engine
// serializes calls, so implementations need no locking of their own for
// engine use.
type BlockObserver interface {
	ObserveBlock(offset uint64, sum digest.Sum)
}

// BlockObserverFunc adapts a function to the BlockObserver interface.
type BlockObserverFunc func(offset uint64, sum digest.Sum)

// ObserveBlock calls f(offset, sum).
func (f BlockObserverFunc) ObserveBlock(offset uint64, sum digest.Sum) {
	f(offset, sum)
}
