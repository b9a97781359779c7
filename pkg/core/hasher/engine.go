package hasher

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/TheEntropyCollective/contenthash/pkg/common/chunker"
	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
)

// Config controls how an Engine computes content hashes.
type Config struct {
	// Algorithm is the hashing primitive. Nil selects digest.Default().
	Algorithm digest.Algorithm

	// BlockSize is the number of bytes per block. Zero selects
	// DefaultBlockSize. Changing it changes every resulting hash.
	BlockSize int

	// Workers is the number of goroutines hashing blocks concurrently.
	// Zero selects the sequential path; negative is invalid. The digest
	// is identical for every worker count.
	Workers int

	// Observer, when set, receives each completed block digest before it
	// is folded. See BlockObserver for the ordering caveat.
	Observer BlockObserver
}

// dispatchFunc is the chunk-dispatch contract the engine consumes: deliver
// every chunk of r exactly once to the handler, from any goroutine, and
// return only after all handler invocations have completed.
type dispatchFunc func(ctx context.Context, r io.Reader, chunkSize, workers int, handler chunker.Handler) error

// Engine computes content hashes over streams, in parallel when
// configured with workers. Safe for concurrent use; each call carries its
// own state.
type Engine struct {
	cfg      Config
	dispatch dispatchFunc
}

// New validates cfg, applies defaults, and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Algorithm == nil {
		cfg.Algorithm = digest.Default()
	}
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BlockSize < 0 {
		return nil, errors.New("block size must be positive")
	}
	if cfg.Workers < 0 {
		return nil, errors.New("worker count cannot be negative")
	}

	return &Engine{cfg: cfg, dispatch: chunker.Process}, nil
}

// ComputeContentHash reads r to EOF and returns its content hash. It
// blocks until the hash is complete or the first failure; on failure the
// returned sum is the zero value and must not be used.
//
// Failures surface as a *chunker.ReadError for source failures, a
// *MalformedBlockError when a short block is proven non-final, or
// ctx.Err() on cancellation. No retries, no partial results.
func (e *Engine) ComputeContentHash(ctx context.Context, r io.Reader) (digest.Sum, error) {
	if r == nil {
		return digest.Sum{}, errors.New("source reader cannot be nil")
	}
	if e.cfg.Workers == 0 {
		return e.computeSequential(ctx, r)
	}
	return e.computeParallel(ctx, r)
}

// computeParallel fans chunks out to workers. Block digests are computed
// unsynchronized on whatever goroutine delivered the chunk; everything
// else (short-block check, observer, fold) runs under one lock per chunk.
func (e *Engine) computeParallel(ctx context.Context, r io.Reader) (digest.Sum, error) {
	buffer := newReorderBuffer(e.cfg.Algorithm, uint64(e.cfg.BlockSize))

	var mu sync.Mutex
	handler := func(offset uint64, data []byte) error {
		sum := e.cfg.Algorithm.Sum(data)

		mu.Lock()
		defer mu.Unlock()

		if err := buffer.check(offset, len(data)); err != nil {
			return err
		}
		if e.cfg.Observer != nil {
			e.cfg.Observer.ObserveBlock(offset, sum)
		}
		buffer.add(offset, sum)
		return nil
	}

	if err := e.dispatch(ctx, r, e.cfg.BlockSize, e.cfg.Workers, handler); err != nil {
		// Handler failures come back wrapped with the chunk offset;
		// surface the typed error itself. Read errors and
		// cancellation pass through as-is.
		var processErr *chunker.ProcessError
		if errors.As(err, &processErr) {
			return digest.Sum{}, processErr.Err
		}
		return digest.Sum{}, err
	}

	// The dispatcher has joined all workers, so the buffer is exclusively
	// ours now and finish may run without the lock.
	return buffer.finish(), nil
}

// computeSequential hashes the stream on the calling goroutine, checking
// for cancellation between reads.
func (e *Engine) computeSequential(ctx context.Context, r io.Reader) (digest.Sum, error) {
	h, err := NewContentHasher(e.cfg.Algorithm, e.cfg.BlockSize)
	if err != nil {
		return digest.Sum{}, err
	}
	if e.cfg.Observer != nil {
		h.SetObserver(e.cfg.Observer)
	}

	buf := make([]byte, e.cfg.BlockSize)
	for {
		select {
		case <-ctx.Done():
			return digest.Sum{}, ctx.Err()
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := h.Write(buf[:n]); err != nil {
				return digest.Sum{}, err
			}
		}
		if readErr == io.EOF {
			return h.Sum(), nil
		}
		if readErr != nil {
			return digest.Sum{}, &chunker.ReadError{Err: readErr}
		}
	}
}

// ComputeContentHash hashes r with the default algorithm and block size
// using the given number of workers (zero for sequential).
func ComputeContentHash(ctx context.Context, r io.Reader, workers int) (digest.Sum, error) {
	e, err := New(Config{Workers: workers})
	if err != nil {
		return digest.Sum{}, err
	}
	return e.ComputeContentHash(ctx, r)
}
