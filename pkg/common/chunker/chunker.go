// Package chunker reads a byte stream as a sequence of fixed-size,
// offset-tagged chunks and hands each chunk to a handler on a pool of
// worker goroutines.
//
// A single reader goroutine fills pooled buffers sequentially, so chunk
// boundaries are exact no matter how the underlying reader fragments its
// reads: every chunk is full-size except possibly the final one. Handlers
// run concurrently and receive chunks in unspecified order, each chunk
// exactly once.
package chunker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Handler processes a single chunk. It is invoked exactly once per chunk,
// from an arbitrary worker goroutine, in unspecified order. The data slice
// is only valid for the duration of the call; the backing buffer is
// recycled afterwards.
type Handler func(offset uint64, data []byte) error

// ReadError wraps a failure while reading the source stream. The
// underlying error is available through errors.Unwrap.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("stream read failed: %v", e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ProcessError wraps an error returned by a Handler, carrying the offset
// of the chunk whose handling failed.
type ProcessError struct {
	Offset uint64
	Err    error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("processing chunk at offset %#x failed: %v", e.Offset, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// chunk is one unit of work queued for the workers. buf is the pooled
// backing array, returned to the pool once the chunk has been handled.
type chunk struct {
	offset uint64
	data   []byte
	buf    *[]byte
}

// Process reads r as consecutive chunkSize-byte chunks and invokes handler
// once per chunk across workers goroutines. It blocks until every chunk
// has been read and handled, or until the first failure.
//
// On success every byte of the stream was delivered exactly once. On
// failure Process returns the first error encountered: a *ReadError for a
// source failure, a *ProcessError for a handler failure, or ctx.Err() if
// the context was cancelled. After the first failure no further chunks are
// handed to handler; chunks already being handled run to completion before
// Process returns.
//
// Memory use is bounded by roughly 2*workers+1 chunk buffers regardless of
// stream length. Cancellation is observed between reads; a blocked Read is
// not interrupted.
func Process(ctx context.Context, r io.Reader, chunkSize int, workers int, handler Handler) error {
	if r == nil {
		return errors.New("source reader cannot be nil")
	}
	if chunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}
	if workers <= 0 {
		return errors.New("worker count must be positive")
	}
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	pool := newBufferPool(chunkSize)
	jobs := make(chan chunk, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Skip handling once a failure is recorded; the
				// queue still drains so the reader never blocks.
				if ctx.Err() == nil {
					if err := handler(job.offset, job.data); err != nil {
						fail(&ProcessError{Offset: job.offset, Err: err})
					}
				}
				pool.put(job.buf)
			}
		}()
	}

	var offset uint64
readLoop:
	for {
		select {
		case <-ctx.Done():
			fail(ctx.Err())
			break readLoop
		default:
		}

		buf := pool.get()
		n, err := io.ReadFull(r, *buf)
		switch {
		case err == nil:
			jobs <- chunk{offset: offset, data: (*buf)[:n], buf: buf}
			offset += uint64(n)
		case err == io.EOF:
			// Clean end on a chunk boundary; nothing left to deliver.
			pool.put(buf)
			break readLoop
		case err == io.ErrUnexpectedEOF:
			// Final short chunk.
			jobs <- chunk{offset: offset, data: (*buf)[:n], buf: buf}
			break readLoop
		default:
			pool.put(buf)
			fail(&ReadError{Err: err})
			break readLoop
		}
	}

	close(jobs)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}
