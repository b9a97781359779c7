package chunker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectChunks runs Process and records every delivered chunk keyed by
// offset, flagging duplicate deliveries.
func collectChunks(t *testing.T, source io.Reader, chunkSize, workers int) (map[uint64][]byte, error) {
	t.Helper()

	var (
		mu         sync.Mutex
		chunks     = make(map[uint64][]byte)
		duplicates []uint64
	)

	err := Process(context.Background(), source, chunkSize, workers,
		func(offset uint64, p []byte) error {
			cp := make([]byte, len(p))
			copy(cp, p)

			mu.Lock()
			defer mu.Unlock()
			if _, ok := chunks[offset]; ok {
				duplicates = append(duplicates, offset)
			}
			chunks[offset] = cp
			return nil
		})

	assert.Empty(t, duplicates, "chunks delivered more than once")
	return chunks, err
}

func TestProcessDeliversEveryChunkExactlyOnce(t *testing.T) {
	const chunkSize = 1024
	data := make([]byte, 10*chunkSize+123)
	for i := range data {
		data[i] = byte(i)
	}

	chunks, err := collectChunks(t, bytes.NewReader(data), chunkSize, 4)
	require.NoError(t, err)
	require.Len(t, chunks, 11)

	var rebuilt []byte
	for offset := uint64(0); offset < uint64(len(data)); offset += chunkSize {
		part, ok := chunks[offset]
		require.True(t, ok, "missing chunk at offset %d", offset)
		if offset+chunkSize <= uint64(len(data)) {
			assert.Len(t, part, chunkSize, "interior chunk at offset %d must be full", offset)
		}
		rebuilt = append(rebuilt, part...)
	}
	assert.Equal(t, data, rebuilt)
}

func TestProcessChunkBoundaries(t *testing.T) {
	const chunkSize = 64

	tests := []struct {
		name       string
		dataLen    int
		wantChunks int
		wantLast   int
	}{
		{name: "empty stream", dataLen: 0, wantChunks: 0},
		{name: "below one chunk", dataLen: 10, wantChunks: 1, wantLast: 10},
		{name: "exactly one chunk", dataLen: chunkSize, wantChunks: 1, wantLast: chunkSize},
		{name: "one chunk plus one byte", dataLen: chunkSize + 1, wantChunks: 2, wantLast: 1},
		{name: "exact multiple", dataLen: 3 * chunkSize, wantChunks: 3, wantLast: chunkSize},
		{name: "multiple plus remainder", dataLen: 3*chunkSize + 17, wantChunks: 4, wantLast: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{0xA5}, tt.dataLen)

			chunks, err := collectChunks(t, bytes.NewReader(data), chunkSize, 2)
			require.NoError(t, err)
			require.Len(t, chunks, tt.wantChunks)

			if tt.wantChunks > 0 {
				lastOffset := uint64((tt.wantChunks - 1) * chunkSize)
				assert.Len(t, chunks[lastOffset], tt.wantLast)
			}
		})
	}
}

func TestProcessReadError(t *testing.T) {
	readFailure := errors.New("disk on fire")
	source := io.MultiReader(
		bytes.NewReader(bytes.Repeat([]byte{1}, 256)),
		iotest.ErrReader(readFailure),
	)

	err := Process(context.Background(), source, 64, 2, func(uint64, []byte) error {
		return nil
	})

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.ErrorIs(t, err, readFailure)
}

func TestProcessHandlerError(t *testing.T) {
	const chunkSize = 32
	data := bytes.Repeat([]byte{7}, 8*chunkSize)
	handlerFailure := errors.New("digest rejected")

	const failAt = uint64(3 * chunkSize)
	err := Process(context.Background(), bytes.NewReader(data), chunkSize, 4,
		func(offset uint64, p []byte) error {
			if offset == failAt {
				return handlerFailure
			}
			return nil
		})

	var procErr *ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, failAt, procErr.Offset)
	assert.ErrorIs(t, err, handlerFailure)
}

func TestProcessContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int64
	err := Process(ctx, bytes.NewReader(make([]byte, 1024)), 64, 2,
		func(uint64, []byte) error {
			calls.Add(1)
			return nil
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load(), "no chunk should be handled after cancellation")
}

func TestProcessValidation(t *testing.T) {
	okHandler := func(uint64, []byte) error { return nil }

	tests := []struct {
		name      string
		reader    io.Reader
		chunkSize int
		workers   int
		handler   Handler
	}{
		{name: "nil reader", reader: nil, chunkSize: 64, workers: 1, handler: okHandler},
		{name: "zero chunk size", reader: bytes.NewReader(nil), chunkSize: 0, workers: 1, handler: okHandler},
		{name: "negative chunk size", reader: bytes.NewReader(nil), chunkSize: -1, workers: 1, handler: okHandler},
		{name: "zero workers", reader: bytes.NewReader(nil), chunkSize: 64, workers: 0, handler: okHandler},
		{name: "nil handler", reader: bytes.NewReader(nil), chunkSize: 64, workers: 1, handler: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Process(context.Background(), tt.reader, tt.chunkSize, tt.workers, tt.handler)
			assert.Error(t, err)
		})
	}
}

func TestProcessHalfChunkReads(t *testing.T) {
	// A reader that fragments its reads must not change chunk boundaries.
	const chunkSize = 100
	data := make([]byte, 5*chunkSize+37)
	for i := range data {
		data[i] = byte(i * 31)
	}

	chunks, err := collectChunks(t, iotest.OneByteReader(bytes.NewReader(data)), chunkSize, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 6)

	for offset, part := range chunks {
		if offset+chunkSize <= uint64(len(data)) {
			assert.Len(t, part, chunkSize)
		}
		assert.Equal(t, data[offset:int(offset)+len(part)], part)
	}
}
