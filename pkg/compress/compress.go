// Package compress detects and transparently decodes compressed input
// streams so hashes can be computed over the uncompressed content.
// Detection is by magic bytes; unrecognized input passes through as-is.
package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies the compression codec of a stream.
type Format int

const (
	FormatNone Format = iota
	FormatGzip
	FormatZstd
	FormatLZ4
)

func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

var magics = []struct {
	format Format
	prefix []byte
}{
	{FormatGzip, []byte{0x1f, 0x8b}},
	{FormatZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{FormatLZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

// maxMagicLen is the longest prefix detection needs to see.
const maxMagicLen = 4

func detect(prefix []byte) Format {
	for _, m := range magics {
		if bytes.HasPrefix(prefix, m.prefix) {
			return m.format
		}
	}
	return FormatNone
}

// NewReader sniffs the codec of r and returns a reader producing the
// uncompressed content along with the detected format. Input that matches
// no known magic is returned unchanged as FormatNone. The caller must
// close the returned reader.
func NewReader(r io.Reader) (io.ReadCloser, Format, error) {
	br := bufio.NewReader(r)

	prefix, err := br.Peek(maxMagicLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, FormatNone, fmt.Errorf("failed to sniff input: %w", err)
	}

	switch format := detect(prefix); format {
	case FormatGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, format, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return gz, format, nil

	case FormatZstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, format, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return dec.IOReadCloser(), format, nil

	case FormatLZ4:
		return io.NopCloser(lz4.NewReader(br)), format, nil

	default:
		return io.NopCloser(br), FormatNone, nil
	}
}
