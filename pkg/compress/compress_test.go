package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func testPayload() []byte {
	return bytes.Repeat([]byte("transparent decompression keeps digests stable\n"), 256)
}

func TestNewReaderRoundTrip(t *testing.T) {
	payload := testPayload()

	tests := []struct {
		name   string
		format Format
		encode func(t *testing.T, data []byte) []byte
	}{
		{
			name:   "gzip",
			format: FormatGzip,
			encode: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				w := gzip.NewWriter(&buf)
				if _, err := w.Write(data); err != nil {
					t.Fatalf("gzip write: %v", err)
				}
				if err := w.Close(); err != nil {
					t.Fatalf("gzip close: %v", err)
				}
				return buf.Bytes()
			},
		},
		{
			name:   "zstd",
			format: FormatZstd,
			encode: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				w, err := zstd.NewWriter(&buf)
				if err != nil {
					t.Fatalf("zstd writer: %v", err)
				}
				if _, err := w.Write(data); err != nil {
					t.Fatalf("zstd write: %v", err)
				}
				if err := w.Close(); err != nil {
					t.Fatalf("zstd close: %v", err)
				}
				return buf.Bytes()
			},
		},
		{
			name:   "lz4",
			format: FormatLZ4,
			encode: func(t *testing.T, data []byte) []byte {
				var buf bytes.Buffer
				w := lz4.NewWriter(&buf)
				if _, err := w.Write(data); err != nil {
					t.Fatalf("lz4 write: %v", err)
				}
				if err := w.Close(); err != nil {
					t.Fatalf("lz4 close: %v", err)
				}
				return buf.Bytes()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.encode(t, payload)

			r, format, err := NewReader(bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			defer r.Close()

			if format != tt.format {
				t.Errorf("format = %v, want %v", format, tt.format)
			}

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("decoded %d bytes, want %d matching original", len(got), len(payload))
			}
		})
	}
}

func TestNewReaderPassthrough(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain text", []byte("no compression here")},
		{"near gzip magic", []byte{0x1f, 0x00, 0x01, 0x02, 0x03}},
		{"short", []byte("hi")},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, format, err := NewReader(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			defer r.Close()

			if format != FormatNone {
				t.Errorf("format = %v, want %v", format, FormatNone)
			}

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("passthrough altered data: got %q, want %q", got, tt.data)
			}
		})
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatNone, "none"},
		{FormatGzip, "gzip"},
		{FormatZstd, "zstd"},
		{FormatLZ4, "lz4"},
		{Format(9), "format(9)"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", int(tt.format), got, tt.want)
		}
	}
}
