package hasher

import "fmt"

// MalformedBlockError reports a block shorter than the block size that is
// not the final block of the stream. Only the highest-offset block may be
// short; Offset is the earliest offset proven to violate that.
type MalformedBlockError struct {
	Offset uint64
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("incomplete block mid-stream at offset %#x", e.Offset)
}
