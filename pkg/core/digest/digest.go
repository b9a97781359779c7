// Package digest provides the fixed-width hash primitives used for
// block digests and content hashes.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Size is the width in bytes of every digest produced by this package.
const Size = 32

// Sum is a fixed-width digest value.
type Sum [Size]byte

// Hex returns the lowercase hexadecimal encoding of the digest.
func (s Sum) Hex() string {
	return hex.EncodeToString(s[:])
}

// Bytes returns the digest as a byte slice.
func (s Sum) Bytes() []byte {
	return s[:]
}

// String returns the same encoding as Hex.
func (s Sum) String() string {
	return s.Hex()
}

// ParseHex decodes a lowercase or uppercase hexadecimal digest string.
func ParseHex(s string) (Sum, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Sum{}, fmt.Errorf("invalid digest encoding: %w", err)
	}
	if len(raw) != Size {
		return Sum{}, fmt.Errorf("invalid digest length: got %d bytes, want %d", len(raw), Size)
	}

	var sum Sum
	copy(sum[:], raw)
	return sum, nil
}

// Algorithm is a deterministic hashing primitive. Implementations are
// stateless and safe for concurrent use; New returns a fresh streaming
// context per call.
type Algorithm interface {
	// Name returns the identifier used in configuration and CLI flags.
	Name() string

	// New returns a new streaming hash context.
	New() hash.Hash

	// Sum computes the digest of data in one shot.
	Sum(data []byte) Sum
}

var (
	// SHA256 is the default algorithm and matches the reference
	// content-hash format.
	SHA256 Algorithm = sha256Algorithm{}

	// BLAKE2b is BLAKE2b-256.
	BLAKE2b Algorithm = blake2bAlgorithm{}

	// BLAKE3 is BLAKE3 with its default 256-bit output.
	BLAKE3 Algorithm = blake3Algorithm{}
)

var algorithms = []Algorithm{SHA256, BLAKE2b, BLAKE3}

// Default returns the algorithm used when none is configured.
func Default() Algorithm {
	return SHA256
}

// Lookup resolves an algorithm by name (case-insensitive).
func Lookup(name string) (Algorithm, error) {
	for _, a := range algorithms {
		if strings.EqualFold(name, a.Name()) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("unknown digest algorithm: %q", name)
}

// Names returns the names of all registered algorithms.
func Names() []string {
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = a.Name()
	}
	return names
}

type sha256Algorithm struct{}

func (sha256Algorithm) Name() string { return "sha256" }

func (sha256Algorithm) New() hash.Hash { return sha256.New() }

func (sha256Algorithm) Sum(data []byte) Sum {
	return Sum(sha256.Sum256(data))
}

type blake2bAlgorithm struct{}

func (blake2bAlgorithm) Name() string { return "blake2b" }

func (blake2bAlgorithm) New() hash.Hash {
	// New256 fails only for oversized keys; unkeyed cannot fail.
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("digest: blake2b initialization failed: " + err.Error())
	}
	return h
}

func (blake2bAlgorithm) Sum(data []byte) Sum {
	return Sum(blake2b.Sum256(data))
}

type blake3Algorithm struct{}

func (blake3Algorithm) Name() string { return "blake3" }

func (blake3Algorithm) New() hash.Hash { return blake3.New() }

func (blake3Algorithm) Sum(data []byte) Sum {
	return Sum(blake3.Sum256(data))
}
