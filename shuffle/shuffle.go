// Package shuffle produces deterministic, bit-reproducible permutations of
// integer ranges from a 32-byte seed. The generator is the ChaCha20
// keystream of the seed used as a key with an all-zero nonce and counter;
// uniform draws read 8 keystream bytes as a big-endian integer and apply
// rejection sampling, and the permutation is a classic backward Fisher-Yates
// walk. Any change to this construction changes every emitted permutation,
// so it is frozen.
package shuffle

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/xerrors"
)

// SeedSize is the required seed length, matching the derived randomness of
// a beacon round.
const SeedSize = chacha20.KeySize

// ErrInvalidRange is returned when the lower bound of the requested range
// exceeds the upper bound.
var ErrInvalidRange = errors.New("invalid range: from is greater than to")

// Shuffle returns the inclusive range [from, to] permuted under seed.
// For from == to the result is the single-element sequence [from].
func Shuffle(seed [SeedSize]byte, from, to uint32) ([]uint32, error) {
	if from > to {
		return nil, xerrors.Errorf("shuffling %d..%d: %w", from, to, ErrInvalidRange)
	}

	out := make([]uint32, uint64(to)-uint64(from)+1)
	for i := range out {
		out[i] = from + uint32(i)
	}

	gen, err := newGenerator(seed)
	if err != nil {
		return nil, err
	}
	// Backward Fisher-Yates: swap each position down from the end with a
	// uniformly drawn position at or below it.
	for i := len(out) - 1; i >= 1; i-- {
		j := gen.uniform(uint64(i) + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// generator yields uniform integers from a ChaCha20 keystream.
type generator struct {
	stream *chacha20.Cipher
	zero   [8]byte
}

func newGenerator(seed [SeedSize]byte) (*generator, error) {
	nonce := make([]byte, chacha20.NonceSize)
	stream, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce)
	if err != nil {
		return nil, xerrors.Errorf("initializing keystream: %w", err)
	}
	return &generator{stream: stream}, nil
}

func (g *generator) uint64() uint64 {
	var buf [8]byte
	g.stream.XORKeyStream(buf[:], g.zero[:])
	return binary.BigEndian.Uint64(buf[:])
}

// uniform draws an unbiased integer in [0, n) by rejecting draws at or
// above the largest multiple of n representable in 64 bits.
func (g *generator) uniform(n uint64) uint64 {
	rem := -n % n // 2^64 mod n
	limit := -rem // 0 means n divides 2^64 and no draw is rejected
	for {
		v := g.uint64()
		if limit == 0 || v < limit {
			return v % n
		}
	}
}
