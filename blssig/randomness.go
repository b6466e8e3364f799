package blssig

import "crypto/sha256"

// RandomnessSize is the size of a derived randomness value.
const RandomnessSize = sha256.Size

// DeriveRandomness maps a beacon signature to its 32-byte randomness value.
// The derivation is a plain hash of the raw signature bytes; its output is
// only as unpredictable as the signature is unforgeable, so it must be
// applied to verified signatures only.
func DeriveRandomness(sig []byte) [RandomnessSize]byte {
	return sha256.Sum256(sig)
}
