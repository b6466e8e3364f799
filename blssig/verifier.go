package blssig

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/drand/kyber"
	bls12381 "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/pairing"
	"github.com/drand/kyber/sign"

	// Chained drand beacons are plain BLS signatures over a chained digest;
	// rogue-key attacks do not apply to a single fixed group key.
	"github.com/drand/kyber/sign/bls" //nolint:staticcheck
	"golang.org/x/xerrors"
)

// PublicKeySize is the size of a compressed G1 group public key.
const PublicKeySize = 48

// SignatureSize is the size of a compressed G2 beacon signature.
const SignatureSize = 96

// DecodePublicKey decodes a compressed G1 point. It fails distinctly from
// signature verification so callers can tell a malformed group key apart
// from an invalid beacon.
func DecodePublicKey(b []byte) (kyber.Point, error) {
	suite := bls12381.NewBLS12381Suite()
	point := suite.G1().Point()
	if err := point.UnmarshalBinary(b); err != nil {
		return nil, xerrors.Errorf("unmarshalling public key: %w", err)
	}
	if point.Equal(suite.G1().Point().Null()) {
		return nil, xerrors.Errorf("the public key is a null point")
	}
	return point, nil
}

// Verifier checks drand chained-scheme beacons: the group key lives on G1,
// signatures on G2, and each round signs the digest of the previous
// signature chained with the round number.
type Verifier struct {
	suite  pairing.Suite
	scheme sign.Scheme
}

func NewVerifier() Verifier {
	suite := bls12381.NewBLS12381Suite()
	return Verifier{
		suite:  suite,
		scheme: bls.NewSchemeOnG2(suite),
	}
}

// Verify reports whether sig is a valid beacon signature for round under
// pubKey. Malformed signature bytes classify as invalid rather than as a
// distinct error; the result is a pure boolean with no side effects.
func (v Verifier) Verify(pubKey kyber.Point, round uint64, prevSig, sig []byte) bool {
	return v.scheme.Verify(pubKey, RoundDigest(prevSig, round), sig) == nil
}

// RoundDigest builds the canonical signed message for a chained round:
// sha256(prevSig || round) with the round encoded as 8 big-endian bytes.
func RoundDigest(prevSig []byte, round uint64) []byte {
	h := sha256.New()
	h.Write(prevSig)
	h.Write(binary.BigEndian.AppendUint64(nil, round))
	return h.Sum(nil)
}
