package blssig_test

import (
	"encoding/hex"
	"testing"

	bls12381 "github.com/drand/kyber-bls12381"
	"github.com/drand/kyber/sign/bls" //nolint:staticcheck
	"github.com/stretchr/testify/require"

	"github.com/entropynet/go-randoracle/blssig"
)

// League of Entropy mainnet group key and the round 72785 beacon,
// curl -sS https://drand.cloudflare.com/public/72785
const (
	loeMainnetKey = "868f005eb8e6e4ca0a47c8a77ceaa5309a47978a7c71bc5cce96366b5d7a569937c529eeda66c7293784a9402801af31"
	round72785    = uint64(72785)
	prevSig72785  = "a609e19a03c2fcc559e8dae14900aaefe517cb55c840f6e69bc8e4f66c8d18e8a609685d9917efbfb0c37f058c2de88f13d297c7e19e0ab24813079efe57a182554ff054c7638153f9b26a60e7111f71a0ff63d9571704905d3ca6df0b031747"
	sig72785      = "82f5d3d2de4db19d40a6980e8aa37842a0e55d1df06bd68bddc8d60002e8e959eb9cfa368b3c1b77d18f02a54fe047b80f0989315f83b12a74fd8679c4f12aae86eaf6ab5690b34f1fddd50ee3cc6f6cdf59e95526d5a5d82aaa84fa6f181e42"
	rand72785     = "8b676484b5fb1f37f9ec5c413d7d29883504e5b669f604a1ce68b3388e9ae3d9"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestVerifyMainnetBeacon(t *testing.T) {
	t.Parallel()

	pub, err := blssig.DecodePublicKey(mustHex(t, loeMainnetKey))
	require.NoError(t, err)

	v := blssig.NewVerifier()
	require.True(t, v.Verify(pub, round72785, mustHex(t, prevSig72785), mustHex(t, sig72785)))
}

func TestVerifyRejectsWrongRound(t *testing.T) {
	t.Parallel()

	pub, err := blssig.DecodePublicKey(mustHex(t, loeMainnetKey))
	require.NoError(t, err)

	v := blssig.NewVerifier()
	require.False(t, v.Verify(pub, 1111, mustHex(t, prevSig72785), mustHex(t, sig72785)))
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	t.Parallel()

	pub, err := blssig.DecodePublicKey(mustHex(t, loeMainnetKey))
	require.NoError(t, err)

	v := blssig.NewVerifier()
	prev := mustHex(t, prevSig72785)
	// truncated, empty and bit-flipped signatures all classify as invalid
	require.False(t, v.Verify(pub, round72785, prev, mustHex(t, sig72785)[:19]))
	require.False(t, v.Verify(pub, round72785, prev, nil))
	flipped := mustHex(t, sig72785)
	flipped[17] ^= 0x01
	require.False(t, v.Verify(pub, round72785, prev, flipped))
}

func TestDecodePublicKey(t *testing.T) {
	t.Parallel()

	_, err := blssig.DecodePublicKey([]byte("too short"))
	require.Error(t, err)

	// the identity element is not an acceptable group key
	suite := bls12381.NewBLS12381Suite()
	null, err := suite.G1().Point().Null().MarshalBinary()
	require.NoError(t, err)
	_, err = blssig.DecodePublicKey(null)
	require.Error(t, err)
}

func TestVerifyGeneratedChain(t *testing.T) {
	t.Parallel()

	suite := bls12381.NewBLS12381Suite()
	scheme := bls.NewSchemeOnG2(suite)
	priv, pub := scheme.NewKeyPair(suite.RandomStream())
	pubB, err := pub.MarshalBinary()
	require.NoError(t, err)

	decoded, err := blssig.DecodePublicKey(pubB)
	require.NoError(t, err)

	prev := []byte("previous round signature")
	sig, err := scheme.Sign(priv, blssig.RoundDigest(prev, 42))
	require.NoError(t, err)

	v := blssig.NewVerifier()
	require.True(t, v.Verify(decoded, 42, prev, sig))
	require.False(t, v.Verify(decoded, 43, prev, sig))
	require.False(t, v.Verify(decoded, 42, []byte("other prev"), sig))
}

func TestDeriveRandomness(t *testing.T) {
	t.Parallel()

	got := blssig.DeriveRandomness(mustHex(t, sig72785))
	require.Equal(t, rand72785, hex.EncodeToString(got[:]))

	// pure: same input, same output
	again := blssig.DeriveRandomness(mustHex(t, sig72785))
	require.Equal(t, got, again)
}
