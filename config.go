package randoracle

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/xerrors"

	"github.com/entropynet/go-randoracle/blssig"
)

// HexBytes is a byte slice that round-trips through JSON as a hex string,
// the way group keys and signatures circulate in drand tooling.
type HexBytes []byte

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

func (h *HexBytes) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// Config is the immutable per-deployment configuration: the beacon group's
// public key and the denomination bounties must be paid in. It is
// established once by Init and never mutated.
type Config struct {
	PublicKey   HexBytes `json:"public_key"`
	BountyDenom string   `json:"bounty_denom"`
}

// Validate decodes the group key and checks the denomination is set.
func (c *Config) Validate() error {
	if _, err := blssig.DecodePublicKey(c.PublicKey); err != nil {
		return xerrors.Errorf("%v: %w", err, ErrInvalidPubkey)
	}
	if c.BountyDenom == "" {
		return xerrors.Errorf("bounty denomination must not be empty")
	}
	return nil
}
