package escrow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"

	cbg "github.com/whyrusleeping/cbor-gen"
)

// AmountMaxSerializedLen is the max length of a byte slice representing a
// CBOR serialized amount. Amounts fit in 128 bits, so 16 bytes of magnitude.
const AmountMaxSerializedLen = 16

// ErrAmountOverflow is returned when an accumulation would exceed the
// 128-bit amount range.
var ErrAmountOverflow = errors.New("amount exceeds 128-bit range")

// maxAmount is 2^128 - 1, the largest escrowable amount.
var maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Amount is a non-negative token quantity bounded to 128 bits.
type Amount big.Int

func NewAmount(i int64) *Amount {
	if i < 0 {
		panic("escrow: negative amount")
	}
	return (*Amount)(big.NewInt(i))
}

func Zero() *Amount {
	return (*Amount)(new(big.Int))
}

func FromString(s string) (*Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse string as an amount")
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative: %s", s)
	}
	if v.Cmp(maxAmount) > 0 {
		return nil, ErrAmountOverflow
	}
	return (*Amount)(v), nil
}

func (a *Amount) int() *big.Int {
	return (*big.Int)(a)
}

func (a *Amount) Copy() *Amount {
	return (*Amount)(new(big.Int).Set(a.int()))
}

// Add returns a + o, or ErrAmountOverflow if the sum does not fit in 128
// bits. Neither operand is modified.
func Add(a, o *Amount) (*Amount, error) {
	sum := new(big.Int).Add(a.int(), o.int())
	if sum.Cmp(maxAmount) > 0 {
		return nil, ErrAmountOverflow
	}
	return (*Amount)(sum), nil
}

func (a *Amount) Cmp(o *Amount) int {
	return a.int().Cmp(o.int())
}

func (a *Amount) Equals(o *Amount) bool {
	return a.Cmp(o) == 0
}

func (a *Amount) IsZero() bool {
	return a.int().Sign() == 0
}

func (a *Amount) Sign() int {
	return a.int().Sign()
}

func (a *Amount) String() string {
	return a.int().String()
}

func (a *Amount) MarshalJSON() ([]byte, error) {
	if a == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(a.int().String())
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := FromString(s)
	if err != nil {
		return err
	}
	*a = *v
	return nil
}

// Bytes returns the big-endian magnitude of the amount. Zero encodes as an
// empty slice. No sign byte is needed since amounts are non-negative.
func (a *Amount) Bytes() []byte {
	if a == nil {
		return []byte{}
	}
	return a.int().Bytes()
}

func (a *Amount) MarshalBinary() ([]byte, error) {
	if a == nil || a.int().Cmp(maxAmount) > 0 || a.int().Sign() < 0 {
		return nil, fmt.Errorf("amount out of range")
	}
	return a.Bytes(), nil
}

func (a *Amount) UnmarshalBinary(buf []byte) error {
	if len(buf) > AmountMaxSerializedLen {
		return fmt.Errorf("amount byte array too long (%d bytes)", len(buf))
	}
	*a = Amount{}
	a.int().SetBytes(buf)
	return nil
}

func (a *Amount) MarshalCBOR(w io.Writer) error {
	if a == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}

	enc, err := a.MarshalBinary()
	if err != nil {
		return err
	}

	header := cbg.CborEncodeMajorType(cbg.MajByteString, uint64(len(enc)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(enc); err != nil {
		return err
	}
	return nil
}

func (a *Amount) UnmarshalCBOR(br io.Reader) error {
	*a = Amount{}

	maj, extra, err := cbg.CborReadHeader(br)
	if err != nil {
		return err
	}
	if maj != cbg.MajByteString {
		return fmt.Errorf("cbor input for amount was not a byte string (%x)", maj)
	}
	if extra == 0 {
		return nil
	}
	if extra > AmountMaxSerializedLen {
		return fmt.Errorf("amount byte array too long (%d bytes)", extra)
	}

	buf := make([]byte, extra)
	if _, err := io.ReadFull(br, buf); err != nil {
		return err
	}
	return a.UnmarshalBinary(buf)
}
