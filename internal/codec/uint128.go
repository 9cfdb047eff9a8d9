// Package codec implements the deterministic binary encoding shared by the
// chain data model and the wire protocol: fixed-width little-endian
// integers, length-prefixed sequences, inline fixed-length byte arrays, and
// little-endian tags for sum-type discriminants.
package codec

import (
	"fmt"
	"math/big"
)

// Uint128 is an unsigned 128-bit integer, used for amounts, nonces,
// balances and rewards. The zero value is zero.
type Uint128 struct {
	v big.Int
}

var max128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// NewUint128 constructs a Uint128 from a uint64.
func NewUint128(v uint64) Uint128 {
	var u Uint128
	u.v.SetUint64(v)
	return u
}

// Uint128FromBytesLE decodes a 16-byte little-endian buffer into a Uint128.
func Uint128FromBytesLE(b []byte) Uint128 {
	be := make([]byte, len(b))
	for i, x := range b {
		be[len(b)-1-i] = x
	}
	var u Uint128
	u.v.SetBytes(be)
	return u
}

// BytesLE encodes u as 16 little-endian bytes.
func (u Uint128) BytesLE() [16]byte {
	be := u.v.Bytes()
	var be16 [16]byte
	copy(be16[16-len(be):], be)
	var out [16]byte
	for i := 0; i < 16; i++ {
		out[i] = be16[15-i]
	}
	return out
}

// Add returns u+other and whether the addition overflowed 128 bits.
func (u Uint128) Add(other Uint128) (Uint128, bool) {
	var sum Uint128
	sum.v.Add(&u.v, &other.v)
	overflow := sum.v.Cmp(max128) > 0
	if overflow {
		sum.v.And(&sum.v, max128)
	}
	return sum, overflow
}

// AddOne returns u+1, saturating is not a concern for nonce/index use.
func (u Uint128) AddOne() Uint128 {
	sum, _ := u.Add(NewUint128(1))
	return sum
}

// Sub returns u-other and whether the subtraction underflowed (other > u).
func (u Uint128) Sub(other Uint128) (Uint128, bool) {
	if u.v.Cmp(&other.v) < 0 {
		return Uint128{}, true
	}
	var diff Uint128
	diff.v.Sub(&u.v, &other.v)
	return diff, false
}

// Cmp compares u and other: -1, 0, or 1.
func (u Uint128) Cmp(other Uint128) int {
	return u.v.Cmp(&other.v)
}

// IsZero reports whether u is zero.
func (u Uint128) IsZero() bool {
	return u.v.Sign() == 0
}

// String renders the decimal form of u.
func (u Uint128) String() string {
	return u.v.String()
}

// ParseUint128 parses a base-10 string into a Uint128.
func ParseUint128(s string) (Uint128, error) {
	var u Uint128
	_, ok := u.v.SetString(s, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("codec: invalid uint128 literal %q", s)
	}
	if u.v.Sign() < 0 || u.v.Cmp(max128) > 0 {
		return Uint128{}, fmt.Errorf("codec: uint128 literal %q out of range", s)
	}
	return u, nil
}
