// Package chain implements the blockchain data model: transactions, blocks,
// the account-state projection ("World"), and the hash-indexed block-tree
// store with longest-chain selection. It is the core this repository
// exists to specify; everything else (server, miner, wallet) is a thin
// collaborator around it.
package chain

import (
	"github.com/jjantschulev/zenchain/internal/codec"
	"github.com/jjantschulev/zenchain/internal/zcrypto"
)

// Address identifies an account: the first 16 bytes of SHA3-256 over the
// account's public key DER.
type Address [zcrypto.AddressSize]byte

// Hash identifies a block: SHA3-256 over its deterministic encoding.
type Hash [zcrypto.HashSize]byte

// Signature is an RSA-2048 PKCS#1 v1.5 signature over a transaction's
// 64-byte pre-image.
type Signature [zcrypto.SignatureSize]byte

// PublicKey is the SubjectPublicKeyInfo DER encoding of a 2048-bit RSA key.
type PublicKey [zcrypto.PublicKeySize]byte

// ZeroHash is the root/genesis sentinel previous-hash value.
var ZeroHash Hash

const (
	// Difficulty is the fixed number of leading zero bytes a block's hash
	// must exhibit.
	Difficulty uint32 = 2

	// BlockReward is the fixed coinbase credit for a mined block.
	BlockReward uint64 = 100
)

// FormatAddress renders addr as "0x" followed by 32 lowercase hex digits.
func FormatAddress(addr Address) string {
	return zcrypto.FormatAddress(addr)
}

// ParseAddress parses the textual form produced by FormatAddress.
func ParseAddress(s string) (Address, error) {
	a, err := zcrypto.ParseAddress(s)
	return Address(a), err
}
