// Package zcrypto is the node's cryptographic core: SHA3-256 hashing,
// RSA-2048 PKCS#1 v1.5 signing/verification over SHA3-256 digests, and
// address derivation from a public key. Every function here is pure: no
// side effects, no shared state.
//
// RSA-2048 with SHA3-256 isn't something any third-party module in this
// repo's dependency pack offers (the pack's signature libraries are all
// secp256k1/ECDSA, built for a different curve entirely), so this package
// leans on the standard library's crypto/rsa and crypto/x509 the same way
// the teacher's own scratch tooling reaches for crypto/ecdsa directly. The
// hash function itself is not a stdlib fallback: crypto/sha3 only landed in
// Go 1.24's standard library, so at this module's Go version the SHA3-256
// implementation comes from golang.org/x/crypto/sha3, promoted here from an
// indirect dependency of the teacher's go.mod to a direct, load-bearing one.
package zcrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Fixed widths from the wire format (§3 of the specification).
const (
	AddressSize         = 16
	HashSize            = 32
	SignatureSize       = 256
	PublicKeySize       = 294
	TransactionDataSize = 64

	// RSAKeyBits is the modulus size backing PublicKeySize/SignatureSize.
	RSAKeyBits = 2048
)

// Hash returns the SHA3-256 digest of data.
func Hash(data []byte) [HashSize]byte {
	return sha3.Sum256(data)
}

// AddressOf derives a 16-byte address as the first 16 bytes of
// SHA3-256(publicKeyDER).
func AddressOf(publicKeyDER []byte) [AddressSize]byte {
	h := Hash(publicKeyDER)
	var addr [AddressSize]byte
	copy(addr[:], h[:AddressSize])
	return addr
}

// FormatAddress renders an address as "0x" followed by 32 lowercase hex
// characters, matching the original wallet's textual convention.
func FormatAddress(addr [AddressSize]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// ParseAddress parses the "0x"+32-hex form produced by FormatAddress.
func ParseAddress(s string) ([AddressSize]byte, error) {
	var addr [AddressSize]byte
	if len(s) != 2+AddressSize*2 || s[0] != '0' || s[1] != 'x' {
		return addr, fmt.Errorf("zcrypto: invalid address %q: expected 0x followed by %d hex characters", s, AddressSize*2)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return addr, fmt.Errorf("zcrypto: invalid address %q: %w", s, err)
	}
	copy(addr[:], b)
	return addr, nil
}

// GenerateKeyPair creates a fresh RSA-2048 key pair.
func GenerateKeyPair() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, RSAKeyBits)
}

// MarshalPublicKey encodes pub as the fixed-width SubjectPublicKeyInfo DER
// form used on the wire.
func MarshalPublicKey(pub *rsa.PublicKey) ([PublicKeySize]byte, error) {
	var out [PublicKeySize]byte
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return out, err
	}
	if len(der) != PublicKeySize {
		return out, fmt.Errorf("zcrypto: unexpected SubjectPublicKeyInfo length %d, want %d", len(der), PublicKeySize)
	}
	copy(out[:], der)
	return out, nil
}

// ParsePublicKey decodes the fixed-width SubjectPublicKeyInfo DER form.
func ParsePublicKey(der [PublicKeySize]byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der[:])
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("zcrypto: public key is not RSA")
	}
	return rsaPub, nil
}

// Sign produces the PKCS#1 v1.5 signature of data (the 64-byte transaction
// pre-image) over its SHA3-256 digest.
func Sign(priv *rsa.PrivateKey, data [TransactionDataSize]byte) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	digest := Hash(data[:])
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA3_256, digest[:])
	if err != nil {
		return out, err
	}
	if len(sig) != SignatureSize {
		return out, fmt.Errorf("zcrypto: unexpected signature length %d, want %d", len(sig), SignatureSize)
	}
	copy(out[:], sig)
	return out, nil
}

// Verify reports whether sig is a valid PKCS#1 v1.5 signature of data under
// the RSA public key encoded in publicKeyDER.
func Verify(publicKeyDER [PublicKeySize]byte, sig [SignatureSize]byte, data [TransactionDataSize]byte) bool {
	pub, err := ParsePublicKey(publicKeyDER)
	if err != nil {
		return false
	}
	digest := Hash(data[:])
	return rsa.VerifyPKCS1v15(pub, crypto.SHA3_256, digest[:], sig[:]) == nil
}
