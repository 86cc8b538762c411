// Package cryptoengine wraps the modular-exponentiation and hash
// primitives the RSA certificate engine treats as black-box services
// (spec.md §1), the same way the teacher's crypto.go wraps crypto/aes
// directly rather than building its own cipher implementation.
package cryptoengine

import (
	"crypto/sha1"
	"crypto/sha256"
	"math/big"
)

// Engine is the crypto collaborator rsaengine depends on. It is an
// interface rather than a package of free functions — the one deviation
// from the teacher's crypto.go shape — because spec.md requires RSA
// recovery and SDAD/SSAD verification tests to substitute a stub crypto
// backend without a real key pair.
type Engine interface {
	// ModExp computes base^exp mod modulus, the single primitive that
	// every RSA public-key recovery operation needs (EMV certificates
	// are always recovered with the public exponent, never the private
	// one).
	ModExp(base, exp, modulus []byte) []byte
	SHA1(data ...[]byte) [20]byte
	SHA256(data ...[]byte) [32]byte
}

// Std is the production Engine, a thin wrapper over math/big and
// crypto/sha1 / crypto/sha256.
type Std struct{}

// ModExp computes base^exp mod modulus using math/big.
func (Std) ModExp(base, exp, modulus []byte) []byte {
	b := new(big.Int).SetBytes(base)
	e := new(big.Int).SetBytes(exp)
	m := new(big.Int).SetBytes(modulus)
	r := new(big.Int).Exp(b, e, m)

	out := r.Bytes()
	if len(out) == len(modulus) {
		return out
	}
	// RSA recovery callers always need the result left-padded to the
	// modulus width, and big.Int.Bytes strips leading zero bytes, so a
	// short result is re-padded here.
	padded := make([]byte, len(modulus))
	copy(padded[len(modulus)-len(out):], out)
	return padded
}

// SHA1 hashes the concatenation of every chunk in data, in order, so
// callers don't need to pre-concatenate certificate fragments before
// hashing.
func (Std) SHA1(data ...[]byte) [20]byte {
	h := sha1.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// SHA256 hashes the concatenation of every chunk in data, in order.
func (Std) SHA256(data ...[]byte) [32]byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
