// Package bls wraps the BLS12-381 signature scheme used to aggregate
// validator votes. It mirrors the shape of the chain client's own BLS
// layer: small interfaces over a single concrete backend, so callers never
// see the underlying curve library directly.
package bls

import "github.com/pkg/errors"

// ErrZeroKey is returned when a secret key is generated or parsed as the
// all-zero scalar, which blst treats as degenerate.
var ErrZeroKey = errors.New("bls: received zero secret key")

// SecretKey is a BLS12-381 private key.
type SecretKey interface {
	PublicKey() PublicKey
	Sign(msg []byte) Signature
	Marshal() []byte
}

// PublicKey is a BLS12-381 public key.
type PublicKey interface {
	Marshal() []byte
	Aggregate(other PublicKey) PublicKey
	Equals(other PublicKey) bool
}

// Signature is a single or aggregate BLS12-381 signature. Once
// deserialized and subgroup-checked it is cheap to feed into further
// aggregation, which is the only use the pool makes of it.
type Signature interface {
	Marshal() []byte
	Verify(pubKey PublicKey, msg []byte) bool
	FastAggregateVerify(pubKeys []PublicKey, msg []byte) bool
}

// AggregateSignature is an incrementally-extendable BLS aggregate. It is
// the pool's only mutable signature type; every other signature value is
// treated as immutable once parsed.
type AggregateSignature interface {
	Aggregate(sig Signature)
	Finish() Signature
}
