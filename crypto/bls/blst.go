package bls

import (
	cryptorand "crypto/rand"
	"fmt"

	"github.com/pkg/errors"
	blst "github.com/supranational/blst/bindings/go"
)

// dst is the domain separation tag used for all BLS signing in this
// package, matching the Ethereum consensus-layer convention.
var dst = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

const secretKeyLength = 32

type secretKey struct {
	p *blst.SecretKey
}

type publicKey struct {
	p *blst.P1Affine
}

type signature struct {
	s *blst.P2Affine
}

// RandKey generates a new random secret key.
func RandKey() (SecretKey, error) {
	var ikm [secretKeyLength]byte
	if _, err := cryptorand.Read(ikm[:]); err != nil {
		return nil, errors.Wrap(err, "could not read random bytes")
	}
	sk := &secretKey{p: blst.KeyGen(ikm[:])}
	if isZero(sk.Marshal()) {
		return nil, ErrZeroKey
	}
	return sk, nil
}

// SecretKeyFromBytes constructs a secret key from its big-endian byte
// encoding.
func SecretKeyFromBytes(raw []byte) (SecretKey, error) {
	if len(raw) != secretKeyLength {
		return nil, fmt.Errorf("bls: secret key must be %d bytes", secretKeyLength)
	}
	if isZero(raw) {
		return nil, ErrZeroKey
	}
	p := new(blst.SecretKey).Deserialize(raw)
	if p == nil {
		return nil, errors.New("bls: could not deserialize secret key")
	}
	return &secretKey{p: p}, nil
}

// PublicKeyFromBytes constructs a public key from its compressed
// encoding.
func PublicKeyFromBytes(raw []byte) (PublicKey, error) {
	p := new(blst.P1Affine).Uncompress(raw)
	if p == nil {
		return nil, errors.New("bls: could not uncompress public key")
	}
	if !p.KeyValidate() {
		return nil, errors.New("bls: invalid public key")
	}
	return &publicKey{p: p}, nil
}

// SignatureFromBytes constructs a signature from its compressed encoding
// without verifying it against any message; the caller is expected to
// have already validated the attestation this signature belongs to.
func SignatureFromBytes(raw []byte) (Signature, error) {
	s := new(blst.P2Affine).Uncompress(raw)
	if s == nil {
		return nil, errors.New("bls: could not uncompress signature")
	}
	return &signature{s: s}, nil
}

func (s *secretKey) PublicKey() PublicKey {
	return &publicKey{p: new(blst.P1Affine).From(s.p)}
}

func (s *secretKey) Sign(msg []byte) Signature {
	sig := new(blst.P2Affine).Sign(s.p, msg, dst)
	return &signature{s: sig}
}

func (s *secretKey) Marshal() []byte {
	raw := s.p.Serialize()
	if len(raw) < secretKeyLength {
		pad := make([]byte, secretKeyLength-len(raw))
		raw = append(pad, raw...)
	}
	return raw
}

func (p *publicKey) Marshal() []byte {
	return p.p.Compress()
}

func (p *publicKey) Aggregate(other PublicKey) PublicKey {
	o, ok := other.(*publicKey)
	if !ok {
		return p
	}
	agg := new(blst.P1Aggregate)
	agg.Add(p.p, false)
	agg.Add(o.p, false)
	return &publicKey{p: agg.ToAffine()}
}

func (p *publicKey) Equals(other PublicKey) bool {
	o, ok := other.(*publicKey)
	if !ok {
		return false
	}
	return p.p.Equals(o.p)
}

func (s *signature) Marshal() []byte {
	return s.s.Compress()
}

func (s *signature) Verify(pubKey PublicKey, msg []byte) bool {
	pk, ok := pubKey.(*publicKey)
	if !ok {
		return false
	}
	return s.s.Verify(true, pk.p, true, msg, dst)
}

func (s *signature) FastAggregateVerify(pubKeys []PublicKey, msg []byte) bool {
	raw := make([]*blst.P1Affine, len(pubKeys))
	for i, pk := range pubKeys {
		p, ok := pk.(*publicKey)
		if !ok {
			return false
		}
		raw[i] = p.p
	}
	return s.s.FastAggregateVerify(true, raw, msg, dst)
}

type aggregateSignature struct {
	agg *blst.P2Aggregate
}

// NewAggregateSignature returns an empty aggregate ready to absorb
// individual signatures via Aggregate.
func NewAggregateSignature() AggregateSignature {
	return &aggregateSignature{agg: new(blst.P2Aggregate)}
}

func (a *aggregateSignature) Aggregate(sig Signature) {
	s, ok := sig.(*signature)
	if !ok {
		return
	}
	a.agg.Add(s.s, false)
}

func (a *aggregateSignature) Finish() Signature {
	return &signature{s: a.agg.ToAffine()}
}

// AggregateSignatures sums a slice of signatures into a single aggregate
// in one call; it gives the same result as feeding each signature to a
// NewAggregateSignature in turn.
func AggregateSignatures(sigs []Signature) Signature {
	agg := NewAggregateSignature()
	for _, s := range sigs {
		agg.Aggregate(s)
	}
	return agg.Finish()
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
