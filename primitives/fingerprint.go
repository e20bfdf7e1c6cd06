package primitives

import (
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
)

// Fingerprint identifies a distinct vote within a slot bucket. Two
// attestations are the same vote iff their fingerprints are equal.
type Fingerprint [32]byte

// Phase0Fingerprint is the hash-tree-root of the attestation data itself;
// the committee index is part of AttestationData under this schema, so it
// is already baked in.
func Phase0Fingerprint(data *AttestationData) (Fingerprint, error) {
	root, err := ssz.HashTreeRoot(*data)
	if err != nil {
		return Fingerprint{}, errors.Wrap(err, "could not hash attestation data")
	}
	return Fingerprint(root), nil
}

// DataRoot is the bare hash-tree-root of data, used as the grouping key
// when consolidating electra candidates that share a vote across
// committees (the committee index has already been zeroed by then).
func DataRoot(data *AttestationData) ([32]byte, error) {
	root, err := ssz.HashTreeRoot(*data)
	if err != nil {
		return [32]byte{}, errors.Wrap(err, "could not hash attestation data")
	}
	return root, nil
}

// ElectraFingerprint combines the hash-tree-root of the index-zeroed data
// with the hash-tree-root of the committee index, since electra moves the
// committee index out of the signed data into CommitteeBits.
func ElectraFingerprint(data *AttestationData, index CommitteeIndex) (Fingerprint, error) {
	dataRoot, err := ssz.HashTreeRoot(data.withZeroIndex())
	if err != nil {
		return Fingerprint{}, errors.Wrap(err, "could not hash attestation data")
	}
	indexRoot, err := ssz.HashTreeRoot(uint64(index))
	if err != nil {
		return Fingerprint{}, errors.Wrap(err, "could not hash committee index")
	}
	combined, err := ssz.HashTreeRoot([2][32]byte{dataRoot, indexRoot})
	if err != nil {
		return Fingerprint{}, errors.Wrap(err, "could not hash fingerprint pair")
	}
	return Fingerprint(combined), nil
}
