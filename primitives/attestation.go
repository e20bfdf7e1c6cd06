package primitives

import (
	"github.com/prysmaticlabs/go-bitfield"
)

// Validation is a single or aggregate vote: a committee-sized bitset of
// which validators contributed, paired with the signature aggregate over
// exactly those validators.
type Validation struct {
	AggregationBits bitfield.Bitlist
	Signature       []byte
}

// Attestation is the on-wire phase0 vote: a Validation plus the
// AttestationData it attests to.
type Attestation struct {
	Data            *AttestationData
	AggregationBits bitfield.Bitlist
	Signature       []byte
}

// AttestationElectra is the on-wire electra-schema vote. Data.Index is
// always zero; the committee this vote belongs to is instead carried as a
// singleton bit in CommitteeBits, per EIP-7549.
type AttestationElectra struct {
	Data            *AttestationData
	AggregationBits bitfield.Bitlist
	CommitteeBits   bitfield.Bitlist
	Signature       []byte
}

// SingletonCommitteeIndex returns the one committee index set in bits, and
// false if bits does not have exactly one bit set.
func SingletonCommitteeIndex(bits bitfield.Bitlist) (CommitteeIndex, bool) {
	indices := bits.BitIndices()
	if len(indices) != 1 {
		return 0, false
	}
	return CommitteeIndex(indices[0]), true
}

// NewCommitteeBits builds a Bitlist of the given length with exactly idx
// set, used when materializing an electra attestation from an Entry whose
// committee index is known.
func NewCommitteeBits(idx CommitteeIndex, length uint64) bitfield.Bitlist {
	bits := bitfield.NewBitlist(length)
	bits.SetBitAt(uint64(idx), true)
	return bits
}
