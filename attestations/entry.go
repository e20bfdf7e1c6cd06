package attestations

import (
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestationpool/crypto/bls"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// Entry holds every vote observed for one distinct AttestationData (plus,
// under the electra schema, the committee index extracted from
// CommitteeBits on ingest). It never forgets a single-voter vote and
// maintains its aggregates as an antichain: no aggregate's bits are a
// subset of another's.
type Entry struct {
	Data         primitives.AttestationData
	Index        primitives.CommitteeIndex
	CommitteeLen uint64

	singles    map[int]bls.Signature
	aggregates []*primitives.Validation
}

// NewEntry creates an empty Entry for the given vote content.
func NewEntry(data primitives.AttestationData, index primitives.CommitteeIndex, committeeLen uint64) *Entry {
	return &Entry{
		Data:         data,
		Index:        index,
		CommitteeLen: committeeLen,
		singles:      make(map[int]bls.Signature),
	}
}

// Aggregates returns the entry's current antichain of aggregates. Callers
// must not retain the slice past the next mutating call.
func (e *Entry) Aggregates() []*primitives.Validation {
	return e.aggregates
}

// Singles returns the entry's one-voter votes, keyed by index within the
// committee. Callers must not retain the map past the next mutating call.
func (e *Entry) Singles() map[int]bls.Signature {
	return e.singles
}

// Insert adds a vote to the entry and reports whether it carried any new
// information. A single-voter vote that repeats a known index, or a
// multi-voter vote already covered by an existing aggregate, is a no-op.
func (e *Entry) Insert(bits bitfield.Bitlist, sig bls.Signature) bool {
	if one, ok := singleBitIndex(bits); ok {
		if _, seen := e.singles[one]; seen {
			return false
		}
		e.singles[one] = sig
		return true
	}

	for _, v := range e.aggregates {
		if v.AggregationBits.Contains(bits) {
			return false
		}
	}

	kept := e.aggregates[:0]
	for _, v := range e.aggregates {
		if !bits.Contains(v.AggregationBits) {
			kept = append(kept, v)
		}
	}
	e.aggregates = kept

	e.aggregates = append(e.aggregates, &primitives.Validation{
		AggregationBits: bits,
		Signature:       sig.Marshal(),
	})
	return true
}

// UpdateAggregates folds any singles not yet represented in an aggregate
// into the entry's aggregates, re-establishing the antichain invariant
// afterward. It is safe to call repeatedly; once all singles are folded
// into every aggregate it is a no-op until a new single or a new
// aggregate arrives.
func (e *Entry) UpdateAggregates() error {
	if len(e.singles) == 0 {
		return nil
	}

	if len(e.aggregates) == 0 {
		bits := bitfield.NewBitlist(e.CommitteeLen)
		agg := bls.NewAggregateSignature()
		for i, sig := range e.singles {
			bits.SetBitAt(uint64(i), true)
			agg.Aggregate(sig)
		}
		e.aggregates = append(e.aggregates, &primitives.Validation{
			AggregationBits: bits,
			Signature:       agg.Finish().Marshal(),
		})
		return nil
	}

	changed := false
	for _, v := range e.aggregates {
		var toAdd []int
		for i := range e.singles {
			if !v.AggregationBits.BitAt(uint64(i)) {
				toAdd = append(toAdd, i)
			}
		}
		if len(toAdd) == 0 {
			continue
		}
		agg := bls.NewAggregateSignature()
		existing, err := bls.SignatureFromBytes(v.Signature)
		if err != nil {
			return err
		}
		agg.Aggregate(existing)
		for _, i := range toAdd {
			v.AggregationBits.SetBitAt(uint64(i), true)
			agg.Aggregate(e.singles[i])
		}
		v.Signature = agg.Finish().Marshal()
		changed = true
	}

	if changed {
		e.restoreAntichain()
	}
	return nil
}

// restoreAntichain drops every aggregate whose bits are a subset of
// another's. Quadratic, but aggregate cardinality is bounded by protocol
// constants so this never runs hot.
func (e *Entry) restoreAntichain() {
	kept := make([]*primitives.Validation, 0, len(e.aggregates))
	for i, a := range e.aggregates {
		subsumed := false
		for j, b := range e.aggregates {
			if i == j {
				continue
			}
			if b.AggregationBits.Contains(a.AggregationBits) && !a.AggregationBits.Contains(b.AggregationBits) {
				subsumed = true
				break
			}
			if b.AggregationBits.Contains(a.AggregationBits) && a.AggregationBits.Contains(b.AggregationBits) && j < i {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, a)
		}
	}
	e.aggregates = kept
}

// Covers reports whether any existing aggregate's bits are a superset of
// bits.
func (e *Entry) Covers(bits bitfield.Bitlist) bool {
	for _, v := range e.aggregates {
		if v.AggregationBits.Contains(bits) {
			return true
		}
	}
	return false
}

// singleBitIndex returns the index of the one set bit in bits, and false
// if bits has zero or more than one bit set.
func singleBitIndex(bits bitfield.Bitlist) (int, bool) {
	indices := bits.BitIndices()
	if len(indices) != 1 {
		return 0, false
	}
	return indices[0], true
}

// singleBitlist builds a committeeLen-sized Bitlist with exactly bit i
// set, used to materialize a single-voter attestation from an Entry's
// singles table.
func singleBitlist(committeeLen uint64, i int) bitfield.Bitlist {
	bits := bitfield.NewBitlist(committeeLen)
	bits.SetBitAt(uint64(i), true)
	return bits
}
