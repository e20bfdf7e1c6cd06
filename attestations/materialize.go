package attestations

import (
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// ToAttestation materializes a Validation from this entry as a phase0
// on-wire attestation.
func (e *Entry) ToAttestation(v *primitives.Validation) *primitives.Attestation {
	data := e.Data
	return &primitives.Attestation{
		Data:            &data,
		AggregationBits: v.AggregationBits,
		Signature:       v.Signature,
	}
}

// ToAttestationElectra materializes a Validation from this entry as an
// electra on-wire attestation: the committee index is moved out of Data
// and into a singleton CommitteeBits.
func (e *Entry) ToAttestationElectra(v *primitives.Validation, committeeBitsLen uint64) *primitives.AttestationElectra {
	data := e.Data
	data.Index = 0
	return &primitives.AttestationElectra{
		Data:            &data,
		AggregationBits: v.AggregationBits,
		CommitteeBits:   primitives.NewCommitteeBits(e.Index, committeeBitsLen),
		Signature:       v.Signature,
	}
}

// bestAggregateIndex returns the index into Aggregates() of the aggregate
// with the most set bits, or -1 if there are none.
func (e *Entry) bestAggregateIndex() int {
	best := -1
	bestCount := uint64(0)
	for i, v := range e.aggregates {
		if best == -1 || v.AggregationBits.Count() > bestCount {
			best = i
			bestCount = v.AggregationBits.Count()
		}
	}
	return best
}
