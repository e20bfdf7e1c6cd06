package attestations

import (
	"github.com/prysmaticlabs/attestationpool/params"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// GetAggregatedPhase0ByFingerprint locates the entry for fp in slot's
// bucket and returns its best aggregate materialized as an attestation.
// ok is false if no such entry exists.
func (p *Pool) GetAggregatedPhase0ByFingerprint(slot primitives.Slot, fp primitives.Fingerprint) (*primitives.Attestation, bool, error) {
	bucket := p.phase0.bucketEntries(slot)
	entry, ok := bucket[fp]
	if !ok {
		return nil, false, nil
	}
	return materializeBestPhase0(entry)
}

// GetAggregatedPhase0ByCommittee scans slot's bucket for every entry
// belonging to committeeIndex and returns the aggregate with the highest
// vote count across all of them.
func (p *Pool) GetAggregatedPhase0ByCommittee(slot primitives.Slot, committeeIndex primitives.CommitteeIndex) (*primitives.Attestation, bool, error) {
	bucket := p.phase0.bucketEntries(slot)
	var best *Entry
	for _, entry := range bucket {
		if entry.Index != committeeIndex {
			continue
		}
		if err := entry.UpdateAggregates(); err != nil {
			return nil, false, err
		}
		if best == nil || bestCount(entry) > bestCount(best) {
			best = entry
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return materializeBestPhase0(best)
}

// GetAggregatedElectraByFingerprint is the electra counterpart of
// GetAggregatedPhase0ByFingerprint. The returned attestation's
// CommitteeBits is always a singleton: cross-committee aggregation is
// reserved for block packing.
func (p *Pool) GetAggregatedElectraByFingerprint(slot primitives.Slot, fp primitives.Fingerprint) (*primitives.AttestationElectra, bool, error) {
	bucket := p.electra.bucketEntries(slot)
	entry, ok := bucket[fp]
	if !ok {
		return nil, false, nil
	}
	return materializeBestElectra(entry)
}

// GetAggregatedElectraByCommittee is the electra counterpart of
// GetAggregatedPhase0ByCommittee.
func (p *Pool) GetAggregatedElectraByCommittee(slot primitives.Slot, committeeIndex primitives.CommitteeIndex) (*primitives.AttestationElectra, bool, error) {
	bucket := p.electra.bucketEntries(slot)
	var best *Entry
	for _, entry := range bucket {
		if entry.Index != committeeIndex {
			continue
		}
		if err := entry.UpdateAggregates(); err != nil {
			return nil, false, err
		}
		if best == nil || bestCount(entry) > bestCount(best) {
			best = entry
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return materializeBestElectra(best)
}

func bestCount(e *Entry) uint64 {
	idx := e.bestAggregateIndex()
	if idx == -1 {
		return 0
	}
	return e.aggregates[idx].AggregationBits.Count()
}

func materializeBestPhase0(e *Entry) (*primitives.Attestation, bool, error) {
	if err := e.UpdateAggregates(); err != nil {
		return nil, false, err
	}
	idx := e.bestAggregateIndex()
	if idx == -1 {
		return nil, false, nil
	}
	return e.ToAttestation(e.aggregates[idx]), true, nil
}

func materializeBestElectra(e *Entry) (*primitives.AttestationElectra, bool, error) {
	if err := e.UpdateAggregates(); err != nil {
		return nil, false, err
	}
	idx := e.bestAggregateIndex()
	if idx == -1 {
		return nil, false, nil
	}
	return e.ToAttestationElectra(e.aggregates[idx], uint64(params.MaxCommitteesPerSlot)), true, nil
}

// IterPhase0Attestations visits every in-window phase0 vote matching the
// given filters: one synthetic single-voter attestation per Entry.Singles
// entry, then each of its aggregates. Visiting stops early if visit
// returns false.
func (p *Pool) IterPhase0Attestations(slot *primitives.Slot, committeeIndex *primitives.CommitteeIndex, visit func(*primitives.Attestation) bool) {
	iterRing(p.phase0, slot, committeeIndex, func(e *Entry) bool {
		return iterEntryPhase0(e, visit)
	})
}

// IterElectraAttestations is the electra counterpart of
// IterPhase0Attestations.
func (p *Pool) IterElectraAttestations(slot *primitives.Slot, committeeIndex *primitives.CommitteeIndex, visit func(*primitives.AttestationElectra) bool) {
	iterRing(p.electra, slot, committeeIndex, func(e *Entry) bool {
		return iterEntryElectra(e, visit)
	})
}

func iterRing(r *ring, slot *primitives.Slot, committeeIndex *primitives.CommitteeIndex, visitEntry func(*Entry) bool) {
	buckets := r.buckets
	if slot != nil {
		idx, ok := r.candidateIndex(*slot)
		if !ok {
			return
		}
		buckets = r.buckets[idx : idx+1]
	}
	for _, bucket := range buckets {
		for _, entry := range bucket {
			if committeeIndex != nil && entry.Index != *committeeIndex {
				continue
			}
			if !visitEntry(entry) {
				return
			}
		}
	}
}

func iterEntryPhase0(e *Entry, visit func(*primitives.Attestation) bool) bool {
	committeeLen := e.CommitteeLen
	for i, sig := range e.singles {
		bits := singleBitlist(committeeLen, i)
		att := e.ToAttestation(&primitives.Validation{AggregationBits: bits, Signature: sig.Marshal()})
		if !visit(att) {
			return false
		}
	}
	for _, v := range e.aggregates {
		if !visit(e.ToAttestation(v)) {
			return false
		}
	}
	return true
}

func iterEntryElectra(e *Entry, visit func(*primitives.AttestationElectra) bool) bool {
	committeeLen := e.CommitteeLen
	for i, sig := range e.singles {
		bits := singleBitlist(committeeLen, i)
		v := &primitives.Validation{AggregationBits: bits, Signature: sig.Marshal()}
		if !visit(e.ToAttestationElectra(v, uint64(params.MaxCommitteesPerSlot))) {
			return false
		}
	}
	for _, v := range e.aggregates {
		if !visit(e.ToAttestationElectra(v, uint64(params.MaxCommitteesPerSlot))) {
			return false
		}
	}
	return true
}
