package attestations

import (
	"time"

	"github.com/prysmaticlabs/attestationpool/chain"
	"github.com/prysmaticlabs/attestationpool/params"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// phase0Candidate is one materialized, compatible, not-yet-selected
// aggregate under consideration for inclusion in a block.
type phase0Candidate struct {
	att   *primitives.Attestation
	entry *Entry
	slot  primitives.Slot
	index primitives.CommitteeIndex
	score int
}

// PackPhase0 runs the greedy max-coverage selection over the phase0 ring,
// returning at most params.MaxAttestations attestations compatible with
// the proposing state S.
func (p *Pool) PackPhase0(state chain.ChainState, covState ChainState) ([]*primitives.Attestation, error) {
	start := time.Now()
	defer func() {
		blockAttestationPackingTime.Set(time.Since(start).Seconds())
	}()

	if uint64(state.Slot()) < params.MinAttestationInclusionDelay {
		return nil, nil
	}
	maxAttSlot := primitives.Slot(uint64(state.Slot()) - params.MinAttestationInclusionDelay)

	coverage := NewCoverageCache()
	coverage.Build(covState)

	var candidates []*phase0Candidate
	for i := uint64(0); i < uint64(params.AttestationLookback) && uint64(maxAttSlot) >= i; i++ {
		slot := primitives.Slot(uint64(maxAttSlot) - i)
		bucket := p.phase0.bucketEntries(slot)
		for _, entry := range bucket {
			if err := entry.UpdateAggregates(); err != nil {
				return nil, err
			}
			for _, v := range entry.aggregates {
				att := entry.ToAttestation(v)

				compatible, err := chain.CheckAttestationCompatible(p.dag, state, att)
				if err != nil || !compatible {
					continue
				}
				if err := p.dag.CheckAttestation(state, att, chain.CheckFlags{SkipBLSVerification: true}, nil); err != nil {
					continue
				}

				score := coverage.Score(entry.Data, v.AggregationBits)
				if score <= 0 {
					continue
				}
				candidates = append(candidates, &phase0Candidate{
					att:   att,
					entry: entry,
					slot:  slot,
					index: entry.Index,
					score: score,
				})
			}
		}
	}

	return greedySelectPhase0(candidates, coverage, params.MaxAttestations), nil
}

func greedySelectPhase0(candidates []*phase0Candidate, coverage *CoverageCache, cap int) []*primitives.Attestation {
	res := make([]*primitives.Attestation, 0, cap)

	for len(candidates) > 0 && len(res) < cap {
		var pick int
		if len(candidates) < cap {
			pick = len(candidates) - 1
		} else {
			pick = argmaxPhase0(candidates)
		}

		chosen := candidates[pick]
		candidates = append(candidates[:pick], candidates[pick+1:]...)

		res = append(res, chosen.att)
		coverage.Add(chosen.entry.Data, chosen.att.AggregationBits)

		filtered := candidates[:0]
		for _, c := range candidates {
			if c.slot == chosen.slot && c.index == chosen.index {
				c.score = coverage.Score(c.entry.Data, c.att.AggregationBits)
				if c.score <= 0 {
					continue
				}
			}
			filtered = append(filtered, c)
		}
		candidates = filtered
	}

	return res
}

// argmaxPhase0 returns the index of the highest-scoring candidate, ties
// broken in favor of the more recent (larger) slot.
func argmaxPhase0(candidates []*phase0Candidate) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		c := candidates[i]
		b := candidates[best]
		if c.score > b.score || (c.score == b.score && c.slot > b.slot) {
			best = i
		}
	}
	return best
}
