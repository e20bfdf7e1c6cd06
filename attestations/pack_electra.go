package attestations

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestationpool/chain"
	"github.com/prysmaticlabs/attestationpool/crypto/bls"
	"github.com/prysmaticlabs/attestationpool/params"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// errAlreadyConsolidated is returned when two candidates being
// consolidated into a single on-chain aggregate claim the same committee,
// which would make their aggregation bits ambiguous to lay out.
var errAlreadyConsolidated = errors.New("electra: candidates in consolidation group overlap on committee index")

// electraCandidate is one materialized, compatible, not-yet-selected
// single-committee aggregate under consideration for a block.
type electraCandidate struct {
	att          *primitives.AttestationElectra
	entry        *Entry
	slot         primitives.Slot
	index        primitives.CommitteeIndex
	committeeLen uint64
	score        int
}

// PackElectra runs the greedy max-coverage selection over the electra
// ring, consolidating same-vote aggregates across disjoint committees,
// and returns at most params.MaxAttestationsElectra attestations.
func (p *Pool) PackElectra(state chain.ChainState, covState ChainState) ([]*primitives.AttestationElectra, error) {
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

	intermediateCap := params.MaxAttestationsElectra * params.MaxCommitteesPerSlot

	var candidates []*electraCandidate
	for i := uint64(0); i < uint64(params.AttestationLookback) && uint64(maxAttSlot) >= i && len(candidates) < intermediateCap; i++ {
		slot := primitives.Slot(uint64(maxAttSlot) - i)
		bucket := p.electra.bucketEntries(slot)
		for _, entry := range bucket {
			if err := entry.UpdateAggregates(); err != nil {
				return nil, err
			}
			for _, v := range entry.aggregates {
				att := entry.ToAttestationElectra(v, uint64(params.MaxCommitteesPerSlot))

				// CheckAttestationCompatible only reads Data, which is
				// identical between the two on-wire forms (Index is zeroed
				// under electra regardless), so the phase0 view is fine here.
				phase0View := &primitives.Attestation{Data: att.Data, AggregationBits: v.AggregationBits, Signature: v.Signature}
				compatible, err := chain.CheckAttestationCompatible(p.dag, state, phase0View)
				if err != nil || !compatible {
					continue
				}
				// CheckAttestationElectra validates committee membership, so it
				// must see the candidate's real committee index via CommitteeBits
				// rather than the index-zeroed phase0 view.
				if err := p.dag.CheckAttestationElectra(state, att, chain.CheckFlags{SkipBLSVerification: true}, nil); err != nil {
					continue
				}

				score := coverage.Score(entry.Data, v.AggregationBits)
				if score <= 0 {
					continue
				}
				candidates = append(candidates, &electraCandidate{
					att:          att,
					entry:        entry,
					slot:         slot,
					index:        entry.Index,
					committeeLen: entry.CommitteeLen,
					score:        score,
				})
				if len(candidates) >= intermediateCap {
					break
				}
			}
		}
	}

	selected := greedySelectElectra(candidates, coverage)
	return consolidateElectra(selected, params.MaxAttestationsElectra)
}

// greedySelectElectra mirrors the phase0 selection loop but, instead of an
// argmax scan, sorts the remaining candidates each round and pops the best
// one from the end.
func greedySelectElectra(candidates []*electraCandidate, coverage *CoverageCache) []*electraCandidate {
	var res []*electraCandidate

	for len(candidates) > 0 {
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].score != candidates[j].score {
				return candidates[i].score < candidates[j].score
			}
			return candidates[i].slot < candidates[j].slot
		})

		last := len(candidates) - 1
		chosen := candidates[last]
		candidates = candidates[:last]

		res = append(res, chosen)
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

// consolidateElectra merges selected candidates that vote for the same
// data (ignoring committee index) into single cross-committee
// attestations via computeOnChainAggregate, then caps the result at cap.
func consolidateElectra(selected []*electraCandidate, cap int) ([]*primitives.AttestationElectra, error) {
	groups := make(map[[32]byte][]*electraCandidate)
	var order [][32]byte
	for _, c := range selected {
		key, err := primitives.DataRoot(c.att.Data)
		if err != nil {
			return nil, err
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	res := make([]*primitives.AttestationElectra, 0, len(order))
	for _, key := range order {
		group := groups[key]
		consolidated, err := computeOnChainAggregate(group)
		if err != nil {
			log.WithError(err).Debug("dropping electra consolidation group")
			continue
		}
		res = append(res, consolidated)
		if len(res) >= cap {
			break
		}
	}
	return res, nil
}

// computeOnChainAggregate merges a group of single-committee candidates
// for the same vote into one attestation whose CommitteeBits has a bit
// per contributing committee and whose AggregationBits is laid out
// committee-by-committee in ascending committee-index order. Returns an
// error if two candidates in the group claim the same committee.
func computeOnChainAggregate(group []*electraCandidate) (*primitives.AttestationElectra, error) {
	sort.Slice(group, func(i, j int) bool { return group[i].index < group[j].index })

	committeeBits := bitfield.NewBitlist(uint64(params.MaxCommitteesPerSlot))
	totalLen := uint64(0)
	for _, c := range group {
		if committeeBits.BitAt(uint64(c.index)) {
			return nil, errAlreadyConsolidated
		}
		committeeBits.SetBitAt(uint64(c.index), true)
		totalLen += c.committeeLen
	}

	aggBits := bitfield.NewBitlist(totalLen)
	agg := bls.NewAggregateSignature()
	offset := uint64(0)
	for _, c := range group {
		sig, err := bls.SignatureFromBytes(c.att.Signature)
		if err != nil {
			return nil, err
		}
		agg.Aggregate(sig)
		for _, idx := range c.att.AggregationBits.BitIndices() {
			aggBits.SetBitAt(offset+uint64(idx), true)
		}
		offset += c.committeeLen
	}

	data := *group[0].att.Data
	return &primitives.AttestationElectra{
		Data:            &data,
		AggregationBits: aggBits,
		CommitteeBits:   committeeBits,
		Signature:       agg.Finish().Marshal(),
	}, nil
}
