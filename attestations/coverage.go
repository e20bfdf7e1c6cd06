package attestations

import (
	"strconv"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prysmaticlabs/go-bitfield"

	"github.com/prysmaticlabs/attestationpool/primitives"
)

// coverageKey identifies a (slot, committee_index) pair the coverage
// cache scores candidates against.
type coverageKey struct {
	slot  primitives.Slot
	index primitives.CommitteeIndex
}

// string renders the key for the underlying expiring-map store, which is
// keyed by string rather than a struct.
func (k coverageKey) string() string {
	return strconv.FormatUint(uint64(k.slot), 10) + ":" + strconv.FormatUint(uint64(k.index), 10)
}

// PendingAttestation is the pre-Altair flat attestation record the
// proposing state carries for votes already on chain.
type PendingAttestation struct {
	Data            primitives.AttestationData
	AggregationBits bitfield.Bitlist
}

// ChainState is the slice of the proposing beacon state the coverage
// cache needs to know which voters have already been credited on chain.
// Everything else about the state (balances, shuffling, history) belongs
// to the chain DAG and is not modeled here.
type ChainState interface {
	// IsAltair reports whether the state uses participation bitmaps
	// instead of a flat pending-attestation list.
	IsAltair() bool
	PreviousEpochAttestations() []*PendingAttestation
	CurrentEpochAttestations() []*PendingAttestation
	// PreviousEpochParticipation and CurrentEpochParticipation return one
	// flag byte per validator index; a nonzero byte means some
	// participation flag (source, target, or head) was credited.
	PreviousEpochParticipation() []byte
	CurrentEpochParticipation() []byte
	// CommitteeAt returns the committee assigned to (slot, index), needed
	// to translate participation-by-validator-index into
	// participation-by-position-in-committee for the Altair path.
	CommitteeAt(slot primitives.Slot, index primitives.CommitteeIndex) []primitives.ValidatorIndex
	// EpochCommittees enumerates every (slot, committee_index) pair active
	// across the previous and current epoch, the space Build must scan
	// under the Altair participation-bitmap representation.
	EpochCommittees() map[primitives.Slot][]primitives.CommitteeIndex
}

// CoverageCache tracks, per (slot, committee_index), which committee
// positions have already been credited by an on-chain attestation in the
// proposing state. The packer scores candidates against it so it never
// selects a vote that adds nothing new. Built fresh per packing call, so
// entries never expire.
type CoverageCache struct {
	entries *gocache.Cache
}

// NewCoverageCache returns an empty cache.
func NewCoverageCache() *CoverageCache {
	return &CoverageCache{entries: gocache.New(gocache.NoExpiration, gocache.NoExpiration)}
}

// Build populates the cache from the proposing state, following whichever
// of the two on-chain representations the state uses.
func (c *CoverageCache) Build(state ChainState) {
	if !state.IsAltair() {
		for _, att := range state.PreviousEpochAttestations() {
			c.Add(att.Data, att.AggregationBits)
		}
		for _, att := range state.CurrentEpochAttestations() {
			c.Add(att.Data, att.AggregationBits)
		}
		return
	}

	c.buildFromParticipation(state, state.PreviousEpochParticipation())
	c.buildFromParticipation(state, state.CurrentEpochParticipation())
}

func (c *CoverageCache) buildFromParticipation(state ChainState, participation []byte) {
	for slot, committees := range state.EpochCommittees() {
		for _, idx := range committees {
			committee := state.CommitteeAt(slot, idx)
			if len(committee) == 0 {
				continue
			}
			bits := bitfield.NewBitlist(uint64(len(committee)))
			for pos, validator := range committee {
				if int(validator) < len(participation) && participation[validator] != 0 {
					bits.SetBitAt(uint64(pos), true)
				}
			}
			c.Add(primitives.AttestationData{Slot: slot, Index: idx}, bits)
		}
	}
}

// Add ORs bits into the entry for (data.Slot, data.Index), creating it if
// absent.
func (c *CoverageCache) Add(data primitives.AttestationData, bits bitfield.Bitlist) {
	key := coverageKey{slot: data.Slot, index: data.Index}.string()
	if existing, ok := c.get(key); ok {
		c.entries.Set(key, existing.Or(bits), gocache.NoExpiration)
		return
	}
	c.entries.Set(key, bits, gocache.NoExpiration)
}

// Score returns the number of new voters bits would add over what is
// already credited for (data.Slot, data.Index): count_ones(bits) minus the
// overlap with the cached entry, or the full count if no entry exists yet.
func (c *CoverageCache) Score(data primitives.AttestationData, bits bitfield.Bitlist) int {
	key := coverageKey{slot: data.Slot, index: data.Index}.string()
	existing, ok := c.get(key)
	if !ok {
		return int(bits.Count())
	}
	overlap := 0
	for _, idx := range bits.BitIndices() {
		if uint64(idx) < existing.Len() && existing.BitAt(uint64(idx)) {
			overlap++
		}
	}
	return int(bits.Count()) - overlap
}

func (c *CoverageCache) get(key string) (bitfield.Bitlist, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(bitfield.Bitlist), true
}
