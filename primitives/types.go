// Package primitives holds the small, protocol-defined value types the
// attestation pool ingests and emits. The beacon state itself, committee
// shuffling and execution-payload bookkeeping live on the other side of
// the chain DAG interface and are not modeled here.
package primitives

// Slot is a single beacon chain slot number.
type Slot uint64

// Epoch is a single beacon chain epoch number.
type Epoch uint64

// CommitteeIndex identifies one of the committees active in a slot.
type CommitteeIndex uint64

// ValidatorIndex identifies a validator's slot within a committee or the
// full validator registry, depending on context.
type ValidatorIndex uint64

// Root is a 32-byte Merkle root, block root, or state root.
type Root [32]byte

// Checkpoint pins an epoch to the block root that was canonical at its
// start.
type Checkpoint struct {
	Epoch Epoch
	Root  Root
}

// AttestationData is the canonical, protocol-defined vote payload. Under
// the electra schema the committee index is carried out-of-band in
// CommitteeBits, so Index is always zero on the wire for electra
// attestations; phase0 attestations carry it inline.
type AttestationData struct {
	Slot            Slot
	Index           CommitteeIndex
	BeaconBlockRoot Root
	Source          Checkpoint
	Target          Checkpoint
}

// withZeroIndex returns a copy of data with Index cleared, used to compute
// the electra fingerprint's index-independent half.
func (d AttestationData) withZeroIndex() AttestationData {
	d.Index = 0
	return d
}

// WallTime is the pool's only view of wall-clock time: the current slot,
// supplied by an external clock the pool never reads directly.
type WallTime struct {
	Slot Slot
}

// SlotOrZero returns the wall time's slot, or zero before genesis.
func (w WallTime) SlotOrZero() Slot {
	return w.Slot
}
