// Package forkchoice defines the fork-choice store surface the
// attestation pool drives, and a thin adapter over it that is the pool's
// only way of mutating or querying fork choice. The scoring rule itself
// (LMD-GHOST or otherwise) is the store's business, not this module's.
package forkchoice

import (
	"github.com/prysmaticlabs/attestationpool/chain"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// UnrealizedFinality carries the finality checkpoints a block would
// realize if adopted, ahead of the state transition confirming them.
type UnrealizedFinality struct {
	Finalized primitives.Checkpoint
	Justified primitives.Checkpoint
}

// Store is the fork-choice engine the pool drives. Every method is
// expected to be synchronous; the pool never calls it concurrently with
// itself.
type Store interface {
	ProcessBlock(dag chain.DAG, epochRef chain.EpochRef, blockRef chain.BlockRef, unrealized UnrealizedFinality, block *chain.ForkedBlock, wallTime primitives.WallTime) error
	// BackendProcessBlock is the faster path used while bulk-preloading
	// blocks, skipping the epoch-transition bookkeeping ProcessBlock does.
	BackendProcessBlock(blockID primitives.Root, parentRoot primitives.Root, checkpoints UnrealizedFinality) error
	OnAttestation(dag chain.DAG, slot primitives.Slot, blockRoot primitives.Root, attestingIndices []primitives.ValidatorIndex, wallTime primitives.WallTime) error
	GetHead(dag chain.DAG, wallTime primitives.WallTime) (primitives.Root, error)
	GetSafeBeaconBlockRoot() primitives.Root
	Prune() error
}
