// Package chain defines the chain DAG surface the attestation pool
// consumes: block/state storage, committee shuffling and
// execution-payload lookups. The DAG itself — its storage engine, its
// shuffling algorithm — lives outside this module; the pool only ever
// talks to it through this interface.
package chain

import (
	"github.com/prysmaticlabs/attestationpool/params"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// BlockRef identifies a block known to the DAG.
type BlockRef struct {
	Root primitives.Root
	Slot primitives.Slot
}

// EpochRef is the DAG's cached view of an epoch's shuffling and balances,
// anchored at a particular block.
type EpochRef struct {
	Epoch primitives.Epoch
	Block BlockRef
}

// ForkedBlock is a block together with the chain of ancestors the DAG
// knows about for it.
type ForkedBlock struct {
	Block BlockRef
}

// CheckFlags modulates how strictly CheckAttestation validates a
// candidate. The packers set SkipBLSVerification, since every signature
// in the pool was already checked on ingest.
type CheckFlags struct {
	SkipBLSVerification bool
}

// SignatureCache lets CheckAttestation reuse already-verified signature
// checks across candidates sharing the same data.
type SignatureCache interface{}

// DAG is the chain DAG surface consumed by the pool and the fork-choice
// adapter. Every method is expected to be synchronous and non-blocking;
// the pool treats it as read-only.
type DAG interface {
	GetFinalizedEpochRef() EpochRef
	GetEpochRef(block BlockRef, epoch primitives.Epoch, preferFinalized bool) (EpochRef, error)
	GetForkedBlock(blockID primitives.Root) (ForkedBlock, error)
	GetBlockRef(root primitives.Root) (BlockRef, error)
	AtSlot(blockID primitives.Root, slot primitives.Slot) (BlockRef, error)

	HeadState() ChainState
	Head() BlockRef
	FinalizedHead() BlockRef
	Heads() []BlockRef

	LoadExecutionBlockHash(block BlockRef) (primitives.Root, bool)

	CheckAttestation(state ChainState, att *primitives.Attestation, flags CheckFlags, cache SignatureCache) error
	// CheckAttestationElectra is CheckAttestation's electra counterpart: it
	// takes the on-wire electra attestation directly, CommitteeBits and
	// all, so committee-membership/shuffling validation has the candidate's
	// actual committee index to check against instead of the flattened,
	// index-zeroed phase0 view.
	CheckAttestationElectra(state ChainState, att *primitives.AttestationElectra, flags CheckFlags, cache SignatureCache) error
	// DependentRoot returns the block root the shuffling for epoch
	// depended on, as of the given state.
	DependentRoot(state ChainState, epoch primitives.Epoch) (primitives.Root, error)
}

// ChainState is the minimal state surface the DAG hands back; the pool
// never constructs or mutates one, only reads from it via the coverage
// cache and compatibility checks.
type ChainState interface {
	Slot() primitives.Slot
}

// AttesterDependentSlot returns the slot whose block determined the
// shuffling in effect for epoch: the last slot of the prior epoch.
func AttesterDependentSlot(epoch primitives.Epoch) primitives.Slot {
	if epoch == 0 {
		return 0
	}
	return primitives.Slot(uint64(epoch-1)*params.SlotsPerEpoch + params.SlotsPerEpoch - 1)
}

// CheckAttestationCompatible implements the shuffling-compatibility check
// from the packing algorithm: the shuffling the candidate's target epoch
// was verified against must match the proposing state's view of that
// shuffling. It resolves the block att's target root descends from down
// to the dependent slot, and compares that block's root against the
// proposing state's own dependent root for the prior epoch.
func CheckAttestationCompatible(dag DAG, state ChainState, att *primitives.Attestation) (bool, error) {
	dep := AttesterDependentSlot(att.Data.Target.Epoch)
	depBlock, err := dag.AtSlot(att.Data.Target.Root, dep)
	if err != nil {
		return false, err
	}

	var prior primitives.Epoch
	if att.Data.Target.Epoch > 0 {
		prior = att.Data.Target.Epoch - 1
	}
	expected, err := dag.DependentRoot(state, prior)
	if err != nil {
		return false, err
	}
	return depBlock.Root == expected, nil
}
