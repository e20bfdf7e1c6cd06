package forkchoice

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"

	"github.com/prysmaticlabs/attestationpool/chain"
	"github.com/prysmaticlabs/attestationpool/primitives"
	"github.com/prysmaticlabs/attestationpool/quarantine"
)

var log = logrus.WithField("prefix", "forkchoice")

// BeaconHead is the resolved canonical head the adapter hands back from
// SelectHead, together with the execution-payload hashes the proposer and
// execution engine need.
type BeaconHead struct {
	Head                   chain.BlockRef
	SafeExecBlockHash      primitives.Root
	FinalizedExecBlockHash primitives.Root
}

// Adapter is a thin, non-owning façade over a fork-choice Store: it
// forwards block and attestation events and resolves head queries,
// quarantining roots the DAG does not recognize rather than failing.
type Adapter struct {
	store      Store
	dag        chain.DAG
	quarantine quarantine.Quarantine
}

// NewAdapter wires an Adapter to the given store, DAG and quarantine. All
// three are borrowed references; the adapter owns none of them.
func NewAdapter(store Store, dag chain.DAG, q quarantine.Quarantine) *Adapter {
	return &Adapter{store: store, dag: dag, quarantine: q}
}

// AddForkChoice forwards a new block to the store.
func (a *Adapter) AddForkChoice(ctx context.Context, epochRef chain.EpochRef, blockRef chain.BlockRef, unrealized UnrealizedFinality, block *chain.ForkedBlock, wallTime primitives.WallTime) error {
	_, span := trace.StartSpan(ctx, "forkchoice.AddForkChoice")
	defer span.End()

	if err := a.store.ProcessBlock(a.dag, epochRef, blockRef, unrealized, block, wallTime); err != nil {
		return errors.Wrap(err, "fork choice rejected block")
	}
	return nil
}

// AddForkChoiceVotes forwards an attestation's votes to the store. Errors
// are logged and swallowed: fork choice is expected to heal once the
// missing context it needed arrives later.
func (a *Adapter) AddForkChoiceVotes(ctx context.Context, slot primitives.Slot, attestingIndices []primitives.ValidatorIndex, blockRoot primitives.Root, wallTime primitives.WallTime) {
	_, span := trace.StartSpan(ctx, "forkchoice.AddForkChoiceVotes")
	defer span.End()

	if err := a.store.OnAttestation(a.dag, slot, blockRoot, attestingIndices, wallTime); err != nil {
		log.WithError(err).Error("fork choice rejected attestation")
	}
}

// SelectHead resolves the current canonical head. If the DAG does not
// recognize the root fork choice returns, the root is quarantined and nil
// is returned instead of an error: the caller should retry once the block
// arrives.
func (a *Adapter) SelectHead(ctx context.Context, wallTime primitives.WallTime) (*BeaconHead, error) {
	_, span := trace.StartSpan(ctx, "forkchoice.SelectHead")
	defer span.End()

	root, err := a.store.GetHead(a.dag, wallTime)
	if err != nil {
		return nil, errors.Wrap(err, "could not resolve fork choice head")
	}

	headBlock, err := a.dag.GetBlockRef(root)
	if err != nil {
		log.WithField("root", root).Warn("fork choice head is unknown to the chain DAG")
		a.quarantine.AddMissing(root)
		return nil, nil
	}

	finalized := a.dag.FinalizedHead()
	finalizedHash, _ := a.dag.LoadExecutionBlockHash(finalized)

	safeRoot := a.store.GetSafeBeaconBlockRoot()
	safeHash := finalizedHash
	if safeBlock, err := a.dag.GetBlockRef(safeRoot); err == nil {
		if h, ok := a.dag.LoadExecutionBlockHash(safeBlock); ok {
			safeHash = h
		}
	}

	log.WithField("root", root).WithField("slot", headBlock.Slot).Info("selected fork choice head")
	return &BeaconHead{
		Head:                   headBlock,
		SafeExecBlockHash:      safeHash,
		FinalizedExecBlockHash: finalizedHash,
	}, nil
}

// Prune forwards to the store. Errors are logged and swallowed, matching
// the pool's policy of never propagating fork-choice housekeeping
// failures to callers.
func (a *Adapter) Prune() {
	if err := a.store.Prune(); err != nil {
		log.WithError(err).Error("could not prune fork choice")
	}
}
