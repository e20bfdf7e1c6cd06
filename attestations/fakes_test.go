package attestations

import (
	"github.com/prysmaticlabs/attestationpool/chain"
	"github.com/prysmaticlabs/attestationpool/forkchoice"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// fakeChainState is the minimal chain.ChainState used by packer tests.
type fakeChainState struct {
	slot primitives.Slot
}

func (f *fakeChainState) Slot() primitives.Slot { return f.slot }

// fakeDAG exists to exercise the packer's control flow without a real
// chain DAG. AtSlot echoes the requested root and DependentRoot always
// returns Root{9}, so CheckAttestationCompatible accepts exactly the
// attestations whose target root is Root{9}.
// checkErr lets a test force CheckAttestation to reject a candidate.
// checkElectraFunc, if set, is consulted by CheckAttestationElectra with
// the real candidate so a test can prove committee information (via
// CommitteeBits) actually reaches the check instead of a flattened view.
type fakeDAG struct {
	checkErr         error
	checkElectraFunc func(*primitives.AttestationElectra) error
}

func (f *fakeDAG) GetFinalizedEpochRef() chain.EpochRef { return chain.EpochRef{} }
func (f *fakeDAG) GetEpochRef(chain.BlockRef, primitives.Epoch, bool) (chain.EpochRef, error) {
	return chain.EpochRef{}, nil
}
func (f *fakeDAG) GetForkedBlock(primitives.Root) (chain.ForkedBlock, error) {
	return chain.ForkedBlock{}, nil
}
func (f *fakeDAG) GetBlockRef(root primitives.Root) (chain.BlockRef, error) {
	return chain.BlockRef{Root: root}, nil
}
func (f *fakeDAG) AtSlot(blockID primitives.Root, slot primitives.Slot) (chain.BlockRef, error) {
	return chain.BlockRef{Root: blockID, Slot: slot}, nil
}
func (f *fakeDAG) HeadState() chain.ChainState                    { return &fakeChainState{} }
func (f *fakeDAG) Head() chain.BlockRef                           { return chain.BlockRef{} }
func (f *fakeDAG) FinalizedHead() chain.BlockRef                  { return chain.BlockRef{} }
func (f *fakeDAG) Heads() []chain.BlockRef                        { return []chain.BlockRef{{}} }
func (f *fakeDAG) LoadExecutionBlockHash(chain.BlockRef) (primitives.Root, bool) {
	return primitives.Root{}, false
}
func (f *fakeDAG) CheckAttestation(chain.ChainState, *primitives.Attestation, chain.CheckFlags, chain.SignatureCache) error {
	return f.checkErr
}
func (f *fakeDAG) CheckAttestationElectra(_ chain.ChainState, att *primitives.AttestationElectra, _ chain.CheckFlags, _ chain.SignatureCache) error {
	if f.checkElectraFunc != nil {
		return f.checkElectraFunc(att)
	}
	return nil
}
func (f *fakeDAG) DependentRoot(chain.ChainState, primitives.Epoch) (primitives.Root, error) {
	return primitives.Root{9}, nil
}

// fakeStore is a no-op forkchoice.Store recording the last attestation it
// was asked to process.
type fakeStore struct {
	lastSlot             primitives.Slot
	lastAttestingIndices []primitives.ValidatorIndex
	onAttestationCalls   int
}

func (f *fakeStore) ProcessBlock(chain.DAG, chain.EpochRef, chain.BlockRef, forkchoice.UnrealizedFinality, *chain.ForkedBlock, primitives.WallTime) error {
	return nil
}
func (f *fakeStore) BackendProcessBlock(primitives.Root, primitives.Root, forkchoice.UnrealizedFinality) error {
	return nil
}
func (f *fakeStore) OnAttestation(dag chain.DAG, slot primitives.Slot, blockRoot primitives.Root, attestingIndices []primitives.ValidatorIndex, wallTime primitives.WallTime) error {
	f.lastSlot = slot
	f.lastAttestingIndices = attestingIndices
	f.onAttestationCalls++
	return nil
}
func (f *fakeStore) GetHead(chain.DAG, primitives.WallTime) (primitives.Root, error) {
	return primitives.Root{1}, nil
}
func (f *fakeStore) GetSafeBeaconBlockRoot() primitives.Root { return primitives.Root{1} }
func (f *fakeStore) Prune() error                            { return nil }
