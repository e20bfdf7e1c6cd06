package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prysmaticlabs/attestationpool/params"
	"github.com/prysmaticlabs/attestationpool/primitives"
)

func TestAttesterDependentSlot(t *testing.T) {
	assert.EqualValues(t, 0, AttesterDependentSlot(0))
	assert.EqualValues(t, params.SlotsPerEpoch-1, AttesterDependentSlot(1))
	assert.EqualValues(t, 2*params.SlotsPerEpoch-1, AttesterDependentSlot(2))
}

type fakeDAG struct {
	atSlotRoot       primitives.Root
	dependentRoot    primitives.Root
	dependentRootErr error
}

func (f *fakeDAG) GetFinalizedEpochRef() EpochRef { return EpochRef{} }
func (f *fakeDAG) GetEpochRef(BlockRef, primitives.Epoch, bool) (EpochRef, error) {
	return EpochRef{}, nil
}
func (f *fakeDAG) GetForkedBlock(primitives.Root) (ForkedBlock, error) { return ForkedBlock{}, nil }
func (f *fakeDAG) GetBlockRef(root primitives.Root) (BlockRef, error)  { return BlockRef{Root: root}, nil }
func (f *fakeDAG) AtSlot(blockID primitives.Root, slot primitives.Slot) (BlockRef, error) {
	return BlockRef{Root: f.atSlotRoot, Slot: slot}, nil
}
func (f *fakeDAG) HeadState() ChainState                        { return nil }
func (f *fakeDAG) Head() BlockRef                                { return BlockRef{} }
func (f *fakeDAG) FinalizedHead() BlockRef                       { return BlockRef{} }
func (f *fakeDAG) Heads() []BlockRef                             { return []BlockRef{{}} }
func (f *fakeDAG) LoadExecutionBlockHash(BlockRef) (primitives.Root, bool) {
	return primitives.Root{}, false
}
func (f *fakeDAG) CheckAttestation(ChainState, *primitives.Attestation, CheckFlags, SignatureCache) error {
	return nil
}
func (f *fakeDAG) CheckAttestationElectra(ChainState, *primitives.AttestationElectra, CheckFlags, SignatureCache) error {
	return nil
}
func (f *fakeDAG) DependentRoot(ChainState, primitives.Epoch) (primitives.Root, error) {
	return f.dependentRoot, f.dependentRootErr
}

func TestCheckAttestationCompatible_MatchingRootsAreCompatible(t *testing.T) {
	root := primitives.Root{7}
	dag := &fakeDAG{atSlotRoot: root, dependentRoot: root}
	att := &primitives.Attestation{Data: &primitives.AttestationData{
		Target: primitives.Checkpoint{Epoch: 3, Root: primitives.Root{1}},
	}}

	ok, err := CheckAttestationCompatible(dag, nil, att)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckAttestationCompatible_MismatchedRootsAreIncompatible(t *testing.T) {
	dag := &fakeDAG{atSlotRoot: primitives.Root{7}, dependentRoot: primitives.Root{8}}
	att := &primitives.Attestation{Data: &primitives.AttestationData{
		Target: primitives.Checkpoint{Epoch: 3, Root: primitives.Root{1}},
	}}

	ok, err := CheckAttestationCompatible(dag, nil, att)
	require.NoError(t, err)
	assert.False(t, ok)
}
