package attestations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prysmaticlabs/attestationpool/crypto/bls"
	"github.com/prysmaticlabs/attestationpool/forkchoice"
	"github.com/prysmaticlabs/attestationpool/primitives"
	"github.com/prysmaticlabs/attestationpool/quarantine"
)

func newTestPool() (*Pool, *fakeStore) {
	store := &fakeStore{}
	dag := &fakeDAG{}
	adapter := forkchoice.NewAdapter(store, dag, quarantine.NewSet())
	return NewPool(dag, adapter, quarantine.NewSet()), store
}

// Scenario P5: idempotent insert.
func TestPool_AddPhase0_IdempotentInsertNotifiesForkChoiceOnce(t *testing.T) {
	pool, store := newTestPool()
	sk, err := bls.RandKey()
	require.NoError(t, err)

	data := primitives.AttestationData{Slot: 5}
	sig := sk.Sign([]byte("vote"))
	bits := singleton(64, 3)
	wall := primitives.WallTime{Slot: 5}

	err = pool.AddPhase0(context.Background(), data, 64, bits, sig, []primitives.ValidatorIndex{3}, wall)
	require.NoError(t, err)
	err = pool.AddPhase0(context.Background(), data, 64, bits, sig, []primitives.ValidatorIndex{3}, wall)
	require.NoError(t, err)

	assert.Equal(t, 1, store.onAttestationCalls, "the second identical insert must not notify fork choice again")
}

func TestPool_AddPhase0_DropsVotesOutsideWindow(t *testing.T) {
	pool, store := newTestPool()
	sk, err := bls.RandKey()
	require.NoError(t, err)

	// Advance the window far past slot 0 before the vote for slot 0 arrives.
	wall := primitives.WallTime{Slot: 1000}
	data := primitives.AttestationData{Slot: 0}
	err = pool.AddPhase0(context.Background(), data, 64, singleton(64, 1), sk.Sign([]byte("x")), nil, wall)
	require.NoError(t, err)

	assert.Equal(t, 0, store.onAttestationCalls)
}

func TestPool_AddElectra_RejectsNonSingletonCommitteeBits(t *testing.T) {
	pool, store := newTestPool()
	sk, err := bls.RandKey()
	require.NoError(t, err)

	data := primitives.AttestationData{Slot: 5}
	committeeBits := multi(64, 0, 1)
	err = pool.AddElectra(context.Background(), data, 64, singleton(64, 2), committeeBits, sk.Sign([]byte("x")), nil, primitives.WallTime{Slot: 5})
	require.NoError(t, err)

	assert.Equal(t, 0, store.onAttestationCalls)
}

func TestPool_AddElectra_IngestsSingletonVote(t *testing.T) {
	pool, store := newTestPool()
	sk, err := bls.RandKey()
	require.NoError(t, err)

	data := primitives.AttestationData{Slot: 5}
	committeeBits := singleton(64, 3)
	err = pool.AddElectra(context.Background(), data, 64, singleton(64, 2), committeeBits, sk.Sign([]byte("x")), []primitives.ValidatorIndex{2}, primitives.WallTime{Slot: 5})
	require.NoError(t, err)

	assert.Equal(t, 1, store.onAttestationCalls)

	att, ok, err := pool.GetAggregatedElectraByFingerprint(5, mustElectraFingerprint(t, &data, 3))
	require.NoError(t, err)
	require.True(t, ok)
	idx, ok := primitives.SingletonCommitteeIndex(att.CommitteeBits)
	require.True(t, ok)
	assert.EqualValues(t, 3, idx)
}

func mustElectraFingerprint(t *testing.T, data *primitives.AttestationData, index primitives.CommitteeIndex) primitives.Fingerprint {
	t.Helper()
	d := *data
	d.Index = 0
	fp, err := primitives.ElectraFingerprint(&d, index)
	require.NoError(t, err)
	return fp
}

func TestPool_NextAttestationEpoch(t *testing.T) {
	pool, _ := newTestPool()

	_, _, ok := pool.NextAttestationEpoch(7)
	assert.False(t, ok)

	pool.SetNextAttestationEpoch(7, 4, 5)
	subnet, aggregate, ok := pool.NextAttestationEpoch(7)
	require.True(t, ok)
	assert.EqualValues(t, 4, subnet)
	assert.EqualValues(t, 5, aggregate)
}

func TestPool_GetAggregatedPhase0ByCommittee_PicksHighestCount(t *testing.T) {
	pool, _ := newTestPool()
	ctx := context.Background()
	wall := primitives.WallTime{Slot: 5}

	sk1, err := bls.RandKey()
	require.NoError(t, err)
	sk2, err := bls.RandKey()
	require.NoError(t, err)

	dataA := primitives.AttestationData{Slot: 5, Index: 1, BeaconBlockRoot: primitives.Root{1}}
	dataB := primitives.AttestationData{Slot: 5, Index: 1, BeaconBlockRoot: primitives.Root{2}}

	require.NoError(t, pool.AddPhase0(ctx, dataA, 64, singleton(64, 0), sk1.Sign([]byte("a")), nil, wall))
	require.NoError(t, pool.AddPhase0(ctx, dataB, 64, multi(64, 0, 1, 2), sk2.Sign([]byte("b")), nil, wall))

	att, ok, err := pool.GetAggregatedPhase0ByCommittee(5, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 3, att.AggregationBits.Count())
}
