package attestations

import (
	"context"

	"github.com/prysmaticlabs/go-bitfield"
	"go.opencensus.io/trace"

	"github.com/prysmaticlabs/attestationpool/chain"
	"github.com/prysmaticlabs/attestationpool/crypto/bls"
	"github.com/prysmaticlabs/attestationpool/forkchoice"
	"github.com/prysmaticlabs/attestationpool/params"
	"github.com/prysmaticlabs/attestationpool/primitives"
	"github.com/prysmaticlabs/attestationpool/quarantine"
)

// dutyEpochs is the per-validator dedup record external duty-scheduling
// code uses to avoid re-broadcasting a subnet or aggregate vote it has
// already sent for an epoch.
type dutyEpochs struct {
	subnetEpoch    primitives.Epoch
	aggregateEpoch primitives.Epoch
}

// Pool is the attestation pool: it owns both schema rings, forwards votes
// to fork choice, and serves the block-packing and aggregation queries
// that sit on top of the rings. It is not safe for concurrent use; the
// single-threaded cooperative model is a correctness requirement, not an
// optimization.
type Pool struct {
	phase0  *ring
	electra *ring

	dag        chain.DAG
	forkChoice *forkchoice.Adapter
	quarantine quarantine.Quarantine

	onPhase0Added  func(*primitives.Attestation)
	onElectraAdded func(*primitives.AttestationElectra)

	nextAttestationEpoch map[primitives.ValidatorIndex]dutyEpochs
}

// NewPool constructs an empty pool bound to the given chain DAG,
// fork-choice adapter and quarantine.
func NewPool(dag chain.DAG, forkChoice *forkchoice.Adapter, q quarantine.Quarantine) *Pool {
	n := uint64(params.AttestationLookback)
	log.WithField("lookback", n).Info("initialized attestation pool")
	return &Pool{
		phase0:               newRing(n),
		electra:              newRing(n),
		dag:                  dag,
		forkChoice:           forkChoice,
		quarantine:           q,
		nextAttestationEpoch: make(map[primitives.ValidatorIndex]dutyEpochs),
	}
}

// SetPhase0AddedObserver registers a callback invoked after every
// newly-informative phase0 vote. Passing nil clears it.
func (p *Pool) SetPhase0AddedObserver(cb func(*primitives.Attestation)) {
	p.onPhase0Added = cb
}

// SetElectraAddedObserver registers a callback invoked after every
// newly-informative electra vote. Passing nil clears it.
func (p *Pool) SetElectraAddedObserver(cb func(*primitives.AttestationElectra)) {
	p.onElectraAdded = cb
}

// advance moves both schema rings' windows forward to wallSlot.
func (p *Pool) advance(wallSlot primitives.Slot) {
	p.phase0.advance(wallSlot)
	p.electra.advance(wallSlot)
}

// AddPhase0 ingests a fully-validated phase0 attestation. attestingIndices
// are the validator indices bits resolves to in the committee that was
// used to validate it.
func (p *Pool) AddPhase0(ctx context.Context, data primitives.AttestationData, committeeLen uint64, bits bitfield.Bitlist, sig bls.Signature, attestingIndices []primitives.ValidatorIndex, wallTime primitives.WallTime) error {
	ctx, span := trace.StartSpan(ctx, "attestations.Pool.AddPhase0")
	defer span.End()

	p.advance(wallTime.SlotOrZero())

	if _, ok := p.phase0.candidateIndex(data.Slot); !ok {
		staleSlotVotesTotal.Inc()
		log.WithField("slot", data.Slot).Debug("dropping phase0 attestation outside the candidate window")
		return nil
	}

	fp, err := primitives.Phase0Fingerprint(&data)
	if err != nil {
		return err
	}

	entry, _ := p.phase0.getOrCreate(data.Slot, fp, data, primitives.CommitteeIndex(data.Index), committeeLen)
	if !entry.Insert(bits, sig) {
		duplicateVotesTotal.Inc()
		log.WithField("duplicate", true).Debug("phase0 attestation carried no new information")
		return nil
	}

	p.forkChoice.AddForkChoiceVotes(ctx, data.Slot, attestingIndices, data.BeaconBlockRoot, wallTime)

	if p.onPhase0Added != nil {
		p.onPhase0Added(entry.ToAttestation(&primitives.Validation{AggregationBits: bits, Signature: sig.Marshal()}))
	}
	return nil
}

// AddElectra ingests a fully-validated electra attestation. committeeBits
// must be a singleton; a non-singleton committeeBits is silently dropped,
// matching the ingestion contract of the electra schema.
func (p *Pool) AddElectra(ctx context.Context, data primitives.AttestationData, committeeLen uint64, bits, committeeBits bitfield.Bitlist, sig bls.Signature, attestingIndices []primitives.ValidatorIndex, wallTime primitives.WallTime) error {
	ctx, span := trace.StartSpan(ctx, "attestations.Pool.AddElectra")
	defer span.End()

	p.advance(wallTime.SlotOrZero())

	index, ok := primitives.SingletonCommitteeIndex(committeeBits)
	if !ok {
		log.Debug("dropping electra attestation whose committee bits are not a singleton")
		return nil
	}

	if _, ok := p.electra.candidateIndex(data.Slot); !ok {
		staleSlotVotesTotal.Inc()
		log.WithField("slot", data.Slot).Debug("dropping electra attestation outside the candidate window")
		return nil
	}

	data.Index = 0
	fp, err := primitives.ElectraFingerprint(&data, index)
	if err != nil {
		return err
	}

	entry, _ := p.electra.getOrCreate(data.Slot, fp, data, index, committeeLen)
	if !entry.Insert(bits, sig) {
		duplicateVotesTotal.Inc()
		log.WithField("duplicate", true).Debug("electra attestation carried no new information")
		return nil
	}

	p.forkChoice.AddForkChoiceVotes(ctx, data.Slot, attestingIndices, data.BeaconBlockRoot, wallTime)

	if p.onElectraAdded != nil {
		v := &primitives.Validation{AggregationBits: bits, Signature: sig.Marshal()}
		p.onElectraAdded(entry.ToAttestationElectra(v, committeeBits.Len()))
	}
	return nil
}

// NextAttestationEpoch returns the last subnet/aggregate epochs recorded
// for validator, and false if none have been recorded yet.
func (p *Pool) NextAttestationEpoch(validator primitives.ValidatorIndex) (subnetEpoch, aggregateEpoch primitives.Epoch, ok bool) {
	d, ok := p.nextAttestationEpoch[validator]
	return d.subnetEpoch, d.aggregateEpoch, ok
}

// SetNextAttestationEpoch records the subnet/aggregate epochs a validator
// has already broadcast for, so external duty-scheduling code can
// deduplicate future broadcasts.
func (p *Pool) SetNextAttestationEpoch(validator primitives.ValidatorIndex, subnetEpoch, aggregateEpoch primitives.Epoch) {
	p.nextAttestationEpoch[validator] = dutyEpochs{subnetEpoch: subnetEpoch, aggregateEpoch: aggregateEpoch}
}
