package attestations

import (
	"github.com/prysmaticlabs/attestationpool/primitives"
)

// ring is a fixed-size circular buffer of slot buckets, each mapping a
// vote fingerprint to the Entry tracking all known votes for it. Both
// schema variants share this implementation; only how the fingerprint is
// computed and the Entry's Index field differ between them.
type ring struct {
	n            uint64
	startingSlot primitives.Slot
	buckets      []map[primitives.Fingerprint]*Entry
}

func newRing(n uint64) *ring {
	buckets := make([]map[primitives.Fingerprint]*Entry, n)
	for i := range buckets {
		buckets[i] = make(map[primitives.Fingerprint]*Entry)
	}
	return &ring{n: n, buckets: buckets}
}

// candidateIndex returns the bucket index for slot, and false if slot is
// outside the resident window [startingSlot, startingSlot+n).
func (r *ring) candidateIndex(slot primitives.Slot) (int, bool) {
	if slot < r.startingSlot || uint64(slot-r.startingSlot) >= r.n {
		return 0, false
	}
	return int(uint64(slot) % r.n), true
}

// advance moves the window forward so that wallSlot becomes the newest
// resident slot, resetting every bucket that falls out of the window. A
// wallSlot that would move the window backward is a clock regression and
// is rejected with a logged error, leaving state unchanged.
func (r *ring) advance(wallSlot primitives.Slot) {
	if uint64(wallSlot)+1 < r.n {
		return
	}
	newStart := primitives.Slot(uint64(wallSlot) + 1 - r.n)
	if newStart < r.startingSlot {
		log.WithField("startingSlot", r.startingSlot).WithField("wallSlot", wallSlot).
			Error("clock regression: wall slot predates the current window")
		return
	}

	gap := uint64(newStart - r.startingSlot)
	if gap >= r.n {
		for i := range r.buckets {
			r.buckets[i] = make(map[primitives.Fingerprint]*Entry)
		}
	} else {
		for s := r.startingSlot; s < newStart; s++ {
			idx := uint64(s) % r.n
			r.buckets[idx] = make(map[primitives.Fingerprint]*Entry)
		}
	}
	r.startingSlot = newStart
}

// getOrCreate returns the Entry for fp in slot's bucket, creating it with
// the given vote content if it does not yet exist. ok is false if slot is
// not resident.
func (r *ring) getOrCreate(slot primitives.Slot, fp primitives.Fingerprint, data primitives.AttestationData, index primitives.CommitteeIndex, committeeLen uint64) (entry *Entry, ok bool) {
	idx, ok := r.candidateIndex(slot)
	if !ok {
		return nil, false
	}
	bucket := r.buckets[idx]
	if e, present := bucket[fp]; present {
		return e, true
	}
	e := NewEntry(data, index, committeeLen)
	bucket[fp] = e
	return e, true
}

// bucketEntries returns every Entry resident in slot's bucket, or nil if
// slot is not resident.
func (r *ring) bucketEntries(slot primitives.Slot) map[primitives.Fingerprint]*Entry {
	idx, ok := r.candidateIndex(slot)
	if !ok {
		return nil
	}
	return r.buckets[idx]
}
