package attestations

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blockAttestationPackingTime = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "attestation_pool_block_attestation_packing_time",
		Help: "Time in seconds it took to pack attestations for a proposing block.",
	})
	duplicateVotesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestation_pool_duplicate_votes_total",
		Help: "The number of attestations dropped for carrying no new information.",
	})
	staleSlotVotesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attestation_pool_stale_slot_votes_total",
		Help: "The number of attestations dropped for falling outside the candidate window.",
	})
)
