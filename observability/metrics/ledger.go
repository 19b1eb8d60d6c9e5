package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type LedgerMetrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	aborts        *prometheus.CounterVec
	animalsStaked *prometheus.GaugeVec
	unclaimedPot  *prometheus.GaugeVec
	currentRound  *prometheus.GaugeVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the lazily registered metrics of the operation host.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "jungle",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Operations processed segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "jungle",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Time spent applying and committing an operation.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "jungle",
				Subsystem: "ledger",
				Name:      "aborts_total",
				Help:      "Operations rolled back segmented by reason.",
			}, []string{"operation", "reason"}),
			animalsStaked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "jungle",
				Subsystem: "staking",
				Name:      "animals_staked",
				Help:      "Animals currently staked per jungle.",
			}, []string{"jungle"}),
			unclaimedPot: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "jungle",
				Subsystem: "lottery",
				Name:      "unclaimed_pot",
				Help:      "Native value held by the escrow and not yet proven distributed.",
			}, []string{"lottery"}),
			currentRound: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "jungle",
				Subsystem: "lottery",
				Name:      "current_round",
				Help:      "Index of the open round per lottery.",
			}, []string{"lottery"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.duration,
			ledgerRegistry.aborts,
			ledgerRegistry.animalsStaked,
			ledgerRegistry.unclaimedPot,
			ledgerRegistry.currentRound,
		)
	})
	return ledgerRegistry
}

// ErrPanicked marks operations aborted by a recovered panic.
var ErrPanicked = errors.New("operation panicked")

// ObserveOperation records the outcome and latency of an operation.
func (m *LedgerMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	outcome := "committed"
	if err != nil {
		outcome = "aborted"
		reason := "error"
		if errors.Is(err, ErrPanicked) {
			reason = "panic"
		}
		m.aborts.WithLabelValues(operation, reason).Inc()
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *LedgerMetrics) SetAnimalsStaked(jungle string, count uint64) {
	if m == nil {
		return
	}
	m.animalsStaked.WithLabelValues(jungle).Set(float64(count))
}

func (m *LedgerMetrics) SetLottery(lottery string, round, unclaimed uint64) {
	if m == nil {
		return
	}
	m.currentRound.WithLabelValues(lottery).Set(float64(round))
	m.unclaimedPot.WithLabelValues(lottery).Set(float64(unclaimed))
}
