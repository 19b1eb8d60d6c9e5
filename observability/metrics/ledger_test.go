package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveOperationSegmentsOutcome(t *testing.T) {
	m := Ledger()
	m.ObserveOperation("test_stake", time.Millisecond, nil)
	m.ObserveOperation("test_stake", time.Millisecond, errors.New("boom"))
	m.ObserveOperation("test_stake", time.Millisecond, fmt.Errorf("%w: nil map", ErrPanicked))

	require.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("test_stake", "committed")))
	require.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("test_stake", "aborted")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.aborts.WithLabelValues("test_stake", "panic")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.aborts.WithLabelValues("test_stake", "error")))
}

func TestGaugesTrackLatestValue(t *testing.T) {
	m := Ledger()
	m.SetAnimalsStaked("j1", 4)
	m.SetAnimalsStaked("j1", 3)
	m.SetLottery("l1", 9, 1_000)
	require.Equal(t, float64(3), testutil.ToFloat64(m.animalsStaked.WithLabelValues("j1")))
	require.Equal(t, float64(9), testutil.ToFloat64(m.currentRound.WithLabelValues("l1")))
	require.Equal(t, float64(1_000), testutil.ToFloat64(m.unclaimedPot.WithLabelValues("l1")))

	var nilMetrics *LedgerMetrics
	require.NotPanics(t, func() { nilMetrics.SetAnimalsStaked("x", 1) })
}
