package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSettlementMetrics(reg)

	m.IncOutcome(OutcomeSettled)
	m.IncOutcome(OutcomeSettled)
	m.IncOutcome(OutcomeAlreadyProcessed)
	m.AddSettled(173000, 22000, 5000)
	m.AddReleased(41000)
	m.AddReleased(-5)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	settled, err := fetchCounterValue(mfs, "payouts_settlements_total", "outcome", OutcomeSettled)
	require.NoError(t, err)
	assert.Equal(t, 2.0, settled)

	dup, err := fetchCounterValue(mfs, "payouts_settlements_total", "outcome", OutcomeAlreadyProcessed)
	require.NoError(t, err)
	assert.Equal(t, 1.0, dup)

	earnings, err := fetchCounterValue(mfs, "payouts_settled_amount_cents_total", "kind", "seller_earnings")
	require.NoError(t, err)
	assert.Equal(t, 173000.0, earnings)

	released := findMetricFamily(mfs, "payouts_released_amount_cents_total")
	require.NotNil(t, released)
	assert.Equal(t, 41000.0, released.GetMetric()[0].GetCounter().GetValue())
}
