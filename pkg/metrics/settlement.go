package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	OutcomeSettled          = "settled"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeFailed           = "failed"
)

// SettlementMetrics tracks delivery settlements and the money they move.
type SettlementMetrics struct {
	settlements *prometheus.CounterVec
	amounts     *prometheus.CounterVec
	released    prometheus.Counter
}

// NewSettlementMetrics registers settlement collectors. A nil registerer
// yields a no-op recorder.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Delivery confirmations by settlement outcome.",
	}, []string{"outcome"})
	amounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settled_amount_cents_total",
		Help:      "Cents settled, split by seller earnings, platform commission and discount absorbed.",
	}, []string{"kind"})
	released := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "released_amount_cents_total",
		Help:      "Cents moved from pending to available by the release sweep.",
	})
	reg.MustRegister(settlements, amounts, released)
	return &SettlementMetrics{
		settlements: settlements,
		amounts:     amounts,
		released:    released,
	}
}

func (m *SettlementMetrics) IncOutcome(outcome string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddSettled records the money split of one settled order.
func (m *SettlementMetrics) AddSettled(sellerEarningsCents, commissionCents, discountCents int64) {
	if m == nil || m.amounts == nil {
		return
	}
	m.amounts.WithLabelValues("seller_earnings").Add(float64(sellerEarningsCents))
	m.amounts.WithLabelValues("commission").Add(float64(commissionCents))
	m.amounts.WithLabelValues("discount").Add(float64(discountCents))
}

func (m *SettlementMetrics) AddReleased(cents int64) {
	if m == nil || m.released == nil || cents <= 0 {
		return
	}
	m.released.Add(float64(cents))
}
