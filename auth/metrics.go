package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeAuthenticated  = "authenticated"
	outcomeRejected       = "rejected"
	outcomeMisconfigured  = "misconfigured"
	outcomeContextInvalid = "context_invalid"

	reasonNone     = "none"
	reasonNoCookie = "no_cookie"
)

// Metrics counts authentication decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the gate's collectors with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "setlist",
		Subsystem: "auth",
		Name:      "decisions_total",
		Help:      "Authentication decisions by outcome and rejection reason.",
	}, []string{"outcome", "reason"})
	if err := reg.Register(decisions); err != nil {
		return nil, err
	}
	return &Metrics{decisions: decisions}, nil
}

// Decisions exposes the underlying counter, mainly for tests.
func (m *Metrics) Decisions() *prometheus.CounterVec {
	return m.decisions
}

func (m *Metrics) observe(outcome, reason string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome, reason).Inc()
}
