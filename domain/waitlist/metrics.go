package waitlist

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	countSourceCache    = "cache"
	countSourceBackend  = "backend"
	countSourceFallback = "fallback"
)

// Metrics counts signup outcomes and where displayed counts came from. A nil *Metrics records nothing.
type Metrics struct {
	signups    *prometheus.CounterVec
	countReads *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	return &Metrics{
		signups: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Waitlist signup attempts by outcome.",
		}, []string{"outcome"})),
		countReads: registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_count_reads_total",
			Help: "Waitlist count reads by the source that answered them.",
		}, []string{"source"})),
	}
}

// registerCounterVec returns the collector already registered under the same name, if any.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) observeSignup(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.signups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeCountRead(source string) {
	if m == nil {
		return
	}
	m.countReads.WithLabelValues(source).Inc()
}
