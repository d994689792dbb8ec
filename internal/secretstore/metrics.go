package secretstore

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded by Instrument.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type storeMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// instrumented decorates a Store with operation metrics.
type instrumented struct {
	inner   Store
	metrics *storeMetrics
}

// Instrument wraps inner so every operation is counted by op and outcome
// and timed. Collectors are registered on reg.
func Instrument(inner Store, reg prometheus.Registerer) (Store, error) {
	m := &storeMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "credkit_store_operations_total",
				Help: "Total number of secret store operations",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "credkit_store_operation_duration_seconds",
				Help:    "Duration of secret store operations in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"op"},
		),
	}
	for _, c := range []prometheus.Collector{m.operations, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &instrumented{inner: inner, metrics: m}, nil
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	outcome := OutcomeOK
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = OutcomeNotFound
	case err != nil:
		outcome = OutcomeError
	}
	s.metrics.operations.WithLabelValues(op, outcome).Inc()
	s.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Put(item Item) error {
	start := time.Now()
	err := s.inner.Put(item)
	s.observe("put", start, err)
	return err
}

func (s *instrumented) Get(service, account string, sync Sync) (Item, error) {
	start := time.Now()
	item, err := s.inner.Get(service, account, sync)
	s.observe("get", start, err)
	return item, err
}

func (s *instrumented) Enumerate(f Filter) ([]Entry, error) {
	start := time.Now()
	entries, err := s.inner.Enumerate(f)
	s.observe("enumerate", start, err)
	return entries, err
}

func (s *instrumented) Delete(service, account string, sync Sync) error {
	start := time.Now()
	err := s.inner.Delete(service, account, sync)
	s.observe("delete", start, err)
	return err
}
