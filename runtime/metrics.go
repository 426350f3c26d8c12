// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	calls    *prometheus.CounterVec
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "xbridge",
				Subsystem: "runtime",
				Name:      "calls_total",
				Help:      "Executed calls by outcome.",
			},
			[]string{"chain", "result"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "xbridge",
				Subsystem: "runtime",
				Name:      "events_total",
				Help:      "Committed event logs.",
			},
			[]string{"chain"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "xbridge",
				Subsystem: "runtime",
				Name:      "call_duration_seconds",
				Help:      "Call execution time in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"chain"},
		),
	}
}

func (m *metrics) record(chainID uint8, err error, events int, took time.Duration) {
	chain := strconv.Itoa(int(chainID))
	result := "committed"
	if err != nil {
		result = "reverted"
	}
	m.calls.WithLabelValues(chain, result).Inc()
	m.events.WithLabelValues(chain).Add(float64(events))
	m.duration.WithLabelValues(chain).Observe(took.Seconds())
}

// RegisterMetrics exposes the runtime's call metrics on reg.
func (r *Runtime) RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.metrics.calls, r.metrics.events, r.metrics.duration} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
