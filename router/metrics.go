// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/xcm/types"
)

// Metrics counts envelopes per route
type Metrics struct {
	sentEnvelopeCount      *prometheus.CounterVec
	deliveredEnvelopeCount *prometheus.CounterVec
	failedEnvelopeCount    *prometheus.CounterVec
	queuedEnvelopes        *prometheus.GaugeVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		sentEnvelopeCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xcm_sent_envelope_count",
				Help: "Number of envelopes accepted for delivery",
			},
			[]string{"source_chain_id", "destination_chain_id"},
		),
		deliveredEnvelopeCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xcm_delivered_envelope_count",
				Help: "Number of envelopes handed to their destination",
			},
			[]string{"source_chain_id", "destination_chain_id"},
		),
		failedEnvelopeCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "xcm_failed_envelope_count",
				Help: "Number of envelopes whose delivery failed",
			},
			[]string{"source_chain_id", "destination_chain_id", "failure_reason"},
		),
		queuedEnvelopes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "xcm_queued_envelopes",
				Help: "Number of envelopes waiting on a route",
			},
			[]string{"source_chain_id", "destination_chain_id"},
		),
	}

	registerer.MustRegister(m.sentEnvelopeCount)
	registerer.MustRegister(m.deliveredEnvelopeCount)
	registerer.MustRegister(m.failedEnvelopeCount)
	registerer.MustRegister(m.queuedEnvelopes)

	return &m
}

func (m *Metrics) sent(from, to types.ChainID) {
	m.sentEnvelopeCount.WithLabelValues(from.String(), to.String()).Inc()
	m.queuedEnvelopes.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) delivered(from, to types.ChainID) {
	m.deliveredEnvelopeCount.WithLabelValues(from.String(), to.String()).Inc()
	m.queuedEnvelopes.WithLabelValues(from.String(), to.String()).Dec()
}

func (m *Metrics) failed(from, to types.ChainID, reason string) {
	m.failedEnvelopeCount.WithLabelValues(from.String(), to.String(), reason).Inc()
	m.queuedEnvelopes.WithLabelValues(from.String(), to.String()).Dec()
}
