// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts channel operations. A nil *Metrics is valid and records
// nothing. One collector may be shared by many channels; counters are
// labelled by channel mode.
type Metrics struct {
	sends       *prometheus.CounterVec
	receives    *prometheus.CounterVec
	suspensions *prometheus.CounterVec
	selects     prometheus.Counter
	closes      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// reg may be nil to create unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lfchan",
			Name:      "sends_total",
			Help:      "Elements accepted by channels.",
		}, []string{"mode"}),
		receives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lfchan",
			Name:      "receives_total",
			Help:      "Elements delivered by channels.",
		}, []string{"mode"}),
		suspensions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lfchan",
			Name:      "suspensions_total",
			Help:      "Operations that registered a waiter and parked.",
		}, []string{"mode", "op"}),
		selects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lfchan",
			Name:      "select_commits_total",
			Help:      "Select invocations that committed a clause.",
		}),
		closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lfchan",
			Name:      "terminations_total",
			Help:      "Channel close and cancel transitions.",
		}, []string{"mode", "kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.sends, m.receives, m.suspensions, m.selects, m.closes)
	}
	return m
}

func (m *Metrics) sent(mode Mode) {
	if m != nil {
		m.sends.WithLabelValues(mode.String()).Inc()
	}
}

func (m *Metrics) received(mode Mode) {
	if m != nil {
		m.receives.WithLabelValues(mode.String()).Inc()
	}
}

func (m *Metrics) suspended(mode Mode, op string) {
	if m != nil {
		m.suspensions.WithLabelValues(mode.String(), op).Inc()
	}
}

func (m *Metrics) selected() {
	if m != nil {
		m.selects.Inc()
	}
}

func (m *Metrics) terminated(mode Mode, kind string) {
	if m != nil {
		m.closes.WithLabelValues(mode.String(), kind).Inc()
	}
}
