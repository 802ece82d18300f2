// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import "github.com/prometheus/client_golang/prometheus"

// Counter accessors for tests observing channel activity.

func SendsCounter(m *Metrics, mode Mode) prometheus.Counter {
	return m.sends.WithLabelValues(mode.String())
}

func ReceivesCounter(m *Metrics, mode Mode) prometheus.Counter {
	return m.receives.WithLabelValues(mode.String())
}

func SuspensionsCounter(m *Metrics, mode Mode, op string) prometheus.Counter {
	return m.suspensions.WithLabelValues(mode.String(), op)
}

func SelectsCounter(m *Metrics) prometheus.Counter {
	return m.selects
}

func TerminationsCounter(m *Metrics, mode Mode, kind string) prometheus.Counter {
	return m.closes.WithLabelValues(mode.String(), kind)
}
