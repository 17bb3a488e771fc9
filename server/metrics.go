// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dictserv"

// Metrics holds the Prometheus collectors for the servers. A nil *Metrics
// records nothing.
type Metrics struct {
	SessionsTotal      *prometheus.CounterVec
	SessionsActive     *prometheus.GaugeVec
	SessionErrorsTotal *prometheus.CounterVec
	LookupsTotal       *prometheus.CounterVec
	LookupDuration     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. reg may be
// nil, in which case the collectors are not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Total client sessions accepted by server.",
			},
			[]string{"server"},
		),
		SessionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Number of client sessions currently open by server.",
			},
			[]string{"server"},
		),
		SessionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_errors_total",
				Help:      "Total sessions ended by a socket fault by server.",
			},
			[]string{"server"},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Total dictionary lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		LookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_duration_seconds",
				Help:      "Dictionary lookup latency in seconds.",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.SessionsTotal,
			m.SessionsActive,
			m.SessionErrorsTotal,
			m.LookupsTotal,
			m.LookupDuration,
		)
	}
	return m
}

func (m *Metrics) sessionStarted(server string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(server).Inc()
	m.SessionsActive.WithLabelValues(server).Inc()
}

func (m *Metrics) sessionEnded(server string) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues(server).Dec()
}

func (m *Metrics) sessionFailed(server string) {
	if m == nil {
		return
	}
	m.SessionErrorsTotal.WithLabelValues(server).Inc()
}

func (m *Metrics) lookupDone(found bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	m.LookupsTotal.WithLabelValues(result).Inc()
	m.LookupDuration.Observe(d.Seconds())
}

// NewMetricsServer returns an HTTP server exposing the metrics gathered by g
// at /metrics.
func NewMetricsServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>dictserv</h1><p><a href="/metrics">/metrics</a></p></body></html>`)
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
