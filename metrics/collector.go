// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports Engine counters as Prometheus metrics.
package metrics

import (
	"strconv"

	"code.hybscloud.com/mflow"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mflow"

// Source is the read-only view of an Engine the collector scrapes.
type Source interface {
	Stats() []mflow.ChannelStat
	PendingWrites() int
}

// Collector implements prometheus.Collector over a Source.
// Every scrape takes a fresh snapshot; nothing is cached between scrapes.
type Collector struct {
	src Source

	enabled   *prometheus.Desc
	available *prometheus.Desc
	waiting   *prometheus.Desc
	pending   *prometheus.Desc
}

// NewCollector returns a Collector for src.
func NewCollector(src Source) *Collector {
	return &Collector{
		src: src,
		enabled: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "channel", "enabled"),
			"Whether the channel accepts new sessions (1) or not (0).",
			[]string{"channel"}, nil),
		available: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bytes_available"),
			"Occupied bytes per flow, including admitted LOW bytes not yet committed.",
			[]string{"channel", "flow"}, nil),
		waiting: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "waiting_readers"),
			"Blocking reads in progress per flow.",
			[]string{"channel", "flow"}, nil),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "pending_writes"),
			"Admitted LOW writes not yet committed.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.enabled
	ch <- c.available
	ch <- c.waiting
	ch <- c.pending
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	high, low := mflow.High.String(), mflow.Low.String()
	for _, st := range c.src.Stats() {
		idx := strconv.Itoa(st.Index)
		ch <- prometheus.MustNewConstMetric(c.enabled, prometheus.GaugeValue, boolValue(st.Enabled), idx)
		ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(st.HighBytes), idx, high)
		ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(st.LowBytes), idx, low)
		ch <- prometheus.MustNewConstMetric(c.waiting, prometheus.GaugeValue, float64(st.HighWaiting), idx, high)
		ch <- prometheus.MustNewConstMetric(c.waiting, prometheus.GaugeValue, float64(st.LowWaiting), idx, low)
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(c.src.PendingWrites()))
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
