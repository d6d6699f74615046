// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"sync/atomic"

	"github.com/elastic/gosigar"
	"github.com/prometheus/client_golang/prometheus"
)

// SystemCollector reports host memory and load, which the default process collector does not cover.
type SystemCollector struct {
	memTotal *prometheus.Desc
	memUsed  *prometheus.Desc
	load     *prometheus.Desc
}

func NewSystemCollector() *SystemCollector {
	return &SystemCollector{
		memTotal: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "system", "memory_total_bytes"),
			"Total physical memory of the host.", nil, nil),
		memUsed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "system", "memory_used_bytes"),
			"Physical memory in use, excluding buffers and caches.", nil, nil),
		load: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "system", "load_average"),
			"Host load average.", []string{"window"}, nil),
	}
}

func (c *SystemCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.memTotal
	ch <- c.memUsed
	ch <- c.load
}

func (c *SystemCollector) Collect(ch chan<- prometheus.Metric) {
	var mem gosigar.Mem
	if err := mem.Get(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.memTotal, prometheus.GaugeValue, float64(mem.Total))
		ch <- prometheus.MustNewConstMetric(c.memUsed, prometheus.GaugeValue, float64(mem.ActualUsed))
	}
	var load gosigar.LoadAverage
	if err := load.Get(); err == nil {
		ch <- prometheus.MustNewConstMetric(c.load, prometheus.GaugeValue, load.One, "1m")
		ch <- prometheus.MustNewConstMetric(c.load, prometheus.GaugeValue, load.Five, "5m")
		ch <- prometheus.MustNewConstMetric(c.load, prometheus.GaugeValue, load.Fifteen, "15m")
	}
}

var registered atomic.Bool

func registerSystemCollector() {
	if registered.CompareAndSwap(false, true) {
		if err := prometheus.Register(NewSystemCollector()); err != nil {
			logger.Warn("unable to register system collector", "error", err)
		}
	}
}
