// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// #nosec G404
package metrics

import (
	"math/rand/v2"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	commits := Counter("commits")
	ops := CounterVec("ops", []string{"op", "result"})
	duration := Histogram("op_duration_us", BucketOps)
	durationByOp := HistogramVec("op_duration_by_op_us", []string{"op"}, BucketOps)
	head := Gauge("head_seq")

	var total int64
	for i := range rand.N(50) + 2 {
		op := []string{"stake", "unstake"}[i%2]
		commits.Add(1)
		// looked up again by name, the same meter is returned
		CounterVec("ops", []string{"op", "result"}).AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
		duration.Observe(int64(i))
		durationByOp.ObserveWithLabels(int64(i), map[string]string{"op": op})
		head.Set(int64(i + 1))
		total += int64(i)
	}
	ops.AddWithLabel(1, map[string]string{"op": "stake", "result": "policy_violation"})

	families := gather(t)
	n := families["stakeledger_commits"].Metric[0].GetCounter().GetValue()
	require.Equal(t, float64(total), families["stakeledger_op_duration_us"].Metric[0].GetHistogram().GetSampleSum())
	require.Equal(t, n, families["stakeledger_head_seq"].Metric[0].GetGauge().GetValue())

	var ok, reverted float64
	for _, m := range families["stakeledger_ops"].Metric {
		for _, l := range m.GetLabel() {
			if l.GetName() == "result" && l.GetValue() == "ok" {
				ok += m.GetCounter().GetValue()
			} else if l.GetName() == "result" {
				reverted += m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, n, ok)
	require.Equal(t, float64(1), reverted)

	var sum float64
	for _, m := range families["stakeledger_op_duration_by_op_us"].Metric {
		sum += m.GetHistogram().GetSampleSum()
	}
	require.Equal(t, float64(total), sum)
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics() // make sure it starts in the default state of noopMeter

	for _, a := range []any{
		Gauge("noopGauge"),
		GaugeVec("noopGauge", nil),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, &noopMeters{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazyGaugeVec", nil)
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", nil)
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", nil, nil)

	// after initialization, newly created metrics become of the prometheus type
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}

func TestGaugeVecSet(t *testing.T) {
	InitializePrometheusMetrics()

	g := GaugeVec("queue_len", []string{"vault"})
	g.SetWithLabel(7, map[string]string{"vault": "a"})
	g.SetWithLabel(3, map[string]string{"vault": "a"})
	g.AddWithLabel(2, map[string]string{"vault": "a"})

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "stakeledger_queue_len" {
			require.Equal(t, float64(5), mf.Metric[0].GetGauge().GetValue())
			return
		}
	}
	t.Fatal("gauge not gathered")
}
