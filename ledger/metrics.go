// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	metricOps          = metrics.LazyLoadCounterVec("ledger_ops_count", []string{"op", "result"})
	metricOpDuration   = metrics.LazyLoadHistogramVec("ledger_op_duration_us", []string{"op"}, metrics.BucketOps)
	metricInsolvent    = metrics.LazyLoadGauge("pools_insolvent")
	metricFlags        = metrics.LazyLoadCounterVec("flags_resolved_count", []string{"verdict"})
	metricQueueLengths = metrics.LazyLoadGaugeVec("vault_queue_length", []string{"vault"})
)

// queueLengths reads the queue length of every vault whose queue the operation touched.
func queueLengths(c *Components) (map[thor.Address]uint64, error) {
	var lengths map[thor.Address]uint64
	for _, ev := range c.Env.Events() {
		if ev.Name != "QueueEntryCreated" && ev.Name != "QueueEntryPaid" {
			continue
		}
		if _, ok := lengths[ev.Address]; ok {
			continue
		}
		n, err := c.Vaults.QueueLength(ev.Address)
		if err != nil {
			return nil, err
		}
		if lengths == nil {
			lengths = make(map[thor.Address]uint64)
		}
		lengths[ev.Address] = n
	}
	return lengths, nil
}

func record(events []*xenv.Event, lengths map[thor.Address]uint64) {
	for _, ev := range events {
		switch ev.Name {
		case "InsolvencyStarted":
			metricInsolvent().Add(1)
		case "InsolvencyEnded":
			metricInsolvent().Add(-1)
		case "FlagResolved":
			metricFlags().AddWithLabel(1, map[string]string{"verdict": ev.Data["verdict"]})
		}
	}
	for addr, n := range lengths {
		metricQueueLengths().SetWithLabel(int64(n), map[string]string{"vault": addr.String()})
	}
}
