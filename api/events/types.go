// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/thor"
)

// maxTime is the largest time sqlite can bind.
const maxTime = 1<<63 - 1

type Range struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventFilter struct {
	Address   *thor.Address         `json:"address"`
	Subject   *thor.Address         `json:"subject"`
	Names     []string              `json:"names"`
	Range     *Range                `json:"range"`
	AfterSeq  uint64                `json:"afterSeq"`
	MinAmount *math.HexOrDecimal256 `json:"minAmount"`
	Order     eventdb.Order         `json:"order"`
	Options   *Options              `json:"options"`
}

func convertFilter(f *EventFilter) *eventdb.Filter {
	filter := &eventdb.Filter{
		Address:  f.Address,
		Subject:  f.Subject,
		Names:    f.Names,
		AfterSeq: f.AfterSeq,
		Order:    f.Order,
	}
	if f.Range != nil {
		r := &eventdb.Range{}
		if f.Range.From != nil {
			r.From = *f.Range.From
		}
		if f.Range.To != nil {
			r.To = *f.Range.To
		} else {
			r.To = maxTime
		}
		filter.Range = r
	}
	if f.MinAmount != nil {
		filter.MinAmount = (*big.Int)(f.MinAmount)
	}
	if f.Options != nil {
		filter.Options = &eventdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	return filter
}

type FilteredEvent struct {
	Seq     uint64                `json:"seq"`
	Index   uint32                `json:"index"`
	Name    string                `json:"name"`
	Address thor.Address          `json:"address"`
	Subject thor.Address          `json:"subject"`
	Amount  *math.HexOrDecimal256 `json:"amount,omitempty"`
	Time    uint64                `json:"time"`
	Data    map[string]string     `json:"data,omitempty"`
}

// ConvertEvent converts a stored event to its api form.
func ConvertEvent(ev *eventdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Seq:     ev.Seq,
		Index:   ev.Index,
		Name:    ev.Name,
		Address: ev.Address,
		Subject: ev.Subject,
		Amount:  (*math.HexOrDecimal256)(ev.Amount),
		Time:    ev.Time,
		Data:    ev.Data,
	}
}
