// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Event is a stored ledger event.
type Event struct {
	Seq     uint64            `json:"seq"`   // operation sequence number
	Index   uint32            `json:"index"` // position within the operation
	Name    string            `json:"name"`
	Address thor.Address      `json:"address"`
	Subject thor.Address      `json:"subject"`
	Amount  *big.Int          `json:"amount,omitempty"`
	Time    uint64            `json:"time"`
	Data    map[string]string `json:"data,omitempty"`
}

func newEvent(seq uint64, index uint32, ev *xenv.Event) *Event {
	return &Event{
		Seq:     seq,
		Index:   index,
		Name:    ev.Name,
		Address: ev.Address,
		Subject: ev.Subject,
		Amount:  ev.Amount,
		Time:    ev.Time,
		Data:    ev.Data,
	}
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range is an inclusive time range. To below From means unbounded.
type Range struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// Filter selects events. Empty fields match everything.
type Filter struct {
	Address   *thor.Address `json:"address"`
	Subject   *thor.Address `json:"subject"`
	Names     []string      `json:"names"`
	Range     *Range        `json:"range"`
	AfterSeq  uint64        `json:"afterSeq"` // only events of later operations
	UntilSeq  uint64        `json:"untilSeq"` // inclusive, 0 means no bound
	MinAmount *big.Int      `json:"minAmount"`
	Order     Order         `json:"order"` // default asc
	Options   *Options      `json:"options"`
}
