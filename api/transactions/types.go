// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Request submits one ledger operation on behalf of caller.
type Request struct {
	Caller thor.Address    `json:"caller"`
	Op     string          `json:"op"`
	Args   json.RawMessage `json:"args"`
}

// Args holds the arguments of every operation; each operation reads the fields it needs.
type Args struct {
	Name        string                `json:"name,omitempty"`
	ID          string                `json:"id,omitempty"`
	Kind        string                `json:"kind,omitempty"`
	Approved    bool                  `json:"approved,omitempty"`
	Metadata    string                `json:"metadata,omitempty"`
	Kick        bool                  `json:"kick,omitempty"`
	Limit       uint64                `json:"limit,omitempty"`
	Value       *math.HexOrDecimal256 `json:"value,omitempty"`
	Amount      *math.HexOrDecimal256 `json:"amount,omitempty"`
	TargetStake *math.HexOrDecimal256 `json:"targetStake,omitempty"`
	MinOut      *math.HexOrDecimal256 `json:"minOut,omitempty"`
	Shares      *math.HexOrDecimal256 `json:"shares,omitempty"`
	Cut         *math.HexOrDecimal256 `json:"cut,omitempty"`
	To          *thor.Address         `json:"to,omitempty"`
	Pool        *thor.Address         `json:"pool,omitempty"`
	Pools       []thor.Address        `json:"pools,omitempty"`
	Vault       *thor.Address         `json:"vault,omitempty"`
	Target      *thor.Address         `json:"target,omitempty"` // flagged stakeholder
	Flagger     *thor.Address         `json:"flagger,omitempty"`
	Reviewer    *thor.Address         `json:"reviewer,omitempty"`
	Beneficiary *thor.Address         `json:"beneficiary,omitempty"`
	PoolSpec    *PoolSpec             `json:"poolSpec,omitempty"`
}

type Policies struct {
	MaxStakeholders uint64 `json:"maxStakeholders"`
	VaultOnly       bool   `json:"vaultOnly"`
	PenaltyPeriod   uint64 `json:"penaltyPeriod"`
	VoteKick        bool   `json:"voteKick"`
}

type PoolSpec struct {
	ExternalID      string                `json:"externalId"`
	Rate            *math.HexOrDecimal256 `json:"rate"`
	MinStakeholders uint64                `json:"minStakeholders"`
	MinStake        *math.HexOrDecimal256 `json:"minStake"`
	Policies        Policies              `json:"policies"`
}

func requireAmount(v *math.HexOrDecimal256, name string) (*big.Int, error) {
	if v == nil {
		return nil, restutil.BadRequest(errors.Errorf("args.%s: required", name))
	}
	return (*big.Int)(v), nil
}

func requireAddress(v *thor.Address, name string) (thor.Address, error) {
	if v == nil {
		return thor.Address{}, restutil.BadRequest(errors.Errorf("args.%s: required", name))
	}
	return *v, nil
}

func orDefault(v *thor.Address, def thor.Address) thor.Address {
	if v == nil {
		return def
	}
	return *v
}

// Receipt is the outcome of a committed operation.
type Receipt struct {
	Seq     uint64        `json:"seq"`
	Time    uint64        `json:"time"`
	Events  []*xenv.Event `json:"events"`
	Created *thor.Address `json:"created,omitempty"` // pool or vault created by the operation
	Paid    *uint64       `json:"paid,omitempty"`    // queue entries fully paid
}

func convertReceipt(r *ledger.Receipt) *Receipt {
	events := r.Events
	if events == nil {
		events = []*xenv.Event{}
	}
	return &Receipt{Seq: r.Seq, Time: r.Time, Events: events}
}
