// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vaults

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/builtin/vault"
	"github.com/vechain/stakeledger/thor"
)

type Vault struct {
	Address      thor.Address          `json:"address"`
	Owner        thor.Address          `json:"owner"`
	OperatorsCut *math.HexOrDecimal256 `json:"operatorsCut"`
	TotalShares  *math.HexOrDecimal256 `json:"totalShares"`
	TotalStaked  *math.HexOrDecimal256 `json:"totalStaked"`
	FreeCapital  *math.HexOrDecimal256 `json:"freeCapital"`
	Value        *math.HexOrDecimal256 `json:"value"` // including unrealized earnings
	ExchangeRate *math.HexOrDecimal256 `json:"exchangeRate"`
	Pools        []thor.Address        `json:"pools"`
	QueueLength  uint64                `json:"queueLength"`
	CreatedAt    uint64                `json:"createdAt"`
}

type Stake struct {
	Pool           thor.Address          `json:"pool"`
	Amount         *math.HexOrDecimal256 `json:"amount"`
	StakedAt       uint64                `json:"stakedAt"`
	LastWithdrawAt uint64                `json:"lastWithdrawAt"`
}

func convertStake(pool thor.Address, s *vault.Stake) *Stake {
	amount := s.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	return &Stake{
		Pool:           pool,
		Amount:         (*math.HexOrDecimal256)(amount),
		StakedAt:       s.StakedAt,
		LastWithdrawAt: s.LastWithdrawAt,
	}
}

type QueueEntry struct {
	ID          thor.Bytes32          `json:"id"`
	Delegator   thor.Address          `json:"delegator"`
	Shares      *math.HexOrDecimal256 `json:"shares"`
	Paid        *math.HexOrDecimal256 `json:"paid"`
	RequestedAt uint64                `json:"requestedAt"`
}

func convertQueueEntry(e *vault.QueueEntry) *QueueEntry {
	return &QueueEntry{
		ID:          e.ID,
		Delegator:   e.Delegator,
		Shares:      (*math.HexOrDecimal256)(e.Shares),
		Paid:        (*math.HexOrDecimal256)(e.Paid),
		RequestedAt: e.RequestedAt,
	}
}

type Shares struct {
	Shares *math.HexOrDecimal256 `json:"shares"`
	Value  *math.HexOrDecimal256 `json:"value"`
}
