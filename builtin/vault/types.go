// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

type Vault struct {
	Owner        thor.Address
	OperatorsCut *big.Int // fraction of realized earnings, after the protocol fee
	TotalShares  *big.Int
	TotalStaked  *big.Int // sum of the stakes in pools
	PoolCount    uint64
	QueueSeq     uint64
	CreatedAt    uint64
}

// Exists returns whether the record was ever created.
func (v *Vault) Exists() bool {
	return !v.Owner.IsZero()
}

func (v *Vault) normalize() {
	for _, p := range []**big.Int{&v.OperatorsCut, &v.TotalShares, &v.TotalStaked} {
		if *p == nil {
			*p = new(big.Int)
		}
	}
}

// Stake is the vault's position in one pool, as the vault accounts it.
type Stake struct {
	Amount         *big.Int
	StakedAt       uint64
	LastWithdrawAt uint64
}

func (s *Stake) Exists() bool {
	return s.Amount != nil && s.Amount.Sign() > 0
}

// QueueEntry is an undelegation request waiting for free capital.
type QueueEntry struct {
	ID          thor.Bytes32 `rlp:"-"`
	Delegator   thor.Address
	Shares      *big.Int // still to be paid
	RequestedAt uint64
	Paid        *big.Int // tokens paid so far
}

// toAmount converts shares to tokens at value / totalShares, rounded down.
func toAmount(shares, value, totalShares *big.Int) *big.Int {
	if totalShares.Sign() == 0 {
		return new(big.Int)
	}
	v := new(big.Int).Mul(shares, value)
	return v.Quo(v, totalShares)
}

// toShares converts tokens to shares at totalShares / value, rounded down.
// An empty vault mints one share per token. Outstanding shares worth nothing price no deposit.
func toShares(amount, value, totalShares *big.Int) *big.Int {
	if totalShares.Sign() == 0 {
		return new(big.Int).Set(amount)
	}
	if value.Sign() == 0 {
		return new(big.Int)
	}
	v := new(big.Int).Mul(amount, totalShares)
	return v.Quo(v, value)
}
