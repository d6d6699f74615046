// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// Precision is the fixed point scale of the accumulator, per unit of stake.
var Precision = big.NewInt(1e18)

// Policy kinds, each must be approved in the registry before a pool may use it.
const (
	PolicyStakeWeighted   = "allocation/stake-weighted"
	PolicyDefaultLeave    = "leave/default"
	PolicyMaxStakeholders = "join/max-stakeholders"
	PolicyVaultOnly       = "join/vault-only"
	PolicyVoteKick        = "kick/vote-kick"
)

// Policies is the closed set of policy variants a pool is created with.
type Policies struct {
	MaxStakeholders uint64 // 0 disables the join cap
	VaultOnly       bool
	PenaltyPeriod   uint64 // leave penalty horizon in seconds, 0 disables the penalty
	VoteKick        bool
}

// Kinds lists the policy kinds in use.
func (p Policies) Kinds() []string {
	kinds := []string{PolicyStakeWeighted, PolicyDefaultLeave}
	if p.MaxStakeholders > 0 {
		kinds = append(kinds, PolicyMaxStakeholders)
	}
	if p.VaultOnly {
		kinds = append(kinds, PolicyVaultOnly)
	}
	if p.VoteKick {
		kinds = append(kinds, PolicyVoteKick)
	}
	return kinds
}

// Spec describes a pool to create.
type Spec struct {
	ExternalID      string
	Rate            *big.Int // tokens per second
	MinStakeholders uint64
	MinStake        *big.Int
	Policies        Policies
}

type Pool struct {
	ExternalID      string
	Creator         thor.Address
	Rate            *big.Int
	MinStakeholders uint64
	MinStake        *big.Int
	Policies        Policies
	CreatedAt       uint64

	Funding          *big.Int // remaining, not yet allocated
	TotalStake       *big.Int // total weight
	StakeholderCount uint64
	Accumulator      *big.Int // cumulative earnings per unit of stake, scaled by Precision
	LastUpdate       uint64

	Insolvent         bool
	InsolventSince    uint64
	ForfeitedWei      *big.Int // allocation missed during the current insolvency
	ForfeitedPerStake *big.Int

	Reserved       *big.Int // at-risk stake of departed stakeholders, held for open flags
	TotalSponsored *big.Int
}

// Exists returns whether the record was ever created.
func (p *Pool) Exists() bool {
	return p.ExternalID != ""
}

// Running returns whether the pool allocates earnings.
func (p *Pool) Running() bool {
	return p.Funding.Sign() > 0 && p.StakeholderCount >= p.MinStakeholders && p.TotalStake.Sign() > 0
}

// Floor returns the effective minimum stake.
func (p *Pool) Floor(globalMin *big.Int) *big.Int {
	if p.MinStake.Cmp(globalMin) > 0 {
		return new(big.Int).Set(p.MinStake)
	}
	return new(big.Int).Set(globalMin)
}

func (p *Pool) normalize() {
	for _, v := range []**big.Int{
		&p.Rate, &p.MinStake, &p.Funding, &p.TotalStake, &p.Accumulator,
		&p.ForfeitedWei, &p.ForfeitedPerStake, &p.Reserved, &p.TotalSponsored,
	} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
}

// Clone returns a deep copy.
func (p *Pool) Clone() *Pool {
	cpy := *p
	for _, v := range []**big.Int{
		&cpy.Rate, &cpy.MinStake, &cpy.Funding, &cpy.TotalStake, &cpy.Accumulator,
		&cpy.ForfeitedWei, &cpy.ForfeitedPerStake, &cpy.Reserved, &cpy.TotalSponsored,
	} {
		if *v != nil {
			*v = new(big.Int).Set(*v)
		}
	}
	return &cpy
}

type Position struct {
	Stake      *big.Int
	JoinedAt   uint64
	Checkpoint *big.Int // accumulator value when earnings were last settled
	Earnings   *big.Int // settled, not yet withdrawn
	Locked     *big.Int // at risk in open flags
}

// Exists returns whether the position holds stake.
func (p *Position) Exists() bool {
	return p.Stake != nil && p.Stake.Sign() > 0
}

// Unlocked returns the stake not at risk.
func (p *Position) Unlocked() *big.Int {
	return new(big.Int).Sub(p.Stake, p.Locked)
}

func (p *Position) normalize() {
	for _, v := range []**big.Int{&p.Stake, &p.Checkpoint, &p.Earnings, &p.Locked} {
		if *v == nil {
			*v = new(big.Int)
		}
	}
}

// pending returns settled plus unsettled earnings at the pool's accumulator.
func (p *Position) pending(acc *big.Int) *big.Int {
	delta := new(big.Int).Sub(acc, p.Checkpoint)
	delta.Mul(delta, p.Stake)
	delta.Quo(delta, Precision)
	return delta.Add(delta, p.Earnings)
}

// settle moves unsettled earnings into Earnings.
func (p *Position) settle(acc *big.Int) {
	p.Earnings = p.pending(acc)
	p.Checkpoint = new(big.Int).Set(acc)
}
