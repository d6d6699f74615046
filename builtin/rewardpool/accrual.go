// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import "math/big"

// advance brings the pool's allocation up to now. Returns true if the pool ran out
// of funding within the elapsed interval.
//
// While staked by at least MinStakeholders, the pool owes Rate per second, split
// pro rata by stake through the accumulator. What funding can not cover is recorded
// as forfeited instead.
func advance(p *Pool, now uint64) (becameInsolvent bool) {
	if now <= p.LastUpdate {
		return false
	}
	prev := p.LastUpdate
	elapsed := now - prev
	p.LastUpdate = now

	if p.TotalStake.Sign() == 0 || p.StakeholderCount < p.MinStakeholders {
		return false
	}

	due := new(big.Int).Mul(new(big.Int).SetUint64(elapsed), p.Rate)
	if p.Insolvent {
		forfeit(p, due)
		return false
	}

	if p.Funding.Cmp(due) >= 0 {
		p.Funding.Sub(p.Funding, due)
		allocate(p, due)
		return false
	}

	paid := p.Funding
	allocate(p, paid)
	covered := new(big.Int).Quo(paid, p.Rate).Uint64()
	forfeit(p, new(big.Int).Sub(due, paid))

	p.Funding = new(big.Int)
	p.Insolvent = true
	p.InsolventSince = prev + covered
	return true
}

func allocate(p *Pool, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	delta := new(big.Int).Mul(amount, Precision)
	delta.Quo(delta, p.TotalStake)
	p.Accumulator = new(big.Int).Add(p.Accumulator, delta)
}

func forfeit(p *Pool, amount *big.Int) {
	p.ForfeitedWei = new(big.Int).Add(p.ForfeitedWei, amount)
	delta := new(big.Int).Mul(amount, Precision)
	delta.Quo(delta, p.TotalStake)
	p.ForfeitedPerStake = new(big.Int).Add(p.ForfeitedPerStake, delta)
}
