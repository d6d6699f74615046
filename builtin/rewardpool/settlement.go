// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Lock marks amount of the stake of who as at risk.
func (s *Service) Lock(addr, who thor.Address, amount *big.Int) error {
	pos, err := s.mustPosition(addr, who)
	if err != nil {
		return err
	}
	if unlocked := pos.Unlocked(); unlocked.Cmp(amount) < 0 {
		return reverts.Invariant("insufficient unlocked stake: has %v, needs %v", unlocked, amount)
	}
	pos.Locked = new(big.Int).Add(pos.Locked, amount)
	return s.storage.setPosition(addr, who, pos)
}

// Unlock releases amount previously locked for who. Stake already reserved because
// who left the pool is paid back instead.
func (s *Service) Unlock(addr, who thor.Address, amount *big.Int) error {
	p, err := s.storage.getPool(addr)
	if err != nil {
		return err
	}
	fromReserve, rest, err := s.takeReserved(addr, p, who, amount)
	if err != nil {
		return err
	}
	if rest.Sign() > 0 {
		pos, err := s.mustPosition(addr, who)
		if err != nil {
			return err
		}
		if pos.Locked.Cmp(rest) < 0 {
			return reverts.Invariant("unlock of %v exceeds locked %v", rest, pos.Locked)
		}
		pos.Locked = new(big.Int).Sub(pos.Locked, rest)
		if err := s.storage.setPosition(addr, who, pos); err != nil {
			return err
		}
	}
	if err := s.storage.setPool(addr, p); err != nil {
		return err
	}
	if fromReserve.Sign() > 0 {
		return s.token.Transfer(addr, who, fromReserve)
	}
	return nil
}

// takeReserved consumes up to amount from the reserve of who and returns the remainder.
func (s *Service) takeReserved(addr thor.Address, p *Pool, who thor.Address, amount *big.Int) (taken, rest *big.Int, err error) {
	reserved, err := s.storage.getReserved(addr, who)
	if err != nil {
		return nil, nil, err
	}
	taken = new(big.Int).Set(amount)
	if taken.Cmp(reserved) > 0 {
		taken.Set(reserved)
	}
	if taken.Sign() > 0 {
		if err := s.storage.setReserved(addr, who, reserved.Sub(reserved, taken)); err != nil {
			return nil, nil, err
		}
		p.Reserved = new(big.Int).Sub(p.Reserved, taken)
	}
	return taken, new(big.Int).Sub(amount, taken), nil
}

// Slash takes amount of locked stake from who. The slashed tokens stay in the pool's
// balance for the caller to distribute with Payout and AddFunding.
func (s *Service) Slash(addr, who thor.Address, amount *big.Int) error {
	p, err := s.load(addr)
	if err != nil {
		return err
	}
	if err := s.slash(addr, p, who, amount); err != nil {
		return err
	}
	member, err := s.storage.members(addr).Contains(who)
	if err != nil {
		return err
	}
	if member {
		pos, err := s.storage.getPosition(addr, who)
		if err != nil {
			return err
		}
		if pos.Stake.Sign() == 0 {
			// nothing left at stake
			return s.evict(addr, p, who, pos, "StakeholderLeft")
		}
	}
	return s.storage.setPool(addr, p)
}

func (s *Service) slash(addr thor.Address, p *Pool, who thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	_, rest, err := s.takeReserved(addr, p, who, amount)
	if err != nil {
		return err
	}
	if rest.Sign() == 0 {
		s.env.Log("StakeSlashed", addr, who, amount, nil)
		return nil
	}

	pos, err := s.storage.getPosition(addr, who)
	if err != nil {
		return err
	}
	if pos.Locked.Cmp(rest) < 0 {
		return reverts.Invariant("slash of %v exceeds locked %v", rest, pos.Locked)
	}
	pos.settle(p.Accumulator)
	pos.Locked = new(big.Int).Sub(pos.Locked, rest)
	pos.Stake = new(big.Int).Sub(pos.Stake, rest)
	p.TotalStake = new(big.Int).Sub(p.TotalStake, rest)
	if err := s.storage.setPosition(addr, who, pos); err != nil {
		return err
	}

	s.env.Log("StakeSlashed", addr, who, amount, map[string]string{"stake": pos.Stake.String()})
	logger.Info("stake slashed", "pool", addr, "who", who, "amount", amount)
	if s.hooks != nil {
		return s.hooks.OnSlash(addr, who, rest)
	}
	return nil
}

// Kick slashes amount from who and evicts it, paying back the unlocked stake and earnings.
// If who already left, only its reserve is slashed.
func (s *Service) Kick(addr, who thor.Address, slash *big.Int) error {
	p, err := s.load(addr)
	if err != nil {
		return err
	}
	if err := s.slash(addr, p, who, slash); err != nil {
		return err
	}
	member, err := s.storage.members(addr).Contains(who)
	if err != nil {
		return err
	}
	if !member {
		return s.storage.setPool(addr, p)
	}
	pos, err := s.storage.getPosition(addr, who)
	if err != nil {
		return err
	}
	return s.evict(addr, p, who, pos, "StakeholderKicked")
}

func (s *Service) evict(addr thor.Address, p *Pool, who thor.Address, pos *Position, event string) error {
	pos.settle(p.Accumulator)
	stake := pos.Unlocked()
	payout := new(big.Int).Add(stake, pos.Earnings)

	if err := s.removePosition(addr, p, who, pos); err != nil {
		return err
	}
	if err := s.storage.setPool(addr, p); err != nil {
		return err
	}
	if payout.Sign() > 0 {
		if err := s.token.Transfer(addr, who, payout); err != nil {
			return err
		}
	}
	s.env.Log(event, addr, who, payout, map[string]string{
		"stake":    stake.String(),
		"earnings": pos.Earnings.String(),
		"reserved": pos.Locked.String(),
	})
	logger.Info("stakeholder evicted", "pool", addr, "who", who, "stake", stake, "earnings", pos.Earnings)
	if s.hooks != nil {
		return s.hooks.OnKick(addr, who, stake, pos.Earnings)
	}
	return nil
}

// Payout transfers amount held by the pool outside of funding and positions, e.g. slashed stake.
func (s *Service) Payout(addr, to thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return s.token.Transfer(addr, to, amount)
}

// AddFunding turns amount held by the pool into funding.
func (s *Service) AddFunding(addr, from thor.Address, amount *big.Int) error {
	p, err := s.load(addr)
	if err != nil {
		return err
	}
	s.addFunding(addr, p, from, amount)
	return s.storage.setPool(addr, p)
}
