// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/thor"
)

// StakeInto stakes free capital into a pool. Operator only, refused while undelegations are queued.
func (s *Service) StakeInto(addr, caller, pool thor.Address, amount *big.Int) error {
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	if err := s.requireOwner(v, caller); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return reverts.Invariant("stake amount must be positive")
	}
	trusted, err := s.pools.IsPool(pool)
	if err != nil {
		return err
	}
	if !trusted {
		return reverts.External("pool %v is not trusted", pool)
	}
	queued, err := s.QueueLength(addr)
	if err != nil {
		return err
	}
	if queued > 0 {
		return reverts.Conflict("%d undelegations are queued", queued)
	}
	free, err := s.token.BalanceOf(addr)
	if err != nil {
		return err
	}
	if free.Cmp(amount) < 0 {
		return reverts.Invariant("insufficient free capital: has %v, needs %v", free, amount)
	}

	logger.Debug("staking into pool", "vault", addr, "pool", pool, "amount", amount)
	if err := s.token.TransferAndCall(addr, pool, amount, token.Payload{Action: token.ActionStake}); err != nil {
		return err
	}

	st, err := s.storage.getStake(addr, pool)
	if err != nil {
		return err
	}
	if !st.Exists() {
		st.StakedAt = s.env.Time()
		st.LastWithdrawAt = s.env.Time()
		v.PoolCount++
		if err := s.storage.pools(addr).Add(pool); err != nil {
			return err
		}
	}
	st.Amount = new(big.Int).Add(st.Amount, amount)
	v.TotalStaked = new(big.Int).Add(v.TotalStaked, amount)
	if err := s.storage.setStake(addr, pool, st); err != nil {
		return err
	}
	if err := s.storage.setVault(addr, v); err != nil {
		return err
	}
	logger.Info("staked into pool", "vault", addr, "pool", pool, "stake", st.Amount)
	return nil
}

// ReduceStakeIn lowers the stake in pool to target. Operator only.
func (s *Service) ReduceStakeIn(addr, caller, pool thor.Address, target *big.Int) error {
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	if err := s.requireOwner(v, caller); err != nil {
		return err
	}
	if target.Sign() == 0 {
		return s.UnstakeFrom(addr, caller, pool)
	}
	st, err := s.mustStake(addr, pool)
	if err != nil {
		return err
	}
	if err := s.pools.ReduceStake(pool, addr, target); err != nil {
		return err
	}
	diff := new(big.Int).Sub(st.Amount, target)
	st.Amount = new(big.Int).Set(target)
	v.TotalStaked = new(big.Int).Sub(v.TotalStaked, diff)
	if err := s.storage.setStake(addr, pool, st); err != nil {
		return err
	}
	if err := s.storage.setVault(addr, v); err != nil {
		return err
	}
	_, err = s.drain(addr, 0)
	return err
}

// UnstakeFrom exits pool, realizing its earnings. Operator only.
func (s *Service) UnstakeFrom(addr, caller, pool thor.Address) error {
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	if err := s.requireOwner(v, caller); err != nil {
		return err
	}
	if _, err := s.mustStake(addr, pool); err != nil {
		return err
	}
	_, earnings, err := s.pools.Unstake(pool, addr)
	if err != nil {
		return err
	}
	if err := s.closeStake(addr, pool); err != nil {
		return err
	}
	if err := s.realize(addr, pool, earnings, caller); err != nil {
		return err
	}
	_, err = s.drain(addr, 0)
	return err
}

// ForceUnstakeFrom lets anyone exit pool once the oldest queued undelegation waited longer than
// the maximum queue period. The caller earns the fisherman reward; limit caps the entries paid.
func (s *Service) ForceUnstakeFrom(addr, caller, pool thor.Address, limit uint64) error {
	if _, err := s.mustVault(addr); err != nil {
		return err
	}
	if _, err := s.mustStake(addr, pool); err != nil {
		return err
	}
	head, err := s.storage.queue(addr).Head()
	if err != nil {
		return err
	}
	if head.IsZero() {
		return reverts.Conflict("no undelegation is queued")
	}
	entry, err := s.storage.getEntry(head)
	if err != nil {
		return err
	}
	period, err := s.params.Get(thor.KeyMaxQueuePeriod)
	if err != nil {
		return err
	}
	if due := entry.RequestedAt + period.Uint64(); s.env.Time() < due {
		return reverts.Conflict("queue is not overdue until %d", due)
	}

	logger.Debug("forcing unstake", "vault", addr, "pool", pool, "caller", caller)
	_, earnings, err := s.pools.ForceUnstake(pool, addr, new(big.Int))
	if err != nil {
		return err
	}
	if err := s.closeStake(addr, pool); err != nil {
		return err
	}
	if err := s.realize(addr, pool, earnings, caller); err != nil {
		return err
	}
	_, err = s.drain(addr, limit)
	return err
}

// closeStake forgets the stake in pool; whatever was not paid back is lost value.
func (s *Service) closeStake(addr, pool thor.Address) error {
	v, err := s.storage.getVault(addr)
	if err != nil {
		return err
	}
	st, err := s.storage.getStake(addr, pool)
	if err != nil {
		return err
	}
	v.TotalStaked = new(big.Int).Sub(v.TotalStaked, st.Amount)
	v.PoolCount--
	s.storage.stakes.Delete(pairKey(addr, pool))
	if err := s.storage.pools(addr).Remove(pool); err != nil {
		return err
	}
	return s.storage.setVault(addr, v)
}

func (s *Service) mustStake(addr, pool thor.Address) (*Stake, error) {
	st, err := s.storage.getStake(addr, pool)
	if err != nil {
		return nil, err
	}
	if !st.Exists() {
		return nil, reverts.Conflict("vault %v is not staked in %v", addr, pool)
	}
	return st, nil
}
