// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

// WithdrawEarnings pulls and realizes the earnings of each pool, then pays the queue.
// Operator only. Any failing pool fails the whole call.
func (s *Service) WithdrawEarnings(addr, caller thor.Address, pools []thor.Address) error {
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	if err := s.requireOwner(v, caller); err != nil {
		return err
	}
	if len(pools) == 0 {
		return reverts.Invariant("no pools given")
	}
	for _, pool := range pools {
		if err := s.withdrawFrom(addr, pool, caller); err != nil {
			return err
		}
	}
	_, err = s.drain(addr, 0)
	return err
}

// ForceWithdraw lets anyone realize the earnings of pool once the operator has not done so
// for the staleness period. The caller earns the fisherman reward; limit caps the entries paid.
func (s *Service) ForceWithdraw(addr, caller, pool thor.Address, limit uint64) error {
	if _, err := s.mustVault(addr); err != nil {
		return err
	}
	st, err := s.mustStake(addr, pool)
	if err != nil {
		return err
	}
	period, err := s.params.Get(thor.KeyEarningsStalenessPeriod)
	if err != nil {
		return err
	}
	if due := st.LastWithdrawAt + period.Uint64(); s.env.Time() < due {
		return reverts.Conflict("earnings are not stale until %d", due)
	}
	if err := s.withdrawFrom(addr, pool, caller); err != nil {
		return err
	}
	_, err = s.drain(addr, limit)
	return err
}

func (s *Service) withdrawFrom(addr, pool, caller thor.Address) error {
	st, err := s.mustStake(addr, pool)
	if err != nil {
		return err
	}
	earnings, err := s.pools.Withdraw(pool, addr)
	if err != nil {
		return err
	}
	st.LastWithdrawAt = s.env.Time()
	if err := s.storage.setStake(addr, pool, st); err != nil {
		return err
	}
	return s.realize(addr, pool, earnings, caller)
}

// realize distributes earnings already credited to the vault: the protocol fee goes to its
// beneficiary, the operator's cut is minted as shares for the owner after paying the fisherman
// reward to a caller other than the owner, the rest raises the value of every share.
func (s *Service) realize(addr, pool thor.Address, earnings *big.Int, caller thor.Address) error {
	if earnings.Sign() == 0 {
		return nil
	}
	v, err := s.storage.getVault(addr)
	if err != nil {
		return err
	}
	cfg, err := s.params.Config()
	if err != nil {
		return err
	}

	fee := thor.MulFraction(earnings, cfg.ProtocolFeeFraction)
	if fee.Sign() > 0 {
		if err := s.token.Transfer(addr, cfg.ProtocolFeeBeneficiary, fee); err != nil {
			return err
		}
	}
	cut := thor.MulFraction(new(big.Int).Sub(earnings, fee), v.OperatorsCut)

	reward := new(big.Int)
	if caller != v.Owner {
		reward = thor.MulFraction(cut, cfg.FishermanRewardFraction)
		if reward.Sign() > 0 {
			if err := s.token.Transfer(addr, caller, reward); err != nil {
				return err
			}
		}
		cut.Sub(cut, reward)
	}

	minted := new(big.Int)
	if cut.Sign() > 0 {
		value, err := s.valueOf(addr, v)
		if err != nil {
			return err
		}
		// the cut is part of the value already, price the new shares without it
		if value.Sub(value, cut); value.Sign() == 0 && v.TotalShares.Sign() > 0 {
			return reverts.Conflict("vault %v shares are worth nothing", addr)
		}
		minted = toShares(cut, value, v.TotalShares)
		own, err := s.storage.getShares(addr, v.Owner)
		if err != nil {
			return err
		}
		if err := s.storage.setShares(addr, v.Owner, own.Add(own, minted)); err != nil {
			return err
		}
		v.TotalShares = new(big.Int).Add(v.TotalShares, minted)
		if err := s.storage.setVault(addr, v); err != nil {
			return err
		}
	}

	s.env.Log("EarningsRealized", addr, pool, earnings, map[string]string{
		"protocolFee":     fee.String(),
		"operatorsCut":    cut.String(),
		"fishermanReward": reward.String(),
		"ownerShares":     minted.String(),
	})
	logger.Info("earnings realized", "vault", addr, "pool", pool, "earnings", earnings, "fee", fee, "cut", cut)
	return nil
}
