// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/thor"
)

var (
	_ rewardpool.Hooks = (*Service)(nil)
	_ token.Receiver   = (*receiver)(nil)
)

// OnSlash implements rewardpool.Hooks, writing the slashed stake off the vault's value.
func (s *Service) OnSlash(pool, who thor.Address, amount *big.Int) error {
	v, err := s.storage.getVault(who)
	if err != nil || !v.Exists() {
		return err
	}
	st, err := s.storage.getStake(who, pool)
	if err != nil {
		return err
	}
	if amount.Cmp(st.Amount) > 0 {
		amount = st.Amount
	}
	st.Amount = new(big.Int).Sub(st.Amount, amount)
	v.TotalStaked = new(big.Int).Sub(v.TotalStaked, amount)
	if err := s.storage.setStake(who, pool, st); err != nil {
		return err
	}
	logger.Warn("vault stake slashed", "vault", who, "pool", pool, "amount", amount)
	return s.storage.setVault(who, v)
}

// OnKick implements rewardpool.Hooks. The pool already paid back stake and earnings.
func (s *Service) OnKick(pool, who thor.Address, _, earnings *big.Int) error {
	v, err := s.storage.getVault(who)
	if err != nil || !v.Exists() {
		return err
	}
	if err := s.closeStake(who, pool); err != nil {
		return err
	}
	logger.Warn("vault kicked from pool", "vault", who, "pool", pool)
	if err := s.realize(who, pool, earnings, v.Owner); err != nil {
		return err
	}
	_, err = s.drain(who, 0)
	return err
}

type receiver struct {
	svc  *Service
	addr thor.Address
}

// Receiver returns the token receiver of a vault, nil if addr is not a vault.
func (s *Service) Receiver(addr thor.Address) (token.Receiver, error) {
	ok, err := s.IsVault(addr)
	if err != nil || !ok {
		return nil, err
	}
	return &receiver{svc: s, addr: addr}, nil
}

// OnTokenTransfer implements token.Receiver. Plain transfers add free capital,
// delegations mint shares for the sender or the payload beneficiary.
func (r *receiver) OnTokenTransfer(sender thor.Address, amount *big.Int, payload token.Payload) error {
	switch payload.Action {
	case token.ActionNone:
		return nil
	case token.ActionDelegate:
		who := sender
		if !payload.Beneficiary.IsZero() {
			who = payload.Beneficiary
		}
		return r.svc.Delegate(r.addr, who, amount)
	default:
		return reverts.External("vault %v does not accept %v transfers", r.addr, payload.Action)
	}
}
