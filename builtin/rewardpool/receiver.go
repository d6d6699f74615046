// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/thor"
)

type receiver struct {
	svc  *Service
	addr thor.Address
}

// Receiver returns the token receiver of pool, nil if addr is not a pool.
func (s *Service) Receiver(addr thor.Address) (token.Receiver, error) {
	ok, err := s.IsPool(addr)
	if err != nil || !ok {
		return nil, err
	}
	return &receiver{svc: s, addr: addr}, nil
}

// OnTokenTransfer implements token.Receiver. Deposits either fund the pool or stake into it.
func (r *receiver) OnTokenTransfer(sender thor.Address, amount *big.Int, payload token.Payload) error {
	switch payload.Action {
	case token.ActionFund:
		return r.svc.Fund(r.addr, sender, amount)
	case token.ActionStake:
		if !payload.Beneficiary.IsZero() && payload.Beneficiary != sender {
			return reverts.External("stake must be owned by the sender")
		}
		return r.svc.Stake(r.addr, sender, amount)
	default:
		return reverts.External("pool %v does not accept %v transfers", r.addr, payload.Action)
	}
}
