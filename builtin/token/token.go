// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token is the value-transfer primitive: balances plus transfer-and-call, which credits the recipient
// and then invokes its receiver handler in the same operation.
package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "token")

	slotBalances = nameToSlot("balances")
	slotSupply   = nameToSlot("supply")
)

func nameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}

// Receiver handles tokens credited to an address, e.g. a pool or a vault.
type Receiver interface {
	OnTokenTransfer(sender thor.Address, amount *big.Int, payload Payload) error
}

// ReceiverResolver returns the receiver bound to addr, nil for plain accounts.
type ReceiverResolver func(addr thor.Address) (Receiver, error)

// Token binder of the token component.
type Token struct {
	addr     thor.Address
	env      *xenv.Environment
	params   *params.Params
	balances *solidity.Mapping[thor.Address, *big.Int]
	supply   *solidity.Uint256
	resolve  ReceiverResolver
}

func New(addr thor.Address, env *xenv.Environment, params *params.Params) *Token {
	sctx := solidity.NewContext(addr, env.State())
	return &Token{
		addr:     addr,
		env:      env,
		params:   params,
		balances: solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		supply:   solidity.NewUint256(sctx, slotSupply),
	}
}

// SetResolver binds the receiver lookup.
func (t *Token) SetResolver(resolve ReceiverResolver) {
	t.resolve = resolve
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	return t.balances.Get(addr)
}

// TotalSupply returns the amount minted so far.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.supply.Get()
}

// Mint creates tokens for to. Executor only.
func (t *Token) Mint(caller, to thor.Address, amount *big.Int) error {
	if err := t.params.RequireExecutor(caller); err != nil {
		return err
	}
	if amount.Sign() <= 0 {
		return reverts.Invariant("mint amount must be positive")
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	if err := t.supply.Add(amount); err != nil {
		return err
	}
	t.env.Log("Transfer", t.addr, to, amount, map[string]string{"from": thor.Address{}.String()})
	logger.Info("minted", "to", to, "amount", amount)
	return nil
}

// Transfer moves tokens; a recipient with a receiver is notified with an empty payload.
func (t *Token) Transfer(from, to thor.Address, amount *big.Int) error {
	return t.TransferAndCall(from, to, amount, Payload{})
}

// TransferAndCall moves tokens, then invokes the recipient's receiver with payload.
// A non-empty payload sent to a plain account fails.
func (t *Token) TransferAndCall(from, to thor.Address, amount *big.Int, payload Payload) error {
	if amount.Sign() < 0 {
		return reverts.Invariant("negative transfer")
	}
	if err := t.debit(from, amount); err != nil {
		return err
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	t.env.Log("Transfer", t.addr, to, amount, map[string]string{"from": from.String()})

	var receiver Receiver
	if t.resolve != nil {
		var err error
		if receiver, err = t.resolve(to); err != nil {
			return err
		}
	}
	if receiver == nil {
		if payload.Action != ActionNone {
			return reverts.External("recipient %v can not handle %v", to, payload.Action)
		}
		return nil
	}
	if err := receiver.OnTokenTransfer(from, amount, payload); err != nil {
		return errors.WithMessagef(err, "transfer to %v", to)
	}
	return nil
}

func (t *Token) debit(addr thor.Address, amount *big.Int) error {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return reverts.External("insufficient balance of %v: has %v, needs %v", addr, bal, amount)
	}
	return t.balances.Set(addr, bal.Sub(bal, amount))
}

func (t *Token) credit(addr thor.Address, amount *big.Int) error {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return err
	}
	return t.balances.Set(addr, bal.Add(bal, amount))
}
