// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "params")

	slotExecutor = thor.BytesToBytes32([]byte("executor"))
)

// Params binder of the configuration registry.
type Params struct {
	addr     thor.Address
	env      *xenv.Environment
	values   *solidity.Mapping[thor.Bytes32, *big.Int]
	executor *solidity.Address
}

func New(addr thor.Address, env *xenv.Environment) *Params {
	sctx := solidity.NewContext(addr, env.State())
	return &Params{
		addr:     addr,
		env:      env,
		values:   solidity.NewMapping[thor.Bytes32, *big.Int](sctx, thor.Bytes32{}),
		executor: solidity.NewAddress(sctx, slotExecutor),
	}
}

// Get native way to get param.
func (p *Params) Get(key thor.Bytes32) (*big.Int, error) {
	if key == thor.KeyExecutorAddress {
		executor, err := p.Executor()
		if err != nil {
			return nil, err
		}
		return new(big.Int).SetBytes(executor.Bytes()), nil
	}
	v, err := p.values.Get(key)
	if err != nil {
		return nil, errors.Wrapf(err, "get param %v", key)
	}
	return v, nil
}

// Set native way to set param, without permission check.
func (p *Params) Set(key thor.Bytes32, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return reverts.Invariant("param value must be non-negative")
	}
	if key == thor.KeyExecutorAddress {
		if value.BitLen() > 8*thor.AddressLength {
			return reverts.Invariant("executor %v is not an address", value)
		}
		executor := thor.BytesToAddress(value.Bytes())
		p.executor.Set(&executor)
		return nil
	}
	return p.values.Set(key, value)
}

// Executor returns the address holding the administrative capability.
func (p *Params) Executor() (thor.Address, error) {
	executor, err := p.executor.Get()
	if err != nil {
		return thor.Address{}, errors.Wrap(err, "get executor")
	}
	return executor, nil
}

// RequireExecutor fails with a policy violation unless caller is the executor.
func (p *Params) RequireExecutor(caller thor.Address) error {
	executor, err := p.Executor()
	if err != nil {
		return err
	}
	if executor.IsZero() || caller != executor {
		return reverts.Policy("caller %v is not the executor", caller)
	}
	return nil
}

// Govern sets a param on behalf of caller, which must be the executor.
func (p *Params) Govern(caller thor.Address, key thor.Bytes32, value *big.Int) error {
	if err := p.RequireExecutor(caller); err != nil {
		return err
	}
	if err := validate(key, value); err != nil {
		return err
	}
	logger.Debug("setting param", "key", string(trimKey(key)), "value", value)
	if err := p.Set(key, value); err != nil {
		return err
	}
	p.env.Log("ParamSet", p.addr, caller, value, map[string]string{"key": string(trimKey(key))})
	logger.Info("param set", "key", string(trimKey(key)), "value", value)
	return nil
}

// SetAddress stores an address valued param.
func (p *Params) SetAddress(key thor.Bytes32, addr thor.Address) error {
	return p.Set(key, new(big.Int).SetBytes(addr.Bytes()))
}

func validate(key thor.Bytes32, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return reverts.Invariant("param value must be non-negative")
	}
	switch key {
	case thor.KeySlashingFraction,
		thor.KeyProtocolFeeFraction,
		thor.KeyMinSelfDelegationFraction,
		thor.KeyFishermanRewardFraction:
		if !thor.IsFraction(value) {
			return reverts.Invariant("fraction out of range")
		}
	case thor.KeyReviewerCount:
		if value.Sign() == 0 {
			return reverts.Invariant("reviewer count must be positive")
		}
	}
	return nil
}

func trimKey(key thor.Bytes32) []byte {
	b := key.Bytes()
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}
