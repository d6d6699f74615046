// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/vechain/stakeledger/builtin/dispute"
	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/builtin/vault"
	"github.com/vechain/stakeledger/randomness"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Components are the built-in components bound to the environment of one operation.
type Components struct {
	Env      *xenv.Environment
	Params   *params.Params
	Registry *registry.Registry
	Token    *token.Token
	Pools    *rewardpool.Service
	Disputes *dispute.Service
	Vaults   *vault.Service
}

func bind(env *xenv.Environment, source randomness.Source) *Components {
	p := params.New(thor.ParamsAddress, env)
	reg := registry.New(thor.RegistryAddress, env, p)
	tok := token.New(thor.TokenAddress, env, p)
	pools := rewardpool.New(thor.PoolsAddress, env, p, reg, tok)
	vaults := vault.New(thor.VaultsAddress, env, p, tok, pools)

	pools.SetHooks(vaults)
	tok.SetResolver(func(addr thor.Address) (token.Receiver, error) {
		if r, err := pools.Receiver(addr); err != nil || r != nil {
			return r, err
		}
		return vaults.Receiver(addr)
	})

	return &Components{
		Env:      env,
		Params:   p,
		Registry: reg,
		Token:    tok,
		Pools:    pools,
		Disputes: dispute.New(thor.DisputeAddress, env, p, pools, source),
		Vaults:   vaults,
	}
}
