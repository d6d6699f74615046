// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/thor"
)

// Init hands the executor capability to executor and writes the default params.
// It is a no-op once an executor is set.
func (l *Ledger) Init(executor thor.Address) (*Receipt, error) {
	return l.Execute(executor, "init", func(c *Components) error {
		current, err := c.Params.Executor()
		if err != nil || !current.IsZero() {
			return err
		}
		return c.Params.Init(executor)
	})
}

// SetParam sets a named param. Executor only.
func (l *Ledger) SetParam(caller thor.Address, name string, value *big.Int) (*Receipt, error) {
	key, ok := params.KeyByName(name)
	if !ok {
		return nil, reverts.Invariant("unknown param %q", name)
	}
	return l.Execute(caller, "set_param", func(c *Components) error {
		return c.Params.Govern(caller, key, value)
	})
}

func (l *Ledger) RegisterIdentity(caller thor.Address, id string) (*Receipt, error) {
	return l.Execute(caller, "register_identity", func(c *Components) error {
		return c.Registry.Register(caller, id)
	})
}

func (l *Ledger) ApprovePolicy(caller thor.Address, kind string, approved bool) (*Receipt, error) {
	return l.Execute(caller, "approve_policy", func(c *Components) error {
		return c.Registry.Approve(caller, kind, approved)
	})
}

func (l *Ledger) Mint(caller, to thor.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "mint", func(c *Components) error {
		return c.Token.Mint(caller, to, amount)
	})
}

func (l *Ledger) Transfer(caller, to thor.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "transfer", func(c *Components) error {
		return c.Token.Transfer(caller, to, amount)
	})
}

// CreatePool creates a reward pool for caller.
func (l *Ledger) CreatePool(caller thor.Address, spec *rewardpool.Spec) (addr thor.Address, r *Receipt, err error) {
	r, err = l.Execute(caller, "create_pool", func(c *Components) error {
		var err error
		addr, err = c.Pools.Create(caller, spec)
		return err
	})
	return addr, r, err
}

func (l *Ledger) FundPool(caller, pool thor.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "fund_pool", func(c *Components) error {
		return c.Token.TransferAndCall(caller, pool, amount, token.Payload{Action: token.ActionFund})
	})
}

// Stake deposits amount into pool as caller's stake. Vaults stake through StakeInto.
func (l *Ledger) Stake(caller, pool thor.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "stake", func(c *Components) error {
		return c.Token.TransferAndCall(caller, pool, amount, token.Payload{Action: token.ActionStake})
	})
}

func (l *Ledger) ReduceStake(caller, pool thor.Address, target *big.Int) (*Receipt, error) {
	return l.Execute(caller, "reduce_stake", func(c *Components) error {
		return c.Pools.ReduceStake(pool, caller, target)
	})
}

func (l *Ledger) Unstake(caller, pool thor.Address) (*Receipt, error) {
	return l.Execute(caller, "unstake", func(c *Components) error {
		_, _, err := c.Pools.Unstake(pool, caller)
		return err
	})
}

// ForceUnstake leaves pool even with locked stake, which stays reserved until released.
func (l *Ledger) ForceUnstake(caller, pool thor.Address, minOut *big.Int) (*Receipt, error) {
	return l.Execute(caller, "force_unstake", func(c *Components) error {
		_, _, err := c.Pools.ForceUnstake(pool, caller, minOut)
		return err
	})
}

func (l *Ledger) WithdrawEarnings(caller, pool thor.Address) (*Receipt, error) {
	return l.Execute(caller, "withdraw", func(c *Components) error {
		_, err := c.Pools.Withdraw(pool, caller)
		return err
	})
}

var builtinAddresses = []thor.Address{
	thor.ParamsAddress,
	thor.RegistryAddress,
	thor.TokenAddress,
	thor.PoolsAddress,
	thor.DisputeAddress,
	thor.VaultsAddress,
	thor.LedgerAddress,
}

// checkCaller rejects callers that only components may act for: built-ins, pools and vaults.
// Their balances and positions move through their own operations.
func checkCaller(c *Components, caller thor.Address) error {
	for _, addr := range builtinAddresses {
		if caller == addr {
			return reverts.Policy("built-in %v cannot be a caller", caller)
		}
	}
	if ok, err := c.Pools.IsPool(caller); err != nil {
		return err
	} else if ok {
		return reverts.Policy("pool %v cannot be a caller", caller)
	}
	if ok, err := c.Vaults.IsVault(caller); err != nil {
		return err
	} else if ok {
		return reverts.Policy("vault %v cannot be a caller", caller)
	}
	return nil
}

// authorize lets caller act as actor: itself, or a vault it operates.
func authorize(c *Components, caller, actor thor.Address) error {
	if caller == actor {
		return nil
	}
	v, err := c.Vaults.Vault(actor)
	if err != nil {
		return err
	}
	if !v.Exists() || v.Owner != caller {
		return reverts.Policy("%v cannot act for %v", caller, actor)
	}
	return nil
}

// Flag opens a vote on target in pool. flagger is caller or a vault operated by caller.
func (l *Ledger) Flag(caller, pool, target, flagger thor.Address, metadata string) (*Receipt, error) {
	return l.Execute(caller, "flag", func(c *Components) error {
		if err := authorize(c, caller, flagger); err != nil {
			return err
		}
		return c.Disputes.Flag(pool, target, flagger, metadata)
	})
}

// Vote casts the vote of reviewer, which is caller or a vault operated by caller.
func (l *Ledger) Vote(caller, pool, target, reviewer thor.Address, kick bool) (*Receipt, error) {
	return l.Execute(caller, "vote", func(c *Components) error {
		if err := authorize(c, caller, reviewer); err != nil {
			return err
		}
		return c.Disputes.Vote(pool, target, reviewer, kick)
	})
}

// ResolveFlag settles a flag whose voting period has ended. Anyone may call.
func (l *Ledger) ResolveFlag(caller, pool, target thor.Address) (*Receipt, error) {
	return l.Execute(caller, "resolve_flag", func(c *Components) error {
		return c.Disputes.Resolve(pool, target)
	})
}

func (l *Ledger) CreateVault(caller thor.Address, operatorsCut *big.Int) (addr thor.Address, r *Receipt, err error) {
	r, err = l.Execute(caller, "create_vault", func(c *Components) error {
		var err error
		addr, err = c.Vaults.Create(caller, operatorsCut)
		return err
	})
	return addr, r, err
}

func (l *Ledger) SetOperatorsCut(caller, vault thor.Address, cut *big.Int) (*Receipt, error) {
	return l.Execute(caller, "set_operators_cut", func(c *Components) error {
		return c.Vaults.SetOperatorsCut(vault, caller, cut)
	})
}

// Delegate moves amount from caller into vault; the shares go to beneficiary, or caller if zero.
func (l *Ledger) Delegate(caller, vault thor.Address, amount *big.Int, beneficiary thor.Address) (*Receipt, error) {
	return l.Execute(caller, "delegate", func(c *Components) error {
		return c.Token.TransferAndCall(caller, vault, amount, token.Payload{Action: token.ActionDelegate, Beneficiary: beneficiary})
	})
}

func (l *Ledger) Undelegate(caller, vault thor.Address, shares *big.Int) (*Receipt, error) {
	return l.Execute(caller, "undelegate", func(c *Components) error {
		return c.Vaults.Undelegate(vault, caller, shares)
	})
}

func (l *Ledger) TransferShares(caller, vault, to thor.Address, shares *big.Int) (*Receipt, error) {
	return l.Execute(caller, "transfer_shares", func(c *Components) error {
		return c.Vaults.TransferShares(vault, caller, to, shares)
	})
}

func (l *Ledger) StakeInto(caller, vault, pool thor.Address, amount *big.Int) (*Receipt, error) {
	return l.Execute(caller, "stake_into", func(c *Components) error {
		return c.Vaults.StakeInto(vault, caller, pool, amount)
	})
}

func (l *Ledger) ReduceStakeIn(caller, vault, pool thor.Address, target *big.Int) (*Receipt, error) {
	return l.Execute(caller, "reduce_stake_in", func(c *Components) error {
		return c.Vaults.ReduceStakeIn(vault, caller, pool, target)
	})
}

func (l *Ledger) UnstakeFrom(caller, vault, pool thor.Address) (*Receipt, error) {
	return l.Execute(caller, "unstake_from", func(c *Components) error {
		return c.Vaults.UnstakeFrom(vault, caller, pool)
	})
}

// ForceUnstakeFrom pulls the vault out of pool once its queue is overdue. Anyone may call.
func (l *Ledger) ForceUnstakeFrom(caller, vault, pool thor.Address, limit uint64) (*Receipt, error) {
	return l.Execute(caller, "force_unstake_from", func(c *Components) error {
		return c.Vaults.ForceUnstakeFrom(vault, caller, pool, limit)
	})
}

func (l *Ledger) WithdrawVaultEarnings(caller, vault thor.Address, pools []thor.Address) (*Receipt, error) {
	return l.Execute(caller, "withdraw_vault_earnings", func(c *Components) error {
		return c.Vaults.WithdrawEarnings(vault, caller, pools)
	})
}

// ForceWithdraw realizes stale vault earnings in pool. The caller earns the fisherman reward.
func (l *Ledger) ForceWithdraw(caller, vault, pool thor.Address, limit uint64) (*Receipt, error) {
	return l.Execute(caller, "force_withdraw", func(c *Components) error {
		return c.Vaults.ForceWithdraw(vault, caller, pool, limit)
	})
}

func (l *Ledger) PayOutQueue(caller, vault thor.Address, limit uint64) (paid uint64, r *Receipt, err error) {
	r, err = l.Execute(caller, "pay_out_queue", func(c *Components) error {
		var err error
		paid, err = c.Vaults.PayOutQueue(vault, limit)
		return err
	})
	return paid, r, err
}
