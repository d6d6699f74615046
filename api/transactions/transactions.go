// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"bytes"
	"fmt"
	"math/big"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/thor"
)

type handler func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error)

// receipt adapts the plain ledger result.
func receipt(r *ledger.Receipt, err error) (*Receipt, error) {
	if err != nil {
		return nil, err
	}
	return convertReceipt(r), nil
}

var handlers = map[string]handler{
	"set_param": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		v, err := requireAmount(a.Value, "value")
		if err != nil {
			return nil, err
		}
		return receipt(l.SetParam(caller, a.Name, v))
	},
	"register_identity": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		return receipt(l.RegisterIdentity(caller, a.ID))
	},
	"approve_policy": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		return receipt(l.ApprovePolicy(caller, a.Kind, a.Approved))
	},
	"mint": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		to, err := requireAddress(a.To, "to")
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount(a.Amount, "amount")
		if err != nil {
			return nil, err
		}
		return receipt(l.Mint(caller, to, amount))
	},
	"transfer": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		to, err := requireAddress(a.To, "to")
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount(a.Amount, "amount")
		if err != nil {
			return nil, err
		}
		return receipt(l.Transfer(caller, to, amount))
	},

	"create_pool": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		if a.PoolSpec == nil {
			return nil, restutil.BadRequest(errors.New("args.poolSpec: required"))
		}
		rate, err := requireAmount(a.PoolSpec.Rate, "poolSpec.rate")
		if err != nil {
			return nil, err
		}
		minStake := new(big.Int)
		if a.PoolSpec.MinStake != nil {
			minStake = (*big.Int)(a.PoolSpec.MinStake)
		}
		addr, r, err := l.CreatePool(caller, &rewardpool.Spec{
			ExternalID:      a.PoolSpec.ExternalID,
			Rate:            rate,
			MinStakeholders: a.PoolSpec.MinStakeholders,
			MinStake:        minStake,
			Policies:        rewardpool.Policies(a.PoolSpec.Policies),
		})
		if err != nil {
			return nil, err
		}
		out := convertReceipt(r)
		out.Created = &addr
		return out, nil
	},
	"fund_pool": poolAmount((*ledger.Ledger).FundPool, "amount"),
	"stake":     poolAmount((*ledger.Ledger).Stake, "amount"),
	"reduce_stake": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		pool, err := requireAddress(a.Pool, "pool")
		if err != nil {
			return nil, err
		}
		target, err := requireAmount(a.TargetStake, "targetStake")
		if err != nil {
			return nil, err
		}
		return receipt(l.ReduceStake(caller, pool, target))
	},
	"unstake":  poolOnly((*ledger.Ledger).Unstake),
	"withdraw": poolOnly((*ledger.Ledger).WithdrawEarnings),
	"force_unstake": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		pool, err := requireAddress(a.Pool, "pool")
		if err != nil {
			return nil, err
		}
		minOut, err := requireAmount(a.MinOut, "minOut")
		if err != nil {
			return nil, err
		}
		return receipt(l.ForceUnstake(caller, pool, minOut))
	},

	"flag": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		pool, target, err := poolTarget(a)
		if err != nil {
			return nil, err
		}
		return receipt(l.Flag(caller, pool, target, orDefault(a.Flagger, caller), a.Metadata))
	},
	"vote": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		pool, target, err := poolTarget(a)
		if err != nil {
			return nil, err
		}
		return receipt(l.Vote(caller, pool, target, orDefault(a.Reviewer, caller), a.Kick))
	},
	"resolve_flag": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		pool, target, err := poolTarget(a)
		if err != nil {
			return nil, err
		}
		return receipt(l.ResolveFlag(caller, pool, target))
	},

	"create_vault": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		cut, err := requireAmount(a.Cut, "cut")
		if err != nil {
			return nil, err
		}
		addr, r, err := l.CreateVault(caller, cut)
		if err != nil {
			return nil, err
		}
		out := convertReceipt(r)
		out.Created = &addr
		return out, nil
	},
	"set_operators_cut": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, err := requireAddress(a.Vault, "vault")
		if err != nil {
			return nil, err
		}
		cut, err := requireAmount(a.Cut, "cut")
		if err != nil {
			return nil, err
		}
		return receipt(l.SetOperatorsCut(caller, vault, cut))
	},
	"delegate": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, err := requireAddress(a.Vault, "vault")
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount(a.Amount, "amount")
		if err != nil {
			return nil, err
		}
		return receipt(l.Delegate(caller, vault, amount, orDefault(a.Beneficiary, thor.Address{})))
	},
	"undelegate": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, err := requireAddress(a.Vault, "vault")
		if err != nil {
			return nil, err
		}
		shares, err := requireAmount(a.Shares, "shares")
		if err != nil {
			return nil, err
		}
		return receipt(l.Undelegate(caller, vault, shares))
	},
	"transfer_shares": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, err := requireAddress(a.Vault, "vault")
		if err != nil {
			return nil, err
		}
		to, err := requireAddress(a.To, "to")
		if err != nil {
			return nil, err
		}
		shares, err := requireAmount(a.Shares, "shares")
		if err != nil {
			return nil, err
		}
		return receipt(l.TransferShares(caller, vault, to, shares))
	},
	"stake_into": vaultPoolAmount((*ledger.Ledger).StakeInto, func(a *Args) (*big.Int, error) {
		return requireAmount(a.Amount, "amount")
	}),
	"reduce_stake_in": vaultPoolAmount((*ledger.Ledger).ReduceStakeIn, func(a *Args) (*big.Int, error) {
		return requireAmount(a.TargetStake, "targetStake")
	}),
	"unstake_from": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, pool, err := vaultPool(a)
		if err != nil {
			return nil, err
		}
		return receipt(l.UnstakeFrom(caller, vault, pool))
	},
	"force_unstake_from": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, pool, err := vaultPool(a)
		if err != nil {
			return nil, err
		}
		return receipt(l.ForceUnstakeFrom(caller, vault, pool, a.Limit))
	},
	"force_withdraw": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, pool, err := vaultPool(a)
		if err != nil {
			return nil, err
		}
		return receipt(l.ForceWithdraw(caller, vault, pool, a.Limit))
	},
	"withdraw_vault_earnings": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, err := requireAddress(a.Vault, "vault")
		if err != nil {
			return nil, err
		}
		return receipt(l.WithdrawVaultEarnings(caller, vault, a.Pools))
	},
	"pay_out_queue": func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, err := requireAddress(a.Vault, "vault")
		if err != nil {
			return nil, err
		}
		paid, r, err := l.PayOutQueue(caller, vault, a.Limit)
		if err != nil {
			return nil, err
		}
		out := convertReceipt(r)
		out.Paid = &paid
		return out, nil
	},
}

func poolAmount(op func(*ledger.Ledger, thor.Address, thor.Address, *big.Int) (*ledger.Receipt, error), field string) handler {
	return func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		pool, err := requireAddress(a.Pool, "pool")
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount(a.Amount, field)
		if err != nil {
			return nil, err
		}
		return receipt(op(l, caller, pool, amount))
	}
}

func poolOnly(op func(*ledger.Ledger, thor.Address, thor.Address) (*ledger.Receipt, error)) handler {
	return func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		pool, err := requireAddress(a.Pool, "pool")
		if err != nil {
			return nil, err
		}
		return receipt(op(l, caller, pool))
	}
}

func vaultPoolAmount(
	op func(*ledger.Ledger, thor.Address, thor.Address, thor.Address, *big.Int) (*ledger.Receipt, error),
	amount func(*Args) (*big.Int, error),
) handler {
	return func(l *ledger.Ledger, caller thor.Address, a *Args) (*Receipt, error) {
		vault, pool, err := vaultPool(a)
		if err != nil {
			return nil, err
		}
		v, err := amount(a)
		if err != nil {
			return nil, err
		}
		return receipt(op(l, caller, vault, pool, v))
	}
}

func poolTarget(a *Args) (pool, target thor.Address, err error) {
	if pool, err = requireAddress(a.Pool, "pool"); err != nil {
		return
	}
	target, err = requireAddress(a.Target, "target")
	return
}

func vaultPool(a *Args) (vault, pool thor.Address, err error) {
	if vault, err = requireAddress(a.Vault, "vault"); err != nil {
		return
	}
	pool, err = requireAddress(a.Pool, "pool")
	return
}

// Ops lists the operations accepted by the endpoint.
func Ops() []string {
	ops := make([]string, 0, len(handlers))
	for op := range handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

type Transactions struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Transactions {
	return &Transactions{ledger}
}

func (t *Transactions) handleSend(w http.ResponseWriter, req *http.Request) error {
	var request Request
	if err := restutil.ParseJSON(req.Body, &request); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	h, ok := handlers[request.Op]
	if !ok {
		return restutil.BadRequest(fmt.Errorf("op: unsupported %q", request.Op))
	}
	if request.Caller.IsZero() {
		return restutil.BadRequest(errors.New("caller: required"))
	}
	var args Args
	if len(request.Args) > 0 {
		if err := restutil.ParseJSON(bytes.NewReader(request.Args), &args); err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "args"))
		}
	}

	r, err := h(t.ledger, request.Caller, &args)
	if err != nil {
		return err
	}
	metricTransactionOp().AddWithLabel(1, map[string]string{"op": request.Op})
	return restutil.WriteJSON(w, r)
}

func (t *Transactions) handleOps(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, Ops())
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodPost).HandlerFunc(restutil.WrapHandlerFunc(t.handleSend))
	sub.Path("/ops").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(t.handleOps))
}
