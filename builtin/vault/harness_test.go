// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/test/testenv"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	owner   = thor.BytesToAddress([]byte("owner"))
	dan     = thor.BytesToAddress([]byte("dan"))
	erin    = thor.BytesToAddress([]byte("erin"))
	fisher  = thor.BytesToAddress([]byte("fisher"))
	sponsor = thor.BytesToAddress([]byte("sponsor"))
)

const initialBalance = 1_000_000

type harness struct {
	t     *testing.T
	e     *testenv.Env
	env   *xenv.Environment
	last  *xenv.Environment // env of the latest do
	tok   *token.Token
	pools *rewardpool.Service
	svc   *Service
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, e: testenv.New(t)}
	h.e.SetParam(thor.KeyMinStake, 1)
	h.e.SetParam(thor.KeyMinDelegation, 10)
	h.e.SetParam(thor.KeyProtocolFeeFraction, 0)

	h.bind()
	reg := registry.New(thor.RegistryAddress, h.env, params.New(thor.ParamsAddress, h.env))
	require.NoError(t, reg.Register(testenv.Executor, "stream"))
	for _, kind := range (rewardpool.Policies{VaultOnly: true, VoteKick: true}).Kinds() {
		require.NoError(t, reg.Approve(testenv.Executor, kind, true))
	}
	for _, acc := range []thor.Address{owner, dan, erin, fisher, sponsor} {
		require.NoError(t, h.tok.Mint(testenv.Executor, acc, big.NewInt(initialBalance)))
	}
	return h
}

func (h *harness) bind() *Service {
	h.env = h.e.At(thor.Address{})
	p := params.New(thor.ParamsAddress, h.env)
	h.tok = token.New(thor.TokenAddress, h.env, p)
	h.pools = rewardpool.New(thor.PoolsAddress, h.env, p, registry.New(thor.RegistryAddress, h.env, p), h.tok)
	h.svc = New(thor.VaultsAddress, h.env, p, h.tok, h.pools)
	h.pools.SetHooks(h.svc)
	h.tok.SetResolver(func(addr thor.Address) (token.Receiver, error) {
		if r, err := h.pools.Receiver(addr); err != nil || r != nil {
			return r, err
		}
		return h.svc.Receiver(addr)
	})
	return h.svc
}

func (h *harness) do(fn func(svc *Service) error) error {
	svc := h.bind()
	h.last = h.env
	return h.env.Call(func(*xenv.Environment) error { return fn(svc) })
}

func (h *harness) createVault(cut int64) thor.Address {
	var addr thor.Address
	require.NoError(h.t, h.do(func(svc *Service) error {
		var err error
		addr, err = svc.Create(owner, big.NewInt(cut))
		return err
	}))
	return addr
}

func (h *harness) createPool(funding int64, policies rewardpool.Policies) thor.Address {
	var addr thor.Address
	require.NoError(h.t, h.do(func(*Service) error {
		var err error
		addr, err = h.pools.Create(sponsor, &rewardpool.Spec{ExternalID: "stream", Rate: big.NewInt(1), Policies: policies})
		if err != nil || funding == 0 {
			return err
		}
		return h.tok.TransferAndCall(sponsor, addr, big.NewInt(funding), token.Payload{Action: token.ActionFund})
	}))
	return addr
}

func (h *harness) delegate(vault, who thor.Address, amount int64) error {
	return h.do(func(*Service) error {
		return h.tok.TransferAndCall(who, vault, big.NewInt(amount), token.Payload{Action: token.ActionDelegate})
	})
}

func (h *harness) undelegate(vault, who thor.Address, shares int64) error {
	return h.do(func(svc *Service) error { return svc.Undelegate(vault, who, big.NewInt(shares)) })
}

func (h *harness) stakeInto(vault, caller, pool thor.Address, amount int64) error {
	return h.do(func(svc *Service) error { return svc.StakeInto(vault, caller, pool, big.NewInt(amount)) })
}

func (h *harness) shares(vault, who thor.Address) int64 {
	s, err := h.bind().SharesOf(vault, who)
	require.NoError(h.t, err)
	return s.Int64()
}

func (h *harness) vault(addr thor.Address) *Vault {
	v, err := h.bind().Vault(addr)
	require.NoError(h.t, err)
	return v
}

func (h *harness) value(addr thor.Address) int64 {
	v, err := h.bind().ValueExact(addr)
	require.NoError(h.t, err)
	return v.Int64()
}

func (h *harness) balance(addr thor.Address) int64 {
	h.bind()
	b, err := h.tok.BalanceOf(addr)
	require.NoError(h.t, err)
	return b.Int64()
}

func (h *harness) queue(addr thor.Address) []*QueueEntry {
	entries, err := h.bind().QueueEntries(addr)
	require.NoError(h.t, err)
	return entries
}

func (h *harness) events(name string) []*xenv.Event {
	var out []*xenv.Event
	for _, ev := range h.last.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// checkVault asserts share and stake bookkeeping agree with the token balances and pools.
func (h *harness) checkVault(addr thor.Address, holders ...thor.Address) {
	svc := h.bind()
	v, err := svc.Vault(addr)
	require.NoError(h.t, err)

	sum := new(big.Int)
	for _, who := range holders {
		s, err := svc.SharesOf(addr, who)
		require.NoError(h.t, err)
		sum.Add(sum, s)
	}
	require.Zero(h.t, sum.Cmp(v.TotalShares), "shares %v != total %v", sum, v.TotalShares)

	staked := new(big.Int)
	pools, err := svc.Pools(addr)
	require.NoError(h.t, err)
	require.Equal(h.t, uint64(len(pools)), v.PoolCount)
	for _, pool := range pools {
		st, err := svc.Stake(addr, pool)
		require.NoError(h.t, err)
		pos, err := h.pools.Position(pool, addr)
		require.NoError(h.t, err)
		require.Zero(h.t, st.Amount.Cmp(pos.Stake), "stake in %v: vault %v pool %v", pool, st.Amount, pos.Stake)
		staked.Add(staked, st.Amount)
	}
	require.Zero(h.t, staked.Cmp(v.TotalStaked))

	// shares times the exchange rate give back the value, up to rounding
	if v.TotalShares.Sign() > 0 {
		rate, err := svc.ExchangeRate(addr)
		require.NoError(h.t, err)
		value, err := svc.ValueExact(addr)
		require.NoError(h.t, err)
		implied := new(big.Int).Mul(v.TotalShares, rate)
		implied.Quo(implied, thor.Ether)
		diff := new(big.Int).Sub(value, implied)
		require.True(h.t, diff.Sign() >= 0 && diff.Cmp(big.NewInt(1)) <= 0, "value %v implied %v", value, implied)
	}
}
