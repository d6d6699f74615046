// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/test/testenv"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	sponsor = thor.BytesToAddress([]byte("sponsor"))
	alice   = thor.BytesToAddress([]byte("alice"))
	bob     = thor.BytesToAddress([]byte("bob"))
	carol   = thor.BytesToAddress([]byte("carol"))
)

type harness struct {
	t     *testing.T
	e     *testenv.Env
	env   *xenv.Environment
	last  *xenv.Environment // env of the latest do
	svc   *Service
	tok   *token.Token
	hooks Hooks
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, e: testenv.New(t)}
	h.e.SetParam(thor.KeyMinStake, 1)

	h.bind()
	reg := registry.New(thor.RegistryAddress, h.env, params.New(thor.ParamsAddress, h.env))
	require.NoError(t, reg.Register(testenv.Executor, "stream-1"))
	for _, kind := range []string{PolicyStakeWeighted, PolicyDefaultLeave, PolicyMaxStakeholders, PolicyVaultOnly, PolicyVoteKick} {
		require.NoError(t, reg.Approve(testenv.Executor, kind, true))
	}
	for _, acc := range []thor.Address{sponsor, alice, bob, carol} {
		require.NoError(t, h.tok.Mint(testenv.Executor, acc, big.NewInt(1_000_000)))
	}
	return h
}

// bind starts a new operation at the current time.
func (h *harness) bind() *Service {
	h.env = h.e.At(thor.Address{})
	p := params.New(thor.ParamsAddress, h.env)
	h.tok = token.New(thor.TokenAddress, h.env, p)
	h.svc = New(thor.PoolsAddress, h.env, p, registry.New(thor.RegistryAddress, h.env, p), h.tok)
	h.svc.SetHooks(h.hooks)
	h.tok.SetResolver(h.svc.Receiver)
	return h.svc
}

// do runs fn as one atomic operation.
func (h *harness) do(fn func(svc *Service) error) error {
	svc := h.bind()
	h.last = h.env
	return h.env.Call(func(*xenv.Environment) error { return fn(svc) })
}

func (h *harness) create(spec *Spec) thor.Address {
	if spec.ExternalID == "" {
		spec.ExternalID = "stream-1"
	}
	var addr thor.Address
	require.NoError(h.t, h.do(func(svc *Service) error {
		var err error
		addr, err = svc.Create(sponsor, spec)
		return err
	}))
	return addr
}

func (h *harness) deposit(from, pool thor.Address, amount int64, action token.Action) error {
	return h.do(func(*Service) error {
		return h.tok.TransferAndCall(from, pool, big.NewInt(amount), token.Payload{Action: action})
	})
}

func (h *harness) fund(pool thor.Address, amount int64) {
	require.NoError(h.t, h.deposit(sponsor, pool, amount, token.ActionFund))
}

func (h *harness) stake(pool, who thor.Address, amount int64) {
	require.NoError(h.t, h.deposit(who, pool, amount, token.ActionStake))
}

func (h *harness) unstake(pool, who thor.Address) (stake, earnings int64) {
	var s, e *big.Int
	require.NoError(h.t, h.do(func(svc *Service) error {
		var err error
		s, e, err = svc.Unstake(pool, who)
		return err
	}))
	return s.Int64(), e.Int64()
}

func (h *harness) pool(addr thor.Address) *Pool {
	p, err := h.bind().Pool(addr)
	require.NoError(h.t, err)
	return p
}

func (h *harness) position(pool, who thor.Address) *Position {
	pos, err := h.bind().Position(pool, who)
	require.NoError(h.t, err)
	return pos
}

func (h *harness) earnings(pool, who thor.Address) int64 {
	e, err := h.bind().Earnings(pool, who)
	require.NoError(h.t, err)
	return e.Int64()
}

func (h *harness) balance(addr thor.Address) int64 {
	h.bind()
	b, err := h.tok.BalanceOf(addr)
	require.NoError(h.t, err)
	return b.Int64()
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

// checkWeight asserts the sum of positions equals the pool's total stake.
func (h *harness) checkWeight(addr thor.Address) {
	svc := h.bind()
	members, err := svc.Stakeholders(addr)
	require.NoError(h.t, err)
	sum := new(big.Int)
	for _, m := range members {
		pos, err := svc.Position(addr, m)
		require.NoError(h.t, err)
		sum.Add(sum, pos.Stake)
	}
	p, err := svc.Pool(addr)
	require.NoError(h.t, err)
	require.Zero(h.t, sum.Cmp(p.TotalStake), "sum of stakes %v != total %v", sum, p.TotalStake)
	require.Equal(h.t, uint64(len(members)), p.StakeholderCount)
}
