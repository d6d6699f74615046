// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/randomness"
	"github.com/vechain/stakeledger/test/testenv"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	flagger  = thor.BytesToAddress([]byte("flagger"))
	target   = thor.BytesToAddress([]byte("target"))
	coStaker = thor.BytesToAddress([]byte("co-staker"))
	sponsor  = thor.BytesToAddress([]byte("sponsor"))

	independents = []thor.Address{
		thor.BytesToAddress([]byte("reviewer-1")),
		thor.BytesToAddress([]byte("reviewer-2")),
		thor.BytesToAddress([]byte("reviewer-3")),
	}
)

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
	for key, value := range map[thor.Bytes32]int64{
		thor.KeyMinStake:             1,
		thor.KeyFlagBond:             10,
		thor.KeyFlaggerReward:        10,
		thor.KeyReviewerReward:       5,
		thor.KeyReviewerCount:        3,
		thor.KeySlashingFraction:     1e17,
		thor.KeyVotingPeriod:         100,
		thor.KeyFlagProtectionPeriod: 50,
	} {
		h.e.SetParam(key, value)
	}

	h.bind()
	reg := registry.New(thor.RegistryAddress, h.env, params.New(thor.ParamsAddress, h.env))
	require.NoError(t, reg.Register(testenv.Executor, "stream"))
	for _, kind := range (rewardpool.Policies{VoteKick: true}).Kinds() {
		require.NoError(t, reg.Approve(testenv.Executor, kind, true))
	}
	for _, acc := range append([]thor.Address{flagger, target, coStaker, sponsor}, independents...) {
		require.NoError(t, h.tok.Mint(testenv.Executor, acc, big.NewInt(1_000_000)))
	}
	return h
}

func (h *harness) bind() *Service {
	h.env = h.e.At(thor.Address{})
	p := params.New(thor.ParamsAddress, h.env)
	h.tok = token.New(thor.TokenAddress, h.env, p)
	h.pools = rewardpool.New(thor.PoolsAddress, h.env, p, registry.New(thor.RegistryAddress, h.env, p), h.tok)
	h.tok.SetResolver(h.pools.Receiver)
	h.svc = New(thor.DisputeAddress, h.env, p, h.pools, randomness.FixedSource{1})
	return h.svc
}

func (h *harness) do(fn func(svc *Service) error) error {
	svc := h.bind()
	h.last = h.env
	return h.env.Call(func(*xenv.Environment) error { return fn(svc) })
}

func (h *harness) createPool(voteKick bool) thor.Address {
	var addr thor.Address
	require.NoError(h.t, h.do(func(*Service) error {
		var err error
		addr, err = h.pools.Create(sponsor, &rewardpool.Spec{
			ExternalID: "stream",
			Rate:       big.NewInt(1),
			Policies:   rewardpool.Policies{VoteKick: voteKick},
		})
		return err
	}))
	return addr
}

func (h *harness) stake(pool, who thor.Address, amount int64) {
	require.NoError(h.t, h.do(func(*Service) error {
		return h.tok.TransferAndCall(who, pool, big.NewInt(amount), token.Payload{Action: token.ActionStake})
	}))
}

// setup creates a disputed pool with flagger, target and a co-staker, and a second pool
// staked by independent reviewers.
func (h *harness) setup() (pool, other thor.Address) {
	pool = h.createPool(true)
	other = h.createPool(true)
	h.stake(pool, flagger, 1000)
	h.stake(pool, target, 1000)
	h.stake(pool, coStaker, 1000)
	for _, r := range independents {
		h.stake(other, r, 100)
	}
	return pool, other
}

func (h *harness) flag(pool, who, by thor.Address) error {
	return h.do(func(svc *Service) error { return svc.Flag(pool, who, by, "misbehaving") })
}

func (h *harness) vote(pool, who, voter thor.Address, kick bool) error {
	return h.do(func(svc *Service) error { return svc.Vote(pool, who, voter, kick) })
}

func (h *harness) get(pool, who thor.Address) *Flag {
	f, err := h.bind().Get(pool, who)
	require.NoError(h.t, err)
	return f
}

func (h *harness) position(pool, who thor.Address) *rewardpool.Position {
	h.bind()
	pos, err := h.pools.Position(pool, who)
	require.NoError(h.t, err)
	return pos
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
