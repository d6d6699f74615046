// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

func TestFlagLocksStake(t *testing.T) {
	h := newHarness(t)
	pool, _ := h.setup()

	require.NoError(t, h.flag(pool, target, flagger))
	f := h.get(pool, target)
	assert.Equal(t, StatusVoting, f.Status)
	assert.Equal(t, flagger, f.Flagger)
	assert.Equal(t, uint64(100), f.Deadline)
	assert.Equal(t, int64(100), f.AtRisk.Int64())
	assert.Equal(t, int64(10), h.position(pool, flagger).Locked.Int64())
	assert.Equal(t, int64(100), h.position(pool, target).Locked.Int64())
	assert.Len(t, h.events("FlagOpened"), 1)

	flagged, err := h.bind().Flagged(pool)
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{target}, flagged)

	// the target can not walk away with the stake at risk
	err = h.do(func(*Service) error { _, _, err := h.pools.Unstake(pool, target); return err })
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(err))
}

func TestCommitteePrefersOtherPools(t *testing.T) {
	t.Run("enough independent reviewers", func(t *testing.T) {
		h := newHarness(t)
		pool, _ := h.setup()
		require.NoError(t, h.flag(pool, target, flagger))
		assert.ElementsMatch(t, independents, h.get(pool, target).Reviewers)
	})

	t.Run("co-stakers fill the rest", func(t *testing.T) {
		h := newHarness(t)
		h.e.SetParam(thor.KeyReviewerCount, 5)
		pool, _ := h.setup()
		require.NoError(t, h.flag(pool, target, flagger))
		reviewers := h.get(pool, target).Reviewers
		require.Len(t, reviewers, 4)
		assert.ElementsMatch(t, independents, reviewers[:3])
		assert.Equal(t, coStaker, reviewers[3])
	})

	t.Run("deterministic for a seed", func(t *testing.T) {
		a, b := newHarness(t), newHarness(t)
		poolA, _ := a.setup()
		poolB, _ := b.setup()
		require.NoError(t, a.flag(poolA, target, flagger))
		require.NoError(t, b.flag(poolB, target, flagger))
		assert.Equal(t, a.get(poolA, target).Reviewers, b.get(poolB, target).Reviewers)
	})

	t.Run("no candidates", func(t *testing.T) {
		h := newHarness(t)
		pool := h.createPool(true)
		h.stake(pool, flagger, 1000)
		h.stake(pool, target, 1000)
		assert.Equal(t, reverts.StateConflict, reverts.KindOf(h.flag(pool, target, flagger)))
		assert.True(t, h.position(pool, flagger).Locked.Sign() == 0, "failed flag must not lock")
	})
}

func TestInsufficientStakeKicksAtOnce(t *testing.T) {
	h := newHarness(t)
	pool, _ := h.setup()
	small := thor.BytesToAddress([]byte("small"))
	require.NoError(t, h.do(func(*Service) error { return h.tok.Transfer(sponsor, small, big.NewInt(20)) }))
	h.stake(pool, small, 20)

	require.NoError(t, h.flag(pool, small, flagger))
	resolved := h.events("FlagResolved")
	require.Len(t, resolved, 1)
	assert.Equal(t, "kick", resolved[0].Data["verdict"])
	assert.Equal(t, int64(0), resolved[0].Amount.Int64())
	assert.Len(t, h.events("FlagOpened"), 0)
	assert.Len(t, h.events("FlagUpdated"), 0)

	assert.False(t, h.position(pool, small).Exists())
	assert.Equal(t, int64(20), h.balance(small))
	assert.Equal(t, StatusNone, h.get(pool, small).Status)
	assert.Equal(t, int64(0), h.position(pool, flagger).Locked.Int64())
}

func TestEarlyKick(t *testing.T) {
	h := newHarness(t)
	pool, _ := h.setup()
	require.NoError(t, h.flag(pool, target, flagger))
	reviewers := h.get(pool, target).Reviewers

	require.NoError(t, h.vote(pool, target, reviewers[0], true))
	assert.Equal(t, StatusVoting, h.get(pool, target).Status)
	require.NoError(t, h.vote(pool, target, reviewers[1], true))

	resolved := h.events("FlagResolved")
	require.Len(t, resolved, 1)
	assert.Equal(t, "kick", resolved[0].Data["verdict"])
	assert.Equal(t, int64(100), resolved[0].Amount.Int64())
	assert.Len(t, h.events("StakeholderKicked"), 1)

	assert.False(t, h.position(pool, target).Exists())
	assert.Equal(t, int64(1_000_000-100), h.balance(target))
	assert.Equal(t, int64(1_000_000-1000+10), h.balance(flagger))
	assert.Equal(t, int64(0), h.position(pool, flagger).Locked.Int64())
	assert.Equal(t, int64(1_000_000-100+5), h.balance(reviewers[0]))
	assert.Equal(t, int64(1_000_000-100+5), h.balance(reviewers[1]))
	assert.Equal(t, int64(1_000_000-100), h.balance(reviewers[2]))

	h.bind()
	p, err := h.pools.Pool(pool)
	require.NoError(t, err)
	assert.Equal(t, int64(80), p.Funding.Int64())

	assert.Equal(t, reverts.StateConflict, reverts.KindOf(h.vote(pool, target, reviewers[2], true)))
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(h.do(func(svc *Service) error { return svc.Resolve(pool, target) })))
}

func TestEarlyNoKickProtects(t *testing.T) {
	h := newHarness(t)
	pool, _ := h.setup()
	require.NoError(t, h.flag(pool, target, flagger))
	reviewers := h.get(pool, target).Reviewers

	require.NoError(t, h.vote(pool, target, reviewers[0], false))
	require.NoError(t, h.vote(pool, target, reviewers[1], false))

	resolved := h.events("FlagResolved")
	require.Len(t, resolved, 1)
	assert.Equal(t, "no-kick", resolved[0].Data["verdict"])

	assert.Equal(t, int64(990), h.position(pool, flagger).Stake.Int64())
	assert.Equal(t, int64(0), h.position(pool, flagger).Locked.Int64())
	assert.Equal(t, int64(0), h.position(pool, target).Locked.Int64())
	assert.Equal(t, int64(1000), h.position(pool, target).Stake.Int64())
	assert.Equal(t, int64(1_000_000-100+5), h.balance(reviewers[0]))
	assert.Equal(t, int64(1_000_000-100+5), h.balance(reviewers[1]))

	h.e.Advance(49)
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(h.flag(pool, target, flagger)))
	h.e.Advance(1)
	require.NoError(t, h.flag(pool, target, flagger))
}

func TestResolveAfterDeadline(t *testing.T) {
	tests := []struct {
		name    string
		kicks   int
		noKicks int
		want    string
	}{
		{"no votes", 0, 0, "no-kick"},
		{"single kick", 1, 0, "kick"},
		{"tie", 1, 1, "no-kick"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			pool, _ := h.setup()
			require.NoError(t, h.flag(pool, target, flagger))
			reviewers := h.get(pool, target).Reviewers
			for i := range tt.kicks {
				require.NoError(t, h.vote(pool, target, reviewers[i], true))
			}
			for i := range tt.noKicks {
				require.NoError(t, h.vote(pool, target, reviewers[tt.kicks+i], false))
			}

			resolve := func() error { return h.do(func(svc *Service) error { return svc.Resolve(pool, target) }) }
			h.e.SetTime(99)
			assert.Equal(t, reverts.StateConflict, reverts.KindOf(resolve()))

			h.e.SetTime(100)
			require.NoError(t, resolve())
			resolved := h.events("FlagResolved")
			require.Len(t, resolved, 1)
			assert.Equal(t, tt.want, resolved[0].Data["verdict"])

			// resolving twice fails
			assert.Equal(t, reverts.StateConflict, reverts.KindOf(resolve()))
		})
	}
}

func TestVoteErrors(t *testing.T) {
	h := newHarness(t)
	pool, _ := h.setup()
	require.NoError(t, h.flag(pool, target, flagger))
	reviewers := h.get(pool, target).Reviewers

	assert.Equal(t, reverts.PolicyViolation, reverts.KindOf(h.vote(pool, target, coStaker, true)))
	require.NoError(t, h.vote(pool, target, reviewers[0], true))
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(h.vote(pool, target, reviewers[0], false)))
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(h.vote(pool, coStaker, reviewers[1], true)))

	h.e.SetTime(100)
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(h.vote(pool, target, reviewers[1], true)))
}

func TestFlagErrors(t *testing.T) {
	h := newHarness(t)
	pool, other := h.setup()
	plain := h.createPool(false)
	h.stake(plain, flagger, 100)
	h.stake(plain, target, 100)
	stranger := thor.BytesToAddress([]byte("stranger"))

	require.NoError(t, h.flag(pool, target, flagger))

	tests := []struct {
		name              string
		pool, who, flagBy thor.Address
		kind              reverts.Kind
	}{
		{"unknown pool", stranger, target, flagger, reverts.ExternalDependencyFailure},
		{"no kick policy", plain, target, flagger, reverts.PolicyViolation},
		{"self flag", pool, flagger, flagger, reverts.InvariantViolation},
		{"already flagged", pool, target, coStaker, reverts.InvariantViolation},
		{"target not staked", pool, stranger, flagger, reverts.StateConflict},
		{"flagger not staked", other, independents[0], flagger, reverts.InvariantViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, reverts.KindOf(h.flag(tt.pool, tt.who, tt.flagBy)))
		})
	}

	t.Run("bond already locked", func(t *testing.T) {
		h.e.SetParam(thor.KeyFlagBond, 995)
		assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(h.flag(pool, coStaker, flagger)))
	})
}

func TestKickAfterForcedExit(t *testing.T) {
	h := newHarness(t)
	pool, _ := h.setup()
	require.NoError(t, h.flag(pool, target, flagger))
	reviewers := h.get(pool, target).Reviewers

	require.NoError(t, h.do(func(*Service) error {
		_, _, err := h.pools.ForceUnstake(pool, target, big.NewInt(0))
		return err
	}))
	assert.Equal(t, int64(1_000_000-100), h.balance(target))

	require.NoError(t, h.vote(pool, target, reviewers[0], true))
	require.NoError(t, h.vote(pool, target, reviewers[1], true))

	assert.Equal(t, int64(1_000_000-100), h.balance(target))
	assert.Equal(t, int64(1_000_000-1000+10), h.balance(flagger))

	h.bind()
	p, err := h.pools.Pool(pool)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Reserved.Int64())
	assert.Equal(t, int64(80), p.Funding.Int64())
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		size         int
		kick, noKick uint64
		now          uint64
		want         Status
	}{
		{1, 1, 0, 0, StatusResolvedKick},
		{1, 0, 1, 0, StatusResolvedNoKick},
		{2, 1, 0, 0, StatusVoting},
		{2, 0, 1, 0, StatusResolvedNoKick},
		{4, 2, 0, 0, StatusVoting},
		{4, 3, 0, 0, StatusResolvedKick},
		{4, 0, 2, 0, StatusResolvedNoKick},
		{5, 2, 2, 0, StatusVoting},
		{5, 2, 2, 10, StatusResolvedNoKick},
		{5, 2, 1, 10, StatusResolvedKick},
		{5, 0, 0, 10, StatusResolvedNoKick},
	}
	for _, tt := range tests {
		f := &Flag{Reviewers: make([]thor.Address, tt.size), KickVotes: tt.kick, NoKickVotes: tt.noKick, Deadline: 10}
		assert.Equal(t, tt.want, f.verdict(tt.now), "size %d kick %d no-kick %d at %d", tt.size, tt.kick, tt.noKick, tt.now)
	}
}
