// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/thor"
)

func TestLockBlocksExit(t *testing.T) {
	h := newHarness(t)
	pool := h.create(&Spec{Rate: big.NewInt(1)})
	h.stake(pool, alice, 1000)

	lock := func(amount int64) error {
		return h.do(func(svc *Service) error { return svc.Lock(pool, alice, big.NewInt(amount)) })
	}
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(lock(1001)))
	require.NoError(t, lock(300))

	err := h.do(func(svc *Service) error { _, _, err := svc.Unstake(pool, alice); return err })
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(err))
	err = h.do(func(svc *Service) error { return svc.ReduceStake(pool, alice, big.NewInt(299)) })
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(err))
	require.NoError(t, h.do(func(svc *Service) error { return svc.ReduceStake(pool, alice, big.NewInt(300)) }))

	require.NoError(t, h.do(func(svc *Service) error { return svc.Unlock(pool, alice, big.NewInt(300)) }))
	stake, _ := h.unstake(pool, alice)
	assert.Equal(t, int64(300), stake)
}

func TestForceUnstakeReservesLocked(t *testing.T) {
	h := newHarness(t)
	pool := h.create(&Spec{Rate: big.NewInt(1)})
	h.stake(pool, alice, 1000)
	h.stake(pool, bob, 1000)
	require.NoError(t, h.do(func(svc *Service) error { return svc.Lock(pool, alice, big.NewInt(400)) }))

	err := h.do(func(svc *Service) error {
		_, _, err := svc.ForceUnstake(pool, alice, big.NewInt(601))
		return err
	})
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(err))

	var stake *big.Int
	require.NoError(t, h.do(func(svc *Service) error {
		var err error
		stake, _, err = svc.ForceUnstake(pool, alice, big.NewInt(600))
		return err
	}))
	assert.Equal(t, int64(600), stake.Int64())
	assert.Equal(t, int64(1_000_000-400), h.balance(alice))

	p := h.pool(pool)
	assert.Equal(t, int64(400), p.Reserved.Int64())
	assert.Equal(t, int64(1000), p.TotalStake.Int64())
	reserved, err := h.bind().Reserved(pool, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(400), reserved.Int64())
	h.checkWeight(pool)

	// released reserve is paid back
	require.NoError(t, h.do(func(svc *Service) error { return svc.Unlock(pool, alice, big.NewInt(150)) }))
	assert.Equal(t, int64(1_000_000-250), h.balance(alice))

	// slashed reserve stays with the pool
	require.NoError(t, h.do(func(svc *Service) error { return svc.Slash(pool, alice, big.NewInt(250)) }))
	assert.Equal(t, int64(1_000_000-250), h.balance(alice))
	assert.Equal(t, int64(0), h.pool(pool).Reserved.Int64())
	assert.Equal(t, int64(1250), h.balance(pool))
}

func TestKick(t *testing.T) {
	h := newHarness(t)
	hooks := &fakeHooks{}
	h.hooks = hooks
	pool := h.create(&Spec{Rate: big.NewInt(1)})
	h.fund(pool, 1000)
	h.stake(pool, alice, 1000)
	h.stake(pool, bob, 1000)
	require.NoError(t, h.do(func(svc *Service) error { return svc.Lock(pool, alice, big.NewInt(200)) }))
	h.e.Advance(10)

	require.NoError(t, h.do(func(svc *Service) error { return svc.Kick(pool, alice, big.NewInt(200)) }))
	kicked := h.events("StakeholderKicked")
	require.Len(t, kicked, 1)
	assert.Equal(t, int64(800+5), kicked[0].Amount.Int64())
	assert.Len(t, h.events("StakeSlashed"), 1)
	assert.Equal(t, int64(200), hooks.slashed[alice])
	assert.Equal(t, int64(800), hooks.kicked[alice])

	assert.False(t, h.position(pool, alice).Exists())
	assert.Equal(t, int64(1_000_000-200+5), h.balance(alice))
	h.checkWeight(pool)

	// slashed stake is distributed by the caller
	require.NoError(t, h.do(func(svc *Service) error {
		if err := svc.Payout(pool, carol, big.NewInt(50)); err != nil {
			return err
		}
		return svc.AddFunding(pool, carol, big.NewInt(150))
	}))
	assert.Equal(t, int64(1_000_000+50), h.balance(carol))
	assert.Equal(t, int64(1000-10+150), h.pool(pool).Funding.Int64())
}

func TestSlashToZeroClosesPosition(t *testing.T) {
	h := newHarness(t)
	pool := h.create(&Spec{Rate: big.NewInt(1)})
	h.fund(pool, 1000)
	h.stake(pool, alice, 100)
	require.NoError(t, h.do(func(svc *Service) error { return svc.Lock(pool, alice, big.NewInt(100)) }))
	h.e.Advance(10)

	require.NoError(t, h.do(func(svc *Service) error { return svc.Slash(pool, alice, big.NewInt(100)) }))
	assert.False(t, h.position(pool, alice).Exists())
	assert.Equal(t, int64(1_000_000-100+10), h.balance(alice))
	members, err := h.bind().AllStakeholders()
	require.NoError(t, err)
	assert.NotContains(t, members, alice)
}

func TestStakeholderIndex(t *testing.T) {
	h := newHarness(t)
	p1 := h.create(&Spec{Rate: big.NewInt(1)})
	p2 := h.create(&Spec{Rate: big.NewInt(1)})
	h.stake(p1, alice, 10)
	h.stake(p2, alice, 10)
	h.stake(p2, bob, 10)

	all, err := h.bind().AllStakeholders()
	require.NoError(t, err)
	assert.ElementsMatch(t, all, []thor.Address{alice, bob})

	h.unstake(p1, alice)
	all, err = h.bind().AllStakeholders()
	require.NoError(t, err)
	assert.Contains(t, all, alice)

	h.unstake(p2, alice)
	all, err = h.bind().AllStakeholders()
	require.NoError(t, err)
	assert.NotContains(t, all, alice)

	members, err := h.bind().Stakeholders(p2)
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{bob}, members)
}
