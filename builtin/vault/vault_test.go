// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/thor"
)

func TestCreate(t *testing.T) {
	h := newHarness(t)
	addr := h.createVault(1e17)

	got, err := h.bind().VaultOf(owner)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
	assert.Equal(t, owner, h.vault(addr).Owner)
	assert.Len(t, h.events("VaultCreated"), 1)

	tests := []struct {
		name string
		who  thor.Address
		cut  *big.Int
	}{
		{"one per owner", owner, big.NewInt(0)},
		{"cut above one", dan, new(big.Int).Add(thor.Ether, big.NewInt(1))},
		{"negative cut", dan, big.NewInt(-1)},
		{"zero owner", thor.Address{}, big.NewInt(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.do(func(svc *Service) error {
				_, err := svc.Create(tt.who, tt.cut)
				return err
			})
			assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(err))
		})
	}
}

func TestDelegateUndelegateRoundTrip(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)

	require.NoError(t, h.delegate(vault, owner, 1000))
	assert.Equal(t, int64(1000), h.shares(vault, owner))
	require.NoError(t, h.delegate(vault, dan, 500))
	assert.Equal(t, int64(500), h.shares(vault, dan))

	require.NoError(t, h.undelegate(vault, dan, 500))
	assert.Equal(t, int64(initialBalance), h.balance(dan))
	assert.Equal(t, int64(0), h.shares(vault, dan))
	assert.Empty(t, h.queue(vault))
	assert.Len(t, h.events("QueueEntryPaid"), 1)
	h.checkVault(vault, owner, dan)
}

func TestDelegateIntoWorthlessVault(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)
	pool := h.createPool(0, rewardpool.Policies{})
	require.NoError(t, h.delegate(vault, owner, 100))
	require.NoError(t, h.stakeInto(vault, owner, pool, 100))
	require.NoError(t, h.do(func(*Service) error {
		if err := h.pools.Lock(pool, vault, big.NewInt(100)); err != nil {
			return err
		}
		return h.pools.Kick(pool, vault, big.NewInt(100))
	}))
	require.Equal(t, int64(0), h.value(vault))
	require.Equal(t, int64(100), h.vault(vault).TotalShares.Int64())

	err := h.delegate(vault, dan, 1000)
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(err))
	assert.Equal(t, int64(initialBalance), h.balance(dan))
	assert.Equal(t, int64(0), h.shares(vault, dan))

	assert.Zero(t, toShares(big.NewInt(1000), new(big.Int), big.NewInt(100)).Sign())
	assert.Equal(t, int64(1000), toShares(big.NewInt(1000), new(big.Int), new(big.Int)).Int64())
}

func TestMinimumDelegation(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)
	require.NoError(t, h.delegate(vault, owner, 1000))

	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(h.delegate(vault, dan, 9)))
	assert.Equal(t, int64(initialBalance), h.balance(dan))
	require.NoError(t, h.delegate(vault, dan, 10))

	// leaving 5 below the floor withdraws everything
	require.NoError(t, h.delegate(vault, erin, 20))
	require.NoError(t, h.undelegate(vault, erin, 15))
	assert.Equal(t, int64(0), h.shares(vault, erin))
	assert.Equal(t, int64(initialBalance), h.balance(erin))

	// over-asking is capped by the balance
	require.NoError(t, h.undelegate(vault, dan, 1_000_000))
	assert.Equal(t, int64(initialBalance), h.balance(dan))

	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(h.undelegate(vault, dan, 1)))
	h.checkVault(vault, owner, dan, erin)
}

func TestSelfDelegationFloor(t *testing.T) {
	h := newHarness(t) // 5% floor by default
	vault := h.createVault(0)

	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(h.delegate(vault, dan, 100)), "operator holds nothing")
	require.NoError(t, h.delegate(vault, owner, 100))
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(h.delegate(vault, dan, 1901)))
	require.NoError(t, h.delegate(vault, dan, 1900))

	// only checked when delegating
	require.NoError(t, h.undelegate(vault, owner, 50))
	assert.Equal(t, int64(50), h.shares(vault, owner))
}

func TestTransferShares(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)
	require.NoError(t, h.delegate(vault, owner, 1000))
	require.NoError(t, h.delegate(vault, dan, 50))

	transfer := func(from, to thor.Address, amount int64) error {
		return h.do(func(svc *Service) error { return svc.TransferShares(vault, from, to, big.NewInt(amount)) })
	}
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(transfer(dan, erin, 51)))
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(transfer(dan, erin, 9)), "recipient below floor")
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(transfer(dan, erin, 45)), "sender keeps 5")
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(transfer(dan, dan, 10)))

	require.NoError(t, transfer(dan, erin, 40))
	require.NoError(t, transfer(dan, erin, 10))
	assert.Equal(t, int64(0), h.shares(vault, dan))
	assert.Equal(t, int64(50), h.shares(vault, erin))
	assert.Len(t, h.events("SharesTransferred"), 1)
	h.checkVault(vault, owner, dan, erin)
}

func TestStakeInto(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)
	pool := h.createPool(10_000, rewardpool.Policies{VaultOnly: true})
	require.NoError(t, h.delegate(vault, owner, 1000))

	stranger := thor.BytesToAddress([]byte("stranger"))
	assert.Equal(t, reverts.PolicyViolation, reverts.KindOf(h.stakeInto(vault, dan, pool, 100)))
	assert.Equal(t, reverts.ExternalDependencyFailure, reverts.KindOf(h.stakeInto(vault, owner, stranger, 100)))
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(h.stakeInto(vault, owner, pool, 1001)))

	require.NoError(t, h.stakeInto(vault, owner, pool, 600))
	require.NoError(t, h.stakeInto(vault, owner, pool, 400))
	assert.Equal(t, int64(1000), h.vault(vault).TotalStaked.Int64())
	assert.Equal(t, uint64(1), h.vault(vault).PoolCount)
	assert.Equal(t, int64(1000), h.value(vault))
	h.checkVault(vault, owner)

	// vault-only pools refuse plain accounts
	err := h.do(func(*Service) error {
		return h.tok.TransferAndCall(dan, pool, big.NewInt(100), token.Payload{Action: token.ActionStake})
	})
	assert.Equal(t, reverts.PolicyViolation, reverts.KindOf(err))

	h.e.Advance(10)
	approx, err := h.bind().ValueApprox(vault)
	require.NoError(t, err)
	assert.Equal(t, int64(1010), approx.Int64())
	assert.Equal(t, int64(1000), h.value(vault))
}

func TestStakingBlockedByQueue(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)
	pool := h.createPool(10_000, rewardpool.Policies{})
	require.NoError(t, h.delegate(vault, owner, 100))
	require.NoError(t, h.delegate(vault, dan, 900))
	require.NoError(t, h.stakeInto(vault, owner, pool, 1000))

	require.NoError(t, h.undelegate(vault, dan, 100))
	require.Len(t, h.queue(vault), 1)
	require.NoError(t, h.delegate(vault, erin, 10))

	// erin's capital went to the queue, nothing is left to stake
	assert.Equal(t, int64(0), h.balance(vault))
	require.Len(t, h.queue(vault), 1)
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(h.stakeInto(vault, owner, pool, 1)))
}

func TestSetOperatorsCut(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)
	pool := h.createPool(0, rewardpool.Policies{})
	require.NoError(t, h.delegate(vault, owner, 100))

	set := func(caller thor.Address, cut int64) error {
		return h.do(func(svc *Service) error { return svc.SetOperatorsCut(vault, caller, big.NewInt(cut)) })
	}
	assert.Equal(t, reverts.PolicyViolation, reverts.KindOf(set(dan, 1)))
	require.NoError(t, set(owner, 2e17))
	assert.Equal(t, int64(2e17), h.vault(vault).OperatorsCut.Int64())

	require.NoError(t, h.stakeInto(vault, owner, pool, 100))
	assert.Equal(t, reverts.StateConflict, reverts.KindOf(set(owner, 1e17)))

	require.NoError(t, h.do(func(svc *Service) error { return svc.UnstakeFrom(vault, owner, pool) }))
	require.NoError(t, set(owner, 1e17))
}

func TestReduceStakeIn(t *testing.T) {
	h := newHarness(t)
	vault := h.createVault(0)
	pool := h.createPool(0, rewardpool.Policies{})
	require.NoError(t, h.delegate(vault, owner, 1000))
	require.NoError(t, h.stakeInto(vault, owner, pool, 1000))

	reduce := func(caller thor.Address, target int64) error {
		return h.do(func(svc *Service) error { return svc.ReduceStakeIn(vault, caller, pool, big.NewInt(target)) })
	}
	assert.Equal(t, reverts.PolicyViolation, reverts.KindOf(reduce(dan, 10)))
	require.NoError(t, reduce(owner, 400))
	assert.Equal(t, int64(600), h.balance(vault))
	assert.Equal(t, int64(400), h.vault(vault).TotalStaked.Int64())
	h.checkVault(vault, owner)

	require.NoError(t, reduce(owner, 0))
	assert.Equal(t, uint64(0), h.vault(vault).PoolCount)
	assert.Equal(t, int64(1000), h.value(vault))
}
