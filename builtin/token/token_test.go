// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/test/testenv"
	"github.com/vechain/stakeledger/thor"
)

type recorder struct {
	sender  thor.Address
	amount  *big.Int
	payload token.Payload
	err     error
}

func (r *recorder) OnTokenTransfer(sender thor.Address, amount *big.Int, payload token.Payload) error {
	r.sender, r.amount, r.payload = sender, amount, payload
	return r.err
}

func newToken(env *testenv.Env) *token.Token {
	xenv := env.At(testenv.Executor)
	return token.New(thor.TokenAddress, xenv, params.New(thor.ParamsAddress, xenv))
}

func balance(t *testing.T, tk *token.Token, addr thor.Address) int64 {
	b, err := tk.BalanceOf(addr)
	require.NoError(t, err)
	return b.Int64()
}

func TestMintAndTransfer(t *testing.T) {
	env := testenv.New(t)
	tk := newToken(env)
	alice, bob := thor.Address{1}, thor.Address{2}

	require.NoError(t, tk.Mint(testenv.Executor, alice, big.NewInt(100)))
	assert.Equal(t, reverts.PolicyViolation, reverts.KindOf(tk.Mint(alice, alice, big.NewInt(1))))
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(tk.Mint(testenv.Executor, alice, big.NewInt(0))))

	require.NoError(t, tk.Transfer(alice, bob, big.NewInt(30)))
	assert.Equal(t, int64(70), balance(t, tk, alice))
	assert.Equal(t, int64(30), balance(t, tk, bob))

	err := tk.Transfer(bob, alice, big.NewInt(31))
	assert.Equal(t, reverts.ExternalDependencyFailure, reverts.KindOf(err))

	supply, err := tk.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, int64(100), supply.Int64())
}

func TestTransferAndCall(t *testing.T) {
	env := testenv.New(t)
	tk := newToken(env)
	alice, pool, plain := thor.Address{1}, thor.Address{2}, thor.Address{3}
	rec := &recorder{}
	tk.SetResolver(func(addr thor.Address) (token.Receiver, error) {
		if addr == pool {
			return rec, nil
		}
		return nil, nil
	})
	require.NoError(t, tk.Mint(testenv.Executor, alice, big.NewInt(100)))

	payload := token.Payload{Action: token.ActionStake}
	require.NoError(t, tk.TransferAndCall(alice, pool, big.NewInt(10), payload))
	assert.Equal(t, alice, rec.sender)
	assert.Equal(t, int64(10), rec.amount.Int64())
	assert.Equal(t, token.ActionStake, rec.payload.Action)
	assert.Equal(t, int64(10), balance(t, tk, pool))

	// plain accounts can not act on a payload
	err := tk.TransferAndCall(alice, plain, big.NewInt(1), payload)
	assert.Equal(t, reverts.ExternalDependencyFailure, reverts.KindOf(err))

	rec.err = errors.New("rejected")
	err = tk.TransferAndCall(alice, pool, big.NewInt(1), payload)
	assert.ErrorContains(t, err, "rejected")
}

func TestPayloadCodec(t *testing.T) {
	p := token.Payload{Action: token.ActionDelegate, Beneficiary: thor.Address{7}}
	data, err := p.Encode()
	require.NoError(t, err)

	decoded, err := token.DecodePayload(data)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)

	empty, err := token.DecodePayload(nil)
	require.NoError(t, err)
	assert.Equal(t, token.ActionNone, empty.Action)
	assert.Equal(t, "delegate", token.ActionDelegate.String())
}
