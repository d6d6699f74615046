// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testenv builds in-memory execution environments for component tests.
package testenv

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

// Executor is the admin address of every test environment.
var Executor = thor.BytesToAddress([]byte("executor"))

// Env is a state shared by a sequence of environments, one per simulated operation.
type Env struct {
	t     *testing.T
	State *state.State
	seq   uint64
	now   uint64
}

// New creates an environment over an in-memory store with default params.
func New(t *testing.T) *Env {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stater, err := state.NewStater(db, 0)
	require.NoError(t, err)

	e := &Env{t: t, State: stater.NewState()}
	require.NoError(t, params.New(thor.ParamsAddress, e.At(thor.Address{})).Init(Executor))
	return e
}

// SetTime moves the logical clock.
func (e *Env) SetTime(now uint64) {
	e.now = now
}

// Advance moves the logical clock forward.
func (e *Env) Advance(secs uint64) {
	e.now += secs
}

// Now returns the logical clock.
func (e *Env) Now() uint64 {
	return e.now
}

// At returns an environment for one operation issued by caller at the current time.
func (e *Env) At(caller thor.Address) *xenv.Environment {
	e.seq++
	return xenv.New(e.State, &xenv.BlockContext{Number: e.seq, Time: e.now}, caller)
}

// SetParam overrides a param.
func (e *Env) SetParam(key thor.Bytes32, value int64) {
	require.NoError(e.t, params.New(thor.ParamsAddress, e.At(thor.Address{})).Set(key, big.NewInt(value)))
}

// SetParamBig overrides a param with a big value.
func (e *Env) SetParamBig(key thor.Bytes32, value *big.Int) {
	require.NoError(e.t, params.New(thor.ParamsAddress, e.At(thor.Address{})).Set(key, value))
}
