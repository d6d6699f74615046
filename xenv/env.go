// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"math/big"

	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

// BlockContext carries the position of the operation in the ledger history.
type BlockContext struct {
	Number uint64 // sequence number of the operation
	Time   uint64 // logical time in seconds
}

// Event is an observable record emitted by a ledger component.
type Event struct {
	Name    string            `json:"name"`
	Address thor.Address      `json:"address"`          // emitting pool, vault or component
	Subject thor.Address      `json:"subject"`          // main counterparty, zero if none
	Amount  *big.Int          `json:"amount,omitempty"` // primary amount
	Time    uint64            `json:"time"`
	Data    map[string]string `json:"data,omitempty"` // additional named values
}

// Environment an env to execute ledger operations.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	caller   thor.Address
	events   []*Event
}

// New create a new env.
func New(state *state.State, blockCtx *BlockContext, caller thor.Address) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		caller:   caller,
	}
}

func (env *Environment) State() *state.State         { return env.state }
func (env *Environment) BlockContext() *BlockContext { return env.blockCtx }
func (env *Environment) Caller() thor.Address        { return env.caller }
func (env *Environment) Time() uint64                { return env.blockCtx.Time }

// Log appends an event stamped with the current time.
func (env *Environment) Log(name string, address, subject thor.Address, amount *big.Int, data map[string]string) {
	var amt *big.Int
	if amount != nil {
		amt = new(big.Int).Set(amount)
	}
	env.events = append(env.events, &Event{
		Name:    name,
		Address: address,
		Subject: subject,
		Amount:  amt,
		Time:    env.blockCtx.Time,
		Data:    data,
	})
}

// Events returns the events logged so far.
func (env *Environment) Events() []*Event {
	return env.events
}

// Call runs proc all-or-nothing: on error every state change and event made by proc is discarded.
func (env *Environment) Call(proc func(env *Environment) error) error {
	rev := env.state.NewCheckpoint()
	mark := len(env.events)
	if err := proc(env); err != nil {
		env.state.RevertTo(rev)
		env.events = env.events[:mark]
		return err
	}
	return nil
}
