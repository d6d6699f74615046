// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger runs operations against the built-in components one at a time. Each operation
// sees a fresh state over the committed store and is committed, with its events, only if it succeeds.
package ledger

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/randomness"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "ledger")

	slotSeq  = thor.BytesToBytes32([]byte("seq"))
	slotTime = thor.BytesToBytes32([]byte("time"))
)

// Sink receives the events of every committed operation.
type Sink interface {
	Insert(seq uint64, events []*xenv.Event) error
}

// Receipt describes a committed operation.
type Receipt struct {
	Seq    uint64        `json:"seq"`
	Time   uint64        `json:"time"`
	Events []*xenv.Event `json:"events"`
}

type Options struct {
	CacheSize int               // bytes of committed storage kept in memory
	Clock     Clock             // defaults to the wall clock
	Source    randomness.Source // committee seeds; required
	Sink      Sink              // optional
}

// Ledger serializes operations over a kv store.
type Ledger struct {
	mu     sync.RWMutex
	stater *state.Stater
	clock  Clock
	source randomness.Source
	sink   Sink
	seq    uint64
	last   uint64
	signal co.Signal
}

// New opens the ledger kept in db.
func New(db kv.GetPutter, opts Options) (*Ledger, error) {
	if opts.Source == nil {
		return nil, errors.New("randomness source required")
	}
	stater, err := state.NewStater(db, opts.CacheSize)
	if err != nil {
		return nil, err
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewClockworkClock(nil)
	}
	l := &Ledger{
		stater: stater,
		clock:  clock,
		source: opts.Source,
		sink:   opts.Sink,
	}

	sctx := solidity.NewContext(thor.LedgerAddress, stater.NewState())
	seq, err := solidity.NewUint256(sctx, slotSeq).Get()
	if err != nil {
		return nil, errors.Wrap(err, "load sequence")
	}
	last, err := solidity.NewUint256(sctx, slotTime).Get()
	if err != nil {
		return nil, errors.Wrap(err, "load time")
	}
	l.seq, l.last = seq.Uint64(), last.Uint64()
	logger.Info("ledger opened", "seq", l.seq, "time", l.last)
	return l, nil
}

// Head returns the sequence number and time of the latest committed operation.
func (l *Ledger) Head() (seq, time uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.seq, l.last
}

// NewWaiter returns a waiter signaled after every commit.
func (l *Ledger) NewWaiter() co.Waiter {
	return l.signal.NewWaiter()
}

// now never goes back past the latest committed operation.
func (l *Ledger) now() uint64 {
	if t := l.clock.Now(); t > l.last {
		return t
	}
	return l.last
}

// Execute runs fn as one operation issued by caller. On error nothing is committed.
func (l *Ledger) Execute(caller thor.Address, op string, fn func(c *Components) error) (*Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	now := l.now()
	st := l.stater.NewState()
	env := xenv.New(st, &xenv.BlockContext{Number: l.seq + 1, Time: now}, caller)
	c := bind(env, l.source)

	logger.Debug("executing operation", "op", op, "caller", caller, "seq", l.seq+1)
	var lengths map[thor.Address]uint64
	err := env.Call(func(*xenv.Environment) error {
		if err := checkCaller(c, caller); err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		var err error
		lengths, err = queueLengths(c)
		return err
	})
	if err != nil {
		metricOps().AddWithLabel(1, map[string]string{"op": op, "result": resultOf(err)})
		if reverts.IsRevertErr(err) {
			logger.Debug("operation reverted", "op", op, "caller", caller, "error", err)
		} else {
			logger.Warn("operation failed", "op", op, "caller", caller, "error", err)
		}
		return nil, err
	}

	sctx := solidity.NewContext(thor.LedgerAddress, st)
	solidity.NewUint256(sctx, slotSeq).Set(new(big.Int).SetUint64(l.seq + 1))
	solidity.NewUint256(sctx, slotTime).Set(new(big.Int).SetUint64(now))
	if err := st.Stage().Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	l.seq++
	l.last = now

	receipt := &Receipt{Seq: l.seq, Time: now, Events: env.Events()}
	if l.sink != nil {
		if err := l.sink.Insert(receipt.Seq, receipt.Events); err != nil {
			logger.Warn("failed to store events", "seq", receipt.Seq, "error", err)
		}
	}
	l.signal.Broadcast()

	record(receipt.Events, lengths)
	metricOps().AddWithLabel(1, map[string]string{"op": op, "result": "ok"})
	metricOpDuration().ObserveWithLabels(time.Since(start).Microseconds(), map[string]string{"op": op})
	logger.Info("operation committed", "op", op, "caller", caller, "seq", l.seq, "events", len(receipt.Events))
	return receipt, nil
}

// View runs fn over the committed state at the current time. Changes made by fn are dropped.
func (l *Ledger) View(fn func(c *Components) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	env := xenv.New(l.stater.NewState(), &xenv.BlockContext{Number: l.seq, Time: l.now()}, thor.Address{})
	return fn(bind(env, l.source))
}

func resultOf(err error) string {
	if kind := reverts.KindOf(err); kind != 0 {
		return strings.ReplaceAll(kind.String(), " ", "_")
	}
	return "error"
}
