// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Clock supplies the logical time, in seconds, of the next operation.
type Clock interface {
	Now() uint64
}

// ManualClock is moved explicitly. Used by tests and replays.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

func NewManualClock(now uint64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now. Moving backwards is an error.
func (c *ManualClock) Set(now uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now < c.now {
		return errors.Errorf("clock cannot move backwards from %d to %d", c.now, now)
	}
	c.now = now
	return nil
}

// Advance moves the clock forward by secs.
func (c *ManualClock) Advance(secs uint64) {
	c.mu.Lock()
	c.now += secs
	c.mu.Unlock()
}

// ClockworkClock reads unix seconds from a clockwork clock, the wall clock in production.
type ClockworkClock struct {
	clock clockwork.Clock
}

func NewClockworkClock(clock clockwork.Clock) *ClockworkClock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockworkClock{clock: clock}
}

func (c *ClockworkClock) Now() uint64 {
	t := c.clock.Now()
	if t.Before(time.Unix(0, 0)) {
		return 0
	}
	return uint64(t.Unix())
}
