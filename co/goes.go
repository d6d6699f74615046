// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
	"sync/atomic"
)

// Goes runs goroutines sharing one stop channel. The zero value is ready to use.
type Goes struct {
	wg      sync.WaitGroup
	once    sync.Once
	stop    chan struct{}
	running atomic.Int64
}

func (g *Goes) stopChan() chan struct{} {
	g.once.Do(func() { g.stop = make(chan struct{}) })
	return g.stop
}

// Go runs f in a goroutine. f should return soon after stop is closed.
func (g *Goes) Go(f func(stop <-chan struct{})) {
	stop := g.stopChan()
	g.wg.Add(1)
	g.running.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.running.Add(-1)
		f(stop)
	}()
}

// Running returns the number of goroutines not yet returned.
func (g *Goes) Running() int64 {
	return g.running.Load()
}

// Stop closes the stop channel and waits for every goroutine. Safe to call more than once.
func (g *Goes) Stop() {
	stop := g.stopChan()
	select {
	case <-stop:
	default:
		close(stop)
	}
	g.wg.Wait()
}

// Done returns a channel closed once all goroutines have returned.
func (g *Goes) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.wg.Wait()
	}()
	return done
}
