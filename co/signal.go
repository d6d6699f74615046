// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter hands out channels closed by the next broadcast.
// Each call to C returns the channel taken at the previous call, so a broadcast
// that happened between two reads is never missed.
type Waiter interface {
	C() <-chan struct{}
}

// Signal wakes all waiters on Broadcast. The zero value is ready to use.
type Signal struct {
	mu    sync.Mutex
	ch    chan struct{}
	count uint64
}

func (s *Signal) current() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Broadcast wakes every goroutine waiting on s.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		close(s.ch)
	}
	s.ch = make(chan struct{})
	s.count++
}

// Count returns the number of broadcasts so far.
func (s *Signal) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// NewWaiter creates a waiter whose first channel is the current one.
func (s *Signal) NewWaiter() Waiter {
	return &waiter{s: s, ch: s.current()}
}

type waiter struct {
	s  *Signal
	ch chan struct{}
}

func (w *waiter) C() <-chan struct{} {
	ch := w.ch
	w.ch = w.s.current()
	return ch
}
