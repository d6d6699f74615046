// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

// Key is an identifier that can be linked. The zero key marks the list ends.
type Key interface {
	comparable
	Bytes() []byte
	IsZero() bool
}

// LinkedList is a doubly linked list kept in storage.
// Nodes are addressed by position, so one list per (head, tail, count) slot triple.
type LinkedList[K Key] struct {
	head  *solidity.Mapping[thor.Bytes32, K]
	tail  *solidity.Mapping[thor.Bytes32, K]
	count *solidity.Uint256
	next  *solidity.Mapping[K, K]
	prev  *solidity.Mapping[K, K]
	ends  thor.Bytes32
}

// New creates a list whose pointers live under the given base slot.
func New[K Key](sctx *solidity.Context, base thor.Bytes32) *LinkedList[K] {
	return &LinkedList[K]{
		head:  solidity.NewMapping[thor.Bytes32, K](sctx, thor.Blake2b(base.Bytes(), []byte("head"))),
		tail:  solidity.NewMapping[thor.Bytes32, K](sctx, thor.Blake2b(base.Bytes(), []byte("tail"))),
		count: solidity.NewUint256(sctx, thor.Blake2b(base.Bytes(), []byte("count"))),
		next:  solidity.NewMapping[K, K](sctx, thor.Blake2b(base.Bytes(), []byte("next"))),
		prev:  solidity.NewMapping[K, K](sctx, thor.Blake2b(base.Bytes(), []byte("prev"))),
		ends:  base,
	}
}

// Add appends a key to the end of the list, keeping FIFO order.
func (l *LinkedList[K]) Add(key K) error {
	if key.IsZero() {
		return errors.New("zero key")
	}
	oldTail, err := l.Tail()
	if err != nil {
		return err
	}

	if oldTail.IsZero() {
		// the list is currently empty, set this entry to head & tail
		if err := l.head.Set(l.ends, key); err != nil {
			return err
		}
		if err := l.tail.Set(l.ends, key); err != nil {
			return err
		}
		return l.count.Add(big.NewInt(1))
	}

	if err := l.next.Set(oldTail, key); err != nil {
		return err
	}
	if err := l.prev.Set(key, oldTail); err != nil {
		return err
	}
	if err := l.tail.Set(l.ends, key); err != nil {
		return err
	}
	return l.count.Add(big.NewInt(1))
}

// Contains reports whether key is linked.
func (l *LinkedList[K]) Contains(key K) (bool, error) {
	if key.IsZero() {
		return false, nil
	}
	prev, err := l.prev.Get(key)
	if err != nil {
		return false, err
	}
	if !prev.IsZero() {
		return true, nil
	}
	head, err := l.Head()
	if err != nil {
		return false, err
	}
	return head == key, nil
}

// Remove extracts a key from anywhere in the list, reconnecting adjacent nodes.
// Removing an unlinked key is a no-op.
func (l *LinkedList[K]) Remove(key K) error {
	linked, err := l.Contains(key)
	if err != nil || !linked {
		return err
	}

	prev, err := l.prev.Get(key)
	if err != nil {
		return err
	}
	next, err := l.next.Get(key)
	if err != nil {
		return err
	}

	if !prev.IsZero() {
		if err := l.next.Set(prev, next); err != nil {
			return err
		}
	} else if err := l.head.Set(l.ends, next); err != nil {
		return err
	}

	if !next.IsZero() {
		if err := l.prev.Set(next, prev); err != nil {
			return err
		}
	} else if err := l.tail.Set(l.ends, prev); err != nil {
		return err
	}

	l.next.Delete(key)
	l.prev.Delete(key)

	return l.count.Sub(big.NewInt(1))
}

// Pop removes and returns the oldest entry.
func (l *LinkedList[K]) Pop() (K, error) {
	var zero K
	head, err := l.Head()
	if err != nil {
		return zero, err
	}
	if head.IsZero() {
		return zero, errors.New("list is empty")
	}
	if err := l.Remove(head); err != nil {
		return zero, err
	}
	return head, nil
}

// Head returns the oldest key, zero if empty.
func (l *LinkedList[K]) Head() (K, error) {
	return l.head.Get(l.ends)
}

// Tail returns the latest key, zero if empty.
func (l *LinkedList[K]) Tail() (K, error) {
	return l.tail.Get(l.ends)
}

// Next returns the successor key, or zero key if at the end.
func (l *LinkedList[K]) Next(key K) (K, error) {
	return l.next.Get(key)
}

// Len returns the number of linked keys.
func (l *LinkedList[K]) Len() (uint64, error) {
	n, err := l.count.Get()
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Iter traverses the list in FIFO order, calling callback for each key until completion or error.
// The callback may remove the visited key.
func (l *LinkedList[K]) Iter(callback func(K) error) error {
	ptr, err := l.Head()
	if err != nil {
		return err
	}

	for !ptr.IsZero() {
		next, err := l.next.Get(ptr)
		if err != nil {
			return err
		}
		if err := callback(ptr); err != nil {
			return err
		}
		ptr = next
	}
	return nil
}

// Keys returns all linked keys in order.
func (l *LinkedList[K]) Keys() ([]K, error) {
	var keys []K
	err := l.Iter(func(k K) error {
		keys = append(keys, k)
		return nil
	})
	return keys, err
}
