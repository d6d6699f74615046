// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key-value store the ledger state is committed to.
package kv

// Getter reads keys. Get fails with an error satisfying IsNotFound for absent keys.
type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(error) bool

	NewIterator(r Range) Iterator
}

// Putter writes keys.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch collects writes applied together by Write.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// GetPutter is a store that also hands out batches.
type GetPutter interface {
	Getter
	Putter

	NewBatch() Batch
}

// GetPutCloser is a GetPutter owning its resources.
type GetPutCloser interface {
	GetPutter
	Close() error
}

// Iterator walks keys in ascending order. Release must be called when done.
type Iterator interface {
	Next() bool
	Release()
	Error() error

	Key() []byte
	Value() []byte
}

// Range is the key range [From, To). An empty To means no upper bound.
type Range struct {
	From []byte
	To   []byte
}
