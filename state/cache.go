// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"slices"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/qianbin/directcache"
)

// slotCache keeps committed storage values, absent slots included, by db key.
type slotCache struct {
	c         *directcache.Cache
	hit, miss atomic.Int64
}

func newSlotCache(sizeBytes int) *slotCache {
	return &slotCache{c: directcache.New(sizeBytes)}
}

func (c *slotCache) getOrLoad(key []byte, load func() (rlp.RawValue, error)) (rlp.RawValue, error) {
	var v rlp.RawValue
	if c.c.AdvGet(key, func(val []byte) { v = slices.Clone(val) }, false) {
		c.hit.Add(1)
		return v, nil
	}
	c.miss.Add(1)
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.c.Set(key, v)
	return v, nil
}

func (c *slotCache) set(key []byte, v rlp.RawValue) {
	c.c.Set(key, v)
}

func (c *slotCache) stats() (hit, miss int64) {
	return c.hit.Load(), c.miss.Load()
}
