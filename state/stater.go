// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/stakeledger/kv"
)

const storageBucket = kv.Bucket("s")

// Stater is the state creator.
type Stater struct {
	db    kv.GetPutter
	cache *slotCache
}

// NewStater create a new stater.
// cacheSize is the number of bytes of committed storage kept in memory, 0 disables the cache.
func NewStater(db kv.GetPutter, cacheSize int) (*Stater, error) {
	s := &Stater{db: storageBucket.ProxyGetPutter(db)}
	if cacheSize > 0 {
		s.cache = newSlotCache(cacheSize)
	}
	return s, nil
}

// NewState create a new state object over the committed storage.
func (s *Stater) NewState() *State {
	return New(s.db, s.cache)
}

// CacheStats returns hit and miss counts of the committed storage cache.
func (s *Stater) CacheStats() (hit, miss int64) {
	if s.cache == nil {
		return 0, 0
	}
	return s.cache.stats()
}
