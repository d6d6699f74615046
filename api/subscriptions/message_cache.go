// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"fmt"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/eventdb"
)

// messageCache keeps the events of recent operations, shared by all subscribers.
type messageCache struct {
	cache *cache.LRU
	db    *eventdb.EventDB
}

func newMessageCache(db *eventdb.EventDB, cacheSize uint32) *messageCache {
	if cacheSize > 1000 {
		cacheSize = 1000
	}
	if cacheSize == 0 {
		cacheSize = 1
	}
	lru, err := cache.NewLRU(int(cacheSize))
	if err != nil {
		// NewLRU only throws an error if the number is less than 1
		panic(fmt.Errorf("failed to create message cache: %v", err))
	}
	return &messageCache{lru, db}
}

// Events returns the events of the operation seq.
func (mc *messageCache) Events(ctx context.Context, seq uint64) ([]*eventdb.Event, error) {
	v, err := mc.cache.GetOrLoad(seq, func(any) (any, error) {
		return mc.db.Filter(ctx, &eventdb.Filter{AfterSeq: seq - 1, UntilSeq: seq})
	})
	if err != nil {
		return nil, err
	}
	return v.([]*eventdb.Event), nil
}
