// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	"github.com/vechain/stakeledger/api/events"
)

// maxReadOps bounds the operations scanned by one read.
const maxReadOps = 100

type headFunc func() uint64

type eventReader struct {
	head   headFunc
	cache  *messageCache
	filter *EventFilter
	pos    uint64 // last operation read
}

func newEventReader(head headFunc, cache *messageCache, pos uint64, filter *EventFilter) *eventReader {
	return &eventReader{
		head:   head,
		cache:  cache,
		filter: filter,
		pos:    pos,
	}
}

// Read returns the matching events of the operations after the position, and whether
// the position moved.
func (er *eventReader) Read(ctx context.Context) ([]*events.FilteredEvent, bool, error) {
	head := er.head()
	if head <= er.pos {
		return nil, false, nil
	}
	if head-er.pos > maxReadOps {
		head = er.pos + maxReadOps
	}

	var msgs []*events.FilteredEvent
	for seq := er.pos + 1; seq <= head; seq++ {
		evs, err := er.cache.Events(ctx, seq)
		if err != nil {
			return nil, false, err
		}
		for _, ev := range evs {
			if er.filter.Match(ev) {
				msgs = append(msgs, events.ConvertEvent(ev))
			}
		}
	}
	er.pos = head
	return msgs, true, nil
}
