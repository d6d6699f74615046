// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/thor"
)

// EventFilter selects streamed events. Nil fields match everything.
type EventFilter struct {
	Address *thor.Address
	Subject *thor.Address
	Names   map[string]bool
}

func (f *EventFilter) Match(ev *eventdb.Event) bool {
	if f.Address != nil && *f.Address != ev.Address {
		return false
	}
	if f.Subject != nil && *f.Subject != ev.Subject {
		return false
	}
	if len(f.Names) > 0 && !f.Names[ev.Name] {
		return false
	}
	return true
}

func parseAddress(query url.Values, name string) (*thor.Address, error) {
	s := query.Get(name)
	if s == "" {
		return nil, nil
	}
	addr, err := thor.ParseAddress(s)
	if err != nil {
		return nil, errors.WithMessage(err, name)
	}
	return addr, nil
}

// parseEventQuery reads the position and the filter of an event subscription.
func parseEventQuery(query url.Values) (pos uint64, filter *EventFilter, err error) {
	if s := query.Get("pos"); s != "" {
		if pos, err = strconv.ParseUint(s, 10, 64); err != nil {
			return 0, nil, errors.WithMessage(err, "pos")
		}
	}
	filter = &EventFilter{}
	if filter.Address, err = parseAddress(query, "address"); err != nil {
		return
	}
	if filter.Subject, err = parseAddress(query, "subject"); err != nil {
		return
	}
	if names := query["name"]; len(names) > 0 {
		filter.Names = make(map[string]bool, len(names))
		for _, name := range names {
			filter.Names[name] = true
		}
	}
	return
}
