// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/thor"
)

type Pools struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Pools {
	return &Pools{ledger}
}

func parseAddress(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

func (p *Pools) handleList(w http.ResponseWriter, _ *http.Request) error {
	var addrs []thor.Address
	if err := p.ledger.View(func(c *ledger.Components) (err error) {
		addrs, err = c.Pools.Pools()
		return
	}); err != nil {
		return err
	}
	if addrs == nil {
		addrs = []thor.Address{}
	}
	return restutil.WriteJSON(w, addrs)
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	var pool *Pool
	if err := p.ledger.View(func(c *ledger.Components) error {
		projected, err := c.Pools.Projected(addr)
		if err != nil {
			return err
		}
		if projected.Exists() {
			pool = convertPool(addr, projected)
		}
		return nil
	}); err != nil {
		return err
	}
	if pool == nil {
		return restutil.NotFound(errors.New("pool not found"))
	}
	return restutil.WriteJSON(w, pool)
}

func (p *Pools) handleGetStakeholders(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	var holders []thor.Address
	if err := p.ledger.View(func(c *ledger.Components) (err error) {
		holders, err = c.Pools.Stakeholders(addr)
		return
	}); err != nil {
		return err
	}
	if holders == nil {
		holders = []thor.Address{}
	}
	return restutil.WriteJSON(w, holders)
}

func (p *Pools) handleGetPosition(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	who, err := parseAddress(req, "who")
	if err != nil {
		return err
	}
	var pos *Position
	if err := p.ledger.View(func(c *ledger.Components) error {
		position, err := c.Pools.Position(addr, who)
		if err != nil {
			return err
		}
		earnings, err := c.Pools.Earnings(addr, who)
		if err != nil {
			return err
		}
		reserved, err := c.Pools.Reserved(addr, who)
		if err != nil {
			return err
		}
		pos = convertPosition(position, earnings, reserved)
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, pos)
}

func (p *Pools) handleGetFlags(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	flags := []*Flag{}
	if err := p.ledger.View(func(c *ledger.Components) error {
		targets, err := c.Disputes.Flagged(addr)
		if err != nil {
			return err
		}
		for _, target := range targets {
			f, err := c.Disputes.Get(addr, target)
			if err != nil {
				return err
			}
			flags = append(flags, convertFlag(f))
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, flags)
}

func (p *Pools) handleGetFlag(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	target, err := parseAddress(req, "target")
	if err != nil {
		return err
	}
	var flag *Flag
	if err := p.ledger.View(func(c *ledger.Components) error {
		f, err := c.Disputes.Get(addr, target)
		if err != nil {
			return err
		}
		if f.Exists() {
			flag = convertFlag(f)
		}
		return nil
	}); err != nil {
		return err
	}
	if flag == nil {
		return restutil.NotFound(errors.New("no open flag"))
	}
	return restutil.WriteJSON(w, flag)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleList))
	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{address}/stakes").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleGetStakeholders))
	sub.Path("/{address}/stakes/{who}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleGetPosition))
	sub.Path("/{address}/flags").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleGetFlags))
	sub.Path("/{address}/flags/{target}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleGetFlag))
}
