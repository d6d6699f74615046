// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"bytes"
	"fmt"
	"math/big"
	"net/http"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/restutil"
	builtin "github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/thor"
)

type Params struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Params {
	return &Params{ledger}
}

type Param struct {
	Name  string                `json:"name"`
	Value *math.HexOrDecimal256 `json:"value"`
}

// names lists the governable params.
func names() []string {
	out := make([]string, 0, len(builtin.Defaults))
	for key := range builtin.Defaults {
		out = append(out, string(bytes.TrimLeft(key[:], "\x00")))
	}
	sort.Strings(out)
	return out
}

func (p *Params) get(c *ledger.Components, name string) (*big.Int, error) {
	key, ok := builtin.KeyByName(name)
	if !ok {
		return nil, restutil.NotFound(fmt.Errorf("unknown param %q", name))
	}
	return c.Params.Get(key)
}

func (p *Params) handleList(w http.ResponseWriter, _ *http.Request) error {
	var list []*Param
	if err := p.ledger.View(func(c *ledger.Components) error {
		for _, name := range names() {
			v, err := p.get(c, name)
			if err != nil {
				return err
			}
			list = append(list, &Param{name, (*math.HexOrDecimal256)(v)})
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, list)
}

func (p *Params) handleGet(w http.ResponseWriter, req *http.Request) error {
	name := mux.Vars(req)["name"]
	var param *Param
	if err := p.ledger.View(func(c *ledger.Components) error {
		v, err := p.get(c, name)
		if err != nil {
			return err
		}
		param = &Param{name, (*math.HexOrDecimal256)(v)}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, param)
}

func (p *Params) handleExecutor(w http.ResponseWriter, _ *http.Request) error {
	var executor thor.Address
	if err := p.ledger.View(func(c *ledger.Components) (err error) {
		executor, err = c.Params.Executor()
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"executor": &executor})
}

func (p *Params) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleList))
	sub.Path("/executor").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleExecutor))
	sub.Path("/{name}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(p.handleGet))
}
