// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vaults

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/thor"
)

type Vaults struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Vaults {
	return &Vaults{ledger}
}

func parseAddress(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, restutil.BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

func (v *Vaults) handleList(w http.ResponseWriter, _ *http.Request) error {
	var addrs []thor.Address
	if err := v.ledger.View(func(c *ledger.Components) (err error) {
		addrs, err = c.Vaults.Vaults()
		return
	}); err != nil {
		return err
	}
	if addrs == nil {
		addrs = []thor.Address{}
	}
	return restutil.WriteJSON(w, addrs)
}

func (v *Vaults) handleGetVault(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	var vault *Vault
	if err := v.ledger.View(func(c *ledger.Components) error {
		rec, err := c.Vaults.Vault(addr)
		if err != nil || !rec.Exists() {
			return err
		}
		vault = &Vault{
			Address:      addr,
			Owner:        rec.Owner,
			OperatorsCut: (*math.HexOrDecimal256)(rec.OperatorsCut),
			TotalShares:  (*math.HexOrDecimal256)(rec.TotalShares),
			TotalStaked:  (*math.HexOrDecimal256)(rec.TotalStaked),
			CreatedAt:    rec.CreatedAt,
		}
		free, err := c.Vaults.FreeCapital(addr)
		if err != nil {
			return err
		}
		value, err := c.Vaults.ValueApprox(addr)
		if err != nil {
			return err
		}
		rate, err := c.Vaults.ExchangeRate(addr)
		if err != nil {
			return err
		}
		if vault.Pools, err = c.Vaults.Pools(addr); err != nil {
			return err
		}
		if vault.QueueLength, err = c.Vaults.QueueLength(addr); err != nil {
			return err
		}
		vault.FreeCapital = (*math.HexOrDecimal256)(free)
		vault.Value = (*math.HexOrDecimal256)(value)
		vault.ExchangeRate = (*math.HexOrDecimal256)(rate)
		return nil
	}); err != nil {
		return err
	}
	if vault == nil {
		return restutil.NotFound(errors.New("vault not found"))
	}
	return restutil.WriteJSON(w, vault)
}

func (v *Vaults) handleGetShares(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	who, err := parseAddress(req, "who")
	if err != nil {
		return err
	}
	var shares *Shares
	if err := v.ledger.View(func(c *ledger.Components) error {
		rec, err := c.Vaults.Vault(addr)
		if err != nil {
			return err
		}
		n, err := c.Vaults.SharesOf(addr, who)
		if err != nil {
			return err
		}
		value := new(big.Int)
		if rec.Exists() && rec.TotalShares.Sign() > 0 {
			total, err := c.Vaults.ValueApprox(addr)
			if err != nil {
				return err
			}
			value.Mul(n, total)
			value.Quo(value, rec.TotalShares)
		}
		shares = &Shares{
			Shares: (*math.HexOrDecimal256)(n),
			Value:  (*math.HexOrDecimal256)(value),
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, shares)
}

func (v *Vaults) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	stakes := []*Stake{}
	if err := v.ledger.View(func(c *ledger.Components) error {
		pools, err := c.Vaults.Pools(addr)
		if err != nil {
			return err
		}
		for _, pool := range pools {
			s, err := c.Vaults.Stake(addr, pool)
			if err != nil {
				return err
			}
			stakes = append(stakes, convertStake(pool, s))
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, stakes)
}

func (v *Vaults) handleGetQueue(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	queue := []*QueueEntry{}
	if err := v.ledger.View(func(c *ledger.Components) error {
		entries, err := c.Vaults.QueueEntries(addr)
		if err != nil {
			return err
		}
		for _, e := range entries {
			queue = append(queue, convertQueueEntry(e))
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, queue)
}

func (v *Vaults) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(v.handleList))
	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(v.handleGetVault))
	sub.Path("/{address}/shares/{who}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(v.handleGetShares))
	sub.Path("/{address}/stakes").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(v.handleGetStakes))
	sub.Path("/{address}/queue").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(v.handleGetQueue))
}
