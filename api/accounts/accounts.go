// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/thor"
)

type Account struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
	IsPool  bool                  `json:"isPool"`
	IsVault bool                  `json:"isVault"`
	Vault   *thor.Address         `json:"vault,omitempty"` // vault owned by the account
}

type Accounts struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Accounts {
	return &Accounts{ledger}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "address"))
	}
	var acc Account
	if err := a.ledger.View(func(c *ledger.Components) error {
		balance, err := c.Token.BalanceOf(*addr)
		if err != nil {
			return err
		}
		acc.Balance = (*math.HexOrDecimal256)(balance)
		if acc.IsPool, err = c.Pools.IsPool(*addr); err != nil {
			return err
		}
		if acc.IsVault, err = c.Vaults.IsVault(*addr); err != nil {
			return err
		}
		owned, err := c.Vaults.VaultOf(*addr)
		if err != nil {
			return err
		}
		if !owned.IsZero() {
			acc.Vault = &owned
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &acc)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(a.handleGetAccount))
}
