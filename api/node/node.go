// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/restutil"
	"github.com/vechain/stakeledger/ledger"
)

type Head struct {
	Seq         uint64                `json:"seq"`
	Time        uint64                `json:"time"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
}

type Node struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Node {
	return &Node{ledger}
}

func (n *Node) handleHead(w http.ResponseWriter, _ *http.Request) error {
	var supply *big.Int
	if err := n.ledger.View(func(c *ledger.Components) (err error) {
		supply, err = c.Token.TotalSupply()
		return
	}); err != nil {
		return err
	}
	seq, time := n.ledger.Head()
	return restutil.WriteJSON(w, &Head{seq, time, (*math.HexOrDecimal256)(supply)})
}

func (n *Node) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/head").Methods(http.MethodGet).HandlerFunc(restutil.WrapHandlerFunc(n.handleHead))
}
