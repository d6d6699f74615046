// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vechain/stakeledger/api/restutil"
)

type Status struct {
	Healthy       bool   `json:"healthy"`
	Seq           uint64 `json:"seq"`
	LastOperation uint64 `json:"lastOperation"` // ledger time of the latest operation
	Uptime        string `json:"uptime"`
}

// HeadFunc returns the sequence number and time of the latest operation.
type HeadFunc func() (seq, time uint64)

type Health struct {
	head    HeadFunc
	started time.Time
	ready   func() bool
}

// New returns the health endpoint. ready reports whether the service accepts operations.
func New(head HeadFunc, ready func() bool) *Health {
	return &Health{head: head, started: time.Now(), ready: ready}
}

func (h *Health) handleGetHealth(w http.ResponseWriter, _ *http.Request) error {
	seq, last := h.head()
	status := Status{
		Healthy:       h.ready(),
		Seq:           seq,
		LastOperation: last,
		Uptime:        time.Since(h.started).Truncate(time.Second).String(),
	}
	if !status.Healthy {
		w.Header().Set("Content-Type", restutil.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return restutil.WriteJSON(w, status)
}

func (h *Health) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("health").
		HandlerFunc(restutil.WrapHandlerFunc(h.handleGetHealth))
}
