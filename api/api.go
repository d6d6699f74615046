// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the ledger over http: reads, operations, event queries and streams.
package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/vechain/stakeledger/api/accounts"
	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/middleware"
	"github.com/vechain/stakeledger/api/node"
	"github.com/vechain/stakeledger/api/params"
	"github.com/vechain/stakeledger/api/pools"
	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/api/transactions"
	"github.com/vechain/stakeledger/api/vaults"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/metrics"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableMetrics        bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	LogsLimit            uint64
	RateLimit            float64 // requests per second per client, 0 disables
	RateBurst            int
	MessageCacheSize     uint32
}

// New return api router
func New(l *ledger.Ledger, db *eventdb.EventDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(l).
		Mount(router, "/accounts")
	params.New(l).
		Mount(router, "/params")
	pools.New(l).
		Mount(router, "/pools")
	vaults.New(l).
		Mount(router, "/vaults")
	node.New(l).
		Mount(router, "/node")
	transactions.New(l).
		Mount(router, "/transactions")
	events.New(db, opts.LogsLimit).
		Mount(router, "/events")
	subs := subscriptions.New(l, db, origins, opts.MessageCacheSize)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	stop := make(chan struct{})
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter := middleware.NewRateLimiter(rate.Limit(opts.RateLimit), burst)
		router.Use(middleware.RateLimitMiddleware(limiter))
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					limiter.Prune()
				}
			}
		}()
	}

	var handler http.Handler = router
	if opts.EnableReqLogger != nil {
		handler = middleware.RequestLoggerMiddleware(logger, opts.EnableReqLogger, opts.SlowQueriesThreshold)(handler)
	}
	handler = handlers.CompressHandler(handler)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(handler)

	// subscriptions handles hijacked conns, which need to be closed
	return handler.ServeHTTP, func() {
		close(stop)
		subs.Close()
	}
}
