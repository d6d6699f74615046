// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api/admin"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/randomness"
)

// maxClockOffset is the drift tolerated before a warning, operations are timed in seconds.
const maxClockOffset = 5 * time.Second

func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	switch format := ctx.String(logFormatFlag.Name); format {
	case "terminal", "":
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)
	case "json":
		handler = log.JSONHandlerWithLevel(os.Stderr, lvl)
	case "logfmt":
		handler = log.LogfmtHandlerWithLevel(os.Stderr, lvl)
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
	log.SetDefault(log.NewLogger(handler))
	return lvl, nil
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 128 {
		sizeMB = 128
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		log.Warn("failed to get fd limit", "err", err)
		return 500
	}
	if limit <= 1024 {
		log.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

// cacheSize returns the MiB of ram for caches, half for the database and half for committed storage.
func cacheSize(ctx *cli.Context) int {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	log.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the caches for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	log.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))
	return cacheMB
}

func openMainDB(dataDir string, cacheMB int) (*lvldb.LevelDB, error) {
	dir := filepath.Join(dataDir, "ledger.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: suggestFDCache(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger database [%v]", dir)
	}
	return db, nil
}

func openEventDB(dataDir string) (*eventdb.EventDB, error) {
	dir := filepath.Join(dataDir, "events.db")
	db, err := eventdb.New(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open event database [%v]", dir)
	}
	return db, nil
}

func loadVRFSource(dataDir string) (*randomness.VRFSource, error) {
	key, err := randomness.LoadOrGenerateKey(filepath.Join(dataDir, "vrf.key"))
	if err != nil {
		return nil, err
	}
	return randomness.NewVRFSource(key), nil
}

// serve runs srv on addr inside g until ctx is done.
func serve(ctx context.Context, g *errgroup.Group, name, addr string, handler http.Handler) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "listen %v addr [%v]", name, addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return errors.Wrapf(err, "%v server", name)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("stopping server...", "name", name)
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			srv.Close()
		}
		return nil
	})
	return "http://" + listener.Addr().String() + "/", nil
}

func handleAPITimeout(handler http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// websocket connections outlive any request timeout
		if strings.HasPrefix(r.URL.Path, "/subscriptions") {
			handler.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		handler.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestBodyLimit caps request bodies at 200kb.
func requestBodyLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 200*1024)
		h.ServeHTTP(w, r)
	})
}

func startAPIServer(ctx context.Context, g *errgroup.Group, cliCtx *cli.Context, handler http.Handler) (string, error) {
	if timeout := cliCtx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	return serve(ctx, g, "API", cliCtx.String(apiAddrFlag.Name), requestBodyLimit(handler))
}

func startMetricsServer(ctx context.Context, g *errgroup.Group, addr string) (string, error) {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	url, err := serve(ctx, g, "metrics", addr, handlers.CompressHandler(router))
	if err != nil {
		return "", err
	}
	return url + "metrics", nil
}

func startAdminServer(
	ctx context.Context,
	g *errgroup.Group,
	addr string,
	logLevel *slog.LevelVar,
	apiLogs *atomic.Bool,
	l *ledger.Ledger,
	ready func() bool,
) (string, error) {
	url, err := serve(ctx, g, "admin", addr, admin.New(logLevel, apiLogs, l.Head, ready))
	if err != nil {
		return "", err
	}
	return url + "admin", nil
}

// checkClockOffset warns when the local clock, which times every operation, drifts.
func checkClockOffset(server string) {
	if server == "" {
		return
	}
	resp, err := ntp.Query(server)
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > maxClockOffset {
		log.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}

func printStartupMessage(dataDir string, l *ledger.Ledger, apiURL, metricsURL, adminURL string) {
	seq, t := l.Head()
	fmt.Printf(`Starting %v
    Head         [ #%v @%v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
    Admin        [ %v ]
`,
		"StakeLedger/"+fullVersion(),
		seq, time.Unix(int64(t), 0),
		dataDir,
		apiURL,
		orDisabled(metricsURL),
		orDisabled(adminURL),
	)
}

func orDisabled(url string) string {
	if url == "" {
		return "Disabled"
	}
	return url
}
