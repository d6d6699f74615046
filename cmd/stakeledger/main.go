// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/randomness"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	if err := loadEnvFile(envFileFromArgs(os.Args[1:])); err != nil {
		fmt.Fprintln(os.Stderr, "load env file:", err)
		os.Exit(1)
	}

	app := cli.App{
		Version:   fullVersion(),
		Name:      "StakeLedger",
		Usage:     "Staking ledger with reward pools, delegation vaults and vote-kick disputes",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			dataDirFlag,
			inMemoryFlag,
			configFlag,
			envFileFlag,
			executorFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiLogsLimitFlag,
			apiSlowQueriesThresholdFlag,
			apiRateLimitFlag,
			apiRateBurstFlag,
			apiMessageCacheFlag,
			enableAPILogsFlag,
			verbosityFlag,
			logFormatFlag,
			cacheFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			ntpServerFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "vrfkey",
				Usage:  "print the address of the committee randomness key, creating it if absent",
				Flags:  []cli.Flag{dataDirFlag},
				Action: vrfKeyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitCtx := handleExitSignal()
	defer func() { log.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	cacheMB := cacheSize(ctx)
	var (
		mainDB  kv.GetPutCloser
		eventDB *eventdb.EventDB
		source  *randomness.VRFSource
		dataDir = "Memory"
	)
	if ctx.Bool(inMemoryFlag.Name) {
		if mainDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if eventDB, err = eventdb.NewMem(); err != nil {
			return err
		}
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		source = randomness.NewVRFSource(key)
	} else {
		if dataDir, err = makeDataDir(ctx); err != nil {
			return err
		}
		if mainDB, err = openMainDB(dataDir, cacheMB/2); err != nil {
			return err
		}
		if eventDB, err = openEventDB(dataDir); err != nil {
			mainDB.Close()
			return err
		}
		if source, err = loadVRFSource(dataDir); err != nil {
			mainDB.Close()
			eventDB.Close()
			return err
		}
	}
	defer func() { log.Info("closing ledger database..."); mainDB.Close() }()
	defer func() { log.Info("closing event database..."); eventDB.Close() }()

	l, err := ledger.New(mainDB, ledger.Options{
		CacheSize: cacheMB / 2 * 1024 * 1024,
		Source:    source,
		Sink:      eventDB,
	})
	if err != nil {
		return err
	}
	if err := bootstrap(ctx, l); err != nil {
		return err
	}

	var ready atomic.Bool
	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	g, gctx := errgroup.WithContext(exitCtx)

	apiHandler, apiCloser := api.New(l, eventDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		LogsLimit:            ctx.Uint64(apiLogsLimitFlag.Name),
		RateLimit:            ctx.Float64(apiRateLimitFlag.Name),
		RateBurst:            ctx.Int(apiRateBurstFlag.Name),
		MessageCacheSize:     uint32(ctx.Uint64(apiMessageCacheFlag.Name)),
	})
	defer func() { log.Info("stopping API server..."); apiCloser() }()

	apiURL, err := startAPIServer(gctx, g, ctx, apiHandler)
	if err != nil {
		return err
	}
	var metricsURL, adminURL string
	if ctx.Bool(enableMetricsFlag.Name) {
		if metricsURL, err = startMetricsServer(gctx, g, ctx.String(metricsAddrFlag.Name)); err != nil {
			return err
		}
	}
	if ctx.Bool(enableAdminFlag.Name) {
		adminURL, err = startAdminServer(gctx, g, ctx.String(adminAddrFlag.Name), logLevel, apiLogs, l, ready.Load)
		if err != nil {
			return err
		}
	}

	g.Go(func() error {
		clockCheck(gctx, ctx.String(ntpServerFlag.Name))
		return nil
	})

	printStartupMessage(dataDir, l, apiURL, metricsURL, adminURL)
	ready.Store(true)

	return g.Wait()
}

// bootstrap applies the configured initial state to an empty ledger.
func bootstrap(ctx *cli.Context, l *ledger.Ledger) error {
	b := &Bootstrap{}
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if b, err = loadBootstrap(path); err != nil {
			return err
		}
	}
	if executor := ctx.String(executorFlag.Name); executor != "" {
		b.Executor = executor
	}
	if seq, _ := l.Head(); seq == 0 && b.Executor == "" {
		log.Warn("empty ledger without executor, governance operations are disabled until one is configured")
		return nil
	}
	return b.Apply(l)
}

func clockCheck(ctx context.Context, server string) {
	checkClockOffset(server)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkClockOffset(server)
		}
	}
}

func vrfKeyAction(ctx *cli.Context) error {
	dataDir := ctx.String(dataDirFlag.Name)
	if strings.TrimSpace(dataDir) == "" {
		return errors.New("data dir required")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	source, err := loadVRFSource(dataDir)
	if err != nil {
		return err
	}
	fmt.Printf("key:     %v\n", filepath.Join(dataDir, "vrf.key"))
	fmt.Printf("address: %v\n", source.Address())
	return nil
}
