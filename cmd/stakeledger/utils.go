// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vechain/stakeledger/log"
)

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakeledger")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakeledger")
		default:
			return filepath.Join(home, ".org.vechain.stakeledger")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// loadEnvFile loads path into the process environment without overriding what is set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// envFileFromArgs finds the env-file flag before the cli parses flags, whose defaults read the environment.
func envFileFromArgs(args []string) string {
	path := envFileFlag.Value
	for i, arg := range args {
		switch arg {
		case "-env-file", "--env-file":
			if i+1 < len(args) {
				path = args[i+1]
			}
		default:
			for _, prefix := range []string{"-env-file=", "--env-file="} {
				if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
					path = arg[len(prefix):]
				}
			}
		}
	}
	return path
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
