// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyContextLogger(t *testing.T) {
	defer SetDefault(NewLogger(DiscardHandler()))

	pkgLogger := WithContext("pkg", "test")

	// configured after the package logger is declared
	var buf bytes.Buffer
	var level slog.LevelVar
	level.Set(LevelInfo)
	SetDefault(NewLogger(JSONHandlerWithLevel(&buf, &level)))

	pkgLogger.Debug("hidden")
	pkgLogger.Info("applied", "amount", big.NewInt(42), "u", uint256.NewInt(7))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "applied", record["msg"])
	assert.Equal(t, "info", record["lvl"])
	assert.Equal(t, "test", record["pkg"])
	assert.Equal(t, "42", record["amount"])
	assert.Equal(t, "7", record["u"])
}

func TestTerminalHandler(t *testing.T) {
	var buf bytes.Buffer
	var level slog.LevelVar
	level.Set(LevelTrace)
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, &level, false)).With("pkg", "term")

	l.Trace("tracing", "value", big.NewInt(1))
	out := buf.String()
	assert.Contains(t, out, "TRA")
	assert.Contains(t, out, "tracing")
	assert.Contains(t, out, "pkg=term")
	assert.Contains(t, out, "value=1")
}

func TestFromLegacyLevel(t *testing.T) {
	assert.Equal(t, LevelCrit, FromLegacyLevel(0))
	assert.Equal(t, LevelInfo, FromLegacyLevel(3))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
	assert.Equal(t, "warn", LevelString(LevelWarn))
}
