// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/pools"
	"github.com/vechain/stakeledger/api/transactions"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/randomness"
	"github.com/vechain/stakeledger/thor"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

var (
	executor = thor.BytesToAddress([]byte("executor"))
	alice    = thor.BytesToAddress([]byte("alice"))
	bob      = thor.BytesToAddress([]byte("bob"))
)

type testServer struct {
	*httptest.Server
	ledger *ledger.Ledger
	clock  *ledger.ManualClock
}

func newTestServer(t *testing.T) *testServer {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	edb, err := eventdb.NewMem()
	require.NoError(t, err)

	clock := ledger.NewManualClock(1000)
	l, err := ledger.New(db, ledger.Options{CacheSize: 1 << 20, Clock: clock, Source: randomness.FixedSource{1}, Sink: edb})
	require.NoError(t, err)
	_, err = l.Init(executor)
	require.NoError(t, err)

	handler, closer := api.New(l, edb, api.Options{
		AllowedOrigins:   "*",
		EnableMetrics:    true,
		LogsLimit:        100,
		MessageCacheSize: 16,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		ts.Close()
		closer()
		edb.Close()
		db.Close()
	})
	return &testServer{ts, l, clock}
}

func (ts *testServer) send(t *testing.T, caller thor.Address, op string, args any) (int, []byte) {
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	body, err := json.Marshal(&transactions.Request{Caller: caller, Op: op, Args: raw})
	require.NoError(t, err)
	res, err := http.Post(ts.URL+"/transactions", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, out
}

func (ts *testServer) mustSend(t *testing.T, caller thor.Address, op string, args any) *transactions.Receipt {
	code, body := ts.send(t, caller, op, args)
	require.Equal(t, http.StatusOK, code, string(body))
	var r transactions.Receipt
	require.NoError(t, json.Unmarshal(body, &r))
	return &r
}

func (ts *testServer) get(t *testing.T, path string, v any) int {
	res, err := http.Get(ts.URL + path) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	if v != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(v))
	}
	return res.StatusCode
}

// setupPool creates a funded pool with alice staking 200, at rate 1 per second.
func setupPool(t *testing.T, ts *testServer) thor.Address {
	ts.mustSend(t, executor, "set_param", map[string]any{"name": "min-stake", "value": "10"})
	ts.mustSend(t, executor, "register_identity", map[string]any{"id": "validator-1"})
	for _, kind := range []string{rewardpool.PolicyStakeWeighted, rewardpool.PolicyDefaultLeave} {
		ts.mustSend(t, executor, "approve_policy", map[string]any{"kind": kind, "approved": true})
	}
	ts.mustSend(t, executor, "mint", map[string]any{"to": alice.String(), "amount": "1000"})

	r := ts.mustSend(t, alice, "create_pool", map[string]any{
		"poolSpec": map[string]any{"externalId": "validator-1", "rate": "1"},
	})
	require.NotNil(t, r.Created)
	pool := *r.Created

	ts.mustSend(t, alice, "fund_pool", map[string]any{"pool": pool.String(), "amount": "100"})
	ts.mustSend(t, alice, "stake", map[string]any{"pool": pool.String(), "amount": "200"})
	return pool
}

func TestOperations(t *testing.T) {
	ts := newTestServer(t)
	pool := setupPool(t, ts)
	ts.clock.Advance(10)

	var p pools.Pool
	require.Equal(t, http.StatusOK, ts.get(t, "/pools/"+pool.String(), &p))
	assert.Equal(t, "validator-1", p.ExternalID)
	assert.True(t, p.Running)
	assert.Equal(t, int64(90), (*big.Int)(p.Funding).Int64())

	var pos pools.Position
	require.Equal(t, http.StatusOK, ts.get(t, "/pools/"+pool.String()+"/stakes/"+alice.String(), &pos))
	assert.Equal(t, int64(200), (*big.Int)(pos.Stake).Int64())
	assert.Equal(t, int64(10), (*big.Int)(pos.Earnings).Int64())

	var holders []thor.Address
	require.Equal(t, http.StatusOK, ts.get(t, "/pools/"+pool.String()+"/stakes", &holders))
	assert.Equal(t, []thor.Address{alice}, holders)

	var head struct {
		Seq  uint64 `json:"seq"`
		Time uint64 `json:"time"`
	}
	require.Equal(t, http.StatusOK, ts.get(t, "/node/head", &head))
	assert.Equal(t, uint64(9), head.Seq)

	r := ts.mustSend(t, alice, "withdraw", map[string]any{"pool": pool.String()})
	assert.Equal(t, uint64(1010), r.Time)
	var acc struct {
		Balance *json.RawMessage `json:"balance"`
		IsPool  bool             `json:"isPool"`
	}
	require.Equal(t, http.StatusOK, ts.get(t, "/accounts/"+pool.String(), &acc))
	assert.True(t, acc.IsPool)
}

func TestErrorStatus(t *testing.T) {
	ts := newTestServer(t)
	pool := setupPool(t, ts)

	tests := []struct {
		name   string
		caller thor.Address
		op     string
		args   any
		status int
		kind   string
	}{
		{"policy", alice, "mint", map[string]any{"to": alice.String(), "amount": "1"}, http.StatusForbidden, "policy violation"},
		{"invariant", alice, "transfer", map[string]any{"to": bob.String(), "amount": "100000"}, http.StatusBadRequest, "invariant violation"},
		{"external", alice, "stake", map[string]any{"pool": bob.String(), "amount": "10"}, http.StatusFailedDependency, "external dependency failure"},
		{"unknown op", alice, "steal", map[string]any{}, http.StatusBadRequest, ""},
		{"missing arg", alice, "stake", map[string]any{"pool": pool.String()}, http.StatusBadRequest, ""},
		{"unknown arg", alice, "unstake", map[string]any{"pool": pool.String(), "bogus": 1}, http.StatusBadRequest, ""},
		{"no caller", thor.Address{}, "unstake", map[string]any{"pool": pool.String()}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ts.send(t, tt.caller, tt.op, tt.args)
			assert.Equal(t, tt.status, code, string(body))
			if tt.kind != "" {
				var res struct {
					Kind string `json:"kind"`
				}
				require.NoError(t, json.Unmarshal(body, &res))
				assert.Equal(t, tt.kind, res.Kind)
			}
		})
	}

	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/pools/0xzz", nil))
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/pools/"+bob.String(), nil))
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/pools/"+pool.String()+"/flags/"+alice.String(), nil))
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/params/no-such-param", nil))
}

func filterEvents(t *testing.T, ts *testServer, filter any) (int, []*events.FilteredEvent) {
	body, err := json.Marshal(filter)
	require.NoError(t, err)
	res, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	var out []*events.FilteredEvent
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	}
	return res.StatusCode, out
}

func TestEvents(t *testing.T) {
	ts := newTestServer(t)
	pool := setupPool(t, ts)

	code, evs := filterEvents(t, ts, map[string]any{"names": []string{"StakeholderJoined"}})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, evs, 1)
	assert.Equal(t, pool, evs[0].Address)
	assert.Equal(t, alice, evs[0].Subject)
	assert.Equal(t, int64(200), (*big.Int)(evs[0].Amount).Int64())

	code, evs = filterEvents(t, ts, map[string]any{"subject": alice.String(), "order": "desc", "options": map[string]any{"limit": 1}})
	require.Equal(t, http.StatusOK, code)
	require.Len(t, evs, 1)
	assert.Equal(t, "StakeUpdated", evs[0].Name)

	code, _ = filterEvents(t, ts, map[string]any{"options": map[string]any{"limit": 101}})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = filterEvents(t, ts, map[string]any{"range": map[string]any{"from": 10, "to": 5}})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = filterEvents(t, ts, map[string]any{"order": "sideways"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEventSubscription(t *testing.T) {
	ts := newTestServer(t)
	pool := setupPool(t, ts)

	dial := func(query string) *websocket.Conn {
		u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/event", RawQuery: query}
		conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	read := func(conn *websocket.Conn) *events.FilteredEvent {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var ev events.FilteredEvent
		require.NoError(t, conn.ReadJSON(&ev))
		return &ev
	}

	// replay from the start
	replay := dial("pos=0&name=PoolFunded")
	ev := read(replay)
	assert.Equal(t, "PoolFunded", ev.Name)
	assert.Equal(t, pool, ev.Address)

	// live from the head
	seq, _ := ts.ledger.Head()
	live := dial("pos=999&address=" + pool.String())
	ts.mustSend(t, alice, "unstake", map[string]any{"pool": pool.String()})
	ev = read(live)
	assert.Greater(t, ev.Seq, seq)
	assert.Equal(t, pool, ev.Address)

	u := url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/subscriptions/event", RawQuery: "pos=x"}
	_, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.get(t, "/pools", nil)
	ts.get(t, "/pools/0xzz", nil)

	res, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(res.Body)
	require.NoError(t, err)

	family, ok := families["stakeledger_api_request_count"]
	require.True(t, ok)
	names := map[string]bool{}
	for _, m := range family.GetMetric() {
		for _, label := range m.GetLabel() {
			if label.GetName() == "name" {
				names[label.GetValue()] = true
			}
		}
	}
	assert.True(t, names["/pools"])
	assert.True(t, names["/pools/{address}"])

	_, ok = families["stakeledger_ledger_ops_count"]
	assert.True(t, ok)
}
