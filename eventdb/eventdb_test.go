// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb_test

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/eventdb"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	pool  = thor.BytesToAddress([]byte("pool"))
	vault = thor.BytesToAddress([]byte("vault"))
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func seed(t *testing.T, db *eventdb.EventDB) {
	require.NoError(t, db.Insert(1, []*xenv.Event{
		{Name: "PoolCreated", Address: pool, Subject: alice, Time: 10},
		{Name: "Staked", Address: pool, Subject: alice, Amount: big.NewInt(100), Time: 10, Data: map[string]string{"stake": "100"}},
	}))
	require.NoError(t, db.Insert(2, []*xenv.Event{
		{Name: "Staked", Address: pool, Subject: bob, Amount: big.NewInt(5000), Time: 20},
	}))
	require.NoError(t, db.Insert(3, nil))
	require.NoError(t, db.Insert(4, []*xenv.Event{
		{Name: "Delegated", Address: vault, Subject: bob, Amount: big.NewInt(300), Time: 30},
		{Name: "Unstaked", Address: pool, Subject: alice, Amount: big.NewInt(100), Time: 30},
	}))
}

func TestFilter(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)
	ctx := context.Background()

	all, err := db.Filter(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, uint64(1), all[1].Seq)
	assert.Equal(t, uint32(1), all[1].Index)
	assert.Equal(t, "100", all[1].Data["stake"])
	assert.Nil(t, all[0].Amount)
	assert.Equal(t, alice, all[0].Subject)

	names := func(evs []*eventdb.Event) []string {
		var out []string
		for _, ev := range evs {
			out = append(out, ev.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		filter *eventdb.Filter
		want   []string
	}{
		{"address", &eventdb.Filter{Address: &vault}, []string{"Delegated"}},
		{"subject", &eventdb.Filter{Subject: &bob}, []string{"Staked", "Delegated"}},
		{"names", &eventdb.Filter{Names: []string{"Unstaked", "PoolCreated"}}, []string{"PoolCreated", "Unstaked"}},
		{"range", &eventdb.Filter{Range: &eventdb.Range{From: 15, To: 25}}, []string{"Staked"}},
		{"open range", &eventdb.Filter{Range: &eventdb.Range{From: 20}}, []string{"Staked", "Delegated", "Unstaked"}},
		{"after seq", &eventdb.Filter{AfterSeq: 2}, []string{"Delegated", "Unstaked"}},
		{"seq window", &eventdb.Filter{AfterSeq: 1, UntilSeq: 3}, []string{"Staked"}},
		{"min amount", &eventdb.Filter{MinAmount: big.NewInt(300)}, []string{"Staked", "Delegated"}},
		{"desc", &eventdb.Filter{Subject: &alice, Order: eventdb.DESC}, []string{"Unstaked", "Staked", "PoolCreated"}},
		{"paged", &eventdb.Filter{Options: &eventdb.Options{Offset: 1, Limit: 2}}, []string{"Staked", "Staked"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evs, err := db.Filter(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(evs))
		})
	}

	_, err = db.Filter(ctx, &eventdb.Filter{MinAmount: big.NewInt(-1)})
	assert.Error(t, err)
}

func TestInsertRejectsNegativeAmount(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	err = db.Insert(1, []*xenv.Event{
		{Name: "Staked", Address: pool, Amount: big.NewInt(1)},
		{Name: "Broken", Address: pool, Amount: big.NewInt(-1)},
	})
	assert.Error(t, err)

	evs, err := db.Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := eventdb.New(path)
	require.NoError(t, err)
	seed(t, db)
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())

	db, err = eventdb.New(path)
	require.NoError(t, err)
	defer db.Close()
	evs, err := db.Filter(context.Background(), &eventdb.Filter{Order: eventdb.DESC, Options: &eventdb.Options{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, uint64(4), evs[0].Seq)
	assert.Equal(t, big.NewInt(100), evs[0].Amount)
}

func TestFilterCancelled(t *testing.T) {
	db, err := eventdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = db.Filter(ctx, nil)
	assert.Error(t, err)
}
