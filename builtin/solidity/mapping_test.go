// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

type TestStruct struct {
	Field1 uint64
	Amount *big.Int
	Addr1  thor.Address
	Bytes1 thor.Bytes32
}

// newTestContext returns a fresh Context with in-memory DB.
func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stater, err := state.NewStater(db, 0)
	require.NoError(t, err)
	return NewContext(thor.Address{1}, stater.NewState())
}

func TestMappingStruct(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, *TestStruct](ctx, thor.Bytes32{1})
	key := thor.Address{2}

	v, err := m.Get(key)
	require.NoError(t, err)
	require.NotNil(t, v, "missing pointer values are zero structs")
	assert.Equal(t, uint64(0), v.Field1)

	has, err := m.Has(key)
	require.NoError(t, err)
	assert.False(t, has)

	stored := &TestStruct{Field1: 7, Amount: big.NewInt(100), Addr1: thor.Address{3}, Bytes1: thor.Bytes32{4}}
	require.NoError(t, m.Set(key, stored))

	v, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, stored.Field1, v.Field1)
	assert.Equal(t, 0, stored.Amount.Cmp(v.Amount))
	assert.Equal(t, stored.Addr1, v.Addr1)
	assert.Equal(t, stored.Bytes1, v.Bytes1)

	has, err = m.Has(key)
	require.NoError(t, err)
	assert.True(t, has)

	m.Delete(key)
	has, err = m.Has(key)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestMappingSeparation(t *testing.T) {
	ctx := newTestContext(t)
	a := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{1})
	b := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{2})
	key := thor.Address{9}

	require.NoError(t, a.Set(key, 10))
	require.NoError(t, b.Set(key, 20))

	va, err := a.Get(key)
	require.NoError(t, err)
	vb, err := b.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), va)
	assert.Equal(t, uint64(20), vb)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, thor.Bytes32{5})

	v, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, v.Sign())

	require.NoError(t, u.Add(big.NewInt(10)))
	require.NoError(t, u.Sub(big.NewInt(3)))
	v, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int64())

	n, err := u.Increment()
	require.NoError(t, err)
	assert.Equal(t, uint64(8), n)
}

func TestAddress(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, thor.Bytes32{6})

	v, err := a.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	addr := thor.BytesToAddress([]byte("someone"))
	a.Set(&addr)
	v, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, addr, v)

	a.Set(nil)
	v, err = a.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}
