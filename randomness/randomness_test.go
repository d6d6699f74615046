// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVRFSource(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	src := NewVRFSource(key)

	alpha := []byte("pool|target|100")
	seed, err := src.Seed(alpha)
	require.NoError(t, err)

	again, err := src.Seed(alpha)
	require.NoError(t, err)
	assert.Equal(t, seed, again, "vrf output is deterministic")

	_, proof, err := src.Prove(alpha)
	require.NoError(t, err)
	verified, err := Verify(src.PublicKey(), alpha, proof)
	require.NoError(t, err)
	assert.Equal(t, seed, verified)

	_, err = Verify(src.PublicKey(), []byte("other"), proof)
	assert.Error(t, err)

	assert.False(t, src.Address().IsZero())
}

func TestFixedSource(t *testing.T) {
	src := FixedSource{1}
	a, err := src.Seed([]byte("a"))
	require.NoError(t, err)
	b, err := src.Seed([]byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLoadOrGenerateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vrf.key")
	k1, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	k2, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Equal(t, crypto.FromECDSA(k1), crypto.FromECDSA(k2))
}
