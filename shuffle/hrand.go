// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shuffle

import (
	"encoding/binary"
	"math"

	"github.com/vechain/stakeledger/thor"
)

// hrand draws numbers from blake2b(seed || counter) blocks, four uint64 per block.
type hrand struct {
	seed    []byte
	counter uint64
	block   thor.Bytes32
	used    int
}

func newHrand(seed []byte) *hrand {
	return &hrand{seed: seed, used: 4}
}

func (hr *hrand) next() uint64 {
	if hr.used == 4 {
		var ctr [8]byte
		binary.BigEndian.PutUint64(ctr[:], hr.counter)
		hr.block = thor.Blake2b(hr.seed, ctr[:])
		hr.counter++
		hr.used = 0
	}
	v := binary.BigEndian.Uint64(hr.block[hr.used*8:])
	hr.used++
	return v
}

// Intn returns a uniform int in [0, n). It panics if n <= 0.
func (hr *hrand) Intn(n int) int {
	if n <= 0 {
		panic("n must > 0")
	}
	bound := uint64(n)
	// draws at or above limit would favor small results
	limit := math.MaxUint64 - math.MaxUint64%bound
	for {
		if v := hr.next(); v < limit {
			return int(v % bound)
		}
	}
}
