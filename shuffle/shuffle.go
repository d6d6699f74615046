// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package shuffle

// Shuffle cryptographic hash based Fisher–Yates shuffle algorithm.
// The perm is to receive shuffled permutation of [0, len(perm)-1).
func Shuffle(seed []byte, perm []int) {
	for i := range perm {
		perm[i] = i
	}
	size := len(perm)
	if size < 2 {
		return
	}
	hr := newHrand(seed)
	for i := 0; i < len(perm)-1; i++ {
		j := hr.Intn(size-i) + i
		perm[i], perm[j] = perm[j], perm[i]
	}
}

// Sample returns min(k, n) distinct indexes of [0, n) in seeded random order.
func Sample(seed []byte, n, k int) []int {
	perm := make([]int, n)
	Shuffle(seed, perm)
	if k < n {
		perm = perm[:k]
	}
	return perm
}
