// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import "math/big"

// MulFraction returns amount * fraction / 1e18, rounded down.
func MulFraction(amount, fraction *big.Int) *big.Int {
	v := new(big.Int).Mul(amount, fraction)
	return v.Quo(v, Ether)
}

// IsFraction reports whether v lies within [0, 1e18].
func IsFraction(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(Ether) <= 0
}
