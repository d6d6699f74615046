// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

type Status uint8

const (
	StatusNone Status = iota
	StatusVoting
	StatusResolvedKick
	StatusResolvedNoKick
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusVoting:
		return "voting"
	case StatusResolvedKick:
		return "kick"
	case StatusResolvedNoKick:
		return "no-kick"
	default:
		return "unknown"
	}
}

// Vote of a single reviewer.
type Vote uint8

const (
	VoteNone Vote = iota
	VoteKick
	VoteNoKick
)

// Flag is an open accusation against a stakeholder of a pool.
type Flag struct {
	Pool     thor.Address
	Target   thor.Address
	Flagger  thor.Address
	Metadata string
	OpenedAt uint64
	Deadline uint64 // end of the voting window, exclusive

	Bond           *big.Int // locked on the flagger
	AtRisk         *big.Int // locked on the target
	FlaggerReward  *big.Int
	ReviewerReward *big.Int

	Reviewers   []thor.Address
	Votes       []Vote // by reviewer index
	KickVotes   uint64
	NoKickVotes uint64
	Status      Status
}

// Exists returns whether the flag is open.
func (f *Flag) Exists() bool {
	return f.Status == StatusVoting
}

func (f *Flag) reviewerIndex(addr thor.Address) int {
	for i, r := range f.Reviewers {
		if r == addr {
			return i
		}
	}
	return -1
}

// verdict returns the resolution once it can no longer change, or StatusVoting.
// After the deadline kick wins only with a strict majority of the votes cast.
func (f *Flag) verdict(now uint64) Status {
	size := uint64(len(f.Reviewers))
	switch {
	case f.KickVotes > size/2:
		return StatusResolvedKick
	case f.NoKickVotes >= size-size/2:
		return StatusResolvedNoKick
	case now < f.Deadline:
		return StatusVoting
	case f.KickVotes > f.NoKickVotes:
		return StatusResolvedKick
	default:
		return StatusResolvedNoKick
	}
}
