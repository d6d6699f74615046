// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/builtin/dispute"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/thor"
)

type Policies struct {
	MaxStakeholders uint64 `json:"maxStakeholders"`
	VaultOnly       bool   `json:"vaultOnly"`
	PenaltyPeriod   uint64 `json:"penaltyPeriod"`
	VoteKick        bool   `json:"voteKick"`
}

type Pool struct {
	Address          thor.Address          `json:"address"`
	ExternalID       string                `json:"externalId"`
	Creator          thor.Address          `json:"creator"`
	Rate             *math.HexOrDecimal256 `json:"rate"`
	MinStakeholders  uint64                `json:"minStakeholders"`
	MinStake         *math.HexOrDecimal256 `json:"minStake"`
	Policies         Policies              `json:"policies"`
	CreatedAt        uint64                `json:"createdAt"`
	Funding          *math.HexOrDecimal256 `json:"funding"`
	TotalStake       *math.HexOrDecimal256 `json:"totalStake"`
	StakeholderCount uint64                `json:"stakeholderCount"`
	Running          bool                  `json:"running"`
	Insolvent        bool                  `json:"insolvent"`
	InsolventSince   uint64                `json:"insolventSince,omitempty"`
	Forfeited        *math.HexOrDecimal256 `json:"forfeited"`
	Reserved         *math.HexOrDecimal256 `json:"reserved"`
	TotalSponsored   *math.HexOrDecimal256 `json:"totalSponsored"`
}

func convertPool(addr thor.Address, p *rewardpool.Pool) *Pool {
	return &Pool{
		Address:          addr,
		ExternalID:       p.ExternalID,
		Creator:          p.Creator,
		Rate:             (*math.HexOrDecimal256)(p.Rate),
		MinStakeholders:  p.MinStakeholders,
		MinStake:         (*math.HexOrDecimal256)(p.MinStake),
		Policies:         Policies(p.Policies),
		CreatedAt:        p.CreatedAt,
		Funding:          (*math.HexOrDecimal256)(p.Funding),
		TotalStake:       (*math.HexOrDecimal256)(p.TotalStake),
		StakeholderCount: p.StakeholderCount,
		Running:          p.Running(),
		Insolvent:        p.Insolvent,
		InsolventSince:   p.InsolventSince,
		Forfeited:        (*math.HexOrDecimal256)(p.ForfeitedWei),
		Reserved:         (*math.HexOrDecimal256)(p.Reserved),
		TotalSponsored:   (*math.HexOrDecimal256)(p.TotalSponsored),
	}
}

// Position is a stake with its earnings projected to the current time.
type Position struct {
	Stake    *math.HexOrDecimal256 `json:"stake"`
	JoinedAt uint64                `json:"joinedAt"`
	Locked   *math.HexOrDecimal256 `json:"locked"`
	Earnings *math.HexOrDecimal256 `json:"earnings"`
	Reserved *math.HexOrDecimal256 `json:"reserved"`
}

func convertPosition(p *rewardpool.Position, earnings, reserved *big.Int) *Position {
	return &Position{
		Stake:    (*math.HexOrDecimal256)(orZero(p.Stake)),
		JoinedAt: p.JoinedAt,
		Locked:   (*math.HexOrDecimal256)(orZero(p.Locked)),
		Earnings: (*math.HexOrDecimal256)(orZero(earnings)),
		Reserved: (*math.HexOrDecimal256)(orZero(reserved)),
	}
}

type Flag struct {
	Pool        thor.Address          `json:"pool"`
	Target      thor.Address          `json:"target"`
	Flagger     thor.Address          `json:"flagger"`
	Metadata    string                `json:"metadata"`
	OpenedAt    uint64                `json:"openedAt"`
	Deadline    uint64                `json:"deadline"`
	Bond        *math.HexOrDecimal256 `json:"bond"`
	AtRisk      *math.HexOrDecimal256 `json:"atRisk"`
	Reviewers   []thor.Address        `json:"reviewers"`
	KickVotes   uint64                `json:"kickVotes"`
	NoKickVotes uint64                `json:"noKickVotes"`
	Status      string                `json:"status"`
}

func convertFlag(f *dispute.Flag) *Flag {
	return &Flag{
		Pool:        f.Pool,
		Target:      f.Target,
		Flagger:     f.Flagger,
		Metadata:    f.Metadata,
		OpenedAt:    f.OpenedAt,
		Deadline:    f.Deadline,
		Bond:        (*math.HexOrDecimal256)(orZero(f.Bond)),
		AtRisk:      (*math.HexOrDecimal256)(orZero(f.AtRisk)),
		Reviewers:   f.Reviewers,
		KickVotes:   f.KickVotes,
		NoKickVotes: f.NoKickVotes,
		Status:      f.Status.String(),
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
