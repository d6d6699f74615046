// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// Config is a typed snapshot of all governance params, read once per operation.
type Config struct {
	MinStake                  *big.Int
	SlashingFraction          *big.Int
	ProtocolFeeFraction       *big.Int
	ProtocolFeeBeneficiary    thor.Address
	MinSelfDelegationFraction *big.Int
	MinDelegation             *big.Int
	FlagBond                  *big.Int
	FlaggerReward             *big.Int
	ReviewerReward            *big.Int
	ReviewerCount             uint64
	VotingPeriod              uint64
	FlagProtectionPeriod      uint64
	MaxLeavePenaltyPeriod     uint64
	MaxQueuePeriod            uint64
	EarningsStalenessPeriod   uint64
	FishermanRewardFraction   *big.Int
}

// Defaults lists the initial value of every param.
var Defaults = map[thor.Bytes32]*big.Int{
	thor.KeyMinStake:                  thor.InitialMinStake,
	thor.KeySlashingFraction:          thor.InitialSlashingFraction,
	thor.KeyProtocolFeeFraction:       thor.InitialProtocolFeeFraction,
	thor.KeyMinSelfDelegationFraction: thor.InitialMinSelfDelegationFraction,
	thor.KeyMinDelegation:             thor.InitialMinDelegation,
	thor.KeyFlagBond:                  thor.InitialFlagBond,
	thor.KeyFlaggerReward:             thor.InitialFlaggerReward,
	thor.KeyReviewerReward:            thor.InitialReviewerReward,
	thor.KeyReviewerCount:             thor.InitialReviewerCount,
	thor.KeyVotingPeriod:              thor.InitialVotingPeriod,
	thor.KeyFlagProtectionPeriod:      thor.InitialFlagProtectionPeriod,
	thor.KeyMaxLeavePenaltyPeriod:     thor.InitialMaxLeavePenaltyPeriod,
	thor.KeyMaxQueuePeriod:            thor.InitialMaxQueuePeriod,
	thor.KeyEarningsStalenessPeriod:   thor.InitialEarningsStalenessPeriod,
	thor.KeyFishermanRewardFraction:   thor.InitialFishermanRewardFraction,
}

// KeyByName resolves a param key from its name, e.g. "min-stake".
func KeyByName(name string) (thor.Bytes32, bool) {
	key := thor.BytesToBytes32([]byte(name))
	if key == thor.KeyExecutorAddress || key == thor.KeyProtocolFeeBeneficiary {
		return key, true
	}
	_, ok := Defaults[key]
	return key, ok
}

// Init writes the defaults and the executor. The fee beneficiary defaults to the executor.
func (p *Params) Init(executor thor.Address) error {
	for key, value := range Defaults {
		if err := p.Set(key, value); err != nil {
			return err
		}
	}
	if err := p.SetAddress(thor.KeyExecutorAddress, executor); err != nil {
		return err
	}
	return p.SetAddress(thor.KeyProtocolFeeBeneficiary, executor)
}

// Config loads the typed snapshot.
func (p *Params) Config() (*Config, error) {
	var (
		cfg Config
		err error
	)
	get := func(key thor.Bytes32) *big.Int {
		if err != nil {
			return new(big.Int)
		}
		var v *big.Int
		v, err = p.Get(key)
		if err != nil {
			return new(big.Int)
		}
		return v
	}

	cfg.MinStake = get(thor.KeyMinStake)
	cfg.SlashingFraction = get(thor.KeySlashingFraction)
	cfg.ProtocolFeeFraction = get(thor.KeyProtocolFeeFraction)
	cfg.ProtocolFeeBeneficiary = thor.BytesToAddress(get(thor.KeyProtocolFeeBeneficiary).Bytes())
	cfg.MinSelfDelegationFraction = get(thor.KeyMinSelfDelegationFraction)
	cfg.MinDelegation = get(thor.KeyMinDelegation)
	cfg.FlagBond = get(thor.KeyFlagBond)
	cfg.FlaggerReward = get(thor.KeyFlaggerReward)
	cfg.ReviewerReward = get(thor.KeyReviewerReward)
	cfg.ReviewerCount = get(thor.KeyReviewerCount).Uint64()
	cfg.VotingPeriod = get(thor.KeyVotingPeriod).Uint64()
	cfg.FlagProtectionPeriod = get(thor.KeyFlagProtectionPeriod).Uint64()
	cfg.MaxLeavePenaltyPeriod = get(thor.KeyMaxLeavePenaltyPeriod).Uint64()
	cfg.MaxQueuePeriod = get(thor.KeyMaxQueuePeriod).Uint64()
	cfg.EarningsStalenessPeriod = get(thor.KeyEarningsStalenessPeriod).Uint64()
	cfg.FishermanRewardFraction = get(thor.KeyFishermanRewardFraction)

	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
