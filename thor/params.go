// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
)

// Built-in component addresses.
var (
	ParamsAddress   = BytesToAddress([]byte("Params"))
	RegistryAddress = BytesToAddress([]byte("Registry"))
	TokenAddress    = BytesToAddress([]byte("Token"))
	PoolsAddress    = BytesToAddress([]byte("RewardPools"))
	DisputeAddress  = BytesToAddress([]byte("Dispute"))
	VaultsAddress   = BytesToAddress([]byte("Vaults"))
	LedgerAddress   = BytesToAddress([]byte("Ledger")) // sequence and clock bookkeeping
)

// Keys of governance params.
var (
	KeyExecutorAddress = BytesToBytes32([]byte("executor"))

	KeyMinStake                  = BytesToBytes32([]byte("min-stake"))
	KeySlashingFraction          = BytesToBytes32([]byte("slashing-fraction"))
	KeyProtocolFeeFraction       = BytesToBytes32([]byte("protocol-fee-fraction"))
	KeyProtocolFeeBeneficiary    = BytesToBytes32([]byte("protocol-fee-beneficiary"))
	KeyMinSelfDelegationFraction = BytesToBytes32([]byte("min-self-delegation-fraction"))
	KeyMinDelegation             = BytesToBytes32([]byte("min-delegation"))
	KeyFlagBond                  = BytesToBytes32([]byte("flag-bond"))
	KeyFlaggerReward             = BytesToBytes32([]byte("flagger-reward"))
	KeyReviewerReward            = BytesToBytes32([]byte("reviewer-reward"))
	KeyReviewerCount             = BytesToBytes32([]byte("reviewer-count"))
	KeyVotingPeriod              = BytesToBytes32([]byte("voting-period"))
	KeyFlagProtectionPeriod      = BytesToBytes32([]byte("flag-protection-period"))
	KeyMaxLeavePenaltyPeriod     = BytesToBytes32([]byte("max-leave-penalty-period"))
	KeyMaxQueuePeriod            = BytesToBytes32([]byte("max-queue-period"))
	KeyEarningsStalenessPeriod   = BytesToBytes32([]byte("earnings-staleness-period"))
	KeyFishermanRewardFraction   = BytesToBytes32([]byte("fisherman-reward-fraction"))
)

// Ether is 1e18 base units, also the fixed point scale of fractions.
var Ether = big.NewInt(1e18)

// Initial values of governance params.
var (
	InitialMinStake                  = new(big.Int).Set(Ether)
	InitialSlashingFraction          = big.NewInt(1e17) // 10%
	InitialProtocolFeeFraction       = big.NewInt(5e16) // 5%
	InitialMinSelfDelegationFraction = big.NewInt(5e16) // 5%
	InitialMinDelegation             = new(big.Int).Set(Ether)
	InitialFlagBond                  = new(big.Int).Mul(big.NewInt(5), Ether)
	InitialFlaggerReward             = new(big.Int).Set(Ether)
	InitialReviewerReward            = big.NewInt(5e17)
	InitialReviewerCount             = big.NewInt(5)
	InitialVotingPeriod              = big.NewInt(60 * 60)
	InitialFlagProtectionPeriod      = big.NewInt(60 * 60)
	InitialMaxLeavePenaltyPeriod     = big.NewInt(30 * 24 * 60 * 60)
	InitialMaxQueuePeriod            = big.NewInt(30 * 24 * 60 * 60)
	InitialEarningsStalenessPeriod   = big.NewInt(7 * 24 * 60 * 60)
	InitialFishermanRewardFraction   = big.NewInt(25e16) // 25%
)
