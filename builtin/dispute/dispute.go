// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dispute implements vote-kick: a stakeholder flags another stakeholder of the same pool,
// a randomly selected committee votes, and the target is either slashed and evicted or protected
// for a while.
package dispute

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/linkedlist"
	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/randomness"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "dispute")

	slotFlags      = nameToSlot("flags")
	slotProtection = nameToSlot("protection")
)

func nameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}

func flagKey(pool, target thor.Address) thor.Bytes32 {
	return thor.Blake2b(pool.Bytes(), target.Bytes())
}

// Service binder of the dispute engine.
type Service struct {
	addr       thor.Address
	env        *xenv.Environment
	params     *params.Params
	pools      *rewardpool.Service
	source     randomness.Source
	sctx       *solidity.Context
	flags      *solidity.Mapping[thor.Bytes32, *Flag]
	protection *solidity.Mapping[thor.Bytes32, uint64]
}

func New(
	addr thor.Address,
	env *xenv.Environment,
	params *params.Params,
	pools *rewardpool.Service,
	source randomness.Source,
) *Service {
	sctx := solidity.NewContext(addr, env.State())
	return &Service{
		addr:       addr,
		env:        env,
		params:     params,
		pools:      pools,
		source:     source,
		sctx:       sctx,
		flags:      solidity.NewMapping[thor.Bytes32, *Flag](sctx, slotFlags),
		protection: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotProtection),
	}
}

// flagged lists the targets with an open flag in pool.
func (s *Service) flagged(pool thor.Address) *linkedlist.LinkedList[thor.Address] {
	return linkedlist.New[thor.Address](s.sctx, thor.Blake2b([]byte("flagged"), pool.Bytes()))
}

// Get returns the open flag against target in pool; Status is StatusNone if there is none.
func (s *Service) Get(pool, target thor.Address) (*Flag, error) {
	f, err := s.flags.Get(flagKey(pool, target))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get flag")
	}
	return f, nil
}

// Flagged returns the targets with an open flag in pool.
func (s *Service) Flagged(pool thor.Address) ([]thor.Address, error) {
	return s.flagged(pool).Keys()
}

// ProtectedUntil returns the time until which target can not be flagged in pool.
func (s *Service) ProtectedUntil(pool, target thor.Address) (uint64, error) {
	return s.protection.Get(flagKey(pool, target))
}

// Flag opens a flag against target on behalf of flagger, a stakeholder of the same pool.
// If target's unlocked stake can not cover the rewards of a full committee, target is
// kicked at once without slashing.
func (s *Service) Flag(pool, target, flagger thor.Address, metadata string) error {
	isPool, err := s.pools.IsPool(pool)
	if err != nil {
		return err
	}
	if !isPool {
		return reverts.External("unknown pool %v", pool)
	}
	p, err := s.pools.Pool(pool)
	if err != nil {
		return err
	}
	if !p.Policies.VoteKick {
		return reverts.Policy("pool %v has no kick policy", pool)
	}
	if flagger == target {
		return reverts.Invariant("can not flag oneself")
	}

	existing, err := s.Get(pool, target)
	if err != nil {
		return err
	}
	if existing.Exists() {
		return reverts.Invariant("%v is already flagged", target)
	}
	now := s.env.Time()
	until, err := s.ProtectedUntil(pool, target)
	if err != nil {
		return err
	}
	if now < until {
		return reverts.Conflict("%v is protected until %d", target, until)
	}

	targetPos, err := s.pools.Position(pool, target)
	if err != nil {
		return err
	}
	if !targetPos.Exists() {
		return reverts.Conflict("%v is not a stakeholder of %v", target, pool)
	}
	flaggerPos, err := s.pools.Position(pool, flagger)
	if err != nil {
		return err
	}
	cfg, err := s.params.Config()
	if err != nil {
		return err
	}
	if !flaggerPos.Exists() || flaggerPos.Unlocked().Cmp(cfg.FlagBond) < 0 {
		return reverts.Invariant("flagger %v lacks unlocked stake for bond %v", flagger, cfg.FlagBond)
	}

	required := new(big.Int).Mul(cfg.ReviewerReward, new(big.Int).SetUint64(cfg.ReviewerCount))
	required.Add(required, cfg.FlaggerReward)

	logger.Debug("flagging", "pool", pool, "target", target, "flagger", flagger)
	unlocked := targetPos.Unlocked()
	if unlocked.Cmp(required) < 0 {
		if err := s.pools.Kick(pool, target, new(big.Int)); err != nil {
			return err
		}
		s.env.Log("FlagResolved", pool, target, new(big.Int), map[string]string{
			"flagger":  flagger.String(),
			"verdict":  StatusResolvedKick.String(),
			"reason":   "insufficient stake",
			"metadata": metadata,
		})
		logger.Info("flag resolved without vote", "pool", pool, "target", target, "unlocked", unlocked, "required", required)
		return nil
	}

	atRisk := thor.MulFraction(targetPos.Stake, cfg.SlashingFraction)
	if atRisk.Cmp(required) < 0 {
		atRisk.Set(required)
	}
	if atRisk.Cmp(unlocked) > 0 {
		atRisk.Set(unlocked)
	}

	reviewers, err := s.selectCommittee(pool, target, flagger, now, cfg.ReviewerCount)
	if err != nil {
		return err
	}
	if len(reviewers) == 0 {
		return reverts.Conflict("no reviewers available")
	}

	if err := s.pools.Lock(pool, flagger, cfg.FlagBond); err != nil {
		return err
	}
	if err := s.pools.Lock(pool, target, atRisk); err != nil {
		return err
	}

	f := &Flag{
		Pool:           pool,
		Target:         target,
		Flagger:        flagger,
		Metadata:       metadata,
		OpenedAt:       now,
		Deadline:       now + cfg.VotingPeriod,
		Bond:           new(big.Int).Set(cfg.FlagBond),
		AtRisk:         atRisk,
		FlaggerReward:  new(big.Int).Set(cfg.FlaggerReward),
		ReviewerReward: new(big.Int).Set(cfg.ReviewerReward),
		Reviewers:      reviewers,
		Votes:          make([]Vote, len(reviewers)),
		Status:         StatusVoting,
	}
	if err := s.flags.Set(flagKey(pool, target), f); err != nil {
		return err
	}
	if err := s.flagged(pool).Add(target); err != nil {
		return err
	}

	s.env.Log("FlagOpened", pool, target, atRisk, map[string]string{
		"flagger":   flagger.String(),
		"bond":      f.Bond.String(),
		"reviewers": strconv.Itoa(len(reviewers)),
		"deadline":  strconv.FormatUint(f.Deadline, 10),
		"metadata":  metadata,
	})
	logger.Info("flag opened", "pool", pool, "target", target, "flagger", flagger, "reviewers", len(reviewers))
	return nil
}

// Vote records the verdict of a committee member. The flag resolves as soon as one side
// can no longer be outvoted.
func (s *Service) Vote(pool, target, voter thor.Address, kick bool) error {
	f, err := s.Get(pool, target)
	if err != nil {
		return err
	}
	if !f.Exists() {
		return reverts.Conflict("no open flag against %v", target)
	}
	now := s.env.Time()
	if now >= f.Deadline {
		return reverts.Conflict("voting closed at %d", f.Deadline)
	}
	i := f.reviewerIndex(voter)
	if i < 0 {
		return reverts.Policy("%v is not a reviewer", voter)
	}
	if f.Votes[i] != VoteNone {
		return reverts.Invariant("%v already voted", voter)
	}

	verdict := "no-kick"
	if kick {
		verdict = "kick"
		f.Votes[i] = VoteKick
		f.KickVotes++
	} else {
		f.Votes[i] = VoteNoKick
		f.NoKickVotes++
	}
	s.env.Log("FlagUpdated", pool, target, nil, map[string]string{
		"voter":       voter.String(),
		"vote":        verdict,
		"kickVotes":   strconv.FormatUint(f.KickVotes, 10),
		"noKickVotes": strconv.FormatUint(f.NoKickVotes, 10),
	})
	logger.Debug("vote cast", "pool", pool, "target", target, "voter", voter, "kick", kick)

	if status := f.verdict(now); status != StatusVoting {
		return s.resolve(f, status)
	}
	return s.flags.Set(flagKey(pool, target), f)
}

// Resolve closes a flag whose voting window has passed. Anyone may call it.
func (s *Service) Resolve(pool, target thor.Address) error {
	f, err := s.Get(pool, target)
	if err != nil {
		return err
	}
	if !f.Exists() {
		return reverts.Conflict("no open flag against %v", target)
	}
	status := f.verdict(s.env.Time())
	if status == StatusVoting {
		return reverts.Conflict("voting open until %d", f.Deadline)
	}
	return s.resolve(f, status)
}

func (s *Service) resolve(f *Flag, status Status) error {
	s.flags.Delete(flagKey(f.Pool, f.Target))
	if err := s.flagged(f.Pool).Remove(f.Target); err != nil {
		return err
	}

	var (
		slashed *big.Int
		err     error
	)
	if status == StatusResolvedKick {
		slashed, err = s.kick(f)
	} else {
		slashed, err = s.release(f)
	}
	if err != nil {
		return err
	}

	s.env.Log("FlagResolved", f.Pool, f.Target, slashed, map[string]string{
		"flagger":     f.Flagger.String(),
		"verdict":     status.String(),
		"kickVotes":   strconv.FormatUint(f.KickVotes, 10),
		"noKickVotes": strconv.FormatUint(f.NoKickVotes, 10),
		"metadata":    f.Metadata,
	})
	logger.Info("flag resolved", "pool", f.Pool, "target", f.Target, "verdict", status, "slashed", slashed)
	return nil
}

// kick slashes the target's stake at risk, pays the flagger and the kick voters from it,
// and turns the rest into pool funding.
func (s *Service) kick(f *Flag) (*big.Int, error) {
	if err := s.pools.Unlock(f.Pool, f.Flagger, f.Bond); err != nil {
		return nil, err
	}
	if err := s.pools.Kick(f.Pool, f.Target, f.AtRisk); err != nil {
		return nil, err
	}

	remainder := new(big.Int).Set(f.AtRisk)
	pay := func(to thor.Address, amount *big.Int) error {
		if amount.Cmp(remainder) > 0 {
			amount = remainder
		}
		remainder = new(big.Int).Sub(remainder, amount)
		return s.pools.Payout(f.Pool, to, amount)
	}
	if err := pay(f.Flagger, f.FlaggerReward); err != nil {
		return nil, err
	}
	for i, r := range f.Reviewers {
		if f.Votes[i] == VoteKick {
			if err := pay(r, f.ReviewerReward); err != nil {
				return nil, err
			}
		}
	}
	if err := s.pools.AddFunding(f.Pool, s.addr, remainder); err != nil {
		return nil, err
	}
	return f.AtRisk, nil
}

// release pays the no-kick voters from the flagger's bond, unlocks everything else
// and protects the target.
func (s *Service) release(f *Flag) (*big.Int, error) {
	paid := new(big.Int).Mul(f.ReviewerReward, new(big.Int).SetUint64(f.NoKickVotes))
	if paid.Cmp(f.Bond) > 0 {
		paid.Set(f.Bond)
	}
	if err := s.pools.Slash(f.Pool, f.Flagger, paid); err != nil {
		return nil, err
	}
	remainder := new(big.Int).Set(paid)
	for i, r := range f.Reviewers {
		if f.Votes[i] != VoteNoKick {
			continue
		}
		amount := f.ReviewerReward
		if amount.Cmp(remainder) > 0 {
			amount = remainder
		}
		remainder = new(big.Int).Sub(remainder, amount)
		if err := s.pools.Payout(f.Pool, r, amount); err != nil {
			return nil, err
		}
	}
	if err := s.pools.Unlock(f.Pool, f.Flagger, new(big.Int).Sub(f.Bond, paid)); err != nil {
		return nil, err
	}
	if err := s.pools.Unlock(f.Pool, f.Target, f.AtRisk); err != nil {
		return nil, err
	}

	period, err := s.params.Get(thor.KeyFlagProtectionPeriod)
	if err != nil {
		return nil, err
	}
	if err := s.protection.Set(flagKey(f.Pool, f.Target), s.env.Time()+period.Uint64()); err != nil {
		return nil, err
	}
	return paid, nil
}
