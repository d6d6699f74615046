// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewardpool implements stake-weighted reward pools: sponsors fund a pool, stakeholders
// earn its funding continuously at a fixed rate, pro rata to stake.
package rewardpool

import (
	"math/big"
	"strconv"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/registry"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "rewardpool")

// Hooks notifies the owner of a position about changes it did not initiate.
type Hooks interface {
	// IsVault reports whether addr is a delegation vault.
	IsVault(addr thor.Address) (bool, error)
	// OnSlash is called after stake of who was slashed in pool.
	OnSlash(pool, who thor.Address, amount *big.Int) error
	// OnKick is called after who was evicted from pool and paid out.
	OnKick(pool, who thor.Address, stake, earnings *big.Int) error
}

// Service binder of the reward pools.
type Service struct {
	addr     thor.Address
	env      *xenv.Environment
	params   *params.Params
	registry *registry.Registry
	token    *token.Token
	hooks    Hooks
	storage  *storage
}

func New(
	addr thor.Address,
	env *xenv.Environment,
	params *params.Params,
	registry *registry.Registry,
	token *token.Token,
) *Service {
	return &Service{
		addr:     addr,
		env:      env,
		params:   params,
		registry: registry,
		token:    token,
		storage:  newStorage(solidity.NewContext(addr, env.State())),
	}
}

// SetHooks binds the position owner notifications.
func (s *Service) SetHooks(h Hooks) {
	s.hooks = h
}

// IsPool returns whether addr was created by this service.
func (s *Service) IsPool(addr thor.Address) (bool, error) {
	p, err := s.storage.getPool(addr)
	if err != nil {
		return false, err
	}
	return p.Exists(), nil
}

// Pool returns the stored pool record.
func (s *Service) Pool(addr thor.Address) (*Pool, error) {
	return s.storage.getPool(addr)
}

// Projected returns the pool record with the allocation brought up to the current time,
// without writing it.
func (s *Service) Projected(addr thor.Address) (*Pool, error) {
	p, err := s.storage.getPool(addr)
	if err != nil {
		return nil, err
	}
	if p.Exists() {
		advance(p, s.env.Time())
	}
	return p, nil
}

// Position returns the position of who in pool; an empty position if none.
func (s *Service) Position(pool, who thor.Address) (*Position, error) {
	return s.storage.getPosition(pool, who)
}

// Reserved returns the at-risk stake of who kept by the pool after who left it.
func (s *Service) Reserved(pool, who thor.Address) (*big.Int, error) {
	return s.storage.getReserved(pool, who)
}

// Stakeholders returns the stakeholders of pool in join order.
func (s *Service) Stakeholders(pool thor.Address) ([]thor.Address, error) {
	return s.storage.members(pool).Keys()
}

// AllStakeholders returns every address holding a position in any pool.
func (s *Service) AllStakeholders() ([]thor.Address, error) {
	return s.storage.stakeholders.Keys()
}

// Pools returns every pool address in creation order.
func (s *Service) Pools() ([]thor.Address, error) {
	return s.storage.poolList.Keys()
}

// Earnings returns what who could withdraw from pool now. Reading does not mutate.
func (s *Service) Earnings(pool, who thor.Address) (*big.Int, error) {
	p, err := s.Projected(pool)
	if err != nil {
		return nil, err
	}
	pos, err := s.storage.getPosition(pool, who)
	if err != nil {
		return nil, err
	}
	if !pos.Exists() {
		return new(big.Int), nil
	}
	return pos.pending(p.Accumulator), nil
}

// Create registers a new pool on behalf of creator and returns its address.
func (s *Service) Create(creator thor.Address, spec *Spec) (thor.Address, error) {
	if spec.Rate == nil || spec.Rate.Sign() <= 0 {
		return thor.Address{}, reverts.Invariant("allocation rate must be positive")
	}
	if spec.MinStake != nil && spec.MinStake.Sign() < 0 {
		return thor.Address{}, reverts.Invariant("negative minimum stake")
	}
	exists, err := s.registry.Exists(spec.ExternalID)
	if err != nil {
		return thor.Address{}, err
	}
	if !exists {
		return thor.Address{}, reverts.Policy("unknown external identity %q", spec.ExternalID)
	}
	for _, kind := range spec.Policies.Kinds() {
		approved, err := s.registry.IsApproved(kind)
		if err != nil {
			return thor.Address{}, err
		}
		if !approved {
			return thor.Address{}, reverts.Policy("policy %v is not approved", kind)
		}
	}
	maxPenalty, err := s.params.Get(thor.KeyMaxLeavePenaltyPeriod)
	if err != nil {
		return thor.Address{}, err
	}
	if spec.Policies.PenaltyPeriod > maxPenalty.Uint64() {
		return thor.Address{}, reverts.Invariant("penalty period %d exceeds maximum %v", spec.Policies.PenaltyPeriod, maxPenalty)
	}

	count, err := s.storage.poolCount.Increment()
	if err != nil {
		return thor.Address{}, err
	}
	addr := thor.CreateAddress("pool", creator, count)

	minStakeholders := spec.MinStakeholders
	if minStakeholders == 0 {
		minStakeholders = 1
	}
	p := &Pool{
		ExternalID:      spec.ExternalID,
		Creator:         creator,
		Rate:            new(big.Int).Set(spec.Rate),
		MinStakeholders: minStakeholders,
		MinStake:        new(big.Int),
		Policies:        spec.Policies,
		CreatedAt:       s.env.Time(),
		LastUpdate:      s.env.Time(),
	}
	if spec.MinStake != nil {
		p.MinStake.Set(spec.MinStake)
	}
	p.normalize()

	if err := s.storage.setPool(addr, p); err != nil {
		return thor.Address{}, err
	}
	if err := s.storage.poolList.Add(addr); err != nil {
		return thor.Address{}, err
	}

	s.env.Log("PoolCreated", addr, creator, p.Rate, map[string]string{
		"externalId":      p.ExternalID,
		"minStakeholders": strconv.FormatUint(p.MinStakeholders, 10),
		"minStake":        p.MinStake.String(),
		"penaltyPeriod":   strconv.FormatUint(p.Policies.PenaltyPeriod, 10),
	})
	logger.Info("pool created", "pool", addr, "creator", creator, "externalId", p.ExternalID, "rate", p.Rate)
	return addr, nil
}

// load reads an existing pool and brings its allocation up to now.
func (s *Service) load(addr thor.Address) (*Pool, error) {
	p, err := s.storage.getPool(addr)
	if err != nil {
		return nil, err
	}
	if !p.Exists() {
		return nil, reverts.External("unknown pool %v", addr)
	}
	if advance(p, s.env.Time()) {
		s.env.Log("InsolvencyStarted", addr, thor.Address{}, p.Rate, map[string]string{
			"since": strconv.FormatUint(p.InsolventSince, 10),
		})
		logger.Warn("pool insolvent", "pool", addr, "since", p.InsolventSince)
	}
	return p, nil
}

// addFunding credits amount to the pool's remaining funding, ending insolvency if any.
func (s *Service) addFunding(addr thor.Address, p *Pool, from thor.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	p.Funding = new(big.Int).Add(p.Funding, amount)
	s.env.Log("PoolFunded", addr, from, amount, map[string]string{"funding": p.Funding.String()})

	if p.Insolvent {
		s.env.Log("InsolvencyEnded", addr, thor.Address{}, p.ForfeitedWei, map[string]string{
			"since":             strconv.FormatUint(p.InsolventSince, 10),
			"forfeitedPerStake": p.ForfeitedPerStake.String(),
		})
		logger.Info("pool solvent", "pool", addr, "forfeited", p.ForfeitedWei)
		p.Insolvent = false
		p.InsolventSince = 0
		p.ForfeitedWei = new(big.Int)
		p.ForfeitedPerStake = new(big.Int)
	}
}

// Fund adds sponsorship to the pool. The tokens must already be credited to the pool.
func (s *Service) Fund(addr, sponsor thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Invariant("funding amount must be positive")
	}
	p, err := s.load(addr)
	if err != nil {
		return err
	}
	p.TotalSponsored = new(big.Int).Add(p.TotalSponsored, amount)
	s.addFunding(addr, p, sponsor, amount)
	logger.Debug("pool funded", "pool", addr, "sponsor", sponsor, "amount", amount)
	return s.storage.setPool(addr, p)
}

// Stake creates or tops up the position of who. The tokens must already be credited to the pool.
func (s *Service) Stake(addr, who thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Invariant("stake amount must be positive")
	}
	p, err := s.load(addr)
	if err != nil {
		return err
	}
	minStake, err := s.params.Get(thor.KeyMinStake)
	if err != nil {
		return err
	}
	pos, err := s.storage.getPosition(addr, who)
	if err != nil {
		return err
	}

	joining := !pos.Exists()
	if joining {
		if err := s.checkJoin(p, who); err != nil {
			return err
		}
		pos = &Position{
			Stake:      new(big.Int),
			JoinedAt:   s.env.Time(),
			Checkpoint: new(big.Int).Set(p.Accumulator),
			Earnings:   new(big.Int),
			Locked:     new(big.Int),
		}
	} else {
		pos.settle(p.Accumulator)
	}

	pos.Stake = new(big.Int).Add(pos.Stake, amount)
	if floor := p.Floor(minStake); pos.Stake.Cmp(floor) < 0 {
		return reverts.Invariant("stake %v below minimum %v", pos.Stake, floor)
	}
	p.TotalStake = new(big.Int).Add(p.TotalStake, amount)

	if joining {
		p.StakeholderCount++
		if err := s.storage.addMember(addr, who); err != nil {
			return err
		}
		s.env.Log("StakeholderJoined", addr, who, pos.Stake, nil)
	}
	if err := s.storage.setPosition(addr, who, pos); err != nil {
		return err
	}
	if err := s.storage.setPool(addr, p); err != nil {
		return err
	}
	s.env.Log("StakeUpdated", addr, who, pos.Stake, map[string]string{"earnings": pos.Earnings.String()})
	logger.Debug("staked", "pool", addr, "who", who, "amount", amount, "stake", pos.Stake)
	return nil
}

func (s *Service) checkJoin(p *Pool, who thor.Address) error {
	if limit := p.Policies.MaxStakeholders; limit > 0 && p.StakeholderCount >= limit {
		return reverts.Policy("pool is full: %d stakeholders", p.StakeholderCount)
	}
	if p.Policies.VaultOnly {
		isVault := false
		if s.hooks != nil {
			var err error
			if isVault, err = s.hooks.IsVault(who); err != nil {
				return err
			}
		}
		if !isVault {
			return reverts.Policy("pool only accepts vaults")
		}
	}
	return nil
}

// ReduceStake lowers the stake of who to target and pays back the difference.
// Reducing to zero is a full exit.
func (s *Service) ReduceStake(addr, who thor.Address, target *big.Int) error {
	if target.Sign() == 0 {
		_, _, err := s.Unstake(addr, who)
		return err
	}
	if target.Sign() < 0 {
		return reverts.Invariant("negative target stake")
	}
	p, err := s.load(addr)
	if err != nil {
		return err
	}
	pos, err := s.storage.getPosition(addr, who)
	if err != nil {
		return err
	}
	if !pos.Exists() {
		return reverts.Conflict("%v is not a stakeholder of %v", who, addr)
	}
	if target.Cmp(pos.Stake) >= 0 {
		return reverts.Invariant("target %v must be below current stake %v", target, pos.Stake)
	}
	minStake, err := s.params.Get(thor.KeyMinStake)
	if err != nil {
		return err
	}
	if floor := p.Floor(minStake); target.Cmp(floor) < 0 {
		return reverts.Invariant("target %v below minimum %v", target, floor)
	}
	if target.Cmp(pos.Locked) < 0 {
		return reverts.Conflict("stake of %v is locked by an open flag", who)
	}

	pos.settle(p.Accumulator)
	diff := new(big.Int).Sub(pos.Stake, target)
	pos.Stake = new(big.Int).Set(target)
	p.TotalStake = new(big.Int).Sub(p.TotalStake, diff)

	if err := s.storage.setPosition(addr, who, pos); err != nil {
		return err
	}
	if err := s.storage.setPool(addr, p); err != nil {
		return err
	}
	if err := s.token.Transfer(addr, who, diff); err != nil {
		return err
	}
	s.env.Log("StakeUpdated", addr, who, pos.Stake, map[string]string{"earnings": pos.Earnings.String()})
	logger.Debug("stake reduced", "pool", addr, "who", who, "stake", pos.Stake)
	return nil
}

// Unstake exits the pool, paying back stake minus any leave penalty plus earnings.
// Returns the stake and earnings paid.
func (s *Service) Unstake(addr, who thor.Address) (stake, earnings *big.Int, err error) {
	return s.leave(addr, who, false, new(big.Int))
}

// ForceUnstake exits even while stake is locked by open flags. The locked stake stays
// reserved in the pool until the flags resolve. The payout must reach minOut.
func (s *Service) ForceUnstake(addr, who thor.Address, minOut *big.Int) (stake, earnings *big.Int, err error) {
	return s.leave(addr, who, true, minOut)
}

func (s *Service) leave(addr, who thor.Address, force bool, minOut *big.Int) (*big.Int, *big.Int, error) {
	p, err := s.load(addr)
	if err != nil {
		return nil, nil, err
	}
	pos, err := s.storage.getPosition(addr, who)
	if err != nil {
		return nil, nil, err
	}
	if !pos.Exists() {
		return nil, nil, reverts.Conflict("%v is not a stakeholder of %v", who, addr)
	}
	if pos.Locked.Sign() > 0 && !force {
		return nil, nil, reverts.Conflict("stake of %v is locked by an open flag", who)
	}
	pos.settle(p.Accumulator)

	returned := pos.Unlocked()
	penalty := new(big.Int)
	if period := p.Policies.PenaltyPeriod; period > 0 && s.env.Time() < pos.JoinedAt+period && p.Running() {
		frac, err := s.params.Get(thor.KeySlashingFraction)
		if err != nil {
			return nil, nil, err
		}
		penalty = thor.MulFraction(pos.Stake, frac)
		if penalty.Cmp(returned) > 0 {
			penalty.Set(returned)
		}
		returned.Sub(returned, penalty)
	}

	payout := new(big.Int).Add(returned, pos.Earnings)
	if payout.Cmp(minOut) < 0 {
		return nil, nil, reverts.Invariant("payout %v below minimum %v", payout, minOut)
	}

	if err := s.removePosition(addr, p, who, pos); err != nil {
		return nil, nil, err
	}
	if penalty.Sign() > 0 {
		s.env.Log("LeavePenalty", addr, who, penalty, nil)
		s.addFunding(addr, p, who, penalty)
	}
	if err := s.storage.setPool(addr, p); err != nil {
		return nil, nil, err
	}
	if err := s.token.Transfer(addr, who, payout); err != nil {
		return nil, nil, err
	}

	s.env.Log("StakeholderLeft", addr, who, payout, map[string]string{
		"stake":    returned.String(),
		"earnings": pos.Earnings.String(),
		"penalty":  penalty.String(),
		"reserved": pos.Locked.String(),
	})
	logger.Info("stakeholder left", "pool", addr, "who", who, "stake", returned, "earnings", pos.Earnings, "penalty", penalty)
	return returned, pos.Earnings, nil
}

// removePosition unlinks who; its locked stake, if any, moves to the reserve.
func (s *Service) removePosition(addr thor.Address, p *Pool, who thor.Address, pos *Position) error {
	p.TotalStake = new(big.Int).Sub(p.TotalStake, pos.Stake)
	p.StakeholderCount--
	if pos.Locked.Sign() > 0 {
		reserved, err := s.storage.getReserved(addr, who)
		if err != nil {
			return err
		}
		if err := s.storage.setReserved(addr, who, reserved.Add(reserved, pos.Locked)); err != nil {
			return err
		}
		p.Reserved = new(big.Int).Add(p.Reserved, pos.Locked)
	}
	return s.storage.removeMember(addr, who)
}

// Withdraw pays out the earnings of who and returns the amount paid.
func (s *Service) Withdraw(addr, who thor.Address) (*big.Int, error) {
	p, err := s.load(addr)
	if err != nil {
		return nil, err
	}
	pos, err := s.storage.getPosition(addr, who)
	if err != nil {
		return nil, err
	}
	if !pos.Exists() {
		return nil, reverts.Conflict("%v is not a stakeholder of %v", who, addr)
	}
	pos.settle(p.Accumulator)
	earnings := pos.Earnings
	pos.Earnings = new(big.Int)

	if err := s.storage.setPosition(addr, who, pos); err != nil {
		return nil, err
	}
	if err := s.storage.setPool(addr, p); err != nil {
		return nil, err
	}
	if earnings.Sign() > 0 {
		if err := s.token.Transfer(addr, who, earnings); err != nil {
			return nil, err
		}
	}
	s.env.Log("EarningsWithdrawn", addr, who, earnings, nil)
	logger.Debug("earnings withdrawn", "pool", addr, "who", who, "amount", earnings)
	return earnings, nil
}

func (s *Service) mustPosition(addr, who thor.Address) (*Position, error) {
	pos, err := s.storage.getPosition(addr, who)
	if err != nil {
		return nil, err
	}
	if !pos.Exists() {
		return nil, reverts.Conflict("%v is not a stakeholder of %v", who, addr)
	}
	return pos, nil
}
