// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault implements delegation vaults. Delegators hold shares of a vault whose operator
// stakes the pooled tokens into reward pools; realized earnings raise the value of a share.
package vault

import (
	"math/big"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/rewardpool"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var logger = log.WithContext("pkg", "vault")

// Service binder of the delegation vaults.
type Service struct {
	addr    thor.Address
	env     *xenv.Environment
	params  *params.Params
	token   *token.Token
	pools   *rewardpool.Service
	storage *storage
}

func New(
	addr thor.Address,
	env *xenv.Environment,
	params *params.Params,
	token *token.Token,
	pools *rewardpool.Service,
) *Service {
	return &Service{
		addr:    addr,
		env:     env,
		params:  params,
		token:   token,
		pools:   pools,
		storage: newStorage(solidity.NewContext(addr, env.State())),
	}
}

// Vault returns the vault record; an empty record if addr is not a vault.
func (s *Service) Vault(addr thor.Address) (*Vault, error) {
	return s.storage.getVault(addr)
}

// IsVault implements rewardpool.Hooks.
func (s *Service) IsVault(addr thor.Address) (bool, error) {
	v, err := s.storage.getVault(addr)
	if err != nil {
		return false, err
	}
	return v.Exists(), nil
}

// VaultOf returns the vault of owner, zero if none.
func (s *Service) VaultOf(owner thor.Address) (thor.Address, error) {
	return s.storage.owners.Get(owner)
}

// Vaults returns all vault addresses in creation order.
func (s *Service) Vaults() ([]thor.Address, error) {
	return s.storage.vaultList.Keys()
}

// SharesOf returns the shares held by who.
func (s *Service) SharesOf(addr, who thor.Address) (*big.Int, error) {
	return s.storage.getShares(addr, who)
}

// Stake returns the stake of the vault in pool.
func (s *Service) Stake(addr, pool thor.Address) (*Stake, error) {
	return s.storage.getStake(addr, pool)
}

// Pools returns the pools the vault is staked in.
func (s *Service) Pools(addr thor.Address) ([]thor.Address, error) {
	return s.storage.pools(addr).Keys()
}

// FreeCapital returns the tokens held by the vault and not staked.
func (s *Service) FreeCapital(addr thor.Address) (*big.Int, error) {
	return s.token.BalanceOf(addr)
}

// ValueExact returns free capital plus staked amounts. Shares are minted and burned at this value.
func (s *Service) ValueExact(addr thor.Address) (*big.Int, error) {
	v, err := s.mustVault(addr)
	if err != nil {
		return nil, err
	}
	return s.valueOf(addr, v)
}

func (s *Service) valueOf(addr thor.Address, v *Vault) (*big.Int, error) {
	free, err := s.token.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	return free.Add(free, v.TotalStaked), nil
}

// ValueApprox adds the unwithdrawn earnings of every pool to the exact value. Display only:
// fees and the operator's cut are not deducted until the earnings are realized.
func (s *Service) ValueApprox(addr thor.Address) (*big.Int, error) {
	value, err := s.ValueExact(addr)
	if err != nil {
		return nil, err
	}
	err = s.storage.pools(addr).Iter(func(pool thor.Address) error {
		e, err := s.pools.Earnings(pool, addr)
		if err != nil {
			return err
		}
		value.Add(value, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ExchangeRate returns the exact value of one share, scaled by 1e18.
func (s *Service) ExchangeRate(addr thor.Address) (*big.Int, error) {
	v, err := s.mustVault(addr)
	if err != nil {
		return nil, err
	}
	if v.TotalShares.Sign() == 0 {
		return new(big.Int).Set(thor.Ether), nil
	}
	value, err := s.valueOf(addr, v)
	if err != nil {
		return nil, err
	}
	rate := value.Mul(value, thor.Ether)
	return rate.Quo(rate, v.TotalShares), nil
}

func (s *Service) mustVault(addr thor.Address) (*Vault, error) {
	v, err := s.storage.getVault(addr)
	if err != nil {
		return nil, err
	}
	if !v.Exists() {
		return nil, reverts.External("unknown vault %v", addr)
	}
	return v, nil
}

func (s *Service) requireOwner(v *Vault, caller thor.Address) error {
	if caller != v.Owner {
		return reverts.Policy("caller %v is not the vault operator", caller)
	}
	return nil
}

// Create opens the vault of owner. Each owner has at most one vault.
func (s *Service) Create(owner thor.Address, operatorsCut *big.Int) (thor.Address, error) {
	if owner.IsZero() {
		return thor.Address{}, reverts.Invariant("zero owner")
	}
	if operatorsCut == nil || !thor.IsFraction(operatorsCut) {
		return thor.Address{}, reverts.Invariant("operator's cut out of range")
	}
	existing, err := s.VaultOf(owner)
	if err != nil {
		return thor.Address{}, err
	}
	if !existing.IsZero() {
		return thor.Address{}, reverts.Invariant("%v already owns vault %v", owner, existing)
	}

	addr := thor.CreateAddress("vault", owner, 0)
	v := &Vault{
		Owner:        owner,
		OperatorsCut: new(big.Int).Set(operatorsCut),
		CreatedAt:    s.env.Time(),
	}
	v.normalize()
	if err := s.storage.setVault(addr, v); err != nil {
		return thor.Address{}, err
	}
	if err := s.storage.owners.Set(owner, addr); err != nil {
		return thor.Address{}, err
	}
	if err := s.storage.vaultList.Add(addr); err != nil {
		return thor.Address{}, err
	}
	if _, err := s.storage.vaultCount.Increment(); err != nil {
		return thor.Address{}, err
	}

	s.env.Log("VaultCreated", addr, owner, nil, map[string]string{"operatorsCut": operatorsCut.String()})
	logger.Info("vault created", "vault", addr, "owner", owner, "cut", operatorsCut)
	return addr, nil
}

// SetOperatorsCut changes the operator's cut; only while the vault is not staked anywhere.
func (s *Service) SetOperatorsCut(addr, caller thor.Address, cut *big.Int) error {
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	if err := s.requireOwner(v, caller); err != nil {
		return err
	}
	if cut == nil || !thor.IsFraction(cut) {
		return reverts.Invariant("operator's cut out of range")
	}
	if v.PoolCount > 0 {
		return reverts.Conflict("vault is staked in %d pools", v.PoolCount)
	}
	v.OperatorsCut = new(big.Int).Set(cut)
	if err := s.storage.setVault(addr, v); err != nil {
		return err
	}
	s.env.Log("OperatorsCutUpdated", addr, caller, cut, nil)
	logger.Info("operator's cut updated", "vault", addr, "cut", cut)
	return nil
}

// Delegate mints shares for amount to who. The tokens must already be credited to the vault.
func (s *Service) Delegate(addr, who thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Invariant("delegation amount must be positive")
	}
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	cfg, err := s.params.Config()
	if err != nil {
		return err
	}
	value, err := s.valueOf(addr, v)
	if err != nil {
		return err
	}
	before := new(big.Int).Sub(value, amount)
	if v.TotalShares.Sign() > 0 && before.Sign() == 0 {
		return reverts.Conflict("vault %v shares are worth nothing", addr)
	}
	minted := toShares(amount, before, v.TotalShares)
	if minted.Sign() == 0 {
		return reverts.Invariant("delegation of %v buys no shares", amount)
	}

	shares, err := s.storage.getShares(addr, who)
	if err != nil {
		return err
	}
	shares.Add(shares, minted)
	v.TotalShares = new(big.Int).Add(v.TotalShares, minted)

	if balance := toAmount(shares, value, v.TotalShares); balance.Cmp(cfg.MinDelegation) < 0 {
		return reverts.Invariant("delegation %v below minimum %v", balance, cfg.MinDelegation)
	}
	if who != v.Owner {
		own, err := s.storage.getShares(addr, v.Owner)
		if err != nil {
			return err
		}
		// own / total >= floor
		lhs := new(big.Int).Mul(own, thor.Ether)
		rhs := new(big.Int).Mul(v.TotalShares, cfg.MinSelfDelegationFraction)
		if lhs.Cmp(rhs) < 0 {
			return reverts.Invariant("operator's own delegation would fall below %v", cfg.MinSelfDelegationFraction)
		}
	}

	if err := s.storage.setShares(addr, who, shares); err != nil {
		return err
	}
	if err := s.storage.setVault(addr, v); err != nil {
		return err
	}
	s.env.Log("Delegated", addr, who, amount, map[string]string{"shares": minted.String()})
	logger.Debug("delegated", "vault", addr, "who", who, "amount", amount, "shares", minted)

	_, err = s.drain(addr, 0)
	return err
}

// Undelegate queues the burn of shares for who and pays out as much as free capital allows.
// A request leaving less than the minimum delegation is extended to all shares of who.
func (s *Service) Undelegate(addr, who thor.Address, shares *big.Int) error {
	if shares.Sign() <= 0 {
		return reverts.Invariant("undelegation amount must be positive")
	}
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	balance, err := s.storage.getShares(addr, who)
	if err != nil {
		return err
	}
	if balance.Sign() == 0 {
		return reverts.Invariant("%v holds no shares", who)
	}
	requested := new(big.Int).Set(shares)
	if requested.Cmp(balance) > 0 {
		requested.Set(balance)
	}

	minDelegation, err := s.params.Get(thor.KeyMinDelegation)
	if err != nil {
		return err
	}
	value, err := s.valueOf(addr, v)
	if err != nil {
		return err
	}
	remaining := new(big.Int).Sub(balance, requested)
	if remaining.Sign() > 0 && toAmount(remaining, value, v.TotalShares).Cmp(minDelegation) < 0 {
		requested.Set(balance)
	}

	v.QueueSeq++
	entry := &QueueEntry{
		ID:          entryID(addr, v.QueueSeq),
		Delegator:   who,
		Shares:      requested,
		RequestedAt: s.env.Time(),
		Paid:        new(big.Int),
	}
	if err := s.storage.entries.Set(entry.ID, entry); err != nil {
		return err
	}
	if err := s.storage.queue(addr).Add(entry.ID); err != nil {
		return err
	}
	if err := s.storage.setVault(addr, v); err != nil {
		return err
	}
	s.env.Log("Undelegated", addr, who, requested, nil)
	s.env.Log("QueueEntryCreated", addr, who, requested, map[string]string{"id": entry.ID.String()})
	logger.Debug("undelegation queued", "vault", addr, "who", who, "shares", requested)

	_, err = s.drain(addr, 0)
	return err
}

// TransferShares moves shares between delegators. Both must end with zero or at least
// the minimum delegation.
func (s *Service) TransferShares(addr, from, to thor.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Invariant("share amount must be positive")
	}
	if from == to {
		return reverts.Invariant("transfer to self")
	}
	v, err := s.mustVault(addr)
	if err != nil {
		return err
	}
	fromShares, err := s.storage.getShares(addr, from)
	if err != nil {
		return err
	}
	if fromShares.Cmp(amount) < 0 {
		return reverts.Invariant("insufficient shares: has %v, needs %v", fromShares, amount)
	}
	toBalance, err := s.storage.getShares(addr, to)
	if err != nil {
		return err
	}
	minDelegation, err := s.params.Get(thor.KeyMinDelegation)
	if err != nil {
		return err
	}
	value, err := s.valueOf(addr, v)
	if err != nil {
		return err
	}

	fromShares.Sub(fromShares, amount)
	toBalance.Add(toBalance, amount)
	if fromShares.Sign() > 0 && toAmount(fromShares, value, v.TotalShares).Cmp(minDelegation) < 0 {
		return reverts.Invariant("sender would keep less than the minimum delegation")
	}
	if toAmount(toBalance, value, v.TotalShares).Cmp(minDelegation) < 0 {
		return reverts.Invariant("recipient would hold less than the minimum delegation")
	}

	if err := s.storage.setShares(addr, from, fromShares); err != nil {
		return err
	}
	if err := s.storage.setShares(addr, to, toBalance); err != nil {
		return err
	}
	s.env.Log("SharesTransferred", addr, to, amount, map[string]string{"from": from.String()})
	logger.Debug("shares transferred", "vault", addr, "from", from, "to", to, "shares", amount)
	return nil
}
