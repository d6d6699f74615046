// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewardpool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/linkedlist"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotPools        = nameToSlot("pools")
	slotPoolList     = nameToSlot("pool-list")
	slotPoolCount    = nameToSlot("pool-count")
	slotPositions    = nameToSlot("positions")
	slotReserved     = nameToSlot("reserved")
	slotStakeholders = nameToSlot("stakeholders")
	slotMemberships  = nameToSlot("memberships")
)

func nameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}

func positionKey(pool, who thor.Address) thor.Bytes32 {
	return thor.Blake2b(pool.Bytes(), who.Bytes())
}

type storage struct {
	sctx         *solidity.Context
	pools        *solidity.Mapping[thor.Address, *Pool]
	poolList     *linkedlist.LinkedList[thor.Address]
	poolCount    *solidity.Uint256
	positions    *solidity.Mapping[thor.Bytes32, *Position]
	reserved     *solidity.Mapping[thor.Bytes32, *big.Int]
	stakeholders *linkedlist.LinkedList[thor.Address] // every address holding at least one position
	memberships  *solidity.Mapping[thor.Address, uint64]
}

func newStorage(sctx *solidity.Context) *storage {
	return &storage{
		sctx:         sctx,
		pools:        solidity.NewMapping[thor.Address, *Pool](sctx, slotPools),
		poolList:     linkedlist.New[thor.Address](sctx, slotPoolList),
		poolCount:    solidity.NewUint256(sctx, slotPoolCount),
		positions:    solidity.NewMapping[thor.Bytes32, *Position](sctx, slotPositions),
		reserved:     solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotReserved),
		stakeholders: linkedlist.New[thor.Address](sctx, slotStakeholders),
		memberships:  solidity.NewMapping[thor.Address, uint64](sctx, slotMemberships),
	}
}

// members is the per pool list of stakeholders, in join order.
func (s *storage) members(pool thor.Address) *linkedlist.LinkedList[thor.Address] {
	return linkedlist.New[thor.Address](s.sctx, thor.Blake2b([]byte("members"), pool.Bytes()))
}

func (s *storage) getPool(addr thor.Address) (*Pool, error) {
	p, err := s.pools.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	p.normalize()
	return p, nil
}

func (s *storage) setPool(addr thor.Address, p *Pool) error {
	if err := s.pools.Set(addr, p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

func (s *storage) getPosition(pool, who thor.Address) (*Position, error) {
	pos, err := s.positions.Get(positionKey(pool, who))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	pos.normalize()
	return pos, nil
}

func (s *storage) setPosition(pool, who thor.Address, pos *Position) error {
	if err := s.positions.Set(positionKey(pool, who), pos); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}

func (s *storage) getReserved(pool, who thor.Address) (*big.Int, error) {
	return s.reserved.Get(positionKey(pool, who))
}

func (s *storage) setReserved(pool, who thor.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		s.reserved.Delete(positionKey(pool, who))
		return nil
	}
	return s.reserved.Set(positionKey(pool, who), amount)
}

// addMember links who into the pool and into the global stakeholder index.
func (s *storage) addMember(pool, who thor.Address) error {
	if err := s.members(pool).Add(who); err != nil {
		return err
	}
	n, err := s.memberships.Get(who)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := s.stakeholders.Add(who); err != nil {
			return err
		}
	}
	return s.memberships.Set(who, n+1)
}

func (s *storage) removeMember(pool, who thor.Address) error {
	if err := s.members(pool).Remove(who); err != nil {
		return err
	}
	s.positions.Delete(positionKey(pool, who))
	n, err := s.memberships.Get(who)
	if err != nil {
		return err
	}
	if n <= 1 {
		s.memberships.Delete(who)
		return s.stakeholders.Remove(who)
	}
	return s.memberships.Set(who, n-1)
}
