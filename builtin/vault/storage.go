// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/linkedlist"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotVaults     = nameToSlot("vaults")
	slotOwners     = nameToSlot("owners")
	slotVaultList  = nameToSlot("vault-list")
	slotVaultCount = nameToSlot("vault-count")
	slotShares     = nameToSlot("shares")
	slotStakes     = nameToSlot("stakes")
	slotQueue      = nameToSlot("queue")
)

func nameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}

func pairKey(a, b thor.Address) thor.Bytes32 {
	return thor.Blake2b(a.Bytes(), b.Bytes())
}

type storage struct {
	sctx       *solidity.Context
	vaults     *solidity.Mapping[thor.Address, *Vault]
	owners     *solidity.Mapping[thor.Address, thor.Address]
	vaultList  *linkedlist.LinkedList[thor.Address]
	vaultCount *solidity.Uint256
	shares     *solidity.Mapping[thor.Bytes32, *big.Int]
	stakes     *solidity.Mapping[thor.Bytes32, *Stake]
	entries    *solidity.Mapping[thor.Bytes32, *QueueEntry]
}

func newStorage(sctx *solidity.Context) *storage {
	return &storage{
		sctx:       sctx,
		vaults:     solidity.NewMapping[thor.Address, *Vault](sctx, slotVaults),
		owners:     solidity.NewMapping[thor.Address, thor.Address](sctx, slotOwners),
		vaultList:  linkedlist.New[thor.Address](sctx, slotVaultList),
		vaultCount: solidity.NewUint256(sctx, slotVaultCount),
		shares:     solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotShares),
		stakes:     solidity.NewMapping[thor.Bytes32, *Stake](sctx, slotStakes),
		entries:    solidity.NewMapping[thor.Bytes32, *QueueEntry](sctx, slotQueue),
	}
}

// pools lists the pools a vault is staked in.
func (s *storage) pools(vault thor.Address) *linkedlist.LinkedList[thor.Address] {
	return linkedlist.New[thor.Address](s.sctx, thor.Blake2b([]byte("pools"), vault.Bytes()))
}

// queue is the FIFO of undelegation requests of a vault.
func (s *storage) queue(vault thor.Address) *linkedlist.LinkedList[thor.Bytes32] {
	return linkedlist.New[thor.Bytes32](s.sctx, thor.Blake2b([]byte("queue"), vault.Bytes()))
}

func entryID(vault thor.Address, seq uint64) thor.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return thor.Blake2b(vault.Bytes(), b[:])
}

func (s *storage) getVault(addr thor.Address) (*Vault, error) {
	v, err := s.vaults.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vault")
	}
	v.normalize()
	return v, nil
}

func (s *storage) setVault(addr thor.Address, v *Vault) error {
	if err := s.vaults.Set(addr, v); err != nil {
		return errors.Wrap(err, "failed to set vault")
	}
	return nil
}

func (s *storage) getShares(vault, who thor.Address) (*big.Int, error) {
	return s.shares.Get(pairKey(vault, who))
}

func (s *storage) setShares(vault, who thor.Address, shares *big.Int) error {
	if shares.Sign() == 0 {
		s.shares.Delete(pairKey(vault, who))
		return nil
	}
	return s.shares.Set(pairKey(vault, who), shares)
}

func (s *storage) getStake(vault, pool thor.Address) (*Stake, error) {
	st, err := s.stakes.Get(pairKey(vault, pool))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stake")
	}
	if st.Amount == nil {
		st.Amount = new(big.Int)
	}
	return st, nil
}

func (s *storage) setStake(vault, pool thor.Address, st *Stake) error {
	return s.stakes.Set(pairKey(vault, pool), st)
}

func (s *storage) getEntry(id thor.Bytes32) (*QueueEntry, error) {
	e, err := s.entries.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get queue entry")
	}
	e.ID = id
	if e.Shares == nil {
		e.Shares = new(big.Int)
	}
	if e.Paid == nil {
		e.Paid = new(big.Int)
	}
	return e, nil
}
