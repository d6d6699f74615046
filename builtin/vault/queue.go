// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// QueueEntries returns the pending undelegation requests, oldest first.
func (s *Service) QueueEntries(addr thor.Address) ([]*QueueEntry, error) {
	var entries []*QueueEntry
	err := s.storage.queue(addr).Iter(func(id thor.Bytes32) error {
		e, err := s.storage.getEntry(id)
		if err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// QueueLength returns the number of pending undelegation requests.
func (s *Service) QueueLength(addr thor.Address) (uint64, error) {
	return s.storage.queue(addr).Len()
}

// PayOutQueue pays queued requests from free capital, at most limit entries (0 means all).
// Anyone may call it. Returns the number of entries fully paid.
func (s *Service) PayOutQueue(addr thor.Address, limit uint64) (uint64, error) {
	if _, err := s.mustVault(addr); err != nil {
		return 0, err
	}
	return s.drain(addr, limit)
}

// drain pays the queue head first until free capital runs out. A request is paid at the
// current exchange rate, capped by the shares the delegator still holds.
func (s *Service) drain(addr thor.Address, limit uint64) (uint64, error) {
	queue := s.storage.queue(addr)
	var paid uint64
	for limit == 0 || paid < limit {
		id, err := queue.Head()
		if err != nil {
			return paid, err
		}
		if id.IsZero() {
			break
		}
		entry, err := s.storage.getEntry(id)
		if err != nil {
			return paid, err
		}
		done, err := s.payEntry(addr, entry)
		if err != nil {
			return paid, err
		}
		if !done {
			break
		}
		if err := queue.Remove(id); err != nil {
			return paid, err
		}
		s.storage.entries.Delete(id)
		paid++
	}
	return paid, nil
}

// payEntry pays as much of entry as free capital allows. Returns true if it is settled.
func (s *Service) payEntry(addr thor.Address, entry *QueueEntry) (bool, error) {
	v, err := s.storage.getVault(addr)
	if err != nil {
		return false, err
	}
	held, err := s.storage.getShares(addr, entry.Delegator)
	if err != nil {
		return false, err
	}
	shares := new(big.Int).Set(entry.Shares)
	if shares.Cmp(held) > 0 {
		shares.Set(held)
	}
	if shares.Sign() == 0 {
		s.env.Log("QueueEntryPaid", addr, entry.Delegator, new(big.Int), map[string]string{"id": entry.ID.String(), "shares": "0"})
		return true, nil
	}

	free, err := s.token.BalanceOf(addr)
	if err != nil {
		return false, err
	}
	if free.Sign() == 0 {
		return false, nil
	}
	value := new(big.Int).Add(free, v.TotalStaked)
	amount := toAmount(shares, value, v.TotalShares)

	settled := true
	if amount.Cmp(free) > 0 {
		// pay what the free capital buys
		shares = toShares(free, value, v.TotalShares)
		if shares.Sign() == 0 {
			return false, nil
		}
		amount = toAmount(shares, value, v.TotalShares)
		settled = false
	}

	held.Sub(held, shares)
	if err := s.storage.setShares(addr, entry.Delegator, held); err != nil {
		return false, err
	}
	v.TotalShares = new(big.Int).Sub(v.TotalShares, shares)
	if err := s.storage.setVault(addr, v); err != nil {
		return false, err
	}
	entry.Shares = new(big.Int).Sub(entry.Shares, shares)
	entry.Paid = new(big.Int).Add(entry.Paid, amount)
	if !settled {
		if err := s.storage.entries.Set(entry.ID, entry); err != nil {
			return false, err
		}
	}
	if err := s.token.Transfer(addr, entry.Delegator, amount); err != nil {
		return false, err
	}

	s.env.Log("QueueEntryPaid", addr, entry.Delegator, amount, map[string]string{
		"id":        entry.ID.String(),
		"shares":    shares.String(),
		"remaining": entry.Shares.String(),
	})
	logger.Debug("queue entry paid", "vault", addr, "who", entry.Delegator, "amount", amount, "settled", settled)
	return settled, nil
}
