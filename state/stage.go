// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/thor"
)

// Stage abstracts changes on the ledger storage.
type Stage struct {
	db      kv.GetPutter
	cache   *slotCache
	keys    []storageKey
	changes map[storageKey]rlp.RawValue
}

func newStage(db kv.GetPutter, cache *slotCache, keys []storageKey, changes map[storageKey]rlp.RawValue) *Stage {
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].dbKey(), keys[j].dbKey()) < 0
	})
	return &Stage{
		db:      db,
		cache:   cache,
		keys:    keys,
		changes: changes,
	}
}

// Len returns the number of changed storage slots.
func (s *Stage) Len() int {
	return len(s.keys)
}

// Hash computes the digest of all staged changes.
func (s *Stage) Hash() thor.Bytes32 {
	return thor.Blake2bFn(func(w io.Writer) {
		for _, k := range s.keys {
			w.Write(k.dbKey())
			w.Write(s.changes[k])
		}
	})
}

// Commit writes all changes into the kv store in one batch.
func (s *Stage) Commit() error {
	batch := s.db.NewBatch()
	for _, k := range s.keys {
		v := s.changes[k]
		if len(v) == 0 {
			if err := batch.Delete(k.dbKey()); err != nil {
				return errors.Wrap(err, "delete storage")
			}
		} else {
			if err := batch.Put(k.dbKey(), v); err != nil {
				return errors.Wrap(err, "put storage")
			}
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write batch")
	}
	if s.cache != nil {
		for _, k := range s.keys {
			s.cache.set(k.dbKey(), s.changes[k])
		}
	}
	return nil
}
