// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispute

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/shuffle"
	"github.com/vechain/stakeledger/thor"
)

// selectCommittee picks up to size reviewers among all stakeholders except flagger and target.
// Stakeholders without a position in the pool come first, co-stakers only fill the remaining seats.
func (s *Service) selectCommittee(pool, target, flagger thor.Address, openedAt uint64, size uint64) ([]thor.Address, error) {
	var alpha [8]byte
	binary.BigEndian.PutUint64(alpha[:], openedAt)
	seed, err := s.source.Seed(append(append(pool.Bytes(), target.Bytes()...), alpha[:]...))
	if err != nil {
		return nil, errors.Wrap(err, "randomness")
	}

	all, err := s.pools.AllStakeholders()
	if err != nil {
		return nil, err
	}
	members, err := s.pools.Stakeholders(pool)
	if err != nil {
		return nil, err
	}
	inPool := make(map[thor.Address]bool, len(members))
	for _, m := range members {
		inPool[m] = true
	}

	var independent, coStaked []thor.Address
	for _, addr := range all {
		if addr == flagger || addr == target {
			continue
		}
		if inPool[addr] {
			coStaked = append(coStaked, addr)
		} else {
			independent = append(independent, addr)
		}
	}

	committee := make([]thor.Address, 0, size)
	pick := func(candidates []thor.Address, tag string) {
		need := int(size) - len(committee)
		if need <= 0 {
			return
		}
		for _, i := range shuffle.Sample(thor.Blake2b(seed.Bytes(), []byte(tag)).Bytes(), len(candidates), need) {
			committee = append(committee, candidates[i])
		}
	}
	pick(independent, "independent")
	pick(coStaked, "co-staked")
	return committee, nil
}
