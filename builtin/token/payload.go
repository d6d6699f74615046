// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/thor"
)

// Action selects what a receiver does with credited tokens.
type Action uint8

const (
	ActionNone Action = iota
	ActionFund
	ActionStake
	ActionDelegate
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionFund:
		return "fund"
	case ActionStake:
		return "stake"
	case ActionDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// Payload is the data attached to a transfer-and-call.
type Payload struct {
	Action Action
	// Beneficiary is who the action is taken for, zero means the sender.
	Beneficiary thor.Address
}

// Encode returns the rlp form of the payload.
func (p Payload) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(&p)
}

// DecodePayload parses data produced by Encode. Empty data is an empty payload.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if len(data) == 0 {
		return p, nil
	}
	err := rlp.DecodeBytes(data, &p)
	return p, err
}
