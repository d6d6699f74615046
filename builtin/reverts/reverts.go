// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was rejected.
type Kind uint8

const (
	// PolicyViolation caller lacks permission, or the target was not created by a trusted factory.
	PolicyViolation Kind = iota + 1
	// InvariantViolation an amount or bound requirement does not hold.
	InvariantViolation
	// StateConflict the operation is not allowed in the current state.
	StateConflict
	// ExternalDependencyFailure a value transfer or a randomness request failed.
	ExternalDependencyFailure
)

func (k Kind) String() string {
	switch k {
	case PolicyViolation:
		return "policy violation"
	case InvariantViolation:
		return "invariant violation"
	case StateConflict:
		return "state conflict"
	case ExternalDependencyFailure:
		return "external dependency failure"
	default:
		return "unknown"
	}
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Policy(format string, args ...any) *ErrRevert {
	return New(PolicyViolation, fmt.Sprintf(format, args...))
}

func Invariant(format string, args ...any) *ErrRevert {
	return New(InvariantViolation, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *ErrRevert {
	return New(StateConflict, fmt.Sprintf(format, args...))
}

func External(format string, args ...any) *ErrRevert {
	return New(ExternalDependencyFailure, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	_, ok := asRevert(err)
	return ok
}

// KindOf returns the kind of a revert error, or 0 when err is not a revert.
func KindOf(err error) Kind {
	if e, ok := asRevert(err); ok {
		return e.kind
	}
	return 0
}

func asRevert(err any) (*ErrRevert, bool) {
	if err == nil {
		return nil, false
	}
	e, ok := err.(error)
	if !ok {
		return nil, false
	}
	var ve *ErrRevert
	if errors.As(e, &ve) {
		return ve, true
	}
	return nil, false
}
