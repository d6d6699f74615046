// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"io"
	"math/big"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
)

// Bootstrap describes the initial state of a new ledger.
type Bootstrap struct {
	Executor   string            `yaml:"executor"`
	Params     map[string]string `yaml:"params"`
	Identities []string          `yaml:"identities"`
	Policies   []string          `yaml:"policies"`
	Balances   map[string]string `yaml:"balances"`
}

func loadBootstrap(path string) (*Bootstrap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open bootstrap file")
	}
	defer f.Close()
	return decodeBootstrap(f)
}

func decodeBootstrap(r io.Reader) (*Bootstrap, error) {
	var b Bootstrap
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode bootstrap file")
	}
	return &b, nil
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, errors.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// sortedKeys keeps the order of operations, and so the sequence numbers, stable.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply runs the bootstrap as executor operations. A ledger that already has
// operations is left untouched.
func (b *Bootstrap) Apply(l *ledger.Ledger) error {
	if seq, _ := l.Head(); seq > 0 {
		log.Info("ledger already initialized, bootstrap skipped", "seq", seq)
		return nil
	}
	if b.Executor == "" {
		return errors.New("executor address required")
	}
	executor, err := thor.ParseAddress(b.Executor)
	if err != nil {
		return errors.Wrap(err, "executor")
	}
	if _, err := l.Init(*executor); err != nil {
		return errors.Wrap(err, "init")
	}

	for _, name := range sortedKeys(b.Params) {
		value, err := parseAmount(b.Params[name])
		if err != nil {
			return errors.Wrapf(err, "param %v", name)
		}
		if _, err := l.SetParam(*executor, name, value); err != nil {
			return errors.Wrapf(err, "param %v", name)
		}
	}
	for _, id := range b.Identities {
		if _, err := l.RegisterIdentity(*executor, id); err != nil {
			return errors.Wrapf(err, "identity %v", id)
		}
	}
	for _, kind := range b.Policies {
		if _, err := l.ApprovePolicy(*executor, kind, true); err != nil {
			return errors.Wrapf(err, "policy %v", kind)
		}
	}
	for _, holder := range sortedKeys(b.Balances) {
		to, err := thor.ParseAddress(holder)
		if err != nil {
			return errors.Wrapf(err, "balance %v", holder)
		}
		amount, err := parseAmount(b.Balances[holder])
		if err != nil {
			return errors.Wrapf(err, "balance %v", holder)
		}
		if _, err := l.Mint(*executor, *to, amount); err != nil {
			return errors.Wrapf(err, "balance %v", holder)
		}
	}

	seq, _ := l.Head()
	log.Info("ledger bootstrapped", "executor", executor, "seq", seq)
	return nil
}
