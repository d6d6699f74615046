// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry keeps the identities pools may be created for, and the policy variants trusted for pools.
package registry

import (
	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	logger = log.WithContext("pkg", "registry")

	slotIdentities = nameToSlot("identities")
	slotPolicies   = nameToSlot("policies")
)

func nameToSlot(name string) thor.Bytes32 {
	return thor.BytesToBytes32([]byte(name))
}

// Registry binder of the identity and policy registry.
type Registry struct {
	addr       thor.Address
	env        *xenv.Environment
	params     *params.Params
	identities *solidity.Mapping[thor.Bytes32, bool]
	policies   *solidity.Mapping[thor.Bytes32, bool]
}

func New(addr thor.Address, env *xenv.Environment, params *params.Params) *Registry {
	sctx := solidity.NewContext(addr, env.State())
	return &Registry{
		addr:       addr,
		env:        env,
		params:     params,
		identities: solidity.NewMapping[thor.Bytes32, bool](sctx, slotIdentities),
		policies:   solidity.NewMapping[thor.Bytes32, bool](sctx, slotPolicies),
	}
}

// IdentityID returns the storage key of an external identity.
func IdentityID(id string) thor.Bytes32 {
	return thor.Blake2b([]byte(id))
}

// Register records an external identity. Executor only.
func (r *Registry) Register(caller thor.Address, id string) error {
	if err := r.params.RequireExecutor(caller); err != nil {
		return err
	}
	if id == "" {
		return reverts.Invariant("empty identity")
	}
	exists, err := r.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return reverts.Conflict("identity %q already registered", id)
	}
	if err := r.identities.Set(IdentityID(id), true); err != nil {
		return err
	}
	r.env.Log("IdentityRegistered", r.addr, caller, nil, map[string]string{"id": id})
	logger.Info("identity registered", "id", id)
	return nil
}

// Exists returns whether the identity is registered.
func (r *Registry) Exists(id string) (bool, error) {
	return r.identities.Get(IdentityID(id))
}

// Approve trusts or distrusts a policy variant. Executor only.
func (r *Registry) Approve(caller thor.Address, kind string, approved bool) error {
	if err := r.params.RequireExecutor(caller); err != nil {
		return err
	}
	if kind == "" {
		return reverts.Invariant("empty policy kind")
	}
	if err := r.policies.Set(thor.Blake2b([]byte(kind)), approved); err != nil {
		return err
	}
	state := "revoked"
	if approved {
		state = "approved"
	}
	r.env.Log("PolicyApproved", r.addr, caller, nil, map[string]string{"kind": kind, "state": state})
	logger.Info("policy "+state, "kind", kind)
	return nil
}

// IsApproved returns whether the policy variant is trusted.
func (r *Registry) IsApproved(kind string) (bool, error) {
	return r.policies.Get(thor.Blake2b([]byte(kind)))
}
