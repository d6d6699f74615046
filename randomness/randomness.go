// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package randomness provides the seeds used for reviewer selection.
package randomness

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/vechain/go-ecvrf"

	"github.com/vechain/stakeledger/thor"
)

// Source returns a seed for the given input.
type Source interface {
	Seed(alpha []byte) (thor.Bytes32, error)
}

// VRFSource derives seeds with secp256k1 ECVRF, so every seed comes with a proof anyone holding the
// public key can verify.
type VRFSource struct {
	key *ecdsa.PrivateKey
}

// NewVRFSource creates a source from a private key.
func NewVRFSource(key *ecdsa.PrivateKey) *VRFSource {
	return &VRFSource{key: key}
}

// Seed implements Source.
func (s *VRFSource) Seed(alpha []byte) (thor.Bytes32, error) {
	beta, _, err := s.Prove(alpha)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return thor.BytesToBytes32(beta), nil
}

// Prove returns the VRF output and its proof.
func (s *VRFSource) Prove(alpha []byte) (beta, proof []byte, err error) {
	beta, proof, err = ecvrf.NewSecp256k1Sha256Tai().Prove(s.key, alpha)
	if err != nil {
		return nil, nil, errors.Wrap(err, "vrf prove")
	}
	return beta, proof, nil
}

// PublicKey returns the key verifiers need.
func (s *VRFSource) PublicKey() *ecdsa.PublicKey {
	return &s.key.PublicKey
}

// Address returns the address of the source key.
func (s *VRFSource) Address() thor.Address {
	return thor.Address(crypto.PubkeyToAddress(s.key.PublicKey))
}

// Verify checks proof against alpha and returns the seed it proves.
func Verify(pub *ecdsa.PublicKey, alpha, proof []byte) (thor.Bytes32, error) {
	beta, err := ecvrf.NewSecp256k1Sha256Tai().Verify(pub, alpha, proof)
	if err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "vrf verify")
	}
	return thor.BytesToBytes32(beta), nil
}

// FixedSource derives seeds by hashing alpha with a fixed salt. For tests and local runs.
type FixedSource thor.Bytes32

// Seed implements Source.
func (s FixedSource) Seed(alpha []byte) (thor.Bytes32, error) {
	return thor.Blake2b(s[:], alpha), nil
}

// LoadOrGenerateKey reads the key stored at path, creating one when absent.
func LoadOrGenerateKey(path string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.LoadECDSA(path)
	if err == nil {
		return key, nil
	}
	key, err = crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate vrf key")
	}
	if err := crypto.SaveECDSA(path, key); err != nil {
		return nil, errors.Wrap(err, "save vrf key")
	}
	return key, nil
}
