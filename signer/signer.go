// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package signer authenticates the envelopes chains exchange.
package signer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/crypto/bls"

	"github.com/luxfi/xcm/types"
)

var (
	_ Signer = (*LocalSigner)(nil)

	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownChain     = errors.New("unknown chain key")
)

// Signer signs envelope bytes on behalf of one chain
type Signer interface {
	// Sign returns the compressed signature of msg
	Sign(msg []byte) ([]byte, error)

	// PublicKey returns the key signatures verify against
	PublicKey() *bls.PublicKey
}

// LocalSigner signs with a secret key held in memory
type LocalSigner struct {
	sk *bls.SecretKey
	pk *bls.PublicKey
}

// NewLocalSigner creates a new local signer
func NewLocalSigner(sk *bls.SecretKey) *LocalSigner {
	return &LocalSigner{
		sk: sk,
		pk: sk.PublicKey(),
	}
}

// GenerateLocalSigner creates a signer with a fresh secret key
func GenerateLocalSigner() (*LocalSigner, error) {
	sk, err := bls.NewSecretKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return NewLocalSigner(sk), nil
}

func (s *LocalSigner) Sign(msg []byte) ([]byte, error) {
	sig, err := s.sk.Sign(msg)
	if err != nil {
		return nil, err
	}
	return bls.SignatureToBytes(sig), nil
}

func (s *LocalSigner) PublicKey() *bls.PublicKey {
	return s.pk
}

// Verify checks a compressed signature of msg against pk
func Verify(pk *bls.PublicKey, msg, sigBytes []byte) error {
	sig, err := bls.SignatureFromBytes(sigBytes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if !bls.Verify(pk, sig, msg) {
		return ErrInvalidSignature
	}
	return nil
}

// Keyring maps chains to the public keys their envelopes are signed with
type Keyring struct {
	lock sync.RWMutex
	keys map[types.ChainID]*bls.PublicKey
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[types.ChainID]*bls.PublicKey)}
}

// Register sets the key of chain, replacing any previous key
func (k *Keyring) Register(chain types.ChainID, pk *bls.PublicKey) {
	k.lock.Lock()
	defer k.lock.Unlock()

	k.keys[chain] = pk
}

// Verify checks that chain signed msg
func (k *Keyring) Verify(chain types.ChainID, msg, sig []byte) error {
	k.lock.RLock()
	pk, ok := k.keys[chain]
	k.lock.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChain, chain)
	}
	return Verify(pk, msg, sig)
}
