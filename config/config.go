// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config describes the topology of a network: its chains, who may
// talk to whom, who may mint where, and the balances chains start with.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/holiman/uint256"
	"github.com/luxfi/math/set"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/executor"
	"github.com/luxfi/xcm/types"
)

const (
	defaultNetwork              = uint8(types.AnyNetwork)
	defaultMaxVersion           = uint8(xcm.CurrentVersion)
	defaultMaxWeight            = uint64(executor.DefaultMaxWeight)
	defaultTranslationCacheSize = 1024
)

var (
	ErrNoChains         = errors.New("no chains configured")
	ErrDuplicateChain   = errors.New("duplicate chain")
	ErrUnknownPeer      = errors.New("unknown peer")
	ErrInvalidChain     = errors.New("invalid chain")
	ErrInvalidBalance   = errors.New("invalid balance")
	ErrInvalidCacheSize = errors.New("invalid translation cache size")
)

// ChainConfig is one chain of the network. Zero values inherit the
// network-wide settings.
type ChainConfig struct {
	ID          uint32   `mapstructure:"id" json:"id"`
	Peers       []uint32 `mapstructure:"peers" json:"peers"`
	Teleporters []uint32 `mapstructure:"teleporters" json:"teleporters"`
	MaxVersion  uint8    `mapstructure:"max-version" json:"max-version"`
	MaxWeight   uint64   `mapstructure:"max-weight" json:"max-weight"`
	// Balances maps hex account IDs to decimal amounts
	Balances map[string]string `mapstructure:"balances" json:"balances"`
}

// Config is the network-wide configuration
type Config struct {
	Network uint8 `mapstructure:"network" json:"network"`
	// StoreDir keeps each chain's ledger on disk under a subdirectory.
	// Empty keeps ledgers in memory.
	StoreDir             string        `mapstructure:"store-dir" json:"store-dir"`
	MaxVersion           uint8         `mapstructure:"max-version" json:"max-version"`
	MaxWeight            uint64        `mapstructure:"max-weight" json:"max-weight"`
	TranslationCacheSize int           `mapstructure:"translation-cache-size" json:"translation-cache-size"`
	Chains               []ChainConfig `mapstructure:"chains" json:"chains"`
}

// Validate checks the topology for consistency
func (c *Config) Validate() error {
	if err := xcm.Version(c.MaxVersion).Verify(); err != nil {
		return err
	}
	if c.MaxWeight == 0 {
		return fmt.Errorf("%w: max weight must be positive", ErrInvalidChain)
	}
	if c.TranslationCacheSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.TranslationCacheSize)
	}
	if len(c.Chains) == 0 {
		return ErrNoChains
	}

	chains := set.NewSet[uint32](len(c.Chains))
	for _, chain := range c.Chains {
		if chain.ID == 0 {
			return fmt.Errorf("%w: chain ID must be positive", ErrInvalidChain)
		}
		if chains.Contains(chain.ID) {
			return fmt.Errorf("%w: %d", ErrDuplicateChain, chain.ID)
		}
		chains.Add(chain.ID)
	}
	for _, chain := range c.Chains {
		if err := chain.validate(chains); err != nil {
			return fmt.Errorf("chain %d: %w", chain.ID, err)
		}
	}
	return nil
}

func (c *ChainConfig) validate(chains set.Set[uint32]) error {
	if c.MaxVersion != 0 {
		if err := xcm.Version(c.MaxVersion).Verify(); err != nil {
			return err
		}
	}
	for _, peer := range c.Peers {
		if peer == c.ID || !chains.Contains(peer) {
			return fmt.Errorf("%w: %d", ErrUnknownPeer, peer)
		}
	}
	for _, teleporter := range c.Teleporters {
		if teleporter == c.ID || !chains.Contains(teleporter) {
			return fmt.Errorf("%w: teleporter %d", ErrUnknownPeer, teleporter)
		}
	}
	_, err := c.ParseBalances()
	return err
}

// ChainID returns the typed chain identifier
func (c *ChainConfig) ChainID() types.ChainID {
	return types.ChainID(c.ID)
}

// PeerSet returns the chains this chain may send to
func (c *ChainConfig) PeerSet() set.Set[types.ChainID] {
	return toChainSet(c.Peers)
}

// TeleporterSet returns the chains allowed to mint on this chain
func (c *ChainConfig) TeleporterSet() set.Set[types.ChainID] {
	return toChainSet(c.Teleporters)
}

// ParseBalances decodes the configured genesis balances
func (c *ChainConfig) ParseBalances() (map[types.AccountID]*uint256.Int, error) {
	balances := make(map[types.AccountID]*uint256.Int, len(c.Balances))
	for account, amount := range c.Balances {
		id, err := types.AccountIDFromHex(account)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidBalance, err)
		}
		value, err := uint256.FromDecimal(amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBalance, account, err)
		}
		balances[id] = value
	}
	return balances, nil
}

// ChainMaxVersion resolves the chain's version against the network default
func (c *Config) ChainMaxVersion(chain ChainConfig) xcm.Version {
	if chain.MaxVersion != 0 {
		return xcm.Version(chain.MaxVersion)
	}
	return xcm.Version(c.MaxVersion)
}

// ChainMaxWeight resolves the chain's weight limit against the network default
func (c *Config) ChainMaxWeight(chain ChainConfig) executor.Weight {
	if chain.MaxWeight != 0 {
		return executor.Weight(chain.MaxWeight)
	}
	return executor.Weight(c.MaxWeight)
}

// ChainStoreDir is where the chain keeps its ledger, or empty for memory
func (c *Config) ChainStoreDir(chain ChainConfig) string {
	if c.StoreDir == "" {
		return ""
	}
	return filepath.Join(c.StoreDir, types.ChainID(chain.ID).String())
}

func toChainSet(ids []uint32) set.Set[types.ChainID] {
	s := set.NewSet[types.ChainID](len(ids))
	for _, id := range ids {
		s.Add(types.ChainID(id))
	}
	return s
}
