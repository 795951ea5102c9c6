// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package location

import (
	"fmt"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/xcm/cache"
	"github.com/luxfi/xcm/types"
)

const hashedDescriptionPrefix = "HashedDescription"

var (
	_ Strategy  = HashedDescription{}
	_ Strategy  = AccountID32Aliases{}
	_ Converter = (*chainConverter)(nil)
	_ Converter = (*CachedConverter)(nil)
)

// Converter resolves a location, as seen by the chain owning the converter,
// into a local account identifier.
type Converter interface {
	Convert(loc Location) (types.AccountID, error)
}

// Strategy is one resolution rule. It reports ok=false when the location
// is outside of the shapes it understands.
type Strategy interface {
	Convert(loc Location) (id types.AccountID, ok bool)
}

type chainConverter struct {
	strategies []Strategy
}

// NewConverter tries each strategy in order and returns the first match
func NewConverter(strategies ...Strategy) Converter {
	return &chainConverter{strategies: strategies}
}

// DefaultConverter hashes chain-family locations and aliases local
// AccountID32 junctions of the given network.
func DefaultConverter(network types.NetworkID) Converter {
	return NewConverter(
		HashedDescription{},
		AccountID32Aliases{Network: network},
	)
}

func (c *chainConverter) Convert(loc Location) (types.AccountID, error) {
	if err := loc.Verify(); err != nil {
		return types.AccountID{}, err
	}
	for _, s := range c.strategies {
		if id, ok := s.Convert(loc); ok {
			return id, nil
		}
	}
	return types.AccountID{}, fmt.Errorf("%w: no strategy resolves %s", ErrUnsupportedJunction, loc)
}

// HashedDescription hashes a description of the location's chain family
// and terminal junction. Two chains describing the same remote account
// arrive at the same identifier without coordination.
type HashedDescription struct{}

func (HashedDescription) Convert(loc Location) (types.AccountID, bool) {
	desc, ok := describeFamily(loc)
	if !ok {
		return types.AccountID{}, false
	}
	encoded, err := rlp.EncodeToBytes([]interface{}{hashedDescriptionPrefix, desc})
	if err != nil {
		return types.AccountID{}, false
	}
	var id types.AccountID
	copy(id[:], crypto.Keccak256(encoded))
	return id, true
}

// describeFamily matches child (0,[Parachain,..]), sibling (1,[Parachain,..])
// and parent (1,[..]) locations.
func describeFamily(loc Location) ([]byte, bool) {
	var (
		family []interface{}
		rest   []Junction
	)
	first, hasFirst := loc.First()
	switch {
	case loc.Parents == 0 && hasFirst && first.Kind == KindParachain:
		family = []interface{}{"ChildChain", first.Index}
		rest = loc.Interior[1:]
	case loc.Parents == 1 && hasFirst && first.Kind == KindParachain:
		family = []interface{}{"SiblingChain", first.Index}
		rest = loc.Interior[1:]
	case loc.Parents == 1:
		family = []interface{}{"ParentChain"}
		rest = loc.Interior
	default:
		return nil, false
	}

	terminal, ok := describeTerminal(rest)
	if !ok {
		return nil, false
	}
	b, err := rlp.EncodeToBytes(append(family, terminal))
	if err != nil {
		return nil, false
	}
	return b, true
}

// describeTerminal accepts nothing or exactly one terminal junction
func describeTerminal(rest []Junction) ([]byte, bool) {
	var parts []interface{}
	switch len(rest) {
	case 0:
		return []byte{}, true
	case 1:
		j := rest[0]
		switch j.Kind {
		case KindAccountID32:
			parts = []interface{}{"AccountId32", j.Key}
		case KindAccountKey20:
			parts = []interface{}{"AccountKey20", j.Key}
		case KindPalletInstance:
			parts = []interface{}{"Pallet", j.Index}
		case KindGeneralIndex:
			parts = []interface{}{"GeneralIndex", j.Index}
		default:
			return nil, false
		}
	default:
		return nil, false
	}
	b, err := rlp.EncodeToBytes(parts)
	return b, err == nil
}

// AccountID32Aliases maps (0, [AccountID32{network, id}]) straight to id
// when network is unspecified or equals the chain's own network.
type AccountID32Aliases struct {
	Network types.NetworkID
}

func (a AccountID32Aliases) Convert(loc Location) (types.AccountID, bool) {
	if loc.Parents != 0 || len(loc.Interior) != 1 {
		return types.AccountID{}, false
	}
	j := loc.Interior[0]
	if j.Network != types.AnyNetwork && j.Network != a.Network {
		return types.AccountID{}, false
	}
	return j.Account()
}

// CachedConverter memoizes conversions keyed by the canonical encoding
type CachedConverter struct {
	inner Converter
	cache *cache.FIFOCache[string, types.AccountID]
}

// NewCachedConverter wraps inner with a FIFO cache of the given size
func NewCachedConverter(inner Converter, size int) *CachedConverter {
	return &CachedConverter{
		inner: inner,
		cache: cache.NewFIFOCache[string, types.AccountID](size),
	}
}

func (c *CachedConverter) Convert(loc Location) (types.AccountID, error) {
	return c.cache.Get(string(loc.Bytes()), func(string) (types.AccountID, error) {
		return c.inner.Convert(loc)
	})
}

// Len returns the number of memoized conversions
func (c *CachedConverter) Len() int {
	return c.cache.Len()
}
