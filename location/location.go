// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package location implements relative, hierarchical addresses and the
// conversion of those addresses into local account identifiers.
package location

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/xcm/types"
)

// MaxJunctions bounds the interior of a location
const MaxJunctions = 8

var (
	ErrInvalidLocation     = errors.New("invalid location")
	ErrUnsupportedJunction = errors.New("unsupported junction")
	ErrNotAChain           = errors.New("location does not name a chain")
)

// Location is an address relative to the chain that evaluates it: climb
// Parents hops, then descend through Interior. The same value names
// different things on different chains.
type Location struct {
	Parents  uint8      `serialize:"true"`
	Interior []Junction `serialize:"true"`
}

// New creates a location
func New(parents uint8, interior ...Junction) Location {
	return Location{Parents: parents, Interior: interior}
}

// Here is the evaluating chain itself
func Here() Location {
	return Location{}
}

// Parent is the parent consensus system. It also identifies the native asset.
func Parent() Location {
	return Location{Parents: 1}
}

// Sibling is a chain that shares our parent
func Sibling(id types.ChainID) Location {
	return New(1, Parachain(id))
}

// Account is a local 32-byte account with no network constraint
func Account(id types.AccountID) Location {
	return New(0, AccountID32(types.AnyNetwork, id))
}

// IsHere reports whether the location denotes the evaluating chain
func (l Location) IsHere() bool {
	return l.Parents == 0 && len(l.Interior) == 0
}

// Verify checks every junction and the interior length
func (l Location) Verify() error {
	if len(l.Interior) > MaxJunctions {
		return fmt.Errorf("%w: %d junctions exceeds maximum %d", ErrInvalidLocation, len(l.Interior), MaxJunctions)
	}
	for i, j := range l.Interior {
		if err := j.Verify(); err != nil {
			return fmt.Errorf("junction %d: %w", i, err)
		}
	}
	return nil
}

// Equal compares parents and junctions. A nil and an empty interior are equal.
func (l Location) Equal(other Location) bool {
	if l.Parents != other.Parents || len(l.Interior) != len(other.Interior) {
		return false
	}
	for i := range l.Interior {
		if !l.Interior[i].Equal(other.Interior[i]) {
			return false
		}
	}
	return true
}

// Append returns a new location with extra junctions
func (l Location) Append(junctions ...Junction) Location {
	interior := make([]Junction, 0, len(l.Interior)+len(junctions))
	interior = append(interior, l.Interior...)
	interior = append(interior, junctions...)
	return Location{Parents: l.Parents, Interior: interior}
}

// First returns the first interior junction, if any
func (l Location) First() (Junction, bool) {
	if len(l.Interior) == 0 {
		return Junction{}, false
	}
	return l.Interior[0], true
}

// Bytes returns the canonical encoding of the location
func (l Location) Bytes() []byte {
	b, _ := rlp.EncodeToBytes(&l)
	return b
}

// Parse decodes and verifies a location
func Parse(b []byte) (Location, error) {
	var l Location
	if err := rlp.DecodeBytes(b, &l); err != nil {
		return Location{}, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	if err := l.Verify(); err != nil {
		return Location{}, err
	}
	return l, nil
}

func (l Location) String() string {
	parts := make([]string, len(l.Interior))
	for i, j := range l.Interior {
		parts[i] = j.String()
	}
	return fmt.Sprintf("(%d, [%s])", l.Parents, strings.Join(parts, ", "))
}

// ChainOf resolves a destination location to a chain ID. Both the sibling
// form (1, [Parachain(id)]) and the child form (0, [Parachain(id)]) are
// accepted.
func ChainOf(l Location) (types.ChainID, error) {
	if l.Parents > 1 || len(l.Interior) != 1 || l.Interior[0].Kind != KindParachain {
		return 0, fmt.Errorf("%w: %s", ErrNotAChain, l)
	}
	if err := l.Interior[0].Verify(); err != nil {
		return 0, err
	}
	return types.ChainID(l.Interior[0].Index), nil
}
