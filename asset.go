// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/luxfi/xcm/location"
)

// Asset is a fungible amount of the asset class identified by ID
type Asset struct {
	ID     location.Location `serialize:"true"`
	Amount *uint256.Int      `serialize:"true"`
}

// NewAsset creates an asset from a uint64 amount
func NewAsset(id location.Location, amount uint64) Asset {
	return Asset{ID: id, Amount: uint256.NewInt(amount)}
}

// NativeAsset is an amount of the network's native asset, identified by
// the parent location.
func NativeAsset(amount uint64) Asset {
	return NewAsset(location.Parent(), amount)
}

// IsNative reports whether the asset is the native asset
func (a Asset) IsNative() bool {
	return a.ID.Equal(location.Parent())
}

// Verify rejects missing or zero amounts and malformed IDs
func (a Asset) Verify() error {
	if a.Amount == nil || a.Amount.IsZero() {
		return fmt.Errorf("%w: zero amount", ErrInvalidAsset)
	}
	if err := a.ID.Verify(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	return nil
}

func (a Asset) String() string {
	return fmt.Sprintf("%s@%s", a.Amount.Dec(), a.ID)
}

// Assets is an ordered set of assets
type Assets []Asset

// Verify checks the size bound and every asset
func (as Assets) Verify() error {
	if len(as) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidAsset, ErrNoAssets)
	}
	if len(as) > MaxAssets {
		return fmt.Errorf("%w: %d assets exceeds maximum %d", ErrInvalidAsset, len(as), MaxAssets)
	}
	for i, a := range as {
		if err := a.Verify(); err != nil {
			return fmt.Errorf("asset %d: %w", i, err)
		}
	}
	return nil
}
