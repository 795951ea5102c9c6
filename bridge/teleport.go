// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"time"

	"github.com/luxfi/ids"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/types"
)

// TeleportState tracks the progress of a teleport on the source chain
type TeleportState uint8

const (
	// TeleportStatePending has not burned anything yet
	TeleportStatePending TeleportState = iota
	// TeleportStateBurned has burned at least one asset whose mint is not
	// yet dispatched
	TeleportStateBurned
	// TeleportStateDispatched has burned every asset and routed every mint
	TeleportStateDispatched
	// TeleportStateFailed stopped before dispatching every mint
	TeleportStateFailed
)

func (s TeleportState) String() string {
	switch s {
	case TeleportStatePending:
		return "pending"
	case TeleportStateBurned:
		return "burned"
	case TeleportStateDispatched:
		return "dispatched"
	case TeleportStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TeleportRecord is the source-side view of a teleport. Whether the mints
// succeeded is only observable on the destination chain.
type TeleportRecord struct {
	ID            ids.ID
	State         TeleportState
	Source        types.ChainID
	Destination   types.ChainID
	Sender        types.AccountID
	Beneficiary   location.Location
	Assets        xcm.Assets
	FeeAssetIndex uint32
	// Burned counts the assets already removed from the sender
	Burned int
	// Envelopes are the IDs of the routed mint messages
	Envelopes []ids.ID
	Err       error
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *TeleportRecord) transition(state TeleportState) {
	r.State = state
	r.UpdatedAt = time.Now()
}

func (r *TeleportRecord) clone() TeleportRecord {
	c := *r
	c.Assets = append(xcm.Assets(nil), r.Assets...)
	c.Envelopes = append([]ids.ID(nil), r.Envelopes...)
	return c
}
