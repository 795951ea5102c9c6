// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcm

import (
	"fmt"

	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/xcm/location"
)

// Version is the format revision of a payload crossing a chain boundary
type Version uint8

const (
	V3 Version = 3
	V4 Version = 4

	MinVersion     = V3
	CurrentVersion = V4
)

func (v Version) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// Verify fails for versions this implementation cannot decode
func (v Version) Verify() error {
	switch v {
	case V3, V4:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, v)
	}
}

// Supports reports whether the instruction kind exists in this version.
// Supply-changing instructions were introduced in v4.
func (v Version) Supports(kind InstructionKind) bool {
	switch v {
	case V3:
		switch kind {
		case KindWithdrawAsset, KindDepositAsset, KindTransferAsset, KindClearOrigin, KindDescendOrigin:
			return true
		}
		return false
	case V4:
		return kind >= KindWithdrawAsset && kind <= KindDescendOrigin
	default:
		return false
	}
}

// VersionedMessage is a message encoded under an explicit version tag
type VersionedMessage struct {
	Version Version `serialize:"true"`
	Payload []byte  `serialize:"true"`
}

// NewVersionedMessage encodes msg under version v. Messages using
// instructions that v cannot express are rejected.
func NewVersionedMessage(v Version, msg Message) (VersionedMessage, error) {
	if err := v.Verify(); err != nil {
		return VersionedMessage{}, err
	}
	if err := msg.Verify(); err != nil {
		return VersionedMessage{}, err
	}
	for _, instr := range msg.Instructions {
		if !v.Supports(instr.Kind()) {
			return VersionedMessage{}, fmt.Errorf("%w: %s not expressible in %s", ErrUnsupportedVersion, instr.Kind(), v)
		}
	}
	payload, err := encodeMessage(msg)
	if err != nil {
		return VersionedMessage{}, err
	}
	if len(payload) > MaxMessageSize {
		return VersionedMessage{}, fmt.Errorf("%w: message size %d exceeds maximum %d", ErrInvalidMessage, len(payload), MaxMessageSize)
	}
	return VersionedMessage{Version: v, Payload: payload}, nil
}

// Decode decodes the message with the rules of its version
func (v VersionedMessage) Decode() (Message, error) {
	return v.DecodeUpTo(CurrentVersion)
}

// DecodeUpTo decodes the message, failing if its version is newer than max
func (v VersionedMessage) DecodeUpTo(max Version) (Message, error) {
	if err := v.Version.Verify(); err != nil {
		return Message{}, err
	}
	if v.Version > max {
		return Message{}, fmt.Errorf("%w: %s is newer than supported %s", ErrUnsupportedVersion, v.Version, max)
	}
	if len(v.Payload) > MaxMessageSize {
		return Message{}, fmt.Errorf("%w: message size %d exceeds maximum %d", ErrInvalidMessage, len(v.Payload), MaxMessageSize)
	}
	return decodeMessage(v.Version, v.Payload)
}

// VersionedLocation is a location encoded under an explicit version tag
type VersionedLocation struct {
	Version Version `serialize:"true"`
	Payload []byte  `serialize:"true"`
}

// NewVersionedLocation encodes loc under version v
func NewVersionedLocation(v Version, loc location.Location) (VersionedLocation, error) {
	if err := v.Verify(); err != nil {
		return VersionedLocation{}, err
	}
	if err := loc.Verify(); err != nil {
		return VersionedLocation{}, err
	}
	return VersionedLocation{Version: v, Payload: loc.Bytes()}, nil
}

// Decode returns the location, rejecting unknown versions
func (v VersionedLocation) Decode() (location.Location, error) {
	if err := v.Version.Verify(); err != nil {
		return location.Location{}, err
	}
	return location.Parse(v.Payload)
}

// VersionedAssets is an asset list encoded under an explicit version tag
type VersionedAssets struct {
	Version Version `serialize:"true"`
	Payload []byte  `serialize:"true"`
}

// NewVersionedAssets encodes assets under version v
func NewVersionedAssets(v Version, assets Assets) (VersionedAssets, error) {
	if err := v.Verify(); err != nil {
		return VersionedAssets{}, err
	}
	if err := assets.Verify(); err != nil {
		return VersionedAssets{}, err
	}
	payload, err := rlp.EncodeToBytes(assets)
	if err != nil {
		return VersionedAssets{}, fmt.Errorf("failed to encode assets: %w", err)
	}
	return VersionedAssets{Version: v, Payload: payload}, nil
}

// Decode returns the assets, rejecting unknown versions
func (v VersionedAssets) Decode() (Assets, error) {
	if err := v.Version.Verify(); err != nil {
		return nil, err
	}
	var assets Assets
	if err := rlp.DecodeBytes(v.Payload, &assets); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	if err := assets.Verify(); err != nil {
		return nil, err
	}
	return assets, nil
}
