// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/rlp"
	"github.com/luxfi/ids"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/types"
)

var errInvalidEnvelope = errors.New("invalid envelope")

// Envelope carries one message along a route
type Envelope struct {
	Source      types.ChainID        `serialize:"true"`
	Destination types.ChainID        `serialize:"true"`
	Nonce       uint64               `serialize:"true"`
	HasSender   bool                 `serialize:"true"`
	Sender      types.AccountID      `serialize:"true"`
	Message     xcm.VersionedMessage `serialize:"true"`
	Signature   []byte               `serialize:"true"`
}

// unsignedEnvelope is the signed portion of an envelope
type unsignedEnvelope struct {
	Source      types.ChainID
	Destination types.ChainID
	Nonce       uint64
	HasSender   bool
	Sender      types.AccountID
	Message     xcm.VersionedMessage
}

// SenderAccount returns the account that sent the message, if any
func (e *Envelope) SenderAccount() (types.AccountID, bool) {
	return e.Sender, e.HasSender
}

// UnsignedBytes returns the bytes covered by the signature
func (e *Envelope) UnsignedBytes() []byte {
	b, _ := rlp.EncodeToBytes(&unsignedEnvelope{
		Source:      e.Source,
		Destination: e.Destination,
		Nonce:       e.Nonce,
		HasSender:   e.HasSender,
		Sender:      e.Sender,
		Message:     e.Message,
	})
	return b
}

// ID identifies the envelope independently of its signature
func (e *Envelope) ID() ids.ID {
	return xcm.ComputeID(e.UnsignedBytes())
}

// Bytes returns the signed envelope encoding
func (e *Envelope) Bytes() ([]byte, error) {
	return rlp.EncodeToBytes(e)
}

func (e *Envelope) String() string {
	return fmt.Sprintf("%s->%s#%d", e.Source, e.Destination, e.Nonce)
}

// ParseEnvelope decodes a signed envelope
func ParseEnvelope(b []byte) (*Envelope, error) {
	if len(b) > 2*xcm.MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", errInvalidEnvelope, len(b))
	}
	env := &Envelope{}
	if err := rlp.DecodeBytes(b, env); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidEnvelope, err)
	}
	if env.Nonce == 0 {
		return nil, fmt.Errorf("%w: zero nonce", errInvalidEnvelope)
	}
	return env, nil
}
