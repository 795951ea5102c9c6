// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xcm defines cross-chain messages: assets, the closed set of
// instructions a message is made of, and the version-tagged envelopes used
// whenever a payload crosses a chain boundary.
package xcm

import (
	"fmt"

	"github.com/luxfi/ids"

	"github.com/luxfi/xcm/location"
)

// Message is an ordered sequence of instructions. It is a value: once
// built it is never mutated, and it is consumed exactly once.
type Message struct {
	Instructions []Instruction
}

// NewMessage creates a verified message
func NewMessage(instructions ...Instruction) (Message, error) {
	msg := Message{Instructions: instructions}
	if err := msg.Verify(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Verify verifies the message format
func (m Message) Verify() error {
	if len(m.Instructions) == 0 {
		return fmt.Errorf("%w: no instructions", ErrInvalidMessage)
	}
	if len(m.Instructions) > MaxInstructions {
		return fmt.Errorf("%w: %d instructions exceeds maximum %d", ErrInvalidMessage, len(m.Instructions), MaxInstructions)
	}
	for i, instr := range m.Instructions {
		if instr == nil {
			return fmt.Errorf("%w: instruction %d is nil", ErrInvalidMessage, i)
		}
		if err := instr.Verify(); err != nil {
			return fmt.Errorf("%w: instruction %d (%s): %w", ErrInvalidMessage, i, instr.Kind(), err)
		}
	}
	return nil
}

// Len returns the number of instructions
func (m Message) Len() int {
	return len(m.Instructions)
}

// ContainsPrivileged reports whether any instruction burns or mints
func (m Message) ContainsPrivileged() bool {
	for _, instr := range m.Instructions {
		if IsPrivileged(instr) {
			return true
		}
	}
	return false
}

// Bytes returns the current-version encoding of the message
func (m Message) Bytes() []byte {
	b, _ := encodeMessage(m)
	return b
}

// ID returns the hash of the message encoding
func (m Message) ID() ids.ID {
	return ComputeID(m.Bytes())
}

// Builder accumulates instructions into a message
type Builder struct {
	instructions []Instruction
}

// NewBuilder returns an empty builder
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithdrawAsset(assets ...Asset) *Builder {
	b.instructions = append(b.instructions, &WithdrawAsset{Assets: assets})
	return b
}

func (b *Builder) DepositAsset(assets Assets, beneficiary location.Location) *Builder {
	b.instructions = append(b.instructions, &DepositAsset{Assets: assets, Beneficiary: beneficiary})
	return b
}

func (b *Builder) TransferAsset(asset Asset, beneficiary location.Location) *Builder {
	b.instructions = append(b.instructions, &TransferAsset{Assets: Assets{asset}, Beneficiary: beneficiary})
	return b
}

func (b *Builder) BurnAsset(assets ...Asset) *Builder {
	b.instructions = append(b.instructions, &BurnAsset{Assets: assets})
	return b
}

func (b *Builder) MintAsset(assets Assets, beneficiary location.Location) *Builder {
	b.instructions = append(b.instructions, &MintAsset{Assets: assets, Beneficiary: beneficiary})
	return b
}

func (b *Builder) ClearOrigin() *Builder {
	b.instructions = append(b.instructions, &ClearOrigin{})
	return b
}

// Build verifies and returns the message
func (b *Builder) Build() (Message, error) {
	instructions := make([]Instruction, len(b.instructions))
	copy(instructions, b.instructions)
	return NewMessage(instructions...)
}
