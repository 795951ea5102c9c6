// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcm

import (
	"fmt"

	"github.com/luxfi/geth/rlp"
)

// rawInstruction is the tagged wire form of an instruction
type rawInstruction struct {
	Kind uint8
	Body []byte
}

type rawMessage struct {
	Instructions []rawInstruction
}

func encodeMessage(m Message) ([]byte, error) {
	raw := rawMessage{Instructions: make([]rawInstruction, len(m.Instructions))}
	for i, instr := range m.Instructions {
		body, err := rlp.EncodeToBytes(instr)
		if err != nil {
			return nil, fmt.Errorf("failed to encode instruction %d: %w", i, err)
		}
		raw.Instructions[i] = rawInstruction{Kind: uint8(instr.Kind()), Body: body}
	}
	return rlp.EncodeToBytes(&raw)
}

// decodeMessage decodes a payload with the instruction set of version
func decodeMessage(version Version, b []byte) (Message, error) {
	var raw rawMessage
	if err := rlp.DecodeBytes(b, &raw); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	instructions := make([]Instruction, len(raw.Instructions))
	for i, r := range raw.Instructions {
		instr, err := decodeInstruction(version, r)
		if err != nil {
			return Message{}, fmt.Errorf("instruction %d: %w", i, err)
		}
		instructions[i] = instr
	}
	return NewMessage(instructions...)
}

func decodeInstruction(version Version, raw rawInstruction) (Instruction, error) {
	kind := InstructionKind(raw.Kind)
	if !version.Supports(kind) {
		return nil, fmt.Errorf("%w: kind %d in %s", ErrUnsupportedInstruction, raw.Kind, version)
	}

	var instr Instruction
	switch kind {
	case KindWithdrawAsset:
		instr = &WithdrawAsset{}
	case KindDepositAsset:
		instr = &DepositAsset{}
	case KindTransferAsset:
		instr = &TransferAsset{}
	case KindBurnAsset:
		instr = &BurnAsset{}
	case KindMintAsset:
		instr = &MintAsset{}
	case KindClearOrigin:
		instr = &ClearOrigin{}
	case KindDescendOrigin:
		instr = &DescendOrigin{}
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnsupportedInstruction, raw.Kind)
	}
	if err := rlp.DecodeBytes(raw.Body, instr); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMessage, kind, err)
	}
	return instr, nil
}
