// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcm

import (
	"fmt"

	"github.com/luxfi/xcm/location"
)

// InstructionKind is the wire tag of an instruction
type InstructionKind uint8

const (
	KindWithdrawAsset InstructionKind = iota + 1
	KindDepositAsset
	KindTransferAsset
	KindBurnAsset
	KindMintAsset
	KindClearOrigin
	KindDescendOrigin
)

func (k InstructionKind) String() string {
	switch k {
	case KindWithdrawAsset:
		return "WithdrawAsset"
	case KindDepositAsset:
		return "DepositAsset"
	case KindTransferAsset:
		return "TransferAsset"
	case KindBurnAsset:
		return "BurnAsset"
	case KindMintAsset:
		return "MintAsset"
	case KindClearOrigin:
		return "ClearOrigin"
	case KindDescendOrigin:
		return "DescendOrigin"
	default:
		return "unknown"
	}
}

// Instruction is one step of a message. The set of variants is closed;
// executors dispatch on the concrete type.
type Instruction interface {
	Kind() InstructionKind
	Verify() error

	isInstruction()
}

var (
	_ Instruction = (*WithdrawAsset)(nil)
	_ Instruction = (*DepositAsset)(nil)
	_ Instruction = (*TransferAsset)(nil)
	_ Instruction = (*BurnAsset)(nil)
	_ Instruction = (*MintAsset)(nil)
	_ Instruction = (*ClearOrigin)(nil)
	_ Instruction = (*DescendOrigin)(nil)
)

// WithdrawAsset moves assets from the origin's account into holding
type WithdrawAsset struct {
	Assets Assets `serialize:"true"`
}

// DepositAsset credits assets from holding to the beneficiary
type DepositAsset struct {
	Assets      Assets            `serialize:"true"`
	Beneficiary location.Location `serialize:"true"`
}

// TransferAsset moves assets from the origin's account to the beneficiary
type TransferAsset struct {
	Assets      Assets            `serialize:"true"`
	Beneficiary location.Location `serialize:"true"`
}

// BurnAsset removes assets from the origin's account
type BurnAsset struct {
	Assets Assets `serialize:"true"`
}

// MintAsset creates assets in the beneficiary's account
type MintAsset struct {
	Assets      Assets            `serialize:"true"`
	Beneficiary location.Location `serialize:"true"`
}

// ClearOrigin drops the origin for the rest of the message
type ClearOrigin struct{}

// DescendOrigin narrows the origin into one of its interior locations
type DescendOrigin struct {
	Interior []location.Junction `serialize:"true"`
}

func (*WithdrawAsset) Kind() InstructionKind { return KindWithdrawAsset }
func (*DepositAsset) Kind() InstructionKind  { return KindDepositAsset }
func (*TransferAsset) Kind() InstructionKind { return KindTransferAsset }
func (*BurnAsset) Kind() InstructionKind     { return KindBurnAsset }
func (*MintAsset) Kind() InstructionKind     { return KindMintAsset }
func (*ClearOrigin) Kind() InstructionKind   { return KindClearOrigin }
func (*DescendOrigin) Kind() InstructionKind { return KindDescendOrigin }

func (*WithdrawAsset) isInstruction() {}
func (*DepositAsset) isInstruction()  {}
func (*TransferAsset) isInstruction() {}
func (*BurnAsset) isInstruction()     {}
func (*MintAsset) isInstruction()     {}
func (*ClearOrigin) isInstruction()   {}
func (*DescendOrigin) isInstruction() {}

func (i *WithdrawAsset) Verify() error { return i.Assets.Verify() }

func (i *DepositAsset) Verify() error {
	return verifyWithBeneficiary(i.Assets, i.Beneficiary)
}

func (i *TransferAsset) Verify() error {
	return verifyWithBeneficiary(i.Assets, i.Beneficiary)
}

func (i *BurnAsset) Verify() error { return i.Assets.Verify() }

func (i *MintAsset) Verify() error {
	return verifyWithBeneficiary(i.Assets, i.Beneficiary)
}

func (*ClearOrigin) Verify() error { return nil }

func (i *DescendOrigin) Verify() error {
	if len(i.Interior) == 0 {
		return fmt.Errorf("%w: empty interior", ErrInvalidMessage)
	}
	return location.New(0, i.Interior...).Verify()
}

func verifyWithBeneficiary(assets Assets, beneficiary location.Location) error {
	if err := assets.Verify(); err != nil {
		return err
	}
	return beneficiary.Verify()
}

// IsPrivileged reports whether the instruction changes supply. Only the
// transfer orchestrator and trusted chains may issue these.
func IsPrivileged(instr Instruction) bool {
	switch instr.(type) {
	case *BurnAsset, *MintAsset:
		return true
	default:
		return false
	}
}
