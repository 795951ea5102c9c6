// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"math"

	"github.com/luxfi/xcm"
)

// Weight is the abstract cost of executing instructions
type Weight uint64

// DefaultMaxWeight is used when a chain does not configure its own limit
const DefaultMaxWeight Weight = 1_000_000

const (
	weightLedgerRead  Weight = 2_500
	weightLedgerWrite Weight = 10_000
	weightBase        Weight = 1_000
)

// WeightOf is the fixed cost of an instruction
func WeightOf(instr xcm.Instruction) Weight {
	switch i := instr.(type) {
	case *xcm.WithdrawAsset:
		return weightBase + perAsset(len(i.Assets), weightLedgerRead+weightLedgerWrite)
	case *xcm.DepositAsset:
		return weightBase + perAsset(len(i.Assets), weightLedgerRead+weightLedgerWrite)
	case *xcm.TransferAsset:
		return weightBase + perAsset(len(i.Assets), 2*(weightLedgerRead+weightLedgerWrite))
	case *xcm.BurnAsset:
		return weightBase + perAsset(len(i.Assets), weightLedgerRead+weightLedgerWrite)
	case *xcm.MintAsset:
		return weightBase + perAsset(len(i.Assets), weightLedgerRead+weightLedgerWrite)
	default:
		return weightBase
	}
}

// MessageWeight is the sum of the weights of every instruction. The sum
// saturates at math.MaxUint64.
func MessageWeight(msg xcm.Message) Weight {
	var total Weight
	for _, instr := range msg.Instructions {
		total = addWeight(total, WeightOf(instr))
	}
	return total
}

func addWeight(a, b Weight) Weight {
	sum, err := xcm.AddUint64(uint64(a), uint64(b))
	if err != nil {
		return math.MaxUint64
	}
	return Weight(sum)
}

func perAsset(n int, w Weight) Weight {
	return Weight(n) * w
}
