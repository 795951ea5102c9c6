// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor interprets messages against a chain's ledger.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/ledger"
	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/types"
)

var (
	ErrBadOrigin           = errors.New("bad origin")
	ErrWeightLimitExceeded = errors.New("weight limit exceeded")
	ErrUnknownAsset        = errors.New("unknown asset")
	ErrNotHoldingAssets    = errors.New("assets not in holding")
)

// Config holds the per-chain execution parameters
type Config struct {
	// MaxWeight is used when a caller passes a zero weight limit, and caps
	// every other limit
	MaxWeight Weight
	// Teleporters are the chains trusted to mint on this chain
	Teleporters set.Set[types.ChainID]
}

// Outcome reports what an execution did, including when it failed
type Outcome struct {
	WeightUsed Weight
	Completed  int
	// Trapped is the native amount left in holding when execution ended
	Trapped *uint256.Int
}

// ExecutionError reports the instruction that aborted a message. The
// instructions before Index took effect and are not rolled back.
type ExecutionError struct {
	Index int
	Kind  xcm.InstructionKind
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("instruction %d (%s) failed: %s", e.Index, e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Executor runs messages against one ledger. It is not safe for concurrent
// use; callers serialize executions per chain.
type Executor struct {
	log       log.Logger
	ledger    ledger.Ledger
	converter location.Converter
	config    Config
}

// New creates an executor. A zero MaxWeight is replaced by DefaultMaxWeight.
func New(logger log.Logger, l ledger.Ledger, converter location.Converter, config Config) *Executor {
	if config.MaxWeight == 0 {
		config.MaxWeight = DefaultMaxWeight
	}
	return &Executor{
		log:       logger,
		ledger:    l,
		converter: converter,
		config:    config,
	}
}

// Execute runs msg in order under origin. The first failing instruction
// aborts the message with an *ExecutionError.
func (e *Executor) Execute(ctx context.Context, msg xcm.Message, origin Origin, weightLimit Weight) (Outcome, error) {
	if weightLimit == 0 || weightLimit > e.config.MaxWeight {
		weightLimit = e.config.MaxWeight
	}

	s := &session{
		executor: e,
		origin:   origin,
		holding:  new(uint256.Int),
	}
	outcome := Outcome{}
	var execErr error
	for i, instr := range msg.Instructions {
		if err := ctx.Err(); err != nil {
			execErr = &ExecutionError{Index: i, Kind: instr.Kind(), Err: err}
			break
		}
		weight := WeightOf(instr)
		if addWeight(outcome.WeightUsed, weight) > weightLimit {
			execErr = &ExecutionError{
				Index: i,
				Kind:  instr.Kind(),
				Err:   fmt.Errorf("%w: %d used, %d required, limit %d", ErrWeightLimitExceeded, outcome.WeightUsed, weight, weightLimit),
			}
			break
		}
		outcome.WeightUsed += weight
		if err := s.apply(instr); err != nil {
			execErr = &ExecutionError{Index: i, Kind: instr.Kind(), Err: err}
			break
		}
		outcome.Completed++
	}

	if !s.holding.IsZero() {
		outcome.Trapped = s.holding
		e.log.Warn("assets trapped in holding",
			log.Stringer("origin", origin),
			log.String("amount", s.holding.Dec()),
		)
	}
	if execErr != nil {
		e.log.Debug("message execution failed",
			log.Stringer("origin", origin),
			log.Int("completed", outcome.Completed),
			log.Err(execErr),
		)
		return outcome, execErr
	}
	return outcome, nil
}

// session is the mutable state of one execution
type session struct {
	executor *Executor
	origin   Origin
	holding  *uint256.Int
}

func (s *session) apply(instr xcm.Instruction) error {
	switch i := instr.(type) {
	case *xcm.WithdrawAsset:
		return s.withdraw(i.Assets)
	case *xcm.DepositAsset:
		return s.deposit(i.Assets, i.Beneficiary)
	case *xcm.TransferAsset:
		return s.transfer(i.Assets, i.Beneficiary)
	case *xcm.BurnAsset:
		return s.burn(i.Assets)
	case *xcm.MintAsset:
		return s.mint(i.Assets, i.Beneficiary)
	case *xcm.ClearOrigin:
		s.origin = None()
		return nil
	case *xcm.DescendOrigin:
		return s.descend(i.Interior)
	default:
		return fmt.Errorf("%w: %T", xcm.ErrUnsupportedInstruction, instr)
	}
}

func (s *session) withdraw(assets xcm.Assets) error {
	account, err := s.account()
	if err != nil {
		return err
	}
	amount, err := nativeAmount(assets)
	if err != nil {
		return err
	}
	if err := s.executor.ledger.Debit(account, amount); err != nil {
		return err
	}
	s.holding.Add(s.holding, amount)
	return nil
}

func (s *session) deposit(assets xcm.Assets, beneficiary location.Location) error {
	to, err := s.executor.converter.Convert(beneficiary)
	if err != nil {
		return err
	}
	amount, err := nativeAmount(assets)
	if err != nil {
		return err
	}
	if s.holding.Lt(amount) {
		return fmt.Errorf("%w: holding %s, deposit %s", ErrNotHoldingAssets, s.holding.Dec(), amount.Dec())
	}
	if err := s.executor.ledger.Credit(to, amount); err != nil {
		return err
	}
	s.holding.Sub(s.holding, amount)
	return nil
}

func (s *session) transfer(assets xcm.Assets, beneficiary location.Location) error {
	from, err := s.account()
	if err != nil {
		return err
	}
	to, err := s.executor.converter.Convert(beneficiary)
	if err != nil {
		return err
	}
	amount, err := nativeAmount(assets)
	if err != nil {
		return err
	}
	return s.executor.ledger.Transfer(from, to, amount)
}

func (s *session) burn(assets xcm.Assets) error {
	account, err := s.account()
	if err != nil {
		return err
	}
	amount, err := nativeAmount(assets)
	if err != nil {
		return err
	}
	return s.executor.ledger.Debit(account, amount)
}

func (s *session) mint(assets xcm.Assets, beneficiary location.Location) error {
	if !s.canMint() {
		return fmt.Errorf("%w: %s may not mint", ErrBadOrigin, s.origin)
	}
	to, err := s.executor.converter.Convert(beneficiary)
	if err != nil {
		return err
	}
	amount, err := nativeAmount(assets)
	if err != nil {
		return err
	}
	return s.executor.ledger.Credit(to, amount)
}

func (s *session) descend(interior []location.Junction) error {
	if s.origin.Kind != OriginChain || s.origin.HasAccount {
		return fmt.Errorf("%w: cannot descend from %s", ErrBadOrigin, s.origin)
	}
	if len(interior) != 1 {
		return fmt.Errorf("%w: descend into %d junctions", location.ErrUnsupportedJunction, len(interior))
	}
	account, ok := interior[0].Account()
	if !ok {
		return fmt.Errorf("%w: descend into %s", location.ErrUnsupportedJunction, interior[0].Kind)
	}
	s.origin = ChainAccount(s.origin.Chain, account)
	return nil
}

// account returns the account funds are drawn from
func (s *session) account() (types.AccountID, error) {
	account, ok := s.origin.AccountID()
	if !ok {
		return types.AccountID{}, fmt.Errorf("%w: %s has no account", ErrBadOrigin, s.origin)
	}
	return account, nil
}

func (s *session) canMint() bool {
	switch s.origin.Kind {
	case OriginRoot:
		return true
	case OriginChain:
		return !s.origin.HasAccount && s.executor.config.Teleporters.Contains(s.origin.Chain)
	default:
		return false
	}
}

// nativeAmount sums assets into one native amount, so an instruction
// touches the ledger once and either applies fully or not at all
func nativeAmount(assets xcm.Assets) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, asset := range assets {
		if !asset.IsNative() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset.ID)
		}
		if _, overflow := total.AddOverflow(total, asset.Amount); overflow {
			return nil, fmt.Errorf("%w: assets sum past 2^256", ledger.ErrOverflow)
		}
	}
	return total, nil
}
