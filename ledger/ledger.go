// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger holds the native-asset balances of a single chain.
package ledger

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/luxfi/xcm/types"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrOverflow            = errors.New("balance overflow")
	ErrClosed              = errors.New("ledger closed")
)

// Ledger maps accounts to balances. Every operation is all-or-nothing:
// a failed call leaves every balance unchanged.
type Ledger interface {
	// BalanceOf returns the balance of account, zero if it is unknown
	BalanceOf(account types.AccountID) (*uint256.Int, error)
	// Debit removes amount from account
	Debit(account types.AccountID, amount *uint256.Int) error
	// Credit adds amount to account, creating it if absent
	Credit(account types.AccountID, amount *uint256.Int) error
	// Transfer debits from and credits to as one unit
	Transfer(from, to types.AccountID, amount *uint256.Int) error
	// TotalIssuance returns the sum of all balances
	TotalIssuance() (*uint256.Int, error)
	// Balances returns a snapshot of every non-zero balance
	Balances() (map[types.AccountID]*uint256.Int, error)
}

// sub returns balance-amount or ErrInsufficientBalance
func sub(balance, amount *uint256.Int) (*uint256.Int, error) {
	if balance.Lt(amount) {
		return nil, ErrInsufficientBalance
	}
	return new(uint256.Int).Sub(balance, amount), nil
}

// add returns balance+amount or ErrOverflow
func add(balance, amount *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return nil, ErrOverflow
	}
	return sum, nil
}

func amountOrZero(amount *uint256.Int) *uint256.Int {
	if amount == nil {
		return new(uint256.Int)
	}
	return amount
}
