// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/luxfi/xcm/types"
)

var _ Ledger = (*MemoryLedger)(nil)

// MemoryLedger is a map-backed ledger
type MemoryLedger struct {
	mu       sync.RWMutex
	balances map[types.AccountID]*uint256.Int
	issuance *uint256.Int
}

// NewMemoryLedger returns an empty ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[types.AccountID]*uint256.Int),
		issuance: new(uint256.Int),
	}
}

func (l *MemoryLedger) BalanceOf(account types.AccountID) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balanceOf(account).Clone(), nil
}

func (l *MemoryLedger) Debit(account types.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount = amountOrZero(amount)
	balance, err := sub(l.balanceOf(account), amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s, needs %s", err, account, l.balanceOf(account).Dec(), amount.Dec())
	}
	l.set(account, balance)
	l.issuance.Sub(l.issuance, amount)
	return nil
}

func (l *MemoryLedger) Credit(account types.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount = amountOrZero(amount)
	issuance, err := add(l.issuance, amount)
	if err != nil {
		return fmt.Errorf("%w: total issuance", err)
	}
	balance, err := add(l.balanceOf(account), amount)
	if err != nil {
		return fmt.Errorf("%w: %s", err, account)
	}
	l.set(account, balance)
	l.issuance = issuance
	return nil
}

func (l *MemoryLedger) Transfer(from, to types.AccountID, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount = amountOrZero(amount)
	fromBalance, err := sub(l.balanceOf(from), amount)
	if err != nil {
		return fmt.Errorf("%w: %s has %s, needs %s", err, from, l.balanceOf(from).Dec(), amount.Dec())
	}
	if from == to {
		return nil
	}
	toBalance, err := add(l.balanceOf(to), amount)
	if err != nil {
		return fmt.Errorf("%w: %s", err, to)
	}
	l.set(from, fromBalance)
	l.set(to, toBalance)
	return nil
}

func (l *MemoryLedger) TotalIssuance() (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.issuance.Clone(), nil
}

func (l *MemoryLedger) Balances() (map[types.AccountID]*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make(map[types.AccountID]*uint256.Int, len(l.balances))
	for account, balance := range l.balances {
		snapshot[account] = balance.Clone()
	}
	return snapshot, nil
}

func (l *MemoryLedger) balanceOf(account types.AccountID) *uint256.Int {
	if balance, ok := l.balances[account]; ok {
		return balance
	}
	return new(uint256.Int)
}

func (l *MemoryLedger) set(account types.AccountID, balance *uint256.Int) {
	if balance.IsZero() {
		delete(l.balances, account)
		return
	}
	l.balances[account] = balance
}
