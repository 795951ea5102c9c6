// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/holiman/uint256"
	"github.com/luxfi/log"

	"github.com/luxfi/xcm/types"
)

const maxConflictRetries = 5

var (
	_ Ledger        = (*BadgerLedger)(nil)
	_ badger.Logger = (*badgerLogger)(nil)

	balancePrefix = []byte("balance/")
	issuanceKey   = []byte("issuance")
)

// BadgerLedger persists balances in a badger database. Every operation runs
// in a single badger transaction.
type BadgerLedger struct {
	db  *badger.DB
	log log.Logger
}

// NewBadgerLedger opens a ledger stored under dir. An empty dir keeps the
// database in memory.
func NewBadgerLedger(dir string, logger log.Logger) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(&badgerLogger{log: logger})
	if len(dir) == 0 {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %w", err)
	}
	return &BadgerLedger{db: db, log: logger}, nil
}

// Close releases the database
func (l *BadgerLedger) Close() error {
	return l.db.Close()
}

func (l *BadgerLedger) BalanceOf(account types.AccountID) (*uint256.Int, error) {
	var balance *uint256.Int
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		balance, err = getAmount(txn, balanceKey(account))
		return err
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (l *BadgerLedger) Debit(account types.AccountID, amount *uint256.Int) error {
	amount = amountOrZero(amount)
	return l.update(func(txn *badger.Txn) error {
		current, err := getAmount(txn, balanceKey(account))
		if err != nil {
			return err
		}
		balance, err := sub(current, amount)
		if err != nil {
			return fmt.Errorf("%w: %s has %s, needs %s", err, account, current.Dec(), amount.Dec())
		}
		issuance, err := getAmount(txn, issuanceKey)
		if err != nil {
			return err
		}
		if err := setAmount(txn, balanceKey(account), balance); err != nil {
			return err
		}
		return setAmount(txn, issuanceKey, new(uint256.Int).Sub(issuance, amount))
	})
}

func (l *BadgerLedger) Credit(account types.AccountID, amount *uint256.Int) error {
	amount = amountOrZero(amount)
	return l.update(func(txn *badger.Txn) error {
		issuance, err := getAmount(txn, issuanceKey)
		if err != nil {
			return err
		}
		issuance, err = add(issuance, amount)
		if err != nil {
			return fmt.Errorf("%w: total issuance", err)
		}
		current, err := getAmount(txn, balanceKey(account))
		if err != nil {
			return err
		}
		balance, err := add(current, amount)
		if err != nil {
			return fmt.Errorf("%w: %s", err, account)
		}
		if err := setAmount(txn, balanceKey(account), balance); err != nil {
			return err
		}
		return setAmount(txn, issuanceKey, issuance)
	})
}

func (l *BadgerLedger) Transfer(from, to types.AccountID, amount *uint256.Int) error {
	amount = amountOrZero(amount)
	return l.update(func(txn *badger.Txn) error {
		fromCurrent, err := getAmount(txn, balanceKey(from))
		if err != nil {
			return err
		}
		fromBalance, err := sub(fromCurrent, amount)
		if err != nil {
			return fmt.Errorf("%w: %s has %s, needs %s", err, from, fromCurrent.Dec(), amount.Dec())
		}
		if from == to {
			return nil
		}
		toCurrent, err := getAmount(txn, balanceKey(to))
		if err != nil {
			return err
		}
		toBalance, err := add(toCurrent, amount)
		if err != nil {
			return fmt.Errorf("%w: %s", err, to)
		}
		if err := setAmount(txn, balanceKey(from), fromBalance); err != nil {
			return err
		}
		return setAmount(txn, balanceKey(to), toBalance)
	})
}

func (l *BadgerLedger) TotalIssuance() (*uint256.Int, error) {
	var issuance *uint256.Int
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		issuance, err = getAmount(txn, issuanceKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issuance, nil
}

func (l *BadgerLedger) Balances() (map[types.AccountID]*uint256.Int, error) {
	balances := make(map[types.AccountID]*uint256.Int)
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(balancePrefix); it.ValidForPrefix(balancePrefix); it.Next() {
			item := it.Item()
			account, err := types.ToAccountID(item.KeyCopy(nil)[len(balancePrefix):])
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			balances[account] = new(uint256.Int).SetBytes(value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// update runs fn in a read-write transaction, retrying on write conflicts
func (l *BadgerLedger) update(fn func(txn *badger.Txn) error) error {
	err := l.db.Update(fn)
	for attempts := 1; errors.Is(err, badger.ErrConflict) && attempts <= maxConflictRetries; attempts++ {
		l.log.Debug("retrying conflicting ledger update", log.Int("attempt", attempts))
		time.Sleep(10 * time.Millisecond)
		err = l.db.Update(fn)
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}

func balanceKey(account types.AccountID) []byte {
	key := make([]byte, 0, len(balancePrefix)+types.AccountIDLen)
	key = append(key, balancePrefix...)
	return append(key, account[:]...)
}

func getAmount(txn *badger.Txn, key []byte) (*uint256.Int, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(value), nil
}

func setAmount(txn *badger.Txn, key []byte, amount *uint256.Int) error {
	if amount.IsZero() {
		return txn.Delete(key)
	}
	b := amount.Bytes32()
	return txn.Set(key, b[:])
}

// badgerLogger routes badger's printf-style logging into the node logger
type badgerLogger struct {
	log log.Logger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.log.Error(badgerMessage(format, args))
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.log.Warn(badgerMessage(format, args))
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.log.Debug(badgerMessage(format, args))
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.log.Debug(badgerMessage(format, args))
}

func badgerMessage(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf("badger: "+format, args...))
}
