// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package types defines the identifiers shared by every chain in the
// network. They are deliberately small value types so that ledgers,
// executors and the router can use them as map keys.
package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AccountIDLen is the size of a local account identifier
const AccountIDLen = 32

var ErrInvalidAccountID = errors.New("invalid account ID")

// ChainID identifies one sovereign chain in the network
type ChainID uint32

func (c ChainID) String() string {
	return "chain-" + strconv.FormatUint(uint64(c), 10)
}

// NetworkID tags the consensus network an account belongs to.
// AnyNetwork matches every network.
type NetworkID uint8

const AnyNetwork NetworkID = 0

// AccountID is the ledger key of an account on a single chain
type AccountID [AccountIDLen]byte

// EmptyAccountID is the zero account
var EmptyAccountID = AccountID{}

func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the identifier
func (a AccountID) Bytes() []byte {
	b := make([]byte, AccountIDLen)
	copy(b, a[:])
	return b
}

// ToAccountID converts a 32-byte slice into an AccountID
func ToAccountID(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLen {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAccountID, AccountIDLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// AccountIDFromHex parses a hex string, with or without 0x prefix
func AccountIDFromHex(s string) (AccountID, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return AccountID{}, fmt.Errorf("%w: %w", ErrInvalidAccountID, err)
	}
	return ToAccountID(b)
}
