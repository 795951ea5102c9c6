// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"fmt"

	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/types"
)

// OriginKind classifies who is executing a message
type OriginKind uint8

const (
	// OriginNone has no authority over any account
	OriginNone OriginKind = iota
	// OriginSigned is a local account
	OriginSigned
	// OriginChain is a remote chain, optionally narrowed to one of its accounts
	OriginChain
	// OriginRoot is the chain itself
	OriginRoot
)

func (k OriginKind) String() string {
	switch k {
	case OriginNone:
		return "none"
	case OriginSigned:
		return "signed"
	case OriginChain:
		return "chain"
	case OriginRoot:
		return "root"
	default:
		return "unknown"
	}
}

// Origin is the authority a message executes under
type Origin struct {
	Kind       OriginKind
	Chain      types.ChainID
	Account    types.AccountID
	HasAccount bool
}

func None() Origin { return Origin{Kind: OriginNone} }

func Root() Origin { return Origin{Kind: OriginRoot} }

func Signed(account types.AccountID) Origin {
	return Origin{Kind: OriginSigned, Account: account, HasAccount: true}
}

func Chain(id types.ChainID) Origin {
	return Origin{Kind: OriginChain, Chain: id}
}

// ChainAccount is an account on a remote chain
func ChainAccount(id types.ChainID, account types.AccountID) Origin {
	return Origin{Kind: OriginChain, Chain: id, Account: account, HasAccount: true}
}

// AccountID returns the account funds are drawn from, if any
func (o Origin) AccountID() (types.AccountID, bool) {
	switch o.Kind {
	case OriginSigned, OriginChain:
		return o.Account, o.HasAccount
	default:
		return types.AccountID{}, false
	}
}

// Location expresses the origin relative to a sibling chain
func (o Origin) Location() location.Location {
	switch o.Kind {
	case OriginSigned:
		return location.Account(o.Account)
	case OriginChain:
		loc := location.Sibling(o.Chain)
		if o.HasAccount {
			loc = loc.Append(location.AccountID32(types.AnyNetwork, o.Account))
		}
		return loc
	default:
		return location.Here()
	}
}

func (o Origin) String() string {
	switch o.Kind {
	case OriginSigned:
		return fmt.Sprintf("signed(%s)", o.Account)
	case OriginChain:
		if o.HasAccount {
			return fmt.Sprintf("chain(%s, %s)", o.Chain, o.Account)
		}
		return fmt.Sprintf("chain(%s)", o.Chain)
	default:
		return o.Kind.String()
	}
}
