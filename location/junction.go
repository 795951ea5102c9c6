// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package location

import (
	"encoding/hex"
	"fmt"

	"github.com/luxfi/xcm/types"
)

const (
	maxGeneralKeyLen = 32
	accountKey20Len  = 20
)

// JunctionKind tags the variant held by a Junction
type JunctionKind uint8

const (
	KindParachain JunctionKind = iota + 1
	KindAccountID32
	KindAccountKey20
	KindPalletInstance
	KindGeneralIndex
	KindGeneralKey
	KindPlurality
)

func (k JunctionKind) String() string {
	switch k {
	case KindParachain:
		return "Parachain"
	case KindAccountID32:
		return "AccountID32"
	case KindAccountKey20:
		return "AccountKey20"
	case KindPalletInstance:
		return "PalletInstance"
	case KindGeneralIndex:
		return "GeneralIndex"
	case KindGeneralKey:
		return "GeneralKey"
	case KindPlurality:
		return "Plurality"
	default:
		return "unknown"
	}
}

// Junction is one hop of an interior location. Only the fields relevant
// to Kind are populated: Index for numeric junctions, Key for byte keys
// and Network for account junctions.
type Junction struct {
	Kind    JunctionKind    `serialize:"true"`
	Network types.NetworkID `serialize:"true"`
	Index   uint64          `serialize:"true"`
	Key     []byte          `serialize:"true"`
}

// Parachain is the junction of a chain by its ID
func Parachain(id types.ChainID) Junction {
	return Junction{Kind: KindParachain, Index: uint64(id)}
}

// AccountID32 is a 32-byte account junction
func AccountID32(network types.NetworkID, id types.AccountID) Junction {
	return Junction{Kind: KindAccountID32, Network: network, Key: id.Bytes()}
}

// AccountKey20 is a 20-byte account junction
func AccountKey20(network types.NetworkID, key [accountKey20Len]byte) Junction {
	return Junction{Kind: KindAccountKey20, Network: network, Key: append([]byte(nil), key[:]...)}
}

func PalletInstance(index uint8) Junction {
	return Junction{Kind: KindPalletInstance, Index: uint64(index)}
}

func GeneralIndex(index uint64) Junction {
	return Junction{Kind: KindGeneralIndex, Index: index}
}

func GeneralKey(key []byte) Junction {
	return Junction{Kind: KindGeneralKey, Key: append([]byte(nil), key...)}
}

func Plurality(body uint64) Junction {
	return Junction{Kind: KindPlurality, Index: body}
}

// Verify checks that the populated fields match the junction kind
func (j Junction) Verify() error {
	switch j.Kind {
	case KindParachain:
		if j.Index > uint64(^uint32(0)) {
			return fmt.Errorf("%w: parachain index %d out of range", ErrInvalidLocation, j.Index)
		}
	case KindAccountID32:
		if len(j.Key) != types.AccountIDLen {
			return fmt.Errorf("%w: account id must be %d bytes, got %d", ErrInvalidLocation, types.AccountIDLen, len(j.Key))
		}
	case KindAccountKey20:
		if len(j.Key) != accountKey20Len {
			return fmt.Errorf("%w: account key must be %d bytes, got %d", ErrInvalidLocation, accountKey20Len, len(j.Key))
		}
	case KindPalletInstance:
		if j.Index > 0xff {
			return fmt.Errorf("%w: pallet instance %d out of range", ErrInvalidLocation, j.Index)
		}
	case KindGeneralIndex, KindPlurality:
	case KindGeneralKey:
		if len(j.Key) == 0 || len(j.Key) > maxGeneralKeyLen {
			return fmt.Errorf("%w: general key length %d", ErrInvalidLocation, len(j.Key))
		}
	default:
		return fmt.Errorf("%w: unknown junction kind %d", ErrInvalidLocation, j.Kind)
	}
	return nil
}

// Account returns the account held by an AccountID32 junction
func (j Junction) Account() (types.AccountID, bool) {
	if j.Kind != KindAccountID32 {
		return types.AccountID{}, false
	}
	id, err := types.ToAccountID(j.Key)
	return id, err == nil
}

// Equal compares two junctions field by field
func (j Junction) Equal(other Junction) bool {
	return j.Kind == other.Kind &&
		j.Network == other.Network &&
		j.Index == other.Index &&
		string(j.Key) == string(other.Key)
}

func (j Junction) String() string {
	switch j.Kind {
	case KindAccountID32, KindAccountKey20:
		return fmt.Sprintf("%s(%d, 0x%s)", j.Kind, j.Network, hex.EncodeToString(j.Key))
	case KindGeneralKey:
		return fmt.Sprintf("%s(0x%s)", j.Kind, hex.EncodeToString(j.Key))
	default:
		return fmt.Sprintf("%s(%d)", j.Kind, j.Index)
	}
}
