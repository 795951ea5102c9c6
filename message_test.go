// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package xcm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/types"
)

var (
	alice = types.AccountID{1}
	bob   = types.AccountID{2}
)

func TestMessageBuilder(t *testing.T) {
	require := require.New(t)

	msg, err := NewBuilder().
		WithdrawAsset(NativeAsset(100)).
		DepositAsset(Assets{NativeAsset(100)}, location.Account(bob)).
		Build()
	require.NoError(err)
	require.Equal(2, msg.Len())
	require.False(msg.ContainsPrivileged())
	require.Equal(KindWithdrawAsset, msg.Instructions[0].Kind())
	require.Equal(KindDepositAsset, msg.Instructions[1].Kind())
}

func TestMessageVerify(t *testing.T) {
	tests := []struct {
		name         string
		instructions []Instruction
		expectedErr  error
	}{
		{
			name:        "empty",
			expectedErr: ErrInvalidMessage,
		},
		{
			name:         "nil instruction",
			instructions: []Instruction{nil},
			expectedErr:  ErrInvalidMessage,
		},
		{
			name: "zero amount",
			instructions: []Instruction{
				&WithdrawAsset{Assets: Assets{NativeAsset(0)}},
			},
			expectedErr: ErrInvalidAsset,
		},
		{
			name: "no assets",
			instructions: []Instruction{
				&BurnAsset{},
			},
			expectedErr: ErrInvalidAsset,
		},
		{
			name: "empty descend",
			instructions: []Instruction{
				&DescendOrigin{},
			},
			expectedErr: ErrInvalidMessage,
		},
		{
			name: "valid",
			instructions: []Instruction{
				&TransferAsset{Assets: Assets{NativeAsset(1)}, Beneficiary: location.Account(alice)},
				&ClearOrigin{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMessage(tt.instructions...)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestMessageTooManyInstructions(t *testing.T) {
	instructions := make([]Instruction, MaxInstructions+1)
	for i := range instructions {
		instructions[i] = &ClearOrigin{}
	}
	_, err := NewMessage(instructions...)
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestMessageContainsPrivileged(t *testing.T) {
	msg, err := NewBuilder().
		MintAsset(Assets{NativeAsset(5)}, location.Account(alice)).
		Build()
	require.NoError(t, err)
	require.True(t, msg.ContainsPrivileged())
}

func TestMessageID(t *testing.T) {
	require := require.New(t)

	a, err := NewBuilder().TransferAsset(NativeAsset(1), location.Account(alice)).Build()
	require.NoError(err)
	b, err := NewBuilder().TransferAsset(NativeAsset(1), location.Account(alice)).Build()
	require.NoError(err)
	c, err := NewBuilder().TransferAsset(NativeAsset(2), location.Account(alice)).Build()
	require.NoError(err)

	require.Equal(a.ID(), b.ID())
	require.NotEqual(a.ID(), c.ID())
}

func TestAssetVerify(t *testing.T) {
	require := require.New(t)

	require.NoError(NativeAsset(1).Verify())
	require.ErrorIs(Asset{ID: location.Parent()}.Verify(), ErrInvalidAsset)

	tooMany := make(Assets, MaxAssets+1)
	for i := range tooMany {
		tooMany[i] = NativeAsset(1)
	}
	require.ErrorIs(tooMany.Verify(), ErrInvalidAsset)

	require.True(NativeAsset(1).IsNative())
	require.False(NewAsset(location.Sibling(7), 1).IsNative())
}

func TestAddUint64(t *testing.T) {
	require := require.New(t)

	sum, err := AddUint64(1, 2)
	require.NoError(err)
	require.Equal(uint64(3), sum)

	_, err = AddUint64(^uint64(0), 1)
	require.Error(err)
}
