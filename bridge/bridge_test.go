// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/chain"
	"github.com/luxfi/xcm/executor"
	"github.com/luxfi/xcm/ledger"
	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/router"
	"github.com/luxfi/xcm/signer"
	"github.com/luxfi/xcm/types"
)

const (
	local  types.ChainID = 1
	remote types.ChainID = 2
)

var (
	alice = types.AccountID{1}
	bob   = types.AccountID{2}
)

type sentMessage struct {
	to      types.ChainID
	sender  *types.AccountID
	message xcm.VersionedMessage
}

// fakeRouter records sends instead of delivering them
type fakeRouter struct {
	lock    sync.Mutex
	sent    []sentMessage
	sendErr error
}

func (r *fakeRouter) CanReach(_, to types.ChainID) error {
	if to != remote {
		return router.ErrUnreachableDestination
	}
	return nil
}

func (r *fakeRouter) Send(_ context.Context, from, to types.ChainID, sender *types.AccountID, msg xcm.VersionedMessage) (ids.ID, error) {
	if err := r.CanReach(from, to); err != nil {
		return ids.Empty, err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if r.sendErr != nil {
		return ids.Empty, r.sendErr
	}
	r.sent = append(r.sent, sentMessage{to: to, sender: sender, message: msg})
	return ids.ID{byte(len(r.sent))}, nil
}

func newTestBridge(t *testing.T) (*Bridge, *chain.Chain, *fakeRouter) {
	t.Helper()

	l := ledger.NewMemoryLedger()
	require.NoError(t, l.Credit(alice, uint256.NewInt(1000)))
	c := chain.New(log.NewNoOpLogger(), chain.Config{
		ID:          local,
		Teleporters: set.Of(remote),
	}, l, signer.NewKeyring())
	r := &fakeRouter{}
	return New(log.NewNoOpLogger(), c, r), c, r
}

func requireBalance(t *testing.T, c *chain.Chain, account types.AccountID, expected uint64) {
	t.Helper()

	balance, err := c.BalanceOf(account)
	require.NoError(t, err)
	require.Equal(t, expected, balance.Uint64(), "balance of %s", account)
}

func versioned(t *testing.T, b *xcm.Builder) xcm.VersionedMessage {
	t.Helper()

	msg, err := b.Build()
	require.NoError(t, err)
	vm, err := xcm.NewVersionedMessage(xcm.CurrentVersion, msg)
	require.NoError(t, err)
	return vm
}

func versionedLocation(t *testing.T, loc location.Location) xcm.VersionedLocation {
	t.Helper()

	vl, err := xcm.NewVersionedLocation(xcm.CurrentVersion, loc)
	require.NoError(t, err)
	return vl
}

func versionedAssets(t *testing.T, assets ...xcm.Asset) xcm.VersionedAssets {
	t.Helper()

	va, err := xcm.NewVersionedAssets(xcm.CurrentVersion, assets)
	require.NoError(t, err)
	return va
}

func TestExecute(t *testing.T) {
	require := require.New(t)
	b, c, r := newTestBridge(t)

	msg := versioned(t, xcm.NewBuilder().TransferAsset(xcm.NativeAsset(100), location.Account(bob)))
	outcome, err := b.Execute(context.Background(), executor.Signed(alice), msg, 0)
	require.NoError(err)
	require.Equal(1, outcome.Completed)

	requireBalance(t, c, alice, 900)
	requireBalance(t, c, bob, 100)
	require.Empty(r.sent)
}

func TestExecuteRejections(t *testing.T) {
	mint := xcm.NewBuilder().MintAsset(xcm.Assets{xcm.NativeAsset(1)}, location.Account(alice))
	transfer := xcm.NewBuilder().TransferAsset(xcm.NativeAsset(1), location.Account(bob))

	tests := []struct {
		name        string
		origin      executor.Origin
		msg         *xcm.Builder
		expectedErr error
	}{
		{
			name:        "user mint",
			origin:      executor.Signed(alice),
			msg:         mint,
			expectedErr: executor.ErrBadOrigin,
		},
		{
			name:        "user burn",
			origin:      executor.Signed(alice),
			msg:         xcm.NewBuilder().BurnAsset(xcm.NativeAsset(1)),
			expectedErr: executor.ErrBadOrigin,
		},
		{
			name:        "no origin",
			origin:      executor.None(),
			msg:         transfer,
			expectedErr: executor.ErrBadOrigin,
		},
		{
			name:        "remote origin",
			origin:      executor.ChainAccount(remote, alice),
			msg:         transfer,
			expectedErr: executor.ErrBadOrigin,
		},
		{
			name:   "root mint",
			origin: executor.Root(),
			msg:    mint,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, c, _ := newTestBridge(t)

			_, err := b.Execute(context.Background(), tt.origin, versioned(t, tt.msg), 0)
			require.ErrorIs(t, err, tt.expectedErr)
			if tt.expectedErr != nil {
				requireBalance(t, c, alice, 1000)
				requireBalance(t, c, bob, 0)
			}
		})
	}
}

func TestExecuteUnsupportedVersion(t *testing.T) {
	b, c, _ := newTestBridge(t)

	msg := versioned(t, xcm.NewBuilder().TransferAsset(xcm.NativeAsset(100), location.Account(bob)))
	msg.Version = 42
	_, err := b.Execute(context.Background(), executor.Signed(alice), msg, 0)
	require.ErrorIs(t, err, xcm.ErrUnsupportedVersion)
	requireBalance(t, c, alice, 1000)
}

func TestSend(t *testing.T) {
	require := require.New(t)
	b, c, r := newTestBridge(t)

	msg := versioned(t, xcm.NewBuilder().TransferAsset(xcm.NativeAsset(100), location.Account(bob)))
	_, err := b.Send(context.Background(), executor.Signed(alice), versionedLocation(t, location.Sibling(remote)), msg)
	require.NoError(err)

	require.Len(r.sent, 1)
	require.Equal(remote, r.sent[0].to)
	require.NotNil(r.sent[0].sender)
	require.Equal(alice, *r.sent[0].sender)
	require.Equal(msg, r.sent[0].message)

	// Sending leaves local balances untouched.
	requireBalance(t, c, alice, 1000)
	requireBalance(t, c, bob, 0)
}

func TestSendRejections(t *testing.T) {
	transfer := xcm.NewBuilder().TransferAsset(xcm.NativeAsset(1), location.Account(bob))

	tests := []struct {
		name        string
		origin      executor.Origin
		dest        location.Location
		msg         *xcm.Builder
		expectedErr error
	}{
		{
			name:        "unreachable",
			origin:      executor.Signed(alice),
			dest:        location.Sibling(9),
			msg:         transfer,
			expectedErr: router.ErrUnreachableDestination,
		},
		{
			name:        "not a chain",
			origin:      executor.Signed(alice),
			dest:        location.Account(bob),
			msg:         transfer,
			expectedErr: location.ErrNotAChain,
		},
		{
			name:        "privileged",
			origin:      executor.Signed(alice),
			dest:        location.Sibling(remote),
			msg:         xcm.NewBuilder().MintAsset(xcm.Assets{xcm.NativeAsset(1)}, location.Account(alice)),
			expectedErr: executor.ErrBadOrigin,
		},
		{
			name:        "no origin",
			origin:      executor.None(),
			dest:        location.Sibling(remote),
			msg:         transfer,
			expectedErr: executor.ErrBadOrigin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, r := newTestBridge(t)

			_, err := b.Send(context.Background(), tt.origin, versionedLocation(t, tt.dest), versioned(t, tt.msg))
			require.ErrorIs(t, err, tt.expectedErr)
			require.Empty(t, r.sent)
		})
	}
}

func TestTeleportAssets(t *testing.T) {
	require := require.New(t)
	b, c, r := newTestBridge(t)

	record, err := b.TeleportAssets(
		context.Background(),
		executor.Signed(alice),
		versionedLocation(t, location.Sibling(remote)),
		versionedLocation(t, location.Account(bob)),
		versionedAssets(t, xcm.NativeAsset(100)),
		0,
	)
	require.NoError(err)
	require.Equal(TeleportStateDispatched, record.State)
	require.Equal(1, record.Burned)
	require.Len(record.Envelopes, 1)

	requireBalance(t, c, alice, 900)
	issuance, err := c.Ledger().TotalIssuance()
	require.NoError(err)
	require.Equal(uint64(900), issuance.Uint64())

	require.Len(r.sent, 1)
	require.Nil(r.sent[0].sender)
	require.Equal(xcm.V4, r.sent[0].message.Version)
	mint, err := r.sent[0].message.Decode()
	require.NoError(err)
	require.Equal(1, mint.Len())
	instr, ok := mint.Instructions[0].(*xcm.MintAsset)
	require.True(ok)
	require.True(instr.Beneficiary.Equal(location.Account(bob)))
	require.Equal(uint64(100), instr.Assets[0].Amount.Uint64())

	stored, err := b.GetTeleport(record.ID)
	require.NoError(err)
	require.Equal(record.ID, stored.ID)
	require.Len(b.ListTeleports(TeleportStateDispatched), 1)
}

func TestTeleportBurnNotRevertedOnRoutingFailure(t *testing.T) {
	require := require.New(t)
	b, c, r := newTestBridge(t)

	errLost := errors.New("lost")
	r.sendErr = errLost

	record, err := b.TeleportAssets(
		context.Background(),
		executor.Signed(alice),
		versionedLocation(t, location.Sibling(remote)),
		versionedLocation(t, location.Account(bob)),
		versionedAssets(t, xcm.NativeAsset(100)),
		0,
	)
	require.ErrorIs(err, errLost)
	require.Equal(TeleportStateFailed, record.State)
	require.Equal(1, record.Burned)
	require.Empty(record.Envelopes)

	requireBalance(t, c, alice, 900)
}

func TestTeleportRejections(t *testing.T) {
	tests := []struct {
		name          string
		origin        executor.Origin
		dest          location.Location
		assets        xcm.VersionedAssets
		feeAssetIndex uint32
		expectedErr   error
	}{
		{
			name:          "fee index out of range",
			origin:        executor.Signed(alice),
			dest:          location.Sibling(remote),
			assets:        versionedAssets(t, xcm.NativeAsset(100)),
			feeAssetIndex: 1,
			expectedErr:   ErrInvalidFeeAsset,
		},
		{
			name:        "no assets",
			origin:      executor.Signed(alice),
			dest:        location.Sibling(remote),
			assets:      xcm.VersionedAssets{Version: xcm.CurrentVersion, Payload: []byte{0xc0}},
			expectedErr: ErrNoAssets,
		},
		{
			name:        "insufficient funds",
			origin:      executor.Signed(alice),
			dest:        location.Sibling(remote),
			assets:      versionedAssets(t, xcm.NativeAsset(1001)),
			expectedErr: ledger.ErrInsufficientBalance,
		},
		{
			name:        "unreachable",
			origin:      executor.Signed(alice),
			dest:        location.Sibling(9),
			assets:      versionedAssets(t, xcm.NativeAsset(1)),
			expectedErr: router.ErrUnreachableDestination,
		},
		{
			name:        "root has no account",
			origin:      executor.Root(),
			dest:        location.Sibling(remote),
			assets:      versionedAssets(t, xcm.NativeAsset(1)),
			expectedErr: executor.ErrBadOrigin,
		},
		{
			name:        "unknown asset",
			origin:      executor.Signed(alice),
			dest:        location.Sibling(remote),
			assets:      versionedAssets(t, xcm.NewAsset(location.Sibling(5), 1)),
			expectedErr: executor.ErrUnknownAsset,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, c, r := newTestBridge(t)

			_, err := b.TeleportAssets(
				context.Background(),
				tt.origin,
				versionedLocation(t, tt.dest),
				versionedLocation(t, location.Account(bob)),
				tt.assets,
				tt.feeAssetIndex,
			)
			require.ErrorIs(t, err, tt.expectedErr)
			requireBalance(t, c, alice, 1000)
			require.Empty(t, r.sent)
		})
	}
}

func TestGetUnknownTeleport(t *testing.T) {
	b, _, _ := newTestBridge(t)

	_, err := b.GetTeleport(ids.Empty)
	require.ErrorIs(t, err, ErrUnknownTeleport)
}
