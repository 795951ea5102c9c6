// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/bridge"
	"github.com/luxfi/xcm/config"
	"github.com/luxfi/xcm/executor"
	"github.com/luxfi/xcm/ledger"
	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/router"
	"github.com/luxfi/xcm/types"
)

const (
	chainA types.ChainID = 1
	chainB types.ChainID = 2

	awaitTimeout = 5 * time.Second
)

var (
	alice = config.Alice
	bob   = config.Bob
)

func testConfig() config.Config {
	return config.Config{
		MaxVersion:           uint8(xcm.CurrentVersion),
		MaxWeight:            uint64(executor.DefaultMaxWeight),
		TranslationCacheSize: 16,
		Chains:               config.DefaultChains(),
	}
}

func newTestNetwork(t *testing.T, cfg config.Config) *Network {
	t.Helper()

	n, err := New(log.NewNoOpLogger(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, n.Close())
	})
	return n
}

func mustNode(t *testing.T, n *Network, id types.ChainID) *Node {
	t.Helper()

	node, err := n.Node(id)
	require.NoError(t, err)
	return node
}

func requireBalance(t *testing.T, n *Network, id types.ChainID, account types.AccountID, expected uint64) {
	t.Helper()

	balance, err := n.BalanceOf(id, account)
	require.NoError(t, err)
	require.Equal(t, expected, balance.Uint64(), "balance of %s on %s", account, id)
}

func requireIssuance(t *testing.T, n *Network, expected uint64) {
	t.Helper()

	issuance, err := n.TotalIssuance()
	require.NoError(t, err)
	require.Equal(t, expected, issuance.Uint64())
}

func waitIdle(t *testing.T, n *Network) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), awaitTimeout)
	defer cancel()
	require.NoError(t, n.WaitIdle(ctx))
}

func transferMessage(t *testing.T, version xcm.Version, amount uint64, to types.AccountID) xcm.VersionedMessage {
	t.Helper()

	msg, err := xcm.NewBuilder().TransferAsset(xcm.NativeAsset(amount), location.Account(to)).Build()
	require.NoError(t, err)
	vm, err := xcm.NewVersionedMessage(version, msg)
	require.NoError(t, err)
	return vm
}

func sibling(t *testing.T, id types.ChainID) xcm.VersionedLocation {
	t.Helper()

	vl, err := xcm.NewVersionedLocation(xcm.CurrentVersion, location.Sibling(id))
	require.NoError(t, err)
	return vl
}

func teleport(t *testing.T, n *Network, from, to types.ChainID, amount uint64) (bridge.TeleportRecord, error) {
	t.Helper()

	beneficiary, err := xcm.NewVersionedLocation(xcm.CurrentVersion, location.Account(bob))
	require.NoError(t, err)
	assets, err := xcm.NewVersionedAssets(xcm.CurrentVersion, xcm.Assets{xcm.NativeAsset(amount)})
	require.NoError(t, err)
	return mustNode(t, n, from).Bridge.TeleportAssets(
		context.Background(),
		executor.Signed(alice),
		sibling(t, to),
		beneficiary,
		assets,
		0,
	)
}

func TestLocalTransfer(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())

	_, err := mustNode(t, n, chainA).Bridge.Execute(
		context.Background(),
		executor.Signed(alice),
		transferMessage(t, xcm.CurrentVersion, 100, bob),
		0,
	)
	require.NoError(err)

	requireBalance(t, n, chainA, alice, 900)
	requireBalance(t, n, chainA, bob, 100)
	requireBalance(t, n, chainB, alice, 1000)
	requireBalance(t, n, chainB, bob, 0)
	requireIssuance(t, n, 2000)
}

func TestLocalTransferInsufficientFunds(t *testing.T) {
	n := newTestNetwork(t, testConfig())

	_, err := mustNode(t, n, chainA).Bridge.Execute(
		context.Background(),
		executor.Signed(alice),
		transferMessage(t, xcm.CurrentVersion, 1001, bob),
		0,
	)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	requireBalance(t, n, chainA, alice, 1000)
	requireBalance(t, n, chainA, bob, 0)
	requireIssuance(t, n, 2000)
}

func TestRemoteSend(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())

	_, err := mustNode(t, n, chainA).Bridge.Send(
		context.Background(),
		executor.Signed(alice),
		sibling(t, chainB),
		transferMessage(t, xcm.CurrentVersion, 100, bob),
	)
	require.NoError(err)

	require.NoError(n.AwaitBalance(context.Background(), chainB, bob, uint256.NewInt(100), awaitTimeout))
	requireBalance(t, n, chainB, alice, 900)
	requireBalance(t, n, chainA, alice, 1000)
	requireBalance(t, n, chainA, bob, 0)
	requireIssuance(t, n, 2000)
}

func TestRemoteSendOrdering(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())
	b := mustNode(t, n, chainA).Bridge

	// The second message only succeeds if it runs before the first one.
	for _, amount := range []uint64{1000, 1} {
		_, err := b.Send(context.Background(), executor.Signed(alice), sibling(t, chainB), transferMessage(t, xcm.CurrentVersion, amount, bob))
		require.NoError(err)
	}
	waitIdle(t, n)

	requireBalance(t, n, chainB, alice, 0)
	requireBalance(t, n, chainB, bob, 1000)

	failures := mustNode(t, n, chainB).Chain.Failures()
	require.Len(failures, 1)
	require.Equal(uint64(2), failures[0].Nonce)
	require.ErrorIs(failures[0].Err, ledger.ErrInsufficientBalance)
	require.Empty(n.Router().Failures())
}

func TestTeleport(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())

	record, err := teleport(t, n, chainA, chainB, 100)
	require.NoError(err)
	require.Equal(bridge.TeleportStateDispatched, record.State)

	require.NoError(n.AwaitBalance(context.Background(), chainB, bob, uint256.NewInt(100), awaitTimeout))
	requireBalance(t, n, chainA, alice, 900)
	requireBalance(t, n, chainB, alice, 1000)
	requireIssuance(t, n, 2000)
	require.Empty(mustNode(t, n, chainB).Chain.Failures())
}

func TestTeleportDeliveryFailure(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())

	errDropped := errors.New("dropped")
	n.Router().SetFaultInjector(func(*router.Envelope) error {
		return errDropped
	})

	record, err := teleport(t, n, chainA, chainB, 100)
	require.NoError(err)
	require.Equal(bridge.TeleportStateDispatched, record.State)
	waitIdle(t, n)

	// The burn on the source is kept even though the mint never happened.
	requireBalance(t, n, chainA, alice, 900)
	requireBalance(t, n, chainB, bob, 0)
	requireIssuance(t, n, 1900)

	failures := n.Router().Failures()
	require.Len(failures, 1)
	require.Equal(record.Envelopes[0], failures[0].EnvelopeID)
	require.ErrorIs(failures[0].Err, router.ErrDeliveryFailed)
	require.ErrorIs(failures[0].Err, errDropped)
}

func TestRouteRecoversAfterLostEnvelope(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())
	b := mustNode(t, n, chainA).Bridge

	errDropped := errors.New("dropped")
	n.Router().SetFaultInjector(func(env *router.Envelope) error {
		if env.Nonce == 1 {
			return errDropped
		}
		return nil
	})

	_, err := b.Send(context.Background(), executor.Signed(alice), sibling(t, chainB), transferMessage(t, xcm.CurrentVersion, 10, bob))
	require.NoError(err)
	_, err = b.Send(context.Background(), executor.Signed(alice), sibling(t, chainB), transferMessage(t, xcm.CurrentVersion, 20, bob))
	require.NoError(err)
	require.NoError(n.AwaitBalance(context.Background(), chainB, bob, uint256.NewInt(20), awaitTimeout))

	// A teleport whose mint follows a lost envelope still lands.
	record, err := teleport(t, n, chainA, chainB, 100)
	require.NoError(err)
	require.Equal(bridge.TeleportStateDispatched, record.State)
	require.NoError(n.AwaitBalance(context.Background(), chainB, bob, uint256.NewInt(120), awaitTimeout))
	waitIdle(t, n)

	requireBalance(t, n, chainA, alice, 900)
	requireBalance(t, n, chainB, alice, 980)
	requireIssuance(t, n, 2000)

	failures := n.Router().Failures()
	require.Len(failures, 1)
	require.Equal(uint64(1), failures[0].Nonce)
	require.Empty(mustNode(t, n, chainB).Chain.Failures())
}

func TestNodeHandler(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())

	handlerID, handler := mustNode(t, n, chainB).Handler()
	require.Equal(uint64(router.EnvelopeHandlerID), handlerID)

	deadline := time.Now().Add(time.Minute)
	_, appErr := handler.Request(context.Background(), ids.EmptyNodeID, deadline, []byte{0x01})
	require.NotNil(appErr)

	handler.Gossip(context.Background(), ids.EmptyNodeID, []byte{0x01})
	requireBalance(t, n, chainB, bob, 0)
	requireIssuance(t, n, 2000)
}

func TestTeleportInsufficientFunds(t *testing.T) {
	require := require.New(t)
	n := newTestNetwork(t, testConfig())

	_, err := teleport(t, n, chainA, chainB, 1001)
	require.ErrorIs(err, ledger.ErrInsufficientBalance)
	waitIdle(t, n)

	requireBalance(t, n, chainA, alice, 1000)
	requireBalance(t, n, chainB, bob, 0)
	requireIssuance(t, n, 2000)
}

func TestTeleportUntrustedSource(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.Chains[1].Teleporters = nil
	n := newTestNetwork(t, cfg)

	_, err := teleport(t, n, chainA, chainB, 100)
	require.NoError(err)
	waitIdle(t, n)

	requireBalance(t, n, chainA, alice, 900)
	requireBalance(t, n, chainB, bob, 0)

	failures := mustNode(t, n, chainB).Chain.Failures()
	require.Len(failures, 1)
	require.ErrorIs(failures[0].Err, executor.ErrBadOrigin)
}

func TestVersionNegotiation(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.Chains[1].MaxVersion = uint8(xcm.V3)
	n := newTestNetwork(t, cfg)
	b := mustNode(t, n, chainA).Bridge

	// V4 envelopes are refused by a chain that only understands V3.
	_, err := b.Send(context.Background(), executor.Signed(alice), sibling(t, chainB), transferMessage(t, xcm.V4, 10, bob))
	require.NoError(err)
	waitIdle(t, n)
	requireBalance(t, n, chainB, bob, 0)

	failures := mustNode(t, n, chainB).Chain.Failures()
	require.Len(failures, 1)
	require.ErrorIs(failures[0].Err, xcm.ErrUnsupportedVersion)

	_, err = b.Send(context.Background(), executor.Signed(alice), sibling(t, chainB), transferMessage(t, xcm.V3, 10, bob))
	require.NoError(err)
	require.NoError(n.AwaitBalance(context.Background(), chainB, bob, uint256.NewInt(10), awaitTimeout))
}

func TestUnreachableChain(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.Chains = append(cfg.Chains, config.ChainConfig{ID: 3})
	n := newTestNetwork(t, cfg)

	_, err := mustNode(t, n, chainA).Bridge.Send(
		context.Background(),
		executor.Signed(alice),
		sibling(t, 3),
		transferMessage(t, xcm.CurrentVersion, 1, bob),
	)
	require.ErrorIs(err, router.ErrUnreachableDestination)
	require.Equal([]types.ChainID{1, 2, 3}, n.ChainIDs())
}

func TestAwaitBalanceTimeout(t *testing.T) {
	n := newTestNetwork(t, testConfig())

	err := n.AwaitBalance(context.Background(), chainB, bob, uint256.NewInt(1), 50*time.Millisecond)
	require.ErrorIs(t, err, ErrUnexpectedBalance)

	err = n.AwaitBalance(context.Background(), 9, bob, uint256.NewInt(1), awaitTimeout)
	require.ErrorIs(t, err, ErrUnknownChain)
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Chains = nil

	_, err := New(log.NewNoOpLogger(), cfg, prometheus.NewRegistry())
	require.ErrorIs(t, err, config.ErrNoChains)
}

func TestPersistentLedgers(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.StoreDir = t.TempDir()

	n, err := New(log.NewNoOpLogger(), cfg, prometheus.NewRegistry())
	require.NoError(err)
	_, err = mustNode(t, n, chainA).Bridge.Execute(
		context.Background(),
		executor.Signed(alice),
		transferMessage(t, xcm.CurrentVersion, 100, bob),
		0,
	)
	require.NoError(err)
	require.NoError(n.Close())

	// Reopening keeps the balances instead of funding genesis again.
	n = newTestNetwork(t, cfg)
	requireBalance(t, n, chainA, alice, 900)
	requireBalance(t, n, chainA, bob, 100)
	requireBalance(t, n, chainB, alice, 1000)
	requireIssuance(t, n, 2000)
}
