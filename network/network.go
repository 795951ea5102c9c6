// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package network assembles chains, their bridges and a shared router from
// a topology description, all inside one process.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/holiman/uint256"
	"github.com/luxfi/log"
	"github.com/luxfi/p2p"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/xcm/bridge"
	"github.com/luxfi/xcm/chain"
	"github.com/luxfi/xcm/config"
	"github.com/luxfi/xcm/ledger"
	"github.com/luxfi/xcm/router"
	"github.com/luxfi/xcm/signer"
	"github.com/luxfi/xcm/types"
	"github.com/luxfi/xcm/utils"
)

var (
	ErrUnknownChain      = errors.New("unknown chain")
	ErrUnexpectedBalance = errors.New("unexpected balance")
)

// Node is one chain together with its user-facing bridge
type Node struct {
	Chain   *chain.Chain
	Bridge  *bridge.Bridge
	ledger  ledger.Ledger
	handler *router.HandlerAdapter
}

// Handler returns the protocol ID and handler that let peers outside this
// process deliver envelopes to the node's chain
func (n *Node) Handler() (uint64, p2p.Handler) {
	return router.EnvelopeHandlerID, n.handler
}

// Network is a set of chains sharing one router
type Network struct {
	log    log.Logger
	config config.Config
	router *router.Router
	nodes  map[types.ChainID]*Node
}

// New builds every chain of cfg, funds the genesis balances and registers
// the chains with a fresh router. Router metrics go to registerer.
func New(logger log.Logger, cfg config.Config, registerer prometheus.Registerer) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	keyring := signer.NewKeyring()
	n := &Network{
		log:    logger,
		config: cfg,
		router: router.New(logger, router.NewMetrics(registerer), keyring),
		nodes:  make(map[types.ChainID]*Node, len(cfg.Chains)),
	}
	for _, chainConfig := range cfg.Chains {
		if err := n.addChain(chainConfig, keyring); err != nil {
			_ = n.Close()
			return nil, fmt.Errorf("failed to build %s: %w", chainConfig.ChainID(), err)
		}
	}
	return n, nil
}

func (n *Network) addChain(chainConfig config.ChainConfig, keyring *signer.Keyring) error {
	l, err := n.openLedger(chainConfig)
	if err != nil {
		return err
	}
	id := chainConfig.ChainID()
	// registered before anything else can fail so Close releases the ledger
	n.nodes[id] = &Node{ledger: l}

	if err := fund(l, chainConfig); err != nil {
		return err
	}

	c := chain.New(n.log, chain.Config{
		ID:                   id,
		Network:              types.NetworkID(n.config.Network),
		MaxVersion:           n.config.ChainMaxVersion(chainConfig),
		MaxWeight:            n.config.ChainMaxWeight(chainConfig),
		Teleporters:          chainConfig.TeleporterSet(),
		TranslationCacheSize: n.config.TranslationCacheSize,
	}, l, keyring)

	s, err := signer.GenerateLocalSigner()
	if err != nil {
		return err
	}
	if err := n.router.Register(id, chainConfig.PeerSet(), s, c); err != nil {
		return err
	}

	n.nodes[id].Chain = c
	n.nodes[id].Bridge = bridge.New(n.log, c, n.router)
	n.nodes[id].handler = router.NewHandlerAdapter(n.log, c)
	return nil
}

func (n *Network) openLedger(chainConfig config.ChainConfig) (ledger.Ledger, error) {
	dir := n.config.ChainStoreDir(chainConfig)
	if dir == "" {
		return ledger.NewMemoryLedger(), nil
	}
	return ledger.NewBadgerLedger(dir, n.log)
}

// fund credits the genesis balances unless the ledger already holds funds
// from a previous run
func fund(l ledger.Ledger, chainConfig config.ChainConfig) error {
	issuance, err := l.TotalIssuance()
	if err != nil {
		return err
	}
	if !issuance.IsZero() {
		return nil
	}
	balances, err := chainConfig.ParseBalances()
	if err != nil {
		return err
	}
	for account, amount := range balances {
		if err := l.Credit(account, amount); err != nil {
			return err
		}
	}
	return nil
}

// Router returns the shared routing fabric
func (n *Network) Router() *router.Router { return n.router }

// ChainIDs returns the configured chains in ascending order
func (n *Network) ChainIDs() []types.ChainID {
	ids := make([]types.ChainID, 0, len(n.nodes))
	for id := range n.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Node returns the chain with the given ID
func (n *Network) Node(id types.ChainID) (*Node, error) {
	node, ok := n.nodes[id]
	if !ok || node.Chain == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}
	return node, nil
}

// BalanceOf returns the balance of account on chain id
func (n *Network) BalanceOf(id types.ChainID, account types.AccountID) (*uint256.Int, error) {
	node, err := n.Node(id)
	if err != nil {
		return nil, err
	}
	return node.Chain.BalanceOf(account)
}

// TotalIssuance sums the issuance of every chain
func (n *Network) TotalIssuance() (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, id := range n.ChainIDs() {
		node, err := n.Node(id)
		if err != nil {
			return nil, err
		}
		issuance, err := node.ledger.TotalIssuance()
		if err != nil {
			return nil, err
		}
		if _, overflow := total.AddOverflow(total, issuance); overflow {
			return nil, ledger.ErrOverflow
		}
	}
	return total, nil
}

// AwaitBalance polls until account holds expected on chain id or timeout
// elapses. Delivery is asynchronous, so this is how callers observe the
// effect of a send.
func (n *Network) AwaitBalance(ctx context.Context, id types.ChainID, account types.AccountID, expected *uint256.Int, timeout time.Duration) error {
	node, err := n.Node(id)
	if err != nil {
		return err
	}
	return utils.WithRetriesTimeout(ctx, n.log, func() error {
		balance, err := node.Chain.BalanceOf(account)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !balance.Eq(expected) {
			return fmt.Errorf("%w: %s on %s holds %s, expected %s", ErrUnexpectedBalance, account, id, balance.Dec(), expected.Dec())
		}
		return nil
	}, timeout)
}

// WaitIdle blocks until every routed envelope had its delivery attempt
func (n *Network) WaitIdle(ctx context.Context) error {
	return n.router.WaitIdle(ctx)
}

// Close drains the router and releases every persistent ledger
func (n *Network) Close() error {
	n.router.Close()

	var errs []error
	for _, node := range n.nodes {
		if closer, ok := node.ledger.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
