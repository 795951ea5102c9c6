// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain binds a ledger, an executor and an inbox into one sovereign
// chain. All executions on a chain, local or delivered, are serialized.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/executor"
	"github.com/luxfi/xcm/ledger"
	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/router"
	"github.com/luxfi/xcm/signer"
	"github.com/luxfi/xcm/types"
)

const defaultTranslationCacheSize = 1024

var (
	_ router.Endpoint = (*Chain)(nil)

	ErrWrongDestination = errors.New("envelope addressed to another chain")
)

// Config describes one chain
type Config struct {
	ID      types.ChainID
	Network types.NetworkID
	// MaxVersion is the newest message version the chain accepts
	MaxVersion xcm.Version
	MaxWeight  executor.Weight
	// Teleporters are the chains allowed to mint here
	Teleporters set.Set[types.ChainID]
	// TranslationCacheSize bounds the memoized location conversions
	TranslationCacheSize int
}

// Chain is a single sovereign chain
type Chain struct {
	log       log.Logger
	config    Config
	ledger    ledger.Ledger
	converter *location.CachedConverter
	executor  *executor.Executor
	inbox     *router.Inbox
	keyring   *signer.Keyring

	lock     sync.Mutex
	failures []router.Failure
}

// New creates a chain over l. Envelopes are authenticated against keyring.
func New(logger log.Logger, config Config, l ledger.Ledger, keyring *signer.Keyring) *Chain {
	if config.MaxVersion == 0 {
		config.MaxVersion = xcm.CurrentVersion
	}
	if config.TranslationCacheSize == 0 {
		config.TranslationCacheSize = defaultTranslationCacheSize
	}
	converter := location.NewCachedConverter(location.DefaultConverter(config.Network), config.TranslationCacheSize)
	return &Chain{
		log:       logger,
		config:    config,
		ledger:    l,
		converter: converter,
		executor: executor.New(logger, l, converter, executor.Config{
			MaxWeight:   config.MaxWeight,
			Teleporters: config.Teleporters,
		}),
		inbox:   router.NewInbox(logger),
		keyring: keyring,
	}
}

func (c *Chain) ID() types.ChainID { return c.config.ID }

func (c *Chain) Config() Config { return c.config }

// MaxVersion is the newest message version the chain accepts
func (c *Chain) MaxVersion() xcm.Version { return c.config.MaxVersion }

// Converter returns the chain's address translator
func (c *Chain) Converter() location.Converter { return c.converter }

// Ledger returns the chain's balances
func (c *Chain) Ledger() ledger.Ledger { return c.ledger }

// BalanceOf returns the balance of account on this chain
func (c *Chain) BalanceOf(account types.AccountID) (*uint256.Int, error) {
	return c.ledger.BalanceOf(account)
}

// Execute runs msg locally under origin
func (c *Chain) Execute(ctx context.Context, msg xcm.Message, origin executor.Origin, weightLimit executor.Weight) (executor.Outcome, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.executor.Execute(ctx, msg, origin, weightLimit)
}

// Deliver implements router.Endpoint. Authentication failures are returned;
// execution failures are recorded and logged on this chain only.
func (c *Chain) Deliver(ctx context.Context, env *router.Envelope) error {
	if env.Destination != c.config.ID {
		return fmt.Errorf("%w: %s", ErrWrongDestination, env)
	}
	if err := c.keyring.Verify(env.Source, env.UnsignedBytes(), env.Signature); err != nil {
		return fmt.Errorf("%s: %w", env, err)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	for _, ready := range c.inbox.Admit(env) {
		c.apply(ctx, ready)
	}
	return nil
}

// Skip implements router.Endpoint. The lost envelope is never executed;
// the envelopes queued behind it run now.
func (c *Chain) Skip(ctx context.Context, env *router.Envelope) {
	if env.Destination != c.config.ID {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.log.Warn("skipping undeliverable envelope",
		log.Stringer("chainID", c.config.ID),
		log.Stringer("source", env.Source),
		log.Uint64("nonce", env.Nonce),
	)
	for _, ready := range c.inbox.Skip(env.Source, env.Nonce) {
		c.apply(ctx, ready)
	}
}

func (c *Chain) apply(ctx context.Context, env *router.Envelope) {
	origin := executor.Chain(env.Source)
	if account, ok := env.SenderAccount(); ok {
		origin = executor.ChainAccount(env.Source, account)
	}

	msg, err := env.Message.DecodeUpTo(c.config.MaxVersion)
	if err != nil {
		c.recordFailure(env, err)
		return
	}
	outcome, err := c.executor.Execute(ctx, msg, origin, 0)
	if err != nil {
		c.recordFailure(env, err)
		return
	}
	c.log.Debug("executed envelope",
		log.Stringer("chainID", c.config.ID),
		log.Stringer("source", env.Source),
		log.Uint64("nonce", env.Nonce),
		log.Uint64("weight", uint64(outcome.WeightUsed)),
	)
}

func (c *Chain) recordFailure(env *router.Envelope, err error) {
	c.log.Warn("inbound message failed",
		log.Stringer("chainID", c.config.ID),
		log.Stringer("source", env.Source),
		log.Uint64("nonce", env.Nonce),
		log.Err(err),
	)
	c.failures = append(c.failures, router.Failure{
		EnvelopeID: env.ID(),
		Source:     env.Source,
		Nonce:      env.Nonce,
		Err:        err,
	})
}

// Failures returns the inbound messages that failed on this chain
func (c *Chain) Failures() []router.Failure {
	c.lock.Lock()
	defer c.lock.Unlock()

	failures := make([]router.Failure, len(c.failures))
	copy(failures, c.failures)
	return failures
}
