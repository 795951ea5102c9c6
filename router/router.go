// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router relays signed envelopes between chains. Each route keeps
// its own nonce sequence and delivers in FIFO order.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/signer"
	"github.com/luxfi/xcm/types"
)

var (
	ErrUnreachableDestination = errors.New("unreachable destination")
	ErrDeliveryFailed         = errors.New("delivery failed")
	ErrInvalidSignature       = signer.ErrInvalidSignature
	ErrAlreadyRegistered      = errors.New("chain already registered")
	ErrClosed                 = errors.New("router closed")
)

const (
	failureReasonInjected = "injected"
	failureReasonEndpoint = "endpoint"
)

// Endpoint receives envelopes addressed to one chain
type Endpoint interface {
	Deliver(ctx context.Context, env *Envelope) error
	// Skip is called once env has failed for good. Envelopes behind it on
	// the same route must not wait for it.
	Skip(ctx context.Context, env *Envelope)
}

// FaultInjector may fail an envelope after it was accepted
type FaultInjector func(*Envelope) error

// Failure records an envelope that was accepted but never applied
type Failure struct {
	EnvelopeID ids.ID
	Source     types.ChainID
	Nonce      uint64
	Err        error
}

type member struct {
	peers    set.Set[types.ChainID]
	signer   signer.Signer
	endpoint Endpoint
}

type routeKey struct {
	from, to types.ChainID
}

// route queues envelopes for one (source, destination) pair. At most one
// pump goroutine drains it at a time.
type route struct {
	lock    sync.Mutex
	nonce   uint64
	queue   []*Envelope
	pumping bool
}

// Router is the routing fabric shared by every chain of a network
type Router struct {
	log     log.Logger
	metrics *Metrics
	keyring *signer.Keyring

	lock     sync.RWMutex
	members  map[types.ChainID]*member
	routes   map[routeKey]*route
	inject   FaultInjector
	failures []Failure
	closed   bool

	// inFlight counts accepted envelopes without a delivery attempt yet
	idleLock sync.Mutex
	idle     *sync.Cond
	inFlight int
}

func New(logger log.Logger, metrics *Metrics, keyring *signer.Keyring) *Router {
	r := &Router{
		log:     logger,
		metrics: metrics,
		keyring: keyring,
		members: make(map[types.ChainID]*member),
		routes:  make(map[routeKey]*route),
	}
	r.idle = sync.NewCond(&r.idleLock)
	return r
}

// Register attaches a chain. peers are the chains it may send to.
func (r *Router) Register(chain types.ChainID, peers set.Set[types.ChainID], s signer.Signer, endpoint Endpoint) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.members[chain]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, chain)
	}
	r.members[chain] = &member{
		peers:    peers,
		signer:   s,
		endpoint: endpoint,
	}
	r.keyring.Register(chain, s.PublicKey())
	r.log.Info("registered chain",
		log.Stringer("chainID", chain),
		log.Int("peers", peers.Len()),
	)
	return nil
}

// CanReach fails with ErrUnreachableDestination unless from may send to to
func (r *Router) CanReach(from, to types.ChainID) error {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.canReach(from, to)
}

func (r *Router) canReach(from, to types.ChainID) error {
	source, ok := r.members[from]
	if !ok {
		return fmt.Errorf("%w: unknown source %s", ErrUnreachableDestination, from)
	}
	if _, ok := r.members[to]; !ok || !source.peers.Contains(to) {
		return fmt.Errorf("%w: %s is not a peer of %s", ErrUnreachableDestination, to, from)
	}
	return nil
}

// SetFaultInjector installs f, or removes the current injector if f is nil
func (r *Router) SetFaultInjector(f FaultInjector) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.inject = f
}

// Send signs msg and queues it for delivery from one chain to another. It
// returns once the envelope is accepted; the outcome of delivery is only
// observable at the destination.
func (r *Router) Send(ctx context.Context, from, to types.ChainID, sender *types.AccountID, msg xcm.VersionedMessage) (ids.ID, error) {
	if err := ctx.Err(); err != nil {
		return ids.Empty, err
	}
	if len(msg.Payload) > xcm.MaxMessageSize {
		return ids.Empty, fmt.Errorf("%w: message size %d exceeds maximum %d", xcm.ErrInvalidMessage, len(msg.Payload), xcm.MaxMessageSize)
	}

	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return ids.Empty, ErrClosed
	}
	if err := r.canReach(from, to); err != nil {
		r.lock.Unlock()
		return ids.Empty, err
	}
	source := r.members[from]
	key := routeKey{from: from, to: to}
	rt, ok := r.routes[key]
	if !ok {
		rt = &route{}
		r.routes[key] = rt
	}
	r.addInFlight(1)
	r.lock.Unlock()

	rt.lock.Lock()
	defer rt.lock.Unlock()

	env := &Envelope{
		Source:      from,
		Destination: to,
		Nonce:       rt.nonce + 1,
		Message:     msg,
	}
	if sender != nil {
		env.HasSender = true
		env.Sender = *sender
	}
	sig, err := source.signer.Sign(env.UnsignedBytes())
	if err != nil {
		r.addInFlight(-1)
		return ids.Empty, fmt.Errorf("failed to sign envelope: %w", err)
	}
	env.Signature = sig
	rt.nonce = env.Nonce
	rt.queue = append(rt.queue, env)

	r.metrics.sent(from, to)
	r.log.Debug("accepted envelope",
		log.Stringer("source", from),
		log.Stringer("destination", to),
		log.Uint64("nonce", env.Nonce),
	)

	if !rt.pumping {
		rt.pumping = true
		go r.pump(rt)
	}
	return env.ID(), nil
}

// pump delivers the route's queue in order until it is empty
func (r *Router) pump(rt *route) {
	for {
		rt.lock.Lock()
		if len(rt.queue) == 0 {
			rt.pumping = false
			rt.lock.Unlock()
			return
		}
		env := rt.queue[0]
		rt.queue[0] = nil
		rt.queue = rt.queue[1:]
		rt.lock.Unlock()

		r.deliver(env)
		r.addInFlight(-1)
	}
}

func (r *Router) deliver(env *Envelope) {
	r.lock.RLock()
	inject := r.inject
	dest := r.members[env.Destination]
	r.lock.RUnlock()

	if inject != nil {
		if err := inject(env); err != nil {
			r.fail(dest, env, failureReasonInjected, err)
			return
		}
	}
	if err := dest.endpoint.Deliver(context.Background(), env); err != nil {
		r.fail(dest, env, failureReasonEndpoint, err)
		return
	}
	r.metrics.delivered(env.Source, env.Destination)
}

// fail records a terminal failure and lets the destination move past it
func (r *Router) fail(dest *member, env *Envelope, reason string, cause error) {
	err := fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, env, cause)
	r.metrics.failed(env.Source, env.Destination, reason)
	r.log.Warn("envelope delivery failed",
		log.Stringer("source", env.Source),
		log.Stringer("destination", env.Destination),
		log.Uint64("nonce", env.Nonce),
		log.String("reason", reason),
		log.Err(cause),
	)

	r.lock.Lock()
	r.failures = append(r.failures, Failure{
		EnvelopeID: env.ID(),
		Source:     env.Source,
		Nonce:      env.Nonce,
		Err:        err,
	})
	r.lock.Unlock()

	dest.endpoint.Skip(context.Background(), env)
}

// Failures returns every delivery failure seen so far
func (r *Router) Failures() []Failure {
	r.lock.RLock()
	defer r.lock.RUnlock()

	failures := make([]Failure, len(r.failures))
	copy(failures, r.failures)
	return failures
}

// Keyring returns the public keys of the registered chains
func (r *Router) Keyring() *signer.Keyring {
	return r.keyring
}

func (r *Router) addInFlight(delta int) {
	r.idleLock.Lock()
	defer r.idleLock.Unlock()

	r.inFlight += delta
	if r.inFlight == 0 {
		r.idle.Broadcast()
	}
}

// waitIdle blocks until no envelope is in flight or stop is closed
func (r *Router) waitIdle(stop <-chan struct{}) {
	r.idleLock.Lock()
	defer r.idleLock.Unlock()

	for r.inFlight > 0 {
		select {
		case <-stop:
			return
		default:
		}
		r.idle.Wait()
	}
}

// WaitIdle blocks until every accepted envelope had its delivery attempt
func (r *Router) WaitIdle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.waitIdle(ctx.Done())
		close(done)
	}()
	select {
	case <-done:
		return ctx.Err()
	case <-ctx.Done():
		// wake the waiter so it observes the canceled context
		r.idleLock.Lock()
		r.idle.Broadcast()
		r.idleLock.Unlock()
		<-done
		return ctx.Err()
	}
}

// Close stops accepting envelopes and waits for queued ones to be delivered
func (r *Router) Close() {
	r.lock.Lock()
	r.closed = true
	r.lock.Unlock()

	r.waitIdle(nil)
}
