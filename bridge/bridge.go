// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge is the user-facing entry point of a chain: it executes
// messages locally, sends them to other chains, and teleports assets by
// burning them here and minting them at the destination.
package bridge

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/xcm"
	"github.com/luxfi/xcm/executor"
	"github.com/luxfi/xcm/location"
	"github.com/luxfi/xcm/types"
)

var (
	ErrInvalidFeeAsset = errors.New("fee asset index out of range")
	ErrNoAssets        = xcm.ErrNoAssets
	ErrUnknownTeleport = errors.New("unknown teleport")
)

// LocalChain is the chain the bridge executes on
type LocalChain interface {
	ID() types.ChainID
	MaxVersion() xcm.Version
	Execute(ctx context.Context, msg xcm.Message, origin executor.Origin, weightLimit executor.Weight) (executor.Outcome, error)
}

// Router is the routing fabric as seen from one chain
type Router interface {
	CanReach(from, to types.ChainID) error
	Send(ctx context.Context, from, to types.ChainID, sender *types.AccountID, msg xcm.VersionedMessage) (ids.ID, error)
}

// Bridge orchestrates transfers originating on one chain
type Bridge struct {
	log    log.Logger
	chain  LocalChain
	router Router

	lock      sync.RWMutex
	teleports map[ids.ID]*TeleportRecord
	nonce     uint64
}

func New(logger log.Logger, chain LocalChain, router Router) *Bridge {
	return &Bridge{
		log:       logger,
		chain:     chain,
		router:    router,
		teleports: make(map[ids.ID]*TeleportRecord),
	}
}

// Execute decodes msg and runs it on the local chain under origin. Burning
// and minting are reserved to the root origin.
func (b *Bridge) Execute(ctx context.Context, origin executor.Origin, msg xcm.VersionedMessage, weightLimit executor.Weight) (executor.Outcome, error) {
	if err := requireCaller(origin); err != nil {
		return executor.Outcome{}, err
	}
	decoded, err := msg.DecodeUpTo(b.chain.MaxVersion())
	if err != nil {
		return executor.Outcome{}, err
	}
	if err := requireUnprivileged(origin, decoded); err != nil {
		return executor.Outcome{}, err
	}
	return b.chain.Execute(ctx, decoded, origin, weightLimit)
}

// Send routes msg unmodified to the chain named by dest. Local state is not
// touched; the message executes at the destination under this chain's
// origin, narrowed to the sender's account.
func (b *Bridge) Send(ctx context.Context, origin executor.Origin, dest xcm.VersionedLocation, msg xcm.VersionedMessage) (ids.ID, error) {
	if err := requireCaller(origin); err != nil {
		return ids.Empty, err
	}
	to, err := destination(dest)
	if err != nil {
		return ids.Empty, err
	}
	decoded, err := msg.Decode()
	if err != nil {
		return ids.Empty, err
	}
	if err := requireUnprivileged(origin, decoded); err != nil {
		return ids.Empty, err
	}

	var sender *types.AccountID
	if account, ok := origin.AccountID(); ok {
		sender = &account
	}
	id, err := b.router.Send(ctx, b.chain.ID(), to, sender, msg)
	if err != nil {
		return ids.Empty, err
	}
	b.log.Debug("sent message",
		log.Stringer("origin", origin),
		log.Stringer("destination", to),
		log.Stringer("envelopeID", id),
	)
	return id, nil
}

// TeleportAssets burns assets from origin's account and routes a mint of
// each to beneficiary on dest. A burn is never reverted: if routing fails
// afterwards, the record ends in the failed state.
func (b *Bridge) TeleportAssets(
	ctx context.Context,
	origin executor.Origin,
	dest, beneficiary xcm.VersionedLocation,
	assets xcm.VersionedAssets,
	feeAssetIndex uint32,
) (TeleportRecord, error) {
	sender, ok := origin.AccountID()
	if origin.Kind != executor.OriginSigned || !ok {
		return TeleportRecord{}, fmt.Errorf("%w: %s cannot teleport", executor.ErrBadOrigin, origin)
	}
	to, err := destination(dest)
	if err != nil {
		return TeleportRecord{}, err
	}
	target, err := beneficiary.Decode()
	if err != nil {
		return TeleportRecord{}, err
	}
	list, err := assets.Decode()
	if err != nil {
		return TeleportRecord{}, err
	}
	if int(feeAssetIndex) >= len(list) {
		return TeleportRecord{}, fmt.Errorf("%w: index %d, %d assets", ErrInvalidFeeAsset, feeAssetIndex, len(list))
	}
	if err := b.router.CanReach(b.chain.ID(), to); err != nil {
		return TeleportRecord{}, err
	}

	record := b.newTeleport(sender, to, target, list, feeAssetIndex)
	b.log.Info("teleporting assets",
		log.Stringer("teleportID", record.ID),
		log.Stringer("destination", to),
		log.Stringer("fee", list[feeAssetIndex]),
		log.Int("assets", len(list)),
	)

	for _, asset := range list {
		if err := b.teleport(ctx, origin, record, asset); err != nil {
			return b.finish(record, TeleportStateFailed, err)
		}
	}
	return b.finish(record, TeleportStateDispatched, nil)
}

// teleport burns one asset and routes its mint
func (b *Bridge) teleport(ctx context.Context, origin executor.Origin, record *TeleportRecord, asset xcm.Asset) error {
	burn, err := xcm.NewBuilder().BurnAsset(asset).Build()
	if err != nil {
		return err
	}
	if _, err := b.chain.Execute(ctx, burn, origin, 0); err != nil {
		return err
	}

	b.lock.Lock()
	record.Burned++
	record.transition(TeleportStateBurned)
	b.lock.Unlock()

	mint, err := xcm.NewBuilder().MintAsset(xcm.Assets{asset}, record.Beneficiary).Build()
	if err != nil {
		return err
	}
	vm, err := xcm.NewVersionedMessage(xcm.V4, mint)
	if err != nil {
		return err
	}
	id, err := b.router.Send(ctx, record.Source, record.Destination, nil, vm)
	if err != nil {
		b.log.Error("burned asset without dispatching its mint",
			log.Stringer("teleportID", record.ID),
			log.Stringer("asset", asset),
			log.Err(err),
		)
		return err
	}

	b.lock.Lock()
	record.Envelopes = append(record.Envelopes, id)
	b.lock.Unlock()
	return nil
}

func (b *Bridge) newTeleport(sender types.AccountID, to types.ChainID, beneficiary location.Location, assets xcm.Assets, feeAssetIndex uint32) *TeleportRecord {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nonce++
	now := time.Now()
	record := &TeleportRecord{
		ID:            teleportID(b.chain.ID(), b.nonce, sender),
		State:         TeleportStatePending,
		Source:        b.chain.ID(),
		Destination:   to,
		Sender:        sender,
		Beneficiary:   beneficiary,
		Assets:        assets,
		FeeAssetIndex: feeAssetIndex,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.teleports[record.ID] = record
	return record
}

func (b *Bridge) finish(record *TeleportRecord, state TeleportState, err error) (TeleportRecord, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	record.Err = err
	record.transition(state)
	return record.clone(), err
}

// GetTeleport returns a snapshot of a teleport record
func (b *Bridge) GetTeleport(id ids.ID) (TeleportRecord, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	record, ok := b.teleports[id]
	if !ok {
		return TeleportRecord{}, fmt.Errorf("%w: %s", ErrUnknownTeleport, id)
	}
	return record.clone(), nil
}

// ListTeleports returns every teleport in state
func (b *Bridge) ListTeleports(state TeleportState) []TeleportRecord {
	b.lock.RLock()
	defer b.lock.RUnlock()

	var result []TeleportRecord
	for _, record := range b.teleports {
		if record.State == state {
			result = append(result, record.clone())
		}
	}
	return result
}

func teleportID(chain types.ChainID, nonce uint64, sender types.AccountID) ids.ID {
	b := make([]byte, 4+8+types.AccountIDLen)
	binary.BigEndian.PutUint32(b, uint32(chain))
	binary.BigEndian.PutUint64(b[4:], nonce)
	copy(b[12:], sender[:])
	return xcm.ComputeID(b)
}

func destination(dest xcm.VersionedLocation) (types.ChainID, error) {
	loc, err := dest.Decode()
	if err != nil {
		return 0, err
	}
	return location.ChainOf(loc)
}

// requireCaller rejects origins that cannot act on their own behalf
func requireCaller(origin executor.Origin) error {
	switch origin.Kind {
	case executor.OriginSigned, executor.OriginRoot:
		return nil
	default:
		return fmt.Errorf("%w: %s cannot call", executor.ErrBadOrigin, origin)
	}
}

func requireUnprivileged(origin executor.Origin, msg xcm.Message) error {
	if origin.Kind != executor.OriginRoot && msg.ContainsPrivileged() {
		return fmt.Errorf("%w: %s may not burn or mint", executor.ErrBadOrigin, origin)
	}
	return nil
}
