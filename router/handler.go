// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"context"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/p2p"
)

// EnvelopeHandlerID is the protocol ID for envelope delivery
const EnvelopeHandlerID = 0x78636d01

const (
	errCodeInvalidEnvelope = 400
	errCodeDeliveryFailed  = 500
)

var _ p2p.Handler = (*HandlerAdapter)(nil)

// HandlerAdapter feeds envelopes received from the network into an
// endpoint, so a chain can be reached by peers outside this process.
type HandlerAdapter struct {
	log      log.Logger
	endpoint Endpoint
}

func NewHandlerAdapter(logger log.Logger, endpoint Endpoint) *HandlerAdapter {
	return &HandlerAdapter{
		log:      logger,
		endpoint: endpoint,
	}
}

// Gossip implements p2p.Handler. Failures are only logged.
func (a *HandlerAdapter) Gossip(ctx context.Context, nodeID ids.NodeID, gossipBytes []byte) {
	if _, appErr := a.handle(ctx, gossipBytes); appErr != nil {
		a.log.Debug("dropping gossiped envelope",
			log.Stringer("nodeID", nodeID),
			log.String("reason", appErr.Message),
		)
	}
}

// Request implements p2p.Handler. The response is the envelope ID.
func (a *HandlerAdapter) Request(ctx context.Context, nodeID ids.NodeID, deadline time.Time, requestBytes []byte) ([]byte, *p2p.Error) {
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	return a.handle(ctx, requestBytes)
}

func (a *HandlerAdapter) handle(ctx context.Context, b []byte) ([]byte, *p2p.Error) {
	env, err := ParseEnvelope(b)
	if err != nil {
		return nil, &p2p.Error{
			Code:    errCodeInvalidEnvelope,
			Message: err.Error(),
		}
	}
	if err := a.endpoint.Deliver(ctx, env); err != nil {
		return nil, &p2p.Error{
			Code:    errCodeDeliveryFailed,
			Message: err.Error(),
		}
	}
	id := env.ID()
	return id[:], nil
}
