// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/log"
)

const (
	initialRetryInterval = 10 * time.Millisecond
	maxRetryInterval     = 250 * time.Millisecond
)

// WithRetriesTimeout uses an exponential backoff to run the operation until it
// succeeds, returns a permanent error, ctx is done or timeout has elapsed.
func WithRetriesTimeout(
	ctx context.Context,
	logger log.Logger,
	operation backoff.Operation,
	timeout time.Duration,
) error {
	expBackOff := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(initialRetryInterval),
		backoff.WithMaxInterval(maxRetryInterval),
		backoff.WithMaxElapsedTime(timeout),
	)
	notify := func(err error, next time.Duration) {
		logger.Debug("operation failed, retrying",
			log.String("retryIn", next.String()),
			log.Err(err),
		)
	}
	return backoff.RetryNotify(operation, backoff.WithContext(expBackOff, ctx), notify)
}
