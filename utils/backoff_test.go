// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

var errNotYet = errors.New("not yet")

func TestWithRetriesTimeout(t *testing.T) {
	t.Run("NotEnoughTime", func(t *testing.T) {
		retryable := newMockRetryableFn(1000)
		err := WithRetriesTimeout(
			context.Background(),
			log.NewNoOpLogger(),
			func() error {
				_, err := retryable.Run()
				return err
			},
			50*time.Millisecond,
		)
		require.ErrorIs(t, err, errNotYet)
	})
	t.Run("EnoughRetry", func(t *testing.T) {
		retryable := newMockRetryableFn(2)
		var res bool
		err := WithRetriesTimeout(
			context.Background(),
			log.NewNoOpLogger(),
			func() (err error) {
				res, err = retryable.Run()
				return err
			},
			5*time.Second,
		)
		require.NoError(t, err)
		require.True(t, res)
		require.Equal(t, uint64(2), retryable.counter)
	})
	t.Run("Permanent", func(t *testing.T) {
		errFatal := errors.New("fatal")
		calls := 0
		err := WithRetriesTimeout(
			context.Background(),
			log.NewNoOpLogger(),
			func() error {
				calls++
				return backoff.Permanent(errFatal)
			},
			5*time.Second,
		)
		require.ErrorIs(t, err, errFatal)
		require.Equal(t, 1, calls)
	})
	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		retryable := newMockRetryableFn(1000)
		err := WithRetriesTimeout(
			ctx,
			log.NewNoOpLogger(),
			func() error {
				_, err := retryable.Run()
				return err
			},
			5*time.Second,
		)
		require.Error(t, err)
		require.LessOrEqual(t, retryable.counter, uint64(1))
	})
}

type mockRetryableFn struct {
	counter uint64
	trigger uint64
}

func newMockRetryableFn(trigger uint64) *mockRetryableFn {
	return &mockRetryableFn{
		trigger: trigger,
	}
}

func (m *mockRetryableFn) Run() (bool, error) {
	if m.counter >= m.trigger {
		return true, nil
	}
	m.counter++
	return false, errNotYet
}
