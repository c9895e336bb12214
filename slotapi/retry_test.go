// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableTxError(t *testing.T) {
	require.True(t, isRetryableTxError(&pgconn.PgError{Code: "40001"}))
	require.True(t, isRetryableTxError(&pgconn.PgError{Code: "40P01"}))
	require.True(t, isRetryableTxError(&pgconn.PgError{Code: "55P03"}))

	require.False(t, isRetryableTxError(&pgconn.PgError{Code: "23505"}))
	require.False(t, isRetryableTxError(fmt.Errorf("plain error")))
	require.False(t, isRetryableTxError(nil))

	// Works through wrapping as well.
	wrapped := fmt.Errorf("apply patch: %w", &pgconn.PgError{Code: "40001"})
	require.True(t, isRetryableTxError(wrapped))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), 0))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Minute), context.Canceled)
}
