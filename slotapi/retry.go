// Copyright 2025 Achil7
// SPDX-License-Identifier: Apache-2.0

package slotapi

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Transient SQL states worth another attempt under REPEATABLE READ:
// concurrent sheet edits contending on the same slot rows surface as
// serialization failures, deadlocks, or lock_timeout expiries.
var retryableSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available (incl. lock_timeout)
}

func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && retryableSQLStates[pgErr.SQLState()]
}

// sleepContext blocks for d, returning early with ctx.Err() if the
// request is cancelled mid-backoff.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
