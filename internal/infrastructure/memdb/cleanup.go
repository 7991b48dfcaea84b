package memdb

import (
	"context"
	"time"
)

// StartCleanup purges expired entries now and then every interval until ctx ends.
// Calling it more than once has no effect.
func (r *DispatchLogRepository) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	r.cleanupOnce.Do(func() {
		go r.cleanupLoop(ctx, interval)
	})
}

func (r *DispatchLogRepository) cleanupLoop(ctx context.Context, interval time.Duration) {
	r.DeleteExpired()

	ticker := r.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.DeleteExpired()
		}
	}
}

// DeleteExpired removes entries whose expiry has passed and reports how many went.
func (r *DispatchLogRepository) DeleteExpired() int {
	cutoff := r.clock.Now().UnixNano()

	txn := r.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(dispatchLogTable, "expiry")
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan dispatch log for expiry")
		return 0
	}
	var expired []*dispatchLogRow
	for obj := it.Next(); obj != nil; obj = it.Next() {
		row := obj.(*dispatchLogRow)
		if row.ExpiresAt > cutoff {
			break
		}
		expired = append(expired, row)
	}
	for _, row := range expired {
		if err := txn.Delete(dispatchLogTable, row); err != nil {
			r.logger.Error().Err(err).Str("submission", row.SubmissionID).Msg("failed to delete expired dispatch log")
			return 0
		}
	}
	txn.Commit()

	if len(expired) > 0 {
		r.logger.Info().Int("deleted", len(expired)).Msg("deleted expired dispatch log entries")
	}
	return len(expired)
}
