package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartTombstoneCleaner purges, every interval, the chat messages that were
// deleted (tombstoned) longer than retention ago.
func StartTombstoneCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention).UTC()
				res, err := db.ExecContext(ctx, `
                    DELETE FROM messages
                     WHERE is_deleted = true
                       AND COALESCE(deleted_at, created_at) < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to purge message tombstones", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("purged message tombstones", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
