package storage

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartAutoRefresh reloads the workspace every interval until ctx is done,
// picking up changes made by other sessions. Local work still in flight is
// preserved by the merge.
func StartAutoRefresh(ctx context.Context, l *Loader, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Refresh(ctx); err != nil {
					l.log.Warn("auto refresh failed", zap.Error(err))
				}
			}
		}
	}()
}
