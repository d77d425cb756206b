package repository

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RunJanitor deletes expired rows every interval until ctx is cancelled.
func (r *VerdictRepository) RunJanitor(ctx context.Context, interval time.Duration, logger *logrus.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.DeleteExpired(ctx)
			if err != nil {
				logger.WithError(err).Warn("failed to purge expired cached verdicts")
				continue
			}
			if n > 0 {
				logger.WithField("rows", n).Debug("purged expired cached verdicts")
			}
		}
	}
}
