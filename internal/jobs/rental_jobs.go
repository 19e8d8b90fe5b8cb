// internal/jobs/rental_jobs.go
package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const expiryBatchSize = 200

// PendingExpirer cancels rentals left pending for longer than ttl.
type PendingExpirer interface {
	ExpireStalePending(ctx context.Context, ttl time.Duration, batch int) (int, error)
}

// Runner holds the dependencies of the scheduled jobs.
type Runner struct {
	rentals    PendingExpirer
	pendingTTL time.Duration
	timeout    time.Duration
}

func NewRunner(rentals PendingExpirer, pendingTTL time.Duration) *Runner {
	return &Runner{
		rentals:    rentals,
		pendingTTL: pendingTTL,
		timeout:    5 * time.Minute,
	}
}

// ExpirePendingRentals cancels stale pending rentals in batches until none are left.
func (r *Runner) ExpirePendingRentals() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	log := logrus.WithField("job", "ExpirePendingRentals")
	log.Info("Starting job")

	total := 0
	for ctx.Err() == nil {
		expired, err := r.rentals.ExpireStalePending(ctx, r.pendingTTL, expiryBatchSize)
		if err != nil {
			log.WithError(err).Error("Failed to expire pending rentals")
			return
		}
		total += expired
		if expired < expiryBatchSize {
			break
		}
	}

	log.WithField("expired", total).Info("Job completed")
}
