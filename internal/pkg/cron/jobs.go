package cron

import (
	"context"
	"log/slog"
	"time"
)

// StaleApprovalExpirer is satisfied by the approval service.
type StaleApprovalExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Sweeper drops idle in-memory state, such as rate limiter buckets.
type Sweeper interface {
	Sweep() int
}

// ExpireApprovalsJob denies access requests that waited too long for a reviewer.
func ExpireApprovalsJob(expirer StaleApprovalExpirer, interval time.Duration) Job {
	return Job{
		Name:     "expire_stale_approval_requests",
		Interval: interval,
		Fn: func(ctx context.Context) error {
			n, err := expirer.ExpireStale(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("Expired stale approval requests", "count", n)
			}
			return nil
		},
	}
}

// SweepJob calls Sweep on each sweeper.
func SweepJob(name string, interval time.Duration, sweepers ...Sweeper) Job {
	return Job{
		Name:     name,
		Interval: interval,
		Fn: func(ctx context.Context) error {
			removed := 0
			for _, s := range sweepers {
				removed += s.Sweep()
			}
			slog.Debug("Sweep finished", "name", name, "removed", removed)
			return nil
		},
	}
}
