package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-shop/internal/jobs"
)

// TaskTypeIdempotencyCleanup prunes expired purchase idempotency keys.
const TaskTypeIdempotencyCleanup = "purchase:idempotency_cleanup"

// DefaultKeyRetention is how long a purchase idempotency key blocks replays.
const DefaultKeyRetention = 24 * time.Hour

// KeyPruner deletes idempotency keys older than a retention window.
type KeyPruner interface {
	PruneIdempotencyKeys(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil)
}

// IdempotencyCleanupJob handles TaskTypeIdempotencyCleanup tasks.
type IdempotencyCleanupJob struct {
	Pruner    KeyPruner
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(pruner KeyPruner, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	if retention <= 0 {
		retention = DefaultKeyRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencyCleanupJob{Pruner: pruner, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle removes expired keys.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Pruner == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeIdempotencyCleanup)
	removed, err := j.Pruner.PruneIdempotencyKeys(ctx, j.Retention)
	if err != nil {
		j.Logger.Error("prune idempotency keys", slog.Any("error", err))
		return tracker.End(err)
	}
	j.Logger.Info("pruned idempotency keys", slog.Int64("removed", removed), slog.Duration("retention", j.Retention))
	return tracker.End(nil)
}
