package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/famquest/family-server-go/internal/config"
	"github.com/famquest/family-server-go/internal/repository"
)

// CleanupJob periodically purges stale pending access requests and old read
// notifications.
type CleanupJob struct {
	accessRequestRepo repository.AccessRequestRepository
	notificationRepo  repository.NotificationRepository
	interval          time.Duration
	done              chan struct{}
}

func NewCleanupJob(
	accessRequestRepo repository.AccessRequestRepository,
	notificationRepo repository.NotificationRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		accessRequestRepo: accessRequestRepo,
		notificationRepo:  notificationRepo,
		interval:          interval,
		done:              make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "stale access requests", func(ctx context.Context) (int64, error) {
		return j.accessRequestRepo.DeleteStalePending(ctx, time.Now().Add(-config.StalePendingRequestAge))
	})
	j.runCleanup(ctx, "read notifications", func(ctx context.Context) (int64, error) {
		return j.notificationRepo.DeleteReadOlderThan(ctx, time.Now().Add(-config.ReadNotificationMaxAge))
	})
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
