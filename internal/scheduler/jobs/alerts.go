package jobs

import (
	"context"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/pkg/logger"
)

// AlertPublisher computes and broadcasts watchlist alerts
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, userID string) ([]contracts.Signal, error)
}

// WatchlistAlertsJob refreshes alerts for one user
type WatchlistAlertsJob struct {
	svc    AlertPublisher
	userID string
	logger *logger.Logger
}

// NewWatchlistAlertsJob creates the job
func NewWatchlistAlertsJob(svc AlertPublisher, userID string, log *logger.Logger) *WatchlistAlertsJob {
	return &WatchlistAlertsJob{svc: svc, userID: userID, logger: log}
}

// Name returns the job name
func (j *WatchlistAlertsJob) Name() string {
	return "watchlist_alerts"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *WatchlistAlertsJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run publishes the user's alerts
func (j *WatchlistAlertsJob) Run(ctx context.Context) error {
	alerts, err := j.svc.PublishAlerts(ctx, j.userID)
	if err != nil {
		return err
	}
	if len(alerts) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"user":   j.userID,
			"alerts": len(alerts),
		}).Info("Watchlist alerts published")
	}
	return nil
}
