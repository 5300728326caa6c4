package jobs

import (
	"context"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/pkg/logger"
)

// DashboardSnapshotter is the service call the snapshot job needs
type DashboardSnapshotter interface {
	SnapshotDashboard(ctx context.Context) (contracts.Dashboard, error)
}

// DashboardSnapshotJob caches the default dashboard for GET /dashboard/snapshot
type DashboardSnapshotJob struct {
	svc    DashboardSnapshotter
	logger *logger.Logger
}

// NewDashboardSnapshotJob creates the job
func NewDashboardSnapshotJob(svc DashboardSnapshotter, log *logger.Logger) *DashboardSnapshotJob {
	return &DashboardSnapshotJob{svc: svc, logger: log}
}

// Name returns the job name
func (j *DashboardSnapshotJob) Name() string {
	return "dashboard_snapshot"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *DashboardSnapshotJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run computes and caches the snapshot
func (j *DashboardSnapshotJob) Run(ctx context.Context) error {
	d, err := j.svc.SnapshotDashboard(ctx)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"total":  d.Header.Total,
		"shown":  d.Header.Shown,
		"window": d.Header.WindowLabel,
	}
	if d.Header.Strongest != nil {
		fields["strongest"] = d.Header.Strongest.Ticker
	}
	j.logger.WithFields(fields).Info("Dashboard snapshot refreshed")
	return nil
}
