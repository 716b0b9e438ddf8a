package jobs

import (
	"fmt"

	"github.com/quotedesk/quotedesk/internal/config"
	"go.uber.org/zap"
)

// FullRefreshJobName is the name of the periodic full order list refresh job.
const FullRefreshJobName = "orders_full_refresh"

// RecentPollJobName is the name of the recent status change poll job.
const RecentPollJobName = "orders_recent_poll"

// RefreshService defines the refresh operations the jobs call. This
// interface allows the jobs to trigger refreshes without importing the
// service package directly.
type RefreshService interface {
	// RefreshOrders fetches the full order list and replaces the cache.
	RefreshOrders()

	// RefreshStatuses re-reads the status vocabulary from the store.
	RefreshStatuses()

	// PollRecentChanges applies status changes observed within the
	// configured recent window.
	PollRecentChanges()
}

// RegisterRefreshJobs registers the periodic full refresh and the recent
// change poll with the scheduler. The recent poll is skipped when its
// interval is zero.
func RegisterRefreshJobs(scheduler *Scheduler, svc RefreshService, cfg *config.RefreshConfig, logger *zap.Logger) error {
	fullExpr := fmt.Sprintf("@every %ds", cfg.FullInterval)
	err := scheduler.AddJob(FullRefreshJobName, fullExpr, func() {
		svc.RefreshStatuses()
		svc.RefreshOrders()
	})
	if err != nil {
		return err
	}

	if cfg.RecentInterval <= 0 {
		logger.Info("recent change poll disabled")
		return nil
	}

	recentExpr := fmt.Sprintf("@every %ds", cfg.RecentInterval)
	return scheduler.AddJob(RecentPollJobName, recentExpr, svc.PollRecentChanges)
}
