package waitlist

import (
	"time"

	"github.com/akeren/clawsec-waitlist/internal/jobs"
)

const CountRefreshTask = "waitlist.count_refresh"

// RegisterCountRefresh keeps the cached count warm. Unconfigured services have nothing to refresh.
func RegisterCountRefresh(scheduler *jobs.Scheduler, service WaitlistService, interval time.Duration) error {
	if scheduler == nil || !service.Configured() {
		return nil
	}
	return scheduler.AddIntervalTask(CountRefreshTask, interval, service.RefreshCount)
}
