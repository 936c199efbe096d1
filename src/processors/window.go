// backend/src/processors/window.go
package processors

import (
	"time"

	"github.com/username/centavo/backend/src/models"
	"github.com/username/centavo/backend/src/utils"
)

const (
	// First sync pulls 90 days of history.
	firstSyncLookbackDays = 90
	// Incremental syncs back up two days to catch late-arriving or backdated
	// provider transactions.
	syncSafetyMarginDays = 2
	// Hard cap of five years of lookback.
	maxSyncLookbackDays = 1825
)

// CalculateSyncWindow computes the inclusive [start, end] fetch range for the
// next provider sync. It is deterministic given lastSyncAt and now, and
// guarantees StartDate <= EndDate even when lastSyncAt lies in the future.
func CalculateSyncWindow(lastSyncAt *time.Time, now time.Time) models.SyncWindow {
	end := utils.DayOf(now)

	var start time.Time
	if lastSyncAt == nil {
		start = end.AddDate(0, 0, -firstSyncLookbackDays)
	} else {
		start = utils.DayOf(*lastSyncAt).AddDate(0, 0, -syncSafetyMarginDays)
		if floor := end.AddDate(0, 0, -maxSyncLookbackDays); start.Before(floor) {
			start = floor
		}
		if start.After(end) {
			// Clock skew: lastSyncAt is ahead of the caller's clock.
			start = end
		}
	}
	return models.SyncWindow{StartDate: start, EndDate: end}
}
