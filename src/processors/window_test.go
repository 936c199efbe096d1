package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/centavo/backend/src/utils"
)

func TestCalculateSyncWindowFirstSync(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)

	w := CalculateSyncWindow(nil, now)

	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), w.EndDate)
	assert.Equal(t, time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC), w.StartDate)
}

func TestCalculateSyncWindowSafetyMargin(t *testing.T) {
	now := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	last := time.Date(2025, 6, 10, 22, 30, 0, 0, time.UTC)

	w := CalculateSyncWindow(&last, now)

	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), w.StartDate)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), w.EndDate)
}

func TestCalculateSyncWindowMonthBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 5, 0, 0, time.UTC)
	last := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	w := CalculateSyncWindow(&last, now)

	// Two-day margin crosses into February.
	assert.Equal(t, time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC), w.StartDate)
}

func TestCalculateSyncWindowFiveYearCap(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	last := now.AddDate(-8, 0, 0)

	w := CalculateSyncWindow(&last, now)

	assert.Equal(t, w.EndDate.AddDate(0, 0, -1825), w.StartDate)
}

func TestCalculateSyncWindowClockSkew(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, 10)

	w := CalculateSyncWindow(&last, now)

	assert.Equal(t, w.EndDate, w.StartDate)
}

func TestCalculateSyncWindowMonotonic(t *testing.T) {
	now := time.Date(2025, 6, 15, 17, 0, 0, 0, time.UTC)
	for days := 0; days < 4000; days += 13 {
		last := now.AddDate(0, 0, -days)
		w := CalculateSyncWindow(&last, now)
		require.False(t, w.StartDate.After(w.EndDate), "start after end for lastSyncAt %d days ago", days)
		require.Equal(t, utils.DayOf(now), w.EndDate)
	}
}
