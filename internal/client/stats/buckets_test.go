package stats

import (
	"testing"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-06-14 was a Saturday in ISO week 24.
var ts = time.Date(2025, 6, 14, 15, 30, 0, 0, time.UTC)

func TestBucketIds(t *testing.T) {
	assert.Equal(t, "daily_20250614", DayId(ts))
	assert.Equal(t, "weekly_2025-W24", WeekId(ts))
	assert.Equal(t, "monthly_2025-06", MonthId(ts))
	assert.Equal(t, "yearly_2025", YearId(ts))
	assert.Equal(t, "fiveYears_2021-2025", FiveYearsId(ts))
}

func TestWeekId_YearBoundary(t *testing.T) {
	// 2024-12-30 is a Monday belonging to ISO week 1 of 2025.
	boundary := time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "weekly_2025-W01", WeekId(boundary))
}

func TestAffectedBuckets_DivisorsAgainstNow(t *testing.T) {
	// Wednesday 2025-06-18: ISO weekday 3, day of month 18, day of year 169.
	now := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)

	updates := AffectedBuckets(ts, now)
	require.Len(t, updates, 5)

	assert.Equal(t, "daily_20250614", updates[0].BucketId)
	assert.Nil(t, updates[0].Divisor, "daily buckets carry no average")

	require.NotNil(t, updates[1].Divisor)
	assert.Equal(t, 3, *updates[1].Divisor)

	require.NotNil(t, updates[2].Divisor)
	assert.Equal(t, 18, *updates[2].Divisor)

	require.NotNil(t, updates[3].Divisor)
	assert.Equal(t, 169, *updates[3].Divisor)

	// 2021..2024 have 365+365+365+366 days; plus 169 elapsed in 2025.
	require.NotNil(t, updates[4].Divisor)
	assert.Equal(t, 365+365+365+366+169, *updates[4].Divisor)
}

func TestElapsedDaysInWeek_SundayIsSeven(t *testing.T) {
	sunday := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, elapsedDaysInWeek(sunday))

	monday := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, elapsedDaysInWeek(monday))
}

func TestApply_AdditiveTotals(t *testing.T) {
	update := BucketUpdate{BucketId: DayId(ts)}

	b := Apply(models.StatisticBucket{UserId: "u1"}, 1500, update)
	b = Apply(b, 900, update)

	assert.Equal(t, int64(2400), b.TotalDuration)
	assert.Nil(t, b.AverageDuration)
}

func TestApply_AverageFormula(t *testing.T) {
	divisor := 3
	update := BucketUpdate{BucketId: "weekly_2025-W24", Divisor: &divisor}

	b := Apply(models.StatisticBucket{UserId: "u1", TotalDuration: 5700}, 1500, update)

	assert.Equal(t, int64(7200), b.TotalDuration)
	require.NotNil(t, b.AverageDuration)
	assert.InDelta(t, 2400.0, *b.AverageDuration, 1e-9)
}

func TestApply_LateSessionUsesCurrentContext(t *testing.T) {
	// A session from Saturday replayed on the following Wednesday divides by
	// Wednesday's elapsed days, not Saturday's.
	now := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	updates := AffectedBuckets(ts, now)

	weekly := updates[1]
	b := Apply(models.StatisticBucket{UserId: "u1"}, 900, weekly)
	require.NotNil(t, b.AverageDuration)
	assert.InDelta(t, 300.0, *b.AverageDuration, 1e-9)
}
