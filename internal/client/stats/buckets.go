// Package stats derives the rolling work-time aggregates: which time buckets
// a finished session contributes to, and the totals/averages each bucket
// carries afterwards.
//
// Bucket keys are derived from the session timestamp; divisors are always
// evaluated against "now" (the wall-clock time of the write), so a
// late-arriving offline session updates the average with the current
// elapsed-time context, not a stale one. The same formulas run locally and
// on the backend to keep the two from drifting once synced.
package stats

import (
	"fmt"
	"time"

	"github.com/avolkovs/focuskeeper/internal/client/models"
)

// BucketUpdate names one affected bucket and the divisor that turns its
// total into a pace average. A nil Divisor means the bucket keeps only a
// running total (daily buckets).
type BucketUpdate struct {
	BucketId string
	Divisor  *int
}

// AffectedBuckets returns the five buckets a session with the given
// timestamp contributes to, with divisors evaluated against now.
func AffectedBuckets(timestamp, now time.Time) []BucketUpdate {
	return []BucketUpdate{
		{BucketId: DayId(timestamp)},
		{BucketId: WeekId(timestamp), Divisor: intp(elapsedDaysInWeek(now))},
		{BucketId: MonthId(timestamp), Divisor: intp(now.Day())},
		{BucketId: YearId(timestamp), Divisor: intp(now.YearDay())},
		{BucketId: FiveYearsId(timestamp), Divisor: intp(fiveYearDivisor(now))},
	}
}

// Apply adds durationSeconds to the bucket's total and recomputes the
// average when a divisor applies. The input bucket is the cached snapshot;
// a zero-value bucket stands for "first contribution".
func Apply(b models.StatisticBucket, durationSeconds int64, update BucketUpdate) models.StatisticBucket {
	b.BucketId = update.BucketId
	b.TotalDuration += durationSeconds
	if update.Divisor != nil {
		avg := float64(b.TotalDuration) / float64(*update.Divisor)
		b.AverageDuration = &avg
	} else {
		b.AverageDuration = nil
	}
	return b
}

// DayId returns the daily bucket key, e.g. "daily_20250614".
func DayId(ts time.Time) string {
	return ts.Format("daily_20060102")
}

// WeekId returns the ISO-week bucket key, e.g. "weekly_2025-W24".
func WeekId(ts time.Time) string {
	year, week := ts.ISOWeek()
	return fmt.Sprintf("weekly_%04d-W%02d", year, week)
}

// MonthId returns the monthly bucket key, e.g. "monthly_2025-06".
func MonthId(ts time.Time) string {
	return ts.Format("monthly_2006-01")
}

// YearId returns the yearly bucket key, e.g. "yearly_2025".
func YearId(ts time.Time) string {
	return fmt.Sprintf("yearly_%04d", ts.Year())
}

// FiveYearsId returns the five-year bucket key, e.g. "fiveYears_2021-2025".
func FiveYearsId(ts time.Time) string {
	return fmt.Sprintf("fiveYears_%d-%d", ts.Year()-4, ts.Year())
}

// elapsedDaysInWeek counts days elapsed so far in now's ISO week, Monday
// first, clamped to [1,7].
func elapsedDaysInWeek(now time.Time) int {
	d := int(now.Weekday())
	if d == 0 { // time.Sunday
		d = 7
	}
	return d
}

// fiveYearDivisor counts days elapsed in the rolling five-year window: the
// four prior years in full plus the days elapsed in the current year.
func fiveYearDivisor(now time.Time) int {
	days := now.YearDay()
	for y := now.Year() - 4; y < now.Year(); y++ {
		days += daysInYear(y)
	}
	return days
}

func daysInYear(y int) int {
	return time.Date(y, 12, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

func intp(v int) *int { return &v }
