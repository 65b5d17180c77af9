// Package services holds the pure hour arithmetic: raw totals, the
// workday clamp, midnight splitting, and summary aggregation.
package services

import (
	"math"
	"sort"
	"time"

	"crewdeck/contexts/workforce/attendance-service/domain/entities"
)

// WorkdayWindow bounds the hours counted by summaries, expressed as
// offsets from midnight UTC.
type WorkdayWindow struct {
	Start time.Duration
	End   time.Duration
}

// DefaultWorkday is 08:00 to 20:00 UTC.
var DefaultWorkday = WorkdayWindow{
	Start: 8 * time.Hour,
	End:   20 * time.Hour,
}

// IsValid reports whether the window has a positive span within a day.
func (w WorkdayWindow) IsValid() bool {
	return w.Start >= 0 && w.End <= 24*time.Hour && w.Start < w.End
}

// EndOfDay returns the workday end on the given record's clock-in day.
func (w WorkdayWindow) EndOfDay(day time.Time) time.Time {
	return midnight(day).Add(w.End)
}

// TotalHours is the raw duration between the two instants in hours,
// rounded to two decimals.
func TotalHours(clockIn time.Time, clockOut time.Time) float64 {
	if !clockOut.After(clockIn) {
		return 0
	}
	return roundHours(clockOut.Sub(clockIn))
}

// daySegment is the portion of a record falling on one calendar day.
type daySegment struct {
	day   time.Time
	start time.Time
	end   time.Time
}

// splitByDay cuts an interval at midnight UTC boundaries.
func splitByDay(start time.Time, end time.Time) []daySegment {
	segments := make([]daySegment, 0, 2)
	cursor := start.UTC()
	for cursor.Before(end) {
		day := midnight(cursor)
		boundary := day.Add(24 * time.Hour)
		segmentEnd := end.UTC()
		if boundary.Before(segmentEnd) {
			segmentEnd = boundary
		}
		segments = append(segments, daySegment{day: day, start: cursor, end: segmentEnd})
		cursor = boundary
	}
	return segments
}

// clamp returns the overlap of the segment with the workday window on
// its day.
func (s daySegment) clamp(window WorkdayWindow) time.Duration {
	windowStart := s.day.Add(window.Start)
	windowEnd := s.day.Add(window.End)

	start := s.start
	if start.Before(windowStart) {
		start = windowStart
	}
	end := s.end
	if end.After(windowEnd) {
		end = windowEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// DailyTotals aggregates closed records into per-day summaries with
// workday-clamped hours. A record spanning midnight contributes to every
// day it touches. Days are returned in ascending date order.
func DailyTotals(records []entities.AttendanceRecord, window WorkdayWindow) []entities.DaySummary {
	type bucket struct {
		clamped time.Duration
		count   int
	}
	buckets := make(map[time.Time]*bucket)

	for _, record := range records {
		if record.ClockOut == nil {
			continue
		}
		for _, segment := range splitByDay(record.ClockIn, *record.ClockOut) {
			b, ok := buckets[segment.day]
			if !ok {
				b = &bucket{}
				buckets[segment.day] = b
			}
			b.clamped += segment.clamp(window)
			b.count++
		}
	}

	days := make([]entities.DaySummary, 0, len(buckets))
	for day, b := range buckets {
		days = append(days, entities.DaySummary{
			Date:        day,
			TotalHours:  roundHours(b.clamped),
			RecordCount: b.count,
		})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	return days
}

// Summarize rolls daily summaries up into a period summary, keeping
// only days inside [from, to). The period record count is the number of
// closed records touching the period, not day touches; callers may pass
// records fetched from before the period to catch midnight spanners.
func Summarize(from time.Time, to time.Time, records []entities.AttendanceRecord, window WorkdayWindow) entities.PeriodSummary {
	periodStart := midnight(from)
	periodEnd := to.UTC()

	all := DailyTotals(records, window)
	days := make([]entities.DaySummary, 0, len(all))
	for _, day := range all {
		if day.Date.Before(periodStart) || !day.Date.Before(periodEnd) {
			continue
		}
		days = append(days, day)
	}
	summary := entities.PeriodSummary{
		From: from.UTC(),
		To:   to.UTC(),
		Days: days,
	}
	for _, day := range days {
		summary.TotalHours += day.TotalHours
	}
	summary.TotalHours = math.Round(summary.TotalHours*100) / 100
	for _, record := range records {
		if record.ClockOut == nil {
			continue
		}
		if !record.ClockOut.After(periodStart) || !record.ClockIn.Before(periodEnd) {
			continue
		}
		summary.RecordCount++
	}
	return summary
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
