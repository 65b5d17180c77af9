package services_test

import (
	"testing"
	"time"

	"crewdeck/contexts/workforce/attendance-service/domain/entities"
	"crewdeck/contexts/workforce/attendance-service/domain/services"
)

func at(day int, hour int, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func closedRecord(clockIn time.Time, clockOut time.Time) entities.AttendanceRecord {
	return entities.AttendanceRecord{
		RecordID:   "rec-1",
		UserID:     "user-1",
		ClockIn:    clockIn,
		ClockOut:   &clockOut,
		Source:     entities.SourceClock,
		TotalHours: services.TotalHours(clockIn, clockOut),
	}
}

func TestTotalHoursRoundsToTwoDecimals(t *testing.T) {
	got := services.TotalHours(at(1, 9, 0), at(1, 17, 10))
	if got != 8.17 {
		t.Fatalf("expected 8.17 hours, got %v", got)
	}
	if services.TotalHours(at(1, 9, 0), at(1, 9, 0)) != 0 {
		t.Fatalf("expected zero hours for empty interval")
	}
}

func TestDailyTotalsClampsToWorkday(t *testing.T) {
	// 06:00 to 22:00, clamped to 08:00 to 20:00.
	days := services.DailyTotals(
		[]entities.AttendanceRecord{closedRecord(at(1, 6, 0), at(1, 22, 0))},
		services.DefaultWorkday,
	)
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if days[0].TotalHours != 12.0 {
		t.Fatalf("expected 12 clamped hours, got %v", days[0].TotalHours)
	}
	if days[0].RecordCount != 1 {
		t.Fatalf("expected 1 record, got %d", days[0].RecordCount)
	}
}

func TestDailyTotalsSplitsAcrossMidnight(t *testing.T) {
	// 18:00 day 1 to 10:00 day 2: 2h in day 1's window, 2h in day 2's.
	days := services.DailyTotals(
		[]entities.AttendanceRecord{closedRecord(at(1, 18, 0), at(2, 10, 0))},
		services.DefaultWorkday,
	)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if !days[0].Date.Equal(at(1, 0, 0)) || !days[1].Date.Equal(at(2, 0, 0)) {
		t.Fatalf("unexpected day order: %v, %v", days[0].Date, days[1].Date)
	}
	if days[0].TotalHours != 2.0 || days[1].TotalHours != 2.0 {
		t.Fatalf("expected 2h per day, got %v and %v", days[0].TotalHours, days[1].TotalHours)
	}
}

func TestDailyTotalsIgnoresOpenRecordsAndOffWindowTime(t *testing.T) {
	open := entities.AttendanceRecord{
		RecordID: "rec-open",
		UserID:   "user-1",
		ClockIn:  at(1, 9, 0),
		Source:   entities.SourceClock,
	}
	// Entirely before the workday window.
	early := closedRecord(at(1, 4, 0), at(1, 6, 0))

	days := services.DailyTotals([]entities.AttendanceRecord{open, early}, services.DefaultWorkday)
	if len(days) != 1 {
		t.Fatalf("expected the early record to produce a day bucket, got %d", len(days))
	}
	if days[0].TotalHours != 0 {
		t.Fatalf("expected zero clamped hours, got %v", days[0].TotalHours)
	}
}

func TestSummarizeAccumulatesDays(t *testing.T) {
	records := []entities.AttendanceRecord{
		closedRecord(at(1, 9, 0), at(1, 17, 0)),
		closedRecord(at(2, 9, 30), at(2, 13, 0)),
		closedRecord(at(2, 14, 0), at(2, 18, 0)),
	}
	summary := services.Summarize(at(1, 0, 0), at(3, 0, 0), records, services.DefaultWorkday)

	if summary.RecordCount != 3 {
		t.Fatalf("expected 3 records, got %d", summary.RecordCount)
	}
	if len(summary.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(summary.Days))
	}
	if summary.TotalHours != 15.5 {
		t.Fatalf("expected 15.5 total hours, got %v", summary.TotalHours)
	}
	if summary.Days[1].RecordCount != 2 {
		t.Fatalf("expected 2 records on day 2, got %d", summary.Days[1].RecordCount)
	}
}

func TestSummarizeCountsOnlyRecordsTouchingPeriod(t *testing.T) {
	records := []entities.AttendanceRecord{
		// Entirely on the day before the period.
		closedRecord(at(1, 9, 0), at(1, 13, 0)),
		// Spans midnight into the period's first day.
		closedRecord(at(1, 23, 0), at(2, 1, 0)),
		// Inside the period.
		closedRecord(at(2, 9, 0), at(2, 17, 0)),
	}
	summary := services.Summarize(at(2, 0, 0), at(3, 0, 0), records, services.DefaultWorkday)

	if summary.RecordCount != 2 {
		t.Fatalf("expected 2 records touching the period, got %d", summary.RecordCount)
	}
	if len(summary.Days) != 1 {
		t.Fatalf("expected 1 day inside the period, got %d", len(summary.Days))
	}
	if !summary.Days[0].Date.Equal(at(2, 0, 0)) {
		t.Fatalf("unexpected day: %v", summary.Days[0].Date)
	}
}

func TestSummarizeEmptyForRecordsBeforePeriod(t *testing.T) {
	records := []entities.AttendanceRecord{closedRecord(at(1, 9, 0), at(1, 13, 0))}
	summary := services.Summarize(at(2, 0, 0), at(3, 0, 0), records, services.DefaultWorkday)

	if summary.RecordCount != 0 {
		t.Fatalf("expected 0 records, got %d", summary.RecordCount)
	}
	if len(summary.Days) != 0 {
		t.Fatalf("expected no days, got %d", len(summary.Days))
	}
}

func TestWorkdayWindowValidation(t *testing.T) {
	if !services.DefaultWorkday.IsValid() {
		t.Fatalf("default window should be valid")
	}
	inverted := services.WorkdayWindow{Start: 20 * time.Hour, End: 8 * time.Hour}
	if inverted.IsValid() {
		t.Fatalf("inverted window should be invalid")
	}
}
