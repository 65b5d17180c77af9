package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"crewdeck/contexts/workforce/attendance-service/adapters/memory"
	"crewdeck/contexts/workforce/attendance-service/domain/entities"
	domainerrors "crewdeck/contexts/workforce/attendance-service/domain/errors"
	"crewdeck/contexts/workforce/attendance-service/domain/services"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func newService() (Service, *memory.Store, *fixedClock) {
	store := memory.NewStore()
	store.SeedManager("user-hr")
	clock := &fixedClock{now: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
	service := Service{
		Repo:        store,
		Permissions: store,
		Clock:       clock,
		IDGenerator: store,
		Workday:     services.DefaultWorkday,
	}
	return service, store, clock
}

func TestClockInRejectsSecondOpenRecord(t *testing.T) {
	service, _, _ := newService()

	record, err := service.ClockIn(context.Background(), "user-1", "project-1", "morning")
	if err != nil {
		t.Fatalf("clock in failed: %v", err)
	}
	if !record.IsOpen() || record.Source != entities.SourceClock {
		t.Fatalf("expected open clock record, got %+v", record)
	}

	_, err = service.ClockIn(context.Background(), "user-1", "", "")
	if !errors.Is(err, domainerrors.ErrAlreadyClockedIn) {
		t.Fatalf("expected already clocked in, got %v", err)
	}
}

func TestClockOutComputesHours(t *testing.T) {
	service, _, clock := newService()

	if _, err := service.ClockIn(context.Background(), "user-1", "", ""); err != nil {
		t.Fatalf("clock in failed: %v", err)
	}
	clock.now = clock.now.Add(8*time.Hour + 10*time.Minute)

	record, err := service.ClockOut(context.Background(), "user-1", "evening")
	if err != nil {
		t.Fatalf("clock out failed: %v", err)
	}
	if record.ClockOut == nil || record.TotalHours != 8.17 {
		t.Fatalf("expected 8.17 raw hours, got %+v", record)
	}
	if record.Note != "evening" {
		t.Fatalf("expected note set on close, got %q", record.Note)
	}

	_, err = service.ClockOut(context.Background(), "user-1", "")
	if !errors.Is(err, domainerrors.ErrNotClockedIn) {
		t.Fatalf("expected not clocked in, got %v", err)
	}
}

func TestCreateManualEntryValidation(t *testing.T) {
	service, _, clock := newService()
	start := clock.now

	_, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "", start.Add(time.Hour), start, "")
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected ordering validation, got %v", err)
	}

	_, err = service.CreateManualEntry(context.Background(), "user-1", "user-1", "", start, start.Add(25*time.Hour), "")
	if !errors.Is(err, domainerrors.ErrDurationTooLong) {
		t.Fatalf("expected duration cap, got %v", err)
	}

	record, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "project-1", start, start.Add(4*time.Hour), "offsite")
	if err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}
	if record.Source != entities.SourceManual || record.TotalHours != 4.0 {
		t.Fatalf("unexpected manual record: %+v", record)
	}
}

func TestManualEntryForOthersNeedsManagePermission(t *testing.T) {
	service, _, clock := newService()
	start := clock.now

	_, err := service.CreateManualEntry(context.Background(), "user-1", "user-2", "", start, start.Add(time.Hour), "")
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for non-manager, got %v", err)
	}

	if _, err := service.CreateManualEntry(context.Background(), "user-hr", "user-2", "", start, start.Add(time.Hour), ""); err != nil {
		t.Fatalf("manager manual entry failed: %v", err)
	}
}

func TestUpdateRecordRecomputesHours(t *testing.T) {
	service, _, clock := newService()
	start := clock.now

	record, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "", start, start.Add(4*time.Hour), "")
	if err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}

	newOut := start.Add(6 * time.Hour)
	updated, err := service.UpdateRecord(context.Background(), "user-1", record.RecordID, UpdateRecordInput{ClockOut: &newOut})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.TotalHours != 6.0 {
		t.Fatalf("expected recomputed 6 hours, got %v", updated.TotalHours)
	}

	badOut := start.Add(-time.Hour)
	_, err = service.UpdateRecord(context.Background(), "user-1", record.RecordID, UpdateRecordInput{ClockOut: &badOut})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected interval validation on update, got %v", err)
	}

	_, err = service.UpdateRecord(context.Background(), "user-2", record.RecordID, UpdateRecordInput{})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden for another user, got %v", err)
	}
}

func TestDeleteRecordOwnershipAndManage(t *testing.T) {
	service, _, clock := newService()
	start := clock.now

	record, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "", start, start.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}

	if err := service.DeleteRecord(context.Background(), "user-2", record.RecordID); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := service.DeleteRecord(context.Background(), "user-hr", record.RecordID); err != nil {
		t.Fatalf("manager delete failed: %v", err)
	}
	_, err = service.GetRecord(context.Background(), "user-1", record.RecordID)
	if !errors.Is(err, domainerrors.ErrRecordNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestPeriodSummarySplitsMidnight(t *testing.T) {
	service, _, _ := newService()

	// 18:00 day 3 to 10:00 day 4 spans midnight.
	in := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	out := time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC)
	if _, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "", in, out, ""); err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}

	from := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	summary, err := service.PeriodSummary(context.Background(), "user-1", "user-1", from, from.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.RecordCount != 1 {
		t.Fatalf("expected 1 record, got %d", summary.RecordCount)
	}
	if len(summary.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(summary.Days))
	}
	if summary.Days[0].TotalHours != 2.0 || summary.Days[1].TotalHours != 2.0 {
		t.Fatalf("expected 2 clamped hours per day, got %v and %v", summary.Days[0].TotalHours, summary.Days[1].TotalHours)
	}
	if summary.TotalHours != 4.0 {
		t.Fatalf("expected 4 clamped hours total, got %v", summary.TotalHours)
	}
}

func TestPeriodSummaryExcludesPreviousDayRecords(t *testing.T) {
	service, _, _ := newService()

	// Entirely on June 1; the summary window starts June 2.
	in := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	out := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	if _, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "", in, out, ""); err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}

	from := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	summary, err := service.PeriodSummary(context.Background(), "user-1", "user-1", from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.RecordCount != 0 {
		t.Fatalf("expected 0 records, got %d", summary.RecordCount)
	}
	if len(summary.Days) != 0 {
		t.Fatalf("expected no days, got %d", len(summary.Days))
	}
}

func TestDailySummaryIncludesSpillFromPreviousDay(t *testing.T) {
	service, _, _ := newService()

	in := time.Date(2024, 6, 2, 19, 0, 0, 0, time.UTC)
	out := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	if _, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "", in, out, ""); err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}

	day, err := service.DailySummary(context.Background(), "user-1", "user-1", time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("daily summary failed: %v", err)
	}
	// 08:00 to 09:00 inside the window.
	if day.TotalHours != 1.0 {
		t.Fatalf("expected 1 clamped hour on day 3, got %v", day.TotalHours)
	}
	if day.RecordCount != 1 {
		t.Fatalf("expected 1 record touch, got %d", day.RecordCount)
	}
}

func TestListRecordsScopedToOwnerOrManager(t *testing.T) {
	service, _, clock := newService()
	start := clock.now

	if _, err := service.CreateManualEntry(context.Background(), "user-1", "user-1", "", start, start.Add(time.Hour), ""); err != nil {
		t.Fatalf("manual entry failed: %v", err)
	}

	_, err := service.ListRecords(context.Background(), "user-2", "user-1", start.Add(-time.Hour), start.Add(2*time.Hour))
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	records, err := service.ListRecords(context.Background(), "user-hr", "user-1", start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("manager list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}
