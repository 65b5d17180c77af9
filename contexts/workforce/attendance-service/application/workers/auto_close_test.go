package workers_test

import (
	"context"
	"testing"
	"time"

	"crewdeck/contexts/workforce/attendance-service/adapters/memory"
	"crewdeck/contexts/workforce/attendance-service/application/workers"
	"crewdeck/contexts/workforce/attendance-service/domain/entities"
	"crewdeck/contexts/workforce/attendance-service/domain/services"
	"crewdeck/contexts/workforce/attendance-service/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func openRecord(t *testing.T, store *memory.Store, recordID string, userID string, clockIn time.Time) {
	t.Helper()
	_, err := store.CreateRecord(context.Background(), ports.CreateRecordInput{
		RecordID:  recordID,
		UserID:    userID,
		ClockIn:   clockIn,
		Source:    entities.SourceClock,
		CreatedAt: clockIn,
	})
	if err != nil {
		t.Fatalf("create record failed: %v", err)
	}
}

func TestAutoCloserClosesAtWorkdayEnd(t *testing.T) {
	store := memory.NewStore()
	clockIn := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	openRecord(t, store, "rec-stale", "user-1", clockIn)

	closer := workers.AutoCloser{
		Repository: store,
		Clock:      fixedClock{now: time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC)},
		Workday:    services.DefaultWorkday,
	}
	closed, err := closer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closed record, got %d", closed)
	}

	record, err := store.GetRecord(context.Background(), "rec-stale")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	wantOut := time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC)
	if record.ClockOut == nil || !record.ClockOut.Equal(wantOut) {
		t.Fatalf("expected clock-out at workday end, got %v", record.ClockOut)
	}
	if record.TotalHours != 11.0 {
		t.Fatalf("expected 11 raw hours, got %v", record.TotalHours)
	}
	if record.Note != workers.AutoCloseNote {
		t.Fatalf("expected auto close note, got %q", record.Note)
	}
}

func TestAutoCloserLeavesCurrentWorkdayOpen(t *testing.T) {
	store := memory.NewStore()
	clockIn := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	openRecord(t, store, "rec-live", "user-1", clockIn)

	closer := workers.AutoCloser{
		Repository: store,
		Clock:      fixedClock{now: time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)},
		Workday:    services.DefaultWorkday,
	}
	closed, err := closer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if closed != 0 {
		t.Fatalf("expected no records closed mid-workday, got %d", closed)
	}

	record, err := store.GetRecord(context.Background(), "rec-live")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !record.IsOpen() {
		t.Fatalf("expected record still open")
	}
}

func TestAutoCloserHandlesLateClockIn(t *testing.T) {
	store := memory.NewStore()
	clockIn := time.Date(2024, 6, 3, 21, 30, 0, 0, time.UTC)
	openRecord(t, store, "rec-late", "user-1", clockIn)

	closer := workers.AutoCloser{
		Repository: store,
		Clock:      fixedClock{now: time.Date(2024, 6, 4, 1, 0, 0, 0, time.UTC)},
		Workday:    services.DefaultWorkday,
	}
	closed, err := closer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closed record, got %d", closed)
	}

	record, err := store.GetRecord(context.Background(), "rec-late")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.ClockOut == nil || !record.ClockOut.Equal(clockIn) {
		t.Fatalf("expected zero-length close at clock-in, got %v", record.ClockOut)
	}
	if record.TotalHours != 0 {
		t.Fatalf("expected zero hours, got %v", record.TotalHours)
	}
}
