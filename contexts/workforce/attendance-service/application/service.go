package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"crewdeck/contexts/workforce/attendance-service/domain/entities"
	domainerrors "crewdeck/contexts/workforce/attendance-service/domain/errors"
	"crewdeck/contexts/workforce/attendance-service/domain/services"
	"crewdeck/contexts/workforce/attendance-service/ports"
)

// PermissionManage lets a user manage records other than their own.
const PermissionManage = "attendance.manage"

const maxRecordDuration = 24 * time.Hour

// Service coordinates attendance operations. Workday bounds the hours
// counted by summaries; a zero value falls back to the default window.
type Service struct {
	Repo        ports.Repository
	Permissions ports.PermissionChecker
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Workday     services.WorkdayWindow
	Logger      *slog.Logger
}

// UpdateRecordInput carries optional field updates; nil means keep
// current.
type UpdateRecordInput struct {
	ClockIn  *time.Time
	ClockOut *time.Time
	Note     *string
}

// ClockIn opens a record for the user. A second open record is rejected
// with ErrAlreadyClockedIn.
func (s Service) ClockIn(ctx context.Context, userID string, projectID string, note string) (entities.AttendanceRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return entities.AttendanceRecord{}, domainerrors.ErrInvalidRequest
	}

	if _, open, err := s.Repo.GetOpenRecord(ctx, userID); err != nil {
		return entities.AttendanceRecord{}, err
	} else if open {
		return entities.AttendanceRecord{}, domainerrors.ErrAlreadyClockedIn
	}

	recordID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	now := s.now()
	record, err := s.Repo.CreateRecord(ctx, ports.CreateRecordInput{
		RecordID:  recordID,
		UserID:    strings.TrimSpace(userID),
		ProjectID: strings.TrimSpace(projectID),
		ClockIn:   now,
		Source:    entities.SourceClock,
		Note:      strings.TrimSpace(note),
		CreatedAt: now,
	})
	if err != nil {
		return entities.AttendanceRecord{}, err
	}

	s.logger().Info("clocked in",
		"event", "attendance_clock_in",
		"module", "workforce/attendance-service",
		"layer", "application",
		"record_id", record.RecordID,
		"user_id", userID,
	)
	return record, nil
}

// ClockOut closes the user's open record and computes its raw hours.
func (s Service) ClockOut(ctx context.Context, userID string, note string) (entities.AttendanceRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return entities.AttendanceRecord{}, domainerrors.ErrInvalidRequest
	}

	open, found, err := s.Repo.GetOpenRecord(ctx, userID)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	if !found {
		return entities.AttendanceRecord{}, domainerrors.ErrNotClockedIn
	}

	now := s.now()
	record, err := s.Repo.CloseRecord(ctx, open.RecordID, now, services.TotalHours(open.ClockIn, now), strings.TrimSpace(note), now)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}

	s.logger().Info("clocked out",
		"event", "attendance_clock_out",
		"module", "workforce/attendance-service",
		"layer", "application",
		"record_id", record.RecordID,
		"user_id", userID,
		"total_hours", record.TotalHours,
	)
	return record, nil
}

// CreateManualEntry records a closed interval directly. Both ends are
// required, in order, at most 24 hours apart. The actor needs the manage
// permission to record for someone else.
func (s Service) CreateManualEntry(ctx context.Context, actorID string, userID string, projectID string, clockIn time.Time, clockOut time.Time, note string) (entities.AttendanceRecord, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(userID) == "" || clockIn.IsZero() || clockOut.IsZero() {
		return entities.AttendanceRecord{}, domainerrors.ErrInvalidRequest
	}
	if err := validateInterval(clockIn, clockOut); err != nil {
		return entities.AttendanceRecord{}, err
	}
	if err := s.requireSelfOrManage(ctx, actorID, userID); err != nil {
		return entities.AttendanceRecord{}, err
	}

	recordID, err := s.IDGenerator.NewID(ctx)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	out := clockOut.UTC()
	record, err := s.Repo.CreateRecord(ctx, ports.CreateRecordInput{
		RecordID:   recordID,
		UserID:     strings.TrimSpace(userID),
		ProjectID:  strings.TrimSpace(projectID),
		ClockIn:    clockIn.UTC(),
		ClockOut:   &out,
		Source:     entities.SourceManual,
		Note:       strings.TrimSpace(note),
		TotalHours: services.TotalHours(clockIn, clockOut),
		CreatedAt:  s.now(),
	})
	if err != nil {
		return entities.AttendanceRecord{}, err
	}

	s.logger().Info("manual entry created",
		"event", "attendance_manual_entry",
		"module", "workforce/attendance-service",
		"layer", "application",
		"record_id", record.RecordID,
		"user_id", userID,
		"actor_id", actorID,
	)
	return record, nil
}

// GetRecord returns a record visible to its owner or a manager.
func (s Service) GetRecord(ctx context.Context, actorID string, recordID string) (entities.AttendanceRecord, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(recordID) == "" {
		return entities.AttendanceRecord{}, domainerrors.ErrInvalidRequest
	}
	record, err := s.Repo.GetRecord(ctx, recordID)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	if err := s.requireSelfOrManage(ctx, actorID, record.UserID); err != nil {
		return entities.AttendanceRecord{}, err
	}
	return record, nil
}

// UpdateRecord edits a record's ends or note. Owners may edit their own
// records; others need the manage permission. Moving either end keeps
// the interval ordered and within 24 hours, and recomputes raw hours on
// closed records.
func (s Service) UpdateRecord(ctx context.Context, actorID string, recordID string, input UpdateRecordInput) (entities.AttendanceRecord, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(recordID) == "" {
		return entities.AttendanceRecord{}, domainerrors.ErrInvalidRequest
	}

	record, err := s.Repo.GetRecord(ctx, recordID)
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	if err := s.requireSelfOrManage(ctx, actorID, record.UserID); err != nil {
		return entities.AttendanceRecord{}, err
	}

	clockIn := record.ClockIn
	if input.ClockIn != nil {
		clockIn = input.ClockIn.UTC()
	}
	clockOut := record.ClockOut
	if input.ClockOut != nil {
		out := input.ClockOut.UTC()
		clockOut = &out
	}
	var totalHours *float64
	if clockOut != nil {
		if err := validateInterval(clockIn, *clockOut); err != nil {
			return entities.AttendanceRecord{}, err
		}
		hours := services.TotalHours(clockIn, *clockOut)
		totalHours = &hours
	}

	updated, err := s.Repo.UpdateRecord(ctx, recordID, ports.UpdateRecordInput{
		ClockIn:    input.ClockIn,
		ClockOut:   input.ClockOut,
		Note:       input.Note,
		TotalHours: totalHours,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		return entities.AttendanceRecord{}, err
	}

	s.logger().Info("attendance record updated",
		"event", "attendance_record_updated",
		"module", "workforce/attendance-service",
		"layer", "application",
		"record_id", recordID,
		"actor_id", actorID,
	)
	return updated, nil
}

// DeleteRecord removes a record, own or managed.
func (s Service) DeleteRecord(ctx context.Context, actorID string, recordID string) error {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(recordID) == "" {
		return domainerrors.ErrInvalidRequest
	}

	record, err := s.Repo.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if err := s.requireSelfOrManage(ctx, actorID, record.UserID); err != nil {
		return err
	}
	if err := s.Repo.DeleteRecord(ctx, recordID); err != nil {
		return err
	}

	s.logger().Info("attendance record deleted",
		"event", "attendance_record_deleted",
		"module", "workforce/attendance-service",
		"layer", "application",
		"record_id", recordID,
		"actor_id", actorID,
	)
	return nil
}

// ListRecords returns the user's records overlapping [from, to).
func (s Service) ListRecords(ctx context.Context, actorID string, userID string, from time.Time, to time.Time) ([]entities.AttendanceRecord, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(userID) == "" || !to.After(from) {
		return nil, domainerrors.ErrInvalidRequest
	}
	if err := s.requireSelfOrManage(ctx, actorID, userID); err != nil {
		return nil, err
	}
	return s.Repo.ListRecords(ctx, strings.TrimSpace(userID), from.UTC(), to.UTC())
}

// DailySummary returns the clamped hour total for one calendar day (UTC).
func (s Service) DailySummary(ctx context.Context, actorID string, userID string, date time.Time) (entities.DaySummary, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(userID) == "" || date.IsZero() {
		return entities.DaySummary{}, domainerrors.ErrInvalidRequest
	}
	if err := s.requireSelfOrManage(ctx, actorID, userID); err != nil {
		return entities.DaySummary{}, err
	}

	day := midnightUTC(date)
	// Records spanning midnight into this day start the previous day.
	records, err := s.Repo.ListRecords(ctx, userID, day.Add(-24*time.Hour), day.Add(24*time.Hour))
	if err != nil {
		return entities.DaySummary{}, err
	}
	for _, summary := range services.DailyTotals(records, s.workday()) {
		if summary.Date.Equal(day) {
			return summary, nil
		}
	}
	return entities.DaySummary{Date: day}, nil
}

// PeriodSummary returns per-day clamped totals over [from, to).
func (s Service) PeriodSummary(ctx context.Context, actorID string, userID string, from time.Time, to time.Time) (entities.PeriodSummary, error) {
	if strings.TrimSpace(actorID) == "" || strings.TrimSpace(userID) == "" || !to.After(from) {
		return entities.PeriodSummary{}, domainerrors.ErrInvalidRequest
	}
	if err := s.requireSelfOrManage(ctx, actorID, userID); err != nil {
		return entities.PeriodSummary{}, err
	}

	records, err := s.Repo.ListRecords(ctx, userID, from.UTC().Add(-24*time.Hour), to.UTC())
	if err != nil {
		return entities.PeriodSummary{}, err
	}
	return services.Summarize(from, to, records, s.workday()), nil
}

func (s Service) requireSelfOrManage(ctx context.Context, actorID string, userID string) error {
	if strings.TrimSpace(actorID) == strings.TrimSpace(userID) {
		return nil
	}
	if s.Permissions == nil {
		return domainerrors.ErrForbidden
	}
	allowed, err := s.Permissions.HasPermission(ctx, strings.TrimSpace(actorID), PermissionManage)
	if err != nil {
		return err
	}
	if !allowed {
		return domainerrors.ErrForbidden
	}
	return nil
}

func validateInterval(clockIn time.Time, clockOut time.Time) error {
	if !clockOut.After(clockIn) {
		return domainerrors.ErrInvalidRequest
	}
	if clockOut.Sub(clockIn) > maxRecordDuration {
		return domainerrors.ErrDurationTooLong
	}
	return nil
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s Service) workday() services.WorkdayWindow {
	if s.Workday.IsValid() {
		return s.Workday
	}
	return services.DefaultWorkday
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
