// Package ports declares the interfaces the attendance application
// layer depends on.
package ports

import (
	"context"
	"time"

	"crewdeck/contexts/workforce/attendance-service/domain/entities"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record identifiers.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// PermissionChecker answers whether a user may manage records beyond
// their own. The composition root backs it with the authorization module.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID string, permission string) (bool, error)
}

// CreateRecordInput carries a fully resolved record row for insertion.
// ClockOut is nil for open clock-in records.
type CreateRecordInput struct {
	RecordID   string
	UserID     string
	ProjectID  string
	ClockIn    time.Time
	ClockOut   *time.Time
	Source     string
	Note       string
	TotalHours float64
	CreatedAt  time.Time
}

// UpdateRecordInput carries optional field updates; nil means keep
// current. TotalHours is recomputed by the application when either end
// moves.
type UpdateRecordInput struct {
	ClockIn    *time.Time
	ClockOut   *time.Time
	Note       *string
	TotalHours *float64
	UpdatedAt  time.Time
}

// Repository persists attendance records. At most one open record per
// user exists; adapters enforce it and return ErrAlreadyClockedIn.
type Repository interface {
	CreateRecord(ctx context.Context, input CreateRecordInput) (entities.AttendanceRecord, error)
	GetRecord(ctx context.Context, recordID string) (entities.AttendanceRecord, error)
	GetOpenRecord(ctx context.Context, userID string) (entities.AttendanceRecord, bool, error)
	CloseRecord(ctx context.Context, recordID string, clockOut time.Time, totalHours float64, note string, updatedAt time.Time) (entities.AttendanceRecord, error)
	UpdateRecord(ctx context.Context, recordID string, input UpdateRecordInput) (entities.AttendanceRecord, error)
	DeleteRecord(ctx context.Context, recordID string) error
	ListRecords(ctx context.Context, userID string, from time.Time, to time.Time) ([]entities.AttendanceRecord, error)
	ListOpenRecords(ctx context.Context, before time.Time) ([]entities.AttendanceRecord, error)
}
