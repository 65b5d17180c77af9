package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crewdeck/contexts/workforce/attendance-service/domain/entities"
	domainerrors "crewdeck/contexts/workforce/attendance-service/domain/errors"
	"crewdeck/contexts/workforce/attendance-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateRecord(ctx context.Context, input ports.CreateRecordInput) (entities.AttendanceRecord, error) {
	row := attendanceModel{
		RecordID:   strings.TrimSpace(input.RecordID),
		UserID:     strings.TrimSpace(input.UserID),
		ProjectID:  strings.TrimSpace(input.ProjectID),
		ClockIn:    input.ClockIn.UTC(),
		ClockOut:   input.ClockOut,
		Source:     input.Source,
		Note:       strings.TrimSpace(input.Note),
		TotalHours: input.TotalHours,
		CreatedAt:  input.CreatedAt.UTC(),
		UpdatedAt:  input.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// Partial unique index on open rows per user.
		if isUniqueViolation(err) {
			return entities.AttendanceRecord{}, domainerrors.ErrAlreadyClockedIn
		}
		return entities.AttendanceRecord{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetRecord(ctx context.Context, recordID string) (entities.AttendanceRecord, error) {
	var row attendanceModel
	err := r.db.WithContext(ctx).
		Where("record_id = ?", strings.TrimSpace(recordID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AttendanceRecord{}, domainerrors.ErrRecordNotFound
		}
		return entities.AttendanceRecord{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetOpenRecord(ctx context.Context, userID string) (entities.AttendanceRecord, bool, error) {
	var row attendanceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND clock_out IS NULL", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.AttendanceRecord{}, false, nil
		}
		return entities.AttendanceRecord{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CloseRecord(ctx context.Context, recordID string, clockOut time.Time, totalHours float64, note string, updatedAt time.Time) (entities.AttendanceRecord, error) {
	var row attendanceModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("record_id = ?", strings.TrimSpace(recordID)).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRecordNotFound
			}
			return err
		}
		if row.ClockOut != nil {
			return domainerrors.ErrNotClockedIn
		}

		updates := map[string]any{
			"clock_out":   clockOut.UTC(),
			"total_hours": totalHours,
			"updated_at":  updatedAt.UTC(),
		}
		if strings.TrimSpace(note) != "" {
			updates["note"] = strings.TrimSpace(note)
		}
		if err := tx.Model(&attendanceModel{}).
			Where("record_id = ?", row.RecordID).
			Updates(updates).
			Error; err != nil {
			return err
		}
		return tx.Where("record_id = ?", row.RecordID).First(&row).Error
	})
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateRecord(ctx context.Context, recordID string, input ports.UpdateRecordInput) (entities.AttendanceRecord, error) {
	updates := map[string]any{
		"updated_at": input.UpdatedAt.UTC(),
	}
	if input.ClockIn != nil {
		updates["clock_in"] = input.ClockIn.UTC()
	}
	if input.ClockOut != nil {
		updates["clock_out"] = input.ClockOut.UTC()
	}
	if input.Note != nil {
		updates["note"] = strings.TrimSpace(*input.Note)
	}
	if input.TotalHours != nil {
		updates["total_hours"] = *input.TotalHours
	}

	var row attendanceModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&attendanceModel{}).
			Where("record_id = ?", strings.TrimSpace(recordID)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrRecordNotFound
		}
		return tx.Where("record_id = ?", strings.TrimSpace(recordID)).First(&row).Error
	})
	if err != nil {
		return entities.AttendanceRecord{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) DeleteRecord(ctx context.Context, recordID string) error {
	result := r.db.WithContext(ctx).
		Where("record_id = ?", strings.TrimSpace(recordID)).
		Delete(&attendanceModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) ListRecords(ctx context.Context, userID string, from time.Time, to time.Time) ([]entities.AttendanceRecord, error) {
	var rows []attendanceModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND clock_in < ? AND (clock_out IS NULL OR clock_out > ?)",
			strings.TrimSpace(userID), to.UTC(), from.UTC()).
		Order("clock_in ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListOpenRecords(ctx context.Context, before time.Time) ([]entities.AttendanceRecord, error) {
	var rows []attendanceModel
	err := r.db.WithContext(ctx).
		Where("clock_out IS NULL AND clock_in < ?", before.UTC()).
		Order("clock_in ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

type attendanceModel struct {
	RecordID   string     `gorm:"column:record_id;primaryKey"`
	UserID     string     `gorm:"column:user_id"`
	ProjectID  string     `gorm:"column:project_id"`
	ClockIn    time.Time  `gorm:"column:clock_in"`
	ClockOut   *time.Time `gorm:"column:clock_out"`
	Source     string     `gorm:"column:source"`
	Note       string     `gorm:"column:note"`
	TotalHours float64    `gorm:"column:total_hours"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
}

func (attendanceModel) TableName() string {
	return "attendance_records"
}

func (m attendanceModel) toEntity() entities.AttendanceRecord {
	return entities.AttendanceRecord{
		RecordID:   m.RecordID,
		UserID:     m.UserID,
		ProjectID:  m.ProjectID,
		ClockIn:    m.ClockIn.UTC(),
		ClockOut:   m.ClockOut,
		Source:     m.Source,
		Note:       m.Note,
		TotalHours: m.TotalHours,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
