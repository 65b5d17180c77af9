package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crewdeck/contexts/workspace/task-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/task-service/domain/errors"
	"crewdeck/contexts/workspace/task-service/ports"

	"gorm.io/gorm"
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

func (r *Repository) CreateTask(ctx context.Context, input ports.CreateTaskInput) (entities.Task, error) {
	row := taskModel{
		TaskID:         strings.TrimSpace(input.TaskID),
		ProjectID:      strings.TrimSpace(input.ProjectID),
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Status:         entities.TaskStatusTodo,
		Priority:       input.Priority,
		AssigneeUserID: strings.TrimSpace(input.AssigneeUserID),
		CreatedBy:      strings.TrimSpace(input.CreatedBy),
		DueDate:        input.DueDate,
		CreatedAt:      input.CreatedAt.UTC(),
		UpdatedAt:      input.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return entities.Task{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetTask(ctx context.Context, taskID string) (entities.Task, error) {
	var row taskModel
	err := r.db.WithContext(ctx).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Task{}, domainerrors.ErrTaskNotFound
		}
		return entities.Task{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]entities.Task, error) {
	tx := r.db.WithContext(ctx).Model(&taskModel{})
	if strings.TrimSpace(filter.ProjectID) != "" {
		tx = tx.Where("project_id = ?", strings.TrimSpace(filter.ProjectID))
	}
	if strings.TrimSpace(filter.AssigneeUserID) != "" {
		tx = tx.Where("assignee_user_id = ?", strings.TrimSpace(filter.AssigneeUserID))
	}
	if strings.TrimSpace(filter.Status) != "" {
		tx = tx.Where("status = ?", strings.TrimSpace(filter.Status))
	}
	if strings.TrimSpace(filter.Priority) != "" {
		tx = tx.Where("priority = ?", strings.TrimSpace(filter.Priority))
	}

	var rows []taskModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Task, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateTask(ctx context.Context, taskID string, input ports.UpdateTaskInput) (entities.Task, error) {
	updates := map[string]any{
		"updated_at": input.UpdatedAt.UTC(),
	}
	if input.Title != nil {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if input.ClearDue {
		updates["due_date"] = nil
	} else if input.DueDate != nil {
		updates["due_date"] = input.DueDate.UTC()
	}

	return r.applyUpdates(ctx, taskID, updates)
}

func (r *Repository) SetAssignee(ctx context.Context, taskID string, assigneeUserID string, updatedAt time.Time) (entities.Task, error) {
	return r.applyUpdates(ctx, taskID, map[string]any{
		"assignee_user_id": assigneeUserID,
		"updated_at":       updatedAt.UTC(),
	})
}

func (r *Repository) SetStatus(ctx context.Context, taskID string, status string, completedAt *time.Time, updatedAt time.Time) (entities.Task, error) {
	updates := map[string]any{
		"status":       status,
		"completed_at": nil,
		"updated_at":   updatedAt.UTC(),
	}
	if completedAt != nil {
		updates["completed_at"] = completedAt.UTC()
	}
	return r.applyUpdates(ctx, taskID, updates)
}

func (r *Repository) DeleteTask(ctx context.Context, taskID string) error {
	result := r.db.WithContext(ctx).
		Where("task_id = ?", strings.TrimSpace(taskID)).
		Delete(&taskModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTaskNotFound
	}
	return nil
}

func (r *Repository) DeleteProjectTasks(ctx context.Context, projectID string) error {
	return r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Delete(&taskModel{}).
		Error
}

type taskModel struct {
	TaskID         string     `gorm:"column:task_id;primaryKey"`
	ProjectID      string     `gorm:"column:project_id"`
	Title          string     `gorm:"column:title"`
	Description    string     `gorm:"column:description"`
	Status         string     `gorm:"column:status"`
	Priority       string     `gorm:"column:priority"`
	AssigneeUserID string     `gorm:"column:assignee_user_id"`
	CreatedBy      string     `gorm:"column:created_by"`
	DueDate        *time.Time `gorm:"column:due_date"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
}

func (taskModel) TableName() string {
	return "tasks"
}

func (m taskModel) toEntity() entities.Task {
	return entities.Task{
		TaskID:         m.TaskID,
		ProjectID:      m.ProjectID,
		Title:          m.Title,
		Description:    m.Description,
		Status:         m.Status,
		Priority:       m.Priority,
		AssigneeUserID: m.AssigneeUserID,
		CreatedBy:      m.CreatedBy,
		DueDate:        m.DueDate,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
		CompletedAt:    m.CompletedAt,
	}
}

func (r *Repository) applyUpdates(ctx context.Context, taskID string, updates map[string]any) (entities.Task, error) {
	var row taskModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&taskModel{}).
			Where("task_id = ?", strings.TrimSpace(taskID)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrTaskNotFound
		}
		return tx.Where("task_id = ?", strings.TrimSpace(taskID)).First(&row).Error
	})
	if err != nil {
		return entities.Task{}, err
	}
	return row.toEntity(), nil
}
