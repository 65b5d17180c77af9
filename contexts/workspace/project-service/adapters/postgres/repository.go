package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"crewdeck/contexts/workspace/project-service/domain/entities"
	domainerrors "crewdeck/contexts/workspace/project-service/domain/errors"
	"crewdeck/contexts/workspace/project-service/ports"

	"github.com/google/uuid"
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

func (r *Repository) CreateProject(ctx context.Context, input ports.CreateProjectInput) (entities.Project, error) {
	row := projectModel{
		ProjectID:   strings.TrimSpace(input.ProjectID),
		OwnerUserID: strings.TrimSpace(input.OwnerUserID),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Status:      entities.ProjectStatusActive,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		CreatedAt:   input.CreatedAt.UTC(),
		UpdatedAt:   input.CreatedAt.UTC(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		owner := projectMemberModel{
			MemberID:  strings.TrimSpace(input.MemberID),
			ProjectID: row.ProjectID,
			UserID:    row.OwnerUserID,
			Role:      entities.MemberRoleOwner,
			Status:    entities.MemberStatusActive,
			JoinedAt:  row.CreatedAt,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		return insertAuditTx(tx, row.ProjectID, row.OwnerUserID, "project_created", "name="+row.Name, row.CreatedAt)
	})
	if err != nil {
		return entities.Project{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetProject(ctx context.Context, projectID string) (entities.Project, []entities.TeamMember, error) {
	var row projectModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Project{}, nil, domainerrors.ErrProjectNotFound
		}
		return entities.Project{}, nil, err
	}

	var memberRows []projectMemberModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", row.ProjectID, entities.MemberStatusActive).
		Order("joined_at ASC").
		Find(&memberRows).
		Error; err != nil {
		return entities.Project{}, nil, err
	}

	members := make([]entities.TeamMember, 0, len(memberRows))
	for _, memberRow := range memberRows {
		members = append(members, memberRow.toEntity())
	}
	return row.toEntity(), members, nil
}

func (r *Repository) ListProjects(ctx context.Context, filter ports.ProjectFilter) ([]entities.Project, error) {
	tx := r.db.WithContext(ctx).Model(&projectModel{})
	if strings.TrimSpace(filter.OwnerUserID) != "" {
		tx = tx.Where("owner_user_id = ?", strings.TrimSpace(filter.OwnerUserID))
	}
	if strings.TrimSpace(filter.Status) != "" {
		tx = tx.Where("status = ?", strings.TrimSpace(filter.Status))
	}
	if strings.TrimSpace(filter.MemberUserID) != "" {
		tx = tx.Where(
			"project_id IN (SELECT project_id FROM project_members WHERE user_id = ? AND status = ?)",
			strings.TrimSpace(filter.MemberUserID), entities.MemberStatusActive,
		)
	}

	var rows []projectModel
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Project, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateProject(ctx context.Context, projectID string, input ports.UpdateProjectInput) (entities.Project, error) {
	updates := map[string]any{
		"updated_at": input.UpdatedAt.UTC(),
	}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.StartDate != nil {
		updates["start_date"] = input.StartDate
	}
	if input.EndDate != nil {
		updates["end_date"] = input.EndDate
	}

	var row projectModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&projectModel{}).
			Where("project_id = ?", strings.TrimSpace(projectID)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrProjectNotFound
		}
		if err := tx.Where("project_id = ?", strings.TrimSpace(projectID)).First(&row).Error; err != nil {
			return err
		}
		return insertAuditTx(tx, row.ProjectID, input.ActorID, "project_updated", "", input.UpdatedAt)
	})
	if err != nil {
		return entities.Project{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) SetProjectStatus(ctx context.Context, projectID string, status string, actorID string, now time.Time) (entities.Project, error) {
	var row projectModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&projectModel{}).
			Where("project_id = ?", strings.TrimSpace(projectID)).
			Updates(map[string]any{
				"status":     status,
				"updated_at": now.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrProjectNotFound
		}
		if err := tx.Where("project_id = ?", strings.TrimSpace(projectID)).First(&row).Error; err != nil {
			return err
		}
		return insertAuditTx(tx, row.ProjectID, actorID, "project_status_changed", "status="+status, now)
	})
	if err != nil {
		return entities.Project{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) DeleteProject(ctx context.Context, projectID string, actorID string, now time.Time) error {
	// project_members and tasks rows cascade via foreign keys.
	result := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Delete(&projectModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrProjectNotFound
	}

	r.logger.Info("project row deleted",
		"event", "project_row_deleted",
		"module", "workspace/project-service",
		"layer", "adapter",
		"project_id", projectID,
		"actor_id", actorID,
		"deleted_at", now.UTC(),
	)
	return nil
}

func (r *Repository) AddMember(ctx context.Context, input ports.AddMemberInput) (entities.TeamMember, error) {
	row := projectMemberModel{
		MemberID:  strings.TrimSpace(input.MemberID),
		ProjectID: strings.TrimSpace(input.ProjectID),
		UserID:    strings.TrimSpace(input.UserID),
		Role:      input.Role,
		Status:    entities.MemberStatusActive,
		JoinedAt:  input.JoinedAt.UTC(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&projectModel{}).
			Where("project_id = ?", row.ProjectID).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrProjectNotFound
		}

		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrMemberAlreadyExists
			}
			return err
		}
		return insertAuditTx(tx, row.ProjectID, input.ActorID, "member_added", "user_id="+row.UserID+" role="+row.Role, input.JoinedAt)
	})
	if err != nil {
		return entities.TeamMember{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateMemberRole(ctx context.Context, projectID string, userID string, role string, actorID string, now time.Time) (entities.TeamMember, error) {
	var row projectMemberModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ? AND user_id = ? AND status = ?", strings.TrimSpace(projectID), strings.TrimSpace(userID), entities.MemberStatusActive).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrMemberNotFound
			}
			return err
		}

		if row.Role == entities.MemberRoleOwner && role != entities.MemberRoleOwner {
			count, err := activeOwnerCountTx(tx, projectID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return domainerrors.ErrLastOwner
			}
		}

		if err := tx.Model(&projectMemberModel{}).
			Where("member_id = ?", row.MemberID).
			Update("role", role).
			Error; err != nil {
			return err
		}
		row.Role = role
		return insertAuditTx(tx, row.ProjectID, actorID, "member_role_updated", "user_id="+row.UserID+" role="+role, now)
	})
	if err != nil {
		return entities.TeamMember{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) RemoveMember(ctx context.Context, projectID string, userID string, actorID string, now time.Time) (entities.TeamMember, error) {
	var row projectMemberModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ? AND user_id = ? AND status = ?", strings.TrimSpace(projectID), strings.TrimSpace(userID), entities.MemberStatusActive).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrMemberNotFound
			}
			return err
		}

		if row.Role == entities.MemberRoleOwner {
			count, err := activeOwnerCountTx(tx, projectID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return domainerrors.ErrLastOwner
			}
		}

		removedAt := now.UTC()
		if err := tx.Model(&projectMemberModel{}).
			Where("member_id = ?", row.MemberID).
			Updates(map[string]any{
				"status":     entities.MemberStatusRemoved,
				"removed_at": removedAt,
			}).
			Error; err != nil {
			return err
		}
		row.Status = entities.MemberStatusRemoved
		row.RemovedAt = &removedAt
		return insertAuditTx(tx, row.ProjectID, actorID, "member_removed", "user_id="+row.UserID, now)
	})
	if err != nil {
		return entities.TeamMember{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListMembers(ctx context.Context, projectID string) ([]entities.TeamMember, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&projectModel{}).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Count(&count).
		Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domainerrors.ErrProjectNotFound
	}

	var rows []projectMemberModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("joined_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.TeamMember, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CheckMembership(ctx context.Context, projectID string, userID string) (entities.TeamMember, bool, error) {
	var row projectMemberModel
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ? AND status = ?", strings.TrimSpace(projectID), strings.TrimSpace(userID), entities.MemberStatusActive).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TeamMember{}, false, nil
		}
		return entities.TeamMember{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListAuditLog(ctx context.Context, projectID string, limit int) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []projectAuditModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.AuditEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.AuditEntry{
			AuditLogID: row.AuditLogID,
			ProjectID:  row.ProjectID,
			ActorID:    row.ActorID,
			Action:     row.Action,
			Detail:     row.Detail,
			CreatedAt:  row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func activeOwnerCountTx(tx *gorm.DB, projectID string) (int64, error) {
	var count int64
	err := tx.Model(&projectMemberModel{}).
		Where("project_id = ? AND role = ? AND status = ?", strings.TrimSpace(projectID), entities.MemberRoleOwner, entities.MemberStatusActive).
		Count(&count).
		Error
	return count, err
}

func insertAuditTx(tx *gorm.DB, projectID string, actorID string, action string, detail string, at time.Time) error {
	row := projectAuditModel{
		AuditLogID: uuid.NewString(),
		ProjectID:  strings.TrimSpace(projectID),
		ActorID:    strings.TrimSpace(actorID),
		Action:     action,
		Detail:     detail,
		CreatedAt:  at.UTC(),
	}
	return tx.Create(&row).Error
}

type projectModel struct {
	ProjectID   string     `gorm:"column:project_id;primaryKey"`
	OwnerUserID string     `gorm:"column:owner_user_id"`
	Name        string     `gorm:"column:name"`
	Description string     `gorm:"column:description"`
	Status      string     `gorm:"column:status"`
	StartDate   *time.Time `gorm:"column:start_date"`
	EndDate     *time.Time `gorm:"column:end_date"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (projectModel) TableName() string {
	return "projects"
}

func (m projectModel) toEntity() entities.Project {
	return entities.Project{
		ProjectID:   m.ProjectID,
		OwnerUserID: m.OwnerUserID,
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type projectMemberModel struct {
	MemberID  string     `gorm:"column:member_id;primaryKey"`
	ProjectID string     `gorm:"column:project_id"`
	UserID    string     `gorm:"column:user_id"`
	Role      string     `gorm:"column:role"`
	Status    string     `gorm:"column:status"`
	JoinedAt  time.Time  `gorm:"column:joined_at"`
	RemovedAt *time.Time `gorm:"column:removed_at"`
}

func (projectMemberModel) TableName() string {
	return "project_members"
}

func (m projectMemberModel) toEntity() entities.TeamMember {
	return entities.TeamMember{
		MemberID:  m.MemberID,
		ProjectID: m.ProjectID,
		UserID:    m.UserID,
		Role:      m.Role,
		Status:    m.Status,
		JoinedAt:  m.JoinedAt.UTC(),
		RemovedAt: m.RemovedAt,
	}
}

type projectAuditModel struct {
	AuditLogID string    `gorm:"column:audit_log_id;primaryKey"`
	ProjectID  string    `gorm:"column:project_id"`
	ActorID    string    `gorm:"column:actor_id"`
	Action     string    `gorm:"column:action"`
	Detail     string    `gorm:"column:detail"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (projectAuditModel) TableName() string {
	return "project_audit_log"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
