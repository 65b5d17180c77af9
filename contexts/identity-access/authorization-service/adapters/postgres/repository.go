package postgresadapter

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crewdeck/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	"crewdeck/contexts/identity-access/authorization-service/ports"
	"crewdeck/internal/shared/events"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
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

// ListEffectivePermissions unions role permissions and direct grants for a user.
func (r *Repository) ListEffectivePermissions(ctx context.Context, userID string, now time.Time) ([]string, error) {
	userID = strings.TrimSpace(userID)

	var assignments []roleAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active AND (expires_at IS NULL OR expires_at > ?)", userID, now.UTC()).
		Find(&assignments).
		Error; err != nil {
		return nil, err
	}

	permissions := make(map[string]struct{})
	for _, assignment := range assignments {
		var role roleModel
		err := r.db.WithContext(ctx).
			Where("role_id = ?", assignment.RoleID).
			First(&role).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		for _, permission := range role.Permissions {
			permissions[permission] = struct{}{}
		}
	}

	var grants []userGrantModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active", userID).
		Find(&grants).
		Error; err != nil {
		return nil, err
	}
	for _, grant := range grants {
		permissions[grant.Permission] = struct{}{}
	}

	items := make([]string, 0, len(permissions))
	for permission := range permissions {
		items = append(items, permission)
	}
	return items, nil
}

func (r *Repository) ListUserRoles(ctx context.Context, userID string, now time.Time) ([]entities.RoleAssignment, error) {
	var rows []roleAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("assigned_at DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.RoleAssignment, 0, len(rows))
	for _, row := range rows {
		if row.IsActive && row.ExpiresAt != nil && !row.ExpiresAt.After(now) {
			continue
		}
		var role roleModel
		roleName := row.RoleID
		if err := r.db.WithContext(ctx).
			Select("role_name").
			Where("role_id = ?", row.RoleID).
			First(&role).
			Error; err == nil {
			roleName = role.RoleName
		}
		item := row.toEntity()
		item.RoleName = roleName
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) GrantRole(ctx context.Context, input ports.GrantRoleInput) (ports.RoleMutationResult, error) {
	result := ports.RoleMutationResult{AuditLogID: input.AuditLogID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role roleModel
		if err := tx.Where("role_id = ?", strings.TrimSpace(input.RoleID)).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRoleNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&roleAssignmentModel{}).
			Where("user_id = ? AND role_id = ? AND is_active AND (expires_at IS NULL OR expires_at > ?)",
				strings.TrimSpace(input.UserID), strings.TrimSpace(input.RoleID), input.AssignedAt.UTC()).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return domainerrors.ErrRoleAlreadyAssigned
		}

		row := roleAssignmentModel{
			AssignmentID: strings.TrimSpace(input.AssignmentID),
			UserID:       strings.TrimSpace(input.UserID),
			RoleID:       strings.TrimSpace(input.RoleID),
			AssignedBy:   strings.TrimSpace(input.AdminID),
			Reason:       strings.TrimSpace(input.Reason),
			AssignedAt:   input.AssignedAt.UTC(),
			ExpiresAt:    input.ExpiresAt,
			IsActive:     true,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRoleAlreadyAssigned
			}
			return err
		}

		if err := insertAuditTx(tx, auditLogModel{
			AuditLogID: input.AuditLogID,
			ActorID:    row.AssignedBy,
			Action:     "role_granted",
			SubjectID:  row.UserID,
			Detail:     "role_id=" + row.RoleID,
			CreatedAt:  row.AssignedAt,
		}); err != nil {
			return err
		}
		if err := insertOutboxTx(tx, input.OutboxID, row.UserID, row.AssignedAt, map[string]string{
			"user_id":     row.UserID,
			"role_id":     row.RoleID,
			"action_type": "role_granted",
		}); err != nil {
			return err
		}

		assignment := row.toEntity()
		assignment.RoleName = role.RoleName
		result.Assignment = assignment
		return nil
	})
	if err != nil {
		return ports.RoleMutationResult{}, err
	}
	return result, nil
}

func (r *Repository) RevokeRole(ctx context.Context, input ports.RevokeRoleInput) (ports.RoleMutationResult, error) {
	result := ports.RoleMutationResult{AuditLogID: input.AuditLogID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row roleAssignmentModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND role_id = ? AND is_active",
				strings.TrimSpace(input.UserID), strings.TrimSpace(input.RoleID)).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRoleNotAssigned
			}
			return err
		}

		revokedAt := input.RevokedAt.UTC()
		if err := tx.Model(&roleAssignmentModel{}).
			Where("assignment_id = ?", row.AssignmentID).
			Updates(map[string]any{
				"is_active":  false,
				"revoked_at": revokedAt,
			}).
			Error; err != nil {
			return err
		}
		row.IsActive = false
		row.RevokedAt = &revokedAt

		if err := insertAuditTx(tx, auditLogModel{
			AuditLogID: input.AuditLogID,
			ActorID:    strings.TrimSpace(input.AdminID),
			Action:     "role_revoked",
			SubjectID:  row.UserID,
			Detail:     "role_id=" + row.RoleID,
			CreatedAt:  revokedAt,
		}); err != nil {
			return err
		}
		if err := insertOutboxTx(tx, input.OutboxID, row.UserID, revokedAt, map[string]string{
			"user_id":     row.UserID,
			"role_id":     row.RoleID,
			"action_type": "role_revoked",
		}); err != nil {
			return err
		}

		result.Assignment = row.toEntity()
		return nil
	})
	if err != nil {
		return ports.RoleMutationResult{}, err
	}
	return result, nil
}

func (r *Repository) GrantPermission(ctx context.Context, input ports.GrantPermissionInput) (ports.GrantMutationResult, error) {
	result := ports.GrantMutationResult{AuditLogID: input.AuditLogID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userGrantModel{}).
			Where("user_id = ? AND permission = ? AND is_active",
				strings.TrimSpace(input.UserID), strings.TrimSpace(input.Permission)).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return domainerrors.ErrPermissionAlreadyGranted
		}

		row := userGrantModel{
			GrantID:    strings.TrimSpace(input.GrantID),
			UserID:     strings.TrimSpace(input.UserID),
			Permission: strings.TrimSpace(input.Permission),
			GrantedBy:  strings.TrimSpace(input.AdminID),
			Reason:     strings.TrimSpace(input.Reason),
			GrantedAt:  input.GrantedAt.UTC(),
			IsActive:   true,
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrPermissionAlreadyGranted
			}
			return err
		}

		if err := insertAuditTx(tx, auditLogModel{
			AuditLogID: input.AuditLogID,
			ActorID:    row.GrantedBy,
			Action:     "permission_granted",
			SubjectID:  row.UserID,
			Detail:     "permission=" + row.Permission,
			CreatedAt:  row.GrantedAt,
		}); err != nil {
			return err
		}
		if err := insertOutboxTx(tx, input.OutboxID, row.UserID, row.GrantedAt, map[string]string{
			"user_id":     row.UserID,
			"permission":  row.Permission,
			"action_type": "permission_granted",
		}); err != nil {
			return err
		}

		result.Grant = row.toEntity()
		return nil
	})
	if err != nil {
		return ports.GrantMutationResult{}, err
	}
	return result, nil
}

func (r *Repository) RevokePermission(ctx context.Context, input ports.RevokePermissionInput) (ports.GrantMutationResult, error) {
	result := ports.GrantMutationResult{AuditLogID: input.AuditLogID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userGrantModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND permission = ? AND is_active",
				strings.TrimSpace(input.UserID), strings.TrimSpace(input.Permission)).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrPermissionNotGranted
			}
			return err
		}

		revokedAt := input.RevokedAt.UTC()
		if err := tx.Model(&userGrantModel{}).
			Where("grant_id = ?", row.GrantID).
			Updates(map[string]any{
				"is_active":  false,
				"revoked_at": revokedAt,
			}).
			Error; err != nil {
			return err
		}
		row.IsActive = false
		row.RevokedAt = &revokedAt

		if err := insertAuditTx(tx, auditLogModel{
			AuditLogID: input.AuditLogID,
			ActorID:    strings.TrimSpace(input.AdminID),
			Action:     "permission_revoked",
			SubjectID:  row.UserID,
			Detail:     "permission=" + row.Permission,
			CreatedAt:  revokedAt,
		}); err != nil {
			return err
		}
		if err := insertOutboxTx(tx, input.OutboxID, row.UserID, revokedAt, map[string]string{
			"user_id":     row.UserID,
			"permission":  row.Permission,
			"action_type": "permission_revoked",
		}); err != nil {
			return err
		}

		result.Grant = row.toEntity()
		return nil
	})
	if err != nil {
		return ports.GrantMutationResult{}, err
	}
	return result, nil
}

// ExpireAssignments deactivates assignments past expiry and returns affected users.
func (r *Repository) ExpireAssignments(ctx context.Context, now time.Time) ([]string, error) {
	timestamp := now.UTC()
	userIDs := make([]string, 0)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []roleAssignmentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("is_active AND expires_at IS NOT NULL AND expires_at <= ?", timestamp).
			Find(&rows).
			Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		seen := make(map[string]struct{})
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.AssignmentID)
			if _, ok := seen[row.UserID]; !ok {
				seen[row.UserID] = struct{}{}
				userIDs = append(userIDs, row.UserID)
			}
		}
		return tx.Model(&roleAssignmentModel{}).
			Where("assignment_id IN ?", ids).
			Updates(map[string]any{
				"is_active":  false,
				"revoked_at": timestamp,
			}).
			Error
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}

	return ports.IdempotencyRecord{
		Key:             row.Key,
		Operation:       row.Operation,
		RequestHash:     row.RequestHash,
		ResponsePayload: append([]byte(nil), row.ResponsePayload...),
		ExpiresAt:       row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		Operation:       strings.TrimSpace(record.Operation),
		RequestHash:     record.RequestHash,
		ResponsePayload: append([]byte(nil), record.ResponsePayload...),
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != row.RequestHash || !bytes.Equal(existing.ResponsePayload, row.ResponsePayload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("outbox record not found")
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

func insertAuditTx(tx *gorm.DB, row auditLogModel) error {
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrIdempotencyConflict
		}
		return err
	}
	return nil
}

func insertOutboxTx(tx *gorm.DB, outboxID string, userID string, occurredAt time.Time, data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	envelope := events.Envelope{
		EventID:       strings.TrimSpace(outboxID),
		EventType:     "authz.policy_changed",
		SourceService: "identity-access/authorization-service",
		OccurredAt:    occurredAt.UTC(),
		EntityType:    "user",
		EntityID:      strings.TrimSpace(userID),
		SchemaVersion: 1,
		Data:          raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	row := outboxModel{
		OutboxID:  envelope.EventID,
		EventType: envelope.EventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAt,
	}
	createResult := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected == 0 {
		var existing outboxModel
		if err := tx.Select("payload").Where("outbox_id = ?", row.OutboxID).First(&existing).Error; err != nil {
			return err
		}
		if !bytes.Equal(existing.Payload, row.Payload) {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	return nil
}

type roleModel struct {
	RoleID      string         `gorm:"column:role_id;primaryKey"`
	RoleName    string         `gorm:"column:role_name"`
	Permissions permissionList `gorm:"column:permissions;type:jsonb"`
}

func (roleModel) TableName() string {
	return "roles"
}

// permissionList stores role permissions as a jsonb array. The pgx driver
// has no postgres array codec registered through database/sql, so text[]
// would not scan into a plain string slice.
type permissionList []string

func (p permissionList) Value() (driver.Value, error) {
	if p == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal([]string(p))
}

func (p *permissionList) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(p))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(p))
	default:
		return fmt.Errorf("unsupported permissions column type %T", value)
	}
}

type roleAssignmentModel struct {
	AssignmentID string     `gorm:"column:assignment_id;primaryKey"`
	UserID       string     `gorm:"column:user_id"`
	RoleID       string     `gorm:"column:role_id"`
	AssignedBy   string     `gorm:"column:assigned_by"`
	Reason       string     `gorm:"column:reason"`
	AssignedAt   time.Time  `gorm:"column:assigned_at"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	IsActive     bool       `gorm:"column:is_active"`
	RevokedAt    *time.Time `gorm:"column:revoked_at"`
}

func (roleAssignmentModel) TableName() string {
	return "role_assignments"
}

func (m roleAssignmentModel) toEntity() entities.RoleAssignment {
	return entities.RoleAssignment{
		AssignmentID: m.AssignmentID,
		UserID:       m.UserID,
		RoleID:       m.RoleID,
		RoleName:     m.RoleID,
		AssignedBy:   m.AssignedBy,
		Reason:       m.Reason,
		AssignedAt:   m.AssignedAt.UTC(),
		ExpiresAt:    m.ExpiresAt,
		IsActive:     m.IsActive,
		RevokedAt:    m.RevokedAt,
	}
}

type userGrantModel struct {
	GrantID    string     `gorm:"column:grant_id;primaryKey"`
	UserID     string     `gorm:"column:user_id"`
	Permission string     `gorm:"column:permission"`
	GrantedBy  string     `gorm:"column:granted_by"`
	Reason     string     `gorm:"column:reason"`
	GrantedAt  time.Time  `gorm:"column:granted_at"`
	IsActive   bool       `gorm:"column:is_active"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
}

func (userGrantModel) TableName() string {
	return "user_grants"
}

func (m userGrantModel) toEntity() entities.UserGrant {
	return entities.UserGrant{
		GrantID:    m.GrantID,
		UserID:     m.UserID,
		Permission: m.Permission,
		GrantedBy:  m.GrantedBy,
		Reason:     m.Reason,
		GrantedAt:  m.GrantedAt.UTC(),
		IsActive:   m.IsActive,
		RevokedAt:  m.RevokedAt,
	}
}

type auditLogModel struct {
	AuditLogID string    `gorm:"column:audit_log_id;primaryKey"`
	ActorID    string    `gorm:"column:actor_id"`
	Action     string    `gorm:"column:action"`
	SubjectID  string    `gorm:"column:subject_id"`
	Detail     string    `gorm:"column:detail"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (auditLogModel) TableName() string {
	return "authz_audit_log"
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "authz_outbox"
}

type idempotencyModel struct {
	Key             string    `gorm:"column:key;primaryKey"`
	Operation       string    `gorm:"column:operation"`
	RequestHash     string    `gorm:"column:request_hash"`
	ResponsePayload []byte    `gorm:"column:response_payload"`
	ExpiresAt       time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "authz_idempotency"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "authz_event_dedup"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
