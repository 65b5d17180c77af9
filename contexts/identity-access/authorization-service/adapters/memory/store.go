package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"crewdeck/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "crewdeck/contexts/identity-access/authorization-service/domain/errors"
	"crewdeck/contexts/identity-access/authorization-service/ports"
	"crewdeck/internal/shared/events"

	"github.com/google/uuid"
)

// Store is an in-memory adapter implementing repository/cache/idempotency ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	roles       map[string]entities.Role
	assignments map[string]entities.RoleAssignment
	grants      map[string]entities.UserGrant

	idempotency map[string]ports.IdempotencyRecord
	cache       map[string]cacheEntry
	outbox      map[string]outboxRow
	dedup       map[string]dedupEntry
}

type cacheEntry struct {
	Permissions []string
	ExpiresAt   time.Time
}

type outboxRow struct {
	ports.OutboxMessage
	PublishedAt *time.Time
}

type dedupEntry struct {
	PayloadHash string
	ExpiresAt   time.Time
}

// NewStore builds a deterministic in-memory adapter seeded with the baseline
// role catalog and one assignment per seeded user.
func NewStore() *Store {
	roles := map[string]entities.Role{
		"admin": {
			RoleID:   "admin",
			RoleName: "admin",
			Permissions: []string{
				"user.grant_role", "user.revoke_role", "permission.grant", "permission.revoke",
				"project.*", "task.*", "attendance.manage",
			},
		},
		"manager": {
			RoleID:   "manager",
			RoleName: "manager",
			Permissions: []string{
				"project.create", "project.view", "project.edit", "project.manage_members",
				"task.create", "task.view", "task.edit", "task.assign", "task.delete",
				"attendance.manage",
			},
		},
		"member": {
			RoleID:   "member",
			RoleName: "member",
			Permissions: []string{
				"project.view", "task.view", "task.create", "task.edit", "attendance.log",
			},
		},
		"viewer": {
			RoleID:      "viewer",
			RoleName:    "viewer",
			Permissions: []string{"project.view", "task.view"},
		},
	}

	store := &Store{
		roles:       roles,
		assignments: make(map[string]entities.RoleAssignment),
		grants:      make(map[string]entities.UserGrant),
		idempotency: make(map[string]ports.IdempotencyRecord),
		cache:       make(map[string]cacheEntry),
		outbox:      make(map[string]outboxRow),
		dedup:       make(map[string]dedupEntry),
	}

	seeded := map[string]string{
		"user_admin_1":   "admin",
		"user_manager_1": "manager",
		"user_member_1":  "member",
		"user_member_2":  "member",
	}
	assignedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for userID, roleID := range seeded {
		assignmentID := "seed-" + userID
		store.assignments[assignmentID] = entities.RoleAssignment{
			AssignmentID: assignmentID,
			UserID:       userID,
			RoleID:       roleID,
			RoleName:     roles[roleID].RoleName,
			AssignedBy:   "system",
			Reason:       "seed",
			AssignedAt:   assignedAt,
			IsActive:     true,
		}
	}
	return store
}

// ListEffectivePermissions resolves active role and direct grant permissions.
func (s *Store) ListEffectivePermissions(_ context.Context, userID string, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	permissions := make(map[string]struct{})
	for _, assignment := range s.assignments {
		if assignment.UserID != userID || !assignment.IsActive {
			continue
		}
		if assignment.ExpiresAt != nil && !assignment.ExpiresAt.After(now) {
			continue
		}
		role, ok := s.roles[assignment.RoleID]
		if !ok {
			continue
		}
		for _, permission := range role.Permissions {
			permissions[permission] = struct{}{}
		}
	}
	for _, grant := range s.grants {
		if grant.UserID != userID || !grant.IsActive {
			continue
		}
		permissions[grant.Permission] = struct{}{}
	}

	items := make([]string, 0, len(permissions))
	for permission := range permissions {
		items = append(items, permission)
	}
	sort.Strings(items)
	return items, nil
}

// ListUserRoles returns role assignments filtered by user identity.
func (s *Store) ListUserRoles(_ context.Context, userID string, now time.Time) ([]entities.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.RoleAssignment, 0)
	for _, assignment := range s.assignments {
		if assignment.UserID != userID {
			continue
		}
		if assignment.IsActive && assignment.ExpiresAt != nil && !assignment.ExpiresAt.After(now) {
			continue
		}
		items = append(items, assignment)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AssignedAt.After(items[j].AssignedAt)
	})
	return items, nil
}

func (s *Store) GrantRole(_ context.Context, input ports.GrantRoleInput) (ports.RoleMutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[input.RoleID]
	if !ok {
		return ports.RoleMutationResult{}, domainerrors.ErrRoleNotFound
	}
	for _, assignment := range s.assignments {
		if assignment.UserID == input.UserID && assignment.RoleID == input.RoleID && assignment.IsActive {
			if assignment.ExpiresAt == nil || assignment.ExpiresAt.After(input.AssignedAt) {
				return ports.RoleMutationResult{}, domainerrors.ErrRoleAlreadyAssigned
			}
		}
	}

	assignment := entities.RoleAssignment{
		AssignmentID: input.AssignmentID,
		UserID:       input.UserID,
		RoleID:       input.RoleID,
		RoleName:     role.RoleName,
		AssignedBy:   input.AdminID,
		Reason:       input.Reason,
		AssignedAt:   input.AssignedAt.UTC(),
		ExpiresAt:    input.ExpiresAt,
		IsActive:     true,
	}
	s.assignments[assignment.AssignmentID] = assignment

	if err := s.appendOutbox(input.OutboxID, input.UserID, map[string]string{
		"user_id":     input.UserID,
		"role_id":     input.RoleID,
		"action_type": "role_granted",
	}, input.AssignedAt.UTC()); err != nil {
		return ports.RoleMutationResult{}, err
	}
	return ports.RoleMutationResult{
		Assignment: assignment,
		AuditLogID: input.AuditLogID,
	}, nil
}

func (s *Store) RevokeRole(_ context.Context, input ports.RevokeRoleInput) (ports.RoleMutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target entities.RoleAssignment
	found := false
	for id, assignment := range s.assignments {
		if assignment.UserID == input.UserID && assignment.RoleID == input.RoleID && assignment.IsActive {
			target = assignment
			target.IsActive = false
			revokedAt := input.RevokedAt.UTC()
			target.RevokedAt = &revokedAt
			s.assignments[id] = target
			found = true
			break
		}
	}
	if !found {
		return ports.RoleMutationResult{}, domainerrors.ErrRoleNotAssigned
	}

	if err := s.appendOutbox(input.OutboxID, input.UserID, map[string]string{
		"user_id":     input.UserID,
		"role_id":     input.RoleID,
		"action_type": "role_revoked",
	}, input.RevokedAt.UTC()); err != nil {
		return ports.RoleMutationResult{}, err
	}
	return ports.RoleMutationResult{
		Assignment: target,
		AuditLogID: input.AuditLogID,
	}, nil
}

func (s *Store) GrantPermission(_ context.Context, input ports.GrantPermissionInput) (ports.GrantMutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, grant := range s.grants {
		if grant.UserID == input.UserID && grant.Permission == input.Permission && grant.IsActive {
			return ports.GrantMutationResult{}, domainerrors.ErrPermissionAlreadyGranted
		}
	}

	grant := entities.UserGrant{
		GrantID:    input.GrantID,
		UserID:     input.UserID,
		Permission: input.Permission,
		GrantedBy:  input.AdminID,
		Reason:     input.Reason,
		GrantedAt:  input.GrantedAt.UTC(),
		IsActive:   true,
	}
	s.grants[grant.GrantID] = grant

	if err := s.appendOutbox(input.OutboxID, input.UserID, map[string]string{
		"user_id":     input.UserID,
		"permission":  input.Permission,
		"action_type": "permission_granted",
	}, input.GrantedAt.UTC()); err != nil {
		return ports.GrantMutationResult{}, err
	}
	return ports.GrantMutationResult{
		Grant:      grant,
		AuditLogID: input.AuditLogID,
	}, nil
}

func (s *Store) RevokePermission(_ context.Context, input ports.RevokePermissionInput) (ports.GrantMutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target entities.UserGrant
	found := false
	for id, grant := range s.grants {
		if grant.UserID == input.UserID && grant.Permission == input.Permission && grant.IsActive {
			target = grant
			target.IsActive = false
			revokedAt := input.RevokedAt.UTC()
			target.RevokedAt = &revokedAt
			s.grants[id] = target
			found = true
			break
		}
	}
	if !found {
		return ports.GrantMutationResult{}, domainerrors.ErrPermissionNotGranted
	}

	if err := s.appendOutbox(input.OutboxID, input.UserID, map[string]string{
		"user_id":     input.UserID,
		"permission":  input.Permission,
		"action_type": "permission_revoked",
	}, input.RevokedAt.UTC()); err != nil {
		return ports.GrantMutationResult{}, err
	}
	return ports.GrantMutationResult{
		Grant:      target,
		AuditLogID: input.AuditLogID,
	}, nil
}

// ExpireAssignments deactivates assignments whose expiry has passed.
func (s *Store) ExpireAssignments(_ context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	affected := make(map[string]struct{})
	for id, assignment := range s.assignments {
		if !assignment.IsActive || assignment.ExpiresAt == nil || assignment.ExpiresAt.After(now) {
			continue
		}
		assignment.IsActive = false
		revokedAt := now.UTC()
		assignment.RevokedAt = &revokedAt
		s.assignments[id] = assignment
		affected[assignment.UserID] = struct{}{}
	}

	userIDs := make([]string, 0, len(affected))
	for userID := range affected {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	return userIDs, nil
}

func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idempotency[record.Key]
	if exists && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) Get(_ context.Context, userID string, now time.Time) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[userID]
	if !ok {
		return nil, false, nil
	}
	if !entry.ExpiresAt.After(now) {
		delete(s.cache, userID)
		return nil, false, nil
	}
	return append([]string(nil), entry.Permissions...), true, nil
}

func (s *Store) Set(_ context.Context, userID string, permissions []string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[userID] = cacheEntry{
		Permissions: append([]string(nil), permissions...),
		ExpiresAt:   expiresAt.UTC(),
	}
	return nil
}

func (s *Store) Invalidate(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, userID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.PublishedAt == nil {
			rows = append(rows, row.OutboxMessage)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[outboxID]
	if !ok {
		return errors.New("outbox record not found")
	}
	value := publishedAt.UTC()
	row.PublishedAt = &value
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dedup[eventID]
	if !ok {
		s.dedup[eventID] = dedupEntry{
			PayloadHash: payloadHash,
			ExpiresAt:   expiresAt.UTC(),
		}
		return false, nil
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) appendOutbox(outboxID string, userID string, data map[string]string, createdAt time.Time) error {
	if _, exists := s.outbox[outboxID]; exists {
		return domainerrors.ErrIdempotencyConflict
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	envelope := events.Envelope{
		EventID:       outboxID,
		EventType:     "authz.policy_changed",
		SourceService: "identity-access/authorization-service",
		OccurredAt:    createdAt,
		EntityType:    "user",
		EntityID:      userID,
		SchemaVersion: 1,
		Data:          raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[outboxID] = outboxRow{
		OutboxMessage: ports.OutboxMessage{
			OutboxID:  outboxID,
			EventType: envelope.EventType,
			Payload:   payload,
			CreatedAt: createdAt,
		},
	}
	return nil
}
