package workers_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"crewdeck/contexts/identity-access/authorization-service/adapters/memory"
	"crewdeck/contexts/identity-access/authorization-service/application/workers"
	"crewdeck/contexts/identity-access/authorization-service/ports"
	"crewdeck/internal/shared/events"
)

type capturePublisher struct {
	published []ports.PolicyChangedEvent
}

func (p *capturePublisher) PublishPolicyChanged(_ context.Context, event ports.PolicyChangedEvent) error {
	p.published = append(p.published, event)
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func grantThroughStore(t *testing.T, store *memory.Store, userID string, roleID string, expiresAt *time.Time) {
	t.Helper()

	assignmentID, _ := store.NewID(context.Background())
	auditID, _ := store.NewID(context.Background())
	outboxID, _ := store.NewID(context.Background())
	_, err := store.GrantRole(context.Background(), ports.GrantRoleInput{
		AssignmentID: assignmentID,
		AuditLogID:   auditID,
		OutboxID:     outboxID,
		UserID:       userID,
		RoleID:       roleID,
		AdminID:      "user_admin_1",
		AssignedAt:   store.Now(),
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		t.Fatalf("seed grant failed: %v", err)
	}
}

func TestOutboxRelayPublishesPending(t *testing.T) {
	store := memory.NewStore()
	grantThroughStore(t, store, "user-relay-1", "viewer", nil)

	publisher := &capturePublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	if publisher.published[0].EventType != "authz.policy_changed" {
		t.Fatalf("unexpected event type %s", publisher.published[0].EventType)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d pending", len(pending))
	}
}

func TestPolicyChangedConsumerInvalidatesCache(t *testing.T) {
	store := memory.NewStore()

	now := store.Now()
	if err := store.Set(context.Background(), "user_member_1", []string{"task.view"}, now.Add(5*time.Minute)); err != nil {
		t.Fatalf("seed cache failed: %v", err)
	}

	payload, _ := json.Marshal(map[string]string{"user_id": "user_member_1", "action_type": "role_revoked"})
	event := events.Envelope{
		EventID:       "evt-1",
		EventType:     "authz.policy_changed",
		SourceService: "identity-access/authorization-service",
		OccurredAt:    now,
		EntityType:    "user",
		EntityID:      "user_member_1",
		SchemaVersion: 1,
		Data:          payload,
	}

	consumer := workers.PolicyChangedConsumer{
		Dedup:           store,
		PermissionCache: store,
		Clock:           store,
	}
	if err := consumer.Handle(context.Background(), event); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	_, hit, err := store.Get(context.Background(), "user_member_1", now)
	if err != nil {
		t.Fatalf("cache get failed: %v", err)
	}
	if hit {
		t.Fatalf("expected cache entry removed after policy change")
	}
}

func TestPolicyChangedConsumerSkipsDuplicateEvent(t *testing.T) {
	store := memory.NewStore()
	now := store.Now()

	payload, _ := json.Marshal(map[string]string{"user_id": "user_member_1"})
	event := events.Envelope{
		EventID:       "evt-dup",
		EventType:     "authz.policy_changed",
		OccurredAt:    now,
		EntityID:      "user_member_1",
		SchemaVersion: 1,
		Data:          payload,
	}

	consumer := workers.PolicyChangedConsumer{
		Dedup:           store,
		PermissionCache: store,
		Clock:           store,
	}
	if err := consumer.Handle(context.Background(), event); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}

	if err := store.Set(context.Background(), "user_member_1", []string{"task.view"}, now.Add(5*time.Minute)); err != nil {
		t.Fatalf("seed cache failed: %v", err)
	}
	if err := consumer.Handle(context.Background(), event); err != nil {
		t.Fatalf("duplicate consume failed: %v", err)
	}

	_, hit, err := store.Get(context.Background(), "user_member_1", now)
	if err != nil {
		t.Fatalf("cache get failed: %v", err)
	}
	if !hit {
		t.Fatalf("expected duplicate event to leave cache untouched")
	}
}

func TestAssignmentSweeperExpiresAndInvalidates(t *testing.T) {
	store := memory.NewStore()

	now := store.Now()
	expiry := now.Add(time.Hour)
	grantThroughStore(t, store, "user-sweep-1", "manager", &expiry)

	if err := store.Set(context.Background(), "user-sweep-1", []string{"task.assign"}, now.Add(24*time.Hour)); err != nil {
		t.Fatalf("seed cache failed: %v", err)
	}

	sweeper := workers.AssignmentSweeper{
		Repository:      store,
		PermissionCache: store,
		Clock:           fixedClock{now: now.Add(2 * time.Hour)},
	}
	if err := sweeper.RunOnce(context.Background()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	roles, err := store.ListUserRoles(context.Background(), "user-sweep-1", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	for _, role := range roles {
		if role.IsActive {
			t.Fatalf("expected assignment deactivated, got %+v", role)
		}
	}

	_, hit, err := store.Get(context.Background(), "user-sweep-1", now)
	if err != nil {
		t.Fatalf("cache get failed: %v", err)
	}
	if hit {
		t.Fatalf("expected cache invalidated for swept user")
	}
}

func TestEventDedupRejectsPayloadMismatch(t *testing.T) {
	store := memory.NewStore()
	now := store.Now()

	hash := func(data []byte) string {
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}

	replayed, err := store.ReserveEvent(context.Background(), "evt-hash", hash([]byte(`{"a":1}`)), now.Add(time.Hour))
	if err != nil || replayed {
		t.Fatalf("expected fresh reservation, got replayed=%v err=%v", replayed, err)
	}

	_, err = store.ReserveEvent(context.Background(), "evt-hash", hash([]byte(`{"a":2}`)), now.Add(time.Hour))
	if err == nil {
		t.Fatalf("expected conflict for mismatched payload hash")
	}
}
