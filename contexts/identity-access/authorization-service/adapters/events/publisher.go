package events

import (
	"context"
	"log/slog"

	"crewdeck/contexts/identity-access/authorization-service/ports"
	"crewdeck/internal/platform/messaging"
)

// TopicPolicyChanged carries permission matrix mutations across processes.
const TopicPolicyChanged = "authz.policy_changed"

// Publisher forwards policy-change events to the shared bus.
type Publisher struct {
	bus    *messaging.Bus
	logger *slog.Logger
}

func NewPublisher(bus *messaging.Bus, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{bus: bus, logger: logger}
}

func (p Publisher) PublishPolicyChanged(ctx context.Context, event ports.PolicyChangedEvent) error {
	if err := p.bus.Publish(ctx, TopicPolicyChanged, event); err != nil {
		return err
	}
	p.logger.Info("policy changed event published",
		"event", "authz_policy_changed_published",
		"module", "identity-access/authorization-service",
		"layer", "adapter",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"entity_id", event.EntityID,
	)
	return nil
}
