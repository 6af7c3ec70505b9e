package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	customers "customerSyncWs/internal/modules/customers/domain"
	"customerSyncWs/internal/modules/realtime/application/port"
)

// FanoutRouter dispatches every published event to three independent
// channels: the durable broker log, the in-process subscription bus, and
// the live connection registry. The channels are isolated so one failing
// never stops delivery on another, and their error policies intentionally
// differ: the in-memory channels cannot fail, the durable log error is
// re-raised to the caller's best-effort catch.
type FanoutRouter struct {
	log port.DurableLog
	bus port.SubscriptionBus
	hub port.ConnectionBroadcaster
}

// NewFanoutRouter accepts nil for any channel not wired (e.g. no broker in
// local runs); that channel is skipped.
func NewFanoutRouter(log port.DurableLog, bus port.SubscriptionBus, hub port.ConnectionBroadcaster) *FanoutRouter {
	return &FanoutRouter{log: log, bus: bus, hub: hub}
}

// Publish derives the topic and dispatches. The in-memory channels go first
// so a slow broker call never delays live delivery.
func (f *FanoutRouter) Publish(ctx context.Context, event customers.Event) error {
	topic := event.Topic()

	if f.bus != nil {
		f.bus.Publish(topic, event.Payload)
	}
	if f.hub != nil {
		f.hub.Broadcast(string(event.Type), topic, event.Payload)
	}

	if f.log == nil {
		return nil
	}
	value, err := json.Marshal(event)
	if err != nil {
		slog.Error("event serialization failed", slog.String("eventType", string(event.Type)), slog.Any("error", err))
		return fmt.Errorf("serialize event: %w", err)
	}
	key := event.EntityID
	if key == "" {
		key = event.Meta.CorrelationID
	}
	if err := f.log.Publish(ctx, key, value, string(event.Type), event.Meta.Timestamp); err != nil {
		slog.Error("durable log publish failed",
			slog.String("eventType", string(event.Type)),
			slog.String("entityId", event.EntityID),
			slog.Any("error", err),
		)
		return fmt.Errorf("durable log publish: %w", err)
	}
	return nil
}
