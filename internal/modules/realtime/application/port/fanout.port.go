package port

import (
	"context"
	"time"

	customers "customerSyncWs/internal/modules/customers/domain"
	rtdomain "customerSyncWs/internal/modules/realtime/domain"
)

// DurableLog is the append-only broker channel. At-least-once from the
// publisher's side: the call succeeds or errors, nothing is re-queued here.
type DurableLog interface {
	Publish(ctx context.Context, key string, value []byte, eventType string, ts time.Time) error
}

// SubscriptionBus is the in-process channel feeding live subscription
// queries. Synchronous and lossy by contract.
type SubscriptionBus interface {
	Publish(topic string, payload any)
}

// ConnectionBroadcaster pushes one frame per matching live connection.
type ConnectionBroadcaster interface {
	Broadcast(eventType, topic string, data any)
}

// CustomerWriter routes the customer_update wire command into the write
// path after the ownership check passed.
type CustomerWriter interface {
	Update(ctx context.Context, customerID string, update rtdomain.CustomerUpdate, requestID string) (*customers.Customer, error)
}
