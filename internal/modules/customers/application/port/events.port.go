package port

import (
	"context"

	"customerSyncWs/internal/modules/customers/domain"
)

// EventSink receives one event per successful mutation and fans it out to
// the delivery channels. Errors are advisory: a failed fanout never undoes
// the committed write.
type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}
