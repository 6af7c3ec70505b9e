package port

import (
	"context"
	"time"
)

// Cache is the key/value accelerator in front of the persistent store.
// It is an optimization, never a source of truth: Get collapses timeouts
// and transport errors into a miss, Set and Delete are best-effort and
// implementations log failures instead of returning them.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}
