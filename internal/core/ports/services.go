package ports

import (
	"context"
	"time"

	"github.com/samirrijal/multimap/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDescriptorBuilt(ctx context.Context, event *domain.DescriptorBuilt) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeDescriptorBuilt(ctx context.Context, handler func(ctx context.Context, event *domain.DescriptorBuilt) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// ObjectURLer turns a stored object key into a URL a browser can load.
type ObjectURLer interface {
	ObjectURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// PreviewRenderer draws a descriptor without a browser and encodes the result.
type PreviewRenderer interface {
	RenderPreview(ctx context.Context, desc *domain.MapInstanceDescriptor) ([]byte, error)
}
