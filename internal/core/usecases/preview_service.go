package usecases

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/ports"
	"github.com/samirrijal/multimap/internal/pkg/metrics"
	"github.com/samirrijal/multimap/internal/pkg/telemetry"
)

// PreviewService renders GeoJSON previews of map instances and keeps the
// latest preview of each instance in the cache.
type PreviewService struct {
	renderer ports.PreviewRenderer
	cache    ports.CacheService
	ttl      int
}

// NewPreviewService creates a PreviewService. cache may be nil, in which
// case nothing is stored.
func NewPreviewService(renderer ports.PreviewRenderer, cache ports.CacheService, ttlSeconds int) *PreviewService {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &PreviewService{renderer: renderer, cache: cache, ttl: ttlSeconds}
}

func previewKey(id domain.InstanceID) string {
	return "preview:" + string(id)
}

// Render draws desc synchronously.
func (s *PreviewService) Render(ctx context.Context, desc *domain.MapInstanceDescriptor) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPreviewRender)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrInstanceID, string(desc.InstanceID)))

	data, err := s.renderer.RenderPreview(ctx, desc)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("render preview %s: %w", desc.InstanceID, err)
	}
	metrics.PreviewsRendered.WithLabelValues("sync").Inc()
	return data, nil
}

// Store saves a rendered preview for later retrieval.
func (s *PreviewService) Store(ctx context.Context, id domain.InstanceID, data []byte) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Set(ctx, previewKey(id), data, s.ttl); err != nil {
		return fmt.Errorf("store preview %s: %w", id, err)
	}
	metrics.PreviewsRendered.WithLabelValues("worker").Inc()
	return nil
}

// Get returns the stored preview, or domain.ErrNotFound.
func (s *PreviewService) Get(ctx context.Context, id domain.InstanceID) ([]byte, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("preview %s: %w", id, domain.ErrNotFound)
	}
	data, err := s.cache.Get(ctx, previewKey(id))
	if err != nil || len(data) == 0 {
		metrics.CacheMisses.WithLabelValues("preview").Inc()
		return nil, fmt.Errorf("preview %s: %w", id, domain.ErrNotFound)
	}
	metrics.CacheHits.WithLabelValues("preview").Inc()
	return data, nil
}
