package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/core/ports"
	"github.com/samirrijal/multimap/internal/pkg/logging"
	"github.com/samirrijal/multimap/internal/pkg/metrics"
	"github.com/samirrijal/multimap/internal/pkg/telemetry"
)

// MediaService resolves attachment ids to browser-loadable image URLs.
type MediaService struct {
	media     ports.MediaRepository
	objects   ports.ObjectURLer
	cache     ports.CacheService
	rendition string
	ttl       int
}

// MediaOption configures a MediaService.
type MediaOption func(*MediaService)

// WithRendition selects the rendition size to resolve. Default "medium".
func WithRendition(size string) MediaOption {
	return func(s *MediaService) {
		if size != "" {
			s.rendition = size
		}
	}
}

// WithCacheTTL sets how long resolved URLs are cached, in seconds.
func WithCacheTTL(seconds int) MediaOption {
	return func(s *MediaService) {
		if seconds > 0 {
			s.ttl = seconds
		}
	}
}

// NewMediaService creates a MediaService. objects and cache may be nil.
func NewMediaService(media ports.MediaRepository, objects ports.ObjectURLer, cache ports.CacheService, opts ...MediaOption) *MediaService {
	s := &MediaService{
		media:     media,
		objects:   objects,
		cache:     cache,
		rendition: domain.RenditionMedium,
		ttl:       600,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveMedium returns the URL of the configured rendition of an attachment.
func (s *MediaService) ResolveMedium(ctx context.Context, attachmentID int64) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanMediaResolve)
	defer span.End()
	span.SetAttributes(attribute.Int64(telemetry.AttrAttachmentID, attachmentID))

	if attachmentID <= 0 {
		return "", fmt.Errorf("resolve media %d: %w", attachmentID, domain.ErrNotFound)
	}

	cacheKey := fmt.Sprintf("media:%d:%s", attachmentID, s.rendition)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("media").Inc()
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
			return string(data), nil
		}
		metrics.CacheMisses.WithLabelValues("media").Inc()
	}

	if s.media == nil {
		return "", errors.New("resolve media: no media repository configured")
	}

	r, err := s.media.Rendition(ctx, attachmentID, s.rendition)
	if err != nil {
		return "", fmt.Errorf("resolve media %d: %w", attachmentID, err)
	}

	url := r.URL
	if url == "" && r.ObjectKey != "" {
		if s.objects == nil {
			return "", fmt.Errorf("resolve media %d: object storage not configured", attachmentID)
		}
		// Presigned URLs must outlive the cache entry that holds them.
		expiry := time.Duration(s.ttl)*time.Second + time.Hour
		url, err = s.objects.ObjectURL(ctx, r.ObjectKey, expiry)
		if err != nil {
			return "", fmt.Errorf("resolve media %d: %w", attachmentID, err)
		}
	}
	if url == "" {
		return "", fmt.Errorf("resolve media %d: %w", attachmentID, domain.ErrNotFound)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, []byte(url), s.ttl); err != nil {
			logging.FromContext(ctx).Debug("media url not cached", "attachment_id", attachmentID, "key", cacheKey, "error", err)
		}
	}
	return url, nil
}
