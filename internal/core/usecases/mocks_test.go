package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samirrijal/multimap/internal/core/domain"
)

// --- Mock MediaRepository ---

type mockMediaRepo struct {
	renditionFn func(ctx context.Context, id int64, size string) (*domain.Rendition, error)
	calls       int
}

func (m *mockMediaRepo) Rendition(ctx context.Context, id int64, size string) (*domain.Rendition, error) {
	m.calls++
	if m.renditionFn != nil {
		return m.renditionFn(ctx, id, size)
	}
	return nil, domain.ErrNotFound
}

// --- Mock ObjectURLer ---

type mockObjects struct {
	objectURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
}

func (m *mockObjects) ObjectURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.objectURLFn != nil {
		return m.objectURLFn(ctx, key, expiry)
	}
	return "", errors.New("not configured")
}

// --- Mock CacheService ---

type mockCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]int
	setErr error
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), ttls: make(map[string]int)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrNotFound)
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock ImageResolver ---

type mockImages struct {
	resolveFn func(ctx context.Context, id int64) (string, error)
}

func (m *mockImages) ResolveMedium(ctx context.Context, id int64) (string, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, id)
	}
	return "", domain.ErrNotFound
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.DescriptorBuilt
	err    error
}

func (m *mockPublisher) PublishDescriptorBuilt(ctx context.Context, event *domain.DescriptorBuilt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

// --- Mock PreviewRenderer ---

type mockRenderer struct {
	renderFn func(ctx context.Context, desc *domain.MapInstanceDescriptor) ([]byte, error)
}

func (m *mockRenderer) RenderPreview(ctx context.Context, desc *domain.MapInstanceDescriptor) ([]byte, error) {
	if m.renderFn != nil {
		return m.renderFn(ctx, desc)
	}
	return []byte(`{}`), nil
}

func strPtr(s string) *string { return &s }
