// Package geojsonmap is a headless map library. Maps are recorded as GeoJSON
// feature collections so descriptors can be previewed without a browser.
package geojsonmap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/multimap/internal/bootstrap"
)

// Default viewport size in pixels, matching a 16:9 widget.
const (
	DefaultWidth  = 640
	DefaultHeight = 360
)

// Library implements bootstrap.MapLibrary.
type Library struct {
	loaded atomic.Bool
	width  float64
	height float64

	mu   sync.Mutex
	maps map[string]*Map
}

// Option configures a Library.
type Option func(*Library)

// WithViewport sets the viewport size used for fitting bounds.
func WithViewport(width, height float64) Option {
	return func(l *Library) {
		if width > 0 && height > 0 {
			l.width, l.height = width, height
		}
	}
}

// New creates a library that is not loaded yet.
func New(opts ...Option) *Library {
	l := &Library{
		width:  DefaultWidth,
		height: DefaultHeight,
		maps:   make(map[string]*Map),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MarkLoaded makes the library usable.
func (l *Library) MarkLoaded() { l.loaded.Store(true) }

// Loaded implements bootstrap.MapLibrary.
func (l *Library) Loaded() bool { return l.loaded.Load() }

// NewMap implements bootstrap.MapLibrary. A second map in the same
// container replaces the first.
func (l *Library) NewMap(container bootstrap.Element, opts bootstrap.MapOptions) (bootstrap.Map, error) {
	if !l.Loaded() {
		return nil, fmt.Errorf("new map in %s: library not loaded", container.ID())
	}
	m := newMap(container.ID(), opts, l.width, l.height)

	l.mu.Lock()
	l.maps[container.ID()] = m
	l.mu.Unlock()
	return m, nil
}

// NewInfoWindow implements bootstrap.MapLibrary.
func (l *Library) NewInfoWindow() bootstrap.InfoWindow {
	return &InfoWindow{}
}

// Map returns the map drawn into containerID.
func (l *Library) Map(containerID string) (*Map, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.maps[containerID]
	return m, ok
}

// Release forgets the map drawn into containerID.
func (l *Library) Release(containerID string) {
	l.mu.Lock()
	delete(l.maps, containerID)
	l.mu.Unlock()
}
