package geojsonmap

import (
	"context"
	"fmt"

	"github.com/samirrijal/multimap/internal/bootstrap"
	"github.com/samirrijal/multimap/internal/core/domain"
)

// Renderer draws one descriptor at a time on a private, loaded library.
type Renderer struct {
	opts []Option
}

// NewRenderer creates a Renderer. opts configure each private library.
func NewRenderer(opts ...Option) *Renderer {
	return &Renderer{opts: opts}
}

// RenderPreview implements ports.PreviewRenderer.
func (r *Renderer) RenderPreview(ctx context.Context, desc *domain.MapInstanceDescriptor) ([]byte, error) {
	lib := New(r.opts...)
	lib.MarkLoaded()
	doc := NewDocument(desc.InstanceID.ContainerID())

	m, err := bootstrap.InitializeMap(ctx, lib, doc, desc)
	if err != nil {
		return nil, err
	}
	return Snapshot(m)
}

// Snapshot encodes a map drawn by this package as GeoJSON.
func Snapshot(m bootstrap.Map) ([]byte, error) {
	gm, ok := m.(*Map)
	if !ok {
		return nil, fmt.Errorf("snapshot: unsupported map type %T", m)
	}
	data, err := gm.FeatureCollection().MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", gm.ContainerID(), err)
	}
	return data, nil
}
