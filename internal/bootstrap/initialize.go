package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/pkg/telemetry"
)

// ErrContainerNotFound means the page has no element for the instance.
var ErrContainerNotFound = errors.New("map container not found")

// InitializeMap draws desc into its container: one marker per pin, a shared
// info window opened on marker click, and a viewport fitted to the pins when
// there are at least two of them.
func InitializeMap(ctx context.Context, lib MapLibrary, doc Document, desc *domain.MapInstanceDescriptor) (Map, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanMapInitialize)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrInstanceID, string(desc.InstanceID)),
		attribute.Int(telemetry.AttrPinCount, len(desc.Pins)),
	)

	containerID := desc.InstanceID.ContainerID()
	container, ok := doc.ElementByID(containerID)
	if !ok {
		return nil, fmt.Errorf("initialize %s: %w", containerID, ErrContainerNotFound)
	}

	m, err := lib.NewMap(container, DefaultMapOptions())
	if err != nil {
		return nil, fmt.Errorf("initialize %s: %w", containerID, err)
	}
	if len(desc.Pins) == 0 {
		return m, nil
	}

	info := lib.NewInfoWindow()
	var bounds orb.Bound
	for i, pin := range desc.Pins {
		marker := m.AddMarker(MarkerOptions{Position: pin.Point(), Title: pin.Name})

		p := marker.Position().Orb()
		if i == 0 {
			bounds = p.Bound()
		} else {
			bounds = bounds.Extend(p)
		}

		html := pin.HTML
		marker.OnClick(func() {
			info.SetContent(html)
			info.Open(marker, m, false)
		})
	}

	if desc.ShouldFitBounds() {
		m.FitBounds(bounds, FitPadding)
	}
	return m, nil
}
