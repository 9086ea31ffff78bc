// Package bootstrap initializes one interactive map per descriptor once the
// map library has loaded. Descriptors submitted earlier wait in a FIFO queue.
package bootstrap

import (
	"github.com/paulmach/orb"

	"github.com/samirrijal/multimap/internal/core/domain"
)

// FitPadding is the pixel padding used when fitting the viewport to pins.
const FitPadding = 41

// MapOptions are the construction options for a map.
type MapOptions struct {
	Zoom              int
	Center            domain.GeoPoint
	ZoomControl       bool
	MapTypeControl    bool
	ScaleControl      bool
	StreetViewControl bool
	RotateControl     bool
	FullscreenControl bool
}

// DefaultMapOptions is a world view with only zoom and fullscreen controls.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		Zoom:              3,
		Center:            domain.GeoPoint{Lat: 0, Lon: 0},
		ZoomControl:       true,
		FullscreenControl: true,
	}
}

// MarkerOptions describe one marker.
type MarkerOptions struct {
	Position domain.GeoPoint
	Title    string
}

// MapLibrary is the third-party map engine.
type MapLibrary interface {
	// Loaded reports whether the library is ready to construct maps.
	Loaded() bool
	NewMap(container Element, opts MapOptions) (Map, error)
	NewInfoWindow() InfoWindow
}

// Map is one map drawn into a container.
type Map interface {
	AddMarker(opts MarkerOptions) Marker
	FitBounds(bounds orb.Bound, padding int)
}

// Marker is a pin on a map.
type Marker interface {
	Position() domain.GeoPoint
	OnClick(handler func())
}

// InfoWindow is a popover anchored to a marker.
type InfoWindow interface {
	SetContent(html string)
	Open(anchor Marker, m Map, shouldFocus bool)
}

// Element is a page element a map can be drawn into.
type Element interface {
	ID() string
}

// Document looks up page elements.
type Document interface {
	ElementByID(id string) (Element, bool)
}
