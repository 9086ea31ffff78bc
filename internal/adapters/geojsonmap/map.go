package geojsonmap

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/multimap/internal/bootstrap"
	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/pkg/geospatial"
)

// Viewport is what the map currently shows.
type Viewport struct {
	Center      domain.GeoPoint `json:"center"`
	Zoom        float64         `json:"zoom"`
	Padding     int             `json:"padding"`
	Fitted      bool            `json:"fitted"`
	SpanMeters  float64         `json:"span_meters,omitempty"`
	Bounds      *domain.Bounds  `json:"bounds,omitempty"`
	WidthPixel  float64         `json:"width_px"`
	HeightPixel float64         `json:"height_px"`
}

type popup struct {
	anchor  *Marker
	content string
}

// Map implements bootstrap.Map.
type Map struct {
	containerID string
	options     bootstrap.MapOptions

	mu       sync.Mutex
	markers  []*Marker
	viewport Viewport
	fitCalls int
	open     *popup
}

func newMap(containerID string, opts bootstrap.MapOptions, width, height float64) *Map {
	return &Map{
		containerID: containerID,
		options:     opts,
		viewport: Viewport{
			Center:      opts.Center,
			Zoom:        float64(opts.Zoom),
			WidthPixel:  width,
			HeightPixel: height,
		},
	}
}

// ContainerID is the element the map was drawn into.
func (m *Map) ContainerID() string { return m.containerID }

// Options returns the construction options.
func (m *Map) Options() bootstrap.MapOptions { return m.options }

// AddMarker implements bootstrap.Map.
func (m *Map) AddMarker(opts bootstrap.MarkerOptions) bootstrap.Marker {
	mk := &Marker{opts: opts}
	m.mu.Lock()
	m.markers = append(m.markers, mk)
	m.mu.Unlock()
	return mk
}

// FitBounds implements bootstrap.Map.
func (m *Map) FitBounds(b orb.Bound, padding int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := geospatial.FitCenter(b)
	m.viewport.Center = domain.GeoPoint{Lat: c.Lat(), Lon: c.Lon()}
	m.viewport.Zoom = geospatial.FitZoom(b, float64(padding), m.viewport.WidthPixel, m.viewport.HeightPixel)
	m.viewport.Padding = padding
	m.viewport.Fitted = true
	m.viewport.SpanMeters = geospatial.DiagonalMeters(b)
	bounds := domain.BoundsFromOrb(b)
	m.viewport.Bounds = &bounds
	m.fitCalls++
}

// Markers returns the markers in the order they were added.
func (m *Map) Markers() []*Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Marker, len(m.markers))
	copy(out, m.markers)
	return out
}

// Viewport returns the current viewport.
func (m *Map) Viewport() Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport
}

// FitCalls is how many times FitBounds was called.
func (m *Map) FitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fitCalls
}

// OpenPopup returns the marker and content of the open info window.
func (m *Map) OpenPopup() (*Marker, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == nil {
		return nil, "", false
	}
	return m.open.anchor, m.open.content, true
}

func (m *Map) setOpen(p *popup) {
	m.mu.Lock()
	m.open = p
	m.mu.Unlock()
}

// FeatureCollection snapshots the map. Each marker becomes a Point feature
// with its title; clicking it captures the info window content as
// popup_html. The viewport is attached as a foreign member.
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	markers := m.Markers()
	prev, prevContent, hadOpen := m.OpenPopup()

	fc := geojson.NewFeatureCollection()
	var bound orb.Bound
	for i, mk := range markers {
		p := mk.Position().Orb()
		if i == 0 {
			bound = p.Bound()
		} else {
			bound = bound.Extend(p)
		}

		f := geojson.NewFeature(p)
		f.Properties["title"] = mk.Title()
		f.Properties["index"] = i

		m.setOpen(nil)
		mk.Click()
		if anchor, content, ok := m.OpenPopup(); ok && anchor == mk {
			f.Properties["popup_html"] = content
		}
		fc.Append(f)
	}

	if hadOpen {
		m.setOpen(&popup{anchor: prev, content: prevContent})
	} else {
		m.setOpen(nil)
	}

	if len(markers) > 0 {
		fc.BBox = geojson.NewBBox(bound)
	}
	fc.ExtraMembers = geojson.Properties{
		"container": m.containerID,
		"viewport":  m.Viewport(),
	}
	return fc
}

// Marker implements bootstrap.Marker.
type Marker struct {
	opts bootstrap.MarkerOptions

	mu       sync.Mutex
	handlers []func()
}

// Position implements bootstrap.Marker.
func (mk *Marker) Position() domain.GeoPoint { return mk.opts.Position }

// Title is the marker's hover title.
func (mk *Marker) Title() string { return mk.opts.Title }

// OnClick implements bootstrap.Marker.
func (mk *Marker) OnClick(handler func()) {
	mk.mu.Lock()
	mk.handlers = append(mk.handlers, handler)
	mk.mu.Unlock()
}

// Click runs the click handlers.
func (mk *Marker) Click() {
	mk.mu.Lock()
	handlers := make([]func(), len(mk.handlers))
	copy(handlers, mk.handlers)
	mk.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

// InfoWindow implements bootstrap.InfoWindow. One window is shared by all
// markers of a map, so opening it on one marker moves it off the previous.
type InfoWindow struct {
	mu          sync.Mutex
	content     string
	shouldFocus bool
	opens       int
}

// SetContent implements bootstrap.InfoWindow.
func (w *InfoWindow) SetContent(html string) {
	w.mu.Lock()
	w.content = html
	w.mu.Unlock()
}

// Open implements bootstrap.InfoWindow.
func (w *InfoWindow) Open(anchor bootstrap.Marker, m bootstrap.Map, shouldFocus bool) {
	w.mu.Lock()
	w.shouldFocus = shouldFocus
	w.opens++
	content := w.content
	w.mu.Unlock()

	gm, ok := m.(*Map)
	if !ok {
		return
	}
	mk, _ := anchor.(*Marker)
	gm.setOpen(&popup{anchor: mk, content: content})
}

// Content is the current content.
func (w *InfoWindow) Content() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.content
}

// LastShouldFocus is the focus flag of the most recent Open.
func (w *InfoWindow) LastShouldFocus() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shouldFocus
}

// Opens counts Open calls.
func (w *InfoWindow) Opens() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opens
}
