package bootstrap_test

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"

	"github.com/samirrijal/multimap/internal/bootstrap"
	"github.com/samirrijal/multimap/internal/core/domain"
)

// ---- Fake map library ----

type fakeElement string

func (e fakeElement) ID() string { return string(e) }

type fakeDoc struct {
	ids map[string]bool
}

func newDoc(ids ...string) *fakeDoc {
	d := &fakeDoc{ids: make(map[string]bool)}
	for _, id := range ids {
		d.ids[id] = true
	}
	return d
}

func (d *fakeDoc) ElementByID(id string) (bootstrap.Element, bool) {
	if d.ids[id] {
		return fakeElement(id), true
	}
	return nil, false
}

type fitCall struct {
	bounds  orb.Bound
	padding int
}

type fakeMap struct {
	container string
	opts      bootstrap.MapOptions
	markers   []*fakeMarker
	fits      []fitCall
}

func (m *fakeMap) AddMarker(opts bootstrap.MarkerOptions) bootstrap.Marker {
	mk := &fakeMarker{opts: opts}
	m.markers = append(m.markers, mk)
	return mk
}

func (m *fakeMap) FitBounds(b orb.Bound, padding int) {
	m.fits = append(m.fits, fitCall{bounds: b, padding: padding})
}

type fakeMarker struct {
	opts    bootstrap.MarkerOptions
	onClick func()
}

func (mk *fakeMarker) Position() domain.GeoPoint { return mk.opts.Position }
func (mk *fakeMarker) OnClick(h func())          { mk.onClick = h }

type openCall struct {
	anchor      bootstrap.Marker
	m           bootstrap.Map
	shouldFocus bool
	content     string
}

type fakeInfoWindow struct {
	content string
	opens   []openCall
}

func (w *fakeInfoWindow) SetContent(html string) { w.content = html }
func (w *fakeInfoWindow) Open(anchor bootstrap.Marker, m bootstrap.Map, shouldFocus bool) {
	w.opens = append(w.opens, openCall{anchor: anchor, m: m, shouldFocus: shouldFocus, content: w.content})
}

type fakeLib struct {
	loaded  atomic.Bool
	failMap bool

	mu      sync.Mutex
	maps    []*fakeMap
	windows []*fakeInfoWindow
	order   []string
}

func (l *fakeLib) Loaded() bool { return l.loaded.Load() }

func (l *fakeLib) NewMap(c bootstrap.Element, opts bootstrap.MapOptions) (bootstrap.Map, error) {
	if l.failMap {
		return nil, errors.New("engine crashed")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	m := &fakeMap{container: c.ID(), opts: opts}
	l.maps = append(l.maps, m)
	l.order = append(l.order, c.ID())
	return m, nil
}

func (l *fakeLib) NewInfoWindow() bootstrap.InfoWindow {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := &fakeInfoWindow{}
	l.windows = append(l.windows, w)
	return w
}

func (l *fakeLib) initialized() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// ---- Descriptor helpers ----

func descriptor(id string, pins ...domain.Pin) *domain.MapInstanceDescriptor {
	if pins == nil {
		pins = []domain.Pin{}
	}
	return &domain.MapInstanceDescriptor{InstanceID: domain.InstanceID(id), Pins: pins}
}

func pin(name string, lat, lng float64) domain.Pin {
	return domain.Pin{Name: name, Lat: lat, Lng: lng, HTML: "<h1>" + name + "</h1>"}
}
