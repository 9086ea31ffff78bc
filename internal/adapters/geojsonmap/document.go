package geojsonmap

import (
	"strings"
	"sync"

	"github.com/samirrijal/multimap/internal/bootstrap"
	"github.com/samirrijal/multimap/internal/core/domain"
)

type element string

func (e element) ID() string { return string(e) }

// Document implements bootstrap.Document.
type Document struct {
	acceptAll bool

	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewDocument returns a document containing exactly the given element ids.
func NewDocument(ids ...string) *Document {
	d := &Document{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		d.ids[id] = struct{}{}
	}
	return d
}

// AcceptAll returns a document that has a container for every instance.
func AcceptAll() *Document {
	d := NewDocument()
	d.acceptAll = true
	return d
}

// Add inserts an element.
func (d *Document) Add(id string) {
	d.mu.Lock()
	d.ids[id] = struct{}{}
	d.mu.Unlock()
}

// ElementByID implements bootstrap.Document.
func (d *Document) ElementByID(id string) (bootstrap.Element, bool) {
	if d.acceptAll && strings.HasPrefix(id, domain.ContainerIDPrefix) {
		return element(id), true
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.ids[id]; ok {
		return element(id), true
	}
	return nil, false
}
