package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samirrijal/multimap/internal/core/domain"
	"github.com/samirrijal/multimap/internal/pkg/metrics"
)

// State is the lifecycle state of a Bootstrapper.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// InitializedFunc is called after a map was drawn for desc.
type InitializedFunc func(ctx context.Context, desc *domain.MapInstanceDescriptor, m Map)

// Bootstrapper queues descriptors until the map library is ready and then
// initializes each of them exactly once, in submission order. After the
// transition to Ready, submissions are initialized immediately.
// Initializations never run concurrently.
type Bootstrapper struct {
	lib    MapLibrary
	doc    Document
	logger *slog.Logger
	onInit InitializedFunc

	mu    sync.Mutex
	state State
	queue []*domain.MapInstanceDescriptor
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithLogger sets the logger used for initialization failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bootstrapper) { b.logger = l }
}

// WithOnInitialized registers a hook called after every successful
// initialization. The hook runs while initializations are serialized and
// must not call back into the Bootstrapper.
func WithOnInitialized(fn InitializedFunc) Option {
	return func(b *Bootstrapper) { b.onInit = fn }
}

// New creates a Bootstrapper in the Uninitialized state.
func New(lib MapLibrary, doc Document, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		lib:    lib,
		doc:    doc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state.
func (b *Bootstrapper) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Pending returns the number of queued descriptors.
func (b *Bootstrapper) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Submit initializes desc now when Ready, otherwise queues it.
func (b *Bootstrapper) Submit(ctx context.Context, desc *domain.MapInstanceDescriptor) {
	if desc == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Ready {
		b.queue = append(b.queue, desc)
		metrics.BootstrapQueueDepth.Inc()
		return
	}
	b.initialize(ctx, desc)
}

// MarkReady moves to Ready and drains the queue in FIFO order. Only the
// first call has any effect; it reports whether this call made the transition.
func (b *Bootstrapper) MarkReady(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Ready {
		return false
	}
	b.state = Ready

	pending := b.queue
	b.queue = nil
	metrics.BootstrapQueueDepth.Sub(float64(len(pending)))

	for _, desc := range pending {
		b.initialize(ctx, desc)
	}
	return true
}

// Run waits for the watcher to report the library ready and then calls
// MarkReady. It returns the watcher's error when the library never loads.
func (b *Bootstrapper) Run(ctx context.Context, w *ReadyWatcher) error {
	if err := w.Wait(ctx); err != nil {
		return err
	}
	b.MarkReady(ctx)
	return nil
}

// initialize must be called with mu held.
func (b *Bootstrapper) initialize(ctx context.Context, desc *domain.MapInstanceDescriptor) {
	m, err := InitializeMap(ctx, b.lib, b.doc, desc)
	if err != nil {
		result := "error"
		if errors.Is(err, ErrContainerNotFound) {
			result = "missing_container"
		}
		metrics.MapsInitialized.WithLabelValues(result).Inc()
		b.logger.Warn("map not initialized", "instance_id", string(desc.InstanceID), "error", err)
		return
	}
	metrics.MapsInitialized.WithLabelValues("ok").Inc()
	if b.onInit != nil {
		b.onInit(ctx, desc, m)
	}
}
