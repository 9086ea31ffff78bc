package bootstrap

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/samirrijal/multimap/internal/pkg/metrics"
)

// DefaultPollInterval is how often the library is probed.
const DefaultPollInterval = 100 * time.Millisecond

// ErrLibraryNotReady is returned when polling gave up before the library loaded.
var ErrLibraryNotReady = errors.New("map library not ready")

// ReadyWatcher polls a probe until it reports the library as loaded and then
// resolves exactly once. By default it polls at a fixed interval forever.
type ReadyWatcher struct {
	probe       func() bool
	interval    time.Duration
	maxAttempts uint64
	exponential bool

	startOnce sync.Once
	ready     chan struct{}
	done      chan struct{}
	err       error
}

// WatcherOption configures a ReadyWatcher.
type WatcherOption func(*ReadyWatcher)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *ReadyWatcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithMaxAttempts bounds the number of probes. 0 means unbounded.
func WithMaxAttempts(n int) WatcherOption {
	return func(w *ReadyWatcher) {
		if n > 0 {
			w.maxAttempts = uint64(n)
		}
	}
}

// WithExponentialBackoff grows the interval between probes instead of
// keeping it fixed.
func WithExponentialBackoff() WatcherOption {
	return func(w *ReadyWatcher) { w.exponential = true }
}

// NewReadyWatcher creates a watcher for probe. Call Start to begin polling.
func NewReadyWatcher(probe func() bool, opts ...WatcherOption) *ReadyWatcher {
	w := &ReadyWatcher{
		probe:    probe,
		interval: DefaultPollInterval,
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WatchLibrary is a watcher probing lib.Loaded.
func WatchLibrary(lib MapLibrary, opts ...WatcherOption) *ReadyWatcher {
	return NewReadyWatcher(lib.Loaded, opts...)
}

// Start begins polling in the background. Later calls do nothing.
// Polling stops when ctx is cancelled.
func (w *ReadyWatcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.poll(ctx)
	})
}

// Ready is closed once the library has loaded.
func (w *ReadyWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Wait starts the watcher if needed and blocks until the library is ready,
// polling gives up, or ctx is done.
func (w *ReadyWatcher) Wait(ctx context.Context) error {
	w.Start(ctx)
	select {
	case <-w.ready:
		return nil
	case <-w.done:
		select {
		case <-w.ready:
			return nil
		default:
		}
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ReadyWatcher) poll(ctx context.Context) {
	defer close(w.done)

	op := func() error {
		metrics.LibraryReadyPolls.Inc()
		if w.probe() {
			return nil
		}
		return ErrLibraryNotReady
	}

	err := backoff.Retry(op, w.policy(ctx))
	if err == nil {
		close(w.ready)
		return
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		w.err = ctxErr
		return
	}
	w.err = err
}

func (w *ReadyWatcher) policy(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if w.exponential {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = w.interval
		eb.MaxElapsedTime = 0
		b = eb
	} else {
		b = backoff.NewConstantBackOff(w.interval)
	}
	if w.maxAttempts > 0 {
		// WithMaxRetries counts retries after the first attempt.
		b = backoff.WithMaxRetries(b, w.maxAttempts-1)
	}
	return backoff.WithContext(b, ctx)
}
