// Package sandbox publishes rendered documents to an isolated display
// surface through short-lived resource handles, and can execute a document
// headlessly for the CLI and for tests.
package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/logging"
	"github.com/conneroisu/codeplay/internal/preview"
)

// DefaultReleaseDelay is how long a replaced handle stays loadable.
const DefaultReleaseDelay = time.Second

// Surface displays the document behind a URL. In the browser this is the
// preview iframe; Show must not block.
type Surface interface {
	Show(url string)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(url string)

func (f SurfaceFunc) Show(url string) { f(url) }

type pendingRelease struct {
	handle Handle
	timer  clock.Timer
}

// Host owns the display surface. Each publish swaps the surface to a fresh
// handle and schedules release of the one it replaced. At most one release
// is ever pending, so no more than two handles are unreleased at a time.
type Host struct {
	store   ResourceStore
	surface Surface
	clock   clock.Clock
	delay   time.Duration
	logger  logging.Logger

	mutex   sync.Mutex
	current *Handle
	pending *pendingRelease
}

// HostConfig configures a Host. Zero fields take defaults.
type HostConfig struct {
	ReleaseDelay time.Duration
	Clock        clock.Clock
	Logger       logging.Logger
}

// NewHost creates a host that stores into store and displays on surface.
func NewHost(store ResourceStore, surface Surface, cfg HostConfig) *Host {
	if cfg.ReleaseDelay <= 0 {
		cfg.ReleaseDelay = DefaultReleaseDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Host{
		store:   store,
		surface: surface,
		clock:   cfg.Clock,
		delay:   cfg.ReleaseDelay,
		logger:  cfg.Logger.WithComponent("sandbox"),
	}
}

// Publish stores doc, points the surface at it and schedules release of the
// previously displayed handle.
func (h *Host) Publish(ctx context.Context, doc preview.Document) (Handle, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.pending != nil {
		h.pending.timer.Stop()
		h.store.Release(h.pending.handle.ID)
		h.pending = nil
	}

	handle, err := h.store.Put(ctx, ContentTypeHTML, []byte(doc))
	if err != nil {
		h.logger.Error(ctx, err, "Failed to publish document")
		return Handle{}, err
	}

	if h.surface != nil {
		h.surface.Show(handle.URL)
	}

	if h.current != nil {
		old := *h.current
		h.pending = &pendingRelease{
			handle: old,
			timer: h.clock.AfterFunc(h.delay, func() {
				h.release(old.ID)
			}),
		}
	}
	h.current = &handle

	h.logger.Debug(ctx, "Published document", "handle", handle.ID, "bytes", len(doc))
	return handle, nil
}

func (h *Host) release(id string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.pending == nil || h.pending.handle.ID != id {
		return
	}
	h.store.Release(id)
	h.pending = nil
}

// Current returns the displayed handle, if any.
func (h *Host) Current() (Handle, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.current == nil {
		return Handle{}, false
	}
	return *h.current, true
}

// Unreleased returns how many handles the store still holds.
func (h *Host) Unreleased() int {
	return h.store.Len()
}

// Close releases every handle the host still owns.
func (h *Host) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.pending != nil {
		h.pending.timer.Stop()
		h.store.Release(h.pending.handle.ID)
		h.pending = nil
	}
	if h.current != nil {
		h.store.Release(h.current.ID)
		h.current = nil
	}
}
