package sandbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/codeplay/internal/clock"
	"github.com/conneroisu/codeplay/internal/errors"
)

// ContentTypeHTML is the type every published document is stored with.
const ContentTypeHTML = "text/html; charset=utf-8"

// PathPrefix is where handles are served.
const PathPrefix = "/sandbox/"

// Handle names a stored resource.
type Handle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Resource is a stored document.
type Resource struct {
	ContentType string
	Body        []byte
	Created     time.Time
}

// ResourceStore mints handles for documents and frees them on release.
type ResourceStore interface {
	Put(ctx context.Context, contentType string, body []byte) (Handle, error)
	Get(id string) (Resource, bool)
	// Release frees id. Unknown ids are ignored.
	Release(id string)
	// Len returns the number of unreleased handles.
	Len() int
}

// MemoryStore keeps resources in memory keyed by random UUIDs.
type MemoryStore struct {
	mutex     sync.RWMutex
	resources map[string]Resource
	clock     clock.Clock
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryStore{
		resources: make(map[string]Resource),
		clock:     clk,
	}
}

func (s *MemoryStore) Put(ctx context.Context, contentType string, body []byte) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, errors.NewSandboxError("STORE_PUT", "storing document", err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Handle{}, errors.NewSandboxError("STORE_PUT", "minting handle", err)
	}

	buf := make([]byte, len(body))
	copy(buf, body)

	s.mutex.Lock()
	s.resources[id.String()] = Resource{
		ContentType: contentType,
		Body:        buf,
		Created:     s.clock.Now(),
	}
	s.mutex.Unlock()

	return Handle{ID: id.String(), URL: PathPrefix + id.String()}, nil
}

func (s *MemoryStore) Get(id string) (Resource, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	r, ok := s.resources[id]
	return r, ok
}

func (s *MemoryStore) Release(id string) {
	s.mutex.Lock()
	delete(s.resources, id)
	s.mutex.Unlock()
}

func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.resources)
}
