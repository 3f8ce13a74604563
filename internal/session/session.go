// Package session holds the per-run key-value state shared by pipeline
// stages. Each well-known key has a single owning stage; a stage may not
// overwrite a key it does not own. The pipeline is sequential, but the state
// is mutex-guarded so a parallelized caller does not corrupt the maps.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Well-known state keys and the stages that own them.
const (
	KeyOrderID        = "order_id"
	KeyTheme          = "theme"
	KeySlug           = "slug"
	KeyProductType    = "product_type"
	KeyOccasion       = "occasion"
	KeyAestheticGuide = "aesthetic_guide"
	KeyOrderResult    = "order_result"
	KeyPayload        = "payload"
	KeySlideMapping   = "slide_mapping_result"
	KeyNavigation     = "navigation_graph_result"
	KeyWireframes     = "wireframe_result"
	KeyStoryboard     = "storyboard_result"
	KeyAssets         = "asset_manager_result"
	KeyCoding         = "coding_result"
	KeyPublisher      = "publisher_result"
)

var (
	// ErrKeyOwned is returned when a stage writes a key owned by another stage.
	ErrKeyOwned = errors.New("session: key owned by another stage")

	// ErrMissingKey is returned when required upstream state is absent.
	ErrMissingKey = errors.New("session: required key absent")
)

// State is the per-run context object. It is created at run start, populated
// incrementally by each stage, and discarded when the run ends.
type State struct {
	runID   string
	started time.Time

	mu     sync.RWMutex
	values map[string]any
	owners map[string]string
}

// New creates an empty State with a fresh run ID.
func New() *State {
	return &State{
		runID:   uuid.NewString(),
		started: time.Now(),
		values:  make(map[string]any),
		owners:  make(map[string]string),
	}
}

// RunID returns the run identifier.
func (s *State) RunID() string { return s.runID }

// Started returns the run creation time.
func (s *State) Started() time.Time { return s.started }

// Set stores value under key on behalf of owner. The first writer of a key
// becomes its owner; overwrites by the same owner are last-write-wins, writes
// by any other owner fail with ErrKeyOwned.
func (s *State) Set(owner, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.owners[key]; ok && existing != owner {
		return fmt.Errorf("%w: %q is owned by %q, write attempted by %q",
			ErrKeyOwned, key, existing, owner)
	}
	s.owners[key] = owner
	s.values[key] = value
	return nil
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Require returns the value stored under key or ErrMissingKey. Stages use it
// for upstream state they cannot proceed without.
func (s *State) Require(key string) (any, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	return v, nil
}

// String returns the value under key as a string. Missing keys and
// non-string values yield an error.
func (s *State) String(key string) (string, error) {
	v, err := s.Require(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("session: key %q holds %T, not string", key, v)
	}
	return str, nil
}

// Owner reports which stage owns key, if any.
func (s *State) Owner(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[key]
	return owner, ok
}

// Keys returns all populated keys. Order is unspecified.
func (s *State) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}
