package artifact

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	runs      map[string]Run
	artifacts map[string][]Record      // run ID -> records in insertion order
	statuses  map[string][]StageStatus // run ID -> statuses
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:      make(map[string]Run),
		artifacts: make(map[string][]Record),
		statuses:  make(map[string][]StageStatus),
	}
}

func (m *MemoryStore) CreateRun(ctx context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("artifact: run %q already exists", run.ID)
	}
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	return &run, nil
}

func (m *MemoryStore) ListRuns(ctx context.Context) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

func (m *MemoryStore) SetRunSlug(ctx context.Context, runID, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	run.Slug = slug
	m.runs[runID] = run
	return nil
}

func (m *MemoryStore) PutArtifact(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := m.artifacts[rec.RunID]
	for i, existing := range records {
		if existing.Name == rec.Name {
			records[i] = rec
			return nil
		}
	}
	m.artifacts[rec.RunID] = append(records, rec)
	return nil
}

func (m *MemoryStore) GetArtifact(ctx context.Context, runID, name string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.artifacts[runID] {
		if rec.Name == name {
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("%w: artifact %q in run %q", ErrNotFound, name, runID)
}

func (m *MemoryStore) ListArtifacts(ctx context.Context, runID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := m.artifacts[runID]
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

func (m *MemoryStore) SetStageStatus(ctx context.Context, st StageStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	statuses := m.statuses[st.RunID]
	for i, existing := range statuses {
		if existing.Stage == st.Stage {
			statuses[i] = st
			return nil
		}
	}
	m.statuses[st.RunID] = append(statuses, st)
	return nil
}

func (m *MemoryStore) StageStatuses(ctx context.Context, runID string) ([]StageStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := m.statuses[runID]
	out := make([]StageStatus, len(statuses))
	copy(out, statuses)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
