package service

import (
	"sync"

	"golang-market-calendar/internal/entity"
)

// SnapshotStore holds the current published snapshot. Snapshots are built
// off to the side and published by a single reference swap, so readers never
// see a half-written one.
type SnapshotStore struct {
	mu      sync.RWMutex
	current *entity.Snapshot
}

// NewSnapshotStore creates a store holding an empty snapshot.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		current: &entity.Snapshot{
			Events:      []entity.Event{},
			BySource:    map[string][]entity.Event{},
			SourceStats: map[string]entity.SourceStat{},
		},
	}
}

// Get returns the last fully committed snapshot.
func (s *SnapshotStore) Get() *entity.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set publishes a new snapshot.
func (s *SnapshotStore) Set(snapshot *entity.Snapshot) {
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()
}
