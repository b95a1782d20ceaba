package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang-market-calendar/internal/entity"
)

// SnapshotRepository persists the event cache so a restart serves the last
// known good snapshot instead of an empty calendar.
type SnapshotRepository interface {
	Load() (*entity.Snapshot, error)
	Save(snapshot *entity.Snapshot) error
}

type snapshotRepository struct {
	path string
}

// NewSnapshotRepository creates a file-backed snapshot store.
func NewSnapshotRepository(path string) SnapshotRepository {
	return &snapshotRepository{path: path}
}

// Load reads the persisted snapshot. A missing file yields nil, nil.
func (r *snapshotRepository) Load() (*entity.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event cache: %w", err)
	}

	var snapshot entity.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse event cache: %w", err)
	}
	return &snapshot, nil
}

// Save writes the snapshot via temp-then-rename.
func (r *snapshotRepository) Save(snapshot *entity.Snapshot) error {
	return writeFileAtomic(r.path, snapshot)
}
