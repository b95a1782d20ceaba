package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang-market-calendar/internal/entity"
	"golang-market-calendar/pkg/logger"
)

// WatchlistRepository persists the user's watchlist as a local JSON array.
// The file is user-local state and is excluded from version control.
type WatchlistRepository interface {
	List() ([]entity.WatchlistEntry, error)
	Replace(entries []entity.WatchlistEntry) error
}

type watchlistRepository struct {
	path string
	log  *logger.Logger
}

// NewWatchlistRepository creates a file-backed watchlist store.
func NewWatchlistRepository(path string, log *logger.Logger) WatchlistRepository {
	return &watchlistRepository{path: path, log: log}
}

// List reads the watchlist, dropping entries that no longer normalize. A
// missing file is an empty watchlist, not an error.
func (r *watchlistRepository) List() ([]entity.WatchlistEntry, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []entity.WatchlistEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read watchlist file: %w", err)
	}

	var raw []entity.WatchlistEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse watchlist file: %w", err)
	}

	entries := make([]entity.WatchlistEntry, 0, len(raw))
	for _, item := range raw {
		normalized, ok := item.Normalize()
		if !ok {
			r.log.Warn("Skipping invalid watchlist entry",
				logger.StringField("name", item.Name),
				logger.StringField("code", item.Code),
			)
			continue
		}
		entries = append(entries, normalized)
	}
	return entries, nil
}

// Replace writes the whole watchlist via temp-then-rename so a crash
// mid-write cannot corrupt the file.
func (r *watchlistRepository) Replace(entries []entity.WatchlistEntry) error {
	return writeFileAtomic(r.path, entries)
}

func writeFileAtomic(path string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
