package storage

import (
	"context"
	"encoding/json"
	"os"
	"time"
)

// JSONStore persists snapshots to a single JSON file. Writes go to a
// temp file first and are renamed into place, so a crash mid-write never
// corrupts the previous snapshot.
type JSONStore struct {
	path string
}

// NewJSONStore creates a file-backed store at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Save writes the snapshot atomically.
func (s *JSONStore) Save(_ context.Context, snap Snapshot) error {
	snap.Meta.Storage = "json_snapshot"
	snap.Meta.Version = 1
	snap.Meta.Timestamp = time.Now().UTC()

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the snapshot back. Callers decide what a missing file means;
// os.IsNotExist on the returned error distinguishes first boot from a
// broken file.
func (s *JSONStore) Load(_ context.Context) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(s.path)
	if err != nil {
		return snap, err
	}
	defer f.Close()
	err = json.NewDecoder(f).Decode(&snap)
	return snap, err
}
