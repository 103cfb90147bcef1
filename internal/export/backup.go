package export

import (
	"encoding/json"
	"fmt"
	"os"

	"oposita/internal/store"
)

// WriteBackup serializes a snapshot to path as pretty-printed JSON.
func WriteBackup(snap *store.Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}
	return nil
}

// ReadBackup parses a backup file. The snapshot is validated so a bad file
// is rejected here, before any store mutation.
func ReadBackup(path string) (*store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup file: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse backup file: %w", err)
	}
	if !snap.Valid() {
		return nil, fmt.Errorf("%w: missing topics and studySessions", store.ErrInvalidSnapshot)
	}
	return &snap, nil
}
