package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"orderscraper/internal/models"
)

// Write serializes the collection to path. The file is written to a
// temporary name in the same directory, fsynced and atomically renamed, so
// a re-run overwriting an existing file can never leave partial state.
func Write(collection *models.Collection, path string) error {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling order collection: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting mode on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Load reads a persisted collection back. The dashboard and any outside
// tooling consume the file only through this documented schema.
func Load(path string) (*models.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var collection models.Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &collection, nil
}
