package history

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Veerbhadra0524/lumina/internal/models"
)

const cacheFile = "history.yaml"

// Cache persists the history list between runs so the sidebar can render
// immediately at startup.
type Cache struct {
	path string
}

// NewCache creates a cache rooted in the given directory.
func NewCache(cacheDir string) *Cache {
	return &Cache{path: filepath.Join(cacheDir, cacheFile)}
}

type snapshot struct {
	Entries []models.HistoryEntry `yaml:"entries"`
}

// Load reads the last persisted list.
func (c *Cache) Load() ([]models.HistoryEntry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("reading history cache: %w", err)
	}
	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing history cache: %w", err)
	}
	return snap.Entries, nil
}

// Save replaces the persisted list.
func (c *Cache) Save(entries []models.HistoryEntry) error {
	data, err := yaml.Marshal(snapshot{Entries: entries})
	if err != nil {
		return fmt.Errorf("encoding history cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("writing history cache: %w", err)
	}
	return nil
}
