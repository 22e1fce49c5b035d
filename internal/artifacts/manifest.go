package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// StageRecord describes the last successful run of one stage.
type StageRecord struct {
	RunID       string    `yaml:"run_id"`
	CompletedAt time.Time `yaml:"completed_at"`
	DurationMs  int64     `yaml:"duration_ms"`
	Files       []string  `yaml:"files"`
	Records     int       `yaml:"records"`
}

// Manifest indexes what every stage produced.
type Manifest struct {
	RunID     string                 `yaml:"run_id"`
	UpdatedAt time.Time              `yaml:"updated_at"`
	Stages    map[string]StageRecord `yaml:"stages"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// ManifestPath returns the manifest location inside the store.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.dir, manifestFile)
}

// LoadManifest reads the manifest, returning an empty one if none exists yet.
func (s *Store) LoadManifest() (*Manifest, error) {
	m := &Manifest{Stages: make(map[string]StageRecord)}
	data, err := os.ReadFile(s.ManifestPath())
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Stages == nil {
		m.Stages = make(map[string]StageRecord)
	}
	return m, nil
}

// RecordStage stores rec under stage and rewrites the manifest.
func (s *Store) RecordStage(runID, stage string, rec StageRecord) error {
	m, err := s.LoadManifest()
	if err != nil {
		return err
	}
	sort.Strings(rec.Files)
	rec.RunID = runID
	m.RunID = runID
	m.UpdatedAt = rec.CompletedAt
	m.Stages[stage] = rec

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	if err := os.WriteFile(s.ManifestPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
