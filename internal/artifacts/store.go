// Package artifacts persists the hand-off between pipeline stages so that a
// run can resume from any stage without recomputing upstream work.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot names written by the pipeline stages.
const (
	PricesTrain  = "prices_train"
	PricesTest   = "prices_test"
	Features     = "features"
	Segments     = "segments"
	Scored       = "scored"
	Portfolios   = "portfolios"
	Backtests    = "backtests"
	snapshotExt  = ".msgpack"
	manifestFile = "artifacts_manifest.yaml"
)

// Store reads and writes msgpack snapshots under one directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, log zerolog.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.With().Str("component", "artifacts").Logger(),
	}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path of a snapshot.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+snapshotExt)
}

// Save encodes v to the named snapshot. The file is replaced atomically.
func (s *Store) Save(name string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := s.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to replace %s: %w", path, err)
	}

	s.log.Debug().Str("file", path).Int("bytes", len(data)).Msg("Saved snapshot")
	return path, nil
}

// Load decodes the named snapshot into v. A missing snapshot wraps
// domain.ErrInputNotFound so the caller can name the stage to run first.
func (s *Store) Load(name string, v any) error {
	path := s.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, domain.ErrInputNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Exists reports whether the named snapshot is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}
