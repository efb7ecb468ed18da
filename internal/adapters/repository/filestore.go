package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/postura/internal/domain/posture"
	"github.com/okian/postura/pkg/metrics"
)

// Default location of the calibration record, relative to the user's home.
const defaultBaselineFile = ".postura/calibration.json"

// dirPerm is the mode for the record's parent directory.
const dirPerm = 0o755

// FileStore implements Store on a flat JSON file: a single object mapping
// metric name to float. Overwrites go through a temp file plus rename so a
// failed write cannot corrupt a previously valid record.
type FileStore struct {
	path string
}

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithPath sets the calibration record location.
func WithPath(path string) Option {
	return func(s *FileStore) {
		if path != "" {
			s.path = path
		}
	}
}

// NewFileStore creates a file-backed baseline store.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		path: defaultPath(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func defaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to the working directory; overridable via WithPath.
		return defaultBaselineFile
	}
	return filepath.Join(home, defaultBaselineFile)
}

// Path returns the record location.
func (s *FileStore) Path() string {
	return s.path
}

// Save atomically replaces the stored baseline.
func (s *FileStore) Save(ctx context.Context, baseline posture.Metrics) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}

	data, err := json.MarshalIndent(baseline, "", "  ")
	if err != nil {
		metrics.RecordBaselineSaveError()
		return fmt.Errorf("encode baseline: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		metrics.RecordBaselineSaveError()
		return fmt.Errorf("create baseline dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "calibration-*.tmp")
	if err != nil {
		metrics.RecordBaselineSaveError()
		return fmt.Errorf("create temp baseline: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		metrics.RecordBaselineSaveError()
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		metrics.RecordBaselineSaveError()
		return fmt.Errorf("close baseline: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		metrics.RecordBaselineSaveError()
		return fmt.Errorf("replace baseline: %w", err)
	}

	metrics.RecordBaselineSave()
	return nil
}

// Load returns the stored baseline, or ErrNotCalibrated when the record is
// missing or unreadable. A corrupt file is left in place for inspection;
// the next calibration overwrites it.
func (s *FileStore) Load(ctx context.Context) (posture.Metrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCalibrated
		}
		// Unreadable is reported the same as absent; the caller's only
		// recourse either way is recalibration.
		metrics.RecordBaselineLoadError()
		return nil, fmt.Errorf("%w: %v", ErrNotCalibrated, err)
	}

	var baseline posture.Metrics
	if err := json.Unmarshal(data, &baseline); err != nil {
		metrics.RecordBaselineLoadError()
		return nil, fmt.Errorf("%w: corrupt record: %v", ErrNotCalibrated, err)
	}
	if len(baseline) == 0 {
		return nil, ErrNotCalibrated
	}
	return baseline, nil
}
