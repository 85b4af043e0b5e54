package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrArtifactUnavailable marks a missing or unreadable artifact. Callers
// treat it as "no current model", a normal startup condition, rather than
// a failure.
var ErrArtifactUnavailable = errors.New("model artifact unavailable")

// backupTimestamp is embedded in backup filenames so multiple generations
// can coexist for audit and rollback.
const backupTimestamp = "20060102_150405"

// Store reads and writes serialized artifacts. Writes go through a
// temporary file in the target directory followed by a rename, so a
// reader never observes a partially written artifact.
type Store struct {
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewStore creates an artifact store.
func NewStore(logger *zap.SugaredLogger) *Store {
	return &Store{logger: logger, now: time.Now}
}

// Save writes the artifact to path atomically.
func (s *Store) Save(a *Artifact, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install artifact: %w", err)
	}

	s.logger.Debugw("artifact saved", "path", path, "bytes", len(data))
	return nil
}

// Load reads an artifact. Missing files, unreadable JSON and unsupported
// schema versions all map onto ErrArtifactUnavailable.
func (s *Store) Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrArtifactUnavailable, path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrArtifactUnavailable, path, err)
	}
	if a.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: %s has schema version %d, want %d", ErrArtifactUnavailable, path, a.SchemaVersion, SchemaVersion)
	}
	return &a, nil
}

// Backup renames the file at path to a timestamped sibling and returns
// the backup path. The rename is atomic on the same filesystem.
func (s *Store) Backup(path string) (string, error) {
	backup := s.backupName(path)
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("backup artifact: %w", err)
	}
	s.logger.Infow("artifact backed up", "from", path, "to", backup)
	return backup, nil
}

func (s *Store) backupName(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stamp := s.now().Format(backupTimestamp)

	name := fmt.Sprintf("%s.backup-%s%s", base, stamp, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s.backup-%s.%d%s", base, stamp, n, ext)
	}
}
