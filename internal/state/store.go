package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"siphon/source/mqtt"
)

// Store persists the last emitted checkpoint between engine runs so a
// restart resumes where the previous stream left off.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

// Load returns the saved checkpoint, or nil when none exists yet.
func (s *Store) Load() (*mqtt.Checkpoint, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cp mqtt.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("state: corrupt checkpoint file %s: %w", s.path, err)
	}
	return &cp, nil
}

// Save writes the checkpoint atomically: temp file in the same
// directory, then rename.
func (s *Store) Save(cp mqtt.Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
