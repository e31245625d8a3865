package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/minerdash/minerdash/internal/levels"
	"gopkg.in/yaml.v3"
)

const stateVersion = 1

// stateFile is the on-disk form of the level table
type stateFile struct {
	Version  int               `yaml:"version"`
	Revision uint64            `yaml:"revision"`
	Levels   map[string]string `yaml:"levels"`
}

var stateMutex sync.Mutex

// LoadState reads persisted levels. A missing file yields the catalog
// defaults at revision 0. Subsystems absent from the file keep their
// defaults.
func LoadState(path string) (levels.State, uint64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return levels.Defaults(), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read state file: %w", err)
	}

	var f stateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("failed to parse state file: %w", err)
	}
	if f.Version != stateVersion {
		return nil, 0, fmt.Errorf("unsupported state version: %d (expected %d)", f.Version, stateVersion)
	}

	overrides := make(map[string]levels.Level, len(f.Levels))
	for key, name := range f.Levels {
		l, err := levels.Parse(name)
		if err != nil {
			return nil, 0, fmt.Errorf("state file: subsystem %q: %w", key, err)
		}
		overrides[key] = l
	}

	state, err := levels.Defaults().Merge(overrides)
	if err != nil {
		return nil, 0, fmt.Errorf("state file: %w", err)
	}
	return state, f.Revision, nil
}

// SaveState writes the level table atomically
func SaveState(path string, state levels.State, revision uint64) error {
	stateMutex.Lock()
	defer stateMutex.Unlock()

	f := stateFile{
		Version:  stateVersion,
		Revision: revision,
		Levels:   make(map[string]string, len(state)),
	}
	for key, l := range state {
		f.Levels[key] = l.String()
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	header := []byte("# minerdash log levels, written by the backend on every change\n")
	data = append(header, data...)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save state file: %w", err)
	}
	return nil
}
