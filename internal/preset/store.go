// Package preset provides the on-disk library of ready-made run
// configurations.
//
// A preset is a *.conf file in the configured directory holding a run
// configuration in the same JSON schema the start endpoints accept. The
// store is read-only; presets are managed by editing files.
package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nerrad567/relay-sequencer/internal/schedule"
)

// Sentinel errors for preset operations.
var (
	// ErrNotFound is returned when no preset file matches the requested name.
	ErrNotFound = errors.New("preset: not found")

	// ErrInvalidName is returned for names that could escape the preset
	// directory.
	ErrInvalidName = errors.New("preset: invalid name")
)

// Preset describes one entry in the library.
type Preset struct {
	// Name is the file name without the .conf extension.
	Name string `json:"name"`

	// Description is taken from the run configuration inside the file.
	Description string `json:"description"`

	// Channels is the number of channels the preset drives.
	Channels int `json:"channels"`
}

// Store reads presets from a directory.
type Store struct {
	dir string
}

// NewStore creates a store over the given directory. The directory does
// not need to exist; a missing directory behaves as an empty library.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns all parseable presets sorted by name.
//
// Files that fail to parse are skipped rather than failing the whole
// listing; a malformed preset should not hide the valid ones.
func (s *Store) List() ([]Preset, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Preset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading preset directory: %w", err)
	}

	presets := []Preset{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".conf") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".conf")
		cfg, err := s.Load(name)
		if err != nil {
			continue
		}

		presets = append(presets, Preset{
			Name:        name,
			Description: cfg.Description,
			Channels:    len(cfg.Channels),
		})
	}

	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})

	return presets, nil
}

// Load reads and validates one preset by name.
//
// Returns:
//   - *schedule.RunConfig: The parsed run configuration
//   - error: ErrInvalidName for unsafe names, ErrNotFound if the file does
//     not exist, or a schedule parse error for malformed content.
func (s *Store) Load(name string) (*schedule.RunConfig, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+".conf"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading preset %q: %w", name, err)
	}

	cfg, err := schedule.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing preset %q: %w", name, err)
	}

	return cfg, nil
}
