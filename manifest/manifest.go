// Package manifest handles secd.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a secd.toml project configuration.
type Manifest struct {
	Machine MachineConfig `toml:"machine"`
	Program ProgramConfig `toml:"program"`

	// Dir is the directory containing the secd.toml file (set at load time).
	Dir string `toml:"-"`
}

// MachineConfig configures the machine instance.
type MachineConfig struct {
	// Cells is a capacity hint for the heap arena; the arena still grows
	// past it on demand.
	Cells int  `toml:"cells"`
	Trace bool `toml:"trace"`
}

// ProgramConfig configures program input.
type ProgramConfig struct {
	// Entry is the program file run when the CLI gets no path arguments.
	Entry string `toml:"entry"`
}

// DefaultCells is the heap capacity hint used when the manifest does not
// set one.
const DefaultCells = 1024

// Load parses a secd.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "secd.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Machine.Cells <= 0 {
		m.Machine.Cells = DefaultCells
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a secd.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "secd.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the configured entry program, or
// "" if none is configured.
func (m *Manifest) EntryPath() string {
	if m.Program.Entry == "" {
		return ""
	}
	if filepath.IsAbs(m.Program.Entry) {
		return m.Program.Entry
	}
	return filepath.Join(m.Dir, m.Program.Entry)
}
