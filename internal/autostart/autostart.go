// Package autostart registers headsetd to start on login: an XDG desktop
// entry on Linux, a Startup folder shortcut on Windows.
package autostart

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// AppName names the autostart entry
const AppName = "headsetd"

// Manager creates and removes the autostart entry
type Manager struct {
	dir  string
	args []string

	executable func() (string, error)
}

// New creates a Manager. An empty dir selects the platform default.
// args are appended to the executable in the entry.
func New(dir string, args ...string) *Manager {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Manager{
		dir:        dir,
		args:       args,
		executable: os.Executable,
	}
}

// Path returns the full path of the autostart entry
func (m *Manager) Path() string {
	return filepath.Join(m.dir, AppName+entryExt)
}

// Enabled reports whether the autostart entry exists
func (m *Manager) Enabled() bool {
	_, err := os.Stat(m.Path())
	return err == nil
}

// Set creates or removes the autostart entry
func (m *Manager) Set(enabled bool) error {
	if !enabled {
		err := os.Remove(m.Path())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove autostart entry: %w", err)
		}
		log.Info().Str("path", m.Path()).Msg("Autostart disabled")
		return nil
	}

	exe, err := m.executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable: %w", err)
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create autostart directory: %w", err)
	}
	if err := writeEntry(m.Path(), exe, m.args); err != nil {
		return fmt.Errorf("failed to write autostart entry: %w", err)
	}

	log.Info().Str("path", m.Path()).Msg("Autostart enabled")
	return nil
}
