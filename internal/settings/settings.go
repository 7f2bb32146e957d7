// Package settings persists the user-adjustable settings as a JSON file and
// applies user intents to them.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/presentation"
)

// Value ranges
const (
	MinThreshold = 0
	MaxThreshold = 100
	MinSidetone  = 0
	MaxSidetone  = 128
)

// Settings are the persisted user settings
type Settings struct {
	LedEnabled            bool               `json:"led_state"`
	LightThreshold        int                `json:"light_battery_threshold"`
	NotificationThreshold int                `json:"notification_battery_threshold"`
	Sidetone              int                `json:"sidetone"`
	Theme                 presentation.Theme `json:"theme"`
}

// Defaults returns the first-run settings
func Defaults() Settings {
	return Settings{
		LedEnabled:            true,
		LightThreshold:        20,
		NotificationThreshold: 20,
		Sidetone:              0,
		Theme:                 presentation.ThemeSystem,
	}
}

// normalize clamps out-of-range values read from disk
func (s Settings) normalize() Settings {
	s.LightThreshold = clamp(s.LightThreshold, MinThreshold, MaxThreshold)
	s.NotificationThreshold = clamp(s.NotificationThreshold, MinThreshold, MaxThreshold)
	s.Sidetone = clamp(s.Sidetone, MinSidetone, MaxSidetone)
	if !s.Theme.Valid() {
		s.Theme = presentation.ThemeSystem
	}
	return s
}

// Store reads and writes the settings file
type Store struct {
	path string
}

// NewStore creates a store for the given file path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. Keys missing from the file keep their
// default values. When the file does not exist, defaults are written.
// On any error the returned settings are still usable.
func (s *Store) Load() (Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", s.path).Msg("Settings file not found, creating defaults")
		return settings, s.Save(settings)
	}
	if err != nil {
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings: %w", err)
	}

	return settings.normalize(), nil
}

// Save rewrites the whole settings file
func (s *Store) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	log.Debug().Str("path", s.path).Msg("Settings saved")
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
