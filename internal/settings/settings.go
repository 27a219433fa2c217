// Package settings holds the overlay's user-facing settings and their
// TOML store.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ToolbarPosition is where the sketch toolbar is drawn.
type ToolbarPosition string

// Toolbar positions.
const (
	ToolbarTop    ToolbarPosition = "top"
	ToolbarBottom ToolbarPosition = "bottom"
)

// Valid reports whether p is a known position.
func (p ToolbarPosition) Valid() bool {
	return p == ToolbarTop || p == ToolbarBottom
}

// Exit prompt timeout bounds, in seconds.
const (
	MinExitTimeoutSeconds     = 5
	MaxExitTimeoutSeconds     = 3600
	DefaultExitTimeoutSeconds = 120
)

// DefaultPenGlyph is drawn for each inked cell.
const DefaultPenGlyph = "█"

// DefaultPalette is the quick color list, as lipgloss color strings.
var DefaultPalette = []string{
	"#FFFFFF",
	"#000000",
	"#FF4040",
	"#FFAB00",
	"#FFE640",
	"#3DDC84",
	"#00A8FF",
	"#B466FF",
}

// Settings configures the sketch overlay.
type Settings struct {
	PenGlyph           string          `toml:"pen_glyph"`
	Palette            []string        `toml:"palette"`
	ColorIndex         int             `toml:"color_index"`
	ToolbarPosition    ToolbarPosition `toml:"toolbar_position"`
	ToolbarCollapsed   bool            `toml:"toolbar_collapsed"`
	ExitTimeoutSeconds int             `toml:"exit_timeout_seconds"`
	ExportDir          string          `toml:"export_dir"`
	OfferSave          bool            `toml:"offer_save"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		PenGlyph:           DefaultPenGlyph,
		Palette:            slices.Clone(DefaultPalette),
		ToolbarPosition:    ToolbarTop,
		ExitTimeoutSeconds: DefaultExitTimeoutSeconds,
		OfferSave:          true,
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.Palette = slices.Clone(s.Palette)
	return s
}

// ExitTimeout is how long the exit prompt waits before discarding.
func (s Settings) ExitTimeout() time.Duration {
	return time.Duration(s.ExitTimeoutSeconds) * time.Second
}

// Color returns the selected palette entry.
func (s Settings) Color() string {
	if s.ColorIndex < 0 || s.ColorIndex >= len(s.Palette) {
		return DefaultPalette[0]
	}
	return s.Palette[s.ColorIndex]
}

// Sanitize clamps every field into its valid range in place.
func (s *Settings) Sanitize() {
	def := Default()
	if strings.TrimSpace(s.PenGlyph) == "" {
		s.PenGlyph = def.PenGlyph
	}
	palette := s.Palette[:0:0]
	for _, c := range s.Palette {
		if c = strings.TrimSpace(c); c != "" {
			palette = append(palette, c)
		}
	}
	if len(palette) == 0 {
		palette = def.Palette
	}
	s.Palette = palette
	if s.ColorIndex < 0 || s.ColorIndex >= len(s.Palette) {
		s.ColorIndex = 0
	}
	if !s.ToolbarPosition.Valid() {
		s.ToolbarPosition = def.ToolbarPosition
	}
	s.ExitTimeoutSeconds = min(max(s.ExitTimeoutSeconds, MinExitTimeoutSeconds), MaxExitTimeoutSeconds)
}

// Sanitized returns a sanitized copy.
func (s Settings) Sanitized() Settings {
	out := s.Clone()
	out.Sanitize()
	return out
}

// Load reads settings from path. A missing or blank file yields the
// defaults; keys absent from the file keep their default values.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return Default(), nil
	}

	var s Settings
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return Settings{}, fmt.Errorf("parse settings file %s: %w", path, err)
	}

	def := Default()
	if !md.IsDefined("pen_glyph") {
		s.PenGlyph = def.PenGlyph
	}
	if !md.IsDefined("palette") {
		s.Palette = def.Palette
	}
	if !md.IsDefined("toolbar_position") {
		s.ToolbarPosition = def.ToolbarPosition
	}
	if !md.IsDefined("exit_timeout_seconds") {
		s.ExitTimeoutSeconds = def.ExitTimeoutSeconds
	}
	if !md.IsDefined("offer_save") {
		s.OfferSave = def.OfferSave
	}
	s.Sanitize()
	return s, nil
}

// Save writes the sanitized settings to path atomically.
func Save(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(s.Sanitized()); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, []byte(buf.String()), 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
