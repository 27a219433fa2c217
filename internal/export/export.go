// Package export writes finished sketches to disk as YAML documents.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tessro/scrawl/internal/paths"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written into every document.
const FormatVersion = 1

// stemLayout is the reference-time layout for file stems.
const stemLayout = "20060102_150405"

// Point is one inked cell.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Stroke is a run of cells drawn with one pen.
type Stroke struct {
	Color  string  `yaml:"color"`
	Glyph  string  `yaml:"glyph"`
	Erase  bool    `yaml:"erase,omitempty"`
	Points []Point `yaml:"points,flow"`
}

// Canvas is the exported drawing.
type Canvas struct {
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
	Strokes []Stroke `yaml:"strokes"`
}

// Document is the on-disk layout.
type Document struct {
	Version int       `yaml:"version"`
	SavedAt time.Time `yaml:"saved_at"`
	Canvas  Canvas    `yaml:"canvas"`
}

// TimestampedStem formats t as a filename stem (YYYYMMDD_HHMMSS).
func TimestampedStem(t time.Time) string {
	return t.Format(stemLayout)
}

// BuildFilename joins stem, suffix and extension as <stem>_<suffix>.<ext>.
func BuildFilename(stem, suffix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", stem, suffix, ext)
}

// OutputDir returns dir, or the default export directory when dir is
// empty, creating it if needed.
func OutputDir(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = paths.ExportDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	return dir, nil
}

// Write exports canvas into dir as <stem>_canvas.yaml and returns the
// path written. A file that already exists is never overwritten.
func Write(dir string, now time.Time, canvas Canvas) (string, error) {
	dir, err := OutputDir(dir)
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(Document{
		Version: FormatVersion,
		SavedAt: now,
		Canvas:  canvas,
	})
	if err != nil {
		return "", fmt.Errorf("marshal canvas: %w", err)
	}

	stem := TimestampedStem(now)
	suffix := "canvas"
	for n := 2; ; n++ {
		path := filepath.Join(dir, BuildFilename(stem, suffix, "yaml"))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			suffix = fmt.Sprintf("canvas-%d", n)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create export file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write export file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close export file: %w", err)
		}
		return path, nil
	}
}

// Read loads a previously exported document.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse export %s: %w", path, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported export version %d", doc.Version)
	}
	return &doc, nil
}
