package sketch

import (
	"slices"

	"github.com/tessro/scrawl/internal/export"
	"github.com/tessro/scrawl/internal/overlay"
)

// Canvas is the committed drawing plus undo/redo history.
type Canvas struct {
	width, height int
	strokes       []export.Stroke
	redo          []export.Stroke
	revision      uint64
}

// NewCanvas creates an empty canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{width: max(width, 0), height: max(height, 0)}
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// Resize changes the drawable area. Strokes outside it are kept and
// reappear if the area grows again.
func (c *Canvas) Resize(width, height int) {
	c.width, c.height = max(width, 0), max(height, 0)
}

// Contains reports whether p is on the canvas.
func (c *Canvas) Contains(p export.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < c.width && p.Y < c.height
}

// Commit appends a finished stroke and clears the redo stack. Empty
// strokes are ignored.
func (c *Canvas) Commit(s export.Stroke) bool {
	if len(s.Points) == 0 {
		return false
	}
	c.strokes = append(c.strokes, s)
	c.redo = nil
	c.revision++
	return true
}

// Undo removes the last stroke.
func (c *Canvas) Undo() bool {
	if len(c.strokes) == 0 {
		return false
	}
	last := c.strokes[len(c.strokes)-1]
	c.strokes = c.strokes[:len(c.strokes)-1]
	c.redo = append(c.redo, last)
	c.revision++
	return true
}

// Redo reapplies the last undone stroke.
func (c *Canvas) Redo() bool {
	if len(c.redo) == 0 {
		return false
	}
	next := c.redo[len(c.redo)-1]
	c.redo = c.redo[:len(c.redo)-1]
	c.strokes = append(c.strokes, next)
	c.revision++
	return true
}

// Clear removes everything, including history.
func (c *Canvas) Clear() bool {
	if len(c.strokes) == 0 && len(c.redo) == 0 {
		return false
	}
	c.strokes = nil
	c.redo = nil
	c.revision++
	return true
}

// Empty reports whether nothing is drawn.
func (c *Canvas) Empty() bool {
	return len(c.strokes) == 0
}

// Snapshot summarizes the canvas for progress notifications.
func (c *Canvas) Snapshot() overlay.Snapshot {
	return overlay.Snapshot{Revision: c.revision, Objects: len(c.strokes)}
}

// Export returns a copy suitable for writing to disk.
func (c *Canvas) Export() export.Canvas {
	strokes := make([]export.Stroke, len(c.strokes))
	for i, s := range c.strokes {
		s.Points = slices.Clone(s.Points)
		strokes[i] = s
	}
	return export.Canvas{Width: c.width, Height: c.height, Strokes: strokes}
}

// cell is what a single screen position shows.
type cell struct {
	glyph string
	color string
}

// Cells flattens the strokes into visible cells, later strokes on top.
// Erase strokes clear what is under them.
func (c *Canvas) Cells(pending *export.Stroke) map[export.Point]cell {
	cells := make(map[export.Point]cell)
	paint := func(s export.Stroke) {
		for _, p := range s.Points {
			if s.Erase {
				delete(cells, p)
				continue
			}
			cells[p] = cell{glyph: s.Glyph, color: s.Color}
		}
	}
	for _, s := range c.strokes {
		paint(s)
	}
	if pending != nil {
		paint(*pending)
	}
	return cells
}
