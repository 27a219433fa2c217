package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tessro/scrawl/internal/export"
)

func stroke(points ...export.Point) export.Stroke {
	return export.Stroke{Color: "#FFFFFF", Glyph: "#", Points: points}
}

func TestCanvas_CommitUndoRedo(t *testing.T) {
	c := NewCanvas(10, 5)

	assert.False(t, c.Commit(stroke()), "empty stroke is ignored")
	assert.True(t, c.Commit(stroke(export.Point{X: 1, Y: 1})))
	assert.True(t, c.Commit(stroke(export.Point{X: 2, Y: 2})))
	assert.Equal(t, 2, c.Snapshot().Objects)

	assert.True(t, c.Undo())
	assert.Equal(t, 1, c.Snapshot().Objects)
	assert.True(t, c.Redo())
	assert.Equal(t, 2, c.Snapshot().Objects)
	assert.False(t, c.Redo())

	// A new commit discards the redo stack.
	c.Undo()
	c.Commit(stroke(export.Point{X: 3, Y: 3}))
	assert.False(t, c.Redo())

	rev := c.Snapshot().Revision
	assert.True(t, c.Clear())
	assert.True(t, c.Empty())
	assert.Greater(t, c.Snapshot().Revision, rev)
	assert.False(t, c.Clear())
	assert.False(t, c.Undo())
}

func TestCanvas_CellsEraseAndOrder(t *testing.T) {
	c := NewCanvas(10, 5)
	a := export.Point{X: 1, Y: 1}
	b := export.Point{X: 2, Y: 1}

	c.Commit(export.Stroke{Color: "#111111", Glyph: "x", Points: []export.Point{a, b}})
	c.Commit(export.Stroke{Color: "#222222", Glyph: "y", Points: []export.Point{b}})
	c.Commit(export.Stroke{Erase: true, Points: []export.Point{a}})

	pending := export.Stroke{Color: "#333333", Glyph: "z", Points: []export.Point{{X: 3, Y: 1}}}
	cells := c.Cells(&pending)

	_, ok := cells[a]
	assert.False(t, ok, "erased cell should be blank")
	assert.Equal(t, cell{glyph: "y", color: "#222222"}, cells[b])
	assert.Equal(t, "z", cells[export.Point{X: 3, Y: 1}].glyph)
}

func TestCanvas_ExportCopiesPoints(t *testing.T) {
	c := NewCanvas(4, 3)
	c.Commit(stroke(export.Point{X: 0, Y: 0}))

	out := c.Export()
	out.Strokes[0].Points[0].X = 9

	assert.Equal(t, 4, out.Width)
	assert.Equal(t, 3, out.Height)
	assert.Equal(t, 0, c.Export().Strokes[0].Points[0].X)
}

func TestCanvas_Contains(t *testing.T) {
	c := NewCanvas(2, 2)
	assert.True(t, c.Contains(export.Point{X: 1, Y: 1}))
	assert.False(t, c.Contains(export.Point{X: 2, Y: 0}))
	assert.False(t, c.Contains(export.Point{X: 0, Y: -1}))

	c.Resize(-1, 3)
	w, h := c.Size()
	assert.Equal(t, 0, w)
	assert.Equal(t, 3, h)
}
