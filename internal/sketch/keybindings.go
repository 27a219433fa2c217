package sketch

import "github.com/charmbracelet/bubbles/key"

// KeyBindings defines all keyboard shortcuts for the sketch overlay.
type KeyBindings struct {
	// Cursor movement
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Drawing
	Pen       key.Binding
	Eraser    key.Binding
	NextColor key.Binding
	Undo      key.Binding
	Redo      key.Binding
	Clear     key.Binding
	Toolbar   key.Binding
	Exit      key.Binding

	// Exit prompt
	Save    key.Binding
	Discard key.Binding
	Cancel  key.Binding
}

// DefaultKeyBindings returns the default key bindings.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l", "right"),
		),

		Pen: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pen up/down"),
		),
		Eraser: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "eraser"),
		),
		NextColor: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "color"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u", "ctrl+z"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("r", "ctrl+y"),
			key.WithHelp("r", "redo"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear"),
		),
		Toolbar: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toolbar"),
		),
		Exit: key.NewBinding(
			key.WithKeys("esc", "q", "ctrl+c"),
			key.WithHelp("esc", "exit"),
		),

		Save: key.NewBinding(
			key.WithKeys("s", "y", "enter"),
			key.WithHelp("s", "save"),
		),
		Discard: key.NewBinding(
			key.WithKeys("d", "n"),
			key.WithHelp("d", "discard"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "c"),
			key.WithHelp("esc", "keep drawing"),
		),
	}
}
