package ui

import (
	"strings"

	"github.com/minerdash/minerdash/internal/settings"
)

// SelectorList is the terminal host of the level selectors. It implements
// settings.Container and keeps the controls in mount order.
type SelectorList struct {
	controls []*settings.Control
	cursor   int
}

// NewSelectorList creates an empty list
func NewSelectorList() *SelectorList {
	return &SelectorList{}
}

// Mount implements settings.Container. A control for a key already present
// replaces it in place.
func (l *SelectorList) Mount(c *settings.Control) {
	if c == nil {
		return
	}
	for i, existing := range l.controls {
		if existing.Key() == c.Key() {
			l.controls[i] = c
			return
		}
	}
	l.controls = append(l.controls, c)
}

// Unmount implements settings.Container
func (l *SelectorList) Unmount(key string) {
	for i, c := range l.controls {
		if c.Key() == key {
			l.controls = append(l.controls[:i], l.controls[i+1:]...)
			break
		}
	}
}

// Len returns the number of mounted selectors
func (l *SelectorList) Len() int {
	return len(l.controls)
}

// Keys returns the mounted subsystem keys in display order
func (l *SelectorList) Keys() []string {
	keys := make([]string, len(l.controls))
	for i, c := range l.controls {
		keys[i] = c.Key()
	}
	return keys
}

// Cursor returns the index of the focused selector. The position survives
// a full unmount and remount of the list.
func (l *SelectorList) Cursor() int {
	l.clampCursor()
	return l.cursor
}

// Selected returns the focused selector, nil when the list is empty
func (l *SelectorList) Selected() *settings.Control {
	if len(l.controls) == 0 {
		return nil
	}
	return l.controls[l.Cursor()]
}

// Up moves the focus one selector up, wrapping at the top
func (l *SelectorList) Up() {
	if len(l.controls) == 0 {
		return
	}
	l.cursor = (l.Cursor() - 1 + len(l.controls)) % len(l.controls)
}

// Down moves the focus one selector down, wrapping at the bottom
func (l *SelectorList) Down() {
	if len(l.controls) == 0 {
		return
	}
	l.cursor = (l.Cursor() + 1) % len(l.controls)
}

func (l *SelectorList) clampCursor() {
	if l.cursor >= len(l.controls) {
		l.cursor = len(l.controls) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// View renders one line per selector
func (l *SelectorList) View() string {
	lines := make([]string, 0, len(l.controls))
	cursor := l.Cursor()
	for i, c := range l.controls {
		lines = append(lines, renderSelector(c, i == cursor))
	}
	return strings.Join(lines, "\n")
}

func renderSelector(c *settings.Control, focused bool) string {
	value := c.Value()
	name := LevelStyle(value).Render(value.String())

	if !focused {
		return "    " + SelectorLabelStyle.Render(c.Label()) + "  " + name
	}
	return "  " + SelectorArrowStyle.Render(CursorMarker) + " " +
		SelectorFocusedStyle.Render(c.Label()) +
		SelectorArrowStyle.Render(ArrowLeftHint) + " " + name + " " + SelectorArrowStyle.Render(ArrowRightHint)
}
