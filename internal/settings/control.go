package settings

import (
	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/protocol"
)

// Container is the rendering host the selectors are mounted into
type Container interface {
	Mount(c *Control)
	Unmount(key string)
}

// Control is the level selector of one subsystem
type Control struct {
	sub      levels.Subsystem
	value    levels.Level
	onChange func()
}

// Key returns the subsystem key
func (c *Control) Key() string { return c.sub.Key }

// Label returns the subsystem's display name
func (c *Control) Label() string { return c.sub.DisplayName }

// Value returns the selected level
func (c *Control) Value() levels.Level { return c.value }

// Options returns the levels the selector offers, in order
func (c *Control) Options() []levels.Level { return levels.Levels() }

// Select is the user picking l. The change callback runs once if the value
// actually changed.
func (c *Control) Select(l levels.Level) error {
	if !l.Valid() {
		_, err := levels.FromOrdinal(int(l))
		return protocol.NewError(protocol.ErrTypeOutOfRangeLevel, "cannot select level", err)
	}
	if l == c.value {
		return nil
	}
	c.value = l
	if c.onChange != nil {
		c.onChange()
	}
	return nil
}

// Step moves the selection by delta levels, stopping at off and all
func (c *Control) Step(delta int) error {
	next := int(c.value) + delta
	if next < int(levels.Off) {
		next = int(levels.Off)
	}
	if next > int(levels.All) {
		next = int(levels.All)
	}
	return c.Select(levels.Level(next))
}

// set changes the value without firing the callback
func (c *Control) set(l levels.Level) {
	c.value = l
}

// InitSettings mounts one control per catalog subsystem into container, in
// catalog order, each pre-set from current (catalog defaults when current is
// nil or lacks the key). An existing control for the same subsystem is
// unmounted first, so calling it again re-renders instead of duplicating.
func InitSettings(container Container, current levels.State, onChange func()) map[string]*Control {
	controls := make(map[string]*Control)
	for _, sub := range levels.Subsystems() {
		value := sub.Default
		if l, ok := current[sub.Key]; ok && l.Valid() {
			value = l
		}

		c := &Control{sub: sub, value: value, onChange: onChange}
		if container != nil {
			container.Unmount(sub.Key)
			container.Mount(c)
		}
		controls[sub.Key] = c
	}
	return controls
}
