package levels

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Level is a logging verbosity. The ordinal is the wire representation.
type Level int

const (
	Off Level = iota
	Fatal
	Critical
	Error
	Warning
	Notice
	Information
	Debug
	Trace
	All
)

// Count is the number of known levels.
const Count = int(All) + 1

var (
	// ErrOutOfRange is returned for an ordinal outside the known levels
	ErrOutOfRange = errors.New("level out of range")

	// ErrUnknownLevel is returned when a level name cannot be parsed
	ErrUnknownLevel = errors.New("unknown level")
)

var names = [Count]string{
	"off", "fatal", "critical", "error", "warning",
	"notice", "information", "debug", "trace", "all",
}

// Name returns the fixed name of the level with the given ordinal.
func Name(ordinal int) (string, error) {
	if ordinal < 0 || ordinal >= Count {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, ordinal)
	}
	return names[ordinal], nil
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	return l >= Off && l <= All
}

// String implements fmt.Stringer
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return names[l]
}

// Levels returns all levels in ascending order.
func Levels() []Level {
	out := make([]Level, Count)
	for i := range out {
		out[i] = Level(i)
	}
	return out
}

// FromOrdinal converts a wire ordinal to a Level.
func FromOrdinal(ordinal int) (Level, error) {
	if ordinal < 0 || ordinal >= Count {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, ordinal)
	}
	return Level(ordinal), nil
}

// Parse accepts either a level name (case-insensitive) or its decimal ordinal.
func Parse(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return FromOrdinal(n)
	}
	lower := strings.ToLower(s)
	for i, name := range names {
		if name == lower {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// MarshalText implements encoding.TextMarshaler
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, int(l))
	}
	return []byte(names[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
