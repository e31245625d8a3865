package levels

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrUnknownSubsystem is returned for a key that is not in the catalog
	ErrUnknownSubsystem = errors.New("unknown subsystem")

	// ErrIncomplete is returned when a snapshot is missing catalog keys
	ErrIncomplete = errors.New("incomplete settings snapshot")
)

// Subsystem describes a backend component with its own log verbosity.
type Subsystem struct {
	Key         string // Unique short identifier, used on the wire
	DisplayName string // Human label
	Default     Level  // Level used until the operator or backend says otherwise
}

// Declaration order is the rendering order and the serialization order.
var catalog = []Subsystem{
	{Key: "miner", DisplayName: "Miner", Default: Information},
	{Key: "config", DisplayName: "Config", Default: Information},
	{Key: "server", DisplayName: "Server", Default: Fatal},
	{Key: "socket", DisplayName: "Socket", Default: Off},
	{Key: "session", DisplayName: "Session", Default: Error},
	{Key: "nonceSubmitter", DisplayName: "Nonce submitter", Default: Information},
	{Key: "plotReader", DisplayName: "Plot reader", Default: Information},
	{Key: "plotVerifier", DisplayName: "Plot verifier", Default: Information},
	{Key: "wallet", DisplayName: "Wallet", Default: Fatal},
	{Key: "general", DisplayName: "General", Default: Information},
}

var index = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, s := range catalog {
		m[s.Key] = i
	}
	return m
}()

// Subsystems returns the catalog in declaration order.
func Subsystems() []Subsystem {
	out := make([]Subsystem, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a subsystem by key.
func Lookup(key string) (Subsystem, bool) {
	i, ok := index[key]
	if !ok {
		return Subsystem{}, false
	}
	return catalog[i], true
}

// State maps every subsystem key to its current level.
type State map[string]Level

// Defaults returns a fully populated State holding every default level.
func Defaults() State {
	s := make(State, len(catalog))
	for _, sub := range catalog {
		s[sub.Key] = sub.Default
	}
	return s
}

// Clone returns an independent copy.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Equal reports whether both states hold the same levels for the same keys.
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Validate checks that s has exactly one valid level per catalog entry.
func (s State) Validate() error {
	for key, l := range s {
		if _, ok := index[key]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSubsystem, key)
		}
		if !l.Valid() {
			return fmt.Errorf("subsystem %q: %w: %d", key, ErrOutOfRange, int(l))
		}
	}
	for _, sub := range catalog {
		if _, ok := s[sub.Key]; !ok {
			return fmt.Errorf("%w: missing %q", ErrIncomplete, sub.Key)
		}
	}
	return nil
}

// Merge returns a copy of s with the given overrides applied. Overrides are
// validated first; on error s is returned unchanged alongside the error.
func (s State) Merge(overrides map[string]Level) (State, error) {
	for key, l := range overrides {
		if _, ok := index[key]; !ok {
			return s, fmt.Errorf("%w: %q", ErrUnknownSubsystem, key)
		}
		if !l.Valid() {
			return s, fmt.Errorf("subsystem %q: %w: %d", key, ErrOutOfRange, int(l))
		}
	}
	out := s.Clone()
	if out == nil {
		out = make(State, len(overrides))
	}
	for key, l := range overrides {
		out[key] = l
	}
	return out, nil
}

// Ordinals returns the wire form of s.
func (s State) Ordinals() map[string]int {
	out := make(map[string]int, len(s))
	for k, v := range s {
		out[k] = int(v)
	}
	return out
}

// ParseValues converts wire ordinals into a validated State. The whole batch
// is rejected if any entry is bad.
func ParseValues(values map[string]int) (State, error) {
	s := make(State, len(values))
	for key, ordinal := range values {
		l, err := FromOrdinal(ordinal)
		if err != nil {
			return nil, fmt.Errorf("subsystem %q: %w", key, err)
		}
		s[key] = l
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MarshalJSON writes catalog keys first in declaration order, then any
// foreign keys in sorted order, each as its ordinal.
func (s State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, l Level) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(int(l)))
		return nil
	}
	for _, sub := range catalog {
		if l, ok := s[sub.Key]; ok {
			if err := write(sub.Key, l); err != nil {
				return nil, err
			}
		}
	}
	var extra []string
	for key := range s {
		if _, ok := index[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		if err := write(key, s[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads ordinals without validating them.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = nil
		return nil
	}
	out := make(State, len(raw))
	for k, v := range raw {
		out[k] = Level(v)
	}
	*s = out
	return nil
}
