package logging

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/minerdash/minerdash/internal/levels"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// MinZapLevel returns the lowest zap level a subsystem at l still writes.
// ok is false for levels.Off, which writes nothing.
func MinZapLevel(l levels.Level) (zl zapcore.Level, ok bool) {
	switch {
	case l <= levels.Off:
		return zapcore.InvalidLevel, false
	case l == levels.Fatal:
		return zapcore.FatalLevel, true
	case l == levels.Critical:
		return zapcore.DPanicLevel, true
	case l == levels.Error:
		return zapcore.ErrorLevel, true
	case l == levels.Warning:
		return zapcore.WarnLevel, true
	case l == levels.Notice, l == levels.Information:
		return zapcore.InfoLevel, true
	default:
		return zapcore.DebugLevel, true
	}
}

// Enables reports whether a subsystem at l writes an entry at zl.
func Enables(l levels.Level, zl zapcore.Level) bool {
	floor, ok := MinZapLevel(l)
	if !ok {
		return false
	}
	return zl >= floor
}

// Subsystems is the live verbosity table of the miner's subsystems.
type Subsystems struct {
	mu      sync.Mutex
	base    zapcore.Core
	levels  map[string]*atomic.Int32
	loggers map[string]*zap.Logger
}

// NewSubsystems builds one logger per catalog subsystem on top of base.
// initial must be a complete, valid state.
func NewSubsystems(base zapcore.Core, initial levels.State) (*Subsystems, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("invalid initial levels: %w", err)
	}
	if base == nil {
		base = zapcore.NewNopCore()
	}

	s := &Subsystems{
		base:    base,
		levels:  make(map[string]*atomic.Int32),
		loggers: make(map[string]*zap.Logger),
	}
	for _, sub := range levels.Subsystems() {
		lvl := new(atomic.Int32)
		lvl.Store(int32(initial[sub.Key]))
		s.levels[sub.Key] = lvl
		s.loggers[sub.Key] = zap.New(&subsystemCore{Core: base, level: lvl}).Named(sub.Key)
	}
	return s, nil
}

// Logger returns the logger of the named subsystem. Unknown keys get the
// "general" logger.
func (s *Subsystems) Logger(key string) *zap.Logger {
	if l, ok := s.loggers[key]; ok {
		return l
	}
	return s.loggers["general"]
}

// Level returns the current level of a subsystem.
func (s *Subsystems) Level(key string) (levels.Level, bool) {
	lvl, ok := s.levels[key]
	if !ok {
		return levels.Off, false
	}
	return levels.Level(lvl.Load()), true
}

// Apply replaces every subsystem level. The state is validated first and
// nothing changes if it is invalid.
func (s *Subsystems) Apply(state levels.State) error {
	if err := state.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, l := range state {
		s.levels[key].Store(int32(l))
	}
	return nil
}

// Snapshot returns the current levels.
func (s *Subsystems) Snapshot() levels.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(levels.State, len(s.levels))
	for key, lvl := range s.levels {
		out[key] = levels.Level(lvl.Load())
	}
	return out
}

// subsystemCore gates an underlying core by a subsystem's live level.
// The underlying core's own level is not consulted.
type subsystemCore struct {
	zapcore.Core
	level *atomic.Int32
}

func (c *subsystemCore) Enabled(zl zapcore.Level) bool {
	return Enables(levels.Level(c.level.Load()), zl)
}

func (c *subsystemCore) With(fields []zapcore.Field) zapcore.Core {
	return &subsystemCore{Core: c.Core.With(fields), level: c.level}
}

func (c *subsystemCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
