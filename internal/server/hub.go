package server

import (
	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/protocol"
	"go.uber.org/zap"
)

// applyUpdate applies a dashboard's settings batch as a whole. The sender
// gets an ack, every other dashboard a sync, both carrying the new revision.
// A batch that fails validation changes nothing and is answered with a
// reject.
func (s *Server) applyUpdate(c *client, msg *protocol.SettingsUpdate) error {
	if err := protocol.CheckValues(msg.Values); err != nil {
		c.enqueueMessage(&protocol.SettingsReject{Seq: msg.Seq, Reason: err.Error()})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.subsystems.Snapshot()
	if err := s.subsystems.Apply(msg.Values); err != nil {
		c.enqueueMessage(&protocol.SettingsReject{Seq: msg.Seq, Reason: err.Error()})
		return err
	}
	s.revision++
	state := s.subsystems.Snapshot()

	logChanges(s.subsystems.Logger("config"), before, state, c.remote, s.revision)

	if s.config.StatePath != "" {
		if err := SaveState(s.config.StatePath, state, s.revision); err != nil {
			logging.Error("Failed to persist levels",
				zap.String("path", s.config.StatePath),
				zap.Error(err),
			)
		}
	}

	c.enqueueMessage(&protocol.SettingsAck{Seq: msg.Seq, Revision: s.revision, Values: state})

	frame, err := protocol.Encode(&protocol.SettingsSync{Revision: s.revision, Values: state})
	if err != nil {
		return err
	}
	for other := range s.clients {
		if other != c {
			other.enqueue(frame)
		}
	}

	return nil
}

// Publish sends a telemetry event to every connected dashboard. Delivery is
// best effort.
func (s *Server) Publish(msg *protocol.Progress) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logging.Warn("Dropping unencodable progress event", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.enqueue(data)
	}
}

// SetLevels changes levels from the backend side, e.g. an operator editing
// them on the miner itself, and syncs every dashboard
func (s *Server) SetLevels(overrides map[string]levels.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.subsystems.Snapshot()
	next, err := before.Merge(overrides)
	if err != nil {
		return err
	}
	if next.Equal(before) {
		return nil
	}
	if err := s.subsystems.Apply(next); err != nil {
		return err
	}
	s.revision++
	logChanges(s.subsystems.Logger("config"), before, next, "local", s.revision)

	frame, err := protocol.Encode(&protocol.SettingsSync{Revision: s.revision, Values: next})
	if err != nil {
		return err
	}
	for c := range s.clients {
		c.enqueue(frame)
	}

	if s.config.StatePath != "" {
		return SaveState(s.config.StatePath, next, s.revision)
	}
	return nil
}

func logChanges(log *zap.Logger, before, after levels.State, source string, revision uint64) {
	for _, sub := range levels.Subsystems() {
		if before[sub.Key] == after[sub.Key] {
			continue
		}
		log.Info("Log level changed",
			zap.String("subsystem", sub.Key),
			zap.Stringer("from", before[sub.Key]),
			zap.Stringer("to", after[sub.Key]),
			zap.String("source", source),
			zap.Uint64("revision", revision),
		)
	}
}
