package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/minerdash/minerdash/internal/levels"
)

// Message type discriminators
const (
	TypeSettingsUpdate = "settings_update"
	TypeSettingsAck    = "settings_ack"
	TypeSettingsSync   = "settings_sync"
	TypeSettingsReject = "settings_reject"
	TypeProgress       = "progress"
)

// Style selects how a progress event is rendered
type Style string

const (
	// StyleGeneration is background work: bare percentage, no label
	StyleGeneration Style = "generation"
	// StyleVerification is an attention-worthy phase: percentage plus label
	StyleVerification Style = "verification"
)

// Valid reports whether s is a known style
func (s Style) Valid() bool {
	return s == StyleGeneration || s == StyleVerification
}

// Message is any decoded channel frame
type Message interface {
	Type() string
}

// SettingsUpdate is a full settings snapshot sent by a dashboard
type SettingsUpdate struct {
	Seq    uint64
	Values levels.State
}

func (m *SettingsUpdate) Type() string { return TypeSettingsUpdate }

// SettingsAck is the backend's authoritative state sent back to the dashboard
// whose update was applied
type SettingsAck struct {
	Seq      uint64
	Revision uint64
	Values   levels.State
}

func (m *SettingsAck) Type() string { return TypeSettingsAck }

// SettingsSync is the backend's authoritative state pushed on connect and
// after another dashboard's update
type SettingsSync struct {
	Revision uint64
	Values   levels.State
}

func (m *SettingsSync) Type() string { return TypeSettingsSync }

// SettingsReject tells a dashboard its update was refused as a whole
type SettingsReject struct {
	Seq    uint64
	Reason string
}

func (m *SettingsReject) Type() string { return TypeSettingsReject }

// Progress is a telemetry event from a long-running backend operation
type Progress struct {
	Style   Style
	Percent float64
}

func (m *Progress) Type() string { return TypeProgress }

// envelope is the on-wire shape shared by every message type
type envelope struct {
	Type     string          `json:"type"`
	Seq      uint64          `json:"seq,omitempty"`
	Revision uint64          `json:"revision,omitempty"`
	Values   levels.State    `json:"values,omitempty"`
	Style    Style           `json:"style,omitempty"`
	Percent  json.RawMessage `json:"percent,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// Decode parses a single text frame into a typed message.
// Level ordinals are not range-checked here; that is the receiver's call.
func Decode(data []byte) (Message, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		return nil, NewError(ErrTypeMalformed, "invalid JSON frame", err)
	}

	switch env.Type {
	case TypeSettingsUpdate:
		if env.Values == nil {
			return nil, NewError(ErrTypeMalformed, "settings_update without values", nil)
		}
		return &SettingsUpdate{Seq: env.Seq, Values: env.Values}, nil

	case TypeSettingsAck:
		if env.Values == nil {
			return nil, NewError(ErrTypeMalformed, "settings_ack without values", nil)
		}
		return &SettingsAck{Seq: env.Seq, Revision: env.Revision, Values: env.Values}, nil

	case TypeSettingsSync:
		if env.Values == nil {
			return nil, NewError(ErrTypeMalformed, "settings_sync without values", nil)
		}
		return &SettingsSync{Revision: env.Revision, Values: env.Values}, nil

	case TypeSettingsReject:
		return &SettingsReject{Seq: env.Seq, Reason: env.Message}, nil

	case TypeProgress:
		percent, err := parsePercent(env.Percent)
		if err != nil {
			return nil, err
		}
		return &Progress{Style: env.Style, Percent: percent}, nil

	case "":
		return nil, NewError(ErrTypeMalformed, "frame has no type", nil)

	default:
		return nil, NewError(ErrTypeMalformed, fmt.Sprintf("unknown message type %q", env.Type), nil)
	}
}

// parsePercent accepts a JSON number or a numeric string
func parsePercent(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, NewError(ErrTypeMalformed, "progress without percent", nil)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, NewError(ErrTypeMalformed, "percent is neither number nor string", err)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, NewError(ErrTypeMalformed, fmt.Sprintf("percent %q is not numeric", s), err)
	}
	return f, nil
}
