package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Encode serializes a message into a single text frame
func Encode(msg Message) ([]byte, error) {
	var env envelope

	switch m := msg.(type) {
	case *SettingsUpdate:
		env = envelope{Type: TypeSettingsUpdate, Seq: m.Seq, Values: m.Values}
	case *SettingsAck:
		env = envelope{Type: TypeSettingsAck, Seq: m.Seq, Revision: m.Revision, Values: m.Values}
	case *SettingsSync:
		env = envelope{Type: TypeSettingsSync, Revision: m.Revision, Values: m.Values}
	case *SettingsReject:
		env = envelope{Type: TypeSettingsReject, Seq: m.Seq, Message: m.Reason}
	case *Progress:
		if math.IsNaN(m.Percent) || math.IsInf(m.Percent, 0) {
			return nil, NewError(ErrTypeOutOfRangePercent, "percent is not finite", nil)
		}
		env = envelope{
			Type:    TypeProgress,
			Style:   m.Style,
			Percent: json.RawMessage(strconv.FormatFloat(m.Percent, 'f', -1, 64)),
		}
	case nil:
		return nil, fmt.Errorf("cannot encode nil message")
	default:
		return nil, fmt.Errorf("cannot encode message type %T", msg)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", env.Type, err)
	}
	return data, nil
}
