package protocol

import (
	"strings"
	"testing"

	"github.com/minerdash/minerdash/internal/levels"
)

func TestDecodeSettingsSync(t *testing.T) {
	data := []byte(`{"type":"settings_sync","revision":4,"values":{"miner":7,"wallet":1}}`)

	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	sync, ok := msg.(*SettingsSync)
	if !ok {
		t.Fatalf("Decode() type = %T, want *SettingsSync", msg)
	}
	if sync.Revision != 4 {
		t.Errorf("Revision = %d, want 4", sync.Revision)
	}
	if sync.Values["miner"] != levels.Debug {
		t.Errorf("Values[miner] = %v, want debug", sync.Values["miner"])
	}
}

func TestDecodeKeepsOutOfRangeOrdinals(t *testing.T) {
	// Range checks belong to the receiver, which must reject the whole batch.
	msg, err := Decode([]byte(`{"type":"settings_ack","seq":1,"values":{"miner":42}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ack := msg.(*SettingsAck)
	if ack.Values["miner"] != levels.Level(42) {
		t.Errorf("Values[miner] = %d, want 42", ack.Values["miner"])
	}
}

func TestDecodeProgress(t *testing.T) {
	tests := []struct {
		name      string
		frame     string
		wantStyle Style
		want      float64
	}{
		{"number", `{"type":"progress","style":"generation","percent":41.6}`, StyleGeneration, 41.6},
		{"string", `{"type":"progress","style":"verification","percent":"99.5"}`, StyleVerification, 99.5},
		{"zero", `{"type":"progress","style":"generation","percent":0}`, StyleGeneration, 0},
		{"negative", `{"type":"progress","style":"generation","percent":-5}`, StyleGeneration, -5},
		{"over", `{"type":"progress","style":"verification","percent":150}`, StyleVerification, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			p, ok := msg.(*Progress)
			if !ok {
				t.Fatalf("Decode() type = %T, want *Progress", msg)
			}
			if p.Style != tt.wantStyle {
				t.Errorf("Style = %q, want %q", p.Style, tt.wantStyle)
			}
			if p.Percent != tt.want {
				t.Errorf("Percent = %v, want %v", p.Percent, tt.want)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	frames := []string{
		`not json`,
		`{}`,
		`{"type":"bogus"}`,
		`{"type":"settings_sync"}`,
		`{"type":"settings_update","values":null}`,
		`{"type":"progress","style":"generation"}`,
		`{"type":"progress","style":"generation","percent":"abc"}`,
		`{"type":"progress","style":"generation","percent":true}`,
		`{"type":"settings_sync","values":{"miner":"debug"}}`,
	}

	for _, f := range frames {
		_, err := Decode([]byte(f))
		if err == nil {
			t.Errorf("Decode(%s) error = nil, want malformed", f)
			continue
		}
		if !IsType(err, ErrTypeMalformed) {
			t.Errorf("Decode(%s) error type = %v, want ErrTypeMalformed", f, err)
		}
	}
}

func TestEncodeSettingsUpdateOrder(t *testing.T) {
	values := levels.Defaults()
	values["miner"] = levels.Debug

	data, err := Encode(&SettingsUpdate{Seq: 9, Values: values})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	s := string(data)
	if !strings.HasPrefix(s, `{"type":"settings_update","seq":9,"values":{"miner":7,"config":`) {
		t.Errorf("Encode() = %s, want registry-ordered values", s)
	}
	if strings.Index(s, `"wallet"`) > strings.Index(s, `"general"`) {
		t.Errorf("Encode() = %s, wallet should precede general", s)
	}
}

func TestEncodeProgressZeroPercent(t *testing.T) {
	data, err := Encode(&Progress{Style: StyleVerification, Percent: 0})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	want := `{"type":"progress","style":"verification","percent":0}`
	if string(data) != want {
		t.Errorf("Encode() = %s, want %s", data, want)
	}
}

func TestEncodeRejectsNonFinitePercent(t *testing.T) {
	var zero float64
	_, err := Encode(&Progress{Style: StyleGeneration, Percent: zero / zero})
	if !IsType(err, ErrTypeOutOfRangePercent) {
		t.Errorf("Encode(NaN) error = %v, want ErrTypeOutOfRangePercent", err)
	}
}

func TestEncodeDecodeReject(t *testing.T) {
	data, err := Encode(&SettingsReject{Seq: 3, Reason: "level out of range"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	r := msg.(*SettingsReject)
	if r.Seq != 3 || r.Reason != "level out of range" {
		t.Errorf("Decode() = %+v", r)
	}
}
