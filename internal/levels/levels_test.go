package levels

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestName(t *testing.T) {
	want := []string{
		"off", "fatal", "critical", "error", "warning",
		"notice", "information", "debug", "trace", "all",
	}
	for i, w := range want {
		got, err := Name(i)
		if err != nil {
			t.Fatalf("Name(%d) error = %v", i, err)
		}
		if got != w {
			t.Errorf("Name(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestNameOutOfRange(t *testing.T) {
	for _, o := range []int{-1, 10, 11, 1 << 20} {
		got, err := Name(o)
		if !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Name(%d) error = %v, want ErrOutOfRange", o, err)
		}
		if got != "" {
			t.Errorf("Name(%d) = %q, want empty", o, got)
		}
		// Deterministic: same answer twice.
		if _, err2 := Name(o); err2 == nil || err2.Error() != err.Error() {
			t.Errorf("Name(%d) second call error = %v, want %v", o, err2, err)
		}
	}
}

func TestLevelsOrder(t *testing.T) {
	all := Levels()
	if len(all) != 10 {
		t.Fatalf("len(Levels()) = %d, want 10", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1] >= all[i] {
			t.Errorf("Levels()[%d]=%v not below Levels()[%d]=%v", i-1, all[i-1], i, all[i])
		}
	}
	if all[0] != Off || all[9] != All {
		t.Errorf("Levels() bounds = %v..%v, want off..all", all[0], all[9])
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr error
	}{
		{"debug", Debug, nil},
		{"DEBUG", Debug, nil},
		{" information ", Information, nil},
		{"7", Debug, nil},
		{"0", Off, nil},
		{"10", 0, ErrOutOfRange},
		{"-1", 0, ErrOutOfRange},
		{"verbose", 0, ErrUnknownLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	if Trace.String() != "trace" {
		t.Errorf("Trace.String() = %q, want trace", Trace.String())
	}
	if Level(42).String() != "Level(42)" {
		t.Errorf("Level(42).String() = %q", Level(42).String())
	}
}

func TestSubsystemsCatalog(t *testing.T) {
	subs := Subsystems()
	if len(subs) != 10 {
		t.Fatalf("len(Subsystems()) = %d, want 10", len(subs))
	}
	wantKeys := []string{
		"miner", "config", "server", "socket", "session",
		"nonceSubmitter", "plotReader", "plotVerifier", "wallet", "general",
	}
	seen := make(map[string]bool)
	for i, s := range subs {
		if s.Key != wantKeys[i] {
			t.Errorf("Subsystems()[%d].Key = %q, want %q", i, s.Key, wantKeys[i])
		}
		if seen[s.Key] {
			t.Errorf("duplicate key %q", s.Key)
		}
		seen[s.Key] = true
		if !s.Default.Valid() {
			t.Errorf("%s default %v not valid", s.Key, s.Default)
		}
	}

	// Returned slice is a copy.
	subs[0].Key = "mutated"
	if Subsystems()[0].Key != "miner" {
		t.Error("Subsystems() exposes internal catalog")
	}
}

func TestDefaultsValidate(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() error = %v", err)
	}
	if d["socket"] != Off || d["server"] != Fatal || d["miner"] != Information {
		t.Errorf("unexpected defaults: %v", d)
	}
}

func TestParseValues(t *testing.T) {
	full := Defaults().Ordinals()

	got, err := ParseValues(full)
	if err != nil {
		t.Fatalf("ParseValues(defaults) error = %v", err)
	}
	if !got.Equal(Defaults()) {
		t.Errorf("ParseValues(defaults) = %v, want %v", got, Defaults())
	}

	bad := Defaults().Ordinals()
	bad["wallet"] = 12
	if _, err := ParseValues(bad); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ParseValues(out of range) error = %v, want ErrOutOfRange", err)
	}

	partial := map[string]int{"miner": 7}
	if _, err := ParseValues(partial); !errors.Is(err, ErrIncomplete) {
		t.Errorf("ParseValues(partial) error = %v, want ErrIncomplete", err)
	}

	foreign := Defaults().Ordinals()
	foreign["gpu"] = 3
	if _, err := ParseValues(foreign); !errors.Is(err, ErrUnknownSubsystem) {
		t.Errorf("ParseValues(foreign) error = %v, want ErrUnknownSubsystem", err)
	}
}

func TestMerge(t *testing.T) {
	base := Defaults()
	merged, err := base.Merge(map[string]Level{"miner": Trace})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if merged["miner"] != Trace {
		t.Errorf("merged miner = %v, want trace", merged["miner"])
	}
	if base["miner"] != Information {
		t.Error("Merge() mutated the receiver")
	}

	if _, err := base.Merge(map[string]Level{"miner": Level(99)}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Merge(bad level) error = %v, want ErrOutOfRange", err)
	}
}

func TestStateMarshalOrder(t *testing.T) {
	s := Defaults()
	s["miner"] = Trace
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{`
	for i, sub := range Subsystems() {
		if i > 0 {
			want += ","
		}
		want += `"` + sub.Key + `":` + itoa(int(s[sub.Key]))
	}
	want += `}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back State
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !back.Equal(s) {
		t.Errorf("Unmarshal() = %v, want %v", back, s)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
