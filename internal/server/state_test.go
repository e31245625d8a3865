package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minerdash/minerdash/internal/levels"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}

func TestSaveStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	state := levels.Defaults()
	state["session"] = levels.All

	if err := SaveState(path, state, 12); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "session: all") {
		t.Errorf("state file does not use level names:\n%s", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}

	got, rev, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if !got.Equal(state) || rev != 12 {
		t.Errorf("LoadState() = %v, %d", got, rev)
	}
}

func TestLoadStatePartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	if err := writeFile(path, "version: 1\nrevision: 3\nlevels:\n  miner: trace\n"); err != nil {
		t.Fatal(err)
	}

	got, _, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got["miner"] != levels.Trace {
		t.Errorf("miner = %v, want trace", got["miner"])
	}
	if got["wallet"] != levels.Fatal {
		t.Errorf("wallet = %v, want default fatal", got["wallet"])
	}
}
