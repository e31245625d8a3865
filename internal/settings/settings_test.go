package settings

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/protocol"
)

// recordingContainer keeps mounted controls in mount order
type recordingContainer struct {
	order    []string
	mounted  map[string]*Control
	unmounts int
}

func newRecordingContainer() *recordingContainer {
	return &recordingContainer{mounted: make(map[string]*Control)}
}

func (r *recordingContainer) Mount(c *Control) {
	r.order = append(r.order, c.Key())
	r.mounted[c.Key()] = c
}

func (r *recordingContainer) Unmount(key string) {
	if _, ok := r.mounted[key]; !ok {
		return
	}
	r.unmounts++
	delete(r.mounted, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

type recordingSender struct {
	sent []protocol.Message
	err  error
}

func (s *recordingSender) Send(msg protocol.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) updates() []*protocol.SettingsUpdate {
	var out []*protocol.SettingsUpdate
	for _, m := range s.sent {
		if u, ok := m.(*protocol.SettingsUpdate); ok {
			out = append(out, u)
		}
	}
	return out
}

func TestInitSettingsOnePerSubsystem(t *testing.T) {
	c := newRecordingContainer()
	controls := InitSettings(c, nil, nil)

	catalog := levels.Subsystems()
	if len(controls) != len(catalog) {
		t.Fatalf("len(controls) = %d, want %d", len(controls), len(catalog))
	}
	for i, sub := range catalog {
		ctl, ok := controls[sub.Key]
		if !ok {
			t.Errorf("missing control for %q", sub.Key)
			continue
		}
		if ctl.Value() != sub.Default {
			t.Errorf("%s value = %v, want default %v", sub.Key, ctl.Value(), sub.Default)
		}
		if ctl.Label() != sub.DisplayName {
			t.Errorf("%s label = %q, want %q", sub.Key, ctl.Label(), sub.DisplayName)
		}
		if c.order[i] != sub.Key {
			t.Errorf("mount order[%d] = %q, want %q", i, c.order[i], sub.Key)
		}
	}
}

func TestInitSettingsIdempotent(t *testing.T) {
	c := newRecordingContainer()
	InitSettings(c, nil, nil)
	controls := InitSettings(c, nil, nil)

	n := len(levels.Subsystems())
	if len(c.mounted) != n || len(c.order) != n {
		t.Errorf("mounted %d controls after two inits, want %d", len(c.mounted), n)
	}
	if c.unmounts != n {
		t.Errorf("unmounts = %d, want %d", c.unmounts, n)
	}
	for key, ctl := range controls {
		if c.mounted[key] != ctl {
			t.Errorf("container holds a stale control for %q", key)
		}
	}
}

func TestInitSettingsUsesCurrent(t *testing.T) {
	current := levels.Defaults()
	current["socket"] = levels.Trace
	controls := InitSettings(nil, current, nil)

	if got := controls["socket"].Value(); got != levels.Trace {
		t.Errorf("socket = %v, want trace", got)
	}
}

func TestControlSelectFiresOnce(t *testing.T) {
	calls := 0
	controls := InitSettings(nil, nil, func() { calls++ })
	miner := controls["miner"]

	if err := miner.Select(levels.Trace); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d, want 1", calls)
	}

	// Same value is not a change
	if err := miner.Select(levels.Trace); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d after no-op select, want 1", calls)
	}

	err := miner.Select(levels.Level(12))
	if !protocol.IsType(err, protocol.ErrTypeOutOfRangeLevel) {
		t.Errorf("Select(12) error = %v, want OutOfRangeLevel", err)
	}
	if miner.Value() != levels.Trace || calls != 1 {
		t.Error("invalid select must not change value or fire callback")
	}
}

func TestControlStep(t *testing.T) {
	controls := InitSettings(nil, nil, nil)
	socket := controls["socket"] // default off

	_ = socket.Step(-1)
	if socket.Value() != levels.Off {
		t.Errorf("Step(-1) from off = %v, want off", socket.Value())
	}
	_ = socket.Step(2)
	if socket.Value() != levels.Critical {
		t.Errorf("Step(2) = %v, want critical", socket.Value())
	}
	_ = socket.Step(100)
	if socket.Value() != levels.All {
		t.Errorf("Step(100) = %v, want all", socket.Value())
	}
}

func TestPanelSendsBatch(t *testing.T) {
	sender := &recordingSender{}
	p := NewPanel(newRecordingContainer(), sender)
	p.Init()

	ctl, _ := p.Control("miner")
	if err := ctl.Select(levels.Trace); err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	ups := sender.updates()
	if len(ups) != 1 {
		t.Fatalf("sent %d updates, want 1", len(ups))
	}
	if ups[0].Seq != 1 {
		t.Errorf("seq = %d, want 1", ups[0].Seq)
	}
	if err := ups[0].Values.Validate(); err != nil {
		t.Errorf("update is not a full snapshot: %v", err)
	}
	if ups[0].Values["miner"] != levels.Trace {
		t.Errorf("miner = %v, want trace", ups[0].Values["miner"])
	}
	if !p.Pending() {
		t.Error("Pending() should be true until acked")
	}
}

func TestPanelSetLevelsSingleBatch(t *testing.T) {
	sender := &recordingSender{}
	p := NewPanel(nil, sender)
	p.Init()

	err := p.SetLevels(map[string]levels.Level{
		"miner":  levels.Trace,
		"wallet": levels.Warning,
		"socket": levels.Notice,
	})
	if err != nil {
		t.Fatalf("SetLevels() error = %v", err)
	}

	ups := sender.updates()
	if len(ups) != 1 {
		t.Fatalf("sent %d updates, want 1", len(ups))
	}
	if ctl, _ := p.Control("wallet"); ctl.Value() != levels.Warning {
		t.Errorf("wallet control = %v, want warning", ctl.Value())
	}

	// No-op change sends nothing
	if err := p.SetLevels(map[string]levels.Level{"miner": levels.Trace}); err != nil {
		t.Fatalf("SetLevels() error = %v", err)
	}
	if len(sender.updates()) != 1 {
		t.Error("unchanged SetLevels should not send")
	}
}

func TestPanelSetLevelsInvalid(t *testing.T) {
	sender := &recordingSender{}
	p := NewPanel(nil, sender)
	p.Init()
	before := p.State()

	err := p.SetLevels(map[string]levels.Level{"miner": levels.Trace, "wallet": levels.Level(-1)})
	if !protocol.IsType(err, protocol.ErrTypeOutOfRangeLevel) {
		t.Errorf("SetLevels() error = %v, want OutOfRangeLevel", err)
	}
	err = p.SetLevels(map[string]levels.Level{"harvester": levels.Trace})
	if !errors.Is(err, levels.ErrUnknownSubsystem) {
		t.Errorf("SetLevels() error = %v, want ErrUnknownSubsystem", err)
	}
	if !p.State().Equal(before) || len(sender.sent) != 0 {
		t.Error("invalid SetLevels must change nothing")
	}
}

func TestPanelSyncRendersMiner7(t *testing.T) {
	sender := &recordingSender{}
	renders := 0
	p := NewPanel(newRecordingContainer(), sender, WithOnRender(func() { renders++ }))
	p.Init()

	ctl, _ := p.Control("miner")
	_ = ctl.Select(levels.Information) // current value, nothing to send
	if len(sender.sent) != 0 {
		t.Fatalf("selecting the current value sent %d messages", len(sender.sent))
	}

	err := p.SetLevels(map[string]levels.Level{"miner": levels.Level(7)})
	if err != nil {
		t.Fatalf("SetLevels() error = %v", err)
	}

	synced := levels.Defaults()
	synced["miner"] = levels.Level(7)
	if err := p.HandleMessage(&protocol.SettingsSync{Values: synced}); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if got := ctl.Value(); got != 7 {
		t.Errorf("miner selector = %d, want 7", got)
	}
	if renders == 0 {
		t.Error("render hook never ran")
	}
}

func TestPanelAckOverwritesState(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()
	ctl, _ := p.Control("session")
	_ = ctl.Select(levels.Trace)

	authoritative := levels.Defaults()
	authoritative["session"] = levels.Warning // backend clamped the request
	if err := p.HandleMessage(&protocol.SettingsAck{Seq: 1, Revision: 4, Values: authoritative}); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if ctl.Value() != levels.Warning {
		t.Errorf("session = %v, want warning", ctl.Value())
	}
	if p.Pending() {
		t.Error("ack should clear pending")
	}
}

func TestPanelIgnoresStaleAck(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()
	ctl, _ := p.Control("miner")

	_ = ctl.Select(levels.Trace) // seq 1
	_ = ctl.Select(levels.All)   // seq 2

	first := levels.Defaults()
	first["miner"] = levels.Trace
	if err := p.HandleMessage(&protocol.SettingsAck{Seq: 1, Revision: 1, Values: first}); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if ctl.Value() != levels.All {
		t.Errorf("stale ack undid newer edit: miner = %v", ctl.Value())
	}
	if !p.Pending() {
		t.Error("seq 2 is still pending")
	}
}

func TestPanelIgnoresStaleRevision(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()

	newer := levels.Defaults()
	newer["wallet"] = levels.Error
	if err := p.HandleMessage(&protocol.SettingsSync{Revision: 5, Values: newer}); err != nil {
		t.Fatal(err)
	}

	older := levels.Defaults()
	older["wallet"] = levels.Off
	if err := p.HandleMessage(&protocol.SettingsSync{Revision: 3, Values: older}); err != nil {
		t.Fatal(err)
	}

	if got := p.State()["wallet"]; got != levels.Error {
		t.Errorf("wallet = %v, want error (revision 3 is stale)", got)
	}
}

func TestPanelDefersForeignSyncWhilePending(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()
	ctl, _ := p.Control("plotReader")
	_ = ctl.Select(levels.Trace)

	foreign := levels.Defaults()
	foreign["wallet"] = levels.All
	if err := p.HandleMessage(&protocol.SettingsSync{Revision: 1, Values: foreign}); err != nil {
		t.Fatal(err)
	}
	if ctl.Value() != levels.Trace {
		t.Errorf("foreign sync overwrote pending edit: plotReader = %v", ctl.Value())
	}
}

func TestPanelRejectsOutOfRangeBatch(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()
	before := p.State()

	bad := levels.Defaults()
	bad["miner"] = levels.Level(11)
	bad["wallet"] = levels.Trace
	err := p.HandleMessage(&protocol.SettingsSync{Revision: 1, Values: bad})
	if !protocol.IsType(err, protocol.ErrTypeOutOfRangeLevel) {
		t.Errorf("HandleMessage() error = %v, want OutOfRangeLevel", err)
	}
	if !p.State().Equal(before) {
		t.Error("out-of-range batch must not be partially applied")
	}

	partial := levels.State{"miner": levels.Trace}
	err = p.HandleMessage(&protocol.SettingsAck{Values: partial})
	if !protocol.IsType(err, protocol.ErrTypeMalformed) {
		t.Errorf("HandleMessage(partial) error = %v, want Malformed", err)
	}
}

func TestPanelRejectRevertsToConfirmed(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()

	confirmed := levels.Defaults()
	if err := p.HandleMessage(&protocol.SettingsSync{Revision: 1, Values: confirmed}); err != nil {
		t.Fatal(err)
	}

	ctl, _ := p.Control("config")
	_ = ctl.Select(levels.All)
	if err := p.HandleMessage(&protocol.SettingsReject{Seq: 1, Reason: "read-only"}); err != nil {
		t.Fatal(err)
	}

	if p.Pending() {
		t.Error("reject should clear pending")
	}
	if ctl.Value() != confirmed["config"] {
		t.Errorf("config = %v, want confirmed %v", ctl.Value(), confirmed["config"])
	}
}

func TestPanelNilSenderAndSendError(t *testing.T) {
	p := NewPanel(nil, nil)
	p.Init()
	ctl, _ := p.Control("general")
	if err := ctl.Select(levels.Off); err != nil {
		t.Fatalf("Select() with no sender error = %v", err)
	}

	failing := &recordingSender{err: errors.New("connection closed")}
	q := NewPanel(nil, failing)
	q.Init()
	ctl, _ = q.Control("general")
	if err := ctl.Select(levels.Off); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if q.State()["general"] != levels.Off {
		t.Error("local state should keep the edit even if the send failed")
	}
}

func TestPanelResync(t *testing.T) {
	c := newRecordingContainer()
	p := NewPanel(c, &recordingSender{})
	p.Init()

	confirmed := levels.Defaults()
	confirmed["miner"] = levels.Notice
	_ = p.HandleMessage(&protocol.SettingsSync{Revision: 2, Values: confirmed})

	ctl, _ := p.Control("miner")
	_ = ctl.Select(levels.All)
	p.Resync()

	ctl, _ = p.Control("miner")
	if ctl.Value() != levels.Notice {
		t.Errorf("miner after resync = %v, want notice", ctl.Value())
	}
	if p.Pending() {
		t.Error("Resync should clear pending")
	}
	if len(c.mounted) != len(levels.Subsystems()) {
		t.Errorf("mounted = %d after resync", len(c.mounted))
	}

	// A restarted backend counts revisions from scratch
	fresh := levels.Defaults()
	fresh["miner"] = levels.Warning
	_ = p.HandleMessage(&protocol.SettingsSync{Revision: 1, Values: fresh})
	if ctl.Value() != levels.Warning {
		t.Errorf("miner = %v, want warning from restarted backend", ctl.Value())
	}
}

func TestPanelUnsequencedAckIsAuthoritative(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()
	ctl, _ := p.Control("miner")
	_ = ctl.Select(levels.Debug)

	values := levels.Defaults()
	values["miner"] = levels.Trace
	values["wallet"] = levels.Warning
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := protocol.Decode([]byte(`{"type":"settings_ack","values":` + string(data) + `}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := p.HandleMessage(msg); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if got := p.State()["miner"]; got != levels.Trace {
		t.Errorf("miner = %v, want trace", got)
	}
	if got := p.State()["wallet"]; got != levels.Warning {
		t.Errorf("wallet = %v, want warning", got)
	}
	if p.Pending() {
		t.Error("unsequenced ack should clear pending")
	}
}

func TestPanelUnversionedSyncAppliesWhilePending(t *testing.T) {
	p := NewPanel(nil, &recordingSender{})
	p.Init()
	ctl, _ := p.Control("plotReader")
	_ = ctl.Select(levels.Trace)

	foreign := levels.Defaults()
	foreign["wallet"] = levels.All
	if err := p.HandleMessage(&protocol.SettingsSync{Values: foreign}); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if !p.State().Equal(foreign) {
		t.Errorf("State() = %v, want the synced values", p.State())
	}
	if p.Pending() {
		t.Error("unversioned sync should clear pending")
	}

	// A later versioned sync still orders normally
	newer := levels.Defaults()
	newer["socket"] = levels.Error
	if err := p.HandleMessage(&protocol.SettingsSync{Revision: 2, Values: newer}); err != nil {
		t.Fatal(err)
	}
	if got := p.State()["socket"]; got != levels.Error {
		t.Errorf("socket = %v, want error", got)
	}
}

type offlineSender struct {
	recordingSender
}

func (s *offlineSender) Offline() bool { return true }

func TestPanelOfflineEditsAreFinal(t *testing.T) {
	sender := &offlineSender{}
	p := NewPanel(nil, sender)
	p.Init()
	ctl, _ := p.Control("session")
	if err := ctl.Select(levels.Debug); err != nil {
		t.Fatal(err)
	}

	if p.Pending() {
		t.Error("offline edit should not wait for an ack")
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d messages while offline, want 0", len(sender.sent))
	}
	if got := p.State()["session"]; got != levels.Debug {
		t.Errorf("session = %v, want debug", got)
	}

	// Resync keeps the offline edit
	p.Resync()
	ctl, _ = p.Control("session")
	if ctl.Value() != levels.Debug {
		t.Errorf("session after resync = %v, want debug", ctl.Value())
	}
}

func TestPanelNilSenderNeverPending(t *testing.T) {
	p := NewPanel(nil, nil)
	p.Init()
	ctl, _ := p.Control("general")
	_ = ctl.Select(levels.Off)
	if p.Pending() {
		t.Error("panel without a sender should not be pending")
	}
}
