package progress

import (
	"math"
	"strings"
	"testing"

	"github.com/minerdash/minerdash/internal/protocol"
)

type fakeBar struct {
	states []State
}

func (b *fakeBar) SetProgress(s State) { b.states = append(b.states, s) }

func (b *fakeBar) last() State { return b.states[len(b.states)-1] }

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{42, 42},
		{42.4, 42},
		{42.5, 43},
		{99.6, 100},
		{100, 100},
		{150, 100},
		{-5, 0},
		{-0.4, 0},
		{math.Inf(1), 100},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRenderGeneration(t *testing.T) {
	bar := &fakeBar{}

	RenderGeneration(bar, 42)
	got := bar.last()
	if got.Width() != "42%" || !got.Active || got.Label != "" {
		t.Errorf("RenderGeneration(42) = %+v", got)
	}

	RenderGeneration(bar, 100)
	if bar.last().Active {
		t.Error("generation at 100 should not be active")
	}

	RenderGeneration(bar, 150)
	if got := bar.last(); got.Percent != 100 || got.Active {
		t.Errorf("RenderGeneration(150) = %+v, want 100 inactive", got)
	}

	RenderGeneration(bar, -3)
	if got := bar.last(); got.Percent != 0 || !got.Active {
		t.Errorf("RenderGeneration(-3) = %+v, want 0 active", got)
	}
}

func TestRenderVerificationLabel(t *testing.T) {
	bar := &fakeBar{}

	for _, p := range []float64{0, 7, 99.5, 100, 250} {
		RenderVerification(bar, p)
		got := bar.last()
		if !strings.HasSuffix(got.Label, "% Verified") {
			t.Errorf("RenderVerification(%v) label = %q", p, got.Label)
		}
		if want := got.Width() + " Verified"; got.Label != want {
			t.Errorf("label %q does not match width %q", got.Label, got.Width())
		}
	}

	RenderVerification(bar, 100)
	if got := bar.last(); got.Active || got.Label != "100% Verified" {
		t.Errorf("RenderVerification(100) = %+v", got)
	}
}

func TestRenderIdempotent(t *testing.T) {
	bar := &fakeBar{}
	RenderVerification(bar, 63.2)
	RenderVerification(bar, 63.2)
	if bar.states[0] != bar.states[1] {
		t.Errorf("repeat render differs: %+v vs %+v", bar.states[0], bar.states[1])
	}

	RenderGeneration(nil, 10) // no host, no panic
}

func TestRendererRoutesByStyle(t *testing.T) {
	gen, ver := &fakeBar{}, &fakeBar{}
	r := NewRenderer()
	r.Attach(Generation, gen)
	r.Attach(Verification, ver)

	_ = r.HandleMessage(&protocol.Progress{Style: protocol.StyleGeneration, Percent: 12})
	_ = r.HandleMessage(&protocol.Progress{Style: protocol.StyleVerification, Percent: 88})
	_ = r.HandleMessage(&protocol.Progress{Style: "nonce", Percent: 5})
	_ = r.HandleMessage(&protocol.SettingsReject{Seq: 1})

	if len(gen.states) != 1 || gen.last().Percent != 12 {
		t.Errorf("generation bar states = %+v", gen.states)
	}
	if len(ver.states) != 1 || ver.last().Label != "88% Verified" {
		t.Errorf("verification bar states = %+v", ver.states)
	}

	if st, ok := r.Last(Generation); !ok || st.Percent != 12 {
		t.Errorf("Last(generation) = %+v, %v", st, ok)
	}
}

func TestRendererWithoutBar(t *testing.T) {
	r := NewRenderer()
	if err := r.HandleMessage(&protocol.Progress{Style: protocol.StyleGeneration, Percent: 50}); err != nil {
		t.Errorf("HandleMessage() error = %v", err)
	}
	if st, ok := r.Last(Generation); !ok || st.Percent != 50 {
		t.Errorf("Last() = %+v, %v", st, ok)
	}
}

func TestTrackerPublishesOnChange(t *testing.T) {
	var got []float64
	tr := NewTracker(Generation, 1000, func(p *protocol.Progress) {
		if p.Style != Generation {
			t.Errorf("style = %q", p.Style)
		}
		got = append(got, p.Percent)
	})

	for i := 0; i < 1000; i++ {
		tr.Add(1)
	}

	// 0 through 100
	if len(got) != 101 {
		t.Fatalf("published %d events, want 101", len(got))
	}
	if got[len(got)-1] != 100 {
		t.Errorf("last event = %v, want 100", got[len(got)-1])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("events not increasing at %d: %v", i, got[i-1:i+1])
		}
	}

	tr.Add(50) // past total, still 100
	if len(got) != 101 {
		t.Error("saturated tracker published again")
	}
}

func TestTrackerSetAndFinish(t *testing.T) {
	var got []float64
	tr := NewTracker(Verification, 8, func(p *protocol.Progress) { got = append(got, p.Percent) })

	tr.Set(2)
	tr.Set(2)
	tr.Finish()

	if len(got) != 2 || got[0] != 25 || got[1] != 100 {
		t.Errorf("published %v, want [25 100]", got)
	}
	if tr.Percent() != 100 {
		t.Errorf("Percent() = %v, want 100", tr.Percent())
	}

	empty := NewTracker(Generation, 0, nil)
	if empty.Percent() != 100 {
		t.Errorf("empty job Percent() = %v, want 100", empty.Percent())
	}
}
