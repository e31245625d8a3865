package protocol

import (
	"errors"
	"testing"
)

func TestRouterDispatchOrder(t *testing.T) {
	r := NewRouter()

	var calls []string
	r.Register(HandlerFunc(func(msg Message) error {
		calls = append(calls, "first:"+msg.Type())
		return nil
	}), TypeProgress, TypeSettingsSync)
	r.Register(HandlerFunc(func(msg Message) error {
		calls = append(calls, "second:"+msg.Type())
		return nil
	}), TypeProgress)

	frames := []string{
		`{"type":"progress","style":"generation","percent":10}`,
		`{"type":"settings_sync","values":{"miner":1}}`,
		`{"type":"settings_reject","seq":1}`,
	}
	for _, f := range frames {
		if err := r.Handle("test", []byte(f)); err != nil {
			t.Fatalf("Handle(%s) error = %v", f, err)
		}
	}

	want := []string{"first:progress", "second:progress", "first:settings_sync"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestRouterReturnsFirstErrorAfterAllHandlers(t *testing.T) {
	r := NewRouter()
	boom := errors.New("boom")
	ran := 0
	r.Register(HandlerFunc(func(Message) error { ran++; return boom }), TypeProgress)
	r.Register(HandlerFunc(func(Message) error { ran++; return nil }), TypeProgress)

	err := r.Handle("test", []byte(`{"type":"progress","style":"generation","percent":1}`))
	if !errors.Is(err, boom) {
		t.Errorf("Handle() error = %v, want boom", err)
	}
	if ran != 2 {
		t.Errorf("handlers ran = %d, want 2", ran)
	}
}

func TestRouterMalformed(t *testing.T) {
	r := NewRouter()
	err := r.Handle("test", []byte(`{`))
	if !IsType(err, ErrTypeMalformed) {
		t.Errorf("Handle() error = %v, want malformed", err)
	}
}
