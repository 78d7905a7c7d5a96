package lua

import (
	"errors"
	"strings"
	"testing"
	"time"

	glua "github.com/yuin/gopher-lua"
)

func newState(t *testing.T, opts ...StateOption) *State {
	t.Helper()
	s, err := NewState(opts...)
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStateCall(t *testing.T) {
	s := newState(t)
	if err := s.DoString(`function add(a, b) return a + b, "done" end`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	rets, err := s.Call("add", glua.LNumber(2), glua.LNumber(3))
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(rets) != 2 || rets[0] != glua.LNumber(5) || rets[1] != glua.LString("done") {
		t.Errorf("Call() = %v, want [5 done]", rets)
	}
}

func TestStateCallNoResults(t *testing.T) {
	s := newState(t)
	if err := s.DoString(`function noop() end`); err != nil {
		t.Fatal(err)
	}
	rets, err := s.Call("noop")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if rets == nil || len(rets) != 0 {
		t.Errorf("Call() = %#v, want empty slice", rets)
	}
}

func TestStateCallMissing(t *testing.T) {
	s := newState(t)
	if s.HasFunc("nope") {
		t.Error("HasFunc(nope) = true")
	}
	if _, err := s.Call("nope"); !errors.Is(err, ErrNotFunction) {
		t.Errorf("Call(nope) error = %v, want ErrNotFunction", err)
	}
}

func TestStateScriptError(t *testing.T) {
	s := newState(t)
	if err := s.DoString(`function boom() error("bad thing") end`); err != nil {
		t.Fatal(err)
	}
	_, err := s.Call("boom")
	if err == nil || !strings.Contains(err.Error(), "bad thing") {
		t.Errorf("Call(boom) error = %v", err)
	}
	// The state stays usable after an error.
	if err := s.DoString(`x = 1`); err != nil {
		t.Errorf("DoString after error = %v", err)
	}
}

func TestStateTimeout(t *testing.T) {
	s := newState(t, WithExecutionTimeout(20*time.Millisecond))
	if err := s.DoString(`function spin() while true do end end`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Call("spin"); !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("Call(spin) error = %v, want ErrExecutionTimeout", err)
	}
}

func TestStateRegisterModule(t *testing.T) {
	s := newState(t)
	s.RegisterModule("host", map[string]glua.LGFunction{
		"twice": func(L *glua.LState) int {
			L.Push(glua.LNumber(2 * L.CheckNumber(1)))
			return 1
		},
	})
	if err := s.DoString(`local h = require("host"); function f() return h.twice(4) + host.twice(1) end`); err != nil {
		t.Fatal(err)
	}
	rets, err := s.Call("f")
	if err != nil {
		t.Fatal(err)
	}
	if rets[0] != glua.LNumber(10) {
		t.Errorf("f() = %v, want 10", rets[0])
	}
}

func TestStateClosed(t *testing.T) {
	s, err := NewState()
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if err := s.DoString(`x = 1`); !errors.Is(err, ErrStateClosed) {
		t.Errorf("DoString() after Close = %v", err)
	}
	if _, err := s.Call("f"); !errors.Is(err, ErrStateClosed) {
		t.Errorf("Call() after Close = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
