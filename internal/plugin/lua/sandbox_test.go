package lua

import (
	"testing"
)

func TestSandboxRemovesGlobals(t *testing.T) {
	s := newState(t)
	for _, name := range append([]string{"package", "io", "os", "debug"}, removedGlobals...) {
		t.Run(name, func(t *testing.T) {
			if err := s.DoString(`assert(` + name + ` == nil)`); err != nil {
				t.Errorf("%s is reachable: %v", name, err)
			}
		})
	}
}

func TestSandboxRequire(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"string", false},
		{"table", false},
		{"math", false},
		{"os", true},
		{"io", true},
		{"debug", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(t)
			err := s.DoString(`local m = require("` + tt.name + `"); assert(m ~= nil)`)
			if (err != nil) != tt.wantErr {
				t.Errorf("require(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func TestSandboxPrint(t *testing.T) {
	var got []string
	s := newState(t, WithPrint(func(line string) { got = append(got, line) }))
	if err := s.DoString(`print("a", 1, true)`); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "a\t1\ttrue" {
		t.Errorf("print wrote %q", got)
	}
}

func TestSandboxAllowed(t *testing.T) {
	s := newState(t)
	if !s.sandbox.Allowed("math") {
		t.Error("math not allowed")
	}
	if s.sandbox.Allowed("host") {
		t.Error("host allowed before registration")
	}
	s.RegisterModule("host", nil)
	if !s.sandbox.Allowed("host") {
		t.Error("host not allowed after registration")
	}
}
