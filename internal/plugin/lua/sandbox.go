package lua

import (
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts what a script can reach.
type Sandbox struct {
	l       *lua.LState
	modules map[string]lua.LValue
	print   func(string)
}

// safeLibraries are the standard libraries require may return.
var safeLibraries = []string{"string", "table", "math"}

// removedGlobals load code from outside the script or touch the process.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"module",
	"getfenv",
	"setfenv",
	"collectgarbage",
}

// NewSandbox creates a sandbox for L. Install applies it.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{
		l:       L,
		modules: make(map[string]lua.LValue),
		print: func(s string) {
			_, _ = os.Stdout.WriteString(s + "\n")
		},
	}
}

// Install removes unsafe globals and replaces print and require.
func (s *Sandbox) Install() {
	for _, name := range removedGlobals {
		s.l.SetGlobal(name, lua.LNil)
	}
	s.l.SetGlobal("package", lua.LNil)
	for _, name := range safeLibraries {
		s.modules[name] = s.l.GetGlobal(name)
	}
	s.l.SetGlobal("print", s.l.NewFunction(s.luaPrint))
	s.l.SetGlobal("require", s.l.NewFunction(s.luaRequire))
}

// Provide makes mod loadable as require(name).
func (s *Sandbox) Provide(name string, mod lua.LValue) {
	s.modules[name] = mod
}

// Allowed reports whether require(name) succeeds.
func (s *Sandbox) Allowed(name string) bool {
	_, ok := s.modules[name]
	return ok
}

func (s *Sandbox) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	s.print(strings.Join(parts, "\t"))
	return 0
}

func (s *Sandbox) luaRequire(L *lua.LState) int {
	name := L.CheckString(1)
	mod, ok := s.modules[name]
	if !ok {
		L.RaiseError("module %q is not available", name)
		return 0
	}
	L.Push(mod)
	return 1
}
