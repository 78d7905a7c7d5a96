package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds every call into a script.
const DefaultExecutionTimeout = 200 * time.Millisecond

// State wraps a sandboxed gopher-lua interpreter.
//
// gopher-lua's LState is not goroutine-safe. State serializes its own
// methods, but functions registered with RegisterModule run while the
// state is locked and must not call back into it.
type State struct {
	mu      sync.Mutex
	l       *lua.LState
	sandbox *Sandbox
	timeout time.Duration
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout applied to each DoString and Call.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// WithPrint redirects the script's print function to fn.
func WithPrint(fn func(string)) StateOption {
	return func(s *State) {
		s.sandbox.print = fn
	}
}

// NewState creates a sandboxed Lua state.
func NewState(opts ...StateOption) (*State, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		L.Push(L.NewFunction(open))
		if err := L.PCall(0, 0, nil); err != nil {
			L.Close()
			return nil, fmt.Errorf("open lua library: %w", err)
		}
	}
	s := &State{
		l:       L,
		sandbox: NewSandbox(L),
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sandbox.Install()
	return s, nil
}

// DoString runs code.
func (s *State) DoString(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStateClosed
	}
	return s.run(func() error { return s.l.DoString(code) })
}

// HasFunc reports whether the global name holds a function.
func (s *State) HasFunc(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.l.GetGlobal(name).Type() == lua.LTFunction
}

// Call calls the global function fn with args, converted with ToLua, and
// returns its results. Returns an empty slice (not nil) if the function
// returns no values.
func (s *State) Call(fn string, args ...any) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStateClosed
	}
	fnVal := s.l.GetGlobal(fn)
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotFunction, fn, fnVal.Type())
	}

	top := s.l.GetTop()
	s.l.Push(fnVal)
	for _, arg := range args {
		s.l.Push(ToLua(s.l, arg))
	}
	if err := s.run(func() error { return s.l.PCall(len(args), lua.MultRet, nil) }); err != nil {
		s.l.SetTop(top)
		return nil, err
	}

	n := s.l.GetTop() - top
	out := make([]lua.LValue, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		out = append(out, s.l.Get(top+i))
	}
	s.l.SetTop(top)
	return out, nil
}

// RegisterModule makes funcs available to scripts as require(name) and as
// the global name.
func (s *State) RegisterModule(name string, funcs map[string]lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	mod := s.l.SetFuncs(s.l.NewTable(), funcs)
	s.l.SetGlobal(name, mod)
	s.sandbox.Provide(name, mod)
}

// Close releases the interpreter. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.l.Close()
	s.closed = true
	return nil
}

// run executes fn under the execution timeout, converting panics and
// interruptions into errors. The caller holds s.mu.
func (s *State) run(fn func() error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.l.SetContext(ctx)
	defer s.l.RemoveContext()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrExecutionTimeout, s.timeout)
		}
	}()
	return fn()
}
