// Package lua runs editing scripts on a sandboxed gopher-lua interpreter.
//
// A State opens only the base, table, string and math libraries. Functions
// that load code from disk or strings are removed, and require resolves
// only the safe standard libraries plus modules registered by the host:
//
//	s, err := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.RegisterModule("editor", funcs)
//	if err := s.DoString(src); err != nil {
//	    return err
//	}
//	rets, err := s.Call("on_paste", glua.LString(text))
//
// Every call runs under the execution timeout. A script that runs past it
// is interrupted and the call returns ErrExecutionTimeout.
//
// ToLua and ToGo convert between Go values and Lua values.
package lua
