// Package key provides key event types and hotkey parsing for editor input.
//
// This package defines the fundamental types for representing keyboard input:
//
//   - Key: identifies a keyboard key (special keys or runes)
//   - Modifier: modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: a single key press with modifiers
//
// # Key Specifications
//
// Hotkeys are written as "+"-separated names:
//
//   - Simple keys: "a", "Enter", "Escape", "Backspace"
//   - With modifiers: "Ctrl+B", "Shift+Tab", "Mod+Enter"
//
// "Mod" is the primary shortcut modifier and matches either Ctrl or Meta, so
// the same binding works with Cmd on macOS and Ctrl elsewhere.
package key
