package key

import (
	"fmt"
	"strings"
	"unicode"
)

// Event represents a single key press.
type Event struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune events.
	Rune rune

	// Modifiers contains the active modifier keys.
	Modifiers Modifier
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(key Key, mods Modifier) Event {
	return Event{Key: key, Modifiers: mods}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// IsChar returns true if this is a printable character typed without a
// shortcut modifier. Such events insert text.
func (e Event) IsChar() bool {
	return e.IsRune() && unicode.IsPrint(e.Rune) && !e.IsModified()
}

// IsModified returns true if any modifier is pressed.
// For character events, Shift alone is not considered modified
// (since Shift changes the character itself).
func (e Event) IsModified() bool {
	if e.IsRune() {
		return e.Modifiers&(ModCtrl|ModAlt|ModMeta|ModPrimary) != 0
	}
	return e.Modifiers != ModNone
}

// Text returns the text an unmodified character event types, or "".
func (e Event) Text() string {
	if !e.IsChar() {
		return ""
	}
	return string(e.Rune)
}

// String returns a canonical string representation that Parse accepts.
// Examples: "a", "Ctrl+B", "Shift+Tab", "Space".
func (e Event) String() string {
	var name string
	switch {
	case e.Key == KeyRune && e.Rune == ' ':
		name = "Space"
	case e.Key == KeyRune && e.Rune == '+':
		name = "Plus"
	case e.Key == KeyRune:
		name = string(e.Rune)
	default:
		name = e.Key.String()
	}
	mods := e.Modifiers
	if e.Key == KeyRune {
		mods = mods.Without(ModShift)
	}
	if mods == ModNone {
		return name
	}
	return mods.String() + "+" + name
}

// Equals returns true if two events represent the same key press.
func (e Event) Equals(other Event) bool {
	return e.Key == other.Key &&
		e.Rune == other.Rune &&
		e.Modifiers == other.Modifiers
}

// Matches reports whether e satisfies the hotkey h, as returned by Parse.
// Letters compare case-insensitively. Mod in h is satisfied by Ctrl or Meta.
// For character keys Shift is only compared when h names it.
func (e Event) Matches(h Event) bool {
	if e.Key != h.Key {
		return false
	}
	if e.Key == KeyRune && unicode.ToLower(e.Rune) != unicode.ToLower(h.Rune) {
		return false
	}
	got, want := e.Modifiers, h.Modifiers
	if got.Has(ModPrimary) {
		got = got.Without(ModPrimary).With(ModCtrl)
	}
	if e.Key == KeyRune && !want.HasShift() {
		got = got.Without(ModShift)
	}
	if want.Has(ModPrimary) {
		if !got.HasCtrl() && !got.HasMeta() {
			return false
		}
		got = got.Without(ModCtrl | ModMeta)
		want = want.Without(ModPrimary)
	}
	return got == want
}

// Is parses spec and reports whether e matches it. An invalid spec matches
// nothing.
func (e Event) Is(spec string) bool {
	h, err := Parse(spec)
	if err != nil {
		return false
	}
	return e.Matches(h)
}

// IsEscape returns true if this is the Escape key (with no modifiers).
func (e Event) IsEscape() bool {
	return e.Key == KeyEscape && e.Modifiers == ModNone
}

// IsEnter returns true if this is the Enter key (with no modifiers).
func (e Event) IsEnter() bool {
	return e.Key == KeyEnter && e.Modifiers == ModNone
}

// IsBackspace returns true if this is Backspace (with no modifiers).
func (e Event) IsBackspace() bool {
	return e.Key == KeyBackspace && e.Modifiers == ModNone
}

// IsTab returns true if this is Tab (with no modifiers).
func (e Event) IsTab() bool {
	return e.Key == KeyTab && e.Modifiers == ModNone
}

// GoString implements fmt.GoStringer for debugging.
func (e Event) GoString() string {
	return fmt.Sprintf("Event{Key: %s, Rune: %q, Modifiers: %s}",
		e.Key.String(), e.Rune, strings.ReplaceAll(e.Modifiers.String(), "+", "|"))
}
