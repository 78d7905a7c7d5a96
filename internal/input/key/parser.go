package key

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// runeAliases names characters that cannot be written directly in a spec.
var runeAliases = map[string]rune{
	"space": ' ',
	"plus":  '+',
}

// Parse parses a key specification string into an Event.
//
// Supported formats:
//   - Single character: "a", "A", "1", "*"
//   - Special keys: "Enter", "Escape", "Tab", "Backspace", "Space"
//   - With modifiers: "Ctrl+S", "Mod+B", "Shift+Tab", "Mod+Shift+Z"
func Parse(spec string) (Event, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Event{}, ErrEmptySpec
	}
	if spec == "+" {
		return NewRuneEvent('+', ModNone), nil
	}

	parts := strings.Split(spec, "+")
	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Event{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}
	return parseKeyWithModifiers(parts[len(parts)-1], mods)
}

// parseKeyWithModifiers parses a key part with already-known modifiers
func parseKeyWithModifiers(keyPart string, mods Modifier) (Event, error) {
	keyPart = strings.TrimSpace(keyPart)
	if keyPart == "" {
		return Event{}, ErrInvalidSpec
	}

	lowerKey := strings.ToLower(keyPart)
	if r, ok := runeAliases[lowerKey]; ok {
		return NewRuneEvent(r, mods), nil
	}
	if key := KeyFromName(lowerKey); key != KeyNone {
		return NewSpecialEvent(key, mods), nil
	}

	runes := []rune(keyPart)
	if len(runes) == 1 {
		r := runes[0]
		// Uppercase letters have implicit Shift unless a shortcut modifier
		// is named; "Ctrl+B" means the b key.
		if unicode.IsUpper(r) {
			if mods.Has(ModCtrl | ModAlt | ModMeta | ModPrimary) {
				r = unicode.ToLower(r)
			} else {
				mods = mods.With(ModShift)
			}
		}
		return NewRuneEvent(r, mods), nil
	}

	return Event{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// MustParse parses a key specification and panics on error.
// Use only for known-valid specs in initialization code.
func MustParse(spec string) Event {
	event, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return event
}

// ParseAll parses a list of specifications.
func ParseAll(specs ...string) ([]Event, error) {
	out := make([]Event, 0, len(specs))
	for _, s := range specs {
		e, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out = append(out, e)
	}
	return out, nil
}
