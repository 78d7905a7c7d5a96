package key

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want Event
	}{
		{"a", NewRuneEvent('a', ModNone)},
		{"A", NewRuneEvent('A', ModShift)},
		{"*", NewRuneEvent('*', ModNone)},
		{"+", NewRuneEvent('+', ModNone)},
		{"Space", NewRuneEvent(' ', ModNone)},
		{"Enter", NewSpecialEvent(KeyEnter, ModNone)},
		{"backspace", NewSpecialEvent(KeyBackspace, ModNone)},
		{"Ctrl+S", NewRuneEvent('s', ModCtrl)},
		{"Mod+B", NewRuneEvent('b', ModPrimary)},
		{"mod+enter", NewSpecialEvent(KeyEnter, ModPrimary)},
		{"Shift+Tab", NewSpecialEvent(KeyTab, ModShift)},
		{"Mod+Shift+Z", NewRuneEvent('z', ModPrimary|ModShift)},
		{"Ctrl+Plus", NewRuneEvent('+', ModCtrl)},
		{" Alt + x ", NewRuneEvent('x', ModAlt)},
	}

	for _, tt := range tests {
		got, err := Parse(tt.spec)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.spec, err)
			continue
		}
		if !got.Equals(tt.want) {
			t.Errorf("Parse(%q) = %#v, want %#v", tt.spec, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		spec string
		want error
	}{
		{"", ErrEmptySpec},
		{"   ", ErrEmptySpec},
		{"Hyper+a", ErrInvalidSpec},
		{"Ctrl+", ErrInvalidSpec},
		{"Ctrl+foo", ErrInvalidSpec},
		{"ab", ErrInvalidSpec},
	}

	for _, tt := range tests {
		_, err := Parse(tt.spec)
		if !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.spec, err, tt.want)
		}
	}
}

func TestParseAll(t *testing.T) {
	events, err := ParseAll("Mod+B", "Mod+I")
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(events) != 2 || events[1].Rune != 'i' {
		t.Errorf("ParseAll = %#v", events)
	}
	if _, err := ParseAll("Mod+B", "Bogus+x"); !errors.Is(err, ErrInvalidSpec) {
		t.Errorf("ParseAll error = %v, want ErrInvalidSpec", err)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic")
		}
	}()
	MustParse("Nope+q")
}
