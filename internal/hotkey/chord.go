package hotkey

import (
	"fmt"
	"strings"
)

// Chord is a parsed hotkey combination: zero or more modifier groups
// plus exactly one main key.
type Chord struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	Key   string
}

// modifier group variants as they arrive from key event sources. A
// bare group name and its left/right variants all satisfy the group.
var modifierVariants = map[string][]string{
	"ctrl":  {"ctrl", "ctrl_l", "ctrl_r"},
	"shift": {"shift", "shift_l", "shift_r"},
	"alt":   {"alt", "alt_l", "alt_r"},
	"super": {"super", "super_l", "super_r", "cmd", "meta", "win"},
}

// ParseChord parses hotkey strings like "<ctrl>+<alt>+t" or
// "ctrl+alt+t". Modifier tokens may appear in any order; exactly one
// non-modifier key is required.
func ParseChord(s string) (Chord, error) {
	var chord Chord

	cleaned := strings.ReplaceAll(strings.ToLower(s), " ", "")
	if cleaned == "" {
		return chord, fmt.Errorf("empty hotkey")
	}

	for _, part := range strings.Split(cleaned, "+") {
		part = strings.Trim(part, "<>")
		if part == "" {
			return chord, fmt.Errorf("empty key token in hotkey %q", s)
		}

		switch part {
		case "ctrl", "control":
			chord.Ctrl = true
		case "shift":
			chord.Shift = true
		case "alt":
			chord.Alt = true
		case "super", "win", "meta", "cmd":
			chord.Super = true
		default:
			if chord.Key != "" {
				return chord, fmt.Errorf("hotkey %q has multiple non-modifier keys (%s, %s)", s, chord.Key, part)
			}
			chord.Key = part
		}
	}

	if chord.Key == "" {
		return chord, fmt.Errorf("hotkey %q has no non-modifier key", s)
	}
	return chord, nil
}

// Matches reports whether the pressed-key set satisfies the chord:
// every required modifier group has at least one variant down and the
// main key is down. Extra pressed keys do not prevent a match.
func (c Chord) Matches(pressed map[string]bool) bool {
	required := []struct {
		needed bool
		group  string
	}{
		{c.Ctrl, "ctrl"},
		{c.Shift, "shift"},
		{c.Alt, "alt"},
		{c.Super, "super"},
	}
	for _, req := range required {
		if !req.needed {
			continue
		}
		down := false
		for _, variant := range modifierVariants[req.group] {
			if pressed[variant] {
				down = true
				break
			}
		}
		if !down {
			return false
		}
	}
	return pressed[c.Key]
}

func (c Chord) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Super {
		parts = append(parts, "super")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// eventKeys lists the key names a synthetic source presses to satisfy
// the chord, modifiers first.
func (c Chord) eventKeys() []string {
	var keys []string
	if c.Ctrl {
		keys = append(keys, "ctrl_l")
	}
	if c.Shift {
		keys = append(keys, "shift_l")
	}
	if c.Alt {
		keys = append(keys, "alt_l")
	}
	if c.Super {
		keys = append(keys, "super")
	}
	return append(keys, c.Key)
}
