// Package keys parses key chords and maps them to canvas actions.
package keys

import (
	"fmt"
	"strings"
)

// Modifier is a bit set of held modifier keys
type Modifier uint8

const (
	Ctrl Modifier = 1 << iota
	Shift
	Alt
)

// Chord is a key plus modifiers. Key names are lower case; Cmd/Meta is
// folded into Ctrl so one binding serves both platforms.
type Chord struct {
	Key  string
	Mods Modifier
}

var keyAliases = map[string]string{
	"esc":    "escape",
	"return": "enter",
	"del":    "delete",
	"bksp":   "backspace",
	"space":  " ",
}

// namedKeys are the non-printable keys a chord may name
var namedKeys = map[string]bool{
	"escape": true, "enter": true, "delete": true, "backspace": true, "tab": true, " ": true,
	"up": true, "down": true, "left": true, "right": true, "home": true, "end": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true, "f6": true,
	"f7": true, "f8": true, "f9": true, "f10": true, "f11": true, "f12": true,
}

// ParseChord parses forms like "z", "ctrl+z", "cmd+shift+z" or "shift+tab"
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	var c Chord
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i < len(parts)-1 {
			switch part {
			case "ctrl", "control", "cmd", "meta", "super":
				c.Mods |= Ctrl
			case "shift":
				c.Mods |= Shift
			case "alt", "option", "opt":
				c.Mods |= Alt
			default:
				return Chord{}, fmt.Errorf("unknown modifier %q in chord %q", part, s)
			}
			continue
		}
		key, err := NormalizeKey(part)
		if err != nil {
			return Chord{}, fmt.Errorf("invalid chord %q: %w", s, err)
		}
		c.Key = key
	}
	return c, nil
}

// NormalizeKey lower-cases a key name and resolves aliases
func NormalizeKey(name string) (string, error) {
	key := strings.ToLower(name)
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	if namedKeys[key] || len([]rune(key)) == 1 {
		return key, nil
	}
	if key == "" {
		return "", fmt.Errorf("missing key")
	}
	return "", fmt.Errorf("unknown key %q", name)
}

// String formats the chord in the form ParseChord accepts
func (c Chord) String() string {
	var b strings.Builder
	if c.Mods&Ctrl != 0 {
		b.WriteString("ctrl+")
	}
	if c.Mods&Alt != 0 {
		b.WriteString("alt+")
	}
	if c.Mods&Shift != 0 {
		b.WriteString("shift+")
	}
	switch c.Key {
	case " ":
		b.WriteString("space")
	default:
		b.WriteString(c.Key)
	}
	return b.String()
}
