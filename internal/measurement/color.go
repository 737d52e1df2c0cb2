package measurement

import (
	"fmt"
	"image/color"
	"strings"
)

// DefaultColor is used for conditions without a valid color
var DefaultColor = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}

// ParseHex parses #rgb or #rrggbb
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	switch len(s) {
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return DefaultColor, fmt.Errorf("invalid color %q: %w", s, err)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return DefaultColor, fmt.Errorf("invalid color %q: %w", s, err)
		}
	default:
		return DefaultColor, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Resolve fills Color from Hex, falling back to DefaultColor
func (c Condition) Resolve() Condition {
	if rgba, err := ParseHex(c.Hex); err == nil {
		c.Color = rgba
	} else if c.Color == (color.RGBA{}) {
		c.Color = DefaultColor
	}
	return c
}
