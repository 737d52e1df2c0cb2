package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/philipparndt/takeoff/internal/app"
	"github.com/philipparndt/takeoff/internal/keys"
	"github.com/philipparndt/takeoff/pkg/geometry"
)

// scrollStep is the scroll delta the desktop driver reports per wheel notch
const scrollStep = 10

func point(p fyne.Position) geometry.Point {
	return geometry.Point{X: float64(p.X), Y: float64(p.Y)}
}

func pointerEvent(at fyne.Position, button desktop.MouseButton, mods fyne.KeyModifier) app.PointerEvent {
	return app.PointerEvent{At: point(at), Button: pointerButton(button), Mods: modifiers(mods)}
}

// pointerButton maps a desktop button; an unknown button counts as primary
func pointerButton(b desktop.MouseButton) app.Button {
	switch b {
	case desktop.MouseButtonSecondary:
		return app.ButtonSecondary
	case desktop.MouseButtonTertiary:
		return app.ButtonMiddle
	default:
		return app.ButtonPrimary
	}
}

func modifiers(m fyne.KeyModifier) keys.Modifier {
	var mods keys.Modifier
	if m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0 {
		mods |= keys.Ctrl
	}
	if m&fyne.KeyModifierShift != 0 {
		mods |= keys.Shift
	}
	if m&fyne.KeyModifierAlt != 0 {
		mods |= keys.Alt
	}
	return mods
}

// wheelNotches converts a scroll delta; scrolling up zooms in
func wheelNotches(dy float32) float64 {
	return float64(dy) / scrollStep
}

func keyEvent(name fyne.KeyName, mods fyne.KeyModifier) app.KeyEvent {
	key := string(name)
	if name == fyne.KeyEnter {
		key = "enter"
	}
	return app.KeyEvent{
		Key:    key,
		Ctrl:   mods&fyne.KeyModifierControl != 0,
		Meta:   mods&fyne.KeyModifierSuper != 0,
		Shift:  mods&fyne.KeyModifierShift != 0,
		Alt:    mods&fyne.KeyModifierAlt != 0,
		Target: app.TargetCanvas,
	}
}

func cursorFor(c app.Cursor) desktop.Cursor {
	switch c {
	case app.CursorCrosshair:
		return desktop.CrosshairCursor
	case app.CursorGrabbing, app.CursorMove:
		return desktop.PointerCursor
	default:
		return desktop.DefaultCursor
	}
}
