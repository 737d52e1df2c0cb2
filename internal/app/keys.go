package app

import (
	"github.com/philipparndt/takeoff/internal/keys"
	"github.com/philipparndt/takeoff/pkg/measure"
)

// Target classifies the element that received a key event
type Target int

const (
	TargetCanvas Target = iota
	TargetOther
	TargetTextInput
	TargetTextArea
	TargetContentEditable
)

// Editable reports whether the target consumes typed text
func (t Target) Editable() bool {
	return t == TargetTextInput || t == TargetTextArea || t == TargetContentEditable
}

// KeyEvent is a key press as reported by the host
type KeyEvent struct {
	Key    string
	Ctrl   bool
	Meta   bool // Cmd on macOS, treated as Ctrl
	Shift  bool
	Alt    bool
	Target Target
}

// Chord normalizes the event for binding lookup
func (e KeyEvent) Chord() (keys.Chord, error) {
	key, err := keys.NormalizeKey(e.Key)
	if err != nil {
		return keys.Chord{}, err
	}
	c := keys.Chord{Key: key}
	if e.Ctrl || e.Meta {
		c.Mods |= keys.Ctrl
	}
	if e.Shift {
		c.Mods |= keys.Shift
	}
	if e.Alt {
		c.Mods |= keys.Alt
	}
	return c, nil
}

type keyHandler func(s *Session, c keys.Chord) bool

// keyActions is the dispatch table for non-tool actions. Handlers run
// without the session lock.
var keyActions = map[keys.Action]keyHandler{
	keys.Undo:          func(s *Session, _ keys.Chord) bool { _ = s.Undo(); return true },
	keys.Redo:          func(s *Session, _ keys.Chord) bool { _ = s.Redo(); return true },
	keys.Delete:        (*Session).deleteKey,
	keys.Escape:        func(s *Session, _ keys.Chord) bool { s.Escape(); return true },
	keys.ReviewNext:    func(s *Session, _ keys.Chord) bool { _, ok := s.NextReview(); return ok },
	keys.ReviewPrev:    func(s *Session, _ keys.Chord) bool { _, ok := s.PrevReview(); return ok },
	keys.ReviewApprove: func(s *Session, _ keys.Chord) bool { return s.ApproveCurrent() },
	keys.Fit:           func(s *Session, _ keys.Chord) bool { return s.FitToScreen() },
}

// HandleKey dispatches a key press and reports whether it was consumed.
// Nothing happens unless the canvas owns focus, and never while the event
// target is a text field.
func (s *Session) HandleKey(e KeyEvent) bool {
	if e.Target.Editable() || !s.focus.Owns(RegionCanvas) {
		return false
	}
	chord, err := e.Chord()
	if err != nil {
		return false
	}

	s.mu.Lock()
	action, ok := s.bindings.Lookup(chord)
	s.mu.Unlock()
	if !ok {
		return false
	}

	if tool, isTool := action.Tool(); isTool {
		// A rejected tool switch still consumed the key
		_ = s.SetTool(tool)
		return true
	}
	if h, ok := keyActions[action]; ok {
		return h(s, chord)
	}
	return false
}

// deleteKey deletes the selection. Backspace during a gesture removes the
// last point instead.
func (s *Session) deleteKey(c keys.Chord) bool {
	s.mu.Lock()
	gesturing := s.tool.machine.Gesturing()
	handled := false
	switch {
	case gesturing && c.Key == "backspace":
		s.undoPointLocked()
		handled = true
	case !gesturing:
		handled = s.deleteSelectionLocked()
	}
	s.mu.Unlock()
	s.changed()
	return handled
}

// Escape closes the context menu, else cancels the gesture or handle drag,
// else clears the selection and returns to select. Repeating it on an idle
// canvas changes nothing.
func (s *Session) Escape() {
	s.mu.Lock()
	switch {
	case s.pointer.menu != nil:
		s.pointer.menu = nil
	case s.cancelGestureLocked():
	case s.cancelDragLocked():
	default:
		s.selection.Clear()
		s.ruler = nil
		s.pointer.panning = false
		if s.tool.machine.Tool() != measure.ToolSelect {
			_ = s.tool.machine.Arm(measure.ToolSelect, false)
		}
	}
	s.mu.Unlock()
	s.changed()
}
