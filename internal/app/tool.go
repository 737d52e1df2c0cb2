package app

import (
	"errors"
	"fmt"

	"github.com/philipparndt/takeoff/internal/drawing"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
)

// ErrUnknownCondition is returned when activating a condition the registry does not know
var ErrUnknownCondition = errors.New("unknown condition")

// SetTool arms a tool, discarding any gesture in progress. Drawing tools
// other than measure are refused with a rejection notice while no
// condition is active.
func (s *Session) SetTool(tool measure.Tool) error {
	s.mu.Lock()
	err := s.setToolLocked(tool)
	s.mu.Unlock()
	s.changed()
	return err
}

func (s *Session) setToolLocked(tool measure.Tool) error {
	if !tool.Valid() {
		return fmt.Errorf("unknown tool %q", tool)
	}
	if err := s.tool.machine.Arm(tool, s.tool.condition != ""); err != nil {
		s.rejectLocked("Select a condition before drawing", err)
		return err
	}
	s.ruler = nil
	s.pointer.menu = nil
	s.cancelDragLocked()
	if tool != measure.ToolSelect {
		s.pointer.hovered = ""
	}
	return nil
}

// SetActiveCondition makes id the condition new measurements are created
// under. An empty id clears it; a drawing tool that needs a condition then
// falls back to select.
func (s *Session) SetActiveCondition(id string) error {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.conditions.Condition(id); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCondition, id)
		}
	}
	s.tool.condition = id
	if id == "" && s.tool.machine.Tool().RequiresCondition() {
		_ = s.tool.machine.Arm(measure.ToolSelect, false)
	}
	return nil
}

// drawLocked feeds one event to the machine and acts on the outcome
func (s *Session) drawLocked(kind drawing.EventKind, at geometry.Point) drawing.Outcome {
	out := s.tool.machine.Handle(drawing.Event{
		Kind: kind,
		At:   at,
		Zoom: s.sheet.sheets.Viewport().Zoom,
	})
	switch out.Kind {
	case drawing.Started:
		s.ruler = nil
	case drawing.Committed:
		s.commitLocked(*out.Result)
	}
	return out
}

// commitLocked turns a finished gesture into a ruler reading or a create-Command
func (s *Session) commitLocked(res measure.Result) {
	if s.tool.machine.Tool() == measure.ToolMeasure {
		s.ruler = &res
		return
	}
	if s.tool.condition == "" {
		// Arm refuses drawing tools without a condition, so this only
		// happens if the condition was cleared behind the machine's back
		s.rejectLocked("Select a condition before drawing", drawing.ErrConditionRequired)
		return
	}
	s.createLocked(res, s.tool.condition, provenance{})
}

func (s *Session) undoPointLocked() {
	s.tool.machine.Handle(drawing.Event{Kind: drawing.UndoPoint})
}

// cancelGestureLocked reports whether there was a gesture to cancel
func (s *Session) cancelGestureLocked() bool {
	if !s.tool.machine.Gesturing() {
		return false
	}
	s.tool.machine.Handle(drawing.Event{Kind: drawing.Cancel})
	return true
}
