package app

import (
	"image/color"
	"slices"

	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

// Shape is a measurement prepared for drawing
type Shape struct {
	Measurement   measurement.Measurement
	Color         color.RGBA
	Selected      bool
	Hovered       bool
	ReviewCurrent bool
	Handles       []geometry.Point // image space, only on the selected shape
}

// Scene is everything a rendering surface needs for one frame. Layers are
// drawn in field order: shapes bottom to top, then ghosts, preview and ruler.
type Scene struct {
	Viewport        viewer.State
	Container       viewer.Size
	Image           viewer.Size
	PageID          string
	Shapes          []Shape
	Ghosts          []Proposal
	Gesture         []geometry.Point
	Preview         *measure.Result
	Ruler           *measure.Result
	Menu            *ContextMenu
	Cursor          Cursor
	Tool            measure.Tool
	ActiveCondition string
	ReviewMode      bool
	Uncalibrated    bool
	CanUndo         bool
	CanRedo         bool
	Notices         []Notice
}

// Scene takes a consistent snapshot of the session
func (s *Session) Scene() Scene {
	canUndo, canRedo := s.history.CanUndo(), s.history.CanRedo()

	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.sheet.sheets.Viewport()
	sc := Scene{
		Viewport:        v.State,
		Container:       v.Container(),
		Image:           s.sheet.image,
		PageID:          s.sheet.pageID,
		Ghosts:          slices.Clone(s.proposals),
		Gesture:         s.tool.machine.Points(),
		Cursor:          s.cursorLocked(),
		Tool:            s.tool.machine.Tool(),
		ActiveCondition: s.tool.condition,
		ReviewMode:      s.filter.ReviewMode,
		Uncalibrated:    !s.sheet.scale.Calibrated(),
		CanUndo:         canUndo,
		CanRedo:         canRedo,
	}
	if p := s.tool.machine.Preview(); p != nil {
		preview := *p
		sc.Preview = &preview
	}
	if s.ruler != nil {
		ruler := *s.ruler
		sc.Ruler = &ruler
	}
	if s.pointer.menu != nil {
		menu := *s.pointer.menu
		sc.Menu = &menu
	}

	for _, m := range s.visibleLocked() {
		shape := Shape{
			Measurement:   m.Clone(),
			Color:         measurement.DefaultColor,
			Selected:      s.selection.Contains(m.ID),
			Hovered:       s.pointer.hovered == m.ID,
			ReviewCurrent: s.filter.CurrentReviewID == m.ID,
		}
		if c, ok := s.conditions.Condition(m.ConditionID); ok {
			shape.Color = c.Resolve().Color
		}
		if shape.Selected {
			shape.Handles = m.GeometryData.Vertices(m.GeometryType)
		}
		sc.Shapes = append(sc.Shapes, shape)
	}

	s.pruneLocked()
	sc.Notices = slices.Clone(s.notices)
	return sc
}
