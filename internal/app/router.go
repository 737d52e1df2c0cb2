package app

import (
	"math"

	"github.com/philipparndt/takeoff/internal/drawing"
	"github.com/philipparndt/takeoff/internal/keys"
	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
)

// Button identifies a pointer button
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

// PointerEvent is a raw pointer event in screen space
type PointerEvent struct {
	At     geometry.Point
	Button Button
	Mods   keys.Modifier
}

// Cursor is the pointer shape the surface should show
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorCrosshair Cursor = "crosshair"
	CursorGrabbing  Cursor = "grabbing"
	CursorMove      Cursor = "move"
)

// ContextMenu is an open context menu anchored at a screen point
type ContextMenu struct {
	At            geometry.Point
	MeasurementID string // empty when opened over empty canvas
}

// vertexDrag is an in-progress handle drag on the selected measurement
type vertexDrag struct {
	id     string
	index  int
	before measure.Result
	after  measure.Result
	moved  bool
}

// downRule is one row of the pointer-down table. Rules are tried in order
// and the first match handles the event.
type downRule struct {
	name  string
	match func(s *Session, e PointerEvent) bool
	apply func(s *Session, e PointerEvent)
}

var pointerDownRules = []downRule{
	{"close-menu", (*Session).menuOpen, (*Session).closeMenu},
	{"middle-pan", isButton(ButtonMiddle), (*Session).beginPan},
	{"context-menu", isButton(ButtonSecondary), (*Session).openMenu},
	{"draw", (*Session).drawingArmed, (*Session).drawDown},
	{"vertex", (*Session).onHandle, (*Session).beginDrag},
	{"select", (*Session).selectArmed, (*Session).hitSelect},
	{"pan", func(*Session, PointerEvent) bool { return true }, (*Session).beginPan},
}

func isButton(b Button) func(*Session, PointerEvent) bool {
	return func(_ *Session, e PointerEvent) bool { return e.Button == b }
}

// PointerDown routes a press through the pointer-down table and returns the
// name of the rule that handled it
func (s *Session) PointerDown(e PointerEvent) string {
	s.mu.Lock()
	s.pointer.last = e.At
	var rule string
	for _, r := range pointerDownRules {
		if r.match(s, e) {
			r.apply(s, e)
			rule = r.name
			break
		}
	}
	s.mu.Unlock()
	s.changed()
	return rule
}

func (s *Session) menuOpen(PointerEvent) bool {
	return s.pointer.menu != nil
}

func (s *Session) closeMenu(PointerEvent) {
	s.pointer.menu = nil
}

func (s *Session) openMenu(e PointerEvent) {
	if s.tool.machine.Gesturing() {
		return
	}
	menu := &ContextMenu{At: e.At}
	if m, ok := s.hitLocked(e.At); ok {
		s.selectLocked(m)
		menu.MeasurementID = m.ID
	}
	s.pointer.menu = menu
}

// drawingArmed matches while a drawing tool is armed and its condition
// requirement is met
func (s *Session) drawingArmed(e PointerEvent) bool {
	tool := s.tool.machine.Tool()
	return e.Button == ButtonPrimary && tool.Draws() && (!tool.RequiresCondition() || s.tool.condition != "")
}

func (s *Session) drawDown(e PointerEvent) {
	s.drawLocked(drawing.Down, s.imagePoint(e.At))
}

func (s *Session) selectArmed(PointerEvent) bool {
	return s.tool.machine.Tool() == measure.ToolSelect
}

// hitSelect selects the topmost measurement under the pointer and makes its
// condition active. A miss clears the selection and starts a pan.
func (s *Session) hitSelect(e PointerEvent) {
	if m, ok := s.hitLocked(e.At); ok {
		s.selectLocked(m)
		return
	}
	s.selection.Clear()
	s.beginPan(e)
}

func (s *Session) selectLocked(m measurement.Measurement) {
	s.selection.Select(m.ID)
	if _, ok := s.conditions.Condition(m.ConditionID); ok {
		s.tool.condition = m.ConditionID
	}
}

func (s *Session) beginPan(PointerEvent) {
	s.pointer.panning = true
}

// onHandle matches a press on a vertex handle of the selected measurement
func (s *Session) onHandle(e PointerEvent) bool {
	_, _, ok := s.handleAtLocked(e.At)
	return ok && s.selectArmed(e)
}

func (s *Session) beginDrag(e PointerEvent) {
	m, index, _ := s.handleAtLocked(e.At)
	before, ok := measure.Recompute(m.GeometryType, m.GeometryData, s.sheet.scale)
	if !ok {
		return
	}
	s.pointer.drag = &vertexDrag{id: m.ID, index: index, before: before, after: before}
}

// handleAtLocked finds the handle of the single selected measurement within
// handle radius of a screen point
func (s *Session) handleAtLocked(at geometry.Point) (measurement.Measurement, int, bool) {
	if s.selection.Len() != 1 {
		return measurement.Measurement{}, 0, false
	}
	id, _ := s.selection.Primary()
	i := s.indexLocked(id)
	if i < 0 || !s.filter.Visible(s.measurements[i], s.conditions) {
		return measurement.Measurement{}, 0, false
	}
	m := s.measurements[i]
	v := s.sheet.sheets.Viewport()
	best, bestDist := -1, s.cfg.Drawing.HandleRadius
	for j, p := range m.GeometryData.Vertices(m.GeometryType) {
		if d := v.ImageToScreen(p).Distance(at); d <= bestDist {
			best, bestDist = j, d
		}
	}
	if best < 0 {
		return measurement.Measurement{}, 0, false
	}
	return m, best, true
}

// PointerMove pans, drags a handle, previews the gesture or tracks hover
func (s *Session) PointerMove(e PointerEvent) {
	s.mu.Lock()
	delta := e.At.Sub(s.pointer.last)
	s.pointer.last = e.At
	at := s.imagePoint(e.At)

	switch {
	case s.pointer.panning:
		s.sheet.sheets.Viewport().Pan(delta.X, delta.Y)
	case s.pointer.drag != nil:
		s.dragLocked(at)
	case s.tool.machine.Gesturing():
		s.drawLocked(drawing.Move, at)
	case s.tool.machine.Tool() == measure.ToolSelect:
		s.pointer.hovered = ""
		if m, ok := s.hitLocked(e.At); ok {
			s.pointer.hovered = m.ID
		}
	}
	s.mu.Unlock()
	s.changed()
}

func (s *Session) dragLocked(at geometry.Point) {
	d := s.pointer.drag
	data, err := d.before.Data.MoveVertex(d.before.Type, d.index, at)
	if err != nil {
		return
	}
	res, ok := measure.Recompute(d.before.Type, data, s.sheet.scale)
	if !ok {
		return
	}
	d.after, d.moved = res, true
	s.patchLocked(d.id, res)
}

// PointerUp ends a pan or a handle drag, or completes a drag gesture
func (s *Session) PointerUp(e PointerEvent) {
	s.mu.Lock()
	s.pointer.last = e.At
	switch {
	case s.pointer.panning:
		s.pointer.panning = false
	case s.pointer.drag != nil:
		d := s.pointer.drag
		s.pointer.drag = nil
		if d.moved && !d.after.Data.Equal(d.before.Data) {
			s.updateLocked(d.id, d.before, d.after)
		}
	case s.tool.machine.Gesturing():
		s.drawLocked(drawing.Up, s.imagePoint(e.At))
	}
	s.mu.Unlock()
	s.changed()
}

// DoubleClick finishes a polyline or polygon gesture
func (s *Session) DoubleClick(e PointerEvent) {
	s.mu.Lock()
	if s.tool.machine.Gesturing() {
		s.drawLocked(drawing.DoubleClick, s.imagePoint(e.At))
	}
	s.mu.Unlock()
	s.changed()
}

// Wheel zooms about the pointer by wheel_step per notch, whatever the tool.
// Positive notches zoom in.
func (s *Session) Wheel(at geometry.Point, notches float64) {
	if notches == 0 || math.IsNaN(notches) || math.IsInf(notches, 0) {
		return
	}
	s.mu.Lock()
	factor := math.Pow(s.cfg.Viewport.WheelStep, notches)
	s.sheet.sheets.Viewport().ZoomBy(at, factor)
	s.mu.Unlock()
	s.changed()
}

// Cursor returns the pointer shape for the current state
func (s *Session) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorLocked()
}

func (s *Session) cursorLocked() Cursor {
	switch {
	case s.pointer.panning:
		return CursorGrabbing
	case s.pointer.drag != nil:
		return CursorMove
	case s.tool.machine.Tool() != measure.ToolSelect:
		return CursorCrosshair
	}
	return CursorDefault
}

// ContextMenu returns the open context menu, if any
func (s *Session) ContextMenu() *ContextMenu {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointer.menu == nil {
		return nil
	}
	menu := *s.pointer.menu
	return &menu
}

// Hovered returns the measurement under the pointer in select mode
func (s *Session) Hovered() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer.hovered
}

// cancelDragLocked reverts an unfinished handle drag
func (s *Session) cancelDragLocked() bool {
	d := s.pointer.drag
	if d == nil {
		return false
	}
	s.pointer.drag = nil
	s.patchLocked(d.id, d.before)
	return true
}

func (s *Session) imagePoint(screen geometry.Point) geometry.Point {
	return s.sheet.sheets.Viewport().ScreenToImage(screen)
}

// hitLocked returns the topmost visible measurement under a screen point
func (s *Session) hitLocked(screen geometry.Point) (measurement.Measurement, bool) {
	v := s.sheet.sheets.Viewport()
	p := v.ScreenToImage(screen)
	tol := v.ScreenToImageDistance(s.cfg.Drawing.HitTolerance)
	visible := s.visibleLocked()
	for i := len(visible) - 1; i >= 0; i-- {
		if hits(visible[i], p, tol) {
			return visible[i], true
		}
	}
	return measurement.Measurement{}, false
}

// hits tests p against a geometry with tolerance tol, both in image space
func hits(m measurement.Measurement, p geometry.Point, tol float64) bool {
	pts := m.GeometryData.Points
	switch m.GeometryType {
	case measure.GeometryLine, measure.GeometryPolyline:
		return geometry.DistanceToPath(p, pts) <= tol
	case measure.GeometryPolygon:
		return geometry.ContainsPoint(pts, p) || geometry.DistanceToRing(p, pts) <= tol
	case measure.GeometryRectangle:
		return geometry.BoundsOf(pts).Expand(tol).Contains(p)
	case measure.GeometryCircle:
		return len(pts) == 1 && pts[0].Distance(p) <= m.GeometryData.Radius+tol
	case measure.GeometryPoint:
		return len(pts) == 1 && pts[0].Distance(p) <= tol
	}
	return false
}
