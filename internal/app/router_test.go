package app

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/philipparndt/takeoff/internal/drawing"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

func TestDrawingRequiresCondition(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())

	for _, tool := range measure.Tools {
		if !tool.RequiresCondition() {
			continue
		}
		if err := s.SetTool(tool); !errors.Is(err, drawing.ErrConditionRequired) {
			t.Errorf("SetTool(%s): expected ErrConditionRequired, got %v", tool, err)
		}
		s.PointerDown(PointerEvent{At: pt(10, 10)})
		s.PointerUp(PointerEvent{At: pt(10, 10)})
		if state, _ := s.Gesture(); state != drawing.Idle {
			t.Errorf("%s: gesture started without a condition", tool)
		}
	}
	if s.Tool() != measure.ToolSelect {
		t.Errorf("refused tools should leave select armed, got %s", s.Tool())
	}
	if !hasNotice(s, NoticeRejection) {
		t.Error("expected a rejection notice")
	}
}

func TestClearingConditionDisarmsTool(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolPolygon, pt(0, 0), pt(50, 0))

	if err := s.SetActiveCondition(""); err != nil {
		t.Fatal(err)
	}
	if state, points := s.Gesture(); state != drawing.Idle || len(points) != 0 {
		t.Errorf("expected the gesture discarded, got %s with %d points", state, len(points))
	}
	if s.Tool() != measure.ToolSelect {
		t.Errorf("expected select armed, got %s", s.Tool())
	}
	if err := s.SetActiveCondition("nope"); !errors.Is(err, ErrUnknownCondition) {
		t.Errorf("expected ErrUnknownCondition, got %v", err)
	}
}

func TestSelectHitAdoptsCondition(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	if err := s.SetActiveCondition("c2"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTool(measure.ToolRectangle); err != nil {
		t.Fatal(err)
	}
	click(s, 0, 0)
	click(s, 100, 50)
	s.Wait()
	m := only(t, s)

	if err := s.SetActiveCondition("c1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTool(measure.ToolSelect); err != nil {
		t.Fatal(err)
	}
	s.Escape() // clears the selection

	if rule := s.PointerDown(PointerEvent{At: pt(50, 25)}); rule != "select" {
		t.Fatalf("expected the select rule, got %q", rule)
	}
	s.PointerUp(PointerEvent{At: pt(50, 25)})
	if sel := s.Selected(); len(sel) != 1 || sel[0] != m.ID {
		t.Errorf("expected %s selected, got %v", m.ID, sel)
	}
	if s.ActiveCondition() != "c2" {
		t.Errorf("active condition: expected c2, got %s", s.ActiveCondition())
	}

	// A miss clears the selection and pans
	s.PointerDown(PointerEvent{At: pt(500, 500)})
	if len(s.Selected()) != 0 {
		t.Error("a miss should clear the selection")
	}
	if s.Cursor() != CursorGrabbing {
		t.Errorf("cursor while panning: expected grabbing, got %s", s.Cursor())
	}
	s.PointerMove(PointerEvent{At: pt(520, 510)})
	s.PointerUp(PointerEvent{At: pt(520, 510)})
	v := s.Viewport()
	if v.PanX != 20 || v.PanY != 10 {
		t.Errorf("pan: expected (20,10), got (%v,%v)", v.PanX, v.PanY)
	}
	if s.Cursor() != CursorDefault {
		t.Errorf("cursor after pan: expected default, got %s", s.Cursor())
	}
}

func TestTopmostHitWins(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolRectangle, pt(0, 0), pt(100, 100))
	s.Wait()
	drawWith(t, s, measure.ToolRectangle, pt(50, 50), pt(150, 150))
	s.Wait()
	top := s.Measurements()[1]

	if err := s.SetTool(measure.ToolSelect); err != nil {
		t.Fatal(err)
	}
	click(s, 75, 75)
	if sel := s.Selected(); len(sel) != 1 || sel[0] != top.ID {
		t.Errorf("expected the later measurement selected, got %v", sel)
	}

	s.PointerMove(PointerEvent{At: pt(10, 10)})
	if s.Hovered() == "" || s.Hovered() == top.ID {
		t.Errorf("expected the lower measurement hovered, got %q", s.Hovered())
	}
}

func TestCursorForArmedTool(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	if s.Cursor() != CursorDefault {
		t.Errorf("select: expected default, got %s", s.Cursor())
	}
	if err := s.SetTool(measure.ToolMeasure); err != nil {
		t.Fatal(err)
	}
	if s.Cursor() != CursorCrosshair {
		t.Errorf("measure: expected crosshair, got %s", s.Cursor())
	}
}

func TestContextMenuSwallowsNextPress(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolRectangle, pt(0, 0), pt(100, 50))
	s.Wait()
	m := only(t, s)
	if err := s.SetTool(measure.ToolSelect); err != nil {
		t.Fatal(err)
	}

	if rule := s.PointerDown(PointerEvent{At: pt(50, 25), Button: ButtonSecondary}); rule != "context-menu" {
		t.Fatalf("expected the context-menu rule, got %q", rule)
	}
	menu := s.ContextMenu()
	if menu == nil || menu.MeasurementID != m.ID {
		t.Fatalf("expected a menu for %s, got %+v", m.ID, menu)
	}

	if rule := s.PointerDown(PointerEvent{At: pt(500, 500)}); rule != "close-menu" {
		t.Errorf("expected the close-menu rule, got %q", rule)
	}
	if s.ContextMenu() != nil {
		t.Error("menu should be closed")
	}
	if sel := s.Selected(); len(sel) != 1 {
		t.Error("the swallowed press must not clear the selection")
	}
	if s.Cursor() == CursorGrabbing {
		t.Error("the swallowed press must not start a pan")
	}
}

func TestLineDragGesture(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	if err := s.SetActiveCondition("c1"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTool(measure.ToolLine); err != nil {
		t.Fatal(err)
	}

	s.PointerDown(PointerEvent{At: pt(0, 0)})
	s.PointerMove(PointerEvent{At: pt(15, 20)})
	if sc := s.Scene(); sc.Preview == nil || sc.Preview.Quantity != 2.5 {
		t.Errorf("expected a 2.5 LF preview, got %+v", sc.Preview)
	}
	s.PointerUp(PointerEvent{At: pt(30, 40)})
	s.Wait()

	if m := only(t, s); m.Quantity != 5 {
		t.Errorf("expected 5 LF, got %v", m.Quantity)
	}
}

func TestCloseToStartIsScreenSpace(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	s.SetZoom(4)
	drawWith(t, s, measure.ToolPolygon)

	// Click through screen coordinates; at zoom 4 one image pixel is four screen pixels
	corners := []struct{ x, y float64 }{{0, 0}, {400, 0}, {400, 400}, {0, 400}}
	for _, c := range corners {
		click(s, c.x, c.y)
	}
	// 12 screen px from the start is outside the 10 px radius
	click(s, 12, 0)
	if state, points := s.Gesture(); state != drawing.Gesturing || len(points) != 5 {
		t.Fatalf("expected 5 points still gesturing, got %s with %d", state, len(points))
	}
	click(s, 5, 5)
	s.Wait()

	if state, _ := s.Gesture(); state != drawing.Idle {
		t.Errorf("expected the polygon closed, got %s", state)
	}
	if len(s.Measurements()) != 1 {
		t.Errorf("expected the polygon created, got %d measurements", len(s.Measurements()))
	}
}

func TestWheelZoomStaysInLimits(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		notches := float64(rng.Intn(41) - 20)
		s.Wheel(pt(rng.Float64()*1000, rng.Float64()*800), notches)
		z := s.Viewport().Zoom
		if z < viewer.DefaultMinZoom || z > viewer.DefaultMaxZoom {
			t.Fatalf("zoom %v escaped the limits after %d events", z, i)
		}
	}
}

func TestWheelKeepsCursorFixed(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	anchor := pt(300, 200)
	before := s.ScreenToImage(anchor)

	s.Wheel(anchor, 3)
	after := s.ScreenToImage(anchor)
	if math.Abs(before.X-after.X) > 1e-9 || math.Abs(before.Y-after.Y) > 1e-9 {
		t.Errorf("image point under the cursor moved: %v -> %v", before, after)
	}
	if z := s.Viewport().Zoom; math.Abs(z-math.Pow(1.1, 3)) > 1e-9 {
		t.Errorf("zoom: expected 1.1^3, got %v", z)
	}
}

func TestMiddleButtonPansWhileDrawing(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolPolyline, pt(0, 0))

	if rule := s.PointerDown(PointerEvent{At: pt(100, 100), Button: ButtonMiddle}); rule != "middle-pan" {
		t.Fatalf("expected the middle-pan rule, got %q", rule)
	}
	s.PointerMove(PointerEvent{At: pt(110, 100), Button: ButtonMiddle})
	s.PointerUp(PointerEvent{At: pt(110, 100), Button: ButtonMiddle})

	if _, points := s.Gesture(); len(points) != 1 {
		t.Errorf("panning must not add points, got %d", len(points))
	}
	if v := s.Viewport(); v.PanX != 10 {
		t.Errorf("pan: expected 10, got %v", v.PanX)
	}
}
