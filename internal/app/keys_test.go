package app

import (
	"testing"

	"github.com/philipparndt/takeoff/internal/drawing"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

func TestToolKeys(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	if err := s.SetActiveCondition("c1"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key  string
		want measure.Tool
	}{
		{"l", measure.ToolLine},
		{"P", measure.ToolPolygon},
		{"r", measure.ToolRectangle},
		{"m", measure.ToolMeasure},
		{"v", measure.ToolSelect},
	}
	for _, tt := range tests {
		if !s.HandleKey(KeyEvent{Key: tt.key}) {
			t.Errorf("%q: expected the key consumed", tt.key)
		}
		if s.Tool() != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.key, tt.want, s.Tool())
		}
	}
}

func TestKeysNeedCanvasFocus(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	if err := s.SetActiveCondition("c1"); err != nil {
		t.Fatal(err)
	}

	for _, target := range []Target{TargetTextInput, TargetTextArea, TargetContentEditable} {
		if s.HandleKey(KeyEvent{Key: "l", Target: target}) {
			t.Errorf("target %d: key should not be consumed", target)
		}
	}
	if s.Tool() != measure.ToolSelect {
		t.Errorf("text targets must not switch tools, got %s", s.Tool())
	}

	s.Focus().Claim(RegionSidebar)
	if s.HandleKey(KeyEvent{Key: "l"}) {
		t.Error("keys must be ignored while another region owns focus")
	}
	s.Focus().Release(RegionSidebar)
	if s.HandleKey(KeyEvent{Key: "l"}) {
		t.Error("keys must be ignored while nobody owns focus")
	}

	s.Focus().Claim(RegionCanvas)
	if !s.HandleKey(KeyEvent{Key: "l", Target: TargetOther}) || s.Tool() != measure.ToolLine {
		t.Error("non-editable targets dispatch once the canvas owns focus")
	}
}

func TestToolKeyWithoutCondition(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())

	if !s.HandleKey(KeyEvent{Key: "p"}) {
		t.Error("a refused tool key is still consumed")
	}
	if s.Tool() != measure.ToolSelect {
		t.Errorf("expected select to stay armed, got %s", s.Tool())
	}
	if !hasNotice(s, NoticeRejection) {
		t.Error("expected a rejection notice")
	}
}

func TestUndoKeyDuringGesture(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolPolyline, pt(0, 0), pt(10, 0), pt(20, 0))

	// Both Ctrl and Cmd chords remove the last point
	for _, e := range []KeyEvent{{Key: "z", Ctrl: true}, {Key: "z", Meta: true}} {
		if !s.HandleKey(e) {
			t.Fatalf("%+v: expected the key consumed", e)
		}
	}
	if _, points := s.Gesture(); len(points) != 1 {
		t.Fatalf("expected 1 point left, got %d", len(points))
	}

	// Redo is a no-op while gesturing
	s.HandleKey(KeyEvent{Key: "z", Ctrl: true, Shift: true})
	if _, points := s.Gesture(); len(points) != 1 {
		t.Errorf("redo must not touch the gesture, got %d points", len(points))
	}

	// Removing the last remaining point ends the gesture
	s.HandleKey(KeyEvent{Key: "z", Ctrl: true})
	if state, _ := s.Gesture(); state != drawing.Idle {
		t.Errorf("expected idle, got %s", state)
	}
	assertDepth(t, s, 0, 0)
}

func TestBackspaceRemovesPoint(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolPolygon, pt(0, 0), pt(50, 0), pt(50, 50))

	if !s.HandleKey(KeyEvent{Key: "Backspace"}) {
		t.Fatal("expected backspace consumed")
	}
	if _, points := s.Gesture(); len(points) != 2 {
		t.Errorf("expected 2 points, got %d", len(points))
	}
	if s.HandleKey(KeyEvent{Key: "Delete"}) {
		t.Error("delete during a gesture has nothing to do")
	}
	if _, points := s.Gesture(); len(points) != 2 {
		t.Errorf("delete must not remove points, got %d", len(points))
	}
}

func TestDeleteKeyRemovesSelection(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolPoint, pt(5, 5))
	s.Wait()

	if !s.HandleKey(KeyEvent{Key: "Delete"}) {
		t.Fatal("expected delete consumed")
	}
	s.Wait()
	if len(s.Measurements()) != 0 {
		t.Error("expected the selection deleted")
	}
	if s.HandleKey(KeyEvent{Key: "Delete"}) {
		t.Error("delete with nothing selected should not be consumed")
	}
}

func TestEscapeIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolRectangle, pt(0, 0), pt(100, 50))
	s.Wait()
	click(s, 10, 10)

	// First escape cancels the gesture and keeps the tool
	s.HandleKey(KeyEvent{Key: "Escape"})
	if state, _ := s.Gesture(); state != drawing.Idle {
		t.Fatalf("expected the gesture cancelled, got %s", state)
	}
	if s.Tool() != measure.ToolRectangle {
		t.Errorf("cancelling a gesture keeps the tool, got %s", s.Tool())
	}
	if len(s.Selected()) != 1 {
		t.Error("cancelling a gesture keeps the selection")
	}

	// Second escape clears the selection and arms select
	s.HandleKey(KeyEvent{Key: "esc"})
	if len(s.Selected()) != 0 || s.Tool() != measure.ToolSelect {
		t.Errorf("expected a cleared selection and select armed, got %v %s", s.Selected(), s.Tool())
	}

	before := s.Scene()
	s.HandleKey(KeyEvent{Key: "Escape"})
	after := s.Scene()
	if before.Tool != after.Tool || len(after.Shapes) != len(before.Shapes) || after.Menu != nil || len(after.Gesture) != 0 {
		t.Error("escape on an idle canvas must change nothing")
	}
	assertDepth(t, s, 1, 0)
}

func TestEscapeRevertsVertexDrag(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	drawWith(t, s, measure.ToolRectangle, pt(0, 0), pt(100, 50))
	s.Wait()
	original := only(t, s)
	if err := s.SetTool(measure.ToolSelect); err != nil {
		t.Fatal(err)
	}

	s.PointerDown(PointerEvent{At: pt(100, 50)})
	s.PointerMove(PointerEvent{At: pt(300, 300)})
	s.Escape()
	s.PointerUp(PointerEvent{At: pt(300, 300)})
	s.Wait()

	if m := only(t, s); !m.GeometryData.Equal(original.GeometryData) {
		t.Errorf("escape should restore the geometry, got %+v", m.GeometryData)
	}
	assertDepth(t, s, 1, 0)
}

func TestFitKey(t *testing.T) {
	s, _ := newTestSession(t, newFakeStore())
	if s.HandleKey(KeyEvent{Key: "f"}) {
		t.Error("fit without a container has nothing to fit into")
	}
	s.Resize(viewer.NewSize(500, 400))
	s.SetZoom(3)
	if !s.HandleKey(KeyEvent{Key: "f"}) {
		t.Fatal("expected fit consumed")
	}
	if z := s.Viewport().Zoom; z != 0.45 {
		t.Errorf("fit zoom: expected 0.45, got %v", z)
	}
}
