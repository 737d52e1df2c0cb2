package geometry

import (
	"math"
	"testing"
)

func TestPointAdd(t *testing.T) {
	result := NewPoint(1, 2).Add(NewPoint(4, 5))

	expected := NewPoint(5, 7)
	if result != expected {
		t.Errorf("Add failed: expected %v, got %v", expected, result)
	}
}

func TestPointSub(t *testing.T) {
	result := NewPoint(5, 7).Sub(NewPoint(1, 2))

	expected := NewPoint(4, 5)
	if result != expected {
		t.Errorf("Sub failed: expected %v, got %v", expected, result)
	}
}

func TestPointDistance(t *testing.T) {
	distance := NewPoint(0, 0).Distance(NewPoint(3, 4))

	expected := 5.0
	if math.Abs(distance-expected) > 1e-10 {
		t.Errorf("Distance failed: expected %v, got %v", expected, distance)
	}
}

func TestPointCross(t *testing.T) {
	result := NewPoint(1, 0).Cross(NewPoint(0, 1))

	if result != 1 {
		t.Errorf("Cross failed: expected 1, got %v", result)
	}
}

func TestPointIsFinite(t *testing.T) {
	if !NewPoint(1, 2).IsFinite() {
		t.Error("expected finite point")
	}
	if NewPoint(math.NaN(), 0).IsFinite() {
		t.Error("NaN point reported finite")
	}
	if NewPoint(0, math.Inf(-1)).IsFinite() {
		t.Error("Inf point reported finite")
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	src := []Point{{X: 1, Y: 1}}
	dst := Clone(src)
	dst[0].X = 9

	if src[0].X != 1 {
		t.Errorf("Clone aliased source slice: %v", src)
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]Point{{X: 3, Y: -1}, {X: -2, Y: 4}})

	if b.Min != NewPoint(-2, -1) || b.Max != NewPoint(3, 4) {
		t.Errorf("BoundsOf failed: got %+v", b)
	}
	if b.Area() != 25 {
		t.Errorf("Area failed: expected 25, got %v", b.Area())
	}
	if !b.Contains(NewPoint(0, 0)) {
		t.Error("box should contain origin")
	}
	if !NewBoundingBox().Empty() {
		t.Error("new box should be empty")
	}
}
