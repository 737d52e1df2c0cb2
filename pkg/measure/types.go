package measure

import (
	"fmt"

	"github.com/philipparndt/takeoff/pkg/geometry"
)

// Tool is the canvas tool the user has armed
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolMeasure   Tool = "measure"
	ToolLine      Tool = "line"
	ToolPolyline  Tool = "polyline"
	ToolPolygon   Tool = "polygon"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolPoint     Tool = "point"
)

// Tools lists every tool in toolbar order
var Tools = []Tool{ToolSelect, ToolMeasure, ToolLine, ToolPolyline, ToolPolygon, ToolRectangle, ToolCircle, ToolPoint}

// ParseTool converts a tool name into a Tool
func ParseTool(name string) (Tool, error) {
	for _, t := range Tools {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// Draws reports whether the tool collects points into a gesture
func (t Tool) Draws() bool {
	return t != ToolSelect && t.Valid()
}

// RequiresCondition reports whether a condition must be active to arm the tool
func (t Tool) RequiresCondition() bool {
	return t.Draws() && t != ToolMeasure
}

// MultiClick reports whether the gesture is finished explicitly (double-click or closing)
func (t Tool) MultiClick() bool {
	return t == ToolPolyline || t == ToolPolygon
}

// PointCount is the number of points that completes the gesture, or 0 when open-ended
func (t Tool) PointCount() int {
	switch t {
	case ToolPoint:
		return 1
	case ToolMeasure, ToolLine, ToolRectangle, ToolCircle:
		return 2
	}
	return 0
}

// Valid reports whether t is a known tool
func (t Tool) Valid() bool {
	for _, known := range Tools {
		if t == known {
			return true
		}
	}
	return false
}

// GeometryType tags the shape of GeometryData
type GeometryType string

const (
	GeometryLine      GeometryType = "line"
	GeometryPolyline  GeometryType = "polyline"
	GeometryPolygon   GeometryType = "polygon"
	GeometryRectangle GeometryType = "rectangle"
	GeometryCircle    GeometryType = "circle"
	GeometryPoint     GeometryType = "point"
)

// GeometryData is the payload of a measurement. Its shape depends on the GeometryType:
//
//	line       Points = [start, end]
//	polyline   Points = vertices in order
//	polygon    Points = ring vertices, implicitly closed
//	rectangle  Points = [min corner, max corner]
//	circle     Points = [center], Radius
//	point      Points = [location]
type GeometryData struct {
	Points []geometry.Point `json:"points" yaml:"points"`
	Radius float64          `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// Clone returns a deep copy
func (d GeometryData) Clone() GeometryData {
	return GeometryData{Points: geometry.Clone(d.Points), Radius: d.Radius}
}

// Equal compares two payloads point by point
func (d GeometryData) Equal(other GeometryData) bool {
	if d.Radius != other.Radius || len(d.Points) != len(other.Points) {
		return false
	}
	for i := range d.Points {
		if d.Points[i] != other.Points[i] {
			return false
		}
	}
	return true
}

// Validate checks that the payload has the shape its type requires
func (d GeometryData) Validate(kind GeometryType) error {
	n := len(d.Points)
	for _, p := range d.Points {
		if !p.IsFinite() {
			return fmt.Errorf("%s geometry has a non-finite point", kind)
		}
	}
	switch kind {
	case GeometryLine, GeometryRectangle:
		if n != 2 {
			return fmt.Errorf("%s geometry needs 2 points, got %d", kind, n)
		}
	case GeometryPolyline:
		if n < 2 {
			return fmt.Errorf("polyline geometry needs at least 2 points, got %d", n)
		}
	case GeometryPolygon:
		if n < 3 {
			return fmt.Errorf("polygon geometry needs at least 3 points, got %d", n)
		}
	case GeometryCircle:
		if n != 1 || d.Radius < 0 {
			return fmt.Errorf("circle geometry needs a center and a non-negative radius")
		}
	case GeometryPoint:
		if n != 1 {
			return fmt.Errorf("point geometry needs 1 point, got %d", n)
		}
	default:
		return fmt.Errorf("unknown geometry type %q", kind)
	}
	return nil
}

// Vertices returns the editable handle positions of a geometry.
// Circles expose the center followed by a radius handle on the +X axis.
func (d GeometryData) Vertices(kind GeometryType) []geometry.Point {
	if kind == GeometryCircle && len(d.Points) == 1 {
		c := d.Points[0]
		return []geometry.Point{c, geometry.NewPoint(c.X+d.Radius, c.Y)}
	}
	if kind == GeometryRectangle && len(d.Points) == 2 {
		a, b := d.Points[0], d.Points[1]
		return []geometry.Point{a, geometry.NewPoint(b.X, a.Y), b, geometry.NewPoint(a.X, b.Y)}
	}
	return geometry.Clone(d.Points)
}

// MoveVertex returns a copy of the payload with handle i moved to p
func (d GeometryData) MoveVertex(kind GeometryType, i int, p geometry.Point) (GeometryData, error) {
	out := d.Clone()
	switch kind {
	case GeometryCircle:
		switch i {
		case 0:
			out.Points[0] = p
		case 1:
			out.Radius = out.Points[0].Distance(p)
		default:
			return d, fmt.Errorf("circle has no handle %d", i)
		}
	case GeometryRectangle:
		corners := d.Vertices(kind)
		if i < 0 || i >= len(corners) {
			return d, fmt.Errorf("rectangle has no handle %d", i)
		}
		// The opposite corner stays fixed
		opposite := corners[(i+2)%4]
		out.Points = []geometry.Point{opposite.Min(p), opposite.Max(p)}
	default:
		if i < 0 || i >= len(out.Points) {
			return d, fmt.Errorf("%s has no handle %d", kind, i)
		}
		out.Points[i] = p
	}
	return out, nil
}

// GeometryFor maps a drawing tool to the geometry it produces
func GeometryFor(t Tool) (GeometryType, bool) {
	switch t {
	case ToolMeasure, ToolLine:
		return GeometryLine, true
	case ToolPolyline:
		return GeometryPolyline, true
	case ToolPolygon:
		return GeometryPolygon, true
	case ToolRectangle:
		return GeometryRectangle, true
	case ToolCircle:
		return GeometryCircle, true
	case ToolPoint:
		return GeometryPoint, true
	}
	return "", false
}
