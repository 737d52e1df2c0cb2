package measure

import (
	"math"

	"github.com/philipparndt/takeoff/pkg/geometry"
)

// Unit labels a quantity
type Unit string

const (
	UnitLinearFeet   Unit = "LF"
	UnitSquareFeet   Unit = "SF"
	UnitEach         Unit = "EA"
	UnitPixels       Unit = "px"
	UnitSquarePixels Unit = "px2"
)

// Scale is the sheet calibration. A zero or negative PixelsPerUnit means the
// sheet is uncalibrated and quantities are reported in raw pixels.
type Scale struct {
	PixelsPerUnit float64 `json:"pixels_per_unit" yaml:"pixels_per_unit"`
}

// Calibrated reports whether a usable pixels-per-unit factor is set
func (s Scale) Calibrated() bool {
	return s.PixelsPerUnit > 0 && !math.IsInf(s.PixelsPerUnit, 0) && !math.IsNaN(s.PixelsPerUnit)
}

// Length converts a pixel distance
func (s Scale) Length(px float64) (float64, Unit) {
	if !s.Calibrated() {
		return px, UnitPixels
	}
	return px / s.PixelsPerUnit, UnitLinearFeet
}

// Area converts a square-pixel area
func (s Scale) Area(px2 float64) (float64, Unit) {
	if !s.Calibrated() {
		return px2, UnitSquarePixels
	}
	return px2 / (s.PixelsPerUnit * s.PixelsPerUnit), UnitSquareFeet
}

// Result is a finished geometry with its derived quantity
type Result struct {
	Type       GeometryType `json:"geometry_type"`
	Data       GeometryData `json:"geometry_data"`
	Quantity   float64      `json:"quantity"`
	Unit       Unit         `json:"unit"`
	Calibrated bool         `json:"calibrated"`
}

// Build turns clicked points into a geometry for the given tool.
// It returns false when the tool has too few points or draws nothing.
func Build(tool Tool, points []geometry.Point, scale Scale) (Result, bool) {
	kind, ok := GeometryFor(tool)
	if !ok {
		return Result{}, false
	}

	var data GeometryData
	switch kind {
	case GeometryLine:
		if len(points) < 2 {
			return Result{}, false
		}
		data.Points = geometry.Clone(points[:2])
	case GeometryPolyline:
		if len(points) < 2 {
			return Result{}, false
		}
		data.Points = geometry.Clone(points)
	case GeometryPolygon:
		if len(points) < 3 {
			return Result{}, false
		}
		data.Points = geometry.Clone(points)
	case GeometryRectangle:
		if len(points) < 2 {
			return Result{}, false
		}
		data.Points = []geometry.Point{points[0].Min(points[1]), points[0].Max(points[1])}
	case GeometryCircle:
		if len(points) < 2 {
			return Result{}, false
		}
		data.Points = []geometry.Point{points[0]}
		data.Radius = points[0].Distance(points[1])
	case GeometryPoint:
		if len(points) < 1 {
			return Result{}, false
		}
		data.Points = []geometry.Point{points[0]}
	}

	return Recompute(kind, data, scale)
}

// Recompute derives the quantity of an existing geometry, for example after
// one of its vertices was moved
func Recompute(kind GeometryType, data GeometryData, scale Scale) (Result, bool) {
	if err := data.Validate(kind); err != nil {
		return Result{}, false
	}

	res := Result{Type: kind, Data: data.Clone(), Calibrated: scale.Calibrated()}
	switch kind {
	case GeometryLine, GeometryPolyline:
		res.Quantity, res.Unit = scale.Length(geometry.PathLength(data.Points))
	case GeometryPolygon:
		res.Quantity, res.Unit = scale.Area(geometry.Area(data.Points))
	case GeometryRectangle:
		res.Quantity, res.Unit = scale.Area(geometry.BoundsOf(data.Points).Area())
	case GeometryCircle:
		res.Quantity, res.Unit = scale.Area(math.Pi * data.Radius * data.Radius)
	case GeometryPoint:
		res.Quantity, res.Unit = 1, UnitEach
		res.Calibrated = true
	}
	return res, true
}
