package viewer

import (
	"math"

	"github.com/philipparndt/takeoff/pkg/geometry"
)

// Default zoom limits
const (
	DefaultMinZoom   = 0.1
	DefaultMaxZoom   = 10.0
	DefaultFitMargin = 0.9
)

// Size is a width/height pair in pixels
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// NewSize creates a new size
func NewSize(w, h float64) Size {
	return Size{Width: w, Height: h}
}

// Valid reports whether both dimensions are positive and finite
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0 && !math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}

// Limits bounds the zoom factor
type Limits struct {
	MinZoom float64
	MaxZoom float64
}

// DefaultLimits returns the standard zoom range
func DefaultLimits() Limits {
	return Limits{MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom}
}

// Clamp restricts zoom to the limits
func (l Limits) Clamp(zoom float64) float64 {
	return math.Max(l.MinZoom, math.Min(l.MaxZoom, zoom))
}

// State is the persisted part of a viewport
type State struct {
	Zoom float64 `json:"zoom" yaml:"zoom"`
	PanX float64 `json:"pan_x" yaml:"pan_x"`
	PanY float64 `json:"pan_y" yaml:"pan_y"`
}

// Viewport maps image pixels to screen pixels:
//
//	screen = (image + pan) * zoom
//
// Pan is kept in image space so it is unaffected by later zoom changes.
type Viewport struct {
	State
	limits    Limits
	container Size
	margin    float64
}

// New creates a viewport at zoom 1 with no pan
func New(limits Limits) *Viewport {
	return &Viewport{
		State:  State{Zoom: limits.Clamp(1)},
		limits: limits,
		margin: DefaultFitMargin,
	}
}

// SetLimits replaces the zoom limits and re-clamps the current zoom about the screen center
func (v *Viewport) SetLimits(limits Limits) {
	v.limits = limits
	v.SetZoom(v.Zoom)
}

// Limits returns the zoom limits
func (v *Viewport) Limits() Limits {
	return v.limits
}

// SetFitMargin sets the fraction of the container used by FitToScreen
func (v *Viewport) SetFitMargin(margin float64) {
	if margin > 0 && margin <= 1 {
		v.margin = margin
	}
}

// SetContainer records the size of the on-screen canvas
func (v *Viewport) SetContainer(size Size) {
	v.container = size
}

// Container returns the last recorded canvas size
func (v *Viewport) Container() Size {
	return v.container
}

// Restore replaces the viewport state, clamping the zoom
func (v *Viewport) Restore(s State) {
	v.State = s
	v.Zoom = v.limits.Clamp(s.Zoom)
}

// ScreenToImage converts a screen-space point into image space
func (v *Viewport) ScreenToImage(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X/v.Zoom - v.PanX, Y: p.Y/v.Zoom - v.PanY}
}

// ImageToScreen converts an image-space point into screen space
func (v *Viewport) ImageToScreen(p geometry.Point) geometry.Point {
	return geometry.Point{X: (p.X + v.PanX) * v.Zoom, Y: (p.Y + v.PanY) * v.Zoom}
}

// ScreenToImageDistance converts a screen-space length into image pixels
func (v *Viewport) ScreenToImageDistance(d float64) float64 {
	return d / v.Zoom
}

// Pan moves the view by a screen-space delta
func (v *Viewport) Pan(dx, dy float64) {
	v.PanX += dx / v.Zoom
	v.PanY += dy / v.Zoom
}

// SetZoom changes the zoom while keeping the image point under the
// container center fixed on screen
func (v *Viewport) SetZoom(zoom float64) {
	center := geometry.Point{X: v.container.Width / 2, Y: v.container.Height / 2}
	v.ZoomAt(center, zoom)
}

// ZoomAt changes the zoom while keeping the image point under anchor fixed on screen
func (v *Viewport) ZoomAt(anchor geometry.Point, zoom float64) {
	if math.IsNaN(zoom) || !anchor.IsFinite() {
		return
	}
	fixed := v.ScreenToImage(anchor)
	v.Zoom = v.limits.Clamp(zoom)
	v.PanX = anchor.X/v.Zoom - fixed.X
	v.PanY = anchor.Y/v.Zoom - fixed.Y
}

// ZoomBy multiplies the zoom by factor about anchor
func (v *Viewport) ZoomBy(anchor geometry.Point, factor float64) {
	if factor <= 0 {
		return
	}
	v.ZoomAt(anchor, v.Zoom*factor)
}

// FitToScreen scales the image to fit the container with a margin and centers it.
// Degenerate sizes leave the viewport untouched and return false.
func (v *Viewport) FitToScreen(image, container Size) bool {
	if !image.Valid() || !container.Valid() {
		return false
	}
	v.container = container

	zoom := math.Min(container.Width/image.Width, container.Height/image.Height) * v.margin
	v.Zoom = v.limits.Clamp(zoom)
	v.PanX = container.Width/(2*v.Zoom) - image.Width/2
	v.PanY = container.Height/(2*v.Zoom) - image.Height/2
	return true
}
