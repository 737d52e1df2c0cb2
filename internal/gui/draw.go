package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/philipparndt/takeoff/internal/app"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

var (
	previewColor = color.RGBA{R: 0, G: 150, B: 255, A: 255}
	ghostColor   = color.RGBA{R: 160, G: 160, B: 160, A: 180}
	rulerColor   = color.RGBA{R: 255, G: 170, B: 0, A: 255}
	handleColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	reviewColor  = color.RGBA{R: 255, G: 220, B: 0, A: 255}
	noticeColors = map[app.NoticeKind]color.RGBA{
		app.NoticeRejection: {R: 255, G: 170, B: 0, A: 255},
		app.NoticeError:     {R: 230, G: 40, B: 40, A: 255},
		app.NoticeInfo:      {R: 220, G: 220, B: 220, A: 255},
	}
)

const (
	strokeWidth   = 2
	pointRadius   = 5
	handleSize    = 8
	noticeSpacing = 20
)

// painter turns a scene into canvas primitives, all in widget coordinates
type painter struct {
	v       viewer.Viewport
	objects []fyne.CanvasObject
}

func newPainter(sc app.Scene) *painter {
	v := viewer.New(viewer.Limits{MinZoom: sc.Viewport.Zoom, MaxZoom: sc.Viewport.Zoom})
	v.Restore(sc.Viewport)
	return &painter{v: *v}
}

// sceneObjects lays out one frame. The plan image, when present, is placed
// first so everything else draws on top of it.
func sceneObjects(sc app.Scene, plan *canvas.Image) []fyne.CanvasObject {
	p := newPainter(sc)
	if plan != nil && sc.Image.Valid() {
		origin := p.screen(geometry.Point{})
		plan.Move(origin)
		plan.Resize(fyne.NewSize(float32(sc.Image.Width*sc.Viewport.Zoom), float32(sc.Image.Height*sc.Viewport.Zoom)))
		p.objects = append(p.objects, plan)
	}

	for _, s := range sc.Shapes {
		c := s.Color
		width := float32(strokeWidth)
		if s.Selected || s.Hovered {
			width *= 2
		}
		if s.ReviewCurrent {
			c = reviewColor
		}
		p.geometry(s.Measurement.GeometryType, s.Measurement.GeometryData, c, width)
		for _, h := range s.Handles {
			p.handle(h)
		}
	}
	for _, g := range sc.Ghosts {
		p.geometry(g.Result.Type, g.Result.Data, ghostColor, strokeWidth)
	}
	switch {
	case sc.Preview != nil:
		p.geometry(sc.Preview.Type, sc.Preview.Data, previewColor, strokeWidth)
		if n := len(sc.Preview.Data.Points); n > 0 {
			p.label(sc.Preview.String(), sc.Preview.Data.Points[n-1], previewColor)
		}
	case len(sc.Gesture) > 0:
		p.path(sc.Gesture, previewColor, strokeWidth, false)
	}
	if sc.Ruler != nil {
		p.path(sc.Ruler.Data.Points, rulerColor, strokeWidth, false)
		if n := len(sc.Ruler.Data.Points); n > 0 {
			p.label(sc.Ruler.String(), sc.Ruler.Data.Points[n-1], rulerColor)
		}
	}

	y := float32(sc.Container.Height) - noticeSpacing
	for i := len(sc.Notices) - 1; i >= 0; i-- {
		n := sc.Notices[i]
		text := canvas.NewText(n.Message, noticeColors[n.Kind])
		text.Move(fyne.NewPos(10, y))
		p.objects = append(p.objects, text)
		y -= noticeSpacing
	}
	if sc.Uncalibrated {
		text := canvas.NewText("Sheet not calibrated: quantities in pixels", noticeColors[app.NoticeRejection])
		text.Move(fyne.NewPos(10, 8))
		p.objects = append(p.objects, text)
	}
	return p.objects
}

func (p *painter) screen(pt geometry.Point) fyne.Position {
	s := p.v.ImageToScreen(pt)
	return fyne.NewPos(float32(s.X), float32(s.Y))
}

func (p *painter) geometry(kind measure.GeometryType, data measure.GeometryData, c color.RGBA, width float32) {
	pts := data.Points
	switch kind {
	case measure.GeometryLine, measure.GeometryPolyline:
		p.path(pts, c, width, false)
	case measure.GeometryPolygon:
		p.path(pts, c, width, true)
	case measure.GeometryRectangle:
		if len(pts) != 2 {
			return
		}
		box := geometry.BoundsOf(pts)
		r := canvas.NewRectangle(fill(c))
		r.StrokeColor = c
		r.StrokeWidth = width
		lo, hi := p.screen(box.Min), p.screen(box.Max)
		r.Move(lo)
		r.Resize(fyne.NewSize(hi.X-lo.X, hi.Y-lo.Y))
		p.objects = append(p.objects, r)
	case measure.GeometryCircle:
		if len(pts) != 1 {
			return
		}
		circle := canvas.NewCircle(fill(c))
		circle.StrokeColor = c
		circle.StrokeWidth = width
		radius := geometry.Point{X: data.Radius, Y: data.Radius}
		circle.Position1 = p.screen(pts[0].Sub(radius))
		circle.Position2 = p.screen(pts[0].Add(radius))
		p.objects = append(p.objects, circle)
	case measure.GeometryPoint:
		if len(pts) != 1 {
			return
		}
		dot := canvas.NewCircle(c)
		center := p.screen(pts[0])
		dot.Position1 = fyne.NewPos(center.X-pointRadius, center.Y-pointRadius)
		dot.Position2 = fyne.NewPos(center.X+pointRadius, center.Y+pointRadius)
		p.objects = append(p.objects, dot)
	}
}

func (p *painter) path(pts []geometry.Point, c color.RGBA, width float32, closed bool) {
	n := len(pts)
	if !closed {
		n--
	}
	for i := 0; i < n; i++ {
		line := canvas.NewLine(c)
		line.StrokeWidth = width
		line.Position1 = p.screen(pts[i])
		line.Position2 = p.screen(pts[(i+1)%len(pts)])
		p.objects = append(p.objects, line)
	}
}

func (p *painter) handle(at geometry.Point) {
	center := p.screen(at)
	r := canvas.NewRectangle(handleColor)
	r.StrokeColor = color.Black
	r.StrokeWidth = 1
	r.Move(fyne.NewPos(center.X-handleSize/2, center.Y-handleSize/2))
	r.Resize(fyne.NewSize(handleSize, handleSize))
	p.objects = append(p.objects, r)
}

func (p *painter) label(text string, at geometry.Point, c color.RGBA) {
	pos := p.screen(at)
	t := canvas.NewText(text, c)
	t.TextStyle = fyne.TextStyle{Bold: true}
	t.Move(fyne.NewPos(pos.X+8, pos.Y-20))
	p.objects = append(p.objects, t)
}

// fill is the translucent interior of an area shape
func fill(c color.RGBA) color.RGBA {
	c.A = 48
	return c
}
