// Package gui is the fyne surface of a takeoff session: one widget that
// draws the session's scene and forwards pointer and keyboard input to it.
package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/philipparndt/takeoff/internal/app"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

var backgroundColor = color.RGBA{R: 40, G: 40, B: 44, A: 255}

// Canvas renders a plan sheet with its measurements
type Canvas struct {
	widget.BaseWidget
	session *app.Session
	plan    *canvas.Image
	button  desktop.MouseButton
	menu    *widget.PopUpMenu
	changed func()
}

var (
	_ desktop.Mouseable   = (*Canvas)(nil)
	_ desktop.Hoverable   = (*Canvas)(nil)
	_ desktop.Cursorable  = (*Canvas)(nil)
	_ fyne.Draggable      = (*Canvas)(nil)
	_ fyne.Scrollable     = (*Canvas)(nil)
	_ fyne.DoubleTappable = (*Canvas)(nil)
	_ fyne.Focusable      = (*Canvas)(nil)
	_ fyne.Shortcutable   = (*Canvas)(nil)
	_ fyne.Tabbable       = (*Canvas)(nil)
)

// NewCanvas creates a canvas bound to the session. Session changes from any
// goroutine schedule a redraw on the fyne thread.
func NewCanvas(session *app.Session) *Canvas {
	c := &Canvas{session: session}
	c.ExtendBaseWidget(c)
	session.OnChange(func() {
		fyne.Do(c.redraw)
	})
	return c
}

// SetOnChange registers a callback run on the fyne thread after each
// redraw, for panels that mirror session state
func (c *Canvas) SetOnChange(fn func()) {
	c.changed = fn
}

func (c *Canvas) redraw() {
	c.Refresh()
	if c.changed != nil {
		c.changed()
	}
}

// SetPlan replaces the sheet image. A nil image leaves an empty sheet.
func (c *Canvas) SetPlan(img image.Image) {
	if img == nil {
		c.plan = nil
	} else {
		c.plan = canvas.NewImageFromImage(img)
		c.plan.FillMode = canvas.ImageFillStretch
		c.plan.ScaleMode = canvas.ImageScaleFastest
	}
	c.Refresh()
}

// CreateRenderer creates the renderer for the widget
func (c *Canvas) CreateRenderer() fyne.WidgetRenderer {
	r := &canvasRenderer{canvas: c, background: canvas.NewRectangle(backgroundColor)}
	r.rebuild()
	return r
}

// Resize records the widget size as the viewport container
func (c *Canvas) Resize(size fyne.Size) {
	c.BaseWidget.Resize(size)
	c.session.Resize(viewer.NewSize(float64(size.Width), float64(size.Height)))
}

// MinSize keeps the canvas usable in tight layouts
func (c *Canvas) MinSize() fyne.Size {
	return fyne.NewSize(200, 150)
}

// MouseDown starts a press and takes keyboard focus
func (c *Canvas) MouseDown(ev *desktop.MouseEvent) {
	c.requestFocus()
	c.button = ev.Button
	c.session.PointerDown(pointerEvent(ev.Position, ev.Button, ev.Modifier))
	if menu := c.session.ContextMenu(); menu != nil && c.menu == nil {
		c.showMenu(menu, ev.AbsolutePosition)
	}
}

// MouseUp ends a press
func (c *Canvas) MouseUp(ev *desktop.MouseEvent) {
	c.session.PointerUp(pointerEvent(ev.Position, ev.Button, ev.Modifier))
	c.button = 0
}

// MouseIn is part of desktop.Hoverable
func (c *Canvas) MouseIn(ev *desktop.MouseEvent) {
	c.MouseMoved(ev)
}

// MouseMoved updates hover and the live preview
func (c *Canvas) MouseMoved(ev *desktop.MouseEvent) {
	c.session.PointerMove(pointerEvent(ev.Position, c.button, ev.Modifier))
}

// MouseOut is part of desktop.Hoverable
func (c *Canvas) MouseOut() {}

// Dragged forwards pointer motion while a button is held
func (c *Canvas) Dragged(ev *fyne.DragEvent) {
	c.session.PointerMove(pointerEvent(ev.Position, c.button, 0))
}

// DragEnd is part of fyne.Draggable; the release arrives through MouseUp
func (c *Canvas) DragEnd() {}

// DoubleTapped completes multi-click gestures
func (c *Canvas) DoubleTapped(ev *fyne.PointEvent) {
	c.session.DoubleClick(pointerEvent(ev.Position, desktop.MouseButtonPrimary, 0))
}

// Scrolled zooms about the pointer
func (c *Canvas) Scrolled(ev *fyne.ScrollEvent) {
	c.session.Wheel(point(ev.Position), wheelNotches(ev.Scrolled.DY))
}

// Cursor is part of desktop.Cursorable
func (c *Canvas) Cursor() desktop.Cursor {
	return cursorFor(c.session.Cursor())
}

// FocusGained hands the shortcuts to the canvas
func (c *Canvas) FocusGained() {
	c.session.Focus().Claim(app.RegionCanvas)
}

// FocusLost releases the shortcuts
func (c *Canvas) FocusLost() {
	c.session.Focus().Release(app.RegionCanvas)
}

// TypedRune is unused; keys arrive through TypedKey
func (c *Canvas) TypedRune(rune) {}

// TypedKey dispatches an unmodified key
func (c *Canvas) TypedKey(ev *fyne.KeyEvent) {
	c.session.HandleKey(keyEvent(ev.Name, 0))
}

// TypedShortcut dispatches a modified key
func (c *Canvas) TypedShortcut(s fyne.Shortcut) {
	if ks, ok := s.(fyne.KeyboardShortcut); ok {
		c.session.HandleKey(keyEvent(ks.Key(), ks.Mod()))
	}
}

// AcceptsTab keeps tab for the review walk instead of focus traversal
func (c *Canvas) AcceptsTab() bool {
	return true
}

func (c *Canvas) requestFocus() {
	if cv := fyne.CurrentApp().Driver().CanvasForObject(c); cv != nil {
		cv.Focus(c)
	}
}

func (c *Canvas) showMenu(menu *app.ContextMenu, at fyne.Position) {
	cv := fyne.CurrentApp().Driver().CanvasForObject(c)
	if cv == nil {
		return
	}
	remove := fyne.NewMenuItem("Delete", func() {
		c.session.DeleteSelection()
	})
	remove.Disabled = menu.MeasurementID == ""
	fit := fyne.NewMenuItem("Fit to screen", func() {
		c.session.FitToScreen()
	})

	pm := widget.NewPopUpMenu(fyne.NewMenu("", remove, fit), cv)
	pm.OnDismiss = func() {
		pm.Hide()
		c.menu = nil
		if c.session.ContextMenu() != nil {
			c.session.Escape()
		}
	}
	c.menu = pm
	pm.ShowAtPosition(at)
}

type canvasRenderer struct {
	canvas     *Canvas
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func (r *canvasRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
}

func (r *canvasRenderer) MinSize() fyne.Size {
	return r.canvas.MinSize()
}

func (r *canvasRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.canvas)
}

func (r *canvasRenderer) rebuild() {
	r.background.Resize(r.canvas.Size())
	r.objects = append([]fyne.CanvasObject{r.background}, sceneObjects(r.canvas.session.Scene(), r.canvas.plan)...)
}

func (r *canvasRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *canvasRenderer) Destroy() {}
