// Package app is the canvas session: the state container that routes pointer
// and keyboard input to the viewport, the drawing machine, the selection and
// the command stack, and keeps the page's measurements in sync with the
// persistence collaborator.
package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/internal/config"
	"github.com/philipparndt/takeoff/internal/drawing"
	"github.com/philipparndt/takeoff/internal/history"
	"github.com/philipparndt/takeoff/internal/keys"
	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/internal/selection"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

// Options are the collaborators and settings of a session
type Options struct {
	Store      measurement.Store // defaults to a MemStore
	Lister     measurement.Lister
	Reviews    measurement.ReviewActions
	Conditions measurement.ConditionRegistry
	Config     *config.Config // defaults to config.Default()
	Focus      *Focus         // shared between panels of one window
	Logger     *zap.Logger
	Clock      func() time.Time
}

// ToolState holds the armed tool and the active condition
type ToolState struct {
	machine   *drawing.Machine
	condition string // active condition id, empty when none
}

// SheetState holds the active sheet and its calibration
type SheetState struct {
	sheets *viewer.Sheets
	pageID string
	image  viewer.Size
	scale  measure.Scale
	fitted bool   // the first fit happened
	epoch  uint64 // advanced on every sheet switch
}

// PointerState holds pan, hover, menu and vertex drag state
type PointerState struct {
	panning bool
	last    geometry.Point // last pointer position in screen space
	hovered string         // topmost measurement under the pointer
	menu    *ContextMenu
	drag    *vertexDrag
}

// Session is one canvas. Host callbacks may come from any goroutine; the
// session serializes them and never holds its lock across persistence calls.
type Session struct {
	mu       sync.Mutex
	cfg      config.Config
	bindings keys.Bindings
	logger   *zap.Logger
	now      func() time.Time

	store      measurement.Store
	lister     measurement.Lister
	reviews    measurement.ReviewActions
	conditions measurement.ConditionRegistry
	focus      *Focus

	tool    ToolState
	sheet   SheetState
	pointer PointerState

	measurements []measurement.Measurement // page cache in draw order
	selection    selection.Selection
	filter       selection.ReviewFilter
	history      *history.Stack
	refs         map[string]*history.Ref // current id to the entity's shared ref

	ruler     *measure.Result
	proposals []Proposal
	notices   []Notice
	onChange  func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a session with the select tool armed and no sheet
func NewSession(opts Options) (*Session, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	bindings, err := cfg.Bindings()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Focus == nil {
		opts.Focus = NewFocus()
	}
	if opts.Store == nil {
		opts.Store = measurement.NewMemStore()
	}
	if opts.Lister == nil {
		opts.Lister, _ = opts.Store.(measurement.Lister)
	}
	if opts.Reviews == nil {
		opts.Reviews, _ = opts.Store.(measurement.ReviewActions)
	}
	if opts.Conditions == nil {
		opts.Conditions = measurement.Conditions{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:        cfg,
		bindings:   bindings,
		logger:     opts.Logger,
		now:        opts.Clock,
		store:      opts.Store,
		lister:     opts.Lister,
		reviews:    opts.Reviews,
		conditions: opts.Conditions,
		focus:      opts.Focus,
		tool:       ToolState{machine: drawing.New(drawingOptions(cfg, measure.Scale{}))},
		sheet:      SheetState{sheets: viewer.NewSheets(newViewport(cfg))},
		filter:     selection.NewReviewFilter(cfg.Review.ConfidenceThreshold),
		history:    history.NewStack(cfg.History.Limit, opts.Logger),
		refs:       make(map[string]*history.Ref),
		ctx:        ctx,
		cancel:     cancel,
	}
	return s, nil
}

func newViewport(cfg config.Config) *viewer.Viewport {
	v := viewer.New(viewer.Limits{MinZoom: cfg.Viewport.MinZoom, MaxZoom: cfg.Viewport.MaxZoom})
	v.SetFitMargin(cfg.Viewport.FitMargin)
	return v
}

func drawingOptions(cfg config.Config, scale measure.Scale) drawing.Options {
	return drawing.Options{
		CloseToStartRadius: cfg.Drawing.CloseToStartRadius,
		DragThreshold:      cfg.Drawing.DragThreshold,
		Scale:              scale,
	}
}

// ApplyConfig swaps in a new configuration. The gesture in progress, the
// stack contents and the viewport position survive; limits are re-applied.
func (s *Session) ApplyConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	bindings, err := cfg.Bindings()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.bindings = bindings
	v := s.sheet.sheets.Viewport()
	v.SetLimits(viewer.Limits{MinZoom: cfg.Viewport.MinZoom, MaxZoom: cfg.Viewport.MaxZoom})
	v.SetFitMargin(cfg.Viewport.FitMargin)
	s.tool.machine.SetOptions(drawingOptions(cfg, s.sheet.scale))
	s.filter.ConfidenceThreshold = cfg.Review.ConfidenceThreshold
	s.mu.Unlock()

	s.history.SetLimit(cfg.History.Limit)
	s.logger.Info("configuration applied")
	s.changed()
	return nil
}

// Config returns the active configuration
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// OnChange registers a callback run after every state change, outside the
// session lock. Rendering surfaces use it to schedule a redraw.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Session) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// spawn runs persistence work in the background and tracks it for Wait
func (s *Session) spawn(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
		s.changed()
	}()
}

// Wait blocks until all background persistence work has settled
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels background work and waits for it to finish
func (s *Session) Close() {
	s.cancel()
	s.wg.Wait()
}

// History exposes the command stack for inspection
func (s *Session) History() *history.Stack {
	return s.history
}

// Tool returns the armed tool
func (s *Session) Tool() measure.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool.machine.Tool()
}

// Gesture returns the state of the drawing machine and the points so far
func (s *Session) Gesture() (drawing.State, []geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool.machine.State(), s.tool.machine.Points()
}

// ActiveCondition returns the active condition id
func (s *Session) ActiveCondition() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool.condition
}

// Selected returns the selected measurement ids
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IDs()
}

// Ruler returns the last measure-tool reading, if any
func (s *Session) Ruler() *measure.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ruler
}

// Measurements returns a copy of the page cache, rejected ones included
func (s *Session) Measurements() []measurement.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]measurement.Measurement, len(s.measurements))
	for i, m := range s.measurements {
		out[i] = m.Clone()
	}
	return out
}

// VisibleMeasurements returns the measurements that pass the review filter
func (s *Session) VisibleMeasurements() []measurement.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

func (s *Session) visibleLocked() []measurement.Measurement {
	return s.filter.Filter(s.measurements, s.conditions)
}

// Measurement returns one cached measurement by id
func (s *Session) Measurement(id string) (measurement.Measurement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.measurements[i].Clone(), true
	}
	return measurement.Measurement{}, false
}
