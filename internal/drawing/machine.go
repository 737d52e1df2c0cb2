// Package drawing implements the per-tool gesture state machine that turns
// pointer input into measurement geometry.
package drawing

import (
	"errors"

	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
)

// ErrConditionRequired is returned when a drawing tool is armed without an active condition
var ErrConditionRequired = errors.New("select a condition before drawing")

// Default tolerances in screen pixels
const (
	DefaultCloseToStartRadius = 10.0
	DefaultDragThreshold      = 4.0
)

// State is the gesture state
type State int

const (
	Idle State = iota
	Gesturing
)

func (s State) String() string {
	if s == Gesturing {
		return "gesturing"
	}
	return "idle"
}

// EventKind identifies a machine input
type EventKind int

const (
	Down EventKind = iota
	Move
	Up
	DoubleClick
	Cancel
	UndoPoint
)

// Event is a pointer or gesture command in image space. Zoom is the current
// viewport zoom, used to evaluate screen-space tolerances.
type Event struct {
	Kind EventKind
	At   geometry.Point
	Zoom float64
}

// OutcomeKind describes what a transition did
type OutcomeKind int

const (
	Ignored OutcomeKind = iota
	Started
	Appended
	Previewed
	Committed
	Discarded
	Cancelled
	Reverted
)

// Outcome is the result of feeding one event to the machine
type Outcome struct {
	Kind   OutcomeKind
	Tool   measure.Tool
	Result *measure.Result
}

// Options configures tolerances and calibration
type Options struct {
	CloseToStartRadius float64
	DragThreshold      float64
	Scale              measure.Scale
}

// DefaultOptions returns the standard tolerances with an uncalibrated scale
func DefaultOptions() Options {
	return Options{
		CloseToStartRadius: DefaultCloseToStartRadius,
		DragThreshold:      DefaultDragThreshold,
	}
}

type handler func(m *Machine, e Event) Outcome

// transitions is the gesture table. Pairs not listed are ignored.
var transitions = map[State]map[EventKind]handler{
	Idle: {
		Down: (*Machine).begin,
	},
	Gesturing: {
		Down:        (*Machine).click,
		Move:        (*Machine).track,
		Up:          (*Machine).release,
		DoubleClick: (*Machine).finish,
		Cancel:      (*Machine).cancel,
		UndoPoint:   (*Machine).undoPoint,
	},
}

// Machine holds the armed tool and the in-progress gesture
type Machine struct {
	opts    Options
	tool    measure.Tool
	state   State
	points  []geometry.Point
	preview *measure.Result
}

// New creates an idle machine with the select tool armed
func New(opts Options) *Machine {
	return &Machine{opts: opts, tool: measure.ToolSelect}
}

// SetOptions replaces tolerances and calibration
func (m *Machine) SetOptions(opts Options) {
	m.opts = opts
}

// SetScale replaces the calibration used for commits and previews
func (m *Machine) SetScale(scale measure.Scale) {
	m.opts.Scale = scale
}

// Options returns the current options
func (m *Machine) Options() Options {
	return m.opts
}

// Arm switches the tool, discarding any gesture in progress. Drawing tools
// other than measure are refused while no condition is active.
func (m *Machine) Arm(tool measure.Tool, conditionActive bool) error {
	if tool.RequiresCondition() && !conditionActive {
		return ErrConditionRequired
	}
	m.reset()
	m.tool = tool
	return nil
}

// Tool returns the armed tool
func (m *Machine) Tool() measure.Tool {
	return m.tool
}

// State returns the gesture state
func (m *Machine) State() State {
	return m.state
}

// Gesturing reports whether a gesture is in progress
func (m *Machine) Gesturing() bool {
	return m.state == Gesturing
}

// Points returns a copy of the gesture points
func (m *Machine) Points() []geometry.Point {
	return geometry.Clone(m.points)
}

// Preview returns the provisional shape including the cursor, if any
func (m *Machine) Preview() *measure.Result {
	return m.preview
}

// Handle feeds one event through the transition table
func (m *Machine) Handle(e Event) Outcome {
	if !m.tool.Draws() {
		return Outcome{Kind: Ignored, Tool: m.tool}
	}
	if e.Zoom <= 0 {
		e.Zoom = 1
	}
	h, ok := transitions[m.state][e.Kind]
	if !ok {
		return Outcome{Kind: Ignored, Tool: m.tool}
	}
	return h(m, e)
}

func (m *Machine) begin(e Event) Outcome {
	m.points = []geometry.Point{e.At}
	if m.tool.PointCount() == 1 {
		return m.commit()
	}
	m.state = Gesturing
	m.preview = nil
	return Outcome{Kind: Started, Tool: m.tool}
}

func (m *Machine) click(e Event) Outcome {
	if m.tool == measure.ToolPolygon && m.nearStart(e) {
		if len(m.points) >= 3 {
			return m.commit()
		}
		// Closing a ring that has no area yet would only add a duplicate vertex
		return Outcome{Kind: Ignored, Tool: m.tool}
	}

	m.points = append(m.points, e.At)
	if n := m.tool.PointCount(); n > 0 && len(m.points) >= n {
		return m.commit()
	}
	m.preview = nil
	return Outcome{Kind: Appended, Tool: m.tool}
}

func (m *Machine) track(e Event) Outcome {
	candidate := append(geometry.Clone(m.points), e.At)
	if res, ok := measure.Build(m.tool, candidate, m.opts.Scale); ok {
		m.preview = &res
	} else {
		m.preview = nil
	}
	return Outcome{Kind: Previewed, Tool: m.tool}
}

// release completes drag gestures of two-point tools. A release close to the
// press is a plain click and leaves the gesture waiting for the second click.
func (m *Machine) release(e Event) Outcome {
	if m.tool.PointCount() != 2 || len(m.points) != 1 {
		return Outcome{Kind: Ignored, Tool: m.tool}
	}
	if m.points[0].Distance(e.At)*e.Zoom <= m.opts.DragThreshold {
		return Outcome{Kind: Ignored, Tool: m.tool}
	}
	m.points = append(m.points, e.At)
	return m.commit()
}

// finish ends a polyline or polygon. A double-click arrives after its own
// clicks, so trailing points that landed on top of each other are merged.
func (m *Machine) finish(e Event) Outcome {
	if !m.tool.MultiClick() {
		return Outcome{Kind: Ignored, Tool: m.tool}
	}
	for len(m.points) >= 2 {
		last, prev := m.points[len(m.points)-1], m.points[len(m.points)-2]
		if last.Distance(prev)*e.Zoom > m.opts.DragThreshold {
			break
		}
		m.points = m.points[:len(m.points)-1]
	}
	return m.commit()
}

func (m *Machine) cancel(Event) Outcome {
	m.reset()
	return Outcome{Kind: Cancelled, Tool: m.tool}
}

func (m *Machine) undoPoint(Event) Outcome {
	m.points = m.points[:len(m.points)-1]
	m.preview = nil
	if len(m.points) == 0 {
		m.state = Idle
		return Outcome{Kind: Cancelled, Tool: m.tool}
	}
	return Outcome{Kind: Reverted, Tool: m.tool}
}

func (m *Machine) commit() Outcome {
	res, ok := measure.Build(m.tool, m.points, m.opts.Scale)
	m.reset()
	if !ok {
		return Outcome{Kind: Discarded, Tool: m.tool}
	}
	return Outcome{Kind: Committed, Tool: m.tool, Result: &res}
}

// nearStart applies the close-to-start rule in screen space
func (m *Machine) nearStart(e Event) bool {
	return len(m.points) > 0 && m.points[0].Distance(e.At)*e.Zoom <= m.opts.CloseToStartRadius
}

func (m *Machine) reset() {
	m.state = Idle
	m.points = nil
	m.preview = nil
}
