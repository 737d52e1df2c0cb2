// Package script replays YAML event scripts against a canvas session, for
// headless runs and regression fixtures.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/philipparndt/takeoff/internal/keys"
	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

// Script is a sheet, its conditions and a list of input events
type Script struct {
	Sheet      SheetSpec       `yaml:"sheet"`
	Conditions []ConditionSpec `yaml:"conditions"`
	Events     []Event         `yaml:"events"`

	dir string // directory relative image paths resolve against
}

// SheetSpec describes the page a script runs on. Either Image or Size gives
// the image dimensions.
type SheetSpec struct {
	ID            string       `yaml:"id"`
	Image         string       `yaml:"image"`
	Size          *viewer.Size `yaml:"size"`
	Container     *viewer.Size `yaml:"container"`
	PixelsPerUnit float64      `yaml:"pixels_per_unit"`
}

// ConditionSpec is a condition entry; conditions are visible unless stated
type ConditionSpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Color   string `yaml:"color"`
	Visible *bool  `yaml:"visible"`
}

// XY is a point written as a two-element sequence, [x, y]
type XY geometry.Point

// UnmarshalYAML implements yaml.Unmarshaler
func (p *XY) UnmarshalYAML(value *yaml.Node) error {
	var xy []float64
	if err := value.Decode(&xy); err != nil {
		return err
	}
	if len(xy) != 2 {
		return fmt.Errorf("line %d: a point needs two coordinates, got %d", value.Line, len(xy))
	}
	*p = XY{X: xy[0], Y: xy[1]}
	return nil
}

// Point converts to a geometry point
func (p XY) Point() geometry.Point {
	return geometry.Point(p)
}

// Pointer is a pointer event target with an optional button
type Pointer struct {
	At     XY     `yaml:"at"`
	Button string `yaml:"button"` // primary (default), secondary or middle
}

// UnmarshalYAML accepts either [x, y] or {at: [x, y], button: ...}
func (p *Pointer) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		return value.Decode(&p.At)
	}
	type plain Pointer
	return value.Decode((*plain)(p))
}

// Drag is a press, optional intermediate moves and a release
type Drag struct {
	From   XY     `yaml:"from"`
	Via    []XY   `yaml:"via"`
	To     XY     `yaml:"to"`
	Button string `yaml:"button"`
}

// Wheel is a wheel event at a screen point
type Wheel struct {
	At      XY      `yaml:"at"`
	Notches float64 `yaml:"notches"`
}

// Proposal is an AI-assist suggestion
type Proposal struct {
	ID         string  `yaml:"id"`
	Tool       string  `yaml:"tool"`
	Points     []XY    `yaml:"points"`
	Confidence float64 `yaml:"confidence"`
	Condition  string  `yaml:"condition"`
}

// Review actions
const (
	ReviewOn         = "on"
	ReviewOff        = "off"
	ReviewNext       = "next"
	ReviewPrev       = "prev"
	ReviewApprove    = "approve"
	ReviewReject     = "reject"
	ReviewAutoAccept = "auto_accept"
)

// Event is one script step. Exactly one field is set.
type Event struct {
	Tool        string       `yaml:"tool,omitempty"`
	Condition   *string      `yaml:"condition,omitempty"` // "" clears the active condition
	Click       *Pointer     `yaml:"click,omitempty"`
	Down        *Pointer     `yaml:"down,omitempty"`
	Move        *Pointer     `yaml:"move,omitempty"`
	Up          *Pointer     `yaml:"up,omitempty"`
	DoubleClick *Pointer     `yaml:"dblclick,omitempty"`
	Drag        *Drag        `yaml:"drag,omitempty"`
	Wheel       *Wheel       `yaml:"wheel,omitempty"`
	Key         string       `yaml:"key,omitempty"`
	Resize      *viewer.Size `yaml:"resize,omitempty"`
	Review      string       `yaml:"review,omitempty"`
	Threshold   *float64     `yaml:"threshold,omitempty"`
	Propose     *Proposal    `yaml:"propose,omitempty"`
	Accept      string       `yaml:"accept,omitempty"`
	Dismiss     string       `yaml:"dismiss,omitempty"`
	Settle      bool         `yaml:"settle,omitempty"`
}

// Kind names the field that is set, or "" when none or several are
func (e Event) Kind() string {
	set := map[string]bool{
		"tool":      e.Tool != "",
		"condition": e.Condition != nil,
		"click":     e.Click != nil,
		"down":      e.Down != nil,
		"move":      e.Move != nil,
		"up":        e.Up != nil,
		"dblclick":  e.DoubleClick != nil,
		"drag":      e.Drag != nil,
		"wheel":     e.Wheel != nil,
		"key":       e.Key != "",
		"resize":    e.Resize != nil,
		"review":    e.Review != "",
		"threshold": e.Threshold != nil,
		"propose":   e.Propose != nil,
		"accept":    e.Accept != "",
		"dismiss":   e.Dismiss != "",
		"settle":    e.Settle,
	}
	kind := ""
	for k, ok := range set {
		if !ok {
			continue
		}
		if kind != "" {
			return ""
		}
		kind = k
	}
	return kind
}

// Load reads and validates a script file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// Parse decodes and validates a script
func Parse(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the sheet and that every event is well formed
func (sc *Script) Validate() error {
	var errs []error
	if sc.Sheet.ID == "" {
		errs = append(errs, errors.New("sheet.id is required"))
	}
	if sc.Sheet.Image == "" && (sc.Sheet.Size == nil || !sc.Sheet.Size.Valid()) {
		errs = append(errs, errors.New("sheet needs an image or a positive size"))
	}
	if sc.Sheet.PixelsPerUnit < 0 {
		errs = append(errs, fmt.Errorf("sheet.pixels_per_unit must not be negative, got %v", sc.Sheet.PixelsPerUnit))
	}
	seen := make(map[string]bool)
	for _, c := range sc.Conditions {
		if c.ID == "" || seen[c.ID] {
			errs = append(errs, fmt.Errorf("condition ids must be unique and non-empty, got %q", c.ID))
		}
		seen[c.ID] = true
	}
	for i, e := range sc.Events {
		if err := e.validate(); err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

func (e Event) validate() error {
	switch e.Kind() {
	case "":
		return errors.New("exactly one action per event")
	case "tool":
		if !measure.Tool(e.Tool).Valid() {
			return fmt.Errorf("unknown tool %q", e.Tool)
		}
	case "key":
		if _, err := keys.ParseChord(e.Key); err != nil {
			return err
		}
	case "review":
		switch e.Review {
		case ReviewOn, ReviewOff, ReviewNext, ReviewPrev, ReviewApprove, ReviewReject, ReviewAutoAccept:
		default:
			return fmt.Errorf("unknown review action %q", e.Review)
		}
	case "propose":
		if !measure.Tool(e.Propose.Tool).Valid() {
			return fmt.Errorf("unknown proposal tool %q", e.Propose.Tool)
		}
	}
	for _, p := range []*Pointer{e.Click, e.Down, e.Move, e.Up, e.DoubleClick} {
		if p != nil {
			if _, err := button(p.Button); err != nil {
				return err
			}
		}
	}
	return nil
}

// Registry builds the condition registry of the script
func (sc *Script) Registry() measurement.Conditions {
	return registry(sc.Conditions)
}

// LoadConditions reads the conditions block of a YAML file, ignoring any
// other keys, so a script can double as a condition list.
func LoadConditions(path string) (measurement.Conditions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conditions: %w", err)
	}
	var doc struct {
		Conditions []ConditionSpec `yaml:"conditions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	var errs []error
	seen := make(map[string]bool)
	for i, c := range doc.Conditions {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("conditions[%d]: missing id", i))
		case seen[c.ID]:
			errs = append(errs, fmt.Errorf("conditions[%d]: duplicate id %q", i, c.ID))
		}
		seen[c.ID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return registry(doc.Conditions), nil
}

func registry(specs []ConditionSpec) measurement.Conditions {
	reg := make(measurement.Conditions, len(specs))
	for _, c := range specs {
		visible := c.Visible == nil || *c.Visible
		reg[c.ID] = measurement.Condition{ID: c.ID, Name: c.Name, Hex: c.Color, IsVisible: visible}.Resolve()
	}
	return reg
}
