package keys

import (
	"fmt"
	"sort"

	"github.com/philipparndt/takeoff/pkg/measure"
)

// Action is what a chord triggers. Tool actions are named after the tool.
type Action string

const (
	Undo          Action = "undo"
	Redo          Action = "redo"
	Delete        Action = "delete"
	Escape        Action = "escape"
	ReviewNext    Action = "review_next"
	ReviewPrev    Action = "review_prev"
	ReviewApprove Action = "review_approve"
	Fit           Action = "fit"
)

var commandActions = []Action{Undo, Redo, Delete, Escape, ReviewNext, ReviewPrev, ReviewApprove, Fit}

// Tool returns the tool an action switches to
func (a Action) Tool() (measure.Tool, bool) {
	t, err := measure.ParseTool(string(a))
	return t, err == nil
}

// Valid reports whether a names a known action
func (a Action) Valid() bool {
	if _, ok := a.Tool(); ok {
		return true
	}
	for _, c := range commandActions {
		if a == c {
			return true
		}
	}
	return false
}

// DefaultMap is the stock action to chord table
func DefaultMap() map[string][]string {
	return map[string][]string{
		string(measure.ToolSelect):    {"v"},
		string(measure.ToolMeasure):   {"m"},
		string(measure.ToolLine):      {"l"},
		string(measure.ToolPolyline):  {"p"},
		string(measure.ToolPolygon):   {"g"},
		string(measure.ToolRectangle): {"r"},
		string(measure.ToolCircle):    {"c"},
		string(measure.ToolPoint):     {"x"},
		string(Undo):                  {"ctrl+z"},
		string(Redo):                  {"ctrl+shift+z", "ctrl+y"},
		string(Delete):                {"delete", "backspace"},
		string(Escape):                {"escape"},
		string(ReviewNext):            {"tab"},
		string(ReviewPrev):            {"shift+tab"},
		string(ReviewApprove):         {"enter"},
		string(Fit):                   {"f"},
	}
}

// Bindings maps chords to actions
type Bindings map[Chord]Action

// NewBindings builds the table from DefaultMap with overrides applied. An
// override replaces every default chord of its action.
func NewBindings(overrides map[string][]string) (Bindings, error) {
	table := DefaultMap()
	for action, chords := range overrides {
		table[action] = chords
	}

	// Sorted so conflicts are reported deterministically
	actions := make([]string, 0, len(table))
	for a := range table {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	b := make(Bindings)
	for _, name := range actions {
		action := Action(name)
		if !action.Valid() {
			return nil, fmt.Errorf("unknown key action %q", name)
		}
		for _, s := range table[name] {
			chord, err := ParseChord(s)
			if err != nil {
				return nil, err
			}
			if _, isTool := action.Tool(); isTool && chord.Mods != 0 {
				return nil, fmt.Errorf("tool %q must be bound to a plain key, got %q", name, s)
			}
			if prev, taken := b[chord]; taken {
				return nil, fmt.Errorf("chord %q is bound to both %s and %s", chord, prev, action)
			}
			b[chord] = action
		}
	}
	return b, nil
}

// Lookup returns the action bound to c
func (b Bindings) Lookup(c Chord) (Action, bool) {
	a, ok := b[c]
	return a, ok
}
