package script

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philipparndt/takeoff/internal/app"
	"github.com/philipparndt/takeoff/pkg/measure"
)

const drywall = `
sheet:
  id: A101
  size: {width: 1000, height: 800}
  pixels_per_unit: 10
conditions:
  - {id: drywall, name: Drywall, color: "#ff0000"}
  - {id: hidden, name: Hidden, visible: false}
events:
  - condition: drywall
  - tool: rectangle
  - click: [0, 0]
  - click: [100, 50]
  - tool: line
  - drag: {from: [0, 0], via: [[10, 10]], to: [30, 40]}
  - key: ctrl+z
  - tool: measure
  - click: [0, 0]
  - click: {at: [60, 80]}
`

func newSession(t *testing.T, sc *Script) *app.Session {
	t.Helper()
	s, err := app.NewSession(app.Options{Conditions: sc.Registry()})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestRun(t *testing.T) {
	for _, async := range []bool{false, true} {
		sc, err := Parse([]byte(drywall))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		res, err := Run(newSession(t, sc), sc, Options{Async: async})
		if err != nil {
			t.Fatalf("Run(async=%v): %v", async, err)
		}

		if len(res.Measurements) != 1 {
			t.Fatalf("async=%v: expected 1 measurement, got %d", async, len(res.Measurements))
		}
		if m := res.Measurements[0]; m.Quantity != 50 || m.Unit != measure.UnitSquareFeet || m.ConditionID != "drywall" {
			t.Errorf("async=%v: expected 50 SF of drywall, got %v %s %s", async, m.Quantity, m.Unit, m.ConditionID)
		}
		if res.Past != 1 || res.Future != 1 {
			t.Errorf("async=%v: depth: expected 1/1, got %d/%d", async, res.Past, res.Future)
		}
		if res.Ruler == nil || res.Ruler.Quantity != 10 {
			t.Errorf("async=%v: expected a 10 LF ruler, got %+v", async, res.Ruler)
		}
		if res.PageID != "A101" {
			t.Errorf("async=%v: page: expected A101, got %s", async, res.PageID)
		}
	}
}

func TestRegistry(t *testing.T) {
	sc, err := Parse([]byte(drywall))
	if err != nil {
		t.Fatal(err)
	}
	reg := sc.Registry()
	if c, ok := reg.Condition("drywall"); !ok || !c.IsVisible || c.Color.R != 255 {
		t.Errorf("drywall: expected visible red, got %+v", c)
	}
	if c, ok := reg.Condition("hidden"); !ok || c.IsVisible {
		t.Errorf("hidden: expected invisible, got %+v", c)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no sheet id", "sheet: {size: {width: 1, height: 1}}", "sheet.id"},
		{"no size", "sheet: {id: a}", "image or a positive size"},
		{"two actions", "sheet: {id: a, size: {width: 1, height: 1}}\nevents:\n  - {tool: line, click: [1, 1]}", "exactly one action"},
		{"empty event", "sheet: {id: a, size: {width: 1, height: 1}}\nevents:\n  - {}", "exactly one action"},
		{"unknown tool", "sheet: {id: a, size: {width: 1, height: 1}}\nevents:\n  - tool: lasso", "unknown tool"},
		{"bad chord", "sheet: {id: a, size: {width: 1, height: 1}}\nevents:\n  - key: hyper+z", "unknown modifier"},
		{"bad point", "sheet: {id: a, size: {width: 1, height: 1}}\nevents:\n  - click: [1, 2, 3]", "two coordinates"},
		{"bad button", "sheet: {id: a, size: {width: 1, height: 1}}\nevents:\n  - click: {at: [1, 2], button: fourth}", "unknown button"},
		{"bad review", "sheet: {id: a, size: {width: 1, height: 1}}\nevents:\n  - review: maybe", "unknown review action"},
		{"duplicate condition", "sheet: {id: a, size: {width: 1, height: 1}}\nconditions: [{id: c}, {id: c}]", "unique"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected an error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadResolvesImage(t *testing.T) {
	dir := t.TempDir()
	file, err := os.Create(filepath.Join(dir, "plan.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(file, image.NewGray(image.Rect(0, 0, 200, 100))); err != nil {
		t.Fatal(err)
	}
	file.Close()

	script := `
sheet:
  id: A201
  image: plan.png
  container: {width: 500, height: 400}
events:
  - tool: measure
  - click: [0, 0]
`
	path := filepath.Join(dir, "session.yaml")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := newSession(t, sc)
	if _, err := Run(s, sc, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if img := s.Sheet().Image; img.Width != 200 || img.Height != 100 {
		t.Errorf("image size: expected 200x100, got %vx%v", img.Width, img.Height)
	}
	// 200x100 into 500x400 with the 0.9 margin
	if z := s.Viewport().Zoom; z < 2.2499 || z > 2.2501 {
		t.Errorf("fit zoom: expected 2.25, got %v", z)
	}
}

func TestProposalsAndReview(t *testing.T) {
	script := `
sheet: {id: A101, size: {width: 1000, height: 800}, pixels_per_unit: 10}
conditions: [{id: doors, name: Doors}]
events:
  - propose: {id: d1, tool: point, points: [[10, 10]], confidence: 0.95, condition: doors}
  - propose: {id: d2, tool: point, points: [[50, 10]], confidence: 0.4, condition: doors}
  - propose: {id: d3, tool: point, points: [[90, 10]], confidence: 0.3, condition: doors}
  - accept: d1
  - accept: d2
  - dismiss: d3
  - review: on
  - review: auto_accept
`
	sc, err := Parse([]byte(script))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := Run(newSession(t, sc), sc, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Proposals) != 0 {
		t.Errorf("expected no ghosts left, got %d", len(res.Proposals))
	}
	// d2 is below the review threshold and hidden in review mode
	if len(res.Measurements) != 1 {
		t.Fatalf("expected 1 visible measurement, got %d", len(res.Measurements))
	}
	if m := res.Measurements[0]; !m.IsAIGenerated || !m.IsVerified {
		t.Errorf("expected the accepted proposal auto-verified, got %+v", m)
	}
	if res.Past != 2 {
		t.Errorf("expected two create commands, got %d", res.Past)
	}
}

func TestRunReportsFailingEvent(t *testing.T) {
	script := `
sheet: {id: A101, size: {width: 100, height: 100}}
events:
  - condition: missing
`
	sc, err := Parse([]byte(script))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = Run(newSession(t, sc), sc, Options{})
	if err == nil || !strings.Contains(err.Error(), "event 1 (condition)") {
		t.Errorf("expected the failing event named, got %v", err)
	}
}

func TestLoadConditions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.yaml")
	if err := os.WriteFile(path, []byte(drywall), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadConditions(path)
	if err != nil {
		t.Fatalf("LoadConditions: %v", err)
	}
	if len(reg) != 2 || !reg["drywall"].IsVisible || reg["hidden"].IsVisible {
		t.Errorf("unexpected registry %+v", reg)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("conditions:\n  - {id: a}\n  - {id: a}\n  - {name: b}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadConditions(bad)
	if err == nil || !strings.Contains(err.Error(), "duplicate") || !strings.Contains(err.Error(), "missing id") {
		t.Errorf("expected duplicate and missing id errors, got %v", err)
	}
}
