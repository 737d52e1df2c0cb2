package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

// fakeStore is a MemStore whose calls can be held or failed per operation
type fakeStore struct {
	*measurement.MemStore
	mu    sync.Mutex
	hooks map[string]func(ctx context.Context) error
	calls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{MemStore: measurement.NewMemStore(), hooks: make(map[string]func(context.Context) error)}
}

func (f *fakeStore) on(op string, hook func(ctx context.Context) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[op] = hook
}

func (f *fakeStore) hook(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	h := f.hooks[op]
	f.mu.Unlock()
	if h != nil {
		return h(ctx)
	}
	return nil
}

func (f *fakeStore) Create(ctx context.Context, conditionID string, in measurement.CreateInput) (measurement.Measurement, error) {
	if err := f.hook(ctx, "create"); err != nil {
		return measurement.Measurement{}, err
	}
	return f.MemStore.Create(ctx, conditionID, in)
}

func (f *fakeStore) Update(ctx context.Context, id string, in measurement.UpdateInput) (measurement.Measurement, error) {
	if err := f.hook(ctx, "update"); err != nil {
		return measurement.Measurement{}, err
	}
	return f.MemStore.Update(ctx, id, in)
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	if err := f.hook(ctx, "delete"); err != nil {
		return err
	}
	return f.MemStore.Delete(ctx, id)
}

func (f *fakeStore) List(ctx context.Context, pageID string) ([]measurement.Measurement, error) {
	if err := f.hook(ctx, "list"); err != nil {
		return nil, err
	}
	return f.MemStore.List(ctx, pageID)
}

// seed stores a point measurement directly, bypassing the hooks
func (f *fakeStore) seed(t *testing.T, page, condition string, x float64, ai bool, confidence float64) measurement.Measurement {
	t.Helper()
	m, err := f.MemStore.Create(context.Background(), condition, measurement.CreateInput{
		PageID:        page,
		GeometryType:  measure.GeometryPoint,
		GeometryData:  measure.GeometryData{Points: []geometry.Point{pt(x, 10)}},
		Quantity:      1,
		Unit:          measure.UnitEach,
		IsAIGenerated: ai,
		AIConfidence:  confidence,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return m
}

// gate returns a hook that signals started and then blocks until release is closed
func gate(started chan<- struct{}, release <-chan struct{}) func(context.Context) error {
	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fakeClock is a settable clock
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var testConditions = measurement.Conditions{
	"c1": {ID: "c1", Name: "Drywall", Hex: "#ff0000", IsVisible: true},
	"c2": {ID: "c2", Name: "Flooring", Hex: "#00ff00", IsVisible: true},
}

// newTestSession opens sheet p1 at zoom 1 with no pan, so screen and image
// coordinates coincide, calibrated at 10 px per unit
func newTestSession(t *testing.T, store *fakeStore) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s, err := NewSession(Options{Store: store, Conditions: testConditions, Clock: clock.now})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	s.Focus().Claim(RegionCanvas)
	s.SwitchSheet(Sheet{ID: "p1", Image: viewer.NewSize(1000, 800), PixelsPerUnit: 10})
	s.Wait()
	return s, clock
}

func pt(x, y float64) geometry.Point {
	return geometry.Point{X: x, Y: y}
}

func click(s *Session, x, y float64) {
	e := PointerEvent{At: pt(x, y)}
	s.PointerDown(e)
	s.PointerUp(e)
}

// drawWith arms tool under condition c1 and clicks the points
func drawWith(t *testing.T, s *Session, tool measure.Tool, points ...geometry.Point) {
	t.Helper()
	if err := s.SetActiveCondition("c1"); err != nil {
		t.Fatalf("SetActiveCondition: %v", err)
	}
	if err := s.SetTool(tool); err != nil {
		t.Fatalf("SetTool(%s): %v", tool, err)
	}
	for _, p := range points {
		click(s, p.X, p.Y)
	}
}

// only returns the single cached measurement
func only(t *testing.T, s *Session) measurement.Measurement {
	t.Helper()
	ms := s.Measurements()
	if len(ms) != 1 {
		t.Fatalf("expected 1 measurement, got %d", len(ms))
	}
	return ms[0]
}

func assertDepth(t *testing.T, s *Session, past, future int) {
	t.Helper()
	p, f := s.History().Depth()
	if p != past || f != future {
		t.Errorf("depth: expected past=%d future=%d, got past=%d future=%d", past, future, p, f)
	}
}

func hasNotice(s *Session, kind NoticeKind) bool {
	for _, n := range s.Notices() {
		if n.Kind == kind {
			return true
		}
	}
	return false
}
