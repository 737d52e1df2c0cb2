package app

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/philipparndt/takeoff/pkg/viewer"
)

type reviewFixture struct {
	s                  *Session
	store              *fakeStore
	low, high, mid, by string // AI 0.5, AI 0.9, AI 0.7, manual
}

func newReviewFixture(t *testing.T) reviewFixture {
	t.Helper()
	store := newFakeStore()
	f := reviewFixture{store: store}
	f.low = store.seed(t, "p2", "c1", 100, true, 0.5).ID
	f.high = store.seed(t, "p2", "c1", 200, true, 0.9).ID
	f.mid = store.seed(t, "p2", "c2", 300, true, 0.7).ID
	f.by = store.seed(t, "p2", "c2", 400, false, 0).ID

	f.s, _ = newTestSession(t, store)
	f.s.SwitchSheet(Sheet{ID: "p2", Image: viewer.NewSize(1000, 800), PixelsPerUnit: 10})
	f.s.Wait()
	return f
}

func visibleIDs(s *Session) []string {
	var ids []string
	for _, m := range s.VisibleMeasurements() {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestReviewModeFiltersByConfidence(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s

	if got := visibleIDs(s); len(got) != 4 {
		t.Fatalf("review off: expected all 4 visible, got %v", got)
	}
	if got, want := s.ReviewQueue(), []string{f.low, f.mid, f.high}; !slices.Equal(got, want) {
		t.Errorf("queue: expected %v, got %v", want, got)
	}

	s.SetReviewMode(true)
	if got, want := visibleIDs(s), []string{f.high, f.by}; !slices.Equal(got, want) {
		t.Errorf("review on: expected %v, got %v", want, got)
	}
	if got, want := s.ReviewQueue(), []string{f.high}; !slices.Equal(got, want) {
		t.Errorf("queue: expected %v, got %v", want, got)
	}

	if err := s.SetConfidenceThreshold(0.6); err != nil {
		t.Fatal(err)
	}
	if got, want := visibleIDs(s), []string{f.high, f.mid, f.by}; !slices.Equal(got, want) {
		t.Errorf("threshold 0.6: expected %v, got %v", want, got)
	}
	if err := s.SetConfidenceThreshold(1.5); err == nil {
		t.Error("expected an out-of-range threshold refused")
	}
	if on, th := s.ReviewMode(); !on || th != 0.6 {
		t.Errorf("expected review on at 0.6, got %v %v", on, th)
	}
}

func TestHiddenMeasurementsAreNotHit(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s
	s.SetReviewMode(true)

	// The low-confidence point sits at (100,10)
	click(s, 100, 10)
	if len(s.Selected()) != 0 {
		t.Errorf("a hidden measurement must not be selectable, got %v", s.Selected())
	}
	click(s, 200, 10)
	if sel := s.Selected(); len(sel) != 1 || sel[0] != f.high {
		t.Errorf("expected %s selected, got %v", f.high, sel)
	}
}

func TestEnteringReviewModeDropsHiddenSelection(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s
	click(s, 100, 10)
	if sel := s.Selected(); len(sel) != 1 || sel[0] != f.low {
		t.Fatalf("expected %s selected, got %v", f.low, sel)
	}
	s.SetReviewMode(true)
	if len(s.Selected()) != 0 {
		t.Errorf("hidden measurements must leave the selection, got %v", s.Selected())
	}
}

func TestReviewWalkApproveReject(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s
	s.SetReviewMode(true)
	if err := s.SetConfidenceThreshold(0.6); err != nil {
		t.Fatal(err)
	}

	id, ok := s.NextReview()
	if !ok || id != f.mid {
		t.Fatalf("NextReview: expected %s, got %s %v", f.mid, id, ok)
	}
	if sel := s.Selected(); len(sel) != 1 || sel[0] != f.mid {
		t.Errorf("the review entry should be selected, got %v", sel)
	}
	if s.ActiveCondition() != "c2" {
		t.Errorf("expected the entry's condition active, got %q", s.ActiveCondition())
	}
	if id, _ := s.PrevReview(); id != f.high {
		t.Errorf("PrevReview should wrap to %s, got %s", f.high, id)
	}
	if id, _ := s.NextReview(); id != f.mid {
		t.Errorf("NextReview should wrap back to %s, got %s", f.mid, id)
	}

	if !s.ApproveCurrent() {
		t.Fatal("ApproveCurrent: expected the call started")
	}
	s.Wait()
	if m, _ := f.store.Get(f.mid); !m.IsVerified {
		t.Error("store should hold the approval")
	}
	if got := s.CurrentReview(); got != f.high {
		t.Errorf("expected to advance to %s, got %q", f.high, got)
	}
	if got, want := s.ReviewQueue(), []string{f.high}; !slices.Equal(got, want) {
		t.Errorf("queue after approve: expected %v, got %v", want, got)
	}

	if !s.RejectCurrent("duplicate") {
		t.Fatal("RejectCurrent: expected the call started")
	}
	s.Wait()
	if s.CurrentReview() != "" {
		t.Errorf("queue exhausted: expected no current entry, got %q", s.CurrentReview())
	}
	if slices.Contains(visibleIDs(s), f.high) {
		t.Error("a rejected measurement must be hidden")
	}
	if len(s.Selected()) != 0 {
		t.Errorf("a rejected measurement must leave the selection, got %v", s.Selected())
	}
	if s.ApproveCurrent() {
		t.Error("nothing to approve without a current entry")
	}
}

func TestReviewKeys(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s

	if !s.HandleKey(KeyEvent{Key: "Tab"}) || s.CurrentReview() != f.low {
		t.Errorf("tab: expected %s current, got %q", f.low, s.CurrentReview())
	}
	if !s.HandleKey(KeyEvent{Key: "Tab", Shift: true}) || s.CurrentReview() != f.high {
		t.Errorf("shift+tab: expected %s current, got %q", f.high, s.CurrentReview())
	}
	if !s.HandleKey(KeyEvent{Key: "Enter"}) {
		t.Fatal("enter: expected approve consumed")
	}
	s.Wait()
	if m, _ := f.store.Get(f.high); !m.IsVerified {
		t.Error("enter should approve the current entry")
	}
}

func TestFailedApproveKeepsEntry(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s
	failing := &failingReviews{err: errors.New("forbidden")}
	s.reviews = failing

	s.NextReview()
	s.ApproveCurrent()
	s.Wait()
	if s.CurrentReview() != f.low {
		t.Errorf("a failed approve keeps the entry current, got %q", s.CurrentReview())
	}
	if m, _ := s.Measurement(f.low); m.IsVerified {
		t.Error("a failed approve must not mark the measurement verified")
	}
	if !hasNotice(s, NoticeError) {
		t.Error("expected an error notice")
	}
}

func TestAutoAccept(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s

	if !s.AutoAccept() {
		t.Fatal("AutoAccept: expected the call started")
	}
	s.Wait()
	if m, _ := s.Measurement(f.high); !m.IsVerified {
		t.Error("the 0.9 measurement should be accepted")
	}
	if m, _ := s.Measurement(f.mid); m.IsVerified {
		t.Error("the 0.7 measurement is below the threshold")
	}
	if !hasNotice(s, NoticeInfo) {
		t.Error("expected an info notice")
	}
	if got, want := s.ReviewQueue(), []string{f.low, f.mid}; !slices.Equal(got, want) {
		t.Errorf("queue: expected %v, got %v", want, got)
	}
}

func TestReviewResetsOnSheetSwitch(t *testing.T) {
	f := newReviewFixture(t)
	s := f.s
	s.SetReviewMode(true)
	if err := s.SetConfidenceThreshold(0.3); err != nil {
		t.Fatal(err)
	}
	s.NextReview()

	s.SwitchSheet(Sheet{ID: "p1", Image: viewer.NewSize(1000, 800), PixelsPerUnit: 10})
	s.Wait()
	if on, th := s.ReviewMode(); on || th != s.Config().Review.ConfidenceThreshold {
		t.Errorf("expected review off at the configured threshold, got %v %v", on, th)
	}
	if s.CurrentReview() != "" {
		t.Error("the review entry belongs to the previous sheet")
	}
}

type failingReviews struct {
	err error
}

func (r *failingReviews) Approve(context.Context, string) error { return r.err }

func (r *failingReviews) Reject(context.Context, string, string) error { return r.err }

func (r *failingReviews) AutoAccept(context.Context, string, float64) ([]string, error) {
	return nil, r.err
}
