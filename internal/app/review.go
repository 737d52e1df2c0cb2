package app

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// SetReviewMode toggles confidence filtering. Leaving review mode clears the
// current review entry.
func (s *Session) SetReviewMode(on bool) {
	s.mu.Lock()
	s.filter.ReviewMode = on
	if !on {
		s.filter.CurrentReviewID = ""
	}
	s.dropHiddenLocked()
	s.mu.Unlock()
	s.changed()
}

// SetConfidenceThreshold changes the review threshold, in [0,1]
func (s *Session) SetConfidenceThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0,1], got %v", threshold)
	}
	s.mu.Lock()
	s.filter.ConfidenceThreshold = threshold
	s.dropHiddenLocked()
	s.mu.Unlock()
	s.changed()
	return nil
}

// ReviewMode reports whether review mode is on and its threshold
func (s *Session) ReviewMode() (bool, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.ReviewMode, s.filter.ConfidenceThreshold
}

// ReviewQueue returns the ids awaiting review, lowest confidence first
func (s *Session) ReviewQueue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.Queue(s.measurements, s.conditions)
}

// CurrentReview returns the measurement being reviewed
func (s *Session) CurrentReview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.CurrentReviewID
}

// NextReview moves to and selects the next queued measurement
func (s *Session) NextReview() (string, bool) {
	return s.stepReview(1)
}

// PrevReview moves to and selects the previous queued measurement
func (s *Session) PrevReview() (string, bool) {
	return s.stepReview(-1)
}

func (s *Session) stepReview(delta int) (string, bool) {
	s.mu.Lock()
	queue := s.filter.Queue(s.measurements, s.conditions)
	id, ok := s.filter.Step(queue, delta)
	if ok {
		if i := s.indexLocked(id); i >= 0 {
			s.selectLocked(s.measurements[i])
		}
	}
	s.mu.Unlock()
	s.changed()
	return id, ok
}

// ApproveCurrent approves the current review entry in the background and
// moves on to the next one once it succeeds
func (s *Session) ApproveCurrent() bool {
	return s.reviewCurrent("approve", func(ctx context.Context, id string) error {
		return s.reviews.Approve(ctx, id)
	}, func(i int) {
		s.measurements[i].IsVerified = true
	})
}

// RejectCurrent rejects the current review entry; it leaves the visible set
func (s *Session) RejectCurrent(reason string) bool {
	return s.reviewCurrent("reject", func(ctx context.Context, id string) error {
		return s.reviews.Reject(ctx, id, reason)
	}, func(i int) {
		s.measurements[i].IsRejected = true
	})
}

func (s *Session) reviewCurrent(op string, call func(context.Context, string) error, mark func(i int)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.filter.CurrentReviewID
	if id == "" {
		return false
	}
	if s.reviews == nil {
		s.rejectLocked("Review actions are not available", nil)
		return false
	}
	epoch := s.sheet.epoch

	s.spawn(func(ctx context.Context) {
		err := call(ctx, id)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.failLocked(fmt.Sprintf("Could not %s the measurement", op), err, zap.String("measurement_id", id))
			return
		}
		if s.sheet.epoch != epoch {
			return
		}
		queue := s.filter.Queue(s.measurements, s.conditions)
		if i := s.indexLocked(id); i >= 0 {
			mark(i)
		}
		s.advanceReviewLocked(queue, id)
		s.dropHiddenLocked()
	})
	return true
}

// advanceReviewLocked moves the current entry past id, which has just left
// the queue. queue is the queue before id left it.
func (s *Session) advanceReviewLocked(queue []string, id string) {
	if s.filter.CurrentReviewID != id {
		return
	}
	i := slices.Index(queue, id)
	if i >= 0 {
		queue = slices.Delete(slices.Clone(queue), i, i+1)
	}
	if len(queue) == 0 || i < 0 {
		s.filter.CurrentReviewID = ""
		return
	}
	next := queue[i%len(queue)]
	s.filter.CurrentReviewID = next
	if j := s.indexLocked(next); j >= 0 {
		s.selectLocked(s.measurements[j])
	}
}

// AutoAccept approves every pending AI measurement of the page at or above
// the review threshold
func (s *Session) AutoAccept() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reviews == nil {
		s.rejectLocked("Review actions are not available", nil)
		return false
	}
	page, threshold, epoch := s.sheet.pageID, s.filter.ConfidenceThreshold, s.sheet.epoch

	s.spawn(func(ctx context.Context) {
		ids, err := s.reviews.AutoAccept(ctx, page, threshold)
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.failLocked("Could not auto-accept measurements", err, zap.String("page_id", page))
			return
		}
		if s.sheet.epoch != epoch {
			return
		}
		for _, id := range ids {
			if i := s.indexLocked(id); i >= 0 {
				s.measurements[i].IsVerified = true
			}
			if s.filter.CurrentReviewID == id {
				s.filter.CurrentReviewID = ""
			}
		}
		s.noticeLocked(NoticeInfo, fmt.Sprintf("Accepted %d measurements", len(ids)))
	})
	return true
}

// dropHiddenLocked removes measurements that are no longer visible from the
// selection and hover
func (s *Session) dropHiddenLocked() {
	visible := make(map[string]bool, len(s.measurements))
	for _, m := range s.visibleLocked() {
		visible[m.ID] = true
	}
	s.selection.Retain(func(id string) bool { return visible[id] })
	if !visible[s.pointer.hovered] {
		s.pointer.hovered = ""
	}
	if s.filter.CurrentReviewID != "" && !visible[s.filter.CurrentReviewID] {
		s.filter.CurrentReviewID = ""
	}
}
