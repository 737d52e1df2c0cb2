package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/internal/history"
	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/pkg/measure"
)

// forward tracks the completion of a command's initial action so that a
// reversal issued early waits for it instead of racing it
type forward struct {
	done chan struct{}
	err  error
}

func newForward() *forward {
	return &forward{done: make(chan struct{})}
}

func (f *forward) finish(err error) {
	f.err = err
	close(f.done)
}

func (f *forward) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// provenance marks measurements accepted from the AI-assist collaborator
type provenance struct {
	ai         bool
	confidence float64
}

// createLocked pushes a create-Command for res and persists it in the
// background. The command is on the stack before the create resolves.
func (s *Session) createLocked(res measure.Result, conditionID string, p provenance) {
	in := measurement.CreateInput{
		PageID:        s.sheet.pageID,
		GeometryType:  res.Type,
		GeometryData:  res.Data.Clone(),
		Quantity:      res.Quantity,
		Unit:          res.Unit,
		IsAIGenerated: p.ai,
		AIConfidence:  p.confidence,
	}
	ref := history.NewRef()
	epoch := s.sheet.epoch
	cmd := &history.Command{
		Label: "create " + string(res.Type),
		Undo:  s.deleteVia(ref, epoch),
		Redo:  s.recreateVia(ref, conditionID, in, epoch, -1),
	}
	s.history.Push(cmd)

	s.spawn(func(ctx context.Context) {
		created, err := s.store.Create(ctx, conditionID, in)

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.history.Remove(cmd)
			ref.Fail(err)
			s.failLocked("Could not save the measurement", err, zap.String("command", cmd.Label))
			return
		}
		// Insert before resolving the ref so an early undo finds it in the cache
		if s.sheet.epoch == epoch {
			s.insertLocked(created, ref, -1)
			s.selection.Select(created.ID)
		}
		ref.Set(created.ID)
		s.logger.Debug("measurement created", zap.String("measurement_id", created.ID))
	})
}

// deleteVia returns a reversal that deletes the entity ref points at
func (s *Session) deleteVia(ref *history.Ref, epoch uint64) func(context.Context) error {
	return func(ctx context.Context) error {
		id, err := ref.Wait(ctx)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.sheet.epoch == epoch {
			s.dropLocked(id)
		}
		return nil
	}
}

// recreateVia returns a reversal that creates the entity again from in,
// puts it back at draw index at (appending when negative) and points ref at
// the new id
func (s *Session) recreateVia(ref *history.Ref, conditionID string, in measurement.CreateInput, epoch uint64, at int) func(context.Context) error {
	return func(ctx context.Context) error {
		created, err := s.store.Create(ctx, conditionID, in)
		if err != nil {
			return err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.sheet.epoch == epoch {
			s.insertLocked(created, ref, at)
			s.selection.Select(created.ID)
		}
		ref.Set(created.ID)
		return nil
	}
}

// DeleteSelection removes the selected measurement optimistically and pushes
// a delete-Command. It reports whether anything was deleted.
func (s *Session) DeleteSelection() bool {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()
	return s.deleteSelectionLocked()
}

func (s *Session) deleteSelectionLocked() bool {
	id, ok := s.selection.Primary()
	if !ok || s.tool.machine.Gesturing() {
		return false
	}
	at := s.indexLocked(id)
	if at < 0 {
		return false
	}
	m := s.measurements[at].Clone()
	ref := s.refLocked(id)
	epoch := s.sheet.epoch
	fwd := newForward()

	redoDelete := s.deleteVia(ref, epoch)
	undoDelete := s.recreateVia(ref, m.ConditionID, measurement.InputFrom(m), epoch, at)
	cmd := &history.Command{
		Label: "delete " + string(m.GeometryType),
		Undo: func(ctx context.Context) error {
			if err := fwd.wait(ctx); err != nil {
				return err
			}
			return undoDelete(ctx)
		},
		Redo: redoDelete,
	}

	s.dropLocked(id)
	s.selection.Clear()
	if s.filter.CurrentReviewID == id {
		s.filter.CurrentReviewID = ""
	}
	s.history.Push(cmd)

	s.spawn(func(ctx context.Context) {
		err := s.store.Delete(ctx, id)
		s.mu.Lock()
		defer s.mu.Unlock()
		fwd.finish(err)
		if err == nil {
			s.logger.Debug("measurement deleted", zap.String("measurement_id", id))
			return
		}
		s.history.Remove(cmd)
		if s.sheet.epoch == epoch {
			s.insertLocked(m, ref, at)
		}
		s.failLocked("Could not delete the measurement", err, zap.String("measurement_id", id))
	})
	return true
}

// updateLocked applies new geometry optimistically and pushes an
// update-Command whose reversals swap between before and after
func (s *Session) updateLocked(id string, before, after measure.Result) {
	ref := s.refLocked(id)
	epoch := s.sheet.epoch
	fwd := newForward()
	apply := func(target measure.Result) func(context.Context) error {
		return func(ctx context.Context) error {
			if err := fwd.wait(ctx); err != nil {
				return err
			}
			current, err := ref.Wait(ctx)
			if err != nil {
				return err
			}
			updated, err := s.store.Update(ctx, current, updateInput(target))
			if err != nil {
				return err
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.sheet.epoch == epoch {
				s.replaceLocked(updated)
			}
			return nil
		}
	}
	cmd := &history.Command{
		Label: "edit " + string(after.Type),
		Undo:  apply(before),
		Redo:  apply(after),
	}

	s.patchLocked(id, after)
	s.history.Push(cmd)

	s.spawn(func(ctx context.Context) {
		updated, err := s.store.Update(ctx, id, updateInput(after))
		s.mu.Lock()
		defer s.mu.Unlock()
		fwd.finish(err)
		if err != nil {
			s.history.Remove(cmd)
			if s.sheet.epoch == epoch {
				s.patchLocked(id, before)
			}
			s.failLocked("Could not save the edit", err, zap.String("measurement_id", id))
			return
		}
		if s.sheet.epoch == epoch {
			s.replaceLocked(updated)
		}
	})
}

func updateInput(r measure.Result) measurement.UpdateInput {
	return measurement.UpdateInput{GeometryData: r.Data.Clone(), Quantity: r.Quantity, Unit: r.Unit}
}

// Undo routes to the gesture when one is in progress, otherwise starts a
// stack undo in the background. A request while a reversal is still running
// returns history.ErrBusy and changes nothing.
func (s *Session) Undo() error {
	return s.reverse(true)
}

// Redo starts a stack redo in the background, with the same rules as Undo.
// It does nothing while a gesture is in progress.
func (s *Session) Redo() error {
	return s.reverse(false)
}

func (s *Session) reverse(undo bool) error {
	s.mu.Lock()
	if s.tool.machine.Gesturing() {
		if undo {
			s.undoPointLocked()
		}
		s.mu.Unlock()
		s.changed()
		return nil
	}
	s.mu.Unlock()

	op, start := "redo", s.history.StartRedo
	if undo {
		op, start = "undo", s.history.StartUndo
	}
	run, err := start()
	if err != nil {
		s.logger.Debug("reversal rejected", zap.String("op", op), zap.Error(err))
		return err
	}
	s.spawn(func(ctx context.Context) {
		if err := run(ctx); err != nil {
			s.mu.Lock()
			s.failLocked(fmt.Sprintf("Could not %s", op), err)
			s.mu.Unlock()
		}
	})
	return nil
}

// refLocked returns the shared ref of a cached measurement
func (s *Session) refLocked(id string) *history.Ref {
	ref, ok := s.refs[id]
	if !ok {
		ref = history.ResolvedRef(id)
		s.refs[id] = ref
	}
	return ref
}

func (s *Session) indexLocked(id string) int {
	for i, m := range s.measurements {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// insertLocked adds m to the cache at index at, or appends when at is out of range
func (s *Session) insertLocked(m measurement.Measurement, ref *history.Ref, at int) {
	if i := s.indexLocked(m.ID); i >= 0 {
		s.measurements[i] = m.Clone()
	} else if at < 0 || at > len(s.measurements) {
		s.measurements = append(s.measurements, m.Clone())
	} else {
		s.measurements = append(s.measurements[:at], append([]measurement.Measurement{m.Clone()}, s.measurements[at:]...)...)
	}
	if ref != nil {
		s.refs[m.ID] = ref
	}
}

// dropLocked removes a measurement from the cache, the selection and the hover
func (s *Session) dropLocked(id string) {
	if i := s.indexLocked(id); i >= 0 {
		s.measurements = append(s.measurements[:i], s.measurements[i+1:]...)
	}
	delete(s.refs, id)
	s.selection.Remove(id)
	if s.pointer.hovered == id {
		s.pointer.hovered = ""
	}
	if s.filter.CurrentReviewID == id {
		s.filter.CurrentReviewID = ""
	}
}

// replaceLocked stores a server copy of a measurement already in the cache
func (s *Session) replaceLocked(m measurement.Measurement) {
	if i := s.indexLocked(m.ID); i >= 0 {
		s.measurements[i] = m.Clone()
	}
}

// patchLocked writes geometry and quantity into the cached measurement
func (s *Session) patchLocked(id string, r measure.Result) {
	if i := s.indexLocked(id); i >= 0 {
		s.measurements[i].GeometryData = r.Data.Clone()
		s.measurements[i].Quantity = r.Quantity
		s.measurements[i].Unit = r.Unit
	}
}
