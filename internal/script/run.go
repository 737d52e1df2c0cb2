package script

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/philipparndt/takeoff/internal/app"
	"github.com/philipparndt/takeoff/internal/drawing"
	"github.com/philipparndt/takeoff/internal/keys"
	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/internal/plan"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
)

// Options controls a replay
type Options struct {
	// Async skips the implicit settle after every event, so persistence calls
	// overlap later input the way they do in an interactive session
	Async bool
}

// Result summarizes the session after a replay
type Result struct {
	PageID       string
	Measurements []measurement.Measurement // visible, in draw order
	Ruler        *measure.Result
	Past, Future int
	Notices      []app.Notice
	Proposals    []app.Proposal
}

// ResolveSheet returns the sheet of the script, reading the image header
// when the sheet names an image file
func (sc *Script) ResolveSheet() (app.Sheet, error) {
	sheet := app.Sheet{ID: sc.Sheet.ID, PixelsPerUnit: sc.Sheet.PixelsPerUnit}
	if sc.Sheet.Size != nil {
		sheet.Image = *sc.Sheet.Size
	}
	if sc.Sheet.Image != "" {
		path := sc.Sheet.Image
		if !filepath.IsAbs(path) && sc.dir != "" {
			path = filepath.Join(sc.dir, path)
		}
		page, err := plan.Open(path)
		if err != nil {
			return app.Sheet{}, err
		}
		sheet.Image = page.Size
	}
	return sheet, nil
}

// Run activates the script's sheet on s and feeds it every event. The session
// must have been created with the script's Registry. Run waits for all
// background work before returning the summary.
func Run(s *app.Session, sc *Script, opts Options) (Result, error) {
	sheet, err := sc.ResolveSheet()
	if err != nil {
		return Result{}, err
	}

	s.Focus().Claim(app.RegionCanvas)
	s.SwitchSheet(sheet)
	if sc.Sheet.Container != nil {
		s.Resize(*sc.Sheet.Container)
	}
	s.Wait()

	for i, e := range sc.Events {
		if err := apply(s, e); err != nil {
			s.Wait()
			return summarize(s), fmt.Errorf("event %d (%s): %w", i+1, e.Kind(), err)
		}
		if !opts.Async {
			s.Wait()
		}
	}
	s.Wait()
	return summarize(s), nil
}

func summarize(s *app.Session) Result {
	past, future := s.History().Depth()
	return Result{
		PageID:       s.Sheet().ID,
		Measurements: s.VisibleMeasurements(),
		Ruler:        s.Ruler(),
		Past:         past,
		Future:       future,
		Notices:      s.Notices(),
		Proposals:    s.Proposals(),
	}
}

func apply(s *app.Session, e Event) error {
	switch e.Kind() {
	case "tool":
		// A refused tool switch raises a notice; the script carries on
		if err := s.SetTool(measure.Tool(e.Tool)); err != nil && !isRejection(err) {
			return err
		}
	case "condition":
		return s.SetActiveCondition(*e.Condition)
	case "click":
		ev, err := pointerEvent(e.Click)
		if err != nil {
			return err
		}
		s.PointerDown(ev)
		s.PointerUp(ev)
	case "down":
		ev, err := pointerEvent(e.Down)
		if err != nil {
			return err
		}
		s.PointerDown(ev)
	case "move":
		ev, err := pointerEvent(e.Move)
		if err != nil {
			return err
		}
		s.PointerMove(ev)
	case "up":
		ev, err := pointerEvent(e.Up)
		if err != nil {
			return err
		}
		s.PointerUp(ev)
	case "dblclick":
		ev, err := pointerEvent(e.DoubleClick)
		if err != nil {
			return err
		}
		s.DoubleClick(ev)
	case "drag":
		return drag(s, e.Drag)
	case "wheel":
		s.Wheel(e.Wheel.At.Point(), e.Wheel.Notches)
	case "key":
		chord, err := keys.ParseChord(e.Key)
		if err != nil {
			return err
		}
		s.HandleKey(app.KeyEvent{
			Key:   chord.Key,
			Ctrl:  chord.Mods&keys.Ctrl != 0,
			Shift: chord.Mods&keys.Shift != 0,
			Alt:   chord.Mods&keys.Alt != 0,
		})
	case "resize":
		s.Resize(*e.Resize)
	case "review":
		review(s, e.Review)
	case "threshold":
		return s.SetConfidenceThreshold(*e.Threshold)
	case "propose":
		points := make([]geometry.Point, len(e.Propose.Points))
		for i, p := range e.Propose.Points {
			points[i] = p.Point()
		}
		_, err := s.Propose(app.Proposal{
			ID:          e.Propose.ID,
			Tool:        measure.Tool(e.Propose.Tool),
			Points:      points,
			Confidence:  e.Propose.Confidence,
			ConditionID: e.Propose.Condition,
		})
		return err
	case "accept":
		if err := s.AcceptProposal(e.Accept); err != nil && !isRejection(err) {
			return err
		}
	case "dismiss":
		if !s.DismissProposal(e.Dismiss) {
			return fmt.Errorf("unknown proposal %s", e.Dismiss)
		}
	case "settle":
		s.Wait()
	default:
		return errors.New("exactly one action per event")
	}
	return nil
}

func review(s *app.Session, action string) {
	switch action {
	case ReviewOn:
		s.SetReviewMode(true)
	case ReviewOff:
		s.SetReviewMode(false)
	case ReviewNext:
		s.NextReview()
	case ReviewPrev:
		s.PrevReview()
	case ReviewApprove:
		s.ApproveCurrent()
	case ReviewReject:
		s.RejectCurrent("rejected by script")
	case ReviewAutoAccept:
		s.AutoAccept()
	}
}

func drag(s *app.Session, d *Drag) error {
	b, err := button(d.Button)
	if err != nil {
		return err
	}
	s.PointerDown(app.PointerEvent{At: d.From.Point(), Button: b})
	for _, p := range d.Via {
		s.PointerMove(app.PointerEvent{At: p.Point(), Button: b})
	}
	s.PointerMove(app.PointerEvent{At: d.To.Point(), Button: b})
	s.PointerUp(app.PointerEvent{At: d.To.Point(), Button: b})
	return nil
}

func pointerEvent(p *Pointer) (app.PointerEvent, error) {
	b, err := button(p.Button)
	if err != nil {
		return app.PointerEvent{}, err
	}
	return app.PointerEvent{At: p.At.Point(), Button: b}, nil
}

func button(name string) (app.Button, error) {
	switch name {
	case "", "primary", "left":
		return app.ButtonPrimary, nil
	case "secondary", "right":
		return app.ButtonSecondary, nil
	case "middle":
		return app.ButtonMiddle, nil
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

// isRejection reports errors the session already surfaced as a notice
func isRejection(err error) bool {
	return errors.Is(err, drawing.ErrConditionRequired)
}
