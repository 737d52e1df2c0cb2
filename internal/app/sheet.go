package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/internal/history"
	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/internal/selection"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
	"github.com/philipparndt/takeoff/pkg/viewer"
)

// Sheet describes a plan page
type Sheet struct {
	ID            string
	Image         viewer.Size
	PixelsPerUnit float64 // zero when uncalibrated
}

// SwitchSheet activates a sheet. The command stack, selection, gesture,
// proposals and review filter are reset; the sheet's last viewport is
// restored, or the image is fit on first open. Measurements load in the
// background when a lister is configured.
func (s *Session) SwitchSheet(sheet Sheet) {
	s.history.Clear()

	s.mu.Lock()
	s.sheet.epoch++
	s.sheet.pageID = sheet.ID
	s.sheet.image = sheet.Image
	s.sheet.scale = measure.Scale{PixelsPerUnit: sheet.PixelsPerUnit}
	s.tool.machine.SetScale(s.sheet.scale)
	s.cancelGestureLocked()
	s.pointer = PointerState{}
	s.selection.Clear()
	s.filter = selection.NewReviewFilter(s.cfg.Review.ConfidenceThreshold)
	s.measurements = nil
	s.refs = make(map[string]*history.Ref)
	s.proposals = nil
	s.ruler = nil

	restored := s.sheet.sheets.Activate(sheet.ID, sheet.Image)
	s.sheet.fitted = restored || s.sheet.sheets.Viewport().Container().Valid()
	epoch := s.sheet.epoch
	s.mu.Unlock()

	s.logger.Info("sheet activated", zap.String("page_id", sheet.ID), zap.Bool("restored", restored))
	if s.lister != nil {
		s.spawn(func(ctx context.Context) {
			ms, err := s.lister.List(ctx, sheet.ID)
			s.mu.Lock()
			defer s.mu.Unlock()
			if err != nil {
				s.failLocked("Could not load measurements", err, zap.String("page_id", sheet.ID))
				return
			}
			if s.sheet.epoch == epoch {
				s.loadLocked(ms)
			}
		})
	}
	s.changed()
}

// Load replaces the page cache, for hosts that fetch measurements themselves
func (s *Session) Load(ms []measurement.Measurement) {
	s.mu.Lock()
	s.loadLocked(ms)
	s.mu.Unlock()
	s.changed()
}

func (s *Session) loadLocked(ms []measurement.Measurement) {
	s.measurements = s.measurements[:0]
	s.refs = make(map[string]*history.Ref)
	for _, m := range ms {
		s.insertLocked(m, nil, -1)
	}
	s.dropHiddenLocked()
}

// Sheet returns the active sheet
func (s *Session) Sheet() Sheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sheet{ID: s.sheet.pageID, Image: s.sheet.image, PixelsPerUnit: s.sheet.scale.PixelsPerUnit}
}

// Resize updates the container size. The first valid size after a sheet
// opened without one triggers its deferred fit.
func (s *Session) Resize(container viewer.Size) {
	s.mu.Lock()
	v := s.sheet.sheets.Viewport()
	v.SetContainer(container)
	if !s.sheet.fitted && s.sheet.pageID != "" && v.FitToScreen(s.sheet.image, container) {
		s.sheet.fitted = true
	}
	s.mu.Unlock()
	s.changed()
}

// FitToScreen fits the active sheet's image into the container
func (s *Session) FitToScreen() bool {
	s.mu.Lock()
	v := s.sheet.sheets.Viewport()
	ok := v.FitToScreen(s.sheet.image, v.Container())
	if ok {
		s.sheet.fitted = true
	}
	s.mu.Unlock()
	s.changed()
	return ok
}

// SetZoom zooms about the container center
func (s *Session) SetZoom(zoom float64) {
	s.mu.Lock()
	s.sheet.sheets.Viewport().SetZoom(zoom)
	s.mu.Unlock()
	s.changed()
}

// SetPixelsPerUnit updates the calibration of the active sheet. Existing
// measurements keep their stored quantities.
func (s *Session) SetPixelsPerUnit(ppu float64) {
	s.mu.Lock()
	s.sheet.scale = measure.Scale{PixelsPerUnit: ppu}
	s.tool.machine.SetScale(s.sheet.scale)
	s.mu.Unlock()
	s.changed()
}

// Calibrated reports whether the active sheet has a scale
func (s *Session) Calibrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.scale.Calibrated()
}

// Viewport returns the viewport state
func (s *Session) Viewport() viewer.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.sheets.Viewport().State
}

// ScreenToImage converts a screen point with the current viewport
func (s *Session) ScreenToImage(p geometry.Point) geometry.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.sheets.Viewport().ScreenToImage(p)
}

// ImageToScreen converts an image point with the current viewport
func (s *Session) ImageToScreen(p geometry.Point) geometry.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.sheets.Viewport().ImageToScreen(p)
}
