package viewer

// Sheets remembers the viewport of every sheet opened during a session
type Sheets struct {
	viewport *Viewport
	active   string
	saved    map[string]State
}

// NewSheets wraps a viewport with per-sheet persistence
func NewSheets(v *Viewport) *Sheets {
	return &Sheets{
		viewport: v,
		saved:    make(map[string]State),
	}
}

// Viewport returns the shared viewport
func (s *Sheets) Viewport() *Viewport {
	return s.viewport
}

// Active returns the active sheet id
func (s *Sheets) Active() string {
	return s.active
}

// Activate saves the current sheet's viewport and switches to id. The
// sheet's last viewport is restored, or the image is fit to the container
// the first time the sheet is opened. It reports whether a saved viewport
// was restored.
func (s *Sheets) Activate(id string, image Size) bool {
	if s.active != "" {
		s.saved[s.active] = s.viewport.State
	}
	s.active = id

	if state, ok := s.saved[id]; ok {
		s.viewport.Restore(state)
		return true
	}
	s.viewport.FitToScreen(image, s.viewport.Container())
	return false
}

// Forget drops the saved viewport for a sheet so the next activation refits it
func (s *Sheets) Forget(id string) {
	delete(s.saved, id)
}
