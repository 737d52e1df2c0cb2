package app

import "sync"

// Region names a panel that can own keyboard shortcuts
type Region string

const (
	RegionNone    Region = ""
	RegionCanvas  Region = "canvas"
	RegionSidebar Region = "sidebar"
	RegionToolbar Region = "toolbar"
)

// Focus is the single-owner focus value of a window. Panels claim it when
// they gain focus; only the owner receives shortcuts.
type Focus struct {
	mu    sync.Mutex
	owner Region
}

// NewFocus creates a focus value owned by nobody
func NewFocus() *Focus {
	return &Focus{}
}

// Claim makes r the owner
func (f *Focus) Claim(r Region) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = r
}

// Release gives up ownership if r still owns focus
func (f *Focus) Release(r Region) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.owner == r {
		f.owner = RegionNone
	}
}

// Owner returns the current owner
func (f *Focus) Owner() Region {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner
}

// Owns reports whether r is the owner
func (f *Focus) Owns(r Region) bool {
	return f.Owner() == r
}

// Focus returns the focus value the session dispatches against
func (s *Session) Focus() *Focus {
	return s.focus
}
