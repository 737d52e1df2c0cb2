// Package selection tracks which measurements are selected and which are
// eligible for rendering and interaction under the review filter.
package selection

import "slices"

// Selection is the list of selected measurement ids. The canvas keeps at
// most one id today; the list form leaves room for multi-select.
type Selection struct {
	ids []string
}

// Select replaces the selection with id
func (s *Selection) Select(id string) {
	if id == "" {
		s.Clear()
		return
	}
	s.ids = []string{id}
}

// Clear empties the selection
func (s *Selection) Clear() {
	s.ids = nil
}

// IDs returns a copy of the selected ids
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}

// Primary returns the first selected id
func (s *Selection) Primary() (string, bool) {
	if len(s.ids) == 0 {
		return "", false
	}
	return s.ids[0], true
}

// Len returns the number of selected ids
func (s *Selection) Len() int {
	return len(s.ids)
}

// Contains reports whether id is selected
func (s *Selection) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// Remove deselects id and reports whether it was selected
func (s *Selection) Remove(id string) bool {
	i := slices.Index(s.ids, id)
	if i < 0 {
		return false
	}
	s.ids = slices.Delete(s.ids, i, i+1)
	return true
}

// Replace swaps oldID for newID, used when a measurement is recreated under a new id
func (s *Selection) Replace(oldID, newID string) {
	if i := slices.Index(s.ids, oldID); i >= 0 {
		s.ids[i] = newID
	}
}

// Retain drops every id for which keep returns false
func (s *Selection) Retain(keep func(id string) bool) {
	s.ids = slices.DeleteFunc(s.ids, func(id string) bool { return !keep(id) })
}
