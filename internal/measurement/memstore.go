package measurement

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store, Lister and ReviewActions implementation
type MemStore struct {
	mu    sync.Mutex
	byID  map[string]Measurement
	order []string
	newID func() string
}

// NewMemStore creates an empty store issuing random UUIDs
func NewMemStore() *MemStore {
	return &MemStore{
		byID:  make(map[string]Measurement),
		newID: func() string { return uuid.NewString() },
	}
}

// Create implements Store
func (s *MemStore) Create(ctx context.Context, conditionID string, in CreateInput) (Measurement, error) {
	if err := ctx.Err(); err != nil {
		return Measurement{}, err
	}
	if conditionID == "" {
		return Measurement{}, fmt.Errorf("failed to create measurement: condition id is required")
	}
	if err := in.GeometryData.Validate(in.GeometryType); err != nil {
		return Measurement{}, fmt.Errorf("failed to create measurement: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m := Measurement{
		ID:            s.newID(),
		ConditionID:   conditionID,
		PageID:        in.PageID,
		GeometryType:  in.GeometryType,
		GeometryData:  in.GeometryData.Clone(),
		Quantity:      in.Quantity,
		Unit:          in.Unit,
		IsAIGenerated: in.IsAIGenerated,
		AIConfidence:  in.AIConfidence,
	}
	s.byID[m.ID] = m
	s.order = append(s.order, m.ID)
	return m.Clone(), nil
}

// Update implements Store
func (s *MemStore) Update(ctx context.Context, id string, in UpdateInput) (Measurement, error) {
	if err := ctx.Err(); err != nil {
		return Measurement{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return Measurement{}, fmt.Errorf("failed to update %s: %w", id, ErrNotFound)
	}
	if err := in.GeometryData.Validate(m.GeometryType); err != nil {
		return Measurement{}, fmt.Errorf("failed to update %s: %w", id, err)
	}
	m.GeometryData = in.GeometryData.Clone()
	m.Quantity = in.Quantity
	m.Unit = in.Unit
	m.IsModified = true
	s.byID[id] = m
	return m.Clone(), nil
}

// Delete implements Store
func (s *MemStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("failed to delete %s: %w", id, ErrNotFound)
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a stored measurement
func (s *MemStore) Get(id string) (Measurement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	return m.Clone(), ok
}

// Len returns the number of stored measurements
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// List implements Lister, returning measurements in creation order
func (s *MemStore) List(ctx context.Context, pageID string) ([]Measurement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Measurement
	for _, id := range s.order {
		if m := s.byID[id]; pageID == "" || m.PageID == pageID {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

// Approve implements ReviewActions
func (s *MemStore) Approve(ctx context.Context, id string) error {
	return s.review(ctx, id, func(m *Measurement) {
		m.IsVerified = true
		m.IsRejected = false
	})
}

// Reject implements ReviewActions. The reason is not retained.
func (s *MemStore) Reject(ctx context.Context, id, reason string) error {
	return s.review(ctx, id, func(m *Measurement) {
		m.IsRejected = true
		m.IsVerified = false
	})
}

// AutoAccept implements ReviewActions
func (s *MemStore) AutoAccept(ctx context.Context, pageID string, threshold float64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var accepted []string
	for _, id := range s.order {
		m := s.byID[id]
		if pageID != "" && m.PageID != pageID {
			continue
		}
		if m.IsAIGenerated && !m.IsVerified && !m.IsRejected && m.AIConfidence >= threshold {
			m.IsVerified = true
			s.byID[id] = m
			accepted = append(accepted, id)
		}
	}
	return accepted, nil
}

func (s *MemStore) review(ctx context.Context, id string, apply func(*Measurement)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("failed to review %s: %w", id, ErrNotFound)
	}
	apply(&m)
	s.byID[id] = m
	return nil
}
