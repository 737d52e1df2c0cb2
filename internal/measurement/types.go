// Package measurement defines the contracts of the collaborators the canvas
// engine talks to (measurement persistence, condition registry, review
// actions) and ships in-memory and SQLite adapters for them.
package measurement

import (
	"context"
	"errors"
	"image/color"

	"github.com/philipparndt/takeoff/pkg/measure"
)

// ErrNotFound is returned when an id does not name a stored measurement
var ErrNotFound = errors.New("measurement not found")

// Measurement is a persisted takeoff measurement
type Measurement struct {
	ID            string               `json:"id"`
	ConditionID   string               `json:"condition_id"`
	PageID        string               `json:"page_id"`
	GeometryType  measure.GeometryType `json:"geometry_type"`
	GeometryData  measure.GeometryData `json:"geometry_data"`
	Quantity      float64              `json:"quantity"`
	Unit          measure.Unit         `json:"unit"`
	IsAIGenerated bool                 `json:"is_ai_generated"`
	AIConfidence  float64              `json:"ai_confidence"`
	IsVerified    bool                 `json:"is_verified"`
	IsRejected    bool                 `json:"is_rejected"`
	IsModified    bool                 `json:"is_modified"`
}

// Clone returns a copy that shares no slices with m
func (m Measurement) Clone() Measurement {
	m.GeometryData = m.GeometryData.Clone()
	return m
}

// CreateInput carries the fields of a new measurement
type CreateInput struct {
	PageID        string
	GeometryType  measure.GeometryType
	GeometryData  measure.GeometryData
	Quantity      float64
	Unit          measure.Unit
	IsAIGenerated bool
	AIConfidence  float64
}

// InputFrom captures what is needed to recreate m
func InputFrom(m Measurement) CreateInput {
	return CreateInput{
		PageID:        m.PageID,
		GeometryType:  m.GeometryType,
		GeometryData:  m.GeometryData.Clone(),
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		IsAIGenerated: m.IsAIGenerated,
		AIConfidence:  m.AIConfidence,
	}
}

// UpdateInput carries an edited geometry and its recomputed quantity
type UpdateInput struct {
	GeometryData measure.GeometryData
	Quantity     float64
	Unit         measure.Unit
}

// Store is the persistence collaborator. Calls may fail; callers do not retry.
type Store interface {
	Create(ctx context.Context, conditionID string, in CreateInput) (Measurement, error)
	Update(ctx context.Context, id string, in UpdateInput) (Measurement, error)
	Delete(ctx context.Context, id string) error
}

// Lister loads the measurements of a page
type Lister interface {
	List(ctx context.Context, pageID string) ([]Measurement, error)
}

// ReviewActions is the review collaborator for AI-generated measurements
type ReviewActions interface {
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id, reason string) error
	// AutoAccept approves every pending AI measurement at or above threshold
	// and returns the ids it approved.
	AutoAccept(ctx context.Context, pageID string, threshold float64) ([]string, error)
}

// Condition is a takeoff line item that groups measurements
type Condition struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Color     color.RGBA `json:"-" yaml:"-"`
	Hex       string     `json:"color" yaml:"color"`
	IsVisible bool       `json:"is_visible" yaml:"visible"`
}

// ConditionRegistry is the read-only condition lookup
type ConditionRegistry interface {
	Condition(id string) (Condition, bool)
}

// Conditions is a map-backed registry
type Conditions map[string]Condition

// Condition implements ConditionRegistry
func (c Conditions) Condition(id string) (Condition, bool) {
	cond, ok := c[id]
	return cond, ok
}
