package app

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philipparndt/takeoff/internal/drawing"
	"github.com/philipparndt/takeoff/pkg/geometry"
	"github.com/philipparndt/takeoff/pkg/measure"
)

// Proposal is a geometry suggested by the AI-assist collaborator. It is
// shown as a non-interactive ghost until accepted or dismissed.
type Proposal struct {
	ID          string           `yaml:"id"`
	Tool        measure.Tool     `yaml:"tool"`
	Points      []geometry.Point `yaml:"points"`
	Confidence  float64          `yaml:"confidence"`
	ConditionID string           `yaml:"condition"` // falls back to the active condition
	Result      measure.Result   `yaml:"-"`
}

// Propose stores a proposal and returns its id. The geometry is built with
// the sheet's calibration; proposals that build nothing are refused.
func (s *Session) Propose(p Proposal) (string, error) {
	if p.Confidence < 0 || p.Confidence > 1 {
		return "", fmt.Errorf("proposal confidence must be in [0,1], got %v", p.Confidence)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Points = geometry.Clone(p.Points)

	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()
	if !p.Tool.RequiresCondition() {
		return "", fmt.Errorf("tool %q cannot produce a measurement", p.Tool)
	}
	res, ok := measure.Build(p.Tool, p.Points, s.sheet.scale)
	if !ok {
		return "", fmt.Errorf("proposal %s has too few points for %s", p.ID, p.Tool)
	}
	p.Result = res
	if i := s.proposalLocked(p.ID); i >= 0 {
		s.proposals[i] = p
	} else {
		s.proposals = append(s.proposals, p)
	}
	s.logger.Debug("proposal received", zap.String("proposal_id", p.ID), zap.Float64("confidence", p.Confidence))
	return p.ID, nil
}

// Proposals returns the pending ghosts in arrival order
func (s *Session) Proposals() []Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.proposals)
}

// AcceptProposal routes a proposal through the create-Command path as an
// AI-generated measurement. Without a condition it is refused with a notice.
func (s *Session) AcceptProposal(id string) error {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()
	i := s.proposalLocked(id)
	if i < 0 {
		return fmt.Errorf("unknown proposal %s", id)
	}
	p := s.proposals[i]
	condition := p.ConditionID
	if condition == "" {
		condition = s.tool.condition
	}
	if condition == "" {
		s.rejectLocked("Select a condition before accepting a suggestion", drawing.ErrConditionRequired)
		return drawing.ErrConditionRequired
	}
	s.proposals = slices.Delete(s.proposals, i, i+1)
	s.createLocked(p.Result, condition, provenance{ai: true, confidence: p.Confidence})
	return nil
}

// DismissProposal drops a proposal and reports whether it existed
func (s *Session) DismissProposal(id string) bool {
	s.mu.Lock()
	defer s.changed()
	defer s.mu.Unlock()
	i := s.proposalLocked(id)
	if i < 0 {
		return false
	}
	s.proposals = slices.Delete(s.proposals, i, i+1)
	return true
}

func (s *Session) proposalLocked(id string) int {
	return slices.IndexFunc(s.proposals, func(p Proposal) bool { return p.ID == id })
}
