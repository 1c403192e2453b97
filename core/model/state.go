// Package model provides the fit/transform state contract shared by all
// preprocessing stages.
//
// Every stage is either unfitted (Transform is forbidden and fails with a
// NotFittedError) or fitted (Transform is a deterministic, read-only replay
// of learned state). StateManager tracks that flag; the Stage interface is
// the contract every pipeline stage implements.
package model

import (
	"github.com/tabprep/tabprep/core/table"
)

// State represents the learning state of a stage.
type State int

const (
	// NotFitted indicates the stage has not learned parameters yet.
	NotFitted State = iota
	// Fitted indicates the stage has learned parameters and may transform.
	Fitted
)

// StateManager tracks the fitted state of a stage. Stages hold it by
// composition. It is exported for gob encoding of persisted stages.
type StateManager struct {
	State State
}

// NewStateManager creates a StateManager in the NotFitted state.
func NewStateManager() *StateManager {
	return &StateManager{State: NotFitted}
}

// IsFitted reports whether the stage has been fitted.
func (s *StateManager) IsFitted() bool {
	return s.State == Fitted
}

// SetFitted marks the stage as fitted. Called by stage implementations at
// the end of a successful Fit; re-fitting replaces all learned state
// wholesale before this is called again.
func (s *StateManager) SetFitted() {
	s.State = Fitted
}

// Reset returns the stage to the unfitted state.
func (s *StateManager) Reset() {
	s.State = NotFitted
}

// Stage is the contract every preprocessing stage honors.
//
// Fit learns parameters from a training table and must be safe to call
// again (a second Fit replaces all prior state, never merges). Transform
// replays learned parameters onto any table without modifying them and
// must fail fast with a NotFittedError while unfitted. FitTransform must be
// equivalent to Fit followed by Transform on the same input.
type Stage interface {
	Fit(t *table.Table) error
	Transform(t *table.Table) (*table.Table, error)
	FitTransform(t *table.Table) (*table.Table, error)
}
