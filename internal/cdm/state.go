package cdm

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a working state is moved out of order.
var ErrInvalidTransition = errors.New("invalid working state transition")

// StateStatus tracks where a working state is in the per-risk pipeline.
type StateStatus string

const (
	StateInit      StateStatus = "INIT"
	StateExecuting StateStatus = "EXECUTING"
	StateDeciding  StateStatus = "DECIDING"
	StateCompleted StateStatus = "COMPLETED"
)

var nextState = map[StateStatus]StateStatus{
	StateInit:      StateExecuting,
	StateExecuting: StateDeciding,
	StateDeciding:  StateCompleted,
}

// WorkingState is owned by exactly one pipeline run for one risk and is
// discarded once the result has been extracted.
type WorkingState struct {
	DeclarationID string
	Risk          *RiskProfile
	Declaration   *DeclarationSnapshot

	Tariff    *TariffReference
	Valuation *ValuationReference

	Feedback *Feedback
	Decision *FinalDecision

	status StateStatus
}

// NewWorkingState builds a fresh state in INIT.
func NewWorkingState(declarationID string, risk *RiskProfile, declaration *DeclarationSnapshot) *WorkingState {
	return &WorkingState{
		DeclarationID: declarationID,
		Risk:          risk,
		Declaration:   declaration,
		status:        StateInit,
	}
}

// Status reports the current pipeline position.
func (s *WorkingState) Status() StateStatus {
	if s.status == "" {
		return StateInit
	}
	return s.status
}

func (s *WorkingState) advance(to StateStatus) error {
	from := s.Status()
	if nextState[from] != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.status = to
	return nil
}

func (s *WorkingState) riskID() string {
	if s == nil || s.Risk == nil {
		return ""
	}
	return s.Risk.RiskID
}
