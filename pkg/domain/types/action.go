package types

import "fmt"

// ActionKind represents the kind of automated mitigation action
type ActionKind string

const (
	ActionKindMonitor                ActionKind = "monitor"
	ActionKindConditionalAccessBlock ActionKind = "conditional_access_block"
	ActionKindDisable                ActionKind = "disable"
)

// AllActionKinds returns all valid action kinds
func AllActionKinds() []ActionKind {
	return []ActionKind{
		ActionKindMonitor,
		ActionKindConditionalAccessBlock,
		ActionKindDisable,
	}
}

// IsValid checks if the action kind is valid
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionKindMonitor, ActionKindConditionalAccessBlock, ActionKindDisable:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action kind
func (k ActionKind) String() string {
	return string(k)
}

// ParseActionKind parses a string into an ActionKind
func ParseActionKind(s string) (ActionKind, error) {
	kind := ActionKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid action kind: %s", s)
	}
	return kind, nil
}

// ActionState represents the lifecycle state of a mitigation action
type ActionState string

const (
	ActionStateApplied       ActionState = "applied"
	ActionStatePendingReview ActionState = "pending_review"
	ActionStateResolved      ActionState = "resolved"
)

// AllActionStates returns all valid action states
func AllActionStates() []ActionState {
	return []ActionState{
		ActionStateApplied,
		ActionStatePendingReview,
		ActionStateResolved,
	}
}

// IsValid checks if the action state is valid
func (s ActionState) IsValid() bool {
	switch s {
	case ActionStateApplied, ActionStatePendingReview, ActionStateResolved:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action state
func (s ActionState) String() string {
	return string(s)
}

// ResolutionOutcome describes how a pending mitigation action was closed out
type ResolutionOutcome string

const (
	OutcomeRestored         ResolutionOutcome = "restored"
	OutcomeConfirmedBlocked ResolutionOutcome = "confirmed_blocked"
)

// String returns the string representation of the resolution outcome
func (o ResolutionOutcome) String() string {
	return string(o)
}
