package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// MitigationAction records an automated protective action taken (or
// attempted) against a principal. Actions above the mitigation threshold are
// created in pending_review state and transition to resolved only through
// the approval callback handler. Monitor actions are terminal at creation.
type MitigationAction struct {
	Token       types.CorrelationToken
	PrincipalID types.PrincipalID
	Kind        types.ActionKind
	State       types.ActionState
	Reason      string
	Score       int

	// FailureNote records a directory call failure when both the primary
	// block and the disable fallback failed. The action still goes to
	// pending_review so a human sees the attempt.
	FailureNote string

	CreatedAt  time.Time
	ResolvedAt *time.Time
	Outcome    types.ResolutionOutcome
}

// Validate checks structural consistency of the action
func (a *MitigationAction) Validate() error {
	if err := a.PrincipalID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid principal ID")
	}
	if !a.Kind.IsValid() {
		return goerr.New("invalid action kind", goerr.V("kind", a.Kind))
	}
	if !a.State.IsValid() {
		return goerr.New("invalid action state", goerr.V("state", a.State))
	}
	if a.State != types.ActionStateApplied {
		if err := a.Token.Validate(); err != nil {
			return goerr.Wrap(err, "pending/resolved action requires a correlation token")
		}
	}
	return nil
}

// IsPending reports whether the action is awaiting human review
func (a *MitigationAction) IsPending() bool {
	return a.State == types.ActionStatePendingReview
}
