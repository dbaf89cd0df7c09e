package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// ActionRepository persists mitigation actions keyed by correlation token
type ActionRepository interface {
	// Put stores a new mitigation action. Fails if the token already exists.
	Put(ctx context.Context, action *model.MitigationAction) error

	// Get retrieves an action by correlation token
	Get(ctx context.Context, token types.CorrelationToken) (*model.MitigationAction, error)

	// FindPendingByPrincipal returns the pending_review action for a
	// principal, or nil when the principal has no pending action
	FindPendingByPrincipal(ctx context.Context, id types.PrincipalID) (*model.MitigationAction, error)

	// Resolve transitions an action from pending_review to resolved as a
	// compare-and-set: it fails with ErrActionNotPending when the action is
	// not in pending_review state, so duplicate callback deliveries apply
	// the directory side effect at most once.
	Resolve(ctx context.Context, token types.CorrelationToken, outcome types.ResolutionOutcome, at time.Time) (*model.MitigationAction, error)

	// List retrieves all actions, newest first
	List(ctx context.Context) ([]*model.MitigationAction, error)
}
