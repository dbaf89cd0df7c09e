package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

type actionRepository struct {
	mu      sync.RWMutex
	actions map[types.CorrelationToken]*model.MitigationAction
}

func newActionRepository() *actionRepository {
	return &actionRepository{
		actions: make(map[types.CorrelationToken]*model.MitigationAction),
	}
}

func copyAction(a *model.MitigationAction) *model.MitigationAction {
	copied := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		copied.ResolvedAt = &t
	}
	return &copied
}

func (r *actionRepository) Put(ctx context.Context, action *model.MitigationAction) error {
	if err := action.Validate(); err != nil {
		return goerr.Wrap(err, "invalid mitigation action")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.Token]; exists {
		return goerr.Wrap(interfaces.ErrActionExists, "duplicate correlation token",
			goerr.V("token", action.Token))
	}

	r.actions[action.Token] = copyAction(action)
	return nil
}

func (r *actionRepository) Get(ctx context.Context, token types.CorrelationToken) (*model.MitigationAction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, exists := r.actions[token]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrActionNotFound, "no action for token",
			goerr.V("token", token))
	}

	return copyAction(action), nil
}

func (r *actionRepository) FindPendingByPrincipal(ctx context.Context, id types.PrincipalID) (*model.MitigationAction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, action := range r.actions {
		if action.PrincipalID == id && action.State == types.ActionStatePendingReview {
			return copyAction(action), nil
		}
	}

	return nil, nil
}

func (r *actionRepository) Resolve(ctx context.Context, token types.CorrelationToken, outcome types.ResolutionOutcome, at time.Time) (*model.MitigationAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, exists := r.actions[token]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrActionNotFound, "no action for token",
			goerr.V("token", token))
	}

	if action.State != types.ActionStatePendingReview {
		return nil, goerr.Wrap(interfaces.ErrActionNotPending, "cannot resolve",
			goerr.V("token", token), goerr.V("state", action.State))
	}

	resolved := copyAction(action)
	resolved.State = types.ActionStateResolved
	resolved.Outcome = outcome
	resolvedAt := at.UTC()
	resolved.ResolvedAt = &resolvedAt

	r.actions[token] = resolved
	return copyAction(resolved), nil
}

func (r *actionRepository) List(ctx context.Context) ([]*model.MitigationAction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]*model.MitigationAction, 0, len(r.actions))
	for _, action := range r.actions {
		actions = append(actions, copyAction(action))
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].CreatedAt.After(actions[j].CreatedAt)
	})

	return actions, nil
}
