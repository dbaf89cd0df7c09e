package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type actionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newActionRepository(client *firestore.Client) *actionRepository {
	return &actionRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *actionRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_mitigation_actions"
	}
	return "mitigation_actions"
}

// actionDoc is the Firestore document shape for a mitigation action
type actionDoc struct {
	Token       string     `firestore:"token"`
	PrincipalID string     `firestore:"principal_id"`
	Kind        string     `firestore:"kind"`
	State       string     `firestore:"state"`
	Reason      string     `firestore:"reason"`
	Score       int        `firestore:"score"`
	FailureNote string     `firestore:"failure_note,omitempty"`
	CreatedAt   time.Time  `firestore:"created_at"`
	ResolvedAt  *time.Time `firestore:"resolved_at,omitempty"`
	Outcome     string     `firestore:"outcome,omitempty"`
}

func toDoc(a *model.MitigationAction) *actionDoc {
	return &actionDoc{
		Token:       a.Token.String(),
		PrincipalID: a.PrincipalID.String(),
		Kind:        a.Kind.String(),
		State:       a.State.String(),
		Reason:      a.Reason,
		Score:       a.Score,
		FailureNote: a.FailureNote,
		CreatedAt:   a.CreatedAt,
		ResolvedAt:  a.ResolvedAt,
		Outcome:     a.Outcome.String(),
	}
}

func fromDoc(d *actionDoc) *model.MitigationAction {
	return &model.MitigationAction{
		Token:       types.CorrelationToken(d.Token),
		PrincipalID: types.PrincipalID(d.PrincipalID),
		Kind:        types.ActionKind(d.Kind),
		State:       types.ActionState(d.State),
		Reason:      d.Reason,
		Score:       d.Score,
		FailureNote: d.FailureNote,
		CreatedAt:   d.CreatedAt,
		ResolvedAt:  d.ResolvedAt,
		Outcome:     types.ResolutionOutcome(d.Outcome),
	}
}

func (r *actionRepository) Put(ctx context.Context, action *model.MitigationAction) error {
	if err := action.Validate(); err != nil {
		return goerr.Wrap(err, "invalid mitigation action")
	}

	docRef := r.client.Collection(r.collection()).Doc(action.Token.String())
	_, err := docRef.Create(ctx, toDoc(action))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(interfaces.ErrActionExists, "duplicate correlation token",
				goerr.V("token", action.Token))
		}
		return goerr.Wrap(err, "failed to create action document",
			goerr.V("token", action.Token))
	}

	return nil
}

func (r *actionRepository) Get(ctx context.Context, token types.CorrelationToken) (*model.MitigationAction, error) {
	snap, err := r.client.Collection(r.collection()).Doc(token.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrActionNotFound, "no action for token",
				goerr.V("token", token))
		}
		return nil, goerr.Wrap(err, "failed to get action document",
			goerr.V("token", token))
	}

	var doc actionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action document",
			goerr.V("token", token))
	}

	return fromDoc(&doc), nil
}

func (r *actionRepository) FindPendingByPrincipal(ctx context.Context, id types.PrincipalID) (*model.MitigationAction, error) {
	iter := r.client.Collection(r.collection()).
		Where("principal_id", "==", id.String()).
		Where("state", "==", types.ActionStatePendingReview.String()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query pending action",
			goerr.V("principal_id", id))
	}

	var doc actionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action document")
	}

	return fromDoc(&doc), nil
}

// Resolve performs the pending_review -> resolved transition in a
// transaction so two concurrent callback deliveries cannot both succeed.
func (r *actionRepository) Resolve(ctx context.Context, token types.CorrelationToken, outcome types.ResolutionOutcome, at time.Time) (*model.MitigationAction, error) {
	docRef := r.client.Collection(r.collection()).Doc(token.String())

	var resolved *model.MitigationAction
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrActionNotFound, "no action for token",
					goerr.V("token", token))
			}
			return goerr.Wrap(err, "failed to get action in transaction")
		}

		var doc actionDoc
		if err := snap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to decode action document")
		}

		if doc.State != types.ActionStatePendingReview.String() {
			return goerr.Wrap(interfaces.ErrActionNotPending, "cannot resolve",
				goerr.V("token", token), goerr.V("state", doc.State))
		}

		resolvedAt := at.UTC()
		doc.State = types.ActionStateResolved.String()
		doc.Outcome = outcome.String()
		doc.ResolvedAt = &resolvedAt

		if err := tx.Set(docRef, &doc); err != nil {
			return goerr.Wrap(err, "failed to update action document")
		}

		resolved = fromDoc(&doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

func (r *actionRepository) List(ctx context.Context) ([]*model.MitigationAction, error) {
	iter := r.client.Collection(r.collection()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var actions []*model.MitigationAction
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate action documents")
		}

		var doc actionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode action document")
		}
		actions = append(actions, fromDoc(&doc))
	}

	return actions, nil
}
