package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/utils/async"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// ApprovalUseCase acts on inbound approval-channel decisions. The resolve
// step is a compare-and-set on the persisted action, so a decision delivered
// twice applies its directory side effect at most once.
type ApprovalUseCase struct {
	repo      interfaces.Repository
	directory interfaces.Directory
	notifier  interfaces.ApprovalNotifier
}

func newApprovalUseCase(repo interfaces.Repository, dir interfaces.Directory, notifier interfaces.ApprovalNotifier) *ApprovalUseCase {
	return &ApprovalUseCase{
		repo:      repo,
		directory: dir,
		notifier:  notifier,
	}
}

// Handle dispatches a decision to the matching handler. The returned string
// is the human-readable outcome for the webhook response body; decisions
// that match nothing actionable return an "ignored" outcome without error.
func (uc *ApprovalUseCase) Handle(ctx context.Context, decision *model.ApprovalDecision) (string, error) {
	switch decision.Kind {
	case types.DecisionReEnable:
		return uc.reEnable(ctx, decision.Token)
	case types.DecisionKeepBlocked:
		return uc.keepBlocked(ctx, decision.Token)
	case types.DecisionApprove:
		return uc.approveElevation(ctx, decision.RequestID)
	case types.DecisionReject:
		return uc.rejectElevation(ctx, decision.RequestID)
	default:
		return "", goerr.New("unknown decision kind", goerr.V("kind", decision.Kind))
	}
}

// reEnable resolves the pending action first and only then restores access.
// Resolving first means a duplicate delivery fails the compare-and-set and
// never reaches the directory.
func (uc *ApprovalUseCase) reEnable(ctx context.Context, token types.CorrelationToken) (string, error) {
	if err := token.Validate(); err != nil {
		return "", goerr.Wrap(err, "re_enable decision requires a correlation token")
	}

	logger := logging.From(ctx)

	action, err := uc.repo.Action().Resolve(ctx, token, types.OutcomeRestored, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrActionNotPending):
			logger.Info("duplicate re_enable decision ignored", "token", token)
			return "already resolved, nothing to do", nil
		case errors.Is(err, interfaces.ErrActionNotFound):
			logger.Warn("re_enable decision for unknown action ignored", "token", token)
			return "unknown action, ignored", nil
		default:
			return "", goerr.Wrap(err, "failed to resolve mitigation action",
				goerr.V(TokenKey, token))
		}
	}

	if err := uc.directory.UnblockConditionalAccess(ctx, action.PrincipalID); err != nil {
		// The action is already resolved; access restoration needs manual
		// follow-up rather than a retry of the whole decision.
		logger.Error("access restoration failed after resolve",
			"token", token,
			"principal_id", action.PrincipalID,
			"error", err,
		)
		uc.alert(ctx, action.PrincipalID,
			fmt.Sprintf("Access restoration for `%s` failed, manual intervention required: %v", action.PrincipalID, err))
		return fmt.Sprintf("decision recorded but access restoration failed: %v", err), nil
	}

	logger.Info("access restored",
		"token", token,
		"principal_id", action.PrincipalID,
	)
	uc.alert(ctx, action.PrincipalID,
		fmt.Sprintf("Access for `%s` has been restored.", action.PrincipalID))

	return "access restored", nil
}

// keepBlocked confirms the applied block. No directory call: the block is
// already in place.
func (uc *ApprovalUseCase) keepBlocked(ctx context.Context, token types.CorrelationToken) (string, error) {
	if err := token.Validate(); err != nil {
		return "", goerr.Wrap(err, "keep_blocked decision requires a correlation token")
	}

	action, err := uc.repo.Action().Resolve(ctx, token, types.OutcomeConfirmedBlocked, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, interfaces.ErrActionNotPending):
			return "already resolved, nothing to do", nil
		case errors.Is(err, interfaces.ErrActionNotFound):
			return "unknown action, ignored", nil
		default:
			return "", goerr.Wrap(err, "failed to resolve mitigation action",
				goerr.V(TokenKey, token))
		}
	}

	logging.From(ctx).Info("block confirmed",
		"token", token,
		"principal_id", action.PrincipalID,
	)

	return "block confirmed", nil
}

func (uc *ApprovalUseCase) approveElevation(ctx context.Context, requestID types.RequestID) (string, error) {
	if err := requestID.Validate(); err != nil {
		return "", goerr.Wrap(err, "approve decision requires a request ID")
	}

	if err := uc.directory.ApproveElevation(ctx, requestID); err != nil {
		logging.From(ctx).Error("elevation approval failed",
			"request_id", requestID,
			"error", err,
		)
		return fmt.Sprintf("elevation approval failed: %v", err), nil
	}

	logging.From(ctx).Info("elevation approved", "request_id", requestID)
	return "elevation approved", nil
}

func (uc *ApprovalUseCase) rejectElevation(ctx context.Context, requestID types.RequestID) (string, error) {
	if err := requestID.Validate(); err != nil {
		return "", goerr.Wrap(err, "reject decision requires a request ID")
	}

	if err := uc.directory.RejectElevation(ctx, requestID, "rejected via approval channel"); err != nil {
		logging.From(ctx).Error("elevation rejection failed",
			"request_id", requestID,
			"error", err,
		)
		return fmt.Sprintf("elevation rejection failed: %v", err), nil
	}

	logging.From(ctx).Info("elevation rejected", "request_id", requestID)
	return "elevation rejected", nil
}

func (uc *ApprovalUseCase) alert(ctx context.Context, principalID types.PrincipalID, text string) {
	if uc.notifier == nil {
		return
	}
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.notifier.SendAlert(ctx, principalID.String(), text)
	})
}
