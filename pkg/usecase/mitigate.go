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

// MitigationUseCase runs the assess-then-act pipeline: score a principal,
// apply a protective directory action when the score crosses the threshold,
// and hand the result to human review through the approval channel.
type MitigationUseCase struct {
	repo      interfaces.Repository
	directory interfaces.Directory
	notifier  interfaces.ApprovalNotifier
	risk      *RiskUseCase
	threshold int
}

func newMitigationUseCase(repo interfaces.Repository, dir interfaces.Directory, notifier interfaces.ApprovalNotifier, risk *RiskUseCase, threshold int) *MitigationUseCase {
	return &MitigationUseCase{
		repo:      repo,
		directory: dir,
		notifier:  notifier,
		risk:      risk,
		threshold: threshold,
	}
}

// EvaluationResult pairs an assessment with the action it produced
type EvaluationResult struct {
	Assessment *model.RiskAssessment
	Action     *model.MitigationAction
}

// Evaluate assesses a principal and applies the mitigation policy. Scores
// below the threshold produce a monitor action with no directory side
// effect. At or above the threshold, the principal is blocked (conditional
// access first, account disable as fallback) and a pending_review action is
// persisted. A principal that already has a pending action is not blocked
// again; the existing action is returned.
func (uc *MitigationUseCase) Evaluate(ctx context.Context, principalID types.PrincipalID) (*EvaluationResult, error) {
	assessment, err := uc.risk.Assess(ctx, principalID)
	if err != nil {
		return nil, err
	}

	if assessment.Score < uc.threshold {
		action := &model.MitigationAction{
			PrincipalID: principalID,
			Kind:        types.ActionKindMonitor,
			State:       types.ActionStateApplied,
			Reason:      fmt.Sprintf("composite score %d below mitigation threshold %d", assessment.Score, uc.threshold),
			Score:       assessment.Score,
			CreatedAt:   time.Now().UTC(),
		}
		return &EvaluationResult{Assessment: assessment, Action: action}, nil
	}

	logger := logging.From(ctx)

	// One pending action per principal: a re-evaluation while review is
	// outstanding must not stack a second block.
	pending, err := uc.repo.Action().FindPendingByPrincipal(ctx, principalID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check for pending action",
			goerr.V(PrincipalIDKey, principalID))
	}
	if pending != nil {
		logger.Info("mitigation skipped, principal already pending review",
			"principal_id", principalID,
			"token", pending.Token,
		)
		return &EvaluationResult{Assessment: assessment, Action: pending}, nil
	}

	action := &model.MitigationAction{
		Token:       types.NewCorrelationToken(),
		PrincipalID: principalID,
		Kind:        types.ActionKindConditionalAccessBlock,
		State:       types.ActionStatePendingReview,
		Reason:      fmt.Sprintf("composite score %d at or above mitigation threshold %d", assessment.Score, uc.threshold),
		Score:       assessment.Score,
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.block(ctx, action); err != nil {
		// The action still goes to review so a human sees the failed
		// attempt and can act manually.
		action.FailureNote = err.Error()
		logger.Error("all mitigation directory calls failed",
			"principal_id", principalID,
			"error", err,
		)
	}

	if err := uc.repo.Action().Put(ctx, action); err != nil {
		return nil, goerr.Wrap(err, "failed to persist mitigation action",
			goerr.V(PrincipalIDKey, principalID),
			goerr.V(TokenKey, action.Token),
		)
	}

	logger.Info("mitigation action created",
		"principal_id", principalID,
		"token", action.Token,
		"kind", action.Kind,
		"score", action.Score,
	)

	uc.sendApprovalCard(ctx, action)

	return &EvaluationResult{Assessment: assessment, Action: action}, nil
}

// block applies the protective directory action, preferring a conditional
// access block and falling back to account disablement. The action's Kind
// reflects what was actually applied.
func (uc *MitigationUseCase) block(ctx context.Context, action *model.MitigationAction) error {
	blockErr := uc.directory.BlockConditionalAccess(ctx, action.PrincipalID, action.Reason)
	if blockErr == nil {
		return nil
	}

	logging.From(ctx).Warn("conditional access block failed, falling back to disable",
		"principal_id", action.PrincipalID,
		"error", blockErr,
	)

	if err := uc.directory.DisablePrincipal(ctx, action.PrincipalID, action.Reason); err != nil {
		return goerr.Wrap(errors.Join(blockErr, err), "conditional access block and disable fallback both failed",
			goerr.V(PrincipalIDKey, action.PrincipalID))
	}

	action.Kind = types.ActionKindDisable
	return nil
}

func (uc *MitigationUseCase) sendApprovalCard(ctx context.Context, action *model.MitigationAction) {
	if uc.notifier == nil {
		logging.From(ctx).Warn("no approval notifier configured, skipping approval card",
			"token", action.Token,
		)
		return
	}

	// Notification failure never reverses the applied action; the pending
	// record remains queryable.
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.notifier.SendApprovalCard(ctx, action)
	})
}
