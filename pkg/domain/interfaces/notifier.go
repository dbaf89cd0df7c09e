package interfaces

import (
	"context"

	"github.com/secmon-lab/warden/pkg/domain/model"
)

// ApprovalNotifier sends actionable notifications through the approval
// channel. All sends are best-effort: a failure never reverses an
// already-applied directory action.
type ApprovalNotifier interface {
	// SendApprovalCard posts a card with re-enable / keep-blocked response
	// options for a pending mitigation action. The card carries the
	// action's correlation token.
	SendApprovalCard(ctx context.Context, action *model.MitigationAction) error

	// SendAlert posts a plain notification (e.g. "access restored").
	SendAlert(ctx context.Context, principalID, text string) error
}
