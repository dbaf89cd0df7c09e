package model

import (
	"time"

	"github.com/secmon-lab/warden/pkg/domain/types"
)

// ApprovalDecision is an inbound approval-channel decision. It exists only
// as a message; it is never persisted beyond acting on it.
type ApprovalDecision struct {
	Kind types.DecisionKind

	// Token correlates re_enable/keep_blocked decisions to a pending
	// mitigation action.
	Token types.CorrelationToken

	// RequestID correlates approve/reject decisions to a privileged
	// elevation request. Distinct correlation domain from Token.
	RequestID types.RequestID

	ReceivedAt time.Time
}
