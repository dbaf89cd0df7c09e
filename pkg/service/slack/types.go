package slack

import (
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
)

// Service provides the approval-channel surface backed by Slack
type Service interface {
	interfaces.ApprovalNotifier
}
