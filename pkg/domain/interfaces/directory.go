package interfaces

import (
	"context"

	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// Directory is the external directory-service capability consumed by the
// mitigation engine and the group reconciler. Implementations convert
// transport errors into wrapped domain errors; callers treat each call as
// independently retryable.
type Directory interface {
	GetPrincipal(ctx context.Context, id types.PrincipalID) (*model.Principal, error)
	ListPrincipals(ctx context.Context, filter model.PrincipalFilter) ([]*model.Principal, error)

	// DisablePrincipal disables the account outright. Used as the fallback
	// when a conditional access block cannot be applied.
	DisablePrincipal(ctx context.Context, id types.PrincipalID, reason string) error

	// BlockConditionalAccess denies authentication for the principal via a
	// directory policy. Preferred over disablement because it is easier to
	// reverse.
	BlockConditionalAccess(ctx context.Context, id types.PrincipalID, reason string) error

	// UnblockConditionalAccess removes the block (or re-enables a
	// fallback-disabled account).
	UnblockConditionalAccess(ctx context.Context, id types.PrincipalID) error

	ListGroups(ctx context.Context, nameFilter string) ([]*model.Group, error)
	CreateGroup(ctx context.Context, displayName string) (*model.Group, error)
	AddGroupMembers(ctx context.Context, id types.GroupID, members []types.PrincipalID) error
	RemoveGroupMembers(ctx context.Context, id types.GroupID, members []types.PrincipalID) error

	// ApproveElevation / RejectElevation act on privileged elevation
	// requests, keyed by request ID.
	ApproveElevation(ctx context.Context, id types.RequestID) error
	RejectElevation(ctx context.Context, id types.RequestID, justification string) error
}
