package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/model/config"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// GroupUseCase reconciles directory group membership with a principal's role
// assignments across the joiner / mover / leaver lifecycle events.
type GroupUseCase struct {
	directory interfaces.Directory
	cfg       *config.EngineConfig
}

func newGroupUseCase(dir interfaces.Directory, cfg *config.EngineConfig) *GroupUseCase {
	return &GroupUseCase{
		directory: dir,
		cfg:       cfg,
	}
}

// GetOrCreateGroup resolves a group by its prefixed display name, creating
// it when absent. A concurrent create by another reconciler is tolerated by
// re-querying after a create failure.
func (uc *GroupUseCase) GetOrCreateGroup(ctx context.Context, displayName string) (*model.Group, error) {
	fullName := uc.cfg.PrefixedName(displayName)

	groups, err := uc.directory.ListGroups(ctx, fullName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up group", goerr.V("display_name", fullName))
	}
	if len(groups) > 0 {
		return groups[0], nil
	}

	group, createErr := uc.directory.CreateGroup(ctx, fullName)
	if createErr == nil {
		logging.From(ctx).Info("group created",
			"group_id", group.ID,
			"display_name", fullName,
		)
		return group, nil
	}

	// Re-query: the create may have lost a race with another reconciler,
	// in which case the group now exists.
	groups, err = uc.directory.ListGroups(ctx, fullName)
	if err == nil && len(groups) > 0 {
		return groups[0], nil
	}

	return nil, goerr.Wrap(createErr, "failed to create group", goerr.V("display_name", fullName))
}

// AddMembers adds principals to a group. Adding an existing member is a
// no-op at the directory.
func (uc *GroupUseCase) AddMembers(ctx context.Context, groupID types.GroupID, members []types.PrincipalID) error {
	if len(members) == 0 {
		return nil
	}
	if err := uc.directory.AddGroupMembers(ctx, groupID, members); err != nil {
		return goerr.Wrap(err, "failed to add group members", goerr.V(GroupIDKey, groupID))
	}
	return nil
}

// RemoveMembers removes principals from a group. Removing a non-member is a
// no-op at the directory.
func (uc *GroupUseCase) RemoveMembers(ctx context.Context, groupID types.GroupID, members []types.PrincipalID) error {
	if len(members) == 0 {
		return nil
	}
	if err := uc.directory.RemoveGroupMembers(ctx, groupID, members); err != nil {
		return goerr.Wrap(err, "failed to remove group members", goerr.V(GroupIDKey, groupID))
	}
	return nil
}

// Joiner grants a new principal membership in the group for each assigned
// role, creating groups that do not exist yet.
func (uc *GroupUseCase) Joiner(ctx context.Context, principalID types.PrincipalID, roles []string) error {
	if err := principalID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid principal ID")
	}

	for _, role := range roles {
		group, err := uc.GetOrCreateGroup(ctx, uc.roleGroupName(role))
		if err != nil {
			return goerr.Wrap(err, "joiner reconciliation failed",
				goerr.V(PrincipalIDKey, principalID),
				goerr.V("role", role),
			)
		}
		if err := uc.AddMembers(ctx, group.ID, []types.PrincipalID{principalID}); err != nil {
			return goerr.Wrap(err, "joiner reconciliation failed",
				goerr.V(PrincipalIDKey, principalID),
				goerr.V("role", role),
			)
		}
	}

	logging.From(ctx).Info("joiner reconciled",
		"principal_id", principalID,
		"roles", roles,
	)
	return nil
}

// Mover moves a principal between role groups: memberships only in the old
// role set are revoked, memberships only in the new set are granted, and
// roles in both sets are untouched.
func (uc *GroupUseCase) Mover(ctx context.Context, principalID types.PrincipalID, oldRoles, newRoles []string) error {
	if err := principalID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid principal ID")
	}

	oldSet := make(map[string]bool, len(oldRoles))
	for _, r := range oldRoles {
		oldSet[r] = true
	}
	newSet := make(map[string]bool, len(newRoles))
	for _, r := range newRoles {
		newSet[r] = true
	}

	for _, role := range oldRoles {
		if newSet[role] {
			continue
		}
		group, err := uc.GetOrCreateGroup(ctx, uc.roleGroupName(role))
		if err != nil {
			return goerr.Wrap(err, "mover reconciliation failed",
				goerr.V(PrincipalIDKey, principalID),
				goerr.V("role", role),
			)
		}
		if err := uc.RemoveMembers(ctx, group.ID, []types.PrincipalID{principalID}); err != nil {
			return goerr.Wrap(err, "mover reconciliation failed",
				goerr.V(PrincipalIDKey, principalID),
				goerr.V("role", role),
			)
		}
	}

	for _, role := range newRoles {
		if oldSet[role] {
			continue
		}
		group, err := uc.GetOrCreateGroup(ctx, uc.roleGroupName(role))
		if err != nil {
			return goerr.Wrap(err, "mover reconciliation failed",
				goerr.V(PrincipalIDKey, principalID),
				goerr.V("role", role),
			)
		}
		if err := uc.AddMembers(ctx, group.ID, []types.PrincipalID{principalID}); err != nil {
			return goerr.Wrap(err, "mover reconciliation failed",
				goerr.V(PrincipalIDKey, principalID),
				goerr.V("role", role),
			)
		}
	}

	logging.From(ctx).Info("mover reconciled",
		"principal_id", principalID,
		"old_roles", oldRoles,
		"new_roles", newRoles,
	)
	return nil
}

// PurgeResult reports the outcome of a leaver purge
type PurgeResult struct {
	// GroupsModified counts groups the principal was actually removed from
	GroupsModified int

	// Failures lists groups whose removal failed; the purge continued past
	// each one.
	Failures []PurgeFailure
}

// PurgeFailure is one failed removal during a purge
type PurgeFailure struct {
	GroupID     types.GroupID
	DisplayName string
	Err         error
}

// PurgePrincipal removes a leaver from every group that contains it,
// managed or not, so no membership survives offboarding. A removal
// failure in one group does not stop removals from the remaining groups;
// all failures are reported together so the purge can be re-run.
func (uc *GroupUseCase) PurgePrincipal(ctx context.Context, principalID types.PrincipalID) (*PurgeResult, error) {
	if err := principalID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid principal ID")
	}

	groups, err := uc.directory.ListGroups(ctx, "")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list groups for purge",
			goerr.V(PrincipalIDKey, principalID))
	}

	logger := logging.From(ctx)
	result := &PurgeResult{}

	for _, group := range groups {
		if !group.HasMember(principalID) {
			continue
		}

		if err := uc.directory.RemoveGroupMembers(ctx, group.ID, []types.PrincipalID{principalID}); err != nil {
			logger.Error("purge removal failed, continuing",
				"principal_id", principalID,
				"group_id", group.ID,
				"display_name", group.DisplayName,
				"error", err,
			)
			result.Failures = append(result.Failures, PurgeFailure{
				GroupID:     group.ID,
				DisplayName: group.DisplayName,
				Err:         err,
			})
			continue
		}
		result.GroupsModified++
	}

	logger.Info("leaver purged",
		"principal_id", principalID,
		"groups_modified", result.GroupsModified,
		"failures", len(result.Failures),
	)

	if len(result.Failures) > 0 {
		return result, goerr.New("purge completed with failures",
			goerr.V(PrincipalIDKey, principalID),
			goerr.V("failed_groups", len(result.Failures)),
		)
	}
	return result, nil
}

// roleGroupName resolves the unprefixed group display name for a role.
// GetOrCreateGroup applies the prefix.
func (uc *GroupUseCase) roleGroupName(role string) string {
	if name, ok := uc.cfg.RoleGroups[role]; ok {
		return name
	}
	return role
}
