package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/warden/pkg/domain/model/config"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/usecase"
)

func engineWithPrefix(prefix string) *config.EngineConfig {
	cfg := config.NewEngineConfig()
	cfg.GroupPrefix = prefix
	return cfg
}

func TestGroupUseCase_GetOrCreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates on first reference", func(t *testing.T) {
		env := newTestEnv(usecase.WithEngineConfig(engineWithPrefix("sec-")))

		group, err := env.uc.Group.GetOrCreateGroup(ctx, "Engineering")
		gt.NoError(t, err).Required()
		gt.Value(t, group.DisplayName).Equal("sec-Engineering")

		groups, err := env.dir.ListGroups(ctx, "sec-Engineering")
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1)
	})

	t.Run("repeated calls return the same group", func(t *testing.T) {
		env := newTestEnv(usecase.WithEngineConfig(engineWithPrefix("sec-")))

		first, err := env.uc.Group.GetOrCreateGroup(ctx, "Engineering")
		gt.NoError(t, err).Required()
		second, err := env.uc.Group.GetOrCreateGroup(ctx, "Engineering")
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID).Equal(first.ID)

		groups, err := env.dir.ListGroups(ctx, "")
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1)
	})
}

func TestGroupUseCase_Membership(t *testing.T) {
	ctx := context.Background()

	t.Run("adding a member twice is a no-op", func(t *testing.T) {
		env := newTestEnv()

		group, err := env.uc.Group.GetOrCreateGroup(ctx, "Engineering")
		gt.NoError(t, err).Required()

		gt.NoError(t, env.uc.Group.AddMembers(ctx, group.ID, []types.PrincipalID{"user001"}))
		gt.NoError(t, env.uc.Group.AddMembers(ctx, group.ID, []types.PrincipalID{"user001"}))

		groups, err := env.dir.ListGroups(ctx, group.DisplayName)
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1).Required()
		gt.Array(t, groups[0].Members).Length(1)
	})

	t.Run("removing a non-member is a no-op", func(t *testing.T) {
		env := newTestEnv()

		group, err := env.uc.Group.GetOrCreateGroup(ctx, "Engineering")
		gt.NoError(t, err).Required()

		gt.NoError(t, env.uc.Group.RemoveMembers(ctx, group.ID, []types.PrincipalID{"user001"}))
	})
}

func TestGroupUseCase_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("joiner grants each role group", func(t *testing.T) {
		env := newTestEnv(usecase.WithEngineConfig(engineWithPrefix("sec-")))

		gt.NoError(t, env.uc.Group.Joiner(ctx, "user001", []string{"Developer", "Team Lead"})).Required()

		for _, name := range []string{"sec-Developer", "sec-Team Lead"} {
			groups, err := env.dir.ListGroups(ctx, name)
			gt.NoError(t, err).Required()
			gt.Array(t, groups).Length(1).Required()
			gt.Bool(t, groups[0].HasMember("user001")).True()
		}
	})

	t.Run("joiner honors the role to group mapping", func(t *testing.T) {
		cfg := engineWithPrefix("sec-")
		cfg.RoleGroups["Developer"] = "Engineering"
		env := newTestEnv(usecase.WithEngineConfig(cfg))

		gt.NoError(t, env.uc.Group.Joiner(ctx, "user001", []string{"Developer"})).Required()

		groups, err := env.dir.ListGroups(ctx, "sec-Engineering")
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1).Required()
		gt.Bool(t, groups[0].HasMember("user001")).True()
	})

	t.Run("mover swaps changed roles and keeps shared ones", func(t *testing.T) {
		env := newTestEnv(usecase.WithEngineConfig(engineWithPrefix("sec-")))

		gt.NoError(t, env.uc.Group.Joiner(ctx, "user001", []string{"Developer", "Team Lead"})).Required()
		gt.NoError(t, env.uc.Group.Mover(ctx, "user001", []string{"Developer", "Team Lead"}, []string{"Team Lead", "Architect"})).Required()

		expect := map[string]bool{
			"sec-Developer": false,
			"sec-Team Lead": true,
			"sec-Architect": true,
		}
		for name, member := range expect {
			groups, err := env.dir.ListGroups(ctx, name)
			gt.NoError(t, err).Required()
			gt.Array(t, groups).Length(1).Required()
			gt.Value(t, groups[0].HasMember("user001")).Equal(member)
		}
	})
}

func TestGroupUseCase_PurgePrincipal(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the leaver from every reconciled group", func(t *testing.T) {
		env := newTestEnv(usecase.WithEngineConfig(engineWithPrefix("sec-")))

		gt.NoError(t, env.uc.Group.Joiner(ctx, "user001", []string{"Developer", "Team Lead", "Architect"})).Required()

		result, err := env.uc.Group.PurgePrincipal(ctx, "user001")
		gt.NoError(t, err).Required()
		gt.Number(t, result.GroupsModified).Equal(3)
		gt.Array(t, result.Failures).Length(0)

		groups, err := env.dir.ListGroups(ctx, "")
		gt.NoError(t, err).Required()
		for _, g := range groups {
			gt.Bool(t, g.HasMember("user001")).False()
		}
	})

	t.Run("one failing group does not stop the purge", func(t *testing.T) {
		env := newTestEnv(usecase.WithEngineConfig(engineWithPrefix("sec-")))

		gt.NoError(t, env.uc.Group.Joiner(ctx, "user001", []string{"Developer", "Team Lead", "Architect"})).Required()

		failing, err := env.dir.ListGroups(ctx, "sec-Team Lead")
		gt.NoError(t, err).Required()
		gt.Array(t, failing).Length(1).Required()

		flaky := &flakyDirectory{
			Directory:      env.dir,
			failRemoveFrom: map[types.GroupID]bool{failing[0].ID: true},
		}
		uc := usecase.New(env.repo, flaky, usecase.Sources{},
			usecase.WithEngineConfig(engineWithPrefix("sec-")))

		result, err := uc.Group.PurgePrincipal(ctx, "user001")
		gt.Value(t, err).NotNil()
		gt.Value(t, result).NotNil().Required()
		gt.Number(t, result.GroupsModified).Equal(2)
		gt.Array(t, result.Failures).Length(1).Required()
		gt.Value(t, result.Failures[0].GroupID).Equal(failing[0].ID)
	})

	t.Run("groups outside the prefix are purged too", func(t *testing.T) {
		env := newTestEnv(usecase.WithEngineConfig(engineWithPrefix("sec-")))

		unmanaged, err := env.dir.CreateGroup(ctx, "all-hands")
		gt.NoError(t, err).Required()
		gt.NoError(t, env.dir.AddGroupMembers(ctx, unmanaged.ID, []types.PrincipalID{"user001"})).Required()
		gt.NoError(t, env.uc.Group.Joiner(ctx, "user001", []string{"Developer"})).Required()

		result, err := env.uc.Group.PurgePrincipal(ctx, "user001")
		gt.NoError(t, err).Required()
		gt.Number(t, result.GroupsModified).Equal(2)

		groups, err := env.dir.ListGroups(ctx, "all-hands")
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(1).Required()
		gt.Bool(t, groups[0].HasMember("user001")).False()
	})
}
