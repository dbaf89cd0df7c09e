package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/cli/config"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/repository/memory"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// lifecycle commands invoke the group reconciler directly; they never touch
// the repository, so only the directory and engine configs are needed.
func cmdLifecycle() *cli.Command {
	var dirCfg config.Directory
	var engineCfg config.Engine

	sharedFlags := func(extra ...cli.Flag) []cli.Flag {
		flags := append([]cli.Flag{}, extra...)
		flags = append(flags, dirCfg.Flags()...)
		flags = append(flags, engineCfg.Flags()...)
		return flags
	}

	newGroupUC := func() (*usecase.GroupUseCase, error) {
		dir, err := dirCfg.Configure()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize directory service")
		}
		engine, err := engineCfg.Configure()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load engine configuration")
		}

		uc := usecase.New(memory.New(), dir, usecase.Sources{}, usecase.WithEngineConfig(engine))
		return uc.Group, nil
	}

	var principalID string
	var roles []string
	var oldRoles []string
	var newRoles []string

	principalFlag := &cli.StringFlag{
		Name:        "principal-id",
		Usage:       "Principal subject to the lifecycle event",
		Required:    true,
		Destination: &principalID,
	}

	return &cli.Command{
		Name:    "lifecycle",
		Aliases: []string{"l"},
		Usage:   "Reconcile group membership for lifecycle events",
		Commands: []*cli.Command{
			{
				Name:  "joiner",
				Usage: "Grant a new principal its role group memberships",
				Flags: sharedFlags(
					principalFlag,
					&cli.StringSliceFlag{
						Name:        "role",
						Usage:       "Role assigned to the principal (repeatable)",
						Required:    true,
						Destination: &roles,
					},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					groupUC, err := newGroupUC()
					if err != nil {
						return err
					}
					return groupUC.Joiner(ctx, types.PrincipalID(principalID), roles)
				},
			},
			{
				Name:  "mover",
				Usage: "Move a principal between role groups",
				Flags: sharedFlags(
					principalFlag,
					&cli.StringSliceFlag{
						Name:        "old-role",
						Usage:       "Role before the move (repeatable)",
						Destination: &oldRoles,
					},
					&cli.StringSliceFlag{
						Name:        "new-role",
						Usage:       "Role after the move (repeatable)",
						Destination: &newRoles,
					},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					groupUC, err := newGroupUC()
					if err != nil {
						return err
					}
					return groupUC.Mover(ctx, types.PrincipalID(principalID), oldRoles, newRoles)
				},
			},
			{
				Name:  "leaver",
				Usage: "Purge a departing principal from all reconciled groups",
				Flags: sharedFlags(principalFlag),
				Action: func(ctx context.Context, c *cli.Command) error {
					groupUC, err := newGroupUC()
					if err != nil {
						return err
					}

					result, err := groupUC.PurgePrincipal(ctx, types.PrincipalID(principalID))
					if result != nil {
						logging.Default().Info("purge finished",
							"principal_id", principalID,
							"groups_modified", result.GroupsModified,
							"failures", len(result.Failures),
						)
						for _, f := range result.Failures {
							logging.Default().Error("purge failure",
								"group_id", f.GroupID,
								"display_name", f.DisplayName,
								"error", f.Err.Error(),
							)
						}
					}
					return err
				},
			},
		},
	}
}
