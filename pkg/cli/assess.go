package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/cli/config"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

func cmdAssess() *cli.Command {
	var principalID string
	var mitigate bool
	var repoCfg config.Repository
	var dirCfg config.Directory
	var signalCfg config.Signal
	var slackCfg config.Slack
	var engineCfg config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "principal-id",
			Usage:       "Principal to assess",
			Required:    true,
			Sources:     cli.EnvVars("WARDEN_PRINCIPAL_ID"),
			Destination: &principalID,
		},
		&cli.BoolFlag{
			Name:        "mitigate",
			Usage:       "Apply the mitigation policy in addition to scoring",
			Destination: &mitigate,
		},
	}

	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, dirCfg.Flags()...)
	flags = append(flags, signalCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:    "assess",
		Aliases: []string{"a"},
		Usage:   "Run a one-shot risk assessment for a principal",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			dir, err := dirCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize directory service")
			}

			sources, err := signalCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize signal sources")
			}

			engine, err := engineCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load engine configuration")
			}

			ucOpts := []usecase.Option{
				usecase.WithEngineConfig(engine),
			}
			slackSvc, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize slack service")
			}
			if slackSvc != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(slackSvc))
			}

			uc := usecase.New(repo, dir, sources, ucOpts...)
			id := types.PrincipalID(principalID)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			if mitigate {
				result, err := uc.Mitigation.Evaluate(ctx, id)
				if err != nil {
					return goerr.Wrap(err, "evaluation failed")
				}
				return enc.Encode(result)
			}

			assessment, err := uc.Risk.Assess(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "assessment failed")
			}
			return enc.Encode(assessment)
		},
	}
}
