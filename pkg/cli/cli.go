package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/cli/config"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	app := &cli.Command{
		Name:    "warden",
		Usage:   "Identity risk aggregation and automated mitigation engine",
		Version: version,
		Flags:   append(loggerCfg.Flags(), sentryCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logClose, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, logClose)

			sentryClose, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, sentryClose)

			logging.Default().Info("Starting warden", "logger", loggerCfg, "sentry", sentryCfg)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for _, closer := range closers {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdAssess(),
			cmdLifecycle(),
			cmdScan(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
