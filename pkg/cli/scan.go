package cli

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/cli/config"
	"github.com/secmon-lab/warden/pkg/repository/memory"
	"github.com/secmon-lab/warden/pkg/usecase"
)

func cmdScan() *cli.Command {
	var window time.Duration
	var dirCfg config.Directory
	var signalCfg config.Signal

	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "window",
			Usage:       "Inactivity window for the dormant-account report",
			Value:       usecase.DefaultDormantWindow,
			Sources:     cli.EnvVars("WARDEN_SCAN_WINDOW"),
			Destination: &window,
		},
	}
	flags = append(flags, dirCfg.Flags()...)
	flags = append(flags, signalCfg.Flags()...)

	return &cli.Command{
		Name:  "scan",
		Usage: "Report active principals with no recent activity",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			dir, err := dirCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize directory service")
			}

			sources, err := signalCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize signal sources")
			}

			uc := usecase.New(memory.New(), dir, sources)

			dormant, err := uc.Monitor.ScanDormant(ctx, window)
			if err != nil {
				return goerr.Wrap(err, "dormant scan failed")
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(dormant)
		},
	}
}
