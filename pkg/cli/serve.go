package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/cli/config"
	httpctrl "github.com/secmon-lab/warden/pkg/controller/http"
	"github.com/secmon-lab/warden/pkg/service/worker"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var webhookSecret string
	var webhookSecretHeader string
	var watchInterval time.Duration
	var repoCfg config.Repository
	var dirCfg config.Directory
	var signalCfg config.Signal
	var slackCfg config.Slack
	var engineCfg config.Engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("WARDEN_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "webhook-secret",
			Usage:       "Shared secret for approval webhook verification",
			Sources:     cli.EnvVars("WARDEN_WEBHOOK_SECRET"),
			Destination: &webhookSecret,
		},
		&cli.StringFlag{
			Name:        "webhook-secret-header",
			Usage:       "Request header carrying the webhook shared secret",
			Value:       httpctrl.DefaultSecretHeader,
			Sources:     cli.EnvVars("WARDEN_WEBHOOK_SECRET_HEADER"),
			Destination: &webhookSecretHeader,
		},
		&cli.DurationFlag{
			Name:        "watch-interval",
			Usage:       "Polling interval of the analytics candidate watcher (0 disables)",
			Value:       worker.DefaultWatchInterval,
			Sources:     cli.EnvVars("WARDEN_WATCH_INTERVAL"),
			Destination: &watchInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, dirCfg.Flags()...)
	flags = append(flags, signalCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server and background watcher",
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

			// Start the analytics candidate watcher
			var watcher *worker.Watcher
			if watchInterval > 0 {
				watcher = worker.NewWatcher(uc.Monitor, watchInterval)
				if err := watcher.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start candidate watcher")
				}
			} else {
				logging.Default().Info("Candidate watcher disabled")
			}

			httpHandler, err := httpctrl.New(uc.Approval,
				httpctrl.WithWebhookSecret(webhookSecret, webhookSecretHeader),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if watcher != nil {
					watcher.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
