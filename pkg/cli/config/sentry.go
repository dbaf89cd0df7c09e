package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// Sentry holds CLI flags for error reporting
type Sentry struct {
	dsn string
	env string
}

// Flags returns CLI flags for Sentry configuration
func (s *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting (empty disables reporting)",
			Sources:     cli.EnvVars("WARDEN_SENTRY_DSN"),
			Destination: &s.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Sources:     cli.EnvVars("WARDEN_SENTRY_ENV"),
			Destination: &s.env,
		},
	}
}

// Configure initializes the Sentry client. When no DSN is set, error
// reporting is disabled and captures become no-ops. The returned closer
// flushes buffered events.
func (s *Sentry) Configure(release string) (func(), error) {
	if s.dsn == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         s.dsn,
		Environment: s.env,
		Release:     release,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}

	logging.Default().Info("Sentry error reporting enabled", "env", s.env)
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// LogValue implements slog.LogValuer, masking the DSN
func (s *Sentry) LogValue() slog.Value {
	dsn := ""
	if s.dsn != "" {
		dsn = "(configured)"
	}
	return slog.GroupValue(
		slog.String("dsn", dsn),
		slog.String("env", s.env),
	)
}
