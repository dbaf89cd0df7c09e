package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/service/signal"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// Signal holds CLI flags for the signal-source backends
type Signal struct {
	backend     string
	workspaceID string
}

// Flags returns CLI flags for signal-source configuration
func (s *Signal) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "signal-backend",
			Usage:       "Signal source backend type (mock)",
			Value:       "mock",
			Sources:     cli.EnvVars("WARDEN_SIGNAL_BACKEND"),
			Destination: &s.backend,
		},
		&cli.StringFlag{
			Name:        "analytics-workspace-id",
			Usage:       "Security analytics workspace identifier",
			Sources:     cli.EnvVars("WARDEN_ANALYTICS_WORKSPACE_ID"),
			Destination: &s.workspaceID,
		},
	}
}

// Backend returns the configured backend type
func (s *Signal) Backend() string {
	return s.backend
}

// Configure initializes the signal sources based on the configured backend
func (s *Signal) Configure() (usecase.Sources, error) {
	switch s.backend {
	case "mock":
		logging.Default().Info("Using mock signal sources (development mode)",
			"workspace_id", s.workspaceID)
		return usecase.Sources{
			Protection: signal.NewMockProtection(),
			Analytics:  signal.NewMockAnalytics(),
			Baseline:   signal.NewMockBaseline(),
			Compliance: signal.NewMockCompliance(),
		}, nil

	default:
		return usecase.Sources{}, goerr.Wrap(ErrInvalidConfig, "invalid signal backend", goerr.V(BackendKey, s.backend))
	}
}
