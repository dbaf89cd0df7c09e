package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/service/directory"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// Directory holds CLI flags for the directory-service backend
type Directory struct {
	backend     string
	scimBaseURL string
	scimToken   string
}

// Flags returns CLI flags for directory configuration
func (d *Directory) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "directory-backend",
			Usage:       "Directory backend type (scim or mock)",
			Value:       "scim",
			Sources:     cli.EnvVars("WARDEN_DIRECTORY_BACKEND"),
			Destination: &d.backend,
		},
		&cli.StringFlag{
			Name:        "scim-base-url",
			Usage:       "SCIM 2.0 endpoint base URL (required when using scim backend)",
			Sources:     cli.EnvVars("WARDEN_SCIM_BASE_URL"),
			Destination: &d.scimBaseURL,
		},
		&cli.StringFlag{
			Name:        "scim-token",
			Usage:       "SCIM bearer token",
			Sources:     cli.EnvVars("WARDEN_SCIM_TOKEN"),
			Destination: &d.scimToken,
		},
	}
}

// Backend returns the configured backend type
func (d *Directory) Backend() string {
	return d.backend
}

// Configure initializes and returns a directory service based on the
// configured backend
func (d *Directory) Configure() (interfaces.Directory, error) {
	switch d.backend {
	case "scim":
		if d.scimBaseURL == "" {
			return nil, goerr.New("scim-base-url is required when using scim backend")
		}
		svc, err := directory.NewSCIM(d.scimBaseURL, d.scimToken)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize SCIM directory")
		}
		logging.Default().Info("Using SCIM directory", "base_url", d.scimBaseURL)
		return svc, nil

	case "mock":
		logging.Default().Info("Using mock directory (development mode)")
		return directory.NewMockWithSeed(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid directory backend", goerr.V(BackendKey, d.backend))
	}
}
