package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	domainConfig "github.com/secmon-lab/warden/pkg/domain/model/config"
)

// Engine holds CLI flags and the TOML file for risk-engine tuning
type Engine struct {
	configPath string
	threshold  int
}

// EngineFile is the TOML shape of the engine configuration file
type EngineFile struct {
	MitigationThreshold int         `toml:"mitigation_threshold"`
	GroupPrefix         string      `toml:"group_prefix"`
	RoleGroups          []RoleGroup `toml:"role_group"`
}

// RoleGroup maps one role to the display name of its directory group
type RoleGroup struct {
	Role  string `toml:"role"`
	Group string `toml:"group"`
}

// Validate checks if the RoleGroup is valid
func (r *RoleGroup) Validate() error {
	if r.Role == "" {
		return goerr.New("role_group role is required")
	}
	if r.Group == "" {
		return goerr.New("role_group group is required", goerr.V("role", r.Role))
	}
	return nil
}

// Validate checks if the EngineFile is valid
func (e *EngineFile) Validate() error {
	if e.MitigationThreshold < 0 || e.MitigationThreshold > 100 {
		return goerr.New("mitigation_threshold must be between 0 and 100",
			goerr.V("threshold", e.MitigationThreshold))
	}

	roles := make(map[string]bool)
	for _, rg := range e.RoleGroups {
		if err := rg.Validate(); err != nil {
			return goerr.Wrap(err, "invalid role_group")
		}
		if roles[rg.Role] {
			return goerr.New("duplicate role in role_group", goerr.V("role", rg.Role))
		}
		roles[rg.Role] = true
	}

	return nil
}

// Flags returns CLI flags for engine configuration
func (e *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "engine-config",
			Usage:       "Path to the engine TOML config (threshold, group prefix, role→group map)",
			Sources:     cli.EnvVars("WARDEN_ENGINE_CONFIG"),
			Destination: &e.configPath,
		},
		&cli.IntFlag{
			Name:        "mitigation-threshold",
			Usage:       "Composite score at which automated mitigation triggers (overrides engine config file)",
			Value:       0,
			Sources:     cli.EnvVars("WARDEN_MITIGATION_THRESHOLD"),
			Destination: &e.threshold,
		},
	}
}

// Configure loads the engine configuration with defaults applied. The flag
// threshold, when set, takes precedence over the file value.
func (e *Engine) Configure() (*domainConfig.EngineConfig, error) {
	cfg := domainConfig.NewEngineConfig()

	if e.configPath != "" {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err := os.ReadFile(e.configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, goerr.Wrap(ErrConfigNotFound, "engine config file does not exist",
					goerr.V(ConfigPathKey, e.configPath))
			}
			return nil, goerr.Wrap(err, "failed to read engine config file",
				goerr.V(ConfigPathKey, e.configPath))
		}

		var file EngineFile
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse engine config TOML",
				goerr.V(ConfigPathKey, e.configPath), goerr.V("cause", err.Error()))
		}
		if err := file.Validate(); err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "engine config validation failed",
				goerr.V(ConfigPathKey, e.configPath), goerr.V("cause", err.Error()))
		}

		if file.MitigationThreshold > 0 {
			cfg.MitigationThreshold = file.MitigationThreshold
		}
		cfg.GroupPrefix = file.GroupPrefix
		for _, rg := range file.RoleGroups {
			cfg.RoleGroups[rg.Role] = rg.Group
		}
	}

	if e.threshold > 0 {
		cfg.MitigationThreshold = e.threshold
	}

	return cfg, nil
}
