package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/warden/pkg/cli/config"
)

func writeEngineFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestEngineFile_Validate(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		file := &config.EngineFile{
			MitigationThreshold: 85,
			GroupPrefix:         "sec-",
			RoleGroups: []config.RoleGroup{
				{Role: "Developer", Group: "Engineering"},
			},
		}
		gt.NoError(t, file.Validate())
	})

	t.Run("threshold out of range", func(t *testing.T) {
		file := &config.EngineFile{MitigationThreshold: 150}
		gt.Value(t, file.Validate()).NotNil()
	})

	t.Run("duplicate role", func(t *testing.T) {
		file := &config.EngineFile{
			RoleGroups: []config.RoleGroup{
				{Role: "Developer", Group: "Engineering"},
				{Role: "Developer", Group: "Platform"},
			},
		}
		gt.Value(t, file.Validate()).NotNil()
	})

	t.Run("role group missing group name", func(t *testing.T) {
		file := &config.EngineFile{
			RoleGroups: []config.RoleGroup{{Role: "Developer"}},
		}
		gt.Value(t, file.Validate()).NotNil()
	})
}

func TestEngine_Configure(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		engine := config.NewEngineForTest("", 0)

		cfg, err := engine.Configure()
		gt.NoError(t, err).Required()
		gt.Number(t, cfg.MitigationThreshold).Equal(90)
		gt.Value(t, cfg.GroupPrefix).Equal("")
	})

	t.Run("loads threshold, prefix and role map from TOML", func(t *testing.T) {
		path := writeEngineFile(t, `
mitigation_threshold = 80
group_prefix = "sec-"

[[role_group]]
role = "Developer"
group = "Engineering"

[[role_group]]
role = "Financial Analyst"
group = "Finance"
`)

		engine := config.NewEngineForTest(path, 0)
		cfg, err := engine.Configure()
		gt.NoError(t, err).Required()
		gt.Number(t, cfg.MitigationThreshold).Equal(80)
		gt.Value(t, cfg.GroupPrefix).Equal("sec-")
		gt.Value(t, cfg.GroupForRole("Developer")).Equal("sec-Engineering")
		gt.Value(t, cfg.GroupForRole("Unknown Role")).Equal("sec-Unknown Role")
	})

	t.Run("flag threshold overrides the file", func(t *testing.T) {
		path := writeEngineFile(t, "mitigation_threshold = 80")

		engine := config.NewEngineForTest(path, 95)
		cfg, err := engine.Configure()
		gt.NoError(t, err).Required()
		gt.Number(t, cfg.MitigationThreshold).Equal(95)
	})

	t.Run("broken TOML fails as invalid config", func(t *testing.T) {
		path := writeEngineFile(t, "mitigation_threshold = [broken")

		engine := config.NewEngineForTest(path, 0)
		_, err := engine.Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("out-of-range threshold fails as invalid config", func(t *testing.T) {
		path := writeEngineFile(t, "mitigation_threshold = 250")

		engine := config.NewEngineForTest(path, 0)
		_, err := engine.Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("missing file fails as not found", func(t *testing.T) {
		engine := config.NewEngineForTest("/no/such/engine.toml", 0)
		_, err := engine.Configure()
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})
}
