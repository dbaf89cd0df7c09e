package config

// DefaultMitigationThreshold is the composite score at which automated
// mitigation triggers (>=, not >)
const DefaultMitigationThreshold = 90

// EngineConfig carries the risk-engine tuning loaded at startup
type EngineConfig struct {
	// MitigationThreshold is the composite score boundary for automated
	// mitigation
	MitigationThreshold int

	// GroupPrefix is prepended to every reconciled group display name
	GroupPrefix string

	// RoleGroups maps a role name to the display name (unprefixed) of the
	// directory group that carries the role's access
	RoleGroups map[string]string
}

// NewEngineConfig returns a config with defaults applied
func NewEngineConfig() *EngineConfig {
	return &EngineConfig{
		MitigationThreshold: DefaultMitigationThreshold,
		RoleGroups:          make(map[string]string),
	}
}

// GroupForRole resolves the prefixed group display name for a role. Roles
// without an explicit mapping use the role name itself.
func (c *EngineConfig) GroupForRole(role string) string {
	name, ok := c.RoleGroups[role]
	if !ok {
		name = role
	}
	return c.GroupPrefix + name
}

// PrefixedName applies the configured group prefix to a display name
func (c *EngineConfig) PrefixedName(displayName string) string {
	return c.GroupPrefix + displayName
}
