package config

// NewEngineForTest creates an Engine with the given fields for testing
func NewEngineForTest(configPath string, threshold int) *Engine {
	return &Engine{
		configPath: configPath,
		threshold:  threshold,
	}
}
