package types

import "fmt"

// RiskLevel represents the discrete risk level derived from a composite score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Composite score thresholds for each risk level
const (
	riskLevelMediumThreshold   = 30
	riskLevelHighThreshold     = 50
	riskLevelCriticalThreshold = 75
)

// AllRiskLevels returns all valid risk levels
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{
		RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
		RiskLevelCritical,
	}
}

// IsValid checks if the risk level is valid
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level
func (l RiskLevel) String() string {
	return string(l)
}

// RiskLevelFromScore derives the risk level from a clamped composite score
func RiskLevelFromScore(score int) RiskLevel {
	switch {
	case score >= riskLevelCriticalThreshold:
		return RiskLevelCritical
	case score >= riskLevelHighThreshold:
		return RiskLevelHigh
	case score >= riskLevelMediumThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// ParseRiskLevel parses a string into a RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid risk level: %s", s)
	}
	return level, nil
}
