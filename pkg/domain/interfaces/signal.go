package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/warden/pkg/domain/types"
)

// ProtectionLevel is the textual risk level reported by the identity
// protection source
type ProtectionLevel string

const (
	ProtectionNone     ProtectionLevel = "none"
	ProtectionLow      ProtectionLevel = "low"
	ProtectionMedium   ProtectionLevel = "medium"
	ProtectionHigh     ProtectionLevel = "high"
	ProtectionCritical ProtectionLevel = "critical"
)

// IdentityProtectionSource reports the provider-computed identity risk level
// for a principal
type IdentityProtectionSource interface {
	RiskLevel(ctx context.Context, id types.PrincipalID) (ProtectionLevel, error)
}

// AnalyticsEvent is one correlated security-analytics detection
type AnalyticsEvent struct {
	OccurredAt time.Time
	Kind       string
	Detail     string
}

// AnalyticsSource queries correlated security-analytics detections scoped by
// a time window
type AnalyticsSource interface {
	RiskySignIns(ctx context.Context, id types.PrincipalID, window time.Duration) ([]AnalyticsEvent, error)
	PrivilegeEscalations(ctx context.Context, id types.PrincipalID, window time.Duration) ([]AnalyticsEvent, error)

	// EventCount returns the total activity volume for a principal within
	// the window. Used by the dormant-principal scan.
	EventCount(ctx context.Context, id types.PrincipalID, window time.Duration) (int, error)

	// MitigationCandidates returns principals with correlated critical
	// detections that warrant an immediate risk evaluation.
	MitigationCandidates(ctx context.Context) ([]types.PrincipalID, error)
}

// BaselineSource reports whether the principal's behavioral baseline is
// elevated
type BaselineSource interface {
	Elevated(ctx context.Context, id types.PrincipalID) (bool, error)
}

// ComplianceViolation is one uncompensated policy violation
type ComplianceViolation struct {
	PolicyID    string
	Description string
	Severity    string
	Resource    string
}

// ComplianceSource checks policy compliance for a principal's access grants
type ComplianceSource interface {
	Violations(ctx context.Context, id types.PrincipalID) ([]ComplianceViolation, error)
}
