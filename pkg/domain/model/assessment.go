package model

import (
	"time"

	"github.com/secmon-lab/warden/pkg/domain/types"
)

// Maximum contribution of each signal source to the composite score
const (
	IdentityProtectionCritical = 90
	IdentityProtectionHigh     = 80
	IdentityProtectionMedium   = 50
	IdentityProtectionLow      = 20

	AnalyticsRiskySignInPoints  = 30
	AnalyticsEscalationPoints   = 50
	AnalyticsMaxPoints          = 100
	BaselineElevatedPoints      = 20
	ComplianceViolationPoints   = 15
	ComplianceMaxPoints         = 45
)

// SubScore is one named signal-source contribution to a risk assessment.
// Unavailable distinguishes "source said zero" from "source was unreachable":
// an unavailable source always contributes zero points.
type SubScore struct {
	Name        string
	Points      int
	Evidence    string
	Unavailable bool
}

// RiskAssessment is the composite risk picture for a principal at a point in
// time. Created fresh on every evaluation and never mutated.
type RiskAssessment struct {
	PrincipalID types.PrincipalID
	SubScores   []SubScore
	Score       int
	Level       types.RiskLevel
	CreatedAt   time.Time
}

// NewRiskAssessment builds an assessment from sub-scores, clamping the
// composite to [0, 100] and deriving the risk level.
func NewRiskAssessment(principalID types.PrincipalID, subScores []SubScore, now time.Time) *RiskAssessment {
	score := 0
	for _, s := range subScores {
		if s.Unavailable {
			continue
		}
		score += s.Points
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return &RiskAssessment{
		PrincipalID: principalID,
		SubScores:   subScores,
		Score:       score,
		Level:       types.RiskLevelFromScore(score),
		CreatedAt:   now,
	}
}

// Fraction returns the composite score on the legacy 0-1 scale. Derived
// display value only; the 0-100 integer score is the source of truth.
func (a *RiskAssessment) Fraction() float64 {
	return float64(a.Score) / 100.0
}
