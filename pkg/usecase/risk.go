package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// Sub-score names, in assessment order
const (
	SubScoreIdentityProtection = "identity_protection"
	SubScoreSecurityAnalytics  = "security_analytics"
	SubScoreBehavioralBaseline = "behavioral_baseline"
	SubScorePolicyCompliance   = "policy_compliance"
)

// analyticsWindow scopes correlated-event queries during an assessment
const analyticsWindow = 24 * time.Hour

// RiskUseCase aggregates signal-source contributions into a composite risk
// assessment. Assess never fails on a source error: an unreachable source
// contributes zero points with an "unavailable" evidence note.
type RiskUseCase struct {
	directory     interfaces.Directory
	sources       Sources
	sourceTimeout time.Duration
}

func newRiskUseCase(dir interfaces.Directory, sources Sources, sourceTimeout time.Duration) *RiskUseCase {
	return &RiskUseCase{
		directory:     dir,
		sources:       sources,
		sourceTimeout: sourceTimeout,
	}
}

// Assess queries all signal sources concurrently and combines their
// contributions into a single 0-100 composite score. Only an unresolvable
// principal aborts the assessment.
func (uc *RiskUseCase) Assess(ctx context.Context, principalID types.PrincipalID) (*model.RiskAssessment, error) {
	if err := principalID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid principal ID")
	}

	if _, err := uc.directory.GetPrincipal(ctx, principalID); err != nil {
		return nil, goerr.Wrap(ErrPrincipalNotFound, "cannot assess unknown principal",
			goerr.V(PrincipalIDKey, principalID), goerr.V("cause", err.Error()))
	}

	// Fixed slots keep sub-score order stable regardless of which source
	// finishes first.
	subScores := make([]model.SubScore, 4)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		subScores[0] = uc.protectionScore(egCtx, principalID)
		return nil
	})
	eg.Go(func() error {
		subScores[1] = uc.analyticsScore(egCtx, principalID)
		return nil
	})
	eg.Go(func() error {
		subScores[2] = uc.baselineScore(egCtx, principalID)
		return nil
	})
	eg.Go(func() error {
		subScores[3] = uc.complianceScore(egCtx, principalID)
		return nil
	})
	_ = eg.Wait() // source goroutines never return errors; soft failure only

	assessment := model.NewRiskAssessment(principalID, subScores, time.Now().UTC())

	logging.From(ctx).Info("risk assessment completed",
		"principal_id", principalID,
		"score", assessment.Score,
		"level", assessment.Level,
	)

	return assessment, nil
}

func unavailable(name string, err error) model.SubScore {
	return model.SubScore{
		Name:        name,
		Points:      0,
		Evidence:    fmt.Sprintf("unavailable: %v", err),
		Unavailable: true,
	}
}

func protectionPoints(level interfaces.ProtectionLevel) int {
	switch level {
	case interfaces.ProtectionCritical:
		return model.IdentityProtectionCritical
	case interfaces.ProtectionHigh:
		return model.IdentityProtectionHigh
	case interfaces.ProtectionMedium:
		return model.IdentityProtectionMedium
	case interfaces.ProtectionLow:
		return model.IdentityProtectionLow
	default:
		return 0
	}
}

func (uc *RiskUseCase) protectionScore(ctx context.Context, id types.PrincipalID) model.SubScore {
	if uc.sources.Protection == nil {
		return unavailable(SubScoreIdentityProtection, goerr.New("source not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()

	level, err := uc.sources.Protection.RiskLevel(ctx, id)
	if err != nil {
		return unavailable(SubScoreIdentityProtection, err)
	}

	return model.SubScore{
		Name:     SubScoreIdentityProtection,
		Points:   protectionPoints(level),
		Evidence: fmt.Sprintf("identity protection level: %s", level),
	}
}

func (uc *RiskUseCase) analyticsScore(ctx context.Context, id types.PrincipalID) model.SubScore {
	if uc.sources.Analytics == nil {
		return unavailable(SubScoreSecurityAnalytics, goerr.New("source not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()

	signIns, err := uc.sources.Analytics.RiskySignIns(ctx, id, analyticsWindow)
	if err != nil {
		return unavailable(SubScoreSecurityAnalytics, err)
	}
	escalations, err := uc.sources.Analytics.PrivilegeEscalations(ctx, id, analyticsWindow)
	if err != nil {
		return unavailable(SubScoreSecurityAnalytics, err)
	}

	points := len(signIns)*model.AnalyticsRiskySignInPoints + len(escalations)*model.AnalyticsEscalationPoints
	if points > model.AnalyticsMaxPoints {
		points = model.AnalyticsMaxPoints
	}

	return model.SubScore{
		Name:   SubScoreSecurityAnalytics,
		Points: points,
		Evidence: fmt.Sprintf("%d risky sign-ins, %d privilege escalations in last %s",
			len(signIns), len(escalations), analyticsWindow),
	}
}

func (uc *RiskUseCase) baselineScore(ctx context.Context, id types.PrincipalID) model.SubScore {
	if uc.sources.Baseline == nil {
		return unavailable(SubScoreBehavioralBaseline, goerr.New("source not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()

	elevated, err := uc.sources.Baseline.Elevated(ctx, id)
	if err != nil {
		return unavailable(SubScoreBehavioralBaseline, err)
	}

	points := 0
	evidence := "behavioral baseline normal"
	if elevated {
		points = model.BaselineElevatedPoints
		evidence = "elevated behavioral baseline"
	}

	return model.SubScore{
		Name:     SubScoreBehavioralBaseline,
		Points:   points,
		Evidence: evidence,
	}
}

func (uc *RiskUseCase) complianceScore(ctx context.Context, id types.PrincipalID) model.SubScore {
	if uc.sources.Compliance == nil {
		return unavailable(SubScorePolicyCompliance, goerr.New("source not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()

	violations, err := uc.sources.Compliance.Violations(ctx, id)
	if err != nil {
		return unavailable(SubScorePolicyCompliance, err)
	}

	// Distinct by policy and resource: the same violation reported twice
	// counts once.
	seen := make(map[string]bool, len(violations))
	distinct := 0
	for _, v := range violations {
		key := v.PolicyID + "\x00" + v.Resource
		if !seen[key] {
			seen[key] = true
			distinct++
		}
	}

	points := distinct * model.ComplianceViolationPoints
	if points > model.ComplianceMaxPoints {
		points = model.ComplianceMaxPoints
	}

	return model.SubScore{
		Name:     SubScorePolicyCompliance,
		Points:   points,
		Evidence: fmt.Sprintf("%d distinct uncompensated policy violations", distinct),
	}
}
