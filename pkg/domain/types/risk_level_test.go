package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/warden/pkg/domain/types"
)

func TestRiskLevelFromScore(t *testing.T) {
	cases := []struct {
		score int
		level types.RiskLevel
	}{
		{0, types.RiskLevelLow},
		{29, types.RiskLevelLow},
		{30, types.RiskLevelMedium},
		{49, types.RiskLevelMedium},
		{50, types.RiskLevelHigh},
		{74, types.RiskLevelHigh},
		{75, types.RiskLevelCritical},
		{100, types.RiskLevelCritical},
	}

	for _, tc := range cases {
		gt.Value(t, types.RiskLevelFromScore(tc.score)).Equal(tc.level)
	}
}

func TestParseRiskLevel(t *testing.T) {
	level, err := types.ParseRiskLevel("high")
	gt.NoError(t, err).Required()
	gt.Value(t, level).Equal(types.RiskLevelHigh)

	_, err = types.ParseRiskLevel("apocalyptic")
	gt.Value(t, err).NotNil()
}

func TestDecisionKind(t *testing.T) {
	for _, kind := range types.AllDecisionKinds() {
		gt.Bool(t, kind.IsValid()).True()
	}
	gt.Bool(t, types.DecisionKind("shrug").IsValid()).False()
}

func TestNewCorrelationToken(t *testing.T) {
	a := types.NewCorrelationToken()
	b := types.NewCorrelationToken()

	gt.NoError(t, a.Validate())
	gt.Value(t, a).NotEqual(b)
}
