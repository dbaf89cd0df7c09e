package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

func TestNewRiskAssessment(t *testing.T) {
	now := time.Now().UTC()

	t.Run("sums sub-scores", func(t *testing.T) {
		a := model.NewRiskAssessment("user001", []model.SubScore{
			{Name: "identity_protection", Points: 50},
			{Name: "behavioral_baseline", Points: 20},
		}, now)

		gt.Number(t, a.Score).Equal(70)
		gt.Value(t, a.Level).Equal(types.RiskLevelHigh)
	})

	t.Run("clamps to 100", func(t *testing.T) {
		a := model.NewRiskAssessment("user001", []model.SubScore{
			{Name: "identity_protection", Points: 90},
			{Name: "security_analytics", Points: 100},
		}, now)

		gt.Number(t, a.Score).Equal(100)
		gt.Value(t, a.Level).Equal(types.RiskLevelCritical)
	})

	t.Run("unavailable sub-scores contribute nothing", func(t *testing.T) {
		a := model.NewRiskAssessment("user001", []model.SubScore{
			{Name: "identity_protection", Points: 90, Unavailable: true},
			{Name: "behavioral_baseline", Points: 20},
		}, now)

		gt.Number(t, a.Score).Equal(20)
	})

	t.Run("fraction is derived from the integer score", func(t *testing.T) {
		a := model.NewRiskAssessment("user001", []model.SubScore{
			{Name: "behavioral_baseline", Points: 20},
		}, now)

		gt.Value(t, a.Fraction()).Equal(0.2)
	})
}

func TestMitigationAction_Validate(t *testing.T) {
	t.Run("pending action requires a token", func(t *testing.T) {
		action := &model.MitigationAction{
			PrincipalID: "user001",
			Kind:        types.ActionKindConditionalAccessBlock,
			State:       types.ActionStatePendingReview,
		}
		gt.Value(t, action.Validate()).NotNil()

		action.Token = types.NewCorrelationToken()
		gt.NoError(t, action.Validate())
	})

	t.Run("monitor action needs no token", func(t *testing.T) {
		action := &model.MitigationAction{
			PrincipalID: "user001",
			Kind:        types.ActionKindMonitor,
			State:       types.ActionStateApplied,
		}
		gt.NoError(t, action.Validate())
	})

	t.Run("missing principal fails", func(t *testing.T) {
		action := &model.MitigationAction{
			Kind:  types.ActionKindMonitor,
			State: types.ActionStateApplied,
		}
		gt.Value(t, action.Validate()).NotNil()
	})
}
