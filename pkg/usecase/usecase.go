package usecase

import (
	"time"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model/config"
)

// DefaultSourceTimeout bounds each signal-source call during an assessment.
// A timed-out source degrades to a zero-contribution soft failure.
const DefaultSourceTimeout = 10 * time.Second

// Sources bundles the signal-source capabilities consumed by the risk
// aggregator. Nil sources are treated as unavailable.
type Sources struct {
	Protection interfaces.IdentityProtectionSource
	Analytics  interfaces.AnalyticsSource
	Baseline   interfaces.BaselineSource
	Compliance interfaces.ComplianceSource
}

type UseCases struct {
	repo      interfaces.Repository
	directory interfaces.Directory
	notifier  interfaces.ApprovalNotifier
	sources   Sources
	engineCfg *config.EngineConfig

	sourceTimeout time.Duration

	Risk       *RiskUseCase
	Mitigation *MitigationUseCase
	Approval   *ApprovalUseCase
	Group      *GroupUseCase
	Monitor    *MonitorUseCase
}

type Option func(*UseCases)

// WithNotifier sets the approval-channel notifier. Without one, approval
// cards and alerts are skipped (logged only).
func WithNotifier(n interfaces.ApprovalNotifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

// WithEngineConfig overrides the engine tuning
func WithEngineConfig(cfg *config.EngineConfig) Option {
	return func(uc *UseCases) {
		uc.engineCfg = cfg
	}
}

// WithSourceTimeout overrides the per-source call timeout
func WithSourceTimeout(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.sourceTimeout = d
	}
}

func New(repo interfaces.Repository, dir interfaces.Directory, sources Sources, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:          repo,
		directory:     dir,
		sources:       sources,
		engineCfg:     config.NewEngineConfig(),
		sourceTimeout: DefaultSourceTimeout,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Risk = newRiskUseCase(dir, sources, uc.sourceTimeout)
	uc.Mitigation = newMitigationUseCase(repo, dir, uc.notifier, uc.Risk, uc.engineCfg.MitigationThreshold)
	uc.Approval = newApprovalUseCase(repo, dir, uc.notifier)
	uc.Group = newGroupUseCase(dir, uc.engineCfg)
	uc.Monitor = newMonitorUseCase(dir, sources.Analytics, uc.Mitigation)

	return uc
}
