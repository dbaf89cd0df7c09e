package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/model/config"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/repository/memory"
	"github.com/secmon-lab/warden/pkg/service/directory"
	"github.com/secmon-lab/warden/pkg/service/signal"
	"github.com/secmon-lab/warden/pkg/usecase"
)

// testEnv bundles the fixtures most use case tests need
type testEnv struct {
	repo       *memory.Memory
	dir        *directory.Mock
	protection *signal.MockProtection
	analytics  *signal.MockAnalytics
	baseline   *signal.MockBaseline
	compliance *signal.MockCompliance
	uc         *usecase.UseCases
}

func newTestEnv(opts ...usecase.Option) *testEnv {
	env := &testEnv{
		repo:       memory.New(),
		dir:        directory.NewMockWithSeed(),
		protection: signal.NewMockProtection(),
		analytics:  signal.NewMockAnalytics(),
		baseline:   signal.NewMockBaseline(),
		compliance: signal.NewMockCompliance(),
	}
	env.uc = usecase.New(env.repo, env.dir, usecase.Sources{
		Protection: env.protection,
		Analytics:  env.analytics,
		Baseline:   env.baseline,
		Compliance: env.compliance,
	}, opts...)
	return env
}

// flakyDirectory wraps a Directory and fails selected operations
type flakyDirectory struct {
	interfaces.Directory

	failBlock      bool
	failDisable    bool
	failUnblock    bool
	failElevation  bool
	failRemoveFrom map[types.GroupID]bool

	mu           sync.Mutex
	unblockCalls int
}

func (d *flakyDirectory) BlockConditionalAccess(ctx context.Context, id types.PrincipalID, reason string) error {
	if d.failBlock {
		return goerr.New("conditional access not available")
	}
	return d.Directory.BlockConditionalAccess(ctx, id, reason)
}

func (d *flakyDirectory) DisablePrincipal(ctx context.Context, id types.PrincipalID, reason string) error {
	if d.failDisable {
		return goerr.New("disable call rejected")
	}
	return d.Directory.DisablePrincipal(ctx, id, reason)
}

func (d *flakyDirectory) UnblockConditionalAccess(ctx context.Context, id types.PrincipalID) error {
	d.mu.Lock()
	d.unblockCalls++
	d.mu.Unlock()

	if d.failUnblock {
		return goerr.New("unblock call rejected")
	}
	return d.Directory.UnblockConditionalAccess(ctx, id)
}

func (d *flakyDirectory) RemoveGroupMembers(ctx context.Context, id types.GroupID, members []types.PrincipalID) error {
	if d.failRemoveFrom[id] {
		return goerr.New("removal rejected", goerr.V("group_id", id))
	}
	return d.Directory.RemoveGroupMembers(ctx, id, members)
}

func (d *flakyDirectory) ApproveElevation(ctx context.Context, id types.RequestID) error {
	if d.failElevation {
		return goerr.New("elevation API unavailable")
	}
	return d.Directory.ApproveElevation(ctx, id)
}

func (d *flakyDirectory) RejectElevation(ctx context.Context, id types.RequestID, justification string) error {
	if d.failElevation {
		return goerr.New("elevation API unavailable")
	}
	return d.Directory.RejectElevation(ctx, id, justification)
}

func (d *flakyDirectory) UnblockCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unblockCalls
}

// brokenProtection always fails, for soft-failure tests
type brokenProtection struct{}

func (brokenProtection) RiskLevel(ctx context.Context, id types.PrincipalID) (interfaces.ProtectionLevel, error) {
	return "", goerr.New("protection source unreachable")
}

// recordingNotifier captures approval-channel sends
type recordingNotifier struct {
	mu     sync.Mutex
	cards  []*model.MitigationAction
	alerts []string
}

func (n *recordingNotifier) SendApprovalCard(ctx context.Context, action *model.MitigationAction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cards = append(n.cards, action)
	return nil
}

func (n *recordingNotifier) SendAlert(ctx context.Context, principalID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, text)
	return nil
}

func (n *recordingNotifier) Cards() []*model.MitigationAction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*model.MitigationAction(nil), n.cards...)
}

func (n *recordingNotifier) waitForCard(timeout time.Duration) *model.MitigationAction {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cards := n.Cards(); len(cards) > 0 {
			return cards[len(cards)-1]
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func engineWithThreshold(threshold int) *config.EngineConfig {
	cfg := config.NewEngineConfig()
	cfg.MitigationThreshold = threshold
	return cfg
}
