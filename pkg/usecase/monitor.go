package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

// DefaultDormantWindow is how far back the dormant scan looks for activity
const DefaultDormantWindow = 90 * 24 * time.Hour

// scanConcurrency bounds concurrent analytics queries during a dormant scan
const scanConcurrency = 8

// MonitorUseCase drives scheduled monitoring: the dormant-principal scan and
// the evaluation of analytics-surfaced mitigation candidates.
type MonitorUseCase struct {
	directory  interfaces.Directory
	analytics  interfaces.AnalyticsSource
	mitigation *MitigationUseCase
}

func newMonitorUseCase(dir interfaces.Directory, analytics interfaces.AnalyticsSource, mitigation *MitigationUseCase) *MonitorUseCase {
	return &MonitorUseCase{
		directory:  dir,
		analytics:  analytics,
		mitigation: mitigation,
	}
}

// DormantPrincipal is one scan hit: an active account with no recorded
// activity inside the window.
type DormantPrincipal struct {
	Principal *model.Principal
	Window    time.Duration
}

// ScanDormant finds active principals with zero analytics activity within
// the window. Principals whose activity cannot be determined are skipped,
// not reported.
func (uc *MonitorUseCase) ScanDormant(ctx context.Context, window time.Duration) ([]*DormantPrincipal, error) {
	if uc.analytics == nil {
		return nil, goerr.New("analytics source not configured")
	}
	if window <= 0 {
		window = DefaultDormantWindow
	}

	principals, err := uc.directory.ListPrincipals(ctx, model.PrincipalFilter{Status: model.PrincipalActive})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list active principals")
	}

	var (
		mu      sync.Mutex
		dormant []*DormantPrincipal
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(scanConcurrency)

	for _, p := range principals {
		eg.Go(func() error {
			count, err := uc.analytics.EventCount(egCtx, p.ID, window)
			if err != nil {
				logging.From(egCtx).Warn("activity lookup failed, skipping principal",
					"principal_id", p.ID,
					"error", err,
				)
				return nil
			}
			if count > 0 {
				return nil
			}

			mu.Lock()
			dormant = append(dormant, &DormantPrincipal{Principal: p, Window: window})
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "dormant scan aborted")
	}

	logging.From(ctx).Info("dormant scan completed",
		"scanned", len(principals),
		"dormant", len(dormant),
		"window", window,
	)

	return dormant, nil
}

// EvaluateCandidates pulls the analytics mitigation candidates and runs the
// full assess-then-act pipeline on each. One failed evaluation does not stop
// the rest; failures are logged and the successful results returned.
func (uc *MonitorUseCase) EvaluateCandidates(ctx context.Context) ([]*EvaluationResult, error) {
	if uc.analytics == nil {
		return nil, goerr.New("analytics source not configured")
	}

	candidates, err := uc.analytics.MitigationCandidates(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch mitigation candidates")
	}

	logger := logging.From(ctx)
	results := make([]*EvaluationResult, 0, len(candidates))

	for _, id := range candidates {
		result, err := uc.mitigation.Evaluate(ctx, id)
		if err != nil {
			logger.Error("candidate evaluation failed",
				"principal_id", id,
				"error", err,
			)
			continue
		}
		results = append(results, result)

		if result.Action.Kind != types.ActionKindMonitor {
			logger.Info("candidate mitigated",
				"principal_id", id,
				"token", result.Action.Token,
				"kind", result.Action.Kind,
			)
		}
	}

	return results, nil
}
