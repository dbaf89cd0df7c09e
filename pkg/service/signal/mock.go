package signal

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// MockProtection is a seeded identity-protection source for development and
// tests. Principals without a seeded level report "none".
type MockProtection struct {
	mu     sync.RWMutex
	levels map[types.PrincipalID]interfaces.ProtectionLevel
}

var _ interfaces.IdentityProtectionSource = &MockProtection{}

func NewMockProtection() *MockProtection {
	return &MockProtection{
		levels: make(map[types.PrincipalID]interfaces.ProtectionLevel),
	}
}

// SetLevel seeds the protection level for a principal
func (m *MockProtection) SetLevel(id types.PrincipalID, level interfaces.ProtectionLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[id] = level
}

func (m *MockProtection) RiskLevel(ctx context.Context, id types.PrincipalID) (interfaces.ProtectionLevel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if level, ok := m.levels[id]; ok {
		return level, nil
	}
	return interfaces.ProtectionNone, nil
}

// MockAnalytics is a seeded security-analytics source
type MockAnalytics struct {
	mu          sync.RWMutex
	signIns     map[types.PrincipalID][]interfaces.AnalyticsEvent
	escalations map[types.PrincipalID][]interfaces.AnalyticsEvent
	activity    map[types.PrincipalID]int
	candidates  []types.PrincipalID
}

var _ interfaces.AnalyticsSource = &MockAnalytics{}

func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{
		signIns:     make(map[types.PrincipalID][]interfaces.AnalyticsEvent),
		escalations: make(map[types.PrincipalID][]interfaces.AnalyticsEvent),
		activity:    make(map[types.PrincipalID]int),
	}
}

// AddRiskySignIns seeds n risky sign-in detections for a principal
func (m *MockAnalytics) AddRiskySignIns(id types.PrincipalID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.signIns[id] = append(m.signIns[id], interfaces.AnalyticsEvent{
			OccurredAt: time.Now().UTC(),
			Kind:       "risky_signin",
		})
	}
}

// AddPrivilegeEscalations seeds n privilege-escalation detections
func (m *MockAnalytics) AddPrivilegeEscalations(id types.PrincipalID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		m.escalations[id] = append(m.escalations[id], interfaces.AnalyticsEvent{
			OccurredAt: time.Now().UTC(),
			Kind:       "privilege_escalation",
		})
	}
}

// SetActivity seeds the total event count for a principal
func (m *MockAnalytics) SetActivity(id types.PrincipalID, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity[id] = count
}

// SetCandidates seeds the auto-mitigation candidate list
func (m *MockAnalytics) SetCandidates(ids ...types.PrincipalID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates = append([]types.PrincipalID(nil), ids...)
}

func (m *MockAnalytics) RiskySignIns(ctx context.Context, id types.PrincipalID, window time.Duration) ([]interfaces.AnalyticsEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]interfaces.AnalyticsEvent(nil), m.signIns[id]...), nil
}

func (m *MockAnalytics) PrivilegeEscalations(ctx context.Context, id types.PrincipalID, window time.Duration) ([]interfaces.AnalyticsEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]interfaces.AnalyticsEvent(nil), m.escalations[id]...), nil
}

func (m *MockAnalytics) EventCount(ctx context.Context, id types.PrincipalID, window time.Duration) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activity[id], nil
}

func (m *MockAnalytics) MitigationCandidates(ctx context.Context) ([]types.PrincipalID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.PrincipalID(nil), m.candidates...), nil
}

// MockBaseline is a seeded behavioral-baseline source
type MockBaseline struct {
	mu       sync.RWMutex
	elevated map[types.PrincipalID]bool
}

var _ interfaces.BaselineSource = &MockBaseline{}

func NewMockBaseline() *MockBaseline {
	return &MockBaseline{
		elevated: make(map[types.PrincipalID]bool),
	}
}

// SetElevated seeds the baseline state for a principal
func (m *MockBaseline) SetElevated(id types.PrincipalID, elevated bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elevated[id] = elevated
}

func (m *MockBaseline) Elevated(ctx context.Context, id types.PrincipalID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.elevated[id], nil
}

// MockCompliance is a seeded policy-compliance source
type MockCompliance struct {
	mu         sync.RWMutex
	violations map[types.PrincipalID][]interfaces.ComplianceViolation
}

var _ interfaces.ComplianceSource = &MockCompliance{}

func NewMockCompliance() *MockCompliance {
	return &MockCompliance{
		violations: make(map[types.PrincipalID][]interfaces.ComplianceViolation),
	}
}

// AddViolation seeds an uncompensated violation for a principal
func (m *MockCompliance) AddViolation(id types.PrincipalID, v interfaces.ComplianceViolation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violations[id] = append(m.violations[id], v)
}

func (m *MockCompliance) Violations(ctx context.Context, id types.PrincipalID) ([]interfaces.ComplianceViolation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]interfaces.ComplianceViolation(nil), m.violations[id]...), nil
}
