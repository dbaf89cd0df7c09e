package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
	"github.com/secmon-lab/warden/pkg/domain/model"
	"github.com/secmon-lab/warden/pkg/domain/types"
)

// Mock is an in-memory directory for development and tests. All operations
// are safe for concurrent use.
type Mock struct {
	mu         sync.RWMutex
	principals map[types.PrincipalID]*model.Principal
	groups     map[types.GroupID]*model.Group
	blocks     map[types.PrincipalID]string
	elevations map[types.RequestID]string
	nextGroup  int
}

var _ interfaces.Directory = &Mock{}

// MockOption configures the mock directory
type MockOption func(*Mock)

// WithPrincipals seeds the directory with principals
func WithPrincipals(principals ...*model.Principal) MockOption {
	return func(m *Mock) {
		for _, p := range principals {
			m.principals[p.ID] = p
		}
	}
}

// NewMock creates an empty in-memory directory
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		principals: make(map[types.PrincipalID]*model.Principal),
		groups:     make(map[types.GroupID]*model.Group),
		blocks:     make(map[types.PrincipalID]string),
		elevations: make(map[types.RequestID]string),
		nextGroup:  1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMockWithSeed creates a mock directory pre-populated with a small set of
// principals, matching the development fixtures.
func NewMockWithSeed() *Mock {
	return NewMock(WithPrincipals(
		&model.Principal{
			ID:         "user001",
			UserName:   "john.doe",
			Email:      "john.doe@example.com",
			Department: "Engineering",
			Roles:      []string{"Developer", "Team Lead"},
			Status:     model.PrincipalActive,
			HireDate:   time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		&model.Principal{
			ID:         "user002",
			UserName:   "jane.smith",
			Email:      "jane.smith@example.com",
			Department: "Finance",
			Roles:      []string{"Financial Analyst"},
			Status:     model.PrincipalActive,
			HireDate:   time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		&model.Principal{
			ID:         "user003",
			UserName:   "bob.wilson",
			Email:      "bob.wilson@example.com",
			Department: "Security",
			Roles:      []string{"Security Analyst"},
			Status:     model.PrincipalActive,
			HireDate:   time.Date(2020, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	))
}

func copyPrincipal(p *model.Principal) *model.Principal {
	copied := *p
	copied.Roles = append([]string(nil), p.Roles...)
	return &copied
}

func copyGroup(g *model.Group) *model.Group {
	copied := *g
	copied.Members = append([]types.PrincipalID(nil), g.Members...)
	return &copied
}

func (m *Mock) GetPrincipal(ctx context.Context, id types.PrincipalID) (*model.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, exists := m.principals[id]
	if !exists {
		return nil, goerr.New("principal not found", goerr.V("principal_id", id))
	}
	return copyPrincipal(p), nil
}

func (m *Mock) ListPrincipals(ctx context.Context, filter model.PrincipalFilter) ([]*model.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*model.Principal
	for _, p := range m.principals {
		if filter.Matches(p) {
			result = append(result, copyPrincipal(p))
		}
	}
	return result, nil
}

func (m *Mock) DisablePrincipal(ctx context.Context, id types.PrincipalID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, exists := m.principals[id]
	if !exists {
		return goerr.New("principal not found", goerr.V("principal_id", id))
	}
	p.Status = model.PrincipalDisabled
	return nil
}

func (m *Mock) BlockConditionalAccess(ctx context.Context, id types.PrincipalID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.principals[id]; !exists {
		return goerr.New("principal not found", goerr.V("principal_id", id))
	}
	m.blocks[id] = reason
	return nil
}

func (m *Mock) UnblockConditionalAccess(ctx context.Context, id types.PrincipalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blocks, id)
	if p, exists := m.principals[id]; exists && p.Status == model.PrincipalDisabled {
		p.Status = model.PrincipalActive
	}
	return nil
}

// IsBlocked reports whether a conditional access block is in place for the
// principal. Test helper.
func (m *Mock) IsBlocked(id types.PrincipalID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, blocked := m.blocks[id]
	return blocked
}

func (m *Mock) ListGroups(ctx context.Context, nameFilter string) ([]*model.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*model.Group
	for _, g := range m.groups {
		if nameFilter != "" && !strings.EqualFold(g.DisplayName, nameFilter) {
			continue
		}
		result = append(result, copyGroup(g))
	}
	return result, nil
}

func (m *Mock) CreateGroup(ctx context.Context, displayName string) (*model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group := &model.Group{
		ID:          types.GroupID(fmt.Sprintf("grp-%04d", m.nextGroup)),
		DisplayName: displayName,
		Members:     []types.PrincipalID{},
	}
	m.nextGroup++
	m.groups[group.ID] = group
	return copyGroup(group), nil
}

func (m *Mock) AddGroupMembers(ctx context.Context, id types.GroupID, members []types.PrincipalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, exists := m.groups[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrGroupNotFound, "cannot add members", goerr.V("group_id", id))
	}

	for _, member := range members {
		if !group.HasMember(member) {
			group.Members = append(group.Members, member)
		}
	}
	return nil
}

func (m *Mock) RemoveGroupMembers(ctx context.Context, id types.GroupID, members []types.PrincipalID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, exists := m.groups[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrGroupNotFound, "cannot remove members", goerr.V("group_id", id))
	}

	remove := make(map[types.PrincipalID]bool, len(members))
	for _, member := range members {
		remove[member] = true
	}

	kept := group.Members[:0]
	for _, member := range group.Members {
		if !remove[member] {
			kept = append(kept, member)
		}
	}
	group.Members = kept
	return nil
}

func (m *Mock) ApproveElevation(ctx context.Context, id types.RequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elevations[id] = "approved"
	return nil
}

func (m *Mock) RejectElevation(ctx context.Context, id types.RequestID, justification string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elevations[id] = "rejected"
	return nil
}

// ElevationState returns the recorded decision for a request ID. Test helper.
func (m *Mock) ElevationState(id types.RequestID) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.elevations[id]
}
