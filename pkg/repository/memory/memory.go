package memory

import (
	"github.com/secmon-lab/warden/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	action *actionRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		action: newActionRepository(),
	}
}

func (m *Memory) Action() interfaces.ActionRepository {
	return m.action
}

func (m *Memory) Close() error {
	return nil
}
