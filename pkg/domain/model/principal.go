package model

import (
	"time"

	"github.com/secmon-lab/warden/pkg/domain/types"
)

// PrincipalStatus represents the directory account status
type PrincipalStatus string

const (
	PrincipalActive   PrincipalStatus = "active"
	PrincipalDisabled PrincipalStatus = "disabled"
)

// Principal is a directory user account as seen by the engine
type Principal struct {
	ID         types.PrincipalID
	UserName   string
	Email      string
	Department string
	Roles      []string
	Status     PrincipalStatus
	HireDate   time.Time
}

// PrincipalFilter narrows ListPrincipals results
type PrincipalFilter struct {
	Status     PrincipalStatus
	Department string
}

// Matches reports whether the principal satisfies the filter
func (f PrincipalFilter) Matches(p *Principal) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Department != "" && p.Department != f.Department {
		return false
	}
	return true
}
