package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// PrincipalID identifies a principal (user account) in the directory
type PrincipalID string

// Validate checks if the PrincipalID is valid
func (p PrincipalID) Validate() error {
	if p == "" {
		return goerr.New("principal ID cannot be empty")
	}
	return nil
}

// String returns the string representation of PrincipalID
func (p PrincipalID) String() string {
	return string(p)
}

// GroupID identifies a directory group
type GroupID string

// Validate checks if the GroupID is valid
func (g GroupID) Validate() error {
	if g == "" {
		return goerr.New("group ID cannot be empty")
	}
	return nil
}

// String returns the string representation of GroupID
func (g GroupID) String() string {
	return string(g)
}

// RequestID identifies a privileged elevation request in the directory.
// It is a separate correlation domain from CorrelationToken.
type RequestID string

// Validate checks if the RequestID is valid
func (r RequestID) Validate() error {
	if r == "" {
		return goerr.New("request ID cannot be empty")
	}
	return nil
}

// String returns the string representation of RequestID
func (r RequestID) String() string {
	return string(r)
}

// CorrelationToken links a pending mitigation action to its asynchronous
// human resolution. Opaque, unique per action.
type CorrelationToken string

// NewCorrelationToken generates a new unique correlation token
func NewCorrelationToken() CorrelationToken {
	return CorrelationToken(uuid.New().String())
}

// Validate checks if the CorrelationToken is valid
func (t CorrelationToken) Validate() error {
	if t == "" {
		return goerr.New("correlation token cannot be empty")
	}
	return nil
}

// String returns the string representation of CorrelationToken
func (t CorrelationToken) String() string {
	return string(t)
}
