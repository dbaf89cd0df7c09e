package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by all repository backends
var (
	ErrActionNotFound = goerr.New("mitigation action not found")
	ErrActionExists   = goerr.New("mitigation action already exists")

	// ErrActionNotPending is returned by Resolve when the action is not in
	// pending_review state. Duplicate callback deliveries hit this and
	// become no-ops.
	ErrActionNotPending = goerr.New("mitigation action is not pending review")
)

// ErrGroupNotFound is returned by directory backends for membership
// operations on a group that does not exist.
var ErrGroupNotFound = goerr.New("group not found")
