package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the use case layer
var (
	ErrPrincipalNotFound = goerr.New("principal not found")
)

// Context keys for error values
const (
	PrincipalIDKey = "principal_id"
	GroupIDKey     = "group_id"
	TokenKey       = "token"
)
