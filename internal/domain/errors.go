package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrDaemonOffline indicates the download daemon is unreachable
	ErrDaemonOffline = errors.New("download daemon is unreachable")

	// ErrAuthFailed indicates the bearer token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNotAdmin indicates the token lacks the admin role
	ErrNotAdmin = errors.New("admin privileges required")

	// ErrModelNotFound indicates the catalog entry does not exist
	ErrModelNotFound = errors.New("model not found in catalog")
)
