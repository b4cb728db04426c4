package domain

import "errors"

// Error taxonomy for the sync core. Platform clients and services return
// these sentinels (possibly wrapped) so callers can branch with errors.Is.
var (
	// ErrUnsupportedPlatform means no configuration exists for the requested
	// platform. Fatal to the request, never retried.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrInvalidOAuthState means the state token is unknown or already used.
	ErrInvalidOAuthState = errors.New("invalid oauth state")

	// ErrExpiredOAuthState means the state token exists but is past its TTL.
	ErrExpiredOAuthState = errors.New("oauth state expired")

	// ErrAuthenticationExpired means the platform rejected the access token.
	// Callers may refresh credentials and retry the original call once.
	ErrAuthenticationExpired = errors.New("platform authentication expired")

	// ErrSyncInProgress means another run holds the integration's sync lock.
	// The work is not lost: callers reschedule the task with a delay.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrIntegrationNotFound means the integration no longer exists or was
	// disconnected. Tasks treat this as a silent no-op.
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrDataIntegrity means a uniqueness or reference constraint was violated
	// outside the expected upsert path. Logged, never retried.
	ErrDataIntegrity = errors.New("data integrity violation")
)
