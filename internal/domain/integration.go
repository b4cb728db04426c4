package domain

import "time"

// Integration is an organization's OAuth-authenticated connection to one
// external platform. Unique on (OrgID, Platform). Token fields hold the
// encrypted-at-rest values; use application.TokenManager to read or write
// them in plaintext.
type Integration struct {
	ID           string
	OrgID        string
	Platform     Platform
	AccessToken  string // encrypted
	RefreshToken string // encrypted, may be empty
	ExpiresAt    *time.Time
	AccountID    string
	AccountName  string
	Connected    bool
	LastSyncAt   *time.Time
	Metadata     map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenExpired reports whether the access token is past its provider-supplied
// expiry. Platforms that issue non-expiring tokens leave ExpiresAt nil.
func (i *Integration) TokenExpired(now time.Time) bool {
	if i.ExpiresAt == nil {
		return false
	}
	return now.After(*i.ExpiresAt)
}

// OAuthState is an ephemeral single-use token binding an in-flight
// authorization attempt to (org, user, platform). Consumed exactly once.
type OAuthState struct {
	ID        string
	OrgID     string
	UserID    string
	Platform  Platform
	State     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the state token is past its TTL.
func (s *OAuthState) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
