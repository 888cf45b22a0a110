package credentials

import (
	"time"
)

// DefaultExpiryMargin is how much lifetime a credential must have left to be
// used. Operations started just before expiry would otherwise fail mid-flight.
const DefaultExpiryMargin = 5 * time.Minute

// UserSnapshot is the identity recorded at login time
type UserSnapshot struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credential is the token issued at the end of a device flow. A nil
// ExpiresAt means the server did not advertise an expiry.
type Credential struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	TokenType    string        `json:"token_type"`
	Scope        string        `json:"scope,omitempty"`
	ExpiresAt    *time.Time    `json:"expires_at"`
	CreatedAt    time.Time     `json:"created_at"`
	User         *UserSnapshot `json:"user,omitempty"`
}

// IsExpired reports whether cred has less than margin left at now.
// Credentials without an expiry are treated as expired.
func IsExpired(cred *Credential, now time.Time, margin time.Duration) bool {
	if cred == nil || cred.ExpiresAt == nil {
		return true
	}
	return cred.ExpiresAt.Sub(now) < margin
}
