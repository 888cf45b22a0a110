package models

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OAuthClient is a registered application. It satisfies the go-oauth2
// ClientInfo and ClientPasswordVerifier interfaces.
type OAuthClient struct {
	ID         string         `gorm:"primaryKey" json:"client_id"`
	Secret     string         `json:"-"` // bcrypt hash, empty for public clients
	Name       string         `json:"name"`
	Domain     string         `json:"domain"`
	UserID     uint           `json:"user_id"`     // owner, for admin management
	Scopes     string         `json:"scopes"`      // Space-separated list of allowed scopes
	GrantTypes string         `json:"grant_types"` // Space-separated list of grant types
	Public     bool           `json:"public"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

func (c *OAuthClient) GetID() string {
	return c.ID
}

func (c *OAuthClient) GetSecret() string {
	return c.Secret
}

func (c *OAuthClient) GetDomain() string {
	return c.Domain
}

func (c *OAuthClient) IsPublic() bool {
	return c.Public
}

func (c *OAuthClient) GetUserID() string {
	if c.UserID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(c.UserID), 10)
}

// VerifyPassword compares a plain text secret against the stored hash.
// Public clients carry no secret and always pass.
func (c *OAuthClient) VerifyPassword(secret string) bool {
	if c.Public {
		return true
	}
	if c.Secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(secret)) == nil
}

// AllowsGrant reports whether grant is listed in GrantTypes. An empty list
// allows nothing.
func (c *OAuthClient) AllowsGrant(grant string) bool {
	for _, g := range strings.Fields(c.GrantTypes) {
		if g == grant {
			return true
		}
	}
	return false
}

// AllowsScope reports whether every space-separated entry of scope is listed
// in Scopes. A client with no Scopes is unrestricted.
func (c *OAuthClient) AllowsScope(scope string) bool {
	allowed := strings.Fields(c.Scopes)
	if len(allowed) == 0 {
		return true
	}
	for _, requested := range strings.Fields(scope) {
		found := false
		for _, a := range allowed {
			if a == requested {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
