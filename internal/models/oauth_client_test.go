package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOAuthClientAllowsGrant(t *testing.T) {
	client := &OAuthClient{GrantTypes: "password urn:ietf:params:oauth:grant-type:device_code"}
	assert.True(t, client.AllowsGrant("password"))
	assert.True(t, client.AllowsGrant("urn:ietf:params:oauth:grant-type:device_code"))
	assert.False(t, client.AllowsGrant("client_credentials"))

	assert.False(t, (&OAuthClient{}).AllowsGrant("password"))
}

func TestOAuthClientAllowsScope(t *testing.T) {
	tests := []struct {
		name    string
		scopes  string
		request string
		want    bool
	}{
		{"unrestricted client", "", "anything at all", true},
		{"listed scope", "chat profile", "chat", true},
		{"every requested scope listed", "chat profile", "profile chat", true},
		{"one scope not listed", "chat", "chat admin", false},
		{"empty request", "chat", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &OAuthClient{Scopes: tt.scopes}
			assert.Equal(t, tt.want, client.AllowsScope(tt.request))
		})
	}
}
