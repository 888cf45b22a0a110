package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/config"
	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
	"github.com/franciscosanchezn/gin-chat-auth/internal/deviceflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var testNow = time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(config.CLIConfig{
		ServerURL: server.URL + "/",
		ClientID:  "chat-cli",
		Scope:     "chat",
	}, WithClock(clocktesting.NewFakePassiveClock(testNow)), WithRetry(3, time.Millisecond))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestRequestDeviceCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/device/code", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "chat-cli", r.PostForm.Get("client_id"))
		assert.Equal(t, "chat", r.PostForm.Get("scope"))

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"device_code":               "dc",
			"user_code":                 "WDJB-MJHT",
			"verification_uri":          "http://localhost:8080/device",
			"verification_uri_complete": "http://localhost:8080/device?user_code=WDJB-MJHT",
			"expires_in":                900,
			"interval":                  5,
		})
	})

	reg, err := c.RequestDeviceCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dc", reg.DeviceCode)
	assert.Equal(t, "WDJB-MJHT", reg.UserCode)
	assert.Equal(t, 900, reg.ExpiresIn)
	assert.Equal(t, 5*time.Second, reg.IntervalDuration())
}

func TestRequestDeviceCodeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server_error"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"device_code": "dc", "user_code": "WDJB-MJHT",
			"verification_uri": "http://localhost:8080/device", "expires_in": 900, "interval": 5,
		})
	})

	reg, err := c.RequestDeviceCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dc", reg.DeviceCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRequestDeviceCodeClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client", "error_description": "Unknown client"})
	})

	_, err := c.RequestDeviceCode(context.Background())
	require.Error(t, err)
	assert.True(t, IsAPIError(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "invalid_client")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequestDeviceCodeMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("<html>proxy error</html>"))
	})

	_, err := c.RequestDeviceCode(context.Background())
	assert.ErrorIs(t, err, deviceflow.ErrProtocol)
}

func TestExchangeDeviceCodeClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   interface{}
		want   deviceflow.Result
	}{
		{name: "pending", status: http.StatusBadRequest, body: map[string]string{"error": "authorization_pending"}, want: deviceflow.Pending{}},
		{name: "slow down", status: http.StatusBadRequest, body: map[string]string{"error": "slow_down"}, want: deviceflow.SlowDown{}},
		{name: "denied", status: http.StatusBadRequest, body: map[string]string{"error": "access_denied"}, want: deviceflow.Denied{}},
		{name: "expired", status: http.StatusBadRequest, body: map[string]string{"error": "expired_token"}, want: deviceflow.Expired{}},
		{
			name:   "other",
			status: http.StatusBadRequest,
			body:   map[string]string{"error": "invalid_grant", "error_description": "invalid device code"},
			want:   deviceflow.OtherError{Code: "invalid_grant", Description: "invalid device code"},
		},
		{
			name:   "invalid client",
			status: http.StatusUnauthorized,
			body:   map[string]string{"error": "invalid_client"},
			want:   deviceflow.OtherError{Code: "invalid_client"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, deviceflow.GrantType, r.PostForm.Get("grant_type"))
				assert.Equal(t, "dc", r.PostForm.Get("device_code"))
				assert.Equal(t, "chat-cli", r.PostForm.Get("client_id"))
				writeJSON(w, tt.status, tt.body)
			})

			result, err := c.ExchangeDeviceCode(context.Background(), "dc")
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestExchangeDeviceCodeSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        "chat",
			"user":         map[string]interface{}{"id": 4, "name": "Ada", "email": "ada@example.com"},
		})
	})

	result, err := c.ExchangeDeviceCode(context.Background(), "dc")
	require.NoError(t, err)

	success, ok := result.(deviceflow.Success)
	require.True(t, ok)
	cred := success.Credential
	assert.Equal(t, "at", cred.AccessToken)
	assert.Equal(t, "chat", cred.Scope)
	assert.Equal(t, testNow, cred.CreatedAt)
	require.NotNil(t, cred.ExpiresAt)
	assert.Equal(t, testNow.Add(time.Hour), *cred.ExpiresAt)
	assert.Equal(t, &credentials.UserSnapshot{ID: 4, Name: "Ada", Email: "ada@example.com"}, cred.User)
}

func TestExchangeDeviceCodeWithoutExpiry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"access_token": "at"})
	})

	result, err := c.ExchangeDeviceCode(context.Background(), "dc")
	require.NoError(t, err)
	cred := result.(deviceflow.Success).Credential
	assert.Nil(t, cred.ExpiresAt)
	assert.Equal(t, "Bearer", cred.TokenType)
}

func TestExchangeDeviceCodeProtocolViolations(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "200 without access_token", handler: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"token_type": "Bearer"})
		}},
		{name: "200 not json", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
		{name: "400 not json", handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("bad request"))
		}},
		{name: "400 without error code", handler: func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "nope"})
		}},
		{name: "unexpected status", handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.ExchangeDeviceCode(context.Background(), "dc")
			assert.ErrorIs(t, err, deviceflow.ErrProtocol)
		})
	}
}

func TestExchangeDeviceCodeServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.ExchangeDeviceCode(context.Background(), "dc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, deviceflow.ErrProtocol)
	assert.True(t, IsAPIError(err, http.StatusBadGateway))
}

func TestWhoAmI(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/me", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id": 4, "email": "ada@example.com", "name": "Ada", "role": "user", "client_id": "chat-cli",
		})
	})

	identity, err := c.WhoAmI(context.Background(), &credentials.Credential{AccessToken: "good-token", TokenType: "Bearer"})
	require.NoError(t, err)
	assert.Equal(t, uint(4), identity.ID)
	assert.Equal(t, "ada@example.com", identity.Email)

	_, err = c.WhoAmI(context.Background(), &credentials.Credential{AccessToken: "stale", TokenType: "Bearer"})
	assert.ErrorIs(t, err, credentials.ErrUnauthenticated)
}
