package deviceflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
)

// GrantType is the token request grant type of RFC 8628
const GrantType = "urn:ietf:params:oauth:grant-type:device_code"

const (
	// DefaultInterval applies when the server omits the polling interval
	DefaultInterval = 5 * time.Second
	// DefaultSlowDownStep is added to the interval on every slow_down
	DefaultSlowDownStep = 5 * time.Second
)

var (
	ErrAccessDenied = errors.New("authorization denied")
	ErrExpiredToken = errors.New("device code expired")
	// ErrTimeout means the local deadline passed before the server reported
	// an outcome. It is distinct from ErrExpiredToken.
	ErrTimeout = errors.New("timed out waiting for authorization")
	// ErrProtocol marks responses that violate the protocol. Polling stops
	// on these rather than retrying.
	ErrProtocol = errors.New("protocol violation")
)

// ServerError carries an error code the poller has no specific handling for
type ServerError struct {
	Code        string
	Description string
}

func (e *ServerError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("server returned %s", e.Code)
	}
	return fmt.Sprintf("server returned %s: %s", e.Code, e.Description)
}

// Registration is the device authorization response
type Registration struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval,omitempty"`
}

func (r Registration) Validate() error {
	if r.DeviceCode == "" || r.UserCode == "" || r.VerificationURI == "" {
		return fmt.Errorf("%w: device authorization response is missing required fields", ErrProtocol)
	}
	if r.ExpiresIn <= 0 {
		return fmt.Errorf("%w: invalid expires_in %d", ErrProtocol, r.ExpiresIn)
	}
	return nil
}

func (r Registration) IntervalDuration() time.Duration {
	if r.Interval <= 0 {
		return DefaultInterval
	}
	return time.Duration(r.Interval) * time.Second
}

func (r Registration) Lifetime() time.Duration {
	return time.Duration(r.ExpiresIn) * time.Second
}

// VerificationURL prefers the URI with the code embedded
func (r Registration) VerificationURL() string {
	if r.VerificationURIComplete != "" {
		return r.VerificationURIComplete
	}
	return r.VerificationURI
}

// Result is the outcome of one token exchange attempt. It is one of Success,
// Pending, SlowDown, Denied, Expired or OtherError.
type Result interface {
	isResult()
}

type Success struct {
	Credential *credentials.Credential
}

type Pending struct{}

type SlowDown struct{}

type Denied struct{}

type Expired struct{}

type OtherError struct {
	Code        string
	Description string
}

func (Success) isResult()    {}
func (Pending) isResult()    {}
func (SlowDown) isResult()   {}
func (Denied) isResult()     {}
func (Expired) isResult()    {}
func (OtherError) isResult() {}

// Exchanger performs a single token request. A non-nil error means the
// request did not produce a classifiable response.
type Exchanger interface {
	ExchangeDeviceCode(ctx context.Context, deviceCode string) (Result, error)
}
