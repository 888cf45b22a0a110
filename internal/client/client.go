package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/franciscosanchezn/gin-chat-auth/internal/config"
	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
	"github.com/franciscosanchezn/gin-chat-auth/internal/deviceflow"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"k8s.io/utils/clock"
)

const (
	deviceCodePath  = "/device/code"
	deviceTokenPath = "/device/token"
	mePath          = "/api/v1/me"

	defaultTimeout = 30 * time.Second
)

// APIError is a non-OAuth failure response from the server
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server responded %d", e.StatusCode)
	}
	if e.Message == "" {
		return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("server responded %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// Identity is the account a token resolves to
type Identity struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type tokenBody struct {
	AccessToken  string                    `json:"access_token"`
	RefreshToken string                    `json:"refresh_token"`
	TokenType    string                    `json:"token_type"`
	ExpiresIn    int                       `json:"expires_in"`
	Scope        string                    `json:"scope"`
	User         *credentials.UserSnapshot `json:"user"`
}

// Client talks to the chat auth server on behalf of the CLI
type Client struct {
	http     *resty.Client
	baseURL  string
	clientID string
	scope    string
	clock    clock.PassiveClock
	backoff  func() backoff.BackOff
	maxTries uint
	log      logrus.FieldLogger
}

type Option func(*Client)

func WithClock(clk clock.PassiveClock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// WithLogger routes resty's own warnings through log
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRetry configures the registration retry policy
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *Client) {
		c.maxTries = maxTries
		c.backoff = func() backoff.BackOff {
			exp := backoff.NewExponentialBackOff()
			exp.InitialInterval = initialInterval
			exp.RandomizationFactor = 0.1
			exp.Multiplier = 1.5
			exp.Reset()
			return exp
		}
	}
}

func New(cfg config.CLIConfig, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.ServerURL, "/")
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
		baseURL:  baseURL,
		clientID: cfg.ClientID,
		scope:    cfg.Scope,
		clock:    clock.RealClock{},
		log:      logrus.StandardLogger(),
	}
	WithRetry(3, 500*time.Millisecond)(c)
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetLogger(c.log)
	return c
}

// RequestDeviceCode registers this device with the server. Network failures
// and 5xx responses are retried with exponential backoff.
func (c *Client) RequestDeviceCode(ctx context.Context) (*deviceflow.Registration, error) {
	operation := func() (*deviceflow.Registration, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"client_id": c.clientID,
				"scope":     c.scope,
			}).
			Post(deviceCodePath)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}

		status := resp.StatusCode()
		switch {
		case status >= 500:
			return nil, apiError(resp)
		case status != http.StatusCreated && status != http.StatusOK:
			return nil, backoff.Permanent(apiError(resp))
		}

		var reg deviceflow.Registration
		if err := json.Unmarshal(resp.Body(), &reg); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: malformed device authorization response: %v", deviceflow.ErrProtocol, err))
		}
		if err := reg.Validate(); err != nil {
			return nil, backoff.Permanent(err)
		}
		return &reg, nil
	}

	return backoff.Retry(ctx, operation, backoff.WithBackOff(c.backoff()), backoff.WithMaxTries(c.maxTries))
}

// ExchangeDeviceCode performs one token request and classifies the answer.
// Errors are returned only when the response could not be classified.
func (c *Client) ExchangeDeviceCode(ctx context.Context, deviceCode string) (deviceflow.Result, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":  deviceflow.GrantType,
			"device_code": deviceCode,
			"client_id":   c.clientID,
		}).
		Post(deviceTokenPath)
	if err != nil {
		return nil, err
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusOK:
		return c.parseToken(resp.Body())
	case status >= 500:
		return nil, apiError(resp)
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return parseOAuthError(resp)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d from token endpoint", deviceflow.ErrProtocol, status)
	}
}

func (c *Client) parseToken(body []byte) (deviceflow.Result, error) {
	var token tokenBody
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", deviceflow.ErrProtocol, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access_token: %s", deviceflow.ErrProtocol, string(body))
	}

	now := c.clock.Now().UTC()
	cred := &credentials.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Scope:        token.Scope,
		CreatedAt:    now,
		User:         token.User,
	}
	if cred.TokenType == "" {
		cred.TokenType = "Bearer"
	}
	if token.ExpiresIn > 0 {
		expiresAt := now.Add(time.Duration(token.ExpiresIn) * time.Second)
		cred.ExpiresAt = &expiresAt
	}
	return deviceflow.Success{Credential: cred}, nil
}

func parseOAuthError(resp *resty.Response) (deviceflow.Result, error) {
	var body oauthErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Error == "" {
		return nil, fmt.Errorf("%w: malformed error response (status %d): %s", deviceflow.ErrProtocol, resp.StatusCode(), string(resp.Body()))
	}

	switch body.Error {
	case "authorization_pending":
		return deviceflow.Pending{}, nil
	case "slow_down":
		return deviceflow.SlowDown{}, nil
	case "access_denied":
		return deviceflow.Denied{}, nil
	case "expired_token":
		return deviceflow.Expired{}, nil
	default:
		return deviceflow.OtherError{Code: body.Error, Description: body.ErrorDescription}, nil
	}
}

// WhoAmI resolves cred on the server
func (c *Client) WhoAmI(ctx context.Context, cred *credentials.Credential) (*Identity, error) {
	// The oauth2 transport adds the Authorization header to every request
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
	})
	authed := resty.NewWithClient(oauth2.NewClient(ctx, src)).
		SetBaseURL(c.baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json").
		SetLogger(c.log)

	resp, err := authed.R().SetContext(ctx).Get(mePath)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: server rejected the cached token", credentials.ErrUnauthenticated)
	default:
		return nil, apiError(resp)
	}

	var identity Identity
	if err := json.Unmarshal(resp.Body(), &identity); err != nil {
		return nil, fmt.Errorf("%w: malformed identity response: %v", deviceflow.ErrProtocol, err)
	}
	return &identity, nil
}

func apiError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}

	var oauthBody oauthErrorBody
	if err := json.Unmarshal(resp.Body(), &oauthBody); err == nil && oauthBody.Error != "" {
		apiErr.Code = oauthBody.Error
		apiErr.Message = oauthBody.ErrorDescription
		return apiErr
	}

	var generic struct {
		Error   string `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &generic); err == nil {
		apiErr.Code = generic.Code
		if apiErr.Code == "" {
			apiErr.Code = generic.Error
		}
		apiErr.Message = generic.Message
	}
	return apiErr
}

// IsAPIError reports whether err carries a server response with the given status
func IsAPIError(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
