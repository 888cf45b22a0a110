package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/metrics"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// maxUserCodeAttempts bounds the retries when a generated user code collides
// with a live request
const maxUserCodeAttempts = 10

// DeviceConfig holds the tunables of the device authorization grant
type DeviceConfig struct {
	VerificationURI string
	Lifetime        time.Duration
	PollInterval    time.Duration
	SlowDownStep    time.Duration
}

// DeviceAuthorizationResponse is returned to the device on registration (RFC 8628 section 3.2)
type DeviceAuthorizationResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// TokenResponse is the success payload of the token endpoint
type TokenResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token,omitempty"`
	TokenType    string               `json:"token_type"`
	ExpiresIn    int                  `json:"expires_in"`
	Scope        string               `json:"scope,omitempty"`
	User         *models.UserSnapshot `json:"user,omitempty"`
}

// UserLookup resolves the account that approved a request
type UserLookup interface {
	GetUserByID(id uint) (*models.User, error)
}

// DeviceService drives the server side of the device authorization grant.
// All state lives in the store; the service itself holds only configuration.
type DeviceService struct {
	store  DeviceStore
	issuer TokenIssuer
	users  UserLookup
	clock  clock.PassiveClock
	cfg    DeviceConfig
}

func NewDeviceService(store DeviceStore, issuer TokenIssuer, users UserLookup, cfg DeviceConfig, clk clock.PassiveClock) *DeviceService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &DeviceService{
		store:  store,
		issuer: issuer,
		users:  users,
		clock:  clk,
		cfg:    cfg,
	}
}

func (s *DeviceService) now() time.Time {
	return s.clock.Now().UTC()
}

// Issue creates a pending request for clientID and returns the codes the
// device needs to show and poll with.
func (s *DeviceService) Issue(ctx context.Context, clientID, scope string) (*DeviceAuthorizationResponse, error) {
	deviceCode, err := GenerateDeviceCode()
	if err != nil {
		return nil, err
	}

	now := s.now()
	for attempt := 1; attempt <= maxUserCodeAttempts; attempt++ {
		userCode, err := GenerateUserCode()
		if err != nil {
			return nil, err
		}

		req := &models.DeviceAuthorization{
			DeviceCode:   deviceCode,
			UserCode:     userCode,
			ClientID:     clientID,
			Scope:        scope,
			Status:       models.DeviceStatusPending,
			PollInterval: int(s.cfg.PollInterval / time.Second),
			ExpiresAt:    now.Add(s.cfg.Lifetime),
		}

		err = s.store.Create(ctx, req, now)
		if errors.Is(err, ErrUserCodeTaken) {
			log.WithField("attempt", attempt).Debug("User code collision, regenerating")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store device authorization: %w", err)
		}

		metrics.DeviceCodesIssued.WithLabelValues(clientID).Inc()
		log.WithFields(logrus.Fields{
			"client_id":  clientID,
			"user_code":  userCode,
			"expires_at": req.ExpiresAt,
		}).Info("Device authorization issued")

		display := FormatUserCode(userCode)
		return &DeviceAuthorizationResponse{
			DeviceCode:              deviceCode,
			UserCode:                display,
			VerificationURI:         s.cfg.VerificationURI,
			VerificationURIComplete: s.cfg.VerificationURI + "?user_code=" + display,
			ExpiresIn:               int(s.cfg.Lifetime / time.Second),
			Interval:                req.PollInterval,
		}, nil
	}

	return nil, ErrUserCodeExhausted
}

// Lookup validates a human-entered code and returns the pending request it names
func (s *DeviceService) Lookup(ctx context.Context, rawUserCode string) (*models.DeviceAuthorization, error) {
	userCode, err := NormalizeUserCode(rawUserCode)
	if err != nil {
		return nil, err
	}

	req, err := s.store.GetByUserCode(ctx, userCode)
	if err != nil {
		return nil, err
	}
	if req.IsExpired(s.now()) || req.Status == models.DeviceStatusExpired {
		return nil, ErrNotFound
	}
	if req.Status != models.DeviceStatusPending {
		return req, ErrAlreadyResolved
	}
	return req, nil
}

// Approve binds the request to userID. No token is minted here.
func (s *DeviceService) Approve(ctx context.Context, rawUserCode string, userID uint) (*models.DeviceAuthorization, error) {
	return s.resolve(ctx, rawUserCode, models.DeviceStatusApproved, userID)
}

func (s *DeviceService) Deny(ctx context.Context, rawUserCode string, userID uint) (*models.DeviceAuthorization, error) {
	return s.resolve(ctx, rawUserCode, models.DeviceStatusDenied, userID)
}

func (s *DeviceService) resolve(ctx context.Context, rawUserCode string, status models.DeviceStatus, userID uint) (*models.DeviceAuthorization, error) {
	userCode, err := NormalizeUserCode(rawUserCode)
	if err != nil {
		return nil, err
	}

	req, err := s.store.Resolve(ctx, userCode, status, userID, s.now())
	if err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			metrics.DeviceDecisionConflicts.Inc()
		}
		return req, err
	}

	metrics.DeviceDecisions.WithLabelValues(string(status)).Inc()
	log.WithFields(logrus.Fields{
		"user_code": userCode,
		"client_id": req.ClientID,
		"user_id":   userID,
		"decision":  status,
	}).Info("Device authorization resolved")
	return req, nil
}

// Exchange answers one poll of the token endpoint. Every failure is one of
// the sentinel errors mapped by OAuthErrorCode.
func (s *DeviceService) Exchange(ctx context.Context, deviceCode, clientID string) (resp *TokenResponse, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = OAuthErrorCode(err)
		}
		metrics.DeviceTokenExchanges.WithLabelValues(outcome).Inc()
	}()

	req, err := s.store.GetByDeviceCode(ctx, deviceCode)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidGrant
	}
	if err != nil {
		return nil, err
	}
	if req.ClientID != clientID {
		return nil, ErrInvalidGrant
	}

	now := s.now()
	if req.Status == models.DeviceStatusExpired || req.IsExpired(now) {
		if err := s.store.Expire(ctx, deviceCode, now); err != nil {
			log.WithError(err).Warn("Failed to mark device authorization expired")
		}
		return nil, ErrExpiredToken
	}

	switch req.Status {
	case models.DeviceStatusDenied:
		return nil, ErrAccessDenied

	case models.DeviceStatusPending:
		tooEarly, err := s.store.RecordPoll(ctx, req, now, s.cfg.SlowDownStep)
		if err != nil {
			return nil, err
		}
		if tooEarly {
			return nil, ErrSlowDown
		}
		return nil, ErrAuthorizationPending

	case models.DeviceStatusApproved:
		return s.issue(ctx, req, now)
	}

	return nil, fmt.Errorf("device authorization in unknown state %q", req.Status)
}

func (s *DeviceService) issue(ctx context.Context, req *models.DeviceAuthorization, now time.Time) (*TokenResponse, error) {
	if req.ConsumedAt != nil || req.UserID == nil {
		return nil, ErrInvalidGrant
	}

	// Everything that can reject the mint is checked before the code is spent
	user, err := s.users.GetUserByID(*req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approving user: %w", err)
	}
	if err := s.issuer.CheckClient(ctx, req.ClientID, DeviceCodeGrant); err != nil {
		log.WithField("client_id", req.ClientID).WithError(err).Warn("Client cannot receive device grant tokens")
		return nil, err
	}

	// Only the caller that flips consumed_at may mint a token
	if err := s.store.Consume(ctx, req.DeviceCode, now); err != nil {
		if errors.Is(err, ErrAlreadyConsumed) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	ti, err := s.issuer.IssueToken(ctx, DeviceCodeGrant, req.ClientID, user.ID, req.Scope)
	if err != nil {
		entry := log.WithFields(logrus.Fields{
			"client_id": req.ClientID,
			"user_id":   user.ID,
		}).WithError(err)
		if releaseErr := s.store.Release(ctx, req.DeviceCode, now); releaseErr != nil {
			entry.WithField("release_error", releaseErr.Error()).Error("Token issuance failed and the device code stays consumed")
		} else {
			entry.Error("Token issuance failed, device code released for retry")
		}
		return nil, err
	}

	metrics.TokensIssued.WithLabelValues(string(DeviceCodeGrant)).Inc()
	snapshot := user.Snapshot()
	return &TokenResponse{
		AccessToken:  ti.GetAccess(),
		RefreshToken: ti.GetRefresh(),
		TokenType:    "Bearer",
		ExpiresIn:    int(ti.GetAccessExpiresIn() / time.Second),
		Scope:        ti.GetScope(),
		User:         &snapshot,
	}, nil
}

// PurgeExpired deletes requests whose lifetime has elapsed
func (s *DeviceService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.DeviceCodesPurged.Add(float64(n))
	return n, nil
}

// OAuthErrorCode maps a device flow error to its RFC 6749/8628 error code
func OAuthErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAuthorizationPending):
		return models.ErrAuthorizationPending
	case errors.Is(err, ErrSlowDown):
		return models.ErrSlowDown
	case errors.Is(err, ErrAccessDenied):
		return models.ErrAccessDenied
	case errors.Is(err, ErrExpiredToken):
		return models.ErrExpiredToken
	case errors.Is(err, ErrInvalidGrant):
		return models.ErrInvalidGrant
	case errors.Is(err, ErrInvalidClient):
		return models.ErrInvalidClient
	default:
		return models.ErrServerError
	}
}
