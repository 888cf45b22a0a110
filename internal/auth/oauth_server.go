package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// DeviceCodeGrant is the grant type of RFC 8628 token requests
const DeviceCodeGrant oauth2.GrantType = "urn:ietf:params:oauth:grant-type:device_code"

// TokenIssuer mints access tokens bound to a user
type TokenIssuer interface {
	// CheckClient reports ErrInvalidClient when IssueToken would refuse
	// clientID for gt
	CheckClient(ctx context.Context, clientID string, gt oauth2.GrantType) error
	IssueToken(ctx context.Context, gt oauth2.GrantType, clientID string, userID uint, scope string) (oauth2.TokenInfo, error)
}

type OAuthService struct {
	manager  *manage.Manager
	db       *gorm.DB
	tokenTTL time.Duration
}

func NewOAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *OAuthService {
	manager := manage.NewDefaultManager()

	// Use JWT for access tokens, with the user's role resolved from the database
	manager.MapAccessGenerate(NewCustomJWTAccessGenerate([]byte(jwtSecret), jwt.SigningMethodHS512, db))

	// Configure token store
	manager.MustTokenStorage(NewGormTokenStore(db), nil)

	// Configure client store
	manager.MapClientStorage(NewGormClientStore(db))

	return &OAuthService{
		manager:  manager,
		db:       db,
		tokenTTL: tokenTTL,
	}
}

func (o *OAuthService) GetManager() *manage.Manager {
	return o.manager
}

// IssueToken generates and persists an access token for userID through the
// OAuth manager, so the token lands in the same store the resolver reads.
func (o *OAuthService) IssueToken(ctx context.Context, gt oauth2.GrantType, clientID string, userID uint, scope string) (oauth2.TokenInfo, error) {
	ti, err := o.manager.GenerateAccessToken(ctx, gt, &oauth2.TokenGenerateRequest{
		ClientID:       clientID,
		UserID:         strconv.FormatUint(uint64(userID), 10),
		Scope:          scope,
		AccessTokenExp: o.tokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}
	return ti, nil
}

// CheckClient verifies clientID can be minted for without a secret. Tokens
// are issued on behalf of an approving user, so only public clients that
// list gt qualify.
func (o *OAuthService) CheckClient(ctx context.Context, clientID string, gt oauth2.GrantType) error {
	info, err := o.manager.GetClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidClient, err)
	}
	client, ok := info.(*models.OAuthClient)
	if !ok {
		return fmt.Errorf("%w: unexpected client type %T", ErrInvalidClient, info)
	}
	if !client.IsPublic() || !client.AllowsGrant(string(gt)) {
		return fmt.Errorf("%w: %s", ErrInvalidClient, clientID)
	}
	return nil
}
