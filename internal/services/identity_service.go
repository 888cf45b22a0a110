package services

import (
	"context"
	"errors"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"gorm.io/gorm"
	"k8s.io/utils/clock"
)

var ErrIdentityNotFound = errors.New("identity_not_found")

// IdentityResolver maps a bearer token to the account it was issued to
type IdentityResolver interface {
	Resolve(ctx context.Context, accessToken string) (*models.User, error)
}

type identityResolver struct {
	db    *gorm.DB
	clock clock.PassiveClock
}

func NewIdentityResolver(db *gorm.DB, clk clock.PassiveClock) IdentityResolver {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &identityResolver{db: db, clock: clk}
}

// Resolve looks the token up in the issued token table. Expired, revoked or
// unknown tokens all yield ErrIdentityNotFound.
func (r *identityResolver) Resolve(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, ErrIdentityNotFound
	}

	var user models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*").
		Joins("JOIN oauth_tokens ON oauth_tokens.user_id = users.id").
		Where("oauth_tokens.access_token = ? AND oauth_tokens.expires_at > ?", accessToken, r.now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *identityResolver) now() time.Time {
	return r.clock.Now().UTC()
}
