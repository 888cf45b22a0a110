package auth

import (
	"context"
	"testing"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/database"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/go-oauth2/oauth2/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = database.Migrate(db)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	user := &models.User{
		Email: email,
		Name:  "Test User",
		Role:  role,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPublicClient(t *testing.T, db *gorm.DB, id string) *models.OAuthClient {
	client := &models.OAuthClient{
		ID:         id,
		Name:       id,
		Public:     true,
		GrantTypes: string(DeviceCodeGrant),
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func TestOAuthServiceInitialization(t *testing.T) {
	db := setupTestDB(t)

	oauthService := NewOAuthService(db, testJWTSecret, time.Hour)
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetManager())
}

func TestIssueTokenGeneratesJWT(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret, time.Hour)

	user := createTestUser(t, db, "test3@example.com", models.RoleAdmin)
	createPublicClient(t, db, "chat-cli")

	tokenInfo, err := oauthService.IssueToken(context.Background(), DeviceCodeGrant, "chat-cli", user.ID, "chat")
	require.NoError(t, err)
	require.NotNil(t, tokenInfo)
	assert.Equal(t, time.Hour, tokenInfo.GetAccessExpiresIn())
	assert.Empty(t, tokenInfo.GetRefresh(), "device code grant does not issue refresh tokens")

	parsed, err := jwt.Parse(tokenInfo.GetAccess(), func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)

	assert.Equal(t, "1", claims["uid"])
	assert.Equal(t, models.RoleAdmin, claims["role"])
	assert.Equal(t, "chat-cli", claims["aud"])
	assert.Equal(t, "chat", claims["scope"])
	assert.NotEmpty(t, claims["jti"])
}

func TestIssueTokenIsPersisted(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret, time.Hour)

	user := createTestUser(t, db, "persist@example.com", models.RoleUser)
	createPublicClient(t, db, "chat-cli")

	tokenInfo, err := oauthService.IssueToken(context.Background(), DeviceCodeGrant, "chat-cli", user.ID, "chat")
	require.NoError(t, err)

	var stored models.OAuthToken
	require.NoError(t, db.Where("access_token = ?", tokenInfo.GetAccess()).First(&stored).Error)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, user.ID, *stored.UserID)
	assert.Equal(t, "chat-cli", stored.ClientID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.ExpiresAt, time.Minute)

	// Two tokens for the same user in the same second must not collide
	second, err := oauthService.IssueToken(context.Background(), DeviceCodeGrant, "chat-cli", user.ID, "chat")
	require.NoError(t, err)
	assert.NotEqual(t, tokenInfo.GetAccess(), second.GetAccess())
}

func TestIssueTokenUnknownClient(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret, time.Hour)
	user := createTestUser(t, db, "nobody@example.com", models.RoleUser)

	_, err := oauthService.IssueToken(context.Background(), DeviceCodeGrant, "missing", user.ID, "")
	assert.Error(t, err)
}

func TestIssueTokenUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret, time.Hour)
	createPublicClient(t, db, "chat-cli")

	_, err := oauthService.IssueToken(context.Background(), DeviceCodeGrant, "chat-cli", 42, "")
	assert.Error(t, err)
}

func TestPasswordGrantIssuesRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret, time.Hour)
	user := createTestUser(t, db, "web@example.com", models.RoleUser)
	createPublicClient(t, db, "chat-web")

	tokenInfo, err := oauthService.IssueToken(context.Background(), oauth2.PasswordCredentials, "chat-web", user.ID, "")
	require.NoError(t, err)
	assert.NotEmpty(t, tokenInfo.GetRefresh())

	store := NewGormTokenStore(db)
	byRefresh, err := store.GetByRefresh(context.Background(), tokenInfo.GetRefresh())
	require.NoError(t, err)
	assert.Equal(t, tokenInfo.GetAccess(), byRefresh.GetAccess())
}

func TestClientStoreIntegration(t *testing.T) {
	db := setupTestDB(t)

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte("integration_test_secret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	client := &models.OAuthClient{
		ID:     "integration_test_client",
		Secret: string(hashedSecret),
		Domain: "http://localhost:8080",
		Scopes: "read write",
	}
	require.NoError(t, db.Create(client).Error)

	clientStore := NewGormClientStore(db)
	ctx := context.Background()

	retrievedClient, err := clientStore.GetByID(ctx, "integration_test_client")
	require.NoError(t, err)
	assert.Equal(t, "integration_test_client", retrievedClient.GetID())

	verifier, ok := retrievedClient.(oauth2.ClientPasswordVerifier)
	require.True(t, ok)
	assert.True(t, verifier.VerifyPassword("integration_test_secret"))
	assert.False(t, verifier.VerifyPassword("wrong"))

	_, err = clientStore.GetByID(ctx, "missing")
	assert.Error(t, err)
}

func TestTokenStoreRemoveByAccess(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, testJWTSecret, time.Hour)
	user := createTestUser(t, db, "remove@example.com", models.RoleUser)
	createPublicClient(t, db, "chat-cli")

	tokenInfo, err := oauthService.IssueToken(context.Background(), DeviceCodeGrant, "chat-cli", user.ID, "")
	require.NoError(t, err)

	store := NewGormTokenStore(db)
	found, err := store.GetByAccess(context.Background(), tokenInfo.GetAccess())
	require.NoError(t, err)
	assert.Equal(t, "1", found.GetUserID())

	require.NoError(t, store.RemoveByAccess(context.Background(), tokenInfo.GetAccess()))
	_, err = store.GetByAccess(context.Background(), tokenInfo.GetAccess())
	assert.Error(t, err)

	_, err = store.GetByCode(context.Background(), "anything")
	assert.Error(t, err)
}
