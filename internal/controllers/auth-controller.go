package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/auth"
	"github.com/franciscosanchezn/gin-chat-auth/internal/metrics"
	"github.com/franciscosanchezn/gin-chat-auth/internal/middleware"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/franciscosanchezn/gin-chat-auth/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-oauth2/oauth2/v4"
)

type AuthController struct {
	userService services.UserService
	issuer      auth.TokenIssuer
	webClientID string
}

func NewAuthController(userService services.UserService, issuer auth.TokenIssuer, webClientID string) *AuthController {
	return &AuthController{
		userService: userService,
		issuer:      issuer,
		webClientID: webClientID,
	}
}

// Register godoc
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Param user body object{email=string,password=string,name=string} true "Account details"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/v1/auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Name     string `json:"name"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	user := &models.User{
		Email: req.Email,
		Name:  req.Name,
	}

	if err := ac.userService.CreateUser(user, req.Password); err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, models.NewAPIError(models.ErrConflict, "An account with this email already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to create account"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user_created",
		"user":    user.Snapshot(),
	})
}

// Login godoc
// @Summary Log in with email and password
// @Description Starts a browser session used to approve devices
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body object{email=string,password=string} true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Router /api/v1/auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	user, err := ac.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "Invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Login failed"))
		return
	}

	ti, err := ac.issuer.IssueToken(c.Request.Context(), oauth2.PasswordCredentials, ac.webClientID, user.ID, "")
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to issue session token"))
		return
	}
	metrics.TokensIssued.WithLabelValues(string(oauth2.PasswordCredentials)).Inc()

	c.JSON(http.StatusOK, gin.H{
		"access_token":  ti.GetAccess(),
		"refresh_token": ti.GetRefresh(),
		"token_type":    "Bearer",
		"expires_in":    int(ti.GetAccessExpiresIn() / time.Second),
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// Me godoc
// @Summary Current identity
// @Description Resolve the bearer token to the account it belongs to
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /api/v1/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	value, ok := c.Get(middleware.ContextUser)
	user, isUser := value.(*models.User)
	if !ok || !isUser {
		c.JSON(http.StatusUnauthorized, models.NewOAuth2Error("invalid_token", "No identity on request"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"role":      user.Role,
		"client_id": c.GetString(middleware.ContextClientID),
		"scope":     c.GetString(middleware.ContextScopes),
	})
}
