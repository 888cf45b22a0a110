package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/franciscosanchezn/gin-chat-auth/internal/auth"
	"github.com/franciscosanchezn/gin-chat-auth/internal/middleware"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/franciscosanchezn/gin-chat-auth/internal/services"
	"github.com/gin-gonic/gin"
)

// DeviceController serves the RFC 8628 device authorization endpoints
type DeviceController struct {
	deviceService *auth.DeviceService
	clientService services.ClientService
}

func NewDeviceController(deviceService *auth.DeviceService, clientService services.ClientService) *DeviceController {
	return &DeviceController{
		deviceService: deviceService,
		clientService: clientService,
	}
}

type deviceCodeRequest struct {
	ClientID string `form:"client_id" json:"client_id" binding:"required"`
	Scope    string `form:"scope" json:"scope"`
}

type userCodeRequest struct {
	UserCode string `form:"user_code" json:"user_code" binding:"required"`
}

type deviceTokenRequest struct {
	GrantType  string `form:"grant_type" json:"grant_type" binding:"required"`
	DeviceCode string `form:"device_code" json:"device_code" binding:"required"`
	ClientID   string `form:"client_id" json:"client_id" binding:"required"`
}

// DeviceStatusResponse describes a pending request to the approving human
type DeviceStatusResponse struct {
	UserCode   string              `json:"user_code"`
	ClientID   string              `json:"client_id"`
	ClientName string              `json:"client_name,omitempty"`
	Scope      string              `json:"scope,omitempty"`
	Status     models.DeviceStatus `json:"status"`
	ExpiresAt  time.Time           `json:"expires_at"`
}

// RequestDeviceCode godoc
// @Summary Start a device authorization
// @Description Register a device and receive the user code to display (RFC 8628 section 3.1)
// @Tags device
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body deviceCodeRequest true "Client registration"
// @Success 201 {object} auth.DeviceAuthorizationResponse
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Failure 500 {object} models.OAuth2Error
// @Router /device/code [post]
func (dc *DeviceController) RequestDeviceCode(c *gin.Context) {
	var req deviceCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error()))
		return
	}

	client, err := dc.clientService.GetClientByID(req.ClientID)
	if err != nil {
		if errors.Is(err, services.ErrClientNotFound) {
			c.JSON(http.StatusUnauthorized, models.NewOAuth2Error(models.ErrInvalidClient, "Unknown client"))
			return
		}
		c.JSON(http.StatusInternalServerError, models.NewOAuth2Error(models.ErrServerError, "Failed to load client"))
		return
	}
	// Device tokens are minted without a client secret, so only public
	// clients that list the grant may start the flow
	if !client.IsPublic() || !client.AllowsGrant(string(auth.DeviceCodeGrant)) {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrUnauthorizedClient,
			"Client is not allowed to use the device authorization grant"))
		return
	}

	if !client.AllowsScope(req.Scope) {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidScope,
			"Requested scope exceeds what the client is registered for"))
		return
	}

	resp, err := dc.deviceService.Issue(c.Request.Context(), client.ID, req.Scope)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewOAuth2Error(models.ErrServerError, "Failed to create device authorization"))
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, resp)
}

// GetDevice godoc
// @Summary Check a user code
// @Description Validate a human-entered user code and describe the pending request
// @Tags device
// @Produce json
// @Param user_code query string true "User code, with or without hyphen"
// @Success 200 {object} DeviceStatusResponse
// @Failure 400 {object} models.OAuth2Error
// @Failure 404 {object} models.OAuth2Error
// @Failure 409 {object} models.OAuth2Error
// @Router /device [get]
func (dc *DeviceController) GetDevice(c *gin.Context) {
	rawCode := c.Query("user_code")
	if rawCode == "" {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, "user_code is required"))
		return
	}

	req, err := dc.deviceService.Lookup(c.Request.Context(), rawCode)
	if err != nil {
		respondWithDecisionError(c, err)
		return
	}

	resp := DeviceStatusResponse{
		UserCode:  auth.FormatUserCode(req.UserCode),
		ClientID:  req.ClientID,
		Scope:     req.Scope,
		Status:    req.Status,
		ExpiresAt: req.ExpiresAt,
	}
	if client, err := dc.clientService.GetClientByID(req.ClientID); err == nil {
		resp.ClientName = client.Name
	}
	c.JSON(http.StatusOK, resp)
}

// ApproveDevice godoc
// @Summary Approve a device
// @Description Grant the device holding this user code access to the caller's account
// @Tags device
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body userCodeRequest true "User code"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Failure 404 {object} models.OAuth2Error
// @Failure 409 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /device/approve [post]
func (dc *DeviceController) ApproveDevice(c *gin.Context) {
	dc.decide(c, dc.deviceService.Approve)
}

// DenyDevice godoc
// @Summary Deny a device
// @Description Refuse the device holding this user code
// @Tags device
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body userCodeRequest true "User code"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.OAuth2Error
// @Failure 401 {object} models.OAuth2Error
// @Failure 404 {object} models.OAuth2Error
// @Failure 409 {object} models.OAuth2Error
// @Security BearerAuth
// @Router /device/deny [post]
func (dc *DeviceController) DenyDevice(c *gin.Context) {
	dc.decide(c, dc.deviceService.Deny)
}

type decisionFunc func(ctx context.Context, rawUserCode string, userID uint) (*models.DeviceAuthorization, error)

func (dc *DeviceController) decide(c *gin.Context, decision decisionFunc) {
	var req userCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error()))
		return
	}

	device, err := decision(c.Request.Context(), req.UserCode, c.GetUint(middleware.ContextUserID))
	if err != nil {
		respondWithDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    device.Status,
		"user_code": auth.FormatUserCode(device.UserCode),
	})
}

func respondWithDecisionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidUserCode):
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, "Malformed user code"))
	case errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusNotFound, models.NewOAuth2Error(models.ErrInvalidGrant, "Unknown or expired user code"))
	case errors.Is(err, auth.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, models.NewOAuth2Error(models.ErrInvalidGrant, "Device authorization was already resolved"))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, models.NewOAuth2Error(models.ErrServerError, "Failed to update device authorization"))
	}
}

// Token godoc
// @Summary Exchange a device code
// @Description Poll for the access token of an approved device (RFC 8628 section 3.4)
// @Tags device
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body deviceTokenRequest true "Device access token request"
// @Success 200 {object} auth.TokenResponse
// @Failure 400 {object} models.OAuth2Error "authorization_pending, slow_down, access_denied, expired_token, invalid_grant"
// @Failure 500 {object} models.OAuth2Error
// @Router /device/token [post]
func (dc *DeviceController) Token(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	var req deviceTokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrInvalidRequest, err.Error()))
		return
	}
	if req.GrantType != string(auth.DeviceCodeGrant) {
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(models.ErrUnsupportedGrantType,
			"grant_type must be "+string(auth.DeviceCodeGrant)))
		return
	}

	resp, err := dc.deviceService.Exchange(c.Request.Context(), req.DeviceCode, req.ClientID)
	if err != nil {
		code := auth.OAuthErrorCode(err)
		switch code {
		case models.ErrServerError:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, models.NewOAuth2Error(code, "Token exchange failed"))
			return
		case models.ErrInvalidClient:
			c.JSON(http.StatusUnauthorized, models.NewOAuth2Error(code, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, models.NewOAuth2Error(code, err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PurgeExpired godoc
// @Summary Delete expired device authorizations
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]int64
// @Failure 500 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/admin/device/expired [delete]
func (dc *DeviceController) PurgeExpired(c *gin.Context) {
	n, err := dc.deviceService.PurgeExpired(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to purge device authorizations"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
