package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/franciscosanchezn/gin-chat-auth/internal/middleware"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/franciscosanchezn/gin-chat-auth/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ClientController struct {
	clientService services.ClientService
}

func NewClientController(clientService services.ClientService) *ClientController {
	return &ClientController{clientService: clientService}
}

// CreateClient godoc
// @Summary Create OAuth2 client
// @Description Register an application. Confidential clients receive a secret once; public clients (CLIs) get none.
// @Tags admin
// @Accept json
// @Produce json
// @Param client body object{name=string,domain=string,scopes=string,grant_types=string,public=bool} true "Client details"
// @Success 201 {object} map[string]interface{} "Client created with client_id and client_secret"
// @Failure 400 {object} models.APIError "Invalid request"
// @Failure 500 {object} models.APIError "Client creation failed"
// @Security BearerAuth
// @Router /api/v1/admin/clients [post]
func (cc *ClientController) CreateClient(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		Domain     string `json:"domain"`
		Scopes     string `json:"scopes"`
		GrantTypes string `json:"grant_types"`
		Public     bool   `json:"public"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithBindError(c, err)
		return
	}

	client := &models.OAuthClient{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Domain:     req.Domain,
		Scopes:     req.Scopes,
		GrantTypes: req.GrantTypes,
		Public:     req.Public,
		UserID:     c.GetUint(middleware.ContextUserID),
	}

	var secret string
	if !req.Public {
		secret = uuid.New().String()
		hashedSecret, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to generate client secret"))
			return
		}
		client.Secret = string(hashedSecret)
	}

	if err := cc.clientService.CreateClient(client); err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to create client"))
		return
	}

	resp := gin.H{
		"client_id":   client.ID,
		"name":        client.Name,
		"scopes":      client.Scopes,
		"grant_types": client.GrantTypes,
		"public":      client.Public,
	}
	if secret != "" {
		resp["client_secret"] = secret // Return plain secret only once
	}
	c.JSON(http.StatusCreated, resp)
}

// ListClients godoc
// @Summary List OAuth2 clients
// @Description Get all OAuth2 clients owned by the authenticated admin
// @Tags admin
// @Produce json
// @Success 200 {array} models.OAuthClient "List of clients"
// @Failure 500 {object} models.APIError "Failed to retrieve clients"
// @Security BearerAuth
// @Router /api/v1/admin/clients [get]
func (cc *ClientController) ListClients(c *gin.Context) {
	clients, err := cc.clientService.GetClientsByUserID(c.GetUint(middleware.ContextUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to retrieve clients"))
		return
	}

	c.JSON(http.StatusOK, clients)
}

// DeleteClient godoc
// @Summary Delete OAuth2 client
// @Description Delete an OAuth2 client owned by the authenticated admin
// @Tags admin
// @Param id path string true "Client ID"
// @Success 204 "Client deleted successfully"
// @Failure 404 {object} models.APIError "Client not found"
// @Security BearerAuth
// @Router /api/v1/admin/clients/{id} [delete]
func (cc *ClientController) DeleteClient(c *gin.Context) {
	err := cc.clientService.DeleteClient(c.Param("id"), c.GetUint(middleware.ContextUserID))
	if errors.Is(err, services.ErrClientNotFound) {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Client not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to delete client"))
		return
	}

	c.Status(http.StatusNoContent)
}

// respondWithBindError separates bodies that could not be decoded from
// bodies that decoded but failed validation.
func respondWithBindError(c *gin.Context, err error) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Malformed JSON body"))
		return
	}
	c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, err.Error()))
}
