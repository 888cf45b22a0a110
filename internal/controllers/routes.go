package controllers

import (
	"github.com/franciscosanchezn/gin-chat-auth/internal/middleware"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/gin-gonic/gin"
)

// Routes groups the handlers mounted by the server
type Routes struct {
	Auth       *AuthController
	Device     *DeviceController
	Client     *ClientController
	BearerAuth gin.HandlerFunc
}

// Register mounts the device flow and API routes on router
func (r Routes) Register(router *gin.Engine) {
	// RFC 8628 endpoints live at the root so verification URIs stay short
	device := router.Group("/device")
	{
		device.POST("/code", r.Device.RequestDeviceCode)
		device.POST("/token", r.Device.Token)
		device.GET("", r.Device.GetDevice)
		device.POST("/approve", r.BearerAuth, r.Device.ApproveDevice)
		device.POST("/deny", r.BearerAuth, r.Device.DenyDevice)
	}

	v1 := router.Group("/api/v1")
	{
		authApi := v1.Group("/auth")
		{
			authApi.POST("/register", r.Auth.Register)
			authApi.POST("/login", r.Auth.Login)
		}

		v1.GET("/me", r.BearerAuth, r.Auth.Me)

		adminApi := v1.Group("/admin")
		adminApi.Use(r.BearerAuth, middleware.RequireRole(models.RoleAdmin))
		{
			adminApi.POST("/clients", r.Client.CreateClient)
			adminApi.GET("/clients", r.Client.ListClients)
			adminApi.DELETE("/clients/:id", r.Client.DeleteClient)
			adminApi.DELETE("/device/expired", r.Device.PurgeExpired)
		}
	}
}
