package main

import (
	"fmt"
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/gin-chat-auth/docs" // Import generated docs
	"github.com/franciscosanchezn/gin-chat-auth/internal/auth"
	"github.com/franciscosanchezn/gin-chat-auth/internal/config"
	"github.com/franciscosanchezn/gin-chat-auth/internal/controllers"
	"github.com/franciscosanchezn/gin-chat-auth/internal/database"
	"github.com/franciscosanchezn/gin-chat-auth/internal/metrics"
	"github.com/franciscosanchezn/gin-chat-auth/internal/middleware"
	"github.com/franciscosanchezn/gin-chat-auth/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/swaggo/files"
	"github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var (
	db            *gorm.DB
	configuration *config.Config
	routes        controllers.Routes
)

// @title Chat Auth API
// @version 1.0
// @description Device authorization backend for the chat CLI
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()

	// Initialize database connection
	setupDatabase(configuration)

	// Initialize services and controllers
	setupServices(configuration)

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	environment := config.GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(log.DebugLevel)
	case "production":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
	// An explicit LOG_LEVEL wins over the environment default
	if level, err := log.ParseLevel(config.GetEnvWithDefault("LOG_LEVEL", "")); err == nil {
		log.SetLevel(level)
	}
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupDatabase opens the configured database and migrates the schema
func setupDatabase(conf *config.Config) *gorm.DB {
	var err error
	db, err = database.InitDatabase(database.FromConfig(conf))
	checkPanicErr(err)

	checkPanicErr(database.Migrate(db))
	log.Info("Database schema migrated")
	return db
}

// setupServices wires stores, services and controllers, and registers the
// first-party clients the CLI and the web UI identify as
func setupServices(conf *config.Config) {
	userService := services.NewUserService(db)
	clientService := services.NewClientService(db)

	_, err := clientService.EnsurePublicClient(conf.CLIClientID, "Chat CLI", string(auth.DeviceCodeGrant))
	checkPanicErr(err)
	_, err = clientService.EnsurePublicClient(conf.WebClientID, "Chat Web", "password")
	checkPanicErr(err)

	oauthService := auth.NewOAuthService(db, conf.JWTSecret, conf.AccessTokenTTL)
	deviceService := auth.NewDeviceService(
		auth.NewGormDeviceStore(db),
		oauthService,
		userService,
		auth.DeviceConfig{
			VerificationURI: conf.VerificationURI(),
			Lifetime:        conf.DeviceCodeLifetime,
			PollInterval:    conf.DevicePollInterval,
			SlowDownStep:    conf.DeviceSlowDownStep,
		},
		nil,
	)

	routes = controllers.Routes{
		Auth:       controllers.NewAuthController(userService, oauthService, conf.WebClientID),
		Device:     controllers.NewDeviceController(deviceService, clientService),
		Client:     controllers.NewClientController(clientService),
		BearerAuth: middleware.BearerAuth([]byte(conf.JWTSecret), services.NewIdentityResolver(db, nil)),
	}
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(log.StandardLogger()), gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     configuration.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	setupRoutes(router)

	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	router.GET("/health", healthCheckHandler)
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	routes.Register(router)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "gin-chat-auth",
	})
}
