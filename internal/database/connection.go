package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// maxConnectAttempts bounds the exponential backoff in InitDatabase
const maxConnectAttempts = 5

// connectBackOff spaces connection attempts 1s, 2s, 4s, 8s apart (with jitter)
var connectBackOff = func() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Second
	exp.MaxInterval = 16 * time.Second
	return exp
}

// InitDatabase initializes the database connection based on the provided configuration
// It supports both PostgreSQL and SQLite drivers with automatic retry logic and connection pooling
func InitDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	driver := strings.ToLower(cfg.Driver)

	log.WithFields(logrus.Fields{
		"db_driver": driver,
		"db_host":   cfg.Host,
		"db_name":   cfg.Name,
		"db_path":   cfg.Path,
	}).Info("Initializing database connection")

	var dialector gorm.Dialector
	switch driver {
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", cfg.Driver)
	}

	gormConfig := &gorm.Config{TranslateError: true}
	attempt := 0
	operation := func() (*gorm.DB, error) {
		attempt++
		log.WithFields(logrus.Fields{
			"attempt":     attempt,
			"max_retries": maxConnectAttempts,
		}).Info("Attempting database connection")

		db, err := gorm.Open(dialector, gormConfig)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.WithError(err).Error("Failed to get database instance")
			return nil, err
		}
		if err := sqlDB.Ping(); err != nil {
			log.WithError(err).Error("Failed to ping database")
			return nil, err
		}
		return db, nil
	}

	db, err := backoff.Retry(context.Background(), operation,
		backoff.WithBackOff(connectBackOff()),
		backoff.WithMaxTries(maxConnectAttempts),
		backoff.WithNotify(func(err error, delay time.Duration) {
			log.WithFields(logrus.Fields{
				"attempt": attempt,
				"error":   err.Error(),
				"delay":   delay,
			}).Warn("Database connection attempt failed, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	log.Info("Database connection successful, configuring connection pool")
	configureConnectionPool(sqlDB, driver)

	log.WithFields(logrus.Fields{
		"db_driver": driver,
		"attempt":   attempt,
	}).Info("Database initialized successfully")

	return db, nil
}

// Migrate creates or updates the schema for every persisted model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.OAuthClient{},
		&models.OAuthToken{},
		&models.DeviceAuthorization{},
	)
}

// configureConnectionPool sets up connection pool parameters
func configureConnectionPool(sqlDB *sql.DB, driver string) {
	maxOpen := 25
	// SQLite allows a single writer; serializing connections avoids SQLITE_BUSY
	// on the conditional device-code updates.
	if driver == "sqlite" || driver == "" {
		maxOpen = 1
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	log.WithFields(logrus.Fields{
		"max_open_conns":    maxOpen,
		"max_idle_conns":    5,
		"conn_max_lifetime": "5m",
	}).Debug("Connection pool configured")
}
