package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for the graph store.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration loads the database configuration from environment
// variables. A .env file in the working directory is loaded first without
// overriding variables already present in the environment.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	// Missing .env is fine, env vars may be set directly.
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Database: getEnvOrDefault("DB_DATABASE", "postgres"),
		Username: getEnvOrDefault("DB_USERNAME", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   getEnvOrDefault("DB_SCHEMA", "public"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	if config.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD must be set via environment variable or .env file")
	}

	return config, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Database wraps a long-lived sql.DB connection together with its logger.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to the configured Postgres instance and
// verifies it with a ping. It panics if the database is unreachable, as
// nothing can work without it.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	connStr := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=%s",
		config.Host,
		config.Port,
		config.Database,
		config.Username,
		config.Password,
		config.Schema,
		config.SSLMode,
	)

	instance, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Panicf("error opening database connection: %v", err)
	}

	// The connection is lazy, ping with retries to surface unreachable
	// databases at startup instead of on first query.
	var pingErr error
	for i := 0; i < 5; i++ {
		pingErr = instance.Ping()
		if pingErr == nil {
			break
		}
		time.Sleep(time.Duration(i+1) * 500 * time.Millisecond)
	}
	if pingErr != nil {
		log.Panicf("error pinging database: %v", pingErr)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("database", config.Database))

	return &Database{
		Name:     name,
		Instance: instance,
		Logger:   logger,
	}
}
