package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	IMAPHost     string
	IMAPPort     string
	IMAPUseTLS   bool
	IMAPUsername string
	IMAPPassword string
	IMAPFolder   string

	MaxMessagesPerRun int
	SyncEnabled       bool
	CaseType          string

	DBHost     string
	DBPort     string
	DBUsername string
	DBPassword string
	DBName     string
	DBSSLMode  string

	Port     string
	Timezone string
}

func NewConfig() (*Config, error) {
	env := os.Getenv("RENOMAIL_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(); err != nil {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	config := &Config{
		Environment:       env,
		IMAPHost:          getEnvOrDefault("RENOMAIL_IMAP_HOST", "imap.zoho.com"),
		IMAPPort:          getEnvOrDefault("RENOMAIL_IMAP_PORT", "993"),
		IMAPUseTLS:        getEnvBool("RENOMAIL_IMAP_TLS", true),
		IMAPUsername:      os.Getenv("RENOMAIL_IMAP_USER"),
		IMAPPassword:      os.Getenv("RENOMAIL_IMAP_PASS"),
		IMAPFolder:        getEnvOrDefault("RENOMAIL_IMAP_FOLDER", "INBOX"),
		MaxMessagesPerRun: getEnvInt("RENOMAIL_MAX_MESSAGES_PER_RUN", 50),
		SyncEnabled:       getEnvBool("RENOMAIL_SYNC_ENABLED", true),
		CaseType:          getEnvOrDefault("RENOMAIL_CASE_TYPE", "renovacion"),
		DBHost:            getEnvOrDefault("RENOMAIL_DB_HOST", "localhost"),
		DBPort:            getEnvOrDefault("RENOMAIL_DB_PORT", "5432"),
		DBUsername:        getEnvOrDefault("RENOMAIL_DB_USER", "renomail"),
		DBPassword:        os.Getenv("RENOMAIL_DB_PASSWORD"),
		DBName:            getEnvOrDefault("RENOMAIL_DB_NAME", "renomail"),
		DBSSLMode:         getEnvOrDefault("RENOMAIL_DB_SSLMODE", "disable"),
		Port:              getEnvOrDefault("PORT", "8080"),
		Timezone:          getEnvOrDefault("TZ", "UTC"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.IMAPUsername == "" {
		return fmt.Errorf("RENOMAIL_IMAP_USER is required")
	}

	if c.IMAPPassword == "" {
		return fmt.Errorf("RENOMAIL_IMAP_PASS is required")
	}

	if c.DBPassword == "" {
		return fmt.Errorf("RENOMAIL_DB_PASSWORD is required")
	}

	if c.MaxMessagesPerRun <= 0 {
		return fmt.Errorf("RENOMAIL_MAX_MESSAGES_PER_RUN must be positive")
	}

	return nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUsername,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
		c.DBSSLMode,
	)
}

// GetIMAPAddress returns the host:port the mailbox client dials.
func (c *Config) GetIMAPAddress() string {
	return c.IMAPHost + ":" + c.IMAPPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
