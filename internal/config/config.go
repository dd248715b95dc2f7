package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	App      AppConfig
	SMTP     SMTPConfig
	Device   DeviceConfig
	Workday  WorkdayConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

// SMTPConfig holds outbound mail configuration. An empty Host disables
// delivery; notifications are then logged and skipped.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// DeviceConfig holds the biometric terminal connection settings.
type DeviceConfig struct {
	IP           string
	Port         int
	CommKey      int
	Timeout      time.Duration
	PollInterval time.Duration
	Location     string
}

// WorkdayConfig defines the nominal workday window used to classify
// attendance status (late / early_departure). Times are "15:04" in the
// server's local zone.
type WorkdayConfig struct {
	Start        string
	End          string
	GraceMinutes int
}

func Load() (*Config, error) {
	// .env is optional; deployments may configure entirely through the environment
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "medicore_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	// SMTP configuration
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	config.SMTP = SMTPConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     smtpPort,
		Username: getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASS", ""),
		From:     getEnv("SMTP_FROM", "noreply@medicore-hms.local"),
		FromName: getEnv("SMTP_FROM_NAME", "Medicore Attendance"),
	}

	// Biometric device configuration
	devicePort, err := strconv.Atoi(getEnv("DEVICE_PORT", "4370"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_PORT: %w", err)
	}

	commKey, err := strconv.Atoi(getEnv("DEVICE_COMM_KEY", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_COMM_KEY: %w", err)
	}

	deviceTimeout, err := time.ParseDuration(getEnv("DEVICE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_TIMEOUT: %w", err)
	}

	pollInterval, err := time.ParseDuration(getEnv("DEVICE_POLL_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_POLL_INTERVAL: %w", err)
	}

	config.Device = DeviceConfig{
		IP:           getEnv("DEVICE_IP", "192.168.1.100"),
		Port:         devicePort,
		CommKey:      commKey,
		Timeout:      deviceTimeout,
		PollInterval: pollInterval,
		Location:     getEnv("DEVICE_LOCATION", "Main Office"),
	}

	// Workday window
	graceMinutes, err := strconv.Atoi(getEnv("WORKDAY_GRACE_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKDAY_GRACE_MINUTES: %w", err)
	}

	config.Workday = WorkdayConfig{
		Start:        getEnv("WORKDAY_START", "08:00"),
		End:          getEnv("WORKDAY_END", "17:00"),
		GraceMinutes: graceMinutes,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.Device.IP == "" {
		return fmt.Errorf("DEVICE_IP is required")
	}
	if _, err := time.Parse("15:04", c.Workday.Start); err != nil {
		return fmt.Errorf("invalid WORKDAY_START: %w", err)
	}
	if _, err := time.Parse("15:04", c.Workday.End); err != nil {
		return fmt.Errorf("invalid WORKDAY_END: %w", err)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
