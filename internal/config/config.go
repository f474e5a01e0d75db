package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the GORM/pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// DatabaseURL returns the URL form used by the migration runner.
func (c DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// KafkaConfig holds event broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// MapsConfig holds the external travel-duration service settings.
// An empty APIKey disables the external lookup entirely; the oracle
// then always answers with its fallback estimate.
type MapsConfig struct {
	APIKey  string
	BaseURL string
	Region  string
	Timeout time.Duration
}

// ReminderConfig controls the daily reminder sweep.
type ReminderConfig struct {
	Enabled  bool
	CronSpec string
}

// RateLimitConfig controls the per-IP limiter on public endpoints.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port      string
	AppEnv    string
	DB        DatabaseConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Maps      MapsConfig
	Reminder  ReminderConfig
	RateLimit RateLimitConfig
}

// Load reads configuration from BOOKING_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_port", "8080")
	v.SetDefault("app_env", "development")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "bookings")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_prefix", "yatrafleet.")

	v.SetDefault("jwt.secret", "")

	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.base_url", "https://maps.googleapis.com/maps/api/distancematrix/json")
	v.SetDefault("maps.region", "in")
	v.SetDefault("maps.timeout", "5s")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.cron", "0 8 * * *")

	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 10)

	cfg := &ServiceConfig{
		Port:   ":" + strings.TrimPrefix(v.GetString("service_port"), ":"),
		AppEnv: v.GetString("app_env"),
		DB: DatabaseConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(v.GetString("kafka.brokers"), ","),
			GroupPrefix: v.GetString("kafka.group_prefix"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
		},
		Maps: MapsConfig{
			APIKey:  v.GetString("maps.api_key"),
			BaseURL: v.GetString("maps.base_url"),
			Region:  v.GetString("maps.region"),
			Timeout: v.GetDuration("maps.timeout"),
		},
		Reminder: ReminderConfig{
			Enabled:  v.GetBool("reminder.enabled"),
			CronSpec: v.GetString("reminder.cron"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("ratelimit.rps"),
			Burst:             v.GetInt("ratelimit.burst"),
		},
	}

	if cfg.AppEnv != "development" && cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("BOOKING_JWT_SECRET must be set outside development")
	}

	return cfg, nil
}
