package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service       ServiceConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Connections   ConnectionsConfig
	Verification  VerificationConfig
	Access        AccessConfig
	Collaborators CollaboratorsConfig
	RateLimit     RateLimitConfig
	Telemetry     TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ConnectionsConfig holds connection-graph settings
type ConnectionsConfig struct {
	// MaxMessageLength bounds the optional request message, in runes.
	MaxMessageLength int
	// DefaultPageSize / MaxPageSize bound pending-request listings.
	DefaultPageSize int
	MaxPageSize     int
}

// VerificationConfig holds identity-verification settings
type VerificationConfig struct {
	// CandidateTTL is how long a returned candidate set stays confirmable.
	CandidateTTL time.Duration
	// MatchFloor is the minimum similarity score a candidate must reach.
	MatchFloor float64
	// MaxCandidates bounds the number of candidates returned per claim.
	MaxCandidates int
	// CodeLength is the length of minted verification codes.
	CodeLength int
	// CodeTTL is the validity window of a minted code.
	CodeTTL time.Duration
	// AdminChannel is the notification channel for escalated reviews.
	AdminChannel string
}

// AccessConfig holds access-gate policy expressions (CEL)
type AccessConfig struct {
	MessagePolicy        string
	ContactDetailsPolicy string
}

// CollaboratorsConfig holds endpoints of excluded subsystems this service consumes
type CollaboratorsConfig struct {
	MemberDirectoryURL     string
	MemberDirectoryTimeout time.Duration
	// MemberCacheTTL is how long resolved members are served from cache.
	MemberCacheTTL time.Duration
}

// RateLimitConfig holds sliding-window limits
type RateLimitConfig struct {
	Enabled bool
	// ConnectionRequestsPerMinute limits SendRequest per member.
	ConnectionRequestsPerMinute int64
	// CodeMintsPerMinute limits code generation per admin.
	CodeMintsPerMinute int64
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
	MetricsPort int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "alumnet"),
			User:        getEnv("POSTGRES_USER", "alumnet"),
			Password:    getEnv("POSTGRES_PASSWORD", "alumnet"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Connections: ConnectionsConfig{
			MaxMessageLength: getEnvInt("CONNECTION_MAX_MESSAGE_LENGTH", 200),
			DefaultPageSize:  getEnvInt("CONNECTION_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:      getEnvInt("CONNECTION_MAX_PAGE_SIZE", 100),
		},
		Verification: VerificationConfig{
			CandidateTTL:  getEnvDuration("VERIFICATION_CANDIDATE_TTL", 15*time.Minute),
			MatchFloor:    getEnvFloat("VERIFICATION_MATCH_FLOOR", 0.4),
			MaxCandidates: getEnvInt("VERIFICATION_MAX_CANDIDATES", 5),
			CodeLength:    getEnvInt("VERIFICATION_CODE_LENGTH", 10),
			CodeTTL:       getEnvDuration("VERIFICATION_CODE_TTL", 7*24*time.Hour),
			AdminChannel:  getEnv("VERIFICATION_ADMIN_CHANNEL", "admin:verification"),
		},
		Access: AccessConfig{
			MessagePolicy:        getEnv("ACCESS_MESSAGE_POLICY", "connected"),
			ContactDetailsPolicy: getEnv("ACCESS_CONTACT_POLICY", "connected && viewer_verified"),
		},
		Collaborators: CollaboratorsConfig{
			MemberDirectoryURL:     getEnv("MEMBER_DIRECTORY_URL", "http://localhost:8081"),
			MemberDirectoryTimeout: getEnvDuration("MEMBER_DIRECTORY_TIMEOUT", 5*time.Second),
			MemberCacheTTL:         getEnvDuration("MEMBER_CACHE_TTL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:                     getEnvBool("RATE_LIMIT_ENABLED", true),
			ConnectionRequestsPerMinute: int64(getEnvInt("RATE_LIMIT_CONNECTION_REQUESTS", 30)),
			CodeMintsPerMinute:          int64(getEnvInt("RATE_LIMIT_CODE_MINTS", 5)),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", true),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
			MetricsPort: getEnvInt("METRICS_PORT", 9090),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Verification.MatchFloor < 0 || c.Verification.MatchFloor > 1 {
		return fmt.Errorf("match floor must be in [0,1]: %f", c.Verification.MatchFloor)
	}

	if c.Verification.MaxCandidates < 1 {
		return fmt.Errorf("max candidates must be positive: %d", c.Verification.MaxCandidates)
	}

	if c.Connections.MaxMessageLength < 1 {
		return fmt.Errorf("max message length must be positive: %d", c.Connections.MaxMessageLength)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
