package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Identity provider modes
const (
	IdentityLocal    = "local"
	IdentitySupabase = "supabase"
)

const defaultJWTSecret = "default_secret"

// Config holds all configuration for the application
type Config struct {
	AppMode        string
	Port           string
	RequestTimeout time.Duration
	Database       DatabaseConfig
	JWT            JWTConfig
	Cookie         CookieConfig
	Identity       IdentityConfig
	Cache          CacheConfig
	Jobs           JobsConfig
	Seed           SeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql | postgres
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds access token configuration
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenMins int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// IdentityConfig selects and configures the identity provider
type IdentityConfig struct {
	Provider       string
	SupabaseURL    string
	ServiceRoleKey string
	HTTPTimeout    time.Duration
}

// CacheConfig configures the principal cache.
// An empty RedisURL selects the in-process cache.
type CacheConfig struct {
	RedisURL     string
	PrincipalTTL time.Duration
}

// JobsConfig holds cron schedules
type JobsConfig struct {
	RoleSyncCron string
}

// SeedConfig holds the dev admin seed credentials
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:        appMode,
		Port:           getEnv("PORT", "3000"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),
		Database:       loadDatabaseConfig(appMode),
		JWT:            loadJWTConfig(appMode),
		Cookie:         loadCookieConfig(appMode),
		Identity:       loadIdentityConfig(appMode),
		Cache: CacheConfig{
			RedisURL:     getEnv("REDIS_URL", ""),
			PrincipalTTL: getDuration("PRINCIPAL_CACHE_TTL", 30*time.Second),
		},
		Jobs: JobsConfig{
			RoleSyncCron: getEnv("ROLE_SYNC_CRON", "@every 15m"),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@coinvest.local"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set global config
	AppConfig = config

	logrus.WithFields(logrus.Fields{
		"mode":     appMode,
		"driver":   config.Database.Driver,
		"identity": config.Identity.Provider,
	}).Info("✅ Configuration loaded successfully")
	return config, nil
}

// Validate rejects configurations that cannot run safely
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", c.Database.Driver)
	}

	switch c.Identity.Provider {
	case IdentityLocal:
	case IdentitySupabase:
		if c.Identity.SupabaseURL == "" || c.Identity.ServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required when IDENTITY_PROVIDER=supabase")
		}
	default:
		return fmt.Errorf("invalid IDENTITY_PROVIDER: '%s' (must be 'local' or 'supabase')", c.Identity.Provider)
	}

	if c.IsProd() && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)
	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "coinvest"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)
	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "60"))

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		Issuer:          getEnv("JWT_ISSUER", "coinvest-api"),
		AccessTokenMins: accessMins,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)
	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadIdentityConfig loads identity provider config
func loadIdentityConfig(mode string) IdentityConfig {
	defaultProvider := IdentityLocal
	if mode == "prod" {
		defaultProvider = IdentitySupabase
	}

	return IdentityConfig{
		Provider:       strings.ToLower(getEnv("IDENTITY_PROVIDER", defaultProvider)),
		SupabaseURL:    strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		HTTPTimeout:    getDuration("IDENTITY_HTTP_TIMEOUT", 5*time.Second),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a Go duration string, falling back on error
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid duration %q, using %s", raw, defaultValue)
		return defaultValue
	}
	return d
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://app.coinvest.io"
	}
	return origins
}
