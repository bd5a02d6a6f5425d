package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	AppName     string
	Port        string
	PublicURL   string // externally reachable base URL of this API
	FrontendURL string
	Database    DatabaseConfig
	JWT         JWTConfig
	Cookie      CookieConfig
	Gateway     GatewayConfig
	AI          AIConfig
	Mail        MailConfig
	Scheduler   SchedulerConfig
	RollbarKey  string
	BcryptCost  int
	Admin       AdminSeedConfig
}

// AdminSeedConfig bootstraps the first administrator account
type AdminSeedConfig struct {
	Name     string
	Email    string
	Password string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql, postgres or sqlite
	DSN      string // overrides the host based fields when set
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
	DownloadLinkMins int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// GatewayConfig holds SSLCommerz store credentials
type GatewayConfig struct {
	StoreID     string
	StorePasswd string
	IsLive      bool
	Currency    string
	Timeout     time.Duration
}

// AIConfig holds the AI tutor provider settings
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// MailConfig holds SendGrid settings
type MailConfig struct {
	SendGridKey string
	FromName    string
	FromEmail   string
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled              bool
	PaymentExpirySpec    string
	PaymentExpiryMinutes int
	TokenCleanupSpec     string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	port := getEnv("PORT", "3000")
	config := &Config{
		AppMode:     appMode,
		AppName:     getEnv("APP_NAME", "CourseMart"),
		Port:        port,
		PublicURL:   strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+port), "/"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		Database:    loadDatabaseConfig(appMode),
		JWT:         loadJWTConfig(appMode),
		Cookie:      loadCookieConfig(appMode),
		Gateway:     loadGatewayConfig(),
		AI:          loadAIConfig(),
		Mail:        loadMailConfig(),
		Scheduler:   loadSchedulerConfig(),
		RollbarKey:  getEnv("ROLLBAR_TOKEN", ""),
		BcryptCost:  getEnvInt("BCRYPT_COST", 12),
		Admin: AdminSeedConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if config.IsProd() && config.JWT.Secret == "default_secret" {
		return nil, fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Driver:   strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DSN:      getEnv(prefix+"DB_DSN", ""),
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "coursemart"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  getEnvInt("ACCESS_TOKEN_MINUTES", 60),
		RefreshTokenDays: getEnvInt("REFRESH_TOKEN_DAYS", 7),
		DownloadLinkMins: getEnvInt("DOWNLOAD_LINK_MINUTES", 15),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadGatewayConfig() GatewayConfig {
	live, _ := strconv.ParseBool(getEnv("SSLCZ_IS_LIVE", "false"))

	return GatewayConfig{
		StoreID:     getEnv("SSLCZ_STORE_ID", ""),
		StorePasswd: getEnv("SSLCZ_STORE_PASSWORD", ""),
		IsLive:      live,
		Currency:    getEnv("SSLCZ_CURRENCY", "BDT"),
		Timeout:     time.Duration(getEnvInt("SSLCZ_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey:  getEnv("AI_API_KEY", ""),
		BaseURL: getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
		Model:   getEnv("AI_MODEL", "gpt-4o-mini"),
		Timeout: time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

func loadMailConfig() MailConfig {
	return MailConfig{
		SendGridKey: getEnv("SENDGRID_API_KEY", ""),
		FromName:    getEnv("MAIL_FROM_NAME", "CourseMart"),
		FromEmail:   getEnv("MAIL_FROM", "no-reply@coursemart.local"),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	enabled, _ := strconv.ParseBool(getEnv("SCHEDULER_ENABLED", "true"))

	return SchedulerConfig{
		Enabled:              enabled,
		PaymentExpirySpec:    getEnv("PAYMENT_EXPIRY_SWEEP", "@every 10m"),
		PaymentExpiryMinutes: getEnvInt("PAYMENT_EXPIRY_MINUTES", 60),
		TokenCleanupSpec:     getEnv("TOKEN_CLEANUP_SPEC", "0 3 * * *"),
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

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ Invalid integer for %s: %v (using %d)", key, err, defaultValue)
		return defaultValue
	}
	return n
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
		return c.FrontendURL
	}
	return origins
}

// GatewayEnabled reports whether SSLCommerz credentials are configured
func (c *Config) GatewayEnabled() bool {
	return c.Gateway.StoreID != "" && c.Gateway.StorePasswd != ""
}
