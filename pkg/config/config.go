package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the immutable application configuration. It is loaded once at
// startup and passed explicitly into every component constructor — nothing
// reads the environment after Load returns.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AuthConfig groups token, password, and bootstrap settings.
type AuthConfig struct {
	JWT       JWTConfig
	Password  PasswordConfig
	Bootstrap BootstrapConfig
}

// JWTConfig configures access token signing.
type JWTConfig struct {
	Secret         string
	Algorithm      string
	AccessTokenTTL time.Duration
	Issuer         string
}

// PasswordConfig configures the password hasher.
type PasswordConfig struct {
	BcryptCost int
}

// BootstrapConfig designates the admin account ensured at startup.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

// OAuthConfig configures the external identity provider and the redirect
// targets the federation callback may send clients to.
type OAuthConfig struct {
	Google GoogleConfig

	// AllowedRedirectOrigins is the prefix allow-list for client redirect
	// URIs. When empty, only FrontendURL itself is accepted.
	AllowedRedirectOrigins []string

	// FrontendURL is the default redirect target when the client supplied none.
	FrontendURL string
}

// GoogleConfig holds Google OAuth client credentials.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration
}

// Load builds the configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        getEnv("BACKEND_HOST", "0.0.0.0"),
			Port:        getEnvInt("BACKEND_PORT", 8000),
			CORSOrigins: getEnvStringSlice("CORS_ORIGINS", []string{getEnv("FRONTEND_URL", "http://localhost:5173"), "http://localhost"}),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "authgate"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				Secret:         getEnv("SECRET_KEY", "default_secret_key"),
				Algorithm:      getEnv("JWT_ALGORITHM", "HS256"),
				AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
				Issuer:         getEnv("JWT_ISSUER", "authgate"),
			},
			Password: PasswordConfig{
				BcryptCost: getEnvInt("BCRYPT_COST", 12),
			},
			Bootstrap: BootstrapConfig{
				AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
				AdminPassword: getEnv("ADMIN_PASSWORD", "password"),
			},
		},
		OAuth: OAuthConfig{
			Google: GoogleConfig{
				ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
				ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
				RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
				Timeout:      getEnvDuration("OAUTH_HTTP_TIMEOUT", 10*time.Second),
			},
			AllowedRedirectOrigins: getEnvStringSlice("ALLOWED_REDIRECT_ORIGINS", nil),
			FrontendURL:            getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvStringSlice(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
