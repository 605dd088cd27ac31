// Package config loads and validates app configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// It is immutable after Load; rotating the signing key requires a
// restart.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseDSN is the sqlite DSN.
	DatabaseDSN string `mapstructure:"DATABASE_DSN"`
	// SigningKey is the HS256 secret for session tokens. Required.
	SigningKey string `mapstructure:"JWT_SIGNING_KEY"`
	// TokenExpiration is the session token lifetime in hours.
	TokenExpiration int `mapstructure:"TOKEN_EXPIRATION_HOURS"`
	// TokenLookup tells the middleware where to find the token,
	// e.g. "header:Authorization" or "header:Authorization,query:token".
	TokenLookup string `mapstructure:"TOKEN_LOOKUP"`
	// AuthScheme is the Authorization header scheme.
	AuthScheme string `mapstructure:"AUTH_SCHEME"`
	// ContextKey is where the middleware stores claims on the request.
	ContextKey string `mapstructure:"AUTH_CONTEXT_KEY"`
	// Issuer is the iss claim on minted tokens.
	Issuer string `mapstructure:"JWT_ISSUER"`
	// Audience is a comma-separated aud claim list; empty means none.
	Audience string `mapstructure:"JWT_AUDIENCE"`
	// CORSOrigins is the comma-separated allowed-origin list for the SPA.
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	// HashidUserIDs derives deterministic user IDs from the email
	// identity key instead of random UUIDs.
	HashidUserIDs bool `mapstructure:"HASHID_USER_IDS"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from
// the environment. Missing .env is ignored. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("DATABASE_DSN", "file:edumarket.db?cache=shared&mode=rwc")
	v.SetDefault("JWT_SIGNING_KEY", "")
	v.SetDefault("TOKEN_EXPIRATION_HOURS", 720)
	v.SetDefault("TOKEN_LOOKUP", "header:Authorization")
	v.SetDefault("AUTH_SCHEME", "Bearer")
	v.SetDefault("AUTH_CONTEXT_KEY", "user")
	v.SetDefault("JWT_ISSUER", "edumarket")
	v.SetDefault("JWT_AUDIENCE", "")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("HASHID_USER_IDS", true)
	v.SetDefault("APP_ENV", "development")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("config: JWT_SIGNING_KEY must be set")
	}
	if cfg.TokenExpiration <= 0 {
		return nil, errors.New("config: TOKEN_EXPIRATION_HOURS must be positive")
	}

	return &cfg, nil
}

func (c *Config) GetSigningKey() string {
	return c.SigningKey
}

func (c *Config) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *Config) GetTokenLookup() string {
	return c.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *Config) GetContextKey() string {
	return c.ContextKey
}

func (c *Config) GetIssuer() string {
	return c.Issuer
}

// GetAudience splits the comma-separated audience list. Empty entries
// are dropped; an empty setting means no aud claim.
func (c *Config) GetAudience() []string {
	if c == nil || c.Audience == "" {
		return nil
	}
	parts := strings.Split(c.Audience, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CORSOriginList splits the comma-separated origin list.
func (c *Config) CORSOriginList() []string {
	if c == nil || c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
