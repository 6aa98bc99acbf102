package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	// Database (hosted Postgres, Supabase-compatible DSN)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Session tokens
	AuthSecret       string
	SessionMaxAge    time.Duration
	SessionUpdateAge time.Duration
	CookieSecure     bool

	// OAuth providers
	GoogleClientID     string
	GoogleClientSecret string
	QQClientID         string
	QQClientSecret     string

	// Admin
	AdminEmails string

	// Server
	BaseURL     string
	Port        string
	CORSOrigins string
	Debug       bool
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "wiki"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		AuthSecret:       getEnv("AUTH_SECRET", ""),
		SessionMaxAge:    parseDuration(getEnv("SESSION_MAX_AGE", "720h")),
		SessionUpdateAge: parseDuration(getEnv("SESSION_UPDATE_AGE", "24h")),
		// Off by default so cookies work on plain-HTTP local setups.
		// Must be true behind TLS.
		CookieSecure: getEnv("COOKIE_SECURE", "false") == "true",

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		QQClientID:         getEnv("QQ_CLIENT_ID", ""),
		QQClientSecret:     getEnv("QQ_CLIENT_SECRET", ""),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		Debug:       getEnv("AUTH_DEBUG", "false") == "true",
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// AdminEmailList splits the comma-separated admin allow-list.
func (c *Config) AdminEmailList() []string {
	if c.AdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}
