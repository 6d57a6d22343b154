package config

import (
	"os"
	"strconv"
	"strings"
)

// HTTPConfig holds application server settings.
//
// Workers > 1 enables prefork mode so the listener is shared across that many
// OS processes. TrustProxyHeaders makes the server honor X-Forwarded-For and
// X-Forwarded-Proto injected by an upstream reverse proxy.
type HTTPConfig struct {
	Host              string
	Port              string
	Workers           int
	TrustProxyHeaders bool
	CORSOrigins       []string
}

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// SMTPConfig holds outgoing email settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
}

// AuthConfig holds JWT session settings.
type AuthConfig struct {
	SecretKey               string
	AccessTokenExpireMin    int
	RefreshTokenExpireDays  int
	VerificationExpireHours int
	VerificationURL         string
	CookieSecure            bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	ServiceName string
	Env         string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	MinIO       MinIOConfig
	SMTP        SMTPConfig
	Auth        AuthConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		ServiceName: getEnv("SERVICE_NAME", "apistarter"),
		Env:         getEnv("ENV", "dev"),
		HTTP: HTTPConfig{
			Host:              getEnv("HTTP_HOST", "0.0.0.0"),
			Port:              getEnv("HTTP_PORT", "8000"),
			Workers:           getEnvInt("HTTP_WORKERS", 1),
			TrustProxyHeaders: getEnvBool("HTTP_TRUST_PROXY_HEADERS", false),
			CORSOrigins:       getEnvList("HTTP_CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("EMAIL_SMTP_HOST", ""),
			Port:     getEnvInt("EMAIL_SMTP_PORT", 587),
			Username: getEnv("EMAIL_SMTP_USERNAME", ""),
			Password: getEnv("EMAIL_SMTP_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", ""),
			StartTLS: getEnvBool("EMAIL_SMTP_STARTTLS", true),
		},
		Auth: AuthConfig{
			SecretKey:               getEnv("AUTH_JWT_SECRET_KEY", ""),
			AccessTokenExpireMin:    getEnvInt("AUTH_ACCESS_TOKEN_EXPIRE_MINUTES", 60),
			RefreshTokenExpireDays:  getEnvInt("AUTH_REFRESH_TOKEN_EXPIRE_DAYS", 2),
			VerificationExpireHours: getEnvInt("AUTH_EMAIL_VERIFICATION_EXPIRATION_HOURS", 24),
			VerificationURL: getEnv("AUTH_VERIFICATION_URL",
				"http://localhost:8000/auth/verify?token="),
			CookieSecure:            getEnvBool("AUTH_COOKIE_SECURE", false),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
