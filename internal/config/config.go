package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config contient la configuration globale de l'application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Session  SessionConfig
	Log      LogConfig
}

// ServerConfig contient la configuration du serveur web
type ServerConfig struct {
	Port string
}

// DatabaseConfig contient la configuration de la base de données
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// SMTPConfig contient la configuration de l'envoi d'emails.
// Si Host est vide, les emails sont affichés dans la console (mode dev).
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SessionConfig contient la configuration des cookies de session
type SessionConfig struct {
	CookieName string
	CSRFCookie string
	TTL        time.Duration
}

// LogConfig contient la configuration du logger
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger les variables d'environnement depuis .env si présent
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "crm_accounts"),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("FROM_EMAIL", "no-reply@crm.local"),
		},
		Session: SessionConfig{
			CookieName: getEnv("SESSION_COOKIE_NAME", "crm_session"),
			CSRFCookie: getEnv("CSRF_COOKIE_NAME", "crm_csrf_token"),
			TTL:        getEnvHours("SESSION_TTL_HOURS", 24),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", true),
		},
	}

	return config, nil
}

// getEnv retourne la variable d'environnement ou la valeur par défaut
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvHours(key string, fallback int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback) * time.Hour
	}
	h, err := strconv.Atoi(v)
	if err != nil || h <= 0 {
		return time.Duration(fallback) * time.Hour
	}
	return time.Duration(h) * time.Hour
}
