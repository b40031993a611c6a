package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config reúne todas las variables de entorno del servicio.
type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBDriver          string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath            string `env:"DB_PATH" envDefault:"db.sqlite3"`
	DBHost            string `env:"DB_HOST" envDefault:"localhost"`
	DBPort            uint   `env:"DB_PORT" envDefault:"5432"`
	DBName            string `env:"DB_NAME" envDefault:"contratos"`
	DBUsername        string `env:"DB_USERNAME"`
	DBPassword        string `env:"DB_PASSWORD"`
	DBSecretID        string `env:"DB_SECRET_ID"`
	DBSSLModeDisabled bool   `env:"DB_SSL_MODE_DISABLE" envDefault:"false"`

	AuthRSAPrivatePath string   `env:"AUTH_RSA_PRIVATE_PATH"`
	AuthKID            string   `env:"AUTH_KID"`
	AuthIssuer         string   `env:"AUTH_ISSUER"`
	AuthAudience       string   `env:"AUTH_AUDIENCE"`
	CookieSecure       bool     `env:"COOKIE_SECURE" envDefault:"false"`
	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	LicenseURL     string        `env:"LICENSE_URL" envDefault:"https://us-central1-app-contable-licencias.cloudfunctions.net/activateLicense"`
	LicenseTimeout time.Duration `env:"LICENSE_TIMEOUT" envDefault:"25s"`

	EncryptionKey string `env:"ENCRYPTION_KEY"`
	SecretKey     string `env:"SECRET_KEY"`

	BackupDir      string `env:"BACKUP_DIR" envDefault:"backups"`
	BackupKeepDays int    `env:"BACKUP_KEEP_DAYS" envDefault:"30"`
	GCSBucket      string `env:"GCS_BUCKET"`
	GCSCredentials string `env:"GCS_CREDENTIALS_JSON"`

	AlertasWebhookURL string `env:"ALERTAS_WEBHOOK_URL"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

// ParseEnv llena target a partir de las etiquetas env.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load carga .env (si existe) y devuelve la configuración.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("cargar .env: %w", err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER no soportado: %q", cfg.DBDriver)
	}
	SetLevel(cfg.LogLevel)
	return &cfg, nil
}
