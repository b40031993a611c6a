package db

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

// ConnectDataBase abre la base según DB_DRIVER: archivo SQLite por defecto o PostgreSQL.
func ConnectDataBase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Error)}

	switch cfg.DBDriver {
	case "postgres":
		username, password, err := retrieveCredentials(ctx, cfg.DBUsername, cfg.DBPassword, cfg.DBSecretID)
		if err != nil {
			return nil, err
		}
		var sslMode string
		if cfg.DBSSLModeDisabled {
			sslMode = " sslmode=disable"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d%s",
			cfg.DBHost, username, password, cfg.DBName, cfg.DBPort, sslMode)
		return gorm.Open(postgres.Open(dsn), gcfg)
	default:
		database, err := gorm.Open(sqlite.Open(cfg.DBPath+"?_pragma=foreign_keys(1)"), gcfg)
		if err != nil {
			return nil, err
		}
		return database, nil
	}
}
