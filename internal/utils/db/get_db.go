package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/usuario"
)

// GetDB conecta y migra todas las tablas.
func GetDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	database, err := ConnectDataBase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("conectar base: %w", err)
	}
	if err := Migrate(database); err != nil {
		return nil, err
	}
	return database, nil
}

// Migrate ejecuta AutoMigrate para todos los modelos.
func Migrate(database *gorm.DB) error {
	if err := models.Migrate(database); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := database.AutoMigrate(&usuario.Usuario{}, &auth.RefreshToken{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
