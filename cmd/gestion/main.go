// Command gestion agrupa las tareas de mantenimiento que se corren fuera del servidor HTTP,
// normalmente desde cron: respaldos, envío de alertas y carga de datos iniciales.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	dbpkg "github.com/KromaEnergia/api-contratos/internal/utils/db"
)

var version = "dev"

// abrir carga la configuración y conecta la base. Los tests lo reemplazan.
var abrir = func(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := dbpkg.GetDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "gestion",
		Short:        "Tareas de mantenimiento del sistema de contratos",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newEnviarAlertasCmd())
	rootCmd.AddCommand(newConfigurarAlertasDefaultCmd())
	rootCmd.AddCommand(newInicializarIPCCmd())
	rootCmd.AddCommand(newEncriptarPasswordsCmd())
	rootCmd.AddCommand(newVerificarLicenciaCmd())
	rootCmd.AddCommand(newCrearAdminCmd())
	rootCmd.AddCommand(newCrearClausulasInicialesCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
