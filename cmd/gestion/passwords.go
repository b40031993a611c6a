package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromaEnergia/api-contratos/internal/cifrado"
	"github.com/KromaEnergia/api-contratos/internal/email"
)

func newEncriptarPasswordsCmd() *cobra.Command {
	var generar bool

	cmd := &cobra.Command{
		Use:   "encriptar-passwords",
		Short: "Cifra los passwords SMTP guardados en claro",
		RunE: func(cmd *cobra.Command, args []string) error {
			if generar {
				k, err := cifrado.GenerarClave()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ENCRYPTION_KEY=%s\n", k)
				return nil
			}

			ctx := cmd.Context()
			cfg, db, err := abrir(ctx)
			if err != nil {
				return err
			}
			cif, err := cifrado.DesdeConfig(cfg)
			if err != nil {
				return err
			}
			n, err := email.NewServicio(db, cif).EncriptarPendientes(ctx)
			if err != nil {
				return fmt.Errorf("cifrados %d antes del error: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "passwords cifrados: %d\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&generar, "generar-clave", false, "Solo imprime una ENCRYPTION_KEY nueva")

	return cmd
}
