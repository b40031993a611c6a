package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KromaEnergia/api-contratos/internal/usuario"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

func newCrearAdminCmd() *cobra.Command {
	var (
		username string
		correo   string
		password string
	)

	cmd := &cobra.Command{
		Use:   "crear-admin",
		Short: "Crea un administrador o promueve uno existente",
		Long: `Crea el usuario administrador. Si el username ya existe lo promueve y le cambia la
contraseña. La contraseña también puede venir en ADMIN_PASSWORD; sin ninguna de las dos se
genera una temporal y se imprime.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			generada := password == ""
			if generada {
				p, err := utils.GerarSenhaTemporaria(16)
				if err != nil {
					return err
				}
				password = p
			}
			ctx := cmd.Context()
			_, db, err := abrir(ctx)
			if err != nil {
				return err
			}
			u, creado, err := usuario.CrearAdmin(ctx, db, username, correo, password)
			if err != nil {
				return err
			}
			if creado {
				fmt.Fprintf(cmd.OutOrStdout(), "administrador %s creado (id %d)\n", u.Username, u.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "usuario %s actualizado como administrador\n", u.Username)
			}
			if generada {
				fmt.Fprintf(cmd.OutOrStdout(), "contraseña temporal: %s\n", password)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "admin", "Username del administrador")
	cmd.Flags().StringVar(&correo, "email", "", "Correo del administrador")
	cmd.Flags().StringVar(&password, "password", "", "Contraseña (o ADMIN_PASSWORD; vacía genera una)")

	return cmd
}
