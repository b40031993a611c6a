package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromaEnergia/api-contratos/internal/clausula"
)

func newCrearClausulasInicialesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crear-clausulas-iniciales",
		Short: "Carga el catálogo base de cláusulas contractuales",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := abrir(ctx)
			if err != nil {
				return err
			}
			creadas, actualizadas, err := clausula.Sembrar(ctx, db, "Sistema - Inicialización")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cláusulas: %d creada(s), %d actualizada(s)\n", creadas, actualizadas)
			return nil
		},
	}
}
