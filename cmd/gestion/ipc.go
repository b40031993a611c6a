package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromaEnergia/api-contratos/internal/indexacion"
)

func newInicializarIPCCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inicializar-ipc",
		Short: "Carga el histórico de IPC certificado por el DANE",
		Long:  "Crea o actualiza los años 2010-2024 de ipc_historico con los valores del DANE.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := abrir(ctx)
			if err != nil {
				return err
			}
			creados, actualizados, err := indexacion.InicializarIPC(ctx, db, indexacion.IPCDane, "Sistema - Inicialización")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "IPC histórico: %d creado(s), %d actualizado(s)\n", creados, actualizados)
			return nil
		},
	}
}
