package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/licencia"
)

func newVerificarLicenciaCmd() *cobra.Command {
	var clave string

	cmd := &cobra.Command{
		Use:   "verificar-licencia",
		Short: "Consulta la licencia primaria con el proveedor",
		Long:  "Consulta la licencia primaria con el proveedor. Con --clave registra antes esa clave como primaria.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := abrir(ctx)
			if err != nil {
				return err
			}
			m := licencia.NewManager(db, licencia.NuevoCliente(cfg))
			if clave != "" {
				if _, err := m.Registrar(ctx, clave); err != nil {
					return err
				}
			}

			res, err := m.VerificarLicencia(ctx)
			if errors.Is(err, licencia.ErrSinLicencia) {
				return errors.New("no hay licencia registrada; use --clave")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Mensaje)
			if err != nil {
				return err
			}
			if l := res.Licencia; l != nil {
				fmt.Fprintf(out, "estado: %s  activa: %t  vence: %s\n", l.VerificationStatus, l.IsActive, fechas.Formato(l.ExpirationDate))
				if l.CustomerName != "" {
					fmt.Fprintf(out, "cliente: %s <%s>\n", l.CustomerName, l.CustomerEmail)
				}
			}
			if !res.Valida {
				return errors.New("licencia no válida")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clave, "clave", "", "Clave de licencia a registrar como primaria")

	return cmd
}
