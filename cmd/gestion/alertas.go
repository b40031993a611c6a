package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/KromaEnergia/api-contratos/internal/alertas"
	"github.com/KromaEnergia/api-contratos/internal/cifrado"
	"github.com/KromaEnergia/api-contratos/internal/email"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/notificacion"
)

func newEnviarAlertasCmd() *cobra.Command {
	var (
		tipo   string
		forzar bool
		fecha  string
	)

	cmd := &cobra.Command{
		Use:   "enviar-alertas",
		Short: "Envía por email las alertas programadas",
		Long: `Recorre las configuraciones activas y envía las que tocan según su frecuencia.
Con --tipo envía solo ese tipo; con --forzar ignora la programación.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := fechas.Hoy()
			if fecha != "" {
				t, err := fechas.Parse(fecha)
				if err != nil {
					return fmt.Errorf("--fecha: %w", err)
				}
				ref = t
			}
			if tipo != "" && models.NombresAlerta[tipo] == "" {
				return fmt.Errorf("tipo de alerta desconocido: %s (use %s)", tipo, strings.Join(models.TiposAlerta, ", "))
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
			envio := alertas.NewEnvio(db, email.NewServicio(db, cif), notificacion.NuevoWebhook(cfg.AlertasWebhookURL))

			var resultados []alertas.Resultado
			if tipo != "" {
				r, err := envio.EnviarTipo(ctx, tipo, ref, forzar, uuid.NewString())
				if err != nil {
					return err
				}
				resultados = append(resultados, r)
			} else {
				lote, rs, err := envio.EnviarProgramadas(ctx, ref, forzar)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "lote %s\n", lote)
				resultados = rs
			}
			imprimirResultados(cmd, resultados)
			return nil
		},
	}

	cmd.Flags().StringVar(&tipo, "tipo", "", "Tipo de alerta a enviar (todos si se omite)")
	cmd.Flags().BoolVar(&forzar, "forzar", false, "Enviar aunque no toque según la frecuencia")
	cmd.Flags().StringVar(&fecha, "fecha", "", "Fecha de referencia YYYY-MM-DD (hoy por defecto)")

	return cmd
}

func imprimirResultados(cmd *cobra.Command, rs []alertas.Resultado) {
	out := cmd.OutOrStdout()
	enviados := 0
	for _, r := range rs {
		switch {
		case r.Enviado:
			enviados++
			fmt.Fprintf(out, "  %-32s enviado: %d alerta(s) a %d destinatario(s)\n", r.TipoAlerta, r.AlertasEnviadas, r.Destinatarios)
		default:
			fmt.Fprintf(out, "  %-32s omitido: %s\n", r.TipoAlerta, r.Motivo)
		}
		for _, e := range r.Errores {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %-32s error: %s\n", r.TipoAlerta, e)
		}
	}
	fmt.Fprintf(out, "%d de %d tipo(s) enviados\n", enviados, len(rs))
}

func newConfigurarAlertasDefaultCmd() *cobra.Command {
	var (
		o           alertas.OpcionesDefault
		destNombre  string
		destEmail   string
		soloActivas bool
	)

	cmd := &cobra.Command{
		Use:   "configurar-alertas-default",
		Short: "Crea una configuración por cada tipo de alerta",
		Long: `Crea la configuración de envío de cada tipo de alerta que aún no exista.
Con --sobrescribir también actualiza las existentes. --destinatario-email agrega ese
correo a todas las configuraciones.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, db, err := abrir(ctx)
			if err != nil {
				return err
			}
			creadas, actualizadas, err := alertas.ConfigurarDefault(ctx, db, o)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuraciones creadas: %d, actualizadas: %d\n", creadas, actualizadas)

			if destEmail != "" {
				n, err := alertas.AgregarDestinatarioATodas(ctx, db, destNombre, destEmail, soloActivas)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "destinatario %s agregado a %d configuración(es)\n", destEmail, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&o.Frecuencia, "frecuencia", models.FrecuenciaSemanal, "INMEDIATO, DIARIO, SEMANAL o MENSUAL")
	cmd.Flags().IntSliceVar(&o.DiasSemana, "dias", []int{0}, "Días de la semana (0 lunes ... 6 domingo)")
	cmd.Flags().StringVar(&o.HoraEnvio, "hora", "08:00", "Hora de envío HH:MM")
	cmd.Flags().BoolVar(&o.SoloCriticas, "solo-criticas", false, "Enviar solo alertas críticas")
	cmd.Flags().BoolVar(&o.Inactivas, "inactivas", false, "Crear las configuraciones desactivadas")
	cmd.Flags().BoolVar(&o.Sobrescribir, "sobrescribir", false, "Actualizar configuraciones existentes")
	cmd.Flags().StringVar(&destNombre, "destinatario-nombre", "", "Nombre del destinatario")
	cmd.Flags().StringVar(&destEmail, "destinatario-email", "", "Correo a agregar en todas las configuraciones")
	cmd.Flags().BoolVar(&soloActivas, "solo-activas", false, "Agregar el destinatario solo a configuraciones activas")

	return cmd
}
