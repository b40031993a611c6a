package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KromaEnergia/api-contratos/internal/respaldo"
)

func newBackupCmd() *cobra.Command {
	var (
		dir      string
		keepDays int
		formato  string
		remoto   bool
		noRemoto bool
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Genera un respaldo de la base de datos",
		Long: `Genera un volcado JSON de todas las tablas y, con SQLite, una copia del archivo.
Borra los respaldos más viejos que --keep-days. Si GCS_BUCKET está configurado la copia
también se sube al bucket, salvo con --no-remote.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, db, err := abrir(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("output-dir") {
				dir = cfg.BackupDir
			}
			if !cmd.Flags().Changed("keep-days") {
				keepDays = cfg.BackupKeepDays
			}

			var sub respaldo.Subidor
			if g := respaldo.NuevoGCS(cfg); g != nil {
				sub = g
			}
			o := respaldo.Opciones{
				Dir:      dir,
				KeepDays: keepDays,
				Formato:  formato,
				Remoto:   (remoto || sub != nil) && !noRemoto,
			}
			res, err := respaldo.New(db, sub).Ejecutar(ctx, o)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, a := range res.Archivos {
				fmt.Fprintf(out, "creado: %s\n", a)
			}
			for _, s := range res.Subidos {
				fmt.Fprintf(out, "subido: %s\n", s)
			}
			if res.Eliminados > 0 {
				fmt.Fprintf(out, "eliminados: %d respaldo(s) antiguo(s)\n", res.Eliminados)
			}
			for _, a := range res.Avisos {
				fmt.Fprintf(cmd.ErrOrStderr(), "aviso: %s\n", a)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "output-dir", "backups", "Directorio local de respaldos")
	cmd.Flags().IntVar(&keepDays, "keep-days", 30, "Días que se conservan los respaldos (0 no borra)")
	cmd.Flags().StringVar(&formato, "format", respaldo.FormatoAmbos, "Formato: json, sqlite o both")
	cmd.Flags().BoolVar(&remoto, "remote", false, "Subir a GCS aunque no sea el comportamiento por defecto")
	cmd.Flags().BoolVar(&noRemoto, "no-remote", false, "Solo copia local")
	cmd.MarkFlagsMutuallyExclusive("remote", "no-remote")

	return cmd
}
