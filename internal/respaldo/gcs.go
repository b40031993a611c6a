package respaldo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

// Subidor es el destino remoto de los respaldos.
type Subidor interface {
	Subir(ctx context.Context, objeto string, r io.Reader, contentType string) error
}

type GCS struct {
	Bucket       string
	Credenciales string
}

// NuevoGCS devuelve nil si no hay bucket configurado.
func NuevoGCS(cfg *config.Config) *GCS {
	if cfg.GCSBucket == "" {
		return nil
	}
	return &GCS{Bucket: cfg.GCSBucket, Credenciales: cfg.GCSCredentials}
}

// cliente usa GCS_CREDENTIALS_JSON si existe y, si no, las credenciales por defecto del entorno.
func (g *GCS) cliente(ctx context.Context) (*storage.Client, error) {
	if strings.TrimSpace(g.Credenciales) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(g.Credenciales)))
	}
	return storage.NewClient(ctx)
}

func (g *GCS) Subir(ctx context.Context, objeto string, r io.Reader, contentType string) error {
	if g == nil || g.Bucket == "" {
		return errors.New("GCS_BUCKET es obligatorio")
	}
	client, err := g.cliente(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	bucket := client.Bucket(g.Bucket)
	if _, err := bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket %q no existe o no es accesible: %w", g.Bucket, err)
	}
	wc := bucket.Object(objeto).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return fmt.Errorf("subir %s: %w", objeto, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("cerrar %s: %w", objeto, err)
	}
	return nil
}
