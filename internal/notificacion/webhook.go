// Package notificacion publica un resumen de cada envío de alertas en un webhook externo.
package notificacion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

// Resumen es el cuerpo que recibe el webhook.
type Resumen struct {
	Lote           string         `json:"lote"`
	Fecha          time.Time      `json:"fecha"`
	Mensaje        string         `json:"mensaje"`
	AlertasPorTipo map[string]int `json:"alertasPorTipo"`
	Errores        []string       `json:"errores,omitempty"`
}

type Webhook struct {
	URL    string
	Client *http.Client
}

// NuevoWebhook devuelve nil cuando no hay URL configurada.
func NuevoWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

// EnviarResumen no reintenta; un fallo solo se registra en el log.
func (w *Webhook) EnviarResumen(ctx context.Context, r Resumen) {
	if w == nil {
		return
	}
	if err := w.enviar(ctx, r); err != nil {
		config.LogError(config.GetLogger(), "notificacion", "EnviarResumen", "error al enviar webhook", map[string]any{"lote": r.Lote}, err)
	}
}

func (w *Webhook) enviar(ctx context.Context, r Resumen) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook respondió %d", resp.StatusCode)
	}
	return nil
}
