package notificacion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnviarResumen(t *testing.T) {
	var recibido Resumen
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&recibido))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NuevoWebhook(srv.URL)
	err := w.enviar(context.Background(), Resumen{
		Lote: "abc", Fecha: time.Now(), Mensaje: "2 alertas",
		AlertasPorTipo: map[string]int{"VENCIMIENTO_CONTRATO": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", recibido.Lote)
	assert.Equal(t, 2, recibido.AlertasPorTipo["VENCIMIENTO_CONTRATO"])
}

func TestEnviarResumenErrores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NuevoWebhook(srv.URL).enviar(context.Background(), Resumen{Lote: "x"})
	assert.ErrorContains(t, err, "500")

	// sin URL no hay webhook y el envío es un no-op
	var nada *Webhook = NuevoWebhook("")
	assert.Nil(t, nada)
	nada.EnviarResumen(context.Background(), Resumen{})
}
