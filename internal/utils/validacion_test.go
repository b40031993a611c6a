package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dtoPrueba struct {
	Nombre string `validate:"required"`
	Tipo   string `validate:"oneof=A B"`
}

func TestValidarCampos(t *testing.T) {
	err := Validar(dtoPrueba{Tipo: "C"})
	var ve *ErrValidacion
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "campo obligatorio", ve.Campos["Nombre"])
	assert.Contains(t, ve.Campos["Tipo"], "A B")

	assert.NoError(t, Validar(dtoPrueba{Nombre: "x", Tipo: "A"}))
}

func TestResponderErrorValidacion(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponderError(rec, NuevoErrValidacion("num_contrato", "ya existe"), "error", http.StatusInternalServerError)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ya existe")

	rec = httptest.NewRecorder()
	ResponderError(rec, errors.New("db caída"), "Error interno", http.StatusInternalServerError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db caída")
}

func TestIDRutaYFechaQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/contratos/7?fecha=2024-03-01", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "7"})
	id, err := IDRuta(req, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	f, err := FechaQuery(req, "fecha", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2024, f.Year())

	req = mux.SetURLVars(req, map[string]string{"id": "x"})
	_, err = IDRuta(req, "id")
	assert.Error(t, err)
}

func TestHashSenha(t *testing.T) {
	h, err := HashSenha("secreta123")
	require.NoError(t, err)
	assert.True(t, VerificarSenha(h, "secreta123"))
	assert.False(t, VerificarSenha(h, "otra"))

	s, err := GerarSenhaTemporaria(4)
	require.NoError(t, err)
	assert.Len(t, s, 12)
}
