package empresa

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func router(db *gorm.DB) *mux.Router {
	h := NewHandler(db)
	r := mux.NewRouter()
	r.HandleFunc("/empresas", h.Listar).Methods(http.MethodGet)
	r.HandleFunc("/empresas", h.Crear).Methods(http.MethodPost)
	r.HandleFunc("/empresas/activa", h.ObtenerActiva).Methods(http.MethodGet)
	r.HandleFunc("/empresas/{id}", h.Actualizar).Methods(http.MethodPut)
	r.HandleFunc("/empresas/{id}", h.Eliminar).Methods(http.MethodDelete)
	return r
}

func TestActivaSinEmpresas(t *testing.T) {
	e, err := Activa(newTestDB(t))
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestSoloUnaEmpresaActiva(t *testing.T) {
	db := newTestDB(t)
	r := router(db)

	for _, nombre := range []string{"Inmobiliaria Uno", "Inmobiliaria Dos"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/empresas", strings.NewReader(`{"nombre":"`+nombre+`","nit":"900","activo":true}`)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	e, err := Activa(db)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Inmobiliaria Dos", e.Nombre)

	var activas int64
	require.NoError(t, db.Model(&models.ConfiguracionEmpresa{}).Where("activo = ?", true).Count(&activas).Error)
	assert.EqualValues(t, 1, activas)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/empresas/activa", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Inmobiliaria Dos")
}

func TestCrearValidaYEliminar(t *testing.T) {
	r := router(newTestDB(t))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/empresas", strings.NewReader(`{"nit":"900"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/empresas/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/empresas/99", strings.NewReader(`{"nombre":"x"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
