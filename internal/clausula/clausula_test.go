package clausula

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func sembrar(t *testing.T, db *gorm.DB) map[string]uint {
	t.Helper()
	_, _, err := Sembrar(context.Background(), db, "sistema")
	require.NoError(t, err)
	var list []models.Clausula
	require.NoError(t, db.Find(&list).Error)
	ids := make(map[string]uint, len(list))
	for _, c := range list {
		ids[c.Titulo] = c.ID
	}
	return ids
}

func titulos(list []models.Clausula) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.Titulo)
	}
	return out
}

func TestSembrarEsIdempotente(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	creadas, act, err := Sembrar(ctx, db, "sistema")
	require.NoError(t, err)
	assert.Equal(t, 15, creadas)
	assert.Zero(t, act)

	var sarlaft models.Clausula
	require.NoError(t, db.Where("titulo = ?", "Cláusula SARLAFT").First(&sarlaft).Error)
	assert.Equal(t, 4, sarlaft.Orden)
	require.NoError(t, db.Model(&sarlaft).Update("activa", false).Error)

	creadas, act, err = Sembrar(ctx, db, "sistema")
	require.NoError(t, err)
	assert.Zero(t, creadas)
	assert.Equal(t, 15, act)
	require.NoError(t, db.First(&sarlaft, sarlaft.ID).Error)
	assert.True(t, sarlaft.Activa)
}

func TestObligatoriasPorAlcance(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	ctx := context.Background()
	ids := sembrar(t, db)

	arr := models.TipoContrato{Nombre: "Arrendamiento"}
	require.NoError(t, db.Create(&arr).Error)
	aseo := models.TipoServicio{Nombre: "Aseo"}
	require.NoError(t, db.Create(&aseo).Error)

	_, err := s.Parametrizar(ctx, Parametrizacion{
		TipoContrato: models.TipoContratoCliente,
		ClausulaIDs:  []uint{ids["Cláusula SARLAFT"], ids["Cláusula de Confidencialidad"]},
	}, "ana")
	require.NoError(t, err)
	_, err = s.Parametrizar(ctx, Parametrizacion{
		TipoContrato: models.TipoContratoCliente, TipoContratoID: &arr.ID,
		ClausulaIDs: []uint{ids["Cláusula de Pólizas de Seguro"]},
	}, "ana")
	require.NoError(t, err)
	_, err = s.Parametrizar(ctx, Parametrizacion{
		TipoContrato: models.TipoContratoProveedor, TipoServicioID: &aseo.ID,
		ClausulaIDs: []uint{ids["Cláusula de Subcontratación"]},
	}, "ana")
	require.NoError(t, err)

	generico := &models.Contrato{TipoContrato: models.TipoContratoCliente}
	list, err := Obligatorias(db, generico)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Cláusula SARLAFT", "Cláusula de Confidencialidad"}, titulos(list))

	especifico := &models.Contrato{TipoContrato: models.TipoContratoCliente, TipoContratoID: &arr.ID}
	list, err = Obligatorias(db, especifico)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	prov := &models.Contrato{TipoContrato: models.TipoContratoProveedor, TipoServicioID: &aseo.ID}
	list, err = Obligatorias(db, prov)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cláusula de Subcontratación"}, titulos(list))

	// reparametrizar desactiva lo que ya no se eligió
	_, err = s.Parametrizar(ctx, Parametrizacion{
		TipoContrato: models.TipoContratoCliente, ClausulaIDs: []uint{ids["Cláusula SARLAFT"]},
	}, "ana")
	require.NoError(t, err)
	list, err = Obligatorias(db, generico)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cláusula SARLAFT"}, titulos(list))

	require.NoError(t, s.Desactivar(ctx, ids["Cláusula SARLAFT"], "ana"))
	list, err = Obligatorias(db, generico)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Parametrizar(ctx, Parametrizacion{
		TipoContrato: models.TipoContratoCliente, ClausulaIDs: []uint{ids["Cláusula SARLAFT"]},
	}, "ana")
	assert.ErrorIs(t, err, ErrClausulaInactiva)

	_, err = s.Parametrizar(ctx, Parametrizacion{TipoContrato: models.TipoContratoCliente, TipoServicioID: &aseo.ID}, "ana")
	assert.Error(t, err)
}

func TestAuditoriaDeContrato(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	ctx := context.Background()
	ids := sembrar(t, db)
	_, err := s.Parametrizar(ctx, Parametrizacion{
		TipoContrato: models.TipoContratoCliente,
		ClausulaIDs:  []uint{ids["Cláusula SARLAFT"], ids["Cláusula de Garantías"]},
	}, "ana")
	require.NoError(t, err)
	c := &models.Contrato{NumContrato: "C-1", TipoContrato: models.TipoContratoCliente, FechaInicialContrato: fechas.Nueva(2025, 1, 1)}
	require.NoError(t, db.Create(c).Error)

	a, err := s.GuardarDeContrato(ctx, c.ID, []uint{ids["Cláusula SARLAFT"], ids["Cláusula de Renovación"], ids["Cláusula SARLAFT"]}, "ana")
	require.NoError(t, err)
	assert.False(t, a.Completo)
	assert.Len(t, a.Asignadas, 2)
	assert.Equal(t, []string{"Cláusula de Garantías"}, titulos(a.Faltantes))
	assert.Len(t, a.Disponibles, 15)

	a, err = s.GuardarDeContrato(ctx, c.ID, []uint{ids["Cláusula SARLAFT"], ids["Cláusula de Garantías"]}, "ana")
	require.NoError(t, err)
	assert.True(t, a.Completo)
	assert.Empty(t, a.Faltantes)

	_, err = s.GuardarDeContrato(ctx, c.ID, []uint{9999}, "ana")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	a, err = s.Auditoria(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, a.Asignadas, 2)
}

func hacer(t *testing.T, r http.Handler, metodo, url string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(metodo, url, &buf))
	return rec
}

func TestHandlerClausulas(t *testing.T) {
	db := newTestDB(t)
	h := NewHandler(db)
	r := mux.NewRouter()
	r.HandleFunc("/clausulas", h.Listar).Methods(http.MethodGet)
	r.HandleFunc("/clausulas", h.Crear).Methods(http.MethodPost)
	r.HandleFunc("/clausulas/obligatorias", h.ListarObligatorias).Methods(http.MethodGet)
	r.HandleFunc("/clausulas/obligatorias", h.Parametrizar).Methods(http.MethodPut)
	r.HandleFunc("/clausulas/{id}", h.Actualizar).Methods(http.MethodPut)
	r.HandleFunc("/clausulas/{id}", h.Eliminar).Methods(http.MethodDelete)

	rec := hacer(t, r, http.MethodPost, "/clausulas", map[string]any{"titulo": " Cláusula de Exclusividad ", "orden": 16})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Clausula
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "Cláusula de Exclusividad", c.Titulo)
	assert.True(t, c.Activa)

	rec = hacer(t, r, http.MethodPost, "/clausulas", map[string]any{"titulo": "Borrador", "activa": false})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusBadRequest, hacer(t, r, http.MethodPost, "/clausulas", map[string]any{"titulo": ""}).Code)

	rec = hacer(t, r, http.MethodGet, "/clausulas?activa=true", nil)
	var list []models.Clausula
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"Cláusula de Exclusividad"}, titulos(list))

	rec = hacer(t, r, http.MethodPut, "/clausulas/obligatorias", map[string]any{"tipoContrato": "CLIENTE", "clausulaIds": []uint{c.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = hacer(t, r, http.MethodGet, "/clausulas/obligatorias?tipoContrato=CLIENTE", nil)
	var obl []models.ClausulaObligatoria
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &obl))
	require.Len(t, obl, 1)
	require.NotNil(t, obl[0].Clausula)
	assert.Equal(t, c.ID, obl[0].Clausula.ID)
	assert.Equal(t, http.StatusBadRequest, hacer(t, r, http.MethodGet, "/clausulas/obligatorias?tipoContrato=OTRO", nil).Code)

	id := "/clausulas/" + strconv.FormatUint(uint64(c.ID), 10)
	assert.Equal(t, http.StatusNoContent, hacer(t, r, http.MethodDelete, id, nil).Code)
	require.NoError(t, db.First(&c, c.ID).Error)
	assert.False(t, c.Activa)
	assert.Equal(t, "sistema", c.EliminadoPor)

	rec = hacer(t, r, http.MethodPut, id, map[string]any{"titulo": "Cláusula de Exclusividad", "activa": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.True(t, c.Activa)
	assert.Empty(t, c.EliminadoPor)

	rec = hacer(t, r, http.MethodPut, "/clausulas/obligatorias", map[string]any{"tipoContrato": "CLIENTE", "clausulaIds": []uint{9999}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
