package contrato

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func router(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/contratos", h.Listar).Methods(http.MethodGet)
	r.HandleFunc("/contratos", h.Crear).Methods(http.MethodPost)
	r.HandleFunc("/contratos/{id}", h.Obtener).Methods(http.MethodGet)
	r.HandleFunc("/contratos/{id}", h.Actualizar).Methods(http.MethodPut)
	r.HandleFunc("/contratos/{id}", h.Eliminar).Methods(http.MethodDelete)
	r.HandleFunc("/contratos/{id}/vista-vigente", h.VistaVigente).Methods(http.MethodGet)
	r.HandleFunc("/contratos/{id}/polizas-requeridas", h.PolizasRequeridas).Methods(http.MethodGet)
	r.HandleFunc("/contratos/{id}/facturacion-ventas", h.FacturacionVentas).Methods(http.MethodGet)
	return r
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

func cuerpo(num string) map[string]any {
	return map[string]any{
		"numContrato":          num,
		"tercero":              "Almacenes Éxito",
		"fechaInicialContrato": "2024-01-01T00:00:00Z",
		"duracionInicialMeses": 24,
		"modalidadPago":        models.ModalidadFijo,
		"valorCanonFijo":       "2500000",
		"tipoCondicionIpc":     models.CondicionIPC,
		"periodicidadIpc":      models.PeriodicidadAnual,
		"polizaRce":            map[string]any{"exige": true, "valorAsegurado": "100000000", "mesesVigencia": 12},
	}
}

func TestAplicarReglas(t *testing.T) {
	meses := 6
	c := &models.Contrato{
		FechaInicialContrato: fechas.Nueva(2024, 3, 15),
		PeriodicidadIPC:      models.PeriodicidadAnual,
	}
	c.PolizaCumplimiento = models.RequisitoPoliza{Exige: true, MesesVigencia: &meses}
	c.PolizaRCE = models.RequisitoPoliza{Exige: false, MesesVigencia: &meses}
	AplicarReglas(c)

	assert.Equal(t, DuracionPorDefecto, c.DuracionInicialMeses)
	require.NotNil(t, c.FechaFinalInicial)
	assert.Equal(t, fechas.Nueva(2025, 3, 15), *c.FechaFinalInicial)
	require.NotNil(t, c.FechaAumentoIPC)
	assert.Equal(t, fechas.Nueva(2024, 3, 15), *c.FechaAumentoIPC)
	require.NotNil(t, c.PolizaCumplimiento.FechaFinVigencia)
	assert.Equal(t, fechas.Nueva(2024, 9, 15), *c.PolizaCumplimiento.FechaFinVigencia)
	assert.Nil(t, c.PolizaRCE.FechaInicioVigencia)

	fija := fechas.Nueva(2024, 7, 1)
	c2 := &models.Contrato{FechaInicialContrato: fechas.Nueva(2024, 1, 1), PeriodicidadIPC: models.PeriodicidadEspecifica, FechaAumentoIPC: &fija}
	AplicarReglas(c2)
	assert.Equal(t, fija, *c2.FechaAumentoIPC)
}

func TestValidarDTO(t *testing.T) {
	base := func() ContratoDTO {
		return ContratoDTO{NumContrato: "C-1", FechaInicialContrato: fechas.Nueva(2024, 1, 1), ModalidadPago: models.ModalidadFijo, ValorCanonFijo: dpd("1")}
	}
	assert.NoError(t, func() error { d := base(); return d.Validar() }())

	tests := []struct {
		name  string
		mod   func(d *ContratoDTO)
		campo string
	}{
		{"fijo sin canon", func(d *ContratoDTO) { d.ValorCanonFijo = nil }, "valorCanonFijo"},
		{"híbrido sin mínimo", func(d *ContratoDTO) { d.ModalidadPago = models.ModalidadHibrido; d.PorcentajeVentas = dpd("5") }, "canonMinimoGarantizado"},
		{"porcentaje mayor a 100", func(d *ContratoDTO) { d.ModalidadPago = models.ModalidadVariablePuro; d.PorcentajeVentas = dpd("120") }, "porcentajeVentas"},
		{"fecha específica sin fecha", func(d *ContratoDTO) { d.PeriodicidadIPC = models.PeriodicidadEspecifica }, "fechaAumentoIpc"},
		{"fin antes del inicio", func(d *ContratoDTO) { d.FechaFinalInicial = fechas.Ptr(fechas.Nueva(2023, 1, 1)) }, "fechaFinalInicial"},
		{"modalidad desconocida", func(d *ContratoDTO) { d.ModalidadPago = "Trueque" }, "modalidadPago"},
		{"puntos negativos", func(d *ContratoDTO) { d.PuntosAdicionalesIPC = dpd("-1") }, "puntosAdicionalesIpc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base()
			tt.mod(&d)
			err := d.Validar()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.campo)
		})
	}
}

func dpd(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestCrearActualizarYDuplicado(t *testing.T) {
	db := newTestDB(t)
	r := router(NewHandler(db))

	rec := hacer(t, r, http.MethodPost, "/contratos", cuerpo("C-2024-01"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Contrato
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.True(t, c.Vigente)
	assert.Equal(t, "sistema", c.CreadoPor)
	assert.Equal(t, models.TipoContratoCliente, c.TipoContrato)
	require.NotNil(t, c.FechaFinalInicial)
	assert.Equal(t, "2026-01-01", c.FechaFinalInicial.Format(fechas.Layout))
	require.NotNil(t, c.PolizaRCE.FechaFinVigencia)
	assert.Equal(t, "2025-01-01", c.PolizaRCE.FechaFinVigencia.Format(fechas.Layout))

	rec = hacer(t, r, http.MethodPost, "/contratos", cuerpo("C-2024-01"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "numContrato")

	id := strconv.Itoa(int(c.ID))
	upd := cuerpo("C-2024-01")
	upd["valorCanonFijo"] = "2700000"
	rec = hacer(t, r, http.MethodPut, "/contratos/"+id, upd)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var guardado models.Contrato
	require.NoError(t, db.First(&guardado, c.ID).Error)
	assert.True(t, guardado.ValorCanonFijo.Equal(decimal.NewFromInt(2700000)))

	rec = hacer(t, r, http.MethodGet, "/contratos/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCrearConCatalogos(t *testing.T) {
	db := newTestDB(t)
	r := router(NewHandler(db))
	ter := models.Tercero{Nit: "900123456", RazonSocial: "Cafés del Sur SAS", Tipo: models.TerceroArrendatario, NombreRepLegal: "Ana"}
	require.NoError(t, db.Create(&ter).Error)
	loc := models.Local{NombreComercialStand: "Local 101", TotalAreaM2: decimal.NewFromInt(45)}
	require.NoError(t, db.Create(&loc).Error)

	body := cuerpo("C-CAT-1")
	body["terceroId"] = ter.ID
	body["localId"] = loc.ID
	body["reportaVentas"] = true
	body["diaLimiteReporteVentas"] = 10
	rec := hacer(t, r, http.MethodPost, "/contratos", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Contrato
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "Cafés del Sur SAS", c.Tercero)
	assert.Equal(t, "900123456", c.NitTercero)
	assert.True(t, c.ReportaVentas)

	body = cuerpo("C-CAT-2")
	body["tipoServicioId"] = 77
	rec = hacer(t, r, http.MethodPost, "/contratos", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "tipoServicioId")

	body = cuerpo("C-CAT-3")
	body["diaLimiteReporteVentas"] = 40
	rec = hacer(t, r, http.MethodPost, "/contratos", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEliminarEsLogico(t *testing.T) {
	db := newTestDB(t)
	r := router(NewHandler(db))
	rec := hacer(t, r, http.MethodPost, "/contratos", cuerpo("C-9"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var c models.Contrato
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))

	rec = hacer(t, r, http.MethodDelete, "/contratos/"+strconv.Itoa(int(c.ID)), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var n int64
	require.NoError(t, db.Model(&models.Contrato{}).Count(&n).Error)
	assert.Zero(t, n)

	var borrado models.Contrato
	require.NoError(t, db.Unscoped().First(&borrado, c.ID).Error)
	assert.False(t, borrado.Vigente)
	assert.Equal(t, "sistema", borrado.EliminadoPor)
	assert.NotNil(t, borrado.FechaEliminacion)

	// el número sigue ocupado
	rec = hacer(t, r, http.MethodPost, "/contratos", cuerpo("C-9"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListarFiltra(t *testing.T) {
	db := newTestDB(t)
	r := router(NewHandler(db))
	for _, num := range []string{"A-1", "A-2", "B-1"} {
		require.Equal(t, http.StatusCreated, hacer(t, r, http.MethodPost, "/contratos", cuerpo(num)).Code)
	}
	require.NoError(t, db.Model(&models.Contrato{}).Where("num_contrato = ?", "A-2").Update("vigente", false).Error)

	var list []models.Contrato
	rec := hacer(t, r, http.MethodGet, "/contratos?vigente=true&q=A-", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "A-1", list[0].NumContrato)

	rec = hacer(t, r, http.MethodGet, "/contratos?vigente=quizas", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVistaYPolizasRequeridas(t *testing.T) {
	db := newTestDB(t)
	r := router(NewHandler(db))
	rec := hacer(t, r, http.MethodPost, "/contratos", cuerpo("C-1"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var c models.Contrato
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	id := strconv.Itoa(int(c.ID))

	require.NoError(t, db.Create(&models.OtroSi{
		ContratoID: c.ID, NumeroOtroSi: "OS-1", Estado: models.EstadoAprobado, Version: 1,
		EffectiveFrom: fechas.Nueva(2025, 1, 1), NuevoValorCanon: dpd("3000000"),
	}).Error)

	rec = hacer(t, r, http.MethodGet, "/contratos/"+id+"/vista-vigente?fecha=2025-02-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v vigencia.Vista
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.True(t, v.ValorCanon.Equal(decimal.NewFromInt(3000000)))
	assert.Equal(t, "OS-1", v.CamposModificados[vigencia.CampoValorCanon])

	rec = hacer(t, r, http.MethodGet, "/contratos/"+id+"/vista-vigente?fecha=2023-12-31", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = hacer(t, r, http.MethodGet, "/contratos/"+id+"/polizas-requeridas?fecha=2024-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reqs []vigencia.RequisitoResuelto
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reqs))
	require.Len(t, reqs, 1)
	assert.Equal(t, models.GrupoRCE, reqs[0].Grupo)

	rec = hacer(t, r, http.MethodGet, "/contratos/"+id+"/polizas-requeridas?fecha=2023-06-01", nil)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = hacer(t, r, http.MethodGet, "/contratos/"+id+"/facturacion-ventas?mes=3&anio=2025", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = hacer(t, r, http.MethodGet, "/contratos/"+id+"/facturacion-ventas?mes=13&anio=2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
