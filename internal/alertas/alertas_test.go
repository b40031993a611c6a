package alertas

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/email"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

var ref = fechas.Nueva(2025, 6, 1)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func crearContrato(t *testing.T, db *gorm.DB, num string, inicio, fin time.Time, mod func(*models.Contrato)) *models.Contrato {
	t.Helper()
	c := &models.Contrato{
		NumContrato: num, Tercero: "Tercero " + num, TipoContrato: models.TipoContratoCliente,
		FechaInicialContrato: inicio, FechaFinalInicial: fechas.Ptr(fin), Vigente: true,
		ModalidadPago: models.ModalidadFijo, ValorCanonFijo: dp("1000000"),
	}
	if mod != nil {
		mod(c)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func numeros(list []Alerta) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.NumContrato)
	}
	return out
}

func TestColor(t *testing.T) {
	tests := []struct {
		dias   int
		espera string
	}{
		{-5, ColorPeligro},
		{0, ColorPeligro},
		{7, ColorPeligro},
		{8, ColorAdvertencia},
		{30, ColorAdvertencia},
		{31, ColorExito},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.espera, Color(tt.dias), "dias=%d", tt.dias)
	}
}

func TestVencimientos(t *testing.T) {
	db := newTestDB(t)
	crearContrato(t, db, "C-LEJOS", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 8, 20), nil)
	crearContrato(t, db, "C-PRONTO", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 6, 11), nil)
	crearContrato(t, db, "C-FUERA", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 12, 31), nil)
	crearContrato(t, db, "C-VENCIDO", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 5, 31), nil)
	crearContrato(t, db, "C-PROV", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 6, 5), func(c *models.Contrato) {
		c.TipoContrato = models.TipoContratoProveedor
	})

	g := NewGenerador(db)
	list, err := g.Vencimientos(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C-PROV", "C-PRONTO", "C-LEJOS"}, numeros(list))
	assert.Equal(t, 10, list[1].Dias)
	assert.Equal(t, ColorAdvertencia, list[1].Color)

	list, err = g.Vencimientos(context.Background(), ref, Filtro{TipoContrato: models.TipoContratoCliente})
	require.NoError(t, err)
	assert.Equal(t, []string{"C-PRONTO", "C-LEJOS"}, numeros(list))
}

func TestVencimientoUsaFechaDelOtroSiVigente(t *testing.T) {
	db := newTestDB(t)
	c := crearContrato(t, db, "C-1", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 6, 10), nil)
	nueva := fechas.Nueva(2026, 6, 10)
	require.NoError(t, db.Create(&models.OtroSi{
		ContratoID: c.ID, NumeroOtroSi: "OS-1", Estado: models.EstadoAprobado, Version: 1,
		FechaOtroSi: fechas.Nueva(2025, 1, 1), EffectiveFrom: fechas.Nueva(2025, 1, 1),
		NuevaFechaFinalActualizada: &nueva,
	}).Error)

	list, err := NewGenerador(db).Vencimientos(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIndexacionesIPC(t *testing.T) {
	db := newTestDB(t)
	ipc := func(c *models.Contrato) {
		c.TipoCondicionIPC = models.CondicionIPC
		c.PeriodicidadIPC = models.PeriodicidadAnual
	}
	crearContrato(t, db, "C-LEJANO", fechas.Nueva(2024, 7, 15), fechas.Nueva(2027, 7, 14), ipc)
	urgente := crearContrato(t, db, "C-URGENTE", fechas.Nueva(2024, 6, 5), fechas.Nueva(2027, 6, 4), ipc)
	crearContrato(t, db, "C-FUERA", fechas.Nueva(2024, 12, 1), fechas.Nueva(2027, 12, 1), ipc)
	crearContrato(t, db, "C-SMLV", fechas.Nueva(2024, 6, 5), fechas.Nueva(2027, 6, 4), func(c *models.Contrato) {
		c.TipoCondicionIPC = models.CondicionSalarioMinimo
		c.PeriodicidadIPC = models.PeriodicidadAnual
	})

	g := NewGenerador(db)
	list, err := g.Indexaciones(context.Background(), models.CondicionIPC, ref, Filtro{})
	require.NoError(t, err)
	require.Equal(t, []string{"C-URGENTE", "C-LEJANO"}, numeros(list))
	assert.Equal(t, ColorPeligro, list[0].Color)
	assert.True(t, list[0].Critica)
	assert.Equal(t, 4, list[0].Dias)
	assert.Equal(t, ColorExito, list[1].Color)
	assert.False(t, list[1].Critica)
	assert.Equal(t, 1, list[1].Meses)
	assert.Contains(t, list[0].Descripcion, "Junio 2025")

	// con cálculo registrado en la fecha de aumento la alerta desaparece
	calc := models.CalculoIPC{Calculo: models.Calculo{
		ContratoID: urgente.ID, AnoAplicacion: 2025, FechaAplicacion: fechas.Nueva(2025, 6, 5),
		CanonAnterior: decimal.NewFromInt(1000000), FechaCalculo: time.Now(),
	}, ValorIPC: decimal.RequireFromString("5.2")}
	require.NoError(t, db.Create(&calc).Error)
	list, err = g.Indexaciones(context.Background(), models.CondicionIPC, ref, Filtro{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C-LEJANO"}, numeros(list))

	smlv, err := g.Generar(context.Background(), models.AlertaSalarioMinimo, ref, Filtro{})
	require.NoError(t, err)
	require.Len(t, smlv, 1)
	assert.Equal(t, models.AlertaSalarioMinimo, smlv[0].Tipo)
}

func TestPreavisosYTerminacion(t *testing.T) {
	db := newTestDB(t)
	crearContrato(t, db, "C-SIN-PRORROGA", fechas.Nueva(2024, 6, 21), fechas.Nueva(2025, 6, 20), nil)
	crearContrato(t, db, "C-PRORROGA", fechas.Nueva(2024, 6, 21), fechas.Nueva(2025, 6, 20), func(c *models.Contrato) {
		c.ProrrogaAutomatica = true
	})
	crearContrato(t, db, "C-LARGO", fechas.Nueva(2024, 1, 1), fechas.Nueva(2026, 1, 1), nil)

	g := NewGenerador(db)
	pre, err := g.Preavisos(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	require.Equal(t, []string{"C-SIN-PRORROGA"}, numeros(pre))
	assert.Equal(t, fechas.Nueva(2025, 4, 21), *pre[0].FechaLimite)

	term, err := g.TerminacionAnticipada(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C-PRORROGA", "C-SIN-PRORROGA"}, numeros(term))
	assert.Equal(t, 19, term[0].Dias)
}

func TestRenovacionesAutomaticas(t *testing.T) {
	db := newTestDB(t)
	prorroga := func(c *models.Contrato) { c.ProrrogaAutomatica = true }
	crearContrato(t, db, "C-PENDIENTE", fechas.Nueva(2024, 6, 11), fechas.Nueva(2025, 6, 10), prorroga)
	crearContrato(t, db, "C-VENCIDO", fechas.Nueva(2024, 5, 20), fechas.Nueva(2025, 5, 20), prorroga)
	gestionado := crearContrato(t, db, "C-GESTIONADO", fechas.Nueva(2024, 6, 11), fechas.Nueva(2025, 6, 10), prorroga)
	nuevaFin := fechas.Nueva(2026, 6, 10)
	require.NoError(t, db.Create(&models.RenovacionAutomatica{
		ContratoID: gestionado.ID, NumeroRenovacion: "RA-1", Estado: models.EstadoAprobado, Version: 1,
		FechaRenovacion: fechas.Nueva(2025, 5, 1), EffectiveFrom: fechas.Nueva(2025, 6, 11),
		NuevaFechaFinalActualizada: &nuevaFin, MesesRenovacion: 12,
	}).Error)

	list, err := NewGenerador(db).RenovacionesAutomaticas(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	require.Equal(t, []string{"C-VENCIDO", "C-PENDIENTE"}, numeros(list))
	assert.Zero(t, list[0].Dias)
	assert.Equal(t, 12, list[1].Duracion)
}

func TestPolizasCriticasYRequeridas(t *testing.T) {
	db := newTestDB(t)
	c := crearContrato(t, db, "C-POL", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 12, 31), func(c *models.Contrato) {
		c.PolizaRCE = models.RequisitoPoliza{Exige: true, ValorAsegurado: dp("50000000"), FechaFinVigencia: fechas.Ptr(fechas.Nueva(2025, 12, 31))}
	})
	g := NewGenerador(db)

	req, err := g.PolizasRequeridas(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	require.Len(t, req, 1)
	assert.False(t, *req[0].TienePoliza)
	assert.Equal(t, ColorPeligro, req[0].Color)
	assert.Equal(t, models.TipoPolizaRCE, req[0].TipoPoliza)

	corta := models.Poliza{
		ContratoID: c.ID, Tipo: models.TipoPolizaRCE, NumeroPoliza: "P-1",
		ValorAsegurado: decimal.NewFromInt(50000000), FechaVencimiento: fechas.Nueva(2025, 6, 20),
	}
	require.NoError(t, db.Create(&corta).Error)

	req, err = g.PolizasRequeridas(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	require.Len(t, req, 1)
	assert.True(t, *req[0].TienePoliza)
	assert.Equal(t, ColorAdvertencia, req[0].Color)

	crit, err := g.PolizasCriticas(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	require.Len(t, crit, 1)
	assert.Equal(t, "P-1", crit[0].NumeroPoliza)
	assert.Equal(t, 19, crit[0].Dias)

	completa := models.Poliza{
		ContratoID: c.ID, Tipo: models.TipoPolizaRCE, NumeroPoliza: "P-2",
		ValorAsegurado: decimal.NewFromInt(50000000), FechaVencimiento: fechas.Nueva(2025, 12, 31),
	}
	require.NoError(t, db.Create(&completa).Error)
	req, err = g.PolizasRequeridas(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	assert.Empty(t, req)
}

func TestPolizaBaseReemplazadaPorDocumentoVigente(t *testing.T) {
	db := newTestDB(t)
	c := crearContrato(t, db, "C-DOC", fechas.Nueva(2024, 1, 1), fechas.Nueva(2026, 12, 31), func(c *models.Contrato) {
		c.PolizaRCE = models.RequisitoPoliza{Exige: true, ValorAsegurado: dp("10000000")}
	})
	o := models.OtroSi{
		ContratoID: c.ID, NumeroOtroSi: "OS-1", Estado: models.EstadoAprobado, Version: 1,
		FechaOtroSi: fechas.Nueva(2025, 1, 1), EffectiveFrom: fechas.Nueva(2025, 1, 1), ModificaPolizas: true,
	}
	o.PolizaRCE.ValorAsegurado = dp("20000000")
	require.NoError(t, db.Create(&o).Error)

	base := models.Poliza{ContratoID: c.ID, Tipo: models.TipoPolizaRCE, NumeroPoliza: "BASE",
		ValorAsegurado: decimal.NewFromInt(10000000), FechaVencimiento: fechas.Nueva(2025, 6, 15)}
	require.NoError(t, db.Create(&base).Error)
	propia := models.Poliza{ContratoID: c.ID, OtroSiID: &o.ID, Tipo: models.TipoPolizaRCE, NumeroPoliza: "OS",
		ValorAsegurado: decimal.NewFromInt(20000000), FechaVencimiento: fechas.Nueva(2026, 12, 31)}
	require.NoError(t, db.Create(&propia).Error)

	crit, err := NewGenerador(db).PolizasCriticas(context.Background(), ref, Filtro{})
	require.NoError(t, err)
	assert.Empty(t, crit)
}

func TestGenerarTipoDesconocido(t *testing.T) {
	_, err := NewGenerador(newTestDB(t)).Generar(context.Background(), "NADA", ref, Filtro{})
	assert.ErrorIs(t, err, ErrTipoDesconocido)
}

type fakeEnviador struct {
	falla    map[string]bool
	enviados []email.Mensaje
}

func (f *fakeEnviador) Enviar(_ context.Context, m email.Mensaje) error {
	if f.falla[m.Para[0]] {
		return errors.New("buzón no existe")
	}
	f.enviados = append(f.enviados, m)
	return nil
}

func configurarVencimientos(t *testing.T, db *gorm.DB, frecuencia string, dias []int) *models.ConfiguracionAlerta {
	t.Helper()
	cfg := &models.ConfiguracionAlerta{
		TipoAlerta: models.AlertaVencimientoContratos, Activo: true, Frecuencia: frecuencia, DiasSemana: dias,
	}
	require.NoError(t, db.Create(cfg).Error)
	for _, correo := range []string{"ok@ejemplo.co", "malo@ejemplo.co"} {
		require.NoError(t, db.Create(&models.DestinatarioAlerta{ConfiguracionAlertaID: cfg.ID, Email: correo, Activo: true}).Error)
	}
	return cfg
}

func TestEnviarTipoRegistraHistorial(t *testing.T) {
	db := newTestDB(t)
	crearContrato(t, db, "C-1", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 6, 11), nil)
	configurarVencimientos(t, db, models.FrecuenciaDiario, nil)
	require.NoError(t, db.Create(&models.ConfiguracionEmpresa{Nombre: "Inmobiliaria Uno", Activo: true}).Error)

	fake := &fakeEnviador{falla: map[string]bool{"malo@ejemplo.co": true}}
	e := NewEnvio(db, fake, nil)
	res, err := e.EnviarTipo(context.Background(), models.AlertaVencimientoContratos, ref, false, "lote-1")
	require.NoError(t, err)
	assert.True(t, res.Enviado)
	assert.Equal(t, 1, res.Destinatarios)
	assert.Equal(t, 1, res.AlertasEnviadas)
	require.Len(t, res.Errores, 1)

	require.Len(t, fake.enviados, 1)
	assert.Equal(t, "Vencimiento de Contratos - 1 alerta(s) encontrada(s)", fake.enviados[0].Asunto)
	assert.Contains(t, fake.enviados[0].HTML, "C-1")
	assert.Contains(t, fake.enviados[0].HTML, "Inmobiliaria Uno")

	hist, err := (&Configuraciones{DB: db}).Historial(context.Background(), FiltroHistorial{Lote: "lote-1"})
	require.NoError(t, err)
	require.Len(t, hist, 2)
	estados := map[string]string{}
	for _, h := range hist {
		estados[h.Destinatario] = h.Estado
	}
	assert.Equal(t, models.EnvioEnviado, estados["ok@ejemplo.co"])
	assert.Equal(t, models.EnvioError, estados["malo@ejemplo.co"])
}

func TestEnviarTipoRespetaFrecuencia(t *testing.T) {
	db := newTestDB(t)
	crearContrato(t, db, "C-1", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 6, 11), nil)
	// 2025-06-01 es domingo; la configuración solo envía los lunes
	configurarVencimientos(t, db, models.FrecuenciaSemanal, []int{0})

	fake := &fakeEnviador{}
	e := NewEnvio(db, fake, nil)
	e.Ahora = func() time.Time { return ref }

	res, err := e.EnviarTipo(context.Background(), models.AlertaVencimientoContratos, ref, false, "l")
	require.NoError(t, err)
	assert.False(t, res.Enviado)
	assert.Equal(t, "no corresponde enviar hoy", res.Motivo)
	assert.Empty(t, fake.enviados)

	res, err = e.EnviarTipo(context.Background(), models.AlertaVencimientoContratos, ref, true, "l")
	require.NoError(t, err)
	assert.True(t, res.Enviado)
}

func TestEnviarProgramadasUsaUnLote(t *testing.T) {
	db := newTestDB(t)
	crearContrato(t, db, "C-1", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 6, 11), nil)
	configurarVencimientos(t, db, models.FrecuenciaDiario, nil)

	lote, res, err := NewEnvio(db, &fakeEnviador{}, nil).EnviarProgramadas(context.Background(), ref, false)
	require.NoError(t, err)
	assert.NotEmpty(t, lote)
	assert.Len(t, res, len(models.TiposAlerta))

	var n int64
	require.NoError(t, db.Model(&models.HistorialEnvioEmail{}).Where("lote = ?", lote).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}

func TestConfigurarDefault(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	creadas, actualizadas, err := ConfigurarDefault(ctx, db, OpcionesDefault{})
	require.NoError(t, err)
	assert.Equal(t, len(models.TiposAlerta), creadas)
	assert.Zero(t, actualizadas)

	var cfg models.ConfiguracionAlerta
	require.NoError(t, db.Where("tipo_alerta = ?", models.AlertaIPC).First(&cfg).Error)
	assert.Equal(t, models.FrecuenciaSemanal, cfg.Frecuencia)
	assert.Equal(t, []int{0}, cfg.DiasSemana)
	assert.True(t, cfg.Activo)

	creadas, actualizadas, err = ConfigurarDefault(ctx, db, OpcionesDefault{Frecuencia: models.FrecuenciaDiario})
	require.NoError(t, err)
	assert.Zero(t, creadas)
	assert.Zero(t, actualizadas)

	_, actualizadas, err = ConfigurarDefault(ctx, db, OpcionesDefault{Frecuencia: models.FrecuenciaDiario, Sobrescribir: true})
	require.NoError(t, err)
	assert.Equal(t, len(models.TiposAlerta), actualizadas)

	n, err := AgregarDestinatarioATodas(ctx, db, "Gerencia", "gerencia@ejemplo.co", true)
	require.NoError(t, err)
	assert.Equal(t, len(models.TiposAlerta), n)
	n, err = AgregarDestinatarioATodas(ctx, db, "Gerencia", "gerencia@ejemplo.co", true)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, _, err = ConfigurarDefault(ctx, db, OpcionesDefault{Frecuencia: "CADA_HORA"})
	assert.Error(t, err)
}

func TestRenderHTMLEscapa(t *testing.T) {
	html, err := RenderHTML(models.AlertaPolizasCriticas, ref, "", []Alerta{{
		NumContrato: "C-<1>", Tercero: "A & B", Color: ColorPeligro, Descripcion: "vence",
	}})
	require.NoError(t, err)
	assert.Contains(t, html, "C-&lt;1&gt;")
	assert.Contains(t, html, "A &amp; B")
	assert.Contains(t, html, "Pólizas Críticas")
}

func TestHandlerPorTipoYDestinatarios(t *testing.T) {
	db := newTestDB(t)
	crearContrato(t, db, "C-1", fechas.Nueva(2024, 1, 1), fechas.Nueva(2025, 6, 11), nil)
	h := NewHandler(NewEnvio(db, &fakeEnviador{}, nil))
	r := mux.NewRouter()
	r.HandleFunc("/alertas/{tipo}", h.PorTipo).Methods(http.MethodGet)
	r.HandleFunc("/configuracion-alertas", h.GuardarConfiguracion).Methods(http.MethodPut)
	r.HandleFunc("/configuracion-alertas/{id}/destinatarios", h.AgregarDestinatario).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alertas/VENCIMIENTO_CONTRATOS?fecha=2025-06-01", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"numContrato":"C-1"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alertas/OTRA", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/configuracion-alertas",
		strings.NewReader(`{"tipoAlerta":"ALERTAS_IPC","activo":true,"frecuencia":"SEMANAL"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "semanal sin días")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/configuracion-alertas",
		strings.NewReader(`{"tipoAlerta":"ALERTAS_IPC","activo":true,"frecuencia":"SEMANAL","diasSemana":[0,3]}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cfg models.ConfiguracionAlerta
	require.NoError(t, db.Where("tipo_alerta = ?", models.AlertaIPC).First(&cfg).Error)
	url := "/configuracion-alertas/" + itoa(cfg.ID) + "/destinatarios"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"email":"a@ejemplo.co"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"email":"a@ejemplo.co"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func itoa(n uint) string { return strconv.FormatUint(uint64(n), 10) }
