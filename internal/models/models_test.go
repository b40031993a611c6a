package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestLicenciaPrimariaUnica(t *testing.T) {
	db := newTestDB(t)
	a := ClienteLicense{LicenseKey: "A", IsPrimary: true}
	b := ClienteLicense{LicenseKey: "B", IsPrimary: true}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	var primarias int64
	require.NoError(t, db.Model(&ClienteLicense{}).Where("is_primary = ?", true).Count(&primarias).Error)
	assert.Equal(t, int64(1), primarias)

	require.NoError(t, db.First(&a, a.ID).Error)
	assert.False(t, a.IsPrimary)
}

func TestEmpresaActivaUnica(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&ConfiguracionEmpresa{Nombre: "Uno", Activo: true}).Error)
	require.NoError(t, db.Create(&ConfiguracionEmpresa{Nombre: "Dos", Activo: true}).Error)
	var activas []ConfiguracionEmpresa
	require.NoError(t, db.Where("activo = ?", true).Find(&activas).Error)
	require.Len(t, activas, 1)
	assert.Equal(t, "Dos", activas[0].Nombre)
}

func TestSalarioMinimoVariacion(t *testing.T) {
	db := newTestDB(t)
	s24 := SalarioMinimoHistorico{Ano: 2024, ValorSalarioMinimo: decimal.NewFromInt(1300000)}
	s25 := SalarioMinimoHistorico{Ano: 2025, ValorSalarioMinimo: decimal.NewFromInt(1423500)}
	require.NoError(t, db.Create(&s25).Error)
	assert.Nil(t, s25.VariacionPorcentual)

	// al guardar el año anterior se recalcula el siguiente
	require.NoError(t, db.Create(&s24).Error)
	require.NoError(t, db.First(&s25, s25.ID).Error)
	require.NotNil(t, s25.VariacionPorcentual)
	assert.Equal(t, "9.5", s25.VariacionPorcentual.String())

	assert.Error(t, db.Create(&SalarioMinimoHistorico{Ano: 1800, ValorSalarioMinimo: decimal.NewFromInt(1)}).Error)
	assert.Error(t, db.Create(&IPCHistorico{Ano: 2024, ValorIPC: decimal.NewFromInt(-1)}).Error)
}

func TestPolizaReglasDeGuardado(t *testing.T) {
	db := newTestDB(t)
	c := Contrato{NumContrato: "C-1", FechaInicialContrato: fechas.Nueva(2024, 1, 1)}
	require.NoError(t, db.Create(&c).Error)

	uno, dos := uint(1), uint(2)
	p := Poliza{ContratoID: c.ID, OtroSiID: &uno, RenovacionID: &dos, Tipo: TipoPolizaRCE, NumeroPoliza: "P", FechaVencimiento: fechas.Nueva(2025, 1, 1)}
	assert.ErrorIs(t, db.Create(&p).Error, ErrOrigenMultiple)

	p = Poliza{ContratoID: c.ID, Tipo: TipoPolizaRCE, NumeroPoliza: "P", FechaVencimiento: fechas.Nueva(2025, 1, 1), TieneColchon: true}
	assert.ErrorIs(t, db.Create(&p).Error, ErrColchonSinMeses)

	p = Poliza{ContratoID: c.ID, Tipo: TipoPolizaRCE, NumeroPoliza: "P", FechaVencimiento: fechas.Nueva(2025, 1, 1), MesesColchon: 2}
	require.NoError(t, db.Create(&p).Error)
	assert.True(t, p.TieneColchon)
	assert.Equal(t, OrigenContrato, p.DocumentoOrigenTipo)
}

func TestDebeEnviarHoy(t *testing.T) {
	lunes := fechas.Nueva(2024, 7, 1)
	martes := fechas.Nueva(2024, 7, 2)
	cases := []struct {
		name string
		cfg  ConfiguracionAlerta
		dia  bool
		otro bool
	}{
		{"diario", ConfiguracionAlerta{Activo: true, Frecuencia: FrecuenciaDiario}, true, true},
		{"inmediato", ConfiguracionAlerta{Activo: true, Frecuencia: FrecuenciaInmediato}, true, true},
		{"semanal lunes", ConfiguracionAlerta{Activo: true, Frecuencia: FrecuenciaSemanal, DiasSemana: []int{0}}, true, false},
		{"mensual", ConfiguracionAlerta{Activo: true, Frecuencia: FrecuenciaMensual}, true, false},
		{"inactiva", ConfiguracionAlerta{Activo: false, Frecuencia: FrecuenciaDiario}, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.dia, tc.cfg.DebeEnviarHoy(lunes))
			assert.Equal(t, tc.otro, tc.cfg.DebeEnviarHoy(martes))
		})
	}
}

func TestDiasSemanaSerializados(t *testing.T) {
	db := newTestDB(t)
	cfg := ConfiguracionAlerta{TipoAlerta: AlertaIPC, Activo: true, Frecuencia: FrecuenciaSemanal, DiasSemana: []int{0, 3}}
	require.NoError(t, db.Create(&cfg).Error)
	var leido ConfiguracionAlerta
	require.NoError(t, db.First(&leido, cfg.ID).Error)
	assert.Equal(t, []int{0, 3}, leido.DiasSemana)
}
