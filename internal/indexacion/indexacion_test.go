package indexacion

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
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
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func crearContrato(t *testing.T, db *gorm.DB, condicion string) *models.Contrato {
	t.Helper()
	c := &models.Contrato{
		NumContrato:          "C-" + condicion,
		FechaInicialContrato: fechas.Nueva(2023, 3, 1),
		FechaFinalInicial:    fechas.Ptr(fechas.Nueva(2026, 2, 28)),
		Vigente:              true,
		ModalidadPago:        models.ModalidadFijo,
		ValorCanonFijo:       dp("1000000"),
		TipoCondicionIPC:     condicion,
		PuntosAdicionalesIPC: dp("1"),
		PeriodicidadIPC:      models.PeriodicidadAnual,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestCalcularAjuste(t *testing.T) {
	cases := []struct {
		name          string
		canon, ipc, p string
		nuevo, incr   string
		err           error
	}{
		{"ipc mas puntos", "1000000", "9.28", "1", "1102800", "102800", nil},
		{"sin puntos", "2500000", "5.2", "0", "2630000", "130000", nil},
		{"redondeo a centavos", "1000", "3.333", "0", "1033.33", "33.33", nil},
		{"canon cero", "0", "9", "1", "", "", ErrCanonInvalido},
		{"canon negativo", "-1", "9", "1", "", "", ErrCanonInvalido},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			aj, err := CalcularAjuste(d(tc.canon), d(tc.ipc), d(tc.p))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tc.nuevo).Equal(aj.NuevoCanon), aj.NuevoCanon.String())
			assert.True(t, d(tc.incr).Equal(aj.ValorIncremento), aj.ValorIncremento.String())
		})
	}
}

func TestCalcularIPCYDuplicado(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	c := crearContrato(t, db, models.CondicionIPC)
	require.NoError(t, db.Create(&models.IPCHistorico{Ano: 2023, ValorIPC: d("9.28")}).Error)

	sol := Solicitud{ContratoID: c.ID, FechaAplicacion: fechas.Nueva(2024, 3, 1), Usuario: "ana"}
	calc, err := s.CalcularIPC(context.Background(), sol)
	require.NoError(t, err)
	assert.Equal(t, models.FuenteContratoCanon, calc.FuenteCanonAnterior)
	assert.True(t, d("1102800").Equal(calc.NuevoCanon))
	assert.True(t, d("10.28").Equal(calc.PorcentajeTotal))
	assert.Equal(t, models.CalculoPendiente, calc.Estado)

	_, err = s.CalcularIPC(context.Background(), sol)
	assert.ErrorIs(t, err, ErrCalculoDuplicado)

	// un cálculo de salario mínimo en la misma fecha también se rechaza
	require.NoError(t, db.Create(&models.SalarioMinimoHistorico{Ano: 2023, ValorSalarioMinimo: d("1160000")}).Error)
	require.NoError(t, db.Create(&models.SalarioMinimoHistorico{Ano: 2024, ValorSalarioMinimo: d("1300000")}).Error)
	_, err = s.CalcularSalarioMinimo(context.Background(), sol)
	assert.ErrorIs(t, err, ErrCalculoDuplicado)

	var n int64
	require.NoError(t, db.Model(&models.CalculoIPC{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCalcularIPCSinHistorico(t *testing.T) {
	db := newTestDB(t)
	c := crearContrato(t, db, models.CondicionIPC)
	_, err := NewServicio(db).CalcularIPC(context.Background(), Solicitud{ContratoID: c.ID, FechaAplicacion: fechas.Nueva(2024, 3, 1)})
	assert.ErrorIs(t, err, ErrIndiceNoDisponible)
}

func TestCalcularSalarioMinimo(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	c := crearContrato(t, db, models.CondicionSalarioMinimo)
	require.NoError(t, db.Create(&models.SalarioMinimoHistorico{Ano: 2023, ValorSalarioMinimo: d("1160000")}).Error)
	require.NoError(t, db.Create(&models.SalarioMinimoHistorico{Ano: 2024, ValorSalarioMinimo: d("1300000")}).Error)

	calc, err := s.CalcularSalarioMinimo(context.Background(), Solicitud{ContratoID: c.ID, FechaAplicacion: fechas.Nueva(2024, 3, 1)})
	require.NoError(t, err)
	// variación 12.07 + 1 punto
	assert.True(t, d("12.07").Equal(calc.VariacionSalarioMinimo), calc.VariacionSalarioMinimo.String())
	assert.True(t, d("1130700").Equal(calc.NuevoCanon), calc.NuevoCanon.String())

	_, err = s.CalcularIPC(context.Background(), Solicitud{ContratoID: c.ID, FechaAplicacion: fechas.Nueva(2025, 3, 1)})
	assert.ErrorIs(t, err, ErrCondicionIncorrecta)
}

func TestCanonAnteriorPrioridad(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	c := crearContrato(t, db, models.CondicionIPC)
	aprob := fechas.Nueva(2023, 9, 1)
	os1 := models.OtroSi{
		ContratoID: c.ID, NumeroOtroSi: "OS-1", Estado: models.EstadoAprobado,
		EffectiveFrom: fechas.Nueva(2023, 9, 1), NuevoValorCanon: dp("1200000"),
		Auditoria: models.Auditoria{FechaAprobacion: &aprob},
	}
	require.NoError(t, db.Create(&os1).Error)

	cad, err := vigencia.Cargar(db, c.ID)
	require.NoError(t, err)
	base, err := s.CanonAnterior(cad, fechas.Nueva(2024, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, models.FuenteOtroSiCanon, base.Fuente)
	assert.True(t, d("1200000").Equal(base.Canon))

	// el Otro Sí aún no había iniciado el día anterior
	base, err = s.CanonAnterior(cad, fechas.Nueva(2023, 9, 1))
	require.NoError(t, err)
	assert.Equal(t, models.FuenteContratoCanon, base.Fuente)

	// un cálculo anterior tiene prioridad
	prev := models.CalculoIPC{Calculo: models.Calculo{
		ContratoID: c.ID, AnoAplicacion: 2024, FechaAplicacion: fechas.Nueva(2024, 3, 1),
		CanonAnterior: d("1200000"), NuevoCanon: d("1300000"), Estado: models.CalculoAplicado,
	}, ValorIPC: d("8")}
	require.NoError(t, db.Create(&prev).Error)
	base, err = s.CanonAnterior(cad, fechas.Nueva(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, models.FuenteCalculoAnterior, base.Fuente)
	assert.True(t, d("1300000").Equal(base.Canon))

	// canon manual
	require.NoError(t, db.Create(&models.IPCHistorico{Ano: 2024, ValorIPC: d("5")}).Error)
	calc, err := s.CalcularIPC(context.Background(), Solicitud{ContratoID: c.ID, FechaAplicacion: fechas.Nueva(2025, 3, 1), CanonManual: dp("2000000")})
	require.NoError(t, err)
	assert.True(t, calc.CanonAnteriorManual)
	assert.True(t, d("2120000").Equal(calc.NuevoCanon), calc.NuevoCanon.String())
}

func TestCanonAnteriorIgnoraAnulados(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	c := crearContrato(t, db, models.CondicionIPC)
	anulado := models.CalculoIPC{Calculo: models.Calculo{
		ContratoID: c.ID, AnoAplicacion: 2024, FechaAplicacion: fechas.Nueva(2024, 3, 1),
		CanonAnterior: d("1000000"), NuevoCanon: d("1500000"), Estado: models.CalculoAnulado,
	}, ValorIPC: d("50")}
	require.NoError(t, db.Create(&anulado).Error)

	cad, err := vigencia.Cargar(db, c.ID)
	require.NoError(t, err)
	base, err := s.CanonAnterior(cad, fechas.Nueva(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, models.FuenteContratoCanon, base.Fuente)
	assert.True(t, d("1000000").Equal(base.Canon), base.Canon.String())

	aplicado := models.CalculoSalarioMinimo{Calculo: models.Calculo{
		ContratoID: c.ID, AnoAplicacion: 2023, FechaAplicacion: fechas.Nueva(2023, 9, 1),
		CanonAnterior: d("1000000"), NuevoCanon: d("1100000"), Estado: models.CalculoAplicado,
	}}
	require.NoError(t, db.Create(&aplicado).Error)
	base, err = s.CanonAnterior(cad, fechas.Nueva(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, models.FuenteCalculoAnterior, base.Fuente)
	assert.True(t, d("1100000").Equal(base.Canon), base.Canon.String())
}

func TestAplicarYAnular(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	c := crearContrato(t, db, models.CondicionIPC)
	require.NoError(t, db.Create(&models.IPCHistorico{Ano: 2023, ValorIPC: d("9.28")}).Error)
	calc, err := s.CalcularIPC(context.Background(), Solicitud{ContratoID: c.ID, FechaAplicacion: fechas.Nueva(2024, 3, 1)})
	require.NoError(t, err)

	require.NoError(t, s.Aplicar(context.Background(), TipoIPC, calc.ID, "luis"))
	assert.ErrorIs(t, s.Aplicar(context.Background(), TipoIPC, calc.ID, "luis"), ErrCalculoYaAplicado)
	assert.ErrorIs(t, s.Aplicar(context.Background(), TipoIPC, 999, "luis"), ErrCalculoNoEncontrado)
	assert.ErrorIs(t, s.Anular(context.Background(), TipoIPC, calc.ID), ErrCalculoNoEncontrado)

	var leido models.CalculoIPC
	require.NoError(t, db.First(&leido, calc.ID).Error)
	assert.Equal(t, models.CalculoAplicado, leido.Estado)
	assert.Equal(t, "luis", leido.AplicadoPor)
	assert.NotNil(t, leido.FechaAplicacionReal)
}

func TestProximaFechaAumentoYPendientes(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	c := crearContrato(t, db, models.CondicionIPC)
	cad, err := vigencia.Cargar(db, c.ID)
	require.NoError(t, err)

	prox, err := s.ProximaFechaAumento(cad, fechas.Nueva(2024, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, fechas.Nueva(2024, 3, 1), *prox)

	pend, err := s.ContratosPendientes(context.Background(), TipoIPC, fechas.Nueva(2024, 1, 15), 90)
	require.NoError(t, err)
	require.Len(t, pend, 1)
	assert.Equal(t, 46, pend[0].Dias)

	pend, err = s.ContratosPendientes(context.Background(), TipoIPC, fechas.Nueva(2023, 10, 1), 90)
	require.NoError(t, err)
	assert.Empty(t, pend)

	require.NoError(t, db.Create(&models.IPCHistorico{Ano: 2023, ValorIPC: d("9.28")}).Error)
	_, err = s.CalcularIPC(context.Background(), Solicitud{ContratoID: c.ID, FechaAplicacion: fechas.Nueva(2024, 3, 1)})
	require.NoError(t, err)
	prox, err = s.ProximaFechaAumento(cad, fechas.Nueva(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, fechas.Nueva(2025, 3, 1), *prox)

	c.PeriodicidadIPC = models.PeriodicidadEspecifica
	c.FechaAumentoIPC = fechas.Ptr(fechas.Nueva(2024, 7, 1))
	prox, err = s.ProximaFechaAumento(vigencia.NuevaCadena(c, nil, nil), fechas.Nueva(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, fechas.Nueva(2024, 7, 1), *prox)
}

func TestActualizarCalculosPorOtroSi(t *testing.T) {
	db := newTestDB(t)
	s := NewServicio(db)
	c := crearContrato(t, db, models.CondicionIPC)
	aplicado := models.CalculoIPC{Calculo: models.Calculo{
		ContratoID: c.ID, AnoAplicacion: 2024, FechaAplicacion: fechas.Nueva(2024, 3, 1),
		CanonAnterior: d("1000000"), NuevoCanon: d("1102800"), Estado: models.CalculoAplicado,
	}, ValorIPC: d("9.28")}
	require.NoError(t, db.Create(&aplicado).Error)

	o := &models.OtroSi{ContratoID: c.ID, NumeroOtroSi: "OS-1", EffectiveFrom: fechas.Nueva(2024, 5, 1), NuevoValorCanon: dp("1150000")}
	n, err := s.ActualizarCalculosPorOtroSi(db, o, "ana")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var leido models.CalculoIPC
	require.NoError(t, db.First(&leido, aplicado.ID).Error)
	assert.True(t, d("1150000").Equal(leido.NuevoCanon))
	assert.True(t, d("15").Equal(leido.PorcentajeTotal), leido.PorcentajeTotal.String())
	assert.Contains(t, leido.Observaciones, "OS-1")

	// mismo valor: no cambia nada
	n, err = s.ActualizarCalculosPorOtroSi(db, o, "ana")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.ActualizarCalculosPorOtroSi(db, &models.OtroSi{ContratoID: c.ID, EffectiveFrom: fechas.Nueva(2024, 5, 1)}, "ana")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInicializarIPC(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.IPCHistorico{Ano: 2024, ValorIPC: d("1")}).Error)

	creados, actualizados, err := InicializarIPC(ctx, db, IPCDane, "sistema")
	require.NoError(t, err)
	assert.Equal(t, len(IPCDane)-1, creados)
	assert.Equal(t, 1, actualizados)

	var ipc models.IPCHistorico
	require.NoError(t, db.Where("ano = ?", 2024).First(&ipc).Error)
	assert.True(t, ipc.ValorIPC.Equal(d("5.20")))

	_, _, err = InicializarIPC(ctx, db, map[int]string{1800: "2"}, "sistema")
	assert.ErrorIs(t, err, models.ErrAnoFueraDeRango)
	_, _, err = InicializarIPC(ctx, db, map[int]string{2030: "x"}, "sistema")
	assert.Error(t, err)
}
