package exportes

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/alertas"
	"github.com/KromaEnergia/api-contratos/internal/contrato"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/indexacion"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

var columnasContratos = []Columna{
	{Titulo: "Contrato", Ancho: 18},
	{Titulo: "Tipo", Ancho: 12},
	{Titulo: "Tercero", Ancho: 30},
	{Titulo: "NIT", Ancho: 15},
	{Titulo: "Fecha inicial", Ancho: 13},
	{Titulo: "Fecha final vigente", Ancho: 15},
	{Titulo: "Días para vencer", Ancho: 12, Numerica: true},
	{Titulo: "Prórroga automática", Ancho: 12},
	{Titulo: "Modalidad de pago", Ancho: 18},
	{Titulo: "Canon vigente", Ancho: 16, Numerica: true},
	{Titulo: "Canon mínimo garantizado", Ancho: 16, Numerica: true},
	{Titulo: "% ventas", Ancho: 10},
	{Titulo: "Condición de aumento", Ancho: 14},
	{Titulo: "Puntos / % SMLV", Ancho: 12},
	{Titulo: "Próximo aumento", Ancho: 13},
	{Titulo: "Documento vigente", Ancho: 16},
	{Titulo: "Vigente", Ancho: 9},
}

// FilasContratos resuelve cada contrato en ref con los valores de sus OtroSí y renovaciones.
// Un contrato que aún no inicia se muestra con sus valores de arranque.
func FilasContratos(db *gorm.DB, list []models.Contrato, ref time.Time) ([][]any, error) {
	ref = fechas.Dia(ref)
	idx := indexacion.NewServicio(db)
	filas := make([][]any, 0, len(list))
	for i := range list {
		c := &list[i]
		cad, err := vigencia.CargarDe(db, c)
		if err != nil {
			return nil, err
		}
		vista, err := cad.Vista(fechas.Max(ref, fechas.Dia(c.FechaInicialContrato)))
		if err != nil {
			return nil, err
		}
		var dias any
		if vista.FechaFinal != nil {
			dias = fechas.DiasEntre(ref, *vista.FechaFinal)
		}
		condicion := vista.TipoCondicionIPC
		ajuste := vista.PuntosIPC
		if condicion == models.CondicionSalarioMinimo {
			ajuste = vista.PorcentajeSMLV
		}
		var ajusteTxt any
		if ajuste != nil {
			ajusteTxt = ajuste.String()
		}
		var pctVentas any
		if vista.PorcentajeVentas != nil {
			pctVentas = vista.PorcentajeVentas.String() + "%"
		}
		var documento any
		if vista.DocumentoVigente != nil {
			documento = vista.DocumentoVigente.Numero
		}
		var proximo *time.Time
		if condicion != "" {
			if proximo, err = idx.ProximaFechaAumento(cad, ref); err != nil {
				return nil, err
			}
		}
		filas = append(filas, []any{
			c.NumContrato, c.TipoContrato, c.Tercero, c.NitTercero,
			c.FechaInicialContrato, vista.FechaFinal, dias, c.ProrrogaAutomatica,
			vista.ModalidadPago, vista.ValorCanon, vista.CanonMinimo, pctVentas,
			condicion, ajusteTxt, proximo, documento, c.Vigente,
		})
	}
	return filas, nil
}

// ExportarContratos genera el XLSX de contratos filtrados.
func ExportarContratos(ctx context.Context, db *gorm.DB, f contrato.Filtro, ref, ahora time.Time) ([]byte, error) {
	list, err := contrato.NewRepository().Listar(db.WithContext(ctx), f)
	if err != nil {
		return nil, err
	}
	filas, err := FilasContratos(db.WithContext(ctx), list, ref)
	if err != nil {
		return nil, err
	}
	return Generar([]Hoja{{Nombre: "Contratos", Columnas: columnasContratos, Filas: filas}}, ahora)
}

var columnasAlertas = []Columna{
	{Titulo: "Contrato", Ancho: 18},
	{Titulo: "Tercero", Ancho: 30},
	{Titulo: "Tipo contrato", Ancho: 12},
	{Titulo: "Fecha", Ancho: 13},
	{Titulo: "Días", Ancho: 8, Numerica: true},
	{Titulo: "Nivel", Ancho: 12},
	{Titulo: "Crítica", Ancho: 9},
	{Titulo: "Detalle", Ancho: 50},
	{Titulo: "Póliza", Ancho: 16},
	{Titulo: "Modificado por", Ancho: 16},
}

var nombresColor = map[string]string{
	alertas.ColorPeligro:     "Urgente",
	alertas.ColorAdvertencia: "Próxima",
	alertas.ColorExito:       "Informativa",
}

// ExportarAlertas genera una hoja por tipo de alerta; con tipo vacío incluye todos.
func ExportarAlertas(ctx context.Context, g *alertas.Generador, tipo string, ref time.Time, f alertas.Filtro, ahora time.Time) ([]byte, error) {
	tipos := models.TiposAlerta
	if tipo != "" {
		tipos = []string{tipo}
	}
	var hojas []Hoja
	for _, t := range tipos {
		list, err := g.Generar(ctx, t, ref, f)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 && tipo == "" {
			continue
		}
		filas := make([][]any, 0, len(list))
		for _, a := range list {
			filas = append(filas, []any{
				a.NumContrato, a.Tercero, a.TipoContrato, a.Fecha, a.Dias,
				nombresColor[a.Color], a.Critica, a.Descripcion, a.NumeroPoliza, a.Modificador,
			})
		}
		hojas = append(hojas, Hoja{Nombre: models.NombresAlerta[t], Columnas: columnasAlertas, Filas: filas})
	}
	return Generar(hojas, ahora)
}
