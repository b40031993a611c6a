package exportes

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/ventas"
)

var columnasInformes = []Columna{
	{Titulo: "Contrato", Ancho: 18},
	{Titulo: "Tercero", Ancho: 30},
	{Titulo: "NIT", Ancho: 15},
	{Titulo: "Periodo", Ancho: 16},
	{Titulo: "Estado", Ancho: 12},
	{Titulo: "Fecha límite", Ancho: 13},
	{Titulo: "Fecha entrega", Ancho: 13},
	{Titulo: "Días vencido", Ancho: 10, Numerica: true},
	{Titulo: "Ventas totales", Ancho: 16, Numerica: true},
	{Titulo: "Devoluciones", Ancho: 16, Numerica: true},
	{Titulo: "Base neta", Ancho: 16, Numerica: true},
	{Titulo: "% ventas", Ancho: 10},
	{Titulo: "Canon mínimo", Ancho: 16, Numerica: true},
	{Titulo: "Valor a facturar", Ancho: 16, Numerica: true},
	{Titulo: "Otro Sí", Ancho: 10},
	{Titulo: "Observaciones", Ancho: 40},
}

// ExportarInformesVentas genera una fila por informe con el último cálculo de su periodo.
func ExportarInformesVentas(ctx context.Context, db *gorm.DB, f ventas.FiltroInformes, ahora time.Time) ([]byte, error) {
	s := ventas.NewServicio(db)
	s.Hoy = func() time.Time { return fechas.Dia(ahora) }
	res, err := s.ListarInformes(ctx, f)
	if err != nil {
		return nil, err
	}
	filas := make([][]any, 0, len(res.Informes))
	for _, i := range res.Informes {
		var c models.CalculoFacturacionVentas
		err := db.WithContext(ctx).Where("contrato_id = ? AND mes = ? AND anio = ?", i.ContratoID, i.Mes, i.Anio).
			Order("fecha_calculo DESC, id DESC").First(&c).Error
		hay := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		var num, tercero, nit any
		if i.Contrato != nil {
			num, tercero, nit = i.Contrato.NumContrato, i.Contrato.Tercero, i.Contrato.NitTercero
		}
		var dias any
		if i.Vencido {
			dias = i.DiasVencido
		}
		fila := []any{num, tercero, nit, i.NombreMes + " " + strconv.Itoa(i.Anio), i.Estado, i.FechaLimite, i.FechaEntrega, dias}
		if hay {
			fila = append(fila, c.VentasTotales, c.Devoluciones, c.BaseNeta, c.PorcentajeVentasVigente.String()+"%",
				c.CanonMinimoVigente, c.ValorAFacturarVariable, c.OtroSiReferencia)
		} else {
			fila = append(fila, nil, nil, nil, nil, nil, nil, nil)
		}
		filas = append(filas, append(fila, i.Observaciones))
	}
	return Generar([]Hoja{{Nombre: "Informes de ventas", Columnas: columnasInformes, Filas: filas}}, ahora)
}
