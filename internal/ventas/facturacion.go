package ventas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

var (
	ErrSinPorcentaje  = errors.New("el contrato no tiene porcentaje de ventas vigente para el periodo")
	ErrSinCanonMinimo = errors.New("el contrato híbrido no tiene canon mínimo garantizado vigente")
	ErrInformeAjeno   = errors.New("el informe no corresponde al contrato y periodo")
)

var cien = decimal.NewFromInt(100)

// Liquidacion es el resultado puro de aplicar el porcentaje a la base neta.
type Liquidacion struct {
	BaseNeta    decimal.Decimal
	Valor       decimal.Decimal
	AFacturar   decimal.Decimal
	Excedente   *decimal.Decimal
	Aplica      bool
	TipoCalculo string
}

// Liquidar: en Variable Puro se factura el porcentaje completo; en Híbrido solo el excedente
// sobre el mínimo, que ya se factura como canon.
func Liquidar(ventas, devoluciones decimal.Decimal, v *vigencia.ValoresFacturacion) (*Liquidacion, error) {
	if v.PorcentajeVentas == nil {
		return nil, ErrSinPorcentaje
	}
	l := &Liquidacion{BaseNeta: ventas.Sub(devoluciones)}
	l.Valor = l.BaseNeta.Mul(*v.PorcentajeVentas).Div(cien).Round(2)
	switch v.ModalidadPago {
	case models.ModalidadVariablePuro:
		l.TipoCalculo = models.CalculoVariablePuro
		l.AFacturar, l.Aplica = l.Valor, true
	case models.ModalidadHibrido:
		if v.CanonMinimo == nil {
			return nil, ErrSinCanonMinimo
		}
		l.TipoCalculo = models.CalculoHibrido
		if l.Valor.LessThanOrEqual(*v.CanonMinimo) {
			l.AFacturar = decimal.Zero
			break
		}
		ex := l.Valor.Sub(*v.CanonMinimo)
		l.Excedente = &ex
		l.AFacturar, l.Aplica = ex, true
	default:
		return nil, vigencia.ErrNoFacturaPorVentas
	}
	return l, nil
}

// Calcular liquida el mes con los valores vigentes al cierre y guarda el cálculo. Sin informe
// explícito se vincula el del periodo, si existe.
func (s *Servicio) Calcular(ctx context.Context, in CalculoDTO, usuario string) (*models.CalculoFacturacionVentas, error) {
	var calc *models.CalculoFacturacionVentas
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cad, err := vigencia.Cargar(tx, in.ContratoID)
		if err != nil {
			return err
		}
		corte := fechas.FinDeMes(in.Anio, time.Month(in.Mes))
		if corte.Before(fechas.Dia(cad.Contrato.FechaInicialContrato)) {
			return ErrFueraDeVigencia
		}
		vals, err := cad.ValoresFacturacionVentas(in.Mes, in.Anio)
		if err != nil {
			return err
		}
		liq, err := Liquidar(in.VentasTotales, in.Devoluciones, vals)
		if err != nil {
			return err
		}
		informeID, err := informeDelPeriodo(tx, in)
		if err != nil {
			return err
		}

		calc = &models.CalculoFacturacionVentas{
			ContratoID: in.ContratoID, InformeVentasID: informeID,
			Mes: in.Mes, Anio: in.Anio,
			VentasTotales: in.VentasTotales, Devoluciones: in.Devoluciones, BaseNeta: liq.BaseNeta,
			ModalidadContrato:        liq.TipoCalculo,
			PorcentajeVentasVigente:  *vals.PorcentajeVentas,
			CanonMinimoVigente:       vals.CanonMinimo,
			CanonFijoVigente:         cad.Decimal(vigencia.CampoValorCanon, corte),
			ValorCalculadoPorcentaje: liq.Valor,
			ValorAFacturarVariable:   liq.AFacturar,
			ExcedenteSobreMinimo:     liq.Excedente,
			AplicaVariable:           liq.Aplica,
			OtroSiReferencia:         referencia(cad, vals, corte),
			Observaciones:            in.Observaciones,
			CalculadoPor:             usuario,
			FechaCalculo:             time.Now(),
		}
		return tx.Create(calc).Error
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{
		"contrato": in.ContratoID, "mes": in.Mes, "anio": in.Anio,
		"aFacturar": calc.ValorAFacturarVariable.StringFixed(2), "usuario": usuario,
	}).Info("facturación por ventas calculada")
	return calc, nil
}

// referencia prefiere el Otro Sí que fijó el mínimo; si no hay, el del porcentaje.
func referencia(cad *vigencia.Cadena, vals *vigencia.ValoresFacturacion, corte time.Time) string {
	if vals.CanonMinimo != nil {
		if m := cad.Resolver(vigencia.CampoCanonMinimo, corte, false).Modificador; m != "" {
			return m
		}
	}
	return vals.Modificador
}

func informeDelPeriodo(tx *gorm.DB, in CalculoDTO) (*uint, error) {
	if in.InformeVentasID != nil {
		var i models.InformeVentas
		if err := tx.First(&i, *in.InformeVentasID).Error; err != nil {
			return nil, fmt.Errorf("informe %d: %w", *in.InformeVentasID, err)
		}
		if i.ContratoID != in.ContratoID || i.Mes != in.Mes || i.Anio != in.Anio {
			return nil, ErrInformeAjeno
		}
		return &i.ID, nil
	}
	var i models.InformeVentas
	err := tx.Where("contrato_id = ? AND mes = ? AND anio = ?", in.ContratoID, in.Mes, in.Anio).First(&i).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i.ID, nil
}

func (s *Servicio) ListarCalculos(ctx context.Context, contratoID uint, mes, anio int) ([]models.CalculoFacturacionVentas, error) {
	q := s.DB.WithContext(ctx).Model(&models.CalculoFacturacionVentas{})
	if contratoID != 0 {
		q = q.Where("contrato_id = ?", contratoID)
	}
	if mes != 0 {
		q = q.Where("mes = ?", mes)
	}
	if anio != 0 {
		q = q.Where("anio = ?", anio)
	}
	list := []models.CalculoFacturacionVentas{}
	err := q.Order("anio DESC, mes DESC, fecha_calculo DESC, id DESC").Find(&list).Error
	return list, err
}

func (s *Servicio) ObtenerCalculo(ctx context.Context, id uint) (*models.CalculoFacturacionVentas, error) {
	var c models.CalculoFacturacionVentas
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
