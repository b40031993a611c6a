package vigencia

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

var ErrNoFacturaPorVentas = errors.New("la modalidad del contrato no factura por ventas")

// ValoresFacturacion son los valores efectivos para liquidar ventas de un mes.
type ValoresFacturacion struct {
	Mes              int              `json:"mes"`
	Anio             int              `json:"anio"`
	FechaReferencia  time.Time        `json:"fechaReferencia"`
	ModalidadPago    string           `json:"modalidadPago"`
	PorcentajeVentas *decimal.Decimal `json:"porcentajeVentas"`
	CanonMinimo      *decimal.Decimal `json:"canonMinimoGarantizado"`
	Modificador      string           `json:"modificador,omitempty"`
}

// ValoresFacturacionVentas usa el último día del mes como fecha de referencia.
func (c *Cadena) ValoresFacturacionVentas(mes, anio int) (*ValoresFacturacion, error) {
	if mes < 1 || mes > 12 {
		return nil, errors.New("mes inválido")
	}
	ref := fechas.FinDeMes(anio, time.Month(mes))
	modalidad := c.Texto(CampoModalidadPago, ref)
	if modalidad != models.ModalidadVariablePuro && modalidad != models.ModalidadHibrido {
		return nil, ErrNoFacturaPorVentas
	}
	pct := c.Resolver(CampoPorcentajeVentas, ref, false)
	v := &ValoresFacturacion{
		Mes: mes, Anio: anio, FechaReferencia: ref,
		ModalidadPago:    modalidad,
		PorcentajeVentas: aDecimal(pct.Valor),
		Modificador:      pct.Modificador,
	}
	if modalidad == models.ModalidadHibrido {
		v.CanonMinimo = c.Decimal(CampoCanonMinimo, ref)
	}
	return v, nil
}
