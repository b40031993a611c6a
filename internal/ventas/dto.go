package ventas

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/KromaEnergia/api-contratos/internal/utils"
)

type InformeDTO struct {
	ContratoID    uint   `json:"contratoId" validate:"required"`
	Mes           int    `json:"mes" validate:"required,gte=1,lte=12"`
	Anio          int    `json:"anio" validate:"required,gte=2000,lte=2100"`
	Observaciones string `json:"observaciones"`
	UrlArchivo    string `json:"urlArchivo" validate:"omitempty,url,max=500"`
}

type EntregaDTO struct {
	FechaEntrega *time.Time `json:"fechaEntrega"`
}

type CalculoDTO struct {
	ContratoID      uint            `json:"contratoId" validate:"required"`
	InformeVentasID *uint           `json:"informeVentasId"`
	Mes             int             `json:"mes" validate:"required,gte=1,lte=12"`
	Anio            int             `json:"anio" validate:"required,gte=2000,lte=2100"`
	VentasTotales   decimal.Decimal `json:"ventasTotales"`
	Devoluciones    decimal.Decimal `json:"devoluciones"`
	Observaciones   string          `json:"observaciones"`
}

func (in *CalculoDTO) Validar() error {
	if err := utils.Validar(in); err != nil {
		return err
	}
	if in.VentasTotales.IsNegative() {
		return utils.NuevoErrValidacion("ventasTotales", "no puede ser negativo")
	}
	if in.Devoluciones.IsNegative() {
		return utils.NuevoErrValidacion("devoluciones", "no puede ser negativo")
	}
	if in.Devoluciones.GreaterThan(in.VentasTotales) {
		return utils.NuevoErrValidacion("devoluciones", "no puede superar las ventas totales")
	}
	return nil
}

// FiltroInformes: los campos en cero no filtran.
type FiltroInformes struct {
	ContratoID uint
	Tipo       string
	Mes        int
	Anio       int
	Estado     string
	Buscar     string
}
