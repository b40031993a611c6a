package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InformePendiente = "PENDIENTE"
	InformeEntregado = "ENTREGADO"

	CalculoVariablePuro = "VARIABLE_PURO"
	CalculoHibrido      = "HIBRIDO_MIN_GARANTIZADO"
)

var NombresMes = [...]string{"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

// InformeVentas es el reporte mensual de ventas que entrega un contrato que reporta ventas.
type InformeVentas struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ContratoID    uint       `gorm:"not null;uniqueIndex:idx_informe_contrato_periodo" json:"contratoId"`
	Contrato      *Contrato  `gorm:"constraint:OnDelete:CASCADE" json:"contrato,omitempty"`
	Mes           int        `gorm:"not null;uniqueIndex:idx_informe_contrato_periodo" json:"mes"`
	Anio          int        `gorm:"not null;uniqueIndex:idx_informe_contrato_periodo" json:"anio"`
	Estado        string     `gorm:"size:20;not null;default:PENDIENTE;index" json:"estado"`
	FechaEntrega  *time.Time `json:"fechaEntrega"`
	FechaLimite   *time.Time `json:"fechaLimite"`
	Observaciones string     `gorm:"type:text" json:"observaciones"`
	UrlArchivo    string     `gorm:"size:500" json:"urlArchivo"`
	RegistradoPor string     `gorm:"size:150" json:"registradoPor"`
	CreatedAt     time.Time  `json:"fechaRegistro"`
	UpdatedAt     time.Time  `json:"fechaActualizacion"`
}

func (InformeVentas) TableName() string { return "informes_ventas" }

// Vencido: pendiente y con la fecha límite ya pasada a hoy.
func (i *InformeVentas) Vencido(hoy time.Time) bool {
	return i.Estado == InformePendiente && i.FechaLimite != nil && hoy.After(*i.FechaLimite)
}

// CalculoFacturacionVentas guarda la liquidación de un mes de ventas con los valores vigentes usados.
type CalculoFacturacionVentas struct {
	ID                       uint             `gorm:"primaryKey" json:"id"`
	ContratoID               uint             `gorm:"not null;index:idx_facturacion_periodo" json:"contratoId"`
	InformeVentasID          *uint            `gorm:"index" json:"informeVentasId"`
	Mes                      int              `gorm:"not null;index:idx_facturacion_periodo" json:"mes"`
	Anio                     int              `gorm:"not null;index:idx_facturacion_periodo" json:"anio"`
	VentasTotales            decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"ventasTotales"`
	Devoluciones             decimal.Decimal  `gorm:"type:decimal(20,2);not null;default:0" json:"devoluciones"`
	BaseNeta                 decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"baseNeta"`
	ModalidadContrato        string           `gorm:"size:30;not null" json:"modalidadContrato"`
	PorcentajeVentasVigente  decimal.Decimal  `gorm:"type:decimal(6,2);not null" json:"porcentajeVentasVigente"`
	CanonMinimoVigente       *decimal.Decimal `gorm:"type:decimal(20,2)" json:"canonMinimoGarantizadoVigente"`
	CanonFijoVigente         *decimal.Decimal `gorm:"type:decimal(20,2)" json:"canonFijoVigente"`
	ValorCalculadoPorcentaje decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"valorCalculadoPorcentaje"`
	ValorAFacturarVariable   decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"valorAFacturarVariable"`
	ExcedenteSobreMinimo     *decimal.Decimal `gorm:"type:decimal(20,2)" json:"excedenteSobreMinimo"`
	AplicaVariable           bool             `gorm:"default:false" json:"aplicaVariable"`
	OtroSiReferencia         string           `gorm:"size:20" json:"otrosiReferencia"`
	Observaciones            string           `gorm:"type:text" json:"observaciones"`
	CalculadoPor             string           `gorm:"size:150" json:"calculadoPor"`
	FechaCalculo             time.Time        `gorm:"index" json:"fechaCalculo"`
}

func (CalculoFacturacionVentas) TableName() string { return "calculos_facturacion_ventas" }
