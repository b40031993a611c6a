package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CalculoPendiente = "PENDIENTE"
	CalculoAplicado  = "APLICADO"
	CalculoAnulado   = "ANULADO"

	FuenteCalculoAnterior = "CALCULO_ANTERIOR"
	FuenteOtroSiCanon     = "OTROSI_CANON"
	FuenteOtroSiMinimo    = "OTROSI_CANON_MINIMO"
	FuenteContratoCanon   = "CONTRATO_CANON"
	FuenteContratoMinimo  = "CONTRATO_CANON_MINIMO"
	FuenteManual          = "MANUAL"
)

type IPCHistorico struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Ano                int             `gorm:"uniqueIndex;not null" json:"ano"`
	ValorIPC           decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"valorIpc"`
	FechaCertificacion *time.Time      `json:"fechaCertificacion"`
	Observaciones      string          `gorm:"type:text" json:"observaciones"`
	CreadoPor          string          `gorm:"size:150" json:"creadoPor"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

func (IPCHistorico) TableName() string { return "ipc_historico" }

type SalarioMinimoHistorico struct {
	ID                  uint             `gorm:"primaryKey" json:"id"`
	Ano                 int              `gorm:"uniqueIndex;not null" json:"ano"`
	ValorSalarioMinimo  decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"valorSalarioMinimo"`
	VariacionPorcentual *decimal.Decimal `gorm:"type:decimal(6,2)" json:"variacionPorcentual"`
	FechaDecreto        *time.Time       `json:"fechaDecreto"`
	NumeroDecreto       string           `gorm:"size:50" json:"numeroDecreto"`
	Observaciones       string           `gorm:"type:text" json:"observaciones"`
	CreadoPor           string           `gorm:"size:150" json:"creadoPor"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

func (SalarioMinimoHistorico) TableName() string { return "salario_minimo_historico" }

// Calculo es la parte común de los cálculos de IPC y de salario mínimo.
type Calculo struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	ContratoID           uint            `gorm:"not null;index" json:"contratoId"`
	AnoAplicacion        int             `gorm:"not null;index" json:"anoAplicacion"`
	FechaAplicacion      time.Time       `gorm:"not null" json:"fechaAplicacion"`
	CanonAnterior        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"canonAnterior"`
	CanonAnteriorManual  bool            `gorm:"default:false" json:"canonAnteriorManual"`
	FuenteCanonAnterior  string          `gorm:"size:30" json:"fuenteCanonAnterior"`
	PuntosAdicionales    decimal.Decimal `gorm:"type:decimal(6,2)" json:"puntosAdicionales"`
	PorcentajeTotal      decimal.Decimal `gorm:"type:decimal(6,2)" json:"porcentajeTotal"`
	ValorIncremento      decimal.Decimal `gorm:"type:decimal(15,2)" json:"valorIncremento"`
	NuevoCanon           decimal.Decimal `gorm:"type:decimal(15,2)" json:"nuevoCanon"`
	PeriodicidadContrato string          `gorm:"size:20" json:"periodicidadContrato"`
	FechaAumentoContrato *time.Time      `json:"fechaAumentoContrato"`
	Estado               string          `gorm:"size:20;default:PENDIENTE;index" json:"estado"`
	Observaciones        string          `gorm:"type:text" json:"observaciones"`
	CalculadoPor         string          `gorm:"size:150" json:"calculadoPor"`
	FechaCalculo         time.Time       `json:"fechaCalculo"`
	AplicadoPor          string          `gorm:"size:150" json:"aplicadoPor"`
	FechaAplicacionReal  *time.Time      `json:"fechaAplicacionReal"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

type CalculoIPC struct {
	Calculo  `gorm:"embedded"`
	ValorIPC decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"valorIpc"`
}

func (CalculoIPC) TableName() string { return "calculos_ipc" }

type CalculoSalarioMinimo struct {
	Calculo                 `gorm:"embedded"`
	VariacionSalarioMinimo  decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"variacionSalarioMinimo"`
	PorcentajeSalarioMinimo decimal.Decimal `gorm:"type:decimal(6,2)" json:"porcentajeSalarioMinimo"`
}

func (CalculoSalarioMinimo) TableName() string { return "calculos_salario_minimo" }
