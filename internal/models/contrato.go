package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TipoContratoCliente   = "CLIENTE"
	TipoContratoProveedor = "PROVEEDOR"

	ModalidadFijo          = "Fijo"
	ModalidadVariablePuro  = "Variable Puro"
	ModalidadHibrido       = "Hibrido (Min Garantizado)"
	CondicionIPC           = "IPC"
	CondicionSalarioMinimo = "SALARIO_MINIMO"
	PeriodicidadAnual      = "ANUAL"
	PeriodicidadEspecifica = "FECHA_ESPECIFICA"
)

var ModalidadesPermitidas = map[string]bool{ModalidadFijo: true, ModalidadVariablePuro: true, ModalidadHibrido: true}

// RequisitoPoliza es la exigencia de una póliza en el contrato base.
type RequisitoPoliza struct {
	Exige               bool             `gorm:"default:false" json:"exige"`
	ValorAsegurado      *decimal.Decimal `gorm:"type:decimal(15,2)" json:"valorAsegurado"`
	MesesVigencia       *int             `json:"mesesVigencia"`
	FechaInicioVigencia *time.Time       `json:"fechaInicioVigencia"`
	FechaFinVigencia    *time.Time       `json:"fechaFinVigencia"`
}

type Contrato struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	NumContrato        string `gorm:"size:100;uniqueIndex;not null" json:"numContrato"`
	TipoContrato       string `gorm:"size:20;not null;default:CLIENTE" json:"tipoContrato"`
	Tercero            string `gorm:"size:200" json:"tercero"`
	NitTercero         string `gorm:"size:30" json:"nitTercero"`
	TerceroID          *uint  `gorm:"index" json:"terceroId"`
	LocalID            *uint  `gorm:"index" json:"localId"`
	TipoContratoID     *uint  `gorm:"index" json:"tipoContratoId"`
	TipoServicioID     *uint  `gorm:"index" json:"tipoServicioId"`
	ObjetoDestinacion  string `gorm:"type:text" json:"objetoDestinacion"`
	NitConcedente      string `gorm:"size:30" json:"nitConcedente"`
	RepLegalConcedente string `gorm:"size:200" json:"repLegalConcedente"`
	UrlArchivo         string `gorm:"size:500" json:"urlArchivo"`

	FechaFirma                *time.Time `json:"fechaFirma"`
	DuracionInicialMeses      int        `gorm:"default:12" json:"duracionInicialMeses"`
	FechaInicialContrato      time.Time  `gorm:"not null;index" json:"fechaInicialContrato"`
	FechaFinalInicial         *time.Time `json:"fechaFinalInicial"`
	FechaFinalActualizada     *time.Time `gorm:"index" json:"fechaFinalActualizada"`
	ProrrogaAutomatica        bool       `gorm:"default:false" json:"prorrogaAutomatica"`
	DiasPreavisoNoRenovacion  int        `gorm:"default:60" json:"diasPreavisoNoRenovacion"`
	DiasTerminacionAnticipada int        `gorm:"default:60" json:"diasTerminacionAnticipada"`
	Vigente                   bool       `gorm:"index" json:"vigente"`

	ModalidadPago           string           `gorm:"size:50" json:"modalidadPago"`
	ValorCanonFijo          *decimal.Decimal `gorm:"type:decimal(15,2)" json:"valorCanonFijo"`
	CanonMinimoGarantizado  *decimal.Decimal `gorm:"type:decimal(15,2)" json:"canonMinimoGarantizado"`
	PorcentajeVentas        *decimal.Decimal `gorm:"type:decimal(6,2)" json:"porcentajeVentas"`
	ReportaVentas           bool             `gorm:"default:false;index" json:"reportaVentas"`
	DiaLimiteReporteVentas  *int             `json:"diaLimiteReporteVentas"`
	TipoCondicionIPC        string           `gorm:"size:20" json:"tipoCondicionIpc"`
	PuntosAdicionalesIPC    *decimal.Decimal `gorm:"type:decimal(6,2)" json:"puntosAdicionalesIpc"`
	PorcentajeSalarioMinimo *decimal.Decimal `gorm:"type:decimal(6,2)" json:"porcentajeSalarioMinimo"`
	PeriodicidadIPC         string           `gorm:"size:20" json:"periodicidadIpc"`
	FechaAumentoIPC         *time.Time       `json:"fechaAumentoIpc"`

	PolizaRCE           RequisitoPoliza `gorm:"embedded;embeddedPrefix:rce_" json:"polizaRce"`
	PolizaCumplimiento  RequisitoPoliza `gorm:"embedded;embeddedPrefix:cumplimiento_" json:"polizaCumplimiento"`
	PolizaArrendamiento RequisitoPoliza `gorm:"embedded;embeddedPrefix:arrendamiento_" json:"polizaArrendamiento"`
	PolizaTodoRiesgo    RequisitoPoliza `gorm:"embedded;embeddedPrefix:todo_riesgo_" json:"polizaTodoRiesgo"`
	PolizaOtra          RequisitoPoliza `gorm:"embedded;embeddedPrefix:otra_" json:"polizaOtra"`
	NombrePolizaOtra    string          `gorm:"size:200" json:"nombrePolizaOtra"`

	TotalRenovacionesAutomaticas    int        `gorm:"default:0" json:"totalRenovacionesAutomaticas"`
	FechaUltimaRenovacionAutomatica *time.Time `json:"fechaUltimaRenovacionAutomatica"`
	UltimaRenovacionAutomaticaPor   string     `gorm:"size:150" json:"ultimaRenovacionAutomaticaPor"`

	CreadoPor        string         `gorm:"size:150" json:"creadoPor"`
	ModificadoPor    string         `gorm:"size:150" json:"modificadoPor"`
	EliminadoPor     string         `gorm:"size:150" json:"eliminadoPor,omitempty"`
	FechaEliminacion *time.Time     `json:"fechaEliminacion,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Requisito devuelve la exigencia del grupo indicado.
func (c *Contrato) Requisito(g GrupoPoliza) *RequisitoPoliza {
	switch g {
	case GrupoRCE:
		return &c.PolizaRCE
	case GrupoCumplimiento:
		return &c.PolizaCumplimiento
	case GrupoArrendamiento:
		return &c.PolizaArrendamiento
	case GrupoTodoRiesgo:
		return &c.PolizaTodoRiesgo
	case GrupoOtra:
		return &c.PolizaOtra
	}
	return nil
}

// FechaFinalBase es la fecha final sin resolver la cadena de documentos.
func (c *Contrato) FechaFinalBase() *time.Time {
	if c.FechaFinalActualizada != nil {
		return c.FechaFinalActualizada
	}
	return c.FechaFinalInicial
}

// CanonBase devuelve el canon fijo o, en su defecto, el mínimo garantizado.
func (c *Contrato) CanonBase() *decimal.Decimal {
	if c.ValorCanonFijo != nil && c.ValorCanonFijo.IsPositive() {
		return c.ValorCanonFijo
	}
	if c.CanonMinimoGarantizado != nil && c.CanonMinimoGarantizado.IsPositive() {
		return c.CanonMinimoGarantizado
	}
	return nil
}
