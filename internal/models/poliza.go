package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GrupoPoliza identifica una exigencia de póliza del contrato.
type GrupoPoliza string

const (
	GrupoRCE           GrupoPoliza = "RCE"
	GrupoCumplimiento  GrupoPoliza = "CUMPLIMIENTO"
	GrupoArrendamiento GrupoPoliza = "ARRENDAMIENTO"
	GrupoTodoRiesgo    GrupoPoliza = "TODO_RIESGO"
	GrupoOtra          GrupoPoliza = "OTRA"
)

var GruposPoliza = []GrupoPoliza{GrupoRCE, GrupoCumplimiento, GrupoArrendamiento, GrupoTodoRiesgo, GrupoOtra}

// Tipos de póliza tal como se registran en Poliza.Tipo.
const (
	TipoPolizaCumplimiento  = "Cumplimiento"
	TipoPolizaArrendamiento = "Poliza de Arrendamiento"
	TipoPolizaRCE           = "RCE - Responsabilidad Civil"
	TipoPolizaTodoRiesgo    = "Arrendamiento"
	TipoPolizaOtra          = "Otra"
)

var tipoPorGrupo = map[GrupoPoliza]string{
	GrupoRCE:           TipoPolizaRCE,
	GrupoCumplimiento:  TipoPolizaCumplimiento,
	GrupoArrendamiento: TipoPolizaArrendamiento,
	GrupoTodoRiesgo:    TipoPolizaTodoRiesgo,
	GrupoOtra:          TipoPolizaOtra,
}

// TipoPoliza devuelve el Tipo de Poliza que satisface el grupo.
func (g GrupoPoliza) TipoPoliza() string { return tipoPorGrupo[g] }

// GrupoDeTipo es la inversa de TipoPoliza.
func GrupoDeTipo(tipo string) (GrupoPoliza, bool) {
	for g, t := range tipoPorGrupo {
		if t == tipo {
			return g, true
		}
	}
	return "", false
}

const (
	OrigenContrato   = "CONTRATO"
	OrigenOtroSi     = "OTROSI"
	OrigenRenovacion = "RENOVACION"

	AporteInicial = "Aporte inicial"
	Actualizacion = "Actualización"
	Prorroga      = "Prórroga"
)

var EstadosAportado = map[string]bool{AporteInicial: true, Actualizacion: true, Prorroga: true}

type Poliza struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	ContratoID           uint            `gorm:"not null;index" json:"contratoId"`
	OtroSiID             *uint           `gorm:"index" json:"otrosiId"`
	RenovacionID         *uint           `gorm:"index" json:"renovacionId"`
	DocumentoOrigenTipo  string          `gorm:"size:20;not null;default:CONTRATO" json:"documentoOrigenTipo"`
	Tipo                 string          `gorm:"size:50;not null;index" json:"tipo"`
	NumeroPoliza         string          `gorm:"size:100;not null" json:"numeroPoliza"`
	ValorAsegurado       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"valorAsegurado"`
	FechaInicioVigencia  *time.Time      `json:"fechaInicioVigencia"`
	FechaVencimiento     time.Time       `gorm:"not null;index" json:"fechaVencimiento"`
	EstadoAportado       string          `gorm:"size:30;default:Aporte inicial" json:"estadoAportado"`
	Aseguradora          string          `gorm:"size:200" json:"aseguradora"`
	Condiciones          string          `gorm:"type:text" json:"condiciones"`
	TieneColchon         bool            `gorm:"default:false" json:"tieneColchon"`
	MesesColchon         int             `gorm:"default:0" json:"mesesColchon"`
	FechaVencimientoReal *time.Time      `json:"fechaVencimientoReal"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Origen deriva el tipo de documento a partir de las llaves foráneas.
func (p *Poliza) Origen() string {
	switch {
	case p.OtroSiID != nil:
		return OrigenOtroSi
	case p.RenovacionID != nil:
		return OrigenRenovacion
	}
	return OrigenContrato
}
