package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados compartidos por OtroSi y RenovacionAutomatica.
const (
	EstadoBorrador   = "BORRADOR"
	EstadoEnRevision = "EN_REVISION"
	EstadoAprobado   = "APROBADO"
	EstadoRechazado  = "RECHAZADO"
	EstadoAnulado    = "ANULADO"
)

const (
	TipoOtroSiModificacion = "AMENDMENT"
	TipoOtroSiRenovacion   = "RENEWAL"
	TipoOtroSiIPC          = "IPC_UPDATE"
	TipoOtroSiCanon        = "CANON_CHANGE"
	TipoOtroSiPlazo        = "PLAZO_EXTENSION"
	TipoOtroSiPolizas      = "POLIZAS_UPDATE"
	TipoOtroSiOtro         = "OTRO"

	NumeroOtroSiTemporal = "OS-TEMP"
)

var TiposOtroSi = map[string]bool{
	TipoOtroSiModificacion: true, TipoOtroSiRenovacion: true, TipoOtroSiIPC: true,
	TipoOtroSiCanon: true, TipoOtroSiPlazo: true, TipoOtroSiPolizas: true, TipoOtroSiOtro: true,
}

// RequisitoPolizaOverride es la modificación de una exigencia de póliza; nil = sin cambio.
type RequisitoPolizaOverride struct {
	Exige               *bool            `json:"exige"`
	ValorAsegurado      *decimal.Decimal `gorm:"type:decimal(15,2)" json:"valorAsegurado"`
	MesesVigencia       *int             `json:"mesesVigencia"`
	FechaInicioVigencia *time.Time       `json:"fechaInicioVigencia"`
	FechaFinVigencia    *time.Time       `json:"fechaFinVigencia"`
}

// Auditoria guarda quién movió el documento por el flujo de aprobación.
type Auditoria struct {
	CreadoPor       string     `gorm:"size:150" json:"creadoPor"`
	RevisadoPor     string     `gorm:"size:150" json:"revisadoPor"`
	FechaRevision   *time.Time `json:"fechaRevision"`
	AprobadoPor     string     `gorm:"size:150" json:"aprobadoPor"`
	FechaAprobacion *time.Time `json:"fechaAprobacion"`
	RechazadoPor    string     `gorm:"size:150" json:"rechazadoPor"`
	MotivoRechazo   string     `gorm:"type:text" json:"motivoRechazo"`
	AnuladoPor      string     `gorm:"size:150" json:"anuladoPor"`
	FechaAnulacion  *time.Time `json:"fechaAnulacion"`
}

type OtroSi struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ContratoID    uint       `gorm:"not null;uniqueIndex:idx_otrosi_contrato_numero" json:"contratoId"`
	NumeroOtroSi  string     `gorm:"size:20;not null;default:OS-TEMP;uniqueIndex:idx_otrosi_contrato_numero" json:"numeroOtroSi"`
	Tipo          string     `gorm:"size:30;not null;default:AMENDMENT" json:"tipo"`
	Estado        string     `gorm:"size:20;not null;default:BORRADOR;index" json:"estado"`
	Version       int        `gorm:"default:1" json:"version"`
	FechaOtroSi   time.Time  `json:"fechaOtroSi"`
	EffectiveFrom time.Time  `gorm:"not null;index" json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo"`
	Descripcion   string     `gorm:"type:text" json:"descripcion"`

	NuevoValorCanon              *decimal.Decimal `gorm:"type:decimal(15,2)" json:"nuevoValorCanon"`
	NuevaModalidadPago           *string          `gorm:"size:50" json:"nuevaModalidadPago"`
	NuevoCanonMinimoGarantizado  *decimal.Decimal `gorm:"type:decimal(15,2)" json:"nuevoCanonMinimoGarantizado"`
	NuevoPorcentajeVentas        *decimal.Decimal `gorm:"type:decimal(6,2)" json:"nuevoPorcentajeVentas"`
	NuevaFechaFinalActualizada   *time.Time       `json:"nuevaFechaFinalActualizada"`
	NuevoPlazoMeses              *int             `json:"nuevoPlazoMeses"`
	NuevoTipoCondicionIPC        *string          `gorm:"size:20" json:"nuevoTipoCondicionIpc"`
	NuevosPuntosAdicionalesIPC   *decimal.Decimal `gorm:"type:decimal(6,2)" json:"nuevosPuntosAdicionalesIpc"`
	NuevoPorcentajeSalarioMinimo *decimal.Decimal `gorm:"type:decimal(6,2)" json:"nuevoPorcentajeSalarioMinimo"`
	NuevaPeriodicidadIPC         *string          `gorm:"size:20" json:"nuevaPeriodicidadIpc"`
	NuevaFechaAumentoIPC         *time.Time       `json:"nuevaFechaAumentoIpc"`

	ModificaPolizas     bool                    `gorm:"default:false" json:"modificaPolizas"`
	PolizaRCE           RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_rce_" json:"polizaRce"`
	PolizaCumplimiento  RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_cumplimiento_" json:"polizaCumplimiento"`
	PolizaArrendamiento RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_arrendamiento_" json:"polizaArrendamiento"`
	PolizaTodoRiesgo    RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_todo_riesgo_" json:"polizaTodoRiesgo"`
	PolizaOtra          RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_otra_" json:"polizaOtra"`
	NombrePolizaOtra    *string                 `gorm:"size:200" json:"nombrePolizaOtra"`

	Auditoria `gorm:"embedded"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (OtroSi) TableName() string { return "otrosi" }

// Override devuelve la modificación del grupo indicado.
func (o *OtroSi) Override(g GrupoPoliza) *RequisitoPolizaOverride {
	return overrideDe(g, &o.PolizaRCE, &o.PolizaCumplimiento, &o.PolizaArrendamiento, &o.PolizaTodoRiesgo, &o.PolizaOtra)
}

type RenovacionAutomatica struct {
	ID                         uint       `gorm:"primaryKey" json:"id"`
	ContratoID                 uint       `gorm:"not null;uniqueIndex:idx_renovacion_contrato_numero" json:"contratoId"`
	NumeroRenovacion           string     `gorm:"size:20;not null;uniqueIndex:idx_renovacion_contrato_numero" json:"numeroRenovacion"`
	Estado                     string     `gorm:"size:20;not null;default:BORRADOR;index" json:"estado"`
	Version                    int        `gorm:"default:1" json:"version"`
	FechaRenovacion            time.Time  `json:"fechaRenovacion"`
	EffectiveFrom              time.Time  `gorm:"not null;index" json:"effectiveFrom"`
	EffectiveTo                *time.Time `json:"effectiveTo"`
	FechaInicioNuevaVigencia   *time.Time `json:"fechaInicioNuevaVigencia"`
	NuevaFechaFinalActualizada *time.Time `json:"nuevaFechaFinalActualizada"`
	FechaFinalAnterior         *time.Time `json:"fechaFinalAnterior"`
	MesesRenovacion            int        `json:"mesesRenovacion"`
	UsarDuracionInicial        bool       `json:"usarDuracionInicial"`
	Descripcion                string     `gorm:"type:text" json:"descripcion"`

	ModificaPolizas     bool                    `gorm:"default:false" json:"modificaPolizas"`
	PolizaRCE           RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_rce_" json:"polizaRce"`
	PolizaCumplimiento  RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_cumplimiento_" json:"polizaCumplimiento"`
	PolizaArrendamiento RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_arrendamiento_" json:"polizaArrendamiento"`
	PolizaTodoRiesgo    RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_todo_riesgo_" json:"polizaTodoRiesgo"`
	PolizaOtra          RequisitoPolizaOverride `gorm:"embedded;embeddedPrefix:nueva_otra_" json:"polizaOtra"`
	NombrePolizaOtra    *string                 `gorm:"size:200" json:"nombrePolizaOtra"`

	Auditoria `gorm:"embedded"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (RenovacionAutomatica) TableName() string { return "renovaciones_automaticas" }

func (r *RenovacionAutomatica) Override(g GrupoPoliza) *RequisitoPolizaOverride {
	return overrideDe(g, &r.PolizaRCE, &r.PolizaCumplimiento, &r.PolizaArrendamiento, &r.PolizaTodoRiesgo, &r.PolizaOtra)
}

func overrideDe(g GrupoPoliza, rce, cum, arr, tr, otra *RequisitoPolizaOverride) *RequisitoPolizaOverride {
	switch g {
	case GrupoRCE:
		return rce
	case GrupoCumplimiento:
		return cum
	case GrupoArrendamiento:
		return arr
	case GrupoTodoRiesgo:
		return tr
	case GrupoOtra:
		return otra
	}
	return nil
}
