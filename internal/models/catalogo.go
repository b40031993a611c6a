package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TerceroArrendatario = "ARRENDATARIO"
	TerceroProveedor    = "PROVEEDOR"
)

// Tercero es el arrendatario o proveedor con el que se firma el contrato.
type Tercero struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Nit                string    `gorm:"size:20;not null;uniqueIndex:idx_tercero_nit_tipo" json:"nit"`
	RazonSocial        string    `gorm:"size:200;not null;index" json:"razonSocial"`
	Tipo               string    `gorm:"size:20;not null;default:ARRENDATARIO;uniqueIndex:idx_tercero_nit_tipo" json:"tipo"`
	NombreRepLegal     string    `gorm:"size:100" json:"nombreRepLegal"`
	NombreSupervisorOp string    `gorm:"size:100" json:"nombreSupervisorOp"`
	EmailSupervisorOp  string    `gorm:"size:254" json:"emailSupervisorOp"`
	CreadoPor          string    `gorm:"size:150" json:"creadoPor"`
	ModificadoPor      string    `gorm:"size:150" json:"modificadoPor"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type Local struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	NombreComercialStand string          `gorm:"size:100;not null;uniqueIndex" json:"nombreComercialStand"`
	Ubicacion            string          `gorm:"size:200;default:No especificada" json:"ubicacion"`
	TotalAreaM2          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAreaM2"`
	CreadoPor            string          `gorm:"size:150" json:"creadoPor"`
	ModificadoPor        string          `gorm:"size:150" json:"modificadoPor"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func (Local) TableName() string { return "locales" }

// TipoContrato clasifica los contratos de cliente (arrendamiento, concesión, ...).
type TipoContrato struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Nombre        string    `gorm:"size:100;not null;uniqueIndex" json:"nombre"`
	CreadoPor     string    `gorm:"size:150" json:"creadoPor"`
	ModificadoPor string    `gorm:"size:150" json:"modificadoPor"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (TipoContrato) TableName() string { return "tipos_contrato" }

// TipoServicio clasifica los contratos de proveedor (mantenimiento, aseo, seguridad, ...).
type TipoServicio struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Nombre        string    `gorm:"size:100;not null;uniqueIndex" json:"nombre"`
	CreadoPor     string    `gorm:"size:150" json:"creadoPor"`
	ModificadoPor string    `gorm:"size:150" json:"modificadoPor"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (TipoServicio) TableName() string { return "tipos_servicio" }
