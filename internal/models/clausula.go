package models

import "time"

type Clausula struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Titulo        string    `gorm:"size:255;not null" json:"titulo"`
	Activa        bool      `gorm:"default:true" json:"activa"`
	Orden         int       `gorm:"default:0" json:"orden"`
	CreadoPor     string    `gorm:"size:150" json:"creadoPor"`
	ModificadoPor string    `gorm:"size:150" json:"modificadoPor"`
	EliminadoPor  string    `gorm:"size:150" json:"eliminadoPor,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ClausulaObligatoria exige una cláusula a los contratos de un tipo. Sin TipoContratoID
// (cliente) o TipoServicioID (proveedor) aplica a todos los del tipo.
type ClausulaObligatoria struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ClausulaID     uint      `gorm:"not null;index" json:"clausulaId"`
	Clausula       *Clausula `gorm:"constraint:OnDelete:CASCADE" json:"clausula,omitempty"`
	TipoContrato   string    `gorm:"size:20;not null;index" json:"tipoContrato"`
	TipoContratoID *uint     `gorm:"index" json:"tipoContratoId"`
	TipoServicioID *uint     `gorm:"index" json:"tipoServicioId"`
	Activa         bool      `gorm:"default:true" json:"activa"`
	CreadoPor      string    `gorm:"size:150" json:"creadoPor"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (ClausulaObligatoria) TableName() string { return "clausulas_obligatorias" }

type ClausulaContrato struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ContratoID uint      `gorm:"not null;uniqueIndex:idx_clausula_contrato" json:"contratoId"`
	ClausulaID uint      `gorm:"not null;uniqueIndex:idx_clausula_contrato" json:"clausulaId"`
	Clausula   *Clausula `gorm:"constraint:OnDelete:CASCADE" json:"clausula,omitempty"`
	CreadoPor  string    `gorm:"size:150" json:"creadoPor"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (ClausulaContrato) TableName() string { return "clausulas_contrato" }
