package models

import "time"

// SeguimientoContrato es una nota de gestión sobre el contrato.
type SeguimientoContrato struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContratoID    uint      `gorm:"not null;index" json:"contratoId"`
	Detalle       string    `gorm:"type:text;not null" json:"detalle"`
	RegistradoPor string    `gorm:"size:150" json:"registradoPor"`
	FechaRegistro time.Time `gorm:"index" json:"fechaRegistro"`
}

// SeguimientoPoliza es una nota sobre una póliza concreta o sobre un tipo de póliza del contrato.
type SeguimientoPoliza struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContratoID    uint      `gorm:"not null;index" json:"contratoId"`
	PolizaID      *uint     `gorm:"index" json:"polizaId"`
	PolizaTipo    string    `gorm:"size:50" json:"polizaTipo"`
	Detalle       string    `gorm:"type:text;not null" json:"detalle"`
	RegistradoPor string    `gorm:"size:150" json:"registradoPor"`
	FechaRegistro time.Time `gorm:"index" json:"fechaRegistro"`
}
