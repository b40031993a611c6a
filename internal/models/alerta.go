package models

import (
	"time"
)

const (
	AlertaVencimientoContratos  = "VENCIMIENTO_CONTRATOS"
	AlertaIPC                   = "ALERTAS_IPC"
	AlertaSalarioMinimo         = "ALERTAS_SALARIO_MINIMO"
	AlertaPolizasCriticas       = "POLIZAS_CRITICAS"
	AlertaPreavisoRenovacion    = "PREAVISO_RENOVACION"
	AlertaPolizasRequeridas     = "POLIZAS_REQUERIDAS"
	AlertaTerminacionAnticipada = "TERMINACION_ANTICIPADA"
	AlertaRenovacionAutomatica  = "RENOVACION_AUTOMATICA"

	FrecuenciaInmediato = "INMEDIATO"
	FrecuenciaDiario    = "DIARIO"
	FrecuenciaSemanal   = "SEMANAL"
	FrecuenciaMensual   = "MENSUAL"

	EnvioPendiente = "PENDIENTE"
	EnvioEnviado   = "ENVIADO"
	EnvioError     = "ERROR"
	EnvioCancelado = "CANCELADO"
)

// TiposAlerta en el orden en que se muestran y se envían.
var TiposAlerta = []string{
	AlertaVencimientoContratos, AlertaIPC, AlertaSalarioMinimo, AlertaPolizasCriticas,
	AlertaPreavisoRenovacion, AlertaPolizasRequeridas, AlertaTerminacionAnticipada, AlertaRenovacionAutomatica,
}

var NombresAlerta = map[string]string{
	AlertaVencimientoContratos:  "Vencimiento de Contratos",
	AlertaIPC:                   "Ajustes de IPC",
	AlertaSalarioMinimo:         "Ajustes de Salario Mínimo",
	AlertaPolizasCriticas:       "Pólizas Críticas",
	AlertaPreavisoRenovacion:    "Preaviso de Renovación",
	AlertaPolizasRequeridas:     "Pólizas Requeridas",
	AlertaTerminacionAnticipada: "Terminación Anticipada",
	AlertaRenovacionAutomatica:  "Renovación Automática",
}

var Frecuencias = map[string]bool{FrecuenciaInmediato: true, FrecuenciaDiario: true, FrecuenciaSemanal: true, FrecuenciaMensual: true}

type ConfiguracionAlerta struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	TipoAlerta    string               `gorm:"size:50;uniqueIndex;not null" json:"tipoAlerta"`
	Activo        bool                 `json:"activo"`
	Frecuencia    string               `gorm:"size:20;default:DIARIO" json:"frecuencia"`
	DiasSemana    []int                `gorm:"serializer:json" json:"diasSemana"` // 0 = lunes
	HoraEnvio     string               `gorm:"size:5;default:08:00" json:"horaEnvio"`
	SoloCriticas  bool                 `gorm:"default:false" json:"soloCriticas"`
	Asunto        string               `gorm:"size:200" json:"asunto"`
	Destinatarios []DestinatarioAlerta `gorm:"foreignKey:ConfiguracionAlertaID;constraint:OnDelete:CASCADE" json:"destinatarios,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func (ConfiguracionAlerta) TableName() string { return "configuracion_alertas" }

// DiaSemana convierte time.Weekday a la convención lunes = 0.
func DiaSemana(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DebeEnviarHoy evalúa la frecuencia contra la fecha dada.
func (c *ConfiguracionAlerta) DebeEnviarHoy(hoy time.Time) bool {
	if !c.Activo {
		return false
	}
	switch c.Frecuencia {
	case FrecuenciaInmediato, FrecuenciaDiario:
		return true
	case FrecuenciaSemanal:
		d := DiaSemana(hoy)
		for _, x := range c.DiasSemana {
			if x == d {
				return true
			}
		}
		return false
	case FrecuenciaMensual:
		return hoy.Day() == 1
	}
	return false
}

type DestinatarioAlerta struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	ConfiguracionAlertaID uint      `gorm:"not null;uniqueIndex:idx_destinatario_config_email" json:"configuracionAlertaId"`
	Nombre                string    `gorm:"size:200" json:"nombre"`
	Email                 string    `gorm:"size:200;not null;uniqueIndex:idx_destinatario_config_email" json:"email"`
	Activo                bool      `json:"activo"`
	CreatedAt             time.Time `json:"createdAt"`
}

func (DestinatarioAlerta) TableName() string { return "destinatarios_alerta" }

type HistorialEnvioEmail struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Lote            string     `gorm:"size:36;index" json:"lote"`
	TipoAlerta      string     `gorm:"size:50;index" json:"tipoAlerta"`
	Destinatario    string     `gorm:"size:200" json:"destinatario"`
	Asunto          string     `gorm:"size:300" json:"asunto"`
	Estado          string     `gorm:"size:20;default:PENDIENTE;index" json:"estado"`
	CantidadAlertas int        `json:"cantidadAlertas"`
	FechaEnvio      *time.Time `json:"fechaEnvio"`
	ErrorMensaje    string     `gorm:"type:text" json:"errorMensaje"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (HistorialEnvioEmail) TableName() string { return "historial_envio_email" }
