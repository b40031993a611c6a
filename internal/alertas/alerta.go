// Package alertas genera las alertas de contratos y pólizas y las envía por correo.
package alertas

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

const (
	ColorPeligro     = "danger"
	ColorAdvertencia = "warning"
	ColorExito       = "success"

	VentanaVencimiento   = 90
	VentanaIndexacion    = 90
	VentanaPolizas       = 60
	VentanaPreaviso      = 60
	VentanaRenovacion    = 30
	diasColorPeligro     = 7
	diasColorAdvertencia = 30
)

var rangoColor = map[string]int{ColorPeligro: 0, ColorAdvertencia: 1, ColorExito: 2}

var meses = [...]string{"", "Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio",
	"Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

// Alerta es una fila de cualquier tipo de alerta. Los campos que no aplican van vacíos.
type Alerta struct {
	Tipo         string     `json:"tipo"`
	ContratoID   uint       `json:"contratoId"`
	NumContrato  string     `json:"numContrato"`
	Tercero      string     `json:"tercero"`
	TipoContrato string     `json:"tipoContrato"`
	Fecha        *time.Time `json:"fecha"`
	Dias         int        `json:"dias"`
	Meses        int        `json:"meses,omitempty"`
	Color        string     `json:"color"`
	Critica      bool       `json:"critica"`
	Descripcion  string     `json:"descripcion"`
	Modificador  string     `json:"modificador,omitempty"`

	// pólizas
	PolizaID       *uint            `json:"polizaId,omitempty"`
	TipoPoliza     string           `json:"tipoPoliza,omitempty"`
	NumeroPoliza   string           `json:"numeroPoliza,omitempty"`
	ValorRequerido *decimal.Decimal `json:"valorRequerido,omitempty"`
	TienePoliza    *bool            `json:"tienePoliza,omitempty"`

	// fecha límite para preaviso o terminación anticipada
	FechaLimite *time.Time `json:"fechaLimite,omitempty"`
	Duracion    int        `json:"duracionMeses,omitempty"`
}

// Color clasifica por días restantes: vencido o a una semana es peligro, a un mes advertencia.
func Color(dias int) string {
	switch {
	case dias < 0 || dias <= diasColorPeligro:
		return ColorPeligro
	case dias <= diasColorAdvertencia:
		return ColorAdvertencia
	}
	return ColorExito
}

// esCritica: en IPC y salario mínimo solo lo rojo; en los demás tipos toda alerta lo es.
func esCritica(tipo, color string) bool {
	if tipo == models.AlertaIPC || tipo == models.AlertaSalarioMinimo {
		return color == ColorPeligro
	}
	return true
}

func nueva(tipo string, c *models.Contrato, fecha *time.Time, dias int) Alerta {
	color := Color(dias)
	return Alerta{
		Tipo: tipo, ContratoID: c.ID, NumContrato: c.NumContrato, Tercero: c.Tercero,
		TipoContrato: c.TipoContrato, Fecha: fecha, Dias: dias, Color: color, Critica: esCritica(tipo, color),
	}
}

func nombreMes(t time.Time) string {
	return meses[t.Month()] + " " + t.Format("2006")
}

// SoloCriticas deja las alertas marcadas como críticas.
func SoloCriticas(list []Alerta) []Alerta {
	out := make([]Alerta, 0, len(list))
	for _, a := range list {
		if a.Critica {
			out = append(out, a)
		}
	}
	return out
}
