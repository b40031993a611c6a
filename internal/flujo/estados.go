// Package flujo valida el flujo de aprobación de Otro Sí y renovaciones automáticas.
package flujo

import (
	"fmt"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

// Regla es una transición permitida.
type Regla struct {
	Desde string
	Hacia string
}

var Reglas = []Regla{
	{Desde: models.EstadoBorrador, Hacia: models.EstadoEnRevision},
	{Desde: models.EstadoBorrador, Hacia: models.EstadoAprobado},
	{Desde: models.EstadoEnRevision, Hacia: models.EstadoAprobado},
	{Desde: models.EstadoEnRevision, Hacia: models.EstadoRechazado},
	{Desde: models.EstadoAprobado, Hacia: models.EstadoAnulado},
}

var Estados = map[string]bool{
	models.EstadoBorrador: true, models.EstadoEnRevision: true, models.EstadoAprobado: true,
	models.EstadoRechazado: true, models.EstadoAnulado: true,
}

// TransicionError es el error estructurado de una transición rechazada.
type TransicionError struct {
	Codigo  string `json:"codigo"`
	Desde   string `json:"desde"`
	Hacia   string `json:"hacia"`
	Mensaje string `json:"mensaje"`
}

func (e *TransicionError) Error() string { return e.Mensaje }

// ValidarTransicion devuelve nil si desde -> hacia está permitida.
func ValidarTransicion(desde, hacia string) error {
	if !Estados[hacia] {
		return &TransicionError{Codigo: "ESTADO_DESCONOCIDO", Desde: desde, Hacia: hacia,
			Mensaje: fmt.Sprintf("estado desconocido: %s", hacia)}
	}
	if desde == hacia {
		return &TransicionError{Codigo: "SIN_CAMBIO", Desde: desde, Hacia: hacia,
			Mensaje: fmt.Sprintf("el documento ya está en estado %s", hacia)}
	}
	for _, r := range Reglas {
		if r.Desde == desde && r.Hacia == hacia {
			return nil
		}
	}
	return &TransicionError{Codigo: "TRANSICION_INVALIDA", Desde: desde, Hacia: hacia,
		Mensaje: fmt.Sprintf("no se puede pasar de %s a %s", desde, hacia)}
}

// TransicionesPermitidas lista los estados alcanzables desde el estado dado.
func TransicionesPermitidas(desde string) []string {
	var out []string
	for _, r := range Reglas {
		if r.Desde == desde {
			out = append(out, r.Hacia)
		}
	}
	return out
}

// Editable indica si el contenido del documento aún puede cambiar.
func Editable(estado string) bool {
	return estado == models.EstadoBorrador || estado == models.EstadoEnRevision
}
