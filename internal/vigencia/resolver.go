package vigencia

import (
	"sort"
	"time"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

// Ordenar deja los eventos del más reciente al más antiguo: effective_from,
// luego fecha de aprobación (sin fecha cuenta como ahora) y luego versión.
func Ordenar(eventos []Evento, ahora time.Time) {
	aprob := func(e Evento) time.Time {
		if e.FechaAprobacion == nil {
			return ahora
		}
		return *e.FechaAprobacion
	}
	sort.SliceStable(eventos, func(i, j int) bool {
		a, b := eventos[i], eventos[j]
		if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
			return a.EffectiveFrom.After(b.EffectiveFrom)
		}
		if fa, fb := aprob(a), aprob(b); !fa.Equal(fb) {
			return fa.After(fb)
		}
		if a.Version != b.Version {
			return a.Version > b.Version
		}
		return a.ID > b.ID
	})
}

// UltimoModificador busca el evento aprobado más reciente cuya ventana cubre ref y
// que fija un valor para campo. Con permitirFuturos también son elegibles los
// eventos que inician después de ref. Devuelve nil si ninguno lo modifica.
func UltimoModificador(eventos []Evento, campo Campo, ref time.Time, permitirFuturos bool) *Evento {
	ref = fechas.Dia(ref)
	candidatos := make([]Evento, 0, len(eventos))
	for _, e := range eventos {
		if e.Estado == models.EstadoAprobado {
			candidatos = append(candidatos, e)
		}
	}
	Ordenar(candidatos, time.Now())

	for i := range candidatos {
		e := &candidatos[i]
		futuro := fechas.Dia(e.EffectiveFrom).After(ref)
		if !e.Cubre(ref) && !(permitirFuturos && futuro) {
			continue
		}
		if e.Valor(campo) != nil {
			return e
		}
	}
	return nil
}

// Resuelto es un valor efectivo y el documento que lo fijó ("" = contrato base).
type Resuelto struct {
	Valor       any     `json:"valor"`
	Modificador string  `json:"modificador,omitempty"`
	Evento      *Evento `json:"-"`
}
