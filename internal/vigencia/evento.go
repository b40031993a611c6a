// Package vigencia resuelve el estado efectivo de un contrato en una fecha, encadenando
// los Otro Sí y las renovaciones automáticas aprobadas sobre los valores del contrato base.
package vigencia

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

const (
	EventoOtroSi     = "OTROSI"
	EventoRenovacion = "RENOVACION"
)

// Campo identifica un valor del contrato que un documento puede modificar.
type Campo string

const (
	CampoValorCanon       Campo = "valor_canon"
	CampoModalidadPago    Campo = "modalidad_pago"
	CampoCanonMinimo      Campo = "canon_minimo_garantizado"
	CampoPorcentajeVentas Campo = "porcentaje_ventas"
	CampoFechaFinal       Campo = "fecha_final_actualizada"
	CampoPlazoMeses       Campo = "plazo_meses"
	CampoTipoCondicionIPC Campo = "tipo_condicion_ipc"
	CampoPuntosIPC        Campo = "puntos_adicionales_ipc"
	CampoPorcentajeSMLV   Campo = "porcentaje_salario_minimo"
	CampoPeriodicidadIPC  Campo = "periodicidad_ipc"
	CampoFechaAumentoIPC  Campo = "fecha_aumento_ipc"
)

// Atributos de un requisito de póliza.
const (
	AtributoExige       = "exige"
	AtributoValor       = "valor"
	AtributoMeses       = "meses"
	AtributoFechaInicio = "inicio"
	AtributoFechaFin    = "fin"
)

// CampoPoliza arma el campo de un atributo de póliza, p. ej. "poliza.RCE.valor".
func CampoPoliza(g models.GrupoPoliza, atributo string) Campo {
	return Campo("poliza." + string(g) + "." + atributo)
}

func separarCampoPoliza(c Campo) (models.GrupoPoliza, string, bool) {
	partes := strings.Split(string(c), ".")
	if len(partes) != 3 || partes[0] != "poliza" {
		return "", "", false
	}
	return models.GrupoPoliza(partes[1]), partes[2], true
}

// Evento es un Otro Sí o una renovación automática visto por el resolvedor.
type Evento struct {
	Tipo            string     `json:"tipo"`
	ID              uint       `json:"id"`
	Numero          string     `json:"numero"`
	Version         int        `json:"version"`
	Estado          string     `json:"estado"`
	EffectiveFrom   time.Time  `json:"effectiveFrom"`
	EffectiveTo     *time.Time `json:"effectiveTo"`
	FechaAprobacion *time.Time `json:"fechaAprobacion"`

	otrosi     *models.OtroSi
	renovacion *models.RenovacionAutomatica
}

func DesdeOtroSi(o *models.OtroSi) Evento {
	return Evento{
		Tipo: EventoOtroSi, ID: o.ID, Numero: o.NumeroOtroSi, Version: o.Version, Estado: o.Estado,
		EffectiveFrom: o.EffectiveFrom, EffectiveTo: o.EffectiveTo, FechaAprobacion: o.FechaAprobacion,
		otrosi: o,
	}
}

func DesdeRenovacion(r *models.RenovacionAutomatica) Evento {
	return Evento{
		Tipo: EventoRenovacion, ID: r.ID, Numero: r.NumeroRenovacion, Version: r.Version, Estado: r.Estado,
		EffectiveFrom: r.EffectiveFrom, EffectiveTo: r.EffectiveTo, FechaAprobacion: r.FechaAprobacion,
		renovacion: r,
	}
}

func (e *Evento) OtroSi() *models.OtroSi                   { return e.otrosi }
func (e *Evento) Renovacion() *models.RenovacionAutomatica { return e.renovacion }

// Cubre indica si la ventana del evento contiene ref.
func (e *Evento) Cubre(ref time.Time) bool {
	return fechas.Cubre(e.EffectiveFrom, e.EffectiveTo, ref)
}

// NuevaFechaFinal es la fecha final que fija el documento, si la fija.
func (e *Evento) NuevaFechaFinal() *time.Time {
	if e.otrosi != nil {
		return e.otrosi.NuevaFechaFinalActualizada
	}
	if e.renovacion != nil {
		return e.renovacion.NuevaFechaFinalActualizada
	}
	return nil
}

// Valor devuelve el valor que el evento fija para el campo, o nil si no lo modifica.
func (e *Evento) Valor(c Campo) any {
	if g, atr, ok := separarCampoPoliza(c); ok {
		var ov *models.RequisitoPolizaOverride
		switch {
		case e.otrosi != nil:
			ov = e.otrosi.Override(g)
		case e.renovacion != nil:
			ov = e.renovacion.Override(g)
		}
		return valorOverride(ov, atr)
	}
	if e.renovacion != nil {
		if c == CampoFechaFinal {
			return fechaONil(e.renovacion.NuevaFechaFinalActualizada)
		}
		return nil
	}
	o := e.otrosi
	if o == nil {
		return nil
	}
	switch c {
	case CampoValorCanon:
		return decimalONil(o.NuevoValorCanon)
	case CampoModalidadPago:
		return textoONil(o.NuevaModalidadPago)
	case CampoCanonMinimo:
		return decimalONil(o.NuevoCanonMinimoGarantizado)
	case CampoPorcentajeVentas:
		return decimalONil(o.NuevoPorcentajeVentas)
	case CampoFechaFinal:
		return fechaONil(o.NuevaFechaFinalActualizada)
	case CampoPlazoMeses:
		return enteroONil(o.NuevoPlazoMeses)
	case CampoTipoCondicionIPC:
		return textoONil(o.NuevoTipoCondicionIPC)
	case CampoPuntosIPC:
		return decimalONil(o.NuevosPuntosAdicionalesIPC)
	case CampoPorcentajeSMLV:
		return decimalONil(o.NuevoPorcentajeSalarioMinimo)
	case CampoPeriodicidadIPC:
		return textoONil(o.NuevaPeriodicidadIPC)
	case CampoFechaAumentoIPC:
		return fechaONil(o.NuevaFechaAumentoIPC)
	}
	return nil
}

func valorOverride(ov *models.RequisitoPolizaOverride, atr string) any {
	if ov == nil {
		return nil
	}
	switch atr {
	case AtributoExige:
		if ov.Exige == nil {
			return nil
		}
		return *ov.Exige
	case AtributoValor:
		return decimalONil(ov.ValorAsegurado)
	case AtributoMeses:
		return enteroONil(ov.MesesVigencia)
	case AtributoFechaInicio:
		return fechaONil(ov.FechaInicioVigencia)
	case AtributoFechaFin:
		return fechaONil(ov.FechaFinVigencia)
	}
	return nil
}

// ValorContrato es el valor base del contrato para el campo, o nil.
func ValorContrato(c *models.Contrato, campo Campo) any {
	if g, atr, ok := separarCampoPoliza(campo); ok {
		req := c.Requisito(g)
		if req == nil {
			return nil
		}
		switch atr {
		case AtributoExige:
			return req.Exige
		case AtributoValor:
			return decimalONil(req.ValorAsegurado)
		case AtributoMeses:
			return enteroONil(req.MesesVigencia)
		case AtributoFechaInicio:
			return fechaONil(req.FechaInicioVigencia)
		case AtributoFechaFin:
			return fechaONil(req.FechaFinVigencia)
		}
		return nil
	}
	switch campo {
	case CampoValorCanon:
		return decimalONil(c.ValorCanonFijo)
	case CampoModalidadPago:
		return textoONil(&c.ModalidadPago)
	case CampoCanonMinimo:
		return decimalONil(c.CanonMinimoGarantizado)
	case CampoPorcentajeVentas:
		return decimalONil(c.PorcentajeVentas)
	case CampoFechaFinal:
		return fechaONil(c.FechaFinalBase())
	case CampoPlazoMeses:
		return c.DuracionInicialMeses
	case CampoTipoCondicionIPC:
		return textoONil(&c.TipoCondicionIPC)
	case CampoPuntosIPC:
		return decimalONil(c.PuntosAdicionalesIPC)
	case CampoPorcentajeSMLV:
		return decimalONil(c.PorcentajeSalarioMinimo)
	case CampoPeriodicidadIPC:
		return textoONil(&c.PeriodicidadIPC)
	case CampoFechaAumentoIPC:
		return fechaONil(c.FechaAumentoIPC)
	}
	return nil
}

func decimalONil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

func textoONil(s *string) any {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return *s
}

func fechaONil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fechas.Dia(*t)
}

func enteroONil(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
