package otrosi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

// OtroSiDTO es el cuerpo de creación y edición.
type OtroSiDTO struct {
	Tipo          string     `json:"tipo"`
	FechaOtroSi   *time.Time `json:"fechaOtroSi"`
	EffectiveFrom time.Time  `json:"effectiveFrom" validate:"required"`
	EffectiveTo   *time.Time `json:"effectiveTo"`
	Descripcion   string     `json:"descripcion"`

	NuevoValorCanon              *decimal.Decimal `json:"nuevoValorCanon"`
	NuevaModalidadPago           *string          `json:"nuevaModalidadPago"`
	NuevoCanonMinimoGarantizado  *decimal.Decimal `json:"nuevoCanonMinimoGarantizado"`
	NuevoPorcentajeVentas        *decimal.Decimal `json:"nuevoPorcentajeVentas"`
	NuevaFechaFinalActualizada   *time.Time       `json:"nuevaFechaFinalActualizada"`
	NuevoPlazoMeses              *int             `json:"nuevoPlazoMeses" validate:"omitempty,gte=1"`
	NuevoTipoCondicionIPC        *string          `json:"nuevoTipoCondicionIpc"`
	NuevosPuntosAdicionalesIPC   *decimal.Decimal `json:"nuevosPuntosAdicionalesIpc"`
	NuevoPorcentajeSalarioMinimo *decimal.Decimal `json:"nuevoPorcentajeSalarioMinimo"`
	NuevaPeriodicidadIPC         *string          `json:"nuevaPeriodicidadIpc"`
	NuevaFechaAumentoIPC         *time.Time       `json:"nuevaFechaAumentoIpc"`

	ModificaPolizas     bool                           `json:"modificaPolizas"`
	PolizaRCE           models.RequisitoPolizaOverride `json:"polizaRce"`
	PolizaCumplimiento  models.RequisitoPolizaOverride `json:"polizaCumplimiento"`
	PolizaArrendamiento models.RequisitoPolizaOverride `json:"polizaArrendamiento"`
	PolizaTodoRiesgo    models.RequisitoPolizaOverride `json:"polizaTodoRiesgo"`
	PolizaOtra          models.RequisitoPolizaOverride `json:"polizaOtra"`
	NombrePolizaOtra    *string                        `json:"nombrePolizaOtra"`
}

// Validar revisa las reglas que no se expresan con etiquetas.
func (d *OtroSiDTO) Validar() error {
	if err := utils.Validar(d); err != nil {
		return err
	}
	ve := &utils.ErrValidacion{Campos: map[string]string{}}
	if d.Tipo != "" && !models.TiposOtroSi[d.Tipo] {
		ve.Campos["tipo"] = "tipo de Otro Sí no permitido"
	}
	if d.EffectiveTo != nil && d.EffectiveTo.Before(d.EffectiveFrom) {
		ve.Campos["effectiveTo"] = "la fecha fin de vigencia no puede ser anterior a la fecha de inicio"
	}
	if d.NuevaModalidadPago != nil && *d.NuevaModalidadPago != "" && !models.ModalidadesPermitidas[*d.NuevaModalidadPago] {
		ve.Campos["nuevaModalidadPago"] = "modalidad de pago no permitida"
	}
	if d.NuevoTipoCondicionIPC != nil && *d.NuevoTipoCondicionIPC != "" &&
		*d.NuevoTipoCondicionIPC != models.CondicionIPC && *d.NuevoTipoCondicionIPC != models.CondicionSalarioMinimo {
		ve.Campos["nuevoTipoCondicionIpc"] = "use IPC o SALARIO_MINIMO"
	}
	if d.NuevaPeriodicidadIPC != nil && *d.NuevaPeriodicidadIPC != "" {
		switch *d.NuevaPeriodicidadIPC {
		case models.PeriodicidadAnual:
		case models.PeriodicidadEspecifica:
			if d.NuevaFechaAumentoIPC == nil {
				ve.Campos["nuevaFechaAumentoIpc"] = "obligatoria con periodicidad de fecha específica"
			}
		default:
			ve.Campos["nuevaPeriodicidadIpc"] = "use ANUAL o FECHA_ESPECIFICA"
		}
	}
	for campo, v := range map[string]*decimal.Decimal{
		"nuevoValorCanon":              d.NuevoValorCanon,
		"nuevoCanonMinimoGarantizado":  d.NuevoCanonMinimoGarantizado,
		"nuevoPorcentajeVentas":        d.NuevoPorcentajeVentas,
		"nuevosPuntosAdicionalesIpc":   d.NuevosPuntosAdicionalesIPC,
		"nuevoPorcentajeSalarioMinimo": d.NuevoPorcentajeSalarioMinimo,
	} {
		if v != nil && v.IsNegative() {
			ve.Campos[campo] = "no puede ser negativo"
		}
	}
	if d.NuevoPorcentajeVentas != nil && d.NuevoPorcentajeVentas.GreaterThan(decimal.NewFromInt(100)) {
		ve.Campos["nuevoPorcentajeVentas"] = "debe ser menor o igual a 100"
	}
	if d.NuevaFechaFinalActualizada != nil && d.NuevaFechaFinalActualizada.Before(d.EffectiveFrom) {
		ve.Campos["nuevaFechaFinalActualizada"] = "no puede ser anterior al inicio de vigencia del Otro Sí"
	}
	if len(ve.Campos) > 0 {
		return ve
	}
	return nil
}

// aplicar copia el DTO sobre el registro.
func (d *OtroSiDTO) aplicar(o *models.OtroSi) {
	if d.Tipo != "" {
		o.Tipo = d.Tipo
	}
	if d.FechaOtroSi != nil {
		o.FechaOtroSi = *d.FechaOtroSi
	}
	o.EffectiveFrom = d.EffectiveFrom
	o.EffectiveTo = d.EffectiveTo
	o.Descripcion = d.Descripcion
	o.NuevoValorCanon = d.NuevoValorCanon
	o.NuevaModalidadPago = d.NuevaModalidadPago
	o.NuevoCanonMinimoGarantizado = d.NuevoCanonMinimoGarantizado
	o.NuevoPorcentajeVentas = d.NuevoPorcentajeVentas
	o.NuevaFechaFinalActualizada = d.NuevaFechaFinalActualizada
	o.NuevoPlazoMeses = d.NuevoPlazoMeses
	o.NuevoTipoCondicionIPC = d.NuevoTipoCondicionIPC
	o.NuevosPuntosAdicionalesIPC = d.NuevosPuntosAdicionalesIPC
	o.NuevoPorcentajeSalarioMinimo = d.NuevoPorcentajeSalarioMinimo
	o.NuevaPeriodicidadIPC = d.NuevaPeriodicidadIPC
	o.NuevaFechaAumentoIPC = d.NuevaFechaAumentoIPC
	o.ModificaPolizas = d.ModificaPolizas
	if d.ModificaPolizas {
		o.PolizaRCE, o.PolizaCumplimiento, o.PolizaArrendamiento = d.PolizaRCE, d.PolizaCumplimiento, d.PolizaArrendamiento
		o.PolizaTodoRiesgo, o.PolizaOtra, o.NombrePolizaOtra = d.PolizaTodoRiesgo, d.PolizaOtra, d.NombrePolizaOtra
	} else {
		o.PolizaRCE, o.PolizaCumplimiento, o.PolizaArrendamiento = models.RequisitoPolizaOverride{}, models.RequisitoPolizaOverride{}, models.RequisitoPolizaOverride{}
		o.PolizaTodoRiesgo, o.PolizaOtra, o.NombrePolizaOtra = models.RequisitoPolizaOverride{}, models.RequisitoPolizaOverride{}, nil
	}
}

// TransicionDTO pide un cambio de estado.
type TransicionDTO struct {
	Estado string `json:"estado" validate:"required"`
	Motivo string `json:"motivo"`
	// Estricto convierte los solapamientos en error al aprobar.
	Estricto bool `json:"estricto"`
}

// Resultado acompaña al documento con avisos no bloqueantes.
type Resultado struct {
	OtroSi               *models.OtroSi `json:"otroSi"`
	EstadoVigencia       string         `json:"estadoVigencia,omitempty"`
	CalculosActualizados int            `json:"calculosActualizados,omitempty"`
	Advertencias         []string       `json:"advertencias,omitempty"`
}
