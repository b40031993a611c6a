package contrato

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

// ContratoDTO es el cuerpo de creación y edición de un contrato.
type ContratoDTO struct {
	NumContrato        string `json:"numContrato" validate:"required,max=100"`
	TipoContrato       string `json:"tipoContrato" validate:"omitempty,oneof=CLIENTE PROVEEDOR"`
	Tercero            string `json:"tercero" validate:"max=200"`
	NitTercero         string `json:"nitTercero" validate:"max=30"`
	TerceroID          *uint  `json:"terceroId"`
	LocalID            *uint  `json:"localId"`
	TipoContratoID     *uint  `json:"tipoContratoId"`
	TipoServicioID     *uint  `json:"tipoServicioId"`
	ObjetoDestinacion  string `json:"objetoDestinacion"`
	NitConcedente      string `json:"nitConcedente" validate:"max=30"`
	RepLegalConcedente string `json:"repLegalConcedente" validate:"max=200"`
	UrlArchivo         string `json:"urlArchivo" validate:"max=500"`

	FechaFirma                *time.Time `json:"fechaFirma"`
	DuracionInicialMeses      int        `json:"duracionInicialMeses" validate:"gte=0,lte=600"`
	FechaInicialContrato      time.Time  `json:"fechaInicialContrato" validate:"required"`
	FechaFinalInicial         *time.Time `json:"fechaFinalInicial"`
	ProrrogaAutomatica        bool       `json:"prorrogaAutomatica"`
	DiasPreavisoNoRenovacion  *int       `json:"diasPreavisoNoRenovacion" validate:"omitempty,gte=0"`
	DiasTerminacionAnticipada *int       `json:"diasTerminacionAnticipada" validate:"omitempty,gte=0"`
	Vigente                   *bool      `json:"vigente"`

	ModalidadPago           string           `json:"modalidadPago"`
	ValorCanonFijo          *decimal.Decimal `json:"valorCanonFijo"`
	CanonMinimoGarantizado  *decimal.Decimal `json:"canonMinimoGarantizado"`
	PorcentajeVentas        *decimal.Decimal `json:"porcentajeVentas"`
	ReportaVentas           bool             `json:"reportaVentas"`
	DiaLimiteReporteVentas  *int             `json:"diaLimiteReporteVentas" validate:"omitempty,gte=1,lte=31"`
	TipoCondicionIPC        string           `json:"tipoCondicionIpc" validate:"omitempty,oneof=IPC SALARIO_MINIMO"`
	PuntosAdicionalesIPC    *decimal.Decimal `json:"puntosAdicionalesIpc"`
	PorcentajeSalarioMinimo *decimal.Decimal `json:"porcentajeSalarioMinimo"`
	PeriodicidadIPC         string           `json:"periodicidadIpc" validate:"omitempty,oneof=ANUAL FECHA_ESPECIFICA"`
	FechaAumentoIPC         *time.Time       `json:"fechaAumentoIpc"`

	PolizaRCE           models.RequisitoPoliza `json:"polizaRce"`
	PolizaCumplimiento  models.RequisitoPoliza `json:"polizaCumplimiento"`
	PolizaArrendamiento models.RequisitoPoliza `json:"polizaArrendamiento"`
	PolizaTodoRiesgo    models.RequisitoPoliza `json:"polizaTodoRiesgo"`
	PolizaOtra          models.RequisitoPoliza `json:"polizaOtra"`
	NombrePolizaOtra    string                 `json:"nombrePolizaOtra" validate:"max=200"`
}

var cien = decimal.NewFromInt(100)

func positivo(d *decimal.Decimal) bool { return d != nil && d.IsPositive() }

// Validar aplica las etiquetas y las reglas entre campos.
func (d *ContratoDTO) Validar() error {
	if err := utils.Validar(d); err != nil {
		return err
	}
	ve := &utils.ErrValidacion{Campos: map[string]string{}}
	if d.FechaFinalInicial != nil && d.FechaFinalInicial.Before(d.FechaInicialContrato) {
		ve.Campos["fechaFinalInicial"] = "no puede ser anterior a la fecha inicial del contrato"
	}
	switch d.ModalidadPago {
	case "":
	case models.ModalidadFijo:
		if !positivo(d.ValorCanonFijo) {
			ve.Campos["valorCanonFijo"] = "obligatorio para modalidad fija"
		}
	case models.ModalidadVariablePuro:
		if !positivo(d.PorcentajeVentas) {
			ve.Campos["porcentajeVentas"] = "obligatorio para modalidad variable"
		}
	case models.ModalidadHibrido:
		if !positivo(d.CanonMinimoGarantizado) {
			ve.Campos["canonMinimoGarantizado"] = "obligatorio para modalidad híbrida"
		}
		if !positivo(d.PorcentajeVentas) {
			ve.Campos["porcentajeVentas"] = "obligatorio para modalidad híbrida"
		}
	default:
		ve.Campos["modalidadPago"] = "modalidad de pago no permitida"
	}
	if d.PorcentajeVentas != nil && d.PorcentajeVentas.GreaterThan(cien) {
		ve.Campos["porcentajeVentas"] = "debe ser menor o igual a 100"
	}
	for campo, v := range map[string]*decimal.Decimal{
		"valorCanonFijo":          d.ValorCanonFijo,
		"canonMinimoGarantizado":  d.CanonMinimoGarantizado,
		"porcentajeVentas":        d.PorcentajeVentas,
		"puntosAdicionalesIpc":    d.PuntosAdicionalesIPC,
		"porcentajeSalarioMinimo": d.PorcentajeSalarioMinimo,
	} {
		if v != nil && v.IsNegative() {
			ve.Campos[campo] = "no puede ser negativo"
		}
	}
	if d.PeriodicidadIPC == models.PeriodicidadEspecifica && d.FechaAumentoIPC == nil {
		ve.Campos["fechaAumentoIpc"] = "obligatoria con periodicidad de fecha específica"
	}
	for _, g := range models.GruposPoliza {
		req := d.requisito(g)
		if req.ValorAsegurado != nil && req.ValorAsegurado.IsNegative() {
			ve.Campos["poliza"+string(g)] = "el valor asegurado no puede ser negativo"
		}
		if req.FechaInicioVigencia != nil && req.FechaFinVigencia != nil && req.FechaFinVigencia.Before(*req.FechaInicioVigencia) {
			ve.Campos["poliza"+string(g)] = "la fecha fin de vigencia no puede ser anterior a la de inicio"
		}
	}
	if len(ve.Campos) > 0 {
		return ve
	}
	return nil
}

func (d *ContratoDTO) requisito(g models.GrupoPoliza) *models.RequisitoPoliza {
	switch g {
	case models.GrupoRCE:
		return &d.PolizaRCE
	case models.GrupoCumplimiento:
		return &d.PolizaCumplimiento
	case models.GrupoArrendamiento:
		return &d.PolizaArrendamiento
	case models.GrupoTodoRiesgo:
		return &d.PolizaTodoRiesgo
	}
	return &d.PolizaOtra
}

// aplicar copia el DTO sobre el contrato.
func (d *ContratoDTO) aplicar(c *models.Contrato) {
	c.NumContrato = d.NumContrato
	c.TipoContrato = d.TipoContrato
	if c.TipoContrato == "" {
		c.TipoContrato = models.TipoContratoCliente
	}
	c.Tercero, c.NitTercero = d.Tercero, d.NitTercero
	c.TerceroID, c.LocalID = d.TerceroID, d.LocalID
	c.TipoContratoID, c.TipoServicioID = d.TipoContratoID, d.TipoServicioID
	c.ObjetoDestinacion = d.ObjetoDestinacion
	c.NitConcedente, c.RepLegalConcedente = d.NitConcedente, d.RepLegalConcedente
	c.UrlArchivo = d.UrlArchivo

	c.FechaFirma = d.FechaFirma
	c.DuracionInicialMeses = d.DuracionInicialMeses
	c.FechaInicialContrato = d.FechaInicialContrato
	c.FechaFinalInicial = d.FechaFinalInicial
	c.ProrrogaAutomatica = d.ProrrogaAutomatica
	c.DiasPreavisoNoRenovacion = 60
	if d.DiasPreavisoNoRenovacion != nil {
		c.DiasPreavisoNoRenovacion = *d.DiasPreavisoNoRenovacion
	}
	c.DiasTerminacionAnticipada = 60
	if d.DiasTerminacionAnticipada != nil {
		c.DiasTerminacionAnticipada = *d.DiasTerminacionAnticipada
	}
	if d.Vigente != nil {
		c.Vigente = *d.Vigente
	}

	c.ModalidadPago = d.ModalidadPago
	c.ValorCanonFijo = d.ValorCanonFijo
	c.CanonMinimoGarantizado = d.CanonMinimoGarantizado
	c.PorcentajeVentas = d.PorcentajeVentas
	c.ReportaVentas = d.ReportaVentas
	c.DiaLimiteReporteVentas = d.DiaLimiteReporteVentas
	c.TipoCondicionIPC = d.TipoCondicionIPC
	c.PuntosAdicionalesIPC = d.PuntosAdicionalesIPC
	c.PorcentajeSalarioMinimo = d.PorcentajeSalarioMinimo
	c.PeriodicidadIPC = d.PeriodicidadIPC
	c.FechaAumentoIPC = d.FechaAumentoIPC

	for _, g := range models.GruposPoliza {
		*c.Requisito(g) = *d.requisito(g)
	}
	c.NombrePolizaOtra = d.NombrePolizaOtra
}
