package contrato

import (
	"errors"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

const DuracionPorDefecto = 12

// AplicarReglas completa los valores derivados antes de guardar.
func AplicarReglas(c *models.Contrato) {
	c.FechaInicialContrato = fechas.Dia(c.FechaInicialContrato)
	if c.DuracionInicialMeses <= 0 {
		c.DuracionInicialMeses = DuracionPorDefecto
	}
	if c.FechaFinalInicial == nil {
		fin := fechas.SumarMeses(c.FechaInicialContrato, c.DuracionInicialMeses)
		c.FechaFinalInicial = &fin
	}

	// fechas de póliza a partir del inicio del contrato cuando solo se dan los meses
	for _, g := range models.GruposPoliza {
		req := c.Requisito(g)
		if !req.Exige || req.MesesVigencia == nil || *req.MesesVigencia <= 0 {
			continue
		}
		if req.FechaInicioVigencia == nil {
			req.FechaInicioVigencia = fechas.Ptr(c.FechaInicialContrato)
		}
		if req.FechaFinVigencia == nil {
			req.FechaFinVigencia = fechas.Ptr(fechas.SumarMeses(*req.FechaInicioVigencia, *req.MesesVigencia))
		}
	}

	if c.PeriodicidadIPC == models.PeriodicidadAnual && c.FechaAumentoIPC == nil {
		c.FechaAumentoIPC = fechas.Ptr(c.FechaInicialContrato)
	}
}

// resolverCatalogos comprueba las referencias a catálogos y copia nombre y NIT del tercero.
func resolverCatalogos(db *gorm.DB, c *models.Contrato) error {
	ve := &utils.ErrValidacion{Campos: map[string]string{}}
	existe := func(campo string, id *uint, destino any) error {
		if id == nil {
			return nil
		}
		err := db.First(destino, *id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ve.Campos[campo] = "no existe"
			return nil
		}
		return err
	}
	var t models.Tercero
	if err := existe("terceroId", c.TerceroID, &t); err != nil {
		return err
	}
	if err := existe("localId", c.LocalID, &models.Local{}); err != nil {
		return err
	}
	if err := existe("tipoContratoId", c.TipoContratoID, &models.TipoContrato{}); err != nil {
		return err
	}
	if err := existe("tipoServicioId", c.TipoServicioID, &models.TipoServicio{}); err != nil {
		return err
	}
	if len(ve.Campos) > 0 {
		return ve
	}
	if c.TerceroID != nil {
		c.Tercero, c.NitTercero = t.RazonSocial, t.Nit
	}
	return nil
}
