package vigencia

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

// RequisitoResuelto es la exigencia efectiva de una póliza en una fecha.
type RequisitoResuelto struct {
	Grupo          models.GrupoPoliza `json:"grupo"`
	TipoPoliza     string             `json:"tipoPoliza"`
	Nombre         string             `json:"nombre"`
	ValorAsegurado *decimal.Decimal   `json:"valorAsegurado"`
	MesesVigencia  *int               `json:"mesesVigencia"`
	FechaInicio    *time.Time         `json:"fechaInicioVigencia"`
	FechaFin       *time.Time         `json:"fechaFinVigencia"`
	Modificador    string             `json:"modificador,omitempty"`
}

// PolizasRequeridas devuelve las pólizas exigidas en ref. Con permitirFueraVigencia se
// responde aunque ref sea anterior al inicio del contrato y se consideran documentos
// aprobados que aún no inician; la exigencia en sí solo la cambian documentos ya vigentes.
func (c *Cadena) PolizasRequeridas(ref time.Time, permitirFueraVigencia bool) []RequisitoResuelto {
	ref = fechas.Dia(ref)
	if !permitirFueraVigencia && ref.Before(fechas.Dia(c.Contrato.FechaInicialContrato)) {
		return nil
	}
	var out []RequisitoResuelto
	for _, g := range models.GruposPoliza {
		exige := c.Resolver(CampoPoliza(g, AtributoExige), ref, false)
		if b, _ := exige.Valor.(bool); !b {
			continue
		}
		req := RequisitoResuelto{Grupo: g, TipoPoliza: g.TipoPoliza(), Nombre: g.TipoPoliza(), Modificador: exige.Modificador}
		if g == models.GrupoOtra && c.Contrato.NombrePolizaOtra != "" {
			req.Nombre = c.Contrato.NombrePolizaOtra
		}

		valor := c.resolverPoliza(g, AtributoValor, ref, permitirFueraVigencia, &req)
		req.ValorAsegurado = aDecimal(valor)
		req.MesesVigencia = aEntero(c.resolverPoliza(g, AtributoMeses, ref, permitirFueraVigencia, &req))
		req.FechaInicio = aFecha(c.resolverPoliza(g, AtributoFechaInicio, ref, permitirFueraVigencia, &req))
		req.FechaFin = aFecha(c.resolverPoliza(g, AtributoFechaFin, ref, permitirFueraVigencia, &req))

		if req.FechaFin == nil && req.MesesVigencia != nil && *req.MesesVigencia > 0 {
			if req.FechaInicio != nil {
				f := fechas.SumarMeses(*req.FechaInicio, *req.MesesVigencia)
				req.FechaFin = &f
			} else if fin := c.FechaFinalVigente(ref); fin != nil {
				f := fechas.SumarMeses(*fin, *req.MesesVigencia)
				req.FechaFin = &f
			}
		}
		out = append(out, req)
	}
	return out
}

// resolverPoliza aplica la cadena a un atributo; un valor cero en el documento no
// reemplaza un valor distinto de cero del contrato.
func (c *Cadena) resolverPoliza(g models.GrupoPoliza, atr string, ref time.Time, futuros bool, req *RequisitoResuelto) any {
	campo := CampoPoliza(g, atr)
	r := c.Resolver(campo, ref, futuros)
	if r.Modificador == "" {
		return r.Valor
	}
	if d, ok := r.Valor.(decimal.Decimal); ok && d.IsZero() {
		if base, ok := ValorContrato(c.Contrato, campo).(decimal.Decimal); ok && !base.IsZero() {
			return base
		}
	}
	if req.Modificador == "" {
		req.Modificador = r.Modificador
	}
	return r.Valor
}

// Requisito devuelve el requisito efectivo de un grupo, o nil si no se exige.
func (c *Cadena) Requisito(g models.GrupoPoliza, ref time.Time, permitirFueraVigencia bool) *RequisitoResuelto {
	for _, r := range c.PolizasRequeridas(ref, permitirFueraVigencia) {
		if r.Grupo == g {
			r := r
			return &r
		}
	}
	return nil
}
