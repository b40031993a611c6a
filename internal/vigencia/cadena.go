package vigencia

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

var ErrVistaNoDisponible = errors.New("vista no disponible: la fecha es anterior al inicio del contrato")

// Cadena es un contrato con sus documentos aprobados, cargados una sola vez.
type Cadena struct {
	Contrato *models.Contrato
	Eventos  []Evento
}

// NuevaCadena arma la cadena a partir de registros ya cargados; ignora los no aprobados.
func NuevaCadena(c *models.Contrato, otrosis []models.OtroSi, renovaciones []models.RenovacionAutomatica) *Cadena {
	cad := &Cadena{Contrato: c}
	for i := range otrosis {
		if otrosis[i].Estado == models.EstadoAprobado {
			cad.Eventos = append(cad.Eventos, DesdeOtroSi(&otrosis[i]))
		}
	}
	for i := range renovaciones {
		if renovaciones[i].Estado == models.EstadoAprobado {
			cad.Eventos = append(cad.Eventos, DesdeRenovacion(&renovaciones[i]))
		}
	}
	Ordenar(cad.Eventos, time.Now())
	return cad
}

// Cargar lee el contrato y sus documentos aprobados.
func Cargar(db *gorm.DB, contratoID uint) (*Cadena, error) {
	var c models.Contrato
	if err := db.First(&c, contratoID).Error; err != nil {
		return nil, err
	}
	return CargarDe(db, &c)
}

// CargarDe lee los documentos aprobados de un contrato ya cargado.
func CargarDe(db *gorm.DB, c *models.Contrato) (*Cadena, error) {
	var otrosis []models.OtroSi
	if err := db.Where("contrato_id = ? AND estado = ?", c.ID, models.EstadoAprobado).Find(&otrosis).Error; err != nil {
		return nil, fmt.Errorf("cargar otrosi: %w", err)
	}
	var renovaciones []models.RenovacionAutomatica
	if err := db.Where("contrato_id = ? AND estado = ?", c.ID, models.EstadoAprobado).Find(&renovaciones).Error; err != nil {
		return nil, fmt.Errorf("cargar renovaciones: %w", err)
	}
	return NuevaCadena(c, otrosis, renovaciones), nil
}

// Resolver devuelve el valor efectivo del campo en ref.
func (c *Cadena) Resolver(campo Campo, ref time.Time, permitirFuturos bool) Resuelto {
	if e := UltimoModificador(c.Eventos, campo, ref, permitirFuturos); e != nil {
		return Resuelto{Valor: e.Valor(campo), Modificador: e.Numero, Evento: e}
	}
	return Resuelto{Valor: ValorContrato(c.Contrato, campo)}
}

func (c *Cadena) Decimal(campo Campo, ref time.Time) *decimal.Decimal {
	if d, ok := c.Resolver(campo, ref, false).Valor.(decimal.Decimal); ok {
		return &d
	}
	return nil
}

func (c *Cadena) Texto(campo Campo, ref time.Time) string {
	s, _ := c.Resolver(campo, ref, false).Valor.(string)
	return s
}

func (c *Cadena) Fecha(campo Campo, ref time.Time) *time.Time {
	if t, ok := c.Resolver(campo, ref, false).Valor.(time.Time); ok {
		return &t
	}
	return nil
}

// DocumentoVigente devuelve el documento aprobado cuya ventana cubre ref.
// Un Otro Sí tiene prioridad sobre una renovación.
func (c *Cadena) DocumentoVigente(ref time.Time) *Evento {
	var renovacion *Evento
	for i := range c.Eventos {
		e := &c.Eventos[i]
		if !e.Cubre(ref) {
			continue
		}
		if e.Tipo == EventoOtroSi {
			return e
		}
		if renovacion == nil {
			renovacion = e
		}
	}
	return renovacion
}

// FechaFinalVigente es la fecha de terminación del contrato tal como estaba en ref.
func (c *Cadena) FechaFinalVigente(ref time.Time) *time.Time {
	ref = fechas.Dia(ref)
	for i := range c.Eventos {
		e := &c.Eventos[i]
		if e.Tipo == EventoRenovacion && e.Cubre(ref) {
			if f := e.NuevaFechaFinal(); f != nil {
				return f
			}
		}
	}
	for i := range c.Eventos {
		e := &c.Eventos[i]
		if e.Tipo == EventoOtroSi && e.Cubre(ref) {
			if e.EffectiveTo != nil {
				return e.EffectiveTo
			}
			if f := e.NuevaFechaFinal(); f != nil {
				return f
			}
			break
		}
	}
	if e := UltimoModificador(c.Eventos, CampoFechaFinal, ref, false); e != nil {
		f := e.Valor(CampoFechaFinal).(time.Time)
		return &f
	}
	// antes de la primera renovación el contrato terminaba en la fecha anterior a esa renovación
	var primera *Evento
	for i := range c.Eventos {
		e := &c.Eventos[i]
		if e.Tipo == EventoRenovacion && fechas.Dia(e.EffectiveFrom).After(ref) {
			if primera == nil || e.EffectiveFrom.Before(primera.EffectiveFrom) {
				primera = e
			}
		}
	}
	if primera != nil && primera.renovacion.FechaFinalAnterior != nil {
		return primera.renovacion.FechaFinalAnterior
	}
	return c.Contrato.FechaFinalBase()
}

// Vista es el estado efectivo del contrato en una fecha.
type Vista struct {
	ContratoID        uint             `json:"contratoId"`
	NumContrato       string           `json:"numContrato"`
	FechaReferencia   time.Time        `json:"fechaReferencia"`
	ValorCanon        *decimal.Decimal `json:"valorCanon"`
	ModalidadPago     string           `json:"modalidadPago"`
	CanonMinimo       *decimal.Decimal `json:"canonMinimoGarantizado"`
	PorcentajeVentas  *decimal.Decimal `json:"porcentajeVentas"`
	FechaFinal        *time.Time       `json:"fechaFinal"`
	PlazoMeses        int              `json:"plazoMeses"`
	TipoCondicionIPC  string           `json:"tipoCondicionIpc"`
	PuntosIPC         *decimal.Decimal `json:"puntosAdicionalesIpc"`
	PorcentajeSMLV    *decimal.Decimal `json:"porcentajeSalarioMinimo"`
	PeriodicidadIPC   string           `json:"periodicidadIpc"`
	FechaAumentoIPC   *time.Time       `json:"fechaAumentoIpc"`
	DocumentoVigente  *Evento          `json:"documentoVigente"`
	CamposModificados map[Campo]string `json:"camposModificados"`
}

// Vista calcula el estado efectivo del contrato en ref.
func (c *Cadena) Vista(ref time.Time) (*Vista, error) {
	ref = fechas.Dia(ref)
	if ref.Before(fechas.Dia(c.Contrato.FechaInicialContrato)) {
		return nil, ErrVistaNoDisponible
	}
	v := &Vista{
		ContratoID:        c.Contrato.ID,
		NumContrato:       c.Contrato.NumContrato,
		FechaReferencia:   ref,
		DocumentoVigente:  c.DocumentoVigente(ref),
		CamposModificados: map[Campo]string{},
	}
	res := func(campo Campo) any {
		r := c.Resolver(campo, ref, false)
		if r.Modificador != "" {
			v.CamposModificados[campo] = r.Modificador
		}
		return r.Valor
	}
	v.ValorCanon = aDecimal(res(CampoValorCanon))
	v.ModalidadPago, _ = res(CampoModalidadPago).(string)
	v.CanonMinimo = aDecimal(res(CampoCanonMinimo))
	v.PorcentajeVentas = aDecimal(res(CampoPorcentajeVentas))
	v.PlazoMeses, _ = res(CampoPlazoMeses).(int)
	v.TipoCondicionIPC, _ = res(CampoTipoCondicionIPC).(string)
	v.PuntosIPC = aDecimal(res(CampoPuntosIPC))
	v.PorcentajeSMLV = aDecimal(res(CampoPorcentajeSMLV))
	v.PeriodicidadIPC, _ = res(CampoPeriodicidadIPC).(string)
	v.FechaAumentoIPC = aFecha(res(CampoFechaAumentoIPC))
	if v.FechaAumentoIPC == nil && v.PeriodicidadIPC == models.PeriodicidadAnual {
		inicio := fechas.Dia(c.Contrato.FechaInicialContrato)
		v.FechaAumentoIPC = &inicio
	}

	v.FechaFinal = c.FechaFinalVigente(ref)
	if r := c.Resolver(CampoFechaFinal, ref, false); r.Modificador != "" {
		v.CamposModificados[CampoFechaFinal] = r.Modificador
	} else if v.DocumentoVigente != nil && v.DocumentoVigente.Tipo == EventoRenovacion {
		v.CamposModificados[CampoFechaFinal] = v.DocumentoVigente.Numero
	}
	return v, nil
}

func aDecimal(v any) *decimal.Decimal {
	if d, ok := v.(decimal.Decimal); ok {
		return &d
	}
	return nil
}

func aFecha(v any) *time.Time {
	if t, ok := v.(time.Time); ok {
		return &t
	}
	return nil
}

func aEntero(v any) *int {
	if i, ok := v.(int); ok {
		return &i
	}
	return nil
}
