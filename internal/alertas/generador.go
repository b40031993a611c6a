package alertas

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/indexacion"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/poliza"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

var ErrTipoDesconocido = errors.New("tipo de alerta desconocido")

// Filtro restringe los contratos evaluados. TipoContrato vacío incluye todos.
type Filtro struct {
	TipoContrato string
}

type Generador struct {
	DB         *gorm.DB
	Indexacion *indexacion.Servicio
}

func NewGenerador(db *gorm.DB) *Generador {
	return &Generador{DB: db, Indexacion: indexacion.NewServicio(db)}
}

// Generar despacha al generador del tipo indicado.
func (g *Generador) Generar(ctx context.Context, tipo string, ref time.Time, f Filtro) ([]Alerta, error) {
	ref = fechas.Dia(ref)
	switch tipo {
	case models.AlertaVencimientoContratos:
		return g.Vencimientos(ctx, ref, f)
	case models.AlertaIPC:
		return g.Indexaciones(ctx, models.CondicionIPC, ref, f)
	case models.AlertaSalarioMinimo:
		return g.Indexaciones(ctx, models.CondicionSalarioMinimo, ref, f)
	case models.AlertaPolizasCriticas:
		return g.PolizasCriticas(ctx, ref, f)
	case models.AlertaPreavisoRenovacion:
		return g.Preavisos(ctx, ref, f)
	case models.AlertaPolizasRequeridas:
		return g.PolizasRequeridas(ctx, ref, f)
	case models.AlertaTerminacionAnticipada:
		return g.TerminacionAnticipada(ctx, ref, f)
	case models.AlertaRenovacionAutomatica:
		return g.RenovacionesAutomaticas(ctx, ref, f)
	}
	return nil, fmt.Errorf("%w: %s", ErrTipoDesconocido, tipo)
}

// Todas genera cada tipo; la clave es el tipo de alerta.
func (g *Generador) Todas(ctx context.Context, ref time.Time, f Filtro) (map[string][]Alerta, error) {
	out := make(map[string][]Alerta, len(models.TiposAlerta))
	for _, t := range models.TiposAlerta {
		list, err := g.Generar(ctx, t, ref, f)
		if err != nil {
			return nil, err
		}
		out[t] = list
	}
	return out, nil
}

// cadenas carga los contratos vigentes con sus documentos aprobados. Un contrato que
// falla se registra y se omite para no cortar el resto.
func (g *Generador) cadenas(ctx context.Context, f Filtro, extra func(*gorm.DB) *gorm.DB) ([]*vigencia.Cadena, error) {
	q := g.DB.WithContext(ctx).Where("vigente = ?", true)
	if f.TipoContrato != "" {
		q = q.Where("tipo_contrato = ?", f.TipoContrato)
	}
	if extra != nil {
		q = extra(q)
	}
	var contratos []models.Contrato
	if err := q.Order("num_contrato").Find(&contratos).Error; err != nil {
		return nil, err
	}
	out := make([]*vigencia.Cadena, 0, len(contratos))
	for i := range contratos {
		cad, err := vigencia.CargarDe(g.DB.WithContext(ctx), &contratos[i])
		if err != nil {
			config.LogError(config.GetLogger(), "alertas", "cadenas", "contrato omitido", map[string]any{"contrato": contratos[i].NumContrato}, err)
			continue
		}
		out = append(out, cad)
	}
	return out, nil
}

// enCurso: ya inició y no ha terminado en ref. Sin fecha final se considera indefinido.
func enCurso(cad *vigencia.Cadena, ref time.Time) (*time.Time, bool) {
	if fechas.Dia(cad.Contrato.FechaInicialContrato).After(ref) {
		return nil, false
	}
	fin := cad.FechaFinalVigente(ref)
	if fin != nil && fechas.Dia(*fin).Before(ref) {
		return fin, false
	}
	return fin, true
}

func modificadorFechaFinal(cad *vigencia.Cadena, ref time.Time) string {
	return cad.Resolver(vigencia.CampoFechaFinal, ref, false).Modificador
}

func ordenarPorDias(list []Alerta) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Dias != list[j].Dias {
			return list[i].Dias < list[j].Dias
		}
		return list[i].NumContrato < list[j].NumContrato
	})
}

// Vencimientos: contratos cuya fecha final vigente cae en [ref, ref+90].
func (g *Generador) Vencimientos(ctx context.Context, ref time.Time, f Filtro) ([]Alerta, error) {
	cads, err := g.cadenas(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	limite := fechas.SumarDias(ref, VentanaVencimiento)
	var out []Alerta
	for _, cad := range cads {
		fin := cad.FechaFinalVigente(ref)
		if fin == nil || fin.Before(ref) || fin.After(limite) {
			continue
		}
		dias := fechas.DiasEntre(ref, *fin)
		a := nueva(models.AlertaVencimientoContratos, cad.Contrato, fin, dias)
		a.Descripcion = fmt.Sprintf("El contrato vence el %s (%d días)", fechas.Formato(fin), dias)
		a.Modificador = modificadorFechaFinal(cad, ref)
		out = append(out, a)
	}
	ordenarPorDias(out)
	return out, nil
}

// Indexaciones: contratos con condición IPC o salario mínimo cuyo próximo aumento cae
// dentro de 90 días (o ya pasó) y aún no tiene cálculo.
func (g *Generador) Indexaciones(ctx context.Context, condicion string, ref time.Time, f Filtro) ([]Alerta, error) {
	tipo := models.AlertaIPC
	if condicion == models.CondicionSalarioMinimo {
		tipo = models.AlertaSalarioMinimo
	}
	cads, err := g.cadenas(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	db := g.DB.WithContext(ctx)
	var out []Alerta
	for _, cad := range cads {
		cond := cad.Resolver(vigencia.CampoTipoCondicionIPC, ref, false)
		if c, _ := cond.Valor.(string); c != condicion {
			continue
		}
		per := cad.Texto(vigencia.CampoPeriodicidadIPC, ref)
		if per != models.PeriodicidadAnual && per != models.PeriodicidadEspecifica {
			continue
		}
		prox, err := g.Indexacion.ProximaFechaAumento(cad, ref)
		if err != nil {
			return nil, err
		}
		if prox == nil {
			continue
		}
		dias := fechas.DiasEntre(ref, *prox)
		if dias > VentanaIndexacion {
			continue
		}
		if _, existe, err := indexacion.ExisteCalculo(db, cad.Contrato.ID, *prox); err != nil {
			return nil, err
		} else if existe {
			continue
		}
		a := nueva(tipo, cad.Contrato, prox, dias)
		a.Meses = fechas.MesesAproximados(dias)
		a.Modificador = cond.Modificador
		etiqueta := "IPC"
		if tipo == models.AlertaSalarioMinimo {
			etiqueta = "salario mínimo"
		}
		a.Descripcion = fmt.Sprintf("Ajuste por %s en %s", etiqueta, nombreMes(*prox))
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rangoColor[out[i].Color], rangoColor[out[j].Color]
		if ri != rj {
			return ri < rj
		}
		if out[i].Meses != out[j].Meses {
			return out[i].Meses < out[j].Meses
		}
		return out[i].NumContrato < out[j].NumContrato
	})
	return out, nil
}

// PolizasCriticas: pólizas vencidas o que vencen en 60 días, de contratos en curso.
// Se omite la póliza cuando el documento vigente ya tiene la suya de ese tipo al día.
func (g *Generador) PolizasCriticas(ctx context.Context, ref time.Time, f Filtro) ([]Alerta, error) {
	db := g.DB.WithContext(ctx)
	limite := fechas.SumarDias(ref, VentanaPolizas)
	var polizas []models.Poliza
	if err := db.Where("fecha_vencimiento <= ?", limite).Order("fecha_vencimiento, id").Find(&polizas).Error; err != nil {
		return nil, err
	}
	cache := map[uint]*vigencia.Cadena{}
	var out []Alerta
	for i := range polizas {
		p := &polizas[i]
		cad, ok := cache[p.ContratoID]
		if !ok {
			var err error
			cad, err = vigencia.Cargar(db, p.ContratoID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			cache[p.ContratoID] = cad
		}
		if cad == nil || (f.TipoContrato != "" && cad.Contrato.TipoContrato != f.TipoContrato) {
			continue
		}
		if _, vigente := enCurso(cad, ref); !vigente {
			continue
		}
		reemplazada, err := reemplazadaPorDocumento(db, cad, p, ref)
		if err != nil {
			return nil, err
		}
		if reemplazada {
			continue
		}
		dias := poliza.DiasParaVencer(p, ref)
		if dias > VentanaPolizas {
			continue
		}
		venc := poliza.VencimientoEfectivo(p)
		a := nueva(models.AlertaPolizasCriticas, cad.Contrato, &venc, dias)
		id := p.ID
		a.PolizaID = &id
		a.TipoPoliza = p.Tipo
		a.NumeroPoliza = p.NumeroPoliza
		a.Descripcion = p.Tipo + ": " + poliza.EstadoLegible(p, ref)
		out = append(out, a)
	}
	return out, nil
}

// reemplazadaPorDocumento: el requisito del tipo lo fija el documento vigente y ese
// documento tiene su propia póliza del tipo con vencimiento efectivo >= ref.
func reemplazadaPorDocumento(db *gorm.DB, cad *vigencia.Cadena, p *models.Poliza, ref time.Time) (bool, error) {
	doc := cad.DocumentoVigente(ref)
	if doc == nil || perteneceA(p, doc) {
		return false, nil
	}
	grupo, ok := models.GrupoDeTipo(p.Tipo)
	if !ok {
		return false, nil
	}
	req := cad.Requisito(grupo, ref, false)
	if req == nil || req.Modificador != doc.Numero {
		return false, nil
	}
	propias, err := polizasDeDocumento(db, doc, p.Tipo)
	if err != nil {
		return false, err
	}
	for i := range propias {
		if !poliza.VencimientoEfectivo(&propias[i]).Before(ref) {
			return true, nil
		}
	}
	return false, nil
}

func perteneceA(p *models.Poliza, doc *vigencia.Evento) bool {
	switch doc.Tipo {
	case vigencia.EventoOtroSi:
		return p.OtroSiID != nil && *p.OtroSiID == doc.ID
	case vigencia.EventoRenovacion:
		return p.RenovacionID != nil && *p.RenovacionID == doc.ID
	}
	return false
}

func polizasDeDocumento(db *gorm.DB, doc *vigencia.Evento, tipo string) ([]models.Poliza, error) {
	q := db.Where("tipo = ?", tipo)
	if doc.Tipo == vigencia.EventoOtroSi {
		q = q.Where("otro_si_id = ?", doc.ID)
	} else {
		q = q.Where("renovacion_id = ?", doc.ID)
	}
	var list []models.Poliza
	err := q.Find(&list).Error
	return list, err
}

// Preavisos: contratos sin prórroga automática cuya fecha final vigente llega en 60 días.
func (g *Generador) Preavisos(ctx context.Context, ref time.Time, f Filtro) ([]Alerta, error) {
	cads, err := g.cadenas(ctx, f, func(q *gorm.DB) *gorm.DB { return q.Where("prorroga_automatica = ?", false) })
	if err != nil {
		return nil, err
	}
	limite := fechas.SumarDias(ref, VentanaPreaviso)
	var out []Alerta
	for _, cad := range cads {
		fin := cad.FechaFinalVigente(ref)
		if fin == nil || fin.After(limite) {
			continue
		}
		dias := fechas.DiasEntre(ref, *fin)
		a := nueva(models.AlertaPreavisoRenovacion, cad.Contrato, fin, dias)
		limitePreaviso := fechas.SumarDias(*fin, -cad.Contrato.DiasPreavisoNoRenovacion)
		a.FechaLimite = &limitePreaviso
		a.Modificador = modificadorFechaFinal(cad, ref)
		a.Descripcion = fmt.Sprintf("Preaviso de no renovación hasta el %s", fechas.Formato(&limitePreaviso))
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Fecha.Before(*out[j].Fecha) })
	return out, nil
}

// PolizasRequeridas: exigencias vigentes sin una póliza aportada que las cubra.
func (g *Generador) PolizasRequeridas(ctx context.Context, ref time.Time, f Filtro) ([]Alerta, error) {
	cads, err := g.cadenas(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	db := g.DB.WithContext(ctx)
	var out []Alerta
	for _, cad := range cads {
		fin, vigente := enCurso(cad, ref)
		if !vigente {
			continue
		}
		reqs := cad.PolizasRequeridas(ref, false)
		if len(reqs) == 0 {
			continue
		}
		var polizas []models.Poliza
		if err := db.Where("contrato_id = ?", cad.Contrato.ID).Find(&polizas).Error; err != nil {
			return nil, err
		}
		for _, req := range reqs {
			candidatas := candidatasPara(cad, polizas, req)
			if algunaCumple(candidatas, req, ref) {
				continue
			}
			dias := 0
			if fin != nil {
				dias = fechas.DiasEntre(ref, *fin)
			}
			tiene := len(candidatas) > 0
			a := nueva(models.AlertaPolizasRequeridas, cad.Contrato, req.FechaFin, dias)
			a.Color = ColorPeligro
			if tiene {
				a.Color = ColorAdvertencia
			}
			a.TipoPoliza = req.TipoPoliza
			a.ValorRequerido = req.ValorAsegurado
			a.TienePoliza = &tiene
			a.Modificador = req.Modificador
			if tiene {
				a.Descripcion = req.Nombre + ": la póliza aportada no cubre la vigencia requerida"
			} else {
				a.Descripcion = req.Nombre + ": póliza no aportada"
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// candidatasPara elige las pólizas del tipo aportadas por el documento que fija el
// requisito; si el requisito es del contrato base, las de origen contrato.
func candidatasPara(cad *vigencia.Cadena, polizas []models.Poliza, req vigencia.RequisitoResuelto) []models.Poliza {
	var doc *vigencia.Evento
	if req.Modificador != "" {
		for i := range cad.Eventos {
			if cad.Eventos[i].Numero == req.Modificador {
				doc = &cad.Eventos[i]
				break
			}
		}
	}
	var out, base []models.Poliza
	for _, p := range polizas {
		if p.Tipo != req.TipoPoliza {
			continue
		}
		if doc != nil && perteneceA(&p, doc) {
			out = append(out, p)
		}
		if p.Origen() == models.OrigenContrato {
			base = append(base, p)
		}
	}
	if len(out) > 0 {
		return out
	}
	return base
}

// algunaCumple: vencimiento efectivo >= ref y cubre la fecha fin requerida. Con colchón
// basta con que el vencimiento nominal la cubra.
func algunaCumple(polizas []models.Poliza, req vigencia.RequisitoResuelto, ref time.Time) bool {
	for i := range polizas {
		p := &polizas[i]
		efectivo := poliza.VencimientoEfectivo(p)
		if efectivo.Before(ref) {
			continue
		}
		if req.FechaFin == nil {
			return true
		}
		fin := fechas.Dia(*req.FechaFin)
		if !efectivo.Before(fin) {
			return true
		}
		if p.TieneColchon && !fechas.Dia(p.FechaVencimiento).Before(fin) {
			return true
		}
	}
	return false
}

// TerminacionAnticipada: contratos en curso que entraron en su ventana de aviso de terminación.
func (g *Generador) TerminacionAnticipada(ctx context.Context, ref time.Time, f Filtro) ([]Alerta, error) {
	cads, err := g.cadenas(ctx, f, func(q *gorm.DB) *gorm.DB { return q.Where("dias_terminacion_anticipada > 0") })
	if err != nil {
		return nil, err
	}
	var out []Alerta
	for _, cad := range cads {
		fin, vigente := enCurso(cad, ref)
		if !vigente || fin == nil {
			continue
		}
		dias := fechas.DiasEntre(ref, *fin)
		ventana := cad.Contrato.DiasTerminacionAnticipada
		if dias < 0 || dias > ventana {
			continue
		}
		a := nueva(models.AlertaTerminacionAnticipada, cad.Contrato, fin, dias)
		lim := fechas.SumarDias(*fin, -ventana)
		a.FechaLimite = &lim
		a.Modificador = modificadorFechaFinal(cad, ref)
		a.Descripcion = fmt.Sprintf("Ventana de terminación anticipada (%d días) desde el %s", ventana, fechas.Formato(&lim))
		out = append(out, a)
	}
	ordenarPorDias(out)
	return out, nil
}

// RenovacionesAutomaticas: contratos con prórroga automática que vencen en 30 días (o ya
// vencieron) y cuya renovación no está gestionada.
func (g *Generador) RenovacionesAutomaticas(ctx context.Context, ref time.Time, f Filtro) ([]Alerta, error) {
	cads, err := g.cadenas(ctx, f, func(q *gorm.DB) *gorm.DB { return q.Where("prorroga_automatica = ?", true) })
	if err != nil {
		return nil, err
	}
	limite := fechas.SumarDias(ref, VentanaRenovacion)
	var out []Alerta
	for _, cad := range cads {
		if fechas.Dia(cad.Contrato.FechaInicialContrato).After(ref) {
			continue
		}
		fin := cad.FechaFinalVigente(ref)
		if fin == nil || fin.After(limite) {
			continue
		}
		if renovacionGestionada(cad, *fin, ref) {
			continue
		}
		dias := fechas.DiasEntre(ref, *fin)
		if dias < 0 {
			dias = 0
		}
		a := nueva(models.AlertaRenovacionAutomatica, cad.Contrato, fin, dias)
		a.Duracion = cad.Contrato.DuracionInicialMeses
		a.Modificador = modificadorFechaFinal(cad, ref)
		a.Descripcion = fmt.Sprintf("Pendiente autorizar renovación por %d meses", cad.Contrato.DuracionInicialMeses)
		out = append(out, a)
	}
	ordenarPorDias(out)
	return out, nil
}

// renovacionGestionada: la última renovación aprobada ya inició o arranca después del fin actual.
func renovacionGestionada(cad *vigencia.Cadena, fin, ref time.Time) bool {
	var ultima *vigencia.Evento
	for i := range cad.Eventos {
		e := &cad.Eventos[i]
		if e.Tipo != vigencia.EventoRenovacion {
			continue
		}
		if ultima == nil || e.EffectiveFrom.After(ultima.EffectiveFrom) {
			ultima = e
		}
	}
	if ultima == nil {
		return false
	}
	desde := fechas.Dia(ultima.EffectiveFrom)
	return desde.After(fechas.Dia(fin)) || !desde.After(ref)
}
