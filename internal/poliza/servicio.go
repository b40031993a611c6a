package poliza

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

var (
	ErrNoEncontrada      = errors.New("póliza no encontrada")
	ErrOrigenDeOtroDoc   = errors.New("el documento de origen no pertenece al contrato")
	ErrContratoNoExiste  = errors.New("contrato no encontrado")
	ErrOrigenNoExiste    = errors.New("documento de origen no encontrado")
	ErrTipoSinRequisito  = errors.New("tipo de póliza no reconocido")
	ErrVencimientoPrevio = errors.New("la fecha de vencimiento no puede ser anterior al inicio de vigencia")
)

// PolizaDTO es el cuerpo de creación y edición.
type PolizaDTO struct {
	Tipo                string          `json:"tipo" validate:"required"`
	NumeroPoliza        string          `json:"numeroPoliza" validate:"required,max=100"`
	ValorAsegurado      decimal.Decimal `json:"valorAsegurado"`
	FechaInicioVigencia *time.Time      `json:"fechaInicioVigencia"`
	FechaVencimiento    time.Time       `json:"fechaVencimiento" validate:"required"`
	EstadoAportado      string          `json:"estadoAportado"`
	Aseguradora         string          `json:"aseguradora" validate:"max=200"`
	Condiciones         string          `json:"condiciones"`
	OtroSiID            *uint           `json:"otrosiId"`
	RenovacionID        *uint           `json:"renovacionId"`
	TieneColchon        bool            `json:"tieneColchon"`
	MesesColchon        int             `json:"mesesColchon" validate:"gte=0,lte=120"`
}

// Validar revisa las reglas que no expresan las etiquetas.
func (in *PolizaDTO) Validar() error {
	if err := utils.Validar(in); err != nil {
		return err
	}
	if _, ok := models.GrupoDeTipo(in.Tipo); !ok {
		return utils.NuevoErrValidacion("tipo", ErrTipoSinRequisito.Error())
	}
	if in.EstadoAportado != "" && !models.EstadosAportado[in.EstadoAportado] {
		return utils.NuevoErrValidacion("estadoAportado", "valor no permitido")
	}
	if in.ValorAsegurado.IsNegative() {
		return utils.NuevoErrValidacion("valorAsegurado", models.ErrValorNegativo.Error())
	}
	if in.OtroSiID != nil && in.RenovacionID != nil {
		return utils.NuevoErrValidacion("documentoOrigen", models.ErrOrigenMultiple.Error())
	}
	if in.TieneColchon && in.MesesColchon == 0 {
		return utils.NuevoErrValidacion("mesesColchon", models.ErrColchonSinMeses.Error())
	}
	if in.FechaInicioVigencia != nil && fechas.Dia(in.FechaVencimiento).Before(fechas.Dia(*in.FechaInicioVigencia)) {
		return utils.NuevoErrValidacion("fechaVencimiento", ErrVencimientoPrevio.Error())
	}
	return nil
}

func (in *PolizaDTO) aplicar(p *models.Poliza) {
	p.Tipo = in.Tipo
	p.NumeroPoliza = in.NumeroPoliza
	p.ValorAsegurado = in.ValorAsegurado
	p.FechaInicioVigencia = in.FechaInicioVigencia
	p.FechaVencimiento = fechas.Dia(in.FechaVencimiento)
	p.EstadoAportado = in.EstadoAportado
	if p.EstadoAportado == "" {
		p.EstadoAportado = models.AporteInicial
	}
	p.Aseguradora = in.Aseguradora
	p.Condiciones = in.Condiciones
	p.OtroSiID = in.OtroSiID
	p.RenovacionID = in.RenovacionID
	p.TieneColchon = in.TieneColchon || in.MesesColchon > 0
	p.MesesColchon = in.MesesColchon
}

// Detalle acompaña la póliza con su estado calculado.
type Detalle struct {
	models.Poliza
	NumeroDocumentoOrigen string        `json:"numeroDocumentoOrigen"`
	VencimientoEfectivo   time.Time     `json:"vencimientoEfectivo"`
	DiasParaVencer        int           `json:"diasParaVencer"`
	Estado                string        `json:"estado"`
	EstadoLegible         string        `json:"estadoLegible"`
	Cumplimiento          *Cumplimiento `json:"cumplimiento,omitempty"`
}

// Cumplimiento es el resultado de comparar la póliza con su exigencia.
type Cumplimiento struct {
	Cumple        bool                        `json:"cumple"`
	Observaciones []string                    `json:"observaciones"`
	Requisito     *vigencia.RequisitoResuelto `json:"requisito,omitempty"`
}

type Servicio struct {
	DB *gorm.DB
}

func NewServicio(db *gorm.DB) *Servicio {
	return &Servicio{DB: db}
}

// FechaVencimientoReal es la fecha final del documento al que pertenece la póliza.
// Solo aplica cuando la póliza tiene colchón.
func FechaVencimientoReal(db *gorm.DB, p *models.Poliza) (*time.Time, error) {
	if !p.TieneColchon {
		return nil, nil
	}
	switch {
	case p.OtroSiID != nil:
		var o models.OtroSi
		if err := db.First(&o, *p.OtroSiID).Error; err != nil {
			return nil, fmt.Errorf("otrosi %d: %w", *p.OtroSiID, err)
		}
		if o.EffectiveTo != nil {
			return o.EffectiveTo, nil
		}
		if o.NuevaFechaFinalActualizada != nil {
			return o.NuevaFechaFinalActualizada, nil
		}
		return finAntesDe(db, p.ContratoID, o.EffectiveFrom)
	case p.RenovacionID != nil:
		var r models.RenovacionAutomatica
		if err := db.First(&r, *p.RenovacionID).Error; err != nil {
			return nil, fmt.Errorf("renovacion %d: %w", *p.RenovacionID, err)
		}
		if r.NuevaFechaFinalActualizada != nil {
			return r.NuevaFechaFinalActualizada, nil
		}
		if r.EffectiveTo != nil {
			return r.EffectiveTo, nil
		}
		if r.FechaFinalAnterior != nil {
			return r.FechaFinalAnterior, nil
		}
		return finAntesDe(db, p.ContratoID, r.EffectiveFrom)
	}
	var c models.Contrato
	if err := db.First(&c, p.ContratoID).Error; err != nil {
		return nil, fmt.Errorf("contrato %d: %w", p.ContratoID, err)
	}
	return c.FechaFinalInicial, nil
}

// finAntesDe es la fecha final vigente el día anterior a desde.
func finAntesDe(db *gorm.DB, contratoID uint, desde time.Time) (*time.Time, error) {
	cad, err := vigencia.Cargar(db, contratoID)
	if err != nil {
		return nil, err
	}
	return cad.FechaFinalVigente(fechas.SumarDias(desde, -1)), nil
}

// referenciaOrigen es la fecha en la que se leen las exigencias del documento de origen.
func referenciaOrigen(db *gorm.DB, cad *vigencia.Cadena, p *models.Poliza) (time.Time, string, error) {
	switch {
	case p.OtroSiID != nil:
		var o models.OtroSi
		if err := db.Select("id", "numero_otro_si", "effective_from").First(&o, *p.OtroSiID).Error; err != nil {
			return time.Time{}, "", err
		}
		return o.EffectiveFrom, o.NumeroOtroSi, nil
	case p.RenovacionID != nil:
		var r models.RenovacionAutomatica
		if err := db.Select("id", "numero_renovacion", "effective_from").First(&r, *p.RenovacionID).Error; err != nil {
			return time.Time{}, "", err
		}
		return r.EffectiveFrom, r.NumeroRenovacion, nil
	}
	return cad.Contrato.FechaInicialContrato, cad.Contrato.NumContrato, nil
}

// CumpleRequisitos compara la póliza con la exigencia de su documento de origen.
func CumpleRequisitos(p *models.Poliza, req *vigencia.RequisitoResuelto) Cumplimiento {
	out := Cumplimiento{Cumple: true, Observaciones: []string{}, Requisito: req}
	if req == nil {
		out.Observaciones = append(out.Observaciones, "El documento de origen no exige este tipo de póliza")
		return out
	}
	if req.ValorAsegurado != nil && p.ValorAsegurado.LessThan(*req.ValorAsegurado) {
		out.Cumple = false
		out.Observaciones = append(out.Observaciones, fmt.Sprintf(
			"Valor asegurado insuficiente. Requerido: %s, Actual: %s",
			req.ValorAsegurado.StringFixed(2), p.ValorAsegurado.StringFixed(2)))
	}

	vence := VencimientoEfectivo(p)
	var esperada *time.Time
	switch {
	case req.FechaFin != nil:
		esperada = req.FechaFin
	case req.MesesVigencia != nil && *req.MesesVigencia > 0 && p.FechaInicioVigencia != nil:
		f := fechas.SumarMeses(*p.FechaInicioVigencia, *req.MesesVigencia)
		esperada = &f
	}
	if esperada != nil && vence.Before(fechas.Dia(*esperada)) {
		out.Cumple = false
		out.Observaciones = append(out.Observaciones, fmt.Sprintf(
			"Vigencia insuficiente. Requerida hasta: %s, Actual: %s",
			esperada.Format(fechas.Layout), vence.Format(fechas.Layout)))
	}
	if req.FechaInicio != nil && p.FechaInicioVigencia != nil && fechas.Dia(*p.FechaInicioVigencia).After(fechas.Dia(*req.FechaInicio)) {
		out.Cumple = false
		out.Observaciones = append(out.Observaciones, fmt.Sprintf(
			"La vigencia inicia después de lo exigido. Requerida desde: %s, Actual: %s",
			req.FechaInicio.Format(fechas.Layout), p.FechaInicioVigencia.Format(fechas.Layout)))
	}
	return out
}

func (s *Servicio) detalle(cad *vigencia.Cadena, p *models.Poliza, hoy time.Time) (*Detalle, error) {
	d := &Detalle{
		Poliza:              *p,
		VencimientoEfectivo: VencimientoEfectivo(p),
		DiasParaVencer:      DiasParaVencer(p, hoy),
		Estado:              Estado(p, hoy),
		EstadoLegible:       EstadoLegible(p, hoy),
	}
	ref, numero, err := referenciaOrigen(s.DB, cad, p)
	if err != nil {
		return nil, err
	}
	d.NumeroDocumentoOrigen = numero
	var req *vigencia.RequisitoResuelto
	if g, ok := models.GrupoDeTipo(p.Tipo); ok {
		req = cad.Requisito(g, ref, true)
	}
	c := CumpleRequisitos(p, req)
	d.Cumplimiento = &c
	return d, nil
}

// validarOrigen comprueba que el Otro Sí o la renovación sean del mismo contrato.
func (s *Servicio) validarOrigen(db *gorm.DB, p *models.Poliza) error {
	var contratoID uint
	switch {
	case p.OtroSiID != nil:
		var o models.OtroSi
		if err := db.Select("id", "contrato_id").First(&o, *p.OtroSiID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrigenNoExiste
			}
			return err
		}
		contratoID = o.ContratoID
	case p.RenovacionID != nil:
		var r models.RenovacionAutomatica
		if err := db.Select("id", "contrato_id").First(&r, *p.RenovacionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrigenNoExiste
			}
			return err
		}
		contratoID = r.ContratoID
	default:
		return nil
	}
	if contratoID != p.ContratoID {
		return ErrOrigenDeOtroDoc
	}
	return nil
}

func (s *Servicio) guardar(ctx context.Context, p *models.Poliza, crear bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validarOrigen(tx, p); err != nil {
			return err
		}
		finReal, err := FechaVencimientoReal(tx, p)
		if err != nil {
			return err
		}
		p.FechaVencimientoReal = finReal
		if crear {
			return tx.Create(p).Error
		}
		return tx.Save(p).Error
	})
}

// Crear registra una póliza aportada para el contrato.
func (s *Servicio) Crear(ctx context.Context, contratoID uint, in PolizaDTO) (*Detalle, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.Contrato{}).Where("id = ?", contratoID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrContratoNoExiste
	}
	p := &models.Poliza{ContratoID: contratoID}
	in.aplicar(p)
	if err := s.guardar(ctx, p, true); err != nil {
		return nil, err
	}
	return s.Obtener(ctx, p.ID, fechas.Hoy())
}

func (s *Servicio) Actualizar(ctx context.Context, id uint, in PolizaDTO) (*Detalle, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	p, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	in.aplicar(p)
	if err := s.guardar(ctx, p, false); err != nil {
		return nil, err
	}
	return s.Obtener(ctx, p.ID, fechas.Hoy())
}

func (s *Servicio) buscar(ctx context.Context, id uint) (*models.Poliza, error) {
	var p models.Poliza
	if err := s.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoEncontrada
		}
		return nil, err
	}
	return &p, nil
}

func (s *Servicio) Obtener(ctx context.Context, id uint, hoy time.Time) (*Detalle, error) {
	p, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	cad, err := vigencia.Cargar(s.DB.WithContext(ctx), p.ContratoID)
	if err != nil {
		return nil, err
	}
	return s.detalle(cad, p, hoy)
}

// Filtro restringe el listado; los campos vacíos no filtran.
type Filtro struct {
	Origen string
	Tipo   string
	Estado string
}

// Listar devuelve las pólizas del contrato ordenadas por vencimiento.
func (s *Servicio) Listar(ctx context.Context, contratoID uint, f Filtro, hoy time.Time) ([]Detalle, error) {
	cad, err := vigencia.Cargar(s.DB.WithContext(ctx), contratoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContratoNoExiste
		}
		return nil, err
	}
	q := s.DB.WithContext(ctx).Where("contrato_id = ?", contratoID)
	if f.Origen != "" {
		q = q.Where("documento_origen_tipo = ?", f.Origen)
	}
	if f.Tipo != "" {
		q = q.Where("tipo = ?", f.Tipo)
	}
	var list []models.Poliza
	if err := q.Order("fecha_vencimiento ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	out := make([]Detalle, 0, len(list))
	for i := range list {
		d, err := s.detalle(cad, &list[i], hoy)
		if err != nil {
			return nil, err
		}
		if f.Estado != "" && d.Estado != f.Estado {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *Servicio) Eliminar(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Poliza{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoEncontrada
	}
	return nil
}

// RecalcularVencimientos vuelve a fijar la fecha real de las pólizas con colchón del
// contrato; se usa cuando cambia un documento de origen.
func RecalcularVencimientos(db *gorm.DB, contratoID uint) (int, error) {
	var list []models.Poliza
	if err := db.Where("contrato_id = ? AND tiene_colchon = ?", contratoID, true).Find(&list).Error; err != nil {
		return 0, err
	}
	n := 0
	for i := range list {
		p := &list[i]
		finReal, err := FechaVencimientoReal(db, p)
		if err != nil {
			return n, err
		}
		if mismaFecha(finReal, p.FechaVencimientoReal) {
			continue
		}
		if err := db.Model(p).UpdateColumn("fecha_vencimiento_real", finReal).Error; err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func mismaFecha(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return fechas.Dia(*a).Equal(fechas.Dia(*b))
}
