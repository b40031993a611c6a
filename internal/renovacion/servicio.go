// Package renovacion procesa las prórrogas automáticas de contratos.
package renovacion

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/flujo"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/poliza"
	"github.com/KromaEnergia/api-contratos/internal/utils"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

var (
	ErrNoEncontrado      = errors.New("renovación automática no encontrada")
	ErrSinProrroga       = errors.New("el contrato no tiene prórroga automática")
	ErrSinFechaFinal     = errors.New("el contrato no tiene fecha final para renovar")
	ErrEliminarAprobada  = errors.New("una renovación aprobada debe anularse antes de eliminarla")
	ErrRenovacionNoEdita = errors.New("la renovación ya no se puede editar en su estado actual")
)

// Polizas son las condiciones de póliza que trae la renovación.
type Polizas struct {
	ModificaPolizas     bool                           `json:"modificaPolizas"`
	PolizaRCE           models.RequisitoPolizaOverride `json:"polizaRce"`
	PolizaCumplimiento  models.RequisitoPolizaOverride `json:"polizaCumplimiento"`
	PolizaArrendamiento models.RequisitoPolizaOverride `json:"polizaArrendamiento"`
	PolizaTodoRiesgo    models.RequisitoPolizaOverride `json:"polizaTodoRiesgo"`
	PolizaOtra          models.RequisitoPolizaOverride `json:"polizaOtra"`
	NombrePolizaOtra    *string                        `json:"nombrePolizaOtra"`
}

func (p *Polizas) override(g models.GrupoPoliza) *models.RequisitoPolizaOverride {
	switch g {
	case models.GrupoRCE:
		return &p.PolizaRCE
	case models.GrupoCumplimiento:
		return &p.PolizaCumplimiento
	case models.GrupoArrendamiento:
		return &p.PolizaArrendamiento
	case models.GrupoTodoRiesgo:
		return &p.PolizaTodoRiesgo
	}
	return &p.PolizaOtra
}

func (p *Polizas) aplicarA(r *models.RenovacionAutomatica) {
	r.ModificaPolizas = p.ModificaPolizas
	if !p.ModificaPolizas {
		return
	}
	for _, g := range models.GruposPoliza {
		*r.Override(g) = *p.override(g)
	}
	r.NombrePolizaOtra = p.NombrePolizaOtra
}

// ProcesarDTO pide la renovación de un contrato.
type ProcesarDTO struct {
	Meses               *int   `json:"meses" validate:"omitempty,gte=1,lte=600"`
	UsarDuracionInicial bool   `json:"usarDuracionInicial"`
	Descripcion         string `json:"descripcion"`
	Polizas
}

type Servicio struct {
	DB *gorm.DB
}

func NewServicio(db *gorm.DB) *Servicio {
	return &Servicio{DB: db}
}

// FechaFinalActual es la fecha de terminación vigente hoy, o la ya extendida en el contrato si es posterior.
func FechaFinalActual(cad *vigencia.Cadena, hoy time.Time) *time.Time {
	fin := cad.FechaFinalVigente(hoy)
	if act := cad.Contrato.FechaFinalActualizada; act != nil && (fin == nil || act.After(*fin)) {
		fin = act
	}
	return fin
}

func siguienteNumero(tx *gorm.DB, contratoID uint) (string, int, error) {
	var existentes []models.RenovacionAutomatica
	if err := tx.Select("numero_renovacion", "version").Where("contrato_id = ?", contratoID).Find(&existentes).Error; err != nil {
		return "", 0, err
	}
	maxN, maxV := 0, 0
	for _, r := range existentes {
		if s, ok := strings.CutPrefix(r.NumeroRenovacion, "RA-"); ok {
			if n, err := strconv.Atoi(s); err == nil && n > maxN {
				maxN = n
			}
		}
		if r.Version > maxV {
			maxV = r.Version
		}
	}
	return fmt.Sprintf("RA-%d", maxN+1), maxV + 1, nil
}

// Procesar crea una renovación aprobada y extiende el contrato en una sola transacción.
func (s *Servicio) Procesar(ctx context.Context, contratoID uint, in ProcesarDTO, usuario string) (*models.RenovacionAutomatica, error) {
	if err := utils.Validar(&in); err != nil {
		return nil, err
	}
	var out *models.RenovacionAutomatica
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cad, err := vigencia.Cargar(tx, contratoID)
		if err != nil {
			return err
		}
		c := cad.Contrato
		if !c.ProrrogaAutomatica {
			return ErrSinProrroga
		}
		hoy := fechas.Hoy()
		fin := FechaFinalActual(cad, hoy)
		if fin == nil {
			return ErrSinFechaFinal
		}
		meses := c.DuracionInicialMeses
		if !in.UsarDuracionInicial {
			if in.Meses == nil {
				return utils.NuevoErrValidacion("meses", "indique los meses o use la duración inicial")
			}
			meses = *in.Meses
		}
		if meses <= 0 {
			return utils.NuevoErrValidacion("meses", "la duración de la renovación debe ser mayor a cero")
		}

		numero, version, err := siguienteNumero(tx, c.ID)
		if err != nil {
			return err
		}
		nuevaFin := fechas.SumarMeses(*fin, meses)
		desde := fechas.SumarDias(*fin, 1)
		ahora := time.Now()
		desc := in.Descripcion
		if desc == "" {
			desc = fmt.Sprintf("Renovación automática por %d meses. Autorizada por %s.", meses, usuario)
		}
		r := &models.RenovacionAutomatica{
			ContratoID:                 c.ID,
			NumeroRenovacion:           numero,
			Estado:                     models.EstadoAprobado,
			Version:                    version,
			FechaRenovacion:            hoy,
			EffectiveFrom:              desde,
			FechaInicioNuevaVigencia:   fechas.Ptr(desde),
			NuevaFechaFinalActualizada: fechas.Ptr(nuevaFin),
			FechaFinalAnterior:         fechas.Ptr(*fin),
			MesesRenovacion:            meses,
			UsarDuracionInicial:        in.UsarDuracionInicial,
			Descripcion:                desc,
			Auditoria: models.Auditoria{
				CreadoPor: usuario, AprobadoPor: usuario, FechaAprobacion: &ahora,
			},
		}
		in.Polizas.aplicarA(r)
		if err := tx.Create(r).Error; err != nil {
			return err
		}

		c.FechaFinalActualizada = fechas.Ptr(nuevaFin)
		c.TotalRenovacionesAutomaticas++
		c.FechaUltimaRenovacionAutomatica = fechas.Ptr(hoy)
		c.UltimaRenovacionAutomaticaPor = usuario
		c.ModificadoPor = usuario
		if in.ModificaPolizas {
			copiarPolizas(c, &in.Polizas)
		}
		if err := tx.Save(c).Error; err != nil {
			return err
		}
		if err := avisarPolizasCortas(tx, c, nuevaFin); err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// avisarPolizasCortas deja en el log las pólizas con colchón que no alcanzan la nueva fecha final.
func avisarPolizasCortas(tx *gorm.DB, c *models.Contrato, nuevaFin time.Time) error {
	var list []models.Poliza
	if err := tx.Where("contrato_id = ? AND tiene_colchon = ?", c.ID, true).Find(&list).Error; err != nil {
		return err
	}
	for i := range list {
		if poliza.NecesitaRenovacion(&list[i], nuevaFin) {
			config.GetLogger().WithFields(logrus.Fields{
				"contrato": c.NumContrato, "poliza": list[i].NumeroPoliza, "nueva_fecha_final": nuevaFin.Format(fechas.Layout),
			}).Warn("la póliza debe renovarse para cubrir la prórroga")
		}
	}
	return nil
}

// copiarPolizas pasa al contrato los valores de póliza que la renovación sí trae.
func copiarPolizas(c *models.Contrato, p *Polizas) {
	for _, g := range models.GruposPoliza {
		ov, req := p.override(g), c.Requisito(g)
		if ov.Exige != nil {
			req.Exige = *ov.Exige
		}
		if ov.ValorAsegurado != nil {
			req.ValorAsegurado = ov.ValorAsegurado
		}
		if ov.MesesVigencia != nil {
			req.MesesVigencia = ov.MesesVigencia
		}
		if ov.FechaInicioVigencia != nil {
			req.FechaInicioVigencia = ov.FechaInicioVigencia
		}
		if ov.FechaFinVigencia != nil {
			req.FechaFinVigencia = ov.FechaFinVigencia
		}
	}
	if p.NombrePolizaOtra != nil {
		c.NombrePolizaOtra = *p.NombrePolizaOtra
	}
}

func (s *Servicio) buscar(db *gorm.DB, id uint) (*models.RenovacionAutomatica, error) {
	var r models.RenovacionAutomatica
	if err := db.First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoEncontrado
		}
		return nil, err
	}
	return &r, nil
}

func (s *Servicio) Obtener(ctx context.Context, id uint) (*models.RenovacionAutomatica, error) {
	return s.buscar(s.DB.WithContext(ctx), id)
}

// Listar devuelve las renovaciones; contratoID 0 lista todas.
func (s *Servicio) Listar(ctx context.Context, contratoID uint) ([]models.RenovacionAutomatica, error) {
	q := s.DB.WithContext(ctx).Order("fecha_aprobacion DESC, effective_from DESC, version DESC")
	if contratoID != 0 {
		q = q.Where("contrato_id = ?", contratoID)
	}
	var list []models.RenovacionAutomatica
	return list, q.Find(&list).Error
}

// ActualizarDTO son los campos editables de una renovación.
type ActualizarDTO struct {
	Descripcion string     `json:"descripcion"`
	EffectiveTo *time.Time `json:"effectiveTo"`
	Polizas
}

func (s *Servicio) Actualizar(ctx context.Context, id uint, in ActualizarDTO, admin bool) (*models.RenovacionAutomatica, error) {
	db := s.DB.WithContext(ctx)
	r, err := s.buscar(db, id)
	if err != nil {
		return nil, err
	}
	if !flujo.Editable(r.Estado) && !(admin && r.Estado == models.EstadoAprobado) {
		return nil, ErrRenovacionNoEdita
	}
	if in.EffectiveTo != nil && in.EffectiveTo.Before(r.EffectiveFrom) {
		return nil, utils.NuevoErrValidacion("effectiveTo", "no puede ser anterior al inicio de vigencia")
	}
	r.Descripcion = in.Descripcion
	r.EffectiveTo = in.EffectiveTo
	in.Polizas.aplicarA(r)
	if !in.ModificaPolizas {
		for _, g := range models.GruposPoliza {
			*r.Override(g) = models.RequisitoPolizaOverride{}
		}
		r.NombrePolizaOtra = nil
	}
	return r, db.Save(r).Error
}

// CambiarEstado aplica el flujo de aprobación. Al anular la última renovación el contrato
// vuelve a su fecha final anterior.
func (s *Servicio) CambiarEstado(ctx context.Context, id uint, hacia, motivo, usuario string) (*models.RenovacionAutomatica, error) {
	var out *models.RenovacionAutomatica
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.buscar(tx, id)
		if err != nil {
			return err
		}
		if err := flujo.ValidarTransicion(r.Estado, hacia); err != nil {
			return err
		}
		ahora := time.Now()
		switch hacia {
		case models.EstadoEnRevision:
			r.RevisadoPor, r.FechaRevision = usuario, &ahora
		case models.EstadoAprobado:
			r.AprobadoPor, r.FechaAprobacion = usuario, &ahora
		case models.EstadoRechazado:
			r.RechazadoPor, r.MotivoRechazo = usuario, motivo
		case models.EstadoAnulado:
			r.AnuladoPor, r.FechaAnulacion = usuario, &ahora
			if err := revertirContrato(tx, r, usuario); err != nil {
				return err
			}
		}
		r.Estado = hacia
		if err := tx.Save(r).Error; err != nil {
			return err
		}
		if hacia == models.EstadoAprobado || hacia == models.EstadoAnulado {
			if _, err := poliza.RecalcularVencimientos(tx, r.ContratoID); err != nil {
				return err
			}
		}
		out = r
		return nil
	})
	return out, err
}

func revertirContrato(tx *gorm.DB, r *models.RenovacionAutomatica, usuario string) error {
	var c models.Contrato
	if err := tx.First(&c, r.ContratoID).Error; err != nil {
		return err
	}
	if c.FechaFinalActualizada == nil || r.NuevaFechaFinalActualizada == nil ||
		!fechas.Dia(*c.FechaFinalActualizada).Equal(fechas.Dia(*r.NuevaFechaFinalActualizada)) {
		return nil
	}
	c.FechaFinalActualizada = r.FechaFinalAnterior
	if c.TotalRenovacionesAutomaticas > 0 {
		c.TotalRenovacionesAutomaticas--
	}
	c.ModificadoPor = usuario
	return tx.Save(&c).Error
}

// Eliminar borra renovaciones que no estén aprobadas.
func (s *Servicio) Eliminar(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := s.buscar(tx, id)
		if err != nil {
			return err
		}
		if r.Estado == models.EstadoAprobado {
			return ErrEliminarAprobada
		}
		if err := tx.Model(&models.Poliza{}).Where("renovacion_id = ?", r.ID).
			UpdateColumns(map[string]any{"renovacion_id": nil, "documento_origen_tipo": models.OrigenContrato}).Error; err != nil {
			return err
		}
		return tx.Delete(r).Error
	})
}
