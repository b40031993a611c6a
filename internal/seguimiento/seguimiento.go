// Package seguimiento guarda las notas de gestión sobre contratos y pólizas.
package seguimiento

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

var ErrPolizaAjena = errors.New("la póliza no pertenece al contrato indicado")

type Servicio struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewServicio(db *gorm.DB) *Servicio {
	return &Servicio{DB: db, Log: config.GetLogger()}
}

type DetalleDTO struct {
	Detalle string `json:"detalle" validate:"required"`
}

func (d *DetalleDTO) Validar() error {
	d.Detalle = strings.TrimSpace(d.Detalle)
	if d.Detalle == "" {
		return utils.NuevoErrValidacion("detalle", "es obligatorio")
	}
	return nil
}

// PolizaDTO admite una póliza concreta o solo el contrato con el tipo de póliza.
type PolizaDTO struct {
	ContratoID *uint  `json:"contratoId"`
	PolizaID   *uint  `json:"polizaId"`
	PolizaTipo string `json:"polizaTipo" validate:"max=50"`
	DetalleDTO
}

func (s *Servicio) ListarDeContrato(ctx context.Context, contratoID uint) ([]models.SeguimientoContrato, error) {
	list := []models.SeguimientoContrato{}
	err := s.DB.WithContext(ctx).Where("contrato_id = ?", contratoID).
		Order("fecha_registro DESC, id DESC").Find(&list).Error
	return list, err
}

func (s *Servicio) RegistrarDeContrato(ctx context.Context, contratoID uint, in DetalleDTO, usuario string) (*models.SeguimientoContrato, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	if err := db.First(&models.Contrato{}, contratoID).Error; err != nil {
		return nil, err
	}
	sc := models.SeguimientoContrato{ContratoID: contratoID, Detalle: in.Detalle, RegistradoPor: usuario, FechaRegistro: time.Now()}
	if err := db.Create(&sc).Error; err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Servicio) EditarDeContrato(ctx context.Context, id uint, in DetalleDTO) (*models.SeguimientoContrato, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	var sc models.SeguimientoContrato
	if err := db.First(&sc, id).Error; err != nil {
		return nil, err
	}
	sc.Detalle = in.Detalle
	if err := db.Model(&sc).Update("detalle", sc.Detalle).Error; err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Servicio) EliminarDeContrato(ctx context.Context, id uint, usuario string) error {
	return s.eliminar(ctx, &models.SeguimientoContrato{}, id, usuario)
}

func (s *Servicio) eliminar(ctx context.Context, modelo any, id uint, usuario string) error {
	res := s.DB.WithContext(ctx).Delete(modelo, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.Log.WithFields(logrus.Fields{"id": id, "usuario": usuario}).Info("seguimiento eliminado")
	return nil
}

// FiltroPoliza: sin póliza lista todos los seguimientos del contrato.
type FiltroPoliza struct {
	ContratoID uint
	PolizaID   uint
	PolizaTipo string
}

func (s *Servicio) ListarDePoliza(ctx context.Context, f FiltroPoliza) ([]models.SeguimientoPoliza, error) {
	q := s.DB.WithContext(ctx).Model(&models.SeguimientoPoliza{})
	if f.ContratoID != 0 {
		q = q.Where("contrato_id = ?", f.ContratoID)
	}
	if f.PolizaID != 0 {
		q = q.Where("poliza_id = ?", f.PolizaID)
	}
	if f.PolizaTipo != "" {
		q = q.Where("poliza_tipo = ?", f.PolizaTipo)
	}
	list := []models.SeguimientoPoliza{}
	err := q.Order("fecha_registro DESC, id DESC").Find(&list).Error
	return list, err
}

// RegistrarDePoliza toma el contrato y el tipo de la póliza cuando se indica una.
func (s *Servicio) RegistrarDePoliza(ctx context.Context, in PolizaDTO, usuario string) (*models.SeguimientoPoliza, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	sp := models.SeguimientoPoliza{Detalle: in.Detalle, PolizaTipo: strings.TrimSpace(in.PolizaTipo), RegistradoPor: usuario, FechaRegistro: time.Now()}
	switch {
	case in.PolizaID != nil:
		var p models.Poliza
		if err := db.First(&p, *in.PolizaID).Error; err != nil {
			return nil, err
		}
		if in.ContratoID != nil && *in.ContratoID != p.ContratoID {
			return nil, ErrPolizaAjena
		}
		sp.ContratoID, sp.PolizaID = p.ContratoID, &p.ID
		if sp.PolizaTipo == "" {
			sp.PolizaTipo = p.Tipo
		}
	case in.ContratoID != nil:
		if sp.PolizaTipo == "" {
			return nil, utils.NuevoErrValidacion("polizaTipo", "es obligatorio si no se indica la póliza")
		}
		if err := db.First(&models.Contrato{}, *in.ContratoID).Error; err != nil {
			return nil, err
		}
		sp.ContratoID = *in.ContratoID
	default:
		return nil, utils.NuevoErrValidacion("polizaId", "indique la póliza o el contrato")
	}
	if err := db.Create(&sp).Error; err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *Servicio) EditarDePoliza(ctx context.Context, id uint, in DetalleDTO) (*models.SeguimientoPoliza, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	var sp models.SeguimientoPoliza
	if err := db.First(&sp, id).Error; err != nil {
		return nil, err
	}
	sp.Detalle = in.Detalle
	if err := db.Model(&sp).Update("detalle", sp.Detalle).Error; err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *Servicio) EliminarDePoliza(ctx context.Context, id uint, usuario string) error {
	return s.eliminar(ctx, &models.SeguimientoPoliza{}, id, usuario)
}
