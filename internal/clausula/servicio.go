// Package clausula mantiene el catálogo de cláusulas, las que son obligatorias por tipo de
// contrato y las que tiene asignadas cada contrato.
package clausula

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

var ErrClausulaInactiva = errors.New("solo se pueden seleccionar cláusulas activas")

type Servicio struct {
	DB  *gorm.DB
	Log *logrus.Logger
}

func NewServicio(db *gorm.DB) *Servicio {
	return &Servicio{DB: db, Log: config.GetLogger()}
}

type ClausulaDTO struct {
	Titulo string `json:"titulo" validate:"required,max=255"`
	Orden  int    `json:"orden" validate:"gte=0"`
	Activa *bool  `json:"activa"`
}

// Parametrizacion es el conjunto de cláusulas obligatorias de un alcance exacto.
type Parametrizacion struct {
	TipoContrato   string `json:"tipoContrato" validate:"required,oneof=CLIENTE PROVEEDOR"`
	TipoContratoID *uint  `json:"tipoContratoId"`
	TipoServicioID *uint  `json:"tipoServicioId"`
	ClausulaIDs    []uint `json:"clausulaIds"`
}

func (p *Parametrizacion) Validar() error {
	if err := utils.Validar(p); err != nil {
		return err
	}
	if p.TipoContrato == models.TipoContratoCliente && p.TipoServicioID != nil {
		return utils.NuevoErrValidacion("tipoServicioId", "no aplica a contratos de cliente")
	}
	if p.TipoContrato == models.TipoContratoProveedor && p.TipoContratoID != nil {
		return utils.NuevoErrValidacion("tipoContratoId", "no aplica a contratos de proveedor")
	}
	return nil
}

// alcance filtra por el tipo y, con nil, por la fila genérica.
func (p *Parametrizacion) alcance(db *gorm.DB) *gorm.DB {
	q := db.Where("tipo_contrato = ?", p.TipoContrato)
	if p.TipoContratoID != nil {
		q = q.Where("tipo_contrato_id = ?", *p.TipoContratoID)
	} else {
		q = q.Where("tipo_contrato_id IS NULL")
	}
	if p.TipoServicioID != nil {
		q = q.Where("tipo_servicio_id = ?", *p.TipoServicioID)
	} else {
		q = q.Where("tipo_servicio_id IS NULL")
	}
	return q
}

type Auditoria struct {
	Disponibles  []models.Clausula `json:"disponibles"`
	Asignadas    []models.Clausula `json:"asignadas"`
	Obligatorias []models.Clausula `json:"obligatorias"`
	Faltantes    []models.Clausula `json:"faltantes"`
	Completo     bool              `json:"completo"`
}

func (s *Servicio) Listar(ctx context.Context, activa *bool, buscar string) ([]models.Clausula, error) {
	q := s.DB.WithContext(ctx).Model(&models.Clausula{})
	if activa != nil {
		q = q.Where("activa = ?", *activa)
	}
	if buscar != "" {
		q = q.Where("titulo LIKE ?", "%"+buscar+"%")
	}
	list := []models.Clausula{}
	err := q.Order("orden, titulo").Find(&list).Error
	return list, err
}

func (s *Servicio) Crear(ctx context.Context, in ClausulaDTO, usuario string) (*models.Clausula, error) {
	db := s.DB.WithContext(ctx)
	c := models.Clausula{Titulo: strings.TrimSpace(in.Titulo), Orden: in.Orden, Activa: true, CreadoPor: usuario, ModificadoPor: usuario}
	if err := db.Create(&c).Error; err != nil {
		return nil, err
	}
	// activa tiene default en la tabla; el false se escribe aparte
	if in.Activa != nil && !*in.Activa {
		c.Activa = false
		if err := db.Model(&c).Update("activa", false).Error; err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (s *Servicio) Actualizar(ctx context.Context, id uint, in ClausulaDTO, usuario string) (*models.Clausula, error) {
	db := s.DB.WithContext(ctx)
	var c models.Clausula
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	c.Titulo, c.Orden, c.ModificadoPor = strings.TrimSpace(in.Titulo), in.Orden, usuario
	if in.Activa != nil {
		c.Activa = *in.Activa
		if c.Activa {
			c.EliminadoPor = ""
		}
	}
	if err := db.Save(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Desactivar conserva la cláusula para los contratos que ya la tienen.
func (s *Servicio) Desactivar(ctx context.Context, id uint, usuario string) error {
	db := s.DB.WithContext(ctx)
	var c models.Clausula
	if err := db.First(&c, id).Error; err != nil {
		return err
	}
	err := db.Model(&c).Updates(map[string]any{"activa": false, "eliminado_por": usuario, "modificado_por": usuario}).Error
	if err != nil {
		return err
	}
	s.Log.WithFields(logrus.Fields{"clausula": c.Titulo, "usuario": usuario}).Info("cláusula desactivada")
	return nil
}

func activas(db *gorm.DB, ids []uint) ([]models.Clausula, error) {
	var list []models.Clausula
	if len(ids) == 0 {
		return list, nil
	}
	if err := db.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	vistos := make(map[uint]bool, len(list))
	for _, c := range list {
		if !c.Activa {
			return nil, ErrClausulaInactiva
		}
		vistos[c.ID] = true
	}
	for _, id := range ids {
		if !vistos[id] {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return list, nil
}

// ListarObligatorias devuelve las filas activas de un alcance exacto.
func (s *Servicio) ListarObligatorias(ctx context.Context, p Parametrizacion) ([]models.ClausulaObligatoria, error) {
	if err := p.Validar(); err != nil {
		return nil, err
	}
	list := []models.ClausulaObligatoria{}
	err := p.alcance(s.DB.WithContext(ctx)).Where("activa = ?", true).Preload("Clausula").Find(&list).Error
	return list, err
}

// Parametrizar reemplaza las obligatorias del alcance: desactiva todo y reactiva lo elegido.
func (s *Servicio) Parametrizar(ctx context.Context, p Parametrizacion, usuario string) ([]models.ClausulaObligatoria, error) {
	if err := p.Validar(); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := activas(tx, p.ClausulaIDs); err != nil {
			return err
		}
		if err := p.alcance(tx.Model(&models.ClausulaObligatoria{})).Update("activa", false).Error; err != nil {
			return err
		}
		for _, id := range p.ClausulaIDs {
			var o models.ClausulaObligatoria
			err := p.alcance(tx).Where("clausula_id = ?", id).First(&o).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				o = models.ClausulaObligatoria{
					ClausulaID: id, TipoContrato: p.TipoContrato,
					TipoContratoID: p.TipoContratoID, TipoServicioID: p.TipoServicioID,
					Activa: true, CreadoPor: usuario,
				}
				if err := tx.Create(&o).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				if err := tx.Model(&o).Update("activa", true).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"tipo": p.TipoContrato, "clausulas": len(p.ClausulaIDs), "usuario": usuario}).
		Info("cláusulas obligatorias parametrizadas")
	return s.ListarObligatorias(ctx, p)
}

// Obligatorias: un contrato con tipo específico recibe las de su tipo y las genéricas;
// sin tipo específico, solo las genéricas.
func Obligatorias(db *gorm.DB, c *models.Contrato) ([]models.Clausula, error) {
	q := db.Model(&models.ClausulaObligatoria{}).
		Where("clausulas_obligatorias.activa = ? AND clausulas_obligatorias.tipo_contrato = ?", true, c.TipoContrato)
	col, esp := "tipo_contrato_id", c.TipoContratoID
	if c.TipoContrato == models.TipoContratoProveedor {
		col, esp = "tipo_servicio_id", c.TipoServicioID
	}
	if esp != nil {
		q = q.Where("(clausulas_obligatorias."+col+" = ? OR clausulas_obligatorias."+col+" IS NULL)", *esp)
	} else {
		q = q.Where("clausulas_obligatorias." + col + " IS NULL")
	}
	var list []models.Clausula
	err := db.Where("activa = ? AND id IN (?)", true, q.Select("clausula_id")).Order("orden, titulo").Find(&list).Error
	return list, err
}

func (s *Servicio) Auditoria(ctx context.Context, contratoID uint) (*Auditoria, error) {
	db := s.DB.WithContext(ctx)
	var c models.Contrato
	if err := db.First(&c, contratoID).Error; err != nil {
		return nil, err
	}
	a := &Auditoria{}
	if err := db.Where("activa = ?", true).Order("orden, titulo").Find(&a.Disponibles).Error; err != nil {
		return nil, err
	}
	err := db.Where("id IN (?)", db.Model(&models.ClausulaContrato{}).Select("clausula_id").Where("contrato_id = ?", c.ID)).
		Order("orden, titulo").Find(&a.Asignadas).Error
	if err != nil {
		return nil, err
	}
	if a.Obligatorias, err = Obligatorias(db, &c); err != nil {
		return nil, err
	}
	asignada := make(map[uint]bool, len(a.Asignadas))
	for _, cl := range a.Asignadas {
		asignada[cl.ID] = true
	}
	a.Faltantes = []models.Clausula{}
	for _, cl := range a.Obligatorias {
		if !asignada[cl.ID] {
			a.Faltantes = append(a.Faltantes, cl)
		}
	}
	a.Completo = len(a.Faltantes) == 0
	return a, nil
}

// GuardarDeContrato reemplaza las cláusulas del contrato y devuelve la auditoría resultante.
func (s *Servicio) GuardarDeContrato(ctx context.Context, contratoID uint, ids []uint, usuario string) (*Auditoria, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Contrato{}, contratoID).Error; err != nil {
			return err
		}
		if _, err := activas(tx, ids); err != nil {
			return err
		}
		if err := tx.Where("contrato_id = ?", contratoID).Delete(&models.ClausulaContrato{}).Error; err != nil {
			return err
		}
		vistos := map[uint]bool{}
		for _, id := range ids {
			if vistos[id] {
				continue
			}
			vistos[id] = true
			if err := tx.Create(&models.ClausulaContrato{ContratoID: contratoID, ClausulaID: id, CreadoPor: usuario}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a, err := s.Auditoria(ctx, contratoID)
	if err != nil {
		return nil, err
	}
	if !a.Completo {
		s.Log.WithFields(logrus.Fields{"contrato": contratoID, "faltantes": len(a.Faltantes)}).
			Warn("contrato sin todas sus cláusulas obligatorias")
	}
	return a, nil
}

var iniciales = []string{
	"Cláusula de Cumplimiento",
	"Cláusula de Confidencialidad",
	"Cláusula de Protección de Datos Personales",
	"Cláusula SARLAFT",
	"Cláusula de Terminación Anticipada",
	"Cláusula de Penalización por Incumplimiento",
	"Cláusula de Pólizas de Seguro",
	"Cláusula de Renovación",
	"Cláusula de Modificaciones",
	"Cláusula de Solución de Controversias",
	"Cláusula de Fuerza Mayor",
	"Cláusula de Propiedad Intelectual",
	"Cláusula de Subcontratación",
	"Cláusula de Garantías",
	"Cláusula de Facturación y Pagos",
}

// Sembrar crea el catálogo inicial; las existentes por título se reactivan y se reordenan.
func Sembrar(ctx context.Context, db *gorm.DB, usuario string) (creadas, actualizadas int, err error) {
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, titulo := range iniciales {
			var c models.Clausula
			err := tx.Where("titulo = ?", titulo).First(&c).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				c = models.Clausula{Titulo: titulo, Orden: i + 1, Activa: true, CreadoPor: usuario, ModificadoPor: usuario}
				if err := tx.Create(&c).Error; err != nil {
					return err
				}
				creadas++
			case err != nil:
				return err
			default:
				err := tx.Model(&c).Updates(map[string]any{"orden": i + 1, "activa": true, "modificado_por": usuario}).Error
				if err != nil {
					return err
				}
				actualizadas++
			}
		}
		return nil
	})
	return creadas, actualizadas, err
}
