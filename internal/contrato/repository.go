package contrato

import (
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

// Filtro restringe el listado de contratos; los campos vacíos no filtran.
type Filtro struct {
	Vigente *bool
	Tipo    string
	Buscar  string
}

type Repository interface {
	Crear(db *gorm.DB, c *models.Contrato) error
	BuscarPorID(db *gorm.DB, id uint) (*models.Contrato, error)
	Listar(db *gorm.DB, f Filtro) ([]models.Contrato, error)
	Actualizar(db *gorm.DB, c *models.Contrato) error
	Eliminar(db *gorm.DB, c *models.Contrato, usuario string) error
	ExisteNumero(db *gorm.DB, numero string, excluirID uint) (bool, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Crear(db *gorm.DB, c *models.Contrato) error {
	return db.Create(c).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.Contrato, error) {
	var c models.Contrato
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repositoryImpl) Listar(db *gorm.DB, f Filtro) ([]models.Contrato, error) {
	q := db.Model(&models.Contrato{})
	if f.Vigente != nil {
		q = q.Where("vigente = ?", *f.Vigente)
	}
	if f.Tipo != "" {
		q = q.Where("tipo_contrato = ?", f.Tipo)
	}
	if f.Buscar != "" {
		like := "%" + f.Buscar + "%"
		q = q.Where("num_contrato LIKE ? OR tercero LIKE ? OR nit_tercero LIKE ?", like, like, like)
	}
	var list []models.Contrato
	err := q.Order("fecha_inicial_contrato DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Actualizar(db *gorm.DB, c *models.Contrato) error {
	return db.Save(c).Error
}

// Eliminar deja la traza de quién borró y aplica el borrado lógico.
func (r *repositoryImpl) Eliminar(db *gorm.DB, c *models.Contrato, usuario string) error {
	ahora := time.Now()
	err := db.Model(c).Updates(map[string]any{
		"eliminado_por":     usuario,
		"fecha_eliminacion": ahora,
		"vigente":           false,
	}).Error
	if err != nil {
		return err
	}
	return db.Delete(c).Error
}

// ExisteNumero incluye los contratos borrados, que siguen ocupando el número.
func (r *repositoryImpl) ExisteNumero(db *gorm.DB, numero string, excluirID uint) (bool, error) {
	var n int64
	err := db.Unscoped().Model(&models.Contrato{}).Where("num_contrato = ? AND id <> ?", numero, excluirID).Count(&n).Error
	return n > 0, err
}
