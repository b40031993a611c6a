package otrosi

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

type Repository interface {
	Crear(db *gorm.DB, o *models.OtroSi) error
	BuscarPorID(db *gorm.DB, id uint) (*models.OtroSi, error)
	ListarPorContrato(db *gorm.DB, contratoID uint) ([]models.OtroSi, error)
	Actualizar(db *gorm.DB, o *models.OtroSi) error
	Eliminar(db *gorm.DB, id uint) error
	SiguienteNumero(db *gorm.DB, contratoID uint) (numero string, version int, err error)
	TienePosteriores(db *gorm.DB, o *models.OtroSi) (bool, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) Crear(db *gorm.DB, o *models.OtroSi) error {
	return db.Create(o).Error
}

func (r *repositoryImpl) BuscarPorID(db *gorm.DB, id uint) (*models.OtroSi, error) {
	var o models.OtroSi
	if err := db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repositoryImpl) ListarPorContrato(db *gorm.DB, contratoID uint) ([]models.OtroSi, error) {
	var list []models.OtroSi
	err := db.Where("contrato_id = ?", contratoID).Order("effective_from DESC, version DESC").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) Actualizar(db *gorm.DB, o *models.OtroSi) error {
	return db.Save(o).Error
}

func (r *repositoryImpl) Eliminar(db *gorm.DB, id uint) error {
	return db.Delete(&models.OtroSi{}, id).Error
}

// numeroOS extrae n de "OS-n"; ok=false si el número no sigue ese formato.
func numeroOS(numero string) (int, bool) {
	s, found := strings.CutPrefix(numero, "OS-")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (r *repositoryImpl) SiguienteNumero(db *gorm.DB, contratoID uint) (string, int, error) {
	var existentes []models.OtroSi
	if err := db.Select("id", "numero_otro_si", "version").Where("contrato_id = ?", contratoID).Find(&existentes).Error; err != nil {
		return "", 0, err
	}
	maxN, maxV := 0, 0
	for _, o := range existentes {
		if n, ok := numeroOS(o.NumeroOtroSi); ok && n > maxN {
			maxN = n
		}
		if o.Version > maxV {
			maxV = o.Version
		}
	}
	if len(existentes) > maxN {
		maxN = len(existentes)
	}
	return fmt.Sprintf("OS-%d", maxN+1), maxV + 1, nil
}

// TienePosteriores indica si existe un OS-m con m mayor al del documento.
func (r *repositoryImpl) TienePosteriores(db *gorm.DB, o *models.OtroSi) (bool, error) {
	actual, ok := numeroOS(o.NumeroOtroSi)
	if !ok {
		return false, nil
	}
	var numeros []string
	if err := db.Model(&models.OtroSi{}).Where("contrato_id = ? AND id <> ?", o.ContratoID, o.ID).Pluck("numero_otro_si", &numeros).Error; err != nil {
		return false, err
	}
	for _, n := range numeros {
		if m, ok := numeroOS(n); ok && m > actual {
			return true, nil
		}
	}
	return false, nil
}
