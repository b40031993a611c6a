// Package empresa guarda los datos de la empresa que aparecen en correos y exportes.
package empresa

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

// Activa devuelve la empresa activa, o nil si no hay ninguna.
func Activa(db *gorm.DB) (*models.ConfiguracionEmpresa, error) {
	var e models.ConfiguracionEmpresa
	err := db.Where("activo = ?", true).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type EmpresaDTO struct {
	Nombre    string `json:"nombre" validate:"required,max=200"`
	Nit       string `json:"nit" validate:"max=30"`
	Direccion string `json:"direccion" validate:"max=300"`
	Telefono  string `json:"telefono" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
	LogoURL   string `json:"logoUrl" validate:"omitempty,url"`
	Activo    bool   `json:"activo"`
}

func (in *EmpresaDTO) aplicar(e *models.ConfiguracionEmpresa) {
	e.Nombre = in.Nombre
	e.Nit = in.Nit
	e.Direccion = in.Direccion
	e.Telefono = in.Telefono
	e.Email = in.Email
	e.LogoURL = in.LogoURL
	e.Activo = in.Activo
}

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

func responderError(w http.ResponseWriter, fn string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "Empresa no encontrada", http.StatusNotFound)
		return
	}
	config.LogError(config.GetLogger(), "empresa", fn, "error inesperado", nil, err)
	http.Error(w, "error interno", http.StatusInternalServerError)
}

// GET /empresas
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	var list []models.ConfiguracionEmpresa
	if err := h.DB.WithContext(r.Context()).Order("activo DESC, nombre").Find(&list).Error; err != nil {
		responderError(w, "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /empresas/activa
func (h *Handler) ObtenerActiva(w http.ResponseWriter, r *http.Request) {
	e, err := Activa(h.DB.WithContext(r.Context()))
	if err != nil {
		responderError(w, "ObtenerActiva", err)
		return
	}
	if e == nil {
		http.Error(w, "No hay empresa activa", http.StatusNotFound)
		return
	}
	utils.JSON(w, http.StatusOK, e)
}

// POST /empresas
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var in EmpresaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	var e models.ConfiguracionEmpresa
	in.aplicar(&e)
	if err := h.DB.WithContext(r.Context()).Create(&e).Error; err != nil {
		responderError(w, "Crear", err)
		return
	}
	utils.JSON(w, http.StatusCreated, e)
}

// PUT /empresas/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in EmpresaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	var e models.ConfiguracionEmpresa
	if err := db.First(&e, id).Error; err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	in.aplicar(&e)
	if err := db.Save(&e).Error; err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, e)
}

// DELETE /empresas/{id}
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := h.DB.WithContext(r.Context()).Delete(&models.ConfiguracionEmpresa{}, id)
	if res.Error != nil {
		responderError(w, "Eliminar", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		http.Error(w, "Empresa no encontrada", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
