// Package catalogo expone los catálogos que referencian los contratos: terceros, locales,
// tipos de contrato y tipos de servicio.
package catalogo

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

var ErrEnUso = errors.New("el registro tiene contratos asociados")

// entrada es el cuerpo de creación y edición de un registro T.
type entrada[T, D any] interface {
	*D
	Validar() error
	aplicar(v *T, usuario string, nuevo bool)
	duplicado(db *gorm.DB, excluirID uint) (string, error)
}

// Definicion describe un catálogo: su tabla, cómo se lista y qué columna lo usa en contratos.
type Definicion struct {
	Recurso         string
	ColumnaContrato string
	Orden           string
	Buscar          []string
	Filtros         []string
	// AlEliminar borra lo que depende del registro dentro de la misma transacción.
	AlEliminar func(tx *gorm.DB, id uint) error
}

type Handler[T, D any, PD entrada[T, D]] struct {
	DB  *gorm.DB
	Def Definicion
}

func nuevo[T, D any, PD entrada[T, D]](db *gorm.DB, def Definicion) *Handler[T, D, PD] {
	return &Handler[T, D, PD]{DB: db, Def: def}
}

func (h *Handler[T, D, PD]) responderError(w http.ResponseWriter, fn string, err error) {
	var ve *utils.ErrValidacion
	switch {
	case errors.As(err, &ve):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, h.Def.Recurso+" no encontrado", http.StatusNotFound)
	case errors.Is(err, ErrEnUso):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		config.LogError(config.GetLogger(), "catalogo", fn, "error inesperado", map[string]any{"recurso": h.Def.Recurso}, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// Listar admite ?q= sobre las columnas de búsqueda y un filtro exacto por cada columna de Filtros.
func (h *Handler[T, D, PD]) Listar(w http.ResponseWriter, r *http.Request) {
	q := h.DB.WithContext(r.Context()).Model(new(T))
	if b := r.URL.Query().Get("q"); b != "" && len(h.Def.Buscar) > 0 {
		like := "%" + b + "%"
		cond := h.DB.Where(h.Def.Buscar[0]+" LIKE ?", like)
		for _, c := range h.Def.Buscar[1:] {
			cond = cond.Or(c+" LIKE ?", like)
		}
		q = q.Where(cond)
	}
	for _, f := range h.Def.Filtros {
		if v := r.URL.Query().Get(f); v != "" {
			q = q.Where(f+" = ?", v)
		}
	}
	list := []T{}
	if err := q.Order(h.Def.Orden).Find(&list).Error; err != nil {
		h.responderError(w, "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

func (h *Handler[T, D, PD]) guardar(r *http.Request, v *T, id uint) error {
	var in D
	if err := utils.Decodificar(r, &in); err != nil {
		return err
	}
	pd := PD(&in)
	if err := pd.Validar(); err != nil {
		return err
	}
	db := h.DB.WithContext(r.Context())
	campo, err := pd.duplicado(db, id)
	if err != nil {
		return err
	}
	if campo != "" {
		return utils.NuevoErrValidacion(campo, fmt.Sprintf("ya existe un %s con ese valor", h.Def.Recurso))
	}
	pd.aplicar(v, auth.NombreUsuario(r.Context()), id == 0)
	if id == 0 {
		return db.Create(v).Error
	}
	return db.Save(v).Error
}

// POST /{catalogo}
func (h *Handler[T, D, PD]) Crear(w http.ResponseWriter, r *http.Request) {
	v := new(T)
	if err := h.guardar(r, v, 0); err != nil {
		h.responderError(w, "Crear", err)
		return
	}
	utils.JSON(w, http.StatusCreated, v)
}

// GET /{catalogo}/{id}
func (h *Handler[T, D, PD]) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v := new(T)
	if err := h.DB.WithContext(r.Context()).First(v, id).Error; err != nil {
		h.responderError(w, "Obtener", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// PUT /{catalogo}/{id}
func (h *Handler[T, D, PD]) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v := new(T)
	if err := h.DB.WithContext(r.Context()).First(v, id).Error; err != nil {
		h.responderError(w, "Actualizar", err)
		return
	}
	if err := h.guardar(r, v, id); err != nil {
		h.responderError(w, "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// DELETE /{catalogo}/{id}
// Los contratos borrados lógicamente también cuentan como uso.
func (h *Handler[T, D, PD]) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = h.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(new(T), id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Unscoped().Model(&models.Contrato{}).Where(h.Def.ColumnaContrato+" = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w (%d)", ErrEnUso, n)
		}
		if h.Def.AlEliminar != nil {
			if err := h.Def.AlEliminar(tx, id); err != nil {
				return err
			}
		}
		return tx.Delete(new(T), id).Error
	})
	if err != nil {
		h.responderError(w, "Eliminar", err)
		return
	}
	config.GetLogger().WithFields(logrus.Fields{
		"recurso": h.Def.Recurso, "id": id, "usuario": auth.NombreUsuario(r.Context()),
	}).Info("registro de catálogo eliminado")
	w.WriteHeader(http.StatusNoContent)
}
