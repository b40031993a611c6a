package renovacion

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/flujo"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

type Handler struct {
	DB       *gorm.DB
	Servicio *Servicio
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Servicio: NewServicio(db)}
}

func responderError(w http.ResponseWriter, fn string, err error) {
	var te *flujo.TransicionError
	var ve *utils.ErrValidacion
	switch {
	case errors.As(err, &ve):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.As(err, &te):
		utils.JSON(w, http.StatusConflict, te)
	case errors.Is(err, ErrNoEncontrado), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "no encontrado", http.StatusNotFound)
	case errors.Is(err, ErrSinProrroga), errors.Is(err, ErrSinFechaFinal):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrEliminarAprobada), errors.Is(err, ErrRenovacionNoEdita):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		config.LogError(config.GetLogger(), "renovacion", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// POST /contratos/{id}/renovaciones
func (h *Handler) Procesar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ProcesarDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	ren, err := h.Servicio.Procesar(r.Context(), id, in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "Procesar", err)
		return
	}
	utils.JSON(w, http.StatusCreated, ren)
}

// GET /contratos/{id}/renovaciones
func (h *Handler) ListarPorContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.Servicio.Listar(r.Context(), id)
	if err != nil {
		responderError(w, "ListarPorContrato", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /renovaciones
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	list, err := h.Servicio.Listar(r.Context(), 0)
	if err != nil {
		responderError(w, "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /renovaciones/{id}
func (h *Handler) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ren, err := h.Servicio.Obtener(r.Context(), id)
	if err != nil {
		responderError(w, "Obtener", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"renovacion":   ren,
		"transiciones": flujo.TransicionesPermitidas(ren.Estado),
	})
}

// PUT /renovaciones/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ActualizarDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	ren, err := h.Servicio.Actualizar(r.Context(), id, in, auth.EsAdmin(r.Context()))
	if err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, ren)
}

// POST /renovaciones/{id}/estado
func (h *Handler) CambiarEstado(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in struct {
		Estado string `json:"estado" validate:"required"`
		Motivo string `json:"motivo"`
	}
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	ren, err := h.Servicio.CambiarEstado(r.Context(), id, in.Estado, in.Motivo, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "CambiarEstado", err)
		return
	}
	utils.JSON(w, http.StatusOK, ren)
}

// DELETE /renovaciones/{id}
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Servicio.Eliminar(r.Context(), id); err != nil {
		responderError(w, "Eliminar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
