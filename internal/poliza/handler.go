package poliza

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

type Handler struct {
	Servicio *Servicio
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{Servicio: NewServicio(db)}
}

func responderError(w http.ResponseWriter, fn string, err error) {
	var ve *utils.ErrValidacion
	switch {
	case errors.As(err, &ve):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.Is(err, ErrNoEncontrada), errors.Is(err, ErrContratoNoExiste), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrOrigenNoExiste), errors.Is(err, ErrOrigenDeOtroDoc),
		errors.Is(err, models.ErrOrigenMultiple), errors.Is(err, models.ErrColchonSinMeses), errors.Is(err, models.ErrValorNegativo):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		config.LogError(config.GetLogger(), "poliza", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// GET /contratos/{id}/polizas?origen=&tipo=&estado=&fecha=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hoy, err := utils.FechaQuery(r, "fecha", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	list, err := h.Servicio.Listar(r.Context(), id, Filtro{Origen: q.Get("origen"), Tipo: q.Get("tipo"), Estado: q.Get("estado")}, hoy)
	if err != nil {
		responderError(w, "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /contratos/{id}/polizas
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in PolizaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	d, err := h.Servicio.Crear(r.Context(), id, in)
	if err != nil {
		responderError(w, "Crear", err)
		return
	}
	utils.JSON(w, http.StatusCreated, d)
}

// GET /polizas/{id}
func (h *Handler) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d, err := h.Servicio.Obtener(r.Context(), id, fechas.Hoy())
	if err != nil {
		responderError(w, "Obtener", err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

// PUT /polizas/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in PolizaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	d, err := h.Servicio.Actualizar(r.Context(), id, in)
	if err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

// DELETE /polizas/{id}
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
