package email

import (
	"errors"
	"net/http"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

type Handler struct {
	Servicio *Servicio
}

func NewHandler(s *Servicio) *Handler {
	return &Handler{Servicio: s}
}

func responderError(w http.ResponseWriter, fn string, err error) {
	var ve *utils.ErrValidacion
	switch {
	case errors.As(err, &ve):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.Is(err, ErrNoEncontrada):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		config.LogError(config.GetLogger(), "email", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// GET /configuracion-email
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	list, err := h.Servicio.Listar(r.Context())
	if err != nil {
		responderError(w, "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /configuracion-email
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var in ConfigDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Servicio.Crear(r.Context(), in)
	if err != nil {
		responderError(w, "Crear", err)
		return
	}
	utils.JSON(w, http.StatusCreated, c)
}

// PUT /configuracion-email/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ConfigDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Servicio.Actualizar(r.Context(), id, in)
	if err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

// DELETE /configuracion-email/{id}
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

type pruebaDTO struct {
	Destino string `json:"destino" validate:"required,email"`
}

// POST /configuracion-email/{id}/probar
func (h *Handler) Probar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in pruebaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	if err := h.Servicio.Probar(r.Context(), id, in.Destino); err != nil {
		if errors.Is(err, ErrNoEncontrada) {
			responderError(w, "Probar", err)
			return
		}
		// el fallo SMTP se devuelve al usuario para que corrija la configuración
		config.GetLogger().WithField("configuracion", id).Warn(err.Error())
		utils.JSON(w, http.StatusBadGateway, map[string]any{"enviado": false, "error": err.Error()})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"enviado": true})
}
