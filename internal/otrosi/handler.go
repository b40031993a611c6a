package otrosi

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/flujo"
	"github.com/KromaEnergia/api-contratos/internal/utils"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

type Handler struct {
	DB       *gorm.DB
	Servicio *Servicio
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Servicio: NewServicio(db)}
}

// ResponderError traduce los errores del flujo a códigos HTTP.
func ResponderError(w http.ResponseWriter, modulo, fn string, err error) {
	var te *flujo.TransicionError
	var se *SolapamientoError
	var ve *utils.ErrValidacion
	switch {
	case errors.As(err, &ve):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.As(err, &te):
		utils.JSON(w, http.StatusConflict, te)
	case errors.As(err, &se):
		utils.JSON(w, http.StatusConflict, se)
	case errors.Is(err, ErrNoEncontrado), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "no encontrado", http.StatusNotFound)
	case errors.Is(err, ErrOtroSiPosterior), errors.Is(err, ErrNoEditable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		config.LogError(config.GetLogger(), modulo, fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// GET /contratos/{id}/otrosi
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ref, err := utils.FechaQuery(r, "fecha", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	list, err := h.Servicio.Listar(r.Context(), id, ref)
	if err != nil {
		ResponderError(w, "otrosi", "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /contratos/{id}/otrosi
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in OtroSiDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	res, err := h.Servicio.Crear(r.Context(), id, in, auth.NombreUsuario(r.Context()))
	if err != nil {
		ResponderError(w, "otrosi", "Crear", err)
		return
	}
	utils.JSON(w, http.StatusCreated, res)
}

// GET /otrosi/{id}
func (h *Handler) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	o, err := h.Servicio.buscar(h.DB.WithContext(r.Context()), id)
	if err != nil {
		ResponderError(w, "otrosi", "Obtener", err)
		return
	}
	resp := map[string]any{
		"otroSi":         o,
		"estadoVigencia": EstadoVigencia(o, fechas.Hoy()),
		"transiciones":   flujo.TransicionesPermitidas(o.Estado),
	}
	// vista del contrato al inicio de vigencia del documento
	if cad, err := vigencia.Cargar(h.DB.WithContext(r.Context()), o.ContratoID); err == nil {
		if v, err := cad.Vista(o.EffectiveFrom); err == nil {
			resp["vistaVigente"] = v
		}
	}
	if post, err := h.Servicio.Repository.TienePosteriores(h.DB, o); err == nil {
		resp["tienePosteriores"] = post
	}
	utils.JSON(w, http.StatusOK, resp)
}

// PUT /otrosi/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in OtroSiDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	res, err := h.Servicio.Actualizar(r.Context(), id, in, auth.NombreUsuario(r.Context()), auth.EsAdmin(r.Context()))
	if err != nil {
		ResponderError(w, "otrosi", "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// POST /otrosi/{id}/estado
func (h *Handler) CambiarEstado(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in TransicionDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	res, err := h.Servicio.CambiarEstado(r.Context(), id, in, auth.NombreUsuario(r.Context()))
	if err != nil {
		ResponderError(w, "otrosi", "CambiarEstado", err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// DELETE /otrosi/{id}
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Servicio.Eliminar(r.Context(), id); err != nil {
		ResponderError(w, "otrosi", "Eliminar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /contratos/{id}/solapamientos?desde=&hasta=&excluir=
func (h *Handler) Solapamientos(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	desde, err := utils.FechaQuery(r, "desde", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("desde", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	var hasta *time.Time
	if r.URL.Query().Get("hasta") != "" {
		f, err := utils.FechaQuery(r, "hasta", desde)
		if err != nil {
			utils.ResponderError(w, utils.NuevoErrValidacion("hasta", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
			return
		}
		hasta = &f
	}
	var excluir uint
	if r.URL.Query().Get("excluir") != "" {
		if excluir, err = utils.UintQuery(r, "excluir"); err != nil {
			utils.ResponderError(w, utils.NuevoErrValidacion("excluir", "ID inválido"), "", http.StatusBadRequest)
			return
		}
	}
	sol, err := vigencia.ValidarSolapamiento(h.DB.WithContext(r.Context()), id, desde, hasta, excluir)
	if err != nil {
		ResponderError(w, "otrosi", "Solapamientos", err)
		return
	}
	if sol == nil {
		sol = []vigencia.Solapamiento{}
	}
	utils.JSON(w, http.StatusOK, sol)
}
