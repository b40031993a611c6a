package seguimiento

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
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
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "no encontrado", http.StatusNotFound)
	case errors.Is(err, ErrPolizaAjena):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		config.LogError(config.GetLogger(), "seguimiento", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

func decodificarDetalle(r *http.Request) (DetalleDTO, error) {
	var in DetalleDTO
	if err := utils.Decodificar(r, &in); err != nil {
		return in, err
	}
	return in, in.Validar()
}

// GET /contratos/{id}/seguimientos
func (h *Handler) ListarDeContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.Servicio.ListarDeContrato(r.Context(), id)
	if err != nil {
		responderError(w, "ListarDeContrato", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /contratos/{id}/seguimientos
func (h *Handler) RegistrarDeContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := decodificarDetalle(r)
	if err != nil {
		responderError(w, "RegistrarDeContrato", err)
		return
	}
	sc, err := h.Servicio.RegistrarDeContrato(r.Context(), id, in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "RegistrarDeContrato", err)
		return
	}
	utils.JSON(w, http.StatusCreated, sc)
}

// PUT /seguimientos-contrato/{id}
func (h *Handler) EditarDeContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := decodificarDetalle(r)
	if err != nil {
		responderError(w, "EditarDeContrato", err)
		return
	}
	sc, err := h.Servicio.EditarDeContrato(r.Context(), id, in)
	if err != nil {
		responderError(w, "EditarDeContrato", err)
		return
	}
	utils.JSON(w, http.StatusOK, sc)
}

// DELETE /seguimientos-contrato/{id}
func (h *Handler) EliminarDeContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Servicio.EliminarDeContrato(r.Context(), id, auth.NombreUsuario(r.Context())); err != nil {
		responderError(w, "EliminarDeContrato", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func uintQuery(r *http.Request, nombre string) (uint, error) {
	v := r.URL.Query().Get(nombre)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 0)
	if err != nil {
		return 0, utils.NuevoErrValidacion(nombre, "número inválido")
	}
	return uint(n), nil
}

// GET /seguimientos-poliza?contrato=&poliza=&tipo=
func (h *Handler) ListarDePoliza(w http.ResponseWriter, r *http.Request) {
	f := FiltroPoliza{PolizaTipo: r.URL.Query().Get("tipo")}
	var err error
	if f.ContratoID, err = uintQuery(r, "contrato"); err == nil {
		f.PolizaID, err = uintQuery(r, "poliza")
	}
	if err != nil {
		responderError(w, "ListarDePoliza", err)
		return
	}
	list, err := h.Servicio.ListarDePoliza(r.Context(), f)
	if err != nil {
		responderError(w, "ListarDePoliza", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /seguimientos-poliza
func (h *Handler) RegistrarDePoliza(w http.ResponseWriter, r *http.Request) {
	var in PolizaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		responderError(w, "RegistrarDePoliza", err)
		return
	}
	sp, err := h.Servicio.RegistrarDePoliza(r.Context(), in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "RegistrarDePoliza", err)
		return
	}
	utils.JSON(w, http.StatusCreated, sp)
}

// PUT /seguimientos-poliza/{id}
func (h *Handler) EditarDePoliza(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := decodificarDetalle(r)
	if err != nil {
		responderError(w, "EditarDePoliza", err)
		return
	}
	sp, err := h.Servicio.EditarDePoliza(r.Context(), id, in)
	if err != nil {
		responderError(w, "EditarDePoliza", err)
		return
	}
	utils.JSON(w, http.StatusOK, sp)
}

// DELETE /seguimientos-poliza/{id}
func (h *Handler) EliminarDePoliza(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Servicio.EliminarDePoliza(r.Context(), id, auth.NombreUsuario(r.Context())); err != nil {
		responderError(w, "EliminarDePoliza", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
