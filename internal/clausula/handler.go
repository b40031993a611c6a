package clausula

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
	case errors.Is(err, ErrClausulaInactiva):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		config.LogError(config.GetLogger(), "clausula", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

func uintOpcional(r *http.Request, nombre string) (*uint, error) {
	v := r.URL.Query().Get(nombre)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 0)
	if err != nil {
		return nil, utils.NuevoErrValidacion(nombre, "número inválido")
	}
	id := uint(n)
	return &id, nil
}

// GET /clausulas?activa=&q=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	var activa *bool
	if v := r.URL.Query().Get("activa"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			responderError(w, "Listar", utils.NuevoErrValidacion("activa", "use true o false"))
			return
		}
		activa = &b
	}
	list, err := h.Servicio.Listar(r.Context(), activa, r.URL.Query().Get("q"))
	if err != nil {
		responderError(w, "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /clausulas
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var in ClausulaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		responderError(w, "Crear", err)
		return
	}
	c, err := h.Servicio.Crear(r.Context(), in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "Crear", err)
		return
	}
	utils.JSON(w, http.StatusCreated, c)
}

// PUT /clausulas/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ClausulaDTO
	if err := utils.Decodificar(r, &in); err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	c, err := h.Servicio.Actualizar(r.Context(), id, in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

// DELETE /clausulas/{id}
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Servicio.Desactivar(r.Context(), id, auth.NombreUsuario(r.Context())); err != nil {
		responderError(w, "Eliminar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /clausulas/obligatorias?tipoContrato=&tipoContratoId=&tipoServicioId=
func (h *Handler) ListarObligatorias(w http.ResponseWriter, r *http.Request) {
	p := Parametrizacion{TipoContrato: r.URL.Query().Get("tipoContrato")}
	var err error
	if p.TipoContratoID, err = uintOpcional(r, "tipoContratoId"); err == nil {
		p.TipoServicioID, err = uintOpcional(r, "tipoServicioId")
	}
	if err != nil {
		responderError(w, "ListarObligatorias", err)
		return
	}
	list, err := h.Servicio.ListarObligatorias(r.Context(), p)
	if err != nil {
		responderError(w, "ListarObligatorias", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// PUT /clausulas/obligatorias
func (h *Handler) Parametrizar(w http.ResponseWriter, r *http.Request) {
	var p Parametrizacion
	if err := utils.Decodificar(r, &p); err != nil {
		responderError(w, "Parametrizar", err)
		return
	}
	list, err := h.Servicio.Parametrizar(r.Context(), p, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "Parametrizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /contratos/{id}/clausulas
func (h *Handler) Auditoria(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := h.Servicio.Auditoria(r.Context(), id)
	if err != nil {
		responderError(w, "Auditoria", err)
		return
	}
	utils.JSON(w, http.StatusOK, a)
}

type asignacion struct {
	ClausulaIDs []uint `json:"clausulaIds"`
}

// PUT /contratos/{id}/clausulas
func (h *Handler) GuardarDeContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in asignacion
	if err := utils.Decodificar(r, &in); err != nil {
		responderError(w, "GuardarDeContrato", err)
		return
	}
	a, err := h.Servicio.GuardarDeContrato(r.Context(), id, in.ClausulaIDs, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "GuardarDeContrato", err)
		return
	}
	utils.JSON(w, http.StatusOK, a)
}
