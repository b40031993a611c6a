package licencia

import (
	"errors"
	"net/http"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

type Handler struct {
	Manager *Manager
}

func NewHandler(m *Manager) *Handler { return &Handler{Manager: m} }

type estadoDTO struct {
	Vigente        bool   `json:"vigente"`
	Estado         string `json:"estado"`
	DiasParaVencer *int   `json:"diasParaVencer"`
	Resultado
}

// GET /licencia
func (h *Handler) Estado(w http.ResponseWriter, r *http.Request) {
	l, err := h.Manager.Primaria(r.Context())
	if errors.Is(err, ErrSinLicencia) {
		utils.JSON(w, http.StatusOK, estadoDTO{Estado: EstadoPendiente, Resultado: Resultado{Mensaje: err.Error()}})
		return
	}
	if err != nil {
		config.LogError(config.GetLogger(), "licencia", "Estado", "error leyendo licencia", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
		return
	}
	ahora := h.Manager.Ahora()
	utils.JSON(w, http.StatusOK, estadoDTO{
		Vigente:        Vigente(l, ahora),
		Estado:         l.VerificationStatus,
		DiasParaVencer: DiasParaVencer(l, ahora),
		Resultado:      Resultado{Valida: Vigente(l, ahora), Mensaje: l.UltimoMensaje, Licencia: l},
	})
}

// PUT /licencia
func (h *Handler) Registrar(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Clave string `json:"clave" validate:"required"`
	}
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validar(in); err != nil {
		utils.ResponderError(w, err, "", http.StatusBadRequest)
		return
	}
	if _, err := h.Manager.Registrar(r.Context(), in.Clave); err != nil {
		config.LogError(config.GetLogger(), "licencia", "Registrar", "error guardando licencia", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
		return
	}
	h.Verificar(w, r)
}

// POST /licencia/verificar
func (h *Handler) Verificar(w http.ResponseWriter, r *http.Request) {
	res, err := h.Manager.VerificarLicencia(r.Context())
	switch {
	case errors.Is(err, ErrSinLicencia):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrConexion):
		utils.JSON(w, http.StatusBadGateway, res)
	case err != nil:
		config.LogError(config.GetLogger(), "licencia", "Verificar", "error verificando licencia", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	default:
		utils.JSON(w, http.StatusOK, res)
	}
}
