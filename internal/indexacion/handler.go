package indexacion

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
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

func (h *Handler) responderError(w http.ResponseWriter, fn string, err error) {
	var te *utils.ErrValidacion
	switch {
	case errors.As(err, &te):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.Is(err, ErrCalculoDuplicado), errors.Is(err, ErrCalculoYaAplicado):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrIndiceNoDisponible), errors.Is(err, ErrSinCanon),
		errors.Is(err, ErrCondicionIncorrecta), errors.Is(err, ErrCanonInvalido):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrCalculoNoEncontrado), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "no encontrado", http.StatusNotFound)
	default:
		config.LogError(config.GetLogger(), "indexacion", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// GET /ipc-historico
func (h *Handler) ListarIPC(w http.ResponseWriter, r *http.Request) {
	var list []models.IPCHistorico
	if err := h.DB.Order("ano DESC").Find(&list).Error; err != nil {
		h.responderError(w, "ListarIPC", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

type ipcDTO struct {
	Ano                int             `json:"ano" validate:"required,gte=1900,lte=2100"`
	ValorIPC           decimal.Decimal `json:"valorIpc"`
	FechaCertificacion *time.Time      `json:"fechaCertificacion"`
	Observaciones      string          `json:"observaciones"`
}

// POST /ipc-historico
func (h *Handler) CrearIPC(w http.ResponseWriter, r *http.Request) {
	var in ipcDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	ipc := models.IPCHistorico{
		Ano: in.Ano, ValorIPC: in.ValorIPC, FechaCertificacion: in.FechaCertificacion,
		Observaciones: in.Observaciones, CreadoPor: auth.NombreUsuario(r.Context()),
	}
	if err := h.DB.Create(&ipc).Error; err != nil {
		if errors.Is(err, models.ErrValorNegativo) || errors.Is(err, models.ErrAnoFueraDeRango) {
			utils.ResponderError(w, utils.NuevoErrValidacion("valorIpc", err.Error()), "", http.StatusBadRequest)
			return
		}
		http.Error(w, "ya existe un IPC para ese año", http.StatusConflict)
		return
	}
	utils.JSON(w, http.StatusCreated, ipc)
}

// PUT /ipc-historico/{id}
func (h *Handler) ActualizarIPC(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var ipc models.IPCHistorico
	if err := h.DB.First(&ipc, id).Error; err != nil {
		h.responderError(w, "ActualizarIPC", err)
		return
	}
	var in ipcDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	ipc.Ano, ipc.ValorIPC, ipc.FechaCertificacion, ipc.Observaciones = in.Ano, in.ValorIPC, in.FechaCertificacion, in.Observaciones
	if err := h.DB.Save(&ipc).Error; err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("valorIpc", err.Error()), "", http.StatusBadRequest)
		return
	}
	utils.JSON(w, http.StatusOK, ipc)
}

// DELETE /ipc-historico/{id}
func (h *Handler) EliminarIPC(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.DB.Delete(&models.IPCHistorico{}, id).Error; err != nil {
		h.responderError(w, "EliminarIPC", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /salario-minimo-historico
func (h *Handler) ListarSalarioMinimo(w http.ResponseWriter, r *http.Request) {
	var list []models.SalarioMinimoHistorico
	if err := h.DB.Order("ano DESC").Find(&list).Error; err != nil {
		h.responderError(w, "ListarSalarioMinimo", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

type salarioMinimoDTO struct {
	Ano                int             `json:"ano" validate:"required,gte=1900,lte=2100"`
	ValorSalarioMinimo decimal.Decimal `json:"valorSalarioMinimo"`
	FechaDecreto       *time.Time      `json:"fechaDecreto"`
	NumeroDecreto      string          `json:"numeroDecreto"`
	Observaciones      string          `json:"observaciones"`
}

// POST /salario-minimo-historico
func (h *Handler) CrearSalarioMinimo(w http.ResponseWriter, r *http.Request) {
	var in salarioMinimoDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	if !in.ValorSalarioMinimo.IsPositive() {
		utils.ResponderError(w, utils.NuevoErrValidacion("valorSalarioMinimo", "debe ser mayor a cero"), "", http.StatusBadRequest)
		return
	}
	sm := models.SalarioMinimoHistorico{
		Ano: in.Ano, ValorSalarioMinimo: in.ValorSalarioMinimo, FechaDecreto: in.FechaDecreto,
		NumeroDecreto: in.NumeroDecreto, Observaciones: in.Observaciones, CreadoPor: auth.NombreUsuario(r.Context()),
	}
	if err := h.DB.Create(&sm).Error; err != nil {
		http.Error(w, "ya existe un salario mínimo para ese año", http.StatusConflict)
		return
	}
	utils.JSON(w, http.StatusCreated, sm)
}

// PUT /salario-minimo-historico/{id}
func (h *Handler) ActualizarSalarioMinimo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var sm models.SalarioMinimoHistorico
	if err := h.DB.First(&sm, id).Error; err != nil {
		h.responderError(w, "ActualizarSalarioMinimo", err)
		return
	}
	var in salarioMinimoDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return
	}
	sm.Ano, sm.ValorSalarioMinimo, sm.FechaDecreto = in.Ano, in.ValorSalarioMinimo, in.FechaDecreto
	sm.NumeroDecreto, sm.Observaciones = in.NumeroDecreto, in.Observaciones
	if err := h.DB.Save(&sm).Error; err != nil {
		h.responderError(w, "ActualizarSalarioMinimo", err)
		return
	}
	utils.JSON(w, http.StatusOK, sm)
}

// DELETE /salario-minimo-historico/{id}
func (h *Handler) EliminarSalarioMinimo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.DB.Delete(&models.SalarioMinimoHistorico{}, id).Error; err != nil {
		h.responderError(w, "EliminarSalarioMinimo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) solicitud(w http.ResponseWriter, r *http.Request) (Solicitud, bool) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return Solicitud{}, false
	}
	var sol Solicitud
	if err := utils.Decodificar(r, &sol); err != nil {
		utils.ResponderError(w, err, "payload inválido", http.StatusBadRequest)
		return Solicitud{}, false
	}
	sol.ContratoID = id
	sol.Usuario = auth.NombreUsuario(r.Context())
	return sol, true
}

// POST /contratos/{id}/calculos-ipc
func (h *Handler) CalcularIPC(w http.ResponseWriter, r *http.Request) {
	sol, ok := h.solicitud(w, r)
	if !ok {
		return
	}
	calc, err := h.Servicio.CalcularIPC(r.Context(), sol)
	if err != nil {
		h.responderError(w, "CalcularIPC", err)
		return
	}
	utils.JSON(w, http.StatusCreated, calc)
}

// POST /contratos/{id}/calculos-salario-minimo
func (h *Handler) CalcularSalarioMinimo(w http.ResponseWriter, r *http.Request) {
	sol, ok := h.solicitud(w, r)
	if !ok {
		return
	}
	calc, err := h.Servicio.CalcularSalarioMinimo(r.Context(), sol)
	if err != nil {
		h.responderError(w, "CalcularSalarioMinimo", err)
		return
	}
	utils.JSON(w, http.StatusCreated, calc)
}

// GET /contratos/{id}/calculos
func (h *Handler) ListarPorContrato(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var resp struct {
		IPC           []models.CalculoIPC           `json:"ipc"`
		SalarioMinimo []models.CalculoSalarioMinimo `json:"salarioMinimo"`
	}
	if err := h.DB.Where("contrato_id = ?", id).Order("fecha_aplicacion DESC").Find(&resp.IPC).Error; err != nil {
		h.responderError(w, "ListarPorContrato", err)
		return
	}
	if err := h.DB.Where("contrato_id = ?", id).Order("fecha_aplicacion DESC").Find(&resp.SalarioMinimo).Error; err != nil {
		h.responderError(w, "ListarPorContrato", err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// AplicarHandler atiende POST /calculos-ipc/{id}/aplicar y /calculos-salario-minimo/{id}/aplicar.
func (h *Handler) AplicarHandler(tipo string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.IDRuta(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.Servicio.Aplicar(r.Context(), tipo, id, auth.NombreUsuario(r.Context())); err != nil {
			h.responderError(w, "Aplicar", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AnularHandler atiende POST /calculos-ipc/{id}/anular y /calculos-salario-minimo/{id}/anular.
func (h *Handler) AnularHandler(tipo string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := utils.IDRuta(r, "id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.Servicio.Anular(r.Context(), tipo, id); err != nil {
			h.responderError(w, "Anular", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /indexacion/pendientes?tipo=IPC&dias=30&fecha=YYYY-MM-DD
func (h *Handler) Pendientes(w http.ResponseWriter, r *http.Request) {
	tipo := r.URL.Query().Get("tipo")
	if tipo == "" {
		tipo = TipoIPC
	}
	if tipo != TipoIPC && tipo != TipoSalarioMinimo {
		utils.ResponderError(w, utils.NuevoErrValidacion("tipo", "use IPC o SALARIO_MINIMO"), "", http.StatusBadRequest)
		return
	}
	dias := 30
	if v := r.URL.Query().Get("dias"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			utils.ResponderError(w, utils.NuevoErrValidacion("dias", "debe ser un entero positivo"), "", http.StatusBadRequest)
			return
		}
		dias = n
	}
	ref, err := utils.FechaQuery(r, "fecha", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	list, err := h.Servicio.ContratosPendientes(r.Context(), tipo, ref, dias)
	if err != nil {
		h.responderError(w, "Pendientes", err)
		return
	}
	if list == nil {
		list = []Pendiente{}
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /contratos/{id}/proxima-fecha-aumento
func (h *Handler) ProximaFecha(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cad, err := vigencia.Cargar(h.DB.WithContext(r.Context()), id)
	if err != nil {
		h.responderError(w, "ProximaFecha", err)
		return
	}
	ref := fechas.Hoy()
	prox, err := h.Servicio.ProximaFechaAumento(cad, ref)
	if err != nil {
		h.responderError(w, "ProximaFecha", err)
		return
	}
	resp := map[string]any{"contratoId": id, "proximaFechaAumento": prox}
	if prox != nil {
		resp["dias"] = fechas.DiasEntre(ref, *prox)
	}
	utils.JSON(w, http.StatusOK, resp)
}
