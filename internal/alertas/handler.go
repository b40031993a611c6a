package alertas

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

type Handler struct {
	Generador       *Generador
	Envio           *Envio
	Configuraciones *Configuraciones
}

func NewHandler(envio *Envio) *Handler {
	return &Handler{Generador: envio.Generador, Envio: envio, Configuraciones: &Configuraciones{DB: envio.DB}}
}

func responderError(w http.ResponseWriter, fn string, err error) {
	var ve *utils.ErrValidacion
	switch {
	case errors.As(err, &ve):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.Is(err, ErrTipoDesconocido):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrConfigNoEncontrada), errors.Is(err, ErrDestinatarioNoEncontrado):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDestinatarioDuplicado):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		config.LogError(config.GetLogger(), "alertas", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

func filtroDe(r *http.Request) Filtro {
	return Filtro{TipoContrato: r.URL.Query().Get("tipoContrato")}
}

// GET /alertas?fecha=&tipoContrato=
func (h *Handler) Resumen(w http.ResponseWriter, r *http.Request) {
	ref, err := utils.FechaQuery(r, "fecha", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	todas, err := h.Generador.Todas(r.Context(), ref, filtroDe(r))
	if err != nil {
		responderError(w, "Resumen", err)
		return
	}
	conteo := make(map[string]int, len(todas))
	for t, l := range todas {
		conteo[t] = len(l)
	}
	utils.JSON(w, http.StatusOK, map[string]any{"fecha": ref.Format(fechas.Layout), "conteo": conteo, "alertas": todas})
}

// GET /alertas/{tipo}?fecha=&tipoContrato=&soloCriticas=
func (h *Handler) PorTipo(w http.ResponseWriter, r *http.Request) {
	ref, err := utils.FechaQuery(r, "fecha", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	list, err := h.Generador.Generar(r.Context(), mux.Vars(r)["tipo"], ref, filtroDe(r))
	if err != nil {
		responderError(w, "PorTipo", err)
		return
	}
	if b, _ := strconv.ParseBool(r.URL.Query().Get("soloCriticas")); b {
		list = SoloCriticas(list)
	}
	if list == nil {
		list = []Alerta{}
	}
	utils.JSON(w, http.StatusOK, list)
}

type envioDTO struct {
	Tipo   string `json:"tipo"`
	Fecha  string `json:"fecha"`
	Forzar bool   `json:"forzar"`
}

// POST /alertas/enviar
func (h *Handler) Enviar(w http.ResponseWriter, r *http.Request) {
	var in envioDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	ref := fechas.Hoy()
	if in.Fecha != "" {
		f, err := fechas.Parse(in.Fecha)
		if err != nil {
			utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
			return
		}
		ref = f
	}
	if in.Tipo == "" {
		lote, res, err := h.Envio.EnviarProgramadas(r.Context(), ref, in.Forzar)
		if err != nil {
			responderError(w, "Enviar", err)
			return
		}
		utils.JSON(w, http.StatusOK, map[string]any{"lote": lote, "resultados": res})
		return
	}
	if _, ok := models.NombresAlerta[in.Tipo]; !ok {
		responderError(w, "Enviar", ErrTipoDesconocido)
		return
	}
	lote := nuevoLote()
	res, err := h.Envio.EnviarTipo(r.Context(), in.Tipo, fechas.Dia(ref), in.Forzar, lote)
	if err != nil {
		responderError(w, "Enviar", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{"lote": lote, "resultados": []Resultado{res}})
}

// GET /configuracion-alertas
func (h *Handler) ListarConfiguraciones(w http.ResponseWriter, r *http.Request) {
	list, err := h.Configuraciones.Listar(r.Context())
	if err != nil {
		responderError(w, "ListarConfiguraciones", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /configuracion-alertas/{id}
func (h *Handler) ObtenerConfiguracion(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.Configuraciones.Obtener(r.Context(), id)
	if err != nil {
		responderError(w, "ObtenerConfiguracion", err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

// PUT /configuracion-alertas
func (h *Handler) GuardarConfiguracion(w http.ResponseWriter, r *http.Request) {
	var in ConfigDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Configuraciones.Guardar(r.Context(), in)
	if err != nil {
		responderError(w, "GuardarConfiguracion", err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

// DELETE /configuracion-alertas/{id}
func (h *Handler) EliminarConfiguracion(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Configuraciones.Eliminar(r.Context(), id); err != nil {
		responderError(w, "EliminarConfiguracion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type defaultDTO struct {
	Frecuencia   string `json:"frecuencia"`
	DiasSemana   []int  `json:"diasSemana"`
	HoraEnvio    string `json:"horaEnvio"`
	SoloCriticas bool   `json:"soloCriticas"`
	Inactivas    bool   `json:"inactivas"`
	Sobrescribir bool   `json:"sobrescribir"`
}

// POST /configuracion-alertas/default
func (h *Handler) ConfigurarDefault(w http.ResponseWriter, r *http.Request) {
	var in defaultDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	creadas, actualizadas, err := ConfigurarDefault(r.Context(), h.Configuraciones.DB, OpcionesDefault(in))
	if err != nil {
		responderError(w, "ConfigurarDefault", err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"creadas": creadas, "actualizadas": actualizadas})
}

// POST /configuracion-alertas/{id}/destinatarios
func (h *Handler) AgregarDestinatario(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in DestinatarioDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	d, err := h.Configuraciones.AgregarDestinatario(r.Context(), id, in)
	if err != nil {
		responderError(w, "AgregarDestinatario", err)
		return
	}
	utils.JSON(w, http.StatusCreated, d)
}

// PUT /destinatarios-alerta/{id}
func (h *Handler) ActualizarDestinatario(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in DestinatarioDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	d, err := h.Configuraciones.ActualizarDestinatario(r.Context(), id, in)
	if err != nil {
		responderError(w, "ActualizarDestinatario", err)
		return
	}
	utils.JSON(w, http.StatusOK, d)
}

// DELETE /destinatarios-alerta/{id}
func (h *Handler) EliminarDestinatario(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Configuraciones.EliminarDestinatario(r.Context(), id); err != nil {
		responderError(w, "EliminarDestinatario", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /historial-envios?tipo=&estado=&lote=&limite=
func (h *Handler) Historial(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limite, _ := strconv.Atoi(q.Get("limite"))
	list, err := h.Configuraciones.Historial(r.Context(), FiltroHistorial{
		TipoAlerta: q.Get("tipo"), Estado: q.Get("estado"), Lote: q.Get("lote"), Limite: limite,
	})
	if err != nil {
		responderError(w, "Historial", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}
