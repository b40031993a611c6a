package ventas

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/utils"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
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
	case errors.Is(err, ErrInformeDuplicado):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNoReportaVentas), errors.Is(err, ErrFueraDeVigencia),
		errors.Is(err, ErrSinPorcentaje), errors.Is(err, ErrSinCanonMinimo),
		errors.Is(err, ErrInformeAjeno), errors.Is(err, vigencia.ErrNoFacturaPorVentas):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		config.LogError(config.GetLogger(), "ventas", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// entero lee un entero opcional de la query; vacío vale cero.
func entero(r *http.Request, nombre string) (int, error) {
	v := r.URL.Query().Get(nombre)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, utils.NuevoErrValidacion(nombre, "número inválido")
	}
	return n, nil
}

// GET /informes-ventas?contrato=&tipo=&mes=&anio=&estado=&q=
func (h *Handler) ListarInformes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := FiltroInformes{Tipo: q.Get("tipo"), Estado: q.Get("estado"), Buscar: q.Get("q")}
	var err error
	var contrato int
	if contrato, err = entero(r, "contrato"); err == nil {
		f.ContratoID = uint(contrato)
		if f.Mes, err = entero(r, "mes"); err == nil {
			f.Anio, err = entero(r, "anio")
		}
	}
	if err != nil {
		responderError(w, "ListarInformes", err)
		return
	}
	res, err := h.Servicio.ListarInformes(r.Context(), f)
	if err != nil {
		responderError(w, "ListarInformes", err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}

// GET /informes-ventas/por-reportar?mes=&anio=&estadoVigencia=
func (h *Handler) PorReportar(w http.ResponseWriter, r *http.Request) {
	mes, err := entero(r, "mes")
	if err != nil {
		responderError(w, "PorReportar", err)
		return
	}
	anio, err := entero(r, "anio")
	if err != nil || anio == 0 {
		responderError(w, "PorReportar", utils.NuevoErrValidacion("anio", "requerido"))
		return
	}
	list, err := h.Servicio.ContratosPorReportar(r.Context(), mes, anio, r.URL.Query().Get("estadoVigencia"))
	if err != nil {
		responderError(w, "PorReportar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /informes-ventas
func (h *Handler) CrearInforme(w http.ResponseWriter, r *http.Request) {
	var in InformeDTO
	if err := utils.Decodificar(r, &in); err != nil {
		responderError(w, "CrearInforme", err)
		return
	}
	v, err := h.Servicio.CrearInforme(r.Context(), in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "CrearInforme", err)
		return
	}
	utils.JSON(w, http.StatusCreated, v)
}

// GET /informes-ventas/{id}
func (h *Handler) ObtenerInforme(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, err := h.Servicio.ObtenerInforme(r.Context(), id)
	if err != nil {
		responderError(w, "ObtenerInforme", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// PUT /informes-ventas/{id}
func (h *Handler) ActualizarInforme(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in InformeDTO
	if err := utils.Decodificar(r, &in); err != nil {
		responderError(w, "ActualizarInforme", err)
		return
	}
	v, err := h.Servicio.ActualizarInforme(r.Context(), id, in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "ActualizarInforme", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// POST /informes-ventas/{id}/entregado
func (h *Handler) MarcarEntregado(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in EntregaDTO
	if r.ContentLength > 0 {
		if err := utils.Decodificar(r, &in); err != nil {
			responderError(w, "MarcarEntregado", err)
			return
		}
	}
	v, err := h.Servicio.MarcarEntregado(r.Context(), id, in.FechaEntrega)
	if err != nil {
		responderError(w, "MarcarEntregado", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// POST /informes-ventas/{id}/pendiente
func (h *Handler) MarcarPendiente(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v, err := h.Servicio.MarcarPendiente(r.Context(), id)
	if err != nil {
		responderError(w, "MarcarPendiente", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// DELETE /informes-ventas/{id}
func (h *Handler) EliminarInforme(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Servicio.EliminarInforme(r.Context(), id, auth.NombreUsuario(r.Context())); err != nil {
		responderError(w, "EliminarInforme", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /calculos-facturacion
func (h *Handler) Calcular(w http.ResponseWriter, r *http.Request) {
	var in CalculoDTO
	if err := utils.Decodificar(r, &in); err != nil {
		responderError(w, "Calcular", err)
		return
	}
	if err := in.Validar(); err != nil {
		responderError(w, "Calcular", err)
		return
	}
	c, err := h.Servicio.Calcular(r.Context(), in, auth.NombreUsuario(r.Context()))
	if err != nil {
		responderError(w, "Calcular", err)
		return
	}
	utils.JSON(w, http.StatusCreated, c)
}

// GET /calculos-facturacion?contrato=&mes=&anio=
func (h *Handler) ListarCalculos(w http.ResponseWriter, r *http.Request) {
	contrato, err := entero(r, "contrato")
	var mes, anio int
	if err == nil {
		if mes, err = entero(r, "mes"); err == nil {
			anio, err = entero(r, "anio")
		}
	}
	if err != nil {
		responderError(w, "ListarCalculos", err)
		return
	}
	list, err := h.Servicio.ListarCalculos(r.Context(), uint(contrato), mes, anio)
	if err != nil {
		responderError(w, "ListarCalculos", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /calculos-facturacion/{id}
func (h *Handler) ObtenerCalculo(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.Servicio.ObtenerCalculo(r.Context(), id)
	if err != nil {
		responderError(w, "ObtenerCalculo", err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}
