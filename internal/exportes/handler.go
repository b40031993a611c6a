package exportes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/alertas"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/contrato"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
	"github.com/KromaEnergia/api-contratos/internal/ventas"
)

type Handler struct {
	DB        *gorm.DB
	Generador *alertas.Generador
	Ahora     func() time.Time
}

func NewHandler(db *gorm.DB, g *alertas.Generador) *Handler {
	return &Handler{DB: db, Generador: g, Ahora: time.Now}
}

func (h *Handler) responder(w http.ResponseWriter, fn, nombre string, b []byte, err error) {
	switch {
	case errors.Is(err, ErrExportacionVacia):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, alertas.ErrTipoDesconocido):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		config.LogError(config.GetLogger(), "exportes", fn, "error generando archivo", nil, err)
		http.Error(w, "error generando archivo", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.xlsx"`, nombre, h.Ahora().Format("20060102_150405")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// GET /exportes/contratos?fecha=&tipo=&vigente=&buscar=
func (h *Handler) Contratos(w http.ResponseWriter, r *http.Request) {
	ref, err := utils.FechaQuery(r, "fecha", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	f := contrato.Filtro{Tipo: q.Get("tipo"), Buscar: q.Get("buscar")}
	if v, err := strconv.ParseBool(q.Get("vigente")); err == nil {
		f.Vigente = &v
	}
	b, err := ExportarContratos(r.Context(), h.DB, f, ref, h.Ahora())
	h.responder(w, "Contratos", "contratos", b, err)
}

// GET /exportes/alertas?fecha=&tipo=&tipoContrato=
func (h *Handler) Alertas(w http.ResponseWriter, r *http.Request) {
	ref, err := utils.FechaQuery(r, "fecha", fechas.Hoy())
	if err != nil {
		utils.ResponderError(w, utils.NuevoErrValidacion("fecha", "formato YYYY-MM-DD"), "", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	tipo := q.Get("tipo")
	if _, ok := models.NombresAlerta[tipo]; tipo != "" && !ok {
		http.Error(w, alertas.ErrTipoDesconocido.Error(), http.StatusBadRequest)
		return
	}
	b, err := ExportarAlertas(r.Context(), h.Generador, tipo, ref, alertas.Filtro{TipoContrato: q.Get("tipoContrato")}, h.Ahora())
	h.responder(w, "Alertas", "alertas", b, err)
}

// GET /exportes/informes-ventas?tipo=&mes=&anio=&estado=&buscar=
func (h *Handler) InformesVentas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ventas.FiltroInformes{Tipo: q.Get("tipo"), Estado: q.Get("estado"), Buscar: q.Get("buscar")}
	for nombre, dst := range map[string]*int{"mes": &f.Mes, "anio": &f.Anio} {
		if v := q.Get(nombre); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				utils.ResponderError(w, utils.NuevoErrValidacion(nombre, "número inválido"), "", http.StatusBadRequest)
				return
			}
			*dst = n
		}
	}
	b, err := ExportarInformesVentas(r.Context(), h.DB, f, h.Ahora())
	h.responder(w, "InformesVentas", "informes_ventas", b, err)
}
