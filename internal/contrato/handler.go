package contrato

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

var ErrNumeroDuplicado = errors.New("ya existe un contrato con ese número")

type Handler struct {
	DB         *gorm.DB
	Repository Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db, Repository: NewRepository()}
}

func responderError(w http.ResponseWriter, fn string, err error) {
	var ve *utils.ErrValidacion
	switch {
	case errors.As(err, &ve):
		utils.ResponderError(w, err, "", http.StatusBadRequest)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Contrato no encontrado", http.StatusNotFound)
	case errors.Is(err, vigencia.ErrVistaNoDisponible), errors.Is(err, vigencia.ErrNoFacturaPorVentas):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		config.LogError(config.GetLogger(), "contrato", fn, "error inesperado", nil, err)
		http.Error(w, "error interno", http.StatusInternalServerError)
	}
}

// guardar valida el número y aplica las reglas de guardado.
func (h *Handler) guardar(c *models.Contrato, in *ContratoDTO, crear bool) error {
	if err := in.Validar(); err != nil {
		return err
	}
	existe, err := h.Repository.ExisteNumero(h.DB, in.NumContrato, c.ID)
	if err != nil {
		return err
	}
	if existe {
		return utils.NuevoErrValidacion("numContrato", ErrNumeroDuplicado.Error())
	}
	in.aplicar(c)
	if err := resolverCatalogos(h.DB, c); err != nil {
		return err
	}
	AplicarReglas(c)
	if crear {
		return h.Repository.Crear(h.DB, c)
	}
	return h.Repository.Actualizar(h.DB, c)
}

// GET /contratos?vigente=&tipo=&q=
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filtro{Tipo: q.Get("tipo"), Buscar: q.Get("q")}
	if v := q.Get("vigente"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			utils.ResponderError(w, utils.NuevoErrValidacion("vigente", "use true o false"), "", http.StatusBadRequest)
			return
		}
		f.Vigente = &b
	}
	list, err := h.Repository.Listar(h.DB.WithContext(r.Context()), f)
	if err != nil {
		responderError(w, "Listar", err)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// POST /contratos
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var in ContratoDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	usuario := auth.NombreUsuario(r.Context())
	c := &models.Contrato{Vigente: true, CreadoPor: usuario, ModificadoPor: usuario}
	if err := h.guardar(c, &in, true); err != nil {
		responderError(w, "Crear", err)
		return
	}
	utils.JSON(w, http.StatusCreated, c)
}

// GET /contratos/{id}
func (h *Handler) Obtener(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		responderError(w, "Obtener", err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

// PUT /contratos/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in ContratoDTO
	if err := utils.Decodificar(r, &in); err != nil {
		utils.ResponderError(w, err, "JSON inválido", http.StatusBadRequest)
		return
	}
	c, err := h.Repository.BuscarPorID(h.DB.WithContext(r.Context()), id)
	if err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	c.ModificadoPor = auth.NombreUsuario(r.Context())
	if err := h.guardar(c, &in, false); err != nil {
		responderError(w, "Actualizar", err)
		return
	}
	utils.JSON(w, http.StatusOK, c)
}

// DELETE /contratos/{id}
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	db := h.DB.WithContext(r.Context())
	c, err := h.Repository.BuscarPorID(db, id)
	if err != nil {
		responderError(w, "Eliminar", err)
		return
	}
	if err := h.Repository.Eliminar(db, c, auth.NombreUsuario(r.Context())); err != nil {
		responderError(w, "Eliminar", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /contratos/{id}/vista-vigente?fecha=
func (h *Handler) VistaVigente(w http.ResponseWriter, r *http.Request) {
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
	cad, err := vigencia.Cargar(h.DB.WithContext(r.Context()), id)
	if err != nil {
		responderError(w, "VistaVigente", err)
		return
	}
	v, err := cad.Vista(ref)
	if err != nil {
		responderError(w, "VistaVigente", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}

// GET /contratos/{id}/polizas-requeridas?fecha=&permitirFuturos=
func (h *Handler) PolizasRequeridas(w http.ResponseWriter, r *http.Request) {
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
	futuros, _ := strconv.ParseBool(r.URL.Query().Get("permitirFuturos"))
	cad, err := vigencia.Cargar(h.DB.WithContext(r.Context()), id)
	if err != nil {
		responderError(w, "PolizasRequeridas", err)
		return
	}
	list := cad.PolizasRequeridas(ref, futuros)
	if list == nil {
		list = []vigencia.RequisitoResuelto{}
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /contratos/{id}/facturacion-ventas?mes=&anio=
func (h *Handler) FacturacionVentas(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mes, errMes := strconv.Atoi(r.URL.Query().Get("mes"))
	anio, errAnio := strconv.Atoi(r.URL.Query().Get("anio"))
	if errMes != nil || errAnio != nil || mes < 1 || mes > 12 {
		utils.ResponderError(w, utils.NuevoErrValidacion("mes", "indique mes (1-12) y anio"), "", http.StatusBadRequest)
		return
	}
	cad, err := vigencia.Cargar(h.DB.WithContext(r.Context()), id)
	if err != nil {
		responderError(w, "FacturacionVentas", err)
		return
	}
	v, err := cad.ValoresFacturacionVentas(mes, anio)
	if err != nil {
		responderError(w, "FacturacionVentas", err)
		return
	}
	utils.JSON(w, http.StatusOK, v)
}
