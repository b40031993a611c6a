package usuario

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/auth"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/licencia"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

// Licencias es la verificación forzada que se hace en cada login.
type Licencias interface {
	VerificarLicencia(ctx context.Context) (licencia.Resultado, error)
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Licencias  Licencias
}

func NewHandler(db *gorm.DB, l Licencias) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Licencias:  l,
	}
}

// POST /auth/login
// Valida credenciales, verifica la licencia con el proveedor y emite access + refresh.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.Decodificar(r, &req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validar(req); err != nil {
		utils.ResponderError(w, err, "", http.StatusBadRequest)
		return
	}

	user, err := h.Repository.FindByLogin(h.DB, req.Username)
	if err != nil || !user.Activo {
		http.Error(w, "credenciales inválidas", http.StatusUnauthorized)
		return
	}
	if !utils.VerificarSenha(user.Password, req.Password) {
		http.Error(w, "credenciales inválidas", http.StatusUnauthorized)
		return
	}

	res, err := h.Licencias.VerificarLicencia(r.Context())
	switch {
	case errors.Is(err, licencia.ErrConexion):
		utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": res.Mensaje})
		return
	case err != nil && !errors.Is(err, licencia.ErrSinLicencia):
		config.LogError(config.GetLogger(), "usuario", "Login", "error verificando licencia", map[string]any{"usuario": user.Username}, err)
		http.Error(w, "error verificando licencia", http.StatusInternalServerError)
		return
	case errors.Is(err, licencia.ErrSinLicencia) && user.IsAdmin:
		// el administrador entra para registrar la clave
	case !res.Valida:
		utils.JSON(w, http.StatusForbidden, map[string]string{"error": res.Mensaje})
		return
	}

	access, err := auth.IssueTokensOnLogin(h.DB, w, user.ID, user.NombreVisible(), user.IsAdmin)
	if err != nil {
		config.LogError(config.GetLogger(), "usuario", "Login", "error generando tokens", map[string]any{"usuario": user.Username}, err)
		http.Error(w, "error generando tokens", http.StatusInternalServerError)
		return
	}
	if err := h.DB.Model(user).Update("ultimo_acceso", time.Now()).Error; err != nil {
		config.LogError(config.GetLogger(), "usuario", "Login", "error guardando último acceso", nil, err)
	}

	utils.JSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"token_type":   "Bearer",
		"expires_in":   int(auth.AccessTTL.Seconds()),
		"licencia":     res.Mensaje,
	})
}

// POST /usuarios
func (h *Handler) Crear(w http.ResponseWriter, r *http.Request) {
	var req CrearRequest
	if err := utils.Decodificar(r, &req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validar(req); err != nil {
		utils.ResponderError(w, err, "", http.StatusBadRequest)
		return
	}
	if _, err := h.Repository.FindByLogin(h.DB, req.Username); err == nil {
		http.Error(w, "el username ya existe", http.StatusConflict)
		return
	}

	hash, err := utils.HashSenha(req.Password)
	if err != nil {
		http.Error(w, "error al procesar contraseña", http.StatusInternalServerError)
		return
	}
	u := Usuario{
		Username: req.Username,
		Nombre:   req.Nombre,
		Email:    req.Email,
		Password: hash,
		IsAdmin:  req.IsAdmin,
		Activo:   true,
	}
	if err := h.Repository.Save(h.DB, &u); err != nil {
		config.LogError(config.GetLogger(), "usuario", "Crear", "error al guardar", nil, err)
		http.Error(w, "error al guardar usuario", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusCreated, u)
}

// GET /usuarios
func (h *Handler) Listar(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repository.ListAll(h.DB)
	if err != nil {
		http.Error(w, "error al listar usuarios", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, list)
}

// GET /usuarios/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Repository.FindByID(h.DB, auth.UsuarioID(r.Context()))
	if err != nil {
		http.Error(w, "usuario no encontrado", http.StatusNotFound)
		return
	}
	utils.JSON(w, http.StatusOK, u)
}

// PUT /usuarios/{id}
func (h *Handler) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	esAdmin := auth.EsAdmin(r.Context())
	if !esAdmin && id != auth.UsuarioID(r.Context()) {
		http.Error(w, "acceso denegado", http.StatusForbidden)
		return
	}

	var req ActualizarRequest
	if err := utils.Decodificar(r, &req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validar(req); err != nil {
		utils.ResponderError(w, err, "", http.StatusBadRequest)
		return
	}
	if !esAdmin && (req.IsAdmin != nil || req.Activo != nil) {
		http.Error(w, "solo un administrador puede cambiar permisos o estado", http.StatusForbidden)
		return
	}

	u, err := h.Repository.Update(h.DB, id, &req)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "usuario no encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "error al actualizar usuario", http.StatusInternalServerError)
		return
	}
	utils.JSON(w, http.StatusOK, u)
}

// PUT /usuarios/me/password
func (h *Handler) CambiarPassword(w http.ResponseWriter, r *http.Request) {
	var req CambioPasswordRequest
	if err := utils.Decodificar(r, &req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	if err := utils.Validar(req); err != nil {
		utils.ResponderError(w, err, "", http.StatusBadRequest)
		return
	}
	u, err := h.Repository.FindByID(h.DB, auth.UsuarioID(r.Context()))
	if err != nil {
		http.Error(w, "usuario no encontrado", http.StatusNotFound)
		return
	}
	if !utils.VerificarSenha(u.Password, req.Actual) {
		http.Error(w, "contraseña actual incorrecta", http.StatusUnauthorized)
		return
	}
	hash, err := utils.HashSenha(req.Nueva)
	if err != nil {
		http.Error(w, "error al procesar contraseña", http.StatusInternalServerError)
		return
	}
	if err := h.DB.Model(u).Update("password", hash).Error; err != nil {
		http.Error(w, "error al guardar contraseña", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /usuarios/{id}
func (h *Handler) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := utils.IDRuta(r, "id")
	if err != nil {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return
	}
	if id == auth.UsuarioID(r.Context()) {
		http.Error(w, "no puede eliminar su propio usuario", http.StatusBadRequest)
		return
	}
	if err := h.Repository.Delete(h.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "usuario no encontrado", http.StatusNotFound)
			return
		}
		http.Error(w, "error al eliminar usuario", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
