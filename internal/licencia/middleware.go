package licencia

import (
	"errors"
	"net/http"
	"strings"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

const (
	HeaderBloqueada = "X-Licencia-Bloqueada"
	HeaderEstado    = "X-Licencia-Estado"
	HeaderMensaje   = "X-Licencia-Mensaje"
)

// Rutas que nunca pasan por la verificación.
var RutasExentas = []string{"/auth/login", "/auth/logout", "/auth/refresh", "/.well-known/", "/licencia"}

func exenta(path string) bool {
	for _, p := range RutasExentas {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func esDashboard(path string) bool {
	return path == "/" || strings.HasPrefix(path, "/dashboard")
}

func mensajeBloqueo(l *models.ClienteLicense, vencida bool) string {
	switch {
	case l.VerificationStatus == EstadoRevocada:
		return "Su licencia ha sido revocada o cancelada. Por favor, contacte al administrador."
	case !l.IsActive && l.VerificationStatus != EstadoExpirada && !vencida:
		return "Su licencia está inactiva. Por favor, contacte al administrador."
	case l.VerificationStatus == EstadoExpirada || vencida:
		f := fechas.Formato(l.ExpirationDate)
		if f == "" {
			f = "N/A"
		}
		return "Su licencia expiró el " + f + ". Por favor, contacte al administrador para renovar."
	case l.VerificationStatus == EstadoInvalida:
		return "Su licencia es inválida. Por favor, contacte al administrador."
	default:
		return "Su licencia no está activa. Por favor, contacte al administrador."
	}
}

// Middleware deja pasar solo con licencia vigente. El dashboard se sirve igual pero marcado
// con cabeceras, salvo con licencia revocada; el resto recibe 403. Una licencia revocada o inactiva se reverifica antes.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if exenta(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		l, err := m.Primaria(ctx)
		if err != nil {
			if !errors.Is(err, ErrSinLicencia) {
				config.LogError(config.GetLogger(), "licencia", "Middleware", "error leyendo licencia", nil, err)
			}
			m.bloquear(w, r, next, EstadoPendiente, "No hay licencia configurada para la organización.")
			return
		}
		if l.VerificationStatus == EstadoRevocada || !l.IsActive {
			if _, err := m.VerificarLicencia(ctx); err != nil {
				config.LogError(config.GetLogger(), "licencia", "Middleware", "reverificación fallida", nil, err)
			}
			if l, err = m.Primaria(ctx); err != nil {
				m.bloquear(w, r, next, EstadoPendiente, "Error verificando la licencia. Por favor, contacte al administrador.")
				return
			}
		}
		ahora := m.Ahora()
		if Vigente(l, ahora) {
			next.ServeHTTP(w, r)
			return
		}
		m.bloquear(w, r, next, l.VerificationStatus, mensajeBloqueo(l, Vencida(l, ahora)))
	})
}

func (m *Manager) bloquear(w http.ResponseWriter, r *http.Request, next http.Handler, estado, msg string) {
	if estado != EstadoRevocada && esDashboard(r.URL.Path) {
		w.Header().Set(HeaderBloqueada, "true")
		w.Header().Set(HeaderEstado, estado)
		w.Header().Set(HeaderMensaje, msg)
		next.ServeHTTP(w, r)
		return
	}
	utils.JSON(w, http.StatusForbidden, map[string]string{"error": msg, "estado": estado})
}
