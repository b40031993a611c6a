package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	CtxUserID  ctxKey = "usuarioID"
	CtxNombre  ctxKey = "usuarioNombre"
	CtxIsAdmin ctxKey = "isAdmin"
)

func MiddlewareAutenticacion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "Token ausente", http.StatusUnauthorized)
			return
		}
		claims, err := ParseAndValidate(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "Token inválido", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ConUsuario(r.Context(), claims)))
	})
}

// ConUsuario guarda la identidad del token en el contexto.
func ConUsuario(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, CtxUserID, c.UserID)
	ctx = context.WithValue(ctx, CtxNombre, c.Nombre)
	return context.WithValue(ctx, CtxIsAdmin, c.IsAdmin)
}

// NombreUsuario es el nombre que se guarda en los campos de auditoría.
func NombreUsuario(ctx context.Context) string {
	if n, _ := ctx.Value(CtxNombre).(string); n != "" {
		return n
	}
	return "sistema"
}

func UsuarioID(ctx context.Context) uint {
	id, _ := ctx.Value(CtxUserID).(uint)
	return id
}

func EsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(CtxIsAdmin).(bool)
	return ok
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !EsAdmin(r.Context()) {
			http.Error(w, "Acceso denegado (solo administradores)", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
