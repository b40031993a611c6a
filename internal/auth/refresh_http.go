package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

const (
	RefreshTTL    = 30 * 24 * time.Hour
	RefreshCookie = "rt"
	rutaCookie    = "/auth"
)

var (
	errRefreshInvalido = errors.New("refresh token inválido")
	errRefreshExpirado = errors.New("refresh token expirado")
	errRefreshReusado  = errors.New("refresh token reutilizado; sesión cerrada")
)

// RespuestaToken es el cuerpo que devuelven login y refresh.
type RespuestaToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func NuevaRespuestaToken(access string) RespuestaToken {
	return RespuestaToken{AccessToken: access, TokenType: "Bearer", ExpiresIn: int(AccessTTL.Seconds())}
}

func nuevoSecreto() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// En la base solo se guarda el hash del secreto.
func hashSecreto(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func cookieRefresh(valor string, exp time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookie,
		Value:    valor,
		Path:     rutaCookie,
		HttpOnly: true,
		Secure:   cookieSecure(),
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

func borrarCookie(w http.ResponseWriter) {
	http.SetCookie(w, cookieRefresh("", time.Time{}, -1))
}

// emitirRefresh guarda un refresh nuevo de la familia; devuelve el registro y el secreto en claro.
func emitirRefresh(tx *gorm.DB, base RefreshToken) (*RefreshToken, string, error) {
	raw, err := nuevoSecreto()
	if err != nil {
		return nil, "", err
	}
	rt := RefreshToken{
		UserID:    base.UserID,
		FamilyID:  base.FamilyID,
		Hash:      hashSecreto(raw),
		Nombre:    base.Nombre,
		IsAdmin:   base.IsAdmin,
		ExpiresAt: time.Now().Add(RefreshTTL),
	}
	if err := tx.Create(&rt).Error; err != nil {
		return nil, "", err
	}
	return &rt, raw, nil
}

// IssueTokensOnLogin se llama después de validar usuario y contraseña. Cada login abre una
// familia nueva de refresh tokens.
func IssueTokensOnLogin(db *gorm.DB, w http.ResponseWriter, userID uint, nombre string, isAdmin bool) (string, error) {
	access, err := GenerateAccessToken(userID, nombre, isAdmin)
	if err != nil {
		return "", err
	}
	base := RefreshToken{UserID: userID, FamilyID: uuid.NewString(), Nombre: nombre, IsAdmin: isAdmin}
	rt, raw, err := emitirRefresh(db, base)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, cookieRefresh(raw, rt.ExpiresAt, 0))
	return access, nil
}

func revocarFamilia(db *gorm.DB, familia string, ahora time.Time) error {
	return db.Model(&RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familia).
		Update("revoked_at", ahora).Error
}

// rotar revoca el refresh presentado y emite otro. Presentar uno ya revocado cierra toda la familia.
func rotar(db *gorm.DB, raw string) (*RefreshToken, string, error) {
	ahora := time.Now()
	var (
		nuevo    *RefreshToken
		nuevoRaw string
		reusado  string
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		var cur RefreshToken
		if err := tx.Where("hash = ?", hashSecreto(raw)).First(&cur).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRefreshInvalido
			}
			return err
		}
		if cur.RevokedAt != nil {
			reusado = cur.FamilyID
			return errRefreshReusado
		}
		if ahora.After(cur.ExpiresAt) {
			return errRefreshExpirado
		}
		if err := tx.Model(&cur).Update("revoked_at", ahora).Error; err != nil {
			return err
		}
		var err error
		nuevo, nuevoRaw, err = emitirRefresh(tx, cur)
		return err
	})
	if reusado != "" {
		if e := revocarFamilia(db, reusado, ahora); e != nil {
			return nil, "", e
		}
	}
	return nuevo, nuevoRaw, err
}

// POST /auth/refresh
func RefreshHTTPHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(RefreshCookie)
		if err != nil || c.Value == "" {
			http.Error(w, "sin refresh token", http.StatusUnauthorized)
			return
		}

		rt, raw, err := rotar(db, c.Value)
		switch {
		case errors.Is(err, errRefreshInvalido), errors.Is(err, errRefreshExpirado), errors.Is(err, errRefreshReusado):
			borrarCookie(w)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		case err != nil:
			config.LogError(config.GetLogger(), "auth", "Refresh", "error rotando refresh token", nil, err)
			borrarCookie(w)
			http.Error(w, "error interno", http.StatusInternalServerError)
			return
		}

		access, err := GenerateAccessToken(rt.UserID, rt.Nombre, rt.IsAdmin)
		if err != nil {
			config.LogError(config.GetLogger(), "auth", "Refresh", "error firmando access token", map[string]any{"usuario": rt.UserID}, err)
			http.Error(w, "error interno", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, cookieRefresh(raw, rt.ExpiresAt, 0))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NuevaRespuestaToken(access))
	}
}

// POST /auth/logout
// Cierra la familia completa del refresh presentado.
func LogoutHTTPHandler(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
			var cur RefreshToken
			if db.Where("hash = ?", hashSecreto(c.Value)).First(&cur).Error == nil {
				if err := revocarFamilia(db, cur.FamilyID, time.Now()); err != nil {
					config.LogError(config.GetLogger(), "auth", "Logout", "error revocando sesión", nil, err)
				}
			}
		}
		borrarCookie(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
