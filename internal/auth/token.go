package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims del access token: id, nombre para auditoría y rol admin.
type Claims struct {
	UserID  uint   `json:"userId"`
	Nombre  string `json:"nombre"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Tiempo de vida del access token
const AccessTTL = 15 * time.Minute

// GenerateAccessToken firma un JWT RS256 con kid, iss, aud, iat, nbf y jti.
func GenerateAccessToken(userID uint, nombre string, isAdmin bool) (string, error) {
	if err := clavesListas(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		UserID:  userID,
		Nombre:  nombre,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    getIssuer(),
			Audience:  []string{getAudience()},
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			ID:        uuid.NewString(),
		},
	}

	tok := jwt.NewWithClaims(signMethod(), claims)
	tok.Header["kid"] = getKID()
	return tok.SignedString(getPriv())
}

// ParseAndValidate valida firma, iss, aud y exp.
func ParseAndValidate(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(getIssuer()),
		jwt.WithAudience(getAudience()),
		jwt.WithExpirationRequired(),
	)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		k, _ := t.Header["kid"].(string)
		if k == "" {
			return nil, errors.New("kid ausente")
		}
		pub, ok := getPub(k)
		if !ok {
			return nil, errors.New("kid desconocido")
		}
		return pub, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("claims inválidas")
	}
	return c, nil
}
