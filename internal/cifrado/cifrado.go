// Package cifrado protege secretos guardados en base de datos, como la clave SMTP.
package cifrado

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

const (
	iteracionesPBKDF2 = 100000
	saltPBKDF2        = "contratos_salt_fixed"
	largoNonce        = 24
)

var (
	ErrSinClave       = errors.New("ENCRYPTION_KEY debe estar configurada; SECRET_KEY no es utilizable")
	ErrClaveInvalida  = errors.New("ENCRYPTION_KEY inválida: se esperan 32 bytes en base64")
	ErrTextoCorrupto  = errors.New("texto cifrado corrupto o clave incorrecta")
	prefijosInseguros = []string{"django-insecure", "insecure", "changeme", "secret"}
)

type Cifrador struct {
	clave [32]byte
}

// NuevoCifrador usa encryptionKey si viene; si no, deriva la clave de secretKey.
func NuevoCifrador(encryptionKey, secretKey string) (*Cifrador, error) {
	c := &Cifrador{}
	if encryptionKey != "" {
		raw, err := decodificarClave(encryptionKey)
		if err != nil {
			return nil, err
		}
		copy(c.clave[:], raw)
		return c, nil
	}
	if inseguro(secretKey) {
		return nil, ErrSinClave
	}
	copy(c.clave[:], pbkdf2.Key([]byte(secretKey), []byte(saltPBKDF2), iteracionesPBKDF2, 32, sha256.New))
	return c, nil
}

func DesdeConfig(cfg *config.Config) (*Cifrador, error) {
	return NuevoCifrador(cfg.EncryptionKey, cfg.SecretKey)
}

func inseguro(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	l := strings.ToLower(s)
	for _, p := range prefijosInseguros {
		if strings.HasPrefix(l, p) {
			return true
		}
	}
	return false
}

func decodificarClave(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.StdEncoding, base64.RawURLEncoding, base64.RawStdEncoding} {
		if raw, err := enc.DecodeString(s); err == nil && len(raw) == 32 {
			return raw, nil
		}
	}
	return nil, ErrClaveInvalida
}

// Cifrar devuelve nonce||caja en base64 URL; el texto vacío se deja vacío.
func (c *Cifrador) Cifrar(plano string) (string, error) {
	if plano == "" {
		return "", nil
	}
	var nonce [largoNonce]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generar nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plano), &nonce, &c.clave)
	return base64.URLEncoding.EncodeToString(out), nil
}

func (c *Cifrador) Descifrar(cifrado string) (string, error) {
	if cifrado == "" {
		return "", nil
	}
	raw, err := base64.URLEncoding.DecodeString(cifrado)
	if err != nil || len(raw) < largoNonce+secretbox.Overhead {
		return "", ErrTextoCorrupto
	}
	var nonce [largoNonce]byte
	copy(nonce[:], raw[:largoNonce])
	plano, ok := secretbox.Open(nil, raw[largoNonce:], &nonce, &c.clave)
	if !ok {
		return "", ErrTextoCorrupto
	}
	return string(plano), nil
}

// EsCifrado indica si el valor parece producido por Cifrar; sirve para migrar claves en claro.
func (c *Cifrador) EsCifrado(v string) bool {
	_, err := c.Descifrar(v)
	return v != "" && err == nil
}

// GenerarClave crea una ENCRYPTION_KEY nueva.
func GenerarClave() (string, error) {
	var k [32]byte
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(k[:]), nil
}
