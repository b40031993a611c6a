package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

var ErrClavesNoConfiguradas = errors.New("claves de firma no configuradas: AUTH_RSA_PRIVATE_PATH/AUTH_KID/AUTH_ISSUER/AUTH_AUDIENCE")

var (
	keysMu sync.RWMutex

	privKey      *rsa.PrivateKey
	pubKeys      = map[string]*rsa.PublicKey{} // kid -> pub
	activeKID    string
	issuer       string
	audience     string
	secureCookie bool
)

// Configurar carga la llave privada RSA indicada en la configuración.
func Configurar(cfg *config.Config) error {
	if cfg.AuthRSAPrivatePath == "" || cfg.AuthKID == "" || cfg.AuthIssuer == "" || cfg.AuthAudience == "" {
		return ErrClavesNoConfiguradas
	}
	b, err := os.ReadFile(cfg.AuthRSAPrivatePath)
	if err != nil {
		return fmt.Errorf("leer llave privada: %w", err)
	}
	pk, err := parsePrivada(b)
	if err != nil {
		return err
	}
	EstablecerClaves(pk, cfg.AuthKID, cfg.AuthIssuer, cfg.AuthAudience)
	keysMu.Lock()
	secureCookie = cfg.CookieSecure
	keysMu.Unlock()
	return nil
}

func parsePrivada(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("no se pudo decodificar el PEM de la llave privada")
	}
	// PKCS#1 o PKCS#8
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return k, nil
	}
	k8, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse llave privada: %w", err)
	}
	pk, ok := k8.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("la llave privada no es RSA")
	}
	return pk, nil
}

// EstablecerClaves fija la llave activa; la pública anterior sigue aceptándose por su kid.
func EstablecerClaves(pk *rsa.PrivateKey, kid, iss, aud string) {
	keysMu.Lock()
	defer keysMu.Unlock()
	privKey = pk
	activeKID = kid
	issuer = iss
	audience = aud
	pubKeys[kid] = &pk.PublicKey
}

func clavesListas() error {
	keysMu.RLock()
	defer keysMu.RUnlock()
	if privKey == nil {
		return ErrClavesNoConfiguradas
	}
	return nil
}

func getPriv() *rsa.PrivateKey {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return privKey
}

func getPub(kid string) (*rsa.PublicKey, bool) {
	keysMu.RLock()
	defer keysMu.RUnlock()
	p, ok := pubKeys[kid]
	return p, ok
}

func getKID() string {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return activeKID
}

func getIssuer() string {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return issuer
}

func getAudience() string {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return audience
}

func cookieSecure() bool {
	keysMu.RLock()
	defer keysMu.RUnlock()
	return secureCookie
}

func signMethod() jwt.SigningMethod { return jwt.SigningMethodRS256 }
