package licencia

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

const (
	EstadoPendiente = "pending"
	EstadoValida    = "valid"
	EstadoExpirada  = "expired"
	EstadoInvalida  = "invalid"
	EstadoRevocada  = "revoked"
)

var ErrSinLicencia = errors.New("no hay licencia configurada para la organización")

// Verificador es el proveedor externo de licencias.
type Verificador interface {
	Verificar(ctx context.Context, clave string) (Respuesta, error)
}

type Manager struct {
	DB      *gorm.DB
	Cliente Verificador
	Ahora   func() time.Time
}

func NewManager(db *gorm.DB, c Verificador) *Manager {
	return &Manager{DB: db, Cliente: c, Ahora: time.Now}
}

// Resultado es la decisión de acceso tras una verificación.
type Resultado struct {
	Valida   bool                   `json:"valida"`
	Mensaje  string                 `json:"mensaje"`
	Licencia *models.ClienteLicense `json:"licencia,omitempty"`
}

// Primaria devuelve la licencia compartida por toda la organización.
func (m *Manager) Primaria(ctx context.Context) (*models.ClienteLicense, error) {
	var l models.ClienteLicense
	err := m.DB.WithContext(ctx).Where("is_primary = ?", true).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSinLicencia
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Registrar guarda la clave como licencia primaria en estado pendiente.
func (m *Manager) Registrar(ctx context.Context, clave string) (*models.ClienteLicense, error) {
	clave = strings.TrimSpace(clave)
	if clave == "" {
		return nil, errors.New("la clave de licencia es obligatoria")
	}
	db := m.DB.WithContext(ctx)
	var l models.ClienteLicense
	err := db.Where("license_key = ?", clave).First(&l).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		l = models.ClienteLicense{LicenseKey: clave, VerificationStatus: EstadoPendiente}
	}
	l.IsPrimary = true
	if err := db.Save(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// DiasParaVencer cuenta días calendario hasta la expiración; nil sin fecha.
func DiasParaVencer(l *models.ClienteLicense, ahora time.Time) *int {
	if l.ExpirationDate == nil {
		return nil
	}
	d := int(math.Floor(l.ExpirationDate.Sub(ahora).Hours() / 24))
	return &d
}

func Vencida(l *models.ClienteLicense, ahora time.Time) bool {
	return l.ExpirationDate != nil && ahora.After(*l.ExpirationDate)
}

// Vigente es la condición de acceso completo.
func Vigente(l *models.ClienteLicense, ahora time.Time) bool {
	return l.IsActive && l.VerificationStatus == EstadoValida && !Vencida(l, ahora)
}

// VerificarLicencia consulta al proveedor y actualiza la licencia primaria con su respuesta.
// Sin respuesta del proveedor la licencia queda intacta y se devuelve el error.
func (m *Manager) VerificarLicencia(ctx context.Context) (Resultado, error) {
	l, err := m.Primaria(ctx)
	if err != nil {
		return Resultado{Mensaje: err.Error()}, err
	}
	resp, err := m.Cliente.Verificar(ctx, l.LicenseKey)
	if err != nil {
		return Resultado{Mensaje: resp.Mensaje, Licencia: l}, err
	}

	ahora := m.Ahora()
	aplicar(l, resp, ahora)
	l.LastVerification = &ahora
	l.UltimoMensaje = resp.Mensaje
	if err := m.DB.WithContext(ctx).Save(l).Error; err != nil {
		return Resultado{Mensaje: resp.Mensaje, Licencia: l}, err
	}

	res := Resultado{Licencia: l, Mensaje: resp.Mensaje}
	switch {
	case l.VerificationStatus == EstadoRevocada:
		res.Mensaje = "Licencia revocada o cancelada"
	case l.VerificationStatus == EstadoExpirada || Vencida(l, ahora):
		res.Mensaje = "Licencia expirada"
		if d := DiasParaVencer(l, ahora); d != nil && *d < 0 {
			res.Mensaje = fmt.Sprintf("Licencia expirada hace %d día(s)", -*d)
		}
	case !l.IsActive:
		if resp.Valida {
			res.Mensaje = "Licencia inactiva"
		}
	default:
		res.Valida = resp.Valida
		if d := DiasParaVencer(l, ahora); d != nil {
			res.Mensaje = fmt.Sprintf("Licencia vigente - Vence en %d día(s)", *d)
		}
	}
	config.GetLogger().WithFields(map[string]any{
		"estado": l.VerificationStatus, "activa": l.IsActive, "valida": res.Valida,
	}).Info("licencia verificada")
	return res, nil
}

// aplicar traduce la respuesta del proveedor al estado local.
func aplicar(l *models.ClienteLicense, resp Respuesta, ahora time.Time) {
	if resp.Datos == nil {
		l.IsActive = false
		l.VerificationStatus = EstadoInvalida
		msg := strings.ToLower(resp.Mensaje)
		if resp.Status == http.StatusForbidden || strings.Contains(msg, "expirado") ||
			strings.Contains(msg, "expired") || strings.Contains(msg, "403") {
			l.VerificationStatus = EstadoExpirada
		}
		return
	}

	d := resp.Datos
	if d.CustomerName != "" {
		l.CustomerName = d.CustomerName
	}
	if d.CustomerEmail != "" {
		l.CustomerEmail = d.CustomerEmail
	}
	if t, ok := d.Vencimiento(); ok {
		l.ExpirationDate = t
	}

	estado := d.estado()
	switch {
	case d.revocada():
		l.VerificationStatus, l.IsActive = EstadoRevocada, false
	case l.ExpirationDate != nil && ahora.After(*l.ExpirationDate):
		l.VerificationStatus, l.IsActive = EstadoExpirada, false
	case estado == "EXPIRADA" || estado == "EXPIRED":
		l.VerificationStatus, l.IsActive = EstadoExpirada, false
	case l.ExpirationDate == nil && estado != "ACTIVA" && estado != "ACTIVE":
		l.VerificationStatus, l.IsActive = EstadoInvalida, false
	default:
		l.VerificationStatus, l.IsActive = EstadoValida, true
	}
}
