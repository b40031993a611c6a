// Package licencia consulta al proveedor de licencias y bloquea la API cuando la
// licencia de la organización no está vigente.
package licencia

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

const VersionSoftware = "1.0"

var ErrConexion = errors.New("error de conexión al verificar licencia")

var estadosRevocados = map[string]bool{
	"REVOCADA": true, "REVOKED": true, "CANCELADA": true,
	"CANCELLED": true, "REVOCADO": true, "CANCELADO": true,
}

// Datos es el bloque licenseData que devuelve el proveedor.
type Datos struct {
	ExpirationDate   json.RawMessage `json:"expirationDate"`
	CustomerName     string          `json:"customerName"`
	CustomerEmail    string          `json:"customerEmail"`
	LicenseType      string          `json:"licenseType"`
	ActivationStatus string          `json:"activationStatus"`
	SoftwareVersion  string          `json:"softwareVersion"`
	Status           string          `json:"status"`
	IsEnabled        *bool           `json:"isEnabled"`
}

func (d *Datos) estado() string { return strings.ToUpper(strings.TrimSpace(d.Status)) }

func (d *Datos) habilitada() bool { return d.IsEnabled == nil || *d.IsEnabled }

func (d *Datos) revocada() bool { return estadosRevocados[d.estado()] || !d.habilitada() }

// Vencimiento interpreta expirationDate: {"_seconds": n} o un número de segundos.
func (d *Datos) Vencimiento() (*time.Time, bool) {
	if len(d.ExpirationDate) == 0 || string(d.ExpirationDate) == "null" {
		return nil, false
	}
	var ts struct {
		Seconds *float64 `json:"_seconds"`
	}
	if err := json.Unmarshal(d.ExpirationDate, &ts); err == nil && ts.Seconds != nil {
		t := time.Unix(int64(*ts.Seconds), 0).UTC()
		return &t, true
	}
	var n float64
	if err := json.Unmarshal(d.ExpirationDate, &n); err == nil {
		t := time.Unix(int64(n), 0).UTC()
		return &t, true
	}
	return nil, false
}

// Respuesta es la interpretación de una consulta al proveedor.
type Respuesta struct {
	Valida  bool
	Mensaje string
	Status  int
	Datos   *Datos
}

type respuestaServidor struct {
	Message     string          `json:"message"`
	LicenseData *Datos          `json:"licenseData"`
	Error       json.RawMessage `json:"error"`
}

type Cliente struct {
	URL         string
	HTTP        *http.Client
	Fingerprint string
	Version     string
}

func NuevoCliente(cfg *config.Config) *Cliente {
	return &Cliente{
		URL:         cfg.LicenseURL,
		HTTP:        &http.Client{Timeout: cfg.LicenseTimeout},
		Fingerprint: Fingerprint(),
		Version:     VersionSoftware,
	}
}

// Fingerprint identifica el servidor sin datos de hardware.
func Fingerprint() string {
	host, _ := os.Hostname()
	sum := sha256.Sum256([]byte(fmt.Sprintf("SGC-%s-%s", host, runtime.GOOS)))
	return hex.EncodeToString(sum[:])
}

// Verificar consulta una clave. Un error solo se devuelve cuando no hubo respuesta del proveedor.
func (c *Cliente) Verificar(ctx context.Context, clave string) (Respuesta, error) {
	body, err := json.Marshal(map[string]string{
		"key":             clave,
		"fingerprint":     c.Fingerprint,
		"softwareVersion": c.Version,
	})
	if err != nil {
		return Respuesta{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return Respuesta{}, err
	}
	req.Header.Set("User-Agent", "SistemaGestionContratos/"+c.Version)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		config.LogError(config.GetLogger(), "licencia", "Verificar", "sin respuesta del proveedor", nil, err)
		return Respuesta{Mensaje: ErrConexion.Error()}, fmt.Errorf("%w: %v", ErrConexion, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Respuesta{Mensaje: ErrConexion.Error()}, fmt.Errorf("%w: %v", ErrConexion, err)
	}
	return interpretar(resp.StatusCode, raw), nil
}

func interpretar(status int, raw []byte) Respuesta {
	var rs respuestaServidor
	errJSON := json.Unmarshal(raw, &rs)

	if status < 200 || status >= 300 {
		out := Respuesta{Status: status, Mensaje: fmt.Sprintf("Error del servidor (%d)", status)}
		if errJSON != nil {
			txt := string(raw)
			if len(txt) > 200 {
				txt = txt[:200]
			}
			out.Mensaje = fmt.Sprintf("Error del servidor (%d): %s", status, txt)
			return out
		}
		if len(rs.Error) > 0 {
			var det struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(rs.Error, &det) == nil && det.Message != "" {
				out.Mensaje = det.Message
			}
		} else if rs.Message != "" {
			out.Mensaje = rs.Message
		}
		return out
	}

	if errJSON != nil || rs.LicenseData == nil {
		return Respuesta{Status: status, Mensaje: "No se recibieron datos de licencia"}
	}
	d := rs.LicenseData
	switch {
	case estadosRevocados[d.estado()]:
		return Respuesta{Status: status, Mensaje: "Licencia revocada o cancelada", Datos: d}
	case !d.habilitada():
		return Respuesta{Status: status, Mensaje: "Licencia deshabilitada", Datos: d}
	}
	msg := rs.Message
	if msg == "" {
		msg = "Verificación exitosa"
	}
	return Respuesta{Valida: true, Status: status, Mensaje: msg, Datos: d}
}
