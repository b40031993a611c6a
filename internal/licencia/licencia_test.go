package licencia

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

var ahora = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

// proveedor levanta un servidor que responde siempre lo mismo y cuenta las llamadas.
func proveedor(t *testing.T, status int, body string) (*Cliente, *int) {
	t.Helper()
	llamadas := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		llamadas++
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.NotEmpty(t, in["key"])
		assert.Equal(t, "fp-test", in["fingerprint"])
		assert.Equal(t, VersionSoftware, in["softwareVersion"])
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return &Cliente{URL: srv.URL, HTTP: srv.Client(), Fingerprint: "fp-test", Version: VersionSoftware}, &llamadas
}

func nuevoManager(db *gorm.DB, c Verificador) *Manager {
	m := NewManager(db, c)
	m.Ahora = func() time.Time { return ahora }
	return m
}

func licenciaPrimaria(t *testing.T, db *gorm.DB, estado string, activa bool) *models.ClienteLicense {
	t.Helper()
	l := &models.ClienteLicense{LicenseKey: "KEY-123", IsPrimary: true, VerificationStatus: estado, IsActive: activa}
	require.NoError(t, db.Create(l).Error)
	return l
}

func recargar(t *testing.T, db *gorm.DB, id uint) models.ClienteLicense {
	t.Helper()
	var l models.ClienteLicense
	require.NoError(t, db.First(&l, id).Error)
	return l
}

func TestClienteInterpretaRespuestas(t *testing.T) {
	casos := []struct {
		nombre  string
		status  int
		body    string
		valida  bool
		mensaje string
		datos   bool
	}{
		{"activa", 200, `{"message":"ok","licenseData":{"status":"ACTIVE","customerName":"Acme"}}`, true, "ok", true},
		{"revocada", 200, `{"licenseData":{"status":"revocada"}}`, false, "Licencia revocada o cancelada", true},
		{"deshabilitada", 200, `{"licenseData":{"status":"ACTIVE","isEnabled":false}}`, false, "Licencia deshabilitada", true},
		{"sin datos", 200, `{"message":"ok"}`, false, "No se recibieron datos de licencia", false},
		{"error anidado", 400, `{"error":{"message":"Clave inválida"}}`, false, "Clave inválida", false},
		{"error plano", 403, `{"message":"License expired"}`, false, "License expired", false},
		{"error sin json", 500, `boom`, false, "Error del servidor (500): boom", false},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			cli, n := proveedor(t, c.status, c.body)
			resp, err := cli.Verificar(context.Background(), "KEY-123")
			require.NoError(t, err)
			assert.Equal(t, 1, *n)
			assert.Equal(t, c.valida, resp.Valida)
			assert.Equal(t, c.mensaje, resp.Mensaje)
			assert.Equal(t, c.datos, resp.Datos != nil)
		})
	}
}

func TestVencimientoFormatos(t *testing.T) {
	d := Datos{ExpirationDate: json.RawMessage(`{"_seconds":1767225600,"_nanoseconds":0}`)}
	v, ok := d.Vencimiento()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *v)

	d = Datos{ExpirationDate: json.RawMessage(`1767225600`)}
	v, ok = d.Vencimiento()
	require.True(t, ok)
	assert.Equal(t, 2026, v.Year())

	d = Datos{ExpirationDate: json.RawMessage(`"2026-01-01"`)}
	_, ok = d.Vencimiento()
	assert.False(t, ok)
}

func TestVerificarLicenciaMapeaEstados(t *testing.T) {
	casos := []struct {
		nombre string
		status int
		body   string
		estado string
		activa bool
		valida bool
	}{
		{"vigente con fecha", 200, `{"licenseData":{"status":"ACTIVA","customerName":"Acme","expirationDate":{"_seconds":1767225600}}}`, EstadoValida, true, true},
		{"activa sin fecha", 200, `{"licenseData":{"status":"ACTIVE"}}`, EstadoValida, true, true},
		{"sin estado ni fecha", 200, `{"licenseData":{"status":""}}`, EstadoInvalida, false, false},
		{"fecha pasada", 200, `{"licenseData":{"status":"ACTIVE","expirationDate":1704067200}}`, EstadoExpirada, false, false},
		{"expirada en proveedor", 200, `{"licenseData":{"status":"EXPIRED","expirationDate":1767225600}}`, EstadoExpirada, false, false},
		{"revocada", 200, `{"licenseData":{"status":"REVOKED"}}`, EstadoRevocada, false, false},
		{"deshabilitada", 200, `{"licenseData":{"status":"ACTIVE","isEnabled":false}}`, EstadoRevocada, false, false},
		{"403", 403, `{}`, EstadoExpirada, false, false},
		{"rechazo", 400, `{"message":"clave desconocida"}`, EstadoInvalida, false, false},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			db := newTestDB(t)
			l := licenciaPrimaria(t, db, EstadoPendiente, false)
			cli, _ := proveedor(t, c.status, c.body)

			res, err := nuevoManager(db, cli).VerificarLicencia(context.Background())
			require.NoError(t, err)
			assert.Equal(t, c.valida, res.Valida, res.Mensaje)

			got := recargar(t, db, l.ID)
			assert.Equal(t, c.estado, got.VerificationStatus)
			assert.Equal(t, c.activa, got.IsActive)
			require.NotNil(t, got.LastVerification)
			assert.True(t, got.LastVerification.Equal(ahora))
		})
	}
}

func TestVerificarLicenciaActualizaCliente(t *testing.T) {
	db := newTestDB(t)
	l := licenciaPrimaria(t, db, EstadoPendiente, false)
	cli, _ := proveedor(t, 200, `{"licenseData":{"status":"ACTIVE","customerName":"Acme SAS","customerEmail":"ti@acme.co","expirationDate":{"_seconds":1767225600}}}`)

	res, err := nuevoManager(db, cli).VerificarLicencia(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Mensaje, "Licencia vigente - Vence en")

	got := recargar(t, db, l.ID)
	assert.Equal(t, "Acme SAS", got.CustomerName)
	assert.Equal(t, "ti@acme.co", got.CustomerEmail)
	require.NotNil(t, got.ExpirationDate)
	assert.Equal(t, 2026, got.ExpirationDate.Year())
}

func TestEstadoSoloCambiaConRespuestaExterna(t *testing.T) {
	db := newTestDB(t)
	l := licenciaPrimaria(t, db, EstadoValida, true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	cli := &Cliente{URL: url, HTTP: &http.Client{Timeout: time.Second}, Fingerprint: "fp", Version: VersionSoftware}

	_, err := nuevoManager(db, cli).VerificarLicencia(context.Background())
	require.ErrorIs(t, err, ErrConexion)

	got := recargar(t, db, l.ID)
	assert.Equal(t, EstadoValida, got.VerificationStatus)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastVerification)

	// Tampoco cambia con el paso del tiempo mientras nadie consulte.
	m := nuevoManager(db, cli)
	m.Ahora = func() time.Time { return ahora.AddDate(5, 0, 0) }
	p, err := m.Primaria(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EstadoValida, p.VerificationStatus)
}

func TestSinLicenciaConfigurada(t *testing.T) {
	cli, n := proveedor(t, 200, `{}`)
	_, err := nuevoManager(newTestDB(t), cli).VerificarLicencia(context.Background())
	assert.ErrorIs(t, err, ErrSinLicencia)
	assert.Zero(t, *n)
}

func TestRegistrarDejaUnaPrimaria(t *testing.T) {
	db := newTestDB(t)
	cli, _ := proveedor(t, 200, `{}`)
	m := nuevoManager(db, cli)

	a, err := m.Registrar(context.Background(), "KEY-A")
	require.NoError(t, err)
	b, err := m.Registrar(context.Background(), " KEY-B ")
	require.NoError(t, err)
	assert.Equal(t, "KEY-B", b.LicenseKey)
	assert.Equal(t, EstadoPendiente, b.VerificationStatus)

	p, err := m.Primaria(context.Background())
	require.NoError(t, err)
	assert.Equal(t, b.ID, p.ID)
	assert.False(t, recargar(t, db, a.ID).IsPrimary)

	_, err = m.Registrar(context.Background(), "  ")
	assert.Error(t, err)
}

func servir(m *Manager, metodo, path string) *httptest.ResponseRecorder {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()
	m.Middleware(ok).ServeHTTP(rec, httptest.NewRequest(metodo, path, nil))
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Run("vigente deja pasar", func(t *testing.T) {
		db := newTestDB(t)
		licenciaPrimaria(t, db, EstadoValida, true)
		cli, n := proveedor(t, 200, `{}`)
		rec := servir(nuevoManager(db, cli), http.MethodGet, "/contratos")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, *n)
	})

	t.Run("rutas exentas", func(t *testing.T) {
		db := newTestDB(t)
		cli, _ := proveedor(t, 200, `{}`)
		m := nuevoManager(db, cli)
		for _, p := range []string{"/auth/login", "/auth/logout", "/.well-known/jwks.json", "/licencia"} {
			assert.Equal(t, http.StatusOK, servir(m, http.MethodPost, p).Code, p)
		}
	})

	t.Run("sin licencia bloquea", func(t *testing.T) {
		cli, _ := proveedor(t, 200, `{}`)
		rec := servir(nuevoManager(newTestDB(t), cli), http.MethodGet, "/contratos")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "No hay licencia configurada")
	})

	t.Run("expirada bloquea sin reverificar", func(t *testing.T) {
		db := newTestDB(t)
		l := licenciaPrimaria(t, db, EstadoValida, true)
		venc := ahora.AddDate(0, 0, -3)
		require.NoError(t, db.Model(l).Update("expiration_date", venc).Error)
		cli, n := proveedor(t, 200, `{}`)

		rec := servir(nuevoManager(db, cli), http.MethodGet, "/contratos")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "expiró el 29/05/2025")
		assert.Zero(t, *n)
		assert.Equal(t, EstadoValida, recargar(t, db, l.ID).VerificationStatus)
	})

	t.Run("dashboard se marca", func(t *testing.T) {
		db := newTestDB(t)
		licenciaPrimaria(t, db, EstadoInvalida, true)
		cli, _ := proveedor(t, 200, `{}`)
		rec := servir(nuevoManager(db, cli), http.MethodGet, "/dashboard")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get(HeaderBloqueada))
		assert.Equal(t, EstadoInvalida, rec.Header().Get(HeaderEstado))
	})

	t.Run("revocada reverifica y se recupera", func(t *testing.T) {
		db := newTestDB(t)
		l := licenciaPrimaria(t, db, EstadoRevocada, false)
		cli, n := proveedor(t, 200, `{"licenseData":{"status":"ACTIVE"}}`)
		rec := servir(nuevoManager(db, cli), http.MethodGet, "/contratos")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, *n)
		assert.Equal(t, EstadoValida, recargar(t, db, l.ID).VerificationStatus)
	})

	t.Run("revocada sigue revocada", func(t *testing.T) {
		db := newTestDB(t)
		licenciaPrimaria(t, db, EstadoRevocada, false)
		cli, n := proveedor(t, 200, `{"licenseData":{"status":"REVOKED"}}`)
		rec := servir(nuevoManager(db, cli), http.MethodGet, "/contratos")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "revocada")
		assert.Equal(t, 1, *n)
	})

	t.Run("revocada en dashboard", func(t *testing.T) {
		db := newTestDB(t)
		licenciaPrimaria(t, db, EstadoRevocada, false)
		cli, _ := proveedor(t, 200, `{"licenseData":{"status":"REVOKED"}}`)
		rec := servir(nuevoManager(db, cli), http.MethodGet, "/dashboard")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get(HeaderBloqueada))
		assert.Contains(t, rec.Body.String(), "revocada")
	})
}

func TestHandlerVerificarSinConexion(t *testing.T) {
	db := newTestDB(t)
	licenciaPrimaria(t, db, EstadoValida, true)
	cli := &Cliente{URL: "http://127.0.0.1:1", HTTP: &http.Client{Timeout: time.Second}, Fingerprint: "fp", Version: VersionSoftware}
	h := NewHandler(nuevoManager(db, cli))

	rec := httptest.NewRecorder()
	h.Verificar(rec, httptest.NewRequest(http.MethodPost, "/licencia/verificar", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	h.Estado(rec, httptest.NewRequest(http.MethodGet, "/licencia", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, true, out["vigente"])
	assert.Equal(t, EstadoValida, out["estado"])
}
