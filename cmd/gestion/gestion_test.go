package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/cifrado"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/indexacion"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/usuario"
	dbpkg "github.com/KromaEnergia/api-contratos/internal/utils/db"
)

func entorno(t *testing.T) (*config.Config, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "db.sqlite3")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, dbpkg.Migrate(db))

	clave, err := cifrado.GenerarClave()
	require.NoError(t, err)
	cfg := &config.Config{
		BackupDir: filepath.Join(t.TempDir(), "backups"), BackupKeepDays: 30,
		EncryptionKey: clave, LicenseTimeout: time.Second,
	}

	orig := abrir
	abrir = func(context.Context) (*config.Config, *gorm.DB, error) { return cfg, db, nil }
	t.Cleanup(func() { abrir = orig })
	return cfg, db
}

func ejecutar(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBackup(t *testing.T) {
	cfg, db := entorno(t)
	require.NoError(t, db.Create(&models.Contrato{NumContrato: "C-1", Tercero: "Acme", FechaInicialContrato: fechas.Nueva(2024, 1, 1)}).Error)

	out, err := ejecutar(t, "backup", "--format", "json")
	require.NoError(t, err, out)
	assert.Contains(t, out, "creado:")

	entradas, err := os.ReadDir(cfg.BackupDir)
	require.NoError(t, err)
	require.Len(t, entradas, 1)
	assert.Regexp(t, `^backup_\d{8}_\d{6}\.json$`, entradas[0].Name())

	out, err = ejecutar(t, "backup", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "aviso:")

	_, err = ejecutar(t, "backup", "--format", "zip")
	assert.Error(t, err)
}

func TestConfigurarAlertasDefault(t *testing.T) {
	_, db := entorno(t)

	out, err := ejecutar(t, "configurar-alertas-default", "--dias", "0,3", "--hora", "07:30",
		"--destinatario-email", "gerencia@acme.co", "--destinatario-nombre", "Gerencia")
	require.NoError(t, err, out)
	assert.Contains(t, out, "creadas: 8")

	var cfgs []models.ConfiguracionAlerta
	require.NoError(t, db.Preload("Destinatarios").Find(&cfgs).Error)
	require.Len(t, cfgs, len(models.TiposAlerta))
	for _, c := range cfgs {
		assert.Equal(t, "07:30", c.HoraEnvio)
		require.Len(t, c.Destinatarios, 1)
		assert.Equal(t, "gerencia@acme.co", c.Destinatarios[0].Email)
	}

	out, err = ejecutar(t, "configurar-alertas-default", "--destinatario-email", "gerencia@acme.co")
	require.NoError(t, err)
	assert.Contains(t, out, "creadas: 0, actualizadas: 0")
	assert.Contains(t, out, "agregado a 0")
}

func TestEnviarAlertasTipoDesconocido(t *testing.T) {
	entorno(t)
	_, err := ejecutar(t, "enviar-alertas", "--tipo", "NO_EXISTE")
	assert.ErrorContains(t, err, "tipo de alerta desconocido")

	_, err = ejecutar(t, "enviar-alertas", "--fecha", "mañana")
	assert.Error(t, err)
}

func TestEnviarAlertasSinConfiguracion(t *testing.T) {
	entorno(t)
	out, err := ejecutar(t, "enviar-alertas", "--tipo", models.AlertaIPC, "--forzar")
	require.NoError(t, err, out)
	assert.Contains(t, out, "sin configuración")
}

func TestInicializarIPC(t *testing.T) {
	_, db := entorno(t)
	out, err := ejecutar(t, "inicializar-ipc")
	require.NoError(t, err)
	assert.Contains(t, out, "15 creado(s)")

	var n int64
	require.NoError(t, db.Model(&models.IPCHistorico{}).Count(&n).Error)
	assert.EqualValues(t, len(indexacion.IPCDane), n)
}

func TestCrearClausulasIniciales(t *testing.T) {
	_, db := entorno(t)
	out, err := ejecutar(t, "crear-clausulas-iniciales")
	require.NoError(t, err)
	assert.Contains(t, out, "15 creada(s)")

	out, err = ejecutar(t, "crear-clausulas-iniciales")
	require.NoError(t, err)
	assert.Contains(t, out, "0 creada(s), 15 actualizada(s)")

	var n int64
	require.NoError(t, db.Model(&models.Clausula{}).Where("activa = ?", true).Count(&n).Error)
	assert.EqualValues(t, 15, n)
}

func TestEncriptarPasswords(t *testing.T) {
	cfg, db := entorno(t)
	require.NoError(t, db.Create(&models.ConfiguracionEmail{Nombre: "smtp", PasswordCifrado: "en-claro"}).Error)

	out, err := ejecutar(t, "encriptar-passwords")
	require.NoError(t, err, out)
	assert.Contains(t, out, "passwords cifrados: 1")

	var c models.ConfiguracionEmail
	require.NoError(t, db.First(&c).Error)
	cif, err := cifrado.DesdeConfig(cfg)
	require.NoError(t, err)
	plano, err := cif.Descifrar(c.PasswordCifrado)
	require.NoError(t, err)
	assert.Equal(t, "en-claro", plano)

	out, err = ejecutar(t, "encriptar-passwords", "--generar-clave")
	require.NoError(t, err)
	assert.Contains(t, out, "ENCRYPTION_KEY=")
}

func TestVerificarLicencia(t *testing.T) {
	cfg, db := entorno(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok","licenseData":{"status":"ACTIVE","customerName":"Acme","expirationDate":{"_seconds":4102444800}}}`))
	}))
	t.Cleanup(srv.Close)
	cfg.LicenseURL = srv.URL

	_, err := ejecutar(t, "verificar-licencia")
	assert.ErrorContains(t, err, "--clave")

	out, err := ejecutar(t, "verificar-licencia", "--clave", "KEY-1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "cliente: Acme")

	var l models.ClienteLicense
	require.NoError(t, db.First(&l).Error)
	assert.True(t, l.IsPrimary)
	assert.True(t, l.IsActive)
}

func TestCrearAdmin(t *testing.T) {
	_, db := entorno(t)

	out, err := ejecutar(t, "crear-admin", "--username", "root", "--email", "root@acme.co", "--password", "clave-larga-1")
	require.NoError(t, err)
	assert.Contains(t, out, "creado")

	var u usuario.Usuario
	require.NoError(t, db.Where("username = ?", "root").First(&u).Error)
	assert.True(t, u.IsAdmin)

	_, err = ejecutar(t, "crear-admin", "--username", "otro", "--password", "corta")
	assert.ErrorIs(t, err, usuario.ErrPasswordCorta)

	t.Setenv("ADMIN_PASSWORD", "")
	out, err = ejecutar(t, "crear-admin", "--username", "soporte")
	require.NoError(t, err)
	assert.Regexp(t, `contraseña temporal: \S{16}`, out)
}
