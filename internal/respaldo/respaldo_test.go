package respaldo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/usuario"
)

var ahora = time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.sqlite3")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	require.NoError(t, db.AutoMigrate(&usuario.Usuario{}))
	return db
}

type subidorFalso struct {
	objetos map[string][]byte
	falla   error
}

func (s *subidorFalso) Subir(_ context.Context, objeto string, r io.Reader, _ string) error {
	if s.falla != nil {
		return s.falla
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	if s.objetos == nil {
		s.objetos = map[string][]byte{}
	}
	s.objetos[objeto] = buf.Bytes()
	return nil
}

func nuevo(db *gorm.DB, s Subidor) *Respaldo {
	r := New(db, s)
	r.Ahora = func() time.Time { return ahora }
	return r
}

func sembrar(t *testing.T, db *gorm.DB) {
	t.Helper()
	c := &models.Contrato{NumContrato: "C-1", Tercero: "Acme", FechaInicialContrato: fechas.Nueva(2024, 1, 1), Vigente: true}
	require.NoError(t, db.Create(c).Error)
	borrado := &models.Contrato{NumContrato: "C-2", Tercero: "Beta", FechaInicialContrato: fechas.Nueva(2024, 1, 1)}
	require.NoError(t, db.Create(borrado).Error)
	require.NoError(t, db.Delete(borrado).Error)
	require.NoError(t, db.Create(&usuario.Usuario{Username: "admin", Password: "hash", IsAdmin: true, Activo: true}).Error)
}

func TestEjecutarAmbosFormatos(t *testing.T) {
	db := newTestDB(t)
	sembrar(t, db)
	dir := t.TempDir()

	res, err := nuevo(db, nil).Ejecutar(context.Background(), Opciones{Dir: dir, Formato: FormatoAmbos})
	require.NoError(t, err)
	require.Len(t, res.Archivos, 2)
	assert.Equal(t, filepath.Join(dir, "backup_20250601_020000.json"), res.Archivos[0])
	assert.Equal(t, filepath.Join(dir, "backup_db_20250601_020000.sqlite3"), res.Archivos[1])

	raw, err := os.ReadFile(res.Archivos[0])
	require.NoError(t, err)
	var v struct {
		Tablas map[string][]map[string]any `json:"tablas"`
	}
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Len(t, v.Tablas["contratos"], 2, "incluye los borrados lógicamente")
	assert.Len(t, v.Tablas["usuarios"], 1)
	assert.Contains(t, v.Tablas, "historial_envio_email")
	_, hayTokens := v.Tablas["refresh_tokens"]
	assert.False(t, hayTokens)

	copia, err := gorm.Open(sqlite.Open(res.Archivos[1]), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	var n int64
	require.NoError(t, copia.Model(&models.Contrato{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestEjecutarFormatoInvalido(t *testing.T) {
	_, err := nuevo(newTestDB(t), nil).Ejecutar(context.Background(), Opciones{Dir: t.TempDir(), Formato: "zip"})
	assert.ErrorIs(t, err, ErrFormato)
}

func TestLimpiarPorAntiguedad(t *testing.T) {
	dir := t.TempDir()
	viejo := filepath.Join(dir, "backup_20250101_000000.json")
	reciente := filepath.Join(dir, "backup_20250530_000000.json")
	ajeno := filepath.Join(dir, "notas.txt")
	for _, p := range []string{viejo, reciente, ajeno} {
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
	}
	require.NoError(t, os.Chtimes(viejo, ahora.AddDate(0, 0, -40), ahora.AddDate(0, 0, -40)))
	require.NoError(t, os.Chtimes(ajeno, ahora.AddDate(0, 0, -40), ahora.AddDate(0, 0, -40)))
	require.NoError(t, os.Chtimes(reciente, ahora.AddDate(0, 0, -2), ahora.AddDate(0, 0, -2)))

	n, err := Limpiar(dir, ahora.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, viejo)
	assert.FileExists(t, reciente)
	assert.FileExists(t, ajeno)
}

func TestEjecutarSubeAlRemoto(t *testing.T) {
	db := newTestDB(t)
	sembrar(t, db)
	s := &subidorFalso{}

	res, err := nuevo(db, s).Ejecutar(context.Background(), Opciones{Dir: t.TempDir(), Formato: FormatoJSON, Remoto: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"backups/backup_20250601_020000.json"}, res.Subidos)
	assert.Contains(t, string(s.objetos["backups/backup_20250601_020000.json"]), `"C-1"`)
}

func TestFalloRemotoConservaCopiaLocal(t *testing.T) {
	db := newTestDB(t)
	s := &subidorFalso{falla: errors.New("sin permisos")}

	res, err := nuevo(db, s).Ejecutar(context.Background(), Opciones{Dir: t.TempDir(), Formato: FormatoJSON, Remoto: true})
	require.NoError(t, err)
	assert.Empty(t, res.Subidos)
	require.Len(t, res.Avisos, 1)
	assert.Contains(t, res.Avisos[0], "sin permisos")
	assert.FileExists(t, res.Archivos[0])
}

func TestRemotoSinDestino(t *testing.T) {
	res, err := nuevo(newTestDB(t), nil).Ejecutar(context.Background(), Opciones{Dir: t.TempDir(), Formato: FormatoJSON, Remoto: true})
	require.NoError(t, err)
	assert.Len(t, res.Avisos, 1)
}
