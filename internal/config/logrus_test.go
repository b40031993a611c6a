package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogErrorRedactaCamposSensibles(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(&buf)
	l.AddHook(redactorHook{})

	LogError(l, "licencia", "Verificar", "verificando", map[string]any{
		"license_key": "ABCD-1234",
		"cliente":     "ACME",
	}, errors.New("fallo"))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	data := out["data"].(map[string]any)
	assert.Equal(t, "***", data["license_key"])
	assert.Equal(t, "ACME", data["cliente"])
	assert.Equal(t, "fallo", out["msg"])
	assert.Equal(t, "licencia", out["module"])
}

func TestEnmascarar(t *testing.T) {
	assert.Equal(t, "****", Enmascarar("abc"))
	assert.Equal(t, "*****6789", Enmascarar("123456789"))
}

func TestParseEnvDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	var cfg Config
	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30, cfg.BackupKeepDays)
	assert.Equal(t, "25s", cfg.LicenseTimeout.String())
}
