package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

// claves cuyo valor nunca se escribe en el log
var camposSensibles = []string{"password", "contrasena", "secret", "token", "license_key", "licensekey", "key"}

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
	logg.AddHook(redactorHook{})
}

// SetLevel cambia el nivel global; valores desconocidos se ignoran.
func SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logg.SetLevel(lvl)
	}
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}

// redactorHook reemplaza valores de campos sensibles antes de escribir.
type redactorHook struct{}

func (redactorHook) Levels() []logrus.Level { return logrus.AllLevels }

func (redactorHook) Fire(e *logrus.Entry) error {
	for k, v := range e.Data {
		if EsCampoSensible(k) {
			e.Data[k] = "***"
			continue
		}
		if m, ok := v.(map[string]any); ok {
			e.Data[k] = redactarMapa(m)
		}
	}
	return nil
}

func redactarMapa(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if EsCampoSensible(k) {
			out[k] = "***"
			continue
		}
		out[k] = v
	}
	return out
}

// EsCampoSensible indica si el nombre de un campo contiene datos que no deben loguearse.
func EsCampoSensible(nombre string) bool {
	n := strings.ToLower(nombre)
	for _, s := range camposSensibles {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

// Enmascarar deja visibles solo los últimos cuatro caracteres.
func Enmascarar(valor string) string {
	if len(valor) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(valor)-4) + valor[len(valor)-4:]
}
