// Package poliza administra las pólizas aportadas por los terceros y su vencimiento.
package poliza

import (
	"fmt"
	"time"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

const (
	EstadoVigente   = "Vigente"
	EstadoPorVencer = "Por vencer"
	EstadoVencida   = "Vencida"

	DiasPorVencer = 30
)

// VencimientoEfectivo es la fecha que usan alertas y validaciones. Con colchón manda la
// fecha final del documento de origen; sin ella, el vencimiento nominal.
func VencimientoEfectivo(p *models.Poliza) time.Time {
	if p.TieneColchon && p.FechaVencimientoReal != nil {
		return fechas.Dia(*p.FechaVencimientoReal)
	}
	return fechas.Dia(p.FechaVencimiento)
}

// DiasParaVencer es negativo cuando la póliza ya venció.
func DiasParaVencer(p *models.Poliza, hoy time.Time) int {
	return fechas.DiasEntre(hoy, VencimientoEfectivo(p))
}

func Estado(p *models.Poliza, hoy time.Time) string {
	switch d := DiasParaVencer(p, hoy); {
	case d < 0:
		return EstadoVencida
	case d <= DiasPorVencer:
		return EstadoPorVencer
	}
	return EstadoVigente
}

func EstadoLegible(p *models.Poliza, hoy time.Time) string {
	d := DiasParaVencer(p, hoy)
	switch {
	case d < 0:
		return fmt.Sprintf("Vencida hace %d días", -d)
	case d == 0:
		return "Vence hoy"
	}
	return fmt.Sprintf("Vigente - Vence en %d días", d)
}

// NecesitaRenovacion indica si una nueva fecha final del contrato deja la póliza corta.
func NecesitaRenovacion(p *models.Poliza, nuevaFechaFinal time.Time) bool {
	if !p.TieneColchon || p.FechaVencimientoReal == nil {
		return false
	}
	return fechas.Dia(nuevaFechaFinal).After(fechas.Dia(*p.FechaVencimientoReal))
}
