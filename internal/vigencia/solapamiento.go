package vigencia

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

// Solapamiento describe el choque de una ventana con un Otro Sí aprobado.
type Solapamiento struct {
	Numero  string `json:"numero"`
	Mensaje string `json:"mensaje"`
}

// ValidarSolapamiento compara la ventana [desde, hasta] con los Otro Sí aprobados del contrato.
func ValidarSolapamiento(db *gorm.DB, contratoID uint, desde time.Time, hasta *time.Time, excluirID uint) ([]Solapamiento, error) {
	var existentes []models.OtroSi
	q := db.Where("contrato_id = ? AND estado = ?", contratoID, models.EstadoAprobado)
	if excluirID != 0 {
		q = q.Where("id <> ?", excluirID)
	}
	if err := q.Order("effective_from").Find(&existentes).Error; err != nil {
		return nil, err
	}
	var out []Solapamiento
	for _, o := range existentes {
		if msg := solapa(o.EffectiveFrom, o.EffectiveTo, desde, hasta); msg != "" {
			out = append(out, Solapamiento{Numero: o.NumeroOtroSi, Mensaje: fmt.Sprintf(msg, o.NumeroOtroSi)})
		}
	}
	return out, nil
}

// solapa devuelve un formato de mensaje (con %s para el número) o "" si no hay choque.
func solapa(ini time.Time, fin *time.Time, nIni time.Time, nFin *time.Time) string {
	ini, nIni = fechas.Dia(ini), fechas.Dia(nIni)
	// el nuevo inicia dentro del existente
	if fin == nil {
		if !nIni.Before(ini) {
			return "solapa con %s, que no tiene fecha fin"
		}
	} else if !nIni.Before(ini) && !nIni.After(fechas.Dia(*fin)) {
		return "la fecha de inicio solapa con %s"
	}
	// el nuevo termina dentro del existente
	if nFin != nil {
		nf := fechas.Dia(*nFin)
		if fin == nil {
			if !nf.Before(ini) {
				return "la fecha de fin solapa con %s"
			}
		} else if !nf.Before(ini) && !nf.After(fechas.Dia(*fin)) {
			return "la fecha de fin solapa con %s"
		}
	}
	// el nuevo envuelve al existente
	if fin != nil && !nIni.After(ini) && (nFin == nil || !fechas.Dia(*nFin).Before(fechas.Dia(*fin))) {
		return "el rango envuelve a %s"
	}
	return ""
}
