// Package indexacion calcula los ajustes anuales del canon por IPC o por salario mínimo.
package indexacion

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrCanonInvalido = errors.New("el canon anterior debe ser mayor a cero")

	cien = decimal.NewFromInt(100)
)

// Ajuste es el resultado de aplicar un índice al canon.
type Ajuste struct {
	PorcentajeTotal decimal.Decimal `json:"porcentajeTotal"`
	ValorIncremento decimal.Decimal `json:"valorIncremento"`
	NuevoCanon      decimal.Decimal `json:"nuevoCanon"`
}

// CalcularAjuste: nuevo canon = canon * (1 + (indice + puntos) / 100), redondeado a centavos.
func CalcularAjuste(canon, indice, puntos decimal.Decimal) (Ajuste, error) {
	if !canon.IsPositive() {
		return Ajuste{}, ErrCanonInvalido
	}
	pct := indice.Add(puntos)
	nuevo := canon.Mul(decimal.NewFromInt(1).Add(pct.Div(cien))).Round(2)
	return Ajuste{
		PorcentajeTotal: pct,
		ValorIncremento: nuevo.Sub(canon),
		NuevoCanon:      nuevo,
	}, nil
}
