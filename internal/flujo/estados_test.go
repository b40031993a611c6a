package flujo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

func TestValidarTransicion(t *testing.T) {
	cases := []struct {
		desde, hacia string
		ok           bool
		codigo       string
	}{
		{models.EstadoBorrador, models.EstadoEnRevision, true, ""},
		{models.EstadoBorrador, models.EstadoAprobado, true, ""},
		{models.EstadoBorrador, models.EstadoRechazado, false, "TRANSICION_INVALIDA"},
		{models.EstadoBorrador, models.EstadoAnulado, false, "TRANSICION_INVALIDA"},
		{models.EstadoEnRevision, models.EstadoAprobado, true, ""},
		{models.EstadoEnRevision, models.EstadoRechazado, true, ""},
		{models.EstadoAprobado, models.EstadoAnulado, true, ""},
		{models.EstadoAprobado, models.EstadoBorrador, false, "TRANSICION_INVALIDA"},
		{models.EstadoRechazado, models.EstadoAprobado, false, "TRANSICION_INVALIDA"},
		{models.EstadoAnulado, models.EstadoAprobado, false, "TRANSICION_INVALIDA"},
		{models.EstadoAprobado, models.EstadoAprobado, false, "SIN_CAMBIO"},
		{models.EstadoBorrador, "PUBLICADO", false, "ESTADO_DESCONOCIDO"},
	}
	for _, tc := range cases {
		t.Run(tc.desde+"->"+tc.hacia, func(t *testing.T) {
			err := ValidarTransicion(tc.desde, tc.hacia)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			var te *TransicionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.codigo, te.Codigo)
		})
	}
}

func TestTransicionesPermitidas(t *testing.T) {
	assert.ElementsMatch(t, []string{models.EstadoEnRevision, models.EstadoAprobado}, TransicionesPermitidas(models.EstadoBorrador))
	assert.Empty(t, TransicionesPermitidas(models.EstadoAnulado))
	assert.True(t, Editable(models.EstadoEnRevision))
	assert.False(t, Editable(models.EstadoAprobado))
}
