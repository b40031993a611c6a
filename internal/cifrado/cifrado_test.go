package cifrado

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KromaEnergia/api-contratos/internal/config"
)

func TestCifrarYDescifrar(t *testing.T) {
	clave, err := GenerarClave()
	require.NoError(t, err)
	c, err := NuevoCifrador(clave, "")
	require.NoError(t, err)

	enc, err := c.Cifrar("clave-smtp")
	require.NoError(t, err)
	assert.NotContains(t, enc, "clave-smtp")
	assert.True(t, c.EsCifrado(enc))
	assert.False(t, c.EsCifrado("clave-smtp"))

	plano, err := c.Descifrar(enc)
	require.NoError(t, err)
	assert.Equal(t, "clave-smtp", plano)

	otro, err := c.Cifrar("clave-smtp")
	require.NoError(t, err)
	assert.NotEqual(t, enc, otro, "cada cifrado usa un nonce nuevo")

	vacio, err := c.Cifrar("")
	require.NoError(t, err)
	assert.Empty(t, vacio)
}

func TestDescifrarConOtraClaveFalla(t *testing.T) {
	k1, _ := GenerarClave()
	k2, _ := GenerarClave()
	c1, err := NuevoCifrador(k1, "")
	require.NoError(t, err)
	c2, err := NuevoCifrador(k2, "")
	require.NoError(t, err)

	enc, err := c1.Cifrar("x")
	require.NoError(t, err)
	_, err = c2.Descifrar(enc)
	assert.ErrorIs(t, err, ErrTextoCorrupto)

	_, err = c1.Descifrar("no-es-base64!!")
	assert.ErrorIs(t, err, ErrTextoCorrupto)
}

func TestDerivadaDeSecretKey(t *testing.T) {
	a, err := NuevoCifrador("", "una-llave-larga-de-produccion")
	require.NoError(t, err)
	b, err := NuevoCifrador("", "una-llave-larga-de-produccion")
	require.NoError(t, err)
	enc, err := a.Cifrar("dato")
	require.NoError(t, err)
	plano, err := b.Descifrar(enc)
	require.NoError(t, err)
	assert.Equal(t, "dato", plano)
}

func TestRechazaClavesInseguras(t *testing.T) {
	for _, s := range []string{"", "   ", "django-insecure-abc", "changeme"} {
		_, err := NuevoCifrador("", s)
		assert.ErrorIs(t, err, ErrSinClave, s)
	}
	_, err := NuevoCifrador("corta", "")
	assert.ErrorIs(t, err, ErrClaveInvalida)
	_, err = NuevoCifrador(strings.Repeat("A", 44), "")
	assert.NoError(t, err)
}

func TestDesdeConfig(t *testing.T) {
	clave, _ := GenerarClave()
	c, err := DesdeConfig(&config.Config{EncryptionKey: clave})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
