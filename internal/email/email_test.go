package email

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/wneessen/go-mail"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KromaEnergia/api-contratos/internal/cifrado"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

type fakeSender struct {
	password string
	enviados []Mensaje
	err      error
}

func (f *fakeSender) Enviar(_ context.Context, m Mensaje) error {
	if f.err != nil {
		return f.err
	}
	f.enviados = append(f.enviados, m)
	return nil
}

func newServicio(t *testing.T) (*Servicio, *fakeSender) {
	t.Helper()
	clave, err := cifrado.GenerarClave()
	require.NoError(t, err)
	c, err := cifrado.NuevoCifrador(clave, "")
	require.NoError(t, err)
	fake := &fakeSender{}
	s := NewServicio(newTestDB(t), c)
	s.NuevoSender = func(_ models.ConfiguracionEmail, password string) Sender {
		fake.password = password
		return fake
	}
	return s, fake
}

func dto(nombre string, activo bool) ConfigDTO {
	return ConfigDTO{
		Nombre: nombre, Host: "smtp.ejemplo.co", Puerto: 587, UsarTLS: true,
		Usuario: "alertas@ejemplo.co", Password: "s3creta",
		EmailDesde: "alertas@ejemplo.co", NombreDesde: "Contratos", Activo: activo,
	}
}

func TestCrearCifraPassword(t *testing.T) {
	s, fake := newServicio(t)
	ctx := context.Background()

	c, err := s.Crear(ctx, dto("principal", true))
	require.NoError(t, err)
	assert.NotEmpty(t, c.PasswordCifrado)
	assert.NotEqual(t, "s3creta", c.PasswordCifrado)

	require.NoError(t, s.Enviar(ctx, Mensaje{Para: []string{"a@b.co"}, Asunto: "x", HTML: "<p>x</p>"}))
	assert.Equal(t, "s3creta", fake.password)
	require.Len(t, fake.enviados, 1)
}

func TestActualizarSinPasswordConservaElActual(t *testing.T) {
	s, _ := newServicio(t)
	ctx := context.Background()
	c, err := s.Crear(ctx, dto("principal", true))
	require.NoError(t, err)
	antes := c.PasswordCifrado

	in := dto("principal editada", true)
	in.Password = ""
	c2, err := s.Actualizar(ctx, c.ID, in)
	require.NoError(t, err)
	assert.Equal(t, antes, c2.PasswordCifrado)
	assert.Equal(t, "principal editada", c2.Nombre)

	_, err = s.Actualizar(ctx, 999, in)
	assert.ErrorIs(t, err, ErrNoEncontrada)
}

func TestSoloUnaConfiguracionActiva(t *testing.T) {
	s, _ := newServicio(t)
	ctx := context.Background()
	a, err := s.Crear(ctx, dto("a", true))
	require.NoError(t, err)
	b, err := s.Crear(ctx, dto("b", true))
	require.NoError(t, err)

	activa, err := s.Activa(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, activa.ID)

	got, err := s.Obtener(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Activo)
}

func TestEnviarSinConfiguracionActiva(t *testing.T) {
	s, _ := newServicio(t)
	_, err := s.Crear(context.Background(), dto("inactiva", false))
	require.NoError(t, err)
	err = s.Enviar(context.Background(), Mensaje{Para: []string{"a@b.co"}})
	assert.ErrorIs(t, err, ErrSinConfiguracion)
}

func TestEncriptarPendientes(t *testing.T) {
	s, fake := newServicio(t)
	ctx := context.Background()
	plano := models.ConfiguracionEmail{Nombre: "vieja", Host: "h", Puerto: 25, EmailDesde: "x@y.co", PasswordCifrado: "en-claro", Activo: true}
	require.NoError(t, s.DB.Create(&plano).Error)
	_, err := s.Crear(ctx, dto("nueva", false))
	require.NoError(t, err)

	n, err := s.EncriptarPendientes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.EncriptarPendientes(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Enviar(ctx, Mensaje{Para: []string{"a@b.co"}}))
	assert.Equal(t, "en-claro", fake.password)
}

func TestSMTPSenderSinDestinatarios(t *testing.T) {
	s := NuevoSMTPSender(models.ConfiguracionEmail{Host: "localhost", Puerto: 25, EmailDesde: "x@y.co"}, "")
	err := s.Enviar(context.Background(), Mensaje{Asunto: "x"})
	assert.ErrorIs(t, err, ErrSinDestinatarios)
}

func TestSMTPSenderArmaMensaje(t *testing.T) {
	s := &SMTPSender{Config: models.ConfiguracionEmail{EmailDesde: "alertas@ejemplo.co", NombreDesde: "Contratos"}}
	msg, err := s.armar(Mensaje{Para: []string{"a@b.co"}, Asunto: "Hola", HTML: "<p>x</p>", Texto: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hola"}, msg.GetGenHeader(mail.HeaderSubject))

	_, err = s.armar(Mensaje{Para: []string{"no es correo"}})
	assert.Error(t, err)
}

func TestHandlerProbar(t *testing.T) {
	s, fake := newServicio(t)
	c, err := s.Crear(context.Background(), dto("principal", false))
	require.NoError(t, err)

	r := mux.NewRouter()
	r.HandleFunc("/configuracion-email/{id}/probar", NewHandler(s).Probar).Methods(http.MethodPost)

	req := httptest.NewRequest(http.MethodPost, "/configuracion-email/"+itoa(c.ID)+"/probar", strings.NewReader(`{"destino":"yo@ejemplo.co"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.enviados, 1)
	assert.Equal(t, []string{"yo@ejemplo.co"}, fake.enviados[0].Para)

	fake.err = errors.New("535 auth failed")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/configuracion-email/"+itoa(c.ID)+"/probar", strings.NewReader(`{"destino":"yo@ejemplo.co"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "535")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/configuracion-email/"+itoa(c.ID)+"/probar", strings.NewReader(`{"destino":"nada"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(n uint) string { return strconv.FormatUint(uint64(n), 10) }
