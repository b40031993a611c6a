package email

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/cifrado"
	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

var (
	ErrSinConfiguracion = errors.New("no hay configuración de email activa")
	ErrNoEncontrada     = errors.New("configuración de email no encontrada")
)

type ConfigDTO struct {
	Nombre      string `json:"nombre" validate:"required,max=100"`
	Host        string `json:"host" validate:"required"`
	Puerto      int    `json:"puerto" validate:"required,gte=1,lte=65535"`
	UsarTLS     bool   `json:"usarTls"`
	UsarSSL     bool   `json:"usarSsl"`
	Usuario     string `json:"usuario"`
	Password    string `json:"password"`
	EmailDesde  string `json:"emailDesde" validate:"required,email"`
	NombreDesde string `json:"nombreDesde"`
	Activo      bool   `json:"activo"`
}

// Servicio administra las configuraciones SMTP y arma el Sender de la activa.
type Servicio struct {
	DB       *gorm.DB
	Cifrador *cifrado.Cifrador
	// NuevoSender permite reemplazar el envío SMTP en pruebas.
	NuevoSender func(cfg models.ConfiguracionEmail, password string) Sender
}

func NewServicio(db *gorm.DB, c *cifrado.Cifrador) *Servicio {
	return &Servicio{DB: db, Cifrador: c, NuevoSender: NuevoSMTPSender}
}

func (s *Servicio) Listar(ctx context.Context) ([]models.ConfiguracionEmail, error) {
	var list []models.ConfiguracionEmail
	err := s.DB.WithContext(ctx).Order("activo DESC, id").Find(&list).Error
	return list, err
}

func (s *Servicio) buscar(ctx context.Context, id uint) (*models.ConfiguracionEmail, error) {
	var c models.ConfiguracionEmail
	if err := s.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoEncontrada
		}
		return nil, err
	}
	return &c, nil
}

func (s *Servicio) Obtener(ctx context.Context, id uint) (*models.ConfiguracionEmail, error) {
	return s.buscar(ctx, id)
}

func (s *Servicio) aplicar(c *models.ConfiguracionEmail, in ConfigDTO) error {
	c.Nombre = in.Nombre
	c.Host = in.Host
	c.Puerto = in.Puerto
	c.UsarTLS = in.UsarTLS
	c.UsarSSL = in.UsarSSL
	c.Usuario = in.Usuario
	c.EmailDesde = in.EmailDesde
	c.NombreDesde = in.NombreDesde
	c.Activo = in.Activo
	// password vacío en una edición conserva el actual
	if in.Password != "" {
		enc, err := s.Cifrador.Cifrar(in.Password)
		if err != nil {
			return fmt.Errorf("cifrar password: %w", err)
		}
		c.PasswordCifrado = enc
	}
	return nil
}

func (s *Servicio) Crear(ctx context.Context, in ConfigDTO) (*models.ConfiguracionEmail, error) {
	c := &models.ConfiguracionEmail{}
	if err := s.aplicar(c, in); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Servicio) Actualizar(ctx context.Context, id uint, in ConfigDTO) (*models.ConfiguracionEmail, error) {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.aplicar(c, in); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Servicio) Eliminar(ctx context.Context, id uint) error {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Delete(c).Error
}

// Activa devuelve la configuración marcada como activa.
func (s *Servicio) Activa(ctx context.Context) (*models.ConfiguracionEmail, error) {
	var c models.ConfiguracionEmail
	err := s.DB.WithContext(ctx).Where("activo = ?", true).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSinConfiguracion
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Servicio) senderDe(c *models.ConfiguracionEmail) (Sender, error) {
	pass, err := s.Cifrador.Descifrar(c.PasswordCifrado)
	if err != nil {
		return nil, fmt.Errorf("descifrar password de %q: %w", c.Nombre, err)
	}
	return s.NuevoSender(*c, pass), nil
}

// Enviar usa la configuración activa.
func (s *Servicio) Enviar(ctx context.Context, m Mensaje) error {
	c, err := s.Activa(ctx)
	if err != nil {
		return err
	}
	sender, err := s.senderDe(c)
	if err != nil {
		return err
	}
	return sender.Enviar(ctx, m)
}

// Probar envía un correo de prueba con la configuración indicada, activa o no.
func (s *Servicio) Probar(ctx context.Context, id uint, destino string) error {
	c, err := s.buscar(ctx, id)
	if err != nil {
		return err
	}
	sender, err := s.senderDe(c)
	if err != nil {
		return err
	}
	return sender.Enviar(ctx, Mensaje{
		Para:   []string{destino},
		Asunto: "Prueba de configuración de email",
		HTML:   "<p>La configuración <strong>" + c.Nombre + "</strong> envía correo correctamente.</p>",
		Texto:  "La configuración " + c.Nombre + " envía correo correctamente.",
	})
}

// EncriptarPendientes cifra los passwords que aún están en claro. Devuelve cuántos cambió.
func (s *Servicio) EncriptarPendientes(ctx context.Context) (int, error) {
	var list []models.ConfiguracionEmail
	if err := s.DB.WithContext(ctx).Find(&list).Error; err != nil {
		return 0, err
	}
	n := 0
	for _, c := range list {
		if c.PasswordCifrado == "" || s.Cifrador.EsCifrado(c.PasswordCifrado) {
			continue
		}
		enc, err := s.Cifrador.Cifrar(c.PasswordCifrado)
		if err != nil {
			return n, err
		}
		if err := s.DB.WithContext(ctx).Model(&models.ConfiguracionEmail{}).Where("id = ?", c.ID).
			UpdateColumn("password_cifrado", enc).Error; err != nil {
			return n, err
		}
		config.GetLogger().WithField("configuracion", c.Nombre).Info("password cifrado")
		n++
	}
	return n, nil
}
