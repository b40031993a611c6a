// Package email envía correo por SMTP usando la configuración activa.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	mail "github.com/wneessen/go-mail"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

var ErrSinDestinatarios = errors.New("el mensaje no tiene destinatarios")

// Mensaje es un correo HTML con texto alterno opcional.
type Mensaje struct {
	Para   []string
	Asunto string
	HTML   string
	Texto  string
}

type Sender interface {
	Enviar(ctx context.Context, m Mensaje) error
}

// SMTPSender envía con go-mail. Password ya viene descifrado.
type SMTPSender struct {
	Config   models.ConfiguracionEmail
	Password string
	Timeout  time.Duration
}

func NuevoSMTPSender(cfg models.ConfiguracionEmail, password string) Sender {
	return &SMTPSender{Config: cfg, Password: password, Timeout: 30 * time.Second}
}

func (s *SMTPSender) opciones() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.Config.Puerto),
		mail.WithTimeout(s.Timeout),
	}
	switch {
	case s.Config.UsarSSL:
		opts = append(opts, mail.WithSSL())
	case s.Config.UsarTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.Config.Usuario != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.Config.Usuario),
			mail.WithPassword(s.Password),
		)
	}
	return opts
}

func (s *SMTPSender) armar(m Mensaje) (*mail.Msg, error) {
	msg := mail.NewMsg()
	nombre := s.Config.NombreDesde
	if nombre == "" {
		nombre = s.Config.EmailDesde
	}
	if err := msg.FromFormat(nombre, s.Config.EmailDesde); err != nil {
		return nil, fmt.Errorf("remitente: %w", err)
	}
	if err := msg.To(m.Para...); err != nil {
		return nil, fmt.Errorf("destinatarios: %w", err)
	}
	msg.Subject(m.Asunto)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	if m.Texto != "" {
		msg.AddAlternativeString(mail.TypeTextPlain, m.Texto)
	}
	return msg, nil
}

func (s *SMTPSender) Enviar(ctx context.Context, m Mensaje) error {
	if len(m.Para) == 0 {
		return ErrSinDestinatarios
	}
	msg, err := s.armar(m)
	if err != nil {
		return err
	}
	c, err := mail.NewClient(s.Config.Host, s.opciones()...)
	if err != nil {
		return fmt.Errorf("cliente smtp: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("enviar a %v: %w", m.Para, err)
	}
	return nil
}
