package alertas

import (
	"context"
	"errors"
	"regexp"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

var (
	ErrConfigNoEncontrada       = errors.New("configuración de alerta no encontrada")
	ErrDestinatarioNoEncontrado = errors.New("destinatario no encontrado")
	ErrDestinatarioDuplicado    = errors.New("el destinatario ya está registrado en esta alerta")

	horaValida = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

type ConfigDTO struct {
	TipoAlerta   string `json:"tipoAlerta" validate:"required"`
	Activo       bool   `json:"activo"`
	Frecuencia   string `json:"frecuencia" validate:"required,oneof=INMEDIATO DIARIO SEMANAL MENSUAL"`
	DiasSemana   []int  `json:"diasSemana" validate:"dive,gte=0,lte=6"`
	HoraEnvio    string `json:"horaEnvio"`
	SoloCriticas bool   `json:"soloCriticas"`
	Asunto       string `json:"asunto" validate:"max=200"`
}

func (in *ConfigDTO) Validar() error {
	if _, ok := models.NombresAlerta[in.TipoAlerta]; !ok {
		return utils.NuevoErrValidacion("tipoAlerta", "tipo de alerta desconocido")
	}
	if in.Frecuencia == models.FrecuenciaSemanal && len(in.DiasSemana) == 0 {
		return utils.NuevoErrValidacion("diasSemana", "la frecuencia semanal requiere al menos un día")
	}
	if in.HoraEnvio != "" && !horaValida.MatchString(in.HoraEnvio) {
		return utils.NuevoErrValidacion("horaEnvio", "use HH:MM")
	}
	return nil
}

func (in *ConfigDTO) aplicar(c *models.ConfiguracionAlerta) {
	c.TipoAlerta = in.TipoAlerta
	c.Activo = in.Activo
	c.Frecuencia = in.Frecuencia
	c.DiasSemana = in.DiasSemana
	if in.Frecuencia != models.FrecuenciaSemanal {
		c.DiasSemana = nil
	}
	c.HoraEnvio = in.HoraEnvio
	if c.HoraEnvio == "" {
		c.HoraEnvio = "08:00"
	}
	c.SoloCriticas = in.SoloCriticas
	c.Asunto = in.Asunto
}

type DestinatarioDTO struct {
	Nombre string `json:"nombre" validate:"max=200"`
	Email  string `json:"email" validate:"required,email"`
	Activo *bool  `json:"activo"`
}

// Configuraciones administra ConfiguracionAlerta, sus destinatarios y el historial.
type Configuraciones struct {
	DB *gorm.DB
}

func (s *Configuraciones) Listar(ctx context.Context) ([]models.ConfiguracionAlerta, error) {
	var list []models.ConfiguracionAlerta
	err := s.DB.WithContext(ctx).Preload("Destinatarios").Order("tipo_alerta").Find(&list).Error
	return list, err
}

func (s *Configuraciones) Obtener(ctx context.Context, id uint) (*models.ConfiguracionAlerta, error) {
	var c models.ConfiguracionAlerta
	err := s.DB.WithContext(ctx).Preload("Destinatarios").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConfigNoEncontrada
	}
	return &c, err
}

// Guardar crea la configuración del tipo o actualiza la existente.
func (s *Configuraciones) Guardar(ctx context.Context, in ConfigDTO) (*models.ConfiguracionAlerta, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	var c models.ConfiguracionAlerta
	err := db.Where("tipo_alerta = ?", in.TipoAlerta).First(&c).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	in.aplicar(&c)
	if err := db.Save(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Configuraciones) Eliminar(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("configuracion_alerta_id = ?", id).Delete(&models.DestinatarioAlerta{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ConfiguracionAlerta{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConfigNoEncontrada
		}
		return nil
	})
}

func (s *Configuraciones) AgregarDestinatario(ctx context.Context, configID uint, in DestinatarioDTO) (*models.DestinatarioAlerta, error) {
	db := s.DB.WithContext(ctx)
	if _, err := s.Obtener(ctx, configID); err != nil {
		return nil, err
	}
	var n int64
	if err := db.Model(&models.DestinatarioAlerta{}).Where("configuracion_alerta_id = ? AND email = ?", configID, in.Email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDestinatarioDuplicado
	}
	d := &models.DestinatarioAlerta{ConfiguracionAlertaID: configID, Nombre: in.Nombre, Email: in.Email, Activo: true}
	if in.Activo != nil {
		d.Activo = *in.Activo
	}
	if err := db.Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Configuraciones) ActualizarDestinatario(ctx context.Context, id uint, in DestinatarioDTO) (*models.DestinatarioAlerta, error) {
	db := s.DB.WithContext(ctx)
	var d models.DestinatarioAlerta
	if err := db.First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDestinatarioNoEncontrado
		}
		return nil, err
	}
	d.Nombre = in.Nombre
	d.Email = in.Email
	if in.Activo != nil {
		d.Activo = *in.Activo
	}
	if err := db.Save(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Configuraciones) EliminarDestinatario(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.DestinatarioAlerta{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDestinatarioNoEncontrado
	}
	return nil
}

// FiltroHistorial restringe el historial; los campos vacíos no filtran.
type FiltroHistorial struct {
	TipoAlerta string
	Estado     string
	Lote       string
	Limite     int
}

func (s *Configuraciones) Historial(ctx context.Context, f FiltroHistorial) ([]models.HistorialEnvioEmail, error) {
	q := s.DB.WithContext(ctx).Model(&models.HistorialEnvioEmail{})
	if f.TipoAlerta != "" {
		q = q.Where("tipo_alerta = ?", f.TipoAlerta)
	}
	if f.Estado != "" {
		q = q.Where("estado = ?", f.Estado)
	}
	if f.Lote != "" {
		q = q.Where("lote = ?", f.Lote)
	}
	if f.Limite <= 0 || f.Limite > 500 {
		f.Limite = 100
	}
	var list []models.HistorialEnvioEmail
	err := q.Order("created_at DESC, id DESC").Limit(f.Limite).Find(&list).Error
	return list, err
}

// OpcionesDefault parametriza ConfigurarDefault.
type OpcionesDefault struct {
	Frecuencia   string
	DiasSemana   []int
	HoraEnvio    string
	SoloCriticas bool
	Inactivas    bool
	Sobrescribir bool
}

// ConfigurarDefault crea una configuración por cada tipo de alerta. Las existentes solo se
// tocan con Sobrescribir. Devuelve cuántas creó y cuántas actualizó.
func ConfigurarDefault(ctx context.Context, db *gorm.DB, o OpcionesDefault) (creadas, actualizadas int, err error) {
	if o.Frecuencia == "" {
		o.Frecuencia = models.FrecuenciaSemanal
	}
	if !models.Frecuencias[o.Frecuencia] {
		return 0, 0, utils.NuevoErrValidacion("frecuencia", "frecuencia desconocida")
	}
	dias := make([]int, 0, len(o.DiasSemana))
	for _, d := range o.DiasSemana {
		if d >= 0 && d <= 6 {
			dias = append(dias, d)
		}
	}
	if o.Frecuencia == models.FrecuenciaSemanal && len(dias) == 0 {
		dias = []int{0}
	}
	if o.HoraEnvio == "" || !horaValida.MatchString(o.HoraEnvio) {
		o.HoraEnvio = "08:00"
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, tipo := range models.TiposAlerta {
			var c models.ConfiguracionAlerta
			e := tx.Where("tipo_alerta = ?", tipo).First(&c).Error
			existe := e == nil
			if e != nil && !errors.Is(e, gorm.ErrRecordNotFound) {
				return e
			}
			if existe && !o.Sobrescribir {
				continue
			}
			in := ConfigDTO{
				TipoAlerta: tipo, Activo: !o.Inactivas, Frecuencia: o.Frecuencia,
				DiasSemana: dias, HoraEnvio: o.HoraEnvio, SoloCriticas: o.SoloCriticas, Asunto: c.Asunto,
			}
			in.aplicar(&c)
			if err := tx.Save(&c).Error; err != nil {
				return err
			}
			if existe {
				actualizadas++
			} else {
				creadas++
			}
		}
		return nil
	})
	return creadas, actualizadas, err
}

// AgregarDestinatarioATodas suma el correo a cada configuración (solo las activas si se pide).
func AgregarDestinatarioATodas(ctx context.Context, db *gorm.DB, nombre, correo string, soloActivas bool) (int, error) {
	q := db.WithContext(ctx)
	if soloActivas {
		q = q.Where("activo = ?", true)
	}
	var cfgs []models.ConfiguracionAlerta
	if err := q.Find(&cfgs).Error; err != nil {
		return 0, err
	}
	agregados := 0
	for _, c := range cfgs {
		var n int64
		if err := db.WithContext(ctx).Model(&models.DestinatarioAlerta{}).
			Where("configuracion_alerta_id = ? AND email = ?", c.ID, correo).Count(&n).Error; err != nil {
			return agregados, err
		}
		if n > 0 {
			continue
		}
		d := models.DestinatarioAlerta{ConfiguracionAlertaID: c.ID, Nombre: nombre, Email: correo, Activo: true}
		if err := db.WithContext(ctx).Create(&d).Error; err != nil {
			return agregados, err
		}
		agregados++
	}
	return agregados, nil
}
