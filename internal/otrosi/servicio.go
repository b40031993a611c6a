// Package otrosi administra los Otro Sí de un contrato y su flujo de aprobación.
package otrosi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/flujo"
	"github.com/KromaEnergia/api-contratos/internal/indexacion"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/poliza"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

const (
	VigenciaVigente   = "VIGENTE"
	VigenciaPendiente = "PENDIENTE"
	VigenciaVencido   = "VENCIDO"
)

var (
	ErrNoEncontrado    = errors.New("Otro Sí no encontrado")
	ErrOtroSiPosterior = errors.New("no se puede eliminar: existen Otro Sí posteriores")
	ErrNoEditable      = errors.New("el Otro Sí ya no se puede editar en su estado actual")
)

// SolapamientoError agrupa los choques de ventana encontrados al aprobar en modo estricto.
type SolapamientoError struct {
	Solapamientos []vigencia.Solapamiento `json:"solapamientos"`
}

func (e *SolapamientoError) Error() string {
	msgs := make([]string, 0, len(e.Solapamientos))
	for _, s := range e.Solapamientos {
		msgs = append(msgs, s.Mensaje)
	}
	return "la vigencia se solapa con otros Otro Sí aprobados: " + strings.Join(msgs, "; ")
}

// AjustadorCalculos actualiza los cálculos de indexación afectados por un Otro Sí aprobado.
type AjustadorCalculos interface {
	ActualizarCalculosPorOtroSi(tx *gorm.DB, o *models.OtroSi, usuario string) (int, error)
}

type Servicio struct {
	DB         *gorm.DB
	Repository Repository
	Ajustador  AjustadorCalculos
	Log        *logrus.Logger
}

func NewServicio(db *gorm.DB) *Servicio {
	return &Servicio{DB: db, Repository: NewRepository(), Ajustador: indexacion.NewServicio(db), Log: config.GetLogger()}
}

// EstadoVigencia clasifica un Otro Sí aprobado respecto a ref; "" si no está aprobado.
func EstadoVigencia(o *models.OtroSi, ref time.Time) string {
	if o.Estado != models.EstadoAprobado {
		return ""
	}
	ref = fechas.Dia(ref)
	switch {
	case o.EffectiveTo != nil && ref.After(fechas.Dia(*o.EffectiveTo)):
		return VigenciaVencido
	case fechas.Dia(o.EffectiveFrom).After(ref):
		return VigenciaPendiente
	}
	return VigenciaVigente
}

func (s *Servicio) buscar(db *gorm.DB, id uint) (*models.OtroSi, error) {
	o, err := s.Repository.BuscarPorID(db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoEncontrado
	}
	return o, err
}

// advertenciaCalculo avisa cuando el Otro Sí cambia el canon en una fecha que ya tiene cálculo de ajuste.
func advertenciaCalculo(db *gorm.DB, o *models.OtroSi) (string, error) {
	if o.NuevoValorCanon == nil && o.NuevoCanonMinimoGarantizado == nil {
		return "", nil
	}
	tipo, existe, err := indexacion.ExisteCalculo(db, o.ContratoID, o.EffectiveFrom)
	if err != nil || !existe {
		return "", err
	}
	return fmt.Sprintf("ya existe un cálculo de %s para el %s; al aprobar se actualizará con el nuevo canon",
		tipo, o.EffectiveFrom.Format("02/01/2006")), nil
}

// Crear numera el documento como OS-n y lo deja en borrador.
func (s *Servicio) Crear(ctx context.Context, contratoID uint, in OtroSiDTO, usuario string) (*Resultado, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	res := &Resultado{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Contrato
		if err := tx.First(&c, contratoID).Error; err != nil {
			return err
		}
		numero, version, err := s.Repository.SiguienteNumero(tx, contratoID)
		if err != nil {
			return err
		}
		o := &models.OtroSi{
			ContratoID:   contratoID,
			NumeroOtroSi: numero,
			Tipo:         models.TipoOtroSiModificacion,
			Estado:       models.EstadoBorrador,
			Version:      version,
			FechaOtroSi:  fechas.Hoy(),
			Auditoria:    models.Auditoria{CreadoPor: usuario},
		}
		in.aplicar(o)
		if err := s.Repository.Crear(tx, o); err != nil {
			return err
		}
		res.OtroSi = o
		adv, err := advertenciaCalculo(tx, o)
		if err != nil {
			return err
		}
		if adv != "" {
			res.Advertencias = append(res.Advertencias, adv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Actualizar edita el contenido; los administradores pueden editar en cualquier estado salvo anulado.
// Editar uno aprobado vuelve a ajustar los cálculos y el vencimiento de las pólizas.
func (s *Servicio) Actualizar(ctx context.Context, id uint, in OtroSiDTO, usuario string, admin bool) (*Resultado, error) {
	if err := in.Validar(); err != nil {
		return nil, err
	}
	res := &Resultado{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.buscar(tx, id)
		if err != nil {
			return err
		}
		if !flujo.Editable(o.Estado) && !(admin && o.Estado != models.EstadoAnulado) {
			return ErrNoEditable
		}
		in.aplicar(o)
		if err := s.Repository.Actualizar(tx, o); err != nil {
			return err
		}
		if o.Estado == models.EstadoAprobado {
			if err := s.propagarAprobado(tx, o, usuario, res); err != nil {
				return err
			}
		}
		res.OtroSi = o
		res.EstadoVigencia = EstadoVigencia(o, time.Now())
		adv, err := advertenciaCalculo(tx, o)
		if err != nil {
			return err
		}
		if adv != "" {
			res.Advertencias = append(res.Advertencias, adv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// propagarAprobado lleva los valores de un Otro Sí aprobado a los cálculos y las pólizas.
func (s *Servicio) propagarAprobado(tx *gorm.DB, o *models.OtroSi, usuario string, res *Resultado) error {
	if s.Ajustador != nil {
		n, err := s.Ajustador.ActualizarCalculosPorOtroSi(tx, o, usuario)
		if err != nil {
			return fmt.Errorf("actualizar cálculos de ajuste: %w", err)
		}
		res.CalculosActualizados = n
	}
	if _, err := poliza.RecalcularVencimientos(tx, o.ContratoID); err != nil {
		return fmt.Errorf("recalcular vencimiento de pólizas: %w", err)
	}
	return nil
}

// CambiarEstado mueve el documento por el flujo de aprobación.
func (s *Servicio) CambiarEstado(ctx context.Context, id uint, in TransicionDTO, usuario string) (*Resultado, error) {
	res := &Resultado{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.buscar(tx, id)
		if err != nil {
			return err
		}
		if err := flujo.ValidarTransicion(o.Estado, in.Estado); err != nil {
			return err
		}
		ahora := time.Now()
		switch in.Estado {
		case models.EstadoEnRevision:
			o.RevisadoPor, o.FechaRevision = usuario, &ahora
		case models.EstadoAprobado:
			sol, err := vigencia.ValidarSolapamiento(tx, o.ContratoID, o.EffectiveFrom, o.EffectiveTo, o.ID)
			if err != nil {
				return err
			}
			if len(sol) > 0 {
				if in.Estricto {
					return &SolapamientoError{Solapamientos: sol}
				}
				for _, x := range sol {
					res.Advertencias = append(res.Advertencias, x.Mensaje)
				}
				s.Log.WithFields(logrus.Fields{"otrosi": o.NumeroOtroSi, "contrato_id": o.ContratoID, "solapamientos": len(sol)}).
					Warn("Otro Sí aprobado con vigencia solapada")
			}
			o.AprobadoPor, o.FechaAprobacion = usuario, &ahora
		case models.EstadoRechazado:
			o.RechazadoPor, o.MotivoRechazo = usuario, in.Motivo
		case models.EstadoAnulado:
			o.AnuladoPor, o.FechaAnulacion = usuario, &ahora
		}
		o.Estado = in.Estado
		if err := s.Repository.Actualizar(tx, o); err != nil {
			return err
		}
		switch o.Estado {
		case models.EstadoAprobado:
			if err := s.propagarAprobado(tx, o, usuario, res); err != nil {
				return err
			}
		case models.EstadoAnulado:
			if _, err := poliza.RecalcularVencimientos(tx, o.ContratoID); err != nil {
				return fmt.Errorf("recalcular vencimiento de pólizas: %w", err)
			}
		}
		res.OtroSi = o
		res.EstadoVigencia = EstadoVigencia(o, ahora)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Eliminar borra el documento si no hay otro con número mayor.
func (s *Servicio) Eliminar(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.buscar(tx, id)
		if err != nil {
			return err
		}
		post, err := s.Repository.TienePosteriores(tx, o)
		if err != nil {
			return err
		}
		if post {
			return ErrOtroSiPosterior
		}
		if err := tx.Model(&models.Poliza{}).Where("otro_si_id = ?", o.ID).
			UpdateColumns(map[string]any{"otro_si_id": nil, "documento_origen_tipo": models.OrigenContrato}).Error; err != nil {
			return err
		}
		return s.Repository.Eliminar(tx, o.ID)
	})
}

// Listar devuelve los Otro Sí del contrato con su estado de vigencia a ref.
func (s *Servicio) Listar(ctx context.Context, contratoID uint, ref time.Time) ([]Resultado, error) {
	list, err := s.Repository.ListarPorContrato(s.DB.WithContext(ctx), contratoID)
	if err != nil {
		return nil, err
	}
	out := make([]Resultado, 0, len(list))
	for i := range list {
		out = append(out, Resultado{OtroSi: &list[i], EstadoVigencia: EstadoVigencia(&list[i], ref)})
	}
	return out, nil
}
