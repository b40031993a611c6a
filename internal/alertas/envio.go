package alertas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/email"
	"github.com/KromaEnergia/api-contratos/internal/empresa"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/notificacion"
)

// Enviador es lo que el envío necesita del servicio de email.
type Enviador interface {
	Enviar(ctx context.Context, m email.Mensaje) error
}

// Resultado resume el envío de un tipo de alerta.
type Resultado struct {
	TipoAlerta      string   `json:"tipoAlerta"`
	Enviado         bool     `json:"enviado"`
	Destinatarios   int      `json:"destinatarios"`
	AlertasEnviadas int      `json:"alertasEnviadas"`
	Motivo          string   `json:"motivo,omitempty"`
	Errores         []string `json:"errores,omitempty"`
}

type Envio struct {
	DB        *gorm.DB
	Generador *Generador
	Email     Enviador
	Webhook   *notificacion.Webhook
	Ahora     func() time.Time
}

func NewEnvio(db *gorm.DB, e Enviador, w *notificacion.Webhook) *Envio {
	return &Envio{DB: db, Generador: NewGenerador(db), Email: e, Webhook: w, Ahora: time.Now}
}

func nuevoLote() string { return uuid.NewString() }

// EnviarTipo envía un tipo de alerta a sus destinatarios activos. Sin forzar, respeta la
// frecuencia configurada. Cada destinatario deja una fila de historial.
func (e *Envio) EnviarTipo(ctx context.Context, tipo string, ref time.Time, forzar bool, lote string) (Resultado, error) {
	res := Resultado{TipoAlerta: tipo}
	db := e.DB.WithContext(ctx)
	var cfg models.ConfiguracionAlerta
	err := db.Preload("Destinatarios", "activo = ?", true).Where("tipo_alerta = ?", tipo).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		res.Motivo = "sin configuración"
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if !cfg.Activo {
		res.Motivo = "configuración inactiva"
		return res, nil
	}
	if !forzar && !cfg.DebeEnviarHoy(e.Ahora()) {
		res.Motivo = "no corresponde enviar hoy"
		return res, nil
	}
	if len(cfg.Destinatarios) == 0 {
		res.Motivo = "sin destinatarios activos"
		return res, nil
	}

	list, err := e.Generador.Generar(ctx, tipo, ref, Filtro{})
	if err != nil {
		return res, err
	}
	if cfg.SoloCriticas {
		list = SoloCriticas(list)
	}
	if len(list) == 0 {
		res.Motivo = "sin alertas"
		return res, nil
	}

	nombreEmpresa := ""
	if emp, err := empresa.Activa(db); err == nil && emp != nil {
		nombreEmpresa = emp.Nombre
	}
	html, err := RenderHTML(tipo, ref, nombreEmpresa, list)
	if err != nil {
		return res, err
	}
	asunto := cfg.Asunto
	if asunto == "" {
		asunto = fmt.Sprintf("%s - %d alerta(s) encontrada(s)", models.NombresAlerta[tipo], len(list))
	}
	texto := RenderTexto(tipo, ref, list)

	for _, d := range cfg.Destinatarios {
		h := models.HistorialEnvioEmail{
			Lote: lote, TipoAlerta: tipo, Destinatario: d.Email, Asunto: asunto,
			Estado: models.EnvioPendiente, CantidadAlertas: len(list),
		}
		if err := db.Create(&h).Error; err != nil {
			return res, err
		}
		errEnvio := e.Email.Enviar(ctx, email.Mensaje{Para: []string{d.Email}, Asunto: asunto, HTML: html, Texto: texto})
		cambios := map[string]any{}
		if errEnvio != nil {
			cambios["estado"] = models.EnvioError
			cambios["error_mensaje"] = errEnvio.Error()
			res.Errores = append(res.Errores, d.Email+": "+errEnvio.Error())
			config.LogError(config.GetLogger(), "alertas", "EnviarTipo", "fallo envío", map[string]any{"tipo": tipo, "destinatario": d.Email}, errEnvio)
		} else {
			cambios["estado"] = models.EnvioEnviado
			cambios["fecha_envio"] = e.Ahora()
			res.Destinatarios++
		}
		if err := db.Model(&h).Updates(cambios).Error; err != nil {
			return res, err
		}
	}
	res.Enviado = res.Destinatarios > 0
	if res.Enviado {
		res.AlertasEnviadas = len(list)
	}
	config.GetLogger().WithFields(map[string]any{
		"lote": lote, "tipo": tipo, "destinatarios": res.Destinatarios, "alertas": len(list),
	}).Info("alertas enviadas")
	return res, nil
}

// EnviarProgramadas recorre todos los tipos con un mismo lote y publica el resumen en el webhook.
func (e *Envio) EnviarProgramadas(ctx context.Context, ref time.Time, forzar bool) (string, []Resultado, error) {
	lote := nuevoLote()
	ref = fechas.Dia(ref)
	var out []Resultado
	resumen := notificacion.Resumen{Lote: lote, Fecha: e.Ahora(), AlertasPorTipo: map[string]int{}}
	for _, tipo := range models.TiposAlerta {
		r, err := e.EnviarTipo(ctx, tipo, ref, forzar, lote)
		if err != nil {
			return lote, out, fmt.Errorf("enviar %s: %w", tipo, err)
		}
		out = append(out, r)
		if r.Enviado {
			resumen.AlertasPorTipo[tipo] = r.AlertasEnviadas
		}
		resumen.Errores = append(resumen.Errores, r.Errores...)
	}
	if len(resumen.AlertasPorTipo) > 0 || len(resumen.Errores) > 0 {
		resumen.Mensaje = fmt.Sprintf("Envío de alertas %s: %d tipo(s) enviados", ref.Format(fechas.Layout), len(resumen.AlertasPorTipo))
		e.Webhook.EnviarResumen(ctx, resumen)
	}
	return lote, out, nil
}
