// Package ventas administra los informes mensuales de ventas y la liquidación del canon variable.
package ventas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

const (
	VigenciaVigentes = "vigentes"
	VigenciaVencidos = "vencidos"
)

var (
	ErrNoReportaVentas  = errors.New("el contrato no reporta ventas")
	ErrInformeDuplicado = errors.New("ya existe un informe para ese contrato y periodo")
	ErrFueraDeVigencia  = errors.New("el periodo es anterior al inicio del contrato")
)

type Servicio struct {
	DB  *gorm.DB
	Log *logrus.Logger
	// Hoy se puede fijar en pruebas.
	Hoy func() time.Time
}

func NewServicio(db *gorm.DB) *Servicio {
	return &Servicio{DB: db, Log: config.GetLogger(), Hoy: fechas.Hoy}
}

// InformeVista agrega al informe su situación frente a la fecha límite.
type InformeVista struct {
	models.InformeVentas
	NombreMes   string `json:"nombreMes"`
	Vencido     bool   `json:"vencido"`
	DiasVencido int    `json:"diasVencido"`
}

type ListadoInformes struct {
	Informes   []InformeVista `json:"informes"`
	Total      int            `json:"total"`
	Entregados int            `json:"entregados"`
	Pendientes int            `json:"pendientes"`
}

// FechaLimite es el día pactado del mes siguiente al periodo, sin pasar del último día.
func FechaLimite(c *models.Contrato, mes, anio int) *time.Time {
	if c.DiaLimiteReporteVentas == nil || *c.DiaLimiteReporteVentas < 1 {
		return nil
	}
	sig := fechas.SumarMeses(fechas.Nueva(anio, time.Month(mes), 1), 1)
	dia := min(*c.DiaLimiteReporteVentas, fechas.UltimoDiaMes(sig.Year(), sig.Month()))
	return fechas.Ptr(fechas.Nueva(sig.Year(), sig.Month(), dia))
}

func (s *Servicio) vista(i models.InformeVentas) InformeVista {
	v := InformeVista{InformeVentas: i, NombreMes: models.NombresMes[i.Mes]}
	hoy := s.Hoy()
	if i.Vencido(hoy) {
		v.Vencido = true
		v.DiasVencido = fechas.DiasEntre(*i.FechaLimite, hoy)
	}
	return v
}

func contratoQueReporta(db *gorm.DB, id uint) (*models.Contrato, error) {
	var c models.Contrato
	if err := db.First(&c, id).Error; err != nil {
		return nil, err
	}
	if !c.ReportaVentas {
		return nil, ErrNoReportaVentas
	}
	return &c, nil
}

func (s *Servicio) periodoLibre(db *gorm.DB, contratoID uint, mes, anio int, excluirID uint) error {
	var n int64
	err := db.Model(&models.InformeVentas{}).
		Where("contrato_id = ? AND mes = ? AND anio = ? AND id <> ?", contratoID, mes, anio, excluirID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrInformeDuplicado
	}
	return nil
}

func (s *Servicio) CrearInforme(ctx context.Context, in InformeDTO, usuario string) (*InformeVista, error) {
	db := s.DB.WithContext(ctx)
	c, err := contratoQueReporta(db, in.ContratoID)
	if err != nil {
		return nil, err
	}
	if err := s.periodoLibre(db, c.ID, in.Mes, in.Anio, 0); err != nil {
		return nil, err
	}
	i := models.InformeVentas{
		ContratoID: c.ID, Mes: in.Mes, Anio: in.Anio,
		Estado:        models.InformePendiente,
		FechaLimite:   FechaLimite(c, in.Mes, in.Anio),
		Observaciones: in.Observaciones, UrlArchivo: in.UrlArchivo,
		RegistradoPor: usuario,
	}
	if err := db.Create(&i).Error; err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"contrato": c.NumContrato, "mes": i.Mes, "anio": i.Anio, "usuario": usuario}).
		Info("informe de ventas registrado")
	v := s.vista(i)
	return &v, nil
}

// ActualizarInforme deja el informe otra vez pendiente: una edición invalida la entrega.
func (s *Servicio) ActualizarInforme(ctx context.Context, id uint, in InformeDTO, usuario string) (*InformeVista, error) {
	db := s.DB.WithContext(ctx)
	var i models.InformeVentas
	if err := db.First(&i, id).Error; err != nil {
		return nil, err
	}
	c, err := contratoQueReporta(db, in.ContratoID)
	if err != nil {
		return nil, err
	}
	if err := s.periodoLibre(db, c.ID, in.Mes, in.Anio, i.ID); err != nil {
		return nil, err
	}
	i.ContratoID, i.Mes, i.Anio = c.ID, in.Mes, in.Anio
	i.FechaLimite = FechaLimite(c, in.Mes, in.Anio)
	i.Observaciones, i.UrlArchivo = in.Observaciones, in.UrlArchivo
	i.Estado, i.FechaEntrega = models.InformePendiente, nil
	i.RegistradoPor = usuario
	if err := db.Save(&i).Error; err != nil {
		return nil, err
	}
	v := s.vista(i)
	return &v, nil
}

// MarcarEntregado usa hoy cuando no llega fecha.
func (s *Servicio) MarcarEntregado(ctx context.Context, id uint, fecha *time.Time) (*InformeVista, error) {
	f := s.Hoy()
	if fecha != nil {
		f = fechas.Dia(*fecha)
	}
	return s.cambiarEstado(ctx, id, models.InformeEntregado, &f)
}

func (s *Servicio) MarcarPendiente(ctx context.Context, id uint) (*InformeVista, error) {
	return s.cambiarEstado(ctx, id, models.InformePendiente, nil)
}

func (s *Servicio) cambiarEstado(ctx context.Context, id uint, estado string, entrega *time.Time) (*InformeVista, error) {
	db := s.DB.WithContext(ctx)
	var i models.InformeVentas
	if err := db.First(&i, id).Error; err != nil {
		return nil, err
	}
	i.Estado, i.FechaEntrega = estado, entrega
	if err := db.Model(&i).Select("estado", "fecha_entrega").Updates(&i).Error; err != nil {
		return nil, err
	}
	v := s.vista(i)
	return &v, nil
}

// EliminarInforme conserva los cálculos del periodo y les quita la referencia.
func (s *Servicio) EliminarInforme(ctx context.Context, id uint, usuario string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var i models.InformeVentas
		if err := tx.First(&i, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CalculoFacturacionVentas{}).Where("informe_ventas_id = ?", id).
			Update("informe_ventas_id", nil).Error; err != nil {
			return fmt.Errorf("desvincular cálculos: %w", err)
		}
		if err := tx.Delete(&i).Error; err != nil {
			return err
		}
		s.Log.WithFields(logrus.Fields{"informe": id, "usuario": usuario}).Info("informe de ventas eliminado")
		return nil
	})
}

func (s *Servicio) ObtenerInforme(ctx context.Context, id uint) (*InformeVista, error) {
	var i models.InformeVentas
	if err := s.DB.WithContext(ctx).Preload("Contrato").First(&i, id).Error; err != nil {
		return nil, err
	}
	v := s.vista(i)
	return &v, nil
}

func (s *Servicio) ListarInformes(ctx context.Context, f FiltroInformes) (*ListadoInformes, error) {
	q := s.DB.WithContext(ctx).Model(&models.InformeVentas{}).
		Joins("JOIN contratos ON contratos.id = informes_ventas.contrato_id AND contratos.deleted_at IS NULL")
	if f.ContratoID != 0 {
		q = q.Where("informes_ventas.contrato_id = ?", f.ContratoID)
	}
	if f.Tipo != "" {
		q = q.Where("contratos.tipo_contrato = ?", f.Tipo)
	}
	if f.Mes != 0 {
		q = q.Where("informes_ventas.mes = ?", f.Mes)
	}
	if f.Anio != 0 {
		q = q.Where("informes_ventas.anio = ?", f.Anio)
	}
	if f.Estado != "" {
		q = q.Where("informes_ventas.estado = ?", f.Estado)
	}
	if f.Buscar != "" {
		like := "%" + f.Buscar + "%"
		q = q.Where("contratos.num_contrato LIKE ? OR contratos.tercero LIKE ? OR contratos.nit_tercero LIKE ?", like, like, like)
	}
	var list []models.InformeVentas
	err := q.Preload("Contrato").
		Order("informes_ventas.anio DESC, informes_ventas.mes DESC, informes_ventas.id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	res := &ListadoInformes{Informes: make([]InformeVista, 0, len(list)), Total: len(list)}
	for _, i := range list {
		if i.Estado == models.InformeEntregado {
			res.Entregados++
		} else {
			res.Pendientes++
		}
		res.Informes = append(res.Informes, s.vista(i))
	}
	return res, nil
}

// ContratoPorReportar es un contrato que debe entregar el informe del periodo.
type ContratoPorReportar struct {
	Contrato   models.Contrato              `json:"contrato"`
	FechaFinal *time.Time                   `json:"fechaFinalVigente"`
	Vigente    bool                         `json:"vigenteAlCorte"`
	Informe    *InformeVista                `json:"informe"`
	Valores    *vigencia.ValoresFacturacion `json:"valoresFacturacion,omitempty"`
}

// ContratosPorReportar toma como corte el último día del mes; los contratos que inician
// después del corte quedan fuera. estado admite "vigentes", "vencidos" o vacío.
func (s *Servicio) ContratosPorReportar(ctx context.Context, mes, anio int, estado string) ([]ContratoPorReportar, error) {
	if mes < 1 || mes > 12 {
		return nil, utils.NuevoErrValidacion("mes", "debe estar entre 1 y 12")
	}
	if estado != "" && estado != VigenciaVigentes && estado != VigenciaVencidos {
		return nil, utils.NuevoErrValidacion("estadoVigencia", "use vigentes o vencidos")
	}
	db := s.DB.WithContext(ctx)
	corte := fechas.FinDeMes(anio, time.Month(mes))
	var contratos []models.Contrato
	err := db.Where("reporta_ventas = ? AND fecha_inicial_contrato <= ?", true, corte).
		Order("num_contrato").Find(&contratos).Error
	if err != nil {
		return nil, err
	}
	var informes []models.InformeVentas
	if err := db.Where("mes = ? AND anio = ?", mes, anio).Find(&informes).Error; err != nil {
		return nil, err
	}
	porContrato := make(map[uint]models.InformeVentas, len(informes))
	for _, i := range informes {
		porContrato[i.ContratoID] = i
	}

	res := make([]ContratoPorReportar, 0, len(contratos))
	for i := range contratos {
		c := &contratos[i]
		cad, err := vigencia.CargarDe(db, c)
		if err != nil {
			return nil, err
		}
		fin := cad.FechaFinalVigente(corte)
		vigente := fin == nil || !fechas.Dia(*fin).Before(corte)
		if (estado == VigenciaVigentes && !vigente) || (estado == VigenciaVencidos && vigente) {
			continue
		}
		item := ContratoPorReportar{Contrato: *c, FechaFinal: fin, Vigente: vigente}
		if inf, ok := porContrato[c.ID]; ok {
			v := s.vista(inf)
			item.Informe = &v
		}
		if vals, err := cad.ValoresFacturacionVentas(mes, anio); err == nil {
			item.Valores = vals
		}
		res = append(res, item)
	}
	return res, nil
}
