package indexacion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/vigencia"
)

const (
	TipoIPC           = "IPC"
	TipoSalarioMinimo = "SALARIO_MINIMO"
)

var (
	ErrCalculoDuplicado    = errors.New("ya existe un cálculo de ajuste para el contrato en esa fecha de aplicación")
	ErrIndiceNoDisponible  = errors.New("no hay valor histórico registrado para el año requerido")
	ErrSinCanon            = errors.New("el contrato no tiene canon disponible para calcular el ajuste")
	ErrCalculoNoEncontrado = errors.New("cálculo no encontrado")
	ErrCalculoYaAplicado   = errors.New("el cálculo ya fue aplicado")
	ErrCondicionIncorrecta = errors.New("el contrato no está configurado para este tipo de ajuste")
)

type Servicio struct {
	DB *gorm.DB
}

func NewServicio(db *gorm.DB) *Servicio {
	return &Servicio{DB: db}
}

// CanonBase es el canon sobre el que se aplica el ajuste y de dónde salió.
type CanonBase struct {
	Canon       decimal.Decimal `json:"canon"`
	Fuente      string          `json:"fuente"`
	Descripcion string          `json:"descripcion"`
}

// ultimoCalculo devuelve el cálculo (IPC o salario mínimo) no anulado más reciente con
// fecha_aplicacion < antes. Sin límite si antes es nil.
func ultimoCalculo(db *gorm.DB, contratoID uint, antes *time.Time) (*models.Calculo, error) {
	var ipc models.CalculoIPC
	q := db.Where("contrato_id = ? AND estado <> ?", contratoID, models.CalculoAnulado)
	if antes != nil {
		q = q.Where("fecha_aplicacion < ?", *antes)
	}
	errIPC := q.Order("fecha_aplicacion DESC, fecha_calculo DESC").First(&ipc).Error
	if errIPC != nil && !errors.Is(errIPC, gorm.ErrRecordNotFound) {
		return nil, errIPC
	}
	var sm models.CalculoSalarioMinimo
	q = db.Where("contrato_id = ? AND estado <> ?", contratoID, models.CalculoAnulado)
	if antes != nil {
		q = q.Where("fecha_aplicacion < ?", *antes)
	}
	errSM := q.Order("fecha_aplicacion DESC, fecha_calculo DESC").First(&sm).Error
	if errSM != nil && !errors.Is(errSM, gorm.ErrRecordNotFound) {
		return nil, errSM
	}
	switch {
	case errIPC == nil && errSM == nil:
		if sm.FechaAplicacion.After(ipc.FechaAplicacion) {
			return &sm.Calculo, nil
		}
		return &ipc.Calculo, nil
	case errIPC == nil:
		return &ipc.Calculo, nil
	case errSM == nil:
		return &sm.Calculo, nil
	}
	return nil, nil
}

// CanonAnterior aplica la prioridad: último cálculo previo, canon del Otro Sí vigente el día
// anterior, canon mínimo del Otro Sí, canon fijo del contrato, canon mínimo del contrato.
func (s *Servicio) CanonAnterior(cad *vigencia.Cadena, fechaAplicacion time.Time) (*CanonBase, error) {
	fechaAplicacion = fechas.Dia(fechaAplicacion)
	calc, err := ultimoCalculo(s.DB, cad.Contrato.ID, &fechaAplicacion)
	if err != nil {
		return nil, err
	}
	if calc != nil && calc.NuevoCanon.IsPositive() {
		return &CanonBase{Canon: calc.NuevoCanon, Fuente: models.FuenteCalculoAnterior,
			Descripcion: "Cálculo " + calc.FechaAplicacion.Format("02/01/2006")}, nil
	}

	diaAnterior := fechas.SumarDias(fechaAplicacion, -1)
	if e := vigencia.UltimoModificador(cad.Eventos, vigencia.CampoValorCanon, diaAnterior, false); e != nil {
		if d := e.Valor(vigencia.CampoValorCanon).(decimal.Decimal); d.IsPositive() {
			return &CanonBase{Canon: d, Fuente: models.FuenteOtroSiCanon, Descripcion: "Otro Sí " + e.Numero + " (canon fijo)"}, nil
		}
	}
	if e := vigencia.UltimoModificador(cad.Eventos, vigencia.CampoCanonMinimo, diaAnterior, false); e != nil {
		if d := e.Valor(vigencia.CampoCanonMinimo).(decimal.Decimal); d.IsPositive() {
			return &CanonBase{Canon: d, Fuente: models.FuenteOtroSiMinimo, Descripcion: "Otro Sí " + e.Numero + " (canon mínimo)"}, nil
		}
	}
	c := cad.Contrato
	if c.ValorCanonFijo != nil && c.ValorCanonFijo.IsPositive() {
		return &CanonBase{Canon: *c.ValorCanonFijo, Fuente: models.FuenteContratoCanon, Descripcion: "Contrato base (canon fijo)"}, nil
	}
	if c.CanonMinimoGarantizado != nil && c.CanonMinimoGarantizado.IsPositive() {
		return &CanonBase{Canon: *c.CanonMinimoGarantizado, Fuente: models.FuenteContratoMinimo, Descripcion: "Contrato base (canon mínimo garantizado)"}, nil
	}
	return nil, ErrSinCanon
}

// ExisteCalculo busca un cálculo de cualquiera de los dos tipos para la fecha exacta.
func ExisteCalculo(db *gorm.DB, contratoID uint, fecha time.Time) (string, bool, error) {
	fecha = fechas.Dia(fecha)
	var n int64
	if err := db.Model(&models.CalculoIPC{}).Where("contrato_id = ? AND fecha_aplicacion = ?", contratoID, fecha).Count(&n).Error; err != nil {
		return "", false, err
	}
	if n > 0 {
		return TipoIPC, true, nil
	}
	if err := db.Model(&models.CalculoSalarioMinimo{}).Where("contrato_id = ? AND fecha_aplicacion = ?", contratoID, fecha).Count(&n).Error; err != nil {
		return "", false, err
	}
	if n > 0 {
		return TipoSalarioMinimo, true, nil
	}
	return "", false, nil
}

// Solicitud son los datos para calcular un ajuste.
type Solicitud struct {
	ContratoID      uint             `json:"-"`
	FechaAplicacion time.Time        `json:"fechaAplicacion" validate:"required"`
	CanonManual     *decimal.Decimal `json:"canonManual"`
	Observaciones   string           `json:"observaciones"`
	Usuario         string           `json:"-"`
}

// prepararCalculo arma la parte común de ambos cálculos.
func (s *Servicio) prepararCalculo(tx *gorm.DB, sol Solicitud) (*vigencia.Cadena, models.Calculo, error) {
	sol.FechaAplicacion = fechas.Dia(sol.FechaAplicacion)
	if tipo, existe, err := ExisteCalculo(tx, sol.ContratoID, sol.FechaAplicacion); err != nil {
		return nil, models.Calculo{}, err
	} else if existe {
		return nil, models.Calculo{}, fmt.Errorf("%w (%s)", ErrCalculoDuplicado, tipo)
	}
	cad, err := vigencia.Cargar(tx, sol.ContratoID)
	if err != nil {
		return nil, models.Calculo{}, err
	}

	calc := models.Calculo{
		ContratoID:      sol.ContratoID,
		AnoAplicacion:   sol.FechaAplicacion.Year(),
		FechaAplicacion: sol.FechaAplicacion,
		Estado:          models.CalculoPendiente,
		Observaciones:   sol.Observaciones,
		CalculadoPor:    sol.Usuario,
		FechaCalculo:    time.Now(),
	}
	if sol.CanonManual != nil {
		if !sol.CanonManual.IsPositive() {
			return nil, calc, ErrCanonInvalido
		}
		calc.CanonAnterior = *sol.CanonManual
		calc.CanonAnteriorManual = true
		calc.FuenteCanonAnterior = models.FuenteManual
	} else {
		base, err := s.CanonAnterior(cad, sol.FechaAplicacion)
		if err != nil {
			return nil, calc, err
		}
		calc.CanonAnterior = base.Canon
		calc.FuenteCanonAnterior = base.Fuente
	}

	diaAnterior := fechas.SumarDias(sol.FechaAplicacion, -1)
	if p := cad.Decimal(vigencia.CampoPuntosIPC, diaAnterior); p != nil {
		calc.PuntosAdicionales = *p
	}
	calc.PeriodicidadContrato = cad.Texto(vigencia.CampoPeriodicidadIPC, diaAnterior)
	calc.FechaAumentoContrato = cad.Fecha(vigencia.CampoFechaAumentoIPC, diaAnterior)
	return cad, calc, nil
}

// CalcularIPC crea un cálculo pendiente con el IPC certificado del año anterior a la aplicación.
func (s *Servicio) CalcularIPC(ctx context.Context, sol Solicitud) (*models.CalculoIPC, error) {
	var out *models.CalculoIPC
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cad, calc, err := s.prepararCalculo(tx, sol)
		if err != nil {
			return err
		}
		if cad.Texto(vigencia.CampoTipoCondicionIPC, calc.FechaAplicacion) != models.CondicionIPC {
			return ErrCondicionIncorrecta
		}
		var ipc models.IPCHistorico
		if err := tx.Where("ano = ?", calc.AnoAplicacion-1).First(&ipc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: IPC %d", ErrIndiceNoDisponible, calc.AnoAplicacion-1)
			}
			return err
		}
		aj, err := CalcularAjuste(calc.CanonAnterior, ipc.ValorIPC, calc.PuntosAdicionales)
		if err != nil {
			return err
		}
		calc.PorcentajeTotal, calc.ValorIncremento, calc.NuevoCanon = aj.PorcentajeTotal, aj.ValorIncremento, aj.NuevoCanon
		out = &models.CalculoIPC{Calculo: calc, ValorIPC: ipc.ValorIPC}
		return crearCalculo(tx, out)
	})
	return out, err
}

// CalcularSalarioMinimo usa la variación del salario mínimo decretado para el mismo año.
func (s *Servicio) CalcularSalarioMinimo(ctx context.Context, sol Solicitud) (*models.CalculoSalarioMinimo, error) {
	var out *models.CalculoSalarioMinimo
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cad, calc, err := s.prepararCalculo(tx, sol)
		if err != nil {
			return err
		}
		if cad.Texto(vigencia.CampoTipoCondicionIPC, calc.FechaAplicacion) != models.CondicionSalarioMinimo {
			return ErrCondicionIncorrecta
		}
		var sm models.SalarioMinimoHistorico
		if err := tx.Where("ano = ?", calc.AnoAplicacion).First(&sm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: salario mínimo %d", ErrIndiceNoDisponible, calc.AnoAplicacion)
			}
			return err
		}
		if sm.VariacionPorcentual == nil {
			return fmt.Errorf("%w: variación del salario mínimo %d", ErrIndiceNoDisponible, calc.AnoAplicacion)
		}
		aj, err := CalcularAjuste(calc.CanonAnterior, *sm.VariacionPorcentual, calc.PuntosAdicionales)
		if err != nil {
			return err
		}
		calc.PorcentajeTotal, calc.ValorIncremento, calc.NuevoCanon = aj.PorcentajeTotal, aj.ValorIncremento, aj.NuevoCanon
		out = &models.CalculoSalarioMinimo{Calculo: calc, VariacionSalarioMinimo: *sm.VariacionPorcentual}
		if p := cad.Decimal(vigencia.CampoPorcentajeSMLV, fechas.SumarDias(calc.FechaAplicacion, -1)); p != nil {
			out.PorcentajeSalarioMinimo = *p
		}
		return crearCalculo(tx, out)
	})
	return out, err
}

func crearCalculo(tx *gorm.DB, v any) error {
	if err := tx.Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCalculoDuplicado
		}
		return err
	}
	return nil
}

// Aplicar marca el cálculo como aplicado.
func (s *Servicio) Aplicar(ctx context.Context, tipo string, id uint, usuario string) error {
	modelo, err := modeloCalculo(tipo)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var estado string
		if err := tx.Model(modelo).Select("estado").Where("id = ?", id).Scan(&estado).Error; err != nil {
			return err
		}
		switch estado {
		case "":
			return ErrCalculoNoEncontrado
		case models.CalculoAplicado:
			return ErrCalculoYaAplicado
		case models.CalculoAnulado:
			return errors.New("el cálculo está anulado")
		}
		ahora := time.Now()
		return tx.Model(modelo).Where("id = ?", id).Updates(map[string]any{
			"estado":                models.CalculoAplicado,
			"aplicado_por":          usuario,
			"fecha_aplicacion_real": &ahora,
		}).Error
	})
}

// Anular deja el cálculo fuera de la cadena de canon; no se puede anular uno aplicado.
func (s *Servicio) Anular(ctx context.Context, tipo string, id uint) error {
	modelo, err := modeloCalculo(tipo)
	if err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(modelo).Where("id = ? AND estado = ?", id, models.CalculoPendiente).Update("estado", models.CalculoAnulado)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCalculoNoEncontrado
	}
	return nil
}

func modeloCalculo(tipo string) (any, error) {
	switch tipo {
	case TipoIPC:
		return &models.CalculoIPC{}, nil
	case TipoSalarioMinimo:
		return &models.CalculoSalarioMinimo{}, nil
	}
	return nil, fmt.Errorf("tipo de cálculo desconocido: %s", tipo)
}

// ProximaFechaAumento: en periodicidad anual, último cálculo + 1 año (o fecha base + 1 año,
// o inicio + 1 año); en fecha específica, la fecha pactada.
func (s *Servicio) ProximaFechaAumento(cad *vigencia.Cadena, ref time.Time) (*time.Time, error) {
	periodicidad := cad.Texto(vigencia.CampoPeriodicidadIPC, ref)
	base := cad.Fecha(vigencia.CampoFechaAumentoIPC, ref)
	switch periodicidad {
	case models.PeriodicidadAnual:
		calc, err := ultimoCalculo(s.DB, cad.Contrato.ID, nil)
		if err != nil {
			return nil, err
		}
		var f time.Time
		switch {
		case calc != nil:
			f = fechas.SumarAnios(calc.FechaAplicacion, 1)
		case base != nil:
			f = fechas.SumarAnios(*base, 1)
		default:
			f = fechas.SumarAnios(cad.Contrato.FechaInicialContrato, 1)
		}
		return &f, nil
	case models.PeriodicidadEspecifica:
		return base, nil
	}
	return nil, nil
}

// Pendiente es un contrato cuyo ajuste ya debería calcularse.
type Pendiente struct {
	ContratoID   uint      `json:"contratoId"`
	NumContrato  string    `json:"numContrato"`
	Tipo         string    `json:"tipo"`
	FechaAumento time.Time `json:"fechaAumento"`
	Dias         int       `json:"dias"`
}

// ContratosPendientes lista contratos vigentes del tipo dado cuya próxima fecha de aumento
// cae dentro de los próximos diasVentana días (o ya pasó) y que aún no tienen cálculo.
func (s *Servicio) ContratosPendientes(ctx context.Context, tipo string, ref time.Time, diasVentana int) ([]Pendiente, error) {
	ref = fechas.Dia(ref)
	var contratos []models.Contrato
	if err := s.DB.WithContext(ctx).Where("vigente = ?", true).Order("num_contrato").Find(&contratos).Error; err != nil {
		return nil, err
	}
	var out []Pendiente
	for i := range contratos {
		cad, err := vigencia.CargarDe(s.DB, &contratos[i])
		if err != nil {
			return nil, err
		}
		if cad.Texto(vigencia.CampoTipoCondicionIPC, ref) != tipo {
			continue
		}
		prox, err := s.ProximaFechaAumento(cad, ref)
		if err != nil {
			return nil, err
		}
		if prox == nil {
			continue
		}
		dias := fechas.DiasEntre(ref, *prox)
		if dias > diasVentana {
			continue
		}
		if _, existe, err := ExisteCalculo(s.DB, contratos[i].ID, *prox); err != nil {
			return nil, err
		} else if existe {
			continue
		}
		out = append(out, Pendiente{
			ContratoID: contratos[i].ID, NumContrato: contratos[i].NumContrato, Tipo: tipo,
			FechaAumento: *prox, Dias: dias,
		})
	}
	return out, nil
}

// ActualizarCalculosPorOtroSi ajusta los cálculos aplicados del año de inicio del Otro Sí
// cuando su canon difiere del que fija el Otro Sí. Devuelve cuántos cambió.
func (s *Servicio) ActualizarCalculosPorOtroSi(tx *gorm.DB, o *models.OtroSi, usuario string) (int, error) {
	var nuevo decimal.Decimal
	switch {
	case o.NuevoValorCanon != nil && o.NuevoValorCanon.IsPositive():
		nuevo = *o.NuevoValorCanon
	case o.NuevoCanonMinimoGarantizado != nil && o.NuevoCanonMinimoGarantizado.IsPositive():
		nuevo = *o.NuevoCanonMinimoGarantizado
	default:
		return 0, nil
	}
	ano := o.EffectiveFrom.Year()
	nota := fmt.Sprintf("[Actualizado por Otro Sí %s aprobado el %s por %s: valor ajustado de %%s a %s]",
		o.NumeroOtroSi, time.Now().Format("02/01/2006"), usuario, nuevo.StringFixed(2))

	total := 0
	for _, tabla := range []any{&[]models.CalculoIPC{}, &[]models.CalculoSalarioMinimo{}} {
		if err := tx.Where("contrato_id = ? AND ano_aplicacion = ? AND estado = ?", o.ContratoID, ano, models.CalculoAplicado).Find(tabla).Error; err != nil {
			return total, err
		}
		var calculos []*models.Calculo
		switch l := tabla.(type) {
		case *[]models.CalculoIPC:
			for i := range *l {
				calculos = append(calculos, &(*l)[i].Calculo)
			}
		case *[]models.CalculoSalarioMinimo:
			for i := range *l {
				calculos = append(calculos, &(*l)[i].Calculo)
			}
		}
		modelo := modeloDeLista(tabla)
		for _, c := range calculos {
			if c.NuevoCanon.Sub(nuevo).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)) {
				continue
			}
			anterior := c.NuevoCanon
			pct := decimal.Zero
			if c.CanonAnterior.IsPositive() {
				pct = nuevo.Div(c.CanonAnterior).Sub(decimal.NewFromInt(1)).Mul(cien).Round(2)
			}
			obs := fmt.Sprintf(nota, anterior.StringFixed(2))
			if c.Observaciones != "" {
				obs = c.Observaciones + "\n" + obs
			}
			if err := tx.Model(modelo).Where("id = ?", c.ID).Updates(map[string]any{
				"nuevo_canon":      nuevo,
				"valor_incremento": nuevo.Sub(c.CanonAnterior),
				"porcentaje_total": pct,
				"observaciones":    obs,
			}).Error; err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

func modeloDeLista(l any) any {
	if _, ok := l.(*[]models.CalculoIPC); ok {
		return &models.CalculoIPC{}
	}
	return &models.CalculoSalarioMinimo{}
}
