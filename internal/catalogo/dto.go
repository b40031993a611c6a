package catalogo

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/utils"
)

type (
	Terceros      = Handler[models.Tercero, TerceroDTO, *TerceroDTO]
	Locales       = Handler[models.Local, LocalDTO, *LocalDTO]
	TiposContrato = Handler[models.TipoContrato, NombreDTO, *NombreDTO]
	TiposServicio = Handler[models.TipoServicio, ServicioDTO, *ServicioDTO]
)

func NewTerceros(db *gorm.DB) *Terceros {
	return nuevo[models.Tercero, TerceroDTO](db, Definicion{
		Recurso: "tercero", ColumnaContrato: "tercero_id", Orden: "razon_social",
		Buscar: []string{"razon_social", "nit"}, Filtros: []string{"tipo"},
	})
}

func NewLocales(db *gorm.DB) *Locales {
	return nuevo[models.Local, LocalDTO](db, Definicion{
		Recurso: "local", ColumnaContrato: "local_id", Orden: "nombre_comercial_stand",
		Buscar: []string{"nombre_comercial_stand", "ubicacion"},
	})
}

func NewTiposContrato(db *gorm.DB) *TiposContrato {
	return nuevo[models.TipoContrato, NombreDTO](db, Definicion{
		Recurso: "tipo de contrato", ColumnaContrato: "tipo_contrato_id", Orden: "nombre",
		Buscar: []string{"nombre"},
		AlEliminar: func(tx *gorm.DB, id uint) error {
			return tx.Where("tipo_contrato_id = ?", id).Delete(&models.ClausulaObligatoria{}).Error
		},
	})
}

func NewTiposServicio(db *gorm.DB) *TiposServicio {
	return nuevo[models.TipoServicio, ServicioDTO](db, Definicion{
		Recurso: "tipo de servicio", ColumnaContrato: "tipo_servicio_id", Orden: "nombre",
		Buscar: []string{"nombre"},
		AlEliminar: func(tx *gorm.DB, id uint) error {
			return tx.Where("tipo_servicio_id = ?", id).Delete(&models.ClausulaObligatoria{}).Error
		},
	})
}

func existe(db *gorm.DB, modelo any, excluirID uint, cond string, args ...any) (bool, error) {
	var n int64
	err := db.Model(modelo).Where(cond, args...).Where("id <> ?", excluirID).Count(&n).Error
	return n > 0, err
}

type TerceroDTO struct {
	Nit                string `json:"nit" validate:"required,max=20"`
	RazonSocial        string `json:"razonSocial" validate:"required,max=200"`
	Tipo               string `json:"tipo" validate:"omitempty,oneof=ARRENDATARIO PROVEEDOR"`
	NombreRepLegal     string `json:"nombreRepLegal" validate:"required,max=100"`
	NombreSupervisorOp string `json:"nombreSupervisorOp" validate:"max=100"`
	EmailSupervisorOp  string `json:"emailSupervisorOp" validate:"omitempty,email,max=254"`
}

func (d *TerceroDTO) Validar() error {
	d.Nit = strings.TrimSpace(d.Nit)
	if d.Tipo == "" {
		d.Tipo = models.TerceroArrendatario
	}
	return utils.Validar(d)
}

// Un mismo NIT puede estar una vez como arrendatario y otra como proveedor.
func (d *TerceroDTO) duplicado(db *gorm.DB, excluirID uint) (string, error) {
	ok, err := existe(db, &models.Tercero{}, excluirID, "nit = ? AND tipo = ?", d.Nit, d.Tipo)
	if ok {
		return "nit", err
	}
	return "", err
}

func (d *TerceroDTO) aplicar(t *models.Tercero, usuario string, nuevo bool) {
	t.Nit, t.RazonSocial, t.Tipo = d.Nit, strings.TrimSpace(d.RazonSocial), d.Tipo
	t.NombreRepLegal = d.NombreRepLegal
	t.NombreSupervisorOp, t.EmailSupervisorOp = d.NombreSupervisorOp, d.EmailSupervisorOp
	if nuevo {
		t.CreadoPor = usuario
	}
	t.ModificadoPor = usuario
}

type LocalDTO struct {
	NombreComercialStand string          `json:"nombreComercialStand" validate:"required,max=100"`
	Ubicacion            string          `json:"ubicacion" validate:"max=200"`
	TotalAreaM2          decimal.Decimal `json:"totalAreaM2"`
}

func (d *LocalDTO) Validar() error {
	if err := utils.Validar(d); err != nil {
		return err
	}
	if !d.TotalAreaM2.IsPositive() {
		return utils.NuevoErrValidacion("totalAreaM2", "debe ser mayor a 0")
	}
	return nil
}

func (d *LocalDTO) duplicado(db *gorm.DB, excluirID uint) (string, error) {
	ok, err := existe(db, &models.Local{}, excluirID, "nombre_comercial_stand = ?", strings.TrimSpace(d.NombreComercialStand))
	if ok {
		return "nombreComercialStand", err
	}
	return "", err
}

func (d *LocalDTO) aplicar(l *models.Local, usuario string, nuevo bool) {
	l.NombreComercialStand = strings.TrimSpace(d.NombreComercialStand)
	l.Ubicacion = d.Ubicacion
	if l.Ubicacion == "" {
		l.Ubicacion = "No especificada"
	}
	l.TotalAreaM2 = d.TotalAreaM2
	if nuevo {
		l.CreadoPor = usuario
	}
	l.ModificadoPor = usuario
}

// NombreDTO sirve a los catálogos que solo tienen nombre.
type NombreDTO struct {
	Nombre string `json:"nombre" validate:"required,max=100"`
}

func (d *NombreDTO) Validar() error {
	d.Nombre = strings.TrimSpace(d.Nombre)
	return utils.Validar(d)
}

func (d *NombreDTO) duplicado(db *gorm.DB, excluirID uint) (string, error) {
	ok, err := existe(db, &models.TipoContrato{}, excluirID, "nombre = ?", d.Nombre)
	if ok {
		return "nombre", err
	}
	return "", err
}

func (d *NombreDTO) aplicar(t *models.TipoContrato, usuario string, nuevo bool) {
	t.Nombre = d.Nombre
	if nuevo {
		t.CreadoPor = usuario
	}
	t.ModificadoPor = usuario
}

type ServicioDTO struct {
	NombreDTO
}

func (d *ServicioDTO) duplicado(db *gorm.DB, excluirID uint) (string, error) {
	ok, err := existe(db, &models.TipoServicio{}, excluirID, "nombre = ?", d.Nombre)
	if ok {
		return "nombre", err
	}
	return "", err
}

func (d *ServicioDTO) aplicar(t *models.TipoServicio, usuario string, nuevo bool) {
	t.Nombre = d.Nombre
	if nuevo {
		t.CreadoPor = usuario
	}
	t.ModificadoPor = usuario
}
