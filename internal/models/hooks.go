package models

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrigenMultiple  = errors.New("la póliza solo puede estar asociada a un documento de origen")
	ErrColchonSinMeses = errors.New("si la póliza tiene colchón, los meses de colchón deben ser mayores a 0")
	ErrAnoFueraDeRango = errors.New("el año debe estar entre 1900 y 2100")
	ErrValorNegativo   = errors.New("el valor no puede ser negativo")
)

// AfterSave deja una sola licencia primaria.
func (l *ClienteLicense) AfterSave(tx *gorm.DB) error {
	if !l.IsPrimary {
		return nil
	}
	return tx.Model(&ClienteLicense{}).Where("id <> ? AND is_primary = ?", l.ID, true).Update("is_primary", false).Error
}

// AfterSave deja una sola configuración de empresa activa.
func (c *ConfiguracionEmpresa) AfterSave(tx *gorm.DB) error {
	if !c.Activo {
		return nil
	}
	return tx.Model(&ConfiguracionEmpresa{}).Where("id <> ? AND activo = ?", c.ID, true).Update("activo", false).Error
}

// AfterSave deja una sola configuración de correo activa.
func (c *ConfiguracionEmail) AfterSave(tx *gorm.DB) error {
	if !c.Activo {
		return nil
	}
	return tx.Model(&ConfiguracionEmail{}).Where("id <> ? AND activo = ?", c.ID, true).Update("activo", false).Error
}

func validarAno(ano int) error {
	if ano < 1900 || ano > 2100 {
		return ErrAnoFueraDeRango
	}
	return nil
}

func (h *IPCHistorico) BeforeSave(tx *gorm.DB) error {
	if err := validarAno(h.Ano); err != nil {
		return err
	}
	if h.ValorIPC.IsNegative() {
		return ErrValorNegativo
	}
	return nil
}

// BeforeSave calcula la variación frente al año anterior.
func (s *SalarioMinimoHistorico) BeforeSave(tx *gorm.DB) error {
	if err := validarAno(s.Ano); err != nil {
		return err
	}
	if s.ValorSalarioMinimo.IsNegative() {
		return ErrValorNegativo
	}
	var anterior SalarioMinimoHistorico
	err := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true}).Where("ano = ?", s.Ano-1).First(&anterior).Error
	switch {
	case err == nil:
		s.VariacionPorcentual = VariacionPorcentual(anterior.ValorSalarioMinimo, s.ValorSalarioMinimo)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return err
	}
	return nil
}

// AfterSave recalcula la variación del año siguiente, que depende de este valor.
func (s *SalarioMinimoHistorico) AfterSave(tx *gorm.DB) error {
	var siguiente SalarioMinimoHistorico
	db := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true})
	err := db.Where("ano = ?", s.Ano+1).First(&siguiente).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	v := VariacionPorcentual(s.ValorSalarioMinimo, siguiente.ValorSalarioMinimo)
	return db.Model(&siguiente).Update("variacion_porcentual", v).Error
}

// VariacionPorcentual = (nuevo - anterior) / anterior * 100, a dos decimales.
func VariacionPorcentual(anterior, nuevo decimal.Decimal) *decimal.Decimal {
	if !anterior.IsPositive() {
		return nil
	}
	v := nuevo.Sub(anterior).Div(anterior).Mul(decimal.NewFromInt(100)).Round(2)
	return &v
}

// BeforeSave aplica las reglas de origen único y de colchón.
func (p *Poliza) BeforeSave(tx *gorm.DB) error {
	if p.OtroSiID != nil && p.RenovacionID != nil {
		return ErrOrigenMultiple
	}
	p.DocumentoOrigenTipo = p.Origen()
	if p.MesesColchon < 0 {
		return ErrValorNegativo
	}
	if p.MesesColchon > 0 {
		p.TieneColchon = true
	}
	if p.TieneColchon && p.MesesColchon == 0 {
		return ErrColchonSinMeses
	}
	if p.ValorAsegurado.IsNegative() {
		return ErrValorNegativo
	}
	return nil
}
