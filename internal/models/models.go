// Package models contiene los registros persistidos que comparten varios paquetes.
package models

import (
	"gorm.io/gorm"
)

// Todos devuelve los modelos para AutoMigrate, en orden de dependencia.
func Todos() []any {
	return []any{
		&Contrato{},
		&OtroSi{},
		&RenovacionAutomatica{},
		&Poliza{},
		&IPCHistorico{},
		&SalarioMinimoHistorico{},
		&CalculoIPC{},
		&CalculoSalarioMinimo{},
		&ConfiguracionEmpresa{},
		&ClienteLicense{},
		&ConfiguracionEmail{},
		&ConfiguracionAlerta{},
		&DestinatarioAlerta{},
		&HistorialEnvioEmail{},
		&Tercero{},
		&Local{},
		&TipoContrato{},
		&TipoServicio{},
		&InformeVentas{},
		&CalculoFacturacionVentas{},
		&Clausula{},
		&ClausulaObligatoria{},
		&ClausulaContrato{},
		&SeguimientoContrato{},
		&SeguimientoPoliza{},
	}
}

// Migrate crea o actualiza las tablas del dominio.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Todos()...); err != nil {
		return err
	}
	// índice único (contrato, fecha) por tabla de cálculo
	for _, t := range []string{"calculos_ipc", "calculos_salario_minimo"} {
		if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_" + t + "_contrato_fecha ON " + t + " (contrato_id, fecha_aplicacion)").Error; err != nil {
			return err
		}
	}
	return nil
}
