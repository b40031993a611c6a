package indexacion

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/models"
)

// IPCDane es la variación anual certificada por el DANE.
var IPCDane = map[int]string{
	2010: "3.17", 2011: "3.73", 2012: "2.44", 2013: "1.94", 2014: "3.66",
	2015: "6.77", 2016: "5.75", 2017: "4.09", 2018: "3.18", 2019: "3.80",
	2020: "1.61", 2021: "5.62", 2022: "13.12", 2023: "9.28", 2024: "5.20",
}

// InicializarIPC carga valores en ipc_historico. Los años existentes se sobrescriben.
func InicializarIPC(ctx context.Context, db *gorm.DB, valores map[int]string, usuario string) (creados, actualizados int, err error) {
	anos := make([]int, 0, len(valores))
	for a := range valores {
		anos = append(anos, a)
	}
	sort.Ints(anos)

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, a := range anos {
			v, err := decimal.NewFromString(valores[a])
			if err != nil {
				return err
			}
			var ipc models.IPCHistorico
			e := tx.Where("ano = ?", a).First(&ipc).Error
			switch {
			case errors.Is(e, gorm.ErrRecordNotFound):
				ipc = models.IPCHistorico{Ano: a, ValorIPC: v, CreadoPor: usuario}
				if err := tx.Create(&ipc).Error; err != nil {
					return err
				}
				creados++
			case e != nil:
				return e
			default:
				ipc.ValorIPC = v
				if err := tx.Save(&ipc).Error; err != nil {
					return err
				}
				actualizados++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return creados, actualizados, nil
}
