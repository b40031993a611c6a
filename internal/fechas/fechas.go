// Package fechas tiene la aritmética de fechas de calendario usada en contratos y pólizas.
// Todas las fechas se tratan como días en UTC, sin hora.
package fechas

import (
	"math"
	"time"
)

const Layout = "2006-01-02"

// Dia normaliza t a medianoche UTC conservando el día de calendario.
func Dia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nueva construye una fecha de calendario.
func Nueva(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Hoy devuelve la fecha de hoy.
func Hoy() time.Time { return Dia(time.Now()) }

// Ptr devuelve un puntero a la fecha normalizada.
func Ptr(t time.Time) *time.Time {
	d := Dia(t)
	return &d
}

// Parse interpreta YYYY-MM-DD.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// SumarMeses suma n meses; si el día no existe en el mes destino se usa el último día.
// 31/01 + 1 mes = 29/02 (año bisiesto).
func SumarMeses(t time.Time, n int) time.Time {
	t = Dia(t)
	y, m, d := t.Date()
	total := int(m) - 1 + n
	y += total / 12
	mm := total % 12
	if mm < 0 {
		mm += 12
		y--
	}
	mes := time.Month(mm + 1)
	if ultimo := UltimoDiaMes(y, mes); d > ultimo {
		d = ultimo
	}
	return time.Date(y, mes, d, 0, 0, 0, 0, time.UTC)
}

// SumarAnios suma n años con la misma regla de fin de mes.
func SumarAnios(t time.Time, n int) time.Time { return SumarMeses(t, 12*n) }

// SumarDias suma n días.
func SumarDias(t time.Time, n int) time.Time { return Dia(t).AddDate(0, 0, n) }

// UltimoDiaMes devuelve el número de días del mes.
func UltimoDiaMes(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FinDeMes devuelve el último día del mes indicado.
func FinDeMes(y int, m time.Month) time.Time {
	return time.Date(y, m, UltimoDiaMes(y, m), 0, 0, 0, 0, time.UTC)
}

// DiasEntre devuelve b - a en días completos.
func DiasEntre(a, b time.Time) int {
	return int(Dia(b).Sub(Dia(a)).Hours() / 24)
}

// MesesAproximados convierte días a meses de 30 días con redondeo.
func MesesAproximados(dias int) int {
	return int(math.Round(float64(dias) / 30.0))
}

// MesesVigencia calcula los meses entre dos fechas (meses de 30 días, redondeo).
func MesesVigencia(inicio, fin time.Time) int {
	return MesesAproximados(DiasEntre(inicio, fin))
}

// Cubre indica si ref está dentro de [desde, hasta]; hasta nil es abierto.
func Cubre(desde time.Time, hasta *time.Time, ref time.Time) bool {
	ref = Dia(ref)
	if Dia(desde).After(ref) {
		return false
	}
	return hasta == nil || !Dia(*hasta).Before(ref)
}

// Min devuelve la menor de dos fechas.
func Min(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// Max devuelve la mayor de dos fechas.
func Max(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// Formato devuelve DD/MM/YYYY, o cadena vacía si t es nil.
func Formato(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
