// Package exportes genera los archivos XLSX de contratos y alertas.
package exportes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrExportacionVacia = errors.New("no hay información disponible para exportar")

const (
	colorOscuro    = "2C3E50"
	colorGrisClaro = "E0E0E0"
	formatoEntero  = "#,##0"
	sinDato        = "N/A"
)

type Columna struct {
	Titulo   string
	Ancho    float64
	Numerica bool
}

// Hoja es una pestaña del libro.
type Hoja struct {
	Nombre   string
	Columnas []Columna
	Filas    [][]any
}

// LimpiarNombreHoja quita los caracteres que Excel no admite y corta a 31.
func LimpiarNombreHoja(nombre string) string {
	nombre = strings.NewReplacer("/", " ", `\`, " ", "?", " ", "*", " ", "[", " ", "]", " ", ":", " ").Replace(nombre)
	nombre = strings.Join(strings.Fields(nombre), " ")
	if r := []rune(nombre); len(r) > 31 {
		nombre = strings.TrimRight(string(r[:31]), " ")
	}
	if nombre == "" {
		nombre = "Hoja"
	}
	return nombre
}

// celda normaliza un valor: vacíos a N/A y, en columnas numéricas, decimales a entero redondeado.
func celda(v any, numerica bool) any {
	switch x := v.(type) {
	case nil:
		return sinDato
	case string:
		if strings.TrimSpace(x) == "" {
			return sinDato
		}
		return x
	case *string:
		if x == nil {
			return sinDato
		}
		return celda(*x, numerica)
	case *decimal.Decimal:
		if x == nil {
			return sinDato
		}
		return celda(*x, numerica)
	case decimal.Decimal:
		if numerica {
			return x.Round(0).IntPart()
		}
		return x.String()
	case *time.Time:
		if x == nil {
			return sinDato
		}
		return x.Format("02/01/2006")
	case time.Time:
		return x.Format("02/01/2006")
	case *int:
		if x == nil {
			return sinDato
		}
		return *x
	case bool:
		if x {
			return "Sí"
		}
		return "No"
	}
	return v
}

// Generar arma un libro con formato corporativo: encabezado oscuro, panel congelado y pie con la fecha.
func Generar(hojas []Hoja, ahora time.Time) ([]byte, error) {
	total := 0
	for _, h := range hojas {
		total += len(h.Filas)
	}
	if total == 0 {
		return nil, ErrExportacionVacia
	}

	f := excelize.NewFile()
	defer f.Close()

	estilos, err := nuevosEstilos(f)
	if err != nil {
		return nil, err
	}
	for i, h := range hojas {
		nombre := LimpiarNombreHoja(h.Nombre)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", nombre); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(nombre); err != nil {
			return nil, err
		}
		if err := escribirHoja(f, nombre, h, estilos, ahora); err != nil {
			return nil, fmt.Errorf("hoja %s: %w", nombre, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type estilos struct {
	encabezado, texto, numero, pie int
}

func nuevosEstilos(f *excelize.File) (estilos, error) {
	var e estilos
	borde := []excelize.Border{
		{Type: "left", Color: colorGrisClaro, Style: 1},
		{Type: "right", Color: colorGrisClaro, Style: 1},
		{Type: "top", Color: colorGrisClaro, Style: 1},
		{Type: "bottom", Color: colorGrisClaro, Style: 1},
	}
	fmtEntero := formatoEntero
	var err error
	if e.encabezado, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Family: "Arial", Size: 9, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorOscuro}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    borde,
	}); err != nil {
		return e, err
	}
	if e.texto, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Family: "Arial", Size: 9},
		Border: borde,
	}); err != nil {
		return e, err
	}
	if e.numero, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Family: "Arial", Size: 9},
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       borde,
		CustomNumFmt: &fmtEntero,
	}); err != nil {
		return e, err
	}
	e.pie, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Family: "Arial", Size: 9, Italic: true, Color: colorOscuro},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	return e, err
}

func escribirHoja(f *excelize.File, hoja string, h Hoja, e estilos, ahora time.Time) error {
	ncols := len(h.Columnas)
	titulos := make([]any, ncols)
	for i, c := range h.Columnas {
		titulos[i] = c.Titulo
	}
	if err := f.SetSheetRow(hoja, "A1", &titulos); err != nil {
		return err
	}
	ultimaCol, err := excelize.ColumnNumberToName(ncols)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(hoja, "A1", ultimaCol+"1", e.encabezado); err != nil {
		return err
	}
	_ = f.SetRowHeight(hoja, 1, 24)

	for i, fila := range h.Filas {
		if len(fila) != ncols {
			return fmt.Errorf("la fila %d tiene %d valores y se esperaban %d", i+1, len(fila), ncols)
		}
		valores := make([]any, ncols)
		for j, v := range fila {
			valores[j] = celda(v, h.Columnas[j].Numerica)
		}
		inicio, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(hoja, inicio, &valores); err != nil {
			return err
		}
	}

	ultimaFila := len(h.Filas) + 1
	for j, c := range h.Columnas {
		col, _ := excelize.ColumnNumberToName(j + 1)
		estilo := e.texto
		if c.Numerica {
			estilo = e.numero
		}
		if ultimaFila > 1 {
			if err := f.SetCellStyle(hoja, col+"2", fmt.Sprintf("%s%d", col, ultimaFila), estilo); err != nil {
				return err
			}
		}
		ancho := c.Ancho
		if ancho == 0 {
			ancho = 15
		}
		if err := f.SetColWidth(hoja, col, col, ancho); err != nil {
			return err
		}
	}

	pie := ultimaFila + 2
	celdaPie := fmt.Sprintf("A%d", pie)
	if err := f.SetCellValue(hoja, celdaPie, "Generado el "+ahora.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}
	if ncols > 1 {
		if err := f.MergeCell(hoja, celdaPie, fmt.Sprintf("%s%d", ultimaCol, pie)); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(hoja, celdaPie, celdaPie, e.pie); err != nil {
		return err
	}

	sinGrilla := false
	if err := f.SetSheetView(hoja, 0, &excelize.ViewOptions{ShowGridLines: &sinGrilla}); err != nil {
		return err
	}
	return f.SetPanes(hoja, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}
