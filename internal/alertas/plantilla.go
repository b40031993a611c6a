package alertas

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/KromaEnergia/api-contratos/internal/fechas"
	"github.com/KromaEnergia/api-contratos/internal/models"
)

var coloresHTML = map[string]string{
	ColorPeligro:     "#f8d7da",
	ColorAdvertencia: "#fff3cd",
	ColorExito:       "#d4edda",
}

var plantilla = template.Must(template.New("alertas").Funcs(template.FuncMap{
	"fecha": func(t *time.Time) string { return fechas.Formato(t) },
	"fondo": func(c string) string { return coloresHTML[c] },
}).Parse(`<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #333;">
<h2>{{.Titulo}}</h2>
<p>Fecha de referencia: {{.Referencia}} &middot; {{len .Alertas}} alerta(s)</p>
{{if .Empresa}}<p><strong>{{.Empresa}}</strong></p>{{end}}
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse; font-size: 13px;">
<tr style="background:#343a40;color:#fff;">
<th>Contrato</th><th>Tercero</th><th>Fecha</th><th>Días</th><th>Detalle</th><th>Modificado por</th>
</tr>
{{range .Alertas}}<tr style="background:{{fondo .Color}};">
<td>{{.NumContrato}}</td><td>{{.Tercero}}</td><td>{{fecha .Fecha}}</td><td>{{.Dias}}</td>
<td>{{.Descripcion}}{{if .NumeroPoliza}} (póliza {{.NumeroPoliza}}){{end}}</td><td>{{.Modificador}}</td>
</tr>
{{end}}</table>
<p style="font-size: 11px; color: #777;">Mensaje generado automáticamente por el sistema de gestión de contratos.</p>
</body></html>`))

type datosPlantilla struct {
	Titulo     string
	Referencia string
	Empresa    string
	Alertas    []Alerta
}

// RenderHTML arma el cuerpo del correo para un tipo de alerta.
func RenderHTML(tipo string, ref time.Time, empresa string, list []Alerta) (string, error) {
	var buf bytes.Buffer
	err := plantilla.Execute(&buf, datosPlantilla{
		Titulo:     models.NombresAlerta[tipo],
		Referencia: ref.Format("02/01/2006"),
		Empresa:    empresa,
		Alertas:    list,
	})
	if err != nil {
		return "", fmt.Errorf("render alertas %s: %w", tipo, err)
	}
	return buf.String(), nil
}

// RenderTexto es la alternativa en texto plano.
func RenderTexto(tipo string, ref time.Time, list []Alerta) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n\n", models.NombresAlerta[tipo], ref.Format("02/01/2006"))
	for _, a := range list {
		fmt.Fprintf(&b, "- %s %s: %s\n", a.NumContrato, a.Tercero, a.Descripcion)
	}
	return b.String()
}
