// Package respaldo genera copias de la base: volcado JSON de todas las tablas y, en SQLite,
// una copia del archivo. Las copias viejas se borran por antigüedad y pueden subirse a GCS.
package respaldo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/config"
	"github.com/KromaEnergia/api-contratos/internal/models"
	"github.com/KromaEnergia/api-contratos/internal/usuario"
)

const (
	FormatoJSON   = "json"
	FormatoSQLite = "sqlite"
	FormatoAmbos  = "both"

	prefijo = "backup_"
)

var ErrFormato = errors.New("formato de respaldo desconocido: use json, sqlite o both")

type Opciones struct {
	Dir      string
	KeepDays int
	Formato  string
	Remoto   bool
}

// Resultado lista lo que produjo una ejecución.
type Resultado struct {
	Archivos   []string `json:"archivos"`
	Subidos    []string `json:"subidos"`
	Eliminados int      `json:"eliminados"`
	Avisos     []string `json:"avisos,omitempty"`
}

type Respaldo struct {
	DB      *gorm.DB
	Subidor Subidor
	Ahora   func() time.Time
}

func New(db *gorm.DB, s Subidor) *Respaldo {
	return &Respaldo{DB: db, Subidor: s, Ahora: time.Now}
}

// Tablas que entran en el volcado JSON. Los refresh tokens se excluyen.
func tablas() []any {
	return append(models.Todos(), &usuario.Usuario{})
}

func (r *Respaldo) Ejecutar(ctx context.Context, o Opciones) (Resultado, error) {
	var res Resultado
	if o.Formato == "" {
		o.Formato = FormatoAmbos
	}
	if o.Formato != FormatoJSON && o.Formato != FormatoSQLite && o.Formato != FormatoAmbos {
		return res, ErrFormato
	}
	if o.Dir == "" {
		o.Dir = "backups"
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return res, fmt.Errorf("crear directorio de respaldos: %w", err)
	}

	ahora := r.Ahora()
	sello := ahora.Format("20060102_150405")
	log := config.GetLogger()

	if o.Formato != FormatoSQLite {
		p := filepath.Join(o.Dir, prefijo+sello+".json")
		if err := r.VolcarJSON(ctx, p); err != nil {
			return res, err
		}
		res.Archivos = append(res.Archivos, p)
	}
	if o.Formato != FormatoJSON {
		if r.DB.Dialector.Name() != "sqlite" {
			aviso := "copia de archivo solo disponible con SQLite; se omite"
			res.Avisos = append(res.Avisos, aviso)
			log.Warn(aviso)
		} else {
			p := filepath.Join(o.Dir, prefijo+"db_"+sello+".sqlite3")
			if err := r.CopiarSQLite(ctx, p); err != nil {
				return res, err
			}
			res.Archivos = append(res.Archivos, p)
		}
	}

	if o.KeepDays > 0 {
		n, err := Limpiar(o.Dir, ahora.AddDate(0, 0, -o.KeepDays))
		if err != nil {
			return res, err
		}
		res.Eliminados = n
	}

	if o.Remoto {
		if r.Subidor == nil {
			aviso := "respaldo remoto pedido sin destino configurado"
			res.Avisos = append(res.Avisos, aviso)
			log.Warn(aviso)
		} else {
			for _, p := range res.Archivos {
				nombre, err := r.subir(ctx, p)
				if err != nil {
					// la copia local ya quedó hecha
					config.LogError(log, "respaldo", "Ejecutar", "error subiendo respaldo", map[string]any{"archivo": p}, err)
					res.Avisos = append(res.Avisos, fmt.Sprintf("%s: %v", filepath.Base(p), err))
					continue
				}
				res.Subidos = append(res.Subidos, nombre)
			}
		}
	}
	log.WithFields(map[string]any{
		"archivos": len(res.Archivos), "eliminados": res.Eliminados, "subidos": len(res.Subidos),
	}).Info("respaldo terminado")
	return res, nil
}

type volcado struct {
	Generado time.Time                   `json:"generado"`
	Tablas   map[string][]map[string]any `json:"tablas"`
}

// VolcarJSON escribe todas las filas de cada tabla, incluidas las borradas lógicamente.
func (r *Respaldo) VolcarJSON(ctx context.Context, destino string) error {
	db := r.DB.WithContext(ctx)
	out := volcado{Generado: r.Ahora(), Tablas: map[string][]map[string]any{}}
	for _, m := range tablas() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return err
		}
		nombre := stmt.Schema.Table
		var filas []map[string]any
		if err := db.Table(nombre).Order(clavePrimaria(stmt)).Find(&filas).Error; err != nil {
			return fmt.Errorf("volcar %s: %w", nombre, err)
		}
		if filas == nil {
			filas = []map[string]any{}
		}
		out.Tablas[nombre] = filas
	}

	f, err := os.Create(destino)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		f.Close()
		os.Remove(destino)
		return err
	}
	return f.Close()
}

func clavePrimaria(stmt *gorm.Statement) string {
	if stmt.Schema.PrioritizedPrimaryField != nil {
		return stmt.Schema.PrioritizedPrimaryField.DBName
	}
	return "rowid"
}

// CopiarSQLite usa VACUUM INTO, que produce una copia consistente sin detener la base.
func (r *Respaldo) CopiarSQLite(ctx context.Context, destino string) error {
	if _, err := os.Stat(destino); err == nil {
		return fmt.Errorf("el archivo %s ya existe", destino)
	}
	if err := r.DB.WithContext(ctx).Exec("VACUUM INTO ?", destino).Error; err != nil {
		return fmt.Errorf("copiar sqlite: %w", err)
	}
	return nil
}

// Limpiar borra los respaldos del directorio modificados antes de corte.
func Limpiar(dir string, corte time.Time) (int, error) {
	entradas, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	borrados := 0
	for _, e := range entradas {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefijo) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(corte) {
			p := filepath.Join(dir, e.Name())
			if err := os.Remove(p); err != nil {
				config.GetLogger().WithField("archivo", p).Warn("no se pudo borrar el respaldo: " + err.Error())
				continue
			}
			borrados++
		}
	}
	return borrados, nil
}

func (r *Respaldo) subir(ctx context.Context, p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	tipo := "application/json"
	if strings.HasSuffix(p, ".sqlite3") {
		tipo = "application/vnd.sqlite3"
	}
	nombre := "backups/" + filepath.Base(p)
	if err := r.Subidor.Subir(ctx, nombre, f, tipo); err != nil {
		return "", err
	}
	return nombre, nil
}
