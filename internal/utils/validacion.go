package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

var validate = validator.New()

// ErrValidacion agrupa los errores de validación por campo.
type ErrValidacion struct {
	Campos map[string]string `json:"errores"`
}

func (e *ErrValidacion) Error() string {
	partes := make([]string, 0, len(e.Campos))
	for k, v := range e.Campos {
		partes = append(partes, k+": "+v)
	}
	return "validación: " + strings.Join(partes, "; ")
}

// NuevoErrValidacion crea un error de un solo campo.
func NuevoErrValidacion(campo, msg string) *ErrValidacion {
	return &ErrValidacion{Campos: map[string]string{campo: msg}}
}

// Validar aplica las etiquetas validate del DTO.
func Validar(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ErrValidacion{Campos: map[string]string{}}
	for _, fe := range verrs {
		out.Campos[fe.Field()] = mensajeRegla(fe)
	}
	return out
}

func mensajeRegla(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obligatorio"
	case "oneof":
		return "valor no permitido, use uno de: " + fe.Param()
	case "min", "gte":
		return "debe ser mayor o igual a " + fe.Param()
	case "max", "lte":
		return "debe ser menor o igual a " + fe.Param()
	case "email":
		return "correo inválido"
	}
	return fmt.Sprintf("regla %s no cumplida", fe.Tag())
}

// ResponderError escribe 400 con los campos cuando es un ErrValidacion, y msg genérico en otro caso.
func ResponderError(w http.ResponseWriter, err error, msg string, status int) {
	var ve *ErrValidacion
	if errors.As(err, &ve) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ve)
		return
	}
	http.Error(w, msg, status)
}

// IDRuta lee un parámetro numérico de la ruta.
func IDRuta(r *http.Request, nombre string) (uint, error) {
	id, err := strconv.Atoi(mux.Vars(r)[nombre])
	if err != nil || id <= 0 {
		return 0, errors.New("ID inválido")
	}
	return uint(id), nil
}

// FechaQuery lee ?nombre=YYYY-MM-DD; sin valor devuelve def.
func FechaQuery(r *http.Request, nombre string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(nombre)
	if v == "" {
		return def, nil
	}
	return time.Parse("2006-01-02", v)
}

// JSON escribe v con el código indicado.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decodificar lee el cuerpo JSON y aplica las validaciones del DTO.
func Decodificar(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NuevoErrValidacion("body", "JSON inválido")
	}
	return Validar(v)
}

// UintQuery lee un entero positivo de la query.
func UintQuery(r *http.Request, nombre string) (uint, error) {
	n, err := strconv.Atoi(r.URL.Query().Get(nombre))
	if err != nil || n < 0 {
		return 0, errors.New("número inválido")
	}
	return uint(n), nil
}
