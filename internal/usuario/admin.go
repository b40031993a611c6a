package usuario

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/KromaEnergia/api-contratos/internal/utils"
)

var ErrPasswordCorta = errors.New("la contraseña debe tener al menos 8 caracteres")

// CrearAdmin crea el administrador o, si el username ya existe, lo promueve y cambia su contraseña.
// Devuelve true cuando el usuario es nuevo.
func CrearAdmin(ctx context.Context, db *gorm.DB, username, email, password string) (*Usuario, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, false, errors.New("el username es obligatorio")
	}
	if len(password) < 8 {
		return nil, false, ErrPasswordCorta
	}
	hash, err := utils.HashSenha(password)
	if err != nil {
		return nil, false, err
	}
	db = db.WithContext(ctx)
	var u Usuario
	err = db.Where("username = ?", username).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = Usuario{Username: username, Nombre: username, Email: email, Password: hash, IsAdmin: true, Activo: true}
		if err := db.Create(&u).Error; err != nil {
			return nil, false, err
		}
		return &u, true, nil
	case err != nil:
		return nil, false, err
	}
	cambios := map[string]any{"password": hash, "is_admin": true, "activo": true}
	if email != "" {
		cambios["email"] = email
	}
	if err := db.Model(&u).Updates(cambios).Error; err != nil {
		return nil, false, err
	}
	return &u, false, nil
}
