package usuario

import (
	"gorm.io/gorm"
)

type Repository interface {
	FindByLogin(db *gorm.DB, login string) (*Usuario, error)
	Save(db *gorm.DB, u *Usuario) error
	ListAll(db *gorm.DB) ([]Usuario, error)
	FindByID(db *gorm.DB, id uint) (*Usuario, error)
	Update(db *gorm.DB, id uint, req *ActualizarRequest) (*Usuario, error)
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

// FindByLogin busca por username y, si no existe, por correo.
func (r *repositoryImpl) FindByLogin(db *gorm.DB, login string) (*Usuario, error) {
	var u Usuario
	err := db.Where("username = ?", login).First(&u).Error
	if err == gorm.ErrRecordNotFound {
		err = db.Where("email = ? AND email <> ''", login).First(&u).Error
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) Save(db *gorm.DB, u *Usuario) error {
	return db.Create(u).Error
}

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Usuario, error) {
	var list []Usuario
	err := db.Order("username").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Usuario, error) {
	var u Usuario
	if err := db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repositoryImpl) Update(db *gorm.DB, id uint, req *ActualizarRequest) (*Usuario, error) {
	u, err := r.FindByID(db, id)
	if err != nil {
		return nil, err
	}
	cambios := map[string]any{}
	if req.Nombre != nil {
		cambios["nombre"] = *req.Nombre
	}
	if req.Email != nil {
		cambios["email"] = *req.Email
	}
	if req.IsAdmin != nil {
		cambios["is_admin"] = *req.IsAdmin
	}
	if req.Activo != nil {
		cambios["activo"] = *req.Activo
	}
	if len(cambios) > 0 {
		if err := db.Model(u).Updates(cambios).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(db, id)
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	res := db.Delete(&Usuario{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
