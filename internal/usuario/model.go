package usuario

import "time"

type Usuario struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Nombre       string     `gorm:"size:200" json:"nombre"`
	Email        string     `gorm:"size:200;index" json:"email"`
	Password     string     `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool       `gorm:"default:false" json:"isAdmin"`
	Activo       bool       `gorm:"default:true" json:"activo"`
	UltimoAcceso *time.Time `json:"ultimoAcceso"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Usuario) TableName() string { return "usuarios" }

// NombreVisible es el nombre que queda en los campos de auditoría.
func (u *Usuario) NombreVisible() string {
	if u.Nombre != "" {
		return u.Nombre
	}
	return u.Username
}
