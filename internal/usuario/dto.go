package usuario

// LoginRequest acepta usuario o correo en Username.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CrearRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Nombre   string `json:"nombre" validate:"max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ActualizarRequest usa punteros para omitir lo que no cambia.
type ActualizarRequest struct {
	Nombre  *string `json:"nombre,omitempty" validate:"omitempty,max=200"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	IsAdmin *bool   `json:"isAdmin,omitempty"`
	Activo  *bool   `json:"activo,omitempty"`
}

type CambioPasswordRequest struct {
	Actual string `json:"actual" validate:"required"`
	Nueva  string `json:"nueva" validate:"required,min=8"`
}
