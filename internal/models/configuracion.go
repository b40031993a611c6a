package models

import "time"

const (
	LicenciaPendiente = "pending"
	LicenciaValida    = "valid"
	LicenciaExpirada  = "expired"
	LicenciaInvalida  = "invalid"
	LicenciaRevocada  = "revoked"
)

// ClienteLicense es el registro local de la licencia emitida por el proveedor.
type ClienteLicense struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	LicenseKey         string     `gorm:"size:255;uniqueIndex;not null" json:"-"`
	IsPrimary          bool       `gorm:"default:false;index" json:"isPrimary"`
	CustomerName       string     `gorm:"size:255" json:"customerName"`
	CustomerEmail      string     `gorm:"size:255" json:"customerEmail"`
	ExpirationDate     *time.Time `json:"expirationDate"`
	IsActive           bool       `json:"isActive"`
	LastVerification   *time.Time `json:"lastVerification"`
	VerificationStatus string     `gorm:"size:20;default:pending" json:"verificationStatus"`
	UltimoMensaje      string     `gorm:"type:text" json:"ultimoMensaje"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (ClienteLicense) TableName() string { return "cliente_license" }

type ConfiguracionEmpresa struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nombre    string    `gorm:"size:200;not null" json:"nombre"`
	Nit       string    `gorm:"size:30" json:"nit"`
	Direccion string    `gorm:"size:300" json:"direccion"`
	Telefono  string    `gorm:"size:50" json:"telefono"`
	Email     string    `gorm:"size:200" json:"email"`
	LogoURL   string    `gorm:"size:500" json:"logoUrl"`
	Activo    bool      `gorm:"default:false;index" json:"activo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ConfiguracionEmpresa) TableName() string { return "configuracion_empresa" }

type ConfiguracionEmail struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Nombre          string    `gorm:"size:100;not null" json:"nombre"`
	Host            string    `gorm:"size:200;not null" json:"host"`
	Puerto          int       `gorm:"default:587" json:"puerto"`
	UsarTLS         bool      `json:"usarTls"`
	UsarSSL         bool      `gorm:"default:false" json:"usarSsl"`
	Usuario         string    `gorm:"size:200" json:"usuario"`
	PasswordCifrado string    `gorm:"type:text" json:"-"`
	EmailDesde      string    `gorm:"size:200;not null" json:"emailDesde"`
	NombreDesde     string    `gorm:"size:200" json:"nombreDesde"`
	Activo          bool      `gorm:"default:false;index" json:"activo"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (ConfiguracionEmail) TableName() string { return "configuracion_email" }
