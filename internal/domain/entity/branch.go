package entity

import "time"

// Branch representa una sucursal de la empresa. Las bodegas cuelgan de una
// sucursal; los cierres de inventario se hacen por bodega.
type Branch struct {
	ID        string
	CompanyID string
	Code      string // código corto único por empresa (ej. SCL-01)
	Name      string
	Address   string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
