package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario. Pertenece a
// una sucursal (BranchID) y es la unidad sobre la que se hacen cierres.
type Warehouse struct {
	ID        string
	CompanyID string
	BranchID  string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
