package entity

import "time"

// Permisos conocidos del sistema. Se guardan como strings en role_permissions;
// el middleware HTTP decide con ellos sin consultar reglas adicionales.
const (
	PermBranchesManage   = "branches.manage"
	PermWarehousesManage = "warehouses.manage"
	PermCustomersManage  = "customers.manage"
	PermProductsManage   = "products.manage"
	PermMovementsCreate  = "movements.create"
	PermClosuresView     = "closures.view"
	PermClosuresManage   = "closures.manage"  // crear, procesar, registrar conteos
	PermClosuresApprove  = "closures.approve" // aprobar, cerrar, reabrir
	PermDTEImport        = "dte.import"
	PermRolesManage      = "roles.manage"
	PermUsersManage      = "users.manage"
)

// Nombres de rol sembrados por defecto (cmd/seedadmin).
const (
	RoleAdmin     = "admin"     // todos los permisos
	RoleBodeguero = "bodeguero" // movimientos, conteos, vista de cierres
	RoleContador  = "contador"  // aprobar/cerrar/reabrir cierres, importar DTE
)

// Role representa un rol por empresa con su conjunto de permisos.
type Role struct {
	ID          string
	CompanyID   string
	Name        string
	Description string
	Permissions []string // ver constantes Perm*
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasPermission verifica si el rol incluye un permiso.
func (r *Role) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
