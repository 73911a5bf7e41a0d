package repository

import "github.com/inventasur/bodega-api/internal/domain/entity"

// RoleRepository define el puerto de persistencia para roles y sus permisos.
// Update reemplaza el conjunto completo de permisos del rol.
type RoleRepository interface {
	Create(role *entity.Role) error
	GetByID(id string) (*entity.Role, error)
	GetByCompanyAndName(companyID, name string) (*entity.Role, error)
	Update(role *entity.Role) error
	ListByCompany(companyID string) ([]*entity.Role, error)
	Delete(id string) error
}
