package dto

import "time"

// CreateRoleRequest entrada para crear un rol con permisos.
type CreateRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Description string   `json:"description" validate:"omitempty,max=500"`
	Permissions []string `json:"permissions" validate:"dive,min=1,max=100"`
}

// UpdateRoleRequest entrada para actualizar un rol; Permissions, si viene,
// reemplaza el conjunto completo.
type UpdateRoleRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,min=1,max=100"`
}

// RoleResponse salida de un rol.
type RoleResponse struct {
	ID          string    `json:"id"`
	CompanyID   string    `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleListResponse lista de roles de la empresa (sin paginar: son pocos).
type RoleListResponse struct {
	Items []RoleResponse `json:"items"`
}
