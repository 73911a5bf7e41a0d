package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo implementación del puerto RoleRepository sobre PostgreSQL.
// Los permisos viven en role_permissions (una fila por permiso).
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador de persistencia para roles.
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

// Create persiste un rol y sus permisos.
func (r *RoleRepo) Create(role *entity.Role) error {
	query := `
		INSERT INTO roles (id, company_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		role.ID, role.CompanyID, role.Name, role.Description, role.CreatedAt, role.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return r.insertPermissions(role.ID, role.Permissions)
}

func (r *RoleRepo) insertPermissions(roleID string, permissions []string) error {
	for _, perm := range permissions {
		_, err := r.q.Exec(context.Background(),
			`INSERT INTO role_permissions (role_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, perm,
		)
		if err != nil {
			return fmt.Errorf("insert role permission: %w", err)
		}
	}
	return nil
}

func (r *RoleRepo) loadPermissions(roleID string) ([]string, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY permission`, roleID)
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *RoleRepo) getOne(query string, args ...any) (*entity.Role, error) {
	var role entity.Role
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&role.ID, &role.CompanyID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	role.Permissions, err = r.loadPermissions(role.ID)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// GetByID obtiene un rol con sus permisos.
func (r *RoleRepo) GetByID(id string) (*entity.Role, error) {
	role, err := r.getOne(`SELECT id, company_id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// GetByCompanyAndName obtiene un rol por empresa y nombre.
func (r *RoleRepo) GetByCompanyAndName(companyID, name string) (*entity.Role, error) {
	role, err := r.getOne(`SELECT id, company_id, name, description, created_at, updated_at FROM roles WHERE company_id = $1 AND name = $2`, companyID, name)
	if err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return role, nil
}

// Update actualiza un rol y reemplaza su conjunto de permisos.
func (r *RoleRepo) Update(role *entity.Role) error {
	query := `
		UPDATE roles SET name = $2, description = $3, updated_at = $4
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		role.ID, role.Name, role.Description, role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if _, err := r.q.Exec(context.Background(),
		`DELETE FROM role_permissions WHERE role_id = $1`, role.ID); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}
	return r.insertPermissions(role.ID, role.Permissions)
}

// ListByCompany lista los roles de la empresa con sus permisos.
func (r *RoleRepo) ListByCompany(companyID string) ([]*entity.Role, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT id, company_id, name, description, created_at, updated_at FROM roles WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()
	var list []*entity.Role
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.CompanyID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		list = append(list, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, role := range list {
		role.Permissions, err = r.loadPermissions(role.ID)
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Delete elimina un rol y sus permisos.
func (r *RoleRepo) Delete(id string) error {
	if _, err := r.q.Exec(context.Background(), `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return fmt.Errorf("delete role permissions: %w", err)
	}
	_, err := r.q.Exec(context.Background(), `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}
