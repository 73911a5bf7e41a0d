package entity

import "time"

// User representa un usuario del sistema (pertenece a una Company y tiene un Role).
type User struct {
	ID           string
	CompanyID    string
	RoleID       string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
