package entity

import "time"

// Company representa una organización/tenant del sistema (multi-tenant, enfoque Chile).
type Company struct {
	ID        string
	Name      string
	RUT       string // RUT chileno con dígito verificador (ej. 76.123.456-K)
	Address   string
	Phone     string
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
