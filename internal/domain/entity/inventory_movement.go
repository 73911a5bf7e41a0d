package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementTypeIN         = "IN"         // entrada
	MovementTypeOUT        = "OUT"        // salida
	MovementTypeADJUSTMENT = "ADJUSTMENT" // ajuste
	MovementTypeTRANSFER   = "TRANSFER"   // traslado entre bodegas
)

// InventoryMovement representa un movimiento del libro de inventario. Es la
// fuente de la que `process` deriva las entradas/salidas de cada período.
type InventoryMovement struct {
	ID            string
	CompanyID     string
	TransactionID string // agrupa los asientos de una misma operación (ej. un DTE aplicado)
	ProductID     string
	WarehouseID   string
	Type          string
	Quantity      decimal.Decimal // positivo entrada/ajuste+, negativo salida
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
	Reference     string // folio DTE, nota de ajuste, etc.
	Date          time.Time
	CreatedAt     time.Time
	CreatedBy     string
}
