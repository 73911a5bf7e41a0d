package repository

import (
	"time"

	"github.com/inventasur/bodega-api/internal/domain/closure"
	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para el libro
// de movimientos de inventario.
type InventoryMovementRepository interface {
	Create(movement *entity.InventoryMovement) error
	GetByID(id string) (*entity.InventoryMovement, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error)
	// SumsByProduct agrega entradas/salidas por producto en una bodega dentro
	// del rango [from, to]. Es la consulta que alimenta el `process` de un
	// cierre: un producto aparece si tuvo al menos un movimiento.
	SumsByProduct(warehouseID string, from, to time.Time) (map[string]closure.MovementSums, error)
}
