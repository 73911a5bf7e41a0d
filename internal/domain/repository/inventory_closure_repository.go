package repository

import (
	"context"
	"time"

	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// InventoryClosureRepository define el puerto de persistencia para cierres de
// inventario y sus detalles. Las operaciones que participan en transiciones de
// estado reciben context para correr dentro de la transacción del caso de uso.
type InventoryClosureRepository interface {
	Create(ctx context.Context, c *entity.InventoryClosure) error
	GetByID(ctx context.Context, id string) (*entity.InventoryClosure, error)
	// GetForUpdate relee el cierre con bloqueo de fila (SELECT FOR UPDATE);
	// toda transición de estado re-verifica la guarda sobre esta lectura.
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryClosure, error)
	Update(ctx context.Context, c *entity.InventoryClosure) error
	// Delete elimina el cierre y sus detalles en cascada.
	Delete(ctx context.Context, id string) error
	ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.InventoryClosure, error)
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.InventoryClosure, error)

	// GetActiveByPeriod devuelve el cierre no cancelado de la bodega para ese
	// período, o nil.
	GetActiveByPeriod(ctx context.Context, companyID, warehouseID string, year int, month time.Month) (*entity.InventoryClosure, error)
	// GetPriorClosure devuelve el último cierre cerrado de la bodega con
	// período anterior a before, o nil si no existe.
	GetPriorClosure(ctx context.Context, warehouseID string, before time.Time) (*entity.InventoryClosure, error)
	// NextSequence devuelve el siguiente consecutivo de cierre de la empresa
	// (para armar el closure_number CI-YYYYMM-NNNN).
	NextSequence(ctx context.Context, companyID string) (int, error)

	// ReplaceDetails borra y recrea los detalles del cierre (reproceso).
	ReplaceDetails(ctx context.Context, closureID string, details []*entity.InventoryClosureDetail) error
	ListDetails(ctx context.Context, closureID string) ([]*entity.InventoryClosureDetail, error)
	GetDetail(ctx context.Context, detailID string) (*entity.InventoryClosureDetail, error)
	UpdateDetail(ctx context.Context, d *entity.InventoryClosureDetail) error
}
