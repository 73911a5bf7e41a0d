package closure

import (
	"context"

	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Toda transición de estado de un cierre corre
// aquí adentro: la relectura con bloqueo de fila y la mutación son atómicas.
type TxRunner interface {
	RunClosure(ctx context.Context, fn func(
		closRepo repository.InventoryClosureRepository,
		movRepo repository.InventoryMovementRepository,
	) error) error
}

// ReportGenerator produce las representaciones exportables de un cierre.
// Implementaciones en infrastructure/report (XLSX y PDF).
type ReportGenerator interface {
	GenerateXLSX(ctx context.Context, c *entity.InventoryClosure, details []*entity.InventoryClosureDetail, products map[string]*entity.Product) ([]byte, error)
	GeneratePDF(ctx context.Context, c *entity.InventoryClosure, details []*entity.InventoryClosureDetail, products map[string]*entity.Product) ([]byte, error)
}
