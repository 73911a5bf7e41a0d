package inventory

import (
	"context"
	"time"

	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement(ctx, MovementInputDTO).
// Usar desde handlers HTTP o desde otros casos de uso que tengan companyID, userID y dto.RegisterMovementRequest.
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, companyID, userID string, in dto.RegisterMovementRequest) error {
	input := MovementInputDTO{
		CompanyID:       companyID,
		UserID:          userID,
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Type:            in.Type,
		Quantity:        in.Quantity,
		UnitCost:        in.UnitCost,
		Reference:       in.Reference,
	}
	return uc.RegisterMovement(ctx, input)
}

// ListMovementsUseCase consulta del libro de movimientos (solo lectura, fuera
// de transacción).
type ListMovementsUseCase struct {
	movementRepo  repository.InventoryMovementRepository
	warehouseRepo repository.WarehouseRepository
	productRepo   repository.ProductRepository
}

// NewListMovementsUseCase construye el caso de uso.
func NewListMovementsUseCase(
	movementRepo repository.InventoryMovementRepository,
	warehouseRepo repository.WarehouseRepository,
	productRepo repository.ProductRepository,
) *ListMovementsUseCase {
	return &ListMovementsUseCase{
		movementRepo:  movementRepo,
		warehouseRepo: warehouseRepo,
		productRepo:   productRepo,
	}
}

// ListByWarehouse lista movimientos de una bodega, con rango de fechas opcional.
func (uc *ListMovementsUseCase) ListByWarehouse(_ context.Context, companyID, warehouseID string, from, to *time.Time, limit, offset int) (*dto.MovementListResponse, error) {
	wh, err := uc.warehouseRepo.GetByID(warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movementRepo.ListByWarehouse(warehouseID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	return toMovementList(movs, limit, offset), nil
}

// ListByProduct lista movimientos de un producto en todas las bodegas.
func (uc *ListMovementsUseCase) ListByProduct(_ context.Context, companyID, productID string, from, to *time.Time, limit, offset int) (*dto.MovementListResponse, error) {
	p, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movementRepo.ListByProduct(productID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	return toMovementList(movs, limit, offset), nil
}

func toMovementList(movs []*entity.InventoryMovement, limit, offset int) *dto.MovementListResponse {
	out := &dto.MovementListResponse{
		Items: make([]dto.MovementResponse, 0, len(movs)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, m := range movs {
		out.Items = append(out.Items, dto.MovementResponse{
			ID:            m.ID,
			TransactionID: m.TransactionID,
			ProductID:     m.ProductID,
			WarehouseID:   m.WarehouseID,
			Type:          m.Type,
			Quantity:      m.Quantity,
			UnitCost:      m.UnitCost,
			TotalCost:     m.TotalCost,
			Reference:     m.Reference,
			Date:          m.Date,
			CreatedBy:     m.CreatedBy,
		})
	}
	return out
}
