// Package closure implementa los casos de uso del ciclo de vida de cierres de
// inventario. La lógica de guardas y plegados vive en domain/closure; aquí se
// orquesta persistencia, transacciones y derivación de aperturas.
package closure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/domain"
	domclosure "github.com/inventasur/bodega-api/internal/domain/closure"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

// UseCase casos de uso del cierre mensual de inventario por bodega.
type UseCase struct {
	txRunner      TxRunner
	closureRepo   repository.InventoryClosureRepository
	warehouseRepo repository.WarehouseRepository
	productRepo   repository.ProductRepository
	reports       ReportGenerator
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	closureRepo repository.InventoryClosureRepository,
	warehouseRepo repository.WarehouseRepository,
	productRepo repository.ProductRepository,
	reports ReportGenerator,
) *UseCase {
	return &UseCase{
		txRunner:      txRunner,
		closureRepo:   closureRepo,
		warehouseRepo: warehouseRepo,
		productRepo:   productRepo,
		reports:       reports,
	}
}

// Create crea el cierre del período en estado en_proceso y le asigna su
// número consecutivo. La unicidad de (empresa, bodega, año, mes) entre cierres
// no cancelados está garantizada por índice parcial único; la verificación
// previa solo mejora el mensaje en el caso común.
func (uc *UseCase) Create(ctx context.Context, companyID, userID string, in dto.CreateClosureRequest) (*dto.ClosureResponse, error) {
	wh, err := uc.warehouseRepo.GetByID(in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}

	month := time.Month(in.Month)
	existing, err := uc.closureRepo.GetActiveByPeriod(ctx, companyID, in.WarehouseID, in.Year, month)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrClosurePeriodExists
	}

	seq, err := uc.closureRepo.NextSequence(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	start, end := domclosure.PeriodBounds(in.Year, month)
	c := &entity.InventoryClosure{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		WarehouseID:     in.WarehouseID,
		Year:            in.Year,
		Month:           month,
		ClosureNumber:   fmt.Sprintf("CI-%04d%02d-%04d", in.Year, in.Month, seq),
		Status:          entity.ClosureEnProceso,
		ClosureDate:     now,
		PeriodStartDate: start,
		PeriodEndDate:   end,
		Notes:           in.Notes,
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.closureRepo.Create(ctx, c); err != nil {
		// Dos requests concurrentes pueden pasar la verificación previa;
		// el índice parcial único decide al ganador.
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrClosurePeriodExists
		}
		return nil, err
	}
	return toClosureResponse(c), nil
}

// Process deriva los detalles del cierre: apertura desde el cierre anterior de
// la bodega (o cero), entradas/salidas desde el libro de movimientos del
// período, y recalcula los totales. Reprocesar reemplaza los detalles
// (y descarta conteos físicos ya registrados).
func (uc *UseCase) Process(ctx context.Context, companyID, userID, closureID string) (*dto.ClosureResponse, error) {
	var out *dto.ClosureResponse
	err := uc.txRunner.RunClosure(ctx, func(
		closRepo repository.InventoryClosureRepository,
		movRepo repository.InventoryMovementRepository,
	) error {
		c, err := lockOwned(ctx, closRepo, companyID, closureID)
		if err != nil {
			return err
		}
		if err := domclosure.CanProcess(c); err != nil {
			return err
		}

		// Apertura: saldos de cierre no nulos del período anterior.
		opening := map[string]domclosure.OpeningBalance{}
		prior, err := closRepo.GetPriorClosure(ctx, c.WarehouseID, c.PeriodStartDate)
		if err != nil {
			return err
		}
		if prior != nil {
			priorDetails, err := closRepo.ListDetails(ctx, prior.ID)
			if err != nil {
				return err
			}
			for _, d := range priorDetails {
				if !d.CalculatedClosingQuantity.IsZero() {
					opening[d.ProductID] = domclosure.OpeningBalance{
						Quantity: d.CalculatedClosingQuantity,
						UnitCost: d.CalculatedClosingUnitCost,
					}
				}
			}
		}

		// Movimientos del período, agregados por producto.
		sums, err := movRepo.SumsByProduct(c.WarehouseID, c.PeriodStartDate, c.PeriodEndDate)
		if err != nil {
			return err
		}

		// Unión: productos con apertura o con movimiento.
		productIDs := make(map[string]struct{}, len(opening)+len(sums))
		for id := range opening {
			productIDs[id] = struct{}{}
		}
		for id := range sums {
			productIDs[id] = struct{}{}
		}
		ordered := make([]string, 0, len(productIDs))
		for id := range productIDs {
			ordered = append(ordered, id)
		}
		sort.Strings(ordered)

		now := time.Now()
		totalMovs := 0
		details := make([]*entity.InventoryClosureDetail, 0, len(ordered))
		for _, productID := range ordered {
			d := domclosure.DeriveDetail(c.ID, productID, opening[productID], sums[productID], now)
			d.ID = uuid.New().String()
			details = append(details, d)
			totalMovs += sums[productID].Movements
		}

		if err := closRepo.ReplaceDetails(ctx, c.ID, details); err != nil {
			return err
		}
		c.TotalMovements = totalMovs
		domclosure.CalculateTotals(c, details)
		c.UpdatedAt = now
		if err := closRepo.Update(ctx, c); err != nil {
			return err
		}
		out = toClosureResponse(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Approve marca el cierre como aprobado (requisito para cerrarlo).
func (uc *UseCase) Approve(ctx context.Context, companyID, userID, closureID string) (*dto.ClosureResponse, error) {
	return uc.transition(ctx, companyID, closureID, func(c *entity.InventoryClosure, now time.Time) error {
		return domclosure.Approve(c, userID, now)
	})
}

// Close cierra el período; los saldos calculados quedan como apertura del
// período siguiente.
func (uc *UseCase) Close(ctx context.Context, companyID, userID, closureID string) (*dto.ClosureResponse, error) {
	return uc.transition(ctx, companyID, closureID, func(c *entity.InventoryClosure, now time.Time) error {
		return domclosure.Close(c, userID, now)
	})
}

// Reopen reabre un cierre cerrado; la razón llega ya validada del borde HTTP.
func (uc *UseCase) Reopen(ctx context.Context, companyID, userID, closureID, reason string) (*dto.ClosureResponse, error) {
	return uc.transition(ctx, companyID, closureID, func(c *entity.InventoryClosure, now time.Time) error {
		return domclosure.Reopen(c, userID, reason, now)
	})
}

// Cancel anula un cierre que nunca avanzó.
func (uc *UseCase) Cancel(ctx context.Context, companyID, userID, closureID string) (*dto.ClosureResponse, error) {
	return uc.transition(ctx, companyID, closureID, func(c *entity.InventoryClosure, now time.Time) error {
		return domclosure.Cancel(c, now)
	})
}

// transition relee con bloqueo, re-verifica la guarda y persiste, todo en una
// transacción: dos llamadas concurrentes sobre el mismo cierre no ganan ambas.
func (uc *UseCase) transition(ctx context.Context, companyID, closureID string, apply func(*entity.InventoryClosure, time.Time) error) (*dto.ClosureResponse, error) {
	var out *dto.ClosureResponse
	err := uc.txRunner.RunClosure(ctx, func(
		closRepo repository.InventoryClosureRepository,
		_ repository.InventoryMovementRepository,
	) error {
		c, err := lockOwned(ctx, closRepo, companyID, closureID)
		if err != nil {
			return err
		}
		if err := apply(c, time.Now()); err != nil {
			return err
		}
		if err := closRepo.Update(ctx, c); err != nil {
			return err
		}
		out = toClosureResponse(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete elimina un cierre todavía en proceso, con cascada de detalles.
func (uc *UseCase) Delete(ctx context.Context, companyID, closureID string) error {
	return uc.txRunner.RunClosure(ctx, func(
		closRepo repository.InventoryClosureRepository,
		_ repository.InventoryMovementRepository,
	) error {
		c, err := lockOwned(ctx, closRepo, companyID, closureID)
		if err != nil {
			return err
		}
		if err := domclosure.CanDelete(c); err != nil {
			return err
		}
		return closRepo.Delete(ctx, c.ID)
	})
}

// RecordPhysicalCount registra el conteo físico de un detalle y recalcula los
// totales del padre en la misma transacción. El detalle solo muta su propia
// fila; la consistencia del agregado es responsabilidad de este nivel.
func (uc *UseCase) RecordPhysicalCount(ctx context.Context, companyID, userID, closureID, detailID string, in dto.RecordCountRequest) (*dto.ClosureDetailResponse, error) {
	var out *dto.ClosureDetailResponse
	err := uc.txRunner.RunClosure(ctx, func(
		closRepo repository.InventoryClosureRepository,
		_ repository.InventoryMovementRepository,
	) error {
		c, err := lockOwned(ctx, closRepo, companyID, closureID)
		if err != nil {
			return err
		}
		if !domclosure.CanBeEdited(c) {
			return domain.ErrClosureNotEditable
		}
		d, err := closRepo.GetDetail(ctx, detailID)
		if err != nil {
			return err
		}
		if d == nil || d.ClosureID != c.ID {
			return domain.ErrNotFound
		}
		now := time.Now()
		if err := domclosure.RecordPhysicalCount(d, in.Quantity, in.UnitCost, userID, now); err != nil {
			return err
		}
		if err := closRepo.UpdateDetail(ctx, d); err != nil {
			return err
		}
		details, err := closRepo.ListDetails(ctx, c.ID)
		if err != nil {
			return err
		}
		domclosure.CalculateTotals(c, details)
		c.UpdatedAt = now
		if err := closRepo.Update(ctx, c); err != nil {
			return err
		}
		out = toDetailResponse(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetWithDetails devuelve el cierre con sus detalles (vista de conciliación).
func (uc *UseCase) GetWithDetails(ctx context.Context, companyID, closureID string) (*dto.ClosureWithDetailsResponse, error) {
	c, details, err := uc.loadOwned(ctx, companyID, closureID)
	if err != nil {
		return nil, err
	}
	resp := &dto.ClosureWithDetailsResponse{
		Closure: *toClosureResponse(c),
		Details: make([]dto.ClosureDetailResponse, 0, len(details)),
	}
	for _, d := range details {
		resp.Details = append(resp.Details, *toDetailResponse(d))
	}
	return resp, nil
}

// ListByWarehouse lista los cierres de una bodega, más recientes primero.
func (uc *UseCase) ListByWarehouse(ctx context.Context, companyID, warehouseID string, limit, offset int) (*dto.ClosureListResponse, error) {
	wh, err := uc.warehouseRepo.GetByID(warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	list, err := uc.closureRepo.ListByWarehouse(ctx, warehouseID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ClosureListResponse{
		Items: make([]dto.ClosureResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, c := range list {
		out.Items = append(out.Items, *toClosureResponse(c))
	}
	return out, nil
}

// ListByCompany lista todos los cierres de la empresa, más recientes primero.
func (uc *UseCase) ListByCompany(ctx context.Context, companyID string, limit, offset int) (*dto.ClosureListResponse, error) {
	list, err := uc.closureRepo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ClosureListResponse{
		Items: make([]dto.ClosureResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}
	for _, c := range list {
		out.Items = append(out.Items, *toClosureResponse(c))
	}
	return out, nil
}

// ExportXLSX genera la planilla del cierre con sus detalles y discrepancias.
func (uc *UseCase) ExportXLSX(ctx context.Context, companyID, closureID string) ([]byte, error) {
	c, details, err := uc.loadOwned(ctx, companyID, closureID)
	if err != nil {
		return nil, err
	}
	products, err := uc.productNames(details)
	if err != nil {
		return nil, err
	}
	return uc.reports.GenerateXLSX(ctx, c, details, products)
}

// ExportPDF genera la representación imprimible del cierre.
func (uc *UseCase) ExportPDF(ctx context.Context, companyID, closureID string) ([]byte, error) {
	c, details, err := uc.loadOwned(ctx, companyID, closureID)
	if err != nil {
		return nil, err
	}
	products, err := uc.productNames(details)
	if err != nil {
		return nil, err
	}
	return uc.reports.GeneratePDF(ctx, c, details, products)
}

func (uc *UseCase) loadOwned(ctx context.Context, companyID, closureID string) (*entity.InventoryClosure, []*entity.InventoryClosureDetail, error) {
	c, err := uc.closureRepo.GetByID(ctx, closureID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil || c.CompanyID != companyID {
		return nil, nil, domain.ErrNotFound
	}
	details, err := uc.closureRepo.ListDetails(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	return c, details, nil
}

func (uc *UseCase) productNames(details []*entity.InventoryClosureDetail) (map[string]*entity.Product, error) {
	products := make(map[string]*entity.Product, len(details))
	for _, d := range details {
		if _, ok := products[d.ProductID]; ok {
			continue
		}
		p, err := uc.productRepo.GetByID(d.ProductID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			products[d.ProductID] = p
		}
	}
	return products, nil
}

// lockOwned relee el cierre con SELECT FOR UPDATE y verifica el tenant.
func lockOwned(ctx context.Context, closRepo repository.InventoryClosureRepository, companyID, closureID string) (*entity.InventoryClosure, error) {
	c, err := closRepo.GetForUpdate(ctx, closureID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Mappers
// ──────────────────────────────────────────────────────────────────────────────

func toClosureResponse(c *entity.InventoryClosure) *dto.ClosureResponse {
	if c == nil {
		return nil
	}
	return &dto.ClosureResponse{
		ID:            c.ID,
		CompanyID:     c.CompanyID,
		WarehouseID:   c.WarehouseID,
		Year:          c.Year,
		Month:         int(c.Month),
		ClosureNumber: c.ClosureNumber,
		Status:        string(c.Status),
		IsApproved:    c.IsApproved,

		PeriodStartDate: c.PeriodStartDate,
		PeriodEndDate:   c.PeriodEndDate,
		Notes:           c.Notes,
		Observations:    c.Observations,

		TotalProducts:             c.TotalProducts,
		TotalMovements:            c.TotalMovements,
		TotalQuantity:             c.TotalQuantity,
		TotalValue:                c.TotalValue,
		ProductsWithDiscrepancies: c.ProductsWithDiscrepancies,
		TotalDiscrepancyValue:     c.TotalDiscrepancyValue,
		HasDiscrepancies:          c.HasDiscrepancies,

		CreatedBy:       c.CreatedBy,
		ApprovedBy:      c.ApprovedBy,
		ApprovedAt:      c.ApprovedAt,
		ClosedBy:        c.ClosedBy,
		ClosedAt:        c.ClosedAt,
		ReopenedBy:      c.ReopenedBy,
		ReopenedAt:      c.ReopenedAt,
		ReopeningReason: c.ReopeningReason,

		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toDetailResponse(d *entity.InventoryClosureDetail) *dto.ClosureDetailResponse {
	if d == nil {
		return nil
	}
	return &dto.ClosureDetailResponse{
		ID:        d.ID,
		ClosureID: d.ClosureID,
		ProductID: d.ProductID,

		OpeningQuantity:           d.OpeningQuantity,
		OpeningUnitCost:           d.OpeningUnitCost,
		QuantityIn:                d.QuantityIn,
		QuantityOut:               d.QuantityOut,
		CalculatedClosingQuantity: d.CalculatedClosingQuantity,
		CalculatedClosingUnitCost: d.CalculatedClosingUnitCost,

		PhysicalCountQuantity: d.PhysicalCountQuantity,
		PhysicalCountUnitCost: d.PhysicalCountUnitCost,
		PhysicalCountDate:     d.PhysicalCountDate,
		PhysicalCountBy:       d.PhysicalCountBy,

		DiscrepancyQuantity: d.DiscrepancyQuantity(),
		HasDiscrepancy:      d.HasDiscrepancy(),
	}
}
