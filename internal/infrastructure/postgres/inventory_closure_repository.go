package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

var _ repository.InventoryClosureRepository = (*InventoryClosureRepo)(nil)

const closureColumns = `id, company_id, warehouse_id, year, month, closure_number, status, is_approved,
	closure_date, period_start_date, period_end_date, notes, observations,
	total_products, total_movements, total_quantity, total_value,
	products_with_discrepancies, total_discrepancy_value, has_discrepancies,
	created_by, approved_by, approved_at, closed_by, closed_at, reopened_by, reopened_at, reopening_reason,
	created_at, updated_at`

const closureDetailColumns = `id, closure_id, product_id,
	opening_quantity, opening_unit_cost, quantity_in, quantity_out,
	calculated_closing_quantity, calculated_closing_unit_cost,
	physical_count_quantity, physical_count_unit_cost, physical_count_date, physical_count_by,
	created_at, updated_at`

// InventoryClosureRepo implementación sobre PostgreSQL (usable con pool o tx).
// La unicidad de (company_id, warehouse_id, year, month) entre cierres no
// cancelados la garantiza un índice parcial único.
type InventoryClosureRepo struct {
	q Querier
}

// NewInventoryClosureRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryClosureRepository(q Querier) *InventoryClosureRepo {
	return &InventoryClosureRepo{q: q}
}

// Create persiste un cierre nuevo. Devuelve domain.ErrDuplicate si el índice
// parcial único rechaza el período.
func (r *InventoryClosureRepo) Create(ctx context.Context, c *entity.InventoryClosure) error {
	query := `
		INSERT INTO inventory_closures (` + closureColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.CompanyID, c.WarehouseID, c.Year, int(c.Month), c.ClosureNumber, string(c.Status), c.IsApproved,
		c.ClosureDate, c.PeriodStartDate, c.PeriodEndDate, c.Notes, c.Observations,
		c.TotalProducts, c.TotalMovements, c.TotalQuantity, c.TotalValue,
		c.ProductsWithDiscrepancies, c.TotalDiscrepancyValue, c.HasDiscrepancies,
		nullable(c.CreatedBy), nullable(c.ApprovedBy), c.ApprovedAt, nullable(c.ClosedBy), c.ClosedAt,
		nullable(c.ReopenedBy), c.ReopenedAt, c.ReopeningReason,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert closure: %w", err)
	}
	return nil
}

func (r *InventoryClosureRepo) scanClosure(row pgx.Row) (*entity.InventoryClosure, error) {
	var c entity.InventoryClosure
	var month int
	var status string
	var createdBy, approvedBy, closedBy, reopenedBy *string
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.WarehouseID, &c.Year, &month, &c.ClosureNumber, &status, &c.IsApproved,
		&c.ClosureDate, &c.PeriodStartDate, &c.PeriodEndDate, &c.Notes, &c.Observations,
		&c.TotalProducts, &c.TotalMovements, &c.TotalQuantity, &c.TotalValue,
		&c.ProductsWithDiscrepancies, &c.TotalDiscrepancyValue, &c.HasDiscrepancies,
		&createdBy, &approvedBy, &c.ApprovedAt, &closedBy, &c.ClosedAt, &reopenedBy, &c.ReopenedAt, &c.ReopeningReason,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Month = time.Month(month)
	c.Status = entity.ClosureStatus(status)
	c.CreatedBy = deref(createdBy)
	c.ApprovedBy = deref(approvedBy)
	c.ClosedBy = deref(closedBy)
	c.ReopenedBy = deref(reopenedBy)
	return &c, nil
}

// GetByID obtiene un cierre por ID.
func (r *InventoryClosureRepo) GetByID(ctx context.Context, id string) (*entity.InventoryClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM inventory_closures WHERE id = $1`
	c, err := r.scanClosure(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get closure: %w", err)
	}
	return c, nil
}

// GetForUpdate relee el cierre con bloqueo de fila (SELECT FOR UPDATE).
func (r *InventoryClosureRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM inventory_closures WHERE id = $1 FOR UPDATE`
	c, err := r.scanClosure(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get closure for update: %w", err)
	}
	return c, nil
}

// Update persiste el estado completo del cierre.
func (r *InventoryClosureRepo) Update(ctx context.Context, c *entity.InventoryClosure) error {
	query := `
		UPDATE inventory_closures SET
			status = $2, is_approved = $3, notes = $4, observations = $5,
			total_products = $6, total_movements = $7, total_quantity = $8, total_value = $9,
			products_with_discrepancies = $10, total_discrepancy_value = $11, has_discrepancies = $12,
			approved_by = $13, approved_at = $14, closed_by = $15, closed_at = $16,
			reopened_by = $17, reopened_at = $18, reopening_reason = $19, updated_at = $20
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		c.ID, string(c.Status), c.IsApproved, c.Notes, c.Observations,
		c.TotalProducts, c.TotalMovements, c.TotalQuantity, c.TotalValue,
		c.ProductsWithDiscrepancies, c.TotalDiscrepancyValue, c.HasDiscrepancies,
		nullable(c.ApprovedBy), c.ApprovedAt, nullable(c.ClosedBy), c.ClosedAt,
		nullable(c.ReopenedBy), c.ReopenedAt, c.ReopeningReason, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update closure: %w", err)
	}
	return nil
}

// Delete elimina el cierre y sus detalles en cascada.
func (r *InventoryClosureRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_closure_details WHERE closure_id = $1`, id); err != nil {
		return fmt.Errorf("delete closure details: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_closures WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete closure: %w", err)
	}
	return nil
}

// ListByWarehouse lista cierres de una bodega, más recientes primero.
func (r *InventoryClosureRepo) ListByWarehouse(ctx context.Context, warehouseID string, limit, offset int) ([]*entity.InventoryClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM inventory_closures
		WHERE warehouse_id = $1 ORDER BY period_start_date DESC LIMIT $2 OFFSET $3`
	return r.listClosures(ctx, query, warehouseID, limit, offset)
}

// ListByCompany lista cierres de la empresa, más recientes primero.
func (r *InventoryClosureRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.InventoryClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM inventory_closures
		WHERE company_id = $1 ORDER BY period_start_date DESC LIMIT $2 OFFSET $3`
	return r.listClosures(ctx, query, companyID, limit, offset)
}

func (r *InventoryClosureRepo) listClosures(ctx context.Context, query string, args ...any) ([]*entity.InventoryClosure, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list closures: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryClosure
	for rows.Next() {
		c, err := r.scanClosure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan closure: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// GetActiveByPeriod devuelve el cierre no cancelado de la bodega para ese período, o nil.
func (r *InventoryClosureRepo) GetActiveByPeriod(ctx context.Context, companyID, warehouseID string, year int, month time.Month) (*entity.InventoryClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM inventory_closures
		WHERE company_id = $1 AND warehouse_id = $2 AND year = $3 AND month = $4 AND status <> 'cancelado'`
	c, err := r.scanClosure(r.q.QueryRow(ctx, query, companyID, warehouseID, year, int(month)))
	if err != nil {
		return nil, fmt.Errorf("get active closure by period: %w", err)
	}
	return c, nil
}

// GetPriorClosure devuelve el último cierre cerrado de la bodega con período
// anterior a before, o nil si no existe.
func (r *InventoryClosureRepo) GetPriorClosure(ctx context.Context, warehouseID string, before time.Time) (*entity.InventoryClosure, error) {
	query := `SELECT ` + closureColumns + ` FROM inventory_closures
		WHERE warehouse_id = $1 AND status = 'cerrado' AND period_start_date < $2
		ORDER BY period_start_date DESC LIMIT 1`
	c, err := r.scanClosure(r.q.QueryRow(ctx, query, warehouseID, before))
	if err != nil {
		return nil, fmt.Errorf("get prior closure: %w", err)
	}
	return c, nil
}

// NextSequence devuelve el siguiente consecutivo de cierre de la empresa
// (alimenta el closure_number). Usa una fila contador con upsert atómico.
func (r *InventoryClosureRepo) NextSequence(ctx context.Context, companyID string) (int, error) {
	query := `
		INSERT INTO closure_sequences (company_id, last_value)
		VALUES ($1, 1)
		ON CONFLICT (company_id) DO UPDATE SET last_value = closure_sequences.last_value + 1
		RETURNING last_value`
	var seq int
	if err := r.q.QueryRow(ctx, query, companyID).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next closure sequence: %w", err)
	}
	return seq, nil
}

// ReplaceDetails borra y recrea los detalles del cierre (reproceso).
func (r *InventoryClosureRepo) ReplaceDetails(ctx context.Context, closureID string, details []*entity.InventoryClosureDetail) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_closure_details WHERE closure_id = $1`, closureID); err != nil {
		return fmt.Errorf("clear closure details: %w", err)
	}
	query := `
		INSERT INTO inventory_closure_details (` + closureDetailColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	for _, d := range details {
		_, err := r.q.Exec(ctx, query,
			d.ID, d.ClosureID, d.ProductID,
			d.OpeningQuantity, d.OpeningUnitCost, d.QuantityIn, d.QuantityOut,
			d.CalculatedClosingQuantity, d.CalculatedClosingUnitCost,
			d.PhysicalCountQuantity, d.PhysicalCountUnitCost, d.PhysicalCountDate, nullable(d.PhysicalCountBy),
			d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert closure detail: %w", err)
		}
	}
	return nil
}

func (r *InventoryClosureRepo) scanDetail(row pgx.Row) (*entity.InventoryClosureDetail, error) {
	var d entity.InventoryClosureDetail
	var countedBy *string
	err := row.Scan(
		&d.ID, &d.ClosureID, &d.ProductID,
		&d.OpeningQuantity, &d.OpeningUnitCost, &d.QuantityIn, &d.QuantityOut,
		&d.CalculatedClosingQuantity, &d.CalculatedClosingUnitCost,
		&d.PhysicalCountQuantity, &d.PhysicalCountUnitCost, &d.PhysicalCountDate, &countedBy,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.PhysicalCountBy = deref(countedBy)
	return &d, nil
}

// ListDetails devuelve los detalles del cierre ordenados por producto.
func (r *InventoryClosureRepo) ListDetails(ctx context.Context, closureID string) ([]*entity.InventoryClosureDetail, error) {
	query := `SELECT ` + closureDetailColumns + ` FROM inventory_closure_details
		WHERE closure_id = $1 ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, closureID)
	if err != nil {
		return nil, fmt.Errorf("list closure details: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryClosureDetail
	for rows.Next() {
		d, err := r.scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan closure detail: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// GetDetail obtiene un detalle por ID.
func (r *InventoryClosureRepo) GetDetail(ctx context.Context, detailID string) (*entity.InventoryClosureDetail, error) {
	query := `SELECT ` + closureDetailColumns + ` FROM inventory_closure_details WHERE id = $1`
	d, err := r.scanDetail(r.q.QueryRow(ctx, query, detailID))
	if err != nil {
		return nil, fmt.Errorf("get closure detail: %w", err)
	}
	return d, nil
}

// UpdateDetail persiste el conteo físico de un detalle.
func (r *InventoryClosureRepo) UpdateDetail(ctx context.Context, d *entity.InventoryClosureDetail) error {
	query := `
		UPDATE inventory_closure_details SET
			physical_count_quantity = $2, physical_count_unit_cost = $3,
			physical_count_date = $4, physical_count_by = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.PhysicalCountQuantity, d.PhysicalCountUnitCost,
		d.PhysicalCountDate, nullable(d.PhysicalCountBy), d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update closure detail: %w", err)
	}
	return nil
}
