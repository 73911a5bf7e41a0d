package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/inventasur/bodega-api/internal/domain/closure"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

const movementColumns = `id, company_id, transaction_id, product_id, warehouse_id, type, quantity, unit_cost, total_cost, reference, date, created_at, created_by`

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(movement *entity.InventoryMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	createdBy := (*string)(nil)
	if movement.CreatedBy != "" {
		createdBy = &movement.CreatedBy
	}
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.CompanyID, movement.TransactionID, movement.ProductID,
		movement.WarehouseID, movement.Type, movement.Quantity, movement.UnitCost,
		movement.TotalCost, movement.Reference, movement.Date, movement.CreatedAt, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(id string) (*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE id = $1`
	var m entity.InventoryMovement
	var createdBy *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&m.ID, &m.CompanyID, &m.TransactionID, &m.ProductID, &m.WarehouseID, &m.Type,
		&m.Quantity, &m.UnitCost, &m.TotalCost, &m.Reference, &m.Date, &m.CreatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if createdBy != nil {
		m.CreatedBy = *createdBy
	}
	return &m, nil
}

// ListByWarehouse lista movimientos de una bodega en un rango de fechas.
func (r *InventoryMovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	return r.list(`warehouse_id = $1`, warehouseID, from, to, limit, offset)
}

// ListByProduct lista movimientos de un producto en un rango de fechas.
func (r *InventoryMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	return r.list(`product_id = $1`, productID, from, to, limit, offset)
}

func (r *InventoryMovementRepo) list(where, key string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE ` + where
	args := []any{key}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY date DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var m entity.InventoryMovement
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.TransactionID, &m.ProductID, &m.WarehouseID, &m.Type,
			&m.Quantity, &m.UnitCost, &m.TotalCost, &m.Reference, &m.Date, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SumsByProduct agrega entradas/salidas por producto en una bodega dentro del
// rango [from, to]. Quantity es positivo en entradas y negativo en salidas,
// por eso los filtros van por signo y no por tipo: así un TRANSFER cuenta como
// salida en la bodega origen y entrada en la destino.
func (r *InventoryMovementRepo) SumsByProduct(warehouseID string, from, to time.Time) (map[string]closure.MovementSums, error) {
	query := `
		SELECT product_id,
		       COALESCE(SUM(quantity)   FILTER (WHERE quantity > 0), 0) AS qty_in,
		       COALESCE(SUM(total_cost) FILTER (WHERE quantity > 0), 0) AS value_in,
		       COALESCE(SUM(-quantity)  FILTER (WHERE quantity < 0), 0) AS qty_out,
		       COUNT(*) AS movements
		FROM inventory_movements
		WHERE warehouse_id = $1 AND date >= $2 AND date <= $3
		GROUP BY product_id`
	rows, err := r.q.Query(context.Background(), query, warehouseID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sums by product: %w", err)
	}
	defer rows.Close()
	out := map[string]closure.MovementSums{}
	for rows.Next() {
		var productID string
		var s closure.MovementSums
		if err := rows.Scan(&productID, &s.In, &s.InValue, &s.Out, &s.Movements); err != nil {
			return nil, fmt.Errorf("scan sums: %w", err)
		}
		out[productID] = s
	}
	return out, rows.Err()
}
