package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `product_id, warehouse_id, quantity, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el saldo actual de un producto en una bodega. Si no existe fila
// devuelve un saldo en cero (el upsert la crea en el primer movimiento).
func (r *StockRepo) Get(productID, warehouseID string) (*entity.Stock, error) {
	row := r.q.QueryRow(context.Background(),
		`SELECT `+stockColumns+` FROM stock WHERE product_id = $1 AND warehouse_id = $2`,
		productID, warehouseID)
	return scanStock(row, productID, warehouseID, "get stock")
}

// GetForUpdate obtiene el saldo bloqueando la fila (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(productID, warehouseID string) (*entity.Stock, error) {
	row := r.q.QueryRow(context.Background(),
		`SELECT `+stockColumns+` FROM stock WHERE product_id = $1 AND warehouse_id = $2 FOR UPDATE`,
		productID, warehouseID)
	return scanStock(row, productID, warehouseID, "get stock for update")
}

// Upsert inserta o actualiza la cantidad en stock (por producto y bodega).
func (r *StockRepo) Upsert(stock *entity.Stock) error {
	_, err := r.q.Exec(context.Background(), `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`,
		stock.ProductID, stock.WarehouseID, stock.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

func scanStock(row pgx.Row, productID, warehouseID, op string) (*entity.Stock, error) {
	var s entity.Stock
	err := row.Scan(&s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}
