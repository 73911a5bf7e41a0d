package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del inventario (multi-bodega).
// Cost es promedio ponderado calculado desde movimientos; el saldo por bodega
// vive en Stock y se materializa por período en los cierres de inventario.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa
	Barcode     string // código de barras, opcional; usado al conciliar DTE
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	Cost        decimal.Decimal // costo promedio ponderado (inicia en 0)
	TaxRate     decimal.Decimal // IVA Chile: 0 o 0.19
	UnitMeasure string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
