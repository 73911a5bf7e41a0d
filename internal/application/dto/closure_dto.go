package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateClosureRequest entrada para crear un cierre de inventario mensual.
type CreateClosureRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	Year        int    `json:"year" validate:"required,min=2000,max=2100"`
	Month       int    `json:"month" validate:"required,min=1,max=12"`
	Notes       string `json:"notes" validate:"omitempty,max=1000"`
}

// ReopenClosureRequest entrada para reabrir un cierre cerrado. La razón es
// obligatoria y con largo mínimo: esta es la validación de borde que el
// dominio no repite.
type ReopenClosureRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=500"`
}

// RecordCountRequest entrada para registrar el conteo físico de un detalle.
type RecordCountRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// ClosureResponse salida de un cierre con sus agregados.
type ClosureResponse struct {
	ID            string `json:"id"`
	CompanyID     string `json:"company_id"`
	WarehouseID   string `json:"warehouse_id"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	ClosureNumber string `json:"closure_number"`
	Status        string `json:"status"`
	IsApproved    bool   `json:"is_approved"`

	PeriodStartDate time.Time `json:"period_start_date"`
	PeriodEndDate   time.Time `json:"period_end_date"`
	Notes           string    `json:"notes,omitempty"`
	Observations    string    `json:"observations,omitempty"`

	TotalProducts             int             `json:"total_products"`
	TotalMovements            int             `json:"total_movements"`
	TotalQuantity             decimal.Decimal `json:"total_quantity"`
	TotalValue                decimal.Decimal `json:"total_value"`
	ProductsWithDiscrepancies int             `json:"products_with_discrepancies"`
	TotalDiscrepancyValue     decimal.Decimal `json:"total_discrepancy_value"`
	HasDiscrepancies          bool            `json:"has_discrepancies"`

	CreatedBy       string     `json:"created_by"`
	ApprovedBy      string     `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ClosedBy        string     `json:"closed_by,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	ReopenedBy      string     `json:"reopened_by,omitempty"`
	ReopenedAt      *time.Time `json:"reopened_at,omitempty"`
	ReopeningReason string     `json:"reopening_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClosureDetailResponse salida de un detalle (una fila por producto).
type ClosureDetailResponse struct {
	ID        string `json:"id"`
	ClosureID string `json:"closure_id"`
	ProductID string `json:"product_id"`

	OpeningQuantity           decimal.Decimal `json:"opening_quantity"`
	OpeningUnitCost           decimal.Decimal `json:"opening_unit_cost"`
	QuantityIn                decimal.Decimal `json:"quantity_in"`
	QuantityOut               decimal.Decimal `json:"quantity_out"`
	CalculatedClosingQuantity decimal.Decimal `json:"calculated_closing_quantity"`
	CalculatedClosingUnitCost decimal.Decimal `json:"calculated_closing_unit_cost"`

	PhysicalCountQuantity *decimal.Decimal `json:"physical_count_quantity,omitempty"`
	PhysicalCountUnitCost *decimal.Decimal `json:"physical_count_unit_cost,omitempty"`
	PhysicalCountDate     *time.Time       `json:"physical_count_date,omitempty"`
	PhysicalCountBy       string           `json:"physical_count_by,omitempty"`

	DiscrepancyQuantity *decimal.Decimal `json:"discrepancy_quantity,omitempty"`
	HasDiscrepancy      bool             `json:"has_discrepancy"`
}

// ClosureWithDetailsResponse cierre + detalles para la vista de reconciliación.
type ClosureWithDetailsResponse struct {
	Closure ClosureResponse         `json:"closure"`
	Details []ClosureDetailResponse `json:"details"`
}

// ClosureListResponse lista paginada de cierres.
type ClosureListResponse struct {
	Items []ClosureResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
