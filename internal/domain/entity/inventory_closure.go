package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosureStatus es el estado del ciclo de vida de un cierre de inventario.
// Enumeración cerrada: cualquier otro valor es inválido.
type ClosureStatus string

const (
	ClosureEnProceso ClosureStatus = "en_proceso" // inicial, editable
	ClosureCerrado   ClosureStatus = "cerrado"    // inmutable salvo reapertura
	ClosureReabierto ClosureStatus = "reabierto"  // editable de nuevo
	ClosureCancelado ClosureStatus = "cancelado"  // terminal, solo desde en_proceso
)

// Valid indica si el estado pertenece a la enumeración.
func (s ClosureStatus) Valid() bool {
	switch s {
	case ClosureEnProceso, ClosureCerrado, ClosureReabierto, ClosureCancelado:
		return true
	}
	return false
}

// InventoryClosure representa el cierre mensual de inventario de una bodega:
// un checkpoint materializado del saldo de cada producto en el período
// (company_id, warehouse_id, year, month). Solo puede existir un cierre no
// cancelado por combinación.
type InventoryClosure struct {
	ID          string
	CompanyID   string
	WarehouseID string
	Year        int
	Month       time.Month

	ClosureNumber string // CI-YYYYMM-NNNN, asignado al crear
	Status        ClosureStatus
	IsApproved    bool

	ClosureDate     time.Time
	PeriodStartDate time.Time
	PeriodEndDate   time.Time
	Notes           string
	Observations    string

	// Agregados derivados: se recalculan plegando los detalles, nunca se
	// editan de forma independiente.
	TotalProducts             int
	TotalMovements            int
	TotalQuantity             decimal.Decimal
	TotalValue                decimal.Decimal
	ProductsWithDiscrepancies int
	TotalDiscrepancyValue     decimal.Decimal
	HasDiscrepancies          bool

	// Auditoría.
	CreatedBy       string
	ApprovedBy      string
	ApprovedAt      *time.Time
	ClosedBy        string
	ClosedAt        *time.Time
	ReopenedBy      string
	ReopenedAt      *time.Time
	ReopeningReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DiscrepancyCount es un alias de lectura de ProductsWithDiscrepancies.
func (c *InventoryClosure) DiscrepancyCount() int { return c.ProductsWithDiscrepancies }

// InventoryClosureDetail representa el saldo de un producto dentro de un
// cierre. Se crea en lote al procesar; solo muta al registrar conteo físico.
type InventoryClosureDetail struct {
	ID        string
	ClosureID string
	ProductID string

	OpeningQuantity decimal.Decimal
	OpeningUnitCost decimal.Decimal
	QuantityIn      decimal.Decimal
	QuantityOut     decimal.Decimal // positivo: unidades que salieron

	CalculatedClosingQuantity decimal.Decimal
	CalculatedClosingUnitCost decimal.Decimal

	// Conteo físico: nil hasta que se registre.
	PhysicalCountQuantity *decimal.Decimal
	PhysicalCountUnitCost *decimal.Decimal
	PhysicalCountDate     *time.Time
	PhysicalCountBy       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DiscrepancyQuantity devuelve físico − calculado, o nil si aún no hay conteo.
// Derivado siempre; nunca se persiste como fuente de verdad independiente.
func (d *InventoryClosureDetail) DiscrepancyQuantity() *decimal.Decimal {
	if d.PhysicalCountQuantity == nil {
		return nil
	}
	diff := d.PhysicalCountQuantity.Sub(d.CalculatedClosingQuantity)
	return &diff
}

// HasDiscrepancy indica si el conteo físico difiere del saldo calculado.
func (d *InventoryClosureDetail) HasDiscrepancy() bool {
	diff := d.DiscrepancyQuantity()
	return diff != nil && !diff.IsZero()
}
