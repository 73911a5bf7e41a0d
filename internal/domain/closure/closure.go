// Package closure contiene la lógica pura del ciclo de vida de cierres de
// inventario: guardas de transición, derivación de saldos y plegado de
// totales. No toca persistencia; opera sobre entidades en memoria para que
// los casos de uso la envuelvan en transacciones y los tests corran sin BD.
//
// Máquina de estados:
//
//	en_proceso ──process/approve──▶ en_proceso ──close──▶ cerrado
//	en_proceso ──cancel──▶ cancelado (terminal)
//	cerrado ──reopen──▶ reabierto ──close──▶ cerrado
package closure

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// PeriodBounds devuelve el primer y último instante del período (año, mes).
// El fin de período es el inicio exclusivo del mes siguiente menos un segundo,
// igual que el corte que usa el libro de movimientos.
func PeriodBounds(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// CanBeEdited indica si el cierre admite mutaciones (reprocesar, conteos).
func CanBeEdited(c *entity.InventoryClosure) bool {
	return c.Status == entity.ClosureEnProceso || c.Status == entity.ClosureReabierto
}

// CanProcess verifica la guarda de `process`: mismo predicado que la edición.
func CanProcess(c *entity.InventoryClosure) error {
	if !CanBeEdited(c) {
		return domain.ErrClosureNotEditable
	}
	return nil
}

// Approve marca el cierre como aprobado. Solo un cierre en proceso y ya
// procesado (con detalles) puede aprobarse, y solo una vez. Un cierre
// reabierto conserva su aprobación original, por eso no se re-aprueba.
func Approve(c *entity.InventoryClosure, by string, now time.Time) error {
	if c.Status != entity.ClosureEnProceso {
		return domain.ErrClosureNotEditable
	}
	if c.IsApproved {
		return domain.ErrClosureAlreadyApproved
	}
	if c.TotalProducts == 0 {
		return domain.ErrClosureNotProcessed
	}
	c.IsApproved = true
	c.ApprovedBy = by
	c.ApprovedAt = &now
	c.UpdatedAt = now
	return nil
}

// Close cierra el período. Exige aprobación previa; una vez cerrado, los
// saldos calculados pasan a ser la apertura del período siguiente.
func Close(c *entity.InventoryClosure, by string, now time.Time) error {
	if c.Status == entity.ClosureCerrado {
		return domain.ErrClosureAlreadyClosed
	}
	if c.Status != entity.ClosureEnProceso && c.Status != entity.ClosureReabierto {
		return domain.ErrClosureNotEditable
	}
	if !c.IsApproved {
		return domain.ErrClosureNotApproved
	}
	c.Status = entity.ClosureCerrado
	c.ClosedBy = by
	c.ClosedAt = &now
	c.UpdatedAt = now
	return nil
}

// Reopen pasa un cierre cerrado a reabierto. La razón es obligatoria en el
// borde HTTP (largo mínimo); aquí solo se registra.
func Reopen(c *entity.InventoryClosure, by, reason string, now time.Time) error {
	if c.Status != entity.ClosureCerrado {
		return domain.ErrClosureNotClosed
	}
	c.Status = entity.ClosureReabierto
	c.ReopenedBy = by
	c.ReopenedAt = &now
	c.ReopeningReason = reason
	c.UpdatedAt = now
	return nil
}

// Cancel anula un cierre que nunca avanzó: solo desde en_proceso, sin
// aprobación ni procesamiento previos.
func Cancel(c *entity.InventoryClosure, now time.Time) error {
	if c.Status != entity.ClosureEnProceso {
		return domain.ErrClosureProgressed
	}
	if c.IsApproved || c.TotalProducts > 0 {
		return domain.ErrClosureProgressed
	}
	c.Status = entity.ClosureCancelado
	c.UpdatedAt = now
	return nil
}

// CanDelete verifica la guarda de borrado: solo cierres todavía en proceso.
// El borrado físico (con cascada de detalles) lo hace el repositorio.
func CanDelete(c *entity.InventoryClosure) error {
	if c.Status != entity.ClosureEnProceso {
		return domain.ErrClosureNotEditable
	}
	return nil
}

// RecordPhysicalCount registra el conteo físico de un detalle. El llamador ya
// verificó que el cierre padre es editable; esta función solo valida los
// valores y muta la fila. No recalcula los totales del padre: eso lo dispara
// el caso de uso explícitamente para poder agrupar varios conteos.
func RecordPhysicalCount(d *entity.InventoryClosureDetail, quantity, unitCost decimal.Decimal, countedBy string, now time.Time) error {
	if quantity.IsNegative() || unitCost.IsNegative() {
		return domain.ErrInvalidInput
	}
	d.PhysicalCountQuantity = &quantity
	d.PhysicalCountUnitCost = &unitCost
	d.PhysicalCountDate = &now
	d.PhysicalCountBy = countedBy
	d.UpdatedAt = now
	return nil
}

// CalculateTotals recalcula los agregados del cierre como un plegado puro
// sobre sus detalles. Se invoca tras procesar y tras registrar conteos, dentro
// de la misma transacción que los originó.
//
// total_discrepancy_value usa el costo unitario del conteo físico, no el
// calculado: sigue al sistema original (ver DESIGN.md).
func CalculateTotals(c *entity.InventoryClosure, details []*entity.InventoryClosureDetail) {
	totalQty := decimal.Zero
	totalValue := decimal.Zero
	discrepancyValue := decimal.Zero
	discrepant := 0

	for _, d := range details {
		totalQty = totalQty.Add(d.CalculatedClosingQuantity)
		totalValue = totalValue.Add(d.CalculatedClosingQuantity.Mul(d.CalculatedClosingUnitCost))
		if d.HasDiscrepancy() {
			discrepant++
			if d.PhysicalCountUnitCost != nil {
				discrepancyValue = discrepancyValue.Add(d.DiscrepancyQuantity().Mul(*d.PhysicalCountUnitCost))
			}
		}
	}

	c.TotalProducts = len(details)
	c.TotalQuantity = totalQty
	c.TotalValue = totalValue
	c.ProductsWithDiscrepancies = discrepant
	c.TotalDiscrepancyValue = discrepancyValue
	c.HasDiscrepancies = discrepant > 0
}

// OpeningBalance es el saldo de apertura de un producto: el saldo de cierre
// del período anterior, o cero si no hay cierre previo.
type OpeningBalance struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// MovementSums acumula entradas y salidas de un producto dentro del período.
// Out es positivo (unidades que salieron).
type MovementSums struct {
	In        decimal.Decimal
	InValue   decimal.Decimal // Σ cantidad × costo de cada entrada
	Out       decimal.Decimal
	Movements int
}

// DeriveDetail construye el detalle de un producto a partir de su apertura y
// los movimientos del período. Cantidad de cierre = apertura + entradas −
// salidas; costo de cierre = promedio ponderado entre la apertura y las
// entradas (las salidas no alteran el costo promedio).
func DeriveDetail(closureID, productID string, opening OpeningBalance, sums MovementSums, now time.Time) *entity.InventoryClosureDetail {
	closingQty := opening.Quantity.Add(sums.In).Sub(sums.Out)

	closingCost := opening.UnitCost
	pool := opening.Quantity.Add(sums.In)
	if sums.In.IsPositive() && pool.IsPositive() {
		value := opening.Quantity.Mul(opening.UnitCost).Add(sums.InValue)
		closingCost = value.Div(pool)
	}

	return &entity.InventoryClosureDetail{
		ClosureID:                 closureID,
		ProductID:                 productID,
		OpeningQuantity:           opening.Quantity,
		OpeningUnitCost:           opening.UnitCost,
		QuantityIn:                sums.In,
		QuantityOut:               sums.Out,
		CalculatedClosingQuantity: closingQty,
		CalculatedClosingUnitCost: closingCost,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}
}
