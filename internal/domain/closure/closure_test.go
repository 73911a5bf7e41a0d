package closure_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventasur/bodega-api/internal/domain"
	"github.com/inventasur/bodega-api/internal/domain/closure"
	"github.com/inventasur/bodega-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

var testNow = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// newClosure construye un cierre 2024-01 en estado en_proceso.
func newClosure() *entity.InventoryClosure {
	start, end := closure.PeriodBounds(2024, time.January)
	return &entity.InventoryClosure{
		ID:              "cl-1",
		CompanyID:       "co-1",
		WarehouseID:     "bod-1",
		Year:            2024,
		Month:           time.January,
		ClosureNumber:   "CI-202401-0001",
		Status:          entity.ClosureEnProceso,
		PeriodStartDate: start,
		PeriodEndDate:   end,
	}
}

// processedClosure simula un cierre ya procesado (con un detalle).
func processedClosure() (*entity.InventoryClosure, []*entity.InventoryClosureDetail) {
	c := newClosure()
	d := closure.DeriveDetail(c.ID, "prod-1",
		closure.OpeningBalance{Quantity: dec("100"), UnitCost: dec("5")},
		closure.MovementSums{In: dec("20"), InValue: dec("120"), Out: dec("30"), Movements: 2},
		testNow,
	)
	closure.CalculateTotals(c, []*entity.InventoryClosureDetail{d})
	return c, []*entity.InventoryClosureDetail{d}
}

// ──────────────────────────────────────────────────────────────────────────────
// Períodos
// ──────────────────────────────────────────────────────────────────────────────

func TestPeriodBounds_EneroCompleto(t *testing.T) {
	start, end := closure.PeriodBounds(2024, time.January)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC), end)
}

func TestPeriodBounds_DiciembreCruzaAnio(t *testing.T) {
	start, end := closure.PeriodBounds(2023, time.December)
	assert.Equal(t, 2023, start.Year())
	assert.Equal(t, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), end)
}

// ──────────────────────────────────────────────────────────────────────────────
// Derivación de detalle (escenario §8.6 del sistema original)
// ──────────────────────────────────────────────────────────────────────────────

// Apertura 100 @ $5, entradas +20, salidas -30 → cierre calculado = 90.
func TestDeriveDetail_AperturaMasMovimientos(t *testing.T) {
	d := closure.DeriveDetail("cl-1", "prod-1",
		closure.OpeningBalance{Quantity: dec("100"), UnitCost: dec("5")},
		closure.MovementSums{In: dec("20"), InValue: dec("120"), Out: dec("30"), Movements: 3},
		testNow,
	)
	assert.True(t, d.OpeningQuantity.Equal(dec("100")))
	assert.True(t, d.QuantityIn.Equal(dec("20")))
	assert.True(t, d.QuantityOut.Equal(dec("30")))
	assert.True(t, d.CalculatedClosingQuantity.Equal(dec("90")), "cierre = 100 + 20 - 30")
	// Costo: (100*5 + 120) / 120 = 620/120
	assert.True(t, d.CalculatedClosingUnitCost.Equal(dec("620").Div(dec("120"))))
}

// Sin cierre previo la apertura es cero y el costo viene solo de las entradas.
func TestDeriveDetail_SinCierrePrevio(t *testing.T) {
	d := closure.DeriveDetail("cl-1", "prod-2",
		closure.OpeningBalance{Quantity: decimal.Zero, UnitCost: decimal.Zero},
		closure.MovementSums{In: dec("10"), InValue: dec("35"), Out: decimal.Zero, Movements: 1},
		testNow,
	)
	assert.True(t, d.CalculatedClosingQuantity.Equal(dec("10")))
	assert.True(t, d.CalculatedClosingUnitCost.Equal(dec("3.5")))
}

// Solo salidas: el costo promedio no cambia.
func TestDeriveDetail_SalidasNoAlteranCosto(t *testing.T) {
	d := closure.DeriveDetail("cl-1", "prod-3",
		closure.OpeningBalance{Quantity: dec("50"), UnitCost: dec("2.5")},
		closure.MovementSums{In: decimal.Zero, InValue: decimal.Zero, Out: dec("20"), Movements: 2},
		testNow,
	)
	assert.True(t, d.CalculatedClosingQuantity.Equal(dec("30")))
	assert.True(t, d.CalculatedClosingUnitCost.Equal(dec("2.5")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados
// ──────────────────────────────────────────────────────────────────────────────

func TestClose_SinAprobarFalla(t *testing.T) {
	c, _ := processedClosure()
	err := closure.Close(c, "user-1", testNow)
	require.ErrorIs(t, err, domain.ErrClosureNotApproved)
	assert.Equal(t, entity.ClosureEnProceso, c.Status, "no debe haber cambio de estado")
	assert.Nil(t, c.ClosedAt)
}

func TestApprove_LuegoClose(t *testing.T) {
	c, _ := processedClosure()
	require.NoError(t, closure.Approve(c, "contador-1", testNow))
	assert.True(t, c.IsApproved)
	assert.Equal(t, "contador-1", c.ApprovedBy)

	require.NoError(t, closure.Close(c, "contador-1", testNow))
	assert.Equal(t, entity.ClosureCerrado, c.Status)
	require.NotNil(t, c.ClosedAt)
}

func TestApprove_DosVecesFalla(t *testing.T) {
	c, _ := processedClosure()
	require.NoError(t, closure.Approve(c, "contador-1", testNow))
	err := closure.Approve(c, "contador-2", testNow)
	assert.ErrorIs(t, err, domain.ErrClosureAlreadyApproved)
	assert.Equal(t, "contador-1", c.ApprovedBy, "la primera aprobación se conserva")
}

func TestApprove_SinProcesarFalla(t *testing.T) {
	c := newClosure()
	err := closure.Approve(c, "contador-1", testNow)
	assert.ErrorIs(t, err, domain.ErrClosureNotProcessed)
}

func TestReopen_SoloDesdeCerrado(t *testing.T) {
	c, _ := processedClosure()
	err := closure.Reopen(c, "admin-1", "ajuste de conteo", testNow)
	assert.ErrorIs(t, err, domain.ErrClosureNotClosed)
}

// Reabrir y volver a cerrar conserva número e identidad del período; solo
// cambian estado y auditoría.
func TestReopen_ReCerrarConservaIdentidad(t *testing.T) {
	c, _ := processedClosure()
	require.NoError(t, closure.Approve(c, "contador-1", testNow))
	require.NoError(t, closure.Close(c, "contador-1", testNow))

	number, start, end := c.ClosureNumber, c.PeriodStartDate, c.PeriodEndDate

	later := testNow.Add(48 * time.Hour)
	require.NoError(t, closure.Reopen(c, "admin-1", "diferencia detectada en auditoría", later))
	assert.Equal(t, entity.ClosureReabierto, c.Status)
	assert.Equal(t, "diferencia detectada en auditoría", c.ReopeningReason)
	assert.True(t, closure.CanBeEdited(c))

	require.NoError(t, closure.Close(c, "contador-1", later.Add(time.Hour)))
	assert.Equal(t, entity.ClosureCerrado, c.Status)
	assert.Equal(t, number, c.ClosureNumber)
	assert.Equal(t, start, c.PeriodStartDate)
	assert.Equal(t, end, c.PeriodEndDate)
}

func TestCancel_SoloCierresSinAvance(t *testing.T) {
	c := newClosure()
	require.NoError(t, closure.Cancel(c, testNow))
	assert.Equal(t, entity.ClosureCancelado, c.Status)

	// Un cierre procesado ya no puede cancelarse.
	c2, _ := processedClosure()
	assert.ErrorIs(t, closure.Cancel(c2, testNow), domain.ErrClosureProgressed)

	// Tampoco uno cerrado.
	require.NoError(t, closure.Approve(c2, "u", testNow))
	require.NoError(t, closure.Close(c2, "u", testNow))
	assert.ErrorIs(t, closure.Cancel(c2, testNow), domain.ErrClosureProgressed)
}

func TestCanDelete_SoloEnProceso(t *testing.T) {
	c := newClosure()
	assert.NoError(t, closure.CanDelete(c))

	c.Status = entity.ClosureCerrado
	assert.ErrorIs(t, closure.CanDelete(c), domain.ErrClosureNotEditable)
}

func TestCanBeEdited_EstadosEditables(t *testing.T) {
	c := newClosure()
	for status, editable := range map[entity.ClosureStatus]bool{
		entity.ClosureEnProceso: true,
		entity.ClosureReabierto: true,
		entity.ClosureCerrado:   false,
		entity.ClosureCancelado: false,
	} {
		c.Status = status
		assert.Equal(t, editable, closure.CanBeEdited(c), "estado %s", status)
		assert.True(t, status.Valid())
	}
	assert.False(t, entity.ClosureStatus("abierto").Valid())
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteo físico y totales
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordPhysicalCount_ValoresNegativosRechazados(t *testing.T) {
	_, details := processedClosure()
	err := closure.RecordPhysicalCount(details[0], dec("-1"), dec("5"), "bodeguero-1", testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, details[0].PhysicalCountQuantity)
}

// Conteo de 85 contra 90 calculado → discrepancia -5 y el valor de
// discrepancia del padre cambia en -5 × costo del conteo (escenario §8.7).
func TestRecordPhysicalCount_DiscrepanciaYTotales(t *testing.T) {
	c, details := processedClosure()
	d := details[0]
	require.True(t, d.CalculatedClosingQuantity.Equal(dec("90")))

	require.NoError(t, closure.RecordPhysicalCount(d, dec("85"), dec("5.10"), "bodeguero-1", testNow))
	require.NotNil(t, d.DiscrepancyQuantity())
	assert.True(t, d.DiscrepancyQuantity().Equal(dec("-5")))
	assert.True(t, d.HasDiscrepancy())
	assert.Equal(t, "bodeguero-1", d.PhysicalCountBy)

	closure.CalculateTotals(c, details)
	assert.True(t, c.HasDiscrepancies)
	assert.Equal(t, 1, c.ProductsWithDiscrepancies)
	assert.Equal(t, 1, c.DiscrepancyCount())
	assert.True(t, c.TotalDiscrepancyValue.Equal(dec("-25.50")), "=-5 × 5.10, obtuvo %s", c.TotalDiscrepancyValue)
}

// Conteo igual al calculado: sin discrepancia.
func TestRecordPhysicalCount_SinDiscrepancia(t *testing.T) {
	c, details := processedClosure()
	require.NoError(t, closure.RecordPhysicalCount(details[0], dec("90"), dec("5"), "bodeguero-1", testNow))
	assert.False(t, details[0].HasDiscrepancy())

	closure.CalculateTotals(c, details)
	assert.False(t, c.HasDiscrepancies)
	assert.Equal(t, 0, c.ProductsWithDiscrepancies)
	assert.True(t, c.TotalDiscrepancyValue.IsZero())
}

func TestCalculateTotals_Plegado(t *testing.T) {
	c := newClosure()
	d1 := closure.DeriveDetail(c.ID, "p1",
		closure.OpeningBalance{Quantity: dec("10"), UnitCost: dec("2")},
		closure.MovementSums{}, testNow)
	d2 := closure.DeriveDetail(c.ID, "p2",
		closure.OpeningBalance{Quantity: dec("4"), UnitCost: dec("7.5")},
		closure.MovementSums{}, testNow)
	details := []*entity.InventoryClosureDetail{d1, d2}

	closure.CalculateTotals(c, details)
	assert.Equal(t, 2, c.TotalProducts)
	assert.True(t, c.TotalQuantity.Equal(dec("14")), "Σ cantidades de cierre")
	assert.True(t, c.TotalValue.Equal(dec("50")), "10×2 + 4×7.5")
	assert.False(t, c.HasDiscrepancies)

	// El plegado es idempotente.
	closure.CalculateTotals(c, details)
	assert.True(t, c.TotalQuantity.Equal(dec("14")))
}

func TestCalculateTotals_SinDetalles(t *testing.T) {
	c := newClosure()
	closure.CalculateTotals(c, nil)
	assert.Equal(t, 0, c.TotalProducts)
	assert.True(t, c.TotalQuantity.IsZero())
	assert.True(t, c.TotalValue.IsZero())
	assert.False(t, c.HasDiscrepancies)
}
