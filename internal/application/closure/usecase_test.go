package closure_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appclosure "github.com/inventasur/bodega-api/internal/application/closure"
	"github.com/inventasur/bodega-api/internal/application/dto"
	"github.com/inventasur/bodega-api/internal/domain"
	domclosure "github.com/inventasur/bodega-api/internal/domain/closure"
	"github.com/inventasur/bodega-api/internal/domain/entity"
	"github.com/inventasur/bodega-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria (sin BD). El TxRunner ejecuta el callback directo: las
// garantías de bloqueo las prueba la capa postgres, aquí interesa la lógica.
// ──────────────────────────────────────────────────────────────────────────────

type fakeClosureRepo struct {
	closures map[string]*entity.InventoryClosure
	details  map[string][]*entity.InventoryClosureDetail
	seq      int
}

func newFakeClosureRepo() *fakeClosureRepo {
	return &fakeClosureRepo{
		closures: map[string]*entity.InventoryClosure{},
		details:  map[string][]*entity.InventoryClosureDetail{},
	}
}

func (r *fakeClosureRepo) Create(_ context.Context, c *entity.InventoryClosure) error {
	for _, other := range r.closures {
		if other.CompanyID == c.CompanyID && other.WarehouseID == c.WarehouseID &&
			other.Year == c.Year && other.Month == c.Month && other.Status != entity.ClosureCancelado {
			return domain.ErrDuplicate
		}
	}
	cp := *c
	r.closures[c.ID] = &cp
	return nil
}

func (r *fakeClosureRepo) GetByID(_ context.Context, id string) (*entity.InventoryClosure, error) {
	c, ok := r.closures[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClosureRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryClosure, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeClosureRepo) Update(_ context.Context, c *entity.InventoryClosure) error {
	cp := *c
	r.closures[c.ID] = &cp
	return nil
}

func (r *fakeClosureRepo) Delete(_ context.Context, id string) error {
	delete(r.closures, id)
	delete(r.details, id)
	return nil
}

func (r *fakeClosureRepo) ListByWarehouse(_ context.Context, warehouseID string, _, _ int) ([]*entity.InventoryClosure, error) {
	var out []*entity.InventoryClosure
	for _, c := range r.closures {
		if c.WarehouseID == warehouseID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStartDate.After(out[j].PeriodStartDate) })
	return out, nil
}

func (r *fakeClosureRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.InventoryClosure, error) {
	var out []*entity.InventoryClosure
	for _, c := range r.closures {
		if c.CompanyID == companyID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeClosureRepo) GetActiveByPeriod(_ context.Context, companyID, warehouseID string, year int, month time.Month) (*entity.InventoryClosure, error) {
	for _, c := range r.closures {
		if c.CompanyID == companyID && c.WarehouseID == warehouseID &&
			c.Year == year && c.Month == month && c.Status != entity.ClosureCancelado {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeClosureRepo) GetPriorClosure(_ context.Context, warehouseID string, before time.Time) (*entity.InventoryClosure, error) {
	var best *entity.InventoryClosure
	for _, c := range r.closures {
		if c.WarehouseID != warehouseID || c.Status != entity.ClosureCerrado {
			continue
		}
		if c.PeriodStartDate.Before(before) && (best == nil || c.PeriodStartDate.After(best.PeriodStartDate)) {
			best = c
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *fakeClosureRepo) NextSequence(_ context.Context, _ string) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *fakeClosureRepo) ReplaceDetails(_ context.Context, closureID string, details []*entity.InventoryClosureDetail) error {
	cp := make([]*entity.InventoryClosureDetail, 0, len(details))
	for _, d := range details {
		dd := *d
		cp = append(cp, &dd)
	}
	r.details[closureID] = cp
	return nil
}

func (r *fakeClosureRepo) ListDetails(_ context.Context, closureID string) ([]*entity.InventoryClosureDetail, error) {
	out := make([]*entity.InventoryClosureDetail, 0, len(r.details[closureID]))
	for _, d := range r.details[closureID] {
		dd := *d
		out = append(out, &dd)
	}
	return out, nil
}

func (r *fakeClosureRepo) GetDetail(_ context.Context, detailID string) (*entity.InventoryClosureDetail, error) {
	for _, details := range r.details {
		for _, d := range details {
			if d.ID == detailID {
				dd := *d
				return &dd, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeClosureRepo) UpdateDetail(_ context.Context, d *entity.InventoryClosureDetail) error {
	for closureID, details := range r.details {
		for i, existing := range details {
			if existing.ID == d.ID {
				dd := *d
				r.details[closureID][i] = &dd
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

type fakeMovementRepo struct {
	sums map[string]map[string]domclosure.MovementSums // warehouseID → productID → sums
}

func (r *fakeMovementRepo) Create(*entity.InventoryMovement) error { return nil }
func (r *fakeMovementRepo) GetByID(string) (*entity.InventoryMovement, error) {
	return nil, nil
}
func (r *fakeMovementRepo) ListByWarehouse(string, *time.Time, *time.Time, int, int) ([]*entity.InventoryMovement, error) {
	return nil, nil
}
func (r *fakeMovementRepo) ListByProduct(string, *time.Time, *time.Time, int, int) ([]*entity.InventoryMovement, error) {
	return nil, nil
}
func (r *fakeMovementRepo) SumsByProduct(warehouseID string, _, _ time.Time) (map[string]domclosure.MovementSums, error) {
	return r.sums[warehouseID], nil
}

type fakeWarehouseRepo struct{ warehouses map[string]*entity.Warehouse }

func (r *fakeWarehouseRepo) Create(*entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.warehouses[id], nil
}
func (r *fakeWarehouseRepo) Update(*entity.Warehouse) error { return nil }
func (r *fakeWarehouseRepo) ListByCompany(string, int, int) ([]*entity.Warehouse, error) {
	return nil, nil
}
func (r *fakeWarehouseRepo) ListByBranch(string, int, int) ([]*entity.Warehouse, error) {
	return nil, nil
}
func (r *fakeWarehouseRepo) Delete(string) error { return nil }

type fakeProductRepo struct{ products map[string]*entity.Product }

func (r *fakeProductRepo) Create(*entity.Product) error { return nil }
func (r *fakeProductRepo) GetByID(id string) (*entity.Product, error) {
	return r.products[id], nil
}
func (r *fakeProductRepo) GetByCompanyAndSKU(string, string) (*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) Update(*entity.Product) error                 { return nil }
func (r *fakeProductRepo) UpdateCost(string, decimal.Decimal) error     { return nil }
func (r *fakeProductRepo) ListByCompany(string, int, int) ([]*entity.Product, error) {
	return nil, nil
}
func (r *fakeProductRepo) ListAllByCompany(string) ([]*entity.Product, error) { return nil, nil }
func (r *fakeProductRepo) Delete(string) error                                { return nil }

type fakeTxRunner struct {
	clos *fakeClosureRepo
	mov  *fakeMovementRepo
}

func (t *fakeTxRunner) RunClosure(ctx context.Context, fn func(
	closRepo repository.InventoryClosureRepository,
	movRepo repository.InventoryMovementRepository,
) error) error {
	return fn(t.clos, t.mov)
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompany   = "co-1"
	testUser      = "user-1"
	testWarehouse = "bod-1"
)

type fixture struct {
	uc   *appclosure.UseCase
	clos *fakeClosureRepo
	mov  *fakeMovementRepo
}

func newFixture() *fixture {
	clos := newFakeClosureRepo()
	mov := &fakeMovementRepo{sums: map[string]map[string]domclosure.MovementSums{}}
	wh := &fakeWarehouseRepo{warehouses: map[string]*entity.Warehouse{
		testWarehouse: {ID: testWarehouse, CompanyID: testCompany, Name: "Bodega Central"},
	}}
	prod := &fakeProductRepo{products: map[string]*entity.Product{}}
	uc := appclosure.NewUseCase(&fakeTxRunner{clos: clos, mov: mov}, clos, wh, prod, nil)
	return &fixture{uc: uc, clos: clos, mov: mov}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) create(t *testing.T, year, month int) *dto.ClosureResponse {
	t.Helper()
	out, err := f.uc.Create(context.Background(), testCompany, testUser, dto.CreateClosureRequest{
		WarehouseID: testWarehouse, Year: year, Month: month,
	})
	require.NoError(t, err)
	return out
}

// seedPriorClosure deja un cierre cerrado de diciembre 2023 con saldo de
// 100 unidades @ $5 para prod-1.
func (f *fixture) seedPriorClosure(t *testing.T) {
	t.Helper()
	start, end := domclosure.PeriodBounds(2023, time.December)
	prior := &entity.InventoryClosure{
		ID: uuid.New().String(), CompanyID: testCompany, WarehouseID: testWarehouse,
		Year: 2023, Month: time.December, ClosureNumber: "CI-202312-0001",
		Status: entity.ClosureCerrado, IsApproved: true,
		PeriodStartDate: start, PeriodEndDate: end,
	}
	require.NoError(t, f.clos.Create(context.Background(), prior))
	require.NoError(t, f.clos.ReplaceDetails(context.Background(), prior.ID, []*entity.InventoryClosureDetail{{
		ID: uuid.New().String(), ClosureID: prior.ID, ProductID: "prod-1",
		CalculatedClosingQuantity: dec("100"), CalculatedClosingUnitCost: dec("5"),
	}}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_NumeroYEstadoInicial(t *testing.T) {
	f := newFixture()
	out := f.create(t, 2024, 1)
	assert.Equal(t, "CI-202401-0001", out.ClosureNumber)
	assert.Equal(t, string(entity.ClosureEnProceso), out.Status)
	assert.False(t, out.IsApproved)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), out.PeriodStartDate)
}

// Segundo cierre activo para el mismo período: rechazado.
func TestCreate_PeriodoDuplicado(t *testing.T) {
	f := newFixture()
	f.create(t, 2024, 1)
	_, err := f.uc.Create(context.Background(), testCompany, testUser, dto.CreateClosureRequest{
		WarehouseID: testWarehouse, Year: 2024, Month: 1,
	})
	assert.ErrorIs(t, err, domain.ErrClosurePeriodExists)
}

// Tras cancelar, el período queda libre de nuevo.
func TestCreate_PeriodoLibreTrasCancelar(t *testing.T) {
	f := newFixture()
	first := f.create(t, 2024, 1)
	_, err := f.uc.Cancel(context.Background(), testCompany, testUser, first.ID)
	require.NoError(t, err)

	second := f.create(t, 2024, 1)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "CI-202401-0002", second.ClosureNumber)
}

func TestCreate_BodegaDeOtraEmpresa(t *testing.T) {
	f := newFixture()
	_, err := f.uc.Create(context.Background(), "otra-empresa", testUser, dto.CreateClosureRequest{
		WarehouseID: testWarehouse, Year: 2024, Month: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Process: derivación de apertura + movimientos
// ──────────────────────────────────────────────────────────────────────────────

// Escenario completo: apertura 100 @ $5 desde el cierre previo, +20 entradas,
// -30 salidas → detalle con cierre calculado 90 y totales consistentes.
func TestProcess_DerivaAperturaYMovimientos(t *testing.T) {
	f := newFixture()
	f.seedPriorClosure(t)
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("20"), InValue: dec("100"), Out: dec("30"), Movements: 2},
	}

	c := f.create(t, 2024, 1)
	out, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, out.TotalProducts)
	assert.Equal(t, 2, out.TotalMovements)
	assert.True(t, out.TotalQuantity.Equal(dec("90")))

	details, err := f.clos.ListDetails(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	d := details[0]
	assert.Equal(t, "prod-1", d.ProductID)
	assert.True(t, d.OpeningQuantity.Equal(dec("100")))
	assert.True(t, d.OpeningUnitCost.Equal(dec("5")))
	assert.True(t, d.QuantityIn.Equal(dec("20")))
	assert.True(t, d.QuantityOut.Equal(dec("30")))
	assert.True(t, d.CalculatedClosingQuantity.Equal(dec("90")))
}

// Producto sin apertura pero con movimientos también genera detalle.
func TestProcess_ProductoNuevoSoloMovimientos(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-9": {In: dec("15"), InValue: dec("45"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	out, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, out.TotalProducts)
	assert.True(t, out.TotalQuantity.Equal(dec("15")))
}

// total_quantity = Σ cierres calculados y total_products = #detalles, exacto.
func TestProcess_TotalesExactos(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-a": {In: dec("10"), InValue: dec("20"), Movements: 1},
		"prod-b": {In: dec("7.5"), InValue: dec("30"), Movements: 3},
	}
	c := f.create(t, 2024, 1)
	out, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalProducts)
	assert.Equal(t, 4, out.TotalMovements)
	assert.True(t, out.TotalQuantity.Equal(dec("17.5")))
}

func TestProcess_CerradoNoSePuedeReprocesar(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("5"), InValue: dec("5"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	_, err = f.uc.Approve(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	_, err = f.uc.Close(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)

	_, err = f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	assert.ErrorIs(t, err, domain.ErrClosureNotEditable)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestClose_RequiereAprobacion(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("5"), InValue: dec("5"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)

	_, err = f.uc.Close(context.Background(), testCompany, testUser, c.ID)
	assert.ErrorIs(t, err, domain.ErrClosureNotApproved)

	// El estado no cambió.
	stored, err := f.clos.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ClosureEnProceso, stored.Status)
}

func TestReopen_FlujoCompleto(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("5"), InValue: dec("5"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	_, err = f.uc.Approve(context.Background(), testCompany, "contador-1", c.ID)
	require.NoError(t, err)
	_, err = f.uc.Close(context.Background(), testCompany, "contador-1", c.ID)
	require.NoError(t, err)

	out, err := f.uc.Reopen(context.Background(), testCompany, "admin-1", c.ID, "diferencia en auditoría anual")
	require.NoError(t, err)
	assert.Equal(t, string(entity.ClosureReabierto), out.Status)
	assert.Equal(t, "diferencia en auditoría anual", out.ReopeningReason)
	assert.Equal(t, c.ClosureNumber, out.ClosureNumber)
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_EnProcesoCascadea(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("5"), InValue: dec("5"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(context.Background(), testCompany, c.ID))

	stored, err := f.clos.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
	details, err := f.clos.ListDetails(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestDelete_CerradoFalla(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("5"), InValue: dec("5"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	_, err = f.uc.Approve(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	_, err = f.uc.Close(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)

	err = f.uc.Delete(context.Background(), testCompany, c.ID)
	assert.ErrorIs(t, err, domain.ErrClosureNotEditable)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteo físico
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordPhysicalCount_ActualizaDetalleYTotales(t *testing.T) {
	f := newFixture()
	f.seedPriorClosure(t)
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("20"), InValue: dec("100"), Out: dec("30"), Movements: 2},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	details, err := f.clos.ListDetails(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)

	out, err := f.uc.RecordPhysicalCount(context.Background(), testCompany, "bodeguero-1", c.ID, details[0].ID, dto.RecordCountRequest{
		Quantity: dec("85"), UnitCost: dec("5"),
	})
	require.NoError(t, err)
	require.NotNil(t, out.DiscrepancyQuantity)
	assert.True(t, out.DiscrepancyQuantity.Equal(dec("-5")))
	assert.True(t, out.HasDiscrepancy)

	stored, err := f.clos.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasDiscrepancies)
	assert.Equal(t, 1, stored.ProductsWithDiscrepancies)
	assert.True(t, stored.TotalDiscrepancyValue.Equal(dec("-25")), "=-5 × $5")
}

func TestRecordPhysicalCount_CierreCerradoRechaza(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("5"), InValue: dec("5"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	details, _ := f.clos.ListDetails(context.Background(), c.ID)
	_, err = f.uc.Approve(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)
	_, err = f.uc.Close(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)

	_, err = f.uc.RecordPhysicalCount(context.Background(), testCompany, testUser, c.ID, details[0].ID, dto.RecordCountRequest{
		Quantity: dec("4"), UnitCost: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrClosureNotEditable)
}

func TestRecordPhysicalCount_DetalleDeOtroCierre(t *testing.T) {
	f := newFixture()
	f.mov.sums[testWarehouse] = map[string]domclosure.MovementSums{
		"prod-1": {In: dec("5"), InValue: dec("5"), Movements: 1},
	}
	c := f.create(t, 2024, 1)
	_, err := f.uc.Process(context.Background(), testCompany, testUser, c.ID)
	require.NoError(t, err)

	_, err = f.uc.RecordPhysicalCount(context.Background(), testCompany, testUser, c.ID, "detalle-inexistente", dto.RecordCountRequest{
		Quantity: dec("1"), UnitCost: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
